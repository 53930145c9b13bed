package s3

import (
	"bytes"
	"context"
	"io/ioutil"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	. "github.com/onsi/gomega"
)

type fakeS3API struct {
	s3iface.S3API
	pages   []*s3.ListObjectsV2Output
	objects map[string][]byte
	listed  *s3.ListObjectsV2Input
}

func (f *fakeS3API) ListObjectsV2PagesWithContext(_ aws.Context, in *s3.ListObjectsV2Input, fn func(*s3.ListObjectsV2Output, bool) bool, _ ...request.Option) error {
	f.listed = in
	for idx, p := range f.pages {
		if !fn(p, idx == len(f.pages)-1) {
			break
		}
	}
	return nil
}

func (f *fakeS3API) GetObjectWithContext(_ aws.Context, in *s3.GetObjectInput, _ ...request.Option) (*s3.GetObjectOutput, error) {
	b, ok := f.objects[*in.Key]
	if !ok {
		return nil, awserr.New(s3.ErrCodeNoSuchKey, "no such key", nil)
	}
	return &s3.GetObjectOutput{Body: ioutil.NopCloser(bytes.NewReader(b))}, nil
}

func (f *fakeS3API) PutObjectWithContext(_ aws.Context, in *s3.PutObjectInput, _ ...request.Option) (*s3.PutObjectOutput, error) {
	b, _ := ioutil.ReadAll(in.Body)
	f.objects[*in.Key] = b
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3API) DeleteObjectWithContext(_ aws.Context, in *s3.DeleteObjectInput, _ ...request.Option) (*s3.DeleteObjectOutput, error) {
	delete(f.objects, *in.Key)
	return &s3.DeleteObjectOutput{}, nil
}

func TestBasicClientList(t *testing.T) {
	g := NewGomegaWithT(t)
	modified := time.Date(2025, 3, 5, 17, 0, 0, 0, time.UTC)
	api := &fakeS3API{pages: []*s3.ListObjectsV2Output{
		{Contents: []*s3.Object{{Key: aws.String("raw/2025/03/05/17/00/staff.csv"), LastModified: aws.Time(modified), Size: aws.Int64(10)}}},
		{Contents: []*s3.Object{{Key: aws.String("raw/2025/03/05/17/00/address.csv"), LastModified: aws.Time(modified)}}},
	}}
	c := NewBasicClientWithAPI(api, "bucket", "raw/")
	got, err := c.List(context.Background(), "2025/")
	g.Expect(err).To(BeNil())
	g.Expect(*api.listed.Prefix).To(Equal("raw/2025/"))
	g.Expect(got).To(Equal([]Object{
		{Key: "2025/03/05/17/00/staff.csv", LastModified: modified, Size: 10},
		{Key: "2025/03/05/17/00/address.csv", LastModified: modified},
	}))
}

func TestBasicClientGetPutDelete(t *testing.T) {
	g := NewGomegaWithT(t)
	ctx := context.Background()
	api := &fakeS3API{objects: make(map[string][]byte)}
	c := NewBasicClientWithAPI(api, "bucket", "")
	// Test 1 - missing key.
	_, err := c.Get(ctx, "nope")
	g.Expect(err).To(Equal(ErrKeyNotFound))
	// Test 2 - round trip.
	g.Expect(c.Put(ctx, "dim_staff/data.parquet", []byte("abc"))).To(Succeed())
	b, err := c.Get(ctx, "dim_staff/data.parquet")
	g.Expect(err).To(BeNil())
	g.Expect(string(b)).To(Equal("abc"))
	// Test 3 - delete.
	g.Expect(c.Delete(ctx, "dim_staff/data.parquet")).To(Succeed())
	_, err = c.Get(ctx, "dim_staff/data.parquet")
	g.Expect(err).To(Equal(ErrKeyNotFound))
}

func TestParseDSN(t *testing.T) {
	g := NewGomegaWithT(t)
	b, err := ParseDSN("s3://my-bucket/some/prefix/", "eu-west-2")
	g.Expect(err).To(BeNil())
	g.Expect(b).To(Equal(AwsS3Bucket{Name: "my-bucket", Prefix: "some/prefix", Region: "eu-west-2"}))
	b, err = ParseDSN("my-bucket", "eu-west-2")
	g.Expect(err).To(BeNil())
	g.Expect(b.Name).To(Equal("my-bucket"))
	_, err = ParseDSN("gs://my-bucket", "eu-west-2")
	g.Expect(err).ToNot(BeNil())
	_, err = ParseDSN("s3://my-bucket", "")
	g.Expect(err).ToNot(BeNil())
}

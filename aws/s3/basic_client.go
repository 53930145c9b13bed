package s3

import (
	"bytes"
	"context"
	"io/ioutil"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/pkg/errors"
)

func NewBasicClient(sess *session.Session, bucket, prefix string) BasicClient {
	return NewBasicClientWithAPI(s3.New(sess), bucket, prefix)
}

func NewBasicClientWithAPI(api s3iface.S3API, bucket, prefix string) BasicClient {
	return &basicClient{
		bucket: bucket,
		prefix: prefix,
		api:    api,
	}
}

type basicClient struct {
	bucket string
	prefix string
	api    s3iface.S3API
}

// List returns objects with keys relative to the client prefix.
func (s *basicClient) List(ctx context.Context, key string) ([]Object, error) {
	objects := make([]Object, 0, 1000)
	params := &s3.ListObjectsV2Input{
		Bucket:  aws.String(s.bucket),
		MaxKeys: aws.Int64(1000),
		Prefix:  aws.String(s.getKeyWithPrefix(key)),
	}
	err := s.api.ListObjectsV2PagesWithContext(ctx, params, func(page *s3.ListObjectsV2Output, lastPage bool) bool {
		for _, v := range page.Contents {
			o := Object{Key: s.trimPrefix(aws.StringValue(v.Key)), Size: aws.Int64Value(v.Size)}
			if v.LastModified != nil {
				o.LastModified = v.LastModified.UTC()
			}
			objects = append(objects, o)
		}
		return true
	})
	if err != nil {
		return nil, errors.Wrapf(err, "error listing bucket %v with prefix %q", s.bucket, key)
	}
	return objects, nil
}

func (s *basicClient) Get(ctx context.Context, key string) ([]byte, error) {
	res, err := s.api.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.getKeyWithPrefix(key)),
	})
	if err != nil {
		var awsErr awserr.Error
		if errors.As(err, &awsErr) && awsErr.Code() == s3.ErrCodeNoSuchKey {
			return nil, ErrKeyNotFound
		}
		return nil, errors.Wrapf(err, "error getting %v from bucket %v", key, s.bucket)
	}
	defer res.Body.Close()
	return ioutil.ReadAll(res.Body)
}

func (s *basicClient) Put(ctx context.Context, key string, data []byte) error {
	_, err := s.api.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.getKeyWithPrefix(key)),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return errors.Wrapf(err, "error putting %v to bucket %v", key, s.bucket)
	}
	return nil
}

func (s *basicClient) Delete(ctx context.Context, key string) error {
	_, err := s.api.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.getKeyWithPrefix(key)),
	})
	return err
}

func (s *basicClient) getKeyWithPrefix(key string) string {
	if s.prefix != "" {
		return strings.TrimRight(s.prefix, "/") + "/" + key // ensure trailing slash after prefix.
	}
	return key
}

func (s *basicClient) trimPrefix(key string) string {
	if s.prefix != "" {
		return strings.TrimPrefix(key, strings.TrimRight(s.prefix, "/")+"/")
	}
	return key
}

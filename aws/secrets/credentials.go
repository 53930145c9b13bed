package secrets

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/secretsmanager"
	"github.com/aws/aws-sdk-go/service/secretsmanager/secretsmanageriface"
	"github.com/pkg/errors"
	"github.com/relloyd/starpipe/helper"
)

// DatabaseCredentials are the connection details stored in a secret.
type DatabaseCredentials struct {
	Username string      `json:"username" errorTxt:"username" mandatory:"yes"`
	Password string      `json:"password" errorTxt:"password" mandatory:"yes"`
	Host     string      `json:"host" errorTxt:"host" mandatory:"yes"`
	Port     json.Number `json:"port" errorTxt:"port" mandatory:"yes"`
	Database string      `json:"dbname"`
}

// DSN returns a postgres URL for the credentials.
func (c DatabaseCredentials) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.Username, c.Password),
		Host:   fmt.Sprintf("%v:%v", c.Host, c.Port),
		Path:   "/" + c.Database,
	}
	return u.String()
}

// Fetcher reads database credentials from AWS Secrets Manager.
type Fetcher struct {
	api secretsmanageriface.SecretsManagerAPI
}

func NewFetcher(sess *session.Session) *Fetcher {
	return NewFetcherWithAPI(secretsmanager.New(sess))
}

func NewFetcherWithAPI(api secretsmanageriface.SecretsManagerAPI) *Fetcher {
	return &Fetcher{api: api}
}

// GetCredentials fetches and parses the named secret.
func (f *Fetcher) GetCredentials(ctx context.Context, secretName string) (DatabaseCredentials, error) {
	out, err := f.api.GetSecretValueWithContext(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(secretName),
	})
	if err != nil {
		return DatabaseCredentials{}, errors.Wrapf(err, "error fetching secret %v", secretName)
	}
	c, err := ParseCredentials(aws.StringValue(out.SecretString))
	if err != nil {
		return DatabaseCredentials{}, errors.Wrapf(err, "error in secret %v", secretName)
	}
	return c, nil
}

// ParseCredentials parses a JSON secret. Single quoted JSON is accepted.
// The port may be a number or a string.
func ParseCredentials(secret string) (DatabaseCredentials, error) {
	var c DatabaseCredentials
	d := json.NewDecoder(strings.NewReader(strings.ReplaceAll(secret, "'", `"`)))
	d.UseNumber()
	var raw map[string]interface{}
	if err := d.Decode(&raw); err != nil {
		return c, fmt.Errorf("unable to parse credentials: %w", err)
	}
	c.Username = asString(raw["username"])
	c.Password = asString(raw["password"])
	c.Host = asString(raw["host"])
	c.Port = json.Number(asString(raw["port"]))
	c.Database = asString(raw["dbname"])
	if err := helper.ValidateStructIsPopulated(&c); err != nil {
		return c, err
	}
	return c, nil
}

func asString(v interface{}) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

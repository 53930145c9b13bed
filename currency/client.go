package currency

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
)

const defaultTimeout = 30 * time.Second

// Client fetches the currency code to name reference document.
type Client struct {
	url  string
	rest *resty.Client
}

// NewClient returns a Client for the JSON document at url, e.g. {"usd":"US Dollar","gbp":"British Pound"}.
func NewClient(url string) *Client {
	return &Client{
		url:  url,
		rest: resty.New().SetTimeout(defaultTimeout).SetRetryCount(2),
	}
}

// FetchNames returns currency names keyed by lower case currency code.
func (c *Client) FetchNames(ctx context.Context) (map[string]string, error) {
	var names map[string]string
	resp, err := c.rest.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		SetResult(&names).
		Get(c.url)
	if err != nil {
		return nil, errors.Wrapf(err, "error fetching currency names from %v", c.url)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("error fetching currency names from %v: status %v", c.url, resp.Status())
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("no currency names found at %v", c.url)
	}
	retval := make(map[string]string, len(names))
	for k, v := range names {
		retval[strings.ToLower(k)] = v
	}
	return retval, nil
}

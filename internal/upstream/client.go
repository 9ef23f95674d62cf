package upstream

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const maxBodyBytes = 8 << 20

// Client talks to the content API. Endpoint URLs in the catalog are paths
// relative to the API base; absolute URLs are requested as they are.
type Client struct {
	base *url.URL
	http *http.Client
}

func NewClient(baseURL string, timeout time.Duration) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, err
	}
	return &Client{
		base: u,
		http: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// NewClientWithHTTP is used by tests to point at an httptest server.
func NewClientWithHTTP(baseURL string, hc *http.Client) (*Client, error) {
	c, err := NewClient(baseURL, 0)
	if err != nil {
		return nil, err
	}
	c.http = hc
	return c, nil
}

// Resolve returns the absolute URL requested for target.
func (c *Client) Resolve(target string) (string, error) {
	ref, err := url.Parse(target)
	if err != nil {
		return "", err
	}
	if ref.IsAbs() {
		return ref.String(), nil
	}
	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + "/" + strings.TrimLeft(ref.Path, "/")
	u.RawQuery = ref.RawQuery
	return u.String(), nil
}

func (c *Client) Fetch(ctx context.Context, target string, headers http.Header) (*http.Response, []byte, error) {
	u, err := c.Resolve(target)
	if err != nil {
		return nil, nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, nil, err
	}
	copyHeaders(req.Header, headers)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, nil, err
	}
	return resp, body, nil
}

func copyHeaders(dst, src http.Header) {
	for k, vv := range src {
		if len(vv) == 0 {
			continue
		}
		for _, v := range vv {
			dst.Add(k, v)
		}
	}
}

// Package client talks to the storage proxy over its JSON API.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	hclient "github.com/cloudwego/hertz/pkg/app/client"
	"github.com/cloudwego/hertz/pkg/protocol"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"github.com/broadstream/qgem/biz/model/api"
)

const defaultTimeout = 15 * time.Second

// APIError is a response the proxy answered with ok=false or a non-2xx status.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("proxy returned %d: %s", e.Status, e.Message)
}

// IsNotFound reports whether err is a 404 from the proxy.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == consts.StatusNotFound
}

// ListQuery holds the optional list parameters. Zero values are omitted.
type ListQuery struct {
	Path      string
	Limit     int
	SortBy    string
	SortOrder string
}

func (q ListQuery) values() url.Values {
	v := url.Values{}
	if q.Path != "" {
		v.Set("path", q.Path)
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.SortBy != "" {
		v.Set("sortBy", q.SortBy)
	}
	if q.SortOrder != "" {
		v.Set("sortOrder", q.SortOrder)
	}
	return v
}

// Client is safe for concurrent use.
type Client struct {
	base    string
	hc      *hclient.Client
	timeout time.Duration
}

// New builds a client for the proxy at baseURL, e.g. "http://localhost:8080".
func New(baseURL string) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("client: base URL is required")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("client: invalid base URL: %w", err)
	}
	hc, err := hclient.NewClient(hclient.WithDialTimeout(5 * time.Second))
	if err != nil {
		return nil, fmt.Errorf("client: %w", err)
	}
	return &Client{base: strings.TrimRight(baseURL, "/"), hc: hc, timeout: defaultTimeout}, nil
}

// List returns one page of folders and files under q.Path.
func (c *Client) List(ctx context.Context, bucket string, q ListQuery) (*api.ListResponse, error) {
	var out api.ListResponse
	if err := c.do(ctx, consts.MethodGet, objectURL(c.base, bucket, "", q.values()), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetJSON returns the parsed object envelope for key.
func (c *Client) GetJSON(ctx context.Context, bucket, key string) (*api.ObjectResponse, error) {
	var out api.ObjectResponse
	if err := c.do(ctx, consts.MethodGet, objectURL(c.base, bucket, key, nil), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SaveJSON uploads body as key. body must be a JSON document.
func (c *Client) SaveJSON(ctx context.Context, bucket, key string, body []byte) (*api.SaveResponse, error) {
	var out api.SaveResponse
	if err := c.do(ctx, consts.MethodPost, objectURL(c.base, bucket, key, nil), body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AccessKey asks the proxy for a new access-key window.
func (c *Client) AccessKey(ctx context.Context) (*api.AccessKeyResponse, error) {
	var out api.AccessKeyResponse
	if err := c.do(ctx, consts.MethodGet, c.base+"/api/access.key", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, uri string, body []byte, out any) error {
	req := protocol.AcquireRequest()
	resp := protocol.AcquireResponse()
	defer protocol.ReleaseRequest(req)
	defer protocol.ReleaseResponse(resp)

	req.SetRequestURI(uri)
	req.SetMethod(method)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.SetContentTypeBytes([]byte("application/json"))
		req.SetBody(body)
	}

	if err := c.hc.DoTimeout(ctx, req, resp, c.timeout); err != nil {
		return fmt.Errorf("%s %s: %w", method, uri, err)
	}

	status := resp.StatusCode()
	raw := resp.Body()
	var envelope struct {
		OK    *bool  `json:"ok"`
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		if status < 200 || status >= 300 {
			return &APIError{Status: status, Message: strings.TrimSpace(string(raw))}
		}
		return fmt.Errorf("%s %s: decode response: %w", method, uri, err)
	}
	if status < 200 || status >= 300 || (envelope.OK != nil && !*envelope.OK) {
		msg := envelope.Error
		if msg == "" {
			msg = consts.StatusMessage(status)
		}
		return &APIError{Status: status, Message: msg}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", method, uri, err)
	}
	return nil
}

func objectURL(base, bucket, key string, query url.Values) string {
	var b strings.Builder
	b.WriteString(base)
	b.WriteString("/api/")
	b.WriteString(url.PathEscape(bucket))
	if key != "" {
		for _, seg := range strings.Split(strings.TrimPrefix(key, "/"), "/") {
			b.WriteByte('/')
			b.WriteString(url.PathEscape(seg))
		}
	}
	if len(query) > 0 {
		b.WriteByte('?')
		b.WriteString(query.Encode())
	}
	return b.String()
}

package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// RESTPath is the PostgREST prefix relative to the project base URL.
const RESTPath = "/rest/v1"

// Client issues single, unretried requests against the Supabase REST API.
type Client struct {
	baseURL    string
	headers    http.Header
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.headers.Set("User-Agent", ua)
		}
	}
}

// New builds a client for the project at baseURL authenticated with key.
// The key is sent both as the apikey header and as a bearer token.
func New(baseURL, key string, opts ...Option) *Client {
	headers := make(http.Header)
	headers.Set("apikey", key)
	headers.Set("Authorization", "Bearer "+key)
	headers.Set("Content-Type", "application/json")

	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		headers:    headers,
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Response is the raw outcome of a request. Status interpretation is left to callers.
type Response struct {
	StatusCode int
	Body       string
}

// Count queries the row count projection of table.
func (c *Client) Count(ctx context.Context, table string) (*Response, error) {
	return c.do(ctx, http.MethodGet, c.tableURL(table, url.Values{"select": {"count"}}), nil)
}

// Insert creates record in table.
func (c *Client) Insert(ctx context.Context, table string, record any) (*Response, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("marshal record: %w", err)
	}
	return c.do(ctx, http.MethodPost, c.tableURL(table, nil), bytes.NewReader(data))
}

// DeleteByID removes the rows of table whose id equals id.
func (c *Client) DeleteByID(ctx context.Context, table, id string) (*Response, error) {
	return c.do(ctx, http.MethodDelete, c.tableURL(table, url.Values{"id": {"eq." + id}}), nil)
}

func (c *Client) tableURL(table string, query url.Values) string {
	target := c.baseURL + RESTPath + "/" + url.PathEscape(table)
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	return target
}

func (c *Client) do(ctx context.Context, method, target string, body io.Reader) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", method, err)
	}
	req.Header = c.headers.Clone()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Method: method, URL: target, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Method: method, URL: target, Err: fmt.Errorf("read response: %w", err)}
	}

	return &Response{StatusCode: resp.StatusCode, Body: string(data)}, nil
}

package kvstore

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
)

// DefaultBaseURL is the Cloudflare v4 API root.
const DefaultBaseURL = "https://api.cloudflare.com/client/v4"

const namespacesPerPage = 100

// Client talks to the Cloudflare Workers KV REST API.
type Client struct {
	baseURL   string
	accountID string
	apiToken  string
	http      *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API root. An empty url keeps the default.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithHTTPClient sets the HTTP client used for every call.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http = &http.Client{Timeout: d}
	}
}

// NewClient builds a Client for one account.
func NewClient(accountID, apiToken string, opts ...Option) (*Client, error) {
	if accountID == "" || apiToken == "" {
		return nil, ErrMissingCredentials
	}
	c := &Client{
		baseURL:   DefaultBaseURL,
		accountID: accountID,
		apiToken:  apiToken,
		http:      &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type apiMessage struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type resultInfo struct {
	Page       int    `json:"page"`
	PerPage    int    `json:"per_page"`
	Count      int    `json:"count"`
	TotalCount int    `json:"total_count"`
	TotalPages int    `json:"total_pages"`
	Cursor     string `json:"cursor"`
}

type envelope[T any] struct {
	Success    bool         `json:"success"`
	Errors     []apiMessage `json:"errors"`
	Result     T            `json:"result"`
	ResultInfo resultInfo   `json:"result_info"`
}

func (c *Client) namespacesURL() string {
	return c.baseURL + "/accounts/" + url.PathEscape(c.accountID) + "/storage/kv/namespaces"
}

// ListNamespaces returns every namespace of the account, following the
// page-numbered listing until the last page.
func (c *Client) ListNamespaces(ctx context.Context) ([]Namespace, error) {
	var out []Namespace
	for page := 1; ; page++ {
		q := url.Values{}
		q.Set("page", strconv.Itoa(page))
		q.Set("per_page", strconv.Itoa(namespacesPerPage))

		var env envelope[[]Namespace]
		if err := c.getJSON(ctx, "list_namespaces", c.namespacesURL()+"?"+q.Encode(), &env); err != nil {
			return nil, err
		}
		out = append(out, env.Result...)
		if len(env.Result) == 0 || env.ResultInfo.TotalPages <= page {
			return out, nil
		}
	}
}

// ListKeys returns one page of keys. limit is capped at MaxPageSize.
func (c *Client) ListKeys(ctx context.Context, namespaceID, cursor string, limit int) (KeyPage, error) {
	if limit <= 0 || limit > MaxPageSize {
		limit = MaxPageSize
	}
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	if cursor != "" {
		q.Set("cursor", cursor)
	}
	u := c.namespacesURL() + "/" + url.PathEscape(namespaceID) + "/keys?" + q.Encode()

	var env envelope[[]Key]
	if err := c.getJSON(ctx, "list_keys", u, &env); err != nil {
		return KeyPage{}, err
	}
	return KeyPage{Keys: env.Result, Cursor: env.ResultInfo.Cursor}, nil
}

// GetValue returns the raw stored bytes of one key.
func (c *Client) GetValue(ctx context.Context, namespaceID, key string) ([]byte, error) {
	u := c.namespacesURL() + "/" + url.PathEscape(namespaceID) + "/values/" + url.PathEscape(key)
	resp, err := c.do(ctx, u)
	if err != nil {
		return nil, &UpstreamError{Op: "get_value", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &UpstreamError{Op: "get_value", StatusCode: resp.StatusCode, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &UpstreamError{Op: "get_value", StatusCode: resp.StatusCode, Messages: envelopeMessages(body)}
	}
	return body, nil
}

func (c *Client) do(ctx context.Context, u string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiToken)
	req.Header.Set("Content-Type", "application/json")
	return c.http.Do(req)
}

// reply is implemented by every response envelope.
type reply interface {
	ok() (bool, []apiMessage)
}

func (c *Client) getJSON(ctx context.Context, op, u string, dst reply) error {
	resp, err := c.do(ctx, u)
	if err != nil {
		return &UpstreamError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &UpstreamError{Op: op, StatusCode: resp.StatusCode, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &UpstreamError{Op: op, StatusCode: resp.StatusCode, Messages: envelopeMessages(body)}
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return &UpstreamError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	if success, errs := dst.ok(); !success {
		return &UpstreamError{Op: op, StatusCode: resp.StatusCode, Messages: messages(errs)}
	}
	return nil
}

func (e *envelope[T]) ok() (bool, []apiMessage) {
	return e.Success, e.Errors
}

func envelopeMessages(body []byte) []string {
	var env envelope[json.RawMessage]
	if err := json.Unmarshal(body, &env); err != nil {
		return nil
	}
	return messages(env.Errors)
}

func messages(errs []apiMessage) []string {
	if len(errs) == 0 {
		return nil
	}
	out := make([]string, 0, len(errs))
	for _, e := range errs {
		out = append(out, fmt.Sprintf("%d: %s", e.Code, e.Message))
	}
	return out
}

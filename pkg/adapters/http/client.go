package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/blockloom/pkg/domain"
	"github.com/aretw0/blockloom/pkg/ports"
	"github.com/aretw0/blockloom/pkg/schema"
)

// Compile-time interface check.
var _ ports.BlockStore = (*Client)(nil)

// DefaultAPIVersion is sent in the X-Api-Version header.
const DefaultAPIVersion = "2022-06-28"

// Client implements ports.BlockStore over the remote HTTP API.
type Client struct {
	http       *http.Client
	baseURL    string
	token      string
	apiVersion string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.http.Timeout = d
	}
}

// WithHTTPClient replaces the underlying *http.Client entirely.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.http = hc
	}
}

// WithToken sets the bearer token.
func WithToken(token string) ClientOption {
	return func(c *Client) {
		c.token = token
	}
}

// WithAPIVersion overrides the X-Api-Version header.
func WithAPIVersion(v string) ClientOption {
	return func(c *Client) {
		c.apiVersion = v
	}
}

// NewClient creates a client for the API rooted at baseURL (e.g. "https://api.example.com").
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiVersion: DefaultAPIVersion,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AppendChildren issues PATCH /v1/blocks/{id}/children.
func (c *Client) AppendChildren(ctx context.Context, parentID string, children []domain.Block) ([]string, error) {
	wire, err := schema.EncodeBlocks(children)
	if err != nil {
		return nil, fmt.Errorf("append: encode children: %w", err)
	}
	if wire == nil {
		wire = []schema.Block{}
	}
	body, err := json.Marshal(schema.AppendRequest{Children: wire})
	if err != nil {
		return nil, fmt.Errorf("append: marshal body: %w", err)
	}

	var list schema.List
	if err := c.do(ctx, "append", http.MethodPatch, c.childrenURL(parentID, nil), body, &list); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(list.Results))
	for _, b := range list.Results {
		ids = append(ids, b.ID)
	}
	return ids, nil
}

// ListChildren issues GET /v1/blocks/{id}/children.
func (c *Client) ListChildren(ctx context.Context, parentID, cursor string, pageSize int) (*domain.ChildPage, error) {
	q := url.Values{}
	if cursor != "" {
		q.Set("start_cursor", cursor)
	}
	if pageSize > 0 {
		q.Set("page_size", strconv.Itoa(pageSize))
	}

	var list schema.List
	if err := c.do(ctx, "list", http.MethodGet, c.childrenURL(parentID, q), nil, &list); err != nil {
		return nil, err
	}
	page := &domain.ChildPage{
		Children:   make([]domain.ChildRef, 0, len(list.Results)),
		NextCursor: list.Cursor(),
	}
	for _, b := range list.Results {
		page.Children = append(page.Children, domain.ChildRef{
			ID:          b.ID,
			Kind:        domain.Kind(b.Type),
			HasChildren: b.HasChildren,
		})
	}
	return page, nil
}

func (c *Client) childrenURL(id string, q url.Values) string {
	u := c.baseURL + "/v1/blocks/" + url.PathEscape(id) + "/children"
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	return u
}

func (c *Client) do(ctx context.Context, op, method, endpoint string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("%s: create request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Api-Version", c.apiVersion)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return transportError(ctx, op, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return transportError(ctx, op, err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		var env schema.Error
		if err := json.Unmarshal(data, &env); err != nil || env.Object != "error" {
			env = schema.Error{Status: resp.StatusCode, Message: strings.TrimSpace(string(data))}
		}
		if env.Status == 0 {
			env.Status = resp.StatusCode
		}
		return env.RemoteError(op)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

// transportError keeps context errors intact so they are never retried and
// classifies everything else as a transient remote failure.
func transportError(ctx context.Context, op string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	code := domain.CodeUnavailable
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		code = domain.CodeTimeout
	}
	return &domain.RemoteError{Op: op, Code: code, Message: err.Error()}
}

package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/MrEthical07/goPerm/permission"
	"github.com/MrEthical07/goPerm/report"
	"github.com/MrEthical07/goPerm/store"
)

const maxResponseBytes = 4 << 20

// Client calls the role REST API. It implements store.Store.
//
// Client is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
	token   string
}

var _ store.Store = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default client (10s timeout).
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.http = c }
}

// WithToken sends token as a bearer credential on every request.
func WithToken(token string) Option {
	return func(cl *Client) { cl.token = token }
}

// NewClient returns a client for the API rooted at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get fetches one role.
func (c *Client) Get(ctx context.Context, id string) (*store.Record, error) {
	var rec store.Record
	if err := c.do(ctx, http.MethodGet, "/roles/"+url.PathEscape(id), nil, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// List fetches every role.
func (c *Client) List(ctx context.Context) ([]store.Record, error) {
	var out []store.Record
	if err := c.do(ctx, http.MethodGet, "/roles", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Create submits a new role.
func (c *Client) Create(ctx context.Context, rec store.Record) (*store.Record, error) {
	resp, err := c.submit(ctx, http.MethodPost, "/roles", rec)
	if err != nil {
		return nil, err
	}
	return &resp.Role, nil
}

// Update replaces a role. A non-zero Version is checked by the server.
func (c *Client) Update(ctx context.Context, rec store.Record) (*store.Record, error) {
	if rec.ID == "" {
		return nil, fmt.Errorf("%w: id is required", store.ErrInvalidRecord)
	}
	resp, err := c.submit(ctx, http.MethodPut, "/roles/"+url.PathEscape(rec.ID), rec)
	if err != nil {
		return nil, err
	}
	return &resp.Role, nil
}

// SubmitRole is Create or Update returning the server's warnings as well.
func (c *Client) SubmitRole(ctx context.Context, rec store.Record) (*RoleResponse, error) {
	if rec.ID == "" {
		return c.submit(ctx, http.MethodPost, "/roles", rec)
	}
	return c.submit(ctx, http.MethodPut, "/roles/"+url.PathEscape(rec.ID), rec)
}

func (c *Client) submit(ctx context.Context, method, path string, rec store.Record) (*RoleResponse, error) {
	body := RoleRequest{
		Name:        rec.Name,
		Parent:      rec.Parent,
		Description: rec.Description,
		Permissions: rec.Permissions,
		Version:     rec.Version,
	}
	var resp RoleResponse
	if err := c.do(ctx, method, path, body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Delete removes a role.
func (c *Client) Delete(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/roles/"+url.PathEscape(id), nil, nil)
}

// AssignUser assigns roleID to userID.
func (c *Client) AssignUser(ctx context.Context, userID, roleID string) error {
	return c.do(ctx, http.MethodPut, "/users/"+url.PathEscape(userID)+"/role", AssignRequest{RoleID: roleID}, nil)
}

// UserPermissions fetches the wire permissions of the role assigned to userID.
func (c *Client) UserPermissions(ctx context.Context, userID string) ([]permission.Entry, error) {
	var out []permission.Entry
	if err := c.do(ctx, http.MethodGet, "/users/"+url.PathEscape(userID)+"/permissions", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Validate asks the server to validate entries without storing them.
func (c *Client) Validate(ctx context.Context, entries []permission.Entry) (permission.Report, error) {
	var r permission.Report
	err := c.do(ctx, http.MethodPost, "/roles/validate", ValidateRequest{Permissions: entries}, &r)
	return r, err
}

// Catalog fetches the server's module catalog.
func (c *Client) Catalog(ctx context.Context) (*CatalogResponse, error) {
	var out CatalogResponse
	if err := c.do(ctx, http.MethodGet, "/catalog", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Audit fetches the role audit report.
func (c *Client) Audit(ctx context.Context) (*report.Summary, error) {
	var out report.Summary
	if err := c.do(ctx, http.MethodGet, "/audit/roles", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	limited := io.LimitReader(resp.Body, maxResponseBytes)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp.StatusCode, limited)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, limited)
		return nil
	}
	if err := json.NewDecoder(limited).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeError(status int, body io.Reader) error {
	apiErr := &APIError{Status: status}
	var payload ErrorResponse
	if err := json.NewDecoder(body).Decode(&payload); err == nil {
		apiErr.Message = payload.Message
		apiErr.Fields = payload.Fields
		apiErr.Diagnostics = payload.Diagnostics
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(status)
	}
	return apiErr
}

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Client is a client for the tidylist HTTP API. The zero value is not
// usable; construct one with NewClient. Authenticated endpoints require
// a token, set either via SetToken or by calling Login / Register.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client

	token string
}

// NewClient creates a new API client for the given base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// SetToken sets the bearer token used for authenticated requests.
func (c *Client) SetToken(token string) {
	c.token = token
}

// Token returns the bearer token currently held by the client.
func (c *Client) Token() string {
	return c.token
}

// Register creates a new account. On success the client stores the
// returned token for subsequent authenticated calls.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*AuthData, error) {
	var data AuthData
	if err := c.do(ctx, http.MethodPost, "/api/auth/register", req, &data); err != nil {
		return nil, err
	}
	c.token = data.Token
	return &data, nil
}

// Login authenticates with an email and password. On success the client
// stores the returned token for subsequent authenticated calls.
func (c *Client) Login(ctx context.Context, req LoginRequest) (*AuthData, error) {
	var data AuthData
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", req, &data); err != nil {
		return nil, err
	}
	c.token = data.Token
	return &data, nil
}

// Profile returns the authenticated user's profile.
func (c *Client) Profile(ctx context.Context) (*User, error) {
	var data UserData
	if err := c.do(ctx, http.MethodGet, "/api/auth/profile", nil, &data); err != nil {
		return nil, err
	}
	return &data.User, nil
}

// CreateTodo creates a todo owned by the authenticated user.
func (c *Client) CreateTodo(ctx context.Context, req CreateTodoRequest) (*Todo, error) {
	var data TodoData
	if err := c.do(ctx, http.MethodPost, "/api/todos", req, &data); err != nil {
		return nil, err
	}
	return &data.Todo, nil
}

// ListTodosOptions carries the optional query parameters for ListTodos.
// Zero values are omitted from the request, leaving the server defaults
// in effect.
type ListTodosOptions struct {
	Completed *bool
	SortBy    string
	Order     string
	Page      int
	Limit     int
}

// ListTodos returns the authenticated user's todos.
func (c *Client) ListTodos(ctx context.Context, opts ListTodosOptions) (*TodoListData, error) {
	q := url.Values{}
	if opts.Completed != nil {
		q.Set("completed", strconv.FormatBool(*opts.Completed))
	}
	if opts.SortBy != "" {
		q.Set("sortBy", opts.SortBy)
	}
	if opts.Order != "" {
		q.Set("sortOrder", opts.Order)
	}
	if opts.Page > 0 {
		q.Set("page", strconv.Itoa(opts.Page))
	}
	if opts.Limit > 0 {
		q.Set("limit", strconv.Itoa(opts.Limit))
	}

	path := "/api/todos"
	if encoded := q.Encode(); encoded != "" {
		path += "?" + encoded
	}

	var data TodoListData
	if err := c.do(ctx, http.MethodGet, path, nil, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetTodo returns a single todo by ID.
func (c *Client) GetTodo(ctx context.Context, id string) (*Todo, error) {
	var data TodoData
	if err := c.do(ctx, http.MethodGet, "/api/todos/"+url.PathEscape(id), nil, &data); err != nil {
		return nil, err
	}
	return &data.Todo, nil
}

// UpdateTodo applies a partial update to a todo and returns the updated row.
func (c *Client) UpdateTodo(ctx context.Context, id string, req UpdateTodoRequest) (*Todo, error) {
	var data TodoData
	if err := c.do(ctx, http.MethodPut, "/api/todos/"+url.PathEscape(id), req, &data); err != nil {
		return nil, err
	}
	return &data.Todo, nil
}

// DeleteTodo deletes a todo and returns a snapshot of the deleted row.
func (c *Client) DeleteTodo(ctx context.Context, id string) (*Todo, error) {
	var data TodoData
	if err := c.do(ctx, http.MethodDelete, "/api/todos/"+url.PathEscape(id), nil, &data); err != nil {
		return nil, err
	}
	return &data.Todo, nil
}

// TodoStats returns completion statistics for the authenticated user.
func (c *Client) TodoStats(ctx context.Context) (*TodoStats, error) {
	var data StatsData
	if err := c.do(ctx, http.MethodGet, "/api/todos/stats", nil, &data); err != nil {
		return nil, err
	}
	return &data.Stats, nil
}

// Info returns the service banner from the root route.
func (c *Client) Info(ctx context.Context) (*InfoData, error) {
	var data InfoData
	if err := c.do(ctx, http.MethodGet, "/", nil, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// Health returns the readiness report. A non-2xx status still yields
// the decoded report where possible, alongside the API error.
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/readyz", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var health HealthResponse
	if err := json.Unmarshal(body, &health); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return &health, &Error{StatusCode: resp.StatusCode, Message: health.Status}
	}
	return &health, nil
}

// do performs a request, unwraps the response envelope, and decodes the
// data payload into out when out is non-nil. Non-success responses are
// returned as *Error.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	resp, err := c.doRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	var envelope struct {
		Success bool            `json:"success"`
		Message string          `json:"message"`
		Data    json.RawMessage `json:"data"`
		Errors  []string        `json:"errors"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return fmt.Errorf("failed to decode response (status %d): %w", resp.StatusCode, err)
	}

	if !envelope.Success {
		return &Error{
			StatusCode: resp.StatusCode,
			Message:    envelope.Message,
			Errors:     envelope.Errors,
		}
	}

	if out != nil && len(envelope.Data) > 0 {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return fmt.Errorf("failed to decode response data: %w", err)
		}
	}
	return nil
}

func (c *Client) doRequest(ctx context.Context, method, path string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	return resp, nil
}

// Package api is the HTTP client for the /api/todos/ REST resource.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/sony/gobreaker"

	"github.com/Makepad-fr/tada/internal/model"
)

// StatusError is returned for any non-2xx response.
type StatusError struct {
	Method string
	Path   string
	Code   int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Code, http.StatusText(e.Code))
}

// IsStatus reports whether err carries a non-2xx response.
func IsStatus(err error) bool {
	var se *StatusError
	return errors.As(err, &se)
}

// Client talks to a todo API rooted at a base URL.
type Client struct {
	base    string
	http    *http.Client
	token   string
	logger  *log.Logger
	breaker *gobreaker.CircuitBreaker
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces http.DefaultClient.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithToken sends Authorization: Bearer <token> on every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = strings.TrimSpace(token) }
}

// WithLogger sets the logger used for breaker state changes.
func WithLogger(l *log.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New returns a client for the API at baseURL (scheme and host, optional path prefix).
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base url %q must include scheme and host", baseURL)
	}

	c := &Client{
		base: strings.TrimRight(u.String(), "/"),
		http: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = log.New(io.Discard)
	}

	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "todo-api",
		MaxRequests: 1,
		Timeout:     5 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 3
		},
		// A request cancelled by its owner says nothing about the server.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	})
	return c, nil
}

// List fetches every todo: GET /api/todos/.
func (c *Client) List(ctx context.Context) ([]model.Todo, error) {
	body, err := c.do(ctx, http.MethodGet, collectionPath, nil)
	if err != nil {
		return nil, err
	}
	var todos []model.Todo
	if err := decode(body, listSchema, &todos); err != nil {
		return nil, fmt.Errorf("list todos: %w", err)
	}
	return todos, nil
}

// Create adds a todo: POST /api/todos/.
func (c *Client) Create(ctx context.Context, req model.CreateRequest) (model.Todo, error) {
	body, err := c.do(ctx, http.MethodPost, collectionPath, req)
	if err != nil {
		return model.Todo{}, err
	}
	var t model.Todo
	if err := decode(body, todoSchema, &t); err != nil {
		return model.Todo{}, fmt.Errorf("create todo: %w", err)
	}
	return t, nil
}

// Update replaces a todo with the full representation in req: PUT /api/todos/{id}/.
// The returned todo holds the server's values.
func (c *Client) Update(ctx context.Context, req model.UpdateRequest) (model.Todo, error) {
	body, err := c.do(ctx, http.MethodPut, itemPath(req.ID), req)
	if err != nil {
		return model.Todo{}, err
	}
	var t model.Todo
	if err := decode(body, todoSchema, &t); err != nil {
		return model.Todo{}, fmt.Errorf("update todo %d: %w", req.ID, err)
	}
	return t, nil
}

// Delete removes a todo: DELETE /api/todos/{id}/. The response body is ignored.
func (c *Client) Delete(ctx context.Context, id int64) error {
	_, err := c.do(ctx, http.MethodDelete, itemPath(id), nil)
	return err
}

const collectionPath = "/api/todos/"

func itemPath(id int64) string {
	return collectionPath + strconv.FormatInt(id, 10) + "/"
}

type response struct {
	code int
	body []byte
}

// do sends one request through the breaker. Transport failures and 5xx count
// against the breaker; 4xx do not.
func (c *Client) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var reqBody []byte
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("json marshal: %w", err)
		}
		reqBody = b
	}

	out, err := c.breaker.Execute(func() (interface{}, error) {
		var rdr io.Reader
		if reqBody != nil {
			rdr = bytes.NewReader(reqBody)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.base+path, rdr)
		if err != nil {
			return nil, fmt.Errorf("new request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		if reqBody != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("read body: %w", err)
		}
		res := response{code: resp.StatusCode, body: data}
		if res.code >= 500 {
			return res, &StatusError{Method: method, Path: path, Code: res.code}
		}
		return res, nil
	})
	if err != nil {
		if IsStatus(err) {
			return nil, err
		}
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}

	res := out.(response)
	if res.code < 200 || res.code > 299 {
		return nil, &StatusError{Method: method, Path: path, Code: res.code}
	}
	return res.body, nil
}

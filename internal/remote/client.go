// Package remote talks to a JSON todo collection endpoint of the
// jsonplaceholder shape: GET/POST /todos and DELETE /todos/{id}.
package remote

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

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/Makepad-fr/tada-remote/internal/model"
)

// DefaultBaseURL is the public demo API.
const DefaultBaseURL = "https://jsonplaceholder.typicode.com"

const requestIDHeader = "X-Request-ID"

// Client is safe for concurrent use.
type Client struct {
	BaseURL   string
	HTTP      *http.Client
	Token     string
	UserAgent string
	Logger    *log.Logger
}

// New returns a client for baseURL with the given request timeout.
func New(baseURL string, timeout time.Duration, logger *log.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		BaseURL:   strings.TrimRight(baseURL, "/"),
		HTTP:      &http.Client{Timeout: timeout},
		UserAgent: "tada-remote",
		Logger:    logger,
	}
}

type createRequest struct {
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}

// List fetches the first limit items of the collection.
func (c *Client) List(ctx context.Context, limit int) ([]model.Item, error) {
	q := url.Values{}
	q.Set("_limit", strconv.Itoa(limit))
	var items []model.Item
	if err := c.do(ctx, http.MethodGet, "/todos?"+q.Encode(), nil, &items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []model.Item{}
	}
	return items, nil
}

// Create posts a new item and returns what the server echoed back.
func (c *Client) Create(ctx context.Context, title string, completed bool) (model.Item, error) {
	var it model.Item
	err := c.do(ctx, http.MethodPost, "/todos", createRequest{Title: title, Completed: completed}, &it)
	return it, err
}

// Delete removes the item with the given id. The response body is ignored.
func (c *Client) Delete(ctx context.Context, id int) error {
	return c.do(ctx, http.MethodDelete, "/todos/"+strconv.Itoa(id), nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("json marshal: %w", err)
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, rd)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	reqID := uuid.NewString()
	req.Header.Set(requestIDHeader, reqID)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	hc := c.HTTP
	if hc == nil {
		hc = http.DefaultClient
	}

	start := time.Now()
	resp, err := hc.Do(req)
	if err != nil {
		c.logger().Debug("request failed", "method", method, "path", path, "request_id", reqID, "err", err)
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	c.logger().Debug("request",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"request_id", reqID,
		"duration", time.Since(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		se := &StatusError{Method: method, Path: path, Code: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
		c.logger().Debug("error response", "method", method, "path", path, "status", se.Code, "request_id", reqID, "body", se.Body)
		return se
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s %s: json decode: %w", method, path, err)
	}
	return nil
}

func (c *Client) logger() *log.Logger {
	if c.Logger == nil {
		return log.New(io.Discard)
	}
	return c.Logger
}

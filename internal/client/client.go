// Package client is the Go SDK for the storefront API. It keeps the
// behavior a browser front end would have: cached queries that mutations
// invalidate, notifications for every outcome the user should see, form
// validation before any request is sent, and the route guard.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

type Variant string

const (
	VariantDefault     Variant = "default"
	VariantDestructive Variant = "destructive"
)

type Notification struct {
	Title       string
	Description string
	Variant     Variant
}

type Notifier interface {
	Notify(Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notification)

func (f NotifierFunc) Notify(n Notification) { f(n) }

// APIError is a non-2xx response.
type APIError struct {
	Status  int
	Message string
	Fields  map[string]string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

type Client struct {
	baseURL  string
	http     *http.Client
	notifier Notifier
	cache    *QueryCache

	mu    sync.RWMutex
	token string
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

func WithNotifier(n Notifier) Option {
	return func(c *Client) { c.notifier = n }
}

// WithCacheMaxAge expires cached queries after d. Zero keeps them until
// invalidated.
func WithCacheMaxAge(d time.Duration) Option {
	return func(c *Client) { c.cache = NewQueryCache(d) }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		http:     &http.Client{Timeout: 15 * time.Second},
		notifier: NotifierFunc(func(Notification) {}),
		cache:    NewQueryCache(0),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Cache exposes the query cache, mostly for inspection.
func (c *Client) Cache() *QueryCache { return c.cache }

func (c *Client) success(description string) {
	c.notifier.Notify(Notification{Title: "Success", Description: description, Variant: VariantDefault})
}

// failure notifies with the error's message, or fallback when it has none.
func (c *Client) failure(err error, fallback string) {
	description := err.Error()
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		description = apiErr.Message
	}
	if description == "" {
		description = fallback
	}
	c.notifier.Notify(Notification{Title: "Error", Description: description, Variant: VariantDestructive})
}

// raw sends a request and returns the response body of a 2xx reply.
func (c *Client) raw(ctx context.Context, method, path string, body interface{}, header http.Header) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newAPIError(resp, data)
	}
	return data, nil
}

func newAPIError(resp *http.Response, data []byte) *APIError {
	apiErr := &APIError{Status: resp.StatusCode}
	var body struct {
		Error  string            `json:"error"`
		Fields map[string]string `json:"fields"`
	}
	if json.Unmarshal(data, &body) == nil && body.Error != "" {
		apiErr.Message = body.Error
		apiErr.Fields = body.Fields
		return apiErr
	}
	apiErr.Message = strings.TrimSpace(string(data))
	if apiErr.Message == "" {
		apiErr.Message = resp.Status
	}
	return apiErr
}

// send performs an uncached request and decodes the reply into out.
func (c *Client) send(ctx context.Context, method, path string, body, out interface{}) error {
	return c.sendWithHeader(ctx, method, path, body, out, nil)
}

func (c *Client) sendWithHeader(ctx context.Context, method, path string, body, out interface{}, header http.Header) error {
	data, err := c.raw(ctx, method, path, body, header)
	if err != nil {
		return err
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, out)
}

// query performs a cached GET keyed by path.
func (c *Client) query(ctx context.Context, path string, out interface{}) error {
	data, err := c.cache.Fetch(ctx, path, func(ctx context.Context) ([]byte, error) {
		return c.raw(ctx, http.MethodGet, path, nil, nil)
	})
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

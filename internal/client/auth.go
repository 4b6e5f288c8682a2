package client

import (
	"context"
	"errors"
	"net/http"
	"storefront/internal/entity"
	"storefront/internal/validation"
	"time"
)

// Session is what login and registration return.
type Session struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      *entity.User `json:"user"`
}

func (c *Client) Register(ctx context.Context, req validation.Register) (*Session, error) {
	return c.signIn(ctx, "/api/register", req, "Registration failed")
}

func (c *Client) Login(ctx context.Context, req validation.Login) (*Session, error) {
	return c.signIn(ctx, "/api/login", req, "Login failed")
}

func (c *Client) signIn(ctx context.Context, path string, req interface{}, fallback string) (*Session, error) {
	if err := validation.Struct(req); err != nil {
		c.failure(err, fallback)
		return nil, err
	}
	var s Session
	if err := c.send(ctx, http.MethodPost, path, req, &s); err != nil {
		c.failure(err, fallback)
		return nil, err
	}
	c.SetToken(s.Token)
	c.cache.Invalidate("")
	return &s, nil
}

// Logout ends the session. A session the server already dropped counts as
// logged out.
func (c *Client) Logout(ctx context.Context) error {
	err := c.send(ctx, http.MethodPost, "/api/logout", nil, nil)
	var apiErr *APIError
	if err != nil && !(errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized) {
		c.failure(err, "Logout failed")
		return err
	}
	c.SetToken("")
	c.cache.Invalidate("")
	return nil
}

// Me returns the signed in user, or nil when there is none.
func (c *Client) Me(ctx context.Context) (*entity.User, error) {
	if c.Token() == "" {
		return nil, nil
	}
	var user entity.User
	err := c.query(ctx, "/api/user", &user)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"simdash/internal/dashboard"
	"simdash/internal/models"
)

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignUp registers a user. It does not sign in.
func (c *Client) SignUp(ctx context.Context, email, password string) error {
	var out struct {
		ID int `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/auth/sign-up", nil, credentials{email, password}, &out); err != nil {
		return fmt.Errorf("sign up: %w", err)
	}
	c.log.Infow("signed_up", "email", email, "user_id", out.ID)
	return nil
}

// SignIn exchanges credentials for an access token kept by the client.
func (c *Client) SignIn(ctx context.Context, email, password string) error {
	var out struct {
		Token string `json:"token"`
	}
	if err := c.do(ctx, http.MethodPost, "/auth/sign-in", nil, credentials{email, password}, &out); err != nil {
		return fmt.Errorf("sign in: %w", err)
	}
	if out.Token == "" {
		return errors.New("sign in: server returned no token")
	}
	c.setToken(out.Token)
	return nil
}

// SignOut forgets the access token.
func (c *Client) SignOut() { c.setToken("") }

func (c *Client) CurrentUser(ctx context.Context) (*models.User, error) {
	if c.Token() == "" {
		return nil, dashboard.ErrNotAuthenticated
	}
	var u models.User
	if err := c.do(ctx, http.MethodGet, apiPrefix+"/user", nil, nil, &u); err != nil {
		return nil, fmt.Errorf("current user: %w", err)
	}
	return &u, nil
}

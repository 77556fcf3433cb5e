package client

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/trebbag/revenuepilot-sub003/internal/transport"
	"github.com/trebbag/revenuepilot-sub003/pkg/api"
)

// Login authenticates and installs the returned token pair.
func (c *Client) Login(ctx context.Context, username, password string) (*api.TokenResponse, error) {
	var resp api.TokenResponse
	err := c.http.Public(ctx, http.MethodPost, "/login", api.LoginRequest{
		Username: username,
		Password: password,
	}, &resp)
	if err != nil {
		return nil, err
	}

	c.auth.SetCredentials(ctx, resp.AccessToken, resp.RefreshToken)
	return &resp, nil
}

// Register creates an account and installs the returned token pair. The
// primary path is /auth/register; older backends only expose /register, so
// a 404 falls through to it once.
func (c *Client) Register(ctx context.Context, req api.RegisterRequest) (*api.TokenResponse, error) {
	var resp api.TokenResponse
	err := c.http.Public(ctx, http.MethodPost, "/auth/register", req, &resp)

	var statusErr *transport.StatusError
	if errors.As(err, &statusErr) && statusErr.Code == http.StatusNotFound {
		err = c.http.Public(ctx, http.MethodPost, "/register", req, &resp)
	}
	if err != nil {
		return nil, err
	}

	c.auth.SetCredentials(ctx, resp.AccessToken, resp.RefreshToken)
	return &resp, nil
}

// ResetPassword requests a server-side password reset.
func (c *Client) ResetPassword(ctx context.Context, username, newPassword string) error {
	return c.http.Public(ctx, http.MethodPost, "/reset-password", api.ResetPasswordRequest{
		Username:    username,
		NewPassword: newPassword,
	}, nil)
}

// RefreshSession forces a token refresh by issuing an authenticated
// request; the pipeline handles the exchange. Used when the UI wants fresh
// tokens before opening a long-lived stream.
func (c *Client) RefreshSession(ctx context.Context) error {
	var resp api.TokenResponse
	refreshToken := c.auth.RefreshToken()
	if refreshToken == "" {
		return transport.ErrUnauthorized
	}
	err := c.http.Public(ctx, http.MethodPost, "/refresh", api.RefreshRequest{RefreshToken: refreshToken}, &resp)
	if err != nil || resp.AccessToken == "" {
		return transport.ErrUnauthorized
	}
	if resp.RefreshToken != "" {
		c.auth.SetCredentials(ctx, resp.AccessToken, resp.RefreshToken)
	} else {
		c.auth.SetAccessToken(ctx, resp.AccessToken)
	}
	return nil
}

// Logout drops local credentials. The server is notified best-effort; an
// unreachable backend never blocks a logout.
func (c *Client) Logout(ctx context.Context) {
	if err := c.http.JSON(ctx, http.MethodPost, "/logout", nil, nil, nil); err != nil {
		slog.Debug("failed to notify server about logout", "error", err)
	}
	c.auth.Purge(ctx)
}

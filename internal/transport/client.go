package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/trebbag/revenuepilot-sub003/internal/auth"
	"github.com/trebbag/revenuepilot-sub003/pkg/api"
)

// Client is the auth-aware request pipeline. Every authenticated call goes
// through the same state machine: send with the current bearer token, on
// 401/403 refresh once (concurrent 401s share a single refresh flight) and
// retry once, settle. A second authorization failure after a successful
// refresh is a hard ErrUnauthorized, never a second refresh.
type Client struct {
	httpClient *http.Client
	baseURL    string
	auth       *auth.State

	refreshGroup singleflight.Group

	lastMu  sync.Mutex
	lastErr string
}

// NewClient creates a pipeline against baseURL using the given credential
// state.
func NewClient(baseURL string, authState *auth.State, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		auth:    authState,
		httpClient: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return fmt.Errorf("stopped after 10 redirects")
				}
				// Keep the bearer token across same-pipeline redirects.
				if len(via) > 0 && via[0].Header.Get("Authorization") != "" {
					req.Header.Set("Authorization", via[0].Header.Get("Authorization"))
				}
				return nil
			},
		},
	}
}

// BaseURL returns the resolved backend address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// LastBackendError returns the most recent failure reason recorded by a
// best-effort operation, empty when the backend has been healthy.
func (c *Client) LastBackendError() string {
	c.lastMu.Lock()
	defer c.lastMu.Unlock()
	return c.lastErr
}

func (c *Client) noteFailure(err error) {
	c.lastMu.Lock()
	c.lastErr = err.Error()
	c.lastMu.Unlock()
}

func (c *Client) clearFailure() {
	c.lastMu.Lock()
	c.lastErr = ""
	c.lastMu.Unlock()
}

// JSON issues an authenticated JSON request and decodes the response into
// result (ignored when nil). Query may be nil.
func (c *Client) JSON(ctx context.Context, method, path string, query url.Values, body, result any) error {
	build, err := c.jsonBuilder(method, path, query, body)
	if err != nil {
		return err
	}
	return c.send(ctx, build, result, true)
}

// Public issues an unauthenticated JSON request (login, register, refresh,
// reset-password). No bearer token is attached and no refresh is attempted.
func (c *Client) Public(ctx context.Context, method, path string, body, result any) error {
	build, err := c.jsonBuilder(method, path, nil, body)
	if err != nil {
		return err
	}
	return c.send(ctx, build, result, false)
}

// Upload issues an authenticated request with a caller-built body (for
// multipart uploads). The builder is re-invoked on the post-refresh retry so
// the body can be re-read.
func (c *Client) Upload(ctx context.Context, method, path string, query url.Values, contentType string, payload []byte, result any) error {
	build := func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, query), bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", contentType)
		return req, nil
	}
	return c.send(ctx, build, result, true)
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

func (c *Client) jsonBuilder(method, path string, query url.Values, body any) (func() (*http.Request, error), error) {
	var payload []byte
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		payload = data
	}

	return func() (*http.Request, error) {
		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequest(method, c.endpoint(path, query), reader)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		return req, nil
	}, nil
}

// send drives the per-request state machine. build is re-invoked for the
// retry so the body reader is fresh each attempt.
func (c *Client) send(ctx context.Context, build func() (*http.Request, error), result any, authed bool) error {
	status, body, err := c.attempt(ctx, build, authed)
	if err != nil {
		c.noteFailure(err)
		return err
	}

	if authed && (status == http.StatusUnauthorized || status == http.StatusForbidden) {
		if refreshErr := c.refresh(ctx); refreshErr != nil {
			c.noteFailure(ErrUnauthorized)
			return ErrUnauthorized
		}
		status, body, err = c.attempt(ctx, build, authed)
		if err != nil {
			c.noteFailure(err)
			return err
		}
	}

	return c.settle(status, body, result)
}

func (c *Client) attempt(ctx context.Context, build func() (*http.Request, error), authed bool) (int, []byte, error) {
	req, err := build()
	if err != nil {
		return 0, nil, err
	}
	req = req.WithContext(ctx)

	if authed {
		if token := c.auth.AccessToken(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, &UnreachableError{Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, &UnreachableError{Err: err}
	}
	return resp.StatusCode, body, nil
}

func (c *Client) settle(status int, body []byte, result any) error {
	switch {
	case status < 400:
		// A healthy response clears prior transient refresh failures.
		c.auth.MarkHealthy()
		c.clearFailure()
		if result != nil && len(body) > 0 {
			if err := json.Unmarshal(body, result); err != nil {
				return fmt.Errorf("failed to decode response: %w", err)
			}
		}
		return nil

	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		// Either the retry after a successful refresh, or an auth endpoint
		// rejecting outright. No second refresh.
		c.noteFailure(ErrUnauthorized)
		return ErrUnauthorized

	default:
		detail := ""
		var errResp api.ErrorResponse
		if err := json.Unmarshal(body, &errResp); err == nil {
			detail = errResp.Text()
		}
		statusErr := &StatusError{Code: status, Detail: detail}
		c.noteFailure(statusErr)
		return statusErr
	}
}

// refresh exchanges the stored refresh token for a new access token.
// Concurrent 401 handlers coalesce onto a single flight; every one of them
// observes the same outcome. Any failure (missing token, rejection,
// network) counts against the consecutive-failure threshold, and crossing
// it purges both tokens together.
func (c *Client) refresh(ctx context.Context) error {
	_, err, _ := c.refreshGroup.Do("refresh", func() (any, error) {
		refreshToken := c.auth.RefreshToken()
		if refreshToken == "" {
			if c.auth.RecordRefreshFailure(ctx) {
				slog.Warn("credentials purged after repeated refresh failures")
			}
			return nil, ErrUnauthorized
		}

		var resp api.TokenResponse
		err := c.Public(ctx, http.MethodPost, "/refresh", api.RefreshRequest{RefreshToken: refreshToken}, &resp)
		if err != nil || resp.AccessToken == "" {
			if c.auth.RecordRefreshFailure(ctx) {
				slog.Warn("credentials purged after repeated refresh failures")
			}
			return nil, ErrUnauthorized
		}

		if resp.RefreshToken != "" {
			c.auth.SetCredentials(ctx, resp.AccessToken, resp.RefreshToken)
		} else {
			c.auth.SetAccessToken(ctx, resp.AccessToken)
		}
		return nil, nil
	})
	return err
}

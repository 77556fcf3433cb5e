package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trebbag/revenuepilot-sub003/internal/auth"
	"github.com/trebbag/revenuepilot-sub003/internal/store"
	"github.com/trebbag/revenuepilot-sub003/pkg/api"
)

func newTestClient(t *testing.T, serverURL string) (*Client, *auth.State) {
	t.Helper()
	authState := auth.NewState(context.Background(), store.NewMemory())
	return NewClient(serverURL, authState, 5*time.Second), authState
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, v any) {
	t.Helper()
	w.WriteHeader(status)
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

// TestClient_BearerAttached covers the login scenario: with tokens
// {abc, def} installed, a subsequent authenticated call carries
// "Authorization: Bearer abc".
func TestClient_BearerAttached(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		writeJSON(t, w, http.StatusOK, map[string]any{"ok": true})
	}))
	defer server.Close()

	client, authState := newTestClient(t, server.URL)
	authState.SetCredentials(context.Background(), "abc", "def")

	err := client.JSON(context.Background(), http.MethodGet, "/settings", nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "Bearer abc", gotAuth)
}

// TestClient_RefreshRetryOnce checks the happy refresh path: 401, one
// refresh, one retry with the new token, success.
func TestClient_RefreshRetryOnce(t *testing.T) {
	var apiCalls, refreshCalls atomic.Int64
	var retryAuth string

	router := mux.NewRouter()
	router.HandleFunc("/refresh", func(w http.ResponseWriter, r *http.Request) {
		refreshCalls.Add(1)
		var req api.RefreshRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "refresh-1", req.RefreshToken)
		writeJSON(t, w, http.StatusOK, api.TokenResponse{AccessToken: "fresh"})
	}).Methods(http.MethodPost)
	router.HandleFunc("/suggest", func(w http.ResponseWriter, r *http.Request) {
		if apiCalls.Add(1) == 1 {
			writeJSON(t, w, http.StatusUnauthorized, api.ErrorResponse{Message: "token expired"})
			return
		}
		retryAuth = r.Header.Get("Authorization")
		writeJSON(t, w, http.StatusOK, map[string]any{"codes": []string{}})
	}).Methods(http.MethodPost)

	server := httptest.NewServer(router)
	defer server.Close()

	client, authState := newTestClient(t, server.URL)
	authState.SetCredentials(context.Background(), "stale", "refresh-1")

	err := client.JSON(context.Background(), http.MethodPost, "/suggest", nil, map[string]string{"text": "note"}, nil)
	require.NoError(t, err)

	assert.Equal(t, int64(2), apiCalls.Load(), "request retried exactly once")
	assert.Equal(t, int64(1), refreshCalls.Load())
	assert.Equal(t, "Bearer fresh", retryAuth)
	assert.Equal(t, "fresh", authState.AccessToken())
	assert.Equal(t, "refresh-1", authState.RefreshToken(), "refresh token survives an access-only refresh")
}

// TestClient_SecondUnauthorizedIsHard checks the single-shot rule: a 401 on
// the post-refresh retry surfaces ErrUnauthorized with no second refresh.
func TestClient_SecondUnauthorizedIsHard(t *testing.T) {
	var apiCalls, refreshCalls atomic.Int64

	router := mux.NewRouter()
	router.HandleFunc("/refresh", func(w http.ResponseWriter, r *http.Request) {
		refreshCalls.Add(1)
		writeJSON(t, w, http.StatusOK, api.TokenResponse{AccessToken: "fresh"})
	}).Methods(http.MethodPost)
	router.HandleFunc("/settings", func(w http.ResponseWriter, r *http.Request) {
		apiCalls.Add(1)
		writeJSON(t, w, http.StatusUnauthorized, api.ErrorResponse{Message: "revoked"})
	}).Methods(http.MethodGet)

	server := httptest.NewServer(router)
	defer server.Close()

	client, authState := newTestClient(t, server.URL)
	authState.SetCredentials(context.Background(), "stale", "refresh-1")

	err := client.JSON(context.Background(), http.MethodGet, "/settings", nil, nil, nil)
	require.ErrorIs(t, err, ErrUnauthorized)

	assert.Equal(t, int64(2), apiCalls.Load())
	assert.Equal(t, int64(1), refreshCalls.Load(), "no refresh loop")
}

// TestClient_PurgeAfterTwoFailedRefreshes checks the credential purge
// threshold end to end through the pipeline.
func TestClient_PurgeAfterTwoFailedRefreshes(t *testing.T) {
	router := mux.NewRouter()
	router.HandleFunc("/refresh", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusUnauthorized, api.ErrorResponse{Message: "bad refresh token"})
	}).Methods(http.MethodPost)
	router.PathPrefix("/").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusUnauthorized, api.ErrorResponse{Message: "expired"})
	})

	server := httptest.NewServer(router)
	defer server.Close()

	client, authState := newTestClient(t, server.URL)
	authState.SetCredentials(context.Background(), "access", "refresh")

	err := client.JSON(context.Background(), http.MethodGet, "/settings", nil, nil, nil)
	require.ErrorIs(t, err, ErrUnauthorized)
	assert.NotEmpty(t, authState.RefreshToken(), "one failed refresh must not purge")

	err = client.JSON(context.Background(), http.MethodGet, "/settings", nil, nil, nil)
	require.ErrorIs(t, err, ErrUnauthorized)
	assert.Empty(t, authState.AccessToken(), "both tokens purged together")
	assert.Empty(t, authState.RefreshToken())
}

// TestClient_MissingRefreshTokenIsUnauthorized checks that a 401 with no
// stored refresh token fails fast without a refresh round trip.
func TestClient_MissingRefreshTokenIsUnauthorized(t *testing.T) {
	var refreshCalls atomic.Int64
	router := mux.NewRouter()
	router.HandleFunc("/refresh", func(w http.ResponseWriter, r *http.Request) {
		refreshCalls.Add(1)
		writeJSON(t, w, http.StatusOK, api.TokenResponse{AccessToken: "fresh"})
	})
	router.PathPrefix("/").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusUnauthorized, api.ErrorResponse{Message: "no token"})
	})

	server := httptest.NewServer(router)
	defer server.Close()

	client, _ := newTestClient(t, server.URL)
	err := client.JSON(context.Background(), http.MethodGet, "/settings", nil, nil, nil)
	require.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, int64(0), refreshCalls.Load())
}

// TestClient_ConcurrentRefreshCoalesced checks that simultaneous 401
// handlers share a single refresh flight.
func TestClient_ConcurrentRefreshCoalesced(t *testing.T) {
	var refreshCalls atomic.Int64

	router := mux.NewRouter()
	router.HandleFunc("/refresh", func(w http.ResponseWriter, r *http.Request) {
		refreshCalls.Add(1)
		time.Sleep(100 * time.Millisecond) // hold the flight open
		writeJSON(t, w, http.StatusOK, api.TokenResponse{AccessToken: "fresh"})
	}).Methods(http.MethodPost)
	router.PathPrefix("/").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "Bearer fresh" {
			writeJSON(t, w, http.StatusOK, map[string]any{"ok": true})
			return
		}
		writeJSON(t, w, http.StatusUnauthorized, api.ErrorResponse{Message: "expired"})
	})

	server := httptest.NewServer(router)
	defer server.Close()

	client, authState := newTestClient(t, server.URL)
	authState.SetCredentials(context.Background(), "stale", "refresh-1")

	const n = 8
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := client.JSON(context.Background(), http.MethodGet, "/settings", nil, nil, nil)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), refreshCalls.Load(), "401 handlers must coalesce onto one refresh")
}

// TestClient_UnreachableIsUniform checks that a network-level failure comes
// back as the synthetic unreachable shape, not a raw transport error.
func TestClient_UnreachableIsUniform(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // nothing listening anymore

	client, _ := newTestClient(t, server.URL)
	err := client.JSON(context.Background(), http.MethodGet, "/settings", nil, nil, nil)
	require.Error(t, err)
	assert.True(t, IsUnreachable(err))
	assert.NotEmpty(t, client.LastBackendError())
}

// TestClient_StatusErrorCarriesDetail checks 4xx/5xx propagation with the
// server-provided detail text.
func TestClient_StatusErrorCarriesDetail(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		body       any
		wantDetail string
	}{
		{
			name:       "validation error with detail",
			statusCode: http.StatusUnprocessableEntity,
			body:       api.ErrorResponse{Detail: "payer is required"},
			wantDetail: "payer is required",
		},
		{
			name:       "server error with message",
			statusCode: http.StatusInternalServerError,
			body:       api.ErrorResponse{Message: "suggestion engine down"},
			wantDetail: "suggestion engine down",
		},
		{
			name:       "undecodable body",
			statusCode: http.StatusBadGateway,
			body:       "plain text failure",
			wantDetail: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if body, ok := tt.body.(api.ErrorResponse); ok {
					writeJSON(t, w, tt.statusCode, body)
					return
				}
				w.WriteHeader(tt.statusCode)
				_, _ = w.Write([]byte(tt.body.(string)))
			}))
			defer server.Close()

			client, _ := newTestClient(t, server.URL)
			err := client.JSON(context.Background(), http.MethodGet, "/events", nil, nil, nil)

			var statusErr *StatusError
			require.ErrorAs(t, err, &statusErr)
			assert.Equal(t, tt.statusCode, statusErr.Code)
			assert.Equal(t, tt.wantDetail, statusErr.Detail)
		})
	}
}

// TestClient_HealthyRequestClearsFailureSlot checks the diagnostics slot
// resets once the backend recovers.
func TestClient_HealthyRequestClearsFailureSlot(t *testing.T) {
	var failing atomic.Bool
	failing.Store(true)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if failing.Load() {
			writeJSON(t, w, http.StatusInternalServerError, api.ErrorResponse{Message: "down"})
			return
		}
		writeJSON(t, w, http.StatusOK, map[string]any{"ok": true})
	}))
	defer server.Close()

	client, _ := newTestClient(t, server.URL)

	_ = client.JSON(context.Background(), http.MethodGet, "/events", nil, nil, nil)
	assert.NotEmpty(t, client.LastBackendError())

	failing.Store(false)
	require.NoError(t, client.JSON(context.Background(), http.MethodGet, "/events", nil, nil, nil))
	assert.Empty(t, client.LastBackendError())
}

// TestClient_PublicSkipsBearerAndRefresh checks that unauthenticated
// endpoints never attach a token and never trigger a refresh.
func TestClient_PublicSkipsBearerAndRefresh(t *testing.T) {
	var refreshCalls atomic.Int64
	var gotAuth string

	router := mux.NewRouter()
	router.HandleFunc("/refresh", func(w http.ResponseWriter, r *http.Request) {
		refreshCalls.Add(1)
		writeJSON(t, w, http.StatusOK, api.TokenResponse{AccessToken: "fresh"})
	})
	router.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		writeJSON(t, w, http.StatusUnauthorized, api.ErrorResponse{Message: "invalid credentials"})
	})

	server := httptest.NewServer(router)
	defer server.Close()

	client, authState := newTestClient(t, server.URL)
	authState.SetCredentials(context.Background(), "abc", "def")

	err := client.Public(context.Background(), http.MethodPost, "/login", api.LoginRequest{Username: "u", Password: "p"}, nil)
	require.ErrorIs(t, err, ErrUnauthorized)
	assert.Empty(t, gotAuth)
	assert.Equal(t, int64(0), refreshCalls.Load())
}

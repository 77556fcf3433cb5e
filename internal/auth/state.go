package auth

import (
	"context"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/trebbag/revenuepilot-sub003/internal/store"
)

// storeKey is where the credential mirror lives in the persisted store.
const storeKey = "auth/credentials"

// purgeThreshold is the number of consecutive failed refresh attempts after
// which both tokens are dropped together.
const purgeThreshold = 2

// Credentials is the bearer/refresh token pair. The two tokens live and die
// together: a purge always removes both, never one.
type Credentials struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// State owns the process-wide credential pair and the consecutive
// refresh-failure counter. Every change is mirrored into the persisted
// store so credentials survive restarts.
type State struct {
	mu       sync.Mutex
	creds    Credentials
	failures int
	store    store.Store
}

// NewState creates credential state backed by s, restoring any mirrored
// credentials from a previous run.
func NewState(ctx context.Context, s store.Store) *State {
	st := &State{store: s}
	s.Load(ctx, storeKey, &st.creds)
	return st
}

// Credentials returns a copy of the current token pair.
func (s *State) Credentials() Credentials {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.creds
}

// AccessToken returns the current access token, empty when logged out.
func (s *State) AccessToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.creds.AccessToken
}

// RefreshToken returns the current refresh token, empty when logged out.
func (s *State) RefreshToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.creds.RefreshToken
}

// SetCredentials installs a fresh token pair, clears the failure counter,
// and mirrors the pair to the store.
func (s *State) SetCredentials(ctx context.Context, access, refresh string) {
	s.mu.Lock()
	s.creds = Credentials{AccessToken: access, RefreshToken: refresh}
	s.failures = 0
	s.mu.Unlock()
	s.store.Save(ctx, storeKey, Credentials{AccessToken: access, RefreshToken: refresh})
}

// SetAccessToken replaces only the access token after a successful refresh,
// keeping the refresh token, and mirrors the result.
func (s *State) SetAccessToken(ctx context.Context, access string) {
	s.mu.Lock()
	s.creds.AccessToken = access
	s.failures = 0
	creds := s.creds
	s.mu.Unlock()
	s.store.Save(ctx, storeKey, creds)
}

// MarkHealthy resets the consecutive failure counter. Called for any
// response below 400: one healthy round trip clears prior transient
// refresh failures.
func (s *State) MarkHealthy() {
	s.mu.Lock()
	s.failures = 0
	s.mu.Unlock()
}

// RecordRefreshFailure bumps the consecutive failure counter and reports
// whether the purge threshold was reached. At the threshold both tokens are
// purged together.
func (s *State) RecordRefreshFailure(ctx context.Context) (purged bool) {
	s.mu.Lock()
	s.failures++
	purged = s.failures >= purgeThreshold
	if purged {
		s.creds = Credentials{}
		s.failures = 0
	}
	s.mu.Unlock()
	if purged {
		s.store.Delete(ctx, storeKey)
	}
	return purged
}

// Purge drops both tokens immediately (logout).
func (s *State) Purge(ctx context.Context) {
	s.mu.Lock()
	s.creds = Credentials{}
	s.failures = 0
	s.mu.Unlock()
	s.store.Delete(ctx, storeKey)
}

// IsAuthenticated reports whether an access token is present and, when the
// token is a well-formed JWT, not yet expired. The signature is not checked
// here; the server remains the authority.
func (s *State) IsAuthenticated() bool {
	token := s.AccessToken()
	if token == "" {
		return false
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		// Opaque tokens are accepted as-is; the pipeline will find out.
		return true
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return true
	}
	return time.Now().Before(exp.Time)
}

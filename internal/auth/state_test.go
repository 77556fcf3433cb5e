package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trebbag/revenuepilot-sub003/internal/store"
)

func signedToken(t *testing.T, expiresAt time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user-1",
		"exp": expiresAt.Unix(),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

// TestState_PurgeThreshold checks the credential invariant: one failed
// refresh keeps the tokens, two consecutive failures purge both together.
func TestState_PurgeThreshold(t *testing.T) {
	ctx := context.Background()
	s := NewState(ctx, store.NewMemory())
	s.SetCredentials(ctx, "access", "refresh")

	purged := s.RecordRefreshFailure(ctx)
	assert.False(t, purged)
	assert.Equal(t, "access", s.AccessToken())
	assert.Equal(t, "refresh", s.RefreshToken())

	purged = s.RecordRefreshFailure(ctx)
	assert.True(t, purged)
	assert.Empty(t, s.AccessToken())
	assert.Empty(t, s.RefreshToken())
}

// TestState_HealthyRequestResetsCounter checks that a healthy round trip
// between two refresh failures prevents the purge.
func TestState_HealthyRequestResetsCounter(t *testing.T) {
	ctx := context.Background()
	s := NewState(ctx, store.NewMemory())
	s.SetCredentials(ctx, "access", "refresh")

	assert.False(t, s.RecordRefreshFailure(ctx))
	s.MarkHealthy()
	assert.False(t, s.RecordRefreshFailure(ctx), "counter must restart after a healthy request")
	assert.Equal(t, "access", s.AccessToken())
}

// TestState_MirrorSurvivesRestart checks that credentials restored from the
// persisted store match what the previous state saved.
func TestState_MirrorSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()

	first := NewState(ctx, mem)
	first.SetCredentials(ctx, "access-1", "refresh-1")

	second := NewState(ctx, mem)
	creds := second.Credentials()
	assert.Equal(t, "access-1", creds.AccessToken)
	assert.Equal(t, "refresh-1", creds.RefreshToken)
}

// TestState_PurgeClearsMirror checks that a purge removes the persisted
// copy as well; a restart must not resurrect dead tokens.
func TestState_PurgeClearsMirror(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()

	first := NewState(ctx, mem)
	first.SetCredentials(ctx, "access", "refresh")
	first.Purge(ctx)

	second := NewState(ctx, mem)
	assert.Empty(t, second.AccessToken())
	assert.Empty(t, second.RefreshToken())
}

func TestState_SetAccessTokenKeepsRefreshToken(t *testing.T) {
	ctx := context.Background()
	s := NewState(ctx, store.NewMemory())
	s.SetCredentials(ctx, "old-access", "refresh")

	s.SetAccessToken(ctx, "new-access")
	assert.Equal(t, "new-access", s.AccessToken())
	assert.Equal(t, "refresh", s.RefreshToken())
}

func TestState_IsAuthenticated(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name  string
		token string
		want  bool
	}{
		{name: "no token", token: "", want: false},
		{name: "valid jwt", token: "", want: true},   // filled below
		{name: "expired jwt", token: "", want: false}, // filled below
		{name: "opaque token", token: "not-a-jwt", want: true},
	}
	tests[1].token = signedToken(t, time.Now().Add(time.Hour))
	tests[2].token = signedToken(t, time.Now().Add(-time.Hour))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewState(ctx, store.NewMemory())
			if tt.token != "" {
				s.SetCredentials(ctx, tt.token, "refresh")
			}
			assert.Equal(t, tt.want, s.IsAuthenticated())
		})
	}
}

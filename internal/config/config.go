package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Default backend address when nothing else is configured.
const loopbackBaseURL = "http://127.0.0.1:8000"

type Config struct {
	// BaseURL is the backend address every request is issued against.
	BaseURL string
	// Origin is the address the client itself is served from; used as the
	// backend address when no explicit override or env var is present.
	Origin string

	RequestTimeout  time.Duration
	HealthTimeout   time.Duration
	SearchDebounce  time.Duration
	ValidateDebounce time.Duration
	SearchCacheTTL  time.Duration
	SearchCacheSize int
	QueueLimit      int

	StreamMaxRetries  int
	StreamBackoffBase time.Duration
	StreamsDisabled   bool

	DBPath string
}

// Load resolves configuration from the environment with the same defaults
// the browser client ships with.
func Load() Config {
	cfg := Config{
		Origin:           strings.TrimSuffix(os.Getenv("REVENUEPILOT_ORIGIN"), "/"),
		RequestTimeout:   durationOrDefault("REVENUEPILOT_REQUEST_TIMEOUT", 30*time.Second),
		HealthTimeout:    durationOrDefault("REVENUEPILOT_HEALTH_TIMEOUT", 4*time.Second),
		SearchDebounce:   durationOrDefault("REVENUEPILOT_SEARCH_DEBOUNCE", 200*time.Millisecond),
		ValidateDebounce: durationOrDefault("REVENUEPILOT_VALIDATE_DEBOUNCE", 180*time.Millisecond),
		SearchCacheTTL:   durationOrDefault("REVENUEPILOT_SEARCH_CACHE_TTL", 60*time.Second),
		SearchCacheSize:  intOrDefault("REVENUEPILOT_SEARCH_CACHE_SIZE", 50),
		QueueLimit:       intOrDefault("REVENUEPILOT_QUEUE_LIMIT", 128),
		StreamMaxRetries: intOrDefault("REVENUEPILOT_STREAM_MAX_RETRIES", 8),
		StreamBackoffBase: durationOrDefault("REVENUEPILOT_STREAM_BACKOFF_BASE", time.Second),
		StreamsDisabled:  boolOrDefault("REVENUEPILOT_STREAMS_DISABLED", false),
		DBPath:           envOrDefault("REVENUEPILOT_DB", "revenuepilot-client.db"),
	}
	cfg.BaseURL = ResolveBaseURL(os.Getenv("REVENUEPILOT_API_URL_OVERRIDE"), os.Getenv("REVENUEPILOT_API_URL"), cfg.Origin)
	return cfg
}

// ResolveBaseURL picks the backend address. Precedence: explicit override,
// environment configuration, the serving origin, loopback default.
func ResolveBaseURL(override, env, origin string) string {
	for _, candidate := range []string{override, env, origin} {
		if trimmed := strings.TrimSuffix(strings.TrimSpace(candidate), "/"); trimmed != "" {
			return trimmed
		}
	}
	return loopbackBaseURL
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationOrDefault(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func intOrDefault(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func boolOrDefault(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

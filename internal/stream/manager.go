package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"
	"nhooyr.io/websocket"
)

// ErrDisabled is reported synchronously when a connection family has been
// feature-flagged off. Call sites stay wired; the channel simply never
// dials.
var ErrDisabled = errors.New("stream: connection family disabled")

// Conn is the caller's handle on one managed channel. Closing it is
// terminal: any pending reconnect is cancelled and no further reconnects
// are scheduled regardless of later server-side closes.
type Conn struct {
	mu       sync.Mutex
	closed   bool
	attempts int
	ws       *websocket.Conn
	cancel   context.CancelFunc
}

// Close tears the connection down permanently.
func (c *Conn) Close() {
	c.mu.Lock()
	c.closed = true
	ws := c.ws
	c.ws = nil
	cancel := c.cancel
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if ws != nil {
		_ = ws.Close(websocket.StatusNormalClosure, "closing")
	}
}

// Closed reports whether the caller has shut the connection down.
func (c *Conn) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Attempts reports the current consecutive connect-attempt count. It resets
// to zero every time the channel opens.
func (c *Conn) Attempts() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.attempts
}

// Options configures one managed channel.
type Options struct {
	// Static query parameters sent on every connect.
	Static url.Values

	// Params is re-evaluated on every connect attempt so rotating values
	// (the bearer token, correlation ids) are always current.
	Params func() url.Values

	// Backoff builds a fresh reconnect policy. It is re-created every time
	// the channel opens so the delay sequence restarts after a healthy
	// connection. Nil uses the manager default.
	Backoff func() retry.Backoff

	OnOpen    func()
	OnMessage func(json.RawMessage)
	OnError   func(error)

	// Disabled short-circuits the channel into a stub that reports
	// ErrDisabled and never dials.
	Disabled bool
}

// Manager opens reconnecting, token-authenticated websocket channels.
type Manager struct {
	baseURL    string
	maxRetries int
	backoff    time.Duration

	// dial and sleep are swappable for tests.
	dial  func(ctx context.Context, target string) (*websocket.Conn, error)
	sleep func(ctx context.Context, d time.Duration) error
}

// NewManager creates a manager dialing against baseURL (http(s) scheme is
// rewritten to ws(s)).
func NewManager(baseURL string, maxRetries int, backoffBase time.Duration) *Manager {
	return &Manager{
		baseURL:    wsBaseURL(baseURL),
		maxRetries: maxRetries,
		backoff:    backoffBase,
		dial: func(ctx context.Context, target string) (*websocket.Conn, error) {
			ws, _, err := websocket.Dial(ctx, target, nil)
			return ws, err
		},
		sleep: func(ctx context.Context, d time.Duration) error {
			timer := time.NewTimer(d)
			defer timer.Stop()
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-timer.C:
				return nil
			}
		},
	}
}

func wsBaseURL(base string) string {
	switch {
	case strings.HasPrefix(base, "https://"):
		return "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		return "ws://" + strings.TrimPrefix(base, "http://")
	default:
		return base
	}
}

// Connect opens a managed channel at path and returns the caller's handle.
// The connection lifecycle runs in the background until Close.
func (m *Manager) Connect(ctx context.Context, path string, opts Options) *Conn {
	conn := &Conn{}

	if opts.Disabled {
		conn.closed = true
		if opts.OnError != nil {
			opts.OnError(ErrDisabled)
		}
		return conn
	}

	runCtx, cancel := context.WithCancel(ctx)
	conn.cancel = cancel
	go m.run(runCtx, conn, path, opts)
	return conn
}

func (m *Manager) run(ctx context.Context, conn *Conn, path string, opts Options) {
	backoff := m.newBackoff(opts)

	for {
		if conn.Closed() || ctx.Err() != nil {
			return
		}

		conn.mu.Lock()
		conn.attempts++
		conn.mu.Unlock()

		ws, err := m.dial(ctx, m.target(path, opts))
		if err == nil {
			// Open: reset the attempt counter and the backoff sequence.
			conn.mu.Lock()
			if conn.closed {
				conn.mu.Unlock()
				_ = ws.Close(websocket.StatusNormalClosure, "closing")
				return
			}
			conn.ws = ws
			conn.attempts = 0
			conn.mu.Unlock()
			backoff = m.newBackoff(opts)

			if opts.OnOpen != nil {
				opts.OnOpen()
			}
			m.readLoop(ctx, ws, opts)

			conn.mu.Lock()
			conn.ws = nil
			wasClosed := conn.closed
			conn.mu.Unlock()
			if wasClosed {
				return
			}
		} else if opts.OnError != nil {
			opts.OnError(fmt.Errorf("stream connect %s: %w", path, err))
		}

		delay, stop := backoff.Next()
		if stop {
			// Retry budget exhausted; the connection stays terminally
			// closed.
			conn.mu.Lock()
			conn.closed = true
			conn.mu.Unlock()
			if opts.OnError != nil {
				opts.OnError(fmt.Errorf("stream %s: gave up after %d retries", path, m.maxRetries))
			}
			return
		}
		if err := m.sleep(ctx, delay); err != nil {
			return
		}
	}
}

func (m *Manager) newBackoff(opts Options) retry.Backoff {
	if opts.Backoff != nil {
		return opts.Backoff()
	}
	return retry.WithMaxRetries(uint64(m.maxRetries), retry.NewExponential(m.backoff))
}

// target assembles the channel address from the base, the static params,
// and the freshly recomputed dynamic params.
func (m *Manager) target(path string, opts Options) string {
	query := url.Values{}
	for k, vs := range opts.Static {
		for _, v := range vs {
			query.Add(k, v)
		}
	}
	if opts.Params != nil {
		for k, vs := range opts.Params() {
			for _, v := range vs {
				query.Set(k, v)
			}
		}
	}

	target := m.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	return target
}

// readLoop pumps inbound frames until the connection drops. A frame that is
// not valid JSON goes to the error callback without tearing the channel
// down.
func (m *Manager) readLoop(ctx context.Context, ws *websocket.Conn, opts Options) {
	for {
		_, data, err := ws.Read(ctx)
		if err != nil {
			return
		}

		if !json.Valid(data) {
			if opts.OnError != nil {
				opts.OnError(fmt.Errorf("stream: malformed frame: %.64s", string(data)))
			}
			continue
		}
		if opts.OnMessage != nil {
			opts.OnMessage(json.RawMessage(data))
		}
	}
}

// Package client exposes the domain operations of the RevenuePilot
// data-access layer. Each operation is a thin composition of the transport
// pipeline, the read caches, the offline queue, and the stream manager.
package client

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/trebbag/revenuepilot-sub003/internal/auth"
	"github.com/trebbag/revenuepilot-sub003/internal/cache"
	"github.com/trebbag/revenuepilot-sub003/internal/config"
	"github.com/trebbag/revenuepilot-sub003/internal/queue"
	"github.com/trebbag/revenuepilot-sub003/internal/store"
	"github.com/trebbag/revenuepilot-sub003/internal/stream"
	"github.com/trebbag/revenuepilot-sub003/internal/transport"
	"github.com/trebbag/revenuepilot-sub003/pkg/api"
)

// templateCacheKey is the single slot used by the template list cache.
const templateCacheKey = "templates"

// Client is the data-access layer facade.
type Client struct {
	cfg     config.Config
	store   store.Store
	auth    *auth.State
	http    *transport.Client
	queue   *queue.Queue
	streams *stream.Manager

	searchCache   *cache.ReadThrough[api.PatientSearchResponse]
	validateCache *cache.ReadThrough[api.EncounterValidation]
	templateCache *cache.Cache[[]api.Template]
	codeCache     *cache.Cache[api.CodeDetail]
}

// New wires the full stack against cfg, restoring credentials and the
// offline queue from s, then replays anything the last run left behind.
func New(ctx context.Context, cfg config.Config, s store.Store) *Client {
	authState := auth.NewState(ctx, s)

	c := &Client{
		cfg:     cfg,
		store:   s,
		auth:    authState,
		http:    transport.NewClient(cfg.BaseURL, authState, cfg.RequestTimeout),
		queue:   queue.New(ctx, s, cfg.QueueLimit),
		streams: stream.NewManager(cfg.BaseURL, cfg.StreamMaxRetries, cfg.StreamBackoffBase),

		searchCache: cache.NewReadThrough(
			cache.New[api.PatientSearchResponse](cfg.SearchCacheSize, cfg.SearchCacheTTL),
			cfg.SearchDebounce,
		),
		validateCache: cache.NewReadThrough(
			cache.New[api.EncounterValidation](cfg.SearchCacheSize, cfg.SearchCacheTTL),
			cfg.ValidateDebounce,
		),
		templateCache: cache.New[[]api.Template](1, cfg.SearchCacheTTL),
		codeCache:     cache.New[api.CodeDetail](0, 0),
	}

	// Replay whatever the previous session could not deliver.
	c.FlushQueue(ctx)
	return c
}

// IsAuthenticated reports whether a usable access token is present.
func (c *Client) IsAuthenticated() bool {
	return c.auth.IsAuthenticated()
}

// LastBackendError returns the failure reason recorded by the most recent
// best-effort operation.
func (c *Client) LastBackendError() string {
	return c.http.LastBackendError()
}

// QueueDepth reports how many mutations are waiting for replay.
func (c *Client) QueueDepth() int {
	return c.queue.Len()
}

// Ping checks backend reachability with a bounded timeout.
func (c *Client) Ping(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.HealthTimeout)
	defer cancel()
	err := c.http.JSON(ctx, http.MethodGet, "/health", nil, nil, nil)
	return err == nil
}

// ConnectivityRestored is the "back online" signal: it replays the offline
// queue. The UI calls this when its network monitor reports recovery.
func (c *Client) ConnectivityRestored(ctx context.Context) (succeeded, failed int) {
	return c.FlushQueue(ctx)
}

// FlushQueue replays pending mutations in FIFO order, each at most once.
func (c *Client) FlushQueue(ctx context.Context) (succeeded, failed int) {
	return c.queue.Flush(ctx, c.replay)
}

// replay dispatches one queued operation to its endpoint.
func (c *Client) replay(ctx context.Context, op queue.PendingOp) error {
	switch op.Kind {
	case queue.KindTemplateCreate:
		var req api.TemplateRequest
		if err := json.Unmarshal(op.Payload, &req); err != nil {
			return err
		}
		return c.http.JSON(ctx, http.MethodPost, "/templates", nil, req, nil)

	case queue.KindTemplateUpdate:
		var payload templateUpdatePayload
		if err := json.Unmarshal(op.Payload, &payload); err != nil {
			return err
		}
		return c.http.JSON(ctx, http.MethodPut, "/templates/"+payload.ID, nil, payload.TemplateRequest, nil)

	case queue.KindTemplateDelete:
		var payload templateDeletePayload
		if err := json.Unmarshal(op.Payload, &payload); err != nil {
			return err
		}
		return c.http.JSON(ctx, http.MethodDelete, "/templates/"+payload.ID, nil, nil, nil)

	case queue.KindNoteAutoSave:
		var payload autoSavePayload
		if err := json.Unmarshal(op.Payload, &payload); err != nil {
			return err
		}
		return c.http.JSON(ctx, http.MethodPatch, "/api/notes/drafts/"+payload.ID, nil, payload.DraftRequest, nil)

	default:
		// Unknown kinds are dropped rather than wedging the queue forever.
		return nil
	}
}

// offline reports whether err means the write should be deferred to the
// queue instead of surfaced.
func offline(err error) bool {
	return transport.IsUnreachable(err)
}

package client

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/trebbag/revenuepilot-sub003/internal/queue"
	"github.com/trebbag/revenuepilot-sub003/pkg/api"
)

type templateUpdatePayload struct {
	ID string `json:"id"`
	api.TemplateRequest
}

type templateDeletePayload struct {
	ID string `json:"id"`
}

// ListTemplates returns the template list, served from cache within its
// TTL. On a fetch failure the stale list (or an empty one) is returned and
// the reason is recorded in the last-backend-error slot.
func (c *Client) ListTemplates(ctx context.Context) []api.Template {
	if templates, ok := c.templateCache.Read(templateCacheKey); ok {
		return templates
	}

	var templates []api.Template
	if err := c.http.JSON(ctx, http.MethodGet, "/templates", nil, nil, &templates); err != nil {
		slog.Debug("template list fetch failed", "error", err)
		return []api.Template{}
	}
	c.templateCache.Remember(templateCacheKey, templates)
	return templates
}

// CreateTemplate creates a template. When the backend is unreachable the
// create is queued for replay and a locally-identified template is returned
// immediately so the UI can keep working. The client-generated id doubles
// as the idempotency key on replay.
func (c *Client) CreateTemplate(ctx context.Context, req api.TemplateRequest) (*api.Template, error) {
	if req.ClientID == "" {
		req.ClientID = uuid.New().String()
	}

	var created api.Template
	err := c.http.JSON(ctx, http.MethodPost, "/templates", nil, req, &created)
	if err == nil {
		c.templateCache.Remove(templateCacheKey)
		return &created, nil
	}
	if !offline(err) {
		return nil, err
	}

	if qErr := c.queue.Enqueue(ctx, queue.KindTemplateCreate, req); qErr != nil {
		return nil, qErr
	}
	return &api.Template{
		ID:        req.ClientID,
		Name:      req.Name,
		Content:   req.Content,
		Specialty: req.Specialty,
		Payer:     req.Payer,
		UpdatedAt: time.Now().UnixMilli(),
	}, nil
}

// UpdateTemplate updates a template by id, queueing the write when offline.
func (c *Client) UpdateTemplate(ctx context.Context, id string, req api.TemplateRequest) error {
	err := c.http.JSON(ctx, http.MethodPut, "/templates/"+id, nil, req, nil)
	if err == nil {
		c.templateCache.Remove(templateCacheKey)
		return nil
	}
	if !offline(err) {
		return err
	}
	return c.queue.Enqueue(ctx, queue.KindTemplateUpdate, templateUpdatePayload{ID: id, TemplateRequest: req})
}

// DeleteTemplate deletes a template by id, queueing the delete when offline.
func (c *Client) DeleteTemplate(ctx context.Context, id string) error {
	err := c.http.JSON(ctx, http.MethodDelete, "/templates/"+id, nil, nil, nil)
	if err == nil {
		c.templateCache.Remove(templateCacheKey)
		return nil
	}
	if !offline(err) {
		return err
	}
	return c.queue.Enqueue(ctx, queue.KindTemplateDelete, templateDeletePayload{ID: id})
}

package client

import (
	"context"
	"net/http"

	"github.com/trebbag/revenuepilot-sub003/internal/queue"
	"github.com/trebbag/revenuepilot-sub003/pkg/api"
)

// BeautifyNote asks the server to clean up raw note text.
func (c *Client) BeautifyNote(ctx context.Context, req api.BeautifyRequest) (*api.BeautifyResponse, error) {
	var resp api.BeautifyResponse
	if err := c.http.JSON(ctx, http.MethodPost, "/beautify", nil, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetSuggestions fetches billing code and compliance suggestions for the
// note text and its structured context.
func (c *Client) GetSuggestions(ctx context.Context, req api.SuggestRequest) (*api.SuggestionsResponse, error) {
	var resp api.SuggestionsResponse
	if err := c.http.JSON(ctx, http.MethodPost, "/suggest", nil, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SummarizeNote fetches a patient-friendly summary of the note.
func (c *Client) SummarizeNote(ctx context.Context, req api.SummarizeRequest) (*api.SummarizeResponse, error) {
	var resp api.SummarizeResponse
	if err := c.http.JSON(ctx, http.MethodPost, "/summarize", nil, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetFollowup fetches the recommended follow-up interval for the note.
func (c *Client) GetFollowup(ctx context.Context, req api.FollowupRequest) (*api.FollowupResponse, error) {
	var resp api.FollowupResponse
	if err := c.http.JSON(ctx, http.MethodPost, "/followup", nil, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// autoSavePayload is the queued form of a draft auto-save.
type autoSavePayload struct {
	ID string `json:"id"`
	api.DraftRequest
}

// CreateDraft creates a new note draft.
func (c *Client) CreateDraft(ctx context.Context, req api.DraftRequest) (*api.DraftResponse, error) {
	var resp api.DraftResponse
	if err := c.http.JSON(ctx, http.MethodPost, "/api/notes/drafts", nil, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// AutoSaveNote patches a draft with the latest content. When the backend is
// unreachable the save is queued for replay; the version field makes the
// replay last-write-wins on the server, so re-delivery is safe.
func (c *Client) AutoSaveNote(ctx context.Context, draftID string, req api.DraftRequest) error {
	err := c.http.JSON(ctx, http.MethodPatch, "/api/notes/drafts/"+draftID, nil, req, nil)
	if err == nil {
		return nil
	}
	if !offline(err) {
		return err
	}
	return c.queue.Enqueue(ctx, queue.KindNoteAutoSave, autoSavePayload{ID: draftID, DraftRequest: req})
}

package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/trebbag/revenuepilot-sub003/pkg/api"
)

// NormalizeSessionAction maps UI-level verbs onto the canonical action set
// the backend accepts.
func NormalizeSessionAction(verb string) (api.SessionAction, error) {
	switch verb {
	case "resume", "start", "restart", "active":
		return api.SessionResume, nil
	case "pause", "hold", "paused":
		return api.SessionPause, nil
	case "stop", "end", "finish", "complete":
		return api.SessionStop, nil
	default:
		return "", fmt.Errorf("unknown session action %q", verb)
	}
}

// GetUserSession fetches the cross-device editing session.
func (c *Client) GetUserSession(ctx context.Context) (*api.UserSession, error) {
	var session api.UserSession
	if err := c.http.JSON(ctx, http.MethodGet, "/api/user/session", nil, nil, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// SaveUserSession stores the cross-device editing session.
func (c *Client) SaveUserSession(ctx context.Context, session api.UserSession) error {
	return c.http.JSON(ctx, http.MethodPut, "/api/user/session", nil, session, nil)
}

// StartVisitSession opens a visit session for an encounter.
func (c *Client) StartVisitSession(ctx context.Context, encounterID string) (*api.VisitSessionResponse, error) {
	var resp api.VisitSessionResponse
	err := c.http.JSON(ctx, http.MethodPost, "/api/visits/session", nil, api.VisitSessionRequest{
		EncounterID: encounterID,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// UpdateVisitSession applies a UI verb (start, pause, end, ...) to a visit
// session after normalizing it to the wire action set.
func (c *Client) UpdateVisitSession(ctx context.Context, sessionID int64, verb string) (*api.VisitSessionResponse, error) {
	action, err := NormalizeSessionAction(verb)
	if err != nil {
		return nil, err
	}

	var resp api.VisitSessionResponse
	err = c.http.JSON(ctx, http.MethodPut, "/api/visits/session", nil, api.VisitSessionRequest{
		SessionID: sessionID,
		Action:    action,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

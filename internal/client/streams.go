package client

import (
	"context"
	"encoding/json"
	"net/url"

	"github.com/trebbag/revenuepilot-sub003/internal/stream"
)

// StreamHandlers is the caller's view of a live channel: decoded JSON
// frames in, errors (parse failures, reconnect exhaustion) on the side.
type StreamHandlers struct {
	OnOpen    func()
	OnMessage func(raw []byte)
	OnError   func(error)
}

// StreamParams are the correlation ids attached to every streaming channel.
// They are re-read on each reconnect along with the rotating bearer token.
type StreamParams struct {
	VisitSessionID string
	EncounterID    string
	PatientID      string
	NoteID         string
}

func (p StreamParams) values() url.Values {
	v := url.Values{}
	if p.VisitSessionID != "" {
		v.Set("visit_session_id", p.VisitSessionID)
	}
	if p.EncounterID != "" {
		v.Set("encounter_id", p.EncounterID)
	}
	if p.PatientID != "" {
		v.Set("patient_id", p.PatientID)
	}
	if p.NoteID != "" {
		v.Set("note_id", p.NoteID)
	}
	return v
}

// ConnectNotifications opens the notification channel.
func (c *Client) ConnectNotifications(ctx context.Context, params StreamParams, handlers StreamHandlers) *stream.Conn {
	return c.connectStream(ctx, "/ws/notifications", params, handlers)
}

// ConnectTranscription opens the live transcription channel.
func (c *Client) ConnectTranscription(ctx context.Context, params StreamParams, handlers StreamHandlers) *stream.Conn {
	return c.connectStream(ctx, "/ws/transcription", params, handlers)
}

// ConnectCompliance opens the live compliance channel.
func (c *Client) ConnectCompliance(ctx context.Context, params StreamParams, handlers StreamHandlers) *stream.Conn {
	return c.connectStream(ctx, "/ws/compliance", params, handlers)
}

// ConnectCodes opens the live coding suggestion channel.
func (c *Client) ConnectCodes(ctx context.Context, params StreamParams, handlers StreamHandlers) *stream.Conn {
	return c.connectStream(ctx, "/ws/codes", params, handlers)
}

// ConnectCollaboration opens the collaborative editing channel.
func (c *Client) ConnectCollaboration(ctx context.Context, params StreamParams, handlers StreamHandlers) *stream.Conn {
	return c.connectStream(ctx, "/ws/collaboration", params, handlers)
}

func (c *Client) connectStream(ctx context.Context, path string, params StreamParams, handlers StreamHandlers) *stream.Conn {
	opts := stream.Options{
		Static: params.values(),
		Params: func() url.Values {
			// The token rotates across refreshes; read it fresh on every
			// (re)connect attempt.
			v := url.Values{}
			if token := c.auth.AccessToken(); token != "" {
				v.Set("token", token)
			}
			return v
		},
		OnOpen:   handlers.OnOpen,
		OnError:  handlers.OnError,
		Disabled: c.cfg.StreamsDisabled,
	}
	if handlers.OnMessage != nil {
		opts.OnMessage = func(raw json.RawMessage) {
			handlers.OnMessage(raw)
		}
	}
	return c.streams.Connect(ctx, path, opts)
}

package client

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"

	"github.com/trebbag/revenuepilot-sub003/pkg/api"
)

// TranscribeAudio uploads an audio blob for transcription. diarise asks
// the server to split segments by speaker.
func (c *Client) TranscribeAudio(ctx context.Context, audio []byte, filename string, diarise bool) (*api.TranscribeResponse, error) {
	if len(audio) == 0 {
		return nil, fmt.Errorf("audio payload is empty")
	}
	if filename == "" {
		filename = "recording.webm"
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to build upload form: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return nil, fmt.Errorf("failed to write audio payload: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize upload form: %w", err)
	}

	var query url.Values
	if diarise {
		query = url.Values{"diarise": {"true"}}
	}

	var resp api.TranscribeResponse
	err = c.http.Upload(ctx, http.MethodPost, "/transcribe", query, writer.FormDataContentType(), body.Bytes(), &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

package client

import (
	"context"
	"net/http"
	"time"

	"github.com/trebbag/revenuepilot-sub003/pkg/api"
)

// LogEvent records a client-side telemetry event. Timestamp defaults to now.
func (c *Client) LogEvent(ctx context.Context, event api.Event) error {
	if event.Timestamp == 0 {
		event.Timestamp = float64(time.Now().UnixMilli()) / 1000
	}
	return c.http.JSON(ctx, http.MethodPost, "/event", nil, event, nil)
}

// ListEvents returns recorded telemetry events.
func (c *Client) ListEvents(ctx context.Context) ([]api.Event, error) {
	var events []api.Event
	if err := c.http.JSON(ctx, http.MethodGet, "/events", nil, nil, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// GetMetrics returns aggregate usage metrics.
func (c *Client) GetMetrics(ctx context.Context) (*api.MetricsResponse, error) {
	var metrics api.MetricsResponse
	if err := c.http.JSON(ctx, http.MethodGet, "/metrics", nil, nil, &metrics); err != nil {
		return nil, err
	}
	return &metrics, nil
}

// GetAlerts returns active backend status alerts.
func (c *Client) GetAlerts(ctx context.Context) ([]api.Alert, error) {
	var alerts []api.Alert
	if err := c.http.JSON(ctx, http.MethodGet, "/status/alerts", nil, nil, &alerts); err != nil {
		return nil, err
	}
	return alerts, nil
}

// GetObservability returns the backend observability snapshot.
func (c *Client) GetObservability(ctx context.Context) (*api.ObservabilityResponse, error) {
	var obs api.ObservabilityResponse
	if err := c.http.JSON(ctx, http.MethodGet, "/status/observability", nil, nil, &obs); err != nil {
		return nil, err
	}
	return &obs, nil
}

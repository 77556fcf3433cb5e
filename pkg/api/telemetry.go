package api

// Event is a client-side telemetry event
type Event struct {
	EventType string         `json:"eventType"`
	Timestamp float64        `json:"timestamp,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
}

// MetricsResponse is the aggregate usage metrics read-out
type MetricsResponse struct {
	TotalNotes    int            `json:"total_notes"`
	TotalBeautify int            `json:"total_beautify"`
	TotalSuggest  int            `json:"total_suggest"`
	AvgNoteLength float64        `json:"avg_note_length,omitempty"`
	Daily         map[string]any `json:"daily,omitempty"`
}

// Alert is a backend status alert
type Alert struct {
	Severity string `json:"severity"`
	Message  string `json:"message"`
	Since    int64  `json:"since,omitempty"`
}

// ObservabilityResponse is the backend observability snapshot
type ObservabilityResponse struct {
	Uptime   float64        `json:"uptime,omitempty"`
	Services map[string]any `json:"services,omitempty"`
}

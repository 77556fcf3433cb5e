package api

// SessionAction is the canonical set of visit session verbs accepted by the
// backend. UI-level verbs (start, restart, hold, end, ...) are normalized to
// one of these before anything goes on the wire.
type SessionAction string

const (
	SessionResume SessionAction = "resume"
	SessionPause  SessionAction = "pause"
	SessionStop   SessionAction = "stop"
)

// UserSession is the cross-device editing session for a user
type UserSession struct {
	SelectedCodes map[string]int `json:"selectedCodesList,omitempty"`
	CurrentNote   string         `json:"current_note,omitempty"`
	PatientID     string         `json:"patient_id,omitempty"`
	EncounterID   string         `json:"encounter_id,omitempty"`
	UpdatedAt     int64          `json:"updated_at,omitempty"`
}

// VisitSessionRequest starts or mutates a visit session
type VisitSessionRequest struct {
	EncounterID string        `json:"encounter_id,omitempty"`
	SessionID   int64         `json:"session_id,omitempty"`
	Action      SessionAction `json:"action,omitempty"`
}

// VisitSessionResponse is the server's view of a visit session
type VisitSessionResponse struct {
	SessionID   int64  `json:"session_id"`
	EncounterID string `json:"encounter_id,omitempty"`
	Status      string `json:"status"`
	StartedAt   int64  `json:"started_at,omitempty"`
}

package api

// NoteContext carries the structured context sent with every AI note
// operation. All fields are optional; absent fields are omitted from the
// wire payload instead of being sent as empty strings.
type NoteContext struct {
	Lang          string   `json:"lang,omitempty"`
	Specialty     string   `json:"specialty,omitempty"`
	Payer         string   `json:"payer,omitempty"`
	Region        string   `json:"region,omitempty"`
	Age           int      `json:"age,omitempty"`
	Sex           string   `json:"sex,omitempty"`
	Template      string   `json:"template,omitempty"`
	Agencies      []string `json:"agencies,omitempty"`
	BeautifyModel string   `json:"beautify_model,omitempty"`
	SuggestModel  string   `json:"suggest_model,omitempty"`
	SummarizeModel string  `json:"summarize_model,omitempty"`
}

// BeautifyRequest asks the server to clean up raw note text
type BeautifyRequest struct {
	Text string `json:"text"`
	NoteContext
}

// BeautifyResponse carries the beautified note
type BeautifyResponse struct {
	Beautified string `json:"beautified"`
}

// SuggestRequest asks for billing code / compliance suggestions
type SuggestRequest struct {
	Text      string         `json:"text"`
	Chart     string         `json:"chart,omitempty"`
	Audio     []float64      `json:"audio,omitempty"`
	RulesData map[string]any `json:"rules,omitempty"`
	NoteContext
}

// CodeSuggestion is a single suggested billing code
type CodeSuggestion struct {
	Code      string  `json:"code"`
	Rationale string  `json:"rationale,omitempty"`
	Upgrade   string  `json:"upgradeTo,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
}

// SuggestionsResponse is the full suggestion set for a note
type SuggestionsResponse struct {
	Codes          []CodeSuggestion `json:"codes"`
	Compliance     []string         `json:"compliance"`
	PublicHealth   []string         `json:"publicHealth"`
	Differentials  []string         `json:"differentials"`
	FollowUp       string           `json:"followUp,omitempty"`
}

// SummarizeRequest asks for a patient-friendly summary
type SummarizeRequest struct {
	Text  string `json:"text"`
	Chart string `json:"chart,omitempty"`
	NoteContext
}

// SummarizeResponse carries the generated summary
type SummarizeResponse struct {
	Summary        string   `json:"summary"`
	Recommendations []string `json:"recommendations,omitempty"`
	Warnings       []string `json:"warnings,omitempty"`
}

// FollowupRequest asks for a recommended follow-up interval
type FollowupRequest struct {
	Text string `json:"text"`
	NoteContext
}

// FollowupResponse carries the follow-up recommendation
type FollowupResponse struct {
	Interval string `json:"interval"`
	Reason   string `json:"reason,omitempty"`
}

// DraftRequest creates or updates a note draft
type DraftRequest struct {
	Content   string `json:"content"`
	PatientID string `json:"patient_id,omitempty"`
	// Version enables last-write-wins replay: the server keeps the draft
	// with the highest version, so re-delivering an old auto-save is a no-op.
	Version int64 `json:"version,omitempty"`
}

// DraftResponse is the stored draft as the server sees it
type DraftResponse struct {
	ID        string `json:"id"`
	Content   string `json:"content"`
	PatientID string `json:"patient_id,omitempty"`
	Version   int64  `json:"version"`
	UpdatedAt int64  `json:"updated_at,omitempty"`
}

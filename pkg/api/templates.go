package api

// Template is a reusable note template
type Template struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Content   string `json:"content"`
	Specialty string `json:"specialty,omitempty"`
	Payer     string `json:"payer,omitempty"`
	UpdatedAt int64  `json:"updated_at,omitempty"`
}

// TemplateRequest creates or updates a template. ClientID is a
// client-generated uuid doubling as an idempotency key: the server treats a
// duplicate submission of the same ClientID as an update, not a new row.
type TemplateRequest struct {
	ClientID  string `json:"client_id,omitempty"`
	Name      string `json:"name"`
	Content   string `json:"content"`
	Specialty string `json:"specialty,omitempty"`
	Payer     string `json:"payer,omitempty"`
}

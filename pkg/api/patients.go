package api

// Patient is one row of a patient search result
type Patient struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	DOB       string `json:"dob,omitempty"`
	MRN       string `json:"mrn,omitempty"`
}

// PatientSearchResponse is the result of a patient search
type PatientSearchResponse struct {
	Patients []Patient `json:"patients"`
	Total    int       `json:"total,omitempty"`
}

// EncounterValidation is the result of validating an encounter id
type EncounterValidation struct {
	Valid   bool     `json:"valid"`
	Errors  []string `json:"errors,omitempty"`
	Patient *Patient `json:"patient,omitempty"`
}

// CodeDetail is locally cacheable billing-code metadata
type CodeDetail struct {
	Code        string   `json:"code"`
	Description string   `json:"description"`
	Rationale   string   `json:"rationale,omitempty"`
	Reimbursement string `json:"reimbursement,omitempty"`
	RVU         string   `json:"rvu,omitempty"`
	Conflicts   []string `json:"conflicts,omitempty"`
}

package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/trebbag/revenuepilot-sub003/pkg/api"
)

// SearchPatients looks up patients by a partial name or MRN. Queries
// shorter than two characters return empty without touching the network.
// Results are cached for the configured TTL and concurrent equal queries
// share one round trip after a short debounce.
func (c *Client) SearchPatients(ctx context.Context, query string) (*api.PatientSearchResponse, error) {
	if len(query) < 2 {
		return &api.PatientSearchResponse{Patients: []api.Patient{}}, nil
	}

	result, err := c.searchCache.Get(ctx, query, func(ctx context.Context) (api.PatientSearchResponse, error) {
		var resp api.PatientSearchResponse
		q := url.Values{"q": {query}}
		if err := c.http.JSON(ctx, http.MethodGet, "/patients/search", q, nil, &resp); err != nil {
			return api.PatientSearchResponse{}, err
		}
		return resp, nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// ValidateEncounter checks an encounter id against the backend, with the
// same debounced caching as patient search.
func (c *Client) ValidateEncounter(ctx context.Context, encounterID string, patientID string) (*api.EncounterValidation, error) {
	if encounterID == "" {
		return nil, fmt.Errorf("encounter id is required")
	}

	key := encounterID + "|" + patientID
	result, err := c.validateCache.Get(ctx, key, func(ctx context.Context) (api.EncounterValidation, error) {
		var resp api.EncounterValidation
		q := url.Values{"encounter_id": {encounterID}}
		if patientID != "" {
			q.Set("patient_id", patientID)
		}
		if err := c.http.JSON(ctx, http.MethodGet, "/encounters/validate", q, nil, &resp); err != nil {
			return api.EncounterValidation{}, err
		}
		return resp, nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

package client

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/trebbag/revenuepilot-sub003/pkg/api"
)

// codesStoreKey mirrors the code metadata table for offline starts.
const codesStoreKey = "codes/metadata"

// RefreshCodeMetadata fetches the billing-code metadata table and replaces
// the local cache wholesale. The cache has no TTL; it is only ever
// refreshed by this call and consulted as an offline fallback.
func (c *Client) RefreshCodeMetadata(ctx context.Context) error {
	var details []api.CodeDetail
	if err := c.http.JSON(ctx, http.MethodGet, "/codes/details", nil, nil, &details); err != nil {
		return err
	}

	c.codeCache.Clear()
	for _, d := range details {
		c.codeCache.Remember(d.Code, d)
	}
	c.store.Save(ctx, codesStoreKey, details)
	return nil
}

// GetCodeDetails resolves metadata for the given codes. Codes are served
// from the local cache; anything unknown triggers one wholesale refresh
// attempt, and when that fails (offline) whatever is cached is returned.
func (c *Client) GetCodeDetails(ctx context.Context, codes []string) []api.CodeDetail {
	if c.codeCache.Len() == 0 {
		c.restoreCodeCache(ctx)
	}

	missing := false
	for _, code := range codes {
		if _, ok := c.codeCache.Read(code); !ok {
			missing = true
			break
		}
	}
	if missing {
		if err := c.RefreshCodeMetadata(ctx); err != nil {
			slog.Debug("code metadata refresh failed, serving cached copy", "error", err)
		}
	}

	details := make([]api.CodeDetail, 0, len(codes))
	for _, code := range codes {
		if d, ok := c.codeCache.Read(code); ok {
			details = append(details, d)
		}
	}
	return details
}

// restoreCodeCache seeds the in-memory code cache from the persisted
// mirror, for offline starts.
func (c *Client) restoreCodeCache(ctx context.Context) {
	var details []api.CodeDetail
	if !c.store.Load(ctx, codesStoreKey, &details) {
		return
	}
	for _, d := range details {
		c.codeCache.Remember(d.Code, d)
	}
}

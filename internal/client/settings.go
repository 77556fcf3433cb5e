package client

import (
	"context"
	"log/slog"
	"net/http"
)

// settingsStoreKey mirrors the last known settings for offline reads.
const settingsStoreKey = "settings/current"

// GetSettings fetches the user preference object. This is a best-effort
// read: on failure it degrades to the locally mirrored copy (or an empty
// object) and the reason is left in the last-backend-error slot instead of
// surfacing a hard error.
func (c *Client) GetSettings(ctx context.Context) map[string]any {
	var settings map[string]any
	err := c.http.JSON(ctx, http.MethodGet, "/settings", nil, nil, &settings)
	if err == nil {
		c.store.Save(ctx, settingsStoreKey, settings)
		return flattenCategories(settings)
	}

	slog.Debug("settings fetch failed, serving local copy", "error", err)
	fallback := map[string]any{}
	c.store.Load(ctx, settingsStoreKey, &fallback)
	return flattenCategories(fallback)
}

// SaveSettings pushes the preference object and mirrors it locally.
func (c *Client) SaveSettings(ctx context.Context, settings map[string]any) error {
	if err := c.http.JSON(ctx, http.MethodPost, "/settings", nil, settings, nil); err != nil {
		return err
	}
	c.store.Save(ctx, settingsStoreKey, settings)
	return nil
}

// flattenCategories lifts the server's nested category map into the named
// booleans the UI binds to, e.g. {"categories":{"codes":true}} becomes
// {"enableCodes":true}.
func flattenCategories(settings map[string]any) map[string]any {
	if settings == nil {
		return map[string]any{}
	}

	categories, ok := settings["categories"].(map[string]any)
	if !ok {
		return settings
	}

	flattened := make(map[string]any, len(settings)+len(categories))
	for k, v := range settings {
		if k == "categories" {
			continue
		}
		flattened[k] = v
	}
	for name, enabled := range categories {
		on, _ := enabled.(bool)
		flattened["enable"+titleCase(name)] = on
	}
	return flattened
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	if s[0] >= 'a' && s[0] <= 'z' {
		return string(s[0]-'a'+'A') + s[1:]
	}
	return s
}

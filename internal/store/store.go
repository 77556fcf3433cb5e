package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned by implementations internally when a key has no
// value. It never escapes Load; callers only ever see the fallback value.
var ErrNotFound = errors.New("store: key not found")

// Store is a durable key-value store for JSON blobs. Durability is
// advisory: Load never fails the caller (a missing key, corrupt blob, or
// unavailable store all leave out at its fallback value), and Save is
// best-effort.
type Store interface {
	// Load decodes the blob at key into out and reports whether anything
	// was loaded. On miss or corrupt data out is left untouched, so the
	// caller's pre-filled value acts as the fallback.
	Load(ctx context.Context, key string, out any) bool

	// Save encodes v and stores it at key. Serialization and storage
	// failures are swallowed; the store is a cache of convenience, not a
	// system of record.
	Save(ctx context.Context, key string, v any)

	// Delete removes the blob at key, if present.
	Delete(ctx context.Context, key string)
}

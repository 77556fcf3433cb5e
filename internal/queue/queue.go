package queue

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/trebbag/revenuepilot-sub003/internal/store"
)

// storeKey is where the persisted queue lives.
const storeKey = "queue/pending"

// Kind identifies a replayable mutation.
type Kind string

const (
	KindTemplateCreate Kind = "template.create"
	KindTemplateUpdate Kind = "template.update"
	KindTemplateDelete Kind = "template.delete"
	KindNoteAutoSave   Kind = "note.autoSave"
)

// PendingOp is one deferred write. Payload stays opaque JSON so the queue
// survives restarts without knowing every payload shape.
type PendingOp struct {
	Kind       Kind            `json:"kind"`
	Payload    json.RawMessage `json:"payload"`
	EnqueuedAt int64           `json:"enqueued_at"`
}

// Executor replays a single pending operation against the backend.
type Executor func(ctx context.Context, op PendingOp) error

// Queue is a durable FIFO of write operations that could not reach the
// server. Order is preserved across persistence; a failed replay keeps its
// position relative to other failures and waits for the next flush trigger.
// The queue itself never backs off.
type Queue struct {
	mu    sync.Mutex
	ops   []PendingOp
	store store.Store
	limit int
	now   func() time.Time
}

// New restores any persisted queue from s. limit bounds the queue; beyond
// it the oldest entries are evicted first, the same policy the caches use.
func New(ctx context.Context, s store.Store, limit int) *Queue {
	q := &Queue{store: s, limit: limit, now: time.Now}
	q.store.Load(ctx, storeKey, &q.ops)
	return q
}

// Enqueue appends a deferred operation and persists the queue.
func (q *Queue) Enqueue(ctx context.Context, kind Kind, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	q.mu.Lock()
	q.ops = append(q.ops, PendingOp{
		Kind:       kind,
		Payload:    data,
		EnqueuedAt: q.now().UnixMilli(),
	})
	if q.limit > 0 && len(q.ops) > q.limit {
		dropped := len(q.ops) - q.limit
		q.ops = append([]PendingOp(nil), q.ops[dropped:]...)
		slog.Warn("offline queue full, dropping oldest operations", "dropped", dropped)
	}
	snapshot := append([]PendingOp(nil), q.ops...)
	q.mu.Unlock()

	q.store.Save(ctx, storeKey, snapshot)
	return nil
}

// Len reports the number of pending operations.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.ops)
}

// Pending returns a copy of the queued operations in replay order.
func (q *Queue) Pending() []PendingOp {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]PendingOp(nil), q.ops...)
}

// Flush replays the queue in order, attempting each operation exactly once.
// Successes are dropped; failures keep their original relative order and
// wait for the next trigger (reconnect or restart). Operations enqueued
// while the flush runs end up after the surviving failures.
func (q *Queue) Flush(ctx context.Context, exec Executor) (succeeded, failed int) {
	q.mu.Lock()
	batch := q.ops
	q.ops = nil
	q.mu.Unlock()

	if len(batch) == 0 {
		return 0, 0
	}

	var failures []PendingOp
	for _, op := range batch {
		if err := exec(ctx, op); err != nil {
			slog.Debug("offline replay failed", "kind", op.Kind, "error", err)
			failures = append(failures, op)
			failed++
			continue
		}
		succeeded++
	}

	q.mu.Lock()
	q.ops = append(failures, q.ops...)
	snapshot := append([]PendingOp(nil), q.ops...)
	q.mu.Unlock()

	q.store.Save(ctx, storeKey, snapshot)
	return succeeded, failed
}

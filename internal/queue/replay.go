package queue

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/tillsync/internal/model"
	"github.com/roach88/tillsync/internal/store"
)

// Client issues a single replayed request against the backend.
// The engine provides an HTTP implementation; tests script responses.
// Timeouts belong to the client - the driver treats any error as a failed
// attempt and never defines its own deadline.
type Client interface {
	Do(ctx context.Context, method, endpoint string, payload []byte) ([]byte, error)
}

// OnReplayed receives the server response for a successfully replayed
// operation, after the queue entry is completed. The reconciliation hook
// lives here: a create-order response feeds the synced-swap saga.
type OnReplayed func(ctx context.Context, op model.PendingOperation, response []byte) error

// ReplayReport summarizes one replay pass.
type ReplayReport struct {
	Attempted int `json:"attempted"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`
}

// Replay iterates all pending operations in FIFO order, issuing each
// against the backend. On success the entry is completed and the response
// handed to onReplayed; on failure the entry is failed and the pass
// continues with unrelated operations.
//
// Subsequent operations sharing a failed operation's offline id are
// skipped for this pass: replaying them would reorder same-resource
// mutations around the failure (or target a resource whose creation never
// happened). They stay pending for the next pass.
//
// Replay never returns a per-operation error; only reading the queue can
// fail. Attempt failures are recorded on the entries themselves.
func (q *Queue) Replay(ctx context.Context, client Client, onReplayed OnReplayed) (ReplayReport, error) {
	var report ReplayReport

	ops, err := q.ListPending(ctx)
	if err != nil {
		return report, fmt.Errorf("replay: %w", err)
	}

	blocked := map[string]bool{}

	for _, snapshot := range ops {
		// Re-read before issuing: a confirmed creation earlier in this
		// pass may have rewritten this entry's endpoint and payload from
		// the temporary id to the server id.
		op, err := q.store.GetPendingOperation(ctx, snapshot.ID)
		if errors.Is(err, store.ErrNotFound) {
			// Completed by a concurrent context mid-pass.
			continue
		}
		if err != nil {
			return report, fmt.Errorf("replay: %w", err)
		}

		if op.OfflineID != "" && blocked[op.OfflineID] {
			report.Skipped++
			continue
		}

		report.Attempted++
		response, err := client.Do(ctx, op.Method, op.Endpoint, op.Payload)
		if err != nil {
			report.Failed++
			if op.OfflineID != "" {
				blocked[op.OfflineID] = true
			}
			if ferr := q.Fail(ctx, op.ID, err); ferr != nil {
				// The attempt bookkeeping is best effort; the entry
				// stays pending and retries next pass.
				continue
			}
			continue
		}

		if err := q.Complete(ctx, op.ID); err != nil {
			// Row already gone: a concurrent context completed it.
			// Do not feed the response twice.
			continue
		}
		report.Succeeded++

		if onReplayed != nil {
			if err := onReplayed(ctx, op, response); err != nil {
				// The server accepted the mutation; local reconciliation
				// failing must not resurrect the queue entry. The order
				// stays unsynced and the next fetch reconciles it.
				continue
			}
		}
	}

	return report, nil
}

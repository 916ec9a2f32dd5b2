package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/tillsync/internal/model"
	"github.com/roach88/tillsync/internal/store"
)

// Queue is the pending-operation queue over the local store.
type Queue struct {
	store *store.Store
}

// New creates a queue backed by the given store.
func New(st *store.Store) *Queue {
	return &Queue{store: st}
}

// Enqueue appends an operation with status pending and retry count zero,
// returning the assigned queue id.
//
// Identical content is deduplicated: if a pending entry with the same
// fingerprint (type, endpoint, canonical payload) already exists, its id is
// returned instead of inserting a duplicate. Failed entries never dedup -
// an operator retry is a fresh submission.
func (q *Queue) Enqueue(ctx context.Context, op model.PendingOperation) (int64, error) {
	op.Status = model.OpPending
	op.RetryCount = 0
	op.Error = ""
	op.LastAttempt = time.Time{}
	if op.Fingerprint == "" {
		op.Fingerprint = model.Fingerprint(op.Type, op.Endpoint, op.Payload)
	}

	existing, err := q.store.FindPendingByFingerprint(ctx, op.Fingerprint)
	if err == nil {
		return existing.ID, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return 0, fmt.Errorf("enqueue: %w", err)
	}

	id, err := q.store.InsertPendingOperation(ctx, op)
	if err != nil {
		return 0, fmt.Errorf("enqueue: %w", err)
	}
	return id, nil
}

// ListPending returns all pending entries in FIFO submission order.
// FIFO is a correctness requirement: an order's status update must not
// replay before the order's own creation.
func (q *Queue) ListPending(ctx context.Context) ([]model.PendingOperation, error) {
	return q.store.PendingOperations(ctx, model.OpPending)
}

// ListFailed returns entries that exhausted their retries.
func (q *Queue) ListFailed(ctx context.Context) ([]model.PendingOperation, error) {
	return q.store.PendingOperations(ctx, model.OpFailed)
}

// Complete deletes an entry after a confirmed replay. Exactly-once per
// queue id: completing an already-completed id returns ErrNotFound.
func (q *Queue) Complete(ctx context.Context, id int64) error {
	if err := q.store.DeletePendingOperation(ctx, id); err != nil {
		return fmt.Errorf("complete operation %d: %w", id, err)
	}
	return nil
}

// Fail records a replay failure: retry count increments, the error and
// attempt time are stored. Below the retry bound the entry stays pending
// (eligible for the next pass); at the bound it becomes failed and leaves
// automatic replay.
func (q *Queue) Fail(ctx context.Context, id int64, cause error) error {
	op, err := q.store.GetPendingOperation(ctx, id)
	if err != nil {
		return fmt.Errorf("fail operation %d: %w", id, err)
	}

	op.RetryCount++
	op.LastAttempt = time.Now().UTC()
	if cause != nil {
		op.Error = cause.Error()
	}
	if op.RetryCount >= model.MaxRetries {
		op.Status = model.OpFailed
	}

	if err := q.store.UpdatePendingOperation(ctx, op); err != nil {
		return fmt.Errorf("fail operation %d: %w", id, err)
	}
	return nil
}

// Retry resets a failed entry to pending with a fresh retry budget.
// Operator action, surfaced through the CLI.
func (q *Queue) Retry(ctx context.Context, id int64) error {
	op, err := q.store.GetPendingOperation(ctx, id)
	if err != nil {
		return fmt.Errorf("retry operation %d: %w", id, err)
	}
	if op.Status != model.OpFailed {
		return fmt.Errorf("retry operation %d: status is %s, not failed", id, op.Status)
	}

	op.Status = model.OpPending
	op.RetryCount = 0
	op.Error = ""

	if err := q.store.UpdatePendingOperation(ctx, op); err != nil {
		return fmt.Errorf("retry operation %d: %w", id, err)
	}
	return nil
}

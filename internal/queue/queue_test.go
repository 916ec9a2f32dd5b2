package queue

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tillsync/internal/model"
	"github.com/roach88/tillsync/internal/store"
)

func newTestQueue(t *testing.T) *Queue {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return New(st)
}

func TestEnqueue_ForcesPendingState(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	id, err := q.Enqueue(ctx, model.PendingOperation{
		Type: model.OpCreateOrder, Endpoint: "/orders", Method: "POST",
		Status: model.OpFailed, RetryCount: 2, Error: "stale",
	})
	require.NoError(t, err)

	ops, err := q.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, ops, 1)

	assert.Equal(t, id, ops[0].ID)
	assert.Equal(t, model.OpPending, ops[0].Status)
	assert.Zero(t, ops[0].RetryCount)
	assert.Empty(t, ops[0].Error)
	assert.NotEmpty(t, ops[0].Fingerprint, "fingerprint computed on enqueue")
}

func TestEnqueue_DeduplicatesIdenticalContent(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	op := model.PendingOperation{
		Type: model.OpUpdateOrderStatus, Endpoint: "/orders/1/status",
		Method: "PATCH", Payload: []byte(`{"status":"confirmed"}`),
	}
	first, err := q.Enqueue(ctx, op)
	require.NoError(t, err)

	// Same content with reordered payload keys is the same operation.
	op.Payload = []byte(`{ "status" : "confirmed" }`)
	second, err := q.Enqueue(ctx, op)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	ops, err := q.ListPending(ctx)
	require.NoError(t, err)
	assert.Len(t, ops, 1)
}

func TestEnqueue_DifferentContentNotDeduplicated(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	first, err := q.Enqueue(ctx, model.PendingOperation{
		Type: model.OpUpdateOrderStatus, Endpoint: "/orders/1/status",
		Method: "PATCH", Payload: []byte(`{"status":"confirmed"}`),
	})
	require.NoError(t, err)

	second, err := q.Enqueue(ctx, model.PendingOperation{
		Type: model.OpUpdateOrderStatus, Endpoint: "/orders/1/status",
		Method: "PATCH", Payload: []byte(`{"status":"ready"}`),
	})
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestComplete_ExactlyOnce(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	id, err := q.Enqueue(ctx, model.PendingOperation{
		Type: model.OpCreateOrder, Endpoint: "/orders", Method: "POST",
	})
	require.NoError(t, err)

	require.NoError(t, q.Complete(ctx, id))

	err = q.Complete(ctx, id)
	require.Error(t, err)
	assert.True(t, errors.Is(err, store.ErrNotFound))
}

func TestFail_RetriesThenFails(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	id, err := q.Enqueue(ctx, model.PendingOperation{
		Type: model.OpCreateOrder, Endpoint: "/orders", Method: "POST",
	})
	require.NoError(t, err)

	cause := errors.New("backend unavailable")
	for attempt := 1; attempt < model.MaxRetries; attempt++ {
		require.NoError(t, q.Fail(ctx, id, cause))

		pending, err := q.ListPending(ctx)
		require.NoError(t, err)
		require.Len(t, pending, 1, "below the bound the entry stays pending")
		assert.Equal(t, attempt, pending[0].RetryCount)
		assert.Equal(t, "backend unavailable", pending[0].Error)
		assert.False(t, pending[0].LastAttempt.IsZero())
	}

	// The bounding attempt moves it to failed.
	require.NoError(t, q.Fail(ctx, id, cause))

	pending, err := q.ListPending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending, "a failed entry leaves automatic replay")

	failed, err := q.ListFailed(ctx)
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, model.MaxRetries, failed[0].RetryCount)
}

func TestRetry_ResetsFailedEntry(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	id, err := q.Enqueue(ctx, model.PendingOperation{
		Type: model.OpCreateOrder, Endpoint: "/orders", Method: "POST",
	})
	require.NoError(t, err)
	for i := 0; i < model.MaxRetries; i++ {
		require.NoError(t, q.Fail(ctx, id, errors.New("down")))
	}

	require.NoError(t, q.Retry(ctx, id))

	pending, err := q.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Zero(t, pending[0].RetryCount)
	assert.Empty(t, pending[0].Error)
}

func TestRetry_RejectsPendingEntry(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	id, err := q.Enqueue(ctx, model.PendingOperation{
		Type: model.OpCreateOrder, Endpoint: "/orders", Method: "POST",
	})
	require.NoError(t, err)

	err = q.Retry(ctx, id)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not failed")
}

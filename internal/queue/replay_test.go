package queue

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tillsync/internal/model"
	"github.com/roach88/tillsync/internal/testutil"
)

const tempID = "OFFLINE-1700000000123-a1b2c3d4"

func TestReplay_FIFOOrder(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	_, err := q.Enqueue(ctx, model.PendingOperation{
		Type: model.OpCreateOrder, Endpoint: "/orders", Method: "POST",
	})
	require.NoError(t, err)
	_, err = q.Enqueue(ctx, model.PendingOperation{
		Type: model.OpMarkAsPaid, Endpoint: "/orders/1/pay", Method: "PATCH",
	})
	require.NoError(t, err)

	client := testutil.NewScriptedClient()
	client.ScriptDefault(testutil.Response{Body: []byte(`{}`)})
	client.ScriptDefault(testutil.Response{Body: []byte(`{}`)})

	report, err := q.Replay(ctx, client, nil)
	require.NoError(t, err)

	assert.Equal(t, 2, report.Attempted)
	assert.Equal(t, 2, report.Succeeded)
	require.Len(t, client.Calls, 2)
	assert.Equal(t, "/orders", client.Calls[0].Endpoint)
	assert.Equal(t, "/orders/1/pay", client.Calls[1].Endpoint)
}

func TestReplay_SuccessCompletesAndNotifies(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	_, err := q.Enqueue(ctx, model.PendingOperation{
		Type: model.OpCreateOrder, Endpoint: "/orders", Method: "POST",
		Payload: []byte(`{"orderNumber":"D-1"}`),
	})
	require.NoError(t, err)

	client := testutil.NewScriptedClient()
	client.Script("POST", "/orders", testutil.Response{Body: []byte(`{"id":"4521"}`)})

	var notified []model.PendingOperation
	report, err := q.Replay(ctx, client, func(ctx context.Context, op model.PendingOperation, response []byte) error {
		notified = append(notified, op)
		assert.JSONEq(t, `{"id":"4521"}`, string(response))
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, 1, report.Succeeded)
	require.Len(t, notified, 1)
	assert.Equal(t, model.OpCreateOrder, notified[0].Type)

	pending, err := q.ListPending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending, "confirmed operation removed from the queue")
}

func TestReplay_FailureBlocksSameResource(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	_, err := q.Enqueue(ctx, model.PendingOperation{
		Type: model.OpCreateOrder, Endpoint: "/orders", Method: "POST",
		OfflineID: tempID,
	})
	require.NoError(t, err)
	_, err = q.Enqueue(ctx, model.PendingOperation{
		Type: model.OpMarkAsPaid, Endpoint: "/orders/" + tempID + "/pay", Method: "PATCH",
		OfflineID: tempID,
	})
	require.NoError(t, err)
	unrelated, err := q.Enqueue(ctx, model.PendingOperation{
		Type: model.OpUpdateOrderStatus, Endpoint: "/orders/7/status", Method: "PATCH",
		Payload: []byte(`{"status":"ready"}`),
	})
	require.NoError(t, err)

	client := testutil.NewScriptedClient()
	client.Script("POST", "/orders", testutil.Response{Err: errors.New("backend unavailable")})
	client.Script("PATCH", "/orders/7/status", testutil.Response{Body: []byte(`{}`)})

	report, err := q.Replay(ctx, client, nil)
	require.NoError(t, err)

	assert.Equal(t, 2, report.Attempted)
	assert.Equal(t, 1, report.Succeeded)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 1, report.Skipped, "payment on the failed order is skipped, not attempted")

	// The unrelated operation went through.
	pending, err := q.ListPending(ctx)
	require.NoError(t, err)
	for _, op := range pending {
		assert.NotEqual(t, unrelated, op.ID)
	}
}

func TestReplay_SeesRewritesFromEarlierInPass(t *testing.T) {
	st := newTestQueue(t)
	ctx := context.Background()

	_, err := st.Enqueue(ctx, model.PendingOperation{
		Type: model.OpCreateOrder, Endpoint: "/orders", Method: "POST",
		OfflineID: tempID,
	})
	require.NoError(t, err)
	statusID, err := st.Enqueue(ctx, model.PendingOperation{
		Type: model.OpUpdateOrderStatus, Endpoint: "/orders/" + tempID + "/status",
		Method: "PATCH", Payload: []byte(`{"status":"confirmed"}`),
		OfflineID: tempID,
	})
	require.NoError(t, err)

	client := testutil.NewScriptedClient()
	client.Script("POST", "/orders", testutil.Response{Body: []byte(`{"id":"4521"}`)})
	client.Script("PATCH", "/orders/4521/status", testutil.Response{Body: []byte(`{}`)})

	// The hook simulates the reconciliation layer rewriting the queued
	// status update once the creation is confirmed.
	report, err := st.Replay(ctx, client, func(ctx context.Context, op model.PendingOperation, response []byte) error {
		if op.Type != model.OpCreateOrder {
			return nil
		}
		rewritten, err := st.store.GetPendingOperation(ctx, statusID)
		require.NoError(t, err)
		rewritten.Endpoint = "/orders/4521/status"
		rewritten.OfflineID = "4521"
		return st.store.UpdatePendingOperation(ctx, rewritten)
	})
	require.NoError(t, err)

	assert.Equal(t, 2, report.Succeeded)
	require.Len(t, client.Calls, 2)
	assert.Equal(t, "/orders/4521/status", client.Calls[1].Endpoint,
		"second operation replayed against the rewritten endpoint")
}

func TestReplay_ErrorRecordedOnEntry(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	id, err := q.Enqueue(ctx, model.PendingOperation{
		Type: model.OpCreateOrder, Endpoint: "/orders", Method: "POST",
	})
	require.NoError(t, err)

	client := testutil.NewScriptedClient()
	client.Script("POST", "/orders", testutil.Response{Err: errors.New("status 502: bad gateway")})

	_, err = q.Replay(ctx, client, nil)
	require.NoError(t, err, "attempt failures never fail the pass")

	op, err := q.store.GetPendingOperation(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 1, op.RetryCount)
	assert.Equal(t, "status 502: bad gateway", op.Error)
}

func TestReplay_HookErrorDoesNotResurrectEntry(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	_, err := q.Enqueue(ctx, model.PendingOperation{
		Type: model.OpCreateOrder, Endpoint: "/orders", Method: "POST",
	})
	require.NoError(t, err)

	client := testutil.NewScriptedClient()
	client.Script("POST", "/orders", testutil.Response{Body: []byte(`{"id":"4521"}`)})

	report, err := q.Replay(ctx, client, func(context.Context, model.PendingOperation, []byte) error {
		return errors.New("reconciliation broke")
	})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Succeeded)

	pending, err := q.ListPending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending, "the server accepted the mutation; the entry stays completed")
}

func TestReplay_EmptyQueue(t *testing.T) {
	q := newTestQueue(t)

	report, err := q.Replay(context.Background(), testutil.NewScriptedClient(), nil)
	require.NoError(t, err)
	assert.Zero(t, report.Attempted)
}

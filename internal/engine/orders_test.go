package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tillsync/internal/model"
	"github.com/roach88/tillsync/internal/store"
	"github.com/roach88/tillsync/internal/testutil"
)

func TestSaveOrder_OfflineQueuesCreation(t *testing.T) {
	eng, client := newTestEngine(t)
	ctx := context.Background()

	saved, err := eng.SaveOrder(ctx, model.Order{
		OrderNumber: "D-1", OrderType: model.OrderTypeDelivery, TotalAmount: 2350,
	})
	require.NoError(t, err)

	assert.True(t, saved.IsOffline(), "offline save mints a temporary id")
	assert.False(t, saved.Synced)
	assert.Equal(t, model.DeliveryPending, saved.DeliveryStatus)
	assert.Zero(t, client.CallCount(), "no network while offline")

	pending, err := eng.ListPendingOperations(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, model.OpCreateOrder, pending[0].Type)
	assert.Equal(t, saved.ID, pending[0].OfflineID)
}

func TestSaveOrder_OnlineSyncsImmediately(t *testing.T) {
	eng, client := newTestEngine(t)
	ctx := context.Background()
	eng.SetOnline(true)

	client.Script("POST", "/orders", testutil.Response{
		Body: []byte(`{"id":"4521","orderNumber":"D-1","orderType":"delivery"}`),
	})

	saved, err := eng.SaveOrder(ctx, model.Order{
		OrderNumber: "D-1", OrderType: model.OrderTypeDelivery,
	})
	require.NoError(t, err)

	assert.Equal(t, "4521", saved.ID, "server id replaces the minted one")
	assert.True(t, saved.Synced)

	pending, err := eng.ListPendingOperations(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending, "direct call succeeded, nothing to queue")

	orders, err := eng.ListOrders(ctx, store.OrderFilter{})
	require.NoError(t, err)
	require.Len(t, orders, 1, "temp-keyed copy removed by the swap")
}

func TestSaveOrder_DirectCallFailureFallsBackToQueue(t *testing.T) {
	eng, client := newTestEngine(t)
	ctx := context.Background()
	eng.SetOnline(true)

	client.Script("POST", "/orders", testutil.Response{Err: errors.New("status 502")})

	saved, err := eng.SaveOrder(ctx, model.Order{OrderNumber: "D-1", OrderType: model.OrderTypeTakeout})
	require.NoError(t, err, "a failed direct call degrades to queueing, not an error")
	assert.True(t, saved.IsOffline())

	pending, err := eng.ListPendingOperations(ctx)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestUpdateOrderStatus_OfflineFlagsAndQueues(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()

	saved, err := eng.SaveOrder(ctx, model.Order{OrderNumber: "T-1", OrderType: model.OrderTypeTakeout})
	require.NoError(t, err)

	updated, err := eng.UpdateOrderStatus(ctx, saved.ID, model.OrderConfirmed, false)
	require.NoError(t, err)

	assert.Equal(t, model.OrderConfirmed, updated.OrderStatus)
	assert.True(t, updated.OfflineStatusUpdated)
	assert.False(t, updated.Synced)

	pending, err := eng.ListPendingOperations(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, model.OpUpdateOrderStatus, pending[1].Type)
	assert.Equal(t, "/orders/"+saved.ID+"/status", pending[1].Endpoint)
}

func TestUpdateOrderStatus_RejectsBackwardMove(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()

	saved, err := eng.SaveOrder(ctx, model.Order{OrderNumber: "T-1", OrderType: model.OrderTypeTakeout})
	require.NoError(t, err)
	_, err = eng.UpdateOrderStatus(ctx, saved.ID, model.OrderReady, false)
	require.NoError(t, err)

	_, err = eng.UpdateOrderStatus(ctx, saved.ID, model.OrderConfirmed, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "backward")

	got, err := eng.GetOrderByID(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderReady, got.OrderStatus, "rejected move leaves the order untouched")
}

func TestUpdateOrderStatus_ForceAllowsBackwardMove(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()

	saved, err := eng.SaveOrder(ctx, model.Order{OrderNumber: "T-1", OrderType: model.OrderTypeTakeout})
	require.NoError(t, err)
	_, err = eng.UpdateOrderStatus(ctx, saved.ID, model.OrderReady, false)
	require.NoError(t, err)

	updated, err := eng.UpdateOrderStatus(ctx, saved.ID, model.OrderConfirmed, true)
	require.NoError(t, err)
	assert.Equal(t, model.OrderConfirmed, updated.OrderStatus)
}

func TestUpdateDeliveryStatus(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()

	saved, err := eng.SaveOrder(ctx, model.Order{OrderNumber: "D-1", OrderType: model.OrderTypeDelivery})
	require.NoError(t, err)

	updated, err := eng.UpdateDeliveryStatus(ctx, saved.ID, model.DeliveryOutForDelivery, false)
	require.NoError(t, err)
	assert.Equal(t, model.DeliveryOutForDelivery, updated.DeliveryStatus)

	_, err = eng.UpdateDeliveryStatus(ctx, saved.ID, model.DeliveryPreparing, false)
	require.Error(t, err, "courier axis is monotone too")
}

func TestMarkAsPaid_Idempotent(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()

	saved, err := eng.SaveOrder(ctx, model.Order{OrderNumber: "T-1", OrderType: model.OrderTypeTakeout})
	require.NoError(t, err)

	paid, err := eng.MarkAsPaid(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentCompleted, paid.PaymentStatus)

	// A second call is a no-op; no duplicate queue entry.
	_, err = eng.MarkAsPaid(ctx, saved.ID)
	require.NoError(t, err)

	pending, err := eng.ListPendingOperations(ctx)
	require.NoError(t, err)
	assert.Len(t, pending, 2, "creation plus one payment")
}

func TestCancelOrder_BypassesHierarchy(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()

	saved, err := eng.SaveOrder(ctx, model.Order{OrderNumber: "T-1", OrderType: model.OrderTypeTakeout})
	require.NoError(t, err)
	_, err = eng.UpdateOrderStatus(ctx, saved.ID, model.OrderReady, false)
	require.NoError(t, err)

	cancelled, err := eng.CancelOrder(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderCancelled, cancelled.OrderStatus,
		"cancel sits outside the ladder and never hits the backward check")
}

func TestApplyStatusChange_OnlineConfirmsDirectly(t *testing.T) {
	eng, client := newTestEngine(t)
	ctx := context.Background()

	// Seed a server-keyed, synced order.
	_, err := eng.Store().PutOrder(ctx, model.Order{
		ID: "4521", OrderNumber: "D-1", OrderType: model.OrderTypeTakeout, Synced: true,
	})
	require.NoError(t, err)

	eng.SetOnline(true)
	client.Script("PATCH", "/orders/4521/status", testutil.Response{Body: []byte(`{}`)})

	updated, err := eng.UpdateOrderStatus(ctx, "4521", model.OrderConfirmed, false)
	require.NoError(t, err)

	assert.True(t, updated.Synced)
	assert.False(t, updated.OfflineStatusUpdated)

	pending, err := eng.ListPendingOperations(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending, "confirmed change does not queue")
}

func TestApplyStatusChange_OfflineKeyedNeverCallsDirectly(t *testing.T) {
	eng, client := newTestEngine(t)
	ctx := context.Background()
	eng.SetOnline(true)

	client.Script("POST", "/orders", testutil.Response{Err: errors.New("backend down")})

	saved, err := eng.SaveOrder(ctx, model.Order{OrderNumber: "T-1", OrderType: model.OrderTypeTakeout})
	require.NoError(t, err)
	require.True(t, saved.IsOffline())

	calls := client.CallCount()
	_, err = eng.UpdateOrderStatus(ctx, saved.ID, model.OrderConfirmed, false)
	require.NoError(t, err)

	assert.Equal(t, calls, client.CallCount(),
		"a status change on a temp-keyed order queues; the server does not know the id yet")
}

package reconcile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/tillsync/internal/model"
)

func TestMergeOrders_LocalAheadWins(t *testing.T) {
	server := model.Order{ID: "4521", OrderNumber: "D-1", OrderStatus: model.OrderConfirmed}
	local := model.Order{
		ID: "OFFLINE-1700000000123-a1b2c3d4", OrderNumber: "D-1",
		OrderStatus: model.OrderReady,
	}

	merged := MergeOrders(server, local)

	assert.Equal(t, "4521", merged.ID, "server id is canonical")
	assert.Equal(t, model.OrderReady, merged.OrderStatus, "more advanced local status survives")
	assert.True(t, merged.Synced)
}

func TestMergeOrders_ServerAheadWins(t *testing.T) {
	server := model.Order{ID: "4521", OrderStatus: model.OrderPreparing}
	local := model.Order{ID: "4521", OrderStatus: model.OrderConfirmed}

	merged := MergeOrders(server, local)

	assert.Equal(t, model.OrderPreparing, merged.OrderStatus)
	assert.False(t, merged.OfflineStatusUpdated)
}

func TestMergeOrders_OfflineFlagOverridesServerLead(t *testing.T) {
	// The server is momentarily ahead in rank but does not yet reflect
	// the user's offline action; the flag forces trust in the local axis.
	server := model.Order{ID: "4521", OrderStatus: model.OrderPreparing}
	local := model.Order{
		ID: "4521", OrderStatus: model.OrderConfirmed,
		OfflineStatusUpdated: true,
	}

	merged := MergeOrders(server, local)

	assert.Equal(t, model.OrderConfirmed, merged.OrderStatus)
	assert.False(t, merged.OfflineStatusUpdated,
		"flag clears once the local axis is not strictly ahead")
}

func TestMergeOrders_FlagPersistsWhileLocalAhead(t *testing.T) {
	server := model.Order{ID: "4521", OrderStatus: model.OrderPending}
	local := model.Order{
		ID: "4521", OrderStatus: model.OrderReady,
		OfflineStatusUpdated: true,
	}

	merged := MergeOrders(server, local)

	assert.Equal(t, model.OrderReady, merged.OrderStatus)
	assert.True(t, merged.OfflineStatusUpdated,
		"server still trails; the next replay carries the advance")
}

func TestMergeOrders_EmptyLocalNeverWins(t *testing.T) {
	server := model.Order{ID: "4521", OrderStatus: model.OrderConfirmed, DeliveryStatus: model.DeliveryPreparing}
	local := model.Order{ID: "4521"}

	merged := MergeOrders(server, local)

	assert.Equal(t, model.OrderConfirmed, merged.OrderStatus)
	assert.Equal(t, model.DeliveryPreparing, merged.DeliveryStatus)
}

func TestMergeOrders_DeliveryAxisIndependent(t *testing.T) {
	server := model.Order{
		ID: "4521", OrderStatus: model.OrderCompleted,
		DeliveryStatus: model.DeliveryPreparing,
	}
	local := model.Order{
		ID: "4521", OrderStatus: model.OrderReady,
		DeliveryStatus: model.DeliveryOutForDelivery,
	}

	merged := MergeOrders(server, local)

	assert.Equal(t, model.OrderCompleted, merged.OrderStatus, "server ahead on kitchen axis")
	assert.Equal(t, model.DeliveryOutForDelivery, merged.DeliveryStatus, "local ahead on courier axis")
}

func TestMergeOrders_PaymentBinaryRule(t *testing.T) {
	server := model.Order{ID: "4521", PaymentStatus: model.PaymentPending}
	local := model.Order{ID: "4521", PaymentStatus: model.PaymentCompleted}

	merged := MergeOrders(server, local)
	assert.Equal(t, model.PaymentCompleted, merged.PaymentStatus, "a local completion never regresses")

	// The other direction: server completed always stands.
	merged = MergeOrders(
		model.Order{ID: "4521", PaymentStatus: model.PaymentCompleted},
		model.Order{ID: "4521", PaymentStatus: model.PaymentPending},
	)
	assert.Equal(t, model.PaymentCompleted, merged.PaymentStatus)
}

func TestMergeOrders_RetainsOfflineID(t *testing.T) {
	tempID := "OFFLINE-1700000000123-a1b2c3d4"

	merged := MergeOrders(
		model.Order{ID: "4521"},
		model.Order{ID: tempID},
	)
	assert.Equal(t, tempID, merged.OfflineID, "temp id retained for queue rewriting")

	merged = MergeOrders(
		model.Order{ID: "4521"},
		model.Order{ID: "4521", OfflineID: tempID},
	)
	assert.Equal(t, tempID, merged.OfflineID)
}

func TestMergeOrders_FillsMissingServerFields(t *testing.T) {
	created := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	server := model.Order{ID: "4521"}
	local := model.Order{ID: "4521", OrderNumber: "D-1", CreatedAt: created}

	merged := MergeOrders(server, local)

	assert.Equal(t, "D-1", merged.OrderNumber)
	assert.Equal(t, created, merged.CreatedAt)
}

func TestMergeOrders_CancelledNeverWinsByRank(t *testing.T) {
	// Cancelled ranks -1; as a local value without the offline flag it
	// cannot beat any server ladder position.
	server := model.Order{ID: "4521", OrderStatus: model.OrderConfirmed}
	local := model.Order{ID: "4521", OrderStatus: model.OrderCancelled}

	merged := MergeOrders(server, local)
	assert.Equal(t, model.OrderConfirmed, merged.OrderStatus)
}

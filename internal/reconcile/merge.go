package reconcile

import (
	"log"

	"github.com/roach88/tillsync/internal/model"
)

// keepLocalOrder decides one axis of the merge. The local value survives if
// it is strictly more advanced, if the server has effectively no value, or
// if the offline-updated flag forces trust in the user's offline action
// (covers the race where the server is momentarily ahead in hierarchy order
// but not yet reflecting the local action).
func keepLocalOrder(local, server model.OrderStatus, offlineUpdated bool) bool {
	if local == "" {
		return false
	}
	return local.Rank() > server.Rank() || server.Initial() || offlineUpdated
}

func keepLocalDelivery(local, server model.DeliveryStatus, offlineUpdated bool) bool {
	if local == "" {
		return false
	}
	return local.Rank() > server.Rank() || server.Initial() || offlineUpdated
}

// Payment uses a binary rule: a local completion is the only local state
// that survives. Payments never regress from completed.
func keepLocalPayment(local, server model.PaymentStatus) bool {
	return local == model.PaymentCompleted && server != model.PaymentCompleted
}

// MergeOrders merges a server-origin copy with a possibly-more-advanced
// local copy of the same order.
//
// Per status axis the local value is kept only under the rules above; every
// other field takes the server's value. The result is keyed by the server
// ID; the local offline ID is retained for queue rewriting. The
// offline-updated flag is cleared once the server has caught up on every
// axis the local copy is ahead on, so it cannot pin stale values forever.
func MergeOrders(server, local model.Order) model.Order {
	merged := server
	merged.OfflineID = local.OfflineID
	if merged.OfflineID == "" && local.IsOffline() {
		merged.OfflineID = local.ID
	}

	detectAmbiguity(server, local)

	localAhead := false

	if keepLocalOrder(local.OrderStatus, server.OrderStatus, local.OfflineStatusUpdated) {
		merged.OrderStatus = local.OrderStatus
		if local.OrderStatus.Rank() > server.OrderStatus.Rank() {
			localAhead = true
		}
	}
	if keepLocalDelivery(local.DeliveryStatus, server.DeliveryStatus, local.OfflineStatusUpdated) {
		merged.DeliveryStatus = local.DeliveryStatus
		if local.DeliveryStatus.Rank() > server.DeliveryStatus.Rank() {
			localAhead = true
		}
	}
	if keepLocalPayment(local.PaymentStatus, server.PaymentStatus) {
		merged.PaymentStatus = local.PaymentStatus
		localAhead = true
	}

	merged.Synced = true
	// Keep the flag while the server still trails a local axis; the next
	// replay pass carries the remaining advance.
	merged.OfflineStatusUpdated = local.OfflineStatusUpdated && localAhead

	if merged.CreatedAt.IsZero() {
		merged.CreatedAt = local.CreatedAt
	}
	if merged.OrderNumber == "" {
		merged.OrderNumber = local.OrderNumber
	}
	return merged
}

// detectAmbiguity logs order-incomparable offline divergence: both copies
// flagged offline-updated with neither ahead on all diverging axes. The
// merge still resolves axis-wise (most advanced per axis); read paths must
// not fail, so this surfaces as a log line only.
func detectAmbiguity(server, local model.Order) {
	if !local.OfflineStatusUpdated || !server.OfflineStatusUpdated {
		return
	}
	localAhead := local.OrderStatus.Rank() > server.OrderStatus.Rank() ||
		local.DeliveryStatus.Rank() > server.DeliveryStatus.Rank()
	serverAhead := server.OrderStatus.Rank() > local.OrderStatus.Rank() ||
		server.DeliveryStatus.Rank() > local.DeliveryStatus.Rank()
	if localAhead && serverAhead {
		log.Printf("tillsync: ambiguous offline merge for order %s (local %s/%s, server %s/%s); keeping axis-wise maximum",
			local.OrderNumber,
			local.OrderStatus, local.DeliveryStatus,
			server.OrderStatus, server.DeliveryStatus)
	}
}

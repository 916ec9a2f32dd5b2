package reconcile

import (
	"context"

	"github.com/roach88/tillsync/internal/model"
	"github.com/roach88/tillsync/internal/store"
)

// PreserveOfflineStatus post-processes a batch of server-fetched orders for
// display. Each record is correlated against the local store by order
// number; where a local copy is more advanced per the merge rules, the
// fetched copy's status fields are overwritten in memory only. The store
// itself is not mutated - it remains the source of truth for offline edits
// until an explicit sync confirms them.
//
// Correlation lookup failure degrades gracefully: the record is passed
// through unmodified rather than failing the whole read.
func PreserveOfflineStatus(ctx context.Context, st *store.Store, serverOrders []model.Order) []model.Order {
	if len(serverOrders) == 0 {
		return serverOrders
	}

	out := make([]model.Order, len(serverOrders))
	for i, so := range serverOrders {
		out[i] = so
		if so.OrderNumber == "" {
			continue
		}
		local, err := st.GetOrderByNumber(ctx, so.OrderNumber)
		if err != nil {
			// Not found or store trouble: server copy stands.
			continue
		}

		if keepLocalOrder(local.OrderStatus, so.OrderStatus, local.OfflineStatusUpdated) {
			out[i].OrderStatus = local.OrderStatus
		}
		if keepLocalDelivery(local.DeliveryStatus, so.DeliveryStatus, local.OfflineStatusUpdated) {
			out[i].DeliveryStatus = local.DeliveryStatus
		}
		if keepLocalPayment(local.PaymentStatus, so.PaymentStatus) {
			out[i].PaymentStatus = local.PaymentStatus
		}
		if local.OfflineStatusUpdated {
			out[i].OfflineStatusUpdated = true
		}
	}
	return out
}

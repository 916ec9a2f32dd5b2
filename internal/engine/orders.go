package engine

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/roach88/tillsync/internal/model"
	"github.com/roach88/tillsync/internal/reconcile"
	"github.com/roach88/tillsync/internal/store"
)

// orderRef is the broadcast payload for order change notifications.
type orderRef struct {
	ID          string `json:"id"`
	OrderNumber string `json:"orderNumber,omitempty"`
}

// SaveOrder stores a new order locally and arranges its creation on the
// server. Offline (or when the direct call fails) the creation is queued;
// the returned order then carries a freshly minted OFFLINE id and
// synced=false.
func (e *Engine) SaveOrder(ctx context.Context, o model.Order) (model.Order, error) {
	o.Synced = false
	saved, err := e.store.PutOrder(ctx, o)
	if err != nil {
		return model.Order{}, fmt.Errorf("save order: %w", err)
	}
	e.publish(ctx, model.MsgOrderCreated, orderRef{ID: saved.ID, OrderNumber: saved.OrderNumber})

	payload, err := json.Marshal(saved)
	if err != nil {
		return model.Order{}, fmt.Errorf("save order: marshal: %w", err)
	}

	if e.Online() {
		response, err := e.client.Do(ctx, "POST", "/orders", payload)
		if err == nil {
			serverOrder, derr := e.decodeServerOrder(response)
			if derr == nil {
				return e.MarkOrderSynced(ctx, saved.ID, serverOrder)
			}
			// Accepted but unreadable response: leave unsynced, the next
			// fetch reconciles by order number.
			return saved, nil
		}
		// Fall through: direct call failed, queue the creation.
	}

	_, err = e.queue.Enqueue(ctx, model.PendingOperation{
		Type:      model.OpCreateOrder,
		Endpoint:  "/orders",
		Method:    "POST",
		Payload:   payload,
		OfflineID: saved.ID,
	})
	if err != nil {
		return model.Order{}, fmt.Errorf("save order: %w", err)
	}
	return saved, nil
}

// GetOrderByID returns the local copy of an order.
func (e *Engine) GetOrderByID(ctx context.Context, id string) (model.Order, error) {
	return e.store.GetOrder(ctx, id)
}

// GetOrderByOrderNumber returns the local copy by correlation key.
func (e *Engine) GetOrderByOrderNumber(ctx context.Context, orderNumber string) (model.Order, error) {
	return e.store.GetOrderByNumber(ctx, orderNumber)
}

// UpdateOrder upserts local edits. The record is marked unsynced until a
// replay pass confirms it.
func (e *Engine) UpdateOrder(ctx context.Context, o model.Order) (model.Order, error) {
	o.Synced = false
	saved, err := e.store.PutOrder(ctx, o)
	if err != nil {
		return model.Order{}, fmt.Errorf("update order: %w", err)
	}
	e.publish(ctx, model.MsgOrderUpdated, orderRef{ID: saved.ID, OrderNumber: saved.OrderNumber})
	return saved, nil
}

// UpdateOrderStatus advances the kitchen axis. Backward moves are rejected
// unless force is set (an explicit user-initiated revert).
func (e *Engine) UpdateOrderStatus(ctx context.Context, id string, status model.OrderStatus, force bool) (model.Order, error) {
	o, err := e.store.GetOrder(ctx, id)
	if err != nil {
		return model.Order{}, fmt.Errorf("update order status: %w", err)
	}
	if !force && status.Rank() >= 0 && status.Rank() < o.OrderStatus.Rank() {
		return model.Order{}, fmt.Errorf("update order status: %s would move %s backward from %s", status, id, o.OrderStatus)
	}

	o.OrderStatus = status
	return e.applyStatusChange(ctx, o, model.OpUpdateOrderStatus,
		fmt.Sprintf("/orders/%s/status", o.ID),
		map[string]string{"status": string(status)})
}

// UpdateDeliveryStatus advances the courier axis.
func (e *Engine) UpdateDeliveryStatus(ctx context.Context, id string, status model.DeliveryStatus, force bool) (model.Order, error) {
	o, err := e.store.GetOrder(ctx, id)
	if err != nil {
		return model.Order{}, fmt.Errorf("update delivery status: %w", err)
	}
	if !force && status.Rank() >= 0 && status.Rank() < o.DeliveryStatus.Rank() {
		return model.Order{}, fmt.Errorf("update delivery status: %s would move %s backward from %s", status, id, o.DeliveryStatus)
	}

	o.DeliveryStatus = status
	return e.applyStatusChange(ctx, o, model.OpUpdateDeliveryStatus,
		fmt.Sprintf("/orders/%s/delivery-status", o.ID),
		map[string]string{"deliveryStatus": string(status)})
}

// MarkAsPaid completes the payment axis. Payments never regress, so there
// is no force variant.
func (e *Engine) MarkAsPaid(ctx context.Context, id string) (model.Order, error) {
	o, err := e.store.GetOrder(ctx, id)
	if err != nil {
		return model.Order{}, fmt.Errorf("mark as paid: %w", err)
	}
	if o.PaymentStatus == model.PaymentCompleted {
		return o, nil
	}

	o.PaymentStatus = model.PaymentCompleted
	return e.applyStatusChange(ctx, o, model.OpMarkAsPaid,
		fmt.Sprintf("/orders/%s/pay", o.ID),
		map[string]string{"paymentStatus": string(model.PaymentCompleted)})
}

// CancelOrder applies an explicit cancel. Cancelled sits outside the
// status ladder, so this bypasses the hierarchy check by design.
func (e *Engine) CancelOrder(ctx context.Context, id string) (model.Order, error) {
	o, err := e.store.GetOrder(ctx, id)
	if err != nil {
		return model.Order{}, fmt.Errorf("cancel order: %w", err)
	}

	o.OrderStatus = model.OrderCancelled
	return e.applyStatusChange(ctx, o, model.OpCancelOrder,
		fmt.Sprintf("/orders/%s/cancel", o.ID),
		nil)
}

// applyStatusChange persists the axis advance, notifies other contexts,
// and either confirms the change with the server or queues it. A change
// that cannot be confirmed sets the offline-updated flag so a later, less
// advanced server read cannot silently revert it.
func (e *Engine) applyStatusChange(ctx context.Context, o model.Order, opType model.OperationType, endpoint string, body map[string]string) (model.Order, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return model.Order{}, fmt.Errorf("apply status change: marshal: %w", err)
	}
	if body == nil {
		payload = nil
	}

	confirmed := false
	if e.Online() && !o.IsOffline() {
		if _, err := e.client.Do(ctx, "PATCH", endpoint, payload); err == nil {
			confirmed = true
		}
	}

	o.Synced = confirmed
	if !confirmed {
		o.OfflineStatusUpdated = true
	}

	saved, err := e.store.PutOrder(ctx, o)
	if err != nil {
		return model.Order{}, fmt.Errorf("apply status change: %w", err)
	}
	e.publish(ctx, model.MsgOrderUpdated, orderRef{ID: saved.ID, OrderNumber: saved.OrderNumber})

	if !confirmed {
		// The target id rides on the entry whether temporary or
		// server-assigned: replay needs it to clear the unsynced flag on
		// confirmation and to block same-order successors on failure.
		_, err = e.queue.Enqueue(ctx, model.PendingOperation{
			Type:      opType,
			Endpoint:  endpoint,
			Method:    "PATCH",
			Payload:   payload,
			OfflineID: saved.ID,
		})
		if err != nil {
			return model.Order{}, fmt.Errorf("apply status change: %w", err)
		}
	}
	return saved, nil
}

// ListOrders lists local orders through the store's indexed filter.
func (e *Engine) ListOrders(ctx context.Context, f store.OrderFilter) ([]model.Order, error) {
	return e.store.ListOrders(ctx, f)
}

// MergePreservedOfflineStatus reconciles a fetched batch for display:
// locally more-advanced statuses overwrite the fetched copies in memory
// without touching the store.
func (e *Engine) MergePreservedOfflineStatus(ctx context.Context, serverOrders []model.Order) []model.Order {
	return reconcile.PreserveOfflineStatus(ctx, e.store, serverOrders)
}

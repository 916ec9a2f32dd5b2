package model

import (
	"encoding/json"
	"time"
)

// OperationType discriminates the intent of a deferred server mutation.
type OperationType string

const (
	OpCreateOrder          OperationType = "create-order"
	OpUpdateOrderStatus    OperationType = "update-order-status"
	OpUpdateDeliveryStatus OperationType = "update-delivery-status"
	OpUpdatePaymentStatus  OperationType = "update-payment-status"
	OpMarkAsPaid           OperationType = "mark-as-paid"
	OpCancelOrder          OperationType = "cancel-order"
)

// OperationStatus is the queue entry's lifecycle state.
type OperationStatus string

const (
	OpPending OperationStatus = "pending"
	OpFailed  OperationStatus = "failed"
)

// MaxRetries bounds automatic replay attempts. After the bound the entry
// stays failed for operator inspection.
const MaxRetries = 3

// PendingOperation records a server-bound mutation made while disconnected
// (or while a direct call failed), to be replayed in submission order.
type PendingOperation struct {
	ID       int64           `json:"id"`
	Type     OperationType   `json:"type"`
	Endpoint string          `json:"endpoint"`
	Method   string          `json:"method"`
	Payload  json.RawMessage `json:"payload,omitempty"`

	// OfflineID identifies the order this operation targets, temporary or
	// server-assigned. Temporary ids are rewritten to the server id the
	// moment the order is confirmed synced.
	OfflineID string `json:"offlineId,omitempty"`

	Status      OperationStatus `json:"status"`
	RetryCount  int             `json:"retryCount"`
	LastAttempt time.Time       `json:"lastAttempt,omitempty"`
	Error       string          `json:"error,omitempty"`

	// Fingerprint is the content hash of (type, endpoint, payload),
	// used to deduplicate identical pending enqueues.
	Fingerprint string `json:"-"`

	CreatedAt time.Time `json:"createdAt"`
}

package model

import (
	"encoding/json"
	"time"
)

// MessageType names a cross-tab change notification.
type MessageType string

const (
	MsgOrderCreated      MessageType = "order-created"
	MsgOrderUpdated      MessageType = "order-updated"
	MsgOrderSynced       MessageType = "order-synced"
	MsgCatalogUpdated    MessageType = "catalog-updated"
	MsgTableAvailability MessageType = "table-availability-updated"
	MsgSyncStarted       MessageType = "sync-started"
	MsgSyncCompleted     MessageType = "sync-completed"
)

// BroadcastMessage is the ephemeral envelope published between contexts
// sharing one local store. Never persisted. OriginID identifies the
// publishing context so its own handlers are suppressed on delivery.
type BroadcastMessage struct {
	Type      MessageType     `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	OriginID  string          `json:"originId"`
	Timestamp time.Time       `json:"timestamp"`
}

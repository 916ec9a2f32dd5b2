package model

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Order is the central entity. An order exists in one of two identity
// regimes: server-assigned ID (canonical key) or locally minted offline ID
// of the form OFFLINE-<millis>-<random>. OfflineID is retained after the
// server assigns an ID so queued operations can be rewritten.
type Order struct {
	ID          string    `json:"id"`
	OfflineID   string    `json:"offlineId,omitempty"`
	OrderNumber string    `json:"orderNumber"`
	OrderType   OrderType `json:"orderType"`

	TableNumber   int    `json:"tableNumber,omitempty"`
	CustomerName  string `json:"customerName,omitempty"`
	CustomerPhone string `json:"customerPhone,omitempty"`
	Address       string `json:"address,omitempty"`

	Items       []OrderItem `json:"items,omitempty"`
	TotalAmount int64       `json:"totalAmount"` // minor currency units

	OrderStatus    OrderStatus    `json:"orderStatus"`
	PaymentStatus  PaymentStatus  `json:"paymentStatus"`
	DeliveryStatus DeliveryStatus `json:"deliveryStatus,omitempty"`

	// Synced is false while the record exists only locally or carries
	// local edits the server has not acknowledged.
	Synced bool `json:"synced"`

	// OfflineStatusUpdated marks that a status axis was advanced while
	// offline. The merge must not revert such an axis to a less advanced
	// server value.
	OfflineStatusUpdated bool `json:"offlineStatusUpdated,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// OrderItem is a line item on an order.
type OrderItem struct {
	MenuItemID string `json:"menuItemId,omitempty"`
	Name       string `json:"name"`
	Quantity   int    `json:"quantity"`
	UnitPrice  int64  `json:"unitPrice"`
	Notes      string `json:"notes,omitempty"`
}

// IsOffline reports whether the order is keyed by a locally minted ID.
func (o *Order) IsOffline() bool { return IsOfflineID(o.ID) }

const offlineIDPrefix = "OFFLINE-"

var offlineIDPattern = regexp.MustCompile(`^OFFLINE-\d+-[a-z0-9]+$`)

// NewOfflineID mints a temporary order identifier: OFFLINE-<millis>-<rand>.
// The random component is the first 8 hex characters of a UUID, which keeps
// IDs collision-safe across tabs minting in the same millisecond.
func NewOfflineID(now time.Time) string {
	r := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%s%d-%s", offlineIDPrefix, now.UnixMilli(), r)
}

// IsOfflineID reports whether id matches the temporary identifier form.
func IsOfflineID(id string) bool { return offlineIDPattern.MatchString(id) }

// OfflineIDSuffix returns the numeric timestamp component of a temporary
// identifier, or 0 if id is not an offline ID. Queue rewriting matches
// references against both the full string and this parsed form, since some
// payloads carry only the numeric part.
func OfflineIDSuffix(id string) int64 {
	if !strings.HasPrefix(id, offlineIDPrefix) {
		return 0
	}
	rest := strings.TrimPrefix(id, offlineIDPrefix)
	dash := strings.IndexByte(rest, '-')
	if dash < 0 {
		return 0
	}
	n, err := strconv.ParseInt(rest[:dash], 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// UsableKey reports whether k can serve as a primary key.
// Empty strings and the string forms of zero/null are rejected.
func UsableKey(k string) bool {
	switch k {
	case "", "0", "null", "undefined":
		return false
	}
	return true
}

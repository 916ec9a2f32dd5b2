package model

// OrderType discriminates how an order is fulfilled.
type OrderType string

const (
	OrderTypeDineIn   OrderType = "dine_in"
	OrderTypeTakeout  OrderType = "takeout"
	OrderTypeDelivery OrderType = "delivery"
)

// OrderStatus is the kitchen-facing lifecycle axis.
type OrderStatus string

const (
	OrderPending        OrderStatus = "pending"
	OrderConfirmed      OrderStatus = "confirmed"
	OrderPreparing      OrderStatus = "preparing"
	OrderReady          OrderStatus = "ready"
	OrderOutForDelivery OrderStatus = "out_for_delivery"
	OrderDelivered      OrderStatus = "delivered"
	OrderCompleted      OrderStatus = "completed"
	OrderCancelled      OrderStatus = "cancelled"
)

// DeliveryStatus is the courier-facing lifecycle axis.
type DeliveryStatus string

const (
	DeliveryPending        DeliveryStatus = "pending"
	DeliveryPreparing      DeliveryStatus = "preparing"
	DeliveryReady          DeliveryStatus = "ready"
	DeliveryOutForDelivery DeliveryStatus = "out_for_delivery"
	DeliveryDelivered      DeliveryStatus = "delivered"
)

// PaymentStatus is the settlement axis.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
)

// orderRanks defines the total order for OrderStatus.
// Cancelled is intentionally absent: it sits outside the ladder and never
// wins a hierarchy comparison (an explicit cancel is applied directly, not
// merged).
var orderRanks = map[OrderStatus]int{
	OrderPending:        0,
	OrderConfirmed:      1,
	OrderPreparing:      2,
	OrderReady:          3,
	OrderOutForDelivery: 4,
	OrderDelivered:      5,
	OrderCompleted:      6,
}

var deliveryRanks = map[DeliveryStatus]int{
	DeliveryPending:        0,
	DeliveryPreparing:      1,
	DeliveryReady:          2,
	DeliveryOutForDelivery: 3,
	DeliveryDelivered:      4,
}

var paymentRanks = map[PaymentStatus]int{
	PaymentPending:   0,
	PaymentCompleted: 1,
}

// Rank returns the status's position in its hierarchy.
// Unknown values (including empty and cancelled) return -1, which is below
// every known position: an unrecognized server value never beats a local one.
func (s OrderStatus) Rank() int {
	if r, ok := orderRanks[s]; ok {
		return r
	}
	return -1
}

// Rank returns the status's position in the delivery hierarchy, or -1.
func (s DeliveryStatus) Rank() int {
	if r, ok := deliveryRanks[s]; ok {
		return r
	}
	return -1
}

// Rank returns 0 for pending, 1 for completed, -1 otherwise.
func (s PaymentStatus) Rank() int {
	if r, ok := paymentRanks[s]; ok {
		return r
	}
	return -1
}

// Initial reports whether the value is the hierarchy's initial value,
// which the merge treats as "effectively no server value".
func (s OrderStatus) Initial() bool    { return s == "" || s == OrderPending }
func (s DeliveryStatus) Initial() bool { return s == "" || s == DeliveryPending }
func (s PaymentStatus) Initial() bool  { return s == "" || s == PaymentPending }

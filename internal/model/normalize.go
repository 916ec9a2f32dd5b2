package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// Boundary normalization: server responses and legacy client payloads mix
// snake_case and camelCase spellings of the same fields. Records are folded
// into the canonical Order exactly once, here, when they cross the external
// interface. Nothing past this boundary branches on naming convention.

// field returns the first present spelling of a field.
func field(raw map[string]any, names ...string) (any, bool) {
	for _, n := range names {
		if v, ok := raw[n]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func stringField(raw map[string]any, names ...string) string {
	v, ok := field(raw, names...)
	if !ok {
		return ""
	}
	switch s := v.(type) {
	case string:
		return s
	case json.Number:
		return s.String()
	case float64:
		return fmt.Sprintf("%.0f", s)
	case int64:
		return fmt.Sprintf("%d", s)
	}
	return ""
}

func intField(raw map[string]any, names ...string) int64 {
	v, ok := field(raw, names...)
	if !ok {
		return 0
	}
	switch n := v.(type) {
	case json.Number:
		i, _ := n.Int64()
		return i
	case float64:
		return int64(n)
	case int64:
		return n
	case int:
		return int64(n)
	}
	return 0
}

func boolField(raw map[string]any, names ...string) bool {
	v, ok := field(raw, names...)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

func timeField(raw map[string]any, names ...string) time.Time {
	s := stringField(raw, names...)
	if s == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	return time.Time{}
}

// NormalizeOrder folds a loosely-shaped decoded JSON object into the
// canonical Order. Both naming conventions are accepted for every field.
func NormalizeOrder(raw map[string]any) Order {
	o := Order{
		ID:            stringField(raw, "id"),
		OfflineID:     stringField(raw, "offlineId", "offline_id"),
		OrderNumber:   stringField(raw, "orderNumber", "order_number"),
		OrderType:     OrderType(stringField(raw, "orderType", "order_type")),
		TableNumber:   int(intField(raw, "tableNumber", "table_number")),
		CustomerName:  stringField(raw, "customerName", "customer_name"),
		CustomerPhone: stringField(raw, "customerPhone", "customer_phone", "phone"),
		Address:       stringField(raw, "address", "deliveryAddress", "delivery_address"),
		TotalAmount:   intField(raw, "totalAmount", "total_amount"),

		OrderStatus:    OrderStatus(stringField(raw, "orderStatus", "order_status", "status")),
		PaymentStatus:  PaymentStatus(stringField(raw, "paymentStatus", "payment_status")),
		DeliveryStatus: DeliveryStatus(stringField(raw, "deliveryStatus", "delivery_status")),

		Synced:               boolField(raw, "synced"),
		OfflineStatusUpdated: boolField(raw, "offlineStatusUpdated", "offline_status_updated"),

		CreatedAt: timeField(raw, "createdAt", "created_at"),
		UpdatedAt: timeField(raw, "updatedAt", "updated_at"),
	}

	if items, ok := field(raw, "items", "orderItems", "order_items"); ok {
		if list, ok := items.([]any); ok {
			for _, it := range list {
				m, ok := it.(map[string]any)
				if !ok {
					continue
				}
				o.Items = append(o.Items, OrderItem{
					MenuItemID: stringField(m, "menuItemId", "menu_item_id"),
					Name:       stringField(m, "name"),
					Quantity:   int(intField(m, "quantity", "qty")),
					UnitPrice:  intField(m, "unitPrice", "unit_price", "price"),
					Notes:      stringField(m, "notes", "note"),
				})
			}
		}
	}

	return o
}

// DecodeOrder decodes raw JSON and normalizes it in one step.
func DecodeOrder(raw []byte) (Order, error) {
	m, err := decodeObject(raw)
	if err != nil {
		return Order{}, fmt.Errorf("decode order: %w", err)
	}
	return NormalizeOrder(m), nil
}

// DecodeOrders accepts either a bare JSON array or an envelope with an
// "orders"/"data" key, as the backend uses both.
func DecodeOrders(raw []byte) ([]Order, error) {
	var arr []map[string]any
	if err := json.Unmarshal(raw, &arr); err != nil {
		env, envErr := decodeObject(raw)
		if envErr != nil {
			return nil, fmt.Errorf("decode orders: %w", err)
		}
		list, ok := field(env, "orders", "data")
		if !ok {
			return nil, fmt.Errorf("decode orders: no order list in envelope")
		}
		items, ok := list.([]any)
		if !ok {
			return nil, fmt.Errorf("decode orders: envelope list is %T", list)
		}
		for _, it := range items {
			if m, ok := it.(map[string]any); ok {
				arr = append(arr, m)
			}
		}
	}
	orders := make([]Order, 0, len(arr))
	for _, m := range arr {
		orders = append(orders, NormalizeOrder(m))
	}
	return orders, nil
}

// NormalizeMenuItem folds a decoded catalog entry into the canonical form.
func NormalizeMenuItem(raw map[string]any) MenuItem {
	return MenuItem{
		ID:         stringField(raw, "id"),
		CategoryID: stringField(raw, "categoryId", "category_id"),
		Name:       stringField(raw, "name"),
		Price:      intField(raw, "price"),
		Available:  boolField(raw, "available"),
	}
}

// DecodeMenuItem decodes raw JSON and normalizes it in one step.
func DecodeMenuItem(raw []byte) (MenuItem, error) {
	m, err := decodeObject(raw)
	if err != nil {
		return MenuItem{}, fmt.Errorf("decode menu item: %w", err)
	}
	return NormalizeMenuItem(m), nil
}

// DecodeCategory decodes raw JSON and normalizes it in one step.
func DecodeCategory(raw []byte) (Category, error) {
	m, err := decodeObject(raw)
	if err != nil {
		return Category{}, fmt.Errorf("decode category: %w", err)
	}
	return Category{
		ID:   stringField(m, "id"),
		Name: stringField(m, "name"),
	}, nil
}

// DecodeCustomer decodes raw JSON and normalizes it in one step.
func DecodeCustomer(raw []byte) (Customer, error) {
	m, err := decodeObject(raw)
	if err != nil {
		return Customer{}, fmt.Errorf("decode customer: %w", err)
	}
	return Customer{
		ID:      stringField(m, "id"),
		Name:    stringField(m, "name"),
		Phone:   stringField(m, "phone"),
		Address: stringField(m, "address"),
	}, nil
}

// DecodeTable decodes raw JSON and normalizes it in one step.
func DecodeTable(raw []byte) (Table, error) {
	m, err := decodeObject(raw)
	if err != nil {
		return Table{}, fmt.Errorf("decode table: %w", err)
	}
	return Table{
		TableNumber:    int(intField(m, "tableNumber", "table_number")),
		Capacity:       int(intField(m, "capacity")),
		Occupied:       boolField(m, "occupied"),
		CurrentOrderID: stringField(m, "currentOrderId", "current_order_id"),
	}, nil
}

func decodeObject(raw []byte) (map[string]any, error) {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}

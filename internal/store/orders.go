package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/roach88/tillsync/internal/model"
)

// PutOrder upserts an order by primary key.
//
// An order submitted without a usable key does not fail: a temporary
// OFFLINE id is minted, Synced is forced false, and per-type initial
// statuses are applied (delivery orders start with delivery_status
// pending). The stored order is returned so callers see the minted ID.
func (s *Store) PutOrder(ctx context.Context, o model.Order) (model.Order, error) {
	now := time.Now().UTC()

	if !model.UsableKey(o.ID) {
		o.ID = model.NewOfflineID(now)
		o.OfflineID = o.ID
		o.Synced = false
	}
	if o.OrderStatus == "" {
		o.OrderStatus = model.OrderPending
	}
	if o.PaymentStatus == "" {
		o.PaymentStatus = model.PaymentPending
	}
	if o.OrderType == model.OrderTypeDelivery && o.DeliveryStatus == "" {
		o.DeliveryStatus = model.DeliveryPending
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = now
	}
	o.UpdatedAt = now

	items, err := json.Marshal(o.Items)
	if err != nil {
		return model.Order{}, fmt.Errorf("put order: marshal items: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO orders
		(id, offline_id, order_number, order_type, table_number, customer_name,
		 customer_phone, address, items, total_amount, order_status,
		 payment_status, delivery_status, synced, offline_status_updated,
		 created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			offline_id = excluded.offline_id,
			order_number = excluded.order_number,
			order_type = excluded.order_type,
			table_number = excluded.table_number,
			customer_name = excluded.customer_name,
			customer_phone = excluded.customer_phone,
			address = excluded.address,
			items = excluded.items,
			total_amount = excluded.total_amount,
			order_status = excluded.order_status,
			payment_status = excluded.payment_status,
			delivery_status = excluded.delivery_status,
			synced = excluded.synced,
			offline_status_updated = excluded.offline_status_updated,
			updated_at = excluded.updated_at
	`,
		o.ID,
		o.OfflineID,
		o.OrderNumber,
		string(o.OrderType),
		o.TableNumber,
		o.CustomerName,
		o.CustomerPhone,
		o.Address,
		string(items),
		o.TotalAmount,
		string(o.OrderStatus),
		string(o.PaymentStatus),
		string(o.DeliveryStatus),
		boolToInt(o.Synced),
		boolToInt(o.OfflineStatusUpdated),
		o.CreatedAt.Format(time.RFC3339Nano),
		o.UpdatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return model.Order{}, fmt.Errorf("put order: %w", err)
	}

	return o, nil
}

const orderColumns = `id, offline_id, order_number, order_type, table_number,
	customer_name, customer_phone, address, items, total_amount,
	order_status, payment_status, delivery_status, synced,
	offline_status_updated, created_at, updated_at`

// GetOrder returns the order with the given primary key.
// Returns ErrNotFound if no such order exists.
func (s *Store) GetOrder(ctx context.Context, id string) (model.Order, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = ?`, id)
	o, err := scanOrder(row)
	if err == sql.ErrNoRows {
		return model.Order{}, ErrNotFound
	}
	if err != nil {
		return model.Order{}, fmt.Errorf("get order %s: %w", id, err)
	}
	return o, nil
}

// GetOrderByNumber looks an order up by its human-facing order number,
// the correlation key between local-origin and server-origin copies.
// Mid-swap both the server-keyed and temp-keyed copies exist; the
// acknowledged one wins the lookup.
func (s *Store) GetOrderByNumber(ctx context.Context, orderNumber string) (model.Order, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE order_number = ?
		 ORDER BY synced DESC, updated_at DESC, id DESC LIMIT 1`, orderNumber)
	o, err := scanOrder(row)
	if err == sql.ErrNoRows {
		return model.Order{}, ErrNotFound
	}
	if err != nil {
		return model.Order{}, fmt.Errorf("get order by number %s: %w", orderNumber, err)
	}
	return o, nil
}

// OrderFilter narrows ListOrders by indexed fields. Zero values mean
// "no constraint"; Synced uses a pointer so false is expressible.
type OrderFilter struct {
	Type          model.OrderType
	OrderStatus   model.OrderStatus
	PaymentStatus model.PaymentStatus
	Synced        *bool
}

// ListOrders returns orders matching the filter, newest first.
func (s *Store) ListOrders(ctx context.Context, f OrderFilter) ([]model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE 1=1`
	var args []any
	if f.Type != "" {
		query += ` AND order_type = ?`
		args = append(args, string(f.Type))
	}
	if f.OrderStatus != "" {
		query += ` AND order_status = ?`
		args = append(args, string(f.OrderStatus))
	}
	if f.PaymentStatus != "" {
		query += ` AND payment_status = ?`
		args = append(args, string(f.PaymentStatus))
	}
	if f.Synced != nil {
		query += ` AND synced = ?`
		args = append(args, boolToInt(*f.Synced))
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	return collectOrders(rows)
}

// UnsyncedOrders returns all orders still awaiting server acknowledgement,
// oldest first so they replay in creation order.
func (s *Store) UnsyncedOrders(ctx context.Context) ([]model.Order, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE synced = 0
		 ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("unsynced orders: %w", err)
	}
	defer rows.Close()

	return collectOrders(rows)
}

// DeleteOrder removes an order by primary key. Deleting a missing order
// is a no-op, which keeps the synced-swap saga idempotent.
func (s *Store) DeleteOrder(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM orders WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete order %s: %w", id, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(r rowScanner) (model.Order, error) {
	var (
		o                         model.Order
		orderType                 string
		orderStatus               string
		paymentStatus             string
		deliveryStatus            string
		items                     string
		synced, offlineStatusUpd  int
		createdAt, updatedAt      string
	)
	err := r.Scan(
		&o.ID, &o.OfflineID, &o.OrderNumber, &orderType, &o.TableNumber,
		&o.CustomerName, &o.CustomerPhone, &o.Address, &items, &o.TotalAmount,
		&orderStatus, &paymentStatus, &deliveryStatus, &synced,
		&offlineStatusUpd, &createdAt, &updatedAt,
	)
	if err != nil {
		return model.Order{}, err
	}

	o.OrderType = model.OrderType(orderType)
	o.OrderStatus = model.OrderStatus(orderStatus)
	o.PaymentStatus = model.PaymentStatus(paymentStatus)
	o.DeliveryStatus = model.DeliveryStatus(deliveryStatus)
	o.Synced = synced != 0
	o.OfflineStatusUpdated = offlineStatusUpd != 0

	if items != "" && items != "[]" {
		if err := json.Unmarshal([]byte(items), &o.Items); err != nil {
			return model.Order{}, fmt.Errorf("unmarshal items: %w", err)
		}
	}
	o.CreatedAt = parseTime(createdAt)
	o.UpdatedAt = parseTime(updatedAt)
	return o, nil
}

func collectOrders(rows *sql.Rows) ([]model.Order, error) {
	orders := []model.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}
	return orders, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

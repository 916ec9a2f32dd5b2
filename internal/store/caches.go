package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/roach88/tillsync/internal/model"
)

// Cache kinds are overwritten wholesale on refresh: server always wins,
// no merge logic. Each Replace* call is one transaction that clears the
// kind, inserts the snapshot, and bumps the kind's sync metadata.

// ReplaceMenuItems swaps the menu cache for the given snapshot.
// Items without a usable primary key are rejected with INVALID_KEY.
func (s *Store) ReplaceMenuItems(ctx context.Context, items []model.MenuItem, syncedAt time.Time) error {
	for _, it := range items {
		if !model.UsableKey(it.ID) {
			return invalidKey("menu-items", fmt.Sprintf("menu item %q has no usable id", it.Name))
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("replace menu items: begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM menu_items`); err != nil {
		return fmt.Errorf("replace menu items: clear: %w", err)
	}
	for _, it := range items {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO menu_items (id, category_id, name, price, available)
			VALUES (?, ?, ?, ?, ?)
		`, it.ID, it.CategoryID, it.Name, it.Price, boolToInt(it.Available))
		if err != nil {
			return fmt.Errorf("replace menu items: insert %s: %w", it.ID, err)
		}
	}
	if err := setLastSyncTx(ctx, tx, model.CacheMenuItems, syncedAt); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("replace menu items: commit: %w", err)
	}
	return nil
}

// MenuItems returns the cached menu, optionally narrowed to one category.
func (s *Store) MenuItems(ctx context.Context, categoryID string) ([]model.MenuItem, error) {
	query := `SELECT id, category_id, name, price, available FROM menu_items`
	var args []any
	if categoryID != "" {
		query += ` WHERE category_id = ?`
		args = append(args, categoryID)
	}
	query += ` ORDER BY name ASC, id ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("menu items: %w", err)
	}
	defer rows.Close()

	return collectMenuItems(rows)
}

// AvailableMenuItems returns only items currently marked available.
func (s *Store) AvailableMenuItems(ctx context.Context) ([]model.MenuItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, category_id, name, price, available FROM menu_items
		WHERE available = 1 ORDER BY name ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("available menu items: %w", err)
	}
	defer rows.Close()

	return collectMenuItems(rows)
}

func collectMenuItems(rows *sql.Rows) ([]model.MenuItem, error) {
	items := []model.MenuItem{}
	for rows.Next() {
		var it model.MenuItem
		var available int
		if err := rows.Scan(&it.ID, &it.CategoryID, &it.Name, &it.Price, &available); err != nil {
			return nil, err
		}
		it.Available = available != 0
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate menu items: %w", err)
	}
	return items, nil
}

// ReplaceCategories swaps the category cache for the given snapshot.
func (s *Store) ReplaceCategories(ctx context.Context, cats []model.Category, syncedAt time.Time) error {
	for _, c := range cats {
		if !model.UsableKey(c.ID) {
			return invalidKey("categories", fmt.Sprintf("category %q has no usable id", c.Name))
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("replace categories: begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM categories`); err != nil {
		return fmt.Errorf("replace categories: clear: %w", err)
	}
	for _, c := range cats {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO categories (id, name) VALUES (?, ?)`, c.ID, c.Name); err != nil {
			return fmt.Errorf("replace categories: insert %s: %w", c.ID, err)
		}
	}
	if err := setLastSyncTx(ctx, tx, model.CacheCategories, syncedAt); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("replace categories: commit: %w", err)
	}
	return nil
}

// Categories returns the cached category list.
func (s *Store) Categories(ctx context.Context) ([]model.Category, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM categories ORDER BY name ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("categories: %w", err)
	}
	defer rows.Close()

	cats := []model.Category{}
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, err
		}
		cats = append(cats, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return cats, nil
}

// ReplaceCustomers swaps the customer cache for the given snapshot.
func (s *Store) ReplaceCustomers(ctx context.Context, customers []model.Customer, syncedAt time.Time) error {
	for _, c := range customers {
		if !model.UsableKey(c.ID) {
			return invalidKey("customers", fmt.Sprintf("customer %q has no usable id", c.Phone))
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("replace customers: begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM customers`); err != nil {
		return fmt.Errorf("replace customers: clear: %w", err)
	}
	for _, c := range customers {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO customers (id, name, phone, address) VALUES (?, ?, ?, ?)
		`, c.ID, c.Name, c.Phone, c.Address)
		if err != nil {
			return fmt.Errorf("replace customers: insert %s: %w", c.ID, err)
		}
	}
	if err := setLastSyncTx(ctx, tx, model.CacheCustomers, syncedAt); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("replace customers: commit: %w", err)
	}
	return nil
}

// CustomerByPhone looks a customer up by the unique phone index.
func (s *Store) CustomerByPhone(ctx context.Context, phone string) (model.Customer, error) {
	var c model.Customer
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, phone, address FROM customers WHERE phone = ?`, phone).
		Scan(&c.ID, &c.Name, &c.Phone, &c.Address)
	if err == sql.ErrNoRows {
		return model.Customer{}, ErrNotFound
	}
	if err != nil {
		return model.Customer{}, fmt.Errorf("customer by phone: %w", err)
	}
	return c, nil
}

// PutTable upserts a single table-occupancy row.
// Table number 0 is not a usable key.
func (s *Store) PutTable(ctx context.Context, t model.Table) error {
	if t.TableNumber <= 0 {
		return invalidKey("tables", fmt.Sprintf("table number %d is not usable", t.TableNumber))
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tables (table_number, capacity, occupied, current_order_id)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(table_number) DO UPDATE SET
			capacity = excluded.capacity,
			occupied = excluded.occupied,
			current_order_id = excluded.current_order_id
	`, t.TableNumber, t.Capacity, boolToInt(t.Occupied), t.CurrentOrderID)
	if err != nil {
		return fmt.Errorf("put table %d: %w", t.TableNumber, err)
	}
	return nil
}

// Tables returns cached tables, optionally only the occupied ones.
func (s *Store) Tables(ctx context.Context, occupiedOnly bool) ([]model.Table, error) {
	query := `SELECT table_number, capacity, occupied, current_order_id FROM tables`
	if occupiedOnly {
		query += ` WHERE occupied = 1`
	}
	query += ` ORDER BY table_number ASC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("tables: %w", err)
	}
	defer rows.Close()

	tables := []model.Table{}
	for rows.Next() {
		var t model.Table
		var occupied int
		if err := rows.Scan(&t.TableNumber, &t.Capacity, &occupied, &t.CurrentOrderID); err != nil {
			return nil, err
		}
		t.Occupied = occupied != 0
		tables = append(tables, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tables: %w", err)
	}
	return tables, nil
}

// SetLastSync records when a cache kind was last refreshed.
func (s *Store) SetLastSync(ctx context.Context, kind model.CacheKind, t time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sync_metadata (kind, last_sync) VALUES (?, ?)
		ON CONFLICT(kind) DO UPDATE SET last_sync = excluded.last_sync
	`, string(kind), t.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("set last sync %s: %w", kind, err)
	}
	return nil
}

// LastSync returns when a cache kind was last refreshed, or the zero time
// if it never was.
func (s *Store) LastSync(ctx context.Context, kind model.CacheKind) (time.Time, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT last_sync FROM sync_metadata WHERE kind = ?`, string(kind)).Scan(&raw)
	if err == sql.ErrNoRows {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("last sync %s: %w", kind, err)
	}
	return parseTime(raw), nil
}

func setLastSyncTx(ctx context.Context, tx *sql.Tx, kind model.CacheKind, t time.Time) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO sync_metadata (kind, last_sync) VALUES (?, ?)
		ON CONFLICT(kind) DO UPDATE SET last_sync = excluded.last_sync
	`, string(kind), t.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("set last sync %s: %w", kind, err)
	}
	return nil
}

package engine

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/roach88/tillsync/internal/model"
	"github.com/roach88/tillsync/internal/schema"
)

// Cache refreshes pull wholesale server snapshots; server wins, no merge.
// Individual records failing schema validation are skipped (read-path
// degradation), the rest of the snapshot still lands.

// RefreshCatalog replaces the menu and category caches from the backend
// and notifies other contexts.
func (e *Engine) RefreshCatalog(ctx context.Context) error {
	if e.client == nil {
		return fmt.Errorf("refresh catalog: no backend client configured")
	}

	rawItems, err := e.client.Do(ctx, "GET", "/menu/items", nil)
	if err != nil {
		return fmt.Errorf("refresh catalog: %w", err)
	}
	items, err := decodeValidated(rawItems, schema.KindMenuItem, model.DecodeMenuItem)
	if err != nil {
		return fmt.Errorf("refresh catalog: %w", err)
	}

	rawCats, err := e.client.Do(ctx, "GET", "/menu/categories", nil)
	if err != nil {
		return fmt.Errorf("refresh catalog: %w", err)
	}
	cats, err := decodeValidated(rawCats, schema.KindCategory, model.DecodeCategory)
	if err != nil {
		return fmt.Errorf("refresh catalog: %w", err)
	}

	now := e.now()
	if err := e.store.ReplaceMenuItems(ctx, items, now); err != nil {
		return fmt.Errorf("refresh catalog: %w", err)
	}
	if err := e.store.ReplaceCategories(ctx, cats, now); err != nil {
		return fmt.Errorf("refresh catalog: %w", err)
	}

	e.publish(ctx, model.MsgCatalogUpdated, nil)
	return nil
}

// RefreshCustomers replaces the customer cache from the backend.
func (e *Engine) RefreshCustomers(ctx context.Context) error {
	if e.client == nil {
		return fmt.Errorf("refresh customers: no backend client configured")
	}

	raw, err := e.client.Do(ctx, "GET", "/customers", nil)
	if err != nil {
		return fmt.Errorf("refresh customers: %w", err)
	}
	customers, err := decodeValidated(raw, schema.KindCustomer, model.DecodeCustomer)
	if err != nil {
		return fmt.Errorf("refresh customers: %w", err)
	}

	if err := e.store.ReplaceCustomers(ctx, customers, e.now()); err != nil {
		return fmt.Errorf("refresh customers: %w", err)
	}
	return nil
}

// RefreshTables replaces table-occupancy rows from the backend.
func (e *Engine) RefreshTables(ctx context.Context) error {
	if e.client == nil {
		return fmt.Errorf("refresh tables: no backend client configured")
	}

	raw, err := e.client.Do(ctx, "GET", "/tables", nil)
	if err != nil {
		return fmt.Errorf("refresh tables: %w", err)
	}
	tables, err := decodeValidated(raw, schema.KindTable, model.DecodeTable)
	if err != nil {
		return fmt.Errorf("refresh tables: %w", err)
	}

	for _, t := range tables {
		if err := e.store.PutTable(ctx, t); err != nil {
			return fmt.Errorf("refresh tables: %w", err)
		}
	}
	if err := e.store.SetLastSync(ctx, model.CacheTables, e.now()); err != nil {
		return fmt.Errorf("refresh tables: %w", err)
	}

	e.publish(ctx, model.MsgTableAvailability, nil)
	return nil
}

// FetchOrders pulls server orders (optionally one fulfillment type) and
// hands them back with offline statuses preserved. Used by list views; the
// local store is not mutated.
func (e *Engine) FetchOrders(ctx context.Context, orderType model.OrderType) ([]model.Order, error) {
	if e.client == nil {
		return nil, fmt.Errorf("fetch orders: no backend client configured")
	}

	endpoint := "/orders"
	if orderType != "" {
		endpoint += "?type=" + string(orderType)
	}
	raw, err := e.client.Do(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch orders: %w", err)
	}

	serverOrders, err := model.DecodeOrders(raw)
	if err != nil {
		return nil, fmt.Errorf("fetch orders: %w", err)
	}
	return e.MergePreservedOfflineStatus(ctx, serverOrders), nil
}

// decodeValidated decodes a JSON array, validating each element against
// the kind's schema and folding it through the boundary normalizer so
// either naming convention lands in the canonical record. Invalid elements
// are dropped, not fatal.
func decodeValidated[T any](raw []byte, kind schema.Kind, decode func([]byte) (T, error)) ([]T, error) {
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil, fmt.Errorf("decode %s list: %w", kind, err)
	}

	out := make([]T, 0, len(elems))
	for _, elem := range elems {
		if err := schema.Validate(kind, elem); err != nil {
			continue
		}
		v, err := decode(elem)
		if err != nil {
			continue
		}
		out = append(out, v)
	}
	return out, nil
}

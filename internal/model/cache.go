package model

import "time"

// Cache records are read-mostly snapshots of server state. They carry no
// merge logic: every refresh replaces the kind wholesale, server wins.

// MenuItem is a sellable catalog entry.
type MenuItem struct {
	ID         string `json:"id"`
	CategoryID string `json:"categoryId"`
	Name       string `json:"name"`
	Price      int64  `json:"price"`
	Available  bool   `json:"available"`
}

// Category groups menu items.
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Customer is a cached customer profile, unique by phone.
type Customer struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address,omitempty"`
}

// Table tracks dine-in occupancy, keyed by table number.
type Table struct {
	TableNumber    int    `json:"tableNumber"`
	Capacity       int    `json:"capacity,omitempty"`
	Occupied       bool   `json:"occupied"`
	CurrentOrderID string `json:"currentOrderId,omitempty"`
}

// UserSession is the single-row local session record.
type UserSession struct {
	UserID  string    `json:"userId"`
	Token   string    `json:"token"`
	Role    string    `json:"role,omitempty"`
	SavedAt time.Time `json:"savedAt"`
}

// CacheKind names a refreshable cache for sync metadata bookkeeping.
type CacheKind string

const (
	CacheMenuItems  CacheKind = "menu-items"
	CacheCategories CacheKind = "categories"
	CacheCustomers  CacheKind = "customers"
	CacheTables     CacheKind = "tables"
	CacheOrders     CacheKind = "orders"
)

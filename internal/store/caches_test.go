package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/roach88/tillsync/internal/model"
)

func TestReplaceMenuItems_SwapsWholesale(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	first := []model.MenuItem{
		{ID: "1", CategoryID: "c1", Name: "Pad Thai", Price: 1200, Available: true},
		{ID: "2", CategoryID: "c1", Name: "Satay", Price: 650, Available: false},
	}
	if err := s.ReplaceMenuItems(ctx, first, now); err != nil {
		t.Fatalf("first replace failed: %v", err)
	}

	second := []model.MenuItem{
		{ID: "3", CategoryID: "c2", Name: "Laksa", Price: 1400, Available: true},
	}
	if err := s.ReplaceMenuItems(ctx, second, now.Add(time.Minute)); err != nil {
		t.Fatalf("second replace failed: %v", err)
	}

	items, err := s.MenuItems(ctx, "")
	if err != nil {
		t.Fatalf("MenuItems() failed: %v", err)
	}
	if len(items) != 1 || items[0].ID != "3" {
		t.Errorf("items after replace = %+v, want only Laksa", items)
	}
}

func TestReplaceMenuItems_RejectsUnusableID(t *testing.T) {
	s := openTestStore(t)

	err := s.ReplaceMenuItems(context.Background(),
		[]model.MenuItem{{ID: "null", Name: "Ghost"}}, time.Now())
	if !IsInvalidKey(err) {
		t.Errorf("error = %v, want INVALID_KEY", err)
	}
}

func TestMenuItems_CategoryAndAvailability(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	items := []model.MenuItem{
		{ID: "1", CategoryID: "mains", Name: "Pad Thai", Available: true},
		{ID: "2", CategoryID: "mains", Name: "Laksa", Available: false},
		{ID: "3", CategoryID: "sides", Name: "Satay", Available: true},
	}
	if err := s.ReplaceMenuItems(ctx, items, time.Now()); err != nil {
		t.Fatalf("replace: %v", err)
	}

	mains, err := s.MenuItems(ctx, "mains")
	if err != nil {
		t.Fatalf("MenuItems(mains) failed: %v", err)
	}
	if len(mains) != 2 {
		t.Errorf("mains = %d items, want 2", len(mains))
	}

	available, err := s.AvailableMenuItems(ctx)
	if err != nil {
		t.Fatalf("AvailableMenuItems() failed: %v", err)
	}
	if len(available) != 2 {
		t.Errorf("available = %d items, want 2", len(available))
	}
	for _, it := range available {
		if !it.Available {
			t.Errorf("unavailable item %s returned", it.ID)
		}
	}
}

func TestReplaceCategories(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	cats := []model.Category{{ID: "c2", Name: "Sides"}, {ID: "c1", Name: "Mains"}}
	if err := s.ReplaceCategories(ctx, cats, time.Now()); err != nil {
		t.Fatalf("ReplaceCategories() failed: %v", err)
	}

	got, err := s.Categories(ctx)
	if err != nil {
		t.Fatalf("Categories() failed: %v", err)
	}
	if len(got) != 2 || got[0].Name != "Mains" {
		t.Errorf("categories = %+v, want name-sorted with Mains first", got)
	}
}

func TestCustomerByPhone(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	customers := []model.Customer{
		{ID: "c1", Name: "Asha", Phone: "5550001", Address: "12 Harbor Lane"},
	}
	if err := s.ReplaceCustomers(ctx, customers, time.Now()); err != nil {
		t.Fatalf("ReplaceCustomers() failed: %v", err)
	}

	got, err := s.CustomerByPhone(ctx, "5550001")
	if err != nil {
		t.Fatalf("CustomerByPhone() failed: %v", err)
	}
	if got.Name != "Asha" {
		t.Errorf("customer = %+v, want Asha", got)
	}

	if _, err := s.CustomerByPhone(ctx, "5559999"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing phone error = %v, want ErrNotFound", err)
	}
}

func TestPutTable(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.PutTable(ctx, model.Table{TableNumber: 4, Capacity: 6}); err != nil {
		t.Fatalf("PutTable() failed: %v", err)
	}
	if err := s.PutTable(ctx, model.Table{TableNumber: 4, Capacity: 6, Occupied: true, CurrentOrderID: "1"}); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	occupied, err := s.Tables(ctx, true)
	if err != nil {
		t.Fatalf("Tables() failed: %v", err)
	}
	if len(occupied) != 1 || occupied[0].CurrentOrderID != "1" {
		t.Errorf("occupied tables = %+v, want table 4 with order 1", occupied)
	}
}

func TestPutTable_RejectsZeroNumber(t *testing.T) {
	s := openTestStore(t)

	err := s.PutTable(context.Background(), model.Table{TableNumber: 0})
	if !IsInvalidKey(err) {
		t.Errorf("error = %v, want INVALID_KEY", err)
	}
}

func TestLastSync_RoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	got, err := s.LastSync(ctx, model.CacheMenuItems)
	if err != nil {
		t.Fatalf("LastSync() failed: %v", err)
	}
	if !got.IsZero() {
		t.Errorf("never-synced kind returned %v, want zero time", got)
	}

	at := time.Date(2026, 8, 29, 10, 30, 0, 0, time.UTC)
	if err := s.SetLastSync(ctx, model.CacheMenuItems, at); err != nil {
		t.Fatalf("SetLastSync() failed: %v", err)
	}

	got, err = s.LastSync(ctx, model.CacheMenuItems)
	if err != nil {
		t.Fatalf("LastSync() failed: %v", err)
	}
	if !got.Equal(at) {
		t.Errorf("last sync = %v, want %v", got, at)
	}
}

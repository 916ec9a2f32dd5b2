package store

import (
	"context"
	"errors"
	"testing"

	"github.com/roach88/tillsync/internal/model"
)

func TestSession_RoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.PutSession(ctx, model.UserSession{UserID: "u1", Token: "tok", Role: "cashier"}); err != nil {
		t.Fatalf("PutSession() failed: %v", err)
	}

	got, err := s.Session(ctx)
	if err != nil {
		t.Fatalf("Session() failed: %v", err)
	}
	if got.UserID != "u1" || got.Token != "tok" || got.Role != "cashier" {
		t.Errorf("session = %+v", got)
	}
	if got.SavedAt.IsZero() {
		t.Error("saved_at was not stamped")
	}
}

func TestSession_SingleRow(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.PutSession(ctx, model.UserSession{UserID: "u1", Token: "old"}); err != nil {
		t.Fatalf("first put: %v", err)
	}
	if err := s.PutSession(ctx, model.UserSession{UserID: "u2", Token: "new"}); err != nil {
		t.Fatalf("second put: %v", err)
	}

	got, err := s.Session(ctx)
	if err != nil {
		t.Fatalf("Session() failed: %v", err)
	}
	if got.UserID != "u2" {
		t.Errorf("session user = %s, want the replacement u2", got.UserID)
	}
}

func TestSession_Clear(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.PutSession(ctx, model.UserSession{UserID: "u1", Token: "tok"}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := s.ClearSession(ctx); err != nil {
		t.Fatalf("ClearSession() failed: %v", err)
	}
	if _, err := s.Session(ctx); !errors.Is(err, ErrNotFound) {
		t.Errorf("session after clear = %v, want ErrNotFound", err)
	}

	// Clearing again is a no-op.
	if err := s.ClearSession(ctx); err != nil {
		t.Errorf("second clear errored: %v", err)
	}
}

func TestPutSession_RequiresUserID(t *testing.T) {
	s := openTestStore(t)

	err := s.PutSession(context.Background(), model.UserSession{Token: "tok"})
	if !IsInvalidKey(err) {
		t.Errorf("error = %v, want INVALID_KEY", err)
	}
}

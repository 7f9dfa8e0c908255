package repo

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"
)

func TestIdempotency_SaveThenGet(t *testing.T) {
	r := NewIdempotency(openTestDB(t), time.Hour)
	ctx := context.Background()

	if _, err := r.Get(ctx, "user1", "challenges", "k1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound before save, got %v", err)
	}

	rec, err := r.Save(ctx, "user1", "challenges", "k1", "8", http.StatusCreated)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if rec.ID == "" || !rec.ExpiresAt.After(rec.CreatedAt) {
		t.Fatalf("unexpected record: %+v", rec)
	}

	got, err := r.Get(ctx, "user1", "challenges", "k1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ResourceID != "8" || got.Status != http.StatusCreated {
		t.Fatalf("unexpected replay: %+v", got)
	}

	// other users and scopes are independent
	if _, err := r.Get(ctx, "user2", "challenges", "k1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for another user, got %v", err)
	}
	if _, err := r.Save(ctx, "user1", "chat:user1__user2", "k1", "m1", http.StatusCreated); err != nil {
		t.Fatalf("same key in another scope should save: %v", err)
	}
}

func TestIdempotency_DuplicateLiveKey(t *testing.T) {
	r := NewIdempotency(openTestDB(t), time.Hour)
	ctx := context.Background()

	if _, err := r.Save(ctx, "user1", "s", "k", "a", 201); err != nil {
		t.Fatalf("first save: %v", err)
	}
	if _, err := r.Save(ctx, "user1", "s", "k", "b", 201); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestIdempotency_ExpiryAndPurge(t *testing.T) {
	r := NewIdempotency(openTestDB(t), time.Minute)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return base }

	if _, err := r.Save(ctx, "user1", "s", "k", "a", 201); err != nil {
		t.Fatalf("save: %v", err)
	}

	r.now = func() time.Time { return base.Add(2 * time.Minute) }
	if _, err := r.Get(ctx, "user1", "s", "k"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expired record should not be returned, got %v", err)
	}
	// an expired key can be reused
	if _, err := r.Save(ctx, "user1", "s", "k", "b", 201); err != nil {
		t.Fatalf("save over expired key: %v", err)
	}

	r.now = func() time.Time { return base.Add(time.Hour) }
	n, err := r.Purge(ctx)
	if err != nil || n != 1 {
		t.Fatalf("Purge = %d, %v; want 1, nil", n, err)
	}
}

func TestIdempotency_BlankScopeOrKey(t *testing.T) {
	r := NewIdempotency(openTestDB(t), time.Hour)
	for _, tc := range [][2]string{{"  ", "k"}, {"s", ""}} {
		if rec, err := r.Get(context.Background(), "u", tc[0], tc[1]); rec != nil || !errors.Is(err, ErrNotFound) {
			t.Fatalf("Get(%q,%q) = %v, %v", tc[0], tc[1], rec, err)
		}
	}
}

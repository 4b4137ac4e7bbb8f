package idempotency

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestInMemoryStore_PutGet(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	if _, err := store.Get(ctx, StorageKey("/send-email/", "missing")); !errors.Is(err, ErrKeyNotFound) {
		t.Fatalf("Get() error = %v, want ErrKeyNotFound", err)
	}

	rec := &Record{
		Key:         "key-1",
		Method:      "POST",
		Route:       "/send-email/",
		Fingerprint: Fingerprint([]byte("body")),
		StatusCode:  200,
		ContentType: "application/json",
		Body:        `{"message":"Email sent successfully"}`,
	}
	if err := store.Put(ctx, rec); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if rec.CreatedAt.IsZero() {
		t.Error("Put() should stamp CreatedAt")
	}

	got, err := store.Get(ctx, StorageKey("/send-email/", "key-1"))
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Body != rec.Body || got.StatusCode != 200 || got.Fingerprint != rec.Fingerprint {
		t.Errorf("Get() = %+v, want %+v", got, rec)
	}

	// Returned records are copies.
	got.Body = "mutated"
	again, _ := store.Get(ctx, StorageKey("/send-email/", "key-1"))
	if again.Body != rec.Body {
		t.Error("mutating a returned record changed the stored one")
	}
}

func TestInMemoryStore_PutDuplicate(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	rec := &Record{Key: "dup", Route: "/send-email/", StatusCode: 200}

	if err := store.Put(ctx, rec); err != nil {
		t.Fatalf("first Put() error = %v", err)
	}
	if err := store.Put(ctx, &Record{Key: "dup", Route: "/send-email/"}); !errors.Is(err, ErrKeyExists) {
		t.Errorf("second Put() error = %v, want ErrKeyExists", err)
	}
	if err := store.Put(ctx, &Record{Key: "dup", Route: "/signup"}); err != nil {
		t.Errorf("Put() on another route error = %v, want nil", err)
	}
}

func TestInMemoryStore_PutInvalidKey(t *testing.T) {
	if err := NewInMemoryStore().Put(context.Background(), &Record{Route: "/send-email/"}); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("Put() error = %v, want ErrInvalidKey", err)
	}
}

func TestInMemoryStore_DeleteOlderThan(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := NewInMemoryStore()
	store.now = func() time.Time { return now }

	_ = store.Put(ctx, &Record{Key: "old", Route: "/send-email/", CreatedAt: now.Add(-25 * time.Hour)})
	_ = store.Put(ctx, &Record{Key: "recent", Route: "/send-email/", CreatedAt: now.Add(-time.Hour)})

	deleted, err := store.DeleteOlderThan(ctx, DefaultExpiry)
	if err != nil {
		t.Fatalf("DeleteOlderThan() error = %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted = %d, want 1", deleted)
	}
	if _, err := store.Get(ctx, StorageKey("/send-email/", "old")); !errors.Is(err, ErrKeyNotFound) {
		t.Error("old record should be gone")
	}
	if _, err := store.Get(ctx, StorageKey("/send-email/", "recent")); err != nil {
		t.Errorf("recent record should remain: %v", err)
	}
}

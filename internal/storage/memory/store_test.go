package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/liormulay/order-processing-system/internal/domain"
	"github.com/liormulay/order-processing-system/internal/storage/memory"
)

func TestStore_PutGet(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	if err := store.Put(ctx, "order:1", `{"orderId":"1"}`, time.Hour); err != nil {
		t.Fatalf("put failed: %v", err)
	}

	value, err := store.Get(ctx, "order:1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if value != `{"orderId":"1"}` {
		t.Fatalf("unexpected value %q", value)
	}
}

func TestStore_GetMissing(t *testing.T) {
	store := memory.NewStore()

	_, err := store.Get(context.Background(), "order:nope")
	if !errors.Is(err, domain.ErrKeyNotFound) {
		t.Fatalf("expected ErrKeyNotFound, got %v", err)
	}
}

func TestStore_TTLExpiry(t *testing.T) {
	now := time.Date(2025, time.July, 1, 10, 0, 0, 0, time.UTC)
	store := memory.NewStoreWithClock(func() time.Time { return now })
	ctx := context.Background()

	if err := store.Put(ctx, "missingItems:1", "[]", 10*time.Minute); err != nil {
		t.Fatalf("put failed: %v", err)
	}

	if _, err := store.Get(ctx, "missingItems:1"); err != nil {
		t.Fatalf("expected live value, got %v", err)
	}

	// Продвигаем часы за границу TTL.
	now = now.Add(11 * time.Minute)
	if _, err := store.Get(ctx, "missingItems:1"); !errors.Is(err, domain.ErrKeyNotFound) {
		t.Fatalf("expected ErrKeyNotFound after TTL, got %v", err)
	}
}

func TestStore_PutOverwritesAndRefreshesTTL(t *testing.T) {
	now := time.Date(2025, time.July, 1, 10, 0, 0, 0, time.UTC)
	store := memory.NewStoreWithClock(func() time.Time { return now })
	ctx := context.Background()

	if err := store.Put(ctx, "order:1", "v1", time.Hour); err != nil {
		t.Fatalf("put failed: %v", err)
	}

	now = now.Add(50 * time.Minute)
	if err := store.Put(ctx, "order:1", "v2", time.Hour); err != nil {
		t.Fatalf("put failed: %v", err)
	}

	// Первый TTL уже истёк бы, но перезапись обновила срок.
	now = now.Add(30 * time.Minute)
	value, err := store.Get(ctx, "order:1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if value != "v2" {
		t.Fatalf("expected v2, got %q", value)
	}
}

func TestStore_DeleteExpired(t *testing.T) {
	now := time.Date(2025, time.July, 1, 10, 0, 0, 0, time.UTC)
	store := memory.NewStoreWithClock(func() time.Time { return now })
	ctx := context.Background()

	_ = store.Put(ctx, "a", "1", time.Minute)
	_ = store.Put(ctx, "b", "2", time.Hour)
	_ = store.Put(ctx, "c", "3", 0) // без срока

	now = now.Add(10 * time.Minute)
	removed, err := store.DeleteExpired(now, 0)
	if err != nil {
		t.Fatalf("delete expired failed: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 removed record, got %d", removed)
	}

	if _, err := store.Get(ctx, "b"); err != nil {
		t.Fatalf("live record removed: %v", err)
	}
	if _, err := store.Get(ctx, "c"); err != nil {
		t.Fatalf("eternal record removed: %v", err)
	}
}

package storage_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/liormulay/order-processing-system/internal/domain"
	"github.com/liormulay/order-processing-system/internal/storage"
	"github.com/liormulay/order-processing-system/internal/storage/memory"
)

func newOrder() domain.Order {
	now := time.Now().UTC()
	return domain.Order{
		OrderID:      "ORD-AB12CD34",
		CustomerName: "Alice",
		Items: []domain.OrderItem{
			{ProductID: "P1001", Quantity: 2, Category: "standard"},
		},
		RequestedAt: now,
		Status:      domain.OrderStatusPending,
		CreatedAt:   now,
	}
}

func TestOrderStore_SaveGetRoundTrip(t *testing.T) {
	store := storage.NewOrderStore(memory.NewStore(), nil)
	ctx := context.Background()
	order := newOrder()

	if err := store.SaveOrder(ctx, order); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	stored, err := store.GetOrder(ctx, order.OrderID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if stored.OrderID != order.OrderID || stored.CustomerName != order.CustomerName {
		t.Fatalf("unexpected order %+v", stored)
	}
	if len(stored.Items) != 1 || stored.Items[0].ProductID != "P1001" {
		t.Fatalf("items lost in round trip: %+v", stored.Items)
	}
	if stored.Status != domain.OrderStatusPending {
		t.Fatalf("expected PENDING, got %s", stored.Status)
	}
}

func TestOrderStore_GetMissingOrder(t *testing.T) {
	store := storage.NewOrderStore(memory.NewStore(), nil)

	_, err := store.GetOrder(context.Background(), "ORD-UNKNOWN1")
	if !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestOrderStore_MalformedRecordTreatedAsNotFound(t *testing.T) {
	kv := memory.NewStore()
	store := storage.NewOrderStore(kv, nil)
	ctx := context.Background()

	_ = kv.Put(ctx, storage.OrderKey("ORD-BROKEN01"), "{not json", storage.OrderTTL)

	_, err := store.GetOrder(ctx, "ORD-BROKEN01")
	if !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("expected malformed record to read as not found, got %v", err)
	}
}

func TestOrderStore_TerminalStatusTransition(t *testing.T) {
	store := storage.NewOrderStore(memory.NewStore(), nil)
	ctx := context.Background()
	order := newOrder()

	if err := store.SaveOrder(ctx, order); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	order.Status = domain.OrderStatusApproved
	if err := store.SaveOrder(ctx, order); err != nil {
		t.Fatalf("terminal transition failed: %v", err)
	}

	status, err := store.GetOrderStatus(ctx, order.OrderID)
	if err != nil {
		t.Fatalf("status lookup failed: %v", err)
	}
	if status != domain.OrderStatusApproved {
		t.Fatalf("expected APPROVED, got %s", status)
	}
}

func TestOrderStore_RejectsStatusRegression(t *testing.T) {
	store := storage.NewOrderStore(memory.NewStore(), nil)
	ctx := context.Background()
	order := newOrder()
	order.Status = domain.OrderStatusRejected

	if err := store.SaveOrder(ctx, order); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	// Контракт единственного писателя: терминальный статус не уводится назад.
	order.Status = domain.OrderStatusPending
	err := store.SaveOrder(ctx, order)
	if !errors.Is(err, domain.ErrStatusRegression) {
		t.Fatalf("expected ErrStatusRegression, got %v", err)
	}

	status, err := store.GetOrderStatus(ctx, order.OrderID)
	if err != nil {
		t.Fatalf("status lookup failed: %v", err)
	}
	if status != domain.OrderStatusRejected {
		t.Fatalf("terminal status overwritten: %s", status)
	}
}

func TestOrderStore_TerminalRewriteIsHarmless(t *testing.T) {
	// Повторная доставка события перезаписывает тот же терминальный статус.
	store := storage.NewOrderStore(memory.NewStore(), nil)
	ctx := context.Background()
	order := newOrder()
	order.Status = domain.OrderStatusApproved

	if err := store.SaveOrder(ctx, order); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if err := store.SaveOrder(ctx, order); err != nil {
		t.Fatalf("idempotent rewrite failed: %v", err)
	}
}

func TestOrderStore_MissingItemsRoundTrip(t *testing.T) {
	store := storage.NewOrderStore(memory.NewStore(), nil)
	ctx := context.Background()

	items := []domain.MissingItem{
		{ProductID: "P1005", RequestedQuantity: 1, AvailableQuantity: 2, Reason: "Product expired on 2025-06-25"},
	}
	if err := store.SaveMissingItems(ctx, "ORD-AB12CD34", items); err != nil {
		t.Fatalf("save missing items failed: %v", err)
	}

	stored, err := store.GetMissingItems(ctx, "ORD-AB12CD34")
	if err != nil {
		t.Fatalf("get missing items failed: %v", err)
	}
	if len(stored) != 1 || stored[0] != items[0] {
		t.Fatalf("unexpected missing items %+v", stored)
	}
}

func TestOrderStore_MissingItemsExpireBeforeOrder(t *testing.T) {
	now := time.Date(2025, time.July, 1, 10, 0, 0, 0, time.UTC)
	kv := memory.NewStoreWithClock(func() time.Time { return now })
	store := storage.NewOrderStore(kv, nil)
	ctx := context.Background()

	order := newOrder()
	order.Status = domain.OrderStatusRejected
	if err := store.SaveOrder(ctx, order); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if err := store.SaveMissingItems(ctx, order.OrderID, []domain.MissingItem{
		{ProductID: "P9999", RequestedQuantity: 1, Reason: "Product not found in catalog"},
	}); err != nil {
		t.Fatalf("save missing items failed: %v", err)
	}

	// Через 11 минут деталь отказа истекла, заказ ещё жив.
	now = now.Add(11 * time.Minute)
	if _, err := store.GetMissingItems(ctx, order.OrderID); !errors.Is(err, domain.ErrKeyNotFound) {
		t.Fatalf("expected expired missing items, got %v", err)
	}
	if _, err := store.GetOrder(ctx, order.OrderID); err != nil {
		t.Fatalf("order expired too early: %v", err)
	}
}

func TestKeyLayout(t *testing.T) {
	if storage.OrderKey("ORD-1") != "order:ORD-1" {
		t.Fatalf("unexpected order key %q", storage.OrderKey("ORD-1"))
	}
	if storage.MissingItemsKey("ORD-1") != "missingItems:ORD-1" {
		t.Fatalf("unexpected missing items key %q", storage.MissingItemsKey("ORD-1"))
	}
}

package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/teamshop/teamshop/internal/app/domain/list"
)

func TestMemoryListLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	created, err := store.CreateList(ctx, list.List{Code: "ABC123"})
	if err != nil {
		t.Fatalf("create list: %v", err)
	}
	if created.ID == "" || created.Code != "ABC123" {
		t.Fatalf("unexpected list: %+v", created)
	}

	if _, err := store.CreateList(ctx, list.List{Code: "ABC123"}); err == nil {
		t.Fatalf("expected duplicate code to fail")
	}
	if _, err := store.GetList(ctx, "NOPE99"); !errors.Is(err, list.ErrNotFound) {
		t.Fatalf("get unknown list: got %v, want ErrNotFound", err)
	}
}

func TestMemoryItems(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	if _, err := store.CreateList(ctx, list.List{Code: "ABC123"}); err != nil {
		t.Fatalf("create list: %v", err)
	}

	milk, err := store.CreateItem(ctx, "ABC123", list.Item{Name: "Milk", Status: list.StatusPending})
	if err != nil {
		t.Fatalf("create item: %v", err)
	}
	eggs, err := store.CreateItem(ctx, "ABC123", list.Item{Name: "Eggs", Status: list.StatusPending})
	if err != nil {
		t.Fatalf("create item: %v", err)
	}

	snap, err := store.GetList(ctx, "ABC123")
	if err != nil {
		t.Fatalf("get list: %v", err)
	}
	if len(snap.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(snap.Items))
	}

	milk.Status = list.StatusClaimed
	milk.ClaimedBy = "Alex"
	if _, err := store.UpdateItem(ctx, "ABC123", milk); err != nil {
		t.Fatalf("update item: %v", err)
	}
	got, err := store.GetItem(ctx, "ABC123", milk.ID)
	if err != nil {
		t.Fatalf("get item: %v", err)
	}
	if got.ClaimedBy != "Alex" {
		t.Fatalf("update lost claimant: %+v", got)
	}

	if err := store.DeleteItem(ctx, "ABC123", eggs.ID); err != nil {
		t.Fatalf("delete item: %v", err)
	}
	if err := store.DeleteItem(ctx, "ABC123", eggs.ID); !errors.Is(err, list.ErrNotFound) {
		t.Fatalf("double delete: got %v, want ErrNotFound", err)
	}
	if _, err := store.GetItem(ctx, "ABC123", "missing"); !errors.Is(err, list.ErrNotFound) {
		t.Fatalf("get unknown item: got %v, want ErrNotFound", err)
	}
}

func TestMemoryRenameClaimant(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	store.CreateList(ctx, list.List{Code: "ABC123"})

	store.CreateItem(ctx, "ABC123", list.Item{Name: "Milk", Status: list.StatusClaimed, ClaimedBy: "Alex"})
	store.CreateItem(ctx, "ABC123", list.Item{Name: "Jam", Status: list.StatusBought, ClaimedBy: "Alex"})
	store.CreateItem(ctx, "ABC123", list.Item{Name: "Tea", Status: list.StatusClaimed, ClaimedBy: "Sam"})

	changed, err := store.RenameClaimant(ctx, "ABC123", "Alex", "Alexandra")
	if err != nil {
		t.Fatalf("rename claimant: %v", err)
	}
	if changed != 2 {
		t.Fatalf("expected 2 rewritten items, got %d", changed)
	}

	changed, err = store.RenameClaimant(ctx, "ABC123", "Alex", "Alexandra")
	if err != nil {
		t.Fatalf("rename claimant again: %v", err)
	}
	if changed != 0 {
		t.Fatalf("second rename must be a no-op, rewrote %d", changed)
	}
}

func TestMemoryResetItems(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	store.CreateList(ctx, list.List{Code: "ABC123"})
	store.CreateItem(ctx, "ABC123", list.Item{Name: "Milk", Status: list.StatusClaimed, ClaimedBy: "Alex"})
	store.CreateItem(ctx, "ABC123", list.Item{Name: "Jam", Status: list.StatusBought, ClaimedBy: "Sam"})

	snap, err := store.ResetItems(ctx, "ABC123")
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if len(snap.Items) != 2 {
		t.Fatalf("reset must not delete items, got %d", len(snap.Items))
	}
	for _, it := range snap.Items {
		if it.Status != list.StatusPending || it.ClaimedBy != "" {
			t.Fatalf("item not reset: %+v", it)
		}
	}
}

// Package storage defines the persistence interfaces for shopping lists and
// provides a thread-safe in-memory implementation. Durable persistence lives
// in the postgres subpackage.
package storage

import (
	"context"

	"github.com/teamshop/teamshop/internal/app/domain/list"
)

// ListStore persists shopping lists and their items. Lists are addressed by
// their share code; items by (code, item ID). Implementations return
// list.ErrNotFound for unknown identifiers and must return defensive copies:
// callers own the values they receive.
type ListStore interface {
	CreateList(ctx context.Context, l list.List) (list.List, error)
	GetList(ctx context.Context, code string) (list.List, error)

	CreateItem(ctx context.Context, code string, it list.Item) (list.Item, error)
	GetItem(ctx context.Context, code, itemID string) (list.Item, error)
	UpdateItem(ctx context.Context, code string, it list.Item) (list.Item, error)
	DeleteItem(ctx context.Context, code, itemID string) error

	// RenameClaimant rewrites the claimant on every item of the list with
	// ClaimedBy == old, regardless of status, and reports how many changed.
	RenameClaimant(ctx context.Context, code, old, new string) (int, error)

	// ResetItems forces every item of the list back to pending with the
	// claimant cleared and returns the resulting full snapshot.
	ResetItems(ctx context.Context, code string) (list.List, error)
}

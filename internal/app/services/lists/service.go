// Package lists implements the claim coordinator: it serializes concurrent
// item transitions, applies the item state machine, and publishes a domain
// event for every committed mutation.
package lists

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/teamshop/teamshop/internal/app/domain/list"
	"github.com/teamshop/teamshop/internal/app/metrics"
	"github.com/teamshop/teamshop/internal/app/realtime"
	"github.com/teamshop/teamshop/internal/app/storage"
	"github.com/teamshop/teamshop/pkg/idgen"
	"github.com/teamshop/teamshop/pkg/logger"
)

// Publisher receives a domain event for every committed mutation. Publish is
// called after the store write succeeds and never for a failed attempt.
type Publisher interface {
	Publish(code string, ev realtime.Event)
}

// Service coordinates all list and item mutations. Mutating access to a
// single item is serialized through a per-item lock, so a race between two
// shoppers claiming the same pending item yields exactly one success;
// mutations on different items never serialize against each other.
type Service struct {
	store storage.ListStore
	hub   Publisher
	log   *logger.Logger
	locks *keyedLocks
}

// New creates the coordinator. A nil logger falls back to the default.
func New(store storage.ListStore, hub Publisher, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("lists")
	}
	return &Service{
		store: store,
		hub:   hub,
		log:   log,
		locks: newKeyedLocks(),
	}
}

// CreateList creates a new empty list with a generated share code.
func (s *Service) CreateList(ctx context.Context) (list.List, error) {
	code, err := idgen.NewListCode()
	if err != nil {
		return list.List{}, err
	}

	created, err := s.store.CreateList(ctx, list.List{Code: code})
	if err != nil {
		return list.List{}, fmt.Errorf("create list: %w", err)
	}

	s.log.WithField("list_id", created.Code).Info("list created")
	return created, nil
}

// GetList returns the full snapshot of a list, items in creation order.
func (s *Service) GetList(ctx context.Context, code string) (list.List, error) {
	return s.store.GetList(ctx, code)
}

// AddItem appends a pending item and publishes ITEM_ADDED.
func (s *Service) AddItem(ctx context.Context, code, name string) (list.Item, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return list.Item{}, fmt.Errorf("%w: item name required", list.ErrInvalidState)
	}

	created, err := s.store.CreateItem(ctx, code, list.Item{
		Name:   name,
		Status: list.StatusPending,
	})
	if err != nil {
		return list.Item{}, err
	}

	s.hub.Publish(code, realtime.ItemAdded{Item: created})
	return created, nil
}

// ClaimItem reserves a pending item for the nickname and publishes
// ITEM_UPDATED. Among concurrent claims on the same item exactly one
// succeeds; the rest observe list.ErrConflict.
func (s *Service) ClaimItem(ctx context.Context, code, itemID, nickname string) (list.Item, error) {
	return s.transition(ctx, code, itemID, nickname, func(it list.Item, nick string, now time.Time) (list.Item, error) {
		return it.Claim(nick, now)
	})
}

// BuyItem marks a claimed item bought. Only the claimant may buy.
func (s *Service) BuyItem(ctx context.Context, code, itemID, nickname string) (list.Item, error) {
	return s.transition(ctx, code, itemID, nickname, func(it list.Item, nick string, now time.Time) (list.Item, error) {
		return it.MarkBought(nick, now)
	})
}

// UnclaimItem releases a claim back to pending. Only the claimant may
// release.
func (s *Service) UnclaimItem(ctx context.Context, code, itemID, nickname string) (list.Item, error) {
	return s.transition(ctx, code, itemID, nickname, func(it list.Item, nick string, now time.Time) (list.Item, error) {
		return it.Release(nick, now)
	})
}

// UpdateItemName changes the item text. Blocked with list.ErrLocked when the
// item is claimed by a different shopper.
func (s *Service) UpdateItemName(ctx context.Context, code, itemID, name, nickname string) (list.Item, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return list.Item{}, fmt.Errorf("%w: item name required", list.ErrInvalidState)
	}
	return s.transition(ctx, code, itemID, nickname, func(it list.Item, nick string, now time.Time) (list.Item, error) {
		return it.Rename(name, nick, now)
	})
}

// DeleteItem removes an item and publishes ITEM_DELETED. An item claimed by
// a different shopper is locked.
func (s *Service) DeleteItem(ctx context.Context, code, itemID, nickname string) error {
	unlock := s.locks.lock(code + "/" + itemID)
	defer unlock()

	it, err := s.store.GetItem(ctx, code, itemID)
	if err != nil {
		return err
	}
	if err := it.CanModify(nickname); err != nil {
		return err
	}
	if err := s.store.DeleteItem(ctx, code, itemID); err != nil {
		return err
	}

	s.hub.Publish(code, realtime.ItemDeleted{ItemID: itemID})
	return nil
}

// RenamePseudo rewrites the claimant on every matching item of the list and
// publishes PSEUDO_RENAMED. A no-op rename (nothing matched) still
// broadcasts, so clients that claimed nothing also learn the new nickname.
func (s *Service) RenamePseudo(ctx context.Context, code, oldPseudo, newPseudo string) error {
	newPseudo = strings.TrimSpace(newPseudo)
	if newPseudo == "" {
		return fmt.Errorf("%w: new pseudo required", list.ErrInvalidState)
	}

	changed, err := s.store.RenameClaimant(ctx, code, oldPseudo, newPseudo)
	if err != nil {
		return err
	}

	s.hub.Publish(code, realtime.PseudoRenamed{OldPseudo: oldPseudo, NewPseudo: newPseudo})
	s.log.WithField("list_id", code).
		WithField("items", changed).
		Info("pseudo renamed")
	return nil
}

// ResetList forces every item back to pending with the claimant cleared and
// publishes LIST_RESET carrying the fully reset snapshot.
func (s *Service) ResetList(ctx context.Context, code string) (list.List, error) {
	snapshot, err := s.store.ResetItems(ctx, code)
	if err != nil {
		return list.List{}, err
	}

	s.hub.Publish(code, realtime.ListReset{List: snapshot})
	s.log.WithField("list_id", code).Info("list reset")
	return snapshot, nil
}

// transition runs one guarded item transition under the item's lock:
// read, apply the state machine, write back, publish on commit.
func (s *Service) transition(
	ctx context.Context,
	code, itemID, nickname string,
	apply func(list.Item, string, time.Time) (list.Item, error),
) (list.Item, error) {
	nickname = strings.TrimSpace(nickname)
	if nickname == "" {
		return list.Item{}, fmt.Errorf("%w: nickname required", list.ErrInvalidState)
	}

	unlock := s.locks.lock(code + "/" + itemID)
	defer unlock()

	it, err := s.store.GetItem(ctx, code, itemID)
	if err != nil {
		return list.Item{}, err
	}

	next, err := apply(it, nickname, time.Now().UTC())
	if err != nil {
		if errors.Is(err, list.ErrConflict) {
			metrics.ClaimConflict()
		}
		return list.Item{}, err
	}

	updated, err := s.store.UpdateItem(ctx, code, next)
	if err != nil {
		return list.Item{}, err
	}

	s.hub.Publish(code, realtime.ItemUpdated{Item: updated})
	return updated, nil
}

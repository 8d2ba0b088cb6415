// Package realtime fans committed list mutations out to connected browsers.
// It owns the per-list channel registry, the broadcast hub, and the
// WebSocket sessions the hub writes to.
package realtime

import (
	"encoding/json"
	"fmt"

	"github.com/teamshop/teamshop/internal/app/domain/list"
)

// Kind tags a wire event.
type Kind string

const (
	KindItemAdded     Kind = "ITEM_ADDED"
	KindItemUpdated   Kind = "ITEM_UPDATED"
	KindItemDeleted   Kind = "ITEM_DELETED"
	KindListReset     Kind = "LIST_RESET"
	KindPseudoRenamed Kind = "PSEUDO_RENAMED"
)

// Event is a broadcastable fact about a committed mutation. The concrete
// types below are the only implementations; consumers dispatch with a type
// switch so a new event kind is a compile-visible change.
type Event interface {
	Kind() Kind
}

// ItemAdded carries the snapshot of a newly created item.
type ItemAdded struct {
	Item list.Item
}

// ItemUpdated carries the post-transition snapshot of an item.
type ItemUpdated struct {
	Item list.Item
}

// ItemDeleted carries the identifier of a removed item.
type ItemDeleted struct {
	ItemID string
}

// ListReset carries the full snapshot after a reset.
type ListReset struct {
	List list.List
}

// PseudoRenamed announces a nickname change so clients rewrite claimants.
type PseudoRenamed struct {
	OldPseudo string
	NewPseudo string
}

func (ItemAdded) Kind() Kind     { return KindItemAdded }
func (ItemUpdated) Kind() Kind   { return KindItemUpdated }
func (ItemDeleted) Kind() Kind   { return KindItemDeleted }
func (ListReset) Kind() Kind     { return KindListReset }
func (PseudoRenamed) Kind() Kind { return KindPseudoRenamed }

// envelope is the wire form: one JSON object per broadcast with an event tag
// and the payload fields for that kind.
type envelope struct {
	Event     Kind       `json:"event"`
	Item      *list.Item `json:"item,omitempty"`
	ItemID    string     `json:"item_id,omitempty"`
	List      *list.List `json:"list,omitempty"`
	OldPseudo string     `json:"old_pseudo,omitempty"`
	NewPseudo string     `json:"new_pseudo,omitempty"`
}

// Encode serializes an event into its wire envelope.
func Encode(ev Event) ([]byte, error) {
	var env envelope
	switch e := ev.(type) {
	case ItemAdded:
		env = envelope{Event: KindItemAdded, Item: &e.Item}
	case ItemUpdated:
		env = envelope{Event: KindItemUpdated, Item: &e.Item}
	case ItemDeleted:
		env = envelope{Event: KindItemDeleted, ItemID: e.ItemID}
	case ListReset:
		env = envelope{Event: KindListReset, List: &e.List}
	case PseudoRenamed:
		env = envelope{Event: KindPseudoRenamed, OldPseudo: e.OldPseudo, NewPseudo: e.NewPseudo}
	default:
		return nil, fmt.Errorf("realtime: unknown event type %T", ev)
	}
	return json.Marshal(env)
}

// Decode parses a wire envelope back into an event.
func Decode(data []byte) (Event, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("realtime: decode event: %w", err)
	}
	switch env.Event {
	case KindItemAdded:
		if env.Item == nil {
			return nil, fmt.Errorf("realtime: %s without item", env.Event)
		}
		return ItemAdded{Item: *env.Item}, nil
	case KindItemUpdated:
		if env.Item == nil {
			return nil, fmt.Errorf("realtime: %s without item", env.Event)
		}
		return ItemUpdated{Item: *env.Item}, nil
	case KindItemDeleted:
		return ItemDeleted{ItemID: env.ItemID}, nil
	case KindListReset:
		if env.List == nil {
			return nil, fmt.Errorf("realtime: %s without list", env.Event)
		}
		return ListReset{List: *env.List}, nil
	case KindPseudoRenamed:
		return PseudoRenamed{OldPseudo: env.OldPseudo, NewPseudo: env.NewPseudo}, nil
	default:
		return nil, fmt.Errorf("realtime: unknown event kind %q", env.Event)
	}
}

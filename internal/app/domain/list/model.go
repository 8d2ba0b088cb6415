// Package list defines the shopping list data model and the item state
// machine governing claims. Transition functions are pure: they take an item
// value and return the transitioned value or an error, never mutating in
// place. Serializing concurrent transitions is the coordinator's job.
package list

import "time"

// Status is the lifecycle state of an item.
type Status string

const (
	StatusPending Status = "pending"
	StatusClaimed Status = "claimed"
	StatusBought  Status = "bought"
)

// Valid reports whether s is one of the three known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusClaimed, StatusBought:
		return true
	}
	return false
}

// List represents a collaborative shopping list. Code is the short
// human-shareable identifier used in URLs and on the wire as list_id.
type List struct {
	ID        string    `json:"id"`
	Code      string    `json:"list_id"`
	CreatedAt time.Time `json:"created_at"`
	Items     []Item    `json:"items"`
}

// Item represents one entry in a shopping list.
//
// Invariant: ClaimedBy is non-empty iff Status is claimed, except that a
// bought item keeps its last claimant for display.
type Item struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Status    Status    `json:"status"`
	ClaimedBy string    `json:"claimed_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

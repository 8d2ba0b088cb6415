package list

import "errors"

// Transition guard failures. The coordinator resolves these synchronously
// and the HTTP layer maps them to status codes; none are retried internally.
var (
	// ErrConflict signals that another shopper holds or already completed
	// the competing transition (claiming a claimed item, buying an item
	// claimed by someone else).
	ErrConflict = errors.New("item already claimed or bought")

	// ErrLocked signals a delete or edit blocked by a differing claimant.
	ErrLocked = errors.New("item is locked by another shopper")

	// ErrNotFound signals an unknown list or item identifier.
	ErrNotFound = errors.New("not found")

	// ErrInvalidState signals a transition requested from a state that
	// cannot reach it, e.g. buying an item that was never claimed.
	ErrInvalidState = errors.New("invalid item state for transition")
)

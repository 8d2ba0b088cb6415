package list

import "time"

// Claim reserves a pending item for the given nickname.
func (i Item) Claim(nickname string, now time.Time) (Item, error) {
	if i.Status != StatusPending {
		return Item{}, ErrConflict
	}
	i.Status = StatusClaimed
	i.ClaimedBy = nickname
	i.UpdatedAt = now
	return i, nil
}

// MarkBought completes a claim. Only the current claimant may mark an item
// bought; the claimant is retained for display.
func (i Item) MarkBought(nickname string, now time.Time) (Item, error) {
	switch i.Status {
	case StatusClaimed:
		if i.ClaimedBy != nickname {
			return Item{}, ErrConflict
		}
		i.Status = StatusBought
		i.UpdatedAt = now
		return i, nil
	case StatusPending, StatusBought:
		return Item{}, ErrInvalidState
	default:
		return Item{}, ErrInvalidState
	}
}

// Release returns a claimed item to pending. Only the claimant may release.
func (i Item) Release(nickname string, now time.Time) (Item, error) {
	if i.Status != StatusClaimed {
		return Item{}, ErrInvalidState
	}
	if i.ClaimedBy != nickname {
		return Item{}, ErrConflict
	}
	i.Status = StatusPending
	i.ClaimedBy = ""
	i.UpdatedAt = now
	return i, nil
}

// Rename changes the item text. The same lock rule as deletion applies: an
// item claimed by a different shopper cannot be edited.
func (i Item) Rename(name, nickname string, now time.Time) (Item, error) {
	if err := i.CanModify(nickname); err != nil {
		return Item{}, err
	}
	i.Name = name
	i.UpdatedAt = now
	return i, nil
}

// CanModify reports whether the given nickname may delete or edit the item.
// Allowed when the item is not claimed, or claimed by the same nickname.
func (i Item) CanModify(nickname string) error {
	if i.Status == StatusClaimed && i.ClaimedBy != "" && i.ClaimedBy != nickname {
		return ErrLocked
	}
	return nil
}

// RenameClaimant rewrites the claimant on every item matching old, regardless
// of status, so bought items keep crediting the renamed shopper. Returns the
// rewritten slice and the updated items. Idempotent: a second application
// with the same arguments matches nothing.
func RenameClaimant(items []Item, oldNickname, newNickname string, now time.Time) ([]Item, []Item) {
	var changed []Item
	out := make([]Item, len(items))
	for idx, it := range items {
		if it.ClaimedBy == oldNickname && oldNickname != "" {
			it.ClaimedBy = newNickname
			it.UpdatedAt = now
			changed = append(changed, it)
		}
		out[idx] = it
	}
	return out, changed
}

// Reset forces every item back to pending with the claimant cleared.
func Reset(items []Item, now time.Time) []Item {
	out := make([]Item, len(items))
	for idx, it := range items {
		it.Status = StatusPending
		it.ClaimedBy = ""
		it.UpdatedAt = now
		out[idx] = it
	}
	return out
}

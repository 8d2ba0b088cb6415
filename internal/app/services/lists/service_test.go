package lists

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/teamshop/teamshop/internal/app/domain/list"
	"github.com/teamshop/teamshop/internal/app/realtime"
	"github.com/teamshop/teamshop/internal/app/storage"
)

type capturingHub struct {
	mu     sync.Mutex
	events []realtime.Event
	codes  []string
}

func (h *capturingHub) Publish(code string, ev realtime.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, ev)
	h.codes = append(h.codes, code)
}

func (h *capturingHub) published() []realtime.Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]realtime.Event, len(h.events))
	copy(out, h.events)
	return out
}

func newTestService(t *testing.T) (*Service, *capturingHub, string) {
	t.Helper()
	hub := &capturingHub{}
	svc := New(storage.NewMemory(), hub, nil)

	created, err := svc.CreateList(context.Background())
	if err != nil {
		t.Fatalf("create list: %v", err)
	}
	return svc, hub, created.Code
}

func TestCreateListGeneratesCode(t *testing.T) {
	svc, _, code := newTestService(t)
	if len(code) != 6 {
		t.Fatalf("expected 6-char code, got %q", code)
	}
	if _, err := svc.GetList(context.Background(), code); err != nil {
		t.Fatalf("get created list: %v", err)
	}
}

func TestAddItemPublishesItemAdded(t *testing.T) {
	svc, hub, code := newTestService(t)
	ctx := context.Background()

	it, err := svc.AddItem(ctx, code, "  Milk  ")
	if err != nil {
		t.Fatalf("add item: %v", err)
	}
	if it.Name != "Milk" || it.Status != list.StatusPending {
		t.Fatalf("unexpected item: %+v", it)
	}

	events := hub.published()
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	added, ok := events[0].(realtime.ItemAdded)
	if !ok {
		t.Fatalf("unexpected event type %T", events[0])
	}
	if added.Item.ID != it.ID {
		t.Fatalf("event carries wrong item: %+v", added.Item)
	}

	if _, err := svc.AddItem(ctx, code, "   "); err == nil {
		t.Fatalf("expected empty name to be rejected")
	}
	if _, err := svc.AddItem(ctx, "NOPE99", "Milk"); !errors.Is(err, list.ErrNotFound) {
		t.Fatalf("add to unknown list: got %v, want ErrNotFound", err)
	}
}

func TestClaimBuyFlow(t *testing.T) {
	svc, hub, code := newTestService(t)
	ctx := context.Background()

	it, _ := svc.AddItem(ctx, code, "Milk")

	claimed, err := svc.ClaimItem(ctx, code, it.ID, "Alex")
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if claimed.Status != list.StatusClaimed || claimed.ClaimedBy != "Alex" {
		t.Fatalf("unexpected claim result: %+v", claimed)
	}

	if _, err := svc.ClaimItem(ctx, code, it.ID, "Sam"); !errors.Is(err, list.ErrConflict) {
		t.Fatalf("second claim: got %v, want ErrConflict", err)
	}
	if _, err := svc.BuyItem(ctx, code, it.ID, "Sam"); !errors.Is(err, list.ErrConflict) {
		t.Fatalf("buy by non-claimant: got %v, want ErrConflict", err)
	}

	bought, err := svc.BuyItem(ctx, code, it.ID, "Alex")
	if err != nil {
		t.Fatalf("buy: %v", err)
	}
	if bought.Status != list.StatusBought || bought.ClaimedBy != "Alex" {
		t.Fatalf("unexpected buy result: %+v", bought)
	}

	// ITEM_ADDED + two ITEM_UPDATED; the failed attempts emitted nothing.
	if got := len(hub.published()); got != 3 {
		t.Fatalf("expected 3 events, got %d", got)
	}
}

func TestConcurrentClaimsExactlyOneWins(t *testing.T) {
	svc, hub, code := newTestService(t)
	ctx := context.Background()

	it, _ := svc.AddItem(ctx, code, "Milk")
	nicknames := []string{"Alex", "Sam", "Kim", "Lou", "Max", "Pat", "Ren", "Sol"}

	var wg sync.WaitGroup
	results := make([]error, len(nicknames))
	for i, nick := range nicknames {
		wg.Add(1)
		go func(i int, nick string) {
			defer wg.Done()
			_, results[i] = svc.ClaimItem(ctx, code, it.ID, nick)
		}(i, nick)
	}
	wg.Wait()

	wins, conflicts := 0, 0
	for _, err := range results {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, list.ErrConflict):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if wins != 1 {
		t.Fatalf("expected exactly 1 successful claim, got %d", wins)
	}
	if conflicts != len(nicknames)-1 {
		t.Fatalf("expected %d conflicts, got %d", len(nicknames)-1, conflicts)
	}

	// Exactly one ITEM_UPDATED beyond the initial ITEM_ADDED.
	updates := 0
	for _, ev := range hub.published() {
		if _, ok := ev.(realtime.ItemUpdated); ok {
			updates++
		}
	}
	if updates != 1 {
		t.Fatalf("expected exactly 1 ITEM_UPDATED, got %d", updates)
	}

	final, err := svc.GetList(ctx, code)
	if err != nil {
		t.Fatalf("get list: %v", err)
	}
	if final.Items[0].Status != list.StatusClaimed || final.Items[0].ClaimedBy == "" {
		t.Fatalf("committed state inconsistent: %+v", final.Items[0])
	}
}

func TestConcurrentMutationsOnDifferentItems(t *testing.T) {
	svc, _, code := newTestService(t)
	ctx := context.Background()

	const n = 20
	ids := make([]string, n)
	for i := 0; i < n; i++ {
		it, err := svc.AddItem(ctx, code, "Item")
		if err != nil {
			t.Fatalf("add item: %v", err)
		}
		ids[i] = it.ID
	}

	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.ClaimItem(ctx, code, ids[i], "Alex")
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("claim of independent item %d failed: %v", i, err)
		}
	}
}

func TestUnclaimItem(t *testing.T) {
	svc, _, code := newTestService(t)
	ctx := context.Background()

	it, _ := svc.AddItem(ctx, code, "Milk")
	svc.ClaimItem(ctx, code, it.ID, "Alex")

	if _, err := svc.UnclaimItem(ctx, code, it.ID, "Sam"); !errors.Is(err, list.ErrConflict) {
		t.Fatalf("unclaim by non-claimant: got %v, want ErrConflict", err)
	}

	released, err := svc.UnclaimItem(ctx, code, it.ID, "Alex")
	if err != nil {
		t.Fatalf("unclaim: %v", err)
	}
	if released.Status != list.StatusPending || released.ClaimedBy != "" {
		t.Fatalf("unexpected unclaim result: %+v", released)
	}
}

func TestDeleteItemRespectsLock(t *testing.T) {
	svc, hub, code := newTestService(t)
	ctx := context.Background()

	it, _ := svc.AddItem(ctx, code, "Milk")
	svc.ClaimItem(ctx, code, it.ID, "Alex")

	if err := svc.DeleteItem(ctx, code, it.ID, "Sam"); !errors.Is(err, list.ErrLocked) {
		t.Fatalf("delete by other shopper: got %v, want ErrLocked", err)
	}
	if err := svc.DeleteItem(ctx, code, it.ID, "Alex"); err != nil {
		t.Fatalf("delete by claimant: %v", err)
	}
	if err := svc.DeleteItem(ctx, code, it.ID, "Alex"); !errors.Is(err, list.ErrNotFound) {
		t.Fatalf("delete of deleted item: got %v, want ErrNotFound", err)
	}

	var deleted *realtime.ItemDeleted
	for _, ev := range hub.published() {
		if d, ok := ev.(realtime.ItemDeleted); ok {
			deleted = &d
		}
	}
	if deleted == nil || deleted.ItemID != it.ID {
		t.Fatalf("ITEM_DELETED not published for %s", it.ID)
	}
}

func TestRenamePseudo(t *testing.T) {
	svc, hub, code := newTestService(t)
	ctx := context.Background()

	a, _ := svc.AddItem(ctx, code, "Milk")
	b, _ := svc.AddItem(ctx, code, "Jam")
	svc.ClaimItem(ctx, code, a.ID, "Alex")
	svc.ClaimItem(ctx, code, b.ID, "Alex")
	svc.BuyItem(ctx, code, b.ID, "Alex")

	if err := svc.RenamePseudo(ctx, code, "Alex", "Sam"); err != nil {
		t.Fatalf("rename pseudo: %v", err)
	}

	snap, _ := svc.GetList(ctx, code)
	for _, it := range snap.Items {
		if it.ClaimedBy != "Sam" {
			t.Fatalf("claimant not rewritten: %+v", it)
		}
	}
	// Status untouched, bought credit included.
	if snap.Items[0].Status != list.StatusClaimed || snap.Items[1].Status != list.StatusBought {
		t.Fatalf("rename touched status: %+v", snap.Items)
	}

	events := hub.published()
	last, ok := events[len(events)-1].(realtime.PseudoRenamed)
	if !ok {
		t.Fatalf("expected PSEUDO_RENAMED, got %T", events[len(events)-1])
	}
	if last.OldPseudo != "Alex" || last.NewPseudo != "Sam" {
		t.Fatalf("unexpected rename event: %+v", last)
	}
}

func TestResetList(t *testing.T) {
	svc, hub, code := newTestService(t)
	ctx := context.Background()

	a, _ := svc.AddItem(ctx, code, "Milk")
	b, _ := svc.AddItem(ctx, code, "Jam")
	svc.ClaimItem(ctx, code, a.ID, "Alex")
	svc.ClaimItem(ctx, code, b.ID, "Sam")
	svc.BuyItem(ctx, code, b.ID, "Sam")

	snap, err := svc.ResetList(ctx, code)
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if len(snap.Items) != 2 {
		t.Fatalf("reset must keep items, got %d", len(snap.Items))
	}
	for _, it := range snap.Items {
		if it.Status != list.StatusPending || it.ClaimedBy != "" {
			t.Fatalf("item not reset: %+v", it)
		}
	}

	events := hub.published()
	reset, ok := events[len(events)-1].(realtime.ListReset)
	if !ok {
		t.Fatalf("expected LIST_RESET, got %T", events[len(events)-1])
	}
	for _, it := range reset.List.Items {
		if it.Status != list.StatusPending || it.ClaimedBy != "" {
			t.Fatalf("event snapshot not reset: %+v", it)
		}
	}
}

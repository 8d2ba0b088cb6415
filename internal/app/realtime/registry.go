package realtime

import "sync"

// Subscriber receives serialized events. Send must not block: it reports
// false when the message could not be buffered (slow or dead consumer).
type Subscriber interface {
	Send(msg []byte) bool
}

// Registry tracks, per list code, the set of live sessions. It is created at
// process start, injected into the hub and the connection layer, and safe
// for arbitrary connect/disconnect churn. Lists with no sessions are not
// destroyed here; list lifetime belongs to the store.
type Registry struct {
	mu     sync.RWMutex
	byList map[string]map[Subscriber]struct{}
	lists  map[Subscriber]string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byList: make(map[string]map[Subscriber]struct{}),
		lists:  make(map[Subscriber]string),
	}
}

// Subscribe adds the session to the list's channel. Idempotent per session;
// a session already on another list is moved.
func (r *Registry) Subscribe(code string, s Subscriber) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.lists[s]; ok {
		if prev == code {
			return
		}
		r.removeLocked(prev, s)
	}

	set, ok := r.byList[code]
	if !ok {
		set = make(map[Subscriber]struct{})
		r.byList[code] = set
	}
	set[s] = struct{}{}
	r.lists[s] = code
}

// Unsubscribe removes the session from whatever list it is on. Safe to call
// repeatedly or for a session that was never subscribed.
func (r *Registry) Unsubscribe(s Subscriber) {
	r.mu.Lock()
	defer r.mu.Unlock()

	code, ok := r.lists[s]
	if !ok {
		return
	}
	r.removeLocked(code, s)
}

func (r *Registry) removeLocked(code string, s Subscriber) {
	delete(r.lists, s)
	if set, ok := r.byList[code]; ok {
		delete(set, s)
		if len(set) == 0 {
			delete(r.byList, code)
		}
	}
}

// SessionsFor returns a snapshot of the sessions currently subscribed to the
// list. The slice is safe to iterate while sessions churn.
func (r *Registry) SessionsFor(code string) []Subscriber {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set := r.byList[code]
	if len(set) == 0 {
		return nil
	}
	out := make([]Subscriber, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	return out
}

// Count returns the number of sessions subscribed to the list.
func (r *Registry) Count(code string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byList[code])
}

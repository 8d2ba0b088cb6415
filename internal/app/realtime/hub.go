package realtime

import (
	"sync"

	"github.com/teamshop/teamshop/internal/app/metrics"
	"github.com/teamshop/teamshop/pkg/logger"
)

// Hub fans committed domain events out to every session subscribed to the
// affected list. It is the sole writer path to connected sessions.
//
// Delivery is best-effort per session: a consumer that cannot keep up is
// dropped from the registry so it can never stall its siblings or the
// originating mutation. A per-list mutex keeps the publish order identical
// for every session on that list; no order is promised across lists.
type Hub struct {
	registry *Registry
	log      *logger.Logger

	mu       sync.Mutex
	perList  map[string]*sync.Mutex
}

// NewHub creates a hub publishing through the given registry.
func NewHub(registry *Registry, log *logger.Logger) *Hub {
	if log == nil {
		log = logger.NewDefault("hub")
	}
	return &Hub{
		registry: registry,
		log:      log,
		perList:  make(map[string]*sync.Mutex),
	}
}

// Publish serializes the event and delivers it to each session currently on
// the list's channel. Send failures are logged and swallowed; the mutation
// already committed and must not appear failed to its caller.
func (h *Hub) Publish(code string, ev Event) {
	data, err := Encode(ev)
	if err != nil {
		h.log.WithError(err).WithField("list_id", code).Error("encode event")
		return
	}

	lock := h.listLock(code)
	lock.Lock()
	defer lock.Unlock()

	sessions := h.registry.SessionsFor(code)
	for _, s := range sessions {
		if !s.Send(data) {
			// Slow or torn-down consumer. Drop it; the client's
			// reconnect loop will bring it back.
			h.registry.Unsubscribe(s)
			metrics.DeliveryDropped(string(ev.Kind()))
			h.log.WithField("list_id", code).
				WithField("event", string(ev.Kind())).
				Debug("dropped delivery to slow session")
		}
	}
	metrics.EventPublished(string(ev.Kind()), len(sessions))
}

func (h *Hub) listLock(code string) *sync.Mutex {
	h.mu.Lock()
	defer h.mu.Unlock()
	lock, ok := h.perList[code]
	if !ok {
		lock = &sync.Mutex{}
		h.perList[code] = lock
	}
	return lock
}

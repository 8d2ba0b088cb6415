// Package app ties the coordination core together and manages its
// lifecycle: one channel registry, one broadcast hub, and the list
// coordinator wired to a store.
package app

import (
	"github.com/teamshop/teamshop/internal/app/realtime"
	"github.com/teamshop/teamshop/internal/app/services/lists"
	"github.com/teamshop/teamshop/internal/app/storage"
	"github.com/teamshop/teamshop/pkg/logger"
)

// Application holds the wired components. The registry and hub are created
// here and passed explicitly to the components that need them; nothing in
// the process relies on ambient global state.
type Application struct {
	log *logger.Logger

	Registry *realtime.Registry
	Hub      *realtime.Hub
	Lists    *lists.Service
}

// New builds a fully initialised application. A nil store defaults to the
// in-memory implementation, a nil logger to the default logger.
func New(store storage.ListStore, log *logger.Logger) *Application {
	if log == nil {
		log = logger.NewDefault("app")
	}
	if store == nil {
		store = storage.NewMemory()
	}

	registry := realtime.NewRegistry()
	hub := realtime.NewHub(registry, log.Component("hub"))

	return &Application{
		log:      log,
		Registry: registry,
		Hub:      hub,
		Lists:    lists.New(store, hub, log.Component("lists")),
	}
}

// Logger returns the application root logger.
func (a *Application) Logger() *logger.Logger { return a.log }

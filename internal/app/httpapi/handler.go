// Package httpapi exposes the REST and WebSocket surface of the teamshop
// server. Handlers are thin: they validate the request shape and delegate to
// the list coordinator, which owns all concurrency control.
package httpapi

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	app "github.com/teamshop/teamshop/internal/app"
	"github.com/teamshop/teamshop/internal/app/domain/list"
	"github.com/teamshop/teamshop/internal/app/metrics"
	"github.com/teamshop/teamshop/internal/httputil"
	"github.com/teamshop/teamshop/internal/middleware"
	"github.com/teamshop/teamshop/pkg/logger"
)

// StatusLocked is returned when a delete or edit hits an item claimed by a
// different shopper.
const StatusLocked = http.StatusLocked

type handler struct {
	app *app.Application
	log *logger.Logger
}

// Options configures the HTTP surface.
type Options struct {
	// MutationRateLimit caps mutation requests per second per client
	// address. Zero disables rate limiting.
	MutationRateLimit int
	MutationBurst     int
}

// NewHandler returns the router exposing the REST API, the per-list
// WebSocket endpoint, health and metrics.
func NewHandler(application *app.Application, opts Options) http.Handler {
	h := &handler{app: application, log: application.Logger().Component("httpapi")}

	r := mux.NewRouter()
	r.Use(middleware.Metrics())
	r.Use(middleware.Logging(h.log))

	api := r.PathPrefix("/api").Subrouter()
	if opts.MutationRateLimit > 0 {
		burst := opts.MutationBurst
		if burst <= 0 {
			burst = opts.MutationRateLimit
		}
		rl := middleware.NewRateLimiter(opts.MutationRateLimit, burst, h.log)
		api.Use(rl.Handler)
	}

	api.HandleFunc("/lists", h.createList).Methods(http.MethodPost)
	api.HandleFunc("/lists/{listID}", h.getList).Methods(http.MethodGet)
	api.HandleFunc("/lists/{listID}/items", h.addItem).Methods(http.MethodPost)
	api.HandleFunc("/lists/{listID}/items/{itemID}", h.updateItem).Methods(http.MethodPatch)
	api.HandleFunc("/lists/{listID}/items/{itemID}", h.deleteItem).Methods(http.MethodDelete)
	api.HandleFunc("/lists/{listID}/reset", h.resetList).Methods(http.MethodPost)
	api.HandleFunc("/lists/{listID}/pseudo", h.renamePseudo).Methods(http.MethodPost)

	r.HandleFunc("/ws/lists/{listID}", h.serveWS).Methods(http.MethodGet)
	r.HandleFunc("/health", h.health).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	return r
}

func (h *handler) health(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) createList(w http.ResponseWriter, r *http.Request) {
	l, err := h.app.Lists.CreateList(r.Context())
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, l)
}

func (h *handler) getList(w http.ResponseWriter, r *http.Request) {
	l, err := h.app.Lists.GetList(r.Context(), mux.Vars(r)["listID"])
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, l)
}

func (h *handler) addItem(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Name string `json:"name"`
	}
	if !httputil.DecodeJSON(w, r, &payload) {
		return
	}
	if payload.Name == "" {
		httputil.BadRequest(w, "item name is required")
		return
	}

	it, err := h.app.Lists.AddItem(r.Context(), mux.Vars(r)["listID"], payload.Name)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, it)
}

// updateItem dispatches the PATCH body to the matching coordinator
// operation: a status change is a claim/buy/unclaim, a name change is an
// item rename. current_pseudo identifies the requesting shopper.
func (h *handler) updateItem(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	listID, itemID := vars["listID"], vars["itemID"]

	var payload struct {
		Name          string `json:"name,omitempty"`
		Status        string `json:"status,omitempty"`
		ClaimedBy     string `json:"claimed_by,omitempty"`
		CurrentPseudo string `json:"current_pseudo,omitempty"`
	}
	if !httputil.DecodeJSON(w, r, &payload) {
		return
	}

	pseudo := payload.CurrentPseudo
	if pseudo == "" {
		pseudo = payload.ClaimedBy
	}

	var (
		it  list.Item
		err error
	)
	switch list.Status(payload.Status) {
	case list.StatusClaimed:
		it, err = h.app.Lists.ClaimItem(r.Context(), listID, itemID, pseudo)
	case list.StatusBought:
		it, err = h.app.Lists.BuyItem(r.Context(), listID, itemID, pseudo)
	case list.StatusPending:
		it, err = h.app.Lists.UnclaimItem(r.Context(), listID, itemID, pseudo)
	case "":
		if payload.Name == "" {
			httputil.BadRequest(w, "nothing to update")
			return
		}
		it, err = h.app.Lists.UpdateItemName(r.Context(), listID, itemID, payload.Name, pseudo)
	default:
		httputil.BadRequest(w, "unknown status")
		return
	}
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, it)
}

func (h *handler) deleteItem(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	var payload struct {
		CurrentPseudo string `json:"current_pseudo,omitempty"`
	}
	// The delete body is optional; an unclaimed item needs no pseudo.
	if r.Body != nil && r.ContentLength != 0 {
		if !httputil.DecodeJSON(w, r, &payload) {
			return
		}
	}

	if err := h.app.Lists.DeleteItem(r.Context(), vars["listID"], vars["itemID"], payload.CurrentPseudo); err != nil {
		h.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) resetList(w http.ResponseWriter, r *http.Request) {
	l, err := h.app.Lists.ResetList(r.Context(), mux.Vars(r)["listID"])
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, l)
}

func (h *handler) renamePseudo(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		OldPseudo string `json:"old_pseudo"`
		NewPseudo string `json:"new_pseudo"`
	}
	if !httputil.DecodeJSON(w, r, &payload) {
		return
	}
	if payload.NewPseudo == "" {
		httputil.BadRequest(w, "new_pseudo is required")
		return
	}

	if err := h.app.Lists.RenamePseudo(r.Context(), mux.Vars(r)["listID"], payload.OldPseudo, payload.NewPseudo); err != nil {
		h.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// writeDomainError maps the coordinator's error taxonomy onto HTTP statuses.
func (h *handler) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, list.ErrNotFound):
		httputil.NotFound(w, "list or item not found")
	case errors.Is(err, list.ErrConflict):
		httputil.WriteError(w, http.StatusConflict, "item already claimed or bought by another shopper")
	case errors.Is(err, list.ErrLocked):
		httputil.WriteError(w, StatusLocked, "item is locked by another shopper")
	case errors.Is(err, list.ErrInvalidState):
		httputil.WriteError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		h.log.WithError(err).Error("internal error")
		httputil.InternalError(w, "internal error")
	}
}

package httpapi

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/teamshop/teamshop/internal/app/domain/list"
	"github.com/teamshop/teamshop/internal/app/metrics"
	"github.com/teamshop/teamshop/internal/app/realtime"
	"github.com/teamshop/teamshop/internal/httputil"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Lists are shared by link and carry no credentials; any origin may
	// subscribe, matching the REST surface.
	CheckOrigin: func(*http.Request) bool { return true },
}

// serveWS upgrades the connection and subscribes it to the list's channel
// for the lifetime of the socket. The server→client direction carries the
// event stream; inbound traffic is drained and discarded.
func (h *handler) serveWS(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["listID"]

	if _, err := h.app.Lists.GetList(r.Context(), code); err != nil {
		if errors.Is(err, list.ErrNotFound) {
			httputil.NotFound(w, "list not found")
			return
		}
		httputil.InternalError(w, "internal error")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		h.log.WithError(err).Debug("websocket upgrade failed")
		return
	}

	session := realtime.NewSession(conn, h.log)
	h.app.Registry.Subscribe(code, session)
	metrics.SessionOpened()
	h.log.WithField("list_id", code).Debug("session connected")

	session.Run()

	h.app.Registry.Unsubscribe(session)
	metrics.SessionClosed()
	h.log.WithField("list_id", code).Debug("session disconnected")
}

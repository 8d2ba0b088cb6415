package realtime

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/teamshop/teamshop/pkg/logger"
)

const (
	// sendBuffer bounds the per-session outbound queue. A session that
	// falls this far behind is dropped rather than allowed to stall
	// fan-out for its siblings.
	sendBuffer = 64

	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	maxInboundMessage = 512
)

// Session is one live WebSocket connection subscribed to one list channel.
// All writes go through a buffered channel drained by a dedicated write
// pump; the hub only ever performs non-blocking sends into that buffer.
type Session struct {
	conn *websocket.Conn
	log  *logger.Logger

	send chan []byte
	done chan struct{}
	once sync.Once
}

var _ Subscriber = (*Session)(nil)

// NewSession wraps an upgraded connection.
func NewSession(conn *websocket.Conn, log *logger.Logger) *Session {
	if log == nil {
		log = logger.NewDefault("session")
	}
	return &Session{
		conn: conn,
		log:  log,
		send: make(chan []byte, sendBuffer),
		done: make(chan struct{}),
	}
}

// Send queues a serialized event without blocking. It reports false when the
// session is closed or its buffer is full; a full buffer closes the session,
// since a consumer that far behind will never see a consistent stream again.
func (s *Session) Send(msg []byte) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.send <- msg:
		return true
	default:
		s.Close()
		return false
	}
}

// Run services the connection and blocks until it is torn down, either by
// the peer disconnecting or by Close. The caller is responsible for
// registry subscription around Run.
func (s *Session) Run() {
	go s.writePump()
	s.readPump()
}

// Close tears the session down. Safe to call from any goroutine, repeatedly.
func (s *Session) Close() {
	s.once.Do(func() {
		close(s.done)
		s.conn.Close()
	})
}

// readPump drains the client→server direction, which carries no protocol
// traffic; its only purpose is detecting disconnects and answering pings.
func (s *Session) readPump() {
	defer s.Close()

	s.conn.SetReadLimit(maxInboundMessage)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.WithError(err).Debug("session read error")
			}
			return
		}
	}
}

func (s *Session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.Close()
	}()

	for {
		select {
		case msg := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-s.done:
			_ = s.conn.WriteMessage(
				websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			)
			return
		}
	}
}

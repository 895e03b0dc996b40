package realtime

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// Server upgrades HTTP requests to websocket subscriptions on a Hub.
type Server struct {
	hub      *Hub
	log      logrus.FieldLogger
	upgrader websocket.Upgrader
}

// NewServer builds a websocket endpoint. With no allowed origins only
// same-origin requests are accepted; "*" accepts any origin.
func NewServer(hub *Hub, log logrus.FieldLogger, allowedOrigins []string) *Server {
	if log == nil {
		log = logrus.StandardLogger()
	}
	s := &Server{
		hub: hub,
		log: log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
	if len(allowedOrigins) > 0 {
		allowed := map[string]bool{}
		for _, o := range allowedOrigins {
			allowed[strings.TrimSpace(o)] = true
		}
		s.upgrader.CheckOrigin = func(r *http.Request) bool {
			return allowed["*"] || allowed[r.Header.Get("Origin")]
		}
	}
	return s
}

// Serve upgrades the connection and subscribes to sessionID before calling
// initial, so no update published after the snapshot is read can be missed.
// It then forwards every hub message until either side goes away.
func (s *Server) Serve(w http.ResponseWriter, r *http.Request, sessionID string, initial func() (Message, error)) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.WithError(err).WithField("session_id", sessionID).Warn("websocket upgrade failed")
		return
	}

	updates, unsubscribe := s.hub.Subscribe(sessionID)
	defer unsubscribe()
	log := s.log.WithField("session_id", sessionID)

	first, err := initial()
	if err != nil {
		log.WithError(err).Warn("websocket initial state failed")
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "state unavailable"))
		_ = conn.Close()
		return
	}
	drainStale(updates)
	log.WithField("subscribers", s.hub.SubscriberCount(sessionID)).Info("websocket subscribed")

	done := make(chan struct{})
	go s.readPump(conn, done, log)
	s.writePump(conn, first, updates, done, log)
	log.Info("websocket closed")
}

// drainStale drops messages queued before the initial snapshot was read; the
// snapshot already reflects them. A closed channel is left for writePump.
func drainStale(updates <-chan Message) {
	for {
		select {
		case _, ok := <-updates:
			if !ok {
				return
			}
		default:
			return
		}
	}
}

// readPump only services control frames; clients drive the session over HTTP.
func (s *Server) readPump(conn *websocket.Conn, done chan<- struct{}, log logrus.FieldLogger) {
	defer close(done)

	conn.SetReadLimit(maxMessageSize)
	if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		log.WithError(err).Warn("failed to set read deadline")
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.WithError(err).Debug("websocket read error")
			}
			return
		}
	}
}

func (s *Server) writePump(conn *websocket.Conn, initial Message, updates <-chan Message, done <-chan struct{}, log logrus.FieldLogger) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		if err := conn.Close(); err != nil {
			log.WithError(err).Debug("failed to close websocket connection")
		}
	}()

	write := func(msg Message) bool {
		if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
			log.WithError(err).Warn("failed to set write deadline")
		}
		if err := conn.WriteJSON(msg); err != nil {
			log.WithError(err).Debug("write json message failed")
			return false
		}
		return true
	}

	if !write(initial) {
		return
	}

	for {
		select {
		case msg, ok := <-updates:
			if !ok {
				_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session closed"))
				return
			}
			if !write(msg) {
				return
			}
		case <-ticker.C:
			if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.WithError(err).Warn("failed to set ping write deadline")
			}
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.WithError(err).Debug("ping failed")
				return
			}
		case <-done:
			return
		}
	}
}

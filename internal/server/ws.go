package server

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"resmon/internal/session"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

const writeTimeout = 5 * time.Second

// wsEvent is the wire form of an engine event. The error text is
// flattened to a string since error values do not marshal.
type wsEvent struct {
	session.Event
	Error string `json:"error,omitempty"`
}

// handleWS streams engine lifecycle events to the client. The
// connection follows the session: when the session reaches a terminal
// state the subscription channel closes and so does the socket. A
// client connected while the engine is idle waits for the next start.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("server.ws.upgrade_failed", "WebSocket upgrade failed", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	defer conn.Close()

	events, cancel := s.engine.Subscribe()
	defer cancel()

	s.logger.Debug("server.ws.connected", "WebSocket client connected", map[string]interface{}{
		"remote": r.RemoteAddr,
	})

	// Drain reads so client close frames are processed; disconnect
	// tears down the subscription.
	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				deadline := time.Now().Add(writeTimeout)
				conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session ended"), deadline)
				return
			}
			out := wsEvent{Event: ev}
			if ev.Err != nil {
				out.Error = ev.Err.Error()
			}
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteJSON(out); err != nil {
				s.logger.Debug("server.ws.write_failed", "WebSocket write failed, dropping client", map[string]interface{}{
					"error": err.Error(),
				})
				return
			}
		case <-readDone:
			return
		}
	}
}

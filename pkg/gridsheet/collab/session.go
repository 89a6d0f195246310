package collab

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.alis.build/alog"
)

const (
	writeWait = 10 * time.Second

	pongWait = 60 * time.Second

	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 64 * 1024
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// session is a middleman between a websocket connection and the hub.
type session struct {
	hub  *Hub
	conn *websocket.Conn
	sub  *Subscriber
}

// ServeWS upgrades the request and attaches the connection to docID until
// either side closes it. It blocks for the lifetime of the connection.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, docID string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		alog.Warnf(r.Context(), "collab: upgrade for %s failed: %v", docID, err)
		return
	}
	// The request context ends when the handler returns, so the
	// connection gets its own.
	ctx := context.WithoutCancel(r.Context())
	s := &session{hub: h, conn: conn, sub: h.Subscribe(ctx, docID)}
	go s.writePump(ctx)
	s.readPump(ctx)
}

// readPump relays frames from the connection to the hub. It unsubscribes
// when the connection fails or closes, which in turn stops writePump.
func (s *session) readPump(ctx context.Context) {
	defer func() {
		s.hub.Unsubscribe(ctx, s.sub)
		s.conn.Close()
	}()
	s.conn.SetReadLimit(maxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error { s.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })

	for {
		_, message, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				alog.Warnf(ctx, "collab: read from %s: %v", s.sub.Name(), err)
			}
			return
		}
		if err := s.hub.Receive(ctx, s.sub, message); err != nil {
			alog.Debugf(ctx, "collab: ignoring frame from %s: %v", s.sub.Name(), err)
		}
	}
}

// writePump writes queued frames to the connection, one websocket message
// per frame, and keeps it alive with pings.
func (s *session) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case message, ok := <-s.sub.Frames():
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				alog.Debugf(ctx, "collab: write to %s: %v", s.sub.Name(), err)
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

package api

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/coregx/relay/model"
)

// writeTimeout bounds a single event write; a peer that cannot keep up is
// treated as failed and cleaned up through the read loop.
const writeTimeout = 10 * time.Second

// wsSubscriber adapts a websocket connection to the relay.Handle contract.
// Writes are serialized with a mutex since fan-out and the open event may
// arrive from different goroutines.
type wsSubscriber struct {
	id   string
	conn *websocket.Conn
	mu   sync.Mutex
}

func newWSSubscriber(conn *websocket.Conn) *wsSubscriber {
	return &wsSubscriber{
		id:   uuid.NewString(),
		conn: conn,
	}
}

// Send delivers one wire record to the peer.
func (s *wsSubscriber) Send(ev model.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return s.conn.WriteJSON(ev)
}

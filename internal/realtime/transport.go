package realtime

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Transport is the session's outbound side. Implementations must be safe
// for use from the session loop and the control-command reader.
type Transport interface {
	WriteJSON(v any) error
	Close() error
}

// WSTransport wraps a gorilla connection with a write mutex; gorilla allows
// only one concurrent writer.
type WSTransport struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func NewWSTransport(conn *websocket.Conn) *WSTransport {
	return &WSTransport{conn: conn}
}

func (t *WSTransport) WriteJSON(v any) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.conn.WriteJSON(v)
}

// Ping sends a WebSocket-level ping; the client's pong refreshes liveness.
func (t *WSTransport) Ping(deadline time.Duration) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(deadline))
}

func (t *WSTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.conn.Close()
}

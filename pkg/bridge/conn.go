package bridge

import (
	"sync"

	"github.com/gorilla/websocket"
)

// Conn is one live, message-oriented channel to a client. Implementations
// must tolerate concurrent Send calls.
type Conn interface {
	Send(data []byte) error
	Close() error
}

// WSConn adapts a gorilla websocket connection to the Conn interface.
// gorilla allows only one concurrent writer, so sends are serialized.
type WSConn struct {
	mu sync.Mutex
	ws *websocket.Conn
}

// NewWSConn wraps an upgraded websocket connection.
func NewWSConn(ws *websocket.Conn) *WSConn {
	return &WSConn{ws: ws}
}

func (c *WSConn) Send(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ws.WriteMessage(websocket.TextMessage, data)
}

func (c *WSConn) Close() error {
	return c.ws.Close()
}

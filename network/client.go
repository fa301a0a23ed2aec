package network

import (
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	maxMessageSize = 1024
	pongWait       = 60 * time.Second
	pingInterval   = 25 * time.Second
	writeWait      = 10 * time.Second
)

var errClosed = errors.New("connection closed")

// wsClient adapts one gorilla connection to the room.Conn capability. Sends
// go through a buffered channel; a slow consumer drops frames rather than
// stalling the room's tick.
type wsClient struct {
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
}

func newWSClient(conn *websocket.Conn) *wsClient {
	return &wsClient{
		conn: conn,
		send: make(chan []byte, 256),
		done: make(chan struct{}),
	}
}

func (c *wsClient) Send(b []byte) error {
	select {
	case <-c.done:
		return errClosed
	case c.send <- b:
		return nil
	default:
		return nil // buffer full, drop the frame
	}
}

func (c *wsClient) Close() error {
	c.once.Do(func() { close(c.done) })
	return c.conn.Close()
}

// Alive reports whether the connection has not been closed yet.
func (c *wsClient) Alive() bool {
	select {
	case <-c.done:
		return false
	default:
		return true
	}
}

// writePump drains the send channel and keeps the connection alive with
// pings. Exits on the first write error or on Close.
func (c *wsClient) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case b := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, b); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			deadline := time.Now().Add(time.Second)
			if err := c.conn.SetWriteDeadline(deadline); err == nil {
				_ = c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			}
			return
		}
	}
}

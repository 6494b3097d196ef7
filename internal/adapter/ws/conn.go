package ws

import (
	"sync"

	"github.com/coder/websocket"

	"github.com/corkboard/corkboard/internal/domain/user"
)

// conn wraps one live WebSocket connection. It satisfies broadcast.Conn:
// the router hands it marshaled frames through a bounded queue and a single
// writer goroutine drains the queue to the socket, so slow readers never
// block a broadcast.
type conn struct {
	id   string
	user user.Public
	ws   *websocket.Conn

	send chan []byte
	done chan struct{}
	once sync.Once
}

func newConn(id string, u user.Public, ws *websocket.Conn, queueSize int) *conn {
	return &conn{
		id:   id,
		user: u,
		ws:   ws,
		send: make(chan []byte, queueSize),
		done: make(chan struct{}),
	}
}

func (c *conn) ID() string       { return c.id }
func (c *conn) UserID() string   { return c.user.ID }
func (c *conn) UserName() string { return c.user.Name }

// Enqueue hands a frame to the writer without blocking. It reports false
// when the queue is full; a closing connection swallows frames instead.
func (c *conn) Enqueue(frame []byte) bool {
	select {
	case <-c.done:
		return true
	default:
	}
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

// Kick closes the connection with a policy-violation status. Idempotent.
func (c *conn) Kick(reason string) {
	c.close(websocket.StatusPolicyViolation, reason)
}

func (c *conn) close(status websocket.StatusCode, reason string) {
	c.once.Do(func() {
		close(c.done)
		if c.ws != nil {
			_ = c.ws.Close(status, reason)
		}
	})
}

// Package broadcast defines the port between the live-event layer and the
// transport that delivers frames to connected clients.
package broadcast

import "time"

// Event is the wire envelope for every server-to-client message.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// Meta rides inside every mutation payload so clients can discard their own
// echo even if it reaches a second open tab of the same user.
type Meta struct {
	UserID    string    `json:"userId"`
	Timestamp time.Time `json:"timestamp"`
}

// Conn is one live client connection the router can address. Enqueue is
// non-blocking: it reports false when the connection's bounded send queue is
// full, in which case the connection is considered too slow to keep.
// Delivery is at-most-once and best-effort.
type Conn interface {
	// ID uniquely identifies this connection. A user with several open tabs
	// holds several distinct IDs.
	ID() string

	// UserID identifies the authenticated user behind the connection.
	UserID() string

	// UserName returns the display name used in presence payloads.
	UserName() string

	// Enqueue hands a marshaled frame to the connection's writer.
	Enqueue(frame []byte) bool

	// Kick closes the connection with the given reason.
	Kick(reason string)
}

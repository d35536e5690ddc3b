package hub

import "sync/atomic"

const sendBuffer = 256

// Client is one live connection. Outbound events queue on a buffered channel
// drained by a single write pump, which keeps per-connection delivery FIFO.
// A full buffer means a slow or dead consumer: the event is dropped rather
// than blocking the emitter.
type Client struct {
	send   chan []byte
	userID string
	rooms  map[string]bool
	closed int32
}

func NewClient() *Client {
	return &Client{
		send:  make(chan []byte, sendBuffer),
		rooms: make(map[string]bool),
	}
}

// UserID returns the id the connection is registered under, or "".
func (c *Client) UserID() string {
	return c.userID
}

// Outbound is drained by the transport's write pump. The channel is closed
// on disconnect.
func (c *Client) Outbound() <-chan []byte {
	return c.send
}

// Send queues one frame for this connection only. It reports false when the
// connection is closed or its buffer is full.
func (c *Client) Send(b []byte) bool {
	return c.trySend(b)
}

func (c *Client) trySend(b []byte) bool {
	if atomic.LoadInt32(&c.closed) == 1 {
		return false
	}
	select {
	case c.send <- b:
		return true
	default:
		return false
	}
}

func (c *Client) closeSend() {
	if atomic.CompareAndSwapInt32(&c.closed, 0, 1) {
		close(c.send)
	}
}

package core

import "sync"

// Client is the connection handle the core fans events out to.
// It is owned by the transport, which drains Events and calls Close.
type Client struct {
	ID     string
	Addr   string
	Events chan *Event

	mu     sync.RWMutex
	closed bool
}

// NewClient constructs a client with a buffered outbound queue.
func NewClient(id, addr string, buffer int) *Client {
	if buffer <= 0 {
		buffer = 64
	}
	return &Client{
		ID:     id,
		Addr:   addr,
		Events: make(chan *Event, buffer),
	}
}

// TrySend queues ev without blocking.
func (c *Client) TrySend(ev *Event) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrClientClosed
	}
	select {
	case c.Events <- ev:
		return nil
	default:
		return ErrOutboundOverflow
	}
}

// Close stops further delivery and closes Events. Safe to call more than once.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.Events)
}

// Closed reports whether Close has been called.
func (c *Client) Closed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

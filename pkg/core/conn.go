package core

import (
	"context"
)

// OpenFunc acquires the native handle backing a connection.
type OpenFunc[H any] func(ctx context.Context) (H, error)

// CloseFunc releases a handle previously returned by an OpenFunc.
// It is only ever called with a handle that is currently held.
type CloseFunc[H any] func(h H) error

// Conn is the lifecycle state machine shared by every adapter. It holds at
// most one native handle of type H and moves between two states:
//
//	Unconnected --Connect--> Connected --Disconnect--> Unconnected
//
// Connect while Connected and Disconnect while Unconnected are no-ops, so the
// underlying resource is acquired and released exactly once per cycle.
//
// Conn is not safe for concurrent use.
type Conn[H any] struct {
	handle    H
	connected bool
	open      OpenFunc[H]
	close     CloseFunc[H]
}

// NewConn creates an unconnected Conn. close may be nil when the handle
// owns no releasable resource.
func NewConn[H any](open OpenFunc[H], close CloseFunc[H]) *Conn[H] {
	return &Conn[H]{open: open, close: close}
}

// Connect acquires the handle unless one is already held.
func (c *Conn[H]) Connect(ctx context.Context) error {
	if c.connected {
		return nil
	}
	h, err := c.open(ctx)
	if err != nil {
		return err
	}
	c.handle = h
	c.connected = true
	return nil
}

// Disconnect releases the held handle, if any. The state returns to
// Unconnected even when the release reports an error.
func (c *Conn[H]) Disconnect() error {
	if !c.connected {
		return nil
	}
	var err error
	if c.close != nil {
		err = c.close(c.handle)
	}
	var zero H
	c.handle = zero
	c.connected = false
	return err
}

// Handle returns the held handle, or the zero value of H when unconnected.
func (c *Conn[H]) Handle() H {
	return c.handle
}

// IsConnected reports whether a handle is held.
func (c *Conn[H]) IsConnected() bool {
	return c.connected
}

/*
 * Copyright (c) 2024, NVIDIA CORPORATION. All rights reserved.
 */
package protocol

import (
	"sync"

	"github.com/ten-framework/ten-go/cmn"
	"github.com/ten-framework/ten-go/msg"
)

// Connection wraps one established inbound Protocol instance plus its
// migration state. Before Migrate runs, inbound messages are
// buffered and no extension can see the connection; Migrate moves
// ownership to the engine thread atomically and replays whatever arrived
// in the interim, in order. The exact intermediate states of migration
// are an implementation detail, so this collapses the original's
// three-step handshake into one synchronous call.
type Connection struct {
	proto Protocol

	mu       sync.Mutex
	migrated bool
	buffered []msg.Message
	deliver  func(m msg.Message)
	onClosed func(err error)
	closed   bool
}

// NewConnection wraps an already-accepted Protocol instance (role
// Communication). It lives "on the app thread" (i.e. whatever goroutine
// owns the listener) until Migrate is called.
func NewConnection(p Protocol) *Connection {
	c := &Connection{proto: p}
	p.SetCallbacks(Callbacks{OnMessage: c.onProtoMessage, OnClosed: c.onProtoClosed})
	return c
}

func (c *Connection) onProtoMessage(m msg.Message) {
	c.mu.Lock()
	if !c.migrated {
		c.buffered = append(c.buffered, m)
		c.mu.Unlock()
		return
	}
	deliver := c.deliver
	c.mu.Unlock()
	deliver(m)
}

func (c *Connection) onProtoClosed(err error) {
	c.mu.Lock()
	c.closed = true
	cb := c.onClosed
	c.mu.Unlock()
	if cb != nil {
		cb(err)
	}
}

// Migrate atomically hands this connection's ownership to deliver (run on
// the engine thread going forward) and replays any messages buffered while
// the connection's target graph was still being resolved. Before this
// call, no extension sees the connection.
func (c *Connection) Migrate(deliver func(m msg.Message), onClosed func(err error)) {
	c.mu.Lock()
	c.migrated = true
	c.deliver = deliver
	c.onClosed = onClosed
	buffered := c.buffered
	c.buffered = nil
	c.mu.Unlock()
	for _, m := range buffered {
		deliver(m)
	}
}

func (c *Connection) IsMigrated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.migrated
}

// Send writes m out over this connection's protocol instance.
func (c *Connection) Send(m msg.Message) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return cmn.NewError(cmn.ProtocolError, "connection: send on closed connection")
	}
	c.mu.Unlock()
	return c.proto.Send(m)
}

// Close closes the underlying protocol instance (part of the close cascade).
func (c *Connection) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()
	return c.proto.Close()
}

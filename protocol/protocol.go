// Package protocol implements the protocol/connection/remote seam:
// concrete wire protocols (msgpack, HTTP) are out of scope and consumed
// only through the Protocol trait below; this package owns the
// role-tagged instance lifecycle, inbound Connection migration, and
// outbound Remote dedup the engine actually drives.
//
// Grounded directly on transport/api.go (a Stream type with a fixed role,
// its own send goroutine reading workCh, and a completion callback) and
// transport/bundle/stream_bundle.go (one bundle per destination, dedup by
// target, generalized here into "one Remote per app_uri, one Protocol
// instance, dedup by uri").
/*
 * Copyright (c) 2024, NVIDIA CORPORATION. All rights reserved.
 */
package protocol

import (
	"github.com/ten-framework/ten-go/msg"
)

// Role is a protocol instance's fixed purpose: each protocol instance has
// a fixed role, Listen, Communication, or Client.
type Role int

const (
	RoleListen Role = iota
	RoleCommunication
	RoleClient
)

func (r Role) String() string {
	switch r {
	case RoleListen:
		return "listen"
	case RoleCommunication:
		return "communication"
	case RoleClient:
		return "client"
	default:
		return "unknown"
	}
}

// Callbacks are the inbound notifications a Protocol implementation
// drives: on_message(msg), on_closed(). Set once at construction by
// whoever owns the Protocol (Connection or Remote).
type Callbacks struct {
	OnMessage func(m msg.Message)
	OnClosed  func(err error)
}

// Listener is returned by Protocol.Listen; Accept yields newly inbound
// Protocol instances (role Communication) as they connect.
type Listener interface {
	Accept() (Protocol, error)
	Close() error
	URI() string
}

// Protocol is the trait the core treats every concrete wire protocol as.
// The engine never calls transport-specific methods — only these.
type Protocol interface {
	Role() Role
	URI() string
	Send(m msg.Message) error
	Close() error
	SetCallbacks(cb Callbacks)
}

// Addon is the factory surface a protocol registers under the addon
// registry (addon.KindProtocol): Listen for inbound, Connect for outbound.
type Addon interface {
	Scheme() string
	Listen(uri string) (Listener, error)
	Connect(uri string) (Protocol, error)
}

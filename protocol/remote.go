// Remote represents the outbound side to a named app_uri. Concurrent
// lazy construction for the same uri is deduped with x/sync/singleflight,
// generalizing the teacher's stream_bundle dedup-by-target from "one bundle
// per destination" to "one in-flight dial per uri."
/*
 * Copyright (c) 2024, NVIDIA CORPORATION. All rights reserved.
 */
package protocol

import (
	"sync"

	"github.com/ten-framework/ten-go/cmn"
	"github.com/ten-framework/ten-go/cmn/nlog"
	"github.com/ten-framework/ten-go/msg"
	"golang.org/x/sync/singleflight"
)

// Remote owns exactly one Protocol instance to a given app_uri: duplicate
// remotes to the same uri are deduplicated.
type Remote struct {
	URI   string
	proto Protocol

	mu     sync.Mutex
	closed bool
}

func newRemote(uri string, p Protocol, onClosed func(uri string, err error)) *Remote {
	r := &Remote{URI: uri, proto: p}
	p.SetCallbacks(Callbacks{
		OnMessage: func(m msg.Message) { nlog.Warningf("remote %s: unexpected inbound on outbound-only protocol", uri) },
		OnClosed: func(err error) {
			r.mu.Lock()
			r.closed = true
			r.mu.Unlock()
			onClosed(uri, err)
		},
	})
	return r
}

func (r *Remote) Send(m msg.Message) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return cmn.NewError(cmn.ProtocolError, "remote %s: send on closed remote", r.URI)
	}
	r.mu.Unlock()
	return r.proto.Send(m)
}

func (r *Remote) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	r.mu.Unlock()
	return r.proto.Close()
}

// Manager owns the engine's uri -> Remote map plus lazy, deduped
// construction via the protocol addon registry.
type Manager struct {
	mu      sync.Mutex
	remotes map[string]*Remote
	sf      singleflight.Group

	// Dial resolves a uri to a freshly connected Protocol instance, e.g.
	// by looking up a registered protocol addon for the uri's scheme: if
	// the uri is a known URI scheme with a registered protocol addon, a
	// remote is constructed lazily. Wired by the engine.
	Dial func(uri string) (Protocol, error)

	// OnRemoteClosed is invoked after a remote drops out of the map, e.g.
	// a transport break: this yields a CmdResult(ProtocolError) for every
	// outstanding command through that remote and removes the remote
	// from the engine's map.
	OnRemoteClosed func(uri string, err error)
}

func NewManager() *Manager {
	return &Manager{remotes: make(map[string]*Remote)}
}

// Get returns the Remote for uri, constructing and dialing it lazily (and
// exactly once across concurrent callers) on miss.
func (m *Manager) Get(uri string) (*Remote, error) {
	m.mu.Lock()
	if r, ok := m.remotes[uri]; ok {
		m.mu.Unlock()
		return r, nil
	}
	m.mu.Unlock()

	v, err, _ := m.sf.Do(uri, func() (any, error) {
		if m.Dial == nil {
			return nil, cmn.NewError(cmn.Generic, "remote: no dialer configured")
		}
		p, err := m.Dial(uri)
		if err != nil {
			return nil, err
		}
		r := newRemote(uri, p, m.remoteClosed)
		m.mu.Lock()
		m.remotes[uri] = r
		m.mu.Unlock()
		nlog.Infof("remote %s: connected", uri)
		return r, nil
	})
	if err != nil {
		return nil, cmn.Wrap(cmn.ProtocolError, err, "remote %s: dial failed", uri)
	}
	return v.(*Remote), nil
}

func (m *Manager) remoteClosed(uri string, err error) {
	m.mu.Lock()
	delete(m.remotes, uri)
	cb := m.OnRemoteClosed
	m.mu.Unlock()
	nlog.Warningf("remote %s: closed: %v", uri, err)
	if cb != nil {
		cb(uri, err)
	}
}

// All returns a snapshot of currently live remotes, for close cascades.
func (m *Manager) All() []*Remote {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Remote, 0, len(m.remotes))
	for _, r := range m.remotes {
		out = append(out, r)
	}
	return out
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.remotes)
}

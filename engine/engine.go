// Package engine implements the per-graph runtime: the event loop,
// extension-group driver, start/stop-graph state machine, routing table,
// and close cascade.
//
// Grounded on transport/bundle/stream_bundle.go's fan-out dispatch (resolve
// a destination set, hand each its own outbound queue) and xact/xreg's
// renew/abort/cleanup flow, generalized from "one xaction kind" to "one
// engine, many extension groups, one routing table."
/*
 * Copyright (c) 2024, NVIDIA CORPORATION. All rights reserved.
 */
package engine

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/ten-framework/ten-go/addon"
	"github.com/ten-framework/ten-go/cmn"
	"github.com/ten-framework/ten-go/cmn/nlog"
	"github.com/ten-framework/ten-go/extension"
	"github.com/ten-framework/ten-go/extgroup"
	"github.com/ten-framework/ten-go/graphdef"
	"github.com/ten-framework/ten-go/hk"
	"github.com/ten-framework/ten-go/msg"
	"github.com/ten-framework/ten-go/msgconv"
	"github.com/ten-framework/ten-go/pathstore"
	"github.com/ten-framework/ten-go/protocol"
	"github.com/ten-framework/ten-go/stats"
	"github.com/ten-framework/ten-go/tenv"
)

// State is the engine-level close/run lifecycle: constructed ->
// start-graph processed -> running -> closing -> closed -> destroyed.
type State int32

const (
	StateConstructed State = iota
	StateRunning
	StateClosing
	StateClosed
)

// edgeKey indexes the routing table by (source extension, msg type, name):
// graph connections keyed by (source, msg_type, name).
type edgeKey struct {
	source string
	mtype  msg.Type
	name   string
}

// Engine owns one graph: its groups, routing table, remotes map, and
// aggregate close state.
type Engine struct {
	ID      string
	Runloop *tenv.Runloop

	mu     sync.Mutex
	groups map[string]*extgroup.Group
	graph  *graphdef.Graph
	edges  map[edgeKey][]extension.RouteEntry

	Remotes *protocol.Manager
	RootIn  *pathstore.Store // path store for commands this engine itself issues/receives without an owning extension (e.g. client-facing start_graph/stop_graph/close_app)

	state  atomic.Int32
	closer sync.Once

	// CreateExtension builds one extension instance via the addon
	// registry (wired by app); exposed so test code can stub it.
	CreateExtension func(e *Engine, node graphdef.Node, groupName string) (*extension.Extension, error)

	Stats *stats.Collector
}

// New constructs an idle Engine. The caller must go e.Runloop.Run() before
// dispatching any command.
func New(id string, st *stats.Collector) *Engine {
	e := &Engine{
		ID:      id,
		Runloop: tenv.NewRunloop(0),
		groups:  make(map[string]*extgroup.Group),
		edges:   make(map[edgeKey][]extension.RouteEntry),
		Remotes: protocol.NewManager(),
		RootIn:  pathstore.New(0),
		Stats:   st,
	}
	e.RootIn.SetStats(id+":root", st)
	e.CreateExtension = defaultCreateExtension
	e.Remotes.OnRemoteClosed = e.onRemoteClosed
	if st != nil {
		hk.Reg("engine-stats-"+id+hk.NameSuffix, e.sampleStats, cmn.GCO.Get().TelemetrySampleInterval)
	}
	return e
}

// sampleStats publishes every owned store's outstanding-path gauge on
// cmn.Config.TelemetrySampleInterval, rather than on every Add/Resolve
// call.
func (e *Engine) sampleStats() time.Duration {
	if e.IsClosed() {
		return hk.UnregInterval
	}
	e.RootIn.SampleStats()
	for _, name := range e.groupNames() {
		g, ok := e.Group(name)
		if !ok {
			continue
		}
		for _, ext := range g.Extensions() {
			ext.InStore.SampleStats()
			ext.OutStore.SampleStats()
		}
	}
	return cmn.GCO.Get().TelemetrySampleInterval
}

func (e *Engine) State() State { return State(e.state.Load()) }
func (e *Engine) setState(s State) { e.state.Store(int32(s)) }

func (e *Engine) IsClosing() bool { return e.State() >= StateClosing }

// Group returns the named group, if any.
func (e *Engine) Group(name string) (*extgroup.Group, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	g, ok := e.groups[name]
	return g, ok
}

func (e *Engine) groupNames() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, 0, len(e.groups))
	for n := range e.groups {
		out = append(out, n)
	}
	return out
}

// findExtension locates an extension anywhere in this engine's groups by
// instance name (location resolution assumes unique extension names
// within a graph).
func (e *Engine) findExtension(name string) (*extension.Extension, bool) {
	e.mu.Lock()
	groups := make([]*extgroup.Group, 0, len(e.groups))
	for _, g := range e.groups {
		groups = append(groups, g)
	}
	e.mu.Unlock()
	for _, g := range groups {
		if ext, ok := g.Extension(name); ok {
			return ext, true
		}
	}
	return nil, false
}

// Send implements the routing algorithm: resolve destinations, apply
// message conversion per edge, track correlatable outbound paths, enqueue.
func (e *Engine) Send(m msg.Message) error {
	if e.IsClosing() {
		return cmn.NewError(cmn.TenIsClosed, "engine %s: closing, message %q rejected", e.ID, m.Name())
	}

	dests := m.Dest()
	if len(dests) == 0 && m.Type() == msg.TypeCmd {
		// Only when no dest is explicit, resolve via the source
		// extension's cached routing table.
		if rs, ok := e.routesFor(m.Src().ExtensionName, m.Type(), m.Name()); ok {
			for _, r := range rs {
				if err := e.routeOne(m, r.Dest, r.ConvRule); err != nil {
					nlog.Warningf("engine %s: route %s/%s -> %v failed: %v", e.ID, m.Type(), m.Name(), r.Dest, err)
				}
			}
			return nil
		}
		return cmn.NewError(cmn.MsgNotConnected, "engine %s: no destination for cmd %q from %q", e.ID, m.Name(), m.Src().ExtensionName)
	}

	for _, d := range dests {
		if err := e.routeOne(m, d, nil); err != nil {
			nlog.Warningf("engine %s: route to %+v failed: %v", e.ID, d, err)
			if m.Type() == msg.TypeCmd {
				return err
			}
		}
	}
	return nil
}

func (e *Engine) routesFor(extName string, mtype msg.Type, name string) ([]extension.RouteEntry, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	rs, ok := e.edges[edgeKey{extName, mtype, name}]
	return rs, ok
}

// routeOne resolves a single destination: local extension, or remote app
// via the uri, applies conv (if any), registers an Out path for
// correlatable sends, and enqueues.
func (e *Engine) routeOne(m msg.Message, dest msg.Location, conv any) error {
	out := m
	if conv != nil {
		rule, _ := conv.(*msgconv.Rule)
		converted, err := msgconv.Apply(rule, m)
		if err != nil {
			return err
		}
		out = converted
	}

	if !dest.IsLocalApp() {
		return e.sendRemote(out, dest)
	}

	ext, ok := e.findExtension(dest.ExtensionName)
	if !ok {
		return cmn.NewError(cmn.MsgNotConnected, "engine %s: unknown destination extension %q", e.ID, dest.ExtensionName)
	}

	if out.Type().IsCorrelatable() && out.Type() != msg.TypeCmdResult {
		src := out.Src()
		if srcExt, ok := e.findExtension(src.ExtensionName); ok {
			p := pathstore.NewPath(out.CmdID(), pathstore.KindOut, out.Type(), out.Name(), src, dest, 0, func(result msg.Message) {
				e.deliverResultTo(srcExt, result)
			})
			_ = srcExt.OutStore.Add(p)
		}
	}

	if e.Stats != nil {
		e.Stats.ObserveRouted(out.Type().String())
	}
	return ext.Deliver(out)
}

// deliverResultTo hands a (real or synthesised-timeout) result back to the
// extension that is waiting on it, on its own thread.
func (e *Engine) deliverResultTo(ext *extension.Extension, result msg.Message) {
	ext.Deliver(result)
}

func (e *Engine) sendRemote(m msg.Message, dest msg.Location) error {
	r, err := e.Remotes.Get(dest.AppURI)
	if err != nil {
		return err
	}
	if e.Stats != nil {
		e.Stats.ObserveRouted("remote:" + m.Type().String())
	}
	return r.Send(m)
}

// Resolve delivers an inbound CmdResult to the out-store of every local
// extension named in its dest list, where it is matched by cmd_id; a
// result with no dest goes to RootIn.
func (e *Engine) Resolve(result msg.Message) error {
	dests := result.Dest()
	if len(dests) == 0 {
		return e.RootIn.Resolve(result)
	}
	for _, d := range dests {
		ext, ok := e.findExtension(d.ExtensionName)
		if !ok {
			continue
		}
		_ = ext.OutStore.Resolve(result)
	}
	return nil
}

// onRemoteClosed handles a transport or remote error by yielding a
// CmdResult(ProtocolError) for every outstanding command through that
// remote — a best-effort sweep since this module's path stores are keyed
// by cmd_id, not by remote, so it scans every extension's out-store by
// destination app_uri.
func (e *Engine) onRemoteClosed(uri string, err error) {
	nlog.Errorf("engine %s: remote %s closed: %v", e.ID, uri, err)
	for _, name := range e.groupNames() {
		g, ok := e.Group(name)
		if !ok {
			continue
		}
		for _, ext := range g.Extensions() {
			ext.OutStore.FailAllTo(uri, cmn.ProtocolError)
		}
	}
}

func defaultCreateExtension(e *Engine, node graphdef.Node, groupName string) (*extension.Extension, error) {
	f, ok := addon.Lookup(addon.KindExtension, node.Addon)
	if !ok {
		return nil, cmn.NewError(cmn.InvalidGraph, "engine %s: unregistered addon %q", e.ID, node.Addon)
	}
	g, ok := e.Group(groupName)
	if !ok {
		return nil, cmn.NewError(cmn.Generic, "engine %s: no such group %q", e.ID, groupName)
	}
	inst, err := f.Create(node.Name, e)
	if err != nil {
		return nil, cmn.Wrap(cmn.InvalidGraph, err, "engine %s: addon %q create_instance(%q)", e.ID, node.Addon, node.Name)
	}
	handler, ok := inst.(extension.Handler)
	if !ok {
		return nil, cmn.NewError(cmn.InvalidGraph, "engine %s: addon %q did not produce an extension.Handler", e.ID, node.Addon)
	}
	ext := extension.New(node.Addon, node.Addon, node.Name, groupName, e.ID, handler, g.Runloop, e.Send)
	ext.InStore.SetStats(node.Name+":in", e.Stats)
	ext.OutStore.SetStats(node.Name+":out", e.Stats)
	return ext, nil
}

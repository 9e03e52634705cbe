// Package extgroup implements the extension group: a set of extensions
// that share one runloop thread, aggregating their per-extension lifecycle
// progress into batched Created/Started/Closed events for the owning
// engine.
//
// Grounded on the teacher's registry-aggregates-entries pattern
// (xact/xreg/xreg.go's `entries` type tracking many Renewables) adapted
// from "track many renewables, report global counts" to "track many
// extensions, report when every one has crossed a lifecycle phase."
/*
 * Copyright (c) 2024, NVIDIA CORPORATION. All rights reserved.
 */
package extgroup

import (
	"sync"

	"github.com/ten-framework/ten-go/cmn/nlog"
	"github.com/ten-framework/ten-go/extension"
	"github.com/ten-framework/ten-go/tenv"
)

// State mirrors the group's three observable milestones plus the idle
// state before any extension has been created.
type State int

const (
	StateIdle State = iota
	StateCreated
	StateStarting
	StateStarted
	StateStopping
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCreated:
		return "created"
	case StateStarting:
		return "starting"
	case StateStarted:
		return "started"
	case StateStopping:
		return "stopping"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Group owns a runloop thread and the extensions running on it: no
// extension state is mutated off that thread.
type Group struct {
	Name     string
	EngineID string

	Runloop *tenv.Runloop

	mu         sync.Mutex
	extensions map[string]*extension.Extension
	state      State

	// OnStarted/OnClosed are set by the owning engine, which reports
	// batched progress to it.
	OnStarted func(g *Group)
	OnClosed  func(g *Group)
}

// New constructs a Group with its own Runloop; the caller is responsible
// for running it (go g.Runloop.Run()) before adding extensions.
func New(name, engineID string) *Group {
	return &Group{
		Name:       name,
		EngineID:   engineID,
		Runloop:    tenv.NewRunloop(0),
		extensions: make(map[string]*extension.Extension),
	}
}

// AddExtension registers ext with the group. Must be called before
// BeginCreate, which marks the group Created once every instance has been
// added.
func (g *Group) AddExtension(ext *extension.Extension) {
	g.mu.Lock()
	g.extensions[ext.InstanceName] = ext
	g.mu.Unlock()
	ext.SetOnPhaseDone(g.onExtensionPhase)
}

func (g *Group) Extension(name string) (*extension.Extension, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	e, ok := g.extensions[name]
	return e, ok
}

func (g *Group) Extensions() []*extension.Extension {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]*extension.Extension, 0, len(g.extensions))
	for _, e := range g.extensions {
		out = append(out, e)
	}
	return out
}

// BeginCreate marks the group Created and runs every member's
// BeginConfigure on the group's runloop (the create-instance handshake).
// Each member's Configured ack then chains it through Init and Start in
// onExtensionPhase.
func (g *Group) BeginCreate() {
	g.mu.Lock()
	g.state = StateCreated
	n := len(g.extensions)
	exts := make([]*extension.Extension, 0, n)
	for _, e := range g.extensions {
		exts = append(exts, e)
	}
	g.mu.Unlock()

	for _, e := range exts {
		e := e
		e.Env.Runloop().PostTask(e.BeginConfigure)
	}
}

// BeginStart drives every member through Init then Start.
// OnStarted fires once every extension reaches Started.
func (g *Group) BeginStart() {
	g.mu.Lock()
	g.state = StateStarting
	g.mu.Unlock()
	for _, e := range g.Extensions() {
		e := e
		e.Env.Runloop().PostTask(e.BeginInit)
	}
}

// BeginStop drives every member through Stop then Deinit (the close
// cascade, group level). OnClosed fires once every extension reaches Dead.
func (g *Group) BeginStop() {
	g.mu.Lock()
	g.state = StateStopping
	g.mu.Unlock()
	for _, e := range g.Extensions() {
		e := e
		e.Env.Runloop().PostTask(e.BeginStop)
	}
}

// onExtensionPhase is the per-extension ack callback for group aggregation.
// It decides whether to advance the phase for that one extension (init ->
// start chaining) and whether the whole group has crossed a milestone.
func (g *Group) onExtensionPhase(ext *extension.Extension, phase extension.State) {
	switch phase {
	case extension.StateConfigured:
		// Chain this extension straight into Init; this doesn't
		// require waiting for siblings here since each
		// extension's own phase sequence is independent, only the
		// group-level milestones (Created/Started/Closed) are batched.
		ext.Env.Runloop().PostTask(ext.BeginInit)
	case extension.StateInitialized:
		ext.Env.Runloop().PostTask(ext.BeginStart)
	case extension.StateStarted:
		g.checkAllStarted()
	case extension.StateDeiniting:
		ext.Env.Runloop().PostTask(ext.BeginDeinit)
	case extension.StateDead:
		g.checkAllClosed()
	}
}

func (g *Group) checkAllStarted() {
	g.mu.Lock()
	allStarted := true
	for _, e := range g.extensions {
		if e.State() != extension.StateStarted {
			allStarted = false
			break
		}
	}
	if allStarted {
		g.state = StateStarted
	}
	cb := g.OnStarted
	g.mu.Unlock()
	if allStarted && cb != nil {
		nlog.Infof("extgroup %s: all %d extensions started", g.Name, len(g.extensions))
		cb(g)
	}
}

func (g *Group) checkAllClosed() {
	g.mu.Lock()
	allDead := true
	for _, e := range g.extensions {
		if e.State() != extension.StateDead {
			allDead = false
			break
		}
	}
	if allDead {
		g.state = StateClosed
	}
	cb := g.OnClosed
	g.mu.Unlock()
	if allDead && cb != nil {
		nlog.Infof("extgroup %s: all %d extensions closed", g.Name, len(g.extensions))
		cb(g)
	}
}

func (g *Group) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

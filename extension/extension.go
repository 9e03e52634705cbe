// Package extension implements the per-extension lifecycle state machine
// and routing-table resolution.
//
// Grounded on xact/xreg/xreg.go's Renewable lifecycle interface (a
// user-supplied type with named lifecycle callbacks, driven by a registry
// that tracks its phase) and core/lif.go's state-transition shape,
// generalized from "one xaction, one run" into "five acked phases plus a
// cached routing table."
/*
 * Copyright (c) 2024, NVIDIA CORPORATION. All rights reserved.
 */
package extension

import (
	"sync"

	"github.com/ten-framework/ten-go/cmn"
	"github.com/ten-framework/ten-go/cmn/debug"
	"github.com/ten-framework/ten-go/cmn/nlog"
	"github.com/ten-framework/ten-go/msg"
	"github.com/ten-framework/ten-go/pathstore"
	"github.com/ten-framework/ten-go/tenv"
	"github.com/ten-framework/ten-go/value"
)

// State is one point in the extension lifecycle machine. The two named
// gaps between Configured and Started (the on_init_done / on_start_done
// acks) are split into Initializing/Initialized here since the engine
// must refuse traffic during both, even though the lifecycle as commonly
// described names only the endpoints.
type State int

const (
	StateInit State = iota
	StateConfiguring
	StateConfigured
	StateInitializing
	StateInitialized
	StateStarting
	StateStarted
	StateStopping
	StateDeiniting
	StateDead
)

var stateNames = [...]string{
	StateInit: "init", StateConfiguring: "configuring", StateConfigured: "configured",
	StateInitializing: "initializing", StateInitialized: "initialized",
	StateStarting: "starting", StateStarted: "started",
	StateStopping: "stopping", StateDeiniting: "deiniting", StateDead: "dead",
}

func (s State) String() string { return stateNames[s] }

// Ready reports whether the engine may deliver user messages to an
// extension in this state: delivery is refused until state is Started.
func (s State) Ready() bool { return s == StateStarted }

// Closing reports whether the extension is Stopping or later, in which
// case inbound messages are dropped (commands get ExtensionNotReady).
func (s State) Closing() bool { return s >= StateStopping }

// Handler is user-authored extension business logic: the core does not
// interpret it, only calling it at defined lifecycle/message points and
// requiring it to return promptly, completing asynchronously via the
// matching On*Done ack.
type Handler interface {
	OnConfigure(ext *Extension)
	OnInit(ext *Extension)
	OnStart(ext *Extension)
	OnStop(ext *Extension)
	OnDeinit(ext *Extension)
	OnCmd(ext *Extension, m msg.Message)
	OnData(ext *Extension, m msg.Message)
	OnAudioFrame(ext *Extension, m msg.Message)
	OnVideoFrame(ext *Extension, m msg.Message)
	OnCmdResult(ext *Extension, m msg.Message)
}

// RouteKey indexes the resolved routing table by the outgoing message's
// type and name: one entry per outgoing (msg_type, name) pair.
type RouteKey struct {
	Type msg.Type
	Name string
}

// RouteEntry is one resolved destination for a RouteKey, carrying the
// message-conversion rule (if any) to apply on that edge. ConvRule is
// `any` here to avoid extension depending on msgconv; the engine
// (which owns both) type-asserts it back to *msgconv.Rule.
type RouteEntry struct {
	Dest     msg.Location
	ConvRule any
}

// Extension is the engine's view of one instantiated addon.
type Extension struct {
	AddonType    string
	AddonName    string
	InstanceName string
	GroupName    string
	EngineID     string

	Env   *tenv.Env
	Proxy *tenv.Proxy

	InStore  *pathstore.Store
	OutStore *pathstore.Store

	mu     sync.Mutex
	state  State
	routes map[RouteKey][]RouteEntry

	handler Handler

	// onPhaseDone is invoked by the engine/group layer after each ack
	// fires, to drive group-level aggregation.
	onPhaseDone func(ext *Extension, phase State)

	// sendFn hands an outgoing message to the engine's router; wired by
	// whoever constructs the Extension (the engine's CreateExtension),
	// since extension must not import engine.
	sendFn func(m msg.Message) error
}

// New constructs an Extension bound to runloop: its owning group's
// runloop, since extension state is mutated only on that thread.
func New(addonType, addonName, instanceName, groupName, engineID string, handler Handler, runloop *tenv.Runloop, sendFn func(msg.Message) error) *Extension {
	ext := &Extension{
		AddonType:    addonType,
		AddonName:    addonName,
		InstanceName: instanceName,
		GroupName:    groupName,
		EngineID:     engineID,
		InStore:      pathstore.New(0),
		OutStore:     pathstore.New(0),
		routes:       make(map[RouteKey][]RouteEntry),
		handler:      handler,
		sendFn:       sendFn,
	}
	ext.Env = tenv.New(ext, runloop)
	ext.Proxy = tenv.NewProxy(ext.Env)
	ext.Env.SetLifecycleHooks(
		func() { ext.ack(StateConfigured) },
		func() { ext.ack(StateInitialized) },
		func() { ext.ack(StateStarted) },
		func() { ext.ack(StateDeiniting) }, // on_stop_done -> proceed into Deinit
		func() { ext.ack(StateDead) },
	)
	return ext
}

// Name satisfies tenv.Owner.
func (e *Extension) Name() string { return e.GroupName + "/" + e.InstanceName }

// HandleSend satisfies tenv.Owner: user code posts outbound messages here.
func (e *Extension) HandleSend(m msg.Message) error {
	if m.Src().IsEmpty() {
		m.SetSrc(msg.Location{ExtensionGroupName: e.GroupName, ExtensionName: e.InstanceName})
	}
	return e.sendFn(m)
}

// HandleReturnResult satisfies tenv.Owner: sends result through the
// engine router as an ordinary message. original is not consulted and the
// in-store is not touched; routing relies on result's own dest.
func (e *Extension) HandleReturnResult(result, original msg.Message) error {
	return e.sendFn(result)
}

func (e *Extension) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *Extension) setState(s State) {
	e.mu.Lock()
	e.state = s
	e.mu.Unlock()
}

// SetOnPhaseDone wires the group-aggregation callback.
func (e *Extension) SetOnPhaseDone(fn func(ext *Extension, phase State)) { e.onPhaseDone = fn }

func (e *Extension) ack(next State) {
	e.setState(next)
	nlog.Infof("extension %s: -> %s", e.Name(), next)
	if e.onPhaseDone != nil {
		e.onPhaseDone(e, next)
	}
}

// BeginConfigure starts the Configure phase. Must run on the
// extension's owning thread; the ack arrives later via Env.OnConfigureDone.
func (e *Extension) BeginConfigure() {
	e.setState(StateConfiguring)
	e.handler.OnConfigure(e)
}

func (e *Extension) BeginInit() {
	debug.Assert(e.State() == StateConfigured, "extension: BeginInit from unexpected state")
	e.setState(StateInitializing)
	e.handler.OnInit(e)
}

func (e *Extension) BeginStart() {
	debug.Assert(e.State() == StateInitialized, "extension: BeginStart from unexpected state")
	e.setState(StateStarting)
	e.handler.OnStart(e)
}

// BeginStop transitions to Stopping immediately (it is engine-triggered,
// not ack-triggered — the is_closing mark happens synchronously) then
// invokes the handler; the Deinit transition follows on_stop_done.
func (e *Extension) BeginStop() {
	e.setState(StateStopping)
	e.handler.OnStop(e)
}

func (e *Extension) BeginDeinit() {
	debug.Assert(e.State() == StateDeiniting, "extension: BeginDeinit from unexpected state")
	e.handler.OnDeinit(e)
}

// Deliver posts m onto the extension's owning group runloop as a task, or
// drops it per the readiness rule above. Must be called from the
// engine/router, not directly by user code. Posting (rather than queueing
// into a separate per-extension channel) is what gives mailbox delivery
// its FIFO-per-destination guarantee: the runloop's own task queue is a
// single FIFO channel, and every sender posts directly into it in the
// order it decided to deliver.
func (e *Extension) Deliver(m msg.Message) error {
	st := e.State()
	if st.Closing() {
		if m.Type() == msg.TypeCmd {
			return cmn.NewError(cmn.ExtensionNotReady, "extension %s: not ready (state=%s)", e.Name(), st)
		}
		nlog.Warningf("extension %s: dropping %s %q (state=%s)", e.Name(), m.Type(), m.Name(), st)
		return nil
	}
	e.Env.Runloop().PostTask(func() { e.dispatch(m) })
	return nil
}

// dispatch runs on the owning runloop and hands one message to the
// handler's matching callback (lifecycle/message callbacks run on
// the extension's owning thread). A message that arrives before Started
// (queued while still configuring) is dropped rather than re-queued (a
// command with a warning log), matching the rule that user messages
// aren't delivered until Started.
func (e *Extension) dispatch(m msg.Message) {
	if !e.State().Ready() {
		if m.Type() == msg.TypeCmd {
			nlog.Warningf("extension %s: command %q arrived before Started, dropping", e.Name(), m.Name())
		}
		return
	}
	switch m.Type() {
	case msg.TypeCmd, msg.TypeStartGraph, msg.TypeStopGraph, msg.TypeCloseApp, msg.TypeTimer:
		e.handler.OnCmd(e, m)
	case msg.TypeCmdResult, msg.TypeTimeout:
		e.handler.OnCmdResult(e, m)
	case msg.TypeData:
		e.handler.OnData(e, m)
	case msg.TypeAudioFrame:
		e.handler.OnAudioFrame(e, m)
	case msg.TypeVideoFrame:
		e.handler.OnVideoFrame(e, m)
	}
}

// SetRoutes installs the resolved routing table, cached until the
// extension deinits.
func (e *Extension) SetRoutes(routes map[RouteKey][]RouteEntry) {
	e.mu.Lock()
	e.routes = routes
	e.mu.Unlock()
}

// Resolve looks up the cached routes for (msgType, name).
func (e *Extension) Resolve(msgType msg.Type, name string) ([]RouteEntry, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	rs, ok := e.routes[RouteKey{msgType, name}]
	return rs, ok
}

// GetProperty / SetProperty expose the extension's own property tree,
// distinct from a message's property map.
func (e *Extension) GetProperty(path string) (*value.Value, error) { return e.Env.GetProperty(path) }
func (e *Extension) SetProperty(path string, v *value.Value) error { return e.Env.SetProperty(path, v) }

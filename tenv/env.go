// Env is the thread-affine capability handle held by every extension and
// by the engine/app: every call carries a thread-check, since the call
// must originate from the thread that owns the attached object, and a
// violation is a bug.
//
// Grounded on transport/api.go's goroutine-owns-channel model, generalized
// from "one stream, one send goroutine" to "one owning Runloop per Env."
/*
 * Copyright (c) 2024, NVIDIA CORPORATION. All rights reserved.
 */
package tenv

import (
	"sync"

	"github.com/ten-framework/ten-go/cmn"
	"github.com/ten-framework/ten-go/cmn/debug"
	"github.com/ten-framework/ten-go/cmn/nlog"
	"github.com/ten-framework/ten-go/msg"
	"github.com/ten-framework/ten-go/value"
)

// Owner is whatever object this Env is attached to (app/engine/group/
// extension); the core only needs a name for diagnostics and a callback
// surface the Env dispatches lifecycle acks and sends through.
type Owner interface {
	// Name is used in thread-check diagnostics.
	Name() string
	// HandleSend is invoked on the owner's thread when the owner posts a
	// message via Env.Send ("send(msg)").
	HandleSend(m msg.Message) error
	// HandleReturnResult is invoked when the owner returns a result for a
	// command it previously received ("return_result").
	HandleReturnResult(result msg.Message, original msg.Message) error
}

// Env is never shared across threads: only EnvProxy crosses threads.
type Env struct {
	owner    Owner
	runloop  *Runloop
	mu       sync.RWMutex
	property *value.Value

	onConfigureDone func()
	onInitDone      func()
	onStartDone     func()
	onStopDone      func()
	onDeinitDone    func()

	proxyRefs int // live EnvProxy count; see Release in proxy.go
}

// New attaches an Env to owner, backed by runloop. runloop must already be
// (or about to be) Run by the thread that is to own this Env.
func New(owner Owner, runloop *Runloop) *Env {
	return &Env{owner: owner, runloop: runloop, property: value.NewObject()}
}

// checkThread aborts (debug) or logs (release) on a thread-check
// violation: a violation is a bug, logged in release and asserted in
// debug builds.
func (e *Env) checkThread(op string) {
	if e.runloop.IsOwnerThread() {
		return
	}
	debug.Assertf(false, "tenv: %s called off-thread for %s", op, e.owner.Name())
	nlog.Errorf("tenv: %s called off-thread for %s", op, e.owner.Name())
}

// Send posts m to the routing layer via the owner.
func (e *Env) Send(m msg.Message) error {
	e.checkThread("Send")
	return e.owner.HandleSend(m)
}

// ReturnResult hands result, together with the command it answers, to the
// owner's HandleReturnResult.
func (e *Env) ReturnResult(result, original msg.Message) error {
	e.checkThread("ReturnResult")
	return e.owner.HandleReturnResult(result, original)
}

// GetProperty reads path out of this Env's property tree. Reads clone:
// the caller receives ownership of a fresh Value.
func (e *Env) GetProperty(path string) (*value.Value, error) {
	e.checkThread("GetProperty")
	e.mu.RLock()
	defer e.mu.RUnlock()
	if path == "" {
		return e.property.Clone(), nil
	}
	return e.property.Get(path)
}

// SetProperty moves val into this Env's property tree at path: the same
// move-ownership semantics that apply when a value is set on a message
// apply equally to an Env's own property tree.
func (e *Env) SetProperty(path string, val *value.Value) error {
	e.checkThread("SetProperty")
	e.mu.Lock()
	defer e.mu.Unlock()
	if path == "" {
		e.property = val
		return nil
	}
	return e.property.Set(path, val)
}

// Lifecycle acks: the extension code calls these to signal a phase is
// complete; the engine-side machinery supplies the continuation via the
// On*Done setters below before invoking the matching on_* callback.
func (e *Env) OnConfigureDone() {
	e.checkThread("OnConfigureDone")
	if e.onConfigureDone != nil {
		e.onConfigureDone()
	}
}
func (e *Env) OnInitDone() {
	e.checkThread("OnInitDone")
	if e.onInitDone != nil {
		e.onInitDone()
	}
}
func (e *Env) OnStartDone() {
	e.checkThread("OnStartDone")
	if e.onStartDone != nil {
		e.onStartDone()
	}
}
func (e *Env) OnStopDone() {
	e.checkThread("OnStopDone")
	if e.onStopDone != nil {
		e.onStopDone()
	}
}
func (e *Env) OnDeinitDone() {
	e.checkThread("OnDeinitDone")
	if e.onDeinitDone != nil {
		e.onDeinitDone()
	}
}

// SetLifecycleHooks wires the engine-side continuations invoked by the
// On*Done acks above. Called once during extension setup, on the owning
// thread, before the Env is handed to user code.
func (e *Env) SetLifecycleHooks(onConfigure, onInit, onStart, onStop, onDeinit func()) {
	e.onConfigureDone = onConfigure
	e.onInitDone = onInit
	e.onStartDone = onStart
	e.onStopDone = onStop
	e.onDeinitDone = onDeinit
}

// Runloop exposes the backing Runloop so the owner (engine/group) can post
// mailbox tasks onto it; AddonCreateExtension below is the one path that
// needs err propagation beyond what a proxy Notify closure would support.
func (e *Env) Runloop() *Runloop { return e.runloop }

// AddonCreateExtensionFunc is supplied by the extension layer; kept here as
// a narrow func type so tenv has no import cycle on extension/addon.
type AddonCreateExtensionFunc func(addonName, instanceName string) (any, error)

// AddonCreateExtension delegates to fn on this Env's thread.
func (e *Env) AddonCreateExtension(fn AddonCreateExtensionFunc, addonName, instanceName string) (any, error) {
	e.checkThread("AddonCreateExtension")
	if fn == nil {
		return nil, cmn.NewError(cmn.Generic, "tenv: no addon_create_extension handler wired")
	}
	return fn(addonName, instanceName)
}

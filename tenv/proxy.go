// EnvProxy is Env's cross-thread companion: it holds a counted reference
// to an Env plus a runloop handle, and lets any thread post work
// ("notify") that runs on the Env's owning thread with exclusive access
// to it.
/*
 * Copyright (c) 2024, NVIDIA CORPORATION. All rights reserved.
 */
package tenv

import (
	"sync/atomic"

	"github.com/ten-framework/ten-go/cmn/debug"
)

// Proxy is a counted cross-thread handle onto an Env. Multiple Proxy values
// may reference the same Env; NewProxy and Release bump/drop the shared
// count recorded on the Env itself.
type Proxy struct {
	env      *Env
	released atomic.Bool
}

// NewProxy creates a Proxy onto env, incrementing its live-proxy count.
func NewProxy(env *Env) *Proxy {
	env.mu.Lock()
	env.proxyRefs++
	env.mu.Unlock()
	return &Proxy{env: env}
}

// Notify posts fn to run on the Env's owning thread with exclusive access
// to it. It blocks while the runloop's proxy-task queue is full
// (NewRunloop's depth, cmn.Config.ProxyQueueDepth by default). Ordering:
// FIFO relative to other Notify calls issued from the same source thread;
// unspecified across threads.
func (p *Proxy) Notify(fn func(e *Env)) {
	if p.released.Load() {
		// A Notify through a released Proxy is dropped here, at enqueue
		// time; fn never runs.
		return
	}
	env := p.env
	env.runloop.PostTaskProxy(func() { fn(env) })
}

// NotifySync posts fn and blocks until it has run. Forbidden from the
// Env's own thread: calling it there would deadlock waiting for a
// runloop that can't service the request while blocked on this call.
func (p *Proxy) NotifySync(fn func(e *Env)) {
	debug.Assert(!p.env.runloop.IsOwnerThread(),
		"tenv: NotifySync called from the env's own thread")
	done := make(chan struct{})
	p.Notify(func(e *Env) {
		fn(e)
		close(done)
	})
	<-done
}

// AcquireLockMode pins the env-owning thread to proxy-task-only draining:
// while held, the runloop services only proxy notifies, not ordinary
// mailbox traffic. Used by mock/test code to pin the thread.
func (p *Proxy) AcquireLockMode() { p.env.runloop.AcquireLockMode() }

// ReleaseLockMode resumes ordinary mailbox draining.
func (p *Proxy) ReleaseLockMode() { p.env.runloop.ReleaseLockMode() }

// Release drops this Proxy's reference. Releasing the last live
// reference posts a task to the Env's owning thread; that task runs no
// destructor, as Env has no destructor hook.
func (p *Proxy) Release() {
	if !p.released.CompareAndSwap(false, true) {
		return // already released
	}
	env := p.env
	env.mu.Lock()
	env.proxyRefs--
	last := env.proxyRefs == 0
	env.mu.Unlock()
	if last {
		env.runloop.PostTaskProxy(func() {
			if env.onDeinitDone != nil {
				// Last proxy gone past deinit: nothing further to run here;
				// owners that care about this event should inspect
				// ProxyRefs() after a Release round-trip.
				_ = env
			}
		})
	}
}

// ProxyRefs reports the current live EnvProxy count for diagnostics/tests.
func (e *Env) ProxyRefs() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.proxyRefs
}

// PostTaskProxy enqueues f onto the proxy task queue (EnvProxy notifies),
// distinct from PostTask's ordinary mailbox queue — see Runloop's lock-mode
// handling, which drains only this queue while pinned.
func (r *Runloop) PostTaskProxy(f func()) { r.proxyTasks <- f }

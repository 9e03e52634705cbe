// Package tenv implements the thread-affine environment handle: `Env`, a
// capability handle whose calls must originate from the thread that owns
// the attached object, and `EnvProxy`, its cross-thread companion for
// posting work.
//
// Grounded on transport/api.go's goroutine-owns-channel model (the
// stream's dedicated sender goroutine reading off its own `workCh`)
// generalized from "one stream, one send queue" into "one owning thread,
// a mailbox queue plus a proxy-task queue it also drains."
/*
 * Copyright (c) 2024, NVIDIA CORPORATION. All rights reserved.
 */
package tenv

import (
	"sync/atomic"

	"github.com/ten-framework/ten-go/cmn"
)

// Runloop is the single-goroutine cooperative scheduler backing one Env:
// app, engine, group, and protocol threads are each exactly one of these.
// It processes one task to completion before the next; there is no
// preemption.
type Runloop struct {
	tasks      chan func()
	proxyTasks chan func()
	stopCh     chan struct{}
	lockMode   atomic.Bool
	ownerGoid  atomic.Uint64
	running    atomic.Bool
}

// NewRunloop creates a Runloop whose mailbox and proxy-task queues each
// hold depth tasks. depth<=0 falls back to cmn.GCO's ProxyQueueDepth.
func NewRunloop(depth int) *Runloop {
	if depth <= 0 {
		depth = cmn.GCO.Get().ProxyQueueDepth
	}
	return &Runloop{
		tasks:      make(chan func(), depth),
		proxyTasks: make(chan func(), depth),
		stopCh:     make(chan struct{}),
	}
}

// Run drains tasks until Stop is called. Must be invoked by the goroutine
// that is to become this Runloop's owning thread; every subsequent
// Env/EnvProxy thread-check is relative to the goroutine that called Run.
func (r *Runloop) Run() {
	r.ownerGoid.Store(goroutineID())
	r.running.Store(true)
	defer r.running.Store(false)

	for {
		taskCh := r.tasks
		if r.lockMode.Load() {
			// While lock mode is held, the owning thread drains only
			// proxy tasks, not mailbox traffic.
			taskCh = nil
		}
		select {
		case <-r.stopCh:
			r.drainProxyTasks()
			return
		case f := <-r.proxyTasks:
			f()
		case f := <-taskCh:
			f()
		}
	}
}

// drainProxyTasks runs any proxy tasks still queued at shutdown, so that
// notifies posted before Stop still run on the owning thread.
func (r *Runloop) drainProxyTasks() {
	for {
		select {
		case f := <-r.proxyTasks:
			f()
		default:
			return
		}
	}
}

// Stop terminates Run's loop after draining pending proxy tasks.
func (r *Runloop) Stop() { close(r.stopCh) }

// IsOwnerThread reports whether the calling goroutine is this Runloop's
// owning thread. Valid only once Run has started.
func (r *Runloop) IsOwnerThread() bool {
	return r.running.Load() && goroutineID() == r.ownerGoid.Load()
}

// PostTask enqueues f onto the mailbox task queue: ordinary extension
// traffic, as opposed to EnvProxy notifies, which go through the
// proxy-task queue instead.
func (r *Runloop) PostTask(f func()) { r.tasks <- f }

// AcquireLockMode pins the owning thread to proxy-task-only draining.
func (r *Runloop) AcquireLockMode() { r.lockMode.Store(true) }

// ReleaseLockMode resumes ordinary mailbox draining. A no-op proxy task
// wakes a Run loop parked on the proxy queue alone; when that queue is
// full, the tasks already in it wake the loop instead.
func (r *Runloop) ReleaseLockMode() {
	r.lockMode.Store(false)
	select {
	case r.proxyTasks <- func() {}:
	default:
	}
}

// Close & failure semantics. Close is a two-phase, tri-level protocol
// (extension -> group -> engine); this file implements the engine level
// and the CloseApp built-in command, plus the remote/protocol failure
// cascade.
/*
 * Copyright (c) 2024, NVIDIA CORPORATION. All rights reserved.
 */
package engine

import (
	"github.com/ten-framework/ten-go/cmn"
	"github.com/ten-framework/ten-go/cmn/nlog"
	"github.com/ten-framework/ten-go/extgroup"
	"github.com/ten-framework/ten-go/msg"
)

// CloseApp handles an inbound CloseApp command: starts the close cascade
// and returns ok once it has started — this does not wait for full
// teardown, unlike StopGraph.
func (e *Engine) CloseApp(cmdID string) msg.Message {
	if e.State() != StateClosing && e.State() != StateClosed {
		e.setState(StateClosing)
		go e.closeCascade()
	}
	return msg.NewCmdResult(msg.TypeCloseApp, "close_app", cmdID, 0, true)
}

// closeCascade runs the actual teardown asynchronously: stop every group,
// fail every pending path with AppClosed, close every remote.
func (e *Engine) closeCascade() {
	e.closer.Do(func() {
		nlog.Infof("engine %s: close cascade starting", e.ID)
		for _, name := range e.groupNames() {
			if grp, ok := e.Group(name); ok {
				grp.BeginStop()
			}
		}
		e.RootIn.FailAll(cmn.AppClosed)
		for _, name := range e.groupNames() {
			if grp, ok := e.Group(name); ok {
				for _, ext := range grp.Extensions() {
					ext.OutStore.FailAll(cmn.AppClosed)
					ext.InStore.FailAll(cmn.AppClosed)
				}
			}
		}
		for _, r := range e.Remotes.All() {
			if err := r.Close(); err != nil {
				nlog.Warningf("engine %s: remote %s close: %v", e.ID, r.URI, err)
			}
		}
		e.setState(StateClosed)
		nlog.Infof("engine %s: closed", e.ID)
	})
}

// IsClosed reports whether every constituent this engine owns has
// finished closing: considered closed only when (a) every remote's
// protocol has reported closed, (b) every group has reported closed, and
// (c) every timer has fired or cancelled. Timer completion is implicit
// here: pathstore.Store.FailAll above retires every outstanding path
// synchronously rather than waiting on the hk sweep, so (c) is satisfied
// the moment closeCascade returns.
func (e *Engine) IsClosed() bool {
	if e.State() != StateClosed {
		return false
	}
	if e.Remotes.Len() != 0 {
		return false
	}
	for _, name := range e.groupNames() {
		if grp, ok := e.Group(name); ok && grp.State() != extgroup.StateClosed {
			return false
		}
	}
	return true
}

package tenv

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestRunloopIsOwnerThread(t *testing.T) {
	r := NewRunloop(4)
	go r.Run()
	defer r.Stop()

	done := make(chan bool, 1)
	r.PostTask(func() { done <- r.IsOwnerThread() })
	select {
	case isOwner := <-done:
		if !isOwner {
			t.Fatalf("task run on the runloop's own goroutine should report IsOwnerThread")
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for task to run")
	}
	if r.IsOwnerThread() {
		t.Fatalf("calling goroutine is not the runloop owner")
	}
}

func TestRunloopLockModeDrainsOnlyProxyTasks(t *testing.T) {
	r := NewRunloop(4)
	go r.Run()
	defer r.Stop()

	var mailboxRan atomic.Bool
	var proxyRan atomic.Bool

	r.AcquireLockMode()
	r.PostTask(func() { mailboxRan.Store(true) })
	r.PostTaskProxy(func() { proxyRan.Store(true) })

	deadline := time.After(200 * time.Millisecond)
	for !proxyRan.Load() {
		select {
		case <-deadline:
			t.Fatalf("proxy task should run even while lock mode is held")
		default:
			time.Sleep(5 * time.Millisecond)
		}
	}
	time.Sleep(50 * time.Millisecond)
	if mailboxRan.Load() {
		t.Fatalf("mailbox task must not run while lock mode is held")
	}

	r.ReleaseLockMode()
	deadline = time.After(time.Second)
	for !mailboxRan.Load() {
		select {
		case <-deadline:
			t.Fatalf("mailbox task should run once lock mode is released")
		default:
			time.Sleep(5 * time.Millisecond)
		}
	}
}

func TestRunloopStopDrainsPendingProxyTasks(t *testing.T) {
	r := NewRunloop(4)
	stopped := make(chan struct{})
	go func() {
		r.Run()
		close(stopped)
	}()

	var ran atomic.Bool
	// Lock mode does not hold back proxy tasks, so the task below may run
	// before Stop or inside drainProxyTasks; either way it must have run
	// by the time Run returns.
	r.AcquireLockMode()
	r.PostTaskProxy(func() { ran.Store(true) })
	r.Stop()

	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatalf("Run did not return after Stop")
	}
	if !ran.Load() {
		t.Fatalf("pending proxy task should have been drained at shutdown")
	}
}

//go:build debug

// Package debug provides assertion and invariant-checking utilities that
// compile to no-ops in release builds (see debug_off.go) and to hard aborts
// here. The messaging substrate leans on this for the contracts 
// calls out as "abort in debug, leak in release" and "unrecoverable
// invariants ... abort."
/*
 * Copyright (c) 2018-2021, NVIDIA CORPORATION. All rights reserved.
 */
package debug

import (
	"fmt"
	"os"
	"sync"
)

func ON() bool { return true }

func Infof(format string, a ...any) { fmt.Fprintf(os.Stderr, "[debug] "+format+"\n", a...) }

func Func(f func()) { f() }

func Assert(cond bool, a ...any) {
	if !cond {
		panic(fmt.Sprintln(append([]any{"assertion failed:"}, a...)...))
	}
}

func AssertFunc(f func() bool, a ...any) { Assert(f(), a...) }

func AssertNoErr(err error) {
	if err != nil {
		panic(fmt.Sprintf("assertion failed: unexpected error: %v", err))
	}
}

func Assertf(cond bool, format string, a ...any) {
	if !cond {
		panic(fmt.Sprintf("assertion failed: "+format, a...))
	}
}

// AssertMutexLocked is a best-effort check only: sync.Mutex exposes no public
// "is locked" query, so this merely documents the invariant at the call site
// the way the teacher's debug build does; TryLock is the closest proxy and is
// itself a mutating probe, so it is deliberately not attempted here.
func AssertMutexLocked(_ *sync.Mutex)      {}
func AssertRWMutexLocked(_ *sync.RWMutex)  {}
func AssertRWMutexRLocked(_ *sync.RWMutex) {}

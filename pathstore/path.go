// Package pathstore implements the command/result correlation tracker:
// a record placed at each hop when a command is dispatched, matched by
// at most one final result or else expired.
//
// Grounded on xact/xreg/xreg.go's registry+hk-cleanup pattern (a
// name-keyed map mutated under one lock, swept by a single hk-registered
// callback) and hk/housekeeper_suite_test.go's periodic-callback shape.
/*
 * Copyright (c) 2024, NVIDIA CORPORATION. All rights reserved.
 */
package pathstore

import (
	"time"

	"github.com/ten-framework/ten-go/cmn/mono"
	"github.com/ten-framework/ten-go/msg"
)

// Kind distinguishes which direction a Path is waiting on.
type Kind int

const (
	// KindIn is waiting to forward a final result back along the inbound
	// hop to the path's originator.
	KindIn Kind = iota
	// KindOut is waiting for a final result from a downstream hop.
	KindOut
)

func (k Kind) String() string {
	if k == KindIn {
		return "in"
	}
	return "out"
}

// ResultFunc is the continuation invoked exactly once per Path, with
// either the real final CmdResult or a synthesised Timeout result.
type ResultFunc func(result msg.Message)

// Path is one in-flight command's correlation record: one per in-flight
// command per hop.
type Path struct {
	CmdID           string
	Kind            Kind
	OriginalCmdType msg.Type
	OriginalCmdName string
	InLoc           msg.Location
	OutLoc          msg.Location
	createdAt       int64
	expiry          time.Duration
	lastResultSeen  bool
	onResult        ResultFunc
}

// NewPath constructs a path entry; createdAt is set to now.
func NewPath(cmdID string, kind Kind, cmdType msg.Type, cmdName string, in, out msg.Location, expiry time.Duration, onResult ResultFunc) *Path {
	return &Path{
		CmdID:           cmdID,
		Kind:            kind,
		OriginalCmdType: cmdType,
		OriginalCmdName: cmdName,
		InLoc:           in,
		OutLoc:          out,
		createdAt:       mono.NanoTime(),
		expiry:          expiry,
		onResult:        onResult,
	}
}

func (p *Path) expired(now int64) bool {
	return !p.lastResultSeen && now-p.createdAt >= p.expiry.Nanoseconds()
}

// LastResultSeen reports whether this path has already delivered its one
// final result, real or synthesised.
func (p *Path) LastResultSeen() bool { return p.lastResultSeen }

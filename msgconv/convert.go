// Package msgconv implements message conversion: the per-edge property
// transform the engine applies at routing time (Apply), and ApplyResult,
// which runs a rule's result conversion on a CmdResult. The engine's
// result path does not call ApplyResult.
//
// Grounded on core/meta/bck.go's typed-clone style (never mutate the
// source; produce a fresh value and hand that downstream) applied here to
// "clone a message's property tree per rule set, not the message itself."
/*
 * Copyright (c) 2024, NVIDIA CORPORATION. All rights reserved.
 */
package msgconv

import (
	"github.com/ten-framework/ten-go/msg"
	"github.com/ten-framework/ten-go/value"
)

// Mode selects how a PerProperty rule populates its target path.
type Mode int

const (
	// FromOriginal copies the value at OriginalPath in the source message
	// into Path in the destination.
	FromOriginal Mode = iota
	// FixedValue sets Path to a constant Value, ignoring the source.
	FixedValue
)

// PerProperty is one rule in a conversion's rule list.
type PerProperty struct {
	Path         string
	Mode         Mode
	OriginalPath string     // used when Mode == FromOriginal
	Value        *value.Value // used when Mode == FixedValue
}

// Rule is the conversion applied at a graph edge. KeepOriginal controls
// whether properties not named by Rules survive untouched: unspecified
// properties are preserved iff keep_original is true. Result, if set, is
// the conversion ApplyResult runs on a CmdResult.
type Rule struct {
	KeepOriginal bool
	Rules        []PerProperty
	Result       *Rule
}

// Apply produces a fresh Message that is a routing-time transform of src:
// same type/name/cmd identity, but with a property tree built per r's
// rules. src is never mutated (property trees are moved on set, cloned
// on read; this function only reads from src).
func Apply(r *Rule, src msg.Message) (msg.Message, error) {
	var base *value.Value
	if r == nil || r.KeepOriginal {
		full, err := src.PeekProperty("")
		if err != nil {
			return msg.Message{}, err
		}
		base = full
	} else {
		base = value.NewObject()
	}

	if r != nil {
		for _, pp := range r.Rules {
			var v *value.Value
			switch pp.Mode {
			case FromOriginal:
				orig, err := src.PeekProperty(pp.OriginalPath)
				if err != nil {
					return msg.Message{}, err
				}
				v = orig
			case FixedValue:
				v = pp.Value.Clone()
			}
			if err := base.Set(pp.Path, v); err != nil {
				return msg.Message{}, err
			}
		}
	}

	// DeriveForConversion keeps cmd_id/type/name/src/dest intact — unlike
	// DeepCopy, which mints a fresh cmd_id — since the path store must
	// still be able to correlate a result back across this edge.
	return src.DeriveForConversion(base), nil
}

// ApplyResult runs r.Result against a CmdResult flowing back along the
// same edge this Rule was applied forward on, if a result conversion was
// declared ("an optional result conversion applied symmetrically to
// the matching CmdResult on the return path"). With no result rule, the
// CmdResult passes through unchanged.
func ApplyResult(r *Rule, result msg.Message) (msg.Message, error) {
	if r == nil || r.Result == nil {
		return result, nil
	}
	return Apply(r.Result, result)
}

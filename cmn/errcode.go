// Package cmn provides common constants, types, and configuration shared
// across this module's packages.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package cmn

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrCode is the flat, wire-stable error enum the rest of this module
// builds on. The original implementation carries two parallel, overlapping
// enums (TEN_ERRNO_* and TEN_ERROR_CODE_*); this module keeps exactly one.
type ErrCode int

const (
	Generic ErrCode = iota
	InvalidJSON
	InvalidArgument
	InvalidType
	InvalidGraph
	TenIsClosed
	MsgNotConnected
	ValueNotFound
	Timeout
	ExtensionNotReady
	AppClosed
	ProtocolError
	UnserializableProperty
	MessageInUse
	InvalidManifest
)

var errCodeNames = [...]string{
	Generic:                "Generic",
	InvalidJSON:            "InvalidJson",
	InvalidArgument:        "InvalidArgument",
	InvalidType:            "InvalidType",
	InvalidGraph:           "InvalidGraph",
	TenIsClosed:            "TenIsClosed",
	MsgNotConnected:        "MsgNotConnected",
	ValueNotFound:          "ValueNotFound",
	Timeout:                "Timeout",
	ExtensionNotReady:      "ExtensionNotReady",
	AppClosed:              "AppClosed",
	ProtocolError:          "ProtocolError",
	UnserializableProperty: "UnserializableProperty",
	MessageInUse:           "MessageInUse",
	InvalidManifest:        "InvalidManifest",
}

func (c ErrCode) String() string {
	if int(c) < 0 || int(c) >= len(errCodeNames) || errCodeNames[c] == "" {
		return fmt.Sprintf("ErrCode(%d)", int(c))
	}
	return errCodeNames[c]
}

// Error is the synchronous API failure type: a code and a message, no
// global state.
type Error struct {
	Code ErrCode
	Msg  string
}

func NewError(code ErrCode, format string, a ...any) *Error {
	return &Error{Code: code, Msg: fmt.Sprintf(format, a...)}
}

// Wrap attaches call-site context to cause (via pkg/errors) while still
// carrying the flat wire-stable code: wrapping never loses the code the
// way bare error-wrapping would if cause were itself a *Error.
func Wrap(code ErrCode, cause error, format string, a ...any) *Error {
	return &Error{Code: code, Msg: errors.Wrapf(cause, format, a...).Error()}
}

func (e *Error) Error() string { return fmt.Sprintf("%s: %s", e.Code, e.Msg) }

// Is lets errors.Is(err, cmn.Generic) etc. match by code, ignoring message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

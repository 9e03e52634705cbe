package msg

import (
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/ten-framework/ten-go/cmn"
	"github.com/ten-framework/ten-go/cmn/debug"
	"github.com/ten-framework/ten-go/value"
)

// Type tags the message variants.
type Type int

const (
	TypeCmd Type = iota
	TypeCmdResult
	TypeData
	TypeAudioFrame
	TypeVideoFrame
	// internal built-ins
	TypeStartGraph
	TypeStopGraph
	TypeCloseApp
	TypeTimer
	TypeTimeout
)

var typeNames = [...]string{
	TypeCmd: "cmd", TypeCmdResult: "cmd_result", TypeData: "data",
	TypeAudioFrame: "audio_frame", TypeVideoFrame: "video_frame",
	TypeStartGraph: "start_graph", TypeStopGraph: "stop_graph",
	TypeCloseApp: "close_app", TypeTimer: "timer", TypeTimeout: "timeout",
}

func (t Type) String() string { return typeNames[t] }

func (t Type) IsCorrelatable() bool {
	return t == TypeCmd || t == TypeCmdResult ||
		t == TypeStartGraph || t == TypeStopGraph || t == TypeCloseApp ||
		t == TypeTimer || t == TypeTimeout
}

func (t Type) IsFrame() bool {
	return t == TypeData || t == TypeAudioFrame || t == TypeVideoFrame
}

// ResultFields carries the fields specific to CmdResult: status_code,
// is_final, detail, and the original command's type/name so a result can
// be routed without re-consulting the command.
type ResultFields struct {
	StatusCode      int
	IsFinal         bool
	Detail          string
	OriginalCmdType Type
	OriginalCmdName string
}

// FrameFields carries the fixed fields for Data/AudioFrame/VideoFrame
// beyond the common header: sample rate, pixel format, etc. Only the
// fields relevant to a given Type are meaningful.
type FrameFields struct {
	SampleRate  uint32
	Channels    uint8
	BytesPerSmp uint8
	PixelFormat string
	Width       int32
	Height      int32
	Timestamp   int64
}

// core is the shared refcounted state behind every Message handle.
// Mutating fields that participate in routing (dest) is only permitted
// while refc == 1: a message's destination list is only mutated while
// refcount == 1.
type core struct {
	mtype    Type
	name     string
	src      Location
	dest     []Location
	property *value.Value

	cmdID  string
	seqID  string
	inConn any // opaque reference back to the inbound connection, if any

	frame   *FrameFields
	buffers []*Buffer

	result *ResultFields

	refc atomic.Int64
}

// Message is a handle onto a shared core. Multiple Message values
// may reference the same core; Clone bumps the shared refcount, Release
// drops it.
type Message struct {
	c *core
}

func newCore(mtype Type, name string) *core {
	c := &core{mtype: mtype, name: name, property: value.NewObject()}
	c.refc.Store(1)
	return c
}

// newHandle wraps a freshly constructed core's first reference.
func newHandle(c *core) Message { return Message{c: c} }

// NewCmd constructs a user-defined, correlatable command. cmd_id is
// assigned a fresh UUID, superseding the original's shortid allocator.
func NewCmd(name string) Message {
	c := newCore(TypeCmd, name)
	c.cmdID = uuid.NewString()
	return newHandle(c)
}

func NewData(name string) Message {
	c := newCore(TypeData, name)
	c.frame = &FrameFields{}
	return newHandle(c)
}

func NewAudioFrame(name string) Message {
	c := newCore(TypeAudioFrame, name)
	c.frame = &FrameFields{}
	return newHandle(c)
}

func NewVideoFrame(name string) Message {
	c := newCore(TypeVideoFrame, name)
	c.frame = &FrameFields{}
	return newHandle(c)
}

// NewCmdResult constructs a result for the command identified by cmdID,
// inheriting its cmd_id so the path store can correlate the two.
func NewCmdResult(originalType Type, originalName, cmdID string, statusCode int, isFinal bool) Message {
	c := newCore(TypeCmdResult, originalName+"_result")
	c.cmdID = cmdID
	c.result = &ResultFields{
		StatusCode:      statusCode,
		IsFinal:         isFinal,
		OriginalCmdType: originalType,
		OriginalCmdName: originalName,
	}
	return newHandle(c)
}

func newInternal(mtype Type, cmdID string) Message {
	c := newCore(mtype, mtype.String())
	c.cmdID = cmdID
	return newHandle(c)
}

func NewStartGraph(cmdID string) Message { return newInternal(TypeStartGraph, cmdID) }
func NewStopGraph(cmdID string) Message  { return newInternal(TypeStopGraph, cmdID) }
func NewCloseApp(cmdID string) Message   { return newInternal(TypeCloseApp, cmdID) }
func NewTimer(cmdID string) Message      { return newInternal(TypeTimer, cmdID) }
func NewTimeout(cmdID string) Message    { return newInternal(TypeTimeout, cmdID) }

func (m Message) Type() Type     { return m.c.mtype }
func (m Message) Name() string   { return m.c.name }
func (m Message) Src() Location  { return m.c.src }

// Dest returns a copy of the destination list; callers must not assume a
// shared backing array.
func (m Message) Dest() []Location {
	out := make([]Location, len(m.c.dest))
	copy(out, m.c.dest)
	return out
}

func (m Message) CmdID() string { return m.c.cmdID }
func (m Message) SeqID() string { return m.c.seqID }

func (m Message) Result() *ResultFields { return m.c.result }
func (m Message) Frame() *FrameFields   { return m.c.frame }

func (m Message) refcount() int64 { return m.c.refc.Load() }

// exclusive reports whether this handle currently holds the only
// reference to its core, i.e. mutation is permitted.
func (m Message) exclusive() bool { return m.refcount() == 1 }

// SetSrc sets the source location. Permitted only before the message has
// been shared (refcount == 1), the same destination-list invariant this
// module applies uniformly to all routing-relevant fields.
func (m Message) SetSrc(l Location) error {
	if !m.exclusive() {
		return cmn.NewError(cmn.MessageInUse, "cannot mutate message %s: shared (refcount=%d)", m.c.cmdID, m.refcount())
	}
	m.c.src = l
	return nil
}

// SetDest replaces the destination list. Only valid while refcount == 1,
// i.e. before the message has been posted.
func (m Message) SetDest(dests ...Location) error {
	if !m.exclusive() {
		return cmn.NewError(cmn.MessageInUse, "cannot mutate destination of message %s: shared (refcount=%d)", m.c.cmdID, m.refcount())
	}
	m.c.dest = append([]Location(nil), dests...)
	return nil
}

// SetProperty sets path within the message's property tree. Value trees
// are never shared: val is moved into the message on set, taken by
// reference rather than cloned, and callers must not retain it
// afterward.
func (m Message) SetProperty(path string, val *value.Value) error {
	if !m.exclusive() {
		return cmn.NewError(cmn.MessageInUse, "cannot mutate message %s: shared (refcount=%d)", m.c.cmdID, m.refcount())
	}
	if path == "" {
		m.c.property = val
		return nil
	}
	return m.c.property.Set(path, val)
}

// PeekProperty returns the Value at path without transferring ownership;
// reads clone.
func (m Message) PeekProperty(path string) (*value.Value, error) {
	if path == "" {
		return m.c.property.Clone(), nil
	}
	v, err := m.c.property.Get(path)
	if err != nil {
		return nil, err
	}
	return v, nil
}

// AddBuffer appends a payload buffer; only valid on frame variants.
func (m Message) AddBuffer(b *Buffer) {
	debug.Assert(m.c.mtype.IsFrame(), "msg: AddBuffer on a non-frame message")
	m.c.buffers = append(m.c.buffers, b)
}

func (m Message) Buffers() []*Buffer { return m.c.buffers }

// LockBuf locks buffer i for exclusive access, returning a borrow token and
// slice.
func (m Message) LockBuf(i int) (BorrowToken, []byte) {
	return m.c.buffers[i].Lock()
}

// UnlockBuf releases the borrow on buffer i acquired by LockBuf.
func (m Message) UnlockBuf(i int, token BorrowToken) {
	m.c.buffers[i].Unlock(token)
}

// Clone bumps the shared refcount and returns a new handle onto the same
// core.
func (m Message) Clone() Message {
	m.c.refc.Add(1)
	return Message{c: m.c}
}

// Release drops this handle's reference. When the last reference drops,
// the variant-specific destructor runs: any outstanding locked buffer at
// that point is a logic bug, since every payload must be freed exactly
// once and never while still locked.
func (m Message) Release() {
	if m.c.refc.Add(-1) != 0 {
		return
	}
	for _, b := range m.c.buffers {
		b.Release()
	}
	m.c.buffers = nil
}

// DeepCopy produces a fresh message (refcount 1) with a new cmd_id where
// applicable, with fields named in exclude omitted/zeroed.
func (m Message) DeepCopy(exclude FieldMask) Message {
	c := &core{mtype: m.c.mtype, name: m.c.name, src: m.c.src}
	c.refc.Store(1)

	if !exclude.Has(FieldDest) {
		c.dest = append([]Location(nil), m.c.dest...)
	}
	if !exclude.Has(FieldProperty) {
		c.property = m.c.property.Clone()
	} else {
		c.property = value.NewObject()
	}
	if m.c.mtype.IsCorrelatable() {
		c.cmdID = uuid.NewString() // fresh cmd_id
		c.seqID = m.c.seqID
		if m.c.result != nil {
			r := *m.c.result
			c.result = &r
		}
	}
	if m.c.frame != nil {
		f := *m.c.frame
		c.frame = &f
	}
	if !exclude.Has(FieldBuffers) {
		for _, b := range m.c.buffers {
			c.buffers = append(c.buffers, b.Clone())
		}
	}
	return newHandle(c)
}

// DeriveForConversion produces a fresh, exclusively-owned (refcount 1)
// handle with the same identity as m — type, name, src, dest, cmd_id,
// seq_id, result fields, frame fields — but prop as its property tree
// instead of m's. Used by msgconv to build the rewritten message a
// conversion rule set produces without mutating m or disturbing its
// cmd_id, which — unlike DeepCopy — must survive unchanged so the path
// store can still correlate the result across the edge.
func (m Message) DeriveForConversion(prop *value.Value) Message {
	c := &core{
		mtype:  m.c.mtype,
		name:   m.c.name,
		src:    m.c.src,
		cmdID:  m.c.cmdID,
		seqID:  m.c.seqID,
		inConn: m.c.inConn,
	}
	c.refc.Store(1)
	c.dest = append([]Location(nil), m.c.dest...)
	c.property = prop
	if m.c.result != nil {
		r := *m.c.result
		c.result = &r
	}
	if m.c.frame != nil {
		f := *m.c.frame
		c.frame = &f
	}
	for _, b := range m.c.buffers {
		c.buffers = append(c.buffers, b.Clone())
	}
	return newHandle(c)
}

// FieldMask names Message fields to exclude from DeepCopy.
type FieldMask uint8

const (
	FieldDest FieldMask = 1 << iota
	FieldProperty
	FieldBuffers
)

func (f FieldMask) Has(bit FieldMask) bool { return f&bit != 0 }

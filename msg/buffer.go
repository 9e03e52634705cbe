package msg

import (
	"sync/atomic"

	"github.com/ten-framework/ten-go/cmn/debug"
)

// BorrowToken identifies the outstanding exclusive borrow returned by
// LockBuf. The matching token is required to UnlockBuf.
type BorrowToken uint64

var tokenSeq atomic.Uint64

func nextToken() BorrowToken { return BorrowToken(tokenSeq.Add(1)) }

// Buffer is an owned byte region backing a frame's payload. It has two
// states: unlocked (readable/writable by the owning thread) and locked
// (a borrow outstanding, referenced by a unique token). A locked buffer
// may not be freed.
type Buffer struct {
	data   []byte
	locked bool
	token  BorrowToken
}

func NewBuffer(data []byte) *Buffer { return &Buffer{data: data} }

// Lock transitions the buffer to locked and returns a borrow token and the
// exclusive slice. Locking an already-locked buffer is a logic bug.
func (b *Buffer) Lock() (BorrowToken, []byte) {
	debug.Assert(!b.locked, "msg: double lock on buffer")
	b.token = nextToken()
	b.locked = true
	return b.token, b.data
}

// Unlock releases a borrow acquired by Lock. The token must match; a
// mismatched token is a logic bug — unlock requires the matching token.
func (b *Buffer) Unlock(token BorrowToken) {
	debug.Assert(b.locked, "msg: unlock on a buffer that isn't locked")
	debug.Assert(token == b.token, "msg: unlock token mismatch")
	b.locked = false
	b.token = 0
}

// IsLocked reports whether a borrow is currently outstanding.
func (b *Buffer) IsLocked() bool { return b.locked }

// Release asserts there is no outstanding borrow before returning the
// backing slice: dropping a buffer while it is locked is a logic bug,
// aborted in debug builds and leaked in release.
func (b *Buffer) Release() []byte {
	if b.locked {
		debug.Assert(false, "msg: Buffer dropped while locked")
		return nil // release build: leak rather than hand back a borrowed slice
	}
	return b.data
}

func (b *Buffer) Len() int { return len(b.data) }

func (b *Buffer) Clone() *Buffer {
	cp := make([]byte, len(b.data))
	copy(cp, b.data)
	return &Buffer{data: cp}
}

package tenv

import (
	"bytes"
	"runtime"
	"strconv"
)

// goroutineID extracts the calling goroutine's id from its own stack trace
// header ("goroutine 123 [running]: ..."). There is no public runtime API
// for this; every thread-check in this package is a debug/diagnostic aid,
// not something program correctness depends on, so the small parsing cost
// is paid only where a thread-check is actually exercised.
func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	b := buf[:n]
	b = bytes.TrimPrefix(b, []byte("goroutine "))
	if i := bytes.IndexByte(b, ' '); i >= 0 {
		b = b[:i]
	}
	id, _ := strconv.ParseUint(string(b), 10, 64)
	return id
}

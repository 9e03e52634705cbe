package msg

import (
	"errors"
	"testing"

	"github.com/ten-framework/ten-go/cmn"
	"github.com/ten-framework/ten-go/value"
)

func TestCloneSharesRefcountAndBlocksMutation(t *testing.T) {
	m := NewCmd("do_thing")
	if m.refcount() != 1 {
		t.Fatalf("fresh message should start at refcount 1, got %d", m.refcount())
	}
	clone := m.Clone()
	if m.refcount() != 2 || clone.refcount() != 2 {
		t.Fatalf("clone should bump shared refcount to 2, got m=%d clone=%d", m.refcount(), clone.refcount())
	}

	err := m.SetDest(Location{ExtensionName: "ext-1"})
	if err == nil {
		t.Fatalf("expected SetDest to fail while shared")
	}
	var cerr *cmn.Error
	if !errors.As(err, &cerr) || cerr.Code != cmn.MessageInUse {
		t.Fatalf("expected MessageInUse, got %v", err)
	}

	clone.Release()
	if m.refcount() != 1 {
		t.Fatalf("after release refcount should drop to 1, got %d", m.refcount())
	}
	if err := m.SetDest(Location{ExtensionName: "ext-1"}); err != nil {
		t.Fatalf("expected SetDest to succeed once exclusive again: %v", err)
	}
}

func TestSetPeekProperty(t *testing.T) {
	m := NewCmd("greet")
	if err := m.SetProperty("name", value.NewString("world")); err != nil {
		t.Fatalf("SetProperty: %v", err)
	}
	got, err := m.PeekProperty("name")
	if err != nil {
		t.Fatalf("PeekProperty: %v", err)
	}
	s, _ := got.AsString()
	if s != "world" {
		t.Fatalf("got %q, want world", s)
	}
}

func TestDeepCopyFreshCmdID(t *testing.T) {
	m := NewCmd("do_thing")
	_ = m.SetProperty("x", value.NewI64(1))

	cp := m.DeepCopy(0)
	if cp.refcount() != 1 {
		t.Fatalf("deep copy should start at refcount 1, got %d", cp.refcount())
	}
	if cp.CmdID() == m.CmdID() {
		t.Fatalf("deep copy should receive a fresh cmd_id")
	}
	v, err := cp.PeekProperty("x")
	if err != nil {
		t.Fatalf("PeekProperty on copy: %v", err)
	}
	n, _ := v.AsI64()
	if n != 1 {
		t.Fatalf("deep copy lost property value")
	}
}

func TestDeepCopyExcludesProperty(t *testing.T) {
	m := NewCmd("do_thing")
	_ = m.SetProperty("x", value.NewI64(1))

	cp := m.DeepCopy(FieldProperty)
	if _, err := cp.PeekProperty("x"); err == nil {
		t.Fatalf("expected excluded property to be absent from deep copy")
	}
}

func TestBufferLockUnlockContract(t *testing.T) {
	m := NewVideoFrame("frame")
	m.AddBuffer(NewBuffer([]byte{1, 2, 3}))

	token, data := m.LockBuf(0)
	if len(data) != 3 {
		t.Fatalf("locked slice length = %d, want 3", len(data))
	}
	if !m.Buffers()[0].IsLocked() {
		t.Fatalf("buffer should report locked")
	}
	m.UnlockBuf(0, token)
	if m.Buffers()[0].IsLocked() {
		t.Fatalf("buffer should report unlocked after UnlockBuf")
	}
}

func TestCmdResultCorrelatesByCmdID(t *testing.T) {
	cmd := NewCmd("do_thing")
	res := NewCmdResult(TypeCmd, cmd.Name(), cmd.CmdID(), 0, true)
	if res.CmdID() != cmd.CmdID() {
		t.Fatalf("result cmd_id %q does not match command cmd_id %q", res.CmdID(), cmd.CmdID())
	}
	if !res.Result().IsFinal {
		t.Fatalf("expected IsFinal result")
	}
}

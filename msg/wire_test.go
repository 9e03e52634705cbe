package msg

import (
	"testing"

	"github.com/ten-framework/ten-go/value"
)

func TestWireRoundTripCmd(t *testing.T) {
	m := NewCmd("greet")
	_ = m.SetSrc(Location{ExtensionName: "src-ext"})
	_ = m.SetDest(Location{ExtensionName: "dst-ext"})
	_ = m.SetProperty("name", value.NewString("world"))

	bts, err := m.ToWire()
	if err != nil {
		t.Fatalf("ToWire: %v", err)
	}
	back, err := FromWire(bts)
	if err != nil {
		t.Fatalf("FromWire: %v", err)
	}
	if back.Name() != m.Name() || back.CmdID() != m.CmdID() {
		t.Fatalf("round trip mismatch: name=%q cmd_id=%q", back.Name(), back.CmdID())
	}
	if back.Dest()[0].ExtensionName != "dst-ext" {
		t.Fatalf("dest not preserved: %+v", back.Dest())
	}
}

func TestWireRoundTripResult(t *testing.T) {
	cmd := NewCmd("do_thing")
	res := NewCmdResult(TypeCmd, cmd.Name(), cmd.CmdID(), 7, true)

	bts, err := res.ToWire()
	if err != nil {
		t.Fatalf("ToWire: %v", err)
	}
	back, err := FromWire(bts)
	if err != nil {
		t.Fatalf("FromWire: %v", err)
	}
	if back.Result() == nil {
		t.Fatalf("expected result fields to survive wire round trip")
	}
	if back.Result().StatusCode != 7 || !back.Result().IsFinal {
		t.Fatalf("got %+v", back.Result())
	}
	if back.CmdID() != cmd.CmdID() {
		t.Fatalf("cmd_id not preserved across wire round trip")
	}
}

func TestWireRoundTripFrameBuffers(t *testing.T) {
	m := NewVideoFrame("frame")
	m.c.frame.Width, m.c.frame.Height = 640, 480
	m.AddBuffer(NewBuffer([]byte{1, 2, 3, 4}))

	bts, err := m.ToWire()
	if err != nil {
		t.Fatalf("ToWire: %v", err)
	}
	back, err := FromWire(bts)
	if err != nil {
		t.Fatalf("FromWire: %v", err)
	}
	if back.Frame().Width != 640 || back.Frame().Height != 480 {
		t.Fatalf("frame fields not preserved: %+v", back.Frame())
	}
	if len(back.Buffers()) != 1 || back.Buffers()[0].Len() != 4 {
		t.Fatalf("buffer payload not preserved")
	}
}

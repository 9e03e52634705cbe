package pathstore

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/ten-framework/ten-go/msg"
)

func TestResolveDeliversFinalResultOnce(t *testing.T) {
	s := New(time.Second)
	defer s.Close()

	cmd := msg.NewCmd("do_thing")
	var delivered atomic.Int32
	p := NewPath(cmd.CmdID(), KindOut, msg.TypeCmd, cmd.Name(), msg.Location{}, msg.Location{}, time.Second, func(msg.Message) {
		delivered.Add(1)
	})
	if err := s.Add(p); err != nil {
		t.Fatalf("Add: %v", err)
	}

	res := msg.NewCmdResult(msg.TypeCmd, cmd.Name(), cmd.CmdID(), 0, true)
	if err := s.Resolve(res); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if delivered.Load() != 1 {
		t.Fatalf("expected exactly one delivery, got %d", delivered.Load())
	}
	if s.Len() != 0 {
		t.Fatalf("path should be retired after a final result")
	}

	// A second final result for the same cmd_id must be dropped, not
	// re-delivered (at most one is_final result per cmd_id) — and
	// Resolve on an unknown (already-retired) path just errors quietly.
	if err := s.Resolve(res); err == nil {
		t.Fatalf("expected Resolve on a retired path to report no-path")
	}
	if delivered.Load() != 1 {
		t.Fatalf("expected no second delivery, got %d", delivered.Load())
	}
}

func TestResolveForwardsNonFinalWithoutRetiring(t *testing.T) {
	s := New(time.Second)
	defer s.Close()

	cmd := msg.NewCmd("stream_thing")
	var deliveries atomic.Int32
	p := NewPath(cmd.CmdID(), KindOut, msg.TypeCmd, cmd.Name(), msg.Location{}, msg.Location{}, time.Second, func(msg.Message) {
		deliveries.Add(1)
	})
	_ = s.Add(p)

	partial := msg.NewCmdResult(msg.TypeCmd, cmd.Name(), cmd.CmdID(), 0, false)
	if err := s.Resolve(partial); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if s.Len() != 1 {
		t.Fatalf("non-final result must not retire the path")
	}
	if deliveries.Load() != 1 {
		t.Fatalf("expected the non-final result to still be forwarded")
	}
}

func TestExpirySynthesizesTimeout(t *testing.T) {
	s := New(50 * time.Millisecond)
	defer s.Close()

	cmd := msg.NewCmd("slow_thing")
	done := make(chan msg.Message, 1)
	p := NewPath(cmd.CmdID(), KindOut, msg.TypeCmd, cmd.Name(), msg.Location{}, msg.Location{}, 50*time.Millisecond, func(m msg.Message) {
		done <- m
	})
	_ = s.Add(p)

	select {
	case m := <-done:
		if m.Result() == nil || !m.Result().IsFinal {
			t.Fatalf("expected a final synthesized result, got %+v", m.Result())
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for expiry-synthesized result")
	}
	if s.Len() != 0 {
		t.Fatalf("expired path should be retired")
	}
}

func TestDuplicateCmdIDRejected(t *testing.T) {
	s := New(time.Second)
	defer s.Close()

	p1 := NewPath("cmd-1", KindOut, msg.TypeCmd, "x", msg.Location{}, msg.Location{}, time.Second, func(msg.Message) {})
	p2 := NewPath("cmd-1", KindOut, msg.TypeCmd, "x", msg.Location{}, msg.Location{}, time.Second, func(msg.Message) {})
	if err := s.Add(p1); err != nil {
		t.Fatalf("Add p1: %v", err)
	}
	if err := s.Add(p2); err == nil {
		t.Fatalf("expected duplicate cmd_id to be rejected")
	}
}

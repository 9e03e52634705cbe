package extension

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/ten-framework/ten-go/msg"
	"github.com/ten-framework/ten-go/tenv"
)

type recordingHandler struct {
	cmds atomic.Int32
}

func (h *recordingHandler) OnConfigure(e *Extension)            { e.Env.OnConfigureDone() }
func (h *recordingHandler) OnInit(e *Extension)                 { e.Env.OnInitDone() }
func (h *recordingHandler) OnStart(e *Extension)                { e.Env.OnStartDone() }
func (h *recordingHandler) OnStop(e *Extension)                 { e.Env.OnStopDone() }
func (h *recordingHandler) OnDeinit(e *Extension)                { e.Env.OnDeinitDone() }
func (h *recordingHandler) OnCmd(e *Extension, m msg.Message)    { h.cmds.Add(1) }
func (h *recordingHandler) OnData(e *Extension, m msg.Message)   {}
func (h *recordingHandler) OnAudioFrame(e *Extension, m msg.Message) {}
func (h *recordingHandler) OnVideoFrame(e *Extension, m msg.Message) {}
func (h *recordingHandler) OnCmdResult(e *Extension, m msg.Message) {}

func newTestExtension(t *testing.T, h Handler) (*Extension, *tenv.Runloop) {
	t.Helper()
	r := tenv.NewRunloop(8)
	go r.Run()
	t.Cleanup(r.Stop)
	ext := New("echo", "echo", "inst", "group1", "engine1", h, r, func(msg.Message) error { return nil })
	return ext, r
}

func driveToStarted(t *testing.T, ext *Extension, r *tenv.Runloop) {
	t.Helper()
	done := make(chan struct{})
	r.PostTask(func() {
		ext.BeginConfigure()
		ext.BeginInit()
		ext.BeginStart()
		close(done)
	})
	<-done
	waitForState(t, ext, StateStarted)
}

func waitForState(t *testing.T, ext *Extension, want State) {
	t.Helper()
	deadline := time.After(time.Second)
	for {
		if ext.State() == want {
			return
		}
		select {
		case <-deadline:
			t.Fatalf("timed out waiting for state %s, currently %s", want, ext.State())
		default:
			time.Sleep(2 * time.Millisecond)
		}
	}
}

func TestLifecycleReachesStarted(t *testing.T) {
	h := &recordingHandler{}
	ext, r := newTestExtension(t, h)
	driveToStarted(t, ext, r)
	if ext.State() != StateStarted {
		t.Fatalf("expected Started, got %s", ext.State())
	}
}

func TestDeliverDropsCommandBeforeStarted(t *testing.T) {
	h := &recordingHandler{}
	ext, _ := newTestExtension(t, h)

	if err := ext.Deliver(msg.NewCmd("do_thing")); err != nil {
		t.Fatalf("Deliver before Started should not itself error (just be dropped once dispatched): %v", err)
	}
	time.Sleep(50 * time.Millisecond)
	if h.cmds.Load() != 0 {
		t.Fatalf("command delivered before Started should have been dropped, got %d calls", h.cmds.Load())
	}
}

func TestDeliverDispatchesOnceStarted(t *testing.T) {
	h := &recordingHandler{}
	ext, r := newTestExtension(t, h)
	driveToStarted(t, ext, r)

	if err := ext.Deliver(msg.NewCmd("do_thing")); err != nil {
		t.Fatalf("Deliver: %v", err)
	}
	deadline := time.After(time.Second)
	for h.cmds.Load() == 0 {
		select {
		case <-deadline:
			t.Fatalf("command should have reached OnCmd once Started")
		default:
			time.Sleep(2 * time.Millisecond)
		}
	}
}

func TestDeliverRejectsCommandsWhileClosing(t *testing.T) {
	h := &recordingHandler{}
	ext, r := newTestExtension(t, h)
	driveToStarted(t, ext, r)

	done := make(chan struct{})
	r.PostTask(func() { ext.BeginStop(); close(done) })
	<-done
	waitForState(t, ext, StateDeiniting)

	if err := ext.Deliver(msg.NewCmd("do_thing")); err == nil {
		t.Fatalf("expected Deliver to reject a command once the extension is closing")
	}
}

func TestRouteResolution(t *testing.T) {
	h := &recordingHandler{}
	ext, _ := newTestExtension(t, h)

	key := RouteKey{Type: msg.TypeCmd, Name: "hello"}
	ext.SetRoutes(map[RouteKey][]RouteEntry{
		key: {{Dest: msg.Location{ExtensionName: "b"}}},
	})
	rs, ok := ext.Resolve(msg.TypeCmd, "hello")
	if !ok || len(rs) != 1 || rs[0].Dest.ExtensionName != "b" {
		t.Fatalf("Resolve returned %+v, %v", rs, ok)
	}
	if _, ok := ext.Resolve(msg.TypeCmd, "unmapped"); ok {
		t.Fatalf("expected no route for an unmapped name")
	}
}

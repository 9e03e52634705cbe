package extgroup

import (
	"testing"
	"time"

	"github.com/ten-framework/ten-go/extension"
	"github.com/ten-framework/ten-go/msg"
)

type autoAckHandler struct{}

func (autoAckHandler) OnConfigure(e *extension.Extension)              { e.Env.OnConfigureDone() }
func (autoAckHandler) OnInit(e *extension.Extension)                   { e.Env.OnInitDone() }
func (autoAckHandler) OnStart(e *extension.Extension)                  { e.Env.OnStartDone() }
func (autoAckHandler) OnStop(e *extension.Extension)                   { e.Env.OnStopDone() }
func (autoAckHandler) OnDeinit(e *extension.Extension)                 { e.Env.OnDeinitDone() }
func (autoAckHandler) OnCmd(e *extension.Extension, m msg.Message)     {}
func (autoAckHandler) OnData(e *extension.Extension, m msg.Message)    {}
func (autoAckHandler) OnAudioFrame(e *extension.Extension, m msg.Message) {}
func (autoAckHandler) OnVideoFrame(e *extension.Extension, m msg.Message) {}
func (autoAckHandler) OnCmdResult(e *extension.Extension, m msg.Message) {}

func newTestGroup(t *testing.T, n int) *Group {
	t.Helper()
	g := New("group1", "engine1")
	go g.Runloop.Run()
	t.Cleanup(g.Runloop.Stop)
	for i := 0; i < n; i++ {
		ext := extension.New("echo", "echo", "inst"+string(rune('a'+i)), g.Name, g.EngineID, autoAckHandler{}, g.Runloop, func(msg.Message) error { return nil })
		g.AddExtension(ext)
	}
	return g
}

func TestGroupBeginCreateCascadesToStarted(t *testing.T) {
	g := newTestGroup(t, 3)
	started := make(chan struct{}, 1)
	g.OnStarted = func(*Group) { started <- struct{}{} }

	g.BeginCreate()

	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for OnStarted")
	}
	if g.State() != StateStarted {
		t.Fatalf("expected group state Started, got %s", g.State())
	}
	for _, e := range g.Extensions() {
		if e.State() != extension.StateStarted {
			t.Fatalf("extension %s expected Started, got %s", e.Name(), e.State())
		}
	}
}

func TestGroupBeginStopCascadesToClosed(t *testing.T) {
	g := newTestGroup(t, 2)
	started := make(chan struct{}, 1)
	g.OnStarted = func(*Group) { started <- struct{}{} }
	g.BeginCreate()
	<-started

	closed := make(chan struct{}, 1)
	g.OnClosed = func(*Group) { closed <- struct{}{} }
	g.BeginStop()

	select {
	case <-closed:
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for OnClosed")
	}
	if g.State() != StateClosed {
		t.Fatalf("expected group state Closed, got %s", g.State())
	}
}

func TestExtensionLookup(t *testing.T) {
	g := newTestGroup(t, 1)
	exts := g.Extensions()
	if len(exts) != 1 {
		t.Fatalf("expected 1 extension, got %d", len(exts))
	}
	name := exts[0].InstanceName
	if _, ok := g.Extension(name); !ok {
		t.Fatalf("Extension(%q) should find the added extension", name)
	}
	if _, ok := g.Extension("nonexistent"); ok {
		t.Fatalf("Extension lookup on an unknown name should report not found")
	}
}

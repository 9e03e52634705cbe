package engine

import (
	"testing"
	"time"

	"github.com/ten-framework/ten-go/extension"
	"github.com/ten-framework/ten-go/graphdef"
	"github.com/ten-framework/ten-go/msg"
	"github.com/ten-framework/ten-go/stats"
)

type autoAckHandler struct {
	onCmd func(e *extension.Extension, m msg.Message)
}

func (h *autoAckHandler) OnConfigure(e *extension.Extension) { e.Env.OnConfigureDone() }
func (h *autoAckHandler) OnInit(e *extension.Extension)      { e.Env.OnInitDone() }
func (h *autoAckHandler) OnStart(e *extension.Extension)     { e.Env.OnStartDone() }
func (h *autoAckHandler) OnStop(e *extension.Extension)      { e.Env.OnStopDone() }
func (h *autoAckHandler) OnDeinit(e *extension.Extension)    { e.Env.OnDeinitDone() }
func (h *autoAckHandler) OnCmd(e *extension.Extension, m msg.Message) {
	if h.onCmd != nil {
		h.onCmd(e, m)
	}
}
func (h *autoAckHandler) OnData(e *extension.Extension, m msg.Message)       {}
func (h *autoAckHandler) OnAudioFrame(e *extension.Extension, m msg.Message) {}
func (h *autoAckHandler) OnVideoFrame(e *extension.Extension, m msg.Message) {}
func (h *autoAckHandler) OnCmdResult(e *extension.Extension, m msg.Message)  {}

// stubCreateExtension builds a real extension wired to handlers by node
// name, bypassing the addon registry entirely (CreateExtension is exposed
// precisely for this: "exposed so test code can stub it").
func stubCreateExtension(handlers map[string]*autoAckHandler) func(e *Engine, node graphdef.Node, groupName string) (*extension.Extension, error) {
	return func(e *Engine, node graphdef.Node, groupName string) (*extension.Extension, error) {
		g, _ := e.Group(groupName)
		h := handlers[node.Name]
		ext := extension.New(node.Addon, node.Addon, node.Name, groupName, e.ID, h, g.Runloop, e.Send)
		ext.InStore.SetStats(node.Name+":in", e.Stats)
		ext.OutStore.SetStats(node.Name+":out", e.Stats)
		return ext, nil
	}
}

func twoNodeGraph() *graphdef.Graph {
	return &graphdef.Graph{
		Nodes: []graphdef.Node{
			{Type: "extension", Name: "a", Addon: "echo", ExtensionGroup: "g1"},
			{Type: "extension", Name: "b", Addon: "echo", ExtensionGroup: "g1"},
		},
		Connections: []graphdef.Connection{
			{Extension: "a", Cmd: []graphdef.MsgConn{{Name: "hello", Dest: []graphdef.Dest{{Extension: "b"}}}}},
		},
	}
}

func TestStartGraphReachesRunning(t *testing.T) {
	e := New("engine1", stats.NewCollector())
	go e.Runloop.Run()
	defer e.Runloop.Stop()

	handlers := map[string]*autoAckHandler{"a": {}, "b": {}}
	e.CreateExtension = stubCreateExtension(handlers)

	g := twoNodeGraph()
	result := e.StartGraph("cmd-1", g)
	rf := result.Result()
	if rf == nil || rf.StatusCode != 0 {
		t.Fatalf("expected start_graph to succeed, got %+v", rf)
	}
	if e.State() != StateRunning {
		t.Fatalf("expected engine state Running, got %v", e.State())
	}
}

func TestStartGraphValidationFailureReturnsErrorResult(t *testing.T) {
	e := New("engine1", nil)
	g := &graphdef.Graph{
		Connections: []graphdef.Connection{{Extension: "ghost"}},
	}
	result := e.StartGraph("cmd-1", g)
	rf := result.Result()
	if rf == nil || rf.StatusCode == 0 {
		t.Fatalf("expected an error result for an invalid graph, got %+v", rf)
	}
	if e.State() == StateRunning {
		t.Fatalf("engine should not reach Running on a validation failure")
	}
}

func TestSendRoutesAlongDeclaredConnection(t *testing.T) {
	e := New("engine1", stats.NewCollector())
	go e.Runloop.Run()
	defer e.Runloop.Stop()

	received := make(chan msg.Message, 1)
	handlers := map[string]*autoAckHandler{
		"a": {},
		"b": {onCmd: func(_ *extension.Extension, m msg.Message) { received <- m }},
	}
	e.CreateExtension = stubCreateExtension(handlers)

	g := twoNodeGraph()
	if rf := e.StartGraph("cmd-1", g).Result(); rf == nil || rf.StatusCode != 0 {
		t.Fatalf("start_graph failed: %+v", rf)
	}

	m := msg.NewCmd("hello")
	m.SetSrc(msg.Location{ExtensionName: "a"})
	if err := e.Send(m); err != nil {
		t.Fatalf("Send: %v", err)
	}

	select {
	case got := <-received:
		if got.Name() != "hello" {
			t.Fatalf("expected extension b to receive 'hello', got %q", got.Name())
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for routed message to reach extension b")
	}
}

func TestSendWithNoRouteReturnsError(t *testing.T) {
	e := New("engine1", nil)
	go e.Runloop.Run()
	defer e.Runloop.Stop()

	m := msg.NewCmd("unrouted")
	m.SetSrc(msg.Location{ExtensionName: "nobody"})
	if err := e.Send(m); err == nil {
		t.Fatalf("expected Send to fail when there is no destination and no cached route")
	}
}

func TestCloseAppCascadesToClosed(t *testing.T) {
	e := New("engine1", stats.NewCollector())
	go e.Runloop.Run()
	defer e.Runloop.Stop()

	handlers := map[string]*autoAckHandler{"a": {}, "b": {}}
	e.CreateExtension = stubCreateExtension(handlers)

	g := twoNodeGraph()
	if rf := e.StartGraph("cmd-1", g).Result(); rf == nil || rf.StatusCode != 0 {
		t.Fatalf("start_graph failed: %+v", rf)
	}

	result := e.CloseApp("cmd-2")
	rf := result.Result()
	if rf == nil || rf.StatusCode != 0 {
		t.Fatalf("expected close_app to ack immediately, got %+v", rf)
	}

	deadline := time.After(time.Second)
	for !e.IsClosed() {
		select {
		case <-deadline:
			t.Fatalf("timed out waiting for close cascade to finish")
		default:
			time.Sleep(5 * time.Millisecond)
		}
	}
}

// start_graph / stop_graph: the engine parses and validates a declarative
// graph, instantiates groups and extensions via the addon registry, waits
// for every group to reach Started via an errgroup, and returns one
// ok/err result. Failure cascades to close any already-created instances
// (reverse of start order).
//
// Grounded on xact/xreg's renew/abort/cleanup flow (construct, wait, roll
// back on partial failure) and an errgroup driving start-graph's "wait
// for every group to reach Started."
/*
 * Copyright (c) 2024, NVIDIA CORPORATION. All rights reserved.
 */
package engine

import (
	"context"

	"github.com/ten-framework/ten-go/cmn"
	"github.com/ten-framework/ten-go/cmn/nlog"
	"github.com/ten-framework/ten-go/extension"
	"github.com/ten-framework/ten-go/extgroup"
	"github.com/ten-framework/ten-go/graphdef"
	"github.com/ten-framework/ten-go/msg"
	"github.com/ten-framework/ten-go/pathstore"
	"golang.org/x/sync/errgroup"
)

// StartGraph handles an inbound StartGraph command: graph is the
// already-parsed declarative graph payload, which StartGraph validates
// before instantiating anything. It returns the
// CmdResult to send back to the caller; it never returns a Go error for
// graph-shaped problems — those surface as an error CmdResult, since graph
// validation errors are reported synchronously as the result of
// start_graph.
func (e *Engine) StartGraph(cmdID string, g *graphdef.Graph) msg.Message {
	if err := g.Validate(); err != nil {
		nlog.Errorf("engine %s: start_graph validation failed: %v", e.ID, err)
		return errResult(msg.TypeStartGraph, cmdID, cmn.InvalidGraph, err.Error())
	}

	e.mu.Lock()
	e.graph = g
	e.mu.Unlock()

	groupNames := groupsOf(g)
	created := make([]string, 0, len(groupNames))

	rollback := func() {
		for i := len(created) - 1; i >= 0; i-- {
			if grp, ok := e.Group(created[i]); ok {
				grp.BeginStop()
			}
			e.mu.Lock()
			delete(e.groups, created[i])
			e.mu.Unlock()
		}
	}

	for _, gname := range groupNames {
		grp := extgroup.New(gname, e.ID)
		go grp.Runloop.Run()
		e.mu.Lock()
		e.groups[gname] = grp
		e.mu.Unlock()
		created = append(created, gname)

		for _, node := range nodesInGroup(g, gname) {
			ext, err := e.CreateExtension(e, node, gname)
			if err != nil {
				rollback()
				nlog.Errorf("engine %s: start_graph: %v", e.ID, err)
				return errResult(msg.TypeStartGraph, cmdID, cmn.InvalidGraph, err.Error())
			}
			grp.AddExtension(ext)
		}
	}

	e.buildRoutingTable(g)

	eg, _ := errgroup.WithContext(context.Background())
	for _, gname := range created {
		grp, _ := e.Group(gname)
		ch := make(chan struct{})
		grp.OnStarted = func(_ *extgroup.Group) { close(ch) }
		eg.Go(func() error {
			<-ch
			return nil
		})
		// BeginCreate kicks off Configure; the per-extension ack chain
		// (extgroup.onExtensionPhase) carries each one through Init and
		// Start automatically, firing OnStarted once every member in the
		// group has reached Started.
		grp.BeginCreate()
	}
	if err := eg.Wait(); err != nil {
		rollback()
		return errResult(msg.TypeStartGraph, cmdID, cmn.InvalidGraph, err.Error())
	}

	e.setState(StateRunning)
	nlog.Infof("engine %s: start_graph complete, %d groups running", e.ID, len(created))
	return msg.NewCmdResult(msg.TypeStartGraph, "start_graph", cmdID, 0, true)
}

// StopGraph performs the close flow bottom-up and returns the ok result
// once every group has reported Closed.
func (e *Engine) StopGraph(cmdID string) msg.Message {
	e.setState(StateClosing)
	names := e.groupNames()
	var eg errgroup.Group
	for _, name := range names {
		grp, ok := e.Group(name)
		if !ok {
			continue
		}
		ch := make(chan struct{})
		grp.OnClosed = func(_ *extgroup.Group) { close(ch) }
		eg.Go(func() error {
			<-ch
			return nil
		})
		grp.BeginStop()
	}
	eg.Wait()
	e.setState(StateClosed)
	return msg.NewCmdResult(msg.TypeStopGraph, "stop_graph", cmdID, 0, true)
}

func groupsOf(g *graphdef.Graph) []string {
	seen := make(map[string]bool)
	var out []string
	for _, n := range g.Nodes {
		if !seen[n.ExtensionGroup] {
			seen[n.ExtensionGroup] = true
			out = append(out, n.ExtensionGroup)
		}
	}
	return out
}

func nodesInGroup(g *graphdef.Graph, group string) []graphdef.Node {
	var out []graphdef.Node
	for _, n := range g.Nodes {
		if n.ExtensionGroup == group {
			out = append(out, n)
		}
	}
	return out
}

// buildRoutingTable merges graph connections into each extension's cached
// routing table: for every declared connection, resolve the (source,
// msg_type, name) edge to its destination list. Graph-level connections
// carry no conversion rule in this declarative form; an edge that needs
// one gets its RouteEntry.ConvRule populated directly by whoever installs
// the routing table.
func (e *Engine) buildRoutingTable(g *graphdef.Graph) {
	edges := make(map[edgeKey][]extension.RouteEntry)
	for _, c := range g.Connections {
		addEdges(edges, c.Extension, msg.TypeCmd, c.Cmd)
		addEdges(edges, c.Extension, msg.TypeData, c.Data)
		addEdges(edges, c.Extension, msg.TypeAudioFrame, c.AudioFrame)
		addEdges(edges, c.Extension, msg.TypeVideoFrame, c.VideoFrame)
	}
	e.mu.Lock()
	e.edges = edges
	e.mu.Unlock()

	for _, c := range g.Connections {
		ext, ok := e.findExtension(c.Extension)
		if !ok {
			continue
		}
		perExt := make(map[extension.RouteKey][]extension.RouteEntry)
		for k, v := range edges {
			if k.source == c.Extension {
				perExt[extension.RouteKey{Type: k.mtype, Name: k.name}] = v
			}
		}
		ext.SetRoutes(perExt)
	}
}

func addEdges(edges map[edgeKey][]extension.RouteEntry, source string, mtype msg.Type, conns []graphdef.MsgConn) {
	for _, mc := range conns {
		k := edgeKey{source, mtype, mc.Name}
		for _, d := range mc.Dest {
			edges[k] = append(edges[k], extension.RouteEntry{
				Dest: msg.Location{
					AppURI:             d.App,
					ExtensionGroupName: d.ExtensionGroup,
					ExtensionName:      d.Extension,
				},
			})
		}
	}
}

func errResult(cmdType msg.Type, cmdID string, code cmn.ErrCode, detail string) msg.Message {
	r := msg.NewCmdResult(cmdType, cmdType.String(), cmdID, pathstore.StatusFor(code), true)
	if rf := r.Result(); rf != nil {
		rf.Detail = detail
	}
	return r
}

// Package graphdef parses the declarative graph definition (nodes +
// connections, plus top-level options) and the addon manifest/property
// files.
//
// Grounded on core/meta/bck.go's typed-metadata-wrapper style for the
// struct shapes, and stats/common_statsd.go's jsoniter usage for the codec
// (jsoniter promoted from "stats JSON" to "every JSON
// document this core parses").
/*
 * Copyright (c) 2024, NVIDIA CORPORATION. All rights reserved.
 */
package graphdef

import (
	jsoniter "github.com/json-iterator/go"
	"github.com/ten-framework/ten-go/cmn"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Node is one `{type: "extension", name, addon, extension_group, app?}`
// entry.
type Node struct {
	Type            string `json:"type"`
	Name            string `json:"name"`
	Addon           string `json:"addon"`
	ExtensionGroup  string `json:"extension_group"`
	App             string `json:"app,omitempty"`
}

// Dest is one connection's destination: `dest: [{extension, app?,
// extension_group?}]`.
type Dest struct {
	Extension      string `json:"extension"`
	App            string `json:"app,omitempty"`
	ExtensionGroup string `json:"extension_group,omitempty"`
}

// MsgConn is one `{name, dest: [...]}` entry under a connection's cmd/
// data/video_frame/audio_frame list.
type MsgConn struct {
	Name string `json:"name"`
	Dest []Dest `json:"dest"`
}

// Connection is one `{extension, cmd|data|video_frame|audio_frame: [...]}`
// entry.
type Connection struct {
	Extension  string    `json:"extension"`
	Cmd        []MsgConn `json:"cmd,omitempty"`
	Data       []MsgConn `json:"data,omitempty"`
	VideoFrame []MsgConn `json:"video_frame,omitempty"`
	AudioFrame []MsgConn `json:"audio_frame,omitempty"`
}

// PredefinedGraph names a graph the app knows about by name, for
// start_graph's `predefined_graph_name` payload variant.
type PredefinedGraph struct {
	Name      string `json:"name"`
	AutoStart bool   `json:"auto_start"`
	Graph     Graph  `json:"graph"`
}

// Graph is the top-level declarative graph document.
type Graph struct {
	Nodes       []Node       `json:"nodes"`
	Connections []Connection `json:"connections"`

	AutoStart             bool              `json:"auto_start,omitempty"`
	Singleton             bool              `json:"singleton,omitempty"`
	LongRunningMode       bool              `json:"long_running_mode,omitempty"`
	OneEventLoopPerEngine bool              `json:"one_event_loop_per_engine,omitempty"`
	LogLevel              string            `json:"log_level,omitempty"`
	LogFile               string            `json:"log_file,omitempty"`
	PredefinedGraphs      []PredefinedGraph `json:"predefined_graphs,omitempty"`
}

// Parse decodes a graph document.
func Parse(data []byte) (*Graph, error) {
	var g Graph
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, cmn.NewError(cmn.InvalidJSON, "graphdef: %v", err)
	}
	return &g, nil
}

// NodeByName returns the node named name, if any.
func (g *Graph) NodeByName(name string) (Node, bool) {
	for _, n := range g.Nodes {
		if n.Name == name {
			return n, true
		}
	}
	return Node{}, false
}

// Validate checks every connection references a declared node and every
// node names a non-empty addon: the structural half of start-graph's
// schema validation step. Schema-driven payload validation is delegated
// to the Schema collaborator in manifest.go.
func (g *Graph) Validate() error {
	names := make(map[string]bool, len(g.Nodes))
	for _, n := range g.Nodes {
		if n.Type != "extension" {
			return cmn.NewError(cmn.InvalidGraph, "graphdef: unsupported node type %q", n.Type)
		}
		if n.Addon == "" {
			return cmn.NewError(cmn.InvalidGraph, "graphdef: node %q has no addon", n.Name)
		}
		names[n.Name] = true
	}
	for _, c := range g.Connections {
		if !names[c.Extension] {
			return cmn.NewError(cmn.InvalidGraph, "graphdef: connection references unknown extension %q", c.Extension)
		}
		for _, lists := range [][]MsgConn{c.Cmd, c.Data, c.VideoFrame, c.AudioFrame} {
			for _, mc := range lists {
				for _, d := range mc.Dest {
					if d.Extension != "" && d.App == "" && !names[d.Extension] {
						return cmn.NewError(cmn.InvalidGraph, "graphdef: connection %q->%q: unknown destination extension %q", c.Extension, mc.Name, d.Extension)
					}
				}
			}
		}
	}
	return nil
}

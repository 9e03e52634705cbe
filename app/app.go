// Package app provides the minimal opaque-context shim for the App
// collaborator: it owns engines and any process-wide configuration; the
// core receives it as an opaque context used only for addon lookups, the
// telemetry system handle, and the engine factory. This package
// intentionally does not grow a CLI, a manifest loader, or a bootstrap
// sequence — those live, thin and separate, in cmd/tenapp.
//
// Grounded on cmd/authn/main.go's signal-handler + single-owner-struct
// shape, trimmed to just what engine/extension code needs from an App.
/*
 * Copyright (c) 2024, NVIDIA CORPORATION. All rights reserved.
 */
package app

import (
	"sync"

	"github.com/ten-framework/ten-go/cmn/nlog"
	"github.com/ten-framework/ten-go/engine"
	"github.com/ten-framework/ten-go/graphdef"
	"github.com/ten-framework/ten-go/stats"
)

// App owns zero or more Engines (one per running graph) plus two pieces
// of process-wide state: the telemetry handle and the addon registry (the
// latter is itself process-wide — addon.Register — so App only needs to
// know where an engine's manifests/base dir live).
type App struct {
	URI     string
	BaseDir string
	Stats   *stats.Collector

	mu      sync.Mutex
	engines map[string]*engine.Engine
}

// New constructs an idle App. uri is this process's app_uri for Location
// resolution: app_uri == localhost or empty means this app.
func New(uri, baseDir string) *App {
	return &App{
		URI:     uri,
		BaseDir: baseDir,
		Stats:   stats.NewCollector(),
		engines: make(map[string]*engine.Engine),
	}
}

// NewEngine constructs and registers a new Engine for graphID, wired to
// this App's telemetry Collector.
func (a *App) NewEngine(graphID string) *engine.Engine {
	e := engine.New(graphID, a.Stats)
	a.mu.Lock()
	a.engines[graphID] = e
	a.mu.Unlock()
	return e
}

// Engine returns the Engine owning graphID, if any.
func (a *App) Engine(graphID string) (*engine.Engine, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	e, ok := a.engines[graphID]
	return e, ok
}

// Engines returns a snapshot of every Engine this App currently owns.
func (a *App) Engines() []*engine.Engine {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]*engine.Engine, 0, len(a.engines))
	for _, e := range a.engines {
		out = append(out, e)
	}
	return out
}

// RunPredefinedGraphs starts every predefined graph in g that has
// auto_start set, one Engine each.
func (a *App) RunPredefinedGraphs(g *graphdef.Graph) {
	for _, pg := range g.PredefinedGraphs {
		if !pg.AutoStart {
			continue
		}
		e := a.NewEngine(pg.Name)
		go e.Runloop.Run()
		result := e.StartGraph(pg.Name, &pg.Graph)
		if rf := result.Result(); rf != nil && rf.StatusCode != 0 {
			nlog.Errorf("app %s: predefined graph %q failed to start: status=%d detail=%s", a.URI, pg.Name, rf.StatusCode, rf.Detail)
		}
	}
}

// Close cascades CloseApp to every owned Engine. Does not block for
// full teardown — matching CloseApp's own "ok after close cascade starts"
// contract.
func (a *App) Close() {
	for _, e := range a.Engines() {
		e.CloseApp(e.ID)
	}
}

// Command tenapp is the minimal CLI/bootstrap surface: it wires one
// app.App to one graph definition file and runs it until terminated.
// Concrete addon loaders, manifest walking beyond a single flag-supplied
// path, and cluster-level process management are all deliberately absent
// — this is a thin driver, not where the substance of this module lives.
//
// Grounded on cmd/authn/main.go's shape: flag parsing, a signal handler,
// nlog.Flush on exit.
/*
 * Copyright (c) 2024, NVIDIA CORPORATION. All rights reserved.
 */
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ten-framework/ten-go/app"
	"github.com/ten-framework/ten-go/cmn/nlog"
	"github.com/ten-framework/ten-go/graphdef"
)

var (
	graphPath string
	appURI    string
	baseDir   string
)

func init() {
	flag.StringVar(&graphPath, "graph", "", "path to a graph definition JSON document")
	flag.StringVar(&appURI, "uri", "localhost", "this process's app_uri")
	flag.StringVar(&baseDir, "base-dir", envOr("TEN_APP_BASE_DIR", "."), "addon/manifest base directory")
}

func envOr(key, dflt string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return dflt
}

func installSignalHandler(a *app.App) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-ch
		nlog.Infof("tenapp: received %v, closing", sig)
		a.Close()
		nlog.Flush()
		os.Exit(0)
	}()
}

func main() {
	flag.Parse()
	if graphPath == "" {
		fmt.Fprintln(os.Stderr, "tenapp: -graph is required")
		flag.PrintDefaults()
		os.Exit(1)
	}

	data, err := os.ReadFile(graphPath)
	if err != nil {
		nlog.Errorf("tenapp: reading %s: %v", graphPath, err)
		os.Exit(1)
	}
	g, err := graphdef.Parse(data)
	if err != nil {
		nlog.Errorf("tenapp: parsing %s: %v", graphPath, err)
		os.Exit(1)
	}
	if err := g.Validate(); err != nil {
		nlog.Errorf("tenapp: validating %s: %v", graphPath, err)
		os.Exit(1)
	}

	a := app.New(appURI, baseDir)
	installSignalHandler(a)

	e := a.NewEngine("default")
	go e.Runloop.Run()
	result := e.StartGraph("bootstrap", g)
	if rf := result.Result(); rf != nil && rf.StatusCode != 0 {
		nlog.Errorf("tenapp: start_graph failed: status=%d detail=%s", rf.StatusCode, rf.Detail)
		os.Exit(1)
	}
	nlog.Infof("tenapp: graph running, app_uri=%s", appURI)

	select {}
}

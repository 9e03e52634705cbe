// Package cmn provides common constants, types, and configuration shared
// across this module's packages.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package cmn

import (
	"sync/atomic"
	"time"
)

// Config holds the knobs left unspecified or explicitly configurable:
// default path expiry, the EnvProxy notify queue depth, the telemetry
// sample interval, and the graph-definition top-level log options.
type Config struct {
	// PathExpiry is the deadline attached to a path record when the
	// dispatched command did not specify its own timeout.
	PathExpiry time.Duration

	// ProxyQueueDepth bounds how many pending EnvProxy notifies may be
	// queued on a single runloop before Notify blocks the caller.
	ProxyQueueDepth int

	// HKInterval is a housekeeper tick setting; the hk package does not
	// read it and always ticks at its fixed minTick.
	HKInterval time.Duration

	// TelemetrySampleInterval controls how often stats.Collector publishes
	// gauges that are cheaper to sample periodically than to update inline.
	TelemetrySampleInterval time.Duration

	LogLevel string
	LogFile  string
}

func DefaultConfig() *Config {
	return &Config{
		PathExpiry:              30 * time.Second,
		ProxyQueueDepth:         1024,
		HKInterval:              500 * time.Millisecond,
		TelemetrySampleInterval: 10 * time.Second,
		LogLevel:                "info",
	}
}

// gco is the global config owner: a single atomic pointer swap, so readers
// (the hot path: routing, path-store ticks) never take a lock. Grounded on
// the teacher's cmn.GCO / cmn.Rom pattern (referenced throughout
// transport/api.go and stats/common_statsd.go as cmn.GCO.Get()).
type globalConfigOwner struct {
	p atomic.Pointer[Config]
}

var GCO globalConfigOwner

func init() { GCO.p.Store(DefaultConfig()) }

func (*globalConfigOwner) Get() *Config { return GCO.p.Load() }

func (*globalConfigOwner) Put(c *Config) { GCO.p.Store(c) }

// Update swaps in a copy of the current config with fn applied, so callers
// never mutate the struct another goroutine might be mid-read on.
func (g *globalConfigOwner) Update(fn func(c *Config)) {
	cur := *g.Get()
	fn(&cur)
	g.Put(&cur)
}

// Package stats implements the telemetry component: routing/path counters
// the engine and path store update inline, surfaced through a Prometheus
// registry.
//
// Grounded directly on the teacher's stats package (stats/common_statsd.go,
// stats/proxy_stats.go: a coreStats tracker keyed by metric name, with an
// optional Prometheus-backed init path chosen over StatsD), swapped fully
// onto prometheus/client_golang since this module has no StatsD daemon to
// target — only the Prometheus half of the teacher's dual-backend split
// survives.
/*
 * Copyright (c) 2024, NVIDIA CORPORATION. All rights reserved.
 */
package stats

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector is this module's telemetry sink: counters for routed/dropped
// messages and path outcomes, plus a gauge for live path-store size, all
// registered against one Prometheus registry per process (or per test,
// via NewCollector).
type Collector struct {
	reg *prometheus.Registry

	routed  *prometheus.CounterVec
	dropped *prometheus.CounterVec
	paths   *prometheus.GaugeVec
	expired *prometheus.CounterVec
}

// NewCollector builds a Collector against a fresh registry. Production
// callers register one per App; tests construct their own to avoid
// cross-test collisions on the default global registry.
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	c := &Collector{
		reg: reg,
		routed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ten_messages_routed_total",
			Help: "Messages successfully routed by the engine, by message type.",
		}, []string{"type"}),
		dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ten_messages_dropped_total",
			Help: "Messages dropped at routing time, by message type and reason.",
		}, []string{"type", "reason"}),
		paths: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ten_paths_outstanding",
			Help: "Currently outstanding path-store entries, by store name.",
		}, []string{"store"}),
		expired: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ten_paths_expired_total",
			Help: "Paths that expired and were resolved with a synthesised Timeout result, by store name.",
		}, []string{"store"}),
	}
	reg.MustRegister(c.routed, c.dropped, c.paths, c.expired)
	return c
}

// ObserveRouted records one successfully routed message (engine.routeOne,
// engine.sendRemote).
func (c *Collector) ObserveRouted(msgType string) {
	if c == nil {
		return
	}
	c.routed.WithLabelValues(msgType).Inc()
}

// ObserveDropped records one message dropped at routing time (e.g. no
// destination, extension not ready).
func (c *Collector) ObserveDropped(msgType, reason string) {
	if c == nil {
		return
	}
	c.dropped.WithLabelValues(msgType, reason).Inc()
}

// SetPathsOutstanding reports a store's current size (pathstore.Store.Len),
// sampled on cmn.Config.TelemetrySampleInterval by whoever owns the store.
func (c *Collector) SetPathsOutstanding(store string, n int) {
	if c == nil {
		return
	}
	c.paths.WithLabelValues(store).Set(float64(n))
}

// ObserveExpired records one path resolved via synthesised Timeout rather
// than a real result (pathstore.Store.sweep).
func (c *Collector) ObserveExpired(store string) {
	if c == nil {
		return
	}
	c.expired.WithLabelValues(store).Inc()
}

// Handler exposes this Collector's registry for scraping.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{})
}

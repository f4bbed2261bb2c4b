// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Ringsense Contributors

// Package metrics exports poller results as Prometheus metrics.
package metrics

import (
	"math"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ringsense/ringsense/internal/entity"
	"github.com/ringsense/ringsense/internal/oura"
	"github.com/ringsense/ringsense/internal/poller"
)

const namespace = "ringsense"

var _ poller.Observer = (*Collector)(nil)

// Collector owns a private registry and implements poller.Observer.
type Collector struct {
	registry  *prometheus.Registry
	score     *prometheus.GaugeVec
	available *prometheus.GaugeVec
	polls     *prometheus.CounterVec
	duration  *prometheus.HistogramVec
}

// New returns a Collector with every metric registered. Go runtime and
// process collectors are included.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		score: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "score",
			Help:      "Latest Oura score per metric category. NaN when no score is known.",
		}, []string{"category"}),
		available: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "available",
			Help:      "1 if the last poll reached the Oura API, 0 otherwise.",
		}, []string{"category"}),
		polls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "poll_total",
			Help:      "Polls by category and result.",
		}, []string{"category", "result"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "poll_duration_seconds",
			Help:      "Time spent fetching one category.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"category"}),
	}

	c.registry.MustRegister(
		c.score, c.available, c.polls, c.duration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// ObservePoll implements poller.Observer.
func (c *Collector) ObservePoll(category oura.Category, result poller.Result, state entity.State, elapsed time.Duration) {
	cat := string(category)

	c.polls.WithLabelValues(cat, string(result)).Inc()
	c.duration.WithLabelValues(cat).Observe(elapsed.Seconds())

	if state.Available {
		c.available.WithLabelValues(cat).Set(1)
	} else {
		c.available.WithLabelValues(cat).Set(0)
	}

	if state.Value != nil {
		c.score.WithLabelValues(cat).Set(*state.Value)
	} else {
		c.score.WithLabelValues(cat).Set(math.NaN())
	}
}

// Registry exposes the underlying registry.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package pkgdb

import (
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "pkgdb"

// Collector is a prometheus.Collector that collects metrics about a
// session.
type Collector struct {
	registrations   prometheus.Counter
	unregistrations prometheus.Counter
	conflicts       *prometheus.CounterVec
	plans           *prometheus.CounterVec
	iterations      *prometheus.CounterVec
	planDuration    *prometheus.HistogramVec
}

// NewMetricsCollector returns a new Collector.
func NewMetricsCollector() *Collector {
	return &Collector{
		registrations: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "registrations_total",
				Help:      "The number of packages registered in the local catalog.",
			},
		),
		unregistrations: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "unregistrations_total",
				Help:      "The number of packages removed from the local catalog.",
			},
		),
		conflicts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "conflicts_total",
				Help:      "The number of file conflicts detected.",
			}, []string{"source"},
		),
		plans: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "plans_total",
				Help:      "The number of plans computed.",
			}, []string{"kind"},
		),
		iterations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "closure_iterations_total",
				Help:      "The number of closure iterations run while computing plans.",
			}, []string{"kind"},
		),
		planDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Name:      "plan_duration_seconds",
				Help:      "The time taken to compute a plan.",
				Buckets:   []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 10},
			}, []string{"kind"},
		),
	}
}

// Describe is part of the prometheus.Collector interface.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	c.registrations.Describe(ch)
	c.unregistrations.Describe(ch)
	c.conflicts.Describe(ch)
	c.plans.Describe(ch)
	c.iterations.Describe(ch)
	c.planDuration.Describe(ch)
}

// Collect is part of the prometheus.Collector interface.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.registrations.Collect(ch)
	c.unregistrations.Collect(ch)
	c.conflicts.Collect(ch)
	c.plans.Collect(ch)
	c.iterations.Collect(ch)
	c.planDuration.Collect(ch)
}

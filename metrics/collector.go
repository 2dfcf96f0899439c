// Package metrics exposes container statistics to Prometheus.
//
// Usage:
//
//	collector := metrics.NewCollector(container, "")
//	prometheus.MustRegister(collector)
//
// The collector is pull based: every scrape reads Container.Stats, so it
// adds no work to bean creation.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/GoCodeAlone/beans"
)

// StatsSource provides container statistics. *beans.Container implements it.
type StatsSource interface {
	Stats() beans.Stats
}

// Collector implements prometheus.Collector for container stats.
// It exposes:
//
//	beans_definitions, beans_singletons, beans_pending_destroy_hooks (gauges)
//	beans_created_total{scope="singleton|prototype"}  (counter)
//	beans_creation_failures_total, beans_destroy_failures_total (counters)
type Collector struct {
	source StatsSource

	definitionsDesc     *prometheus.Desc
	singletonsDesc      *prometheus.Desc
	pendingDesc         *prometheus.Desc
	createdDesc         *prometheus.Desc
	creationFailureDesc *prometheus.Desc
	destroyFailureDesc  *prometheus.Desc
}

// NewCollector creates a collector reading from source. namespace is used as
// the metric prefix (default if empty: beans).
func NewCollector(source StatsSource, namespace string) *Collector {
	if namespace == "" {
		namespace = "beans"
	}
	return &Collector{
		source: source,
		definitionsDesc: prometheus.NewDesc(
			fmt.Sprintf("%s_definitions", namespace),
			"Registered bean definitions",
			nil, nil,
		),
		singletonsDesc: prometheus.NewDesc(
			fmt.Sprintf("%s_singletons", namespace),
			"Fully initialized singletons held by the container",
			nil, nil,
		),
		pendingDesc: prometheus.NewDesc(
			fmt.Sprintf("%s_pending_destroy_hooks", namespace),
			"Pre-destroy hooks recorded and not yet run",
			nil, nil,
		),
		createdDesc: prometheus.NewDesc(
			fmt.Sprintf("%s_created_total", namespace),
			"Beans created through the creation pipeline (cumulative)",
			[]string{"scope"}, nil,
		),
		creationFailureDesc: prometheus.NewDesc(
			fmt.Sprintf("%s_creation_failures_total", namespace),
			"Failed bean creations (cumulative)",
			nil, nil,
		),
		destroyFailureDesc: prometheus.NewDesc(
			fmt.Sprintf("%s_destroy_failures_total", namespace),
			"Beans whose teardown reported an error (cumulative)",
			nil, nil,
		),
	}
}

// Describe sends metric descriptors.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.definitionsDesc
	ch <- c.singletonsDesc
	ch <- c.pendingDesc
	ch <- c.createdDesc
	ch <- c.creationFailureDesc
	ch <- c.destroyFailureDesc
}

// Collect gathers current stats and emits ConstMetrics.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	s := c.source.Stats()

	ch <- prometheus.MustNewConstMetric(c.definitionsDesc, prometheus.GaugeValue, float64(s.Definitions))
	ch <- prometheus.MustNewConstMetric(c.singletonsDesc, prometheus.GaugeValue, float64(s.Singletons))
	ch <- prometheus.MustNewConstMetric(c.pendingDesc, prometheus.GaugeValue, float64(s.PendingDestroyHooks))
	ch <- prometheus.MustNewConstMetric(c.createdDesc, prometheus.CounterValue,
		float64(s.Creations-s.PrototypeCreations), beans.ScopeSingleton.String())
	ch <- prometheus.MustNewConstMetric(c.createdDesc, prometheus.CounterValue,
		float64(s.PrototypeCreations), beans.ScopePrototype.String())
	ch <- prometheus.MustNewConstMetric(c.creationFailureDesc, prometheus.CounterValue, float64(s.CreationFailures))
	ch <- prometheus.MustNewConstMetric(c.destroyFailureDesc, prometheus.CounterValue, float64(s.DestroyFailures))
}

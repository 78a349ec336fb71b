// Package stats instruments the chat service with Prometheus gauges
// behind a small provider interface so the server core stays decoupled
// from the metrics backend.
package stats

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type StatsProvider interface {
	Incr(name string)
	Decr(name string)
	RegisterMetric(name string)
	Run()
	Stop()
}

type StatsUpdater struct {
	registry   *prometheus.Registry
	gauges     map[string]prometheus.Gauge
	updateChan chan *metricsUpdateReq
}

type metricsUpdateReq struct {
	name  string
	value float64
}

// NewStatsUpdater creates a stats updater backed by its own Prometheus
// registry and mounts the scrape handler on mux at /metrics.
func NewStatsUpdater(mux *http.ServeMux) *StatsUpdater {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())

	su := &StatsUpdater{
		registry:   registry,
		gauges:     make(map[string]prometheus.Gauge),
		updateChan: make(chan *metricsUpdateReq, 512),
	}

	mux.Handle("GET /metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	return su
}

// RegisterMetric creates a gauge for name. Metrics must be registered
// before Run; updates to an unknown metric panic, which surfaces wiring
// bugs immediately.
func (su *StatsUpdater) RegisterMetric(name string) {
	g := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "chatapp",
		Name:      name,
	})
	su.registry.MustRegister(g)
	su.gauges[name] = g
}

func (su *StatsUpdater) updateMetrics() {
	for req := range su.updateChan {
		g, ok := su.gauges[req.name]
		if !ok {
			panic("metric not found: " + req.name)
		}
		g.Add(req.value)
	}
}

func (su *StatsUpdater) Incr(name string) {
	su.updateChan <- &metricsUpdateReq{name: name, value: 1}
}

func (su *StatsUpdater) Decr(name string) {
	su.updateChan <- &metricsUpdateReq{name: name, value: -1}
}

func (su *StatsUpdater) Run() {
	go su.updateMetrics()
}

func (su *StatsUpdater) Stop() {
	close(su.updateChan)
}

package metrics

import (
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	promcollect "github.com/prometheus/client_golang/prometheus/collectors"
	promhttp "github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "scantrack"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	scans           *prom.CounterVec
	transitions     *prom.CounterVec
	refreshDuration prom.Histogram
	boxes           *prom.GaugeVec
}

// NewPrometheusRecorder constructs the metrics and registers them on reg,
// together with the Go runtime and process collectors.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		scans: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "scans_total",
			Help:      "Barcode scans by mode and outcome",
		}, []string{"mode", "outcome"}),
		transitions: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "box_transitions_total",
			Help:      "Box status changes by source and target status",
		}, []string{"from", "to"}),
		refreshDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "snapshot_refresh_duration_seconds",
			Help:      "Time spent reloading the box snapshot from the database",
			Buckets:   prom.DefBuckets,
		}),
		boxes: prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "boxes",
			Help:      "Boxes in the last snapshot by status",
		}, []string{"status"}),
	}
	reg.MustRegister(pr.scans, pr.transitions, pr.refreshDuration, pr.boxes)
	reg.MustRegister(promcollect.NewGoCollector(), promcollect.NewProcessCollector(promcollect.ProcessCollectorOpts{}))
	return pr
}

func (p *PrometheusRecorder) IncScan(mode, outcome string) {
	if p == nil {
		return
	}
	p.scans.WithLabelValues(mode, outcome).Inc()
}

func (p *PrometheusRecorder) IncTransition(from, to string) {
	if p == nil {
		return
	}
	p.transitions.WithLabelValues(from, to).Inc()
}

func (p *PrometheusRecorder) ObserveRefreshDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.refreshDuration.Observe(d.Seconds())
}

// SetBoxesByStatus replaces the per-status gauge values.
func (p *PrometheusRecorder) SetBoxesByStatus(counts map[string]int) {
	if p == nil {
		return
	}
	p.boxes.Reset()
	for status, n := range counts {
		p.boxes.WithLabelValues(status).Set(float64(n))
	}
}

// HTTPHandler returns an http.Handler that serves the metrics in reg.
func HTTPHandler(reg *prom.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// Package prompush pushes pipeline metrics to a Prometheus Pushgateway at the
// end of a run instead of exposing a scrape endpoint.
package prompush

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"tripetl/internal/metrics"
)

// Backend keeps its own registry; the job label is the Pushgateway grouping
// key, so it is not repeated on the collectors.
type Backend struct {
	gatewayURL string
	jobName    string
	reg        *prometheus.Registry

	steps    *prometheus.CounterVec
	duration *prometheus.SummaryVec
	records  *prometheus.CounterVec
	dropped  *prometheus.CounterVec
	batches  prometheus.Counter
}

// NewBackend builds the collectors. An empty jobName defaults to "tripetl".
func NewBackend(jobName, gatewayURL string) (*Backend, error) {
	if gatewayURL == "" {
		return nil, fmt.Errorf("prompush: gateway URL is required")
	}
	if jobName == "" {
		jobName = "tripetl"
	}

	b := &Backend{
		gatewayURL: gatewayURL,
		jobName:    jobName,
		reg:        prometheus.NewRegistry(),
		steps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metrics.StepTotal,
			Help: "Pipeline step executions by step and status.",
		}, []string{"step", "status"}),
		duration: prometheus.NewSummaryVec(prometheus.SummaryOpts{
			Name:       metrics.StepDuration,
			Help:       "Pipeline step duration in seconds.",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		}, []string{"step", "status"}),
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metrics.RecordsTotal,
			Help: "Record counts by kind (rows, segments, duplicates, journeys, inserted).",
		}, []string{"kind"}),
		dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metrics.DroppedTotal,
			Help: "Legs or rows rejected during normalization, by reason.",
		}, []string{"reason"}),
		batches: prometheus.NewCounter(prometheus.CounterOpts{
			Name: metrics.BatchesTotal,
			Help: "Loader batches committed.",
		}),
	}

	for name, c := range map[string]prometheus.Collector{
		"steps": b.steps, "duration": b.duration, "records": b.records,
		"dropped": b.dropped, "batches": b.batches,
	} {
		if err := b.reg.Register(c); err != nil {
			return nil, fmt.Errorf("prompush: register %s: %w", name, err)
		}
	}
	return b, nil
}

// IncCounter routes known metric names to their collector; others are ignored.
func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	switch name {
	case metrics.StepTotal:
		if b.steps != nil {
			b.steps.WithLabelValues(labels["step"], labels["status"]).Add(delta)
		}
	case metrics.RecordsTotal:
		if b.records != nil {
			b.records.WithLabelValues(labels["kind"]).Add(delta)
		}
	case metrics.DroppedTotal:
		if b.dropped != nil {
			b.dropped.WithLabelValues(labels["reason"]).Add(delta)
		}
	case metrics.BatchesTotal:
		if b.batches != nil {
			b.batches.Add(delta)
		}
	}
}

// ObserveHistogram records step durations only.
func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	if name != metrics.StepDuration || b.duration == nil {
		return
	}
	b.duration.WithLabelValues(labels["step"], labels["status"]).Observe(value)
}

// Flush pushes the registry, replacing the previous push for this job.
func (b *Backend) Flush() error {
	return push.New(b.gatewayURL, b.jobName).Gatherer(b.reg).Push()
}

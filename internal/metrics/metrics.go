// Package metrics records pipeline counters and timings through a pluggable
// backend. The default backend discards everything, so callers never need to
// check whether metrics are configured.
package metrics

import "time"

// Metric names shared by every backend.
const (
	StepTotal    = "etl_step_total"
	StepDuration = "etl_step_duration_seconds"
	RecordsTotal = "etl_records_total"
	BatchesTotal = "etl_batches_total"
	DroppedTotal = "etl_segments_dropped_total"
)

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal surface a metrics system has to provide.
type Backend interface {
	IncCounter(name string, delta float64, labels Labels)
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush pushes buffered data, if the backend buffers at all.
	Flush() error
}

type nopBackend struct{}

func (nopBackend) IncCounter(string, float64, Labels)       {}
func (nopBackend) ObserveHistogram(string, float64, Labels) {}
func (nopBackend) Flush() error                             { return nil }

var backend Backend = nopBackend{}

// SetBackend installs b. A nil b is ignored.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	backend = b
}

// Flush delegates to the installed backend.
func Flush() error { return backend.Flush() }

// RecordStep counts one execution of a pipeline step (read, stitch, purge,
// load) and observes its duration.
func RecordStep(job, step string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	lbls := Labels{"job": job, "step": step, "status": status}
	backend.IncCounter(StepTotal, 1, lbls)
	backend.ObserveHistogram(StepDuration, d.Seconds(), lbls)
}

// RecordRow adds delta to the record counter of the given kind, e.g. "rows",
// "segments", "duplicates", "journeys", "inserted". Non-positive deltas are
// ignored.
func RecordRow(job, kind string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter(RecordsTotal, float64(delta), Labels{"job": job, "kind": kind})
}

// RecordDrop counts legs or rows dropped by the normalizer, by reason.
func RecordDrop(job, reason string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter(DroppedTotal, float64(delta), Labels{"job": job, "reason": reason})
}

// RecordBatches counts committed loader batches.
func RecordBatches(job string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter(BatchesTotal, float64(delta), Labels{"job": job})
}

// Package metrics provides a small, backend-agnostic abstraction for
// recording operational metrics from the migration run.
//
// The global backend defaults to a no-op implementation, so metric calls are
// always safe even when nothing is configured. Concrete systems live in
// subpackages (currently the Pushgateway backend in prompush); the rest of
// the codebase depends only on this interface.
package metrics

import "time"

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records a value in a latency/duration style metric.
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush pushes or flushes metrics, if the backend needs it (e.g. Pushgateway).
	Flush() error
}

// nopBackend is used by default so metrics are optional.
type nopBackend struct{}

func (nopBackend) IncCounter(name string, delta float64, labels Labels)       {}
func (nopBackend) ObserveHistogram(name string, value float64, labels Labels) {}
func (nopBackend) Flush() error                                               { return nil }

var backend Backend = nopBackend{}

// SetBackend installs a concrete backend. Passing nil keeps the existing one.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	backend = b
}

// Flush delegates to the current backend.
func Flush() error {
	return backend.Flush()
}

// RecordStep measures latency plus success/failure for one pipeline step
// (extract, transform, resolve, load).
func RecordStep(job, step string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}

	lbls := Labels{
		"job":    job,
		"step":   step,
		"status": status,
	}

	backend.IncCounter("migration_step_total", 1, lbls)
	backend.ObserveHistogram("migration_step_duration_seconds", d.Seconds(), lbls)
}

// RecordUsers increments a record-level counter for the given kind.
//
// Kinds mirror the run's report fields:
//   - "extracted"
//   - "transformed"
//   - "transform_failed"
//   - "duplicates_removed"
//   - "skipped"
//   - "rewritten"
//   - "inserted"
//   - "load_failed"
func RecordUsers(job, kind string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter("migration_records_total", float64(delta), Labels{
		"job":  job,
		"kind": kind,
	})
}

// RecordChunks increments the flushed-chunk counter.
func RecordChunks(job string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter("migration_chunks_total", float64(delta), Labels{
		"job": job,
	})
}

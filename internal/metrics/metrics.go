// Package metrics records operational metrics for dataset uploads and reads.
//
// Callers use the package-level helpers (RecordStep, RecordRow,
// RecordStatements); a concrete backend (Prometheus Pushgateway, Datadog) is
// installed once at startup with SetBackend. Until then every call is a
// no-op, so instrumentation is always safe.
package metrics

import (
	"sync"
	"time"
)

// Metric names emitted by the helpers.
const (
	StepTotal       = "csvdataset_step_total"
	StepDuration    = "csvdataset_step_duration_seconds"
	RowsTotal       = "csvdataset_rows_total"
	StatementsTotal = "csvdataset_statements_total"
)

// Step names used across the service.
const (
	StepUpload   = "upload"
	StepEvict    = "evict"
	StepInfer    = "infer"
	StepDDL      = "ddl"
	StepInsert   = "insert"
	StepAnalysis = "analysis"
	StepDelete   = "delete"
	StepPage     = "page"
)

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

type nopBackend struct{}

func (nopBackend) IncCounter(string, float64, Labels)       {}
func (nopBackend) ObserveHistogram(string, float64, Labels) {}
func (nopBackend) Flush() error                             { return nil }

var (
	mu      sync.RWMutex
	backend Backend = nopBackend{}
)

// SetBackend installs a concrete backend. Passing nil keeps the existing backend.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	mu.Lock()
	backend = b
	mu.Unlock()
}

func current() Backend {
	mu.RLock()
	defer mu.RUnlock()
	return backend
}

// Flush delegates to the current backend.
func Flush() error {
	return current().Flush()
}

// RecordStep counts one execution of step and observes its duration.
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
	b := current()
	b.IncCounter(StepTotal, 1, lbls)
	b.ObserveHistogram(StepDuration, d.Seconds(), lbls)
}

// RecordRow increments the row counter for kind: "parsed", "skipped",
// "inserted" or "read".
func RecordRow(job, kind string, delta int64) {
	if delta <= 0 {
		return
	}
	current().IncCounter(RowsTotal, float64(delta), Labels{
		"job":  job,
		"kind": kind,
	})
}

// RecordStatements counts executed INSERT statements.
func RecordStatements(job string, delta int64) {
	if delta <= 0 {
		return
	}
	current().IncCounter(StatementsTotal, float64(delta), Labels{
		"job": job,
	})
}

// Package metrics records engine activity in a private prometheus
// registry. A nil *Recorder is valid and records nothing.
package metrics

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Process outcomes.
const (
	ProcessCompleted  = "completed"
	ProcessTerminated = "terminated"
	ProcessFailed     = "failed"
)

// Recorder holds the engine's collectors.
type Recorder struct {
	registry     *prometheus.Registry
	cache        *prometheus.CounterVec
	jobs         *prometheus.CounterVec
	jobDuration  *prometheus.HistogramVec
	processes    *prometheus.CounterVec
	cacheEvicted prometheus.Counter
}

// NewRecorder creates a recorder with its own registry.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		cache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "treesearch_cache_requests_total",
			Help: "Per-file cache lookups by operation and result.",
		}, []string{"op", "result"}),
		jobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "treesearch_jobs_total",
			Help: "Per-file jobs run by operation, backend and status.",
		}, []string{"op", "backend", "status"}),
		jobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "treesearch_job_duration_seconds",
			Help:    "Duration of per-file jobs.",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
		}, []string{"op"}),
		processes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "treesearch_processes_total",
			Help: "External query processes by operation and outcome.",
		}, []string{"op", "outcome"}),
		cacheEvicted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "treesearch_cache_evictions_total",
			Help: "Entries evicted from the query cache.",
		}),
	}
	r.registry.MustRegister(r.cache, r.jobs, r.jobDuration, r.processes, r.cacheEvicted)
	return r
}

// Registry exposes the underlying registry, e.g. for promhttp.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// CacheHit records a per-file cache hit.
func (r *Recorder) CacheHit(op string) {
	if r == nil {
		return
	}
	r.cache.WithLabelValues(op, "hit").Inc()
}

// CacheMiss records a per-file cache miss.
func (r *Recorder) CacheMiss(op string) {
	if r == nil {
		return
	}
	r.cache.WithLabelValues(op, "miss").Inc()
}

// CacheEvicted records an eviction.
func (r *Recorder) CacheEvicted() {
	if r == nil {
		return
	}
	r.cacheEvicted.Inc()
}

// ObserveJob records one finished per-file job.
func (r *Recorder) ObserveJob(op, backend string, d time.Duration, err error) {
	if r == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	r.jobs.WithLabelValues(op, backend, status).Inc()
	r.jobDuration.WithLabelValues(op).Observe(d.Seconds())
}

// ProcessFinished records how an external process ended.
func (r *Recorder) ProcessFinished(op, outcome string) {
	if r == nil {
		return
	}
	r.processes.WithLabelValues(op, outcome).Inc()
}

// Snapshot flattens the current values into "name{label=value,...}" keys.
// Histograms report their sample count.
func (r *Recorder) Snapshot() (map[string]float64, error) {
	out := make(map[string]float64)
	if r == nil {
		return out, nil
	}
	families, err := r.registry.Gather()
	if err != nil {
		return nil, fmt.Errorf("gather metrics: %w", err)
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			var labels []string
			for _, lp := range m.GetLabel() {
				labels = append(labels, lp.GetName()+"="+lp.GetValue())
			}
			sort.Strings(labels)
			key := mf.GetName()
			if len(labels) > 0 {
				key += "{" + strings.Join(labels, ",") + "}"
			}
			switch {
			case m.GetCounter() != nil:
				out[key] = m.GetCounter().GetValue()
			case m.GetHistogram() != nil:
				out[key] = float64(m.GetHistogram().GetSampleCount())
			case m.GetGauge() != nil:
				out[key] = m.GetGauge().GetValue()
			}
		}
	}
	return out, nil
}

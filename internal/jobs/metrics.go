package jobmetrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes Prometheus collectors for background jobs.
type Metrics struct {
	runs          *prometheus.CounterVec
	failures      *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	discrepancies *prometheus.CounterVec
	lowStock      *prometheus.GaugeVec
}

var (
	defaultOnce    sync.Once
	defaultMetrics *Metrics
)

// NewMetrics registers the job metrics against the provided registerer. When
// the registerer is nil the default Prometheus registerer is used.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		defaultOnce.Do(func() {
			defaultMetrics = buildMetrics(prometheus.DefaultRegisterer)
		})
		return defaultMetrics
	}
	return buildMetrics(registerer)
}

func buildMetrics(registerer prometheus.Registerer) *Metrics {
	m := &Metrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mesa_jobs_total",
			Help: "Background job runs by job name and status.",
		}, []string{"job", "status"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mesa_jobs_failures_total",
			Help: "Background job failures by job name.",
		}, []string{"job"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "mesa_jobs_duration_seconds",
			Help:    "Background job duration by job name.",
			Buckets: prometheus.DefBuckets,
		}, []string{"job"}),
		discrepancies: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mesa_transfer_discrepancies_total",
			Help: "Transfer lines flagged with a discrepancy, by reason.",
		}, []string{"reason"}),
		lowStock: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "mesa_low_stock_items",
			Help: "Branch/item pairs at or below their reorder level.",
		}, []string{"branch"}),
	}
	registerer.MustRegister(m.runs, m.failures, m.duration, m.discrepancies, m.lowStock)
	return m
}

// Tracker provides lifecycle instrumentation for a single job run.
type Tracker struct {
	metrics *Metrics
	job     string
	start   time.Time
}

// Track spawns a tracker for the given job name.
func (m *Metrics) Track(job string) *Tracker {
	if m == nil {
		return &Tracker{job: job, start: time.Now()}
	}
	return &Tracker{metrics: m, job: job, start: time.Now()}
}

// End finalises the tracker, recording duration and success/failure counts.
// The provided error is returned untouched.
func (t *Tracker) End(err error) error {
	if t == nil || t.metrics == nil || t.job == "" {
		return err
	}
	status := "success"
	if err != nil {
		status = "failure"
		t.metrics.failures.WithLabelValues(t.job).Inc()
	}
	t.metrics.runs.WithLabelValues(t.job, status).Inc()
	t.metrics.duration.WithLabelValues(t.job).Observe(time.Since(t.start).Seconds())
	return err
}

// AddDiscrepancies increments the discrepancy counter for the given reason.
func (m *Metrics) AddDiscrepancies(reason string, count int) {
	if m == nil || count <= 0 {
		return
	}
	m.discrepancies.WithLabelValues(reason).Add(float64(count))
}

// SetLowStock records the number of low stock pairs for a branch.
func (m *Metrics) SetLowStock(branch string, count int) {
	if m == nil {
		return
	}
	m.lowStock.WithLabelValues(branch).Set(float64(count))
}

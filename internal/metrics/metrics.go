// Package metrics records run statistics in a Prometheus registry and
// exports them in the node-exporter textfile format.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/eykd/gts-validator/internal/domain"
)

const namespace = "gts_validator"

// Recorder owns a private registry so repeated runs in one process do not
// collide with the global default registry.
type Recorder struct {
	registry    *prometheus.Registry
	files       prometheus.Counter
	identifiers prometheus.Counter
	findings    *prometheus.CounterVec
	ok          prometheus.Gauge
	duration    prometheus.Histogram
}

// NewRecorder creates a Recorder with all collectors registered.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		files: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_scanned_total",
			Help:      "Files scanned for GTS identifiers.",
		}),
		identifiers: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "identifiers_total",
			Help:      "Candidate identifiers checked.",
		}),
		findings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "findings_total",
			Help:      "Findings reported, by reason and severity.",
		}, []string{"reason", "severity"}),
		ok: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_ok",
			Help:      "1 if the last run had no error findings.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of validation runs.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 6),
		}),
	}
	r.registry.MustRegister(r.files, r.identifiers, r.findings, r.ok, r.duration)
	return r
}

// Observe adds one finished run.
func (r *Recorder) Observe(report *domain.Report, d time.Duration) {
	files := report.Files()
	r.files.Add(float64(len(files)))
	for _, f := range files {
		r.identifiers.Add(float64(f.Identifiers))
	}
	for _, f := range report.Findings() {
		r.findings.WithLabelValues(string(f.Reason), string(f.Severity)).Inc()
	}
	if report.OK() {
		r.ok.Set(1)
	} else {
		r.ok.Set(0)
	}
	r.duration.Observe(d.Seconds())
}

// WriteTextfile atomically writes all metrics to path.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("writing metrics to %s: %w", path, err)
	}
	return nil
}

// Package metrics exposes Prometheus collectors for the video note pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Request outcomes used as the "outcome" label.
const (
	OutcomeSuccess         = "success"
	OutcomeDownloadFailed  = "download_failed"
	OutcomeTranscodeFailed = "transcode_failed"
	OutcomeUploadFailed    = "upload_failed"
	OutcomeCancelled       = "cancelled"
)

// Metrics groups the collectors recorded by the note service.
type Metrics struct {
	RequestsTotal     *prometheus.CounterVec
	TranscodeDuration prometheus.Histogram
	InFlight          prometheus.Gauge
}

// New registers the collectors on reg. It panics if they are already registered.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "videonote_requests_total",
			Help: "Total number of video note requests, by outcome",
		}, []string{"outcome"}),
		TranscodeDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "videonote_transcode_duration_seconds",
			Help:    "Wall time of a single ffmpeg transcode and probe",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120, 300},
		}),
		InFlight: factory.NewGauge(prometheus.GaugeOpts{
			Name: "videonote_transcodes_in_flight",
			Help: "Number of transcodes currently running",
		}),
	}
}

// ObserveRequest counts one finished request. Nil receivers are ignored.
func (m *Metrics) ObserveRequest(outcome string) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(outcome).Inc()
}

// TrackTranscode marks a transcode as running and returns a func that
// records its duration when called.
func (m *Metrics) TrackTranscode() func() {
	if m == nil {
		return func() {}
	}
	start := time.Now()
	m.InFlight.Inc()
	return func() {
		m.InFlight.Dec()
		m.TranscodeDuration.Observe(time.Since(start).Seconds())
	}
}

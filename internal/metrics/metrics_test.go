package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveRequest(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveRequest(OutcomeSuccess)
	m.ObserveRequest(OutcomeSuccess)
	m.ObserveRequest(OutcomeTranscodeFailed)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues(OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues(OutcomeTranscodeFailed)))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues(OutcomeUploadFailed)))
}

func TestTrackTranscode(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	done := m.TrackTranscode()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.InFlight))

	done()
	assert.Equal(t, 0.0, testutil.ToFloat64(m.InFlight))

	count, err := testutil.GatherAndCount(reg, "videonote_transcode_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.ObserveRequest(OutcomeSuccess)
		m.TrackTranscode()()
	})
}

func TestNew_DuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)

	assert.Panics(t, func() { New(reg) })
}

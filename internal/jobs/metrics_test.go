package jobmetrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestTrackerRecordsOutcome(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	_ = m.Track("backup:run").End(nil)
	err := m.Track("backup:run").End(errors.New("upload failed"))
	assert.EqualError(t, err, "upload failed")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("backup:run", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("backup:run", "failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.failures.WithLabelValues("backup:run")))
}

func TestAddBackup(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	m.AddBackup("manual", 120, 4096)
	m.AddBackup("manual", 0, 0)

	assert.Equal(t, 120.0, testutil.ToFloat64(m.records.WithLabelValues("manual")))
	assert.Equal(t, 4096.0, testutil.ToFloat64(m.bytes.WithLabelValues("manual")))

	var nilMetrics *Metrics
	nilMetrics.AddBackup("manual", 1, 1)
	assert.NoError(t, nilMetrics.Track("noop").End(nil))
}

package profiler

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticCollector map[string]float64

func (c staticCollector) CollectMetrics() map[string]float64 { return c }

func TestRecordOperation(t *testing.T) {
	rp := NewRuntimeProfiler(ProfilingOptions{MaxSamples: 3})

	_, ok := rp.Snapshot("blur")
	assert.False(t, ok)

	for _, ms := range []int{5, 1, 9, 3} {
		rp.RecordOperation("blur", time.Duration(ms)*time.Millisecond)
	}

	stats, ok := rp.Snapshot("blur")
	require.True(t, ok)
	assert.Equal(t, int64(4), stats.Count)
	assert.Equal(t, 3*time.Millisecond, stats.Last)
	assert.Equal(t, time.Millisecond, stats.Min)
	assert.Equal(t, 9*time.Millisecond, stats.Max)
	// Only the last three samples are kept: (1+9+3)/3.
	assert.Equal(t, 13*time.Millisecond/3, stats.Avg)
}

func TestStartOperation(t *testing.T) {
	rp := NewRuntimeProfiler(ProfilingOptions{})

	done := rp.StartOperation("adjust")
	elapsed := done()

	stats, ok := rp.Snapshot("adjust")
	require.True(t, ok)
	assert.Equal(t, int64(1), stats.Count)
	assert.Equal(t, elapsed, stats.Last)
}

func TestRecordMetricWindow(t *testing.T) {
	rp := NewRuntimeProfiler(ProfilingOptions{MaxSamples: 2})
	rp.RecordMetric("kernel_size", 3)
	rp.RecordMetric("kernel_size", 5)
	rp.RecordMetric("kernel_size", 7)

	ks, ok := rp.Metric("kernel_size")
	require.True(t, ok)
	assert.Equal(t, 6.0, ks.Avg)
	assert.Equal(t, 3.0, ks.Min)
	assert.Equal(t, 7.0, ks.Max)
	assert.Equal(t, 7.0, ks.Last)
	assert.Equal(t, 2, ks.Samples)
	assert.Equal(t, int64(3), ks.Count)

	_, ok = rp.Metric("missing")
	assert.False(t, ok)
}

func TestStartStopReports(t *testing.T) {
	logger, hook := test.NewNullLogger()
	rp := NewRuntimeProfiler(ProfilingOptions{
		ReportInterval: 10 * time.Millisecond,
		SampleInterval: 5 * time.Millisecond,
		Logger:         logger,
	})
	rp.AddMetricsCollector(staticCollector{"redraws": 4})
	rp.RecordOperation("blur", time.Millisecond)

	rp.Start()
	rp.Start()
	require.Eventually(t, func() bool {
		for _, e := range hook.AllEntries() {
			if e.Message == "custom metric" && e.Data["metric"] == "redraws" {
				return true
			}
		}
		return false
	}, time.Second, 5*time.Millisecond)
	rp.Stop()
	rp.Stop()

	var sawStatus, sawTiming bool
	for _, e := range hook.AllEntries() {
		assert.Equal(t, logrus.InfoLevel, e.Level)
		switch e.Message {
		case "runtime profiler status":
			sawStatus = true
		case "operation timing":
			sawTiming = e.Data["operation"] == "blur"
		}
	}
	assert.True(t, sawStatus)
	assert.True(t, sawTiming)
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "512 B", formatBytes(512))
	assert.Equal(t, "1.0 KB", formatBytes(1024))
	assert.Equal(t, "1.5 MB", formatBytes(1536*1024))
}

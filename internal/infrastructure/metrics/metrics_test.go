package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_PrintJobs(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObservePrintJob("usb", true, "", 200*time.Millisecond)
	m.ObservePrintJob("usb", false, "transfer_failed", time.Second)
	m.ObservePrintJob("usb", false, "transfer_failed", time.Second)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.printJobs.WithLabelValues("usb", "success", "")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.printJobs.WithLabelValues("usb", "error", "transfer_failed")))
}

func TestMetrics_DetectionAndQueue(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveDetection(2, 1)
	m.ObserveQueueMessage("ack")
	m.ObserveCheckout("created")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.detected.WithLabelValues("usb")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.detected.WithLabelValues("serial")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.queueMessages.WithLabelValues("ack")))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

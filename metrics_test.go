package splunk

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Nil(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.submitted("main", 10, nil)
		m.attached("main", errors.New("boom"))
	})
}

func TestMetrics_Register(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	m.submitted("", 7, nil)
	m.submitted("", 0, errors.New("boom"))
	m.attached("main", nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.submits.WithLabelValues("default")))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.submitBytes.WithLabelValues("default")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.submitErrors.WithLabelValues("default")))

	mfs, err := reg.Gather()
	require.NoError(t, err)
	var names []string
	for _, mf := range mfs {
		names = append(names, mf.GetName())
	}
	assert.Contains(t, names, "splunk_receiver_submits_total")
	assert.Contains(t, names, "splunk_receiver_attaches_total")
	assert.Panics(t, func() { NewMetrics(reg) })
}

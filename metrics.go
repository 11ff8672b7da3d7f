package splunk

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts ingestion activity per index. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	submits      *prometheus.CounterVec
	submitBytes  *prometheus.CounterVec
	submitErrors *prometheus.CounterVec
	attaches     *prometheus.CounterVec
	attachErrors *prometheus.CounterVec
}

// NewMetrics creates the ingestion counters and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	newVec := func(name, help string) *prometheus.CounterVec {
		return prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "splunk",
			Subsystem: "receiver",
			Name:      name,
			Help:      help,
		}, []string{"index"})
	}
	m := &Metrics{
		submits:      newVec("submits_total", "One-shot submits sent to receivers/simple"),
		submitBytes:  newVec("submit_bytes_total", "Event bytes sent to receivers/simple"),
		submitErrors: newVec("submit_errors_total", "Failed one-shot submits"),
		attaches:     newVec("attaches_total", "Streaming connections opened to receivers/stream"),
		attachErrors: newVec("attach_errors_total", "Streaming connections that failed to open"),
	}
	if reg != nil {
		reg.MustRegister(m.submits, m.submitBytes, m.submitErrors, m.attaches, m.attachErrors)
	}
	return m
}

func indexLabel(indexName string) string {
	if indexName == "" {
		return "default"
	}
	return indexName
}

func (m *Metrics) submitted(indexName string, n int, err error) {
	if m == nil {
		return
	}
	label := indexLabel(indexName)
	if err != nil {
		m.submitErrors.WithLabelValues(label).Inc()
		return
	}
	m.submits.WithLabelValues(label).Inc()
	m.submitBytes.WithLabelValues(label).Add(float64(n))
}

func (m *Metrics) attached(indexName string, err error) {
	if m == nil {
		return
	}
	label := indexLabel(indexName)
	if err != nil {
		m.attachErrors.WithLabelValues(label).Inc()
		return
	}
	m.attaches.WithLabelValues(label).Inc()
}

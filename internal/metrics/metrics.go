// Package metrics counts API traffic and sweep outcomes for one run and can
// dump them in Prometheus text format for node_exporter's textfile collector.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the counters of a single run. A nil *Metrics is valid and
// discards every observation.
type Metrics struct {
	Registry *prometheus.Registry

	Requests  *prometheus.CounterVec
	Retries   *prometheus.CounterVec
	Records   *prometheus.CounterVec
	Deletions *prometheus.CounterVec
}

// New creates the counters on a private registry.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		Requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rccalllog_api_requests_total",
				Help: "Call-log API requests by method and HTTP status code",
			},
			[]string{"method", "code"},
		),
		Retries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rccalllog_api_retries_total",
				Help: "Retried call-log API requests by reason",
			},
			[]string{"reason"},
		),
		Records: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rccalllog_records_total",
				Help: "Call-log records emitted by command",
			},
			[]string{"command"},
		),
		Deletions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rccalllog_deletions_total",
				Help: "Delete sweep outcomes by status",
			},
			[]string{"status"},
		),
	}
	m.Registry.MustRegister(m.Requests, m.Retries, m.Records, m.Deletions)
	return m
}

// ObserveRequest counts one HTTP exchange. code 0 means no response arrived.
func (m *Metrics) ObserveRequest(method string, code int) {
	if m == nil {
		return
	}
	label := "error"
	if code > 0 {
		label = strconv.Itoa(code)
	}
	m.Requests.WithLabelValues(method, label).Inc()
}

// ObserveRetry counts one retry.
func (m *Metrics) ObserveRetry(reason string) {
	if m == nil {
		return
	}
	m.Retries.WithLabelValues(reason).Inc()
}

// ObserveRecords adds n emitted records for command.
func (m *Metrics) ObserveRecords(command string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.Records.WithLabelValues(command).Add(float64(n))
}

// ObserveDeletion counts one sweep outcome.
func (m *Metrics) ObserveDeletion(status string) {
	if m == nil {
		return
	}
	m.Deletions.WithLabelValues(status).Inc()
}

// WriteTextfile writes every counter to path atomically.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.Registry)
}

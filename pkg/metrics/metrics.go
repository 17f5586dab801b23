// Package metrics exposes the service's Prometheus counters. A nil *Metrics
// is valid and records nothing, so components can run without it in tests.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "procure"

// Metrics holds the registry and every counter the service records.
type Metrics struct {
	registry          *prometheus.Registry
	extractions       *prometheus.CounterVec
	fallbacks         *prometheus.CounterVec
	emails            *prometheus.CounterVec
	proposalsIngested *prometheus.CounterVec
}

// New creates a registry with the service counters plus Go runtime and
// process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		extractions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "extractions_total",
			Help:      "Structured extractions by kind (rfp, proposal, comparison) and mode (ai, heuristic).",
		}, []string{"kind", "mode"}),
		fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "extraction_fallbacks_total",
			Help:      "Extractions that fell back from the language model to the heuristic.",
		}, []string{"kind"}),
		emails: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rfp_emails_total",
			Help:      "RFP emails by delivery status (sent, failed).",
		}, []string{"status"}),
		proposalsIngested: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "proposals_ingested_total",
			Help:      "Vendor proposals stored, by source (api, mailbox, mock).",
		}, []string{"source"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.extractions,
		m.fallbacks,
		m.emails,
		m.proposalsIngested,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveExtraction(kind, mode string) {
	if m == nil {
		return
	}
	m.extractions.WithLabelValues(kind, mode).Inc()
}

func (m *Metrics) ObserveFallback(kind string) {
	if m == nil {
		return
	}
	m.fallbacks.WithLabelValues(kind).Inc()
}

func (m *Metrics) ObserveEmail(status string) {
	if m == nil {
		return
	}
	m.emails.WithLabelValues(status).Inc()
}

func (m *Metrics) ObserveProposal(source string) {
	if m == nil {
		return
	}
	m.proposalsIngested.WithLabelValues(source).Inc()
}

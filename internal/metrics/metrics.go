// Package metrics exposes Prometheus instrumentation for NoteVault.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the server.
type Metrics struct {
	registry *prometheus.Registry

	RegistrationsTotal  prometheus.Counter
	LoginsTotal         *prometheus.CounterVec
	AuthzDecisionsTotal *prometheus.CounterVec
	CSRFRejectionsTotal prometheus.Counter
	AccountDeletesTotal prometheus.Counter

	NotesCreatedTotal prometheus.Counter
	NotesDeletedTotal prometheus.Counter

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// New creates and registers all collectors on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		RegistrationsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "notevault_registrations_total",
			Help: "Total number of successful user registrations.",
		}),
		LoginsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "notevault_logins_total",
			Help: "Total number of login attempts by outcome.",
		}, []string{"outcome"}),
		AuthzDecisionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "notevault_authz_decisions_total",
			Help: "Total number of authorization gate decisions by check and outcome.",
		}, []string{"check", "decision"}),
		CSRFRejectionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "notevault_csrf_rejections_total",
			Help: "Total number of requests rejected by CSRF validation.",
		}),
		AccountDeletesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "notevault_account_deletes_total",
			Help: "Total number of deleted accounts.",
		}),

		NotesCreatedTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "notevault_notes_created_total",
			Help: "Total number of notes created.",
		}),
		NotesDeletedTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "notevault_notes_deleted_total",
			Help: "Total number of notes deleted.",
		}),

		HTTPRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "notevault_http_requests_total",
			Help: "Total number of HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "notevault_http_request_duration_seconds",
			Help:    "HTTP request latency by method and route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// RecordLogin records a login attempt outcome ("success" or "failure").
func (m *Metrics) RecordLogin(success bool) {
	outcome := "failure"
	if success {
		outcome = "success"
	}
	m.LoginsTotal.WithLabelValues(outcome).Inc()
}

// RecordAuthzDecision records a gate decision for the named check.
func (m *Metrics) RecordAuthzDecision(check, decision string) {
	m.AuthzDecisionsTotal.WithLabelValues(check, decision).Inc()
}

// RecordHTTPRequest records one completed HTTP request.
func (m *Metrics) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// Handler returns the /metrics HTTP handler for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

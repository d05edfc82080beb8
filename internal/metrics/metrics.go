// Package metrics holds the Prometheus collectors pulse exports.
//
// All methods are safe on a nil *Metrics, so components can take one
// optionally.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome label values.
const (
	OutcomeOK      = "ok"
	OutcomeFault   = "fault"
	OutcomeRefused = "refused"
	OutcomeError   = "error"
)

// Metrics is the set of pulse collectors registered on one registry.
type Metrics struct {
	registry *prometheus.Registry

	commands      *prometheus.CounterVec
	registryWrite *prometheus.CounterVec
	mentions      prometheus.Counter
	feedMessages  *prometheus.CounterVec
}

// New creates the collectors and registers them, together with the Go and
// process collectors, on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pulse_commands_total",
			Help: "Chat commands dispatched, by command and outcome.",
		}, []string{"command", "outcome"}),
		registryWrite: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pulse_registry_writes_total",
			Help: "Registry save attempts, by registry and outcome.",
		}, []string{"registry", "outcome"}),
		mentions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pulse_mentions_total",
			Help: "Mentions appended to relayed posts.",
		}),
		feedMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pulse_feed_messages_total",
			Help: "Messages received from external feeds.",
		}, []string{"feed"}),
	}
	m.registry.MustRegister(
		m.commands,
		m.registryWrite,
		m.mentions,
		m.feedMessages,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Command counts one dispatched command.
func (m *Metrics) Command(command, outcome string) {
	if m == nil {
		return
	}
	m.commands.WithLabelValues(command, outcome).Inc()
}

// RegistryWrite counts one save attempt. It has the shape of
// registry.WriteObserver.
func (m *Metrics) RegistryWrite(registry string, err error) {
	if m == nil {
		return
	}
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeError
	}
	m.registryWrite.WithLabelValues(registry, outcome).Inc()
}

// Mentions counts mentions appended by a filter.
func (m *Metrics) Mentions(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.mentions.Add(float64(n))
}

// FeedMessage counts one message received from the named feed.
func (m *Metrics) FeedMessage(feed string) {
	if m == nil {
		return
	}
	m.feedMessages.WithLabelValues(feed).Inc()
}

// Registry returns the underlying Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler exposes the registry at /metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// AccessMetrics records gating outcomes. It doubles as the security monitor:
// every denial and forced sign-out shows up here.
type AccessMetrics interface {
	ObserveGuardDecision(mode, state string)
	IncSessionValidation(outcome string)
	IncNotificationDropped(kind string)
	IncRateLimited(route string)
}

type accessMetrics struct {
	guardDecisions       *prometheus.CounterVec
	sessionValidations   *prometheus.CounterVec
	notificationsDropped *prometheus.CounterVec
	rateLimited          *prometheus.CounterVec
}

func NewAccessMetrics(registry prometheus.Registerer) AccessMetrics {
	factory := promauto.With(registry)

	return &accessMetrics{
		guardDecisions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "access_guard_decisions_total",
				Help: "Guard decisions by presentation mode and resulting state",
			},
			[]string{"mode", "state"},
		),
		sessionValidations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "session_validations_total",
				Help: "Session-start validations by outcome",
			},
			[]string{"outcome"},
		),
		notificationsDropped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "notifications_dropped_total",
				Help: "Notifications dropped because the queue was full",
			},
			[]string{"kind"},
		),
		rateLimited: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rate_limited_requests_total",
				Help: "Requests rejected by the rate limiter",
			},
			[]string{"route"},
		),
	}
}

func (m *accessMetrics) ObserveGuardDecision(mode, state string) {
	m.guardDecisions.WithLabelValues(mode, state).Inc()
}

func (m *accessMetrics) IncSessionValidation(outcome string) {
	m.sessionValidations.WithLabelValues(outcome).Inc()
}

func (m *accessMetrics) IncNotificationDropped(kind string) {
	m.notificationsDropped.WithLabelValues(kind).Inc()
}

func (m *accessMetrics) IncRateLimited(route string) {
	m.rateLimited.WithLabelValues(route).Inc()
}

// Nop discards everything; handy for tests and tools.
type Nop struct{}

func (Nop) ObserveGuardDecision(string, string) {}
func (Nop) IncSessionValidation(string) {}
func (Nop) IncNotificationDropped(string) {}
func (Nop) IncRateLimited(string) {}

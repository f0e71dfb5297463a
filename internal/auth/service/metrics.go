package service

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts authentication outcomes. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	logins       *prometheus.CounterVec
	renewals     *prometheus.CounterVec
	housekeeping *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gatekeeper",
			Name:      "logins_total",
			Help:      "Login attempts by result.",
		}, []string{"result"}),
		renewals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gatekeeper",
			Name:      "session_renewals_total",
			Help:      "Session renewal attempts by result.",
		}, []string{"result"}),
		housekeeping: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gatekeeper",
			Name:      "housekeeping_deleted_total",
			Help:      "Rows removed by housekeeping.",
		}, []string{"kind"}),
	}
	reg.MustRegister(m.logins, m.renewals, m.housekeeping)
	return m
}

func (m *Metrics) login(result string) {
	if m == nil {
		return
	}
	m.logins.WithLabelValues(result).Inc()
}

func (m *Metrics) renewal(result string) {
	if m == nil {
		return
	}
	m.renewals.WithLabelValues(result).Inc()
}

func (m *Metrics) deleted(kind string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.housekeeping.WithLabelValues(kind).Add(float64(n))
}

// resultLabel maps a service error to a low-cardinality label.
func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, ErrSessionUserAgentMismatch):
		return "user_agent_mismatch"
	case errors.Is(err, ErrSessionInvalid):
		return "session_invalid"
	default:
		return "error"
	}
}

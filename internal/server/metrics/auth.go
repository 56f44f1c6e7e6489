package metrics

import (
	"errors"

	"github.com/dmitrijs2005/rentdesk/internal/common"
	"github.com/prometheus/client_golang/prometheus"
)

// Auth operations.
const (
	OpLogin   = "login"
	OpRefresh = "refresh"
	OpLogout  = "logout"
)

// AuthMetrics counts authentication outcomes. A nil *AuthMetrics records nothing.
type AuthMetrics struct {
	Operations  *prometheus.CounterVec
	Revocations *prometheus.CounterVec
}

// NewAuthMetrics creates and registers auth metrics on the given registry.
func NewAuthMetrics(reg prometheus.Registerer) *AuthMetrics {
	m := &AuthMetrics{
		Operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "operations_total",
			Help:      "Authentication operations by operation and outcome.",
		}, []string{"operation", "outcome"}),
		Revocations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "session_revocations_total",
			Help:      "Refresh token revocations by reason.",
		}, []string{"reason"}),
	}
	reg.MustRegister(m.Operations, m.Revocations)
	return m
}

// Observe records the outcome of op derived from err.
func (m *AuthMetrics) Observe(op string, err error) {
	if m == nil {
		return
	}
	m.Operations.WithLabelValues(op, Outcome(err)).Inc()
}

// Revoked records a revocation for reason ("logout", "reuse").
func (m *AuthMetrics) Revoked(reason string) {
	if m == nil {
		return
	}
	m.Revocations.WithLabelValues(reason).Inc()
}

// Outcome maps err onto a low-cardinality label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, common.ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, common.ErrTokenExpired):
		return "expired"
	case errors.Is(err, common.ErrTokenRevoked):
		return "revoked"
	case errors.Is(err, common.ErrTokenNotFound):
		return "not_found"
	case errors.Is(err, common.ErrTokenOwnershipMismatch):
		return "ownership_mismatch"
	case errors.Is(err, common.ErrTokenInvalid):
		return "malformed"
	default:
		return "error"
	}
}

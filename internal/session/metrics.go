package session

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/naveenspark/tempo/internal/backend"
)

var loginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "tempo",
		Subsystem: "session",
		Name:      "logins_total",
		Help:      "Login attempts by backend and outcome.",
	},
	[]string{"backend", "outcome"},
)

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case backend.IsRejection(err, 0):
		return "rejected"
	default:
		return "error"
	}
}

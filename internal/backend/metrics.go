package backend

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	callsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tempo",
			Subsystem: "backend",
			Name:      "calls_total",
			Help:      "Backend operations by backend and outcome (ok, rejected, unreachable, error).",
		},
		[]string{"backend", "outcome"},
	)

	fallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tempo",
			Subsystem: "backend",
			Name:      "fallbacks_total",
			Help:      "Operations re-run on the local backend after the remote was unreachable.",
		},
		[]string{"op"},
	)
)

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case IsUnreachable(err):
		return "unreachable"
	case IsRejection(err, 0):
		return "rejected"
	default:
		return "error"
	}
}

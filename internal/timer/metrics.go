package timer

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/naveenspark/tempo/internal/backend"
)

var opsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "tempo",
		Subsystem: "timer",
		Name:      "backend_ops_total",
		Help:      "Queued timer operations by kind and outcome.",
	},
	[]string{"op", "outcome"},
)

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrSessionEnded):
		return "discarded"
	case backend.IsRejection(err, 0):
		return "rejected"
	case backend.IsUnreachable(err):
		return "unreachable"
	default:
		return "error"
	}
}

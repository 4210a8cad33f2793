package probe

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	probesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tempo",
			Subsystem: "probe",
			Name:      "checks_total",
			Help:      "Health checks by result.",
		},
		[]string{"result"},
	)

	transitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tempo",
			Subsystem: "probe",
			Name:      "transitions_total",
			Help:      "Reachability flag changes by new state.",
		},
		[]string{"state"},
	)
)

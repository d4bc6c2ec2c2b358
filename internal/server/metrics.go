package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	operations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "synapse_operations_total",
		Help: "Memory operations handled, by operation name.",
	}, []string{"op"})

	consolidationPromoted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "synapse_consolidation_promoted_total",
		Help: "Entries promoted from the working set into long-term storage.",
	})

	consolidationPruned = promauto.NewCounter(prometheus.CounterOpts{
		Name: "synapse_consolidation_pruned_total",
		Help: "Entries pruned from long-term storage.",
	})
)

package services

import "github.com/prometheus/client_golang/prometheus"

// opsTotal counts marketplace operations by name and outcome class.
var opsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "marketplace_operations_total",
		Help: "Total number of marketplace operations by result.",
	},
	[]string{"operation", "result"},
)

func init() {
	prometheus.MustRegister(opsTotal)
}

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	Operations = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "mongodoc", Name: "operations_total", Help: "Number of completed driver operations by kind."},
		[]string{"operation"},
	)
	OperationErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "mongodoc", Name: "operation_errors_total", Help: "Number of failed driver operations by kind."},
		[]string{"operation"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(Operations)
	reg.MustRegister(OperationErrors)
}

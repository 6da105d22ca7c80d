package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	queueOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "queue_operations_total",
			Help: "Total queue operations by business and outcome",
		},
		[]string{"operation", "business", "status"},
	)

	queueLength = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "queue_length",
			Help: "Current queue length per business",
		},
		[]string{"business"},
	)

	queueActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "queue_active",
			Help: "Whether the business queue is accepting entries (1/0)",
		},
		[]string{"business"},
	)
)

// RecordOperation counts one queue operation outcome.
func RecordOperation(operation, business string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	queueOperations.WithLabelValues(operation, business, status).Inc()
}

// SetQueueState publishes the post-operation queue gauges.
func SetQueueState(business string, length int, active bool) {
	queueLength.WithLabelValues(business).Set(float64(length))
	if active {
		queueActive.WithLabelValues(business).Set(1)
	} else {
		queueActive.WithLabelValues(business).Set(0)
	}
}

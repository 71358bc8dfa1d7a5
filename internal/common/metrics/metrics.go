package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	GatewayRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_requests_total",
			Help: "Total number of API requests dispatched through the gateway",
		},
		[]string{"service", "method", "outcome"},
	)

	GatewayRequestsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_requests_failed_total",
			Help: "Total number of API requests that ended on the error path",
		},
		[]string{"service", "method", "error_name"},
	)

	GatewayRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "gateway_request_duration_seconds",
			Help: "Duration of request dispatching in seconds",
		},
		[]string{"service", "method"},
	)

	GatewayRequestsInFlight = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "gateway_requests_in_flight",
			Help: "Number of requests currently inside the dispatch pipeline",
		},
		[]string{"service"},
	)
)

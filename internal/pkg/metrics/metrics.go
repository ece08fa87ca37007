package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration: длительность HTTP запросов
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "verification_api_request_duration_seconds",
			Help: "Duration of HTTP requests in seconds",
		},
		[]string{"path", "method", "status"},
	)

	// VerificationOperations: результаты операций send/verify/resend/status
	VerificationOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "verification_api_operations_total",
			Help: "Number of verification operations by outcome",
		},
		[]string{"operation", "outcome"},
	)

	// RateLimitDenials: отказы лимитера по действию
	RateLimitDenials = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "verification_api_rate_limit_denials_total",
			Help: "Number of requests denied by the rate limiter",
		},
		[]string{"action"},
	)

	// EmailDeliveries: отправки писем по провайдеру и статусу
	EmailDeliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "verification_api_email_deliveries_total",
			Help: "Number of outbound verification emails",
		},
		[]string{"provider", "status"},
	)

	// SweptRows: строки, удаленные периодической очисткой
	SweptRows = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "verification_api_swept_rows_total",
			Help: "Rows removed by the periodic sweeper",
		},
		[]string{"table"},
	)
)

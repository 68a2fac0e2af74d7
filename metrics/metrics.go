// Package metrics exposes Prometheus instrumentation for the SDK.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ============================================
	// Backend API metrics
	// ============================================
	APIRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "zkpay_sdk_api_requests_total",
			Help: "Total number of backend API requests",
		},
		[]string{"method", "path"},
	)

	APIErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "zkpay_sdk_api_errors_total",
			Help: "Total number of failed backend API requests",
		},
		[]string{"method", "path", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "zkpay_sdk_api_request_duration_seconds",
			Help:    "Backend API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// ============================================
	// Lifecycle reconciler metrics
	// ============================================
	WaitPolls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "zkpay_sdk_wait_polls_total",
			Help: "Total number of status polls issued by waits",
		},
		[]string{"entity"},
	)

	WaitTimeouts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "zkpay_sdk_wait_timeouts_total",
			Help: "Total number of waits that timed out",
		},
		[]string{"entity"},
	)

	WaitTerminalFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "zkpay_sdk_wait_terminal_failures_total",
			Help: "Total number of waits ended by a terminal failure status",
		},
		[]string{"entity", "status"},
	)

	// ============================================
	// Push/event channel metrics
	// ============================================
	PushMessagesReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "zkpay_sdk_push_messages_received_total",
			Help: "Total number of push messages received",
		},
		[]string{"source", "entity"},
	)

	PushConnectionStatus = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "zkpay_sdk_push_connection_status",
			Help: "Push channel connection status (1=connected, 0=disconnected)",
		},
		[]string{"source"},
	)
)

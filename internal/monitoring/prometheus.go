// Package monitoring provides Prometheus metrics for the CRASHLENS pipeline.
//
// Usage:
//
//  1. Setup metrics in your main function:
//     router := gin.New()
//     monitoring.SetupPrometheusMetrics(router)
//
//  2. Add HTTP metrics middleware:
//     router.Use(monitoring.HTTPMetricsMiddleware())
//
//  3. Record custom metrics in pipeline components:
//
//	// Stream transport operations
//	monitoring.RecordStreamOperation("append", "incidents", true)
//
//	// Judge calls (and their rule-based fallbacks)
//	monitoring.RecordJudgeCall("analyze_incident", time.Since(start), true)
//	monitoring.RecordJudgeFallback("analyze_incident")
//
//	// Weaviate document operations
//	monitoring.RecordWeaviateOperation("create", "Incident", time.Since(start), true)
//
//	// Pattern engine
//	monitoring.RecordPatternDetected()
//	monitoring.SetWindowSize(n)
package monitoring

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP request metrics
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crashlens_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "crashlens_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// Stream transport metrics
	streamOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crashlens_stream_operations_total",
			Help: "Total number of stream transport operations",
		},
		[]string{"operation", "stream", "status"}, // operation: append, read, ack
	)

	messagesHandledTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crashlens_messages_handled_total",
			Help: "Total number of consumed messages by outcome",
		},
		[]string{"group", "outcome"}, // outcome: acked, failed
	)

	// Judge metrics
	judgeCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crashlens_judge_calls_total",
			Help: "Total number of judgment provider calls",
		},
		[]string{"task", "status"},
	)

	judgeCallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "crashlens_judge_call_duration_seconds",
			Help:    "Judgment provider call duration in seconds",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 25, 50, 100},
		},
		[]string{"task"},
	)

	judgeFallbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crashlens_judge_fallbacks_total",
			Help: "Total number of rule-based fallback judgments",
		},
		[]string{"task"},
	)

	// Weaviate operations
	weaviateOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crashlens_weaviate_operations_total",
			Help: "Total number of Weaviate operations",
		},
		[]string{"operation", "collection", "status"},
	)

	weaviateOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "crashlens_weaviate_operation_duration_seconds",
			Help:    "Weaviate operation duration in seconds",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 25, 50, 100},
		},
		[]string{"operation", "collection"},
	)

	// Pattern engine metrics
	patternsDetectedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "crashlens_patterns_detected_total",
			Help: "Total number of patterns detected",
		},
	)

	windowSize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "crashlens_pattern_window_size",
			Help: "Current number of incidents in the pattern sliding window",
		},
	)

	// Activity feed metrics
	activityDroppedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "crashlens_activity_notices_dropped_total",
			Help: "Total number of activity notices dropped due to a full buffer",
		},
	)

	// Error rate metrics
	errorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crashlens_errors_total",
			Help: "Total number of errors",
		},
		[]string{"type", "component"}, // type: http, stream, judge, weaviate
	)
)

// SetupPrometheusMetrics configures the Prometheus metrics endpoint.
func SetupPrometheusMetrics(router gin.IRoutes) {
	// Register on the default registry; ignore duplicate registration so
	// tests that build multiple servers don't panic.
	_ = prometheus.Register(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "crashlens_build_info",
		Help: "Build information for CRASHLENS",
		ConstLabels: prometheus.Labels{
			"version":   "v1.0.0",
			"component": "crashlens-core",
		},
	}, func() float64 { return 1 }))

	_ = prometheus.Register(httpRequestsTotal)
	_ = prometheus.Register(httpRequestDuration)
	_ = prometheus.Register(streamOperationsTotal)
	_ = prometheus.Register(messagesHandledTotal)
	_ = prometheus.Register(judgeCallsTotal)
	_ = prometheus.Register(judgeCallDuration)
	_ = prometheus.Register(judgeFallbacksTotal)
	_ = prometheus.Register(weaviateOperationsTotal)
	_ = prometheus.Register(weaviateOperationDuration)
	_ = prometheus.Register(patternsDetectedTotal)
	_ = prometheus.Register(windowSize)
	_ = prometheus.Register(activityDroppedTotal)
	_ = prometheus.Register(errorsTotal)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// HTTPMetricsMiddleware collects HTTP request metrics.
func HTTPMetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		method := c.Request.Method
		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = c.Request.URL.Path
		}

		c.Next()

		statusCode := strconv.Itoa(c.Writer.Status())
		duration := time.Since(start).Seconds()

		httpRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
		httpRequestDuration.WithLabelValues(method, endpoint).Observe(duration)

		if c.Writer.Status() >= 400 {
			errorsTotal.WithLabelValues("http", endpoint).Inc()
		}
	}
}

// RecordStreamOperation records a stream transport operation.
func RecordStreamOperation(operation, stream string, success bool) {
	status := "success"
	if !success {
		status = "error"
		errorsTotal.WithLabelValues("stream", stream).Inc()
	}
	streamOperationsTotal.WithLabelValues(operation, stream, status).Inc()
}

// RecordMessageHandled records the outcome of one consumed message.
func RecordMessageHandled(group string, acked bool) {
	outcome := "acked"
	if !acked {
		outcome = "failed"
	}
	messagesHandledTotal.WithLabelValues(group, outcome).Inc()
}

// RecordJudgeCall records a judgment provider call.
func RecordJudgeCall(task string, duration time.Duration, success bool) {
	status := "success"
	if !success {
		status = "error"
		errorsTotal.WithLabelValues("judge", task).Inc()
	}
	judgeCallsTotal.WithLabelValues(task, status).Inc()
	judgeCallDuration.WithLabelValues(task).Observe(duration.Seconds())
}

// RecordJudgeFallback records a deterministic rule-based fallback judgment.
func RecordJudgeFallback(task string) {
	judgeFallbacksTotal.WithLabelValues(task).Inc()
}

// RecordWeaviateOperation records a Weaviate document operation.
func RecordWeaviateOperation(operation, collection string, duration time.Duration, success bool) {
	status := "success"
	if !success {
		status = "error"
		errorsTotal.WithLabelValues("weaviate", collection).Inc()
	}
	weaviateOperationsTotal.WithLabelValues(operation, collection, status).Inc()
	weaviateOperationDuration.WithLabelValues(operation, collection).Observe(duration.Seconds())
}

// RecordPatternDetected counts one detected pattern.
func RecordPatternDetected() {
	patternsDetectedTotal.Inc()
}

// SetWindowSize publishes the current sliding-window size.
func SetWindowSize(n int) {
	windowSize.Set(float64(n))
}

// RecordActivityDropped counts an activity notice dropped on a full buffer.
func RecordActivityDropped() {
	activityDroppedTotal.Inc()
}

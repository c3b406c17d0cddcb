package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	predictorRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "predictor_requests_total",
		Help: "Total HTTP requests by method, path, and response status.",
	}, []string{"method", "path", "status"})

	predictorRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "predictor_request_duration_seconds",
		Help:    "Request duration in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	predictorPredictionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "predictor_predictions_total",
		Help: "Total successful predictions by recommended algorithm.",
	}, []string{"algorithm"})

	predictorPredictionErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "predictor_prediction_errors_total",
		Help: "Total rejected or failed predictions by error kind.",
	}, []string{"kind"})

	predictorArtifactDrift = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "predictor_artifact_drift",
		Help: "1 when the artifact file on disk no longer matches the loaded model.",
	}, []string{"artifact"})
)

// PrometheusMiddleware returns a Gin middleware that records per-request metrics.
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())
		method := c.Request.Method
		path := c.FullPath()
		if path == "" {
			// Unmatched routes share one label so scanners cannot blow up
			// the series count.
			path = "unmatched"
		}

		predictorRequestsTotal.WithLabelValues(method, path, status).Inc()
		predictorRequestDuration.WithLabelValues(method, path).Observe(duration)
	}
}

// MetricsHandler returns a Gin handler that serves Prometheus metrics.
func MetricsHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// RecordPrediction counts a successful prediction.
func RecordPrediction(algorithm string) {
	predictorPredictionsTotal.WithLabelValues(algorithm).Inc()
}

// RecordPredictionError counts a prediction that ended in an error response.
func RecordPredictionError(kind string) {
	predictorPredictionErrorsTotal.WithLabelValues(kind).Inc()
}

// RecordArtifactDrift records whether an artifact file has drifted from the
// loaded copy.
func RecordArtifactDrift(artifact string, drifted bool) {
	v := 0.0
	if drifted {
		v = 1
	}
	predictorArtifactDrift.WithLabelValues(artifact).Set(v)
}

// path: metrics/metrics.go
package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "route"},
	)

	cleanupConfirmationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cleanup_confirmations_total",
			Help: "Cleanup confirmation attempts by outcome",
		},
		[]string{"outcome"},
	)

	reportSubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "report_submissions_total",
			Help: "Waste report submissions by outcome",
		},
		[]string{"outcome"},
	)

	evidenceUploadDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "evidence_upload_duration_seconds",
			Help:    "Image upload duration including retries",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"outcome"},
	)

	reconcilePartialTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cleanup_reconcile_partial_total",
			Help: "Cleanups left partially reconciled, by failed step",
		},
		[]string{"step"},
	)
)

func ObserveCleanup(outcome string) { cleanupConfirmationsTotal.WithLabelValues(outcome).Inc() }

func ObserveReport(outcome string) { reportSubmissionsTotal.WithLabelValues(outcome).Inc() }

func ObserveUpload(d time.Duration, outcome string) {
	evidenceUploadDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

func ObserveReconcilePartial(step string) { reconcilePartialTotal.WithLabelValues(step).Inc() }

// Middleware records request counts and latency per route template.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		route := c.Route().Path
		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		httpRequestsTotal.WithLabelValues(c.Method(), route, strconv.Itoa(status)).Inc()
		httpRequestDuration.WithLabelValues(c.Method(), route).Observe(time.Since(start).Seconds())
		return err
	}
}

// Handler serves the Prometheus exposition format.
func Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}

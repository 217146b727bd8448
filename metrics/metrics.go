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
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tutorhub_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tutorhub_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	enrollmentRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tutorhub_enrollment_requests_total",
		Help: "Enrollment request submissions by result",
	}, []string{"result"})

	enrollmentApprovals = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tutorhub_enrollment_approvals_total",
		Help: "Enrollment request approvals by result",
	}, []string{"result"})

	directEnrollments = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tutorhub_direct_enrollments_total",
		Help: "Enrollments created without a request, by source and result",
	}, []string{"source", "result"})
)

// ObserveHTTPRequest records an HTTP request metric
func ObserveHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// ObserveEnrollmentRequest counts a submission outcome ("created", "duplicate", "error", ...).
func ObserveEnrollmentRequest(result string) {
	enrollmentRequests.WithLabelValues(result).Inc()
}

// ObserveApproval counts an approval outcome ("enrolled", "capacity", "already_enrolled", ...).
func ObserveApproval(result string) {
	enrollmentApprovals.WithLabelValues(result).Inc()
}

// ObserveDirectEnrollment counts a self or admin enrollment outcome.
func ObserveDirectEnrollment(source, result string) {
	directEnrollments.WithLabelValues(source, result).Inc()
}

// Middleware records every request under its route pattern, not the raw path.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		path := c.Route().Path
		status := c.Response().StatusCode()
		if err != nil {
			if fiberErr, ok := err.(*fiber.Error); ok {
				status = fiberErr.Code
			}
		}
		ObserveHTTPRequest(c.Method(), path, strconv.Itoa(status), time.Since(start))
		return err
	}
}

// Handler exposes the default registry.
func Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}

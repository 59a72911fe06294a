package prometheus

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Counter metrics
var (
	// Login counters
	LoginCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "aigym_login_total",
			Help: "Total number of login attempts",
		},
	)

	// Registration counters
	RegisterCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "aigym_register_total",
			Help: "Total number of admin registrations",
		},
	)

	// Content operation counter by content type
	ContentOperationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aigym_content_operations_total",
			Help: "Total number of content operations",
		},
		[]string{"operation", "content_type"}, // operation can be "list", "create", "update", "delete", etc.
	)

	// Community operation counter
	CommunityOperationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aigym_community_operations_total",
			Help: "Total number of community operations",
		},
		[]string{"operation"}, // operation can be "create", "access", "update", "archive", "clone", etc.
	)

	// Assignment replacement counter by target kind
	AssignmentReplaceCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aigym_assignment_replacements_total",
			Help: "Total number of assignment set replacements",
		},
		[]string{"target"}, // target can be "community", "user", "tag"
	)

	// HTTP request counter by endpoint and status
	HTTPRequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aigym_http_requests_total",
			Help: "Total number of HTTP requests by endpoint and status",
		},
		[]string{"endpoint", "method", "status"},
	)

	// Error counters
	AuthErrorCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aigym_auth_errors_total",
			Help: "Total number of authentication errors",
		},
		[]string{"type"}, // type can be "login_failure", "invalid_token", "db_error" etc.
	)

	// Content-specific error counter
	ContentErrorCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aigym_content_errors_total",
			Help: "Total number of content operation errors",
		},
		[]string{"type"},
	)

	// Bulk upload counter by outcome
	BulkUploadCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aigym_bulk_uploads_total",
			Help: "Total number of bulk user uploads",
		},
		[]string{"status"}, // status can be "completed" or "failed"
	)
)

// Histogram metrics
var (
	// Request duration
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "aigym_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "method", "status"},
	)

	// Database operation duration
	DBOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "aigym_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"}, // operation can be "query", "insert", "update", "delete"
	)
)

// Gauge metrics
var (
	// Active tokens
	ActiveTokensGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "aigym_active_tokens",
			Help: "Number of currently active authentication tokens",
		},
	)

	// System info
	InfoGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "aigym_info",
			Help: "Information about the AI GYM platform API",
		},
		[]string{"version"},
	)

	// Active communities
	ActiveCommunitiesGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "aigym_active_communities",
			Help: "Number of currently active communities",
		},
	)

	// Users per community
	UsersPerCommunityGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "aigym_users_per_community",
			Help: "Number of users per community",
		},
		[]string{"community_id", "community_name"},
	)
)

func init() {
	// Register counters
	prometheus.MustRegister(LoginCounter)
	prometheus.MustRegister(RegisterCounter)
	prometheus.MustRegister(ContentOperationCounter)
	prometheus.MustRegister(CommunityOperationCounter)
	prometheus.MustRegister(AssignmentReplaceCounter)
	prometheus.MustRegister(HTTPRequestCounter)
	prometheus.MustRegister(AuthErrorCounter)
	prometheus.MustRegister(ContentErrorCounter)
	prometheus.MustRegister(BulkUploadCounter)

	// Register histograms
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(DBOperationDuration)

	// Register gauges
	prometheus.MustRegister(ActiveTokensGauge)
	prometheus.MustRegister(InfoGauge)
	prometheus.MustRegister(ActiveCommunitiesGauge)
	prometheus.MustRegister(UsersPerCommunityGauge)

	// Set initial service info
	InfoGauge.With(prometheus.Labels{"version": "1.0.0"}).Set(1)
}

// GetPrometheusHandler returns an HTTP handler for the Prometheus metrics
func GetPrometheusHandler() http.Handler {
	return promhttp.Handler()
}

// TrackDBOperation measures database operation durations
func TrackDBOperation(operation string) func(time.Time) {
	startTime := time.Now()
	return func(endTime time.Time) {
		duration := time.Since(startTime).Seconds()
		DBOperationDuration.With(prometheus.Labels{
			"operation": operation,
		}).Observe(duration)
	}
}

// MetricsMiddleware creates a middleware function that captures metrics for each request
func MetricsMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			// Execute the request handler
			err := next(c)

			// Record request duration
			duration := time.Since(start).Seconds()
			status := strconv.Itoa(c.Response().Status)
			endpoint := c.Path()
			method := c.Request().Method

			// Record metrics
			RequestDuration.With(prometheus.Labels{
				"endpoint": endpoint,
				"method":   method,
				"status":   status,
			}).Observe(duration)

			HTTPRequestCounter.With(prometheus.Labels{
				"endpoint": endpoint,
				"method":   method,
				"status":   status,
			}).Inc()

			return err
		}
	}
}

// IncreaseActiveTokens increments the active tokens gauge
func IncreaseActiveTokens() {
	ActiveTokensGauge.Inc()
}

// DecreaseActiveTokens decrements the active tokens gauge
func DecreaseActiveTokens() {
	ActiveTokensGauge.Dec()
}

// RecordAuthError records an authentication error by type
func RecordAuthError(errorType string) {
	AuthErrorCounter.With(prometheus.Labels{"type": errorType}).Inc()
}

// RecordContentError records a content operation error by type
func RecordContentError(errorType string) {
	ContentErrorCounter.With(prometheus.Labels{"type": errorType}).Inc()
}

// RecordContentOperation records a content operation by type
func RecordContentOperation(operation, contentType string) {
	ContentOperationCounter.With(prometheus.Labels{"operation": operation, "content_type": contentType}).Inc()
}

// RecordCommunityOperation records a community operation
func RecordCommunityOperation(operation string) {
	CommunityOperationCounter.With(prometheus.Labels{"operation": operation}).Inc()
}

// RecordAssignmentReplace records one assignment set replacement by target kind
func RecordAssignmentReplace(target string) {
	AssignmentReplaceCounter.With(prometheus.Labels{"target": target}).Inc()
}

// RecordBulkUpload records one bulk upload outcome
func RecordBulkUpload(status string) {
	BulkUploadCounter.With(prometheus.Labels{"status": status}).Inc()
}

// UpdateActiveCommunities updates the active communities gauge
func UpdateActiveCommunities(count int) {
	ActiveCommunitiesGauge.Set(float64(count))
}

// UpdateUsersPerCommunity updates the users per community gauge
func UpdateUsersPerCommunity(communityID uint, communityName string, count int) {
	UsersPerCommunityGauge.With(prometheus.Labels{
		"community_id":   strconv.FormatUint(uint64(communityID), 10),
		"community_name": communityName,
	}).Set(float64(count))
}

package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Common label names for consistent metrics
const (
	LabelOutcome   = "outcome"
	LabelReason    = "reason"
	LabelResult    = "result"
	LabelOperation = "operation"
	LabelMethod    = "method"
	LabelPath      = "path"
	LabelStatus    = "status"
)

// Verdict reason values recorded alongside the outcome
const (
	ReasonSkip            = "infrastructure"
	ReasonPublic          = "public"
	ReasonUnmatched       = "unmatched"
	ReasonUnauthenticated = "unauthenticated"
	ReasonRole            = "insufficient_role"
	ReasonScope           = "out_of_scope"
	ReasonStoreError      = "store_error"
	ReasonLanding         = "landing"
	ReasonAuthorized      = "authorized"
)

var (
	// RequestsTotal counts all HTTP requests through the gate
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "housegate_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{LabelMethod, LabelPath, LabelStatus},
	)

	// RequestDuration tracks the duration of HTTP requests
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "housegate_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{LabelMethod, LabelPath},
	)

	// VerdictsTotal counts arbitration verdicts by outcome and reason.
	// Ordinary denials only ever show up here, not in logs.
	VerdictsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "housegate_verdicts_total",
			Help: "Total number of authorization verdicts",
		},
		[]string{LabelOutcome, LabelReason},
	)

	// AccessCacheTotal counts access-cache lookups by result
	AccessCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "housegate_access_cache_total",
			Help: "Total number of access cache lookups",
		},
		[]string{LabelResult},
	)

	// StoreErrorsTotal counts assignment-store failures. Non-zero values
	// indicate infrastructure degradation, not legitimate denials, and are
	// the signal to alert on.
	StoreErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "housegate_store_errors_total",
			Help: "Total number of assignment store failures",
		},
		[]string{LabelOperation},
	)
)

// Collector provides methods for recording metrics
type Collector struct{}

// NewCollector creates a new metrics collector
func NewCollector() *Collector {
	return &Collector{}
}

// RecordRequest records metrics for an HTTP request
func (c *Collector) RecordRequest(method, path string, status int, duration time.Duration) {
	RequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordVerdict records an arbitration verdict
func (c *Collector) RecordVerdict(outcome, reason string) {
	VerdictsTotal.WithLabelValues(outcome, reason).Inc()
}

// RecordCacheLookup records an access-cache lookup
func (c *Collector) RecordCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	AccessCacheTotal.WithLabelValues(result).Inc()
}

// RecordStoreError records an assignment-store failure
func (c *Collector) RecordStoreError(operation string) {
	StoreErrorsTotal.WithLabelValues(operation).Inc()
}

// Handler returns an HTTP handler for exposing metrics
func Handler() http.Handler {
	return promhttp.Handler()
}

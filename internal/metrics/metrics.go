package metrics

import (
	"regexp"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// RequestDuration tracks HTTP request duration in seconds by method, path, status.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// RequestTotal counts HTTP requests by method, path, status.
	RequestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// TransitionsTotal counts lifecycle transitions by operation (loan, return,
	// maintenance_start, maintenance_complete) and outcome (ok or the error code).
	TransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lending_transitions_total",
			Help: "Total number of asset lifecycle transitions by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)

	// StateConflictsTotal counts conditional asset writes that lost a race.
	StateConflictsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lending_state_conflicts_total",
			Help: "Conditional asset state writes that matched no row",
		},
		[]string{"operation"},
	)

	// InconsistenciesTotal counts asset_state_inconsistent failures. Any increase needs an operator.
	InconsistenciesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lending_asset_state_inconsistent_total",
			Help: "Asset state found inconsistent with its loan or maintenance records",
		},
		[]string{"source"},
	)

	// OverdueLoans is the number of active loans past their expected return, set by the overdue sweep.
	OverdueLoans = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "lending_overdue_loans",
			Help: "Active loans whose expected return time has passed",
		},
	)

	// InconsistentAssets is the number of assets violating the state/record invariant at the last sweep.
	InconsistentAssets = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "lending_inconsistent_assets",
			Help: "Assets whose state disagrees with their open records at the last consistency sweep",
		},
	)

	// ScanEventsTotal counts scan intake events (accepted, rejected, confirmed, cancelled, handed_off).
	ScanEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scan_events_total",
			Help: "Scan intake events by kind",
		},
		[]string{"event"},
	)
)

var (
	numericPathSegment = regexp.MustCompile(`/[0-9]+(/|$)`)
	initOnce           sync.Once
)

func init() {
	initOnce.Do(func() {
		prometheus.MustRegister(
			RequestDuration, RequestTotal,
			TransitionsTotal, StateConflictsTotal, InconsistenciesTotal,
			OverdueLoans, InconsistentAssets, ScanEventsTotal,
		)
	})
}

// NormalizePath reduces cardinality by replacing numeric path segments with {id}.
// E.g. /loans/123/return -> /loans/{id}/return.
func NormalizePath(path string) string {
	return numericPathSegment.ReplaceAllString(path, "/{id}$1")
}

// RecordRequest records duration and count for an HTTP request.
func RecordRequest(method, path string, statusCode int, durationSeconds float64) {
	path = NormalizePath(path)
	status := strconv.Itoa(statusCode)
	RequestDuration.WithLabelValues(method, path, status).Observe(durationSeconds)
	RequestTotal.WithLabelValues(method, path, status).Inc()
}

// RecordTransition counts one transition attempt. outcome is "ok" or an error code.
func RecordTransition(operation, outcome string) {
	TransitionsTotal.WithLabelValues(operation, outcome).Inc()
}

func IncStateConflict(operation string) {
	StateConflictsTotal.WithLabelValues(operation).Inc()
}

func IncInconsistency(source string) {
	InconsistenciesTotal.WithLabelValues(source).Inc()
}

func SetOverdueLoans(n int) {
	OverdueLoans.Set(float64(n))
}

func SetInconsistentAssets(n int) {
	InconsistentAssets.Set(float64(n))
}

func IncScanEvent(event string) {
	ScanEventsTotal.WithLabelValues(event).Inc()
}

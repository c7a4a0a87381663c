// Package metrics defines the Prometheus collectors exported by the API.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Reconciliation metrics
var (
	// ReconcilePassesTotal tracks reconciliation passes by outcome.
	ReconcilePassesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reconcile_passes_total",
			Help: "Total number of reconciliation passes by outcome",
		},
		[]string{"outcome"},
	)

	// ReconcilePassDuration tracks full pass duration.
	ReconcilePassDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "reconcile_pass_duration_seconds",
			Help:    "Reconciliation pass duration in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
		},
	)

	// ScansFinishedTotal counts scans that transitioned to Done.
	ScansFinishedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reconcile_scans_finished_total",
			Help: "Total number of scans observed transitioning to Done",
		},
	)

	// ScanStepFailuresTotal counts per-scan pipeline step failures.
	ScanStepFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reconcile_scan_step_failures_total",
			Help: "Total number of per-scan pipeline step failures by step",
		},
		[]string{"step"},
	)

	// VulnerabilitiesCreatedTotal counts new vulnerability records by source kind.
	VulnerabilitiesCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reconcile_vulnerabilities_created_total",
			Help: "Total number of vulnerability records created by source kind",
		},
		[]string{"source"},
	)

	// VulnerabilitiesDedupedTotal counts findings skipped by the dedup store.
	VulnerabilitiesDedupedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reconcile_vulnerabilities_deduped_total",
			Help: "Total number of findings skipped because their identity already existed",
		},
	)

	// CasesCreatedTotal counts case platform records created.
	CasesCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reconcile_cases_created_total",
			Help: "Total number of cases created in the case platform",
		},
	)

	// ObservablesAttachedTotal counts observables by attach outcome.
	ObservablesAttachedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reconcile_observables_attached_total",
			Help: "Total number of observable attachments by outcome",
		},
		[]string{"outcome"},
	)
)

// External system metrics
var (
	// ExternalCallDuration tracks the latency of external system calls.
	ExternalCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "external_call_duration_seconds",
			Help:    "External system call duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
		},
		[]string{"system", "operation"},
	)

	// ExternalCallErrorsTotal counts failed external system calls.
	ExternalCallErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "external_call_errors_total",
			Help: "Total number of failed external system calls",
		},
		[]string{"system", "operation"},
	)
)

// HTTP metrics
var (
	// HTTPRequestsTotal tracks HTTP requests by method, path and status.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration tracks HTTP request duration.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

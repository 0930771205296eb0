// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	// SourceAttempts counts fallback-chain fetches; outcome is accepted, rejected or error.
	SourceAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "directory_source_attempts_total",
			Help: "Record source fetch attempts by source and outcome",
		},
		[]string{"source", "outcome"},
	)

	// RecordLoads counts snapshot loads by where the records came from (memory, redis, chain, empty).
	RecordLoads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "directory_record_loads_total",
			Help: "Directory record set loads by origin",
		},
		[]string{"origin"},
	)

	RecordsLoaded = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "directory_records_loaded",
			Help: "Number of business records in the current snapshot",
		},
	)

	Searches = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "directory_searches_total",
			Help: "Search/filter/sort queries answered",
		},
	)

	Resolutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "directory_profile_resolutions_total",
			Help: "Profile resolutions by matching strategy",
		},
		[]string{"strategy"},
	)

	ReviewsSynthesized = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "directory_reviews_synthesized_total",
			Help: "Synthetic reviews generated",
		},
	)

	ComplaintsFiled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "directory_complaints_filed_total",
			Help: "Complaint filings by result",
		},
		[]string{"result"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "directory_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern and status",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "status"},
	)
)

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "cloudquiz", Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "cloudquiz", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
	StoreOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "cloudquiz", Name: "store_operations_total", Help: "Document store calls by backend, collection and operation."},
		[]string{"backend", "collection", "op"},
	)
	StoreErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "cloudquiz", Name: "store_errors_total", Help: "Failed document store calls by backend, collection and operation."},
		[]string{"backend", "collection", "op"},
	)
	SagaStepFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "cloudquiz", Name: "saga_step_failures_total", Help: "Failed secondary steps of composite operations."},
		[]string{"saga", "step"},
	)
	SnapshotCache = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "cloudquiz", Name: "user_snapshot_cache_total", Help: "User snapshot cache lookups by result (hit|miss)."},
		[]string{"result"},
	)
	JobRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "cloudquiz", Name: "maintenance_job_runs_total", Help: "Maintenance job runs by job and outcome."},
		[]string{"job", "outcome"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
	reg.MustRegister(StoreOperations)
	reg.MustRegister(StoreErrors)
	reg.MustRegister(SagaStepFailures)
	reg.MustRegister(SnapshotCache)
	reg.MustRegister(JobRuns)
}

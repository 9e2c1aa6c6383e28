package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics for monitoring the deployment pipeline
var (
	DeploymentAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "launchpad_deployment_attempts_total",
		Help: "The total number of deployment attempts",
	}, []string{"network"})

	DeploymentRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "launchpad_deployment_retries_total",
		Help: "The total number of retried deployment attempts",
	}, []string{"network"})

	DeploymentsCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "launchpad_deployments_completed_total",
		Help: "The total number of successful deployments",
	}, []string{"network"})

	DeploymentFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "launchpad_deployment_failures_total",
		Help: "Total number of terminal deployment failures by error kind",
	}, []string{"network", "error_kind"})

	DeploymentDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "launchpad_deployment_seconds",
		Help:    "Time taken to complete a deployment including retries",
		Buckets: prometheus.ExponentialBuckets(1, 2, 10),
	}, []string{"network"})

	QueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "launchpad_queue_depth",
		Help: "The number of queued jobs waiting to be processed",
	})

	JobsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "launchpad_jobs_processed_total",
		Help: "The total number of drained queue jobs by terminal state",
	}, []string{"state"})

	WalletLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "launchpad_wallet_lookups_total",
		Help: "The total number of wallet store lookups by outcome",
	}, []string{"outcome"})
)

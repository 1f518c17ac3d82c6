package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CyclesTotal tracks completed cycles by whether any account succeeded
	CyclesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hivera_cycles_total",
			Help: "Total number of completed cycles",
		},
		[]string{"outcome"},
	)

	// CycleDuration tracks how long a full pass over the accounts takes
	CycleDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "hivera_cycle_duration_seconds",
			Help:    "Duration of a full pass over all accounts",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		},
	)

	// AccountResultsTotal tracks per-account outcomes
	AccountResultsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hivera_account_results_total",
			Help: "Total number of per-account cycle results",
		},
		[]string{"account", "key", "result"},
	)

	// ContributionRetriesTotal tracks transient contribution failures that were retried
	ContributionRetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hivera_contribution_retries_total",
			Help: "Total number of retried contribution attempts",
		},
		[]string{"account", "key"},
	)

	// APIRequestsTotal tracks remote API requests
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hivera_api_requests_total",
			Help: "Total number of remote API requests",
		},
		[]string{"endpoint", "status"},
	)

	// APILatency tracks remote API latency
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hivera_api_latency_seconds",
			Help:    "Remote API latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	// AccountBalance tracks the last reported balance per account
	AccountBalance = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "hivera_account_balance",
			Help: "Last reported HIVERA balance",
		},
		[]string{"account", "key"},
	)

	// AccountPower tracks the last reported power per account
	AccountPower = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "hivera_account_power",
			Help: "Last reported power",
		},
		[]string{"account", "key"},
	)

	// AccountPowerCapacity tracks the last reported power capacity per account
	AccountPowerCapacity = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "hivera_account_power_capacity",
			Help: "Last reported power capacity",
		},
		[]string{"account", "key"},
	)

	// NextCycleDelay tracks the delay chosen before the next cycle
	NextCycleDelay = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hivera_next_cycle_delay_seconds",
			Help: "Delay chosen before the next cycle",
		},
	)
)

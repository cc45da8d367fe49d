// Package metrics exposes the prometheus counters of the service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	// Endpoint the endpoint for exposing the metrics
	Endpoint = "/metrics"
	// ProfilingIndexEndpoint the endpoint for exposing the profiling metrics
	ProfilingIndexEndpoint = "/debug/pprof/"
	// ProfileEndpoint the endpoint for exposing the profile of the profiling metrics
	ProfileEndpoint = "/debug/pprof/profile"
	// ProfilingCmdEndpoint the endpoint for exposing the command of the profiling metrics
	ProfilingCmdEndpoint = "/debug/pprof/cmdline"
	// ProfilingSymbolEndpoint the endpoint for exposing the symbol of the profiling metrics
	ProfilingSymbolEndpoint = "/debug/pprof/symbol"
	// ProfilingTraceEndpoint the endpoint for exposing the trace of the profiling metrics
	ProfilingTraceEndpoint = "/debug/pprof/trace"

	prefix = "mempush_"
)

var (
	// SubmissionsTotal counts the accepted tx submissions, labeled by network
	SubmissionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: prefix + "submissions_total",
		Help: "Total number of accepted transaction submissions",
	}, []string{"network"})

	// DuplicateSubmissionsTotal counts the idempotent re-submissions, labeled by network
	DuplicateSubmissionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: prefix + "duplicate_submissions_total",
		Help: "Total number of re-submissions resolved to an existing record",
	}, []string{"network"})

	// BroadcastsTotal counts the broadcast attempts, labeled by network and result (accepted/rejected)
	BroadcastsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: prefix + "broadcasts_total",
		Help: "Total number of broadcast attempts against the mempool service",
	}, []string{"network", "result"})

	// ReconciliationsTotal counts the reconciliation outcomes, labeled by network and resulting status
	ReconciliationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: prefix + "reconciliations_total",
		Help: "Total number of reconciliations by resulting status",
	}, []string{"network", "status"})

	// SweepsTotal counts the batch reconciliation sweeps
	SweepsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: prefix + "sweeps_total",
		Help: "Total number of batch reconciliation sweeps",
	})
)

// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package metrics exposes process-wide Prometheus counters for the parsing
// pipeline, job queue, LLM client, and entry-point/flow services, registered
// package-level since these counters are shared across independently
// constructed services rather than owned by one pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	JobsClaimed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "repograph_jobs_claimed_total",
		Help: "Parsing jobs claimed by a worker.",
	})
	JobsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "repograph_jobs_completed_total",
		Help: "Parsing jobs completed successfully.",
	})
	JobsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "repograph_jobs_failed_total",
		Help: "Parsing jobs that failed.",
	})

	FilesParsed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "repograph_files_parsed_total",
		Help: "Files parsed (content changed since last pass).",
	})
	FilesSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "repograph_files_skipped_total",
		Help: "Files skipped by the incremental-reparse content-hash check.",
	})
	FilesErrored = promauto.NewCounter(prometheus.CounterOpts{
		Name: "repograph_files_errored_total",
		Help: "Files that failed to read or parse.",
	})

	LLMCalls = promauto.NewCounter(prometheus.CounterOpts{
		Name: "repograph_llm_calls_total",
		Help: "LLM client calls made.",
	})
	LLMErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "repograph_llm_errors_total",
		Help: "LLM client calls that returned an error.",
	})

	EntryPointsConfirmed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "repograph_entry_points_confirmed_total",
		Help: "Entry points confirmed across all detection runs.",
	})
	FlowsGenerated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "repograph_flows_generated_total",
		Help: "Entry-point flow documents generated.",
	})
)

// Handler exposes the registered counters on /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

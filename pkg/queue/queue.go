// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package queue runs the fixed-size parsing-job worker pool: each worker
// polls for a claimable job, processes it to completion, and backs off
// exponentially while idle.
package queue

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/kraklabs/repograph/pkg/metrics"
	"github.com/kraklabs/repograph/pkg/parsing"
	"github.com/kraklabs/repograph/pkg/store"
)

// Config configures the worker pool.
type Config struct {
	WorkerCount            int
	JobPollIntervalSeconds float64
	InstancePrefix         string // default "repograph"
}

// Pool runs WorkerCount long-running worker loops against the job table.
type Pool struct {
	store   *store.Store
	parsing *parsing.Service
	cfg     Config
	logger  *slog.Logger
}

// New constructs a Pool. A zero logger falls back to slog.Default.
func New(st *store.Store, ps *parsing.Service, cfg Config, logger *slog.Logger) *Pool {
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.JobPollIntervalSeconds <= 0 {
		cfg.JobPollIntervalSeconds = 1.0
	}
	if cfg.InstancePrefix == "" {
		cfg.InstancePrefix = "repograph"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pool{store: st, parsing: ps, cfg: cfg, logger: logger}
}

// Run starts WorkerCount workers and blocks until ctx is cancelled. On
// cancellation, any worker mid-job finishes that job before exiting; no
// job is cancelled partway through.
func (p *Pool) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for n := 0; n < p.cfg.WorkerCount; n++ {
		workerID := fmt.Sprintf("%s-worker-%d", p.cfg.InstancePrefix, n)
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.workerLoop(ctx, workerID)
		}()
	}
	wg.Wait()
}

// workerLoop implements the claim/process/backoff loop for one worker.
func (p *Pool) workerLoop(ctx context.Context, workerID string) {
	p.logger.Info("queue.worker.started", "worker_id", workerID)
	defer p.logger.Info("queue.worker.stopped", "worker_id", workerID)

	backoff := 1.0
	for {
		if ctx.Err() != nil {
			return
		}

		job, ok, err := p.store.Job.ClaimNext(ctx, workerID)
		if err != nil {
			p.logger.Error("queue.worker.claim_error", "worker_id", workerID, "err", err)
			ok = false
		}

		if ok {
			backoff = 1.0
			metrics.JobsClaimed.Inc()
			// A claimed job runs to completion even if ctx is cancelled
			// mid-flight; only the idle poll loop itself is interruptible.
			p.process(context.WithoutCancel(ctx), workerID, job.ID, job.RepoID)
			continue
		}

		wait := pollWait(p.cfg.JobPollIntervalSeconds, backoff)
		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
		backoff = nextBackoff(backoff)
	}
}

// pollWait computes how long an idle worker sleeps before polling again,
// capped at 10 seconds.
func pollWait(pollIntervalSeconds, backoff float64) time.Duration {
	waitSeconds := math.Min(pollIntervalSeconds*backoff, 10)
	return time.Duration(waitSeconds * float64(time.Second))
}

// nextBackoff grows the idle backoff multiplier by 1.5x, capped at 10.
func nextBackoff(backoff float64) float64 {
	return math.Min(backoff*1.5, 10)
}

func (p *Pool) process(ctx context.Context, workerID, jobID, repoID string) {
	p.logger.Info("queue.job.start", "worker_id", workerID, "job_id", jobID, "repo_id", repoID)

	if err := p.parsing.ParseRepository(ctx, repoID); err != nil {
		p.logger.Error("queue.job.failed", "worker_id", workerID, "job_id", jobID, "repo_id", repoID, "err", err)
		metrics.JobsFailed.Inc()
		if failErr := p.store.Job.Fail(ctx, jobID, err.Error()); failErr != nil {
			p.logger.Error("queue.job.fail_transition_failed", "job_id", jobID, "err", failErr)
		}
		return
	}

	if err := p.store.Job.Complete(ctx, jobID); err != nil {
		p.logger.Error("queue.job.complete_transition_failed", "job_id", jobID, "err", err)
		return
	}
	metrics.JobsCompleted.Inc()
	p.logger.Info("queue.job.completed", "worker_id", workerID, "job_id", jobID, "repo_id", repoID)
}

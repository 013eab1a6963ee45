// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/repograph/internal/ui"
	"github.com/kraklabs/repograph/pkg/parsing"
	"github.com/kraklabs/repograph/pkg/queue"
)

func runQueue(args []string, globals GlobalFlags) {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: repograph queue <run|enqueue> [options]")
		os.Exit(1)
	}
	sub, rest := args[0], args[1:]
	switch sub {
	case "run":
		runQueueRun(rest, globals)
	case "enqueue":
		runRepoReparse(rest, globals) // identical: creates one pending job
	default:
		fmt.Fprintf(os.Stderr, "Unknown queue subcommand: %s\n", sub)
		os.Exit(1)
	}
}

// runQueueRun starts the worker pool and blocks until SIGINT/SIGTERM, letting
// any in-flight job finish before exiting.
func runQueueRun(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("queue run", flag.ExitOnError)
	workers := fs.Int("workers", 0, "Worker count (default: configured worker_count)")
	_ = fs.Parse(args)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a := mustApp(ctx, globals)
	defer a.close()

	workerCount := a.cfg.WorkerCount
	if *workers > 0 {
		workerCount = *workers
	}

	parsingSvc := parsing.New(a.store, a.registry, parsing.Config{
		MaxFilesPerBatch:    a.cfg.MaxFilesPerBatch,
		MaxFileSizeBytes:    a.cfg.MaxFileSizeBytes,
		ParseTimeoutSeconds: a.cfg.ParseTimeoutSeconds,
	}, a.logger)

	pool := queue.New(a.store, parsingSvc, queue.Config{
		WorkerCount:            workerCount,
		JobPollIntervalSeconds: a.cfg.JobPollIntervalSeconds,
	}, a.logger)

	ui.Infof("Starting %d parsing workers (ctrl-C to stop)", workerCount)
	pool.Run(ctx)
	ui.Info("Worker pool stopped")
}

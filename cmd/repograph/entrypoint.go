// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package main

import (
	"context"
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/repograph/internal/apperr"
	"github.com/kraklabs/repograph/internal/output"
	"github.com/kraklabs/repograph/internal/ui"
	"github.com/kraklabs/repograph/pkg/entrypoint"
)

func runEntrypoints(args []string, globals GlobalFlags) {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: repograph entrypoints <detect|list> [options]")
		os.Exit(1)
	}
	sub, rest := args[0], args[1:]
	switch sub {
	case "detect":
		runEntrypointsDetect(rest, globals)
	case "list":
		runEntrypointsList(rest, globals)
	default:
		fmt.Fprintf(os.Stderr, "Unknown entrypoints subcommand: %s\n", sub)
		os.Exit(1)
	}
}

func runEntrypointsDetect(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("entrypoints detect", flag.ExitOnError)
	repoID := fs.String("repo", "", "Repository id (required)")
	orgID := fs.String("org", "", "Organization id, for LLM credential resolution")
	forceRedetect := fs.Bool("force-redetect", false, "Clear existing candidates/entry points before detecting")
	minConfidence := fs.Float64("min-confidence", 0.7, "Minimum AI confidence to confirm an entry point")
	_ = fs.Parse(args)

	if *repoID == "" {
		apperr.Fatal(apperr.InputInvalid("repository id is required", "", "pass --repo"), globals.JSON)
	}

	ctx := context.Background()
	a := mustApp(ctx, globals)
	defer a.close()

	llm, err := a.llmClient(ctx, *orgID)
	if err != nil {
		apperr.Fatal(apperr.LLMFailure("failed to resolve LLM client", *repoID, err), globals.JSON)
	}

	svc := entrypoint.New(a.store, llm, entrypoint.Config{MinConfidence: *minConfidence}, a.logger)

	ui.Infof("Detecting entry points for repository %s", *repoID)
	result, err := svc.Detect(ctx, *repoID, *forceRedetect)
	if err != nil {
		apperr.Fatal(apperr.LLMFailure("entry point detection failed", *repoID, err), globals.JSON)
	}

	if globals.JSON {
		_ = output.JSON(result)
		return
	}
	ui.Successf("Confirmed %d entry points across %d candidate files", len(result.Confirmed), result.CandidatesConsidered)
	for _, ep := range result.Confirmed {
		fmt.Printf("  [%s/%s] %s: %s\n", ep.EntryPointType, ep.Framework, ep.Name, ep.Description)
	}
}

func runEntrypointsList(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("entrypoints list", flag.ExitOnError)
	repoID := fs.String("repo", "", "Repository id (required)")
	_ = fs.Parse(args)

	if *repoID == "" {
		apperr.Fatal(apperr.InputInvalid("repository id is required", "", "pass --repo"), globals.JSON)
	}

	ctx := context.Background()
	a := mustApp(ctx, globals)
	defer a.close()

	eps, err := a.store.EntryPoint.ListConfirmedByRepo(ctx, *repoID)
	if err != nil {
		apperr.Fatal(apperr.InfraFailure("failed to list entry points", *repoID, err), globals.JSON)
	}

	if globals.JSON {
		_ = output.JSON(eps)
		return
	}
	for _, ep := range eps {
		fmt.Printf("%s  [%s/%s] %s\n", ep.ID, ep.EntryPointType, ep.Framework, ep.Name)
	}
}

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
	"github.com/kraklabs/repograph/pkg/flow"
	"github.com/kraklabs/repograph/pkg/graph"
)

func runFlow(args []string, globals GlobalFlags) {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: repograph flow <generate|get> [options]")
		os.Exit(1)
	}
	sub, rest := args[0], args[1:]
	switch sub {
	case "generate":
		runFlowGenerate(rest, globals)
	case "get":
		runFlowGet(rest, globals)
	default:
		fmt.Fprintf(os.Stderr, "Unknown flow subcommand: %s\n", sub)
		os.Exit(1)
	}
}

func runFlowGenerate(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("flow generate", flag.ExitOnError)
	repoID := fs.String("repo", "", "Repository id (required)")
	entryPointID := fs.String("entry-point", "", "Confirmed entry point id (required)")
	orgID := fs.String("org", "", "Organization id, for LLM credential resolution")
	_ = fs.Parse(args)

	if *repoID == "" || *entryPointID == "" {
		apperr.Fatal(apperr.InputInvalid("repo and entry-point are required", "", "pass --repo and --entry-point"), globals.JSON)
	}

	ctx := context.Background()
	a := mustApp(ctx, globals)
	defer a.close()

	llm, err := a.llmClient(ctx, *orgID)
	if err != nil {
		apperr.Fatal(apperr.LLMFailure("failed to resolve LLM client", *entryPointID, err), globals.JSON)
	}

	gr := graph.New(a.store)
	svc := flow.New(a.store, gr, llm, a.logger)

	ui.Infof("Generating flow documentation for entry point %s", *entryPointID)
	doc, err := svc.Generate(ctx, *repoID, *entryPointID)
	if err != nil {
		apperr.Fatal(apperr.LLMFailure("flow generation failed", *entryPointID, err), globals.JSON)
	}

	if globals.JSON {
		_ = output.JSON(doc)
		return
	}
	ui.Successf("Generated %q (%d steps, %d iterations, depth %d)", doc.FlowName, len(doc.Steps), doc.IterationsCompleted, doc.MaxDepthAnalyzed)
}

func runFlowGet(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("flow get", flag.ExitOnError)
	entryPointID := fs.String("entry-point", "", "Confirmed entry point id (required)")
	_ = fs.Parse(args)

	if *entryPointID == "" {
		apperr.Fatal(apperr.InputInvalid("entry-point id is required", "", "pass --entry-point"), globals.JSON)
	}

	ctx := context.Background()
	a := mustApp(ctx, globals)
	defer a.close()

	doc, err := a.store.Flow.GetByEntryPoint(ctx, *entryPointID)
	if err != nil {
		apperr.Fatal(apperr.NotFound("flow not found for entry point", *entryPointID), globals.JSON)
	}

	if globals.JSON {
		_ = output.JSON(doc)
		return
	}
	fmt.Printf("%s\n%s\n\n", doc.FlowName, doc.TechnicalSummary)
	for _, step := range doc.Steps {
		fmt.Printf("%d. %s — %s\n", step.StepNumber, step.Title, step.FilePath)
		fmt.Printf("   %s\n", step.Description)
	}
}

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
	"github.com/kraklabs/repograph/pkg/graph"
)

func runGraph(args []string, globals GlobalFlags) {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: repograph graph <upstream|downstream|context> [options]")
		os.Exit(1)
	}
	sub, rest := args[0], args[1:]
	switch sub {
	case "upstream":
		runGraphDirection(rest, globals, false)
	case "downstream":
		runGraphDirection(rest, globals, true)
	case "context":
		runGraphContext(rest, globals)
	default:
		fmt.Fprintf(os.Stderr, "Unknown graph subcommand: %s\n", sub)
		os.Exit(1)
	}
}

func runGraphDirection(args []string, globals GlobalFlags, downstream bool) {
	fs := flag.NewFlagSet("graph direction", flag.ExitOnError)
	symbolID := fs.String("symbol", "", "Root symbol id (required)")
	depth := fs.Int("depth", 5, "Max traversal depth (clamped to [1,10])")
	_ = fs.Parse(args)

	if *symbolID == "" {
		apperr.Fatal(apperr.InputInvalid("symbol id is required", "", "pass --symbol"), globals.JSON)
	}

	ctx := context.Background()
	a := mustApp(ctx, globals)
	defer a.close()

	gr := graph.New(a.store)
	d := clampGraphDepth(*depth)
	var nodes []graph.Node
	var err error
	if downstream {
		nodes, err = gr.Downstream(ctx, *symbolID, d)
	} else {
		nodes, err = gr.Upstream(ctx, *symbolID, d)
	}
	if err != nil {
		apperr.Fatal(apperr.InfraFailure("graph traversal failed", *symbolID, err), globals.JSON)
	}

	if globals.JSON {
		_ = output.JSON(nodes)
		return
	}
	for _, n := range nodes {
		fmt.Printf("%*sd%d %s (%s)\n", n.Depth*2, "", n.Depth, n.QualifiedName, n.ReferenceType)
	}
}

func runGraphContext(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("graph context", flag.ExitOnError)
	symbolID := fs.String("symbol", "", "Root symbol id (required)")
	upstreamDepth := fs.Int("upstream-depth", 5, "Upstream traversal depth")
	downstreamDepth := fs.Int("downstream-depth", 5, "Downstream traversal depth")
	_ = fs.Parse(args)

	if *symbolID == "" {
		apperr.Fatal(apperr.InputInvalid("symbol id is required", "", "pass --symbol"), globals.JSON)
	}

	ctx := context.Background()
	a := mustApp(ctx, globals)
	defer a.close()

	gr := graph.New(a.store)
	sc, err := gr.SymbolContext(ctx, *symbolID, clampGraphDepth(*upstreamDepth), clampGraphDepth(*downstreamDepth))
	if err != nil {
		apperr.Fatal(apperr.InfraFailure("graph context failed", *symbolID, err), globals.JSON)
	}

	if globals.JSON {
		_ = output.JSON(sc)
		return
	}
	fmt.Printf("%s (%s)\n", sc.Root.QualifiedName, sc.Root.Kind)
	fmt.Printf("  %d upstream callers, %d downstream callees\n", len(sc.Upstream), len(sc.Downstream))
}

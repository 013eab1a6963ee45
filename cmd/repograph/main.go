// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package main implements the repograph CLI: ingest repositories, run the
// parsing-job worker pool, query the symbol/reference graph, detect entry
// points, and generate flow documentation.
//
// Usage:
//
//	repograph org create --name <name>            Create an organization
//	repograph repo create --org <id> --path <dir>  Register a repository
//	repograph parse --repo <id>                    Parse a repository inline
//	repograph queue run                             Run the job worker pool
//	repograph graph downstream --symbol <id>        Show the downstream call graph
//	repograph entrypoints detect --repo <id>        Detect entry points
//	repograph flow generate --entry-point <id>      Generate flow documentation
//	repograph serve                                 Start the HTTP surface
package main

import (
	flag "github.com/spf13/pflag"
	"fmt"
	"os"

	"github.com/kraklabs/repograph/internal/ui"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// GlobalFlags carries flags recognized ahead of the subcommand name.
type GlobalFlags struct {
	ConfigPath string
	JSON       bool
	NoColor    bool
}

func main() {
	var (
		showVersion = flag.Bool("version", false, "Show version and exit")
		configPath  = flag.String("config", "./repograph.yaml", "Path to repograph.yaml")
		jsonOutput  = flag.Bool("json", false, "Output as JSON where supported")
		noColor     = flag.Bool("no-color", false, "Disable colored output")
	)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `repograph - repository graph service CLI

Usage:
  repograph <command> [options]

Commands:
  org           Manage organizations
  repo          Manage repositories
  parse         Run a parse pass on a repository inline (no worker pool)
  queue         Enqueue parsing jobs and run the worker pool
  graph         Query the symbol/reference graph
  entrypoints   Detect and list entry points
  flow          Generate and fetch entry-point flow documentation
  serve         Start the HTTP surface

Global Options:
  --config      Path to repograph.yaml
  --json        Output as JSON where supported
  --no-color    Disable colored output
  --version     Show version and exit

Examples:
  repograph org create --name acme
  repograph repo create --org <org-id> --path /src/myrepo --name myrepo
  repograph queue run --workers 4
  repograph graph downstream --symbol <symbol-id> --depth 5
  repograph entrypoints detect --repo <repo-id>
  repograph flow generate --entry-point <entry-point-id>

`)
	}

	flag.Parse()
	ui.InitColors(*noColor || os.Getenv("NO_COLOR") != "")

	if *showVersion {
		fmt.Printf("repograph version %s\n", version)
		fmt.Printf("commit: %s\n", commit)
		fmt.Printf("built: %s\n", date)
		os.Exit(0)
	}

	globals := GlobalFlags{ConfigPath: *configPath, JSON: *jsonOutput, NoColor: *noColor}

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(1)
	}

	command := args[0]
	cmdArgs := args[1:]

	switch command {
	case "org":
		runOrg(cmdArgs, globals)
	case "repo":
		runRepo(cmdArgs, globals)
	case "parse":
		runParse(cmdArgs, globals)
	case "queue":
		runQueue(cmdArgs, globals)
	case "graph":
		runGraph(cmdArgs, globals)
	case "entrypoints":
		runEntrypoints(cmdArgs, globals)
	case "flow":
		runFlow(cmdArgs, globals)
	case "serve":
		runServe(cmdArgs, globals)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		flag.Usage()
		os.Exit(1)
	}
}

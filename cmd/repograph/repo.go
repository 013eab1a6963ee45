// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/repograph/internal/apperr"
	"github.com/kraklabs/repograph/internal/output"
	"github.com/kraklabs/repograph/internal/ui"
	"github.com/kraklabs/repograph/pkg/store"
)

func runRepo(args []string, globals GlobalFlags) {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: repograph repo <create|list|get|delete|reparse> [options]")
		os.Exit(1)
	}
	sub, rest := args[0], args[1:]
	switch sub {
	case "create":
		runRepoCreate(rest, globals)
	case "list":
		runRepoList(rest, globals)
	case "get":
		runRepoGet(rest, globals)
	case "delete":
		runRepoDelete(rest, globals)
	case "reparse":
		runRepoReparse(rest, globals)
	default:
		fmt.Fprintf(os.Stderr, "Unknown repo subcommand: %s\n", sub)
		os.Exit(1)
	}
}

func runRepoCreate(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("repo create", flag.ExitOnError)
	orgID := fs.String("org", "", "Organization id (required)")
	path := fs.String("path", "", "Repository root path on disk (required)")
	name := fs.String("name", "", "Repository name (default: the path's base name)")
	description := fs.String("description", "", "Repository description")
	_ = fs.Parse(args)

	if *orgID == "" || *path == "" {
		apperr.Fatal(apperr.InputInvalid("org and path are required", "", "pass --org and --path"), globals.JSON)
	}
	absPath, err := filepath.Abs(*path)
	if err != nil {
		apperr.Fatal(apperr.InputInvalid("invalid repository path", *path, err.Error()), globals.JSON)
	}
	if *name == "" {
		*name = filepath.Base(absPath)
	}

	ctx := context.Background()
	a := mustApp(ctx, globals)
	defer a.close()

	repo, err := a.store.Repository.Create(ctx, *orgID, *name, *description, absPath)
	if err != nil {
		apperr.Fatal(apperr.InfraFailure("failed to create repository", *name, err), globals.JSON)
	}

	if globals.JSON {
		_ = output.JSON(repo)
		return
	}
	ui.Successf("Created repository %s (%s) rooted at %s", repo.Name, repo.ID, repo.RootPath)
}

func runRepoList(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("repo list", flag.ExitOnError)
	orgID := fs.String("org", "", "Organization id (required)")
	_ = fs.Parse(args)

	if *orgID == "" {
		apperr.Fatal(apperr.InputInvalid("org is required", "", "pass --org"), globals.JSON)
	}

	ctx := context.Background()
	a := mustApp(ctx, globals)
	defer a.close()

	repos, err := a.store.Repository.ListByOrg(ctx, *orgID)
	if err != nil {
		apperr.Fatal(apperr.InfraFailure("failed to list repositories", *orgID, err), globals.JSON)
	}

	if globals.JSON {
		_ = output.JSON(repos)
		return
	}
	for _, r := range repos {
		fmt.Printf("%s  %-30s %-10s %d/%d files\n", r.ID, r.Name, r.Status, r.ParsedFiles, r.TotalFiles)
	}
}

func runRepoGet(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("repo get", flag.ExitOnError)
	id := fs.String("id", "", "Repository id (required)")
	_ = fs.Parse(args)

	if *id == "" {
		apperr.Fatal(apperr.InputInvalid("repository id is required", "", "pass --id"), globals.JSON)
	}

	ctx := context.Background()
	a := mustApp(ctx, globals)
	defer a.close()

	repo, err := a.store.Repository.Get(ctx, *id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			apperr.Fatal(apperr.NotFound("repository not found", *id), globals.JSON)
		}
		apperr.Fatal(apperr.InfraFailure("failed to load repository", *id, err), globals.JSON)
	}

	if globals.JSON {
		_ = output.JSON(repo)
		return
	}
	fmt.Printf("%s  %s\n", repo.ID, repo.Name)
	fmt.Printf("  status:      %s\n", repo.Status)
	fmt.Printf("  progress:    %d/%d (%.1f%%)\n", repo.ParsedFiles, repo.TotalFiles, repo.ProgressPercentage())
	fmt.Printf("  languages:   %v\n", repo.Languages)
	if repo.ErrorMessage != "" {
		fmt.Printf("  error:       %s\n", repo.ErrorMessage)
	}
}

func runRepoDelete(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("repo delete", flag.ExitOnError)
	id := fs.String("id", "", "Repository id (required)")
	_ = fs.Parse(args)

	if *id == "" {
		apperr.Fatal(apperr.InputInvalid("repository id is required", "", "pass --id"), globals.JSON)
	}

	ctx := context.Background()
	a := mustApp(ctx, globals)
	defer a.close()

	if err := a.store.Repository.Delete(ctx, *id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			apperr.Fatal(apperr.NotFound("repository not found", *id), globals.JSON)
		}
		apperr.Fatal(apperr.InfraFailure("failed to delete repository", *id, err), globals.JSON)
	}
	ui.Successf("Deleted repository %s", *id)
}

// runRepoReparse enqueues a parsing job for a repository, the same path the
// worker pool (queue run) drains; it does not parse inline.
func runRepoReparse(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("repo reparse", flag.ExitOnError)
	id := fs.String("id", "", "Repository id (required)")
	_ = fs.Parse(args)

	if *id == "" {
		apperr.Fatal(apperr.InputInvalid("repository id is required", "", "pass --id"), globals.JSON)
	}

	ctx := context.Background()
	a := mustApp(ctx, globals)
	defer a.close()

	job, err := a.store.Job.Create(ctx, *id)
	if err != nil {
		apperr.Fatal(apperr.InfraFailure("failed to enqueue parsing job", *id, err), globals.JSON)
	}

	if globals.JSON {
		_ = output.JSON(job)
		return
	}
	ui.Successf("Enqueued parsing job %s for repository %s", job.ID, *id)
}

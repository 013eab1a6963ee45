// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package main

import (
	"context"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/repograph/internal/apperr"
	"github.com/kraklabs/repograph/internal/ui"
	"github.com/kraklabs/repograph/pkg/parsing"
)

// runParse runs a single parse pass on one repository synchronously, bypassing
// the job queue — useful for local development and smoke tests.
func runParse(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("parse", flag.ExitOnError)
	repoID := fs.String("repo", "", "Repository id (required)")
	_ = fs.Parse(args)

	if *repoID == "" {
		apperr.Fatal(apperr.InputInvalid("repository id is required", "", "pass --repo"), globals.JSON)
	}

	ctx := context.Background()
	a := mustApp(ctx, globals)
	defer a.close()

	svc := parsing.New(a.store, a.registry, parsing.Config{
		MaxFilesPerBatch:    a.cfg.MaxFilesPerBatch,
		MaxFileSizeBytes:    a.cfg.MaxFileSizeBytes,
		ParseTimeoutSeconds: a.cfg.ParseTimeoutSeconds,
	}, a.logger)

	ui.Infof("Parsing repository %s", *repoID)
	if err := svc.ParseRepository(ctx, *repoID); err != nil {
		apperr.Fatal(apperr.InfraFailure("parse failed", *repoID, err), globals.JSON)
	}
	ui.Successf("Parsed repository %s", *repoID)
}

// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/repograph/internal/apperr"
	"github.com/kraklabs/repograph/internal/output"
	"github.com/kraklabs/repograph/internal/ui"
	"github.com/kraklabs/repograph/pkg/model"
	"github.com/kraklabs/repograph/pkg/store"
)

func runOrg(args []string, globals GlobalFlags) {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: repograph org <create|list|delete> [options]")
		os.Exit(1)
	}
	sub, rest := args[0], args[1:]
	switch sub {
	case "create":
		runOrgCreate(rest, globals)
	case "list":
		runOrgList(rest, globals)
	case "delete":
		runOrgDelete(rest, globals)
	default:
		fmt.Fprintf(os.Stderr, "Unknown org subcommand: %s\n", sub)
		os.Exit(1)
	}
}

func runOrgCreate(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("org create", flag.ExitOnError)
	name := fs.String("name", "", "Organization name (required)")
	description := fs.String("description", "", "Organization description")
	llmBaseURL := fs.String("llm-base-url", "", "Per-organization LLM base URL override")
	llmModelID := fs.String("llm-model-id", "", "Per-organization LLM model id override")
	llmAPIKey := fs.String("llm-api-key", "", "Per-organization LLM api key override")
	_ = fs.Parse(args)

	if *name == "" {
		apperr.Fatal(apperr.InputInvalid("organization name is required", "", "pass --name"), globals.JSON)
	}

	ctx := context.Background()
	a := mustApp(ctx, globals)
	defer a.close()

	var llmCfg *model.LLMConfig
	if *llmBaseURL != "" || *llmModelID != "" || *llmAPIKey != "" {
		llmCfg = &model.LLMConfig{BaseURL: *llmBaseURL, ModelID: *llmModelID, APIKey: *llmAPIKey}
	}

	org, err := a.store.Org.Create(ctx, *name, *description, llmCfg)
	if err != nil {
		apperr.Fatal(apperr.InfraFailure("failed to create organization", *name, err), globals.JSON)
	}

	if globals.JSON {
		_ = output.JSON(org)
		return
	}
	ui.Successf("Created organization %s (%s)", org.Name, org.ID)
}

func runOrgList(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("org list", flag.ExitOnError)
	_ = fs.Parse(args)

	ctx := context.Background()
	a := mustApp(ctx, globals)
	defer a.close()

	orgs, err := a.store.Org.List(ctx)
	if err != nil {
		apperr.Fatal(apperr.InfraFailure("failed to list organizations", "", err), globals.JSON)
	}

	if globals.JSON {
		_ = output.JSON(orgs)
		return
	}
	for _, org := range orgs {
		fmt.Printf("%s  %s\n", org.ID, org.Name)
	}
}

func runOrgDelete(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("org delete", flag.ExitOnError)
	id := fs.String("id", "", "Organization id (required)")
	_ = fs.Parse(args)

	if *id == "" {
		apperr.Fatal(apperr.InputInvalid("organization id is required", "", "pass --id"), globals.JSON)
	}

	ctx := context.Background()
	a := mustApp(ctx, globals)
	defer a.close()

	if err := a.store.Org.Delete(ctx, *id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			apperr.Fatal(apperr.NotFound("organization not found", *id), globals.JSON)
		}
		apperr.Fatal(apperr.InfraFailure("failed to delete organization", *id, err), globals.JSON)
	}
	ui.Successf("Deleted organization %s", *id)
}

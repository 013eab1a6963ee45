// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/kraklabs/repograph/internal/apperr"
	"github.com/kraklabs/repograph/internal/config"
	"github.com/kraklabs/repograph/pkg/llmclient"
	"github.com/kraklabs/repograph/pkg/parser"
	"github.com/kraklabs/repograph/pkg/store"
)

// app bundles the components every subcommand needs, opened once from
// process configuration.
type app struct {
	cfg      config.Config
	store    *store.Store
	registry *parser.Registry
	logger   *slog.Logger
}

func newLogger(cfg config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warning":
		level = slog.LevelWarn
	case "error", "critical":
		level = slog.LevelError
	}
	if cfg.Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}

// mustApp loads configuration and opens the store; callers use it at the top
// of a subcommand and rely on apperr.Fatal to exit on failure.
func mustApp(ctx context.Context, globals GlobalFlags) *app {
	cfg, err := config.Load(globals.ConfigPath)
	if err != nil {
		apperr.Fatal(apperr.InfraFailure("failed to load configuration", globals.ConfigPath, err), globals.JSON)
	}
	if cfg.DatabaseURL == "" {
		apperr.Fatal(apperr.InputInvalid(
			"no database_url configured",
			"set database_url in repograph.yaml or REPOGRAPH_DATABASE_URL",
			"point --config at a repograph.yaml with database_url set"), globals.JSON)
	}

	logger := newLogger(cfg)

	st, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		apperr.Fatal(apperr.InfraFailure("failed to connect to postgres", cfg.DatabaseURL, err), globals.JSON)
	}
	if err := st.EnsureSchema(ctx); err != nil {
		apperr.Fatal(apperr.InfraFailure("failed to ensure schema", "", err), globals.JSON)
	}

	return &app{cfg: cfg, store: st, registry: parser.NewDefaultRegistry(), logger: logger}
}

// llmClient resolves the LLM endpoint for an organization (falling back to
// process configuration) and constructs a client.
func (a *app) llmClient(ctx context.Context, orgID string) (*llmclient.Client, error) {
	var orgBaseURL, orgModelID, orgAPIKey string
	var orgMaxTokens int
	if orgID != "" {
		org, err := a.store.Org.Get(ctx, orgID)
		if err != nil {
			return nil, fmt.Errorf("loading organization %s: %w", orgID, err)
		}
		if org.LLMConfig != nil {
			orgBaseURL = org.LLMConfig.BaseURL
			orgModelID = org.LLMConfig.ModelID
			orgAPIKey = org.LLMConfig.APIKey
			orgMaxTokens = org.LLMConfig.MaxTokens
		}
	}

	baseURL, modelID, apiKey, _ := config.ResolveLLM(orgBaseURL, orgModelID, orgAPIKey, orgMaxTokens, a.cfg)
	if baseURL == "" || modelID == "" {
		return nil, fmt.Errorf("no LLM endpoint configured (set llm_base_url/llm_model_id)")
	}
	return llmclient.New(baseURL, apiKey, modelID), nil
}

func (a *app) close() {
	a.store.Close()
}

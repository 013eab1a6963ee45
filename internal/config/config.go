// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package config loads repograph's process configuration from YAML with
// environment-variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config is the recognized configuration mapping.
type Config struct {
	DatabaseURL            string  `yaml:"database_url"`
	WorkerCount            int     `yaml:"worker_count"`
	JobPollIntervalSeconds float64 `yaml:"job_poll_interval_seconds"`
	MaxFilesPerBatch       int     `yaml:"max_files_per_batch"`
	MaxFileSizeBytes       int64   `yaml:"max_file_size_bytes"`
	ParseTimeoutSeconds    int     `yaml:"parse_timeout_seconds"`

	LLMBaseURL   string `yaml:"llm_base_url"`
	LLMModelID   string `yaml:"llm_model_id"`
	LLMAPIKey    string `yaml:"llm_api_key"`
	LLMMaxTokens int    `yaml:"llm_max_tokens"`

	LogLevel string `yaml:"log_level"`
	Debug    bool   `yaml:"debug"`
}

// Default returns the configuration with every documented default applied.
func Default() Config {
	return Config{
		WorkerCount:            4,
		JobPollIntervalSeconds: 1.0,
		MaxFilesPerBatch:       100,
		MaxFileSizeBytes:       1_000_000,
		ParseTimeoutSeconds:    30,
		LLMMaxTokens:           4096,
		LogLevel:               "info",
	}
}

// Load reads path (if it exists) over the defaults, then applies environment
// variable overrides. A missing path is not an error — Default() alone is a
// valid configuration.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return cfg, fmt.Errorf("config: reading %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("config: parsing %s: %w", path, err)
		}
	}
	applyEnvOverrides(&cfg)
	return cfg, nil
}

// applyEnvOverrides applies the environment-variable layer of the LLM
// setting precedence (per-org override -> process config -> env var). Org
// overrides are applied by callers holding an *model.Organization; this layer
// is the lowest-priority fallback.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("REPOGRAPH_DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("REPOGRAPH_LLM_BASE_URL"); v != "" && cfg.LLMBaseURL == "" {
		cfg.LLMBaseURL = v
	}
	if v := os.Getenv("REPOGRAPH_LLM_MODEL_ID"); v != "" && cfg.LLMModelID == "" {
		cfg.LLMModelID = v
	}
	if v := os.Getenv("REPOGRAPH_LLM_API_KEY"); v != "" && cfg.LLMAPIKey == "" {
		cfg.LLMAPIKey = v
	}
	if v := os.Getenv("REPOGRAPH_LLM_MAX_TOKENS"); v != "" && cfg.LLMMaxTokens == 0 {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.LLMMaxTokens = n
		}
	}
	if v := os.Getenv("REPOGRAPH_WORKER_COUNT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.WorkerCount = n
		}
	}
}

// ResolveLLM applies the full precedence chain for one LLM setting:
// per-organization override, then process config, then (already folded into
// cfg by Load) the environment variable.
func ResolveLLM(orgBaseURL, orgModelID, orgAPIKey string, orgMaxTokens int, cfg Config) (baseURL, modelID, apiKey string, maxTokens int) {
	baseURL = firstNonEmpty(orgBaseURL, cfg.LLMBaseURL)
	modelID = firstNonEmpty(orgModelID, cfg.LLMModelID)
	apiKey = firstNonEmpty(orgAPIKey, cfg.LLMAPIKey)
	maxTokens = cfg.LLMMaxTokens
	if orgMaxTokens > 0 {
		maxTokens = orgMaxTokens
	}
	return
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

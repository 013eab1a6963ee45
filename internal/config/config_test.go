// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingPathReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default().WorkerCount, cfg.WorkerCount)
	assert.Equal(t, Default().MaxFileSizeBytes, cfg.MaxFileSizeBytes)
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadParsesYAMLOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "repograph.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
database_url: "postgres://localhost/repograph"
worker_count: 8
llm_model_id: "claude-test"
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "postgres://localhost/repograph", cfg.DatabaseURL)
	assert.Equal(t, 8, cfg.WorkerCount)
	assert.Equal(t, "claude-test", cfg.LLMModelID)
	assert.Equal(t, Default().MaxFileSizeBytes, cfg.MaxFileSizeBytes) // untouched default survives
}

func TestLoadEnvOverridesDatabaseURL(t *testing.T) {
	t.Setenv("REPOGRAPH_DATABASE_URL", "postgres://env/repograph")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "postgres://env/repograph", cfg.DatabaseURL)
}

func TestLoadEnvDoesNotOverrideConfiguredLLMBaseURL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "repograph.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`llm_base_url: "https://configured.example"`), 0o644))
	t.Setenv("REPOGRAPH_LLM_BASE_URL", "https://env.example")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://configured.example", cfg.LLMBaseURL)
}

func TestResolveLLMPrecedence(t *testing.T) {
	cfg := Config{LLMBaseURL: "https://process.example", LLMModelID: "process-model", LLMAPIKey: "process-key", LLMMaxTokens: 2048}

	baseURL, modelID, apiKey, maxTokens := ResolveLLM("https://org.example", "", "", 0, cfg)
	assert.Equal(t, "https://org.example", baseURL)
	assert.Equal(t, "process-model", modelID)
	assert.Equal(t, "process-key", apiKey)
	assert.Equal(t, 2048, maxTokens)
}

func TestResolveLLMOrgMaxTokensOverridesProcess(t *testing.T) {
	cfg := Config{LLMMaxTokens: 2048}
	_, _, _, maxTokens := ResolveLLM("", "", "", 8192, cfg)
	assert.Equal(t, 8192, maxTokens)
}

func TestFirstNonEmpty(t *testing.T) {
	assert.Equal(t, "a", firstNonEmpty("a", "b"))
	assert.Equal(t, "b", firstNonEmpty("", "b"))
	assert.Equal(t, "", firstNonEmpty("", ""))
}

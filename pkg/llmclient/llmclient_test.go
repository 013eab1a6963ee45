// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package llmclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripFencedBlockWithLanguageTag(t *testing.T) {
	in := "```json\n{\"a\": 1}\n```"
	assert.Equal(t, `{"a": 1}`, stripFencedBlock(in))
}

func TestStripFencedBlockBare(t *testing.T) {
	in := "```\n{\"a\": 1}\n```"
	assert.Equal(t, `{"a": 1}`, stripFencedBlock(in))
}

func TestStripFencedBlockNoFence(t *testing.T) {
	in := `{"a": 1}`
	assert.Equal(t, `{"a": 1}`, stripFencedBlock(in))
}

func TestRepairTruncatedJSONUnterminatedString(t *testing.T) {
	in := `{"files": ["a.py", "b.py`
	repaired, ok := repairTruncatedJSON(in)
	require.True(t, ok)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(repaired), &out))
}

func TestRepairTruncatedJSONUnbalancedBraces(t *testing.T) {
	in := `{"outer": {"inner": 1}`
	repaired, ok := repairTruncatedJSON(in)
	require.True(t, ok)
	assert.Equal(t, `{"outer": {"inner": 1}}`, repaired)
}

func TestRepairTruncatedJSONNotTruncated(t *testing.T) {
	in := `{"a": 1}`
	_, ok := repairTruncatedJSON(in)
	assert.False(t, ok)
}

func TestExtractTextBareString(t *testing.T) {
	raw, err := json.Marshal("hello")
	require.NoError(t, err)
	assert.Equal(t, "hello", extractText(raw))
}

func TestExtractTextContentBlocks(t *testing.T) {
	raw, err := json.Marshal([]contentBlock{
		{Type: "text", Text: "foo"},
		{Type: "tool_use", Text: "ignored"},
		{Type: "text", Text: "bar"},
	})
	require.NoError(t, err)
	assert.Equal(t, "foobar", extractText(raw))
}

func TestClientCallParsesJSONResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		resp := chatResponse{Content: json.RawMessage(`[{"type":"text","text":"{\"ok\":true}"}]`)}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	c := New(srv.URL, "test-key", "test-model")
	result, err := c.Call(context.Background(), "prompt", 100)
	require.NoError(t, err)

	m, ok := result.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, true, m["ok"])
}

func TestClientCallRepairsTruncatedResponse(t *testing.T) {
	truncated := `{"files": ["a.py"`
	contentJSON, err := json.Marshal(truncated)
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := chatResponse{Content: json.RawMessage(contentJSON)}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	c := New(srv.URL, "test-key", "test-model")
	result, err := c.Call(context.Background(), "prompt", 100)
	require.NoError(t, err)
	assert.NotNil(t, result)
}

func TestClientCallNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("boom"))
	}))
	defer srv.Close()

	c := New(srv.URL, "test-key", "test-model")
	_, err := c.Call(context.Background(), "prompt", 100)
	assert.Error(t, err)
}

// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package llmclient is the single LLM transport: a bearer-token HTTPS POST
// wrapping one prompt as a user turn, with response-envelope unwrapping and
// best-effort JSON truncation repair.
package llmclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kraklabs/repograph/pkg/metrics"
)

// Client calls a single configured LLM endpoint and parses its response as
// JSON.
type Client struct {
	baseURL string
	apiKey  string
	model   string
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// New constructs a Client bound to one endpoint/model/credential triple,
// already resolved through the org→config→env precedence chain.
func New(baseURL, apiKey, model string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		http:    &http.Client{Timeout: 120 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type chatRequest struct {
	Model     string `json:"model"`
	MaxTokens int    `json:"max_tokens"`
	Messages  []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// chatResponse accepts either a bare string or an array of typed content
// blocks in the "content" field.
type chatResponse struct {
	Content json.RawMessage `json:"content"`
}

// Call sends prompt as a single user turn bounded by maxTokens and parses
// the reply as JSON into a generic value. Truncated JSON (an "unterminated
// string" near the end of the payload) triggers one repair attempt before
// the error is surfaced.
func (c *Client) Call(ctx context.Context, prompt string, maxTokens int) (interface{}, error) {
	metrics.LLMCalls.Inc()
	text, err := c.call(ctx, prompt, maxTokens)
	if err != nil {
		metrics.LLMErrors.Inc()
		return nil, err
	}

	text = stripFencedBlock(text)

	var parsed interface{}
	if err := json.Unmarshal([]byte(text), &parsed); err == nil {
		return parsed, nil
	}

	repaired, ok := repairTruncatedJSON(text)
	if !ok {
		metrics.LLMErrors.Inc()
		return nil, fmt.Errorf("llmclient: response is not valid JSON: %s", truncateForError(text))
	}
	if err := json.Unmarshal([]byte(repaired), &parsed); err != nil {
		metrics.LLMErrors.Inc()
		return nil, fmt.Errorf("llmclient: response is not valid JSON even after repair: %w", err)
	}
	return parsed, nil
}

func (c *Client) call(ctx context.Context, prompt string, maxTokens int) (string, error) {
	reqBody := chatRequest{Model: c.model, MaxTokens: maxTokens}
	reqBody.Messages = []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}{{Role: "user", Content: prompt}}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("llmclient: encoding request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/messages", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("llmclient: building request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("llmclient: request failed: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("llmclient: reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("llmclient: endpoint returned status %d: %s", resp.StatusCode, string(respBytes))
	}

	var envelope chatResponse
	if err := json.Unmarshal(respBytes, &envelope); err != nil {
		return "", fmt.Errorf("llmclient: decoding response envelope: %w", err)
	}
	return extractText(envelope.Content), nil
}

// extractText unwraps the content field: a bare JSON string is returned
// as-is; an array of {type, text} blocks has its "text"-typed blocks
// concatenated.
func extractText(raw json.RawMessage) string {
	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		return asString
	}

	var blocks []contentBlock
	if err := json.Unmarshal(raw, &blocks); err == nil {
		var sb strings.Builder
		for _, b := range blocks {
			if b.Type == "text" {
				sb.WriteString(b.Text)
			}
		}
		return sb.String()
	}
	return ""
}

// stripFencedBlock removes a surrounding ```json ... ``` (or bare ``` ...
// ```) fence, if present.
func stripFencedBlock(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if idx := strings.Index(s, "\n"); idx >= 0 {
		firstLine := strings.TrimSpace(s[:idx])
		if firstLine == "json" || firstLine == "" {
			s = s[idx+1:]
		}
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// repairTruncatedJSON handles the common truncation failure mode: the
// provider's response was cut off mid-string. It closes the open string,
// then closes any unbalanced braces/brackets, innermost (last opened) first,
// and returns the repaired text. Returns ok=false when the text doesn't look
// like truncated JSON (no unmatched open quote or bracket).
func repairTruncatedJSON(s string) (string, bool) {
	inString := false
	escaped := false
	var stack []byte

	for _, r := range s {
		if escaped {
			escaped = false
			continue
		}
		switch r {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{', '[':
			if !inString {
				stack = append(stack, byte(r))
			}
		case '}', ']':
			if !inString && len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		}
	}

	if !inString && len(stack) == 0 {
		return s, false
	}

	var b strings.Builder
	b.WriteString(s)
	if inString {
		b.WriteByte('"')
	}
	for i := len(stack) - 1; i >= 0; i-- {
		switch stack[i] {
		case '{':
			b.WriteByte('}')
		case '[':
			b.WriteByte(']')
		}
	}
	return b.String(), true
}

func truncateForError(s string) string {
	const max = 200
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

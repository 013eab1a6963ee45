// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package flow synthesizes a single documented call-graph flow for one
// confirmed entry point, iterating outward in 3-deep bands over up to four
// passes.
package flow

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/kraklabs/repograph/pkg/graph"
	"github.com/kraklabs/repograph/pkg/llmclient"
	"github.com/kraklabs/repograph/pkg/metrics"
	"github.com/kraklabs/repograph/pkg/model"
	"github.com/kraklabs/repograph/pkg/store"
)

const maxIterations = 4
const bandWidth = 3

// Service generates and persists flow documentation.
type Service struct {
	store  *store.Store
	graph  *graph.Service
	llm    *llmclient.Client
	logger *slog.Logger
}

func New(st *store.Store, gr *graph.Service, llm *llmclient.Client, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: st, graph: gr, llm: llm, logger: logger}
}

type nodeWithCode struct {
	ID            string
	Name          string
	QualifiedName string
	Depth         int
	SourceCode    string
	Signature     string
	Language      string
	FilePath      string
}

// Generate runs the iterative band synthesis for one entry point and
// replaces any existing flow document for it.
func (s *Service) Generate(ctx context.Context, repoID, entryPointID string) (*model.EntryPointFlow, error) {
	entryPoint, err := s.store.EntryPoint.GetConfirmed(ctx, entryPointID)
	if err != nil {
		return nil, fmt.Errorf("flow: loading entry point %s: %w", entryPointID, err)
	}
	entrySymbol, err := s.store.Symbol.Get(ctx, entryPoint.SymbolID)
	if err != nil {
		return nil, fmt.Errorf("flow: loading entry point symbol %s: %w", entryPoint.SymbolID, err)
	}
	entryFile, err := s.store.File.Get(ctx, entryPoint.FileID)
	if err != nil {
		return nil, fmt.Errorf("flow: loading entry point file %s: %w", entryPoint.FileID, err)
	}

	allSymbolIDs := map[string]bool{entryPoint.SymbolID: true}
	allFilePaths := map[string]bool{entryFile.RelativePath: true}

	var previousSteps []model.FlowStep
	var lastFlowName, lastSummary string
	maxDepthSeen := 0
	iterationsCompleted := 0

	for k := 1; k <= maxIterations; k++ {
		startDepth := (k - 1) * bandWidth
		endDepth := k * bandWidth

		nodes, err := s.graph.Downstream(ctx, entryPoint.SymbolID, endDepth)
		if err != nil {
			return nil, fmt.Errorf("flow: fetching downstream graph at iteration %d: %w", k, err)
		}

		var nodesInBand []graph.Node
		for _, n := range nodes {
			if n.Depth >= startDepth && n.Depth <= endDepth {
				nodesInBand = append(nodesInBand, n)
			}
		}
		if k > 1 && len(nodesInBand) == 0 {
			break
		}

		band := make([]nodeWithCode, 0, len(nodesInBand))
		for _, n := range nodesInBand {
			if n.ID == "" {
				continue
			}
			allSymbolIDs[n.ID] = true
			sym, err := s.store.Symbol.Get(ctx, n.ID)
			if err != nil {
				continue
			}
			file, err := s.store.File.Get(ctx, sym.FileID)
			filePath, language := "unknown", ""
			if err == nil {
				filePath, language = file.RelativePath, file.Language
				allFilePaths[filePath] = true
			}
			band = append(band, nodeWithCode{
				ID: n.ID, Name: n.Name, QualifiedName: n.QualifiedName, Depth: n.Depth,
				SourceCode: sym.SourceCode, Signature: sym.Signature, Language: language, FilePath: filePath,
			})
			if n.Depth > maxDepthSeen {
				maxDepthSeen = n.Depth
			}
		}

		if k == 1 {
			entryNode := nodeWithCode{
				ID: entrySymbol.ID, Name: entrySymbol.Name, QualifiedName: entrySymbol.QualifiedName,
				Depth: 0, SourceCode: entrySymbol.SourceCode, Signature: entrySymbol.Signature,
				Language: entryFile.Language, FilePath: entryFile.RelativePath,
			}
			band = append([]nodeWithCode{entryNode}, band...)
			allFilePaths[entryFile.RelativePath] = true
		}

		aiResp, err := s.callFlowAI(ctx, entryPoint, entrySymbol, band, previousSteps, k, startDepth, endDepth)
		if err != nil {
			s.logger.Error("flow.iteration_error", "entry_point_id", entryPointID, "iteration", k, "err", err)
			if len(previousSteps) == 0 {
				return nil, fmt.Errorf("flow: iteration %d failed with no prior steps to fall back on: %w", k, err)
			}
			break
		}

		resolved := resolveSnippets(aiResp.Steps, band)
		previousSteps = resolved
		if aiResp.FlowName != "" {
			lastFlowName = aiResp.FlowName
		}
		if aiResp.TechnicalSummary != "" {
			lastSummary = aiResp.TechnicalSummary
		}
		iterationsCompleted = k
	}

	if len(previousSteps) == 0 {
		return nil, fmt.Errorf("flow: no flow steps generated for entry point %s", entryPointID)
	}

	flowName := lastFlowName
	if flowName == "" {
		flowName = entryPoint.Name + " Flow"
	}
	summary := lastSummary
	if summary == "" {
		summary = entryPoint.Description
	}
	if summary == "" {
		summary = "Execution flow for " + entryPoint.Name
	}

	filePaths := make([]string, 0, len(allFilePaths))
	for p := range allFilePaths {
		filePaths = append(filePaths, p)
	}
	sort.Strings(filePaths)

	symbolIDs := make([]string, 0, len(allSymbolIDs))
	for id := range allSymbolIDs {
		symbolIDs = append(symbolIDs, id)
	}

	newFlow := &model.EntryPointFlow{
		EntryPointID:        entryPointID,
		RepoID:              repoID,
		FlowName:            flowName,
		TechnicalSummary:    summary,
		FilePaths:           filePaths,
		Steps:               previousSteps,
		MaxDepthAnalyzed:    maxDepthSeen,
		IterationsCompleted: iterationsCompleted,
		SymbolIDsAnalyzed:   symbolIDs,
	}

	id, err := s.store.Flow.Replace(ctx, newFlow)
	if err != nil {
		return nil, fmt.Errorf("flow: persisting flow: %w", err)
	}
	newFlow.ID = id
	metrics.FlowsGenerated.Inc()
	return newFlow, nil
}

type flowAIResponse struct {
	FlowName         string           `json:"flow_name"`
	TechnicalSummary string           `json:"technical_summary"`
	Steps            []flowStepAI     `json:"steps"`
}

type flowStepAI struct {
	StepNumber            int                 `json:"step_number"`
	Title                 string              `json:"title"`
	Description           string              `json:"description"`
	FilePath              string              `json:"file_path"`
	ImportantLogLines     []string            `json:"important_log_lines"`
	ImportantCodeSnippets []snippetRefAI      `json:"important_code_snippets"`
}

type snippetRefAI struct {
	SymbolName    string          `json:"symbol_name"`
	QualifiedName string          `json:"qualified_name"`
	FilePath      string          `json:"file_path"`
	LineRange     *model.LineRange `json:"line_range"`
}

func (s *Service) callFlowAI(ctx context.Context, ep *model.ConfirmedEntryPoint, entrySym *model.Symbol, band []nodeWithCode, previousSteps []model.FlowStep, iteration, startDepth, endDepth int) (*flowAIResponse, error) {
	prompt := buildFlowPrompt(ep, entrySym, band, previousSteps, iteration, startDepth, endDepth)
	raw, err := s.llm.Call(ctx, prompt, 4096)
	if err != nil {
		return nil, err
	}
	b, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	var resp flowAIResponse
	if err := json.Unmarshal(b, &resp); err != nil {
		return nil, fmt.Errorf("parsing flow documentation response: %w", err)
	}
	return &resp, nil
}

func buildFlowPrompt(ep *model.ConfirmedEntryPoint, entrySym *model.Symbol, band []nodeWithCode, previousSteps []model.FlowStep, iteration, startDepth, endDepth int) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Document the execution flow of entry point %q (%s, %s): %s\n",
		ep.Name, ep.EntryPointType, ep.Framework, ep.Description))
	sb.WriteString(fmt.Sprintf("Root symbol: %s\n\n", entrySym.QualifiedName))
	sb.WriteString(fmt.Sprintf("Iteration %d covering call-graph depths %d-%d.\n\n", iteration, startDepth, endDepth))

	if len(previousSteps) > 0 {
		prevJSON, _ := json.Marshal(previousSteps)
		sb.WriteString("Previously documented steps (return the FULL updated list, not a delta):\n")
		sb.WriteString(string(prevJSON) + "\n\n")
	}

	sb.WriteString("Code at this depth range:\n")
	for _, n := range band {
		sb.WriteString(fmt.Sprintf("=== %s (depth %d, %s) ===\n", n.QualifiedName, n.Depth, n.FilePath))
		sb.WriteString(n.SourceCode + "\n\n")
	}

	sb.WriteString(`Return JSON: {"flow_name": "...", "technical_summary": "...", "steps": [` +
		`{"step_number": 1, "title": "...", "description": "...", "file_path": "...", ` +
		`"important_log_lines": [], "important_code_snippets": [` +
		`{"symbol_name": "...", "qualified_name": "...", "file_path": "...", ` +
		`"line_range": {"start": 1, "end": 10}}]}]}` + "\n")
	return sb.String()
}

// resolveSnippets resolves each referenced snippet in order: exact
// qualified_name match, then (symbol_name, file_path) match, then
// symbol_name-anywhere-in-band match. Unresolved snippets are dropped.
func resolveSnippets(steps []flowStepAI, band []nodeWithCode) []model.FlowStep {
	out := make([]model.FlowStep, 0, len(steps))
	for _, st := range steps {
		var snippets []model.CodeSnippet
		for _, ref := range st.ImportantCodeSnippets {
			node := findNode(band, ref)
			if node == nil {
				continue
			}
			code := node.SourceCode
			if ref.LineRange != nil {
				code = sliceLines(node.SourceCode, ref.LineRange.Start, ref.LineRange.End)
			}
			if strings.TrimSpace(code) == "" {
				continue
			}
			lr := model.LineRange{}
			if ref.LineRange != nil {
				lr = *ref.LineRange
			}
			snippets = append(snippets, model.CodeSnippet{
				Code: code, SymbolName: ref.SymbolName, QualifiedName: ref.QualifiedName,
				FilePath: ref.FilePath, LineRange: lr,
			})
		}

		filePath := st.FilePath
		if filePath == "" && len(snippets) > 0 {
			filePath = snippets[0].FilePath
		}

		out = append(out, model.FlowStep{
			StepNumber: st.StepNumber, Title: st.Title, Description: st.Description,
			FilePath: filePath, ImportantLogLines: st.ImportantLogLines, ImportantCodeSnippets: snippets,
		})
	}
	return out
}

func findNode(band []nodeWithCode, ref snippetRefAI) *nodeWithCode {
	for i := range band {
		if ref.QualifiedName != "" && band[i].QualifiedName == ref.QualifiedName {
			return &band[i]
		}
	}
	for i := range band {
		if ref.SymbolName != "" && band[i].Name == ref.SymbolName && band[i].FilePath == ref.FilePath {
			return &band[i]
		}
	}
	for i := range band {
		if ref.SymbolName != "" && band[i].Name == ref.SymbolName {
			return &band[i]
		}
	}
	return nil
}

func sliceLines(source string, start, end int) string {
	lines := strings.Split(source, "\n")
	if start < 1 {
		start = 1
	}
	if end > len(lines) {
		end = len(lines)
	}
	if start > end || start > len(lines) {
		return source
	}
	return strings.Join(lines[start-1:end], "\n")
}

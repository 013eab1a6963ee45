// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package entrypoint runs the two-phase LLM-mediated entry-point detection:
// a repo-wide file-path proposal, followed by per-file confirmation
// batches.
package entrypoint

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kraklabs/repograph/pkg/llmclient"
	"github.com/kraklabs/repograph/pkg/metrics"
	"github.com/kraklabs/repograph/pkg/model"
	"github.com/kraklabs/repograph/pkg/store"
)

const (
	maxFilesForAI      = 60
	defaultBatchSize    = 5
	defaultMinConfidence = 0.7
)

// Config tunes the detection pass.
type Config struct {
	BatchSize     int
	MinConfidence float64
}

// Service runs entry-point detection against a repository.
type Service struct {
	store  *store.Store
	llm    *llmclient.Client
	cfg    Config
	logger *slog.Logger
}

func New(st *store.Store, llm *llmclient.Client, cfg Config, logger *slog.Logger) *Service {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}
	if cfg.MinConfidence <= 0 {
		cfg.MinConfidence = defaultMinConfidence
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: st, llm: llm, cfg: cfg, logger: logger}
}

// Result summarizes one detection pass.
type Result struct {
	CandidatesConsidered int
	Confirmed            []model.ConfirmedEntryPoint
	FrameworksDetected    []string
}

// Detect runs the full propose-then-confirm orchestration for one repository.
func (s *Service) Detect(ctx context.Context, repoID string, forceRedetect bool) (*Result, error) {
	repo, err := s.store.Repository.Get(ctx, repoID)
	if err != nil {
		return nil, fmt.Errorf("entrypoint: loading repository %s: %w", repoID, err)
	}

	if forceRedetect {
		if err := s.store.EntryPoint.ResetForRedetect(ctx, repoID); err != nil {
			return nil, fmt.Errorf("entrypoint: resetting for redetect: %w", err)
		}
	}

	files, err := s.store.File.ListByRepo(ctx, repoID)
	if err != nil {
		return nil, fmt.Errorf("entrypoint: listing files: %w", err)
	}
	if len(files) == 0 {
		return &Result{}, nil
	}

	proposedPaths, err := s.proposeFilePaths(ctx, repo, files)
	if err != nil {
		return nil, fmt.Errorf("entrypoint: proposing file paths: %w", err)
	}

	byPath := make(map[string]model.File, len(files))
	for _, f := range files {
		byPath[f.RelativePath] = f
	}

	var candidates []model.File
	for _, p := range proposedPaths {
		if f, ok := byPath[p]; ok {
			candidates = append(candidates, f)
		}
	}
	if len(candidates) > maxFilesForAI {
		s.logger.Warn("entrypoint.too_many_candidates", "repo_id", repoID, "total", len(candidates), "cap", maxFilesForAI)
		candidates = candidates[:maxFilesForAI]
	}
	if len(candidates) == 0 {
		return &Result{}, nil
	}

	var confirmedAll []model.ConfirmedEntryPoint
	for start := 0; start < len(candidates); start += s.cfg.BatchSize {
		end := start + s.cfg.BatchSize
		if end > len(candidates) {
			end = len(candidates)
		}
		batch := candidates[start:end]

		confirmed, err := s.confirmBatch(ctx, repo, batch)
		if err != nil {
			s.logger.Warn("entrypoint.batch_confirmation_failed", "repo_id", repoID, "err", err)
			continue
		}

		for i := range confirmed {
			if _, err := s.store.EntryPoint.CreateConfirmed(ctx, &confirmed[i]); err != nil {
				return nil, fmt.Errorf("entrypoint: persisting confirmed entry point: %w", err)
			}
			metrics.EntryPointsConfirmed.Inc()
		}
		confirmedAll = append(confirmedAll, confirmed...)
	}

	frameworkSet := make(map[string]bool)
	for _, c := range confirmedAll {
		if c.Framework != "" && c.Framework != "unknown" {
			frameworkSet[c.Framework] = true
		}
	}
	frameworks := make([]string, 0, len(frameworkSet))
	for f := range frameworkSet {
		frameworks = append(frameworks, f)
	}

	if len(confirmedAll) > 0 {
		if err := s.generateDescription(ctx, repo, frameworks, confirmedAll); err != nil {
			s.logger.Warn("entrypoint.description_generation_failed", "repo_id", repoID, "err", err)
		}
	}

	return &Result{CandidatesConsidered: len(candidates), Confirmed: confirmedAll, FrameworksDetected: frameworks}, nil
}

type filePathProposal struct {
	SuggestedFilePaths []string `json:"suggested_file_paths"`
}

func (s *Service) proposeFilePaths(ctx context.Context, repo *model.Repository, files []model.File) ([]string, error) {
	prompt := buildFilePathPrompt(repo, files)
	raw, err := s.llm.Call(ctx, prompt, 2048)
	if err != nil {
		return nil, err
	}
	var proposal filePathProposal
	if err := remarshal(raw, &proposal); err != nil {
		return nil, fmt.Errorf("parsing file path proposal: %w", err)
	}
	return proposal.SuggestedFilePaths, nil
}

func buildFilePathPrompt(repo *model.Repository, files []model.File) string {
	var paths []string
	for _, f := range files {
		paths = append(paths, f.RelativePath)
	}
	treeJSON, _ := json.Marshal(repo.RepoTree)

	var sb strings.Builder
	sb.WriteString("You are analyzing a source code repository to find entry points: places where\n")
	sb.WriteString("external requests, events, or scheduled triggers enter the system.\n\n")
	sb.WriteString("Entry point categories:\n")
	sb.WriteString("- HTTP: route handlers, controllers, REST/GraphQL endpoints\n")
	sb.WriteString("- EVENT: message consumers, queue listeners, event handlers\n")
	sb.WriteString("- SCHEDULER: cron jobs, scheduled tasks, timers\n\n")
	sb.WriteString("Repository languages: " + strings.Join(repo.Languages, ", ") + "\n")
	sb.WriteString("Repository tree:\n" + string(treeJSON) + "\n\n")
	sb.WriteString("All files:\n")
	for _, p := range paths {
		sb.WriteString("- " + p + "\n")
	}
	sb.WriteString("\nReturn JSON: {\"suggested_file_paths\": [\"path1\", \"path2\", ...]}\n")
	sb.WriteString("List only the files likely to contain entry points, ranked by relevance.\n")
	return sb.String()
}

type entryPointRecord struct {
	SymbolName    string  `json:"symbol_name"`
	QualifiedName string  `json:"qualified_name"`
	Type          string  `json:"type"`
	Name          string  `json:"name"`
	Description   string  `json:"description"`
	Confidence    float64 `json:"confidence"`
	Reasoning     string  `json:"reasoning"`
}

type fileConfirmation struct {
	FilePath    string             `json:"file_path"`
	EntryPoints []entryPointRecord `json:"entry_points"`
}

type confirmResponse struct {
	Files []fileConfirmation `json:"files"`
}

func (s *Service) confirmBatch(ctx context.Context, repo *model.Repository, batch []model.File) ([]model.ConfirmedEntryPoint, error) {
	fileByPath := make(map[string]model.File, len(batch))
	symbolsByFile := make(map[string][]model.Symbol, len(batch))
	for _, f := range batch {
		fileByPath[f.RelativePath] = f
		syms, err := s.store.Symbol.ListByFile(ctx, f.ID)
		if err != nil {
			return nil, fmt.Errorf("listing symbols for %s: %w", f.RelativePath, err)
		}
		symbolsByFile[f.RelativePath] = syms
	}

	prompt := buildConfirmationPrompt(batch, symbolsByFile)
	raw, err := s.llm.Call(ctx, prompt, 4096)
	if err != nil {
		return nil, err
	}

	var resp confirmResponse
	if err := remarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("parsing confirmation response: %w", err)
	}

	var out []model.ConfirmedEntryPoint
	for _, fc := range resp.Files {
		file, ok := fileByPath[fc.FilePath]
		if !ok {
			continue
		}
		for _, rec := range fc.EntryPoints {
			if rec.Confidence < s.cfg.MinConfidence {
				continue
			}
			sym, err := s.resolveSymbol(ctx, repo.ID, file.ID, rec.QualifiedName, rec.SymbolName)
			if err != nil || sym == nil {
				s.logger.Warn("entrypoint.symbol_not_resolved", "file_path", fc.FilePath, "symbol_name", rec.SymbolName)
				continue
			}

			epType := normalizeEntryPointType(rec.Type)
			framework := inferFramework(fc.FilePath, epType)

			out = append(out, model.ConfirmedEntryPoint{
				RepoID:         repo.ID,
				SymbolID:       sym.ID,
				FileID:         file.ID,
				EntryPointType: epType,
				Framework:      framework,
				Name:           rec.Name,
				Description:    rec.Description,
				AIConfidence:   rec.Confidence,
				AIReasoning:    rec.Reasoning,
			})
		}
	}
	return out, nil
}

// resolveSymbol tries, in order: exact qualified name, then exact simple
// name, then qualified-name suffix of the last two dotted parts, then any
// symbol in the file.
func (s *Service) resolveSymbol(ctx context.Context, repoID, fileID, qualifiedName, symbolName string) (*model.Symbol, error) {
	if qualifiedName != "" {
		if sym, err := s.store.Symbol.GetByQualifiedName(ctx, repoID, qualifiedName); err == nil {
			return sym, nil
		}
	}
	if symbolName != "" {
		if sym, err := s.store.Symbol.GetByFileAndName(ctx, fileID, symbolName); err == nil {
			return sym, nil
		}
	}
	if suffix := lastTwoDottedParts(qualifiedName); suffix != "" {
		if sym, err := s.store.Symbol.GetByQualifiedNameSuffix(ctx, fileID, suffix); err == nil {
			return sym, nil
		}
	}
	sym, err := s.store.Symbol.GetAnyByFile(ctx, fileID)
	if err != nil {
		return nil, err
	}
	return sym, nil
}

func lastTwoDottedParts(qualifiedName string) string {
	parts := strings.Split(qualifiedName, ".")
	if len(parts) < 2 {
		return ""
	}
	return strings.Join(parts[len(parts)-2:], ".")
}

func buildConfirmationPrompt(batch []model.File, symbolsByFile map[string][]model.Symbol) string {
	var sb strings.Builder
	sb.WriteString("For each file below, identify entry points: HTTP route handlers, event/message\n")
	sb.WriteString("consumers, or scheduled jobs. For each, report the handling symbol, its type\n")
	sb.WriteString("(HTTP, EVENT, or SCHEDULER), a short name, description, confidence (0-1), and\n")
	sb.WriteString("reasoning. Only report symbols that actually exist in the symbol list given.\n\n")

	for _, f := range batch {
		sb.WriteString("=== File: " + f.RelativePath + " ===\n")
		sb.WriteString("Symbols:\n")
		for _, sym := range symbolsByFile[f.RelativePath] {
			sb.WriteString(fmt.Sprintf("- %s (qualified_name=%s, kind=%s)\n", sym.Name, sym.QualifiedName, sym.Kind))
		}
		sb.WriteString("Content:\n" + f.Content + "\n\n")
	}

	sb.WriteString(`Return JSON: {"files": [{"file_path": "...", "entry_points": [` +
		`{"symbol_name": "...", "qualified_name": "...", "type": "HTTP", "name": "...", ` +
		`"description": "...", "confidence": 0.9, "reasoning": "..."}]}]}` + "\n")
	return sb.String()
}

func normalizeEntryPointType(raw string) model.EntryPointType {
	switch strings.ToUpper(raw) {
	case "EVENT":
		return model.EntryEvent
	case "SCHEDULER":
		return model.EntryScheduler
	default:
		return model.EntryHTTP
	}
}

// httpFrameworkKeywords, eventFrameworkKeywords, schedulerFrameworkKeywords
// map substrings of a file path to a framework name for heuristic framework
// inference.
var (
	httpFrameworkKeywords = []struct{ sub, framework string }{
		{"flask", "flask"}, {"fastapi", "fastapi"}, {"fast_api", "fastapi"},
		{"django", "django"}, {"ktor", "ktor"}, {"spring", "spring-boot"}, {"express", "express"},
	}
	eventFrameworkKeywords = []struct{ sub, framework string }{
		{"camel", "apache-camel"}, {"kafka", "kafka"}, {"pulsar", "pulsar"}, {"celery", "celery"},
	}
	schedulerFrameworkKeywords = []struct{ sub, framework string }{
		{"quartz", "quartz"}, {"spring", "spring-boot"}, {"apscheduler", "apscheduler"},
	}
)

func inferFramework(filePath string, epType model.EntryPointType) string {
	lower := strings.ToLower(filePath)
	var table []struct{ sub, framework string }
	switch epType {
	case model.EntryEvent:
		table = eventFrameworkKeywords
	case model.EntryScheduler:
		table = schedulerFrameworkKeywords
	default:
		table = httpFrameworkKeywords
	}
	for _, kw := range table {
		if strings.Contains(lower, kw.sub) {
			return kw.framework
		}
	}
	return "unknown"
}

func (s *Service) generateDescription(ctx context.Context, repo *model.Repository, frameworks []string, confirmed []model.ConfirmedEntryPoint) error {
	var sb strings.Builder
	sb.WriteString("Write a 2-4 sentence description of this repository based on its name, languages,\n")
	sb.WriteString("frameworks, and confirmed entry points. Return JSON: {\"description\": \"...\"}\n\n")
	sb.WriteString("Name: " + repo.Name + "\n")
	sb.WriteString("Languages: " + strings.Join(repo.Languages, ", ") + "\n")
	sb.WriteString("Frameworks: " + strings.Join(frameworks, ", ") + "\n")
	sb.WriteString("Entry points:\n")
	for _, ep := range confirmed {
		sb.WriteString(fmt.Sprintf("- [%s] %s: %s\n", ep.EntryPointType, ep.Name, ep.Description))
	}

	raw, err := s.llm.Call(ctx, sb.String(), 512)
	if err != nil {
		return err
	}
	var out struct {
		Description string `json:"description"`
	}
	if err := remarshal(raw, &out); err != nil {
		return err
	}
	if out.Description == "" {
		return nil
	}
	return s.store.Repository.SetDescription(ctx, repo.ID, out.Description)
}

// remarshal round-trips a generically-parsed JSON value through a concrete
// struct, since llmclient.Call returns interface{} rather than a typed
// payload (the client doesn't know the caller's expected shape).
func remarshal(v interface{}, out interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}

// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package parsing orchestrates a single repository's parse pass: discovery,
// parallel per-batch parsing, symbol/reference persistence, and cross-file
// resolution, committed to Postgres in batches.
package parsing

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kraklabs/repograph/pkg/discovery"
	"github.com/kraklabs/repograph/pkg/metrics"
	"github.com/kraklabs/repograph/pkg/model"
	"github.com/kraklabs/repograph/pkg/parser"
	"github.com/kraklabs/repograph/pkg/store"
)

// Config carries the subset of process configuration this service needs.
type Config struct {
	MaxFilesPerBatch    int
	MaxFileSizeBytes    int64
	ParseTimeoutSeconds int
}

// Service runs parse passes over repositories registered in the store.
type Service struct {
	store    *store.Store
	registry *parser.Registry
	cfg      Config
	logger   *slog.Logger
}

// New constructs a Service. A zero logger falls back to slog.Default.
func New(st *store.Store, reg *parser.Registry, cfg Config, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: st, registry: reg, cfg: cfg, logger: logger}
}

// fileOutcome is one batch member's parse result.
type fileOutcome struct {
	discovered discovery.DiscoveredFile
	parsed     parser.ParsedFile
	content    []byte
	skipped    bool // unchanged content_hash; incremental reparse fast path
	err        error
}

// ParseRepository runs the full orchestration for one repository: load,
// transition to parsing, discover, batch-parse, persist, resolve, complete.
// Failure at any step transitions the repository to failed with the error
// recorded, rather than propagating a panic or leaving the row stuck.
func (s *Service) ParseRepository(ctx context.Context, repoID string) error {
	repo, err := s.store.Repository.Get(ctx, repoID)
	if err != nil {
		return fmt.Errorf("parsing: loading repository %s: %w", repoID, err)
	}

	if err := s.store.Repository.SetStatus(ctx, repoID, model.RepositoryParsing, ""); err != nil {
		return fmt.Errorf("parsing: transitioning to parsing: %w", err)
	}

	if err := s.run(ctx, repo); err != nil {
		if setErr := s.store.Repository.SetStatus(ctx, repoID, model.RepositoryFailed, err.Error()); setErr != nil {
			s.logger.Error("parsing.status.fail_transition_failed", "repo_id", repoID, "err", setErr)
		}
		return err
	}

	if err := s.store.Repository.SetStatus(ctx, repoID, model.RepositoryCompleted, ""); err != nil {
		return fmt.Errorf("parsing: transitioning to completed: %w", err)
	}
	return nil
}

func (s *Service) run(ctx context.Context, repo *model.Repository) error {
	disco, err := discovery.Walk(repo.RootPath, s.registry, discovery.Options{MaxFileSizeBytes: s.cfg.MaxFileSizeBytes})
	if err != nil {
		return fmt.Errorf("discovering files: %w", err)
	}

	if err := s.store.Repository.SetDiscovered(ctx, repo.ID, len(disco.Files), disco.RepoTree); err != nil {
		return fmt.Errorf("persisting discovered tree: %w", err)
	}

	batchSize := s.cfg.MaxFilesPerBatch
	if batchSize <= 0 {
		batchSize = 100
	}

	langSet := make(map[string]bool)
	for start := 0; start < len(disco.Files); start += batchSize {
		end := start + batchSize
		if end > len(disco.Files) {
			end = len(disco.Files)
		}
		batch := disco.Files[start:end]

		outcomes := s.parseBatchParallel(ctx, repo.ID, batch)

		for i := range outcomes {
			oc := &outcomes[i]
			if oc.err != nil {
				s.logger.Warn("parsing.file.read_error", "path", oc.discovered.RelativePath, "err", oc.err)
				metrics.FilesErrored.Inc()
				continue
			}
			if oc.skipped {
				metrics.FilesSkipped.Inc()
				continue
			}
			if len(oc.parsed.Errors) > 0 {
				s.logger.Warn("parsing.file.parse_error", "path", oc.discovered.RelativePath, "errors", oc.parsed.Errors)
				metrics.FilesErrored.Inc()
				continue
			}

			folder := discovery.FolderStructure(oc.discovered.RelativePath, disco.Files)
			file := &model.File{
				RepoID:          repo.ID,
				RelativePath:    oc.discovered.RelativePath,
				Language:        oc.parsed.Language,
				ContentHash:     oc.parsed.ContentHash,
				Content:         string(oc.content),
				FolderStructure: folder,
			}
			fileID, err := s.store.File.Upsert(ctx, file)
			if err != nil {
				return fmt.Errorf("upserting file %s: %w", oc.discovered.RelativePath, err)
			}

			if err := s.store.Symbol.ReplaceFileSymbols(ctx, repo.ID, fileID, &oc.parsed); err != nil {
				return fmt.Errorf("replacing symbols for %s: %w", oc.discovered.RelativePath, err)
			}
			langSet[oc.parsed.Language] = true
			metrics.FilesParsed.Inc()
		}

		if err := s.store.Repository.IncrementParsedFiles(ctx, repo.ID, len(batch)); err != nil {
			return fmt.Errorf("incrementing parsed_files: %w", err)
		}
	}

	languages := make([]string, 0, len(langSet))
	for l := range langSet {
		languages = append(languages, l)
	}
	if err := s.store.Repository.SetLanguages(ctx, repo.ID, languages); err != nil {
		return fmt.Errorf("persisting languages: %w", err)
	}

	if _, err := s.store.Reference.ResolveCrossFile(ctx, repo.ID); err != nil {
		return fmt.Errorf("resolving cross-file references: %w", err)
	}

	return nil
}

// parseBatchParallel parses one batch's files concurrently on a CPU-bound
// pool sized to the host, grounded on local_pipeline.go's parseFilesParallel
// worker-channel pattern but expressed with errgroup.SetLimit.
func (s *Service) parseBatchParallel(ctx context.Context, repoID string, batch []discovery.DiscoveredFile) []fileOutcome {
	outcomes := make([]fileOutcome, len(batch))

	workers := runtime.NumCPU()
	if workers < 1 {
		workers = 1
	}
	if workers > len(batch) {
		workers = len(batch)
	}

	timeout := time.Duration(s.cfg.ParseTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i := range batch {
		i := i
		g.Go(func() error {
			outcomes[i] = s.parseOne(gCtx, repoID, batch[i], timeout)
			return nil
		})
	}
	_ = g.Wait() // parseOne never returns an error; per-file failures live in fileOutcome.err

	return outcomes
}

// parseOne reads, hashes, and parses one file. When the repository already
// has a file row for this path with an identical content_hash, the CPU-bound
// parse is skipped entirely; parsed_files still advances for the batch
// regardless.
func (s *Service) parseOne(ctx context.Context, repoID string, df discovery.DiscoveredFile, timeout time.Duration) fileOutcome {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	content, err := os.ReadFile(df.AbsolutePath)
	if err != nil {
		return fileOutcome{discovered: df, err: fmt.Errorf("reading %s: %w", df.AbsolutePath, err)}
	}

	hash := contentHash(content)

	if existing, found, err := s.store.File.GetContentHash(ctx, repoID, df.RelativePath); err == nil && found && existing == hash {
		return fileOutcome{discovered: df, skipped: true}
	}

	p, ok := s.registry.ParserFor(df.RelativePath)
	if !ok {
		return fileOutcome{discovered: df, err: fmt.Errorf("no parser registered for %s", df.RelativePath)}
	}

	parsed := p.Parse(content, df.RelativePath, hash)
	return fileOutcome{discovered: df, parsed: parsed, content: content}
}

func contentHash(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

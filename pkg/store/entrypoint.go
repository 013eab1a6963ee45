// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kraklabs/repograph/pkg/model"
)

// EntryPointStore is the narrow repository for EntryPointCandidate and
// ConfirmedEntryPoint rows.
type EntryPointStore struct {
	pool *pgxpool.Pool
}

// ResetForRedetect removes all candidates and confirmed entry points for a
// repo ahead of a forced re-detection pass. Flows cascade off confirmed
// entry points, so a redetect also clears any stale flow documentation.
func (s *EntryPointStore) ResetForRedetect(ctx context.Context, repoID string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("store: beginning redetect reset tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM confirmed_entry_points WHERE repo_id = $1`, repoID); err != nil {
		return fmt.Errorf("store: clearing confirmed entry points: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM entry_point_candidates WHERE repo_id = $1`, repoID); err != nil {
		return fmt.Errorf("store: clearing entry point candidates: %w", err)
	}
	return tx.Commit(ctx)
}

func (s *EntryPointStore) CreateCandidate(ctx context.Context, c *model.EntryPointCandidate) (string, error) {
	metaJSON, err := json.Marshal(c.EntryMetadata)
	if err != nil {
		return "", fmt.Errorf("store: marshaling entry_metadata: %w", err)
	}
	id := model.NewID()
	now := time.Now().UTC()
	_, err = s.pool.Exec(ctx, `
		INSERT INTO entry_point_candidates (id, repo_id, symbol_id, file_id, entry_point_type,
		                                    framework, detection_pattern, entry_metadata, confidence_score, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		id, c.RepoID, c.SymbolID, c.FileID, c.EntryPointType, c.Framework,
		c.DetectionPattern, metaJSON, c.ConfidenceScore, now)
	if err != nil {
		return "", fmt.Errorf("store: creating entry point candidate: %w", err)
	}
	return id, nil
}

func (s *EntryPointStore) ListCandidatesByRepo(ctx context.Context, repoID string) ([]model.EntryPointCandidate, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, repo_id, symbol_id, file_id, entry_point_type, framework,
		       detection_pattern, entry_metadata, confidence_score, created_at
		FROM entry_point_candidates WHERE repo_id = $1 ORDER BY created_at`, repoID)
	if err != nil {
		return nil, fmt.Errorf("store: listing entry point candidates: %w", err)
	}
	defer rows.Close()

	var out []model.EntryPointCandidate
	for rows.Next() {
		var c model.EntryPointCandidate
		var metaJSON []byte
		if err := rows.Scan(&c.ID, &c.RepoID, &c.SymbolID, &c.FileID, &c.EntryPointType, &c.Framework,
			&c.DetectionPattern, &metaJSON, &c.ConfidenceScore, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("store: scanning entry point candidate: %w", err)
		}
		if len(metaJSON) > 0 {
			if err := json.Unmarshal(metaJSON, &c.EntryMetadata); err != nil {
				return nil, fmt.Errorf("store: unmarshaling entry_metadata: %w", err)
			}
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// CreateConfirmed persists a confirmed entry point, batch-committed by its
// caller (C8 commits each batch of candidates before moving to the next).
func (s *EntryPointStore) CreateConfirmed(ctx context.Context, e *model.ConfirmedEntryPoint) (string, error) {
	metaJSON, err := json.Marshal(e.EntryMetadata)
	if err != nil {
		return "", fmt.Errorf("store: marshaling entry_metadata: %w", err)
	}
	id := model.NewID()
	now := time.Now().UTC()
	_, err = s.pool.Exec(ctx, `
		INSERT INTO confirmed_entry_points (id, repo_id, symbol_id, file_id, entry_point_type,
		                                    framework, name, description, entry_metadata,
		                                    ai_confidence, ai_reasoning, detected_at, confirmed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $12)`,
		id, e.RepoID, e.SymbolID, e.FileID, e.EntryPointType, e.Framework, e.Name, e.Description,
		metaJSON, e.AIConfidence, nullIfEmpty(e.AIReasoning), now)
	if err != nil {
		return "", fmt.Errorf("store: creating confirmed entry point: %w", err)
	}
	return id, nil
}

func (s *EntryPointStore) GetConfirmed(ctx context.Context, id string) (*model.ConfirmedEntryPoint, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, repo_id, symbol_id, file_id, entry_point_type, framework, name, description,
		       entry_metadata, ai_confidence, ai_reasoning, detected_at, confirmed_at
		FROM confirmed_entry_points WHERE id = $1`, id)
	return scanConfirmed(row)
}

func (s *EntryPointStore) ListConfirmedByRepo(ctx context.Context, repoID string) ([]model.ConfirmedEntryPoint, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, repo_id, symbol_id, file_id, entry_point_type, framework, name, description,
		       entry_metadata, ai_confidence, ai_reasoning, detected_at, confirmed_at
		FROM confirmed_entry_points WHERE repo_id = $1 ORDER BY confirmed_at`, repoID)
	if err != nil {
		return nil, fmt.Errorf("store: listing confirmed entry points: %w", err)
	}
	defer rows.Close()

	var out []model.ConfirmedEntryPoint
	for rows.Next() {
		e, err := scanConfirmed(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

func scanConfirmed(row rowScanner) (*model.ConfirmedEntryPoint, error) {
	var e model.ConfirmedEntryPoint
	var metaJSON []byte
	var reasoning *string
	err := row.Scan(&e.ID, &e.RepoID, &e.SymbolID, &e.FileID, &e.EntryPointType, &e.Framework,
		&e.Name, &e.Description, &metaJSON, &e.AIConfidence, &reasoning, &e.DetectedAt, &e.ConfirmedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("store: scanning confirmed entry point: %w", err)
	}
	if len(metaJSON) > 0 {
		if err := json.Unmarshal(metaJSON, &e.EntryMetadata); err != nil {
			return nil, fmt.Errorf("store: unmarshaling entry_metadata: %w", err)
		}
	}
	if reasoning != nil {
		e.AIReasoning = *reasoning
	}
	return &e, nil
}

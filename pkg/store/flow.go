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

// FlowStore is the narrow repository for EntryPointFlow rows.
type FlowStore struct {
	pool *pgxpool.Pool
}

// Replace upserts the flow for f.EntryPointID, keyed on the table's unique
// entry_point_id constraint: regenerating a flow always replaces the prior
// document whole, never merges it.
func (s *FlowStore) Replace(ctx context.Context, f *model.EntryPointFlow) (string, error) {
	pathsJSON, err := json.Marshal(f.FilePaths)
	if err != nil {
		return "", fmt.Errorf("store: marshaling file_paths: %w", err)
	}
	stepsJSON, err := json.Marshal(f.Steps)
	if err != nil {
		return "", fmt.Errorf("store: marshaling steps: %w", err)
	}
	symbolsJSON, err := json.Marshal(f.SymbolIDsAnalyzed)
	if err != nil {
		return "", fmt.Errorf("store: marshaling symbol_ids_analyzed: %w", err)
	}
	id := model.NewID()
	now := time.Now().UTC()
	row := s.pool.QueryRow(ctx, `
		INSERT INTO entry_point_flows (id, entry_point_id, repo_id, flow_name, technical_summary,
		                               file_paths, steps, max_depth_analyzed, iterations_completed,
		                               symbol_ids_analyzed, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)
		ON CONFLICT (entry_point_id) DO UPDATE SET
			flow_name = EXCLUDED.flow_name,
			technical_summary = EXCLUDED.technical_summary,
			file_paths = EXCLUDED.file_paths,
			steps = EXCLUDED.steps,
			max_depth_analyzed = EXCLUDED.max_depth_analyzed,
			iterations_completed = EXCLUDED.iterations_completed,
			symbol_ids_analyzed = EXCLUDED.symbol_ids_analyzed,
			updated_at = EXCLUDED.updated_at
		RETURNING id`,
		id, f.EntryPointID, f.RepoID, f.FlowName, f.TechnicalSummary, pathsJSON, stepsJSON,
		f.MaxDepthAnalyzed, f.IterationsCompleted, symbolsJSON, now)

	var returnedID string
	if err := row.Scan(&returnedID); err != nil {
		return "", fmt.Errorf("store: replacing flow for entry point %s: %w", f.EntryPointID, err)
	}
	return returnedID, nil
}

func (s *FlowStore) GetByEntryPoint(ctx context.Context, entryPointID string) (*model.EntryPointFlow, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, entry_point_id, repo_id, flow_name, technical_summary, file_paths, steps,
		       max_depth_analyzed, iterations_completed, symbol_ids_analyzed, created_at, updated_at
		FROM entry_point_flows WHERE entry_point_id = $1`, entryPointID)
	return scanFlow(row)
}

func (s *FlowStore) Get(ctx context.Context, id string) (*model.EntryPointFlow, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, entry_point_id, repo_id, flow_name, technical_summary, file_paths, steps,
		       max_depth_analyzed, iterations_completed, symbol_ids_analyzed, created_at, updated_at
		FROM entry_point_flows WHERE id = $1`, id)
	return scanFlow(row)
}

func (s *FlowStore) ListByRepo(ctx context.Context, repoID string) ([]model.EntryPointFlow, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, entry_point_id, repo_id, flow_name, technical_summary, file_paths, steps,
		       max_depth_analyzed, iterations_completed, symbol_ids_analyzed, created_at, updated_at
		FROM entry_point_flows WHERE repo_id = $1 ORDER BY created_at`, repoID)
	if err != nil {
		return nil, fmt.Errorf("store: listing flows: %w", err)
	}
	defer rows.Close()

	var out []model.EntryPointFlow
	for rows.Next() {
		f, err := scanFlow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *f)
	}
	return out, rows.Err()
}

func scanFlow(row rowScanner) (*model.EntryPointFlow, error) {
	var f model.EntryPointFlow
	var pathsJSON, stepsJSON, symbolsJSON []byte
	err := row.Scan(&f.ID, &f.EntryPointID, &f.RepoID, &f.FlowName, &f.TechnicalSummary,
		&pathsJSON, &stepsJSON, &f.MaxDepthAnalyzed, &f.IterationsCompleted, &symbolsJSON,
		&f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("store: scanning flow: %w", err)
	}
	if len(pathsJSON) > 0 {
		if err := json.Unmarshal(pathsJSON, &f.FilePaths); err != nil {
			return nil, fmt.Errorf("store: unmarshaling file_paths: %w", err)
		}
	}
	if len(stepsJSON) > 0 {
		if err := json.Unmarshal(stepsJSON, &f.Steps); err != nil {
			return nil, fmt.Errorf("store: unmarshaling steps: %w", err)
		}
	}
	if len(symbolsJSON) > 0 {
		if err := json.Unmarshal(symbolsJSON, &f.SymbolIDsAnalyzed); err != nil {
			return nil, fmt.Errorf("store: unmarshaling symbol_ids_analyzed: %w", err)
		}
	}
	return &f, nil
}

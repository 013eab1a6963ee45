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

// RepositoryStore is the narrow repository for Repository rows.
type RepositoryStore struct {
	pool *pgxpool.Pool
}

func (s *RepositoryStore) Create(ctx context.Context, orgID, name, description, rootPath string) (*model.Repository, error) {
	id := model.NewID()
	now := time.Now().UTC()
	_, err := s.pool.Exec(ctx, `
		INSERT INTO repositories (id, org_id, name, description, root_path, status, total_files, parsed_files, languages, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, 'pending', 0, 0, '[]', $6, $6)`,
		id, orgID, name, description, rootPath, now)
	if err != nil {
		return nil, fmt.Errorf("store: creating repository: %w", err)
	}
	return &model.Repository{
		ID: id, OrgID: orgID, Name: name, Description: description, RootPath: rootPath,
		Status: model.RepositoryPending, Languages: []string{}, CreatedAt: now, UpdatedAt: now,
	}, nil
}

func (s *RepositoryStore) Get(ctx context.Context, id string) (*model.Repository, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, org_id, name, description, root_path, status, total_files, parsed_files,
		       error_message, languages, repo_tree, created_at, updated_at
		FROM repositories WHERE id = $1`, id)
	return scanRepository(row)
}

func (s *RepositoryStore) ListByOrg(ctx context.Context, orgID string) ([]model.Repository, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, org_id, name, description, root_path, status, total_files, parsed_files,
		       error_message, languages, repo_tree, created_at, updated_at
		FROM repositories WHERE org_id = $1 ORDER BY created_at`, orgID)
	if err != nil {
		return nil, fmt.Errorf("store: listing repositories: %w", err)
	}
	defer rows.Close()

	var out []model.Repository
	for rows.Next() {
		r, err := scanRepository(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

func (s *RepositoryStore) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM repositories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("store: deleting repository: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetStatus transitions a repository's status, optionally recording an error
// message (passed as "" when not applicable).
func (s *RepositoryStore) SetStatus(ctx context.Context, id string, status model.RepositoryStatus, errMsg string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE repositories SET status = $2, error_message = $3, updated_at = now() WHERE id = $1`,
		id, status, errMsg)
	if err != nil {
		return fmt.Errorf("store: setting repository status: %w", err)
	}
	return nil
}

// SetDiscovered persists the repo-tree and resets the file counters at the
// start of a parse.
func (s *RepositoryStore) SetDiscovered(ctx context.Context, id string, totalFiles int, repoTree map[string]interface{}) error {
	treeJSON, err := json.Marshal(repoTree)
	if err != nil {
		return fmt.Errorf("store: marshaling repo_tree: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		UPDATE repositories
		SET total_files = $2, parsed_files = 0, repo_tree = $3, updated_at = now()
		WHERE id = $1`, id, totalFiles, treeJSON)
	if err != nil {
		return fmt.Errorf("store: setting discovered files: %w", err)
	}
	return nil
}

// IncrementParsedFiles advances the parsed_files counter by delta.
func (s *RepositoryStore) IncrementParsedFiles(ctx context.Context, id string, delta int) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE repositories SET parsed_files = parsed_files + $2, updated_at = now() WHERE id = $1`,
		id, delta)
	if err != nil {
		return fmt.Errorf("store: incrementing parsed_files: %w", err)
	}
	return nil
}

// SetLanguages persists the distinct languages encountered during a parse.
func (s *RepositoryStore) SetLanguages(ctx context.Context, id string, languages []string) error {
	b, err := json.Marshal(languages)
	if err != nil {
		return fmt.Errorf("store: marshaling languages: %w", err)
	}
	_, err = s.pool.Exec(ctx, `UPDATE repositories SET languages = $2, updated_at = now() WHERE id = $1`, id, b)
	if err != nil {
		return fmt.Errorf("store: setting languages: %w", err)
	}
	return nil
}

// SetDescription persists the LLM-generated repository description.
func (s *RepositoryStore) SetDescription(ctx context.Context, id, description string) error {
	_, err := s.pool.Exec(ctx, `UPDATE repositories SET description = $2, updated_at = now() WHERE id = $1`, id, description)
	if err != nil {
		return fmt.Errorf("store: setting description: %w", err)
	}
	return nil
}

func scanRepository(row rowScanner) (*model.Repository, error) {
	var r model.Repository
	var languagesJSON, treeJSON []byte
	err := row.Scan(&r.ID, &r.OrgID, &r.Name, &r.Description, &r.RootPath, &r.Status,
		&r.TotalFiles, &r.ParsedFiles, &r.ErrorMessage, &languagesJSON, &treeJSON,
		&r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("store: scanning repository: %w", err)
	}
	if len(languagesJSON) > 0 {
		if err := json.Unmarshal(languagesJSON, &r.Languages); err != nil {
			return nil, fmt.Errorf("store: unmarshaling languages: %w", err)
		}
	}
	if len(treeJSON) > 0 {
		if err := json.Unmarshal(treeJSON, &r.RepoTree); err != nil {
			return nil, fmt.Errorf("store: unmarshaling repo_tree: %w", err)
		}
	}
	return &r, nil
}

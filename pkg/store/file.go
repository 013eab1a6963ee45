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

// FileStore is the narrow repository for File rows.
type FileStore struct {
	pool *pgxpool.Pool
}

// Upsert inserts or replaces a File row, keyed on (repo_id, relative_path):
// reparsing the same file updates in place.
func (s *FileStore) Upsert(ctx context.Context, f *model.File) (string, error) {
	folderJSON, err := json.Marshal(f.FolderStructure)
	if err != nil {
		return "", fmt.Errorf("store: marshaling folder_structure: %w", err)
	}
	now := time.Now().UTC()
	id := model.NewID()
	row := s.pool.QueryRow(ctx, `
		INSERT INTO files (id, repo_id, relative_path, language, content_hash, content, folder_structure, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (repo_id, relative_path) DO UPDATE SET
			language = EXCLUDED.language,
			content_hash = EXCLUDED.content_hash,
			content = EXCLUDED.content,
			folder_structure = EXCLUDED.folder_structure,
			updated_at = EXCLUDED.updated_at
		RETURNING id`,
		id, f.RepoID, f.RelativePath, f.Language, f.ContentHash, f.Content, folderJSON, now)

	var returnedID string
	if err := row.Scan(&returnedID); err != nil {
		return "", fmt.Errorf("store: upserting file %s: %w", f.RelativePath, err)
	}
	return returnedID, nil
}

func (s *FileStore) GetContentHash(ctx context.Context, repoID, relativePath string) (string, bool, error) {
	var hash string
	err := s.pool.QueryRow(ctx, `
		SELECT content_hash FROM files WHERE repo_id = $1 AND relative_path = $2`,
		repoID, relativePath).Scan(&hash)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("store: looking up content hash: %w", err)
	}
	return hash, true, nil
}

func (s *FileStore) Get(ctx context.Context, id string) (*model.File, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, repo_id, relative_path, language, content_hash, content, folder_structure, updated_at
		FROM files WHERE id = $1`, id)
	return scanFile(row)
}

func (s *FileStore) ListByRepo(ctx context.Context, repoID string) ([]model.File, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, repo_id, relative_path, language, content_hash, content, folder_structure, updated_at
		FROM files WHERE repo_id = $1 ORDER BY relative_path`, repoID)
	if err != nil {
		return nil, fmt.Errorf("store: listing files: %w", err)
	}
	defer rows.Close()

	var out []model.File
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *f)
	}
	return out, rows.Err()
}

// LikeMatch returns files in repoID whose relative_path contains pathSubstr,
// used by the path+name symbol lookup.
func (s *FileStore) LikeMatch(ctx context.Context, repoID, pathSubstr string) ([]model.File, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, repo_id, relative_path, language, content_hash, content, folder_structure, updated_at
		FROM files WHERE repo_id = $1 AND relative_path LIKE '%' || $2 || '%'
		ORDER BY id`, repoID, pathSubstr)
	if err != nil {
		return nil, fmt.Errorf("store: like-matching files: %w", err)
	}
	defer rows.Close()

	var out []model.File
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *f)
	}
	return out, rows.Err()
}

func scanFile(row rowScanner) (*model.File, error) {
	var f model.File
	var folderJSON []byte
	err := row.Scan(&f.ID, &f.RepoID, &f.RelativePath, &f.Language, &f.ContentHash, &f.Content, &folderJSON, &f.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("store: scanning file: %w", err)
	}
	if len(folderJSON) > 0 {
		if err := json.Unmarshal(folderJSON, &f.FolderStructure); err != nil {
			return nil, fmt.Errorf("store: unmarshaling folder_structure: %w", err)
		}
	}
	return &f, nil
}

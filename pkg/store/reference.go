// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kraklabs/repograph/pkg/model"
)

// ReferenceStore is the narrow repository for Reference rows and the
// cross-file resolution / graph-traversal queries built on top of them.
type ReferenceStore struct {
	pool *pgxpool.Pool
}

// ResolveCrossFile matches still-unresolved references against symbols
// defined in other files of the same repository: a reference's
// target_file_path ("com.toasttab.service.MyClass") is dot-joined, so it is
// matched against a file's relative_path with '.' turned into '/' and LIKE'd
// against it, then narrowed to a symbol whose name equals target_symbol_name.
// Returns the number of references resolved.
func (s *ReferenceStore) ResolveCrossFile(ctx context.Context, repoID string) (int64, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE "references" r
		SET target_symbol_id = (
			SELECT s.id
			FROM symbols s
			JOIN files f ON s.file_id = f.id
			WHERE s.repo_id = $1
			  AND s.name = r.target_symbol_name
			  AND f.relative_path LIKE '%' || replace(r.target_file_path, '.', '/') || '%'
			LIMIT 1
		)
		WHERE r.repo_id = $1
		  AND r.target_symbol_id IS NULL
		  AND EXISTS (
		      SELECT 1
		      FROM symbols s
		      JOIN files f ON s.file_id = f.id
		      WHERE s.repo_id = $1
		        AND s.name = r.target_symbol_name
		        AND f.relative_path LIKE '%' || replace(r.target_file_path, '.', '/') || '%'
		  )`, repoID)
	if err != nil {
		return 0, fmt.Errorf("store: resolving cross-file references: %w", err)
	}
	return tag.RowsAffected(), nil
}

// DownstreamNode is one hop of a downstream (call-graph) traversal.
type DownstreamNode struct {
	SymbolID         string
	Name             string
	QualifiedName    string
	Kind             model.SymbolKind
	SourceCode       string
	Signature        string
	Depth            int
	ReferenceType    model.ReferenceType
	TargetFilePath   string
	TargetSymbolName string
}

// Downstream returns symbols reachable by following outgoing references from
// symbolID up to maxDepth hops, including unresolved (external) targets so
// callers can still surface target_file_path/target_symbol_name.
func (s *ReferenceStore) Downstream(ctx context.Context, symbolID string, maxDepth int) ([]DownstreamNode, error) {
	rows, err := s.pool.Query(ctx, `
		WITH RECURSIVE downstream AS (
			SELECT r.target_symbol_id AS symbol_id, r.target_file_path, r.target_symbol_name,
			       r.reference_type, 1 AS depth
			FROM "references" r
			WHERE r.source_symbol_id = $1

			UNION ALL

			SELECT r.target_symbol_id, r.target_file_path, r.target_symbol_name,
			       r.reference_type, d.depth + 1
			FROM "references" r
			JOIN downstream d ON r.source_symbol_id = d.symbol_id
			WHERE d.depth < $2 AND d.symbol_id IS NOT NULL
		)
		SELECT DISTINCT s.id, s.name, s.qualified_name, s.kind, s.source_code, s.signature,
		       d.depth, d.reference_type, d.target_file_path, d.target_symbol_name
		FROM downstream d
		LEFT JOIN symbols s ON d.symbol_id = s.id
		ORDER BY d.depth, s.qualified_name`,
		symbolID, maxDepth)
	if err != nil {
		return nil, fmt.Errorf("store: walking downstream: %w", err)
	}
	defer rows.Close()

	var out []DownstreamNode
	for rows.Next() {
		var n DownstreamNode
		var id, name, qualified, kind, sourceCode, signature *string
		if err := rows.Scan(&id, &name, &qualified, &kind, &sourceCode, &signature,
			&n.Depth, &n.ReferenceType, &n.TargetFilePath, &n.TargetSymbolName); err != nil {
			return nil, fmt.Errorf("store: scanning downstream row: %w", err)
		}
		if id != nil {
			n.SymbolID = *id
		}
		if name != nil {
			n.Name = *name
		}
		if qualified != nil {
			n.QualifiedName = *qualified
		}
		if kind != nil {
			n.Kind = model.SymbolKind(*kind)
		}
		if sourceCode != nil {
			n.SourceCode = *sourceCode
		}
		if signature != nil {
			n.Signature = *signature
		}
		if n.Name == "" {
			n.Name = n.TargetSymbolName
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// UpstreamNode is one hop of an upstream (caller) traversal.
type UpstreamNode struct {
	SymbolID      string
	Name          string
	QualifiedName string
	Kind          model.SymbolKind
	SourceCode    string
	Signature     string
	Depth         int
	ReferenceType model.ReferenceType
}

// Upstream returns symbols that transitively call symbolID, up to maxDepth
// hops. Unlike Downstream, only resolved callers exist by construction
// (source_symbol_id is never null), so no external-edge handling is needed.
func (s *ReferenceStore) Upstream(ctx context.Context, symbolID string, maxDepth int) ([]UpstreamNode, error) {
	rows, err := s.pool.Query(ctx, `
		WITH RECURSIVE upstream AS (
			SELECT r.source_symbol_id AS symbol_id, r.reference_type, 1 AS depth
			FROM "references" r
			WHERE r.target_symbol_id = $1

			UNION ALL

			SELECT r.source_symbol_id, r.reference_type, u.depth + 1
			FROM "references" r
			JOIN upstream u ON r.target_symbol_id = u.symbol_id
			WHERE u.depth < $2
		)
		SELECT DISTINCT s.id, s.name, s.qualified_name, s.kind, s.source_code, s.signature,
		       u.depth, u.reference_type
		FROM upstream u
		JOIN symbols s ON u.symbol_id = s.id
		ORDER BY u.depth, s.qualified_name`,
		symbolID, maxDepth)
	if err != nil {
		return nil, fmt.Errorf("store: walking upstream: %w", err)
	}
	defer rows.Close()

	var out []UpstreamNode
	for rows.Next() {
		var n UpstreamNode
		var kind string
		if err := rows.Scan(&n.SymbolID, &n.Name, &n.QualifiedName, &kind, &n.SourceCode,
			&n.Signature, &n.Depth, &n.ReferenceType); err != nil {
			return nil, fmt.Errorf("store: scanning upstream row: %w", err)
		}
		n.Kind = model.SymbolKind(kind)
		out = append(out, n)
	}
	return out, rows.Err()
}

// ListBySource returns the outgoing references of a symbol, one hop.
func (s *ReferenceStore) ListBySource(ctx context.Context, symbolID string) ([]model.Reference, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, repo_id, source_symbol_id, target_symbol_id, source_file_path,
		       source_symbol_name, target_file_path, target_symbol_name, reference_type
		FROM "references" WHERE source_symbol_id = $1`, symbolID)
	if err != nil {
		return nil, fmt.Errorf("store: listing outgoing references: %w", err)
	}
	defer rows.Close()
	return scanReferences(rows)
}

// ListByTarget returns the incoming references of a symbol, one hop.
func (s *ReferenceStore) ListByTarget(ctx context.Context, symbolID string) ([]model.Reference, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, repo_id, source_symbol_id, target_symbol_id, source_file_path,
		       source_symbol_name, target_file_path, target_symbol_name, reference_type
		FROM "references" WHERE target_symbol_id = $1`, symbolID)
	if err != nil {
		return nil, fmt.Errorf("store: listing incoming references: %w", err)
	}
	defer rows.Close()
	return scanReferences(rows)
}

func scanReferences(rows pgx.Rows) ([]model.Reference, error) {
	var out []model.Reference
	for rows.Next() {
		var r model.Reference
		var targetID *string
		if err := rows.Scan(&r.ID, &r.RepoID, &r.SourceSymbolID, &targetID, &r.SourceFilePath,
			&r.SourceSymbolName, &r.TargetFilePath, &r.TargetSymbolName, &r.ReferenceType); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, ErrNotFound
			}
			return nil, fmt.Errorf("store: scanning reference: %w", err)
		}
		if targetID != nil {
			r.TargetSymbolID = *targetID
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kraklabs/repograph/pkg/model"
	"github.com/kraklabs/repograph/pkg/parser"
)

// SymbolStore is the narrow repository for Symbol rows, plus the combined
// symbol+reference bulk-insert that a parsed file goes through on ingestion.
type SymbolStore struct {
	pool *pgxpool.Pool
}

// ReplaceFileSymbols deletes every symbol owned by fileID (references cascade
// via ON DELETE CASCADE on source_symbol_id) and re-inserts the symbols and
// references from a freshly parsed file, grounded on the original
// bulk_insert_from_parsed_file pass: parents must appear before children in
// parsed.Symbols, since parent_symbol_id is resolved against the qualified
// name map built so far.
func (s *SymbolStore) ReplaceFileSymbols(ctx context.Context, repoID, fileID string, parsed *parser.ParsedFile) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("store: beginning symbol replace tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM symbols WHERE file_id = $1`, fileID); err != nil {
		return fmt.Errorf("store: deleting existing symbols: %w", err)
	}

	qualifiedToID := make(map[string]string, len(parsed.Symbols))

	for i := range parsed.Symbols {
		sym := &parsed.Symbols[i]
		if sym.Name == "" || sym.QualifiedName == "" {
			continue
		}
		id := model.NewID()
		qualifiedToID[sym.QualifiedName] = id

		var parentID interface{}
		if pq, ok := sym.ExtraData["parent_qualified_name"].(string); ok && pq != "" {
			if pid, found := qualifiedToID[pq]; found {
				parentID = pid
			}
		}

		extraJSON, err := json.Marshal(sym.ExtraData)
		if err != nil {
			return fmt.Errorf("store: marshaling extra_data for %s: %w", sym.QualifiedName, err)
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO symbols (id, file_id, repo_id, name, qualified_name, kind, source_code,
			                     signature, parent_symbol_id, extra_data, start_line, end_line, start_col, end_col)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
			id, fileID, repoID, sym.Name, sym.QualifiedName, sym.Kind, sym.SourceCode,
			nullIfEmpty(sym.Signature), parentID, extraJSON, sym.StartLine, sym.EndLine, sym.StartCol, sym.EndCol)
		if err != nil {
			return fmt.Errorf("store: inserting symbol %s: %w", sym.QualifiedName, err)
		}
		sym.ID = id
	}

	for _, ref := range parsed.References {
		sourceQualified := ref.SourceFilePath + "." + ref.SourceSymbolName
		sourceID, ok := qualifiedToID[sourceQualified]
		if !ok {
			// file-level reference (e.g. a module-level import) addressed by
			// path alone
			sourceID, ok = qualifiedToID[ref.SourceFilePath]
		}
		if !ok {
			// source symbol wasn't retained (e.g. filtered as invalid); the
			// reference has nothing to hang off, so drop it
			continue
		}

		targetQualified := ref.TargetFilePath + "." + ref.TargetSymbolName
		var targetID interface{}
		if tid, found := qualifiedToID[targetQualified]; found {
			targetID = tid
		}

		id := model.NewID()
		_, err := tx.Exec(ctx, `
			INSERT INTO "references" (id, repo_id, source_symbol_id, target_symbol_id,
			                          source_file_path, source_symbol_name, target_file_path, target_symbol_name, reference_type)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			id, repoID, sourceID, targetID, ref.SourceFilePath, ref.SourceSymbolName,
			ref.TargetFilePath, ref.TargetSymbolName, ref.ReferenceType)
		if err != nil {
			return fmt.Errorf("store: inserting reference %s->%s: %w", sourceQualified, targetQualified, err)
		}
	}

	return tx.Commit(ctx)
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func (s *SymbolStore) Get(ctx context.Context, id string) (*model.Symbol, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, file_id, repo_id, name, qualified_name, kind, source_code, signature,
		       parent_symbol_id, extra_data, start_line, end_line, start_col, end_col
		FROM symbols WHERE id = $1`, id)
	return scanSymbol(row)
}

func (s *SymbolStore) GetByIDs(ctx context.Context, ids []string) ([]model.Symbol, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, file_id, repo_id, name, qualified_name, kind, source_code, signature,
		       parent_symbol_id, extra_data, start_line, end_line, start_col, end_col
		FROM symbols WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("store: fetching symbols by id: %w", err)
	}
	defer rows.Close()
	return scanSymbols(rows)
}

func (s *SymbolStore) GetByQualifiedName(ctx context.Context, repoID, qualifiedName string) (*model.Symbol, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, file_id, repo_id, name, qualified_name, kind, source_code, signature,
		       parent_symbol_id, extra_data, start_line, end_line, start_col, end_col
		FROM symbols WHERE repo_id = $1 AND qualified_name = $2`, repoID, qualifiedName)
	return scanSymbol(row)
}

// GetByFileAndName is the second rung of symbol resolution: an exact
// simple-name match within one file.
func (s *SymbolStore) GetByFileAndName(ctx context.Context, fileID, name string) (*model.Symbol, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, file_id, repo_id, name, qualified_name, kind, source_code, signature,
		       parent_symbol_id, extra_data, start_line, end_line, start_col, end_col
		FROM symbols WHERE file_id = $1 AND name = $2 LIMIT 1`, fileID, name)
	return scanSymbol(row)
}

// GetByQualifiedNameSuffix is the third rung of symbol resolution: a
// qualified name ending in ".<suffix>" within one file,
// e.g. suffix "MyHandler.handle" matching qualified_name
// "app.handlers.MyHandler.handle".
func (s *SymbolStore) GetByQualifiedNameSuffix(ctx context.Context, fileID, suffix string) (*model.Symbol, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, file_id, repo_id, name, qualified_name, kind, source_code, signature,
		       parent_symbol_id, extra_data, start_line, end_line, start_col, end_col
		FROM symbols WHERE file_id = $1 AND qualified_name LIKE '%.' || $2 LIMIT 1`,
		fileID, suffix)
	return scanSymbol(row)
}

// GetAnyByFile implements the final fallback rung: any symbol in the file.
func (s *SymbolStore) GetAnyByFile(ctx context.Context, fileID string) (*model.Symbol, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, file_id, repo_id, name, qualified_name, kind, source_code, signature,
		       parent_symbol_id, extra_data, start_line, end_line, start_col, end_col
		FROM symbols WHERE file_id = $1 ORDER BY start_line NULLS LAST LIMIT 1`, fileID)
	return scanSymbol(row)
}

func (s *SymbolStore) ListByFile(ctx context.Context, fileID string) ([]model.Symbol, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, file_id, repo_id, name, qualified_name, kind, source_code, signature,
		       parent_symbol_id, extra_data, start_line, end_line, start_col, end_col
		FROM symbols WHERE file_id = $1 ORDER BY start_line NULLS LAST`, fileID)
	if err != nil {
		return nil, fmt.Errorf("store: listing symbols by file: %w", err)
	}
	defer rows.Close()
	return scanSymbols(rows)
}

func (s *SymbolStore) List(ctx context.Context, repoID string, kind model.SymbolKind, limit, offset int) ([]model.Symbol, error) {
	var rows pgx.Rows
	var err error
	if kind != "" {
		rows, err = s.pool.Query(ctx, `
			SELECT id, file_id, repo_id, name, qualified_name, kind, source_code, signature,
			       parent_symbol_id, extra_data, start_line, end_line, start_col, end_col
			FROM symbols WHERE repo_id = $1 AND kind = $2 ORDER BY qualified_name LIMIT $3 OFFSET $4`,
			repoID, kind, limit, offset)
	} else {
		rows, err = s.pool.Query(ctx, `
			SELECT id, file_id, repo_id, name, qualified_name, kind, source_code, signature,
			       parent_symbol_id, extra_data, start_line, end_line, start_col, end_col
			FROM symbols WHERE repo_id = $1 ORDER BY qualified_name LIMIT $2 OFFSET $3`,
			repoID, limit, offset)
	}
	if err != nil {
		return nil, fmt.Errorf("store: listing symbols: %w", err)
	}
	defer rows.Close()
	return scanSymbols(rows)
}

// Search matches symbols by case-insensitive name prefix.
func (s *SymbolStore) Search(ctx context.Context, repoID, query string, limit int) ([]model.Symbol, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, file_id, repo_id, name, qualified_name, kind, source_code, signature,
		       parent_symbol_id, extra_data, start_line, end_line, start_col, end_col
		FROM symbols WHERE repo_id = $1 AND name ILIKE $2 ORDER BY name LIMIT $3`,
		repoID, query+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("store: searching symbols: %w", err)
	}
	defer rows.Close()
	return scanSymbols(rows)
}

func scanSymbols(rows pgx.Rows) ([]model.Symbol, error) {
	var out []model.Symbol
	for rows.Next() {
		sym, err := scanSymbol(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *sym)
	}
	return out, rows.Err()
}

func scanSymbol(row rowScanner) (*model.Symbol, error) {
	var sym model.Symbol
	var signature, parentID *string
	var extraJSON []byte
	err := row.Scan(&sym.ID, &sym.FileID, &sym.RepoID, &sym.Name, &sym.QualifiedName, &sym.Kind,
		&sym.SourceCode, &signature, &parentID, &extraJSON,
		&sym.StartLine, &sym.EndLine, &sym.StartCol, &sym.EndCol)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("store: scanning symbol: %w", err)
	}
	if signature != nil {
		sym.Signature = *signature
	}
	if parentID != nil {
		sym.ParentSymbolID = *parentID
	}
	if len(extraJSON) > 0 {
		if err := json.Unmarshal(extraJSON, &sym.ExtraData); err != nil {
			return nil, fmt.Errorf("store: unmarshaling extra_data: %w", err)
		}
	}
	return &sym, nil
}

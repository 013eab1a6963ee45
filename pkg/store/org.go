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

// ErrNotFound is returned by lookups that find no row.
var ErrNotFound = errors.New("store: not found")

// OrgStore is the narrow repository for Organization rows.
type OrgStore struct {
	pool *pgxpool.Pool
}

// Create inserts a new Organization, generating its id and timestamps.
func (s *OrgStore) Create(ctx context.Context, name, description string, llmCfg *model.LLMConfig) (*model.Organization, error) {
	id := model.NewID()
	now := time.Now().UTC()
	var cfgJSON []byte
	if llmCfg != nil {
		b, err := json.Marshal(llmCfg)
		if err != nil {
			return nil, fmt.Errorf("store: marshaling llm_config: %w", err)
		}
		cfgJSON = b
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO organizations (id, name, description, llm_config, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)`,
		id, name, description, cfgJSON, now)
	if err != nil {
		return nil, fmt.Errorf("store: creating organization: %w", err)
	}
	return &model.Organization{ID: id, Name: name, Description: description, LLMConfig: llmCfg, CreatedAt: now, UpdatedAt: now}, nil
}

func (s *OrgStore) Get(ctx context.Context, id string) (*model.Organization, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, name, description, llm_config, created_at, updated_at
		FROM organizations WHERE id = $1`, id)
	return scanOrg(row)
}

func (s *OrgStore) GetByName(ctx context.Context, name string) (*model.Organization, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, name, description, llm_config, created_at, updated_at
		FROM organizations WHERE name = $1`, name)
	return scanOrg(row)
}

func (s *OrgStore) List(ctx context.Context) ([]model.Organization, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, description, llm_config, created_at, updated_at
		FROM organizations ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("store: listing organizations: %w", err)
	}
	defer rows.Close()

	var out []model.Organization
	for rows.Next() {
		org, err := scanOrg(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *org)
	}
	return out, rows.Err()
}

// Delete removes an Organization, cascading to its repositories and
// everything they own.
func (s *OrgStore) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM organizations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("store: deleting organization: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanOrg(row rowScanner) (*model.Organization, error) {
	var org model.Organization
	var cfgJSON []byte
	err := row.Scan(&org.ID, &org.Name, &org.Description, &cfgJSON, &org.CreatedAt, &org.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("store: scanning organization: %w", err)
	}
	if len(cfgJSON) > 0 {
		var cfg model.LLMConfig
		if err := json.Unmarshal(cfgJSON, &cfg); err != nil {
			return nil, fmt.Errorf("store: unmarshaling llm_config: %w", err)
		}
		org.LLMConfig = &cfg
	}
	return &org, nil
}

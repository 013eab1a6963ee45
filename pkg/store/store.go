// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package store is the Postgres-backed repository store: narrow,
// per-entity query types sharing one connection pool. Postgres gives the
// job queue a real SKIP LOCKED row lock across processes.
package store

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schemaSQL string

// Store holds the shared connection pool and exposes one narrow sub-store
// per entity rather than one large repository god-object.
type Store struct {
	Pool *pgxpool.Pool

	Org         *OrgStore
	Repository  *RepositoryStore
	File        *FileStore
	Symbol      *SymbolStore
	Reference   *ReferenceStore
	Job         *JobStore
	EntryPoint  *EntryPointStore
	Flow        *FlowStore
}

// Open connects to dsn and wires every sub-store against the shared pool.
func Open(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("store: connecting to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("store: pinging postgres: %w", err)
	}
	s := &Store{Pool: pool}
	s.Org = &OrgStore{pool: pool}
	s.Repository = &RepositoryStore{pool: pool}
	s.File = &FileStore{pool: pool}
	s.Symbol = &SymbolStore{pool: pool}
	s.Reference = &ReferenceStore{pool: pool}
	s.Job = &JobStore{pool: pool}
	s.EntryPoint = &EntryPointStore{pool: pool}
	s.Flow = &FlowStore{pool: pool}
	return s, nil
}

// EnsureSchema applies schema.sql, which is itself idempotent
// (CREATE TABLE/INDEX IF NOT EXISTS).
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.Pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("store: ensuring schema: %w", err)
	}
	return nil
}

// Close drains and closes the pool.
func (s *Store) Close() {
	s.Pool.Close()
}

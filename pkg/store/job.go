// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kraklabs/repograph/pkg/model"
)

// JobStore is the narrow repository for ParsingJob rows, including the
// atomic claim statement the worker pool polls.
type JobStore struct {
	pool *pgxpool.Pool
}

func (s *JobStore) Create(ctx context.Context, repoID string) (*model.ParsingJob, error) {
	id := model.NewID()
	now := time.Now().UTC()
	_, err := s.pool.Exec(ctx, `
		INSERT INTO parsing_jobs (id, repo_id, status, created_at) VALUES ($1, $2, 'pending', $3)`,
		id, repoID, now)
	if err != nil {
		return nil, fmt.Errorf("store: creating parsing job: %w", err)
	}
	return &model.ParsingJob{ID: id, RepoID: repoID, Status: model.JobPending, CreatedAt: now}, nil
}

// ClaimNext atomically selects one pending job, skipping rows locked by other
// claimants, and transitions it to parsing under workerID. Returns
// (nil, false, nil) when no pending job is available.
func (s *JobStore) ClaimNext(ctx context.Context, workerID string) (*model.ParsingJob, bool, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE parsing_jobs
		SET status = 'parsing', worker_id = $1, started_at = now()
		WHERE id = (
			SELECT id FROM parsing_jobs
			WHERE status = 'pending'
			ORDER BY created_at
			FOR UPDATE SKIP LOCKED
			LIMIT 1
		)
		RETURNING id, repo_id, status, worker_id, error_message, created_at, started_at, completed_at`,
		workerID)
	job, err := scanJob(row)
	if errors.Is(err, ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("store: claiming next job: %w", err)
	}
	return job, true, nil
}

func (s *JobStore) Complete(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE parsing_jobs SET status = 'completed', completed_at = now() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("store: completing job: %w", err)
	}
	return nil
}

func (s *JobStore) Fail(ctx context.Context, id, errMsg string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE parsing_jobs SET status = 'failed', error_message = $2, completed_at = now() WHERE id = $1`,
		id, errMsg)
	if err != nil {
		return fmt.Errorf("store: failing job: %w", err)
	}
	return nil
}

func (s *JobStore) Get(ctx context.Context, id string) (*model.ParsingJob, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, repo_id, status, worker_id, error_message, created_at, started_at, completed_at
		FROM parsing_jobs WHERE id = $1`, id)
	return scanJob(row)
}

func (s *JobStore) ListByRepo(ctx context.Context, repoID string) ([]model.ParsingJob, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, repo_id, status, worker_id, error_message, created_at, started_at, completed_at
		FROM parsing_jobs WHERE repo_id = $1 ORDER BY created_at DESC`, repoID)
	if err != nil {
		return nil, fmt.Errorf("store: listing jobs: %w", err)
	}
	defer rows.Close()

	var out []model.ParsingJob
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *j)
	}
	return out, rows.Err()
}

func scanJob(row rowScanner) (*model.ParsingJob, error) {
	var j model.ParsingJob
	var workerID, errMsg *string
	err := row.Scan(&j.ID, &j.RepoID, &j.Status, &workerID, &errMsg, &j.CreatedAt, &j.StartedAt, &j.CompletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("store: scanning job: %w", err)
	}
	if workerID != nil {
		j.WorkerID = *workerID
	}
	if errMsg != nil {
		j.ErrorMessage = *errMsg
	}
	return &j, nil
}

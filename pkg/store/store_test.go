// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Integration tests against a real Postgres instance. The pack carries no
// pgx mocking or test-container library, so these run only when
// REPOGRAPH_TEST_DATABASE_URL is set, matching the common Go convention of
// gating DB-backed tests behind an environment variable rather than faking
// the driver.
package store

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kraklabs/repograph/pkg/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("REPOGRAPH_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("REPOGRAPH_TEST_DATABASE_URL not set; skipping store integration test")
	}

	ctx := context.Background()
	st, err := Open(ctx, dsn)
	require.NoError(t, err)
	require.NoError(t, st.EnsureSchema(ctx))
	t.Cleanup(st.Close)
	return st
}

func TestOrgCreateGetList(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	org, err := st.Org.Create(ctx, "acme-"+model.NewID(), "test org", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Org.Delete(ctx, org.ID) })

	got, err := st.Org.Get(ctx, org.ID)
	require.NoError(t, err)
	require.Equal(t, org.Name, got.Name)

	all, err := st.Org.List(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, all)
}

func TestOrgGetNotFound(t *testing.T) {
	st := openTestStore(t)
	_, err := st.Org.Get(context.Background(), model.NewID())
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRepositoryLifecycle(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	org, err := st.Org.Create(ctx, "acme-"+model.NewID(), "", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Org.Delete(ctx, org.ID) })

	repo, err := st.Repository.Create(ctx, org.ID, "myrepo", "", "/src/myrepo")
	require.NoError(t, err)

	repos, err := st.Repository.ListByOrg(ctx, org.ID)
	require.NoError(t, err)
	require.Len(t, repos, 1)
	require.Equal(t, repo.ID, repos[0].ID)

	require.NoError(t, st.Repository.SetStatus(ctx, repo.ID, model.RepositoryParsing, ""))
	got, err := st.Repository.Get(ctx, repo.ID)
	require.NoError(t, err)
	require.Equal(t, model.RepositoryParsing, got.Status)
}

func TestJobCreateAndClaim(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	org, err := st.Org.Create(ctx, "acme-"+model.NewID(), "", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Org.Delete(ctx, org.ID) })

	repo, err := st.Repository.Create(ctx, org.ID, "myrepo", "", "/src/myrepo")
	require.NoError(t, err)

	job, err := st.Job.Create(ctx, repo.ID)
	require.NoError(t, err)

	claimed, ok, err := st.Job.ClaimNext(ctx, "test-worker")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, job.ID, claimed.ID)

	require.NoError(t, st.Job.Complete(ctx, job.ID))
}

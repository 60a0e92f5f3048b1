package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/dafibh/qfin/qfin-backend/internal/domain"
	"github.com/dafibh/qfin/qfin-backend/internal/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupArchiveJob(t *testing.T, store domain.ExportStore) (*ArchiveJob, *reportFixture, *testutil.MockOwnerRepository) {
	t.Helper()
	f := setupReports()
	owners := testutil.NewMockOwnerRepository()
	owners.AddOwner(&domain.Owner{ID: 1, Auth0ID: "auth0|one"})
	owners.AddOwner(&domain.Owner{ID: 2, Auth0ID: "auth0|two"})

	job, err := NewArchiveJob(NewArchiveService(f.service, store, 0), owners, zerolog.Nop(), "")
	require.NoError(t, err)
	job.SetClock(fixedClock(time.Date(2024, 3, 1, 0, 5, 0, 0, time.UTC)))
	return job, f, owners
}

func TestArchiveJob_RunOnceArchivesPreviousMonth(t *testing.T) {
	store := testutil.NewMockExportStore()
	job, f, _ := setupArchiveJob(t, store)
	f.add(1, domain.TransactionTypeExpense, "12", "Food", time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC))
	f.add(1, domain.TransactionTypeExpense, "99", "Food", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))

	result := job.RunOnce(context.Background())

	assert.Equal(t, ArchiveRunResult{Owners: 2, Archived: 4, Failed: 0}, result)
	keys := store.Keys()
	require.Len(t, keys, 4)

	var csvKey string
	for _, k := range keys {
		if strings.HasPrefix(k, "exports/1/transactions/") {
			csvKey = k
		}
	}
	require.NotEmpty(t, csvKey)
	content := string(store.Objects[csvKey])
	assert.Contains(t, content, "2024-02-29")
	assert.NotContains(t, content, "2024-03-01,")
}

func TestArchiveJob_FailuresAreCounted(t *testing.T) {
	store := testutil.NewMockExportStore()
	store.UploadErr = assert.AnError
	job, _, _ := setupArchiveJob(t, store)

	result := job.RunOnce(context.Background())
	assert.Equal(t, 2, result.Owners)
	assert.Equal(t, 0, result.Archived)
	assert.Equal(t, 4, result.Failed)
}

func TestArchiveJob_DisabledStoreSkips(t *testing.T) {
	job, _, _ := setupArchiveJob(t, nil)

	result := job.RunOnce(context.Background())
	assert.Equal(t, ArchiveRunResult{}, result)
}

func TestArchiveJob_CancelledContext(t *testing.T) {
	store := testutil.NewMockExportStore()
	job, _, _ := setupArchiveJob(t, store)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := job.RunOnce(ctx)
	assert.Equal(t, 0, result.Owners)
	assert.Empty(t, store.Keys())
}

func TestNewArchiveJob_InvalidSchedule(t *testing.T) {
	f := setupReports()
	_, err := NewArchiveJob(NewArchiveService(f.service, nil, 0), testutil.NewMockOwnerRepository(), zerolog.Nop(), "every tuesday")
	assert.Error(t, err)
}

func TestArchiveJob_StartStop(t *testing.T) {
	job, _, _ := setupArchiveJob(t, testutil.NewMockExportStore())

	assert.False(t, job.IsRunning())
	require.NoError(t, job.Start(context.Background()))
	assert.True(t, job.IsRunning())
	require.NoError(t, job.Start(context.Background()), "start is idempotent")

	job.Stop()
	assert.False(t, job.IsRunning())
	job.Stop()
}

package store_test

import (
	"path/filepath"
	"testing"

	"github.com/jroosing/pbench/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_RunLifecycle(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "pbench.db")
	s, err := store.Open(dbPath)
	require.NoError(t, err)
	defer s.Close()

	runID, err := s.BeginRun("client", "127.0.0.1:9000", 4)
	require.NoError(t, err)
	assert.NotZero(t, runID)

	require.NoError(t, s.RecordSample(runID, 1000.0, 950.0, 1000, 250))
	require.NoError(t, s.RecordSample(runID, 1200.0, 1100.0, 2200, 550))

	require.NoError(t, s.EndRun(runID, 2200, 550))

	runs, err := s.RecentRuns(10)
	require.NoError(t, err)
	require.Len(t, runs, 1)

	got := runs[0]
	assert.Equal(t, runID, got.ID)
	assert.Equal(t, "client", got.Role)
	assert.Equal(t, "127.0.0.1:9000", got.Addr)
	assert.Equal(t, 4, got.Threads)
	assert.Equal(t, uint64(2200), got.PacketsTotal)
	assert.Equal(t, uint64(550), got.MaxLastSeq)
	assert.NotNil(t, got.EndedAt)
}

func TestStore_RecentRunsOrdering(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "pbench.db")
	s, err := store.Open(dbPath)
	require.NoError(t, err)
	defer s.Close()

	first, err := s.BeginRun("server", "0.0.0.0:9000", 1)
	require.NoError(t, err)
	second, err := s.BeginRun("server", "0.0.0.0:9000", 2)
	require.NoError(t, err)

	runs, err := s.RecentRuns(10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, second, runs[0].ID)
	assert.Equal(t, first, runs[1].ID)
}

func TestStore_NilIsNoOp(t *testing.T) {
	var s *store.Store

	runID, err := s.BeginRun("client", "x", 1)
	require.NoError(t, err)
	assert.Zero(t, runID)

	require.NoError(t, s.RecordSample(1, 1, 1, 1, 1))
	require.NoError(t, s.EndRun(1, 1, 1))
	require.NoError(t, s.Close())

	runs, err := s.RecentRuns(10)
	require.NoError(t, err)
	assert.Nil(t, runs)
}

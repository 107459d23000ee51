package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/levelworks/rlistic/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func sampleRun(scenario string) *model.SearchRun {
	return &model.SearchRun{
		Scenario: scenario,
		Policy:   "top:1",
		Results: []model.RankedResult{
			{Rank: 1, Groups: [][]string{{"alice", "bob"}, {"carol"}}, Grade: "high"},
			{Rank: 2, Groups: [][]string{{"alice", "bob", "carol"}}, Grade: "low"},
		},
	}
}

func TestSQLiteStore_SaveAndGetRun(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	run := sampleRun("students")
	require.NoError(t, s.SaveRun(ctx, run))
	assert.NotEmpty(t, run.ID)

	got, err := s.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.ID, got.ID)
	assert.Equal(t, "students", got.Scenario)
	assert.Equal(t, "top:1", got.Policy)
	require.Len(t, got.Results, 2)
	assert.Equal(t, [][]string{{"alice", "bob"}, {"carol"}}, got.Results[0].Groups)
	assert.Equal(t, "high", got.Results[0].Grade)
}

func TestSQLiteStore_GetRun_NotFound(t *testing.T) {
	s := newTestSQLiteStore(t)

	_, err := s.GetRun(context.Background(), "nonexistent")
	require.ErrorIs(t, err, ErrRunNotFound)
}

func TestSQLiteStore_ListRuns(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveRun(ctx, sampleRun("students")))
	require.NoError(t, s.SaveRun(ctx, sampleRun("students")))
	require.NoError(t, s.SaveRun(ctx, sampleRun("teams")))

	all, err := s.ListRuns(ctx, RunFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	students, err := s.ListRuns(ctx, RunFilter{Scenario: "students"})
	require.NoError(t, err)
	assert.Len(t, students, 2)

	limited, err := s.ListRuns(ctx, RunFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestSQLiteStore_DeleteRun(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	run := sampleRun("students")
	require.NoError(t, s.SaveRun(ctx, run))

	require.NoError(t, s.DeleteRun(ctx, run.ID))

	_, err := s.GetRun(ctx, run.ID)
	require.ErrorIs(t, err, ErrRunNotFound)

	err = s.DeleteRun(ctx, run.ID)
	require.ErrorIs(t, err, ErrRunNotFound)
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "oracle", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown driver")
}

func TestOpenSQLiteMigrates(t *testing.T) {
	s, err := Open(context.Background(), "sqlite", filepath.Join(t.TempDir(), "open.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	require.NoError(t, s.SaveRun(context.Background(), sampleRun("students")))
}

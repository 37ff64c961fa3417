package service

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"taskhub/internal/storage/records"
	"taskhub/internal/storage/sqlite"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var errBoom = errors.New("boom")

// flakyTable wraps a real table and fails selected operations.
type flakyTable struct {
	RecordTable
	failQuery  bool
	failPut    bool
	failDelete int // fail the nth Delete call (1-based); 0 never fails
	deletes    int
}

func (f *flakyTable) Query(ctx context.Context, partition string) ([]records.Item, error) {
	if f.failQuery {
		return nil, errBoom
	}
	return f.RecordTable.Query(ctx, partition)
}

func (f *flakyTable) Put(ctx context.Context, item records.Item) error {
	if f.failPut {
		return errBoom
	}
	return f.RecordTable.Put(ctx, item)
}

func (f *flakyTable) Delete(ctx context.Context, key records.Key) error {
	f.deletes++
	if f.failDelete != 0 && f.deletes == f.failDelete {
		return errBoom
	}
	return f.RecordTable.Delete(ctx, key)
}

type fixture struct {
	projects *Projects
	tasks    *Tasks
	table    *flakyTable
	store    *sqlite.Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	logger := zaptest.NewLogger(t)

	store, err := sqlite.Open(filepath.Join(dir, "projects.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	recs, err := records.Open(filepath.Join(dir, "tasks.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = recs.Close() })

	ctx := context.Background()
	require.NoError(t, recs.CreateTable(ctx, TaskTable))
	table, err := recs.Table(ctx, TaskTable.Name)
	require.NoError(t, err)

	flaky := &flakyTable{RecordTable: table}
	tasks := NewTasks(flaky, logger)
	return &fixture{
		projects: NewProjects(store, tasks, PaginationLimits{DefaultPerPage: 5, MaxPerPage: 10}, logger),
		tasks:    tasks,
		table:    flaky,
		store:    store,
	}
}

func ptr[T any](v T) *T { return &v }

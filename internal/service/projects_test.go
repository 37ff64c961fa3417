package service

import (
	"context"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskhub/internal/models"
)

func TestCreateProject(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := f.projects.Create(ctx, "Alpha", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "Alpha", p.Name)
	assert.Equal(t, "active", p.Status)
	assert.NotZero(t, p.ID)

	q, err := f.projects.Create(ctx, "Beta", ptr("b"), ptr("paused"))
	require.NoError(t, err)
	assert.Equal(t, "paused", q.Status)
	require.NotNil(t, q.Description)
	assert.Equal(t, "b", *q.Description)

	r, err := f.projects.Create(ctx, "Gamma", nil, ptr(""))
	require.NoError(t, err)
	assert.Equal(t, "", r.Status)
}

func TestCreateProjectDuplicateName(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.projects.Create(ctx, "Alpha", nil, nil)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err = f.projects.Create(ctx, "Alpha", ptr("again"), nil)
		require.ErrorIs(t, err, ErrDuplicateName)
	}

	page, err := f.projects.List(ctx, 1, 10, "")
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)
}

func TestCreateProjectRequiresName(t *testing.T) {
	f := newFixture(t)
	for _, name := range []string{"", "   "} {
		_, err := f.projects.Create(context.Background(), name, nil, nil)
		require.ErrorIs(t, err, ErrValidation)
	}
}

func TestListProjects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 1; i <= 12; i++ {
		status := ptr("active")
		if i%3 == 0 {
			status = ptr("archived")
		}
		_, err := f.projects.Create(ctx, fmt.Sprintf("p%02d", i), nil, status)
		require.NoError(t, err)
	}

	page, err := f.projects.List(ctx, 2, 5, "")
	require.NoError(t, err)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 5, page.PerPage)
	assert.Equal(t, 12, page.Total)
	assert.Equal(t, 3, page.Pages)
	require.Len(t, page.Data, 5)
	assert.Equal(t, "p06", page.Data[0].Name)

	archived, err := f.projects.List(ctx, 1, 5, "archived")
	require.NoError(t, err)
	assert.Equal(t, 4, archived.Total)
	assert.Equal(t, 1, archived.Pages)
	for _, p := range archived.Data {
		assert.Equal(t, "archived", p.Status)
	}

	capped, err := f.projects.List(ctx, 1, 500, "")
	require.NoError(t, err)
	assert.Equal(t, 10, capped.PerPage)
	assert.Len(t, capped.Data, 10)

	beyond, err := f.projects.List(ctx, 9, 5, "")
	require.NoError(t, err)
	assert.Empty(t, beyond.Data)
	assert.NotNil(t, beyond.Data)
}

func TestListProjectsInvalidPagination(t *testing.T) {
	f := newFixture(t)
	for _, tc := range [][2]int{{0, 5}, {1, 0}, {-1, -1}} {
		_, err := f.projects.List(context.Background(), tc[0], tc[1], "")
		require.ErrorIs(t, err, ErrInvalidPagination)
		require.ErrorIs(t, err, ErrValidation)
	}
}

func TestProjectDetailIncludesTasks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := f.projects.Create(ctx, "Alpha", nil, nil)
	require.NoError(t, err)
	task, err := f.projects.CreateTask(ctx, p.ID, models.NewTask{Title: "T1", Priority: models.PriorityHigh})
	require.NoError(t, err)

	detail, err := f.projects.Detail(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.Name, detail.Name)
	require.Len(t, detail.Tasks, 1)
	assert.Equal(t, task.TaskID, detail.Tasks[0].TaskID)

	_, err = f.projects.Detail(ctx, p.ID+100)
	require.ErrorIs(t, err, ErrProjectNotFound)
}

func TestCreateTaskRequiresProject(t *testing.T) {
	f := newFixture(t)
	_, err := f.projects.CreateTask(context.Background(), 77, models.NewTask{Title: "T", Priority: models.PriorityLow})
	require.ErrorIs(t, err, ErrProjectNotFound)
	assert.Empty(t, f.tasks.ListByProject(context.Background(), 77))
}

func TestUpdateProject(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := f.projects.Create(ctx, "Alpha", ptr("d"), nil)
	require.NoError(t, err)
	_, err = f.projects.Create(ctx, "Beta", nil, nil)
	require.NoError(t, err)

	updated, err := f.projects.Update(ctx, p.ID, models.ProjectPatch{Name: ptr("Alpha 2"), Status: ptr("done")})
	require.NoError(t, err)
	assert.Equal(t, "Alpha 2", updated.Name)
	assert.Equal(t, "done", updated.Status)
	require.NotNil(t, updated.Description)
	assert.Equal(t, "d", *updated.Description)

	_, err = f.projects.Update(ctx, p.ID, models.ProjectPatch{Name: ptr("Beta")})
	require.ErrorIs(t, err, ErrDuplicateName)

	_, err = f.projects.Update(ctx, p.ID, models.ProjectPatch{Name: ptr(" ")})
	require.ErrorIs(t, err, ErrValidation)

	_, err = f.projects.Update(ctx, 999, models.ProjectPatch{Status: ptr("x")})
	require.ErrorIs(t, err, ErrProjectNotFound)

	cleared, err := f.projects.Update(ctx, p.ID, models.ProjectPatch{Description: models.NullString()})
	require.NoError(t, err)
	assert.Nil(t, cleared.Description)
	assert.Equal(t, "Alpha 2", cleared.Name)
}

func TestListProjectsPageBeyondOffsetRange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.projects.Create(ctx, "Alpha", nil, nil)
	require.NoError(t, err)

	page := math.MaxInt/4 + 2
	res, err := f.projects.List(ctx, page, 4, "")
	require.NoError(t, err)
	assert.Equal(t, page, res.Page)
	assert.Equal(t, 1, res.Total)
	assert.Empty(t, res.Data)
}

func TestDeleteProjectCascades(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := f.projects.Create(ctx, "Alpha", nil, nil)
	require.NoError(t, err)
	other, err := f.projects.Create(ctx, "Beta", nil, nil)
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		_, err := f.projects.CreateTask(ctx, p.ID, models.NewTask{Title: "T", Priority: models.PriorityMedium})
		require.NoError(t, err)
	}
	_, err = f.projects.CreateTask(ctx, other.ID, models.NewTask{Title: "keep", Priority: models.PriorityMedium})
	require.NoError(t, err)

	require.NoError(t, f.projects.Delete(ctx, p.ID))

	assert.Empty(t, f.tasks.ListByProject(ctx, p.ID))
	assert.Len(t, f.tasks.ListByProject(ctx, other.ID), 1)

	got, err := f.projects.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	require.ErrorIs(t, f.projects.Delete(ctx, p.ID), ErrProjectNotFound)
}

func TestDeleteProjectKeepsRowWhenCleanupFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := f.projects.Create(ctx, "Alpha", nil, nil)
	require.NoError(t, err)
	for i := 0; i < 2; i++ {
		_, err := f.projects.CreateTask(ctx, p.ID, models.NewTask{Title: "T", Priority: models.PriorityLow})
		require.NoError(t, err)
	}

	f.table.failDelete = 2
	err = f.projects.Delete(ctx, p.ID)
	require.ErrorIs(t, err, ErrStoreUnavailable)

	still, err := f.projects.Get(ctx, p.ID)
	require.NoError(t, err)
	require.NotNil(t, still)

	f.table.failDelete = 0
	require.NoError(t, f.projects.Delete(ctx, p.ID))
	assert.Empty(t, f.tasks.ListByProject(ctx, p.ID))
}

func TestProjectSummary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := f.projects.Create(ctx, "Alpha", nil, nil)
	require.NoError(t, err)

	inputs := []models.NewTask{
		{Title: "a", Priority: models.PriorityHigh},
		{Title: "b", Priority: models.PriorityHigh, Status: ptr(models.StatusDone)},
		{Title: "c", Priority: models.PriorityLow, Status: ptr(models.StatusInProgress)},
	}
	for _, in := range inputs {
		_, err := f.projects.CreateTask(ctx, p.ID, in)
		require.NoError(t, err)
	}

	sum, err := f.projects.Summary(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, sum.ProjectID)
	assert.Equal(t, "Alpha", sum.ProjectName)
	assert.Equal(t, 3, sum.TotalTasks)
	assert.Equal(t, map[string]int{"todo": 1, "done": 1, "in_progress": 1}, sum.ByStatus)
	assert.Equal(t, map[string]int{"high": 2, "low": 1}, sum.ByPriority)

	_, err = f.projects.Summary(ctx, 404)
	require.ErrorIs(t, err, ErrProjectNotFound)
}

func TestListTasksFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := f.projects.Create(ctx, "Alpha", nil, nil)
	require.NoError(t, err)
	_, err = f.projects.CreateTask(ctx, p.ID, models.NewTask{Title: "a", Priority: models.PriorityHigh})
	require.NoError(t, err)
	_, err = f.projects.CreateTask(ctx, p.ID, models.NewTask{Title: "b", Priority: models.PriorityLow, Status: ptr(models.StatusDone)})
	require.NoError(t, err)

	assert.Len(t, f.projects.ListTasks(ctx, p.ID, "", ""), 2)
	done := f.projects.ListTasks(ctx, p.ID, models.StatusDone, "")
	require.Len(t, done, 1)
	assert.Equal(t, "b", done[0].Title)
	assert.Empty(t, f.projects.ListTasks(ctx, p.ID, models.StatusDone, models.PriorityHigh))
}

package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"taskhub/internal/models"
	"taskhub/internal/storage/sqlite"
)

// PaginationLimits bounds project listing.
type PaginationLimits struct {
	DefaultPerPage int
	MaxPerPage     int
}

// Projects manages projects in the relational store and keeps their tasks in
// step through the task repository.
type Projects struct {
	store  *sqlite.Store
	tasks  *Tasks
	limits PaginationLimits
	logger *zap.Logger
}

// NewProjects wires a project repository to its stores.
func NewProjects(store *sqlite.Store, tasks *Tasks, limits PaginationLimits, logger *zap.Logger) *Projects {
	if logger == nil {
		logger = zap.NewNop()
	}
	if limits.DefaultPerPage < 1 {
		limits.DefaultPerPage = 5
	}
	if limits.MaxPerPage < limits.DefaultPerPage {
		limits.MaxPerPage = limits.DefaultPerPage
	}
	return &Projects{store: store, tasks: tasks, limits: limits, logger: logger}
}

// DefaultPerPage is the page size used when a caller does not pick one.
func (s *Projects) DefaultPerPage() int {
	return s.limits.DefaultPerPage
}

// Create inserts a project. Names are unique and stored exactly as given;
// status defaults to "active" only when omitted.
func (s *Projects) Create(ctx context.Context, name string, description, status *string) (models.Project, error) {
	if strings.TrimSpace(name) == "" {
		return models.Project{}, validationf("project name required")
	}

	existing, err := s.store.FindProjectByName(ctx, name)
	if err != nil {
		return models.Project{}, unavailable("create project", err)
	}
	if existing != nil {
		return models.Project{}, ErrDuplicateName
	}

	st := models.DefaultProjectStatus
	if status != nil {
		st = *status
	}
	p, err := s.store.CreateProject(ctx, name, description, st)
	if err != nil {
		return models.Project{}, mapStoreErr("create project", err)
	}

	s.logger.Info("project created", zap.Int64("project_id", p.ID), zap.String("name", p.Name))
	return p, nil
}

// List returns one page of projects, optionally only those with the given
// status. Pages are 1-indexed; perPage above the configured maximum is capped.
func (s *Projects) List(ctx context.Context, page, perPage int, status string) (models.Page, error) {
	if page < 1 || perPage < 1 {
		return models.Page{}, ErrInvalidPagination
	}
	if perPage > s.limits.MaxPerPage {
		perPage = s.limits.MaxPerPage
	}

	// Past the largest addressable offset every page is empty.
	offset := math.MaxInt
	if page-1 <= math.MaxInt/perPage {
		offset = (page - 1) * perPage
	}

	projects, total, err := s.store.ListProjects(ctx, status, perPage, offset)
	if err != nil {
		return models.Page{}, unavailable("list projects", err)
	}
	return models.Page{
		Page:    page,
		PerPage: perPage,
		Total:   total,
		Pages:   (total + perPage - 1) / perPage,
		Data:    projects,
	}, nil
}

// Get returns the project, or nil when it does not exist.
func (s *Projects) Get(ctx context.Context, id int64) (*models.Project, error) {
	p, err := s.store.GetProject(ctx, id)
	if errors.Is(err, sqlite.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, unavailable("get project", err)
	}
	return &p, nil
}

// Detail returns the project with all of its tasks.
func (s *Projects) Detail(ctx context.Context, id int64) (models.ProjectDetail, error) {
	var (
		project *models.Project
		tasks   []models.Task
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		project, err = s.Get(gctx, id)
		return err
	})
	g.Go(func() error {
		tasks = s.tasks.ListByProject(gctx, id)
		return nil
	})
	if err := g.Wait(); err != nil {
		return models.ProjectDetail{}, err
	}
	if project == nil {
		return models.ProjectDetail{}, ErrProjectNotFound
	}
	return models.ProjectDetail{Project: *project, Tasks: tasks}, nil
}

// Update overwrites the supplied subset of name, description and status.
func (s *Projects) Update(ctx context.Context, id int64, patch models.ProjectPatch) (models.Project, error) {
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return models.Project{}, validationf("project name must not be empty")
	}
	p, err := s.store.UpdateProject(ctx, id, patch)
	if err != nil {
		return models.Project{}, mapStoreErr("update project", err)
	}
	return p, nil
}

// Delete removes the project's tasks and then the project. When task cleanup
// fails the project row is kept so the delete can be retried.
func (s *Projects) Delete(ctx context.Context, id int64) error {
	project, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if project == nil {
		return ErrProjectNotFound
	}

	removed, err := s.tasks.DeleteAllForProject(ctx, id)
	if err != nil {
		s.logger.Error("project task cleanup incomplete",
			zap.Int64("project_id", id), zap.Int("tasks_removed", removed), zap.Error(err))
		return fmt.Errorf("delete project %d: %w", id, err)
	}

	if err := s.store.DeleteProject(ctx, id); err != nil {
		return mapStoreErr("delete project", err)
	}

	s.logger.Info("project deleted", zap.Int64("project_id", id), zap.Int("tasks_removed", removed))
	return nil
}

// Summary counts the project's tasks by status and priority.
func (s *Projects) Summary(ctx context.Context, id int64) (models.Summary, error) {
	project, err := s.Get(ctx, id)
	if err != nil {
		return models.Summary{}, err
	}
	if project == nil {
		return models.Summary{}, ErrProjectNotFound
	}
	return Summarize(*project, s.tasks.ListByProject(ctx, id)), nil
}

// CreateTask creates a task under an existing project.
func (s *Projects) CreateTask(ctx context.Context, projectID int64, in models.NewTask) (models.Task, error) {
	project, err := s.Get(ctx, projectID)
	if err != nil {
		return models.Task{}, err
	}
	if project == nil {
		return models.Task{}, ErrProjectNotFound
	}
	return s.tasks.Create(ctx, projectID, in)
}

// ListTasks returns the project's tasks matching the optional filters.
func (s *Projects) ListTasks(ctx context.Context, projectID int64, status models.TaskStatus, priority models.TaskPriority) []models.Task {
	return FilterTasks(s.tasks.ListByProject(ctx, projectID), status, priority)
}

func mapStoreErr(op string, err error) error {
	switch {
	case errors.Is(err, sqlite.ErrNotFound):
		return ErrProjectNotFound
	case errors.Is(err, sqlite.ErrDuplicateName):
		return ErrDuplicateName
	default:
		return unavailable(op, err)
	}
}

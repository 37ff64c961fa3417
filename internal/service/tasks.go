package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cast"
	"go.uber.org/zap"

	"taskhub/internal/models"
	"taskhub/internal/storage/records"
)

// TaskTable is the task record table: partition key project_id, sort key task_id.
var TaskTable = records.TableSchema{Name: "tasks", PartitionKey: "project_id", SortKey: "task_id"}

// RecordTable is the subset of the record store the task repository needs.
type RecordTable interface {
	Put(ctx context.Context, item records.Item) error
	Get(ctx context.Context, key records.Key) (records.Item, error)
	Query(ctx context.Context, partition string) ([]records.Item, error)
	LookupSortKey(ctx context.Context, sort string) (records.Item, error)
	Delete(ctx context.Context, key records.Key) error
}

// Tasks stores tasks in the partitioned record store, one partition per project.
type Tasks struct {
	table  RecordTable
	logger *zap.Logger
	now    func() time.Time
	newID  func() string
}

// NewTasks returns a task repository backed by table.
func NewTasks(table RecordTable, logger *zap.Logger) *Tasks {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tasks{
		table:  table,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
		newID:  func() string { return uuid.New().String() },
	}
}

// Create validates in and writes a new task under projectID. Nothing is written
// when validation fails.
func (s *Tasks) Create(ctx context.Context, projectID int64, in models.NewTask) (models.Task, error) {
	if strings.TrimSpace(in.Title) == "" {
		return models.Task{}, validationf("title is required")
	}
	if err := checkPriority(in.Priority); err != nil {
		return models.Task{}, err
	}
	status := models.StatusTodo
	if in.Status != nil {
		status = *in.Status
	}
	if err := checkStatus(status); err != nil {
		return models.Task{}, err
	}

	task := models.Task{
		ProjectID:   projectID,
		TaskID:      s.newID(),
		Title:       in.Title,
		Description: in.Description,
		Priority:    in.Priority,
		Status:      status,
		AssignedTo:  in.AssignedTo,
		CreatedAt:   s.now(),
	}
	if err := s.table.Put(ctx, taskItem(task)); err != nil {
		return models.Task{}, unavailable("create task", err)
	}

	s.logger.Debug("task created", zap.Int64("project_id", projectID), zap.String("task_id", task.TaskID))
	return task, nil
}

// ListByProject returns every task in the project's partition. A failed read
// is logged and reported as an empty list.
func (s *Tasks) ListByProject(ctx context.Context, projectID int64) []models.Task {
	tasks, err := s.listByProject(ctx, projectID)
	if err != nil {
		s.logger.Warn("task list degraded to empty", zap.Int64("project_id", projectID), zap.Error(err))
		return []models.Task{}
	}
	return tasks
}

func (s *Tasks) listByProject(ctx context.Context, projectID int64) ([]models.Task, error) {
	items, err := s.table.Query(ctx, partitionOf(projectID))
	if err != nil {
		return nil, unavailable("list tasks", err)
	}
	tasks := make([]models.Task, 0, len(items))
	for _, item := range items {
		t, err := taskFromItem(item)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

// Get looks a task up by its identifier through the sort key index. A missing
// task is reported as nil with no error.
func (s *Tasks) Get(ctx context.Context, taskID string) (*models.Task, error) {
	if taskID == "" {
		return nil, nil
	}
	item, err := s.table.LookupSortKey(ctx, taskID)
	if err != nil {
		return nil, unavailable("get task", err)
	}
	if item == nil {
		return nil, nil
	}
	t, err := taskFromItem(item)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Update merges patch over the stored task and writes the result back. The
// stored task is untouched when the patch fails validation.
func (s *Tasks) Update(ctx context.Context, taskID string, patch models.TaskPatch) (models.Task, error) {
	current, err := s.Get(ctx, taskID)
	if err != nil {
		return models.Task{}, err
	}
	if current == nil {
		return models.Task{}, ErrTaskNotFound
	}

	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return models.Task{}, validationf("title must not be empty")
	}
	if patch.Priority != nil {
		if err := checkPriority(*patch.Priority); err != nil {
			return models.Task{}, err
		}
	}
	if patch.Status != nil {
		if err := checkStatus(*patch.Status); err != nil {
			return models.Task{}, err
		}
	}

	merged := *current
	if patch.Title != nil {
		merged.Title = *patch.Title
	}
	if patch.Description.Set {
		merged.Description = patch.Description.Value
	}
	if patch.Priority != nil {
		merged.Priority = *patch.Priority
	}
	if patch.Status != nil {
		merged.Status = *patch.Status
	}
	if patch.AssignedTo.Set {
		merged.AssignedTo = patch.AssignedTo.Value
	}

	if err := s.table.Put(ctx, taskItem(merged)); err != nil {
		return models.Task{}, unavailable("update task", err)
	}
	return merged, nil
}

// Delete removes a task. Deleting a missing task succeeds.
func (s *Tasks) Delete(ctx context.Context, taskID string) error {
	current, err := s.Get(ctx, taskID)
	if err != nil {
		return err
	}
	if current == nil {
		return nil
	}
	if err := s.table.Delete(ctx, keyOf(*current)); err != nil {
		return unavailable("delete task", err)
	}
	s.logger.Debug("task deleted", zap.Int64("project_id", current.ProjectID), zap.String("task_id", taskID))
	return nil
}

// DeleteAllForProject deletes every task in the project's partition and
// returns how many were removed. It stops at the first failure; tasks deleted
// before it stay deleted, so a retry picks up where the last attempt ended.
func (s *Tasks) DeleteAllForProject(ctx context.Context, projectID int64) (int, error) {
	tasks, err := s.listByProject(ctx, projectID)
	if err != nil {
		return 0, err
	}
	for i, t := range tasks {
		if err := s.table.Delete(ctx, keyOf(t)); err != nil {
			return i, unavailable("delete project tasks", err)
		}
	}
	return len(tasks), nil
}

// FilterTasks keeps the tasks matching status and priority. Empty filters match everything.
func FilterTasks(tasks []models.Task, status models.TaskStatus, priority models.TaskPriority) []models.Task {
	out := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		if status != "" && t.Status != status {
			continue
		}
		if priority != "" && t.Priority != priority {
			continue
		}
		out = append(out, t)
	}
	return out
}

// Summarize counts the project's tasks by status and by priority.
func Summarize(project models.Project, tasks []models.Task) models.Summary {
	sum := models.Summary{
		ProjectID:   project.ID,
		ProjectName: project.Name,
		TotalTasks:  len(tasks),
		ByStatus:    map[string]int{},
		ByPriority:  map[string]int{},
	}
	for _, t := range tasks {
		sum.ByStatus[string(t.Status)]++
		sum.ByPriority[string(t.Priority)]++
	}
	return sum
}

func checkPriority(p models.TaskPriority) error {
	if !p.IsValid() {
		return fmt.Errorf("%w %q (valid: %s)", ErrInvalidPriority, p, formatValidValues(models.ValidTaskPriorities))
	}
	return nil
}

func checkStatus(st models.TaskStatus) error {
	if !st.IsValid() {
		return fmt.Errorf("%w %q (valid: %s)", ErrInvalidStatus, st, formatValidValues(models.ValidTaskStatuses))
	}
	return nil
}

func formatValidValues[T ~string](values []T) string {
	formatted := make([]string, 0, len(values))
	for _, value := range values {
		formatted = append(formatted, string(value))
	}
	return strings.Join(formatted, ", ")
}

func partitionOf(projectID int64) string {
	return strconv.FormatInt(projectID, 10)
}

func keyOf(t models.Task) records.Key {
	return records.Key{Partition: partitionOf(t.ProjectID), Sort: t.TaskID}
}

func taskItem(t models.Task) records.Item {
	return records.Item{
		TaskTable.PartitionKey: t.ProjectID,
		TaskTable.SortKey:      t.TaskID,
		"title":                t.Title,
		"description":          t.Description,
		"priority":             string(t.Priority),
		"status":               string(t.Status),
		"assigned_to":          t.AssignedTo,
		"created_at":           t.CreatedAt.Format(time.RFC3339Nano),
	}
}

func taskFromItem(item records.Item) (models.Task, error) {
	projectID, err := cast.ToInt64E(item[TaskTable.PartitionKey])
	if err != nil {
		return models.Task{}, fmt.Errorf("decode task project_id: %w", err)
	}
	createdAt, err := cast.ToTimeE(item["created_at"])
	if err != nil {
		return models.Task{}, fmt.Errorf("decode task created_at: %w", err)
	}
	return models.Task{
		ProjectID:   projectID,
		TaskID:      cast.ToString(item[TaskTable.SortKey]),
		Title:       cast.ToString(item["title"]),
		Description: optionalString(item["description"]),
		Priority:    models.TaskPriority(cast.ToString(item["priority"])),
		Status:      models.TaskStatus(cast.ToString(item["status"])),
		AssignedTo:  optionalString(item["assigned_to"]),
		CreatedAt:   createdAt.UTC(),
	}, nil
}

func optionalString(v any) *string {
	if v == nil {
		return nil
	}
	s := cast.ToString(v)
	return &s
}

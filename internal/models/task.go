package models

import "time"

// TaskPriority is the urgency of a task.
type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
)

// TaskStatus is the progress column of a task. Any status may move to any other.
type TaskStatus string

const (
	StatusTodo       TaskStatus = "todo"
	StatusInProgress TaskStatus = "in_progress"
	StatusDone       TaskStatus = "done"
)

// ValidTaskPriorities lists priorities in ascending order of urgency.
var ValidTaskPriorities = []TaskPriority{PriorityLow, PriorityMedium, PriorityHigh}

// ValidTaskStatuses lists the statuses supported by the board columns.
var ValidTaskStatuses = []TaskStatus{StatusTodo, StatusInProgress, StatusDone}

// IsValid reports whether p is one of ValidTaskPriorities.
func (p TaskPriority) IsValid() bool {
	for _, v := range ValidTaskPriorities {
		if p == v {
			return true
		}
	}
	return false
}

// IsValid reports whether s is one of ValidTaskStatuses.
func (s TaskStatus) IsValid() bool {
	for _, v := range ValidTaskStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Task is a unit of work stored under its project's partition.
type Task struct {
	ProjectID   int64        `json:"project_id"`
	TaskID      string       `json:"task_id"`
	Title       string       `json:"title"`
	Description *string      `json:"description"`
	Priority    TaskPriority `json:"priority"`
	Status      TaskStatus   `json:"status"`
	AssignedTo  *string      `json:"assigned_to"`
	CreatedAt   time.Time    `json:"created_at"`
}

// NewTask holds the caller supplied fields of a task being created.
type NewTask struct {
	Title       string
	Description *string
	Priority    TaskPriority
	Status      *TaskStatus
	AssignedTo  *string
}

// TaskPatch carries the fields of a partial task update. Nil or unset fields
// are left untouched; a supplied null clears description or assigned_to.
type TaskPatch struct {
	Title       *string
	Description OptionalString
	Priority    *TaskPriority
	Status      *TaskStatus
	AssignedTo  OptionalString
}

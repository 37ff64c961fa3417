package models

import (
	"encoding/json"
	"time"
)

// DefaultProjectStatus is assigned to projects created without a status.
const DefaultProjectStatus = "active"

// Project groups the tasks that belong to it.
type Project struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ProjectDetail is a project together with all of its tasks.
type ProjectDetail struct {
	Project
	Tasks []Task `json:"tasks"`
}

// ProjectPatch carries the fields of a partial project update. Nil fields are
// left untouched; a present null description clears it.
type ProjectPatch struct {
	Name        *string        `json:"name"`
	Description OptionalString `json:"description"`
	Status      *string        `json:"status"`
}

// OptionalString is a nullable string field of a patch. Set reports whether
// the field was supplied at all, so an explicit null can clear a value while
// an omitted field leaves it alone.
type OptionalString struct {
	Set   bool
	Value *string
}

// SomeString returns a supplied, non-null value.
func SomeString(v string) OptionalString {
	return OptionalString{Set: true, Value: &v}
}

// NullString returns a supplied null.
func NullString() OptionalString {
	return OptionalString{Set: true}
}

// UnmarshalJSON marks the field as supplied. encoding/json only calls it when
// the key is present, including for a literal null.
func (o *OptionalString) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.Value = nil
		return nil
	}
	var v string
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}

// Page is one offset-based page of projects.
type Page struct {
	Page    int       `json:"page"`
	PerPage int       `json:"per_page"`
	Total   int       `json:"total"`
	Pages   int       `json:"pages"`
	Data    []Project `json:"data"`
}

// Summary aggregates task counts for a single project.
type Summary struct {
	ProjectID   int64          `json:"project_id"`
	ProjectName string         `json:"project_name"`
	TotalTasks  int            `json:"total_tasks"`
	ByStatus    map[string]int `json:"by_status"`
	ByPriority  map[string]int `json:"by_priority"`
}

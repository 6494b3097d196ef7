// Package task defines the Task domain entity.
package task

import (
	"errors"
	"time"
)

// Task belongs to exactly one column at a time. Order is a dense 0-based
// index unique within the column; moving a task changes both its column
// and its order, and only the ordering engine writes either.
type Task struct {
	ID          string     `json:"id"`
	ProjectID   string     `json:"project_id"`
	ColumnID    string     `json:"column_id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Order       int        `json:"order"`
	AssigneeID  string     `json:"assignee_id,omitempty"`
	DueAt       *time.Time `json:"due_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// CreateRequest holds the fields needed to create a new task.
type CreateRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	AssigneeID  string     `json:"assignee_id,omitempty"`
	DueAt       *time.Time `json:"due_at,omitempty"`
}

// Validate checks the create request fields.
func (r CreateRequest) Validate() error {
	if r.Title == "" {
		return errors.New("title is required")
	}
	if len(r.Title) > 500 {
		return errors.New("title too long (max 500 chars)")
	}
	return nil
}

// UpdateRequest holds the mutable task fields. Nil pointers leave the
// current value untouched. Column and order changes go through move/reorder.
type UpdateRequest struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	AssigneeID  *string    `json:"assignee_id,omitempty"`
	DueAt       *time.Time `json:"due_at,omitempty"`
}

// MoveRequest relocates a task to a target column and index.
type MoveRequest struct {
	ColumnID string `json:"column_id"`
	Order    int    `json:"order"`
}

// ReorderRequest moves a task to a new index within its current column.
type ReorderRequest struct {
	Order int `json:"order"`
}

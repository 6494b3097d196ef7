// Package comment defines the Comment domain entity.
package comment

import (
	"errors"
	"time"
)

// Comment is a note attached to a task.
type Comment struct {
	ID        string    `json:"id"`
	TaskID    string    `json:"task_id"`
	ProjectID string    `json:"project_id"`
	AuthorID  string    `json:"author_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateRequest holds the fields needed to create a comment.
type CreateRequest struct {
	Body string `json:"body"`
}

// Validate checks the create request fields.
func (r CreateRequest) Validate() error {
	if r.Body == "" {
		return errors.New("body is required")
	}
	if len(r.Body) > 10000 {
		return errors.New("body too long (max 10000 chars)")
	}
	return nil
}

// UpdateRequest holds the mutable comment fields.
type UpdateRequest struct {
	Body string `json:"body"`
}

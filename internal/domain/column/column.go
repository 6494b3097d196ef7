// Package column defines the Column domain entity.
package column

import (
	"errors"
	"time"
)

// Column belongs to exactly one project. Order is a dense 0-based index
// unique within the project; it is written only by the ordering engine.
type Column struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"project_id"`
	Name      string    `json:"name"`
	Order     int       `json:"order"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateRequest holds the fields needed to create a new column.
// Order is optional: nil appends at the end, a value inserts at that index.
type CreateRequest struct {
	Name  string `json:"name"`
	Order *int   `json:"order,omitempty"`
}

// Validate checks the create request fields.
func (r CreateRequest) Validate() error {
	if r.Name == "" {
		return errors.New("name is required")
	}
	if len(r.Name) > 255 {
		return errors.New("name too long (max 255 chars)")
	}
	return nil
}

// UpdateRequest holds the mutable column fields. Order changes go through
// the reorder endpoint, not here.
type UpdateRequest struct {
	Name string `json:"name"`
}

// ReorderRequest moves a column to a new index within its project.
type ReorderRequest struct {
	Order int `json:"order"`
}

// Package project defines the Project domain entity.
package project

import (
	"errors"
	"time"
)

// Project is the top-level board container. It owns an ordered set of
// columns and is the scope for activity history and live broadcast rooms.
type Project struct {
	ID        string     `json:"id"`
	OwnerID   string     `json:"owner_id"`
	Name      string     `json:"name"`
	Version   int        `json:"version"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// CreateRequest holds the fields needed to create a new project.
type CreateRequest struct {
	Name string `json:"name"`
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

// UpdateRequest holds the mutable project fields.
type UpdateRequest struct {
	Name string `json:"name"`
}

// ColumnStats is the task count for one column, used by the stats endpoint.
type ColumnStats struct {
	ColumnID string `json:"column_id"`
	Name     string `json:"name"`
	Tasks    int    `json:"tasks"`
}

// Stats summarizes a project for its overview page.
type Stats struct {
	ProjectID string        `json:"project_id"`
	Columns   []ColumnStats `json:"columns"`
	Tasks     int           `json:"tasks"`
	Comments  int           `json:"comments"`
}

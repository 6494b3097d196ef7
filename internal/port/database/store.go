// Package database defines the database store port (interface).
package database

import (
	"context"
	"time"

	"github.com/corkboard/corkboard/internal/domain/activity"
	"github.com/corkboard/corkboard/internal/domain/attachment"
	"github.com/corkboard/corkboard/internal/domain/column"
	"github.com/corkboard/corkboard/internal/domain/comment"
	"github.com/corkboard/corkboard/internal/domain/project"
	"github.com/corkboard/corkboard/internal/domain/task"
	"github.com/corkboard/corkboard/internal/domain/user"
)

// Store is the port interface for persistence.
//
// The positional mutators (CreateColumnAt, MoveColumn, RemoveColumn,
// CreateTaskAt, MoveTask, RemoveTask) must apply their read-shift-write
// sequence as one atomic unit: either every affected sibling row is
// renumbered and the primary row written, or nothing is. The ordering
// engine is the only caller of these methods.
type Store interface {
	// Projects
	ListProjects(ctx context.Context, userID string) ([]project.Project, error)
	GetProject(ctx context.Context, id string) (*project.Project, error)
	CreateProject(ctx context.Context, ownerID string, req project.CreateRequest) (*project.Project, error)
	UpdateProject(ctx context.Context, p *project.Project) error
	SoftDeleteProject(ctx context.Context, id string) error
	ProjectStats(ctx context.Context, id string) (*project.Stats, error)

	// HasProjectAccess reports whether userID may view the project.
	// A missing project yields (false, nil), not an error, so callers
	// cannot distinguish "gone" from "forbidden".
	HasProjectAccess(ctx context.Context, projectID, userID string) (bool, error)

	// Members. The owner is seeded as a member on create; these manage
	// collaborators.
	AddProjectMember(ctx context.Context, projectID, userID string) error
	RemoveProjectMember(ctx context.Context, projectID, userID string) error
	ListProjectMembers(ctx context.Context, projectID string) ([]user.Public, error)

	// Columns
	ListColumns(ctx context.Context, projectID string) ([]column.Column, error)
	GetColumn(ctx context.Context, id string) (*column.Column, error)
	ColumnOrders(ctx context.Context, projectID string) ([]int, error)
	CreateColumnAt(ctx context.Context, projectID, name string, order int) (*column.Column, error)
	UpdateColumn(ctx context.Context, c *column.Column) error
	MoveColumn(ctx context.Context, columnID string, fromOrder, toOrder int) error
	RemoveColumn(ctx context.Context, columnID string) error

	// Tasks
	ListTasks(ctx context.Context, columnID string) ([]task.Task, error)
	ListProjectTasks(ctx context.Context, projectID string) ([]task.Task, error)
	GetTask(ctx context.Context, id string) (*task.Task, error)
	TaskOrders(ctx context.Context, columnID string) ([]int, error)
	CreateTaskAt(ctx context.Context, projectID, columnID string, req task.CreateRequest, order int) (*task.Task, error)
	UpdateTask(ctx context.Context, t *task.Task) error
	MoveTask(ctx context.Context, taskID, fromColumnID, toColumnID string, fromOrder, toOrder int) error
	RemoveTask(ctx context.Context, taskID string) error

	// Activities
	CreateActivity(ctx context.Context, a *activity.Activity) error
	// FindRecentActivity returns the newest activity matching the tuple with
	// UpdatedAt after since, or domain.ErrNotFound.
	FindRecentActivity(ctx context.Context, action activity.Action, projectID, actorID, taskID string, since time.Time) (*activity.Activity, error)
	RefreshActivity(ctx context.Context, id string, meta activity.Meta, at time.Time) error
	ListProjectActivities(ctx context.Context, projectID, actorID string, page activity.Page) ([]activity.Activity, error)
	ListTaskActivities(ctx context.Context, taskID string, page activity.Page) ([]activity.Activity, error)
	ListActorActivities(ctx context.Context, actorID string, page activity.Page) ([]activity.Activity, error)

	// Comments
	ListComments(ctx context.Context, taskID string) ([]comment.Comment, error)
	GetComment(ctx context.Context, id string) (*comment.Comment, error)
	CreateComment(ctx context.Context, projectID, taskID, authorID string, req comment.CreateRequest) (*comment.Comment, error)
	UpdateComment(ctx context.Context, c *comment.Comment) error
	DeleteComment(ctx context.Context, id string) error

	// Attachments
	ListAttachments(ctx context.Context, taskID string) ([]attachment.Attachment, error)
	GetAttachment(ctx context.Context, id string) (*attachment.Attachment, error)
	CreateAttachment(ctx context.Context, projectID, taskID, uploaderID string, req attachment.CreateRequest) (*attachment.Attachment, error)
	DeleteAttachment(ctx context.Context, id string) error

	// Users
	ListUsers(ctx context.Context) ([]user.User, error)
	GetUser(ctx context.Context, id string) (*user.User, error)
	GetUserByEmail(ctx context.Context, email string) (*user.User, error)
	CreateUser(ctx context.Context, u *user.User) error
	UpdateUserPassword(ctx context.Context, id, passwordHash string) error
}

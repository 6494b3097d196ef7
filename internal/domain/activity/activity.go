// Package activity defines the audit trail entities: action kinds, the
// typed metadata union, and the Activity record with its merge semantics.
package activity

import "time"

// Action identifies the kind of user-visible event an Activity records.
type Action string

const (
	ActionTaskCreated   Action = "task.created"
	ActionTaskUpdated   Action = "task.updated"
	ActionTaskMoved     Action = "task.moved"
	ActionTaskReordered Action = "task.reordered"
	ActionTaskDeleted   Action = "task.deleted"

	ActionColumnCreated   Action = "column.created"
	ActionColumnUpdated   Action = "column.updated"
	ActionColumnReordered Action = "column.reordered"
	ActionColumnDeleted   Action = "column.deleted"

	ActionCommentCreated Action = "comment.created"
	ActionCommentUpdated Action = "comment.updated"
	ActionCommentDeleted Action = "comment.deleted"

	ActionAttachmentUploaded Action = "attachment.uploaded"
	ActionAttachmentDeleted  Action = "attachment.deleted"

	ActionProjectCreated Action = "project.created"
	ActionProjectUpdated Action = "project.updated"
	ActionProjectDeleted Action = "project.deleted"
)

// reducible lists the action kinds that merge into a recent matching entry
// instead of creating a new row. Rapid in-place edits qualify; discrete
// lifecycle events (created/deleted) never do.
var reducible = map[Action]bool{
	ActionTaskUpdated:     true,
	ActionTaskMoved:       true,
	ActionTaskReordered:   true,
	ActionColumnUpdated:   true,
	ActionColumnReordered: true,
	ActionCommentUpdated:  true,
}

// Reducible reports whether entries of this action kind are merged when they
// recur for the same (action, project, actor, task) within the dedupe window.
func (a Action) Reducible() bool {
	return reducible[a]
}

// Activity is one entry in the audit trail. Entries are created and merged
// only by the activity log; a reducible entry is mutable until its dedupe
// window lapses, after which it is terminal.
type Activity struct {
	ID        string    `json:"id"`
	Action    Action    `json:"action"`
	ProjectID string    `json:"project_id"`
	ActorID   string    `json:"actor_id"`
	TaskID    string    `json:"task_id,omitempty"`
	Meta      Meta      `json:"meta"`
	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt is refreshed on every merge; it is the timestamp shown to
	// users and the reference point for the dedupe window.
	UpdatedAt time.Time `json:"updated_at"`
}

// Page bounds a list query.
type Page struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// Clamp applies defaults and caps to the page bounds.
func (p Page) Clamp() Page {
	if p.Limit <= 0 {
		p.Limit = 50
	}
	if p.Limit > 200 {
		p.Limit = 200
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

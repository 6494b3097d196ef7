package service

import "github.com/corkboard/corkboard/internal/port/broadcast"

// Wire event type constants. Client→server types are handled by the ws
// adapter; server→client types are emitted through the broadcast router.
const (
	// client → server
	EventProjectJoin  = "project:join"
	EventProjectLeave = "project:leave"
	EventEditingStart = "editing:start"
	EventEditingStop  = "editing:stop"

	// server → client, presence (delivered to every room member, including
	// the actor's other connections)
	EventEditingActive   = "editing:active"
	EventEditingInactive = "editing:inactive"
	EventPresenceSync    = "presence:sync"

	// server → client, mutations (echo-suppressed per connection)
	EventTaskCreated   = "task:created"
	EventTaskUpdated   = "task:updated"
	EventTaskDeleted   = "task:deleted"
	EventTaskMoved     = "task:moved"
	EventTaskReordered = "task:reordered"

	EventColumnCreated   = "column:created"
	EventColumnUpdated   = "column:updated"
	EventColumnDeleted   = "column:deleted"
	EventColumnReordered = "column:reordered"

	EventCommentCreated = "comment:created"
	EventCommentUpdated = "comment:updated"
	EventCommentDeleted = "comment:deleted"

	EventAttachmentUploaded = "attachment:uploaded"
	EventAttachmentDeleted  = "attachment:deleted"

	EventProjectUpdated = "project:updated"
	EventProjectDeleted = "project:deleted"
)

// RoomUser identifies one distinct user present in a room.
type RoomUser struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// EditingActivePayload announces that a user started editing a task field.
type EditingActivePayload struct {
	TaskID string   `json:"taskId"`
	Field  string   `json:"field"`
	User   RoomUser `json:"user"`
}

// EditingInactivePayload announces that a user stopped editing a task field.
type EditingInactivePayload struct {
	TaskID string `json:"taskId"`
	Field  string `json:"field"`
	UserID string `json:"userId"`
}

// PresenceSyncPayload carries the full "who's here" set for a room, sent on
// every membership change so a fresh joiner never waits for incremental
// events.
type PresenceSyncPayload struct {
	ProjectID string     `json:"projectId"`
	Users     []RoomUser `json:"users"`
}

// EntityPayload wraps a created/updated entity with the actor envelope.
type EntityPayload struct {
	Task       any            `json:"task,omitempty"`
	Column     any            `json:"column,omitempty"`
	Comment    any            `json:"comment,omitempty"`
	Attachment any            `json:"attachment,omitempty"`
	Project    any            `json:"project,omitempty"`
	Meta       broadcast.Meta `json:"meta"`
}

// TaskDeletedPayload announces a task removal.
type TaskDeletedPayload struct {
	TaskID    string         `json:"taskId"`
	ColumnID  string         `json:"columnId"`
	ProjectID string         `json:"projectId"`
	Meta      broadcast.Meta `json:"meta"`
}

// TaskMovedPayload announces a cross-column task move.
type TaskMovedPayload struct {
	TaskID       string         `json:"taskId"`
	FromColumnID string         `json:"fromColumnId"`
	ToColumnID   string         `json:"toColumnId"`
	Order        int            `json:"order"`
	ProjectID    string         `json:"projectId"`
	Meta         broadcast.Meta `json:"meta"`
}

// TaskReorderedPayload announces a same-column task reorder.
type TaskReorderedPayload struct {
	TaskID    string         `json:"taskId"`
	ColumnID  string         `json:"columnId"`
	Order     int            `json:"order"`
	ProjectID string         `json:"projectId"`
	Meta      broadcast.Meta `json:"meta"`
}

// ColumnDeletedPayload announces a column removal.
type ColumnDeletedPayload struct {
	ColumnID  string         `json:"columnId"`
	ProjectID string         `json:"projectId"`
	Meta      broadcast.Meta `json:"meta"`
}

// ColumnReorderedPayload announces a column reorder.
type ColumnReorderedPayload struct {
	ColumnID  string         `json:"columnId"`
	Order     int            `json:"order"`
	ProjectID string         `json:"projectId"`
	Meta      broadcast.Meta `json:"meta"`
}

// EntityDeletedPayload announces removal of a comment or attachment.
type EntityDeletedPayload struct {
	ID        string         `json:"id"`
	TaskID    string         `json:"taskId"`
	ProjectID string         `json:"projectId"`
	Meta      broadcast.Meta `json:"meta"`
}

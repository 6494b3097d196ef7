package activity

// Meta is the typed payload attached to an Activity, keyed by action kind.
// At most one variant is set for known kinds; Raw is the forward-compatible
// catch-all for payloads this build does not model.
type Meta struct {
	Task       *TaskMeta       `json:"task,omitempty"`
	Move       *MoveMeta       `json:"move,omitempty"`
	Column     *ColumnMeta     `json:"column,omitempty"`
	Comment    *CommentMeta    `json:"comment,omitempty"`
	Attachment *AttachmentMeta `json:"attachment,omitempty"`
	Raw        map[string]any  `json:"raw,omitempty"`
}

// TaskMeta describes a task create/update. Nil fields were not touched by
// the recorded change.
type TaskMeta struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	AssigneeID  *string `json:"assignee_id,omitempty"`
}

// MoveMeta describes a task or column position change.
type MoveMeta struct {
	FromColumnID string `json:"from_column_id,omitempty"`
	ToColumnID   string `json:"to_column_id,omitempty"`
	FromOrder    int    `json:"from_order"`
	ToOrder      int    `json:"to_order"`
}

// ColumnMeta describes a column create/update.
type ColumnMeta struct {
	ColumnID string  `json:"column_id"`
	Name     *string `json:"name,omitempty"`
}

// CommentMeta describes a comment event.
type CommentMeta struct {
	CommentID string `json:"comment_id"`
	Preview   string `json:"preview,omitempty"`
}

// AttachmentMeta describes an attachment event.
type AttachmentMeta struct {
	AttachmentID string `json:"attachment_id"`
	Filename     string `json:"filename,omitempty"`
}

// Merge overlays newer on top of m and returns the result: set fields in
// newer win, fields present only in m are preserved. This is the shallow
// merge applied when a reducible action recurs inside the dedupe window.
func (m Meta) Merge(newer Meta) Meta {
	out := m
	if newer.Task != nil {
		out.Task = mergeTask(m.Task, newer.Task)
	}
	if newer.Move != nil {
		// Position changes always supersede: the latest move is the one
		// that describes current state.
		out.Move = newer.Move
	}
	if newer.Column != nil {
		out.Column = mergeColumn(m.Column, newer.Column)
	}
	if newer.Comment != nil {
		out.Comment = newer.Comment
	}
	if newer.Attachment != nil {
		out.Attachment = newer.Attachment
	}
	if len(newer.Raw) > 0 {
		out.Raw = mergeRaw(m.Raw, newer.Raw)
	}
	return out
}

func mergeTask(old, newer *TaskMeta) *TaskMeta {
	if old == nil {
		return newer
	}
	merged := *old
	if newer.Title != nil {
		merged.Title = newer.Title
	}
	if newer.Description != nil {
		merged.Description = newer.Description
	}
	if newer.AssigneeID != nil {
		merged.AssigneeID = newer.AssigneeID
	}
	return &merged
}

func mergeColumn(old, newer *ColumnMeta) *ColumnMeta {
	if old == nil {
		return newer
	}
	merged := *old
	merged.ColumnID = newer.ColumnID
	if newer.Name != nil {
		merged.Name = newer.Name
	}
	return &merged
}

func mergeRaw(old, newer map[string]any) map[string]any {
	merged := make(map[string]any, len(old)+len(newer))
	for k, v := range old {
		merged[k] = v
	}
	for k, v := range newer {
		merged[k] = v
	}
	return merged
}

package service

import (
	"context"
	"fmt"

	cbotel "github.com/corkboard/corkboard/internal/adapter/otel"
	"github.com/corkboard/corkboard/internal/domain/activity"
	"github.com/corkboard/corkboard/internal/domain/column"
	"github.com/corkboard/corkboard/internal/domain/task"
	"github.com/corkboard/corkboard/internal/port/database"
)

// BoardService handles column and task mutations. Every mutation follows
// the same completion sequence: commit through the store (via the ordering
// engine whenever positions change), record the activity asynchronously,
// then notify the project room minus the actor's connection.
type BoardService struct {
	store    database.Store
	ordering *OrderingEngine
	activity *ActivityLog
	router   *BroadcastRouter
	metrics  *cbotel.Metrics
}

// NewBoardService creates a new BoardService. metrics may be nil.
func NewBoardService(store database.Store, eng *OrderingEngine, log *ActivityLog, router *BroadcastRouter, metrics *cbotel.Metrics) *BoardService {
	return &BoardService{store: store, ordering: eng, activity: log, router: router, metrics: metrics}
}

// --- Columns ---

// ListColumns returns the project's columns in board order.
func (s *BoardService) ListColumns(ctx context.Context, projectID string) ([]column.Column, error) {
	return s.store.ListColumns(ctx, projectID)
}

// CreateColumn appends a column, or inserts it at req.Order when set.
func (s *BoardService) CreateColumn(ctx context.Context, projectID string, req column.CreateRequest, actorID, actorConnID string) (*column.Column, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("validate: %w", err)
	}
	if _, err := s.store.GetProject(ctx, projectID); err != nil {
		return nil, err
	}

	var (
		c   *column.Column
		err error
	)
	if req.Order == nil {
		c, err = s.ordering.AppendColumn(ctx, projectID, req.Name)
	} else {
		c, err = s.ordering.InsertColumn(ctx, projectID, req.Name, *req.Order)
	}
	if err != nil {
		return nil, err
	}

	s.activity.RecordAsync(ctx, activity.ActionColumnCreated, projectID, actorID, "", activity.Meta{
		Column: &activity.ColumnMeta{ColumnID: c.ID, Name: &c.Name},
	})
	s.router.Notify(ctx, EventColumnCreated, projectID, EntityPayload{
		Column: c,
		Meta:   s.router.NewMeta(actorID),
	}, actorConnID)
	return c, nil
}

// UpdateColumn renames a column.
func (s *BoardService) UpdateColumn(ctx context.Context, columnID string, req column.UpdateRequest, actorID, actorConnID string) (*column.Column, error) {
	c, err := s.store.GetColumn(ctx, columnID)
	if err != nil {
		return nil, err
	}
	c.Name = req.Name
	if err := s.store.UpdateColumn(ctx, c); err != nil {
		return nil, err
	}

	s.activity.RecordAsync(ctx, activity.ActionColumnUpdated, c.ProjectID, actorID, "", activity.Meta{
		Column: &activity.ColumnMeta{ColumnID: c.ID, Name: &c.Name},
	})
	s.router.Notify(ctx, EventColumnUpdated, c.ProjectID, EntityPayload{
		Column: c,
		Meta:   s.router.NewMeta(actorID),
	}, actorConnID)
	return c, nil
}

// ReorderColumn moves a column to a new index. Reordering a column to its
// current index is a no-op: nothing written, recorded or broadcast.
func (s *BoardService) ReorderColumn(ctx context.Context, columnID string, newOrder int, actorID, actorConnID string) (*column.Column, error) {
	c, changed, err := s.ordering.ReorderColumn(ctx, columnID, newOrder)
	if err != nil {
		return nil, err
	}
	if !changed {
		return c, nil
	}

	s.activity.RecordAsync(ctx, activity.ActionColumnReordered, c.ProjectID, actorID, "", activity.Meta{
		Column: &activity.ColumnMeta{ColumnID: c.ID},
		Move:   &activity.MoveMeta{ToOrder: c.Order},
	})
	s.router.Notify(ctx, EventColumnReordered, c.ProjectID, ColumnReorderedPayload{
		ColumnID:  c.ID,
		Order:     c.Order,
		ProjectID: c.ProjectID,
		Meta:      s.router.NewMeta(actorID),
	}, actorConnID)
	return c, nil
}

// DeleteColumn removes a column and its tasks.
func (s *BoardService) DeleteColumn(ctx context.Context, columnID, actorID, actorConnID string) error {
	c, err := s.ordering.DeleteColumn(ctx, columnID)
	if err != nil {
		return err
	}

	s.activity.RecordAsync(ctx, activity.ActionColumnDeleted, c.ProjectID, actorID, "", activity.Meta{
		Column: &activity.ColumnMeta{ColumnID: c.ID, Name: &c.Name},
	})
	s.router.Notify(ctx, EventColumnDeleted, c.ProjectID, ColumnDeletedPayload{
		ColumnID:  c.ID,
		ProjectID: c.ProjectID,
		Meta:      s.router.NewMeta(actorID),
	}, actorConnID)
	return nil
}

// --- Tasks ---

// ListTasks returns a column's tasks in order.
func (s *BoardService) ListTasks(ctx context.Context, columnID string) ([]task.Task, error) {
	return s.store.ListTasks(ctx, columnID)
}

// ListProjectTasks returns every task in the project, ordered by column
// then position, for a client rendering the full board.
func (s *BoardService) ListProjectTasks(ctx context.Context, projectID string) ([]task.Task, error) {
	return s.store.ListProjectTasks(ctx, projectID)
}

// GetTask returns a task by ID.
func (s *BoardService) GetTask(ctx context.Context, id string) (*task.Task, error) {
	return s.store.GetTask(ctx, id)
}

// CreateTask appends a task to the end of the column.
func (s *BoardService) CreateTask(ctx context.Context, columnID string, req task.CreateRequest, actorID, actorConnID string) (*task.Task, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("validate: %w", err)
	}

	t, err := s.ordering.AppendTask(ctx, columnID, req)
	if err != nil {
		return nil, err
	}

	s.activity.RecordAsync(ctx, activity.ActionTaskCreated, t.ProjectID, actorID, t.ID, activity.Meta{
		Task: &activity.TaskMeta{Title: &t.Title},
	})
	s.router.Notify(ctx, EventTaskCreated, t.ProjectID, EntityPayload{
		Task: t,
		Meta: s.router.NewMeta(actorID),
	}, actorConnID)
	return t, nil
}

// UpdateTask applies the non-positional field changes in req.
func (s *BoardService) UpdateTask(ctx context.Context, taskID string, req task.UpdateRequest, actorID, actorConnID string) (*task.Task, error) {
	t, err := s.store.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}

	meta := activity.TaskMeta{}
	if req.Title != nil {
		t.Title = *req.Title
		meta.Title = req.Title
	}
	if req.Description != nil {
		t.Description = *req.Description
		meta.Description = req.Description
	}
	if req.AssigneeID != nil {
		t.AssigneeID = *req.AssigneeID
		meta.AssigneeID = req.AssigneeID
	}
	if req.DueAt != nil {
		t.DueAt = req.DueAt
	}

	if err := s.store.UpdateTask(ctx, t); err != nil {
		return nil, err
	}

	s.activity.RecordAsync(ctx, activity.ActionTaskUpdated, t.ProjectID, actorID, t.ID, activity.Meta{Task: &meta})
	s.router.Notify(ctx, EventTaskUpdated, t.ProjectID, EntityPayload{
		Task: t,
		Meta: s.router.NewMeta(actorID),
	}, actorConnID)
	return t, nil
}

// MoveTask relocates a task to a target column and index. Moving a task to
// its current (column, order) is a no-op: no rows change, no activity, no
// broadcast.
func (s *BoardService) MoveTask(ctx context.Context, taskID string, req task.MoveRequest, actorID, actorConnID string) (*task.Task, error) {
	before, err := s.store.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	fromColumnID, fromOrder := before.ColumnID, before.Order

	ctx, span := cbotel.StartMoveSpan(ctx, taskID, req.ColumnID, req.Order)
	defer span.End()

	t, changed, err := s.ordering.MoveTask(ctx, taskID, req.ColumnID, req.Order)
	if err != nil {
		return nil, err
	}
	if !changed {
		return t, nil
	}
	if s.metrics != nil {
		s.metrics.TasksMoved.Add(ctx, 1)
	}

	move := &activity.MoveMeta{
		FromColumnID: fromColumnID,
		ToColumnID:   t.ColumnID,
		FromOrder:    fromOrder,
		ToOrder:      t.Order,
	}

	if fromColumnID == t.ColumnID {
		s.activity.RecordAsync(ctx, activity.ActionTaskReordered, t.ProjectID, actorID, t.ID, activity.Meta{Move: move})
		s.router.Notify(ctx, EventTaskReordered, t.ProjectID, TaskReorderedPayload{
			TaskID:    t.ID,
			ColumnID:  t.ColumnID,
			Order:     t.Order,
			ProjectID: t.ProjectID,
			Meta:      s.router.NewMeta(actorID),
		}, actorConnID)
		return t, nil
	}

	s.activity.RecordAsync(ctx, activity.ActionTaskMoved, t.ProjectID, actorID, t.ID, activity.Meta{Move: move})
	s.router.Notify(ctx, EventTaskMoved, t.ProjectID, TaskMovedPayload{
		TaskID:       t.ID,
		FromColumnID: fromColumnID,
		ToColumnID:   t.ColumnID,
		Order:        t.Order,
		ProjectID:    t.ProjectID,
		Meta:         s.router.NewMeta(actorID),
	}, actorConnID)
	return t, nil
}

// ReorderTask moves a task within its current column.
func (s *BoardService) ReorderTask(ctx context.Context, taskID string, newOrder int, actorID, actorConnID string) (*task.Task, error) {
	t, err := s.store.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	return s.MoveTask(ctx, taskID, task.MoveRequest{ColumnID: t.ColumnID, Order: newOrder}, actorID, actorConnID)
}

// DeleteTask removes a task.
func (s *BoardService) DeleteTask(ctx context.Context, taskID, actorID, actorConnID string) error {
	t, err := s.ordering.DeleteTask(ctx, taskID)
	if err != nil {
		return err
	}

	s.activity.RecordAsync(ctx, activity.ActionTaskDeleted, t.ProjectID, actorID, t.ID, activity.Meta{
		Task: &activity.TaskMeta{Title: &t.Title},
	})
	s.router.Notify(ctx, EventTaskDeleted, t.ProjectID, TaskDeletedPayload{
		TaskID:    t.ID,
		ColumnID:  t.ColumnID,
		ProjectID: t.ProjectID,
		Meta:      s.router.NewMeta(actorID),
	}, actorConnID)
	return nil
}

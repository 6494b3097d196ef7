package service

import (
	"context"
	"fmt"

	"github.com/corkboard/corkboard/internal/domain/activity"
	"github.com/corkboard/corkboard/internal/domain/comment"
	"github.com/corkboard/corkboard/internal/port/database"
)

// CommentService handles task comments.
type CommentService struct {
	store    database.Store
	activity *ActivityLog
	router   *BroadcastRouter
}

// NewCommentService creates a new CommentService.
func NewCommentService(store database.Store, log *ActivityLog, router *BroadcastRouter) *CommentService {
	return &CommentService{store: store, activity: log, router: router}
}

// List returns a task's comments.
func (s *CommentService) List(ctx context.Context, taskID string) ([]comment.Comment, error) {
	return s.store.ListComments(ctx, taskID)
}

// Create adds a comment to a task.
func (s *CommentService) Create(ctx context.Context, taskID string, req comment.CreateRequest, actorID, actorConnID string) (*comment.Comment, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("validate: %w", err)
	}
	t, err := s.store.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}

	c, err := s.store.CreateComment(ctx, t.ProjectID, taskID, actorID, req)
	if err != nil {
		return nil, err
	}

	s.activity.RecordAsync(ctx, activity.ActionCommentCreated, t.ProjectID, actorID, taskID, activity.Meta{
		Comment: &activity.CommentMeta{CommentID: c.ID, Preview: preview(c.Body)},
	})
	s.router.Notify(ctx, EventCommentCreated, t.ProjectID, EntityPayload{
		Comment: c,
		Meta:    s.router.NewMeta(actorID),
	}, actorConnID)
	return c, nil
}

// Update edits a comment body.
func (s *CommentService) Update(ctx context.Context, id string, req comment.UpdateRequest, actorID, actorConnID string) (*comment.Comment, error) {
	c, err := s.store.GetComment(ctx, id)
	if err != nil {
		return nil, err
	}
	c.Body = req.Body
	if err := s.store.UpdateComment(ctx, c); err != nil {
		return nil, err
	}

	s.activity.RecordAsync(ctx, activity.ActionCommentUpdated, c.ProjectID, actorID, c.TaskID, activity.Meta{
		Comment: &activity.CommentMeta{CommentID: c.ID, Preview: preview(c.Body)},
	})
	s.router.Notify(ctx, EventCommentUpdated, c.ProjectID, EntityPayload{
		Comment: c,
		Meta:    s.router.NewMeta(actorID),
	}, actorConnID)
	return c, nil
}

// Delete removes a comment.
func (s *CommentService) Delete(ctx context.Context, id, actorID, actorConnID string) error {
	c, err := s.store.GetComment(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteComment(ctx, id); err != nil {
		return err
	}

	s.activity.RecordAsync(ctx, activity.ActionCommentDeleted, c.ProjectID, actorID, c.TaskID, activity.Meta{
		Comment: &activity.CommentMeta{CommentID: c.ID},
	})
	s.router.Notify(ctx, EventCommentDeleted, c.ProjectID, EntityDeletedPayload{
		ID:        c.ID,
		TaskID:    c.TaskID,
		ProjectID: c.ProjectID,
		Meta:      s.router.NewMeta(actorID),
	}, actorConnID)
	return nil
}

// preview truncates a comment body for activity metadata.
func preview(body string) string {
	const max = 120
	if len(body) <= max {
		return body
	}
	return body[:max]
}

package service

import (
	"context"
	"fmt"

	"github.com/corkboard/corkboard/internal/domain/activity"
	"github.com/corkboard/corkboard/internal/domain/attachment"
	"github.com/corkboard/corkboard/internal/port/database"
)

// AttachmentService tracks file attachments on tasks. The bytes live
// elsewhere; this service owns only the metadata rows and the resulting
// activity and broadcast traffic.
type AttachmentService struct {
	store    database.Store
	activity *ActivityLog
	router   *BroadcastRouter
}

// NewAttachmentService creates a new AttachmentService.
func NewAttachmentService(store database.Store, log *ActivityLog, router *BroadcastRouter) *AttachmentService {
	return &AttachmentService{store: store, activity: log, router: router}
}

// List returns a task's attachments.
func (s *AttachmentService) List(ctx context.Context, taskID string) ([]attachment.Attachment, error) {
	return s.store.ListAttachments(ctx, taskID)
}

// Register records an uploaded attachment against a task.
func (s *AttachmentService) Register(ctx context.Context, taskID string, req attachment.CreateRequest, actorID, actorConnID string) (*attachment.Attachment, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("validate: %w", err)
	}
	t, err := s.store.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}

	a, err := s.store.CreateAttachment(ctx, t.ProjectID, taskID, actorID, req)
	if err != nil {
		return nil, err
	}

	s.activity.RecordAsync(ctx, activity.ActionAttachmentUploaded, t.ProjectID, actorID, taskID, activity.Meta{
		Attachment: &activity.AttachmentMeta{AttachmentID: a.ID, Filename: a.Filename},
	})
	s.router.Notify(ctx, EventAttachmentUploaded, t.ProjectID, EntityPayload{
		Attachment: a,
		Meta:       s.router.NewMeta(actorID),
	}, actorConnID)
	return a, nil
}

// Delete removes an attachment record.
func (s *AttachmentService) Delete(ctx context.Context, id, actorID, actorConnID string) error {
	a, err := s.store.GetAttachment(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteAttachment(ctx, id); err != nil {
		return err
	}

	s.activity.RecordAsync(ctx, activity.ActionAttachmentDeleted, a.ProjectID, actorID, a.TaskID, activity.Meta{
		Attachment: &activity.AttachmentMeta{AttachmentID: a.ID, Filename: a.Filename},
	})
	s.router.Notify(ctx, EventAttachmentDeleted, a.ProjectID, EntityDeletedPayload{
		ID:        a.ID,
		TaskID:    a.TaskID,
		ProjectID: a.ProjectID,
		Meta:      s.router.NewMeta(actorID),
	}, actorConnID)
	return nil
}

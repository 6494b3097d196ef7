package service

import (
	"context"
	"fmt"

	"github.com/corkboard/corkboard/internal/domain/activity"
	"github.com/corkboard/corkboard/internal/domain/project"
	"github.com/corkboard/corkboard/internal/domain/user"
	"github.com/corkboard/corkboard/internal/port/database"
)

// ProjectService handles project CRUD and the mutation-completion hooks
// that feed the activity log and the broadcast router.
type ProjectService struct {
	store    database.Store
	activity *ActivityLog
	router   *BroadcastRouter
}

// NewProjectService creates a new ProjectService.
func NewProjectService(store database.Store, log *ActivityLog, router *BroadcastRouter) *ProjectService {
	return &ProjectService{store: store, activity: log, router: router}
}

// List returns the projects visible to the user.
func (s *ProjectService) List(ctx context.Context, userID string) ([]project.Project, error) {
	return s.store.ListProjects(ctx, userID)
}

// Get returns a project by ID.
func (s *ProjectService) Get(ctx context.Context, id string) (*project.Project, error) {
	return s.store.GetProject(ctx, id)
}

// Stats returns per-column task counts for the project overview.
func (s *ProjectService) Stats(ctx context.Context, id string) (*project.Stats, error) {
	return s.store.ProjectStats(ctx, id)
}

// Create creates a project owned by the actor.
func (s *ProjectService) Create(ctx context.Context, actorID string, req project.CreateRequest) (*project.Project, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("validate: %w", err)
	}

	p, err := s.store.CreateProject(ctx, actorID, req)
	if err != nil {
		return nil, err
	}

	s.activity.RecordAsync(ctx, activity.ActionProjectCreated, p.ID, actorID, "", activity.Meta{
		Raw: map[string]any{"name": p.Name},
	})
	return p, nil
}

// Update renames a project and notifies the room.
func (s *ProjectService) Update(ctx context.Context, id string, req project.UpdateRequest, actorID, actorConnID string) (*project.Project, error) {
	p, err := s.store.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Name = req.Name
	if err := s.store.UpdateProject(ctx, p); err != nil {
		return nil, err
	}

	s.activity.RecordAsync(ctx, activity.ActionProjectUpdated, p.ID, actorID, "", activity.Meta{
		Raw: map[string]any{"name": p.Name},
	})
	s.router.Notify(ctx, EventProjectUpdated, p.ID, EntityPayload{
		Project: p,
		Meta:    s.router.NewMeta(actorID),
	}, actorConnID)
	return p, nil
}

// AddMember grants a user access to the project.
func (s *ProjectService) AddMember(ctx context.Context, projectID, userID, actorID string) error {
	if _, err := s.store.GetUser(ctx, userID); err != nil {
		return fmt.Errorf("add member: %w", err)
	}
	if err := s.store.AddProjectMember(ctx, projectID, userID); err != nil {
		return err
	}
	s.activity.RecordAsync(ctx, activity.ActionProjectUpdated, projectID, actorID, "", activity.Meta{
		Raw: map[string]any{"member_added": userID},
	})
	return nil
}

// RemoveMember revokes a user's access to the project.
func (s *ProjectService) RemoveMember(ctx context.Context, projectID, userID, actorID string) error {
	if err := s.store.RemoveProjectMember(ctx, projectID, userID); err != nil {
		return err
	}
	s.activity.RecordAsync(ctx, activity.ActionProjectUpdated, projectID, actorID, "", activity.Meta{
		Raw: map[string]any{"member_removed": userID},
	})
	return nil
}

// Members lists the project's members.
func (s *ProjectService) Members(ctx context.Context, projectID string) ([]user.Public, error) {
	return s.store.ListProjectMembers(ctx, projectID)
}

// Delete soft-deletes a project and notifies the room.
func (s *ProjectService) Delete(ctx context.Context, id, actorID, actorConnID string) error {
	if err := s.store.SoftDeleteProject(ctx, id); err != nil {
		return err
	}

	s.activity.RecordAsync(ctx, activity.ActionProjectDeleted, id, actorID, "", activity.Meta{})
	s.router.Notify(ctx, EventProjectDeleted, id, EntityDeletedPayload{
		ID:        id,
		ProjectID: id,
		Meta:      s.router.NewMeta(actorID),
	}, actorConnID)
	return nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/corkboard/corkboard/internal/domain"
	"github.com/corkboard/corkboard/internal/domain/activity"
	"github.com/corkboard/corkboard/internal/port/cache"
	"github.com/corkboard/corkboard/internal/port/database"
)

// ActivityLog records user-visible events with time-windowed deduplication.
//
// A reducible action recurring for the same (action, project, actor, task)
// tuple inside the trailing dedupe window merges into the existing entry
// (metadata shallow-merged, timestamp refreshed) instead of creating a new
// row. A burst of autosaves collapses to one "updated" entry; the same edit
// after the window lapses starts a fresh one.
//
// The lookup-then-write is a tolerated race: two near-simultaneous edits can
// both miss each other's insert and produce one extra row. Worst case is a
// duplicate audit line, which is not worth serializing every edit for.
type ActivityLog struct {
	store     database.Store
	access    cache.Cache
	window    time.Duration
	accessTTL time.Duration
	now       func() time.Time
}

// NewActivityLog creates the activity log. The cache memoizes project-access
// checks in front of the store for the list methods.
func NewActivityLog(store database.Store, access cache.Cache, window, accessTTL time.Duration) *ActivityLog {
	return &ActivityLog{
		store:     store,
		access:    access,
		window:    window,
		accessTTL: accessTTL,
		now:       time.Now,
	}
}

// Record stores (or merges) an activity entry and returns the stored form.
// taskID may be empty for project-level actions.
func (l *ActivityLog) Record(ctx context.Context, action activity.Action, projectID, actorID, taskID string, meta activity.Meta) (*activity.Activity, error) {
	now := l.now()

	if action.Reducible() && l.window > 0 {
		recent, err := l.store.FindRecentActivity(ctx, action, projectID, actorID, taskID, now.Add(-l.window))
		switch {
		case err == nil:
			merged := recent.Meta.Merge(meta)
			if err := l.store.RefreshActivity(ctx, recent.ID, merged, now); err != nil {
				return nil, fmt.Errorf("refresh activity: %w", err)
			}
			recent.Meta = merged
			recent.UpdatedAt = now
			return recent, nil
		case errors.Is(err, domain.ErrNotFound):
			// No open entry in the window; fall through to insert.
		default:
			return nil, fmt.Errorf("find recent activity: %w", err)
		}
	}

	a := &activity.Activity{
		ID:        uuid.NewString(),
		Action:    action,
		ProjectID: projectID,
		ActorID:   actorID,
		TaskID:    taskID,
		Meta:      meta,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := l.store.CreateActivity(ctx, a); err != nil {
		return nil, fmt.Errorf("create activity: %w", err)
	}
	return a, nil
}

// RecordAsync is the fire-and-forget variant: the write happens on a
// detached goroutine and failures are logged, never propagated, because
// activity logging must not abort the mutation it describes.
func (l *ActivityLog) RecordAsync(ctx context.Context, action activity.Action, projectID, actorID, taskID string, meta activity.Meta) {
	ctx = context.WithoutCancel(ctx)
	go func() {
		if _, err := l.Record(ctx, action, projectID, actorID, taskID, meta); err != nil {
			slog.Error("record activity",
				"action", action,
				"project_id", projectID,
				"actor_id", actorID,
				"error", err,
			)
		}
	}()
}

// ListForProject returns the project's activities newest-first, optionally
// filtered to one actor. Returns domain.ErrNoAccess when viewerID may not
// view the project, so callers can answer 404 without leaking existence.
func (l *ActivityLog) ListForProject(ctx context.Context, projectID, viewerID, actorScope string, page activity.Page) ([]activity.Activity, error) {
	ok, err := l.hasAccess(ctx, projectID, viewerID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrNoAccess
	}
	return l.store.ListProjectActivities(ctx, projectID, actorScope, page.Clamp())
}

// ListForTask returns the task's activities newest-first, gated by access to
// the task's project.
func (l *ActivityLog) ListForTask(ctx context.Context, taskID, viewerID string, page activity.Page) ([]activity.Activity, error) {
	t, err := l.store.GetTask(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("list task activities: %w", err)
	}
	ok, err := l.hasAccess(ctx, t.ProjectID, viewerID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrNoAccess
	}
	return l.store.ListTaskActivities(ctx, taskID, page.Clamp())
}

// ListForActor returns an actor's own activities newest-first. Viewers may
// only read their own trail.
func (l *ActivityLog) ListForActor(ctx context.Context, actorID, viewerID string, page activity.Page) ([]activity.Activity, error) {
	if actorID != viewerID {
		return nil, domain.ErrNoAccess
	}
	return l.store.ListActorActivities(ctx, actorID, page.Clamp())
}

// hasAccess memoizes store.HasProjectAccess for a short TTL. Negative
// results are cached too: probing a forbidden project repeatedly should not
// hammer the store.
func (l *ActivityLog) hasAccess(ctx context.Context, projectID, userID string) (bool, error) {
	key := "access:" + projectID + ":" + userID
	if l.access != nil {
		if v, ok, err := l.access.Get(ctx, key); err == nil && ok && len(v) == 1 {
			return v[0] == 1, nil
		}
	}

	ok, err := l.store.HasProjectAccess(ctx, projectID, userID)
	if err != nil {
		return false, fmt.Errorf("check project access: %w", err)
	}

	if l.access != nil {
		v := []byte{0}
		if ok {
			v[0] = 1
		}
		if err := l.access.Set(ctx, key, v, l.accessTTL); err != nil {
			slog.Debug("cache project access", "error", err)
		}
	}
	return ok, nil
}

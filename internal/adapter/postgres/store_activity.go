package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/corkboard/corkboard/internal/domain/activity"
)

const activityCols = `id, action, project_id, actor_id, task_id, meta, created_at, updated_at`

func scanActivity(row scannable) (activity.Activity, error) {
	var a activity.Activity
	var taskID *string
	var metaJSON []byte
	err := row.Scan(&a.ID, &a.Action, &a.ProjectID, &a.ActorID, &taskID, &metaJSON, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return a, err
	}
	if taskID != nil {
		a.TaskID = *taskID
	}
	if len(metaJSON) > 0 {
		if err := json.Unmarshal(metaJSON, &a.Meta); err != nil {
			return a, fmt.Errorf("unmarshal activity meta: %w", err)
		}
	}
	return a, nil
}

func (s *Store) CreateActivity(ctx context.Context, a *activity.Activity) error {
	metaJSON, err := json.Marshal(a.Meta)
	if err != nil {
		return fmt.Errorf("marshal activity meta: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO activities (id, action, project_id, actor_id, task_id, meta, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		a.ID, a.Action, a.ProjectID, a.ActorID, nullIfEmpty(a.TaskID), metaJSON, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create activity: %w", err)
	}
	return nil
}

func (s *Store) FindRecentActivity(ctx context.Context, action activity.Action, projectID, actorID, taskID string, since time.Time) (*activity.Activity, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+activityCols+` FROM activities
		 WHERE action = $1 AND project_id = $2 AND actor_id = $3
		   AND task_id IS NOT DISTINCT FROM $4
		   AND updated_at > $5
		 ORDER BY updated_at DESC
		 LIMIT 1`,
		action, projectID, actorID, nullIfEmpty(taskID), since)

	a, err := scanActivity(row)
	if err != nil {
		return nil, notFoundWrap(err, "find recent activity %s", action)
	}
	return &a, nil
}

func (s *Store) RefreshActivity(ctx context.Context, id string, meta activity.Meta, at time.Time) error {
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("marshal activity meta: %w", err)
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE activities SET meta = $2, updated_at = $3 WHERE id = $1`, id, metaJSON, at)
	return execExpectOne(tag, err, "refresh activity %s", id)
}

func (s *Store) ListProjectActivities(ctx context.Context, projectID, actorID string, page activity.Page) ([]activity.Activity, error) {
	if actorID != "" {
		return s.queryActivities(ctx,
			`SELECT `+activityCols+` FROM activities
			 WHERE project_id = $1 AND actor_id = $2
			 ORDER BY updated_at DESC LIMIT $3 OFFSET $4`,
			projectID, actorID, page.Limit, page.Offset)
	}
	return s.queryActivities(ctx,
		`SELECT `+activityCols+` FROM activities
		 WHERE project_id = $1
		 ORDER BY updated_at DESC LIMIT $2 OFFSET $3`,
		projectID, page.Limit, page.Offset)
}

func (s *Store) ListTaskActivities(ctx context.Context, taskID string, page activity.Page) ([]activity.Activity, error) {
	return s.queryActivities(ctx,
		`SELECT `+activityCols+` FROM activities
		 WHERE task_id = $1
		 ORDER BY updated_at DESC LIMIT $2 OFFSET $3`,
		taskID, page.Limit, page.Offset)
}

func (s *Store) ListActorActivities(ctx context.Context, actorID string, page activity.Page) ([]activity.Activity, error) {
	return s.queryActivities(ctx,
		`SELECT `+activityCols+` FROM activities
		 WHERE actor_id = $1
		 ORDER BY updated_at DESC LIMIT $2 OFFSET $3`,
		actorID, page.Limit, page.Offset)
}

func (s *Store) queryActivities(ctx context.Context, sql string, args ...any) ([]activity.Activity, error) {
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	defer rows.Close()

	var activities []activity.Activity
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		activities = append(activities, a)
	}
	return orEmpty(activities), rows.Err()
}

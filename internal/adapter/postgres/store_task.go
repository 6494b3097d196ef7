package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/corkboard/corkboard/internal/domain/task"
)

const taskCols = `id, project_id, column_id, title, description, sort_order, assignee_id, due_at, created_at, updated_at`

func scanTask(row scannable) (task.Task, error) {
	var t task.Task
	var description, assigneeID *string
	err := row.Scan(&t.ID, &t.ProjectID, &t.ColumnID, &t.Title, &description,
		&t.Order, &assigneeID, &t.DueAt, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return t, err
	}
	if description != nil {
		t.Description = *description
	}
	if assigneeID != nil {
		t.AssigneeID = *assigneeID
	}
	return t, nil
}

func (s *Store) ListTasks(ctx context.Context, columnID string) ([]task.Task, error) {
	return s.queryTasks(ctx,
		`SELECT `+taskCols+` FROM tasks WHERE column_id = $1 ORDER BY sort_order`, columnID)
}

func (s *Store) ListProjectTasks(ctx context.Context, projectID string) ([]task.Task, error) {
	return s.queryTasks(ctx,
		`SELECT `+taskCols+` FROM tasks WHERE project_id = $1 ORDER BY column_id, sort_order`, projectID)
}

func (s *Store) queryTasks(ctx context.Context, sql string, args ...any) ([]task.Task, error) {
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []task.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	return orEmpty(tasks), rows.Err()
}

func (s *Store) GetTask(ctx context.Context, id string) (*task.Task, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+taskCols+` FROM tasks WHERE id = $1`, id)
	t, err := scanTask(row)
	if err != nil {
		return nil, notFoundWrap(err, "get task %s", id)
	}
	return &t, nil
}

func (s *Store) TaskOrders(ctx context.Context, columnID string) ([]int, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT sort_order FROM tasks WHERE column_id = $1 ORDER BY sort_order`, columnID)
	if err != nil {
		return nil, fmt.Errorf("task orders %s: %w", columnID, err)
	}
	defer rows.Close()

	var orders []int
	for rows.Next() {
		var o int
		if err := rows.Scan(&o); err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// CreateTaskAt inserts a task at the given index in the column, shifting
// siblings at or after it up by one.
func (s *Store) CreateTaskAt(ctx context.Context, projectID, columnID string, req task.CreateRequest, order int) (*task.Task, error) {
	var t task.Task
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`UPDATE tasks SET sort_order = sort_order + 1, updated_at = now()
			 WHERE column_id = $1 AND sort_order >= $2`, columnID, order)
		if err != nil {
			return fmt.Errorf("shift tasks: %w", err)
		}

		row := tx.QueryRow(ctx,
			`INSERT INTO tasks (project_id, column_id, title, description, sort_order, assignee_id, due_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)
			 RETURNING `+taskCols,
			projectID, columnID, req.Title, nullIfEmpty(req.Description), order,
			nullIfEmpty(req.AssigneeID), nullTime(req.DueAt))
		if t, err = scanTask(row); err != nil {
			return fmt.Errorf("create task: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *Store) UpdateTask(ctx context.Context, t *task.Task) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE tasks SET title = $2, description = $3, assignee_id = $4, due_at = $5, updated_at = now()
		 WHERE id = $1`,
		t.ID, t.Title, nullIfEmpty(t.Description), nullIfEmpty(t.AssigneeID), nullTime(t.DueAt))
	return execExpectOne(tag, err, "update task %s", t.ID)
}

// MoveTask relocates a task between positions, possibly across columns.
// The vacated source index closes and the target index opens in one
// transaction, so both columns stay dense.
func (s *Store) MoveTask(ctx context.Context, taskID, fromColumnID, toColumnID string, fromOrder, toOrder int) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		var found bool
		err := tx.QueryRow(ctx,
			`SELECT true FROM tasks WHERE id = $1 AND column_id = $2 AND sort_order = $3 FOR UPDATE`,
			taskID, fromColumnID, fromOrder).Scan(&found)
		if err != nil {
			return notFoundWrap(err, "move task %s", taskID)
		}

		if fromColumnID == toColumnID {
			if toOrder > fromOrder {
				_, err = tx.Exec(ctx,
					`UPDATE tasks SET sort_order = sort_order - 1, updated_at = now()
					 WHERE column_id = $1 AND sort_order > $2 AND sort_order <= $3 AND id <> $4`,
					fromColumnID, fromOrder, toOrder, taskID)
			} else {
				_, err = tx.Exec(ctx,
					`UPDATE tasks SET sort_order = sort_order + 1, updated_at = now()
					 WHERE column_id = $1 AND sort_order >= $2 AND sort_order < $3 AND id <> $4`,
					fromColumnID, toOrder, fromOrder, taskID)
			}
			if err != nil {
				return fmt.Errorf("shift tasks: %w", err)
			}
		} else {
			_, err = tx.Exec(ctx,
				`UPDATE tasks SET sort_order = sort_order - 1, updated_at = now()
				 WHERE column_id = $1 AND sort_order > $2`, fromColumnID, fromOrder)
			if err != nil {
				return fmt.Errorf("close source gap: %w", err)
			}
			_, err = tx.Exec(ctx,
				`UPDATE tasks SET sort_order = sort_order + 1, updated_at = now()
				 WHERE column_id = $1 AND sort_order >= $2`, toColumnID, toOrder)
			if err != nil {
				return fmt.Errorf("open target gap: %w", err)
			}
		}

		tag, err := tx.Exec(ctx,
			`UPDATE tasks SET column_id = $2, sort_order = $3, updated_at = now() WHERE id = $1`,
			taskID, toColumnID, toOrder)
		return execExpectOne(tag, err, "move task %s", taskID)
	})
}

// RemoveTask deletes a task and closes the gap in its column.
func (s *Store) RemoveTask(ctx context.Context, taskID string) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		var columnID string
		var order int
		err := tx.QueryRow(ctx,
			`SELECT column_id, sort_order FROM tasks WHERE id = $1 FOR UPDATE`,
			taskID).Scan(&columnID, &order)
		if err != nil {
			return notFoundWrap(err, "remove task %s", taskID)
		}

		tag, err := tx.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, taskID)
		if err := execExpectOne(tag, err, "remove task %s", taskID); err != nil {
			return err
		}

		_, err = tx.Exec(ctx,
			`UPDATE tasks SET sort_order = sort_order - 1, updated_at = now()
			 WHERE column_id = $1 AND sort_order > $2`, columnID, order)
		if err != nil {
			return fmt.Errorf("close task gap: %w", err)
		}
		return nil
	})
}

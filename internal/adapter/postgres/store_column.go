package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/corkboard/corkboard/internal/domain/column"
)

const columnCols = `id, project_id, name, sort_order, created_at, updated_at`

func scanColumn(row scannable) (column.Column, error) {
	var c column.Column
	err := row.Scan(&c.ID, &c.ProjectID, &c.Name, &c.Order, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func (s *Store) ListColumns(ctx context.Context, projectID string) ([]column.Column, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+columnCols+` FROM columns WHERE project_id = $1 ORDER BY sort_order`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list columns: %w", err)
	}
	defer rows.Close()

	var columns []column.Column
	for rows.Next() {
		c, err := scanColumn(rows)
		if err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		columns = append(columns, c)
	}
	return orEmpty(columns), rows.Err()
}

func (s *Store) GetColumn(ctx context.Context, id string) (*column.Column, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+columnCols+` FROM columns WHERE id = $1`, id)
	c, err := scanColumn(row)
	if err != nil {
		return nil, notFoundWrap(err, "get column %s", id)
	}
	return &c, nil
}

func (s *Store) ColumnOrders(ctx context.Context, projectID string) ([]int, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT sort_order FROM columns WHERE project_id = $1 ORDER BY sort_order`, projectID)
	if err != nil {
		return nil, fmt.Errorf("column orders %s: %w", projectID, err)
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

// CreateColumnAt inserts a column at the given index, shifting siblings at
// or after it up by one. The unique (project_id, sort_order) constraint is
// deferred so the shift and the insert settle together at commit.
func (s *Store) CreateColumnAt(ctx context.Context, projectID, name string, order int) (*column.Column, error) {
	var c column.Column
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`UPDATE columns SET sort_order = sort_order + 1, updated_at = now()
			 WHERE project_id = $1 AND sort_order >= $2`, projectID, order)
		if err != nil {
			return fmt.Errorf("shift columns: %w", err)
		}

		row := tx.QueryRow(ctx,
			`INSERT INTO columns (project_id, name, sort_order) VALUES ($1, $2, $3)
			 RETURNING `+columnCols, projectID, name, order)
		if c, err = scanColumn(row); err != nil {
			return fmt.Errorf("create column: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Store) UpdateColumn(ctx context.Context, c *column.Column) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE columns SET name = $2, updated_at = now() WHERE id = $1`, c.ID, c.Name)
	return execExpectOne(tag, err, "update column %s", c.ID)
}

// MoveColumn relocates a column from one index to another, closing the gap
// it left and opening one at the target.
func (s *Store) MoveColumn(ctx context.Context, columnID string, fromOrder, toOrder int) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		var projectID string
		err := tx.QueryRow(ctx,
			`SELECT project_id FROM columns WHERE id = $1 AND sort_order = $2 FOR UPDATE`,
			columnID, fromOrder).Scan(&projectID)
		if err != nil {
			return notFoundWrap(err, "move column %s", columnID)
		}

		if toOrder > fromOrder {
			_, err = tx.Exec(ctx,
				`UPDATE columns SET sort_order = sort_order - 1, updated_at = now()
				 WHERE project_id = $1 AND sort_order > $2 AND sort_order <= $3 AND id <> $4`,
				projectID, fromOrder, toOrder, columnID)
		} else {
			_, err = tx.Exec(ctx,
				`UPDATE columns SET sort_order = sort_order + 1, updated_at = now()
				 WHERE project_id = $1 AND sort_order >= $2 AND sort_order < $3 AND id <> $4`,
				projectID, toOrder, fromOrder, columnID)
		}
		if err != nil {
			return fmt.Errorf("shift columns: %w", err)
		}

		tag, err := tx.Exec(ctx,
			`UPDATE columns SET sort_order = $2, updated_at = now() WHERE id = $1`, columnID, toOrder)
		return execExpectOne(tag, err, "move column %s", columnID)
	})
}

// RemoveColumn deletes a column with all its tasks (FK cascade) and closes
// the gap in its project's column sequence.
func (s *Store) RemoveColumn(ctx context.Context, columnID string) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		var projectID string
		var order int
		err := tx.QueryRow(ctx,
			`SELECT project_id, sort_order FROM columns WHERE id = $1 FOR UPDATE`,
			columnID).Scan(&projectID, &order)
		if err != nil {
			return notFoundWrap(err, "remove column %s", columnID)
		}

		tag, err := tx.Exec(ctx, `DELETE FROM columns WHERE id = $1`, columnID)
		if err := execExpectOne(tag, err, "remove column %s", columnID); err != nil {
			return err
		}

		_, err = tx.Exec(ctx,
			`UPDATE columns SET sort_order = sort_order - 1, updated_at = now()
			 WHERE project_id = $1 AND sort_order > $2`, projectID, order)
		if err != nil {
			return fmt.Errorf("close column gap: %w", err)
		}
		return nil
	})
}

package postgres

import (
	"context"
	"fmt"

	"github.com/corkboard/corkboard/internal/domain/comment"
)

const commentCols = `id, task_id, project_id, author_id, body, created_at, updated_at`

func scanComment(row scannable) (comment.Comment, error) {
	var c comment.Comment
	err := row.Scan(&c.ID, &c.TaskID, &c.ProjectID, &c.AuthorID, &c.Body, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func (s *Store) ListComments(ctx context.Context, taskID string) ([]comment.Comment, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+commentCols+` FROM comments WHERE task_id = $1 ORDER BY created_at`, taskID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	var comments []comment.Comment
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		comments = append(comments, c)
	}
	return orEmpty(comments), rows.Err()
}

func (s *Store) GetComment(ctx context.Context, id string) (*comment.Comment, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+commentCols+` FROM comments WHERE id = $1`, id)
	c, err := scanComment(row)
	if err != nil {
		return nil, notFoundWrap(err, "get comment %s", id)
	}
	return &c, nil
}

func (s *Store) CreateComment(ctx context.Context, projectID, taskID, authorID string, req comment.CreateRequest) (*comment.Comment, error) {
	row := s.pool.QueryRow(ctx,
		`INSERT INTO comments (task_id, project_id, author_id, body)
		 VALUES ($1, $2, $3, $4)
		 RETURNING `+commentCols,
		taskID, projectID, authorID, req.Body)
	c, err := scanComment(row)
	if err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	return &c, nil
}

func (s *Store) UpdateComment(ctx context.Context, c *comment.Comment) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE comments SET body = $2, updated_at = now() WHERE id = $1`, c.ID, c.Body)
	return execExpectOne(tag, err, "update comment %s", c.ID)
}

func (s *Store) DeleteComment(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM comments WHERE id = $1`, id)
	return execExpectOne(tag, err, "delete comment %s", id)
}

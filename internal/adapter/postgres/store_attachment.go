package postgres

import (
	"context"
	"fmt"

	"github.com/corkboard/corkboard/internal/domain/attachment"
)

const attachmentCols = `id, task_id, project_id, uploader_id, filename, mime_type, size_bytes, url, created_at`

func scanAttachment(row scannable) (attachment.Attachment, error) {
	var a attachment.Attachment
	var mimeType *string
	err := row.Scan(&a.ID, &a.TaskID, &a.ProjectID, &a.UploaderID, &a.Filename,
		&mimeType, &a.SizeBytes, &a.URL, &a.CreatedAt)
	if err != nil {
		return a, err
	}
	if mimeType != nil {
		a.MimeType = *mimeType
	}
	return a, nil
}

func (s *Store) ListAttachments(ctx context.Context, taskID string) ([]attachment.Attachment, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+attachmentCols+` FROM attachments WHERE task_id = $1 ORDER BY created_at`, taskID)
	if err != nil {
		return nil, fmt.Errorf("list attachments: %w", err)
	}
	defer rows.Close()

	var attachments []attachment.Attachment
	for rows.Next() {
		a, err := scanAttachment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan attachment: %w", err)
		}
		attachments = append(attachments, a)
	}
	return orEmpty(attachments), rows.Err()
}

func (s *Store) GetAttachment(ctx context.Context, id string) (*attachment.Attachment, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+attachmentCols+` FROM attachments WHERE id = $1`, id)
	a, err := scanAttachment(row)
	if err != nil {
		return nil, notFoundWrap(err, "get attachment %s", id)
	}
	return &a, nil
}

func (s *Store) CreateAttachment(ctx context.Context, projectID, taskID, uploaderID string, req attachment.CreateRequest) (*attachment.Attachment, error) {
	row := s.pool.QueryRow(ctx,
		`INSERT INTO attachments (task_id, project_id, uploader_id, filename, mime_type, size_bytes, url)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING `+attachmentCols,
		taskID, projectID, uploaderID, req.Filename, nullIfEmpty(req.MimeType), req.SizeBytes, req.URL)
	a, err := scanAttachment(row)
	if err != nil {
		return nil, fmt.Errorf("create attachment: %w", err)
	}
	return &a, nil
}

func (s *Store) DeleteAttachment(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM attachments WHERE id = $1`, id)
	return execExpectOne(tag, err, "delete attachment %s", id)
}

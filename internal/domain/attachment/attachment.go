// Package attachment defines the Attachment domain entity.
//
// Only the metadata row lives here; blob storage is an external concern and
// the URL points at wherever the bytes were put.
package attachment

import (
	"errors"
	"time"
)

// Attachment is a file reference attached to a task.
type Attachment struct {
	ID         string    `json:"id"`
	TaskID     string    `json:"task_id"`
	ProjectID  string    `json:"project_id"`
	UploaderID string    `json:"uploader_id"`
	Filename   string    `json:"filename"`
	MimeType   string    `json:"mime_type,omitempty"`
	SizeBytes  int64     `json:"size_bytes"`
	URL        string    `json:"url"`
	CreatedAt  time.Time `json:"created_at"`
}

// CreateRequest holds the fields needed to register an uploaded attachment.
type CreateRequest struct {
	Filename  string `json:"filename"`
	MimeType  string `json:"mime_type,omitempty"`
	SizeBytes int64  `json:"size_bytes"`
	URL       string `json:"url"`
}

// Validate checks the create request fields.
func (r CreateRequest) Validate() error {
	if r.Filename == "" {
		return errors.New("filename is required")
	}
	if r.URL == "" {
		return errors.New("url is required")
	}
	if r.SizeBytes < 0 {
		return errors.New("size_bytes must be >= 0")
	}
	return nil
}

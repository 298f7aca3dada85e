package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Common validation errors for Resume
var (
	ErrEmptyResumeID       = errors.New("resume ID cannot be empty")
	ErrEmptyResumeText     = errors.New("resume text cannot be empty")
	ErrInvalidContentHash  = errors.New("content hash must be a 64-character hex digest")
	ErrEmptyResumeFileName = errors.New("resume file name cannot be empty")
)

// Resume represents one uploaded resume file. The content hash is computed
// over the raw uploaded bytes and is unique across the store, so identical
// files always resolve to the same record. Text is immutable once set;
// AnonymizedHTML is written at most once by whichever path (inline or
// worker) completes first.
type Resume struct {
	ID             uuid.UUID `json:"id"`
	ContentHash    string    `json:"content_hash"`
	FileName       string    `json:"file_name"`
	FileSize       int64     `json:"file_size"`
	Text           string    `json:"text"`
	AnonymizedHTML *string   `json:"anonymized_html,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// NewResume creates a new Resume with the given content hash, file metadata,
// and extracted text. It generates a new UUID and sets timestamps.
// Returns an error if validation fails.
func NewResume(contentHash, fileName string, fileSize int64, text string) (*Resume, error) {
	resume := &Resume{
		ID:          uuid.New(),
		ContentHash: contentHash,
		FileName:    fileName,
		FileSize:    fileSize,
		Text:        text,
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}

	if err := resume.Validate(); err != nil {
		return nil, err
	}

	return resume, nil
}

// Validate checks if the Resume has valid data.
func (r *Resume) Validate() error {
	if r.ID == uuid.Nil {
		return ErrEmptyResumeID
	}

	if !isValidContentHash(r.ContentHash) {
		return ErrInvalidContentHash
	}

	if r.FileName == "" {
		return ErrEmptyResumeFileName
	}

	if r.Text == "" {
		return ErrEmptyResumeText
	}

	return nil
}

// isValidContentHash reports whether s looks like a lowercase hex SHA-256.
func isValidContentHash(s string) bool {
	if len(s) != 64 {
		return false
	}
	for _, c := range s {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

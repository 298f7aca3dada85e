package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Common validation errors for JobDescription
var (
	ErrEmptyJobID    = errors.New("job ID cannot be empty")
	ErrEmptyJobTitle = errors.New("job title cannot be empty")
	ErrEmptyJobText  = errors.New("job description cannot be empty")
)

// JobDescription represents one job posting. The content hash is computed
// over the whitespace-trimmed description text, so identical postings across
// sessions resolve to the same record. RequiredSkills stays empty until the
// analysis call succeeds.
type JobDescription struct {
	ID             uuid.UUID `json:"id"`
	ContentHash    string    `json:"content_hash"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	RequiredSkills []string  `json:"required_skills"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// NewJobDescription creates a new JobDescription with the given content
// hash, title, and description text. Returns an error if validation fails.
func NewJobDescription(contentHash, title, description string) (*JobDescription, error) {
	job := &JobDescription{
		ID:          uuid.New(),
		ContentHash: contentHash,
		Title:       title,
		Description: description,
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}

	if err := job.Validate(); err != nil {
		return nil, err
	}

	return job, nil
}

// Validate checks if the JobDescription has valid data.
func (j *JobDescription) Validate() error {
	if j.ID == uuid.Nil {
		return ErrEmptyJobID
	}

	if !isValidContentHash(j.ContentHash) {
		return ErrInvalidContentHash
	}

	if j.Title == "" {
		return ErrEmptyJobTitle
	}

	if j.Description == "" {
		return ErrEmptyJobText
	}

	return nil
}

// Analyzed reports whether the job's requirements have been extracted.
func (j *JobDescription) Analyzed() bool {
	return len(j.RequiredSkills) > 0
}

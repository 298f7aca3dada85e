package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Common validation errors for Candidate
var (
	ErrEmptyCandidateID       = errors.New("candidate ID cannot be empty")
	ErrEmptyCandidateResumeID = errors.New("candidate resume ID cannot be empty")
	ErrEmptyCandidateName     = errors.New("candidate name cannot be empty")
)

// Candidate holds the structured fields extracted from one resume. A
// candidate row exists iff extraction succeeded: it is never created with
// placeholder values, and each resume owns at most one candidate.
type Candidate struct {
	ID              uuid.UUID `json:"id"`
	ResumeID        uuid.UUID `json:"resume_id"`
	FullName        string    `json:"full_name"`
	Email           string    `json:"email"`
	Phone           string    `json:"phone"`
	Skills          []string  `json:"skills"`
	YearsExperience float64   `json:"years_experience"`
	Summary         string    `json:"summary"`
	CreatedAt       time.Time `json:"created_at"`
}

// NewCandidate creates a new Candidate owned by the given resume.
// Returns an error if validation fails.
func NewCandidate(resumeID uuid.UUID, fullName, email, phone string, skills []string, yearsExperience float64, summary string) (*Candidate, error) {
	candidate := &Candidate{
		ID:              uuid.New(),
		ResumeID:        resumeID,
		FullName:        fullName,
		Email:           email,
		Phone:           phone,
		Skills:          skills,
		YearsExperience: yearsExperience,
		Summary:         summary,
		CreatedAt:       time.Now().UTC(),
	}

	if err := candidate.Validate(); err != nil {
		return nil, err
	}

	return candidate, nil
}

// Validate checks if the Candidate has valid data.
func (c *Candidate) Validate() error {
	if c.ID == uuid.Nil {
		return ErrEmptyCandidateID
	}

	if c.ResumeID == uuid.Nil {
		return ErrEmptyCandidateResumeID
	}

	if c.FullName == "" {
		return ErrEmptyCandidateName
	}

	return nil
}

package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Common validation errors for MatchResult
var (
	ErrEmptyMatchID          = errors.New("match result ID cannot be empty")
	ErrEmptyMatchCandidateID = errors.New("match result candidate ID cannot be empty")
	ErrEmptyMatchJobID       = errors.New("match result job ID cannot be empty")
	ErrInvalidMatchScore     = errors.New("match score must be between 0 and 100")
)

// MatchResult is one scored candidate/job pairing. It is keyed by the
// (resume content hash, job content hash) pair rather than by entity ids, so
// identical resume bytes matched against identical job text reuse one result
// across unrelated uploads and sessions. Rows are immutable after creation
// and are never recomputed once present.
type MatchResult struct {
	ID              uuid.UUID          `json:"id"`
	ResumeHash      string             `json:"resume_hash"`
	JobHash         string             `json:"job_hash"`
	CandidateID     uuid.UUID          `json:"candidate_id"`
	JobID           uuid.UUID          `json:"job_id"`
	Score           float64            `json:"score"`
	Scorecard       map[string]float64 `json:"scorecard"`
	Narrative       string             `json:"narrative"`
	CreatedAt       time.Time          `json:"created_at"`
}

// NewMatchResult creates a new MatchResult for the given hash pair and
// owning entities. Returns an error if validation fails.
func NewMatchResult(resumeHash, jobHash string, candidateID, jobID uuid.UUID, score float64, scorecard map[string]float64, narrative string) (*MatchResult, error) {
	result := &MatchResult{
		ID:          uuid.New(),
		ResumeHash:  resumeHash,
		JobHash:     jobHash,
		CandidateID: candidateID,
		JobID:       jobID,
		Score:       score,
		Scorecard:   scorecard,
		Narrative:   narrative,
		CreatedAt:   time.Now().UTC(),
	}

	if err := result.Validate(); err != nil {
		return nil, err
	}

	return result, nil
}

// Validate checks if the MatchResult has valid data.
func (m *MatchResult) Validate() error {
	if m.ID == uuid.Nil {
		return ErrEmptyMatchID
	}

	if !isValidContentHash(m.ResumeHash) || !isValidContentHash(m.JobHash) {
		return ErrInvalidContentHash
	}

	if m.CandidateID == uuid.Nil {
		return ErrEmptyMatchCandidateID
	}

	if m.JobID == uuid.Nil {
		return ErrEmptyMatchJobID
	}

	if m.Score < 0 || m.Score > 100 {
		return ErrInvalidMatchScore
	}

	return nil
}

package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/matcher-api/internal/domain"
)

// ResumeStore defines the interface for resume persistence.
type ResumeStore interface {
	// GetOrCreateByHash is the dedup gate for resumes: if a row with the
	// same content hash already exists it is returned with created=false
	// and the candidate row is never inserted; otherwise the given resume
	// is inserted and returned with created=true. Safe under concurrent
	// submission of identical bytes.
	GetOrCreateByHash(ctx context.Context, resume *domain.Resume) (result *domain.Resume, created bool, err error)

	// GetByID retrieves a resume by its unique ID.
	// Returns ErrResumeNotFound if the resume does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Resume, error)

	// GetByIDs retrieves all resumes whose IDs appear in ids, in one round
	// trip. Missing IDs are simply absent from the result; no error.
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.Resume, error)

	// SetAnonymizedHTML writes the derived anonymized HTML if it has not
	// been set yet. The first writer (inline path or worker) wins; later
	// calls are no-ops, which makes replaying anonymization idempotent.
	SetAnonymizedHTML(ctx context.Context, id uuid.UUID, html string) error

	// WithTx returns a ResumeStore bound to the provided transaction.
	WithTx(tx *sql.Tx) ResumeStore
}

// JobStore defines the interface for job description persistence.
type JobStore interface {
	// GetOrCreateByHash is the dedup gate for job descriptions, keyed by
	// the hash of the normalized description text.
	GetOrCreateByHash(ctx context.Context, job *domain.JobDescription) (result *domain.JobDescription, created bool, err error)

	// GetByID retrieves a job by its unique ID.
	// Returns ErrJobNotFound if the job does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.JobDescription, error)

	// GetByIDs retrieves all jobs whose IDs appear in ids, in one round trip.
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.JobDescription, error)

	// SetRequiredSkills persists the analyzed skill list. Re-running
	// analysis converges to the same end state, so this is a plain update.
	SetRequiredSkills(ctx context.Context, id uuid.UUID, skills []string) error

	// WithTx returns a JobStore bound to the provided transaction.
	WithTx(tx *sql.Tx) JobStore
}

// CandidateStore defines the interface for candidate persistence.
type CandidateStore interface {
	// Create inserts a candidate. Each resume owns at most one candidate;
	// inserting a second returns ErrCandidateExists. There is no expected
	// race on this constraint, so the conflict is surfaced, not absorbed.
	Create(ctx context.Context, candidate *domain.Candidate) error

	// GetByID retrieves a candidate by its unique ID.
	// Returns ErrCandidateNotFound if the candidate does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Candidate, error)

	// GetByIDs retrieves all candidates whose IDs appear in ids, in one
	// round trip.
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.Candidate, error)

	// GetByResumeID retrieves the candidate extracted from the given
	// resume. Returns ErrCandidateNotFound if extraction has not succeeded
	// for it yet.
	GetByResumeID(ctx context.Context, resumeID uuid.UUID) (*domain.Candidate, error)

	// GetByResumeIDs retrieves all candidates owned by the given resumes in
	// one round trip. Resumes without a candidate are simply absent.
	GetByResumeIDs(ctx context.Context, resumeIDs []uuid.UUID) ([]*domain.Candidate, error)

	// WithTx returns a CandidateStore bound to the provided transaction.
	WithTx(tx *sql.Tx) CandidateStore
}

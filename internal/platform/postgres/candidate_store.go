package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/phrazzld/matcher-api/internal/domain"
	"github.com/phrazzld/matcher-api/internal/platform/logger"
	"github.com/phrazzld/matcher-api/internal/store"
)

// CandidateStore implements the store.CandidateStore interface using PostgreSQL.
type CandidateStore struct {
	db store.DBTX
}

// NewCandidateStore creates a new CandidateStore.
func NewCandidateStore(db store.DBTX) *CandidateStore {
	return &CandidateStore{db: db}
}

// WithTx returns a CandidateStore bound to the provided transaction.
func (s *CandidateStore) WithTx(tx *sql.Tx) store.CandidateStore {
	return &CandidateStore{db: tx}
}

const candidateColumns = `id, resume_id, full_name, email, phone, skills, years_experience, summary, created_at`

// Create inserts a candidate. The resume_id unique constraint means a
// second extraction for the same resume surfaces ErrCandidateExists rather
// than silently duplicating.
func (s *CandidateStore) Create(ctx context.Context, candidate *domain.Candidate) error {
	log := logger.FromContext(ctx)

	skills, err := json.Marshal(candidate.Skills)
	if err != nil {
		return fmt.Errorf("failed to marshal candidate skills: %w", err)
	}

	query := `
		INSERT INTO candidates (id, resume_id, full_name, email, phone, skills, years_experience, summary, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err = s.db.ExecContext(ctx, query,
		candidate.ID,
		candidate.ResumeID,
		candidate.FullName,
		candidate.Email,
		candidate.Phone,
		skills,
		candidate.YearsExperience,
		candidate.Summary,
		candidate.CreatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return fmt.Errorf("%w: %v", store.ErrCandidateExists, err)
		}
		log.Error("failed to insert candidate",
			"resume_id", candidate.ResumeID,
			"error", err)
		return MapError(err)
	}

	return nil
}

// GetByID retrieves a candidate by its unique ID.
func (s *CandidateStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Candidate, error) {
	query := `SELECT ` + candidateColumns + ` FROM candidates WHERE id = $1`

	candidate, err := scanCandidate(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrCandidateNotFound
		}
		return nil, MapError(err)
	}

	return candidate, nil
}

// GetByIDs retrieves all candidates whose IDs appear in ids in one round trip.
func (s *CandidateStore) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.Candidate, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `SELECT ` + candidateColumns + ` FROM candidates WHERE id = ANY($1::uuid[])`

	rows, err := s.db.QueryContext(ctx, query, uuidStrings(ids))
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var candidates []*domain.Candidate
	for rows.Next() {
		candidate, err := scanCandidate(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan candidate row: %w", err)
		}
		candidates = append(candidates, candidate)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating candidate rows: %w", err)
	}

	return candidates, nil
}

// GetByResumeIDs retrieves all candidates owned by the given resumes in one
// round trip.
func (s *CandidateStore) GetByResumeIDs(ctx context.Context, resumeIDs []uuid.UUID) ([]*domain.Candidate, error) {
	if len(resumeIDs) == 0 {
		return nil, nil
	}

	query := `SELECT ` + candidateColumns + ` FROM candidates WHERE resume_id = ANY($1::uuid[])`

	rows, err := s.db.QueryContext(ctx, query, uuidStrings(resumeIDs))
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var candidates []*domain.Candidate
	for rows.Next() {
		candidate, err := scanCandidate(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan candidate row: %w", err)
		}
		candidates = append(candidates, candidate)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating candidate rows: %w", err)
	}

	return candidates, nil
}

// GetByResumeID retrieves the candidate extracted from the given resume.
func (s *CandidateStore) GetByResumeID(ctx context.Context, resumeID uuid.UUID) (*domain.Candidate, error) {
	query := `SELECT ` + candidateColumns + ` FROM candidates WHERE resume_id = $1`

	candidate, err := scanCandidate(s.db.QueryRowContext(ctx, query, resumeID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrCandidateNotFound
		}
		return nil, MapError(err)
	}

	return candidate, nil
}

func scanCandidate(row rowScanner) (*domain.Candidate, error) {
	var candidate domain.Candidate
	var skills []byte

	if err := row.Scan(
		&candidate.ID,
		&candidate.ResumeID,
		&candidate.FullName,
		&candidate.Email,
		&candidate.Phone,
		&skills,
		&candidate.YearsExperience,
		&candidate.Summary,
		&candidate.CreatedAt,
	); err != nil {
		return nil, err
	}

	if len(skills) > 0 {
		if err := json.Unmarshal(skills, &candidate.Skills); err != nil {
			return nil, fmt.Errorf("failed to unmarshal candidate skills: %w", err)
		}
	}

	return &candidate, nil
}

package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/matcher-api/internal/domain"
	"github.com/phrazzld/matcher-api/internal/platform/logger"
	"github.com/phrazzld/matcher-api/internal/store"
)

// JobStore implements the store.JobStore interface using PostgreSQL.
type JobStore struct {
	db store.DBTX
}

// NewJobStore creates a new JobStore.
func NewJobStore(db store.DBTX) *JobStore {
	return &JobStore{db: db}
}

// WithTx returns a JobStore bound to the provided transaction.
func (s *JobStore) WithTx(tx *sql.Tx) store.JobStore {
	return &JobStore{db: tx}
}

const jobColumns = `id, content_hash, title, description, required_skills, created_at, updated_at`

// GetOrCreateByHash inserts the job description unless its content hash is
// already present, in which case the existing row is returned.
func (s *JobStore) GetOrCreateByHash(ctx context.Context, job *domain.JobDescription) (*domain.JobDescription, bool, error) {
	log := logger.FromContext(ctx)

	query := `
		INSERT INTO job_descriptions (id, content_hash, title, description, required_skills, created_at, updated_at)
		VALUES ($1, $2, $3, $4, '[]'::jsonb, $5, $6)
		ON CONFLICT (content_hash) DO NOTHING
	`

	now := time.Now().UTC()
	result, err := s.db.ExecContext(ctx, query,
		job.ID,
		job.ContentHash,
		job.Title,
		job.Description,
		now,
		now,
	)
	if err != nil {
		log.Error("failed to insert job description",
			"content_hash", job.ContentHash,
			"error", err)
		return nil, false, MapError(err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	existing, err := s.getByHash(ctx, job.ContentHash)
	if err != nil {
		return nil, false, err
	}

	return existing, rows == 1, nil
}

// GetByID retrieves a job description by its unique ID.
func (s *JobStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.JobDescription, error) {
	query := `SELECT ` + jobColumns + ` FROM job_descriptions WHERE id = $1`

	job, err := scanJob(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrJobNotFound
		}
		return nil, MapError(err)
	}

	return job, nil
}

// GetByIDs retrieves all jobs whose IDs appear in ids in one round trip.
func (s *JobStore) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.JobDescription, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `SELECT ` + jobColumns + ` FROM job_descriptions WHERE id = ANY($1::uuid[])`

	rows, err := s.db.QueryContext(ctx, query, uuidStrings(ids))
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var jobs []*domain.JobDescription
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job row: %w", err)
		}
		jobs = append(jobs, job)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating job rows: %w", err)
	}

	return jobs, nil
}

// SetRequiredSkills persists the analyzed skill list.
func (s *JobStore) SetRequiredSkills(ctx context.Context, id uuid.UUID, skills []string) error {
	payload, err := json.Marshal(skills)
	if err != nil {
		return fmt.Errorf("failed to marshal required skills: %w", err)
	}

	query := `
		UPDATE job_descriptions
		SET required_skills = $2, updated_at = $3
		WHERE id = $1
	`

	result, err := s.db.ExecContext(ctx, query, id, payload, time.Now().UTC())
	if err != nil {
		return MapError(err)
	}

	return CheckRowsAffected(result, "job description")
}

// getByHash retrieves a job description by content hash.
func (s *JobStore) getByHash(ctx context.Context, contentHash string) (*domain.JobDescription, error) {
	query := `SELECT ` + jobColumns + ` FROM job_descriptions WHERE content_hash = $1`

	job, err := scanJob(s.db.QueryRowContext(ctx, query, contentHash))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrJobNotFound
		}
		return nil, MapError(err)
	}

	return job, nil
}

func scanJob(row rowScanner) (*domain.JobDescription, error) {
	var job domain.JobDescription
	var skills []byte

	if err := row.Scan(
		&job.ID,
		&job.ContentHash,
		&job.Title,
		&job.Description,
		&skills,
		&job.CreatedAt,
		&job.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if len(skills) > 0 {
		if err := json.Unmarshal(skills, &job.RequiredSkills); err != nil {
			return nil, fmt.Errorf("failed to unmarshal required skills: %w", err)
		}
	}

	return &job, nil
}

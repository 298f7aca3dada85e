package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/matcher-api/internal/domain"
	"github.com/phrazzld/matcher-api/internal/platform/logger"
	"github.com/phrazzld/matcher-api/internal/store"
)

// ResumeStore implements the store.ResumeStore interface using PostgreSQL.
type ResumeStore struct {
	db store.DBTX
}

// NewResumeStore creates a new ResumeStore.
func NewResumeStore(db store.DBTX) *ResumeStore {
	return &ResumeStore{db: db}
}

// WithTx returns a ResumeStore bound to the provided transaction.
func (s *ResumeStore) WithTx(tx *sql.Tx) store.ResumeStore {
	return &ResumeStore{db: tx}
}

const resumeColumns = `id, content_hash, file_name, file_size, text, anonymized_html, created_at, updated_at`

// GetOrCreateByHash inserts the resume unless its content hash is already
// present, in which case the existing row is returned. The insert races
// safely: ON CONFLICT DO NOTHING means two concurrent submissions of the
// same bytes resolve to one row, and the loser reads the winner's row.
func (s *ResumeStore) GetOrCreateByHash(ctx context.Context, resume *domain.Resume) (*domain.Resume, bool, error) {
	log := logger.FromContext(ctx)

	query := `
		INSERT INTO resumes (id, content_hash, file_name, file_size, text, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (content_hash) DO NOTHING
	`

	now := time.Now().UTC()
	result, err := s.db.ExecContext(ctx, query,
		resume.ID,
		resume.ContentHash,
		resume.FileName,
		resume.FileSize,
		resume.Text,
		now,
		now,
	)
	if err != nil {
		log.Error("failed to insert resume",
			"content_hash", resume.ContentHash,
			"error", err)
		return nil, false, MapError(err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	existing, err := s.getByHash(ctx, resume.ContentHash)
	if err != nil {
		return nil, false, err
	}

	return existing, rows == 1, nil
}

// GetByID retrieves a resume by its unique ID.
func (s *ResumeStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Resume, error) {
	query := `SELECT ` + resumeColumns + ` FROM resumes WHERE id = $1`

	resume, err := scanResume(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrResumeNotFound
		}
		return nil, MapError(err)
	}

	return resume, nil
}

// GetByIDs retrieves all resumes whose IDs appear in ids in one round trip.
func (s *ResumeStore) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.Resume, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `SELECT ` + resumeColumns + ` FROM resumes WHERE id = ANY($1::uuid[])`

	rows, err := s.db.QueryContext(ctx, query, uuidStrings(ids))
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var resumes []*domain.Resume
	for rows.Next() {
		resume, err := scanResume(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan resume row: %w", err)
		}
		resumes = append(resumes, resume)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating resume rows: %w", err)
	}

	return resumes, nil
}

// SetAnonymizedHTML writes the anonymized HTML only if it is still unset.
// Whichever path (inline or worker) gets here first wins; a second call is
// a no-op, not an error.
func (s *ResumeStore) SetAnonymizedHTML(ctx context.Context, id uuid.UUID, html string) error {
	query := `
		UPDATE resumes
		SET anonymized_html = $2, updated_at = $3
		WHERE id = $1 AND anonymized_html IS NULL
	`

	_, err := s.db.ExecContext(ctx, query, id, html, time.Now().UTC())
	if err != nil {
		return MapError(err)
	}

	return nil
}

// getByHash retrieves a resume by content hash.
func (s *ResumeStore) getByHash(ctx context.Context, contentHash string) (*domain.Resume, error) {
	query := `SELECT ` + resumeColumns + ` FROM resumes WHERE content_hash = $1`

	resume, err := scanResume(s.db.QueryRowContext(ctx, query, contentHash))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrResumeNotFound
		}
		return nil, MapError(err)
	}

	return resume, nil
}

// rowScanner covers *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanResume(row rowScanner) (*domain.Resume, error) {
	var resume domain.Resume
	var anonymized sql.NullString

	if err := row.Scan(
		&resume.ID,
		&resume.ContentHash,
		&resume.FileName,
		&resume.FileSize,
		&resume.Text,
		&anonymized,
		&resume.CreatedAt,
		&resume.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if anonymized.Valid {
		resume.AnonymizedHTML = &anonymized.String
	}

	return &resume, nil
}

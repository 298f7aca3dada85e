package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/matcher-api/internal/domain"
	"github.com/phrazzld/matcher-api/internal/platform/logger"
	"github.com/phrazzld/matcher-api/internal/store"
)

// matchInsertColumns is the number of parameters per inserted row; it bounds
// the chunk size against the wire protocol's 65535-parameter ceiling.
const matchInsertColumns = 9

// matchBatchChunkSize keeps each multi-row insert far below the parameter
// ceiling while still amortizing round trips.
const matchBatchChunkSize = 200

// MatchStore implements the store.MatchStore interface using PostgreSQL.
type MatchStore struct {
	db store.DBTX
}

// NewMatchStore creates a new MatchStore.
func NewMatchStore(db store.DBTX) *MatchStore {
	return &MatchStore{db: db}
}

// WithTx returns a MatchStore bound to the provided transaction.
func (s *MatchStore) WithTx(tx *sql.Tx) store.MatchStore {
	return &MatchStore{db: tx}
}

const matchColumns = `id, resume_hash, job_hash, candidate_id, job_id, score, scorecard, narrative, created_at`

// GetByHashPair retrieves the result for one hash pair.
func (s *MatchStore) GetByHashPair(ctx context.Context, pair store.HashPair) (*domain.MatchResult, error) {
	query := `SELECT ` + matchColumns + ` FROM match_results WHERE resume_hash = $1 AND job_hash = $2`

	result, err := scanMatchResult(s.db.QueryRowContext(ctx, query, pair.ResumeHash, pair.JobHash))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrMatchResultNotFound
		}
		return nil, MapError(err)
	}

	return result, nil
}

// GetByHashPairs retrieves all existing results for the given pairs in a
// single round trip by joining against the unnested pair arrays.
func (s *MatchStore) GetByHashPairs(ctx context.Context, pairs []store.HashPair) ([]*domain.MatchResult, error) {
	if len(pairs) == 0 {
		return nil, nil
	}

	resumeHashes := make([]string, len(pairs))
	jobHashes := make([]string, len(pairs))
	for i, pair := range pairs {
		resumeHashes[i] = pair.ResumeHash
		jobHashes[i] = pair.JobHash
	}

	// Columns must be qualified: the unnested pair relation shares the
	// hash column names.
	query := `
		SELECT m.id, m.resume_hash, m.job_hash, m.candidate_id, m.job_id, m.score, m.scorecard, m.narrative, m.created_at
		FROM match_results m
		JOIN unnest($1::text[], $2::text[]) AS p(resume_hash, job_hash)
		  ON m.resume_hash = p.resume_hash AND m.job_hash = p.job_hash
	`

	rows, err := s.db.QueryContext(ctx, query, resumeHashes, jobHashes)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var results []*domain.MatchResult
	for rows.Next() {
		result, err := scanMatchResult(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan match result row: %w", err)
		}
		results = append(results, result)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating match result rows: %w", err)
	}

	return results, nil
}

// Create inserts one match result. A concurrent duplicate insert for the
// same pair is the expected race; it reports created=false instead of an
// error, and the surviving row is the one already committed.
func (s *MatchStore) Create(ctx context.Context, result *domain.MatchResult) (bool, error) {
	scorecard, err := json.Marshal(result.Scorecard)
	if err != nil {
		return false, fmt.Errorf("failed to marshal scorecard: %w", err)
	}

	query := `
		INSERT INTO match_results (` + matchColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (resume_hash, job_hash) DO NOTHING
	`

	res, err := s.db.ExecContext(ctx, query,
		result.ID,
		result.ResumeHash,
		result.JobHash,
		result.CandidateID,
		result.JobID,
		result.Score,
		scorecard,
		result.Narrative,
		result.CreatedAt,
	)
	if err != nil {
		return false, MapError(err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rows == 1, nil
}

// BatchCreate inserts many results at once. Oversized batches are chunked
// to respect the parameter ceiling; chunks run concurrently against the
// pool (sequentially inside a transaction, which cannot be shared across
// goroutines). Conflicting pairs are skipped and only rows actually created
// are returned, so a race between two requests scoring the same pair
// resolves to exactly one surviving row.
func (s *MatchStore) BatchCreate(ctx context.Context, results []*domain.MatchResult) ([]*domain.MatchResult, error) {
	if len(results) == 0 {
		return nil, nil
	}

	chunks := chunkMatchResults(results, matchBatchChunkSize)

	// Inside a transaction the connection is single-flight by definition.
	if _, inTx := s.db.(*sql.Tx); inTx || len(chunks) == 1 {
		var created []*domain.MatchResult
		for _, chunk := range chunks {
			ids, err := s.insertChunk(ctx, chunk)
			if err != nil {
				return nil, err
			}
			created = append(created, filterByID(chunk, ids)...)
		}
		return created, nil
	}

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		created []*domain.MatchResult
		firstErr error
	)

	for _, chunk := range chunks {
		wg.Add(1)
		go func(chunk []*domain.MatchResult) {
			defer wg.Done()

			ids, err := s.insertChunk(ctx, chunk)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				return
			}
			created = append(created, filterByID(chunk, ids)...)
		}(chunk)
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}

	logger.FromContext(ctx).Debug("batch created match results",
		"requested", len(results),
		"created", len(created))

	return created, nil
}

// insertChunk performs one multi-row insert and returns the IDs of rows
// that survived conflict resolution.
func (s *MatchStore) insertChunk(ctx context.Context, chunk []*domain.MatchResult) (map[uuid.UUID]struct{}, error) {
	var sb strings.Builder
	sb.WriteString(`INSERT INTO match_results (` + matchColumns + `) VALUES `)

	args := make([]any, 0, len(chunk)*matchInsertColumns)
	for i, result := range chunk {
		scorecard, err := json.Marshal(result.Scorecard)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal scorecard: %w", err)
		}

		if i > 0 {
			sb.WriteString(", ")
		}
		base := i * matchInsertColumns
		fmt.Fprintf(&sb, "($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8, base+9)

		args = append(args,
			result.ID,
			result.ResumeHash,
			result.JobHash,
			result.CandidateID,
			result.JobID,
			result.Score,
			scorecard,
			result.Narrative,
			result.CreatedAt,
		)
	}

	sb.WriteString(` ON CONFLICT (resume_hash, job_hash) DO NOTHING RETURNING id`)

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	ids := make(map[uuid.UUID]struct{}, len(chunk))
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan inserted id: %w", err)
		}
		ids[id] = struct{}{}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating inserted ids: %w", err)
	}

	return ids, nil
}

// chunkMatchResults splits results into slices of at most size elements.
func chunkMatchResults(results []*domain.MatchResult, size int) [][]*domain.MatchResult {
	if size <= 0 {
		size = matchBatchChunkSize
	}

	var chunks [][]*domain.MatchResult
	for start := 0; start < len(results); start += size {
		end := start + size
		if end > len(results) {
			end = len(results)
		}
		chunks = append(chunks, results[start:end])
	}
	return chunks
}

// filterByID returns the results whose IDs appear in ids, preserving order.
func filterByID(results []*domain.MatchResult, ids map[uuid.UUID]struct{}) []*domain.MatchResult {
	var kept []*domain.MatchResult
	for _, result := range results {
		if _, ok := ids[result.ID]; ok {
			kept = append(kept, result)
		}
	}
	return kept
}

func scanMatchResult(row rowScanner) (*domain.MatchResult, error) {
	var result domain.MatchResult
	var scorecard []byte

	if err := row.Scan(
		&result.ID,
		&result.ResumeHash,
		&result.JobHash,
		&result.CandidateID,
		&result.JobID,
		&result.Score,
		&scorecard,
		&result.Narrative,
		&result.CreatedAt,
	); err != nil {
		return nil, err
	}

	if len(scorecard) > 0 {
		if err := json.Unmarshal(scorecard, &result.Scorecard); err != nil {
			return nil, fmt.Errorf("failed to unmarshal scorecard: %w", err)
		}
	}

	return &result, nil
}

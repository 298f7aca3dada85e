package task

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/matcher-api/internal/domain"
	"github.com/phrazzld/matcher-api/internal/inference"
	"github.com/phrazzld/matcher-api/internal/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mockQueueStore is an in-memory store.QueueStore that records the
// transitions workers apply.
type mockQueueStore struct {
	mu       sync.Mutex
	items    map[uuid.UUID]*domain.QueueItem
	deleted  []uuid.UUID
	failures []failureRecord

	eligibleErr error
}

type failureRecord struct {
	id           uuid.UUID
	attemptCount int
	nextRetryAt  time.Time
	status       domain.QueueItemStatus
	lastError    string
}

func newMockQueueStore(items ...*domain.QueueItem) *mockQueueStore {
	s := &mockQueueStore{items: make(map[uuid.UUID]*domain.QueueItem)}
	for _, item := range items {
		s.items[item.ID] = item
	}
	return s
}

func (s *mockQueueStore) Upsert(ctx context.Context, kind domain.QueueKind, ownerKey string) (*domain.QueueItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, item := range s.items {
		if item.Kind == kind && item.OwnerKey == ownerKey {
			item.Status = domain.QueueItemStatusPending
			item.AttemptCount = 0
			item.NextRetryAt = nil
			item.LastError = ""
			return item, nil
		}
	}

	item, err := domain.NewQueueItem(kind, ownerKey)
	if err != nil {
		return nil, err
	}
	s.items[item.ID] = item
	return item, nil
}

func (s *mockQueueStore) GetEligible(ctx context.Context, kind domain.QueueKind) ([]*domain.QueueItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.eligibleErr != nil {
		return nil, s.eligibleErr
	}

	now := time.Now().UTC()
	var eligible []*domain.QueueItem
	for _, item := range s.items {
		if item.Kind != kind || item.Status != domain.QueueItemStatusPending {
			continue
		}
		if item.NextRetryAt != nil && item.NextRetryAt.After(now) {
			continue
		}
		eligible = append(eligible, item)
	}
	return eligible, nil
}

func (s *mockQueueStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.items, id)
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *mockQueueStore) MarkFailure(ctx context.Context, id uuid.UUID, attemptCount int, nextRetryAt time.Time, status domain.QueueItemStatus, lastError string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.failures = append(s.failures, failureRecord{
		id:           id,
		attemptCount: attemptCount,
		nextRetryAt:  nextRetryAt,
		status:       status,
		lastError:    lastError,
	})

	if item, ok := s.items[id]; ok {
		item.AttemptCount = attemptCount
		item.NextRetryAt = &nextRetryAt
		item.Status = status
		item.LastError = lastError
	}
	return nil
}

func (s *mockQueueStore) Stats(ctx context.Context) ([]store.QueueStat, error) {
	return nil, nil
}

func (s *mockQueueStore) WithTx(tx *sql.Tx) store.QueueStore { return s }

// mockResumeStore serves resumes from a map.
type mockResumeStore struct {
	mu         sync.Mutex
	resumes    map[uuid.UUID]*domain.Resume
	anonymized map[uuid.UUID]string
}

func newMockResumeStore(resumes ...*domain.Resume) *mockResumeStore {
	s := &mockResumeStore{
		resumes:    make(map[uuid.UUID]*domain.Resume),
		anonymized: make(map[uuid.UUID]string),
	}
	for _, resume := range resumes {
		s.resumes[resume.ID] = resume
	}
	return s
}

func (s *mockResumeStore) GetOrCreateByHash(ctx context.Context, resume *domain.Resume) (*domain.Resume, bool, error) {
	return resume, true, nil
}

func (s *mockResumeStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Resume, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if resume, ok := s.resumes[id]; ok {
		return resume, nil
	}
	return nil, store.ErrResumeNotFound
}

func (s *mockResumeStore) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.Resume, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.Resume
	for _, id := range ids {
		if resume, ok := s.resumes[id]; ok {
			out = append(out, resume)
		}
	}
	return out, nil
}

func (s *mockResumeStore) SetAnonymizedHTML(ctx context.Context, id uuid.UUID, html string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.anonymized[id] = html
	return nil
}

func (s *mockResumeStore) WithTx(tx *sql.Tx) store.ResumeStore { return s }

// mockJobStore serves jobs from a map.
type mockJobStore struct {
	mu     sync.Mutex
	jobs   map[uuid.UUID]*domain.JobDescription
	skills map[uuid.UUID][]string
}

func newMockJobStore(jobs ...*domain.JobDescription) *mockJobStore {
	s := &mockJobStore{
		jobs:   make(map[uuid.UUID]*domain.JobDescription),
		skills: make(map[uuid.UUID][]string),
	}
	for _, job := range jobs {
		s.jobs[job.ID] = job
	}
	return s
}

func (s *mockJobStore) GetOrCreateByHash(ctx context.Context, job *domain.JobDescription) (*domain.JobDescription, bool, error) {
	return job, true, nil
}

func (s *mockJobStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.JobDescription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job, ok := s.jobs[id]; ok {
		return job, nil
	}
	return nil, store.ErrJobNotFound
}

func (s *mockJobStore) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.JobDescription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.JobDescription
	for _, id := range ids {
		if job, ok := s.jobs[id]; ok {
			out = append(out, job)
		}
	}
	return out, nil
}

func (s *mockJobStore) SetRequiredSkills(ctx context.Context, id uuid.UUID, skills []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.skills[id] = skills
	return nil
}

func (s *mockJobStore) WithTx(tx *sql.Tx) store.JobStore { return s }

// mockCandidateStore serves candidates keyed by resume.
type mockCandidateStore struct {
	mu         sync.Mutex
	candidates map[uuid.UUID]*domain.Candidate
	createErr  error
	created    []*domain.Candidate
}

func newMockCandidateStore(candidates ...*domain.Candidate) *mockCandidateStore {
	s := &mockCandidateStore{candidates: make(map[uuid.UUID]*domain.Candidate)}
	for _, candidate := range candidates {
		s.candidates[candidate.ID] = candidate
	}
	return s
}

func (s *mockCandidateStore) Create(ctx context.Context, candidate *domain.Candidate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return s.createErr
	}
	s.candidates[candidate.ID] = candidate
	s.created = append(s.created, candidate)
	return nil
}

func (s *mockCandidateStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if candidate, ok := s.candidates[id]; ok {
		return candidate, nil
	}
	return nil, store.ErrCandidateNotFound
}

func (s *mockCandidateStore) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.Candidate
	for _, id := range ids {
		if candidate, ok := s.candidates[id]; ok {
			out = append(out, candidate)
		}
	}
	return out, nil
}

func (s *mockCandidateStore) GetByResumeID(ctx context.Context, resumeID uuid.UUID) (*domain.Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, candidate := range s.candidates {
		if candidate.ResumeID == resumeID {
			return candidate, nil
		}
	}
	return nil, store.ErrCandidateNotFound
}

func (s *mockCandidateStore) GetByResumeIDs(ctx context.Context, resumeIDs []uuid.UUID) ([]*domain.Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.Candidate
	for _, resumeID := range resumeIDs {
		for _, candidate := range s.candidates {
			if candidate.ResumeID == resumeID {
				out = append(out, candidate)
			}
		}
	}
	return out, nil
}

func (s *mockCandidateStore) WithTx(tx *sql.Tx) store.CandidateStore { return s }

// mockMatchStore serves match results keyed by hash pair.
type mockMatchStore struct {
	mu      sync.Mutex
	results map[store.HashPair]*domain.MatchResult
}

func newMockMatchStore(results ...*domain.MatchResult) *mockMatchStore {
	s := &mockMatchStore{results: make(map[store.HashPair]*domain.MatchResult)}
	for _, result := range results {
		s.results[store.HashPair{ResumeHash: result.ResumeHash, JobHash: result.JobHash}] = result
	}
	return s
}

func (s *mockMatchStore) GetByHashPair(ctx context.Context, pair store.HashPair) (*domain.MatchResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if result, ok := s.results[pair]; ok {
		return result, nil
	}
	return nil, store.ErrMatchResultNotFound
}

func (s *mockMatchStore) GetByHashPairs(ctx context.Context, pairs []store.HashPair) ([]*domain.MatchResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.MatchResult
	for _, pair := range pairs {
		if result, ok := s.results[pair]; ok {
			out = append(out, result)
		}
	}
	return out, nil
}

func (s *mockMatchStore) Create(ctx context.Context, result *domain.MatchResult) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pair := store.HashPair{ResumeHash: result.ResumeHash, JobHash: result.JobHash}
	if _, exists := s.results[pair]; exists {
		return false, nil
	}
	s.results[pair] = result
	return true, nil
}

func (s *mockMatchStore) BatchCreate(ctx context.Context, results []*domain.MatchResult) ([]*domain.MatchResult, error) {
	var created []*domain.MatchResult
	for _, result := range results {
		ok, err := s.Create(ctx, result)
		if err != nil {
			return nil, err
		}
		if ok {
			created = append(created, result)
		}
	}
	return created, nil
}

func (s *mockMatchStore) WithTx(tx *sql.Tx) store.MatchStore { return s }

// mockCompleter records atomic completions and mirrors them into the match
// and queue mocks.
type mockCompleter struct {
	matches *mockMatchStore
	queue   *mockQueueStore

	mu    sync.Mutex
	calls int
}

func (c *mockCompleter) CreateMatchResultCompletingItem(ctx context.Context, result *domain.MatchResult, queueItemID uuid.UUID) error {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()

	if _, err := c.matches.Create(ctx, result); err != nil {
		return err
	}
	return c.queue.Delete(ctx, queueItemID)
}

// mockProvider dispatches to per-method function fields.
type mockProvider struct {
	extractFn   func(ctx context.Context, resumeText string) (*inference.CandidateProfile, error)
	anonymizeFn func(ctx context.Context, resumeText string) (string, error)
	analyzeFn   func(ctx context.Context, job *domain.JobDescription) (*inference.JobRequirements, error)
	scoreFn     func(ctx context.Context, candidate *domain.Candidate, job *domain.JobDescription) (*inference.MatchScore, error)
}

func (p *mockProvider) ExtractProfile(ctx context.Context, resumeText string) (*inference.CandidateProfile, error) {
	return p.extractFn(ctx, resumeText)
}

func (p *mockProvider) AnonymizeResume(ctx context.Context, resumeText string) (string, error) {
	return p.anonymizeFn(ctx, resumeText)
}

func (p *mockProvider) AnalyzeJob(ctx context.Context, job *domain.JobDescription) (*inference.JobRequirements, error) {
	return p.analyzeFn(ctx, job)
}

func (p *mockProvider) ScoreMatch(ctx context.Context, candidate *domain.Candidate, job *domain.JobDescription) (*inference.MatchScore, error) {
	return p.scoreFn(ctx, candidate, job)
}

package api

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

type stubResumeStore struct {
	mu      sync.Mutex
	resumes map[uuid.UUID]*domain.Resume
	byHash  map[string]*domain.Resume
}

func newStubResumeStore(resumes ...*domain.Resume) *stubResumeStore {
	s := &stubResumeStore{
		resumes: make(map[uuid.UUID]*domain.Resume),
		byHash:  make(map[string]*domain.Resume),
	}
	for _, resume := range resumes {
		s.resumes[resume.ID] = resume
		s.byHash[resume.ContentHash] = resume
	}
	return s
}

func (s *stubResumeStore) GetOrCreateByHash(ctx context.Context, resume *domain.Resume) (*domain.Resume, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.byHash[resume.ContentHash]; ok {
		return existing, false, nil
	}
	s.resumes[resume.ID] = resume
	s.byHash[resume.ContentHash] = resume
	return resume, true, nil
}

func (s *stubResumeStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Resume, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if resume, ok := s.resumes[id]; ok {
		return resume, nil
	}
	return nil, store.ErrResumeNotFound
}

func (s *stubResumeStore) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.Resume, error) {
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

func (s *stubResumeStore) SetAnonymizedHTML(ctx context.Context, id uuid.UUID, html string) error {
	return nil
}

func (s *stubResumeStore) WithTx(tx *sql.Tx) store.ResumeStore { return s }

type stubJobStore struct {
	mu     sync.Mutex
	jobs   map[uuid.UUID]*domain.JobDescription
	byHash map[string]*domain.JobDescription
}

func newStubJobStore(jobs ...*domain.JobDescription) *stubJobStore {
	s := &stubJobStore{
		jobs:   make(map[uuid.UUID]*domain.JobDescription),
		byHash: make(map[string]*domain.JobDescription),
	}
	for _, job := range jobs {
		s.jobs[job.ID] = job
		s.byHash[job.ContentHash] = job
	}
	return s
}

func (s *stubJobStore) GetOrCreateByHash(ctx context.Context, job *domain.JobDescription) (*domain.JobDescription, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.byHash[job.ContentHash]; ok {
		return existing, false, nil
	}
	s.jobs[job.ID] = job
	s.byHash[job.ContentHash] = job
	return job, true, nil
}

func (s *stubJobStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.JobDescription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job, ok := s.jobs[id]; ok {
		return job, nil
	}
	return nil, store.ErrJobNotFound
}

func (s *stubJobStore) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.JobDescription, error) {
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

func (s *stubJobStore) SetRequiredSkills(ctx context.Context, id uuid.UUID, skills []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job, ok := s.jobs[id]; ok {
		job.RequiredSkills = skills
	}
	return nil
}

func (s *stubJobStore) WithTx(tx *sql.Tx) store.JobStore { return s }

type stubCandidateStore struct {
	mu         sync.Mutex
	candidates map[uuid.UUID]*domain.Candidate
}

func newStubCandidateStore(candidates ...*domain.Candidate) *stubCandidateStore {
	s := &stubCandidateStore{candidates: make(map[uuid.UUID]*domain.Candidate)}
	for _, candidate := range candidates {
		s.candidates[candidate.ID] = candidate
	}
	return s
}

func (s *stubCandidateStore) Create(ctx context.Context, candidate *domain.Candidate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.candidates {
		if existing.ResumeID == candidate.ResumeID {
			return store.ErrCandidateExists
		}
	}
	s.candidates[candidate.ID] = candidate
	return nil
}

func (s *stubCandidateStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if candidate, ok := s.candidates[id]; ok {
		return candidate, nil
	}
	return nil, store.ErrCandidateNotFound
}

func (s *stubCandidateStore) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.Candidate, error) {
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

func (s *stubCandidateStore) GetByResumeID(ctx context.Context, resumeID uuid.UUID) (*domain.Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, candidate := range s.candidates {
		if candidate.ResumeID == resumeID {
			return candidate, nil
		}
	}
	return nil, store.ErrCandidateNotFound
}

func (s *stubCandidateStore) GetByResumeIDs(ctx context.Context, resumeIDs []uuid.UUID) ([]*domain.Candidate, error) {
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

func (s *stubCandidateStore) WithTx(tx *sql.Tx) store.CandidateStore { return s }

type stubMatchStore struct {
	mu      sync.Mutex
	results map[store.HashPair]*domain.MatchResult
}

func newStubMatchStore() *stubMatchStore {
	return &stubMatchStore{results: make(map[store.HashPair]*domain.MatchResult)}
}

func (s *stubMatchStore) GetByHashPair(ctx context.Context, pair store.HashPair) (*domain.MatchResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if result, ok := s.results[pair]; ok {
		return result, nil
	}
	return nil, store.ErrMatchResultNotFound
}

func (s *stubMatchStore) GetByHashPairs(ctx context.Context, pairs []store.HashPair) ([]*domain.MatchResult, error) {
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

func (s *stubMatchStore) Create(ctx context.Context, result *domain.MatchResult) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pair := store.HashPair{ResumeHash: result.ResumeHash, JobHash: result.JobHash}
	if _, exists := s.results[pair]; exists {
		return false, nil
	}
	s.results[pair] = result
	return true, nil
}

func (s *stubMatchStore) BatchCreate(ctx context.Context, results []*domain.MatchResult) ([]*domain.MatchResult, error) {
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

func (s *stubMatchStore) WithTx(tx *sql.Tx) store.MatchStore { return s }

type stubQueueStore struct {
	mu    sync.Mutex
	items map[string]*domain.QueueItem
	stats []store.QueueStat
}

func newStubQueueStore() *stubQueueStore {
	return &stubQueueStore{items: make(map[string]*domain.QueueItem)}
}

func (s *stubQueueStore) Upsert(ctx context.Context, kind domain.QueueKind, ownerKey string) (*domain.QueueItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := string(kind) + "/" + ownerKey
	if item, ok := s.items[key]; ok {
		return item, nil
	}
	item, err := domain.NewQueueItem(kind, ownerKey)
	if err != nil {
		return nil, err
	}
	s.items[key] = item
	return item, nil
}

func (s *stubQueueStore) GetEligible(ctx context.Context, kind domain.QueueKind) ([]*domain.QueueItem, error) {
	return nil, nil
}

func (s *stubQueueStore) Delete(ctx context.Context, id uuid.UUID) error { return nil }

func (s *stubQueueStore) MarkFailure(ctx context.Context, id uuid.UUID, attemptCount int, nextRetryAt time.Time, status domain.QueueItemStatus, lastError string) error {
	return nil
}

func (s *stubQueueStore) Stats(ctx context.Context) ([]store.QueueStat, error) {
	return s.stats, nil
}

func (s *stubQueueStore) WithTx(tx *sql.Tx) store.QueueStore { return s }

type stubProvider struct{}

func (stubProvider) ExtractProfile(ctx context.Context, resumeText string) (*inference.CandidateProfile, error) {
	return &inference.CandidateProfile{FullName: "Jordan Doe", Skills: []string{"go"}}, nil
}

func (stubProvider) AnonymizeResume(ctx context.Context, resumeText string) (string, error) {
	return "<div>Candidate</div>", nil
}

func (stubProvider) AnalyzeJob(ctx context.Context, job *domain.JobDescription) (*inference.JobRequirements, error) {
	return &inference.JobRequirements{RequiredSkills: []string{"go"}}, nil
}

func (stubProvider) ScoreMatch(ctx context.Context, candidate *domain.Candidate, job *domain.JobDescription) (*inference.MatchScore, error) {
	return &inference.MatchScore{Score: 72, Narrative: "fit"}, nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/matcher-api/internal/domain"
	"github.com/phrazzld/matcher-api/internal/inference"
	"github.com/phrazzld/matcher-api/internal/quota"
	"github.com/phrazzld/matcher-api/internal/store"
)

// MatchUnitResult reports the outcome for one candidate/job pairing.
type MatchUnitResult struct {
	CandidateID uuid.UUID           `json:"candidate_id"`
	Status      domain.UnitStatus   `json:"status"`
	Result      *domain.MatchResult `json:"result,omitempty"`
	Error       string              `json:"error,omitempty"`
}

// MatchService orchestrates batch scoring of candidates against one job.
// Pairs with cached results are served from the store; only missing pairs
// invoke the scoring call, and those run concurrently.
type MatchService struct {
	candidates  store.CandidateStore
	resumes     store.ResumeStore
	jobs        store.JobStore
	matches     store.MatchStore
	queue       store.QueueStore
	provider    inference.Provider
	maxAttempts int
	logger      *slog.Logger
}

// NewMatchService creates a MatchService.
func NewMatchService(
	candidates store.CandidateStore,
	resumes store.ResumeStore,
	jobs store.JobStore,
	matches store.MatchStore,
	queue store.QueueStore,
	provider inference.Provider,
	maxAttempts int,
	logger *slog.Logger,
) *MatchService {
	return &MatchService{
		candidates:  candidates,
		resumes:     resumes,
		jobs:        jobs,
		matches:     matches,
		queue:       queue,
		provider:    provider,
		maxAttempts: maxAttempts,
		logger:      logger,
	}
}

// Match scores the given candidates against one job. The result slice is
// index-aligned with candidateIDs; every unit settles independently.
func (s *MatchService) Match(ctx context.Context, candidateIDs []uuid.UUID, jobID uuid.UUID) ([]MatchUnitResult, error) {
	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to load job: %w", err)
	}

	// All reference data comes in three bulk round trips, regardless of
	// how many candidates are in the batch.
	candidates, err := s.candidates.GetByIDs(ctx, candidateIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load candidates: %w", err)
	}
	candidatesByID := make(map[uuid.UUID]*domain.Candidate, len(candidates))
	resumeIDs := make([]uuid.UUID, 0, len(candidates))
	for _, candidate := range candidates {
		candidatesByID[candidate.ID] = candidate
		resumeIDs = append(resumeIDs, candidate.ResumeID)
	}

	resumes, err := s.resumes.GetByIDs(ctx, resumeIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load resumes: %w", err)
	}
	resumesByID := make(map[uuid.UUID]*domain.Resume, len(resumes))
	for _, resume := range resumes {
		resumesByID[resume.ID] = resume
	}

	pairs := make([]store.HashPair, 0, len(candidates))
	for _, candidate := range candidates {
		if resume, ok := resumesByID[candidate.ResumeID]; ok {
			pairs = append(pairs, store.HashPair{ResumeHash: resume.ContentHash, JobHash: job.ContentHash})
		}
	}

	cached, err := s.matches.GetByHashPairs(ctx, pairs)
	if err != nil {
		return nil, fmt.Errorf("failed to load cached match results: %w", err)
	}
	cachedByPair := make(map[store.HashPair]*domain.MatchResult, len(cached))
	for _, result := range cached {
		cachedByPair[store.HashPair{ResumeHash: result.ResumeHash, JobHash: result.JobHash}] = result
	}

	results := make([]MatchUnitResult, len(candidateIDs))
	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		scored   []*domain.MatchResult
		scoredAt = make(map[uuid.UUID]int)
	)

	for i, candidateID := range candidateIDs {
		results[i] = MatchUnitResult{CandidateID: candidateID}

		candidate, ok := candidatesByID[candidateID]
		if !ok {
			results[i].Status = domain.UnitStatusFailed
			results[i].Error = store.ErrCandidateNotFound.Error()
			continue
		}

		resume, ok := resumesByID[candidate.ResumeID]
		if !ok {
			results[i].Status = domain.UnitStatusFailed
			results[i].Error = store.ErrResumeNotFound.Error()
			continue
		}

		pair := store.HashPair{ResumeHash: resume.ContentHash, JobHash: job.ContentHash}
		if existing, done := cachedByPair[pair]; done {
			results[i].Status = domain.UnitStatusCompleted
			results[i].Result = existing
			continue
		}

		// Missing pair: score inline, concurrently with the others.
		wg.Add(1)
		go func(i int, candidate *domain.Candidate, pair store.HashPair) {
			defer wg.Done()

			unit, result := s.scorePair(ctx, candidate, job, pair)

			mu.Lock()
			defer mu.Unlock()
			results[i] = unit
			if result != nil {
				scoredAt[result.ID] = i
				scored = append(scored, result)
			}
		}(i, candidate, pair)
	}
	wg.Wait()

	if len(scored) > 0 {
		created, err := s.matches.BatchCreate(ctx, scored)
		if err != nil {
			return nil, fmt.Errorf("failed to persist match results: %w", err)
		}

		// A pair raced by another request resolves to the surviving row.
		createdIDs := make(map[uuid.UUID]struct{}, len(created))
		for _, result := range created {
			createdIDs[result.ID] = struct{}{}
		}
		for _, result := range scored {
			if _, ok := createdIDs[result.ID]; ok {
				continue
			}
			i := scoredAt[result.ID]
			pair := store.HashPair{ResumeHash: result.ResumeHash, JobHash: result.JobHash}
			if survivor, err := s.matches.GetByHashPair(ctx, pair); err == nil {
				results[i].Result = survivor
			}
		}
	}

	return results, nil
}

// scorePair runs the inline scoring unit for one missing pair.
func (s *MatchService) scorePair(ctx context.Context, candidate *domain.Candidate, job *domain.JobDescription, pair store.HashPair) (MatchUnitResult, *domain.MatchResult) {
	unit := MatchUnitResult{CandidateID: candidate.ID}

	var result *domain.MatchResult
	err := quota.Retry(ctx, s.logger, s.maxAttempts, func(ctx context.Context) error {
		score, err := s.provider.ScoreMatch(ctx, candidate, job)
		if err != nil {
			return err
		}

		result, err = domain.NewMatchResult(
			pair.ResumeHash,
			pair.JobHash,
			candidate.ID,
			job.ID,
			score.Score,
			score.Scorecard,
			score.Narrative,
		)
		return err
	})

	switch {
	case err == nil:
		unit.Status = domain.UnitStatusCompleted
		unit.Result = result
		return unit, result

	case errors.Is(err, quota.ErrRetriesExhausted) || quota.IsRateLimit(err):
		ownerKey := domain.MatchOwnerKey(candidate.ID, job.ID)
		if _, qErr := s.queue.Upsert(ctx, domain.QueueKindMatch, ownerKey); qErr != nil {
			unit.Status = domain.UnitStatusFailed
			unit.Error = qErr.Error()
			return unit, nil
		}
		unit.Status = domain.UnitStatusQueued
		s.logger.InfoContext(ctx, "match scoring rate limited inline, queued for background retry",
			slog.String("owner_key", ownerKey))
		return unit, nil

	default:
		unit.Status = domain.UnitStatusFailed
		unit.Error = err.Error()
		return unit, nil
	}
}

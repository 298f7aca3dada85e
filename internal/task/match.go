package task

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/phrazzld/matcher-api/internal/domain"
	"github.com/phrazzld/matcher-api/internal/inference"
	"github.com/phrazzld/matcher-api/internal/store"
)

// MatchProcessor retries candidate/job scoring for pairs whose inline
// scoring was rate limited. Completion is atomic: the result insert and the
// queue item delete commit in one transaction via the MatchCompleter.
type MatchProcessor struct {
	candidates store.CandidateStore
	jobs       store.JobStore
	resumes    store.ResumeStore
	matches    store.MatchStore
	completer  store.MatchCompleter
	provider   inference.Provider
}

// NewMatchProcessor creates the match processor.
func NewMatchProcessor(
	candidates store.CandidateStore,
	jobs store.JobStore,
	resumes store.ResumeStore,
	matches store.MatchStore,
	completer store.MatchCompleter,
	provider inference.Provider,
) *MatchProcessor {
	return &MatchProcessor{
		candidates: candidates,
		jobs:       jobs,
		resumes:    resumes,
		matches:    matches,
		completer:  completer,
		provider:   provider,
	}
}

// Kind reports the queue kind this processor drains.
func (p *MatchProcessor) Kind() domain.QueueKind {
	return domain.QueueKindMatch
}

type matchBatch struct {
	candidates map[uuid.UUID]*domain.Candidate
	jobs       map[uuid.UUID]*domain.JobDescription
	resumes    map[uuid.UUID]*domain.Resume
	scored     map[store.HashPair]*domain.MatchResult
}

// Prepare bulk loads candidates, jobs, the candidates' resumes (for their
// content hashes), and any results already scored for the cycle's pairs.
func (p *MatchProcessor) Prepare(ctx context.Context, items []*domain.QueueItem) (Batch, error) {
	candidateIDs := make([]uuid.UUID, 0, len(items))
	jobIDs := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		candidateID, jobID, err := domain.SplitMatchOwnerKey(item.OwnerKey)
		if err != nil {
			continue
		}
		candidateIDs = append(candidateIDs, candidateID)
		jobIDs = append(jobIDs, jobID)
	}

	candidates, err := p.candidates.GetByIDs(ctx, candidateIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to prefetch candidates: %w", err)
	}

	jobs, err := p.jobs.GetByIDs(ctx, jobIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to prefetch jobs: %w", err)
	}

	resumeIDs := make([]uuid.UUID, 0, len(candidates))
	for _, candidate := range candidates {
		resumeIDs = append(resumeIDs, candidate.ResumeID)
	}

	resumes, err := p.resumes.GetByIDs(ctx, resumeIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to prefetch resumes: %w", err)
	}

	batch := &matchBatch{
		candidates: make(map[uuid.UUID]*domain.Candidate, len(candidates)),
		jobs:       make(map[uuid.UUID]*domain.JobDescription, len(jobs)),
		resumes:    make(map[uuid.UUID]*domain.Resume, len(resumes)),
	}
	for _, candidate := range candidates {
		batch.candidates[candidate.ID] = candidate
	}
	for _, job := range jobs {
		batch.jobs[job.ID] = job
	}
	for _, resume := range resumes {
		batch.resumes[resume.ID] = resume
	}

	pairs := make([]store.HashPair, 0, len(items))
	for _, item := range items {
		if pair, ok := p.pairFor(item, batch); ok {
			pairs = append(pairs, pair)
		}
	}

	scored, err := p.matches.GetByHashPairs(ctx, pairs)
	if err != nil {
		return nil, fmt.Errorf("failed to prefetch match results: %w", err)
	}

	batch.scored = make(map[store.HashPair]*domain.MatchResult, len(scored))
	for _, result := range scored {
		batch.scored[store.HashPair{ResumeHash: result.ResumeHash, JobHash: result.JobHash}] = result
	}

	return batch, nil
}

// Handle scores one candidate/job pair and completes the item atomically.
func (p *MatchProcessor) Handle(ctx context.Context, item *domain.QueueItem, batch Batch) error {
	b, ok := batch.(*matchBatch)
	if !ok {
		return fmt.Errorf("unexpected batch type %T", batch)
	}

	candidateID, jobID, err := domain.SplitMatchOwnerKey(item.OwnerKey)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrOwnerGone, err)
	}

	candidate, ok := b.candidates[candidateID]
	if !ok {
		return ErrOwnerGone
	}

	job, ok := b.jobs[jobID]
	if !ok {
		return ErrOwnerGone
	}

	resume, ok := b.resumes[candidate.ResumeID]
	if !ok {
		return ErrOwnerGone
	}

	pair := store.HashPair{ResumeHash: resume.ContentHash, JobHash: job.ContentHash}
	if _, done := b.scored[pair]; done {
		return nil
	}

	score, err := p.provider.ScoreMatch(ctx, candidate, job)
	if err != nil {
		return err
	}

	result, err := domain.NewMatchResult(
		pair.ResumeHash,
		pair.JobHash,
		candidate.ID,
		job.ID,
		score.Score,
		score.Scorecard,
		score.Narrative,
	)
	if err != nil {
		return fmt.Errorf("failed to build match result: %w", err)
	}

	return p.completer.CreateMatchResultCompletingItem(ctx, result, item.ID)
}

// pairFor resolves an item's hash pair from the prefetched records.
func (p *MatchProcessor) pairFor(item *domain.QueueItem, batch *matchBatch) (store.HashPair, bool) {
	candidateID, jobID, err := domain.SplitMatchOwnerKey(item.OwnerKey)
	if err != nil {
		return store.HashPair{}, false
	}

	candidate, ok := batch.candidates[candidateID]
	if !ok {
		return store.HashPair{}, false
	}

	job, ok := batch.jobs[jobID]
	if !ok {
		return store.HashPair{}, false
	}

	resume, ok := batch.resumes[candidate.ResumeID]
	if !ok {
		return store.HashPair{}, false
	}

	return store.HashPair{ResumeHash: resume.ContentHash, JobHash: job.ContentHash}, true
}

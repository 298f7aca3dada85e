package task

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/phrazzld/matcher-api/internal/domain"
	"github.com/phrazzld/matcher-api/internal/inference"
	"github.com/phrazzld/matcher-api/internal/store"
)

// AnalysisProcessor retries required-skill analysis for job descriptions
// whose inline analysis was rate limited.
type AnalysisProcessor struct {
	jobs     store.JobStore
	provider inference.Provider
}

// NewAnalysisProcessor creates the analysis processor.
func NewAnalysisProcessor(jobs store.JobStore, provider inference.Provider) *AnalysisProcessor {
	return &AnalysisProcessor{
		jobs:     jobs,
		provider: provider,
	}
}

// Kind reports the queue kind this processor drains.
func (p *AnalysisProcessor) Kind() domain.QueueKind {
	return domain.QueueKindAnalysis
}

type analysisBatch struct {
	jobs map[uuid.UUID]*domain.JobDescription
}

// Prepare bulk loads the cycle's job descriptions.
func (p *AnalysisProcessor) Prepare(ctx context.Context, items []*domain.QueueItem) (Batch, error) {
	jobs, err := p.jobs.GetByIDs(ctx, ownerUUIDs(items))
	if err != nil {
		return nil, fmt.Errorf("failed to prefetch jobs: %w", err)
	}

	batch := &analysisBatch{
		jobs: make(map[uuid.UUID]*domain.JobDescription, len(jobs)),
	}
	for _, job := range jobs {
		batch.jobs[job.ID] = job
	}

	return batch, nil
}

// Handle analyzes one job description and stores its skill list.
func (p *AnalysisProcessor) Handle(ctx context.Context, item *domain.QueueItem, batch Batch) error {
	b, ok := batch.(*analysisBatch)
	if !ok {
		return fmt.Errorf("unexpected batch type %T", batch)
	}

	jobID, err := uuid.Parse(item.OwnerKey)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrOwnerGone, err)
	}

	job, ok := b.jobs[jobID]
	if !ok {
		return ErrOwnerGone
	}

	if job.Analyzed() {
		return nil
	}

	requirements, err := p.provider.AnalyzeJob(ctx, job)
	if err != nil {
		return err
	}

	return p.jobs.SetRequiredSkills(ctx, job.ID, requirements.RequiredSkills)
}

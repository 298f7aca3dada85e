package task

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/phrazzld/matcher-api/internal/domain"
	"github.com/phrazzld/matcher-api/internal/inference"
	"github.com/phrazzld/matcher-api/internal/store"
)

// ExtractionProcessor retries candidate profile extraction for resumes
// whose inline extraction was rate limited.
type ExtractionProcessor struct {
	resumes    store.ResumeStore
	candidates store.CandidateStore
	provider   inference.Provider
}

// NewExtractionProcessor creates the extraction processor.
func NewExtractionProcessor(resumes store.ResumeStore, candidates store.CandidateStore, provider inference.Provider) *ExtractionProcessor {
	return &ExtractionProcessor{
		resumes:    resumes,
		candidates: candidates,
		provider:   provider,
	}
}

// Kind reports the queue kind this processor drains.
func (p *ExtractionProcessor) Kind() domain.QueueKind {
	return domain.QueueKindExtraction
}

type extractionBatch struct {
	resumes  map[uuid.UUID]*domain.Resume
	existing map[uuid.UUID]*domain.Candidate
}

// Prepare bulk loads the cycle's resumes and any candidates that already
// exist for them, so items whose work raced to completion elsewhere are
// recognized without a model call.
func (p *ExtractionProcessor) Prepare(ctx context.Context, items []*domain.QueueItem) (Batch, error) {
	ids := ownerUUIDs(items)

	resumes, err := p.resumes.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to prefetch resumes: %w", err)
	}

	candidates, err := p.candidates.GetByResumeIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to prefetch candidates: %w", err)
	}

	batch := &extractionBatch{
		resumes:  make(map[uuid.UUID]*domain.Resume, len(resumes)),
		existing: make(map[uuid.UUID]*domain.Candidate, len(candidates)),
	}
	for _, resume := range resumes {
		batch.resumes[resume.ID] = resume
	}
	for _, candidate := range candidates {
		batch.existing[candidate.ResumeID] = candidate
	}

	return batch, nil
}

// Handle extracts the profile for one resume and creates its candidate row.
func (p *ExtractionProcessor) Handle(ctx context.Context, item *domain.QueueItem, batch Batch) error {
	b, ok := batch.(*extractionBatch)
	if !ok {
		return fmt.Errorf("unexpected batch type %T", batch)
	}

	resumeID, err := uuid.Parse(item.OwnerKey)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrOwnerGone, err)
	}

	resume, ok := b.resumes[resumeID]
	if !ok {
		return ErrOwnerGone
	}

	if _, done := b.existing[resumeID]; done {
		return nil
	}

	profile, err := p.provider.ExtractProfile(ctx, resume.Text)
	if err != nil {
		return err
	}

	candidate, err := domain.NewCandidate(
		resume.ID,
		profile.FullName,
		profile.Email,
		profile.Phone,
		profile.Skills,
		profile.YearsExperience,
		profile.Summary,
	)
	if err != nil {
		return fmt.Errorf("failed to build candidate from profile: %w", err)
	}

	if err := p.candidates.Create(ctx, candidate); err != nil {
		// Someone finished this resume between Prepare and now.
		if errors.Is(err, store.ErrCandidateExists) {
			return nil
		}
		return err
	}

	return nil
}

// ownerUUIDs parses every item's owner key as a UUID. Unparseable keys are
// skipped here; Handle surfaces them as vacuously complete.
func ownerUUIDs(items []*domain.QueueItem) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		id, err := uuid.Parse(item.OwnerKey)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

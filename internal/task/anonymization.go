package task

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/phrazzld/matcher-api/internal/domain"
	"github.com/phrazzld/matcher-api/internal/inference"
	"github.com/phrazzld/matcher-api/internal/store"
)

// AnonymizationProcessor retries anonymized-HTML generation for resumes
// whose inline anonymization was rate limited.
type AnonymizationProcessor struct {
	resumes  store.ResumeStore
	provider inference.Provider
}

// NewAnonymizationProcessor creates the anonymization processor.
func NewAnonymizationProcessor(resumes store.ResumeStore, provider inference.Provider) *AnonymizationProcessor {
	return &AnonymizationProcessor{
		resumes:  resumes,
		provider: provider,
	}
}

// Kind reports the queue kind this processor drains.
func (p *AnonymizationProcessor) Kind() domain.QueueKind {
	return domain.QueueKindAnonymization
}

type anonymizationBatch struct {
	resumes map[uuid.UUID]*domain.Resume
}

// Prepare bulk loads the cycle's resumes.
func (p *AnonymizationProcessor) Prepare(ctx context.Context, items []*domain.QueueItem) (Batch, error) {
	resumes, err := p.resumes.GetByIDs(ctx, ownerUUIDs(items))
	if err != nil {
		return nil, fmt.Errorf("failed to prefetch resumes: %w", err)
	}

	batch := &anonymizationBatch{
		resumes: make(map[uuid.UUID]*domain.Resume, len(resumes)),
	}
	for _, resume := range resumes {
		batch.resumes[resume.ID] = resume
	}

	return batch, nil
}

// Handle anonymizes one resume and stores the HTML.
func (p *AnonymizationProcessor) Handle(ctx context.Context, item *domain.QueueItem, batch Batch) error {
	b, ok := batch.(*anonymizationBatch)
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

	if resume.AnonymizedHTML != nil {
		return nil
	}

	html, err := p.provider.AnonymizeResume(ctx, resume.Text)
	if err != nil {
		return err
	}

	return p.resumes.SetAnonymizedHTML(ctx, resume.ID, html)
}

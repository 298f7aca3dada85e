package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/matcher-api/internal/domain"
	"github.com/phrazzld/matcher-api/internal/fingerprint"
	"github.com/phrazzld/matcher-api/internal/inference"
	"github.com/phrazzld/matcher-api/internal/quota"
	"github.com/phrazzld/matcher-api/internal/store"
)

// ResumeUpload is one file in an intake request.
type ResumeUpload struct {
	FileName string
	Content  []byte
}

// ResumeIntakeResult reports the per-unit outcome for one uploaded file.
// Extraction and anonymization are independent units: one may complete
// inline while the other is queued in the same request.
type ResumeIntakeResult struct {
	FileName      string            `json:"file_name"`
	ResumeID      uuid.UUID         `json:"resume_id"`
	Status        domain.UnitStatus `json:"status"`
	Extraction    domain.UnitStatus `json:"extraction,omitempty"`
	Anonymization domain.UnitStatus `json:"anonymization,omitempty"`
	Error         string            `json:"error,omitempty"`
}

// IntakeService orchestrates resume intake: dedup by raw-byte fingerprint,
// then inline-first extraction and anonymization.
type IntakeService struct {
	resumes     store.ResumeStore
	candidates  store.CandidateStore
	queue       store.QueueStore
	provider    inference.Provider
	extractor   TextExtractor
	maxAttempts int
	logger      *slog.Logger
}

// NewIntakeService creates an IntakeService.
func NewIntakeService(
	resumes store.ResumeStore,
	candidates store.CandidateStore,
	queue store.QueueStore,
	provider inference.Provider,
	extractor TextExtractor,
	maxAttempts int,
	logger *slog.Logger,
) *IntakeService {
	return &IntakeService{
		resumes:     resumes,
		candidates:  candidates,
		queue:       queue,
		provider:    provider,
		extractor:   extractor,
		maxAttempts: maxAttempts,
		logger:      logger,
	}
}

// Submit processes a batch of uploads. Each file gets its own result; one
// failing file never fails the batch.
func (s *IntakeService) Submit(ctx context.Context, uploads []ResumeUpload) []ResumeIntakeResult {
	results := make([]ResumeIntakeResult, len(uploads))
	for i, upload := range uploads {
		results[i] = s.submitOne(ctx, upload)
	}
	return results
}

// submitOne handles one file end to end.
func (s *IntakeService) submitOne(ctx context.Context, upload ResumeUpload) ResumeIntakeResult {
	result := ResumeIntakeResult{FileName: upload.FileName}

	// Fingerprint the raw bytes before paying for anything else: identical
	// files resolve to the existing record with zero inference calls.
	contentHash := fingerprint.Bytes(upload.Content)

	text, err := s.extractor.Extract(ctx, upload.FileName, upload.Content)
	if err != nil {
		result.Status = domain.UnitStatusFailed
		result.Error = err.Error()
		return result
	}

	resume, err := domain.NewResume(contentHash, upload.FileName, int64(len(upload.Content)), text)
	if err != nil {
		result.Status = domain.UnitStatusFailed
		result.Error = err.Error()
		return result
	}

	stored, created, err := s.resumes.GetOrCreateByHash(ctx, resume)
	if err != nil {
		result.Status = domain.UnitStatusFailed
		result.Error = err.Error()
		return result
	}

	result.ResumeID = stored.ID
	if !created {
		result.Status = domain.UnitStatusSkipped
		s.logger.InfoContext(ctx, "duplicate resume upload, reusing record",
			slog.String("resume_id", stored.ID.String()),
			slog.String("file_name", upload.FileName))
		return result
	}

	// Extraction and anonymization are independent: run them concurrently
	// and let each complete, queue, or fail on its own.
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		result.Extraction = s.attemptExtraction(ctx, stored)
	}()
	go func() {
		defer wg.Done()
		result.Anonymization = s.attemptAnonymization(ctx, stored)
	}()
	wg.Wait()

	result.Status = combineStatuses(result.Extraction, result.Anonymization)
	return result
}

// attemptExtraction runs the inline extraction unit for a new resume.
func (s *IntakeService) attemptExtraction(ctx context.Context, resume *domain.Resume) domain.UnitStatus {
	err := quota.Retry(ctx, s.logger, s.maxAttempts, func(ctx context.Context) error {
		profile, err := s.provider.ExtractProfile(ctx, resume.Text)
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

		return s.candidates.Create(ctx, candidate)
	})

	return s.settleUnit(ctx, err, domain.QueueKindExtraction, resume.ID.String())
}

// attemptAnonymization runs the inline anonymization unit for a new resume.
func (s *IntakeService) attemptAnonymization(ctx context.Context, resume *domain.Resume) domain.UnitStatus {
	err := quota.Retry(ctx, s.logger, s.maxAttempts, func(ctx context.Context) error {
		html, err := s.provider.AnonymizeResume(ctx, resume.Text)
		if err != nil {
			return err
		}
		return s.resumes.SetAnonymizedHTML(ctx, resume.ID, html)
	})

	return s.settleUnit(ctx, err, domain.QueueKindAnonymization, resume.ID.String())
}

// settleUnit converts one unit's inline outcome into a status, enqueuing a
// durable retry when the outcome was a classified rate-limit.
func (s *IntakeService) settleUnit(ctx context.Context, err error, kind domain.QueueKind, ownerKey string) domain.UnitStatus {
	if err == nil {
		return domain.UnitStatusCompleted
	}

	if errors.Is(err, quota.ErrRetriesExhausted) || quota.IsRateLimit(err) {
		if _, qErr := s.queue.Upsert(ctx, kind, ownerKey); qErr != nil {
			s.logger.ErrorContext(ctx, "failed to enqueue rate-limited unit",
				slog.String("kind", string(kind)),
				slog.String("owner_key", ownerKey),
				slog.String("error", qErr.Error()))
			return domain.UnitStatusFailed
		}
		s.logger.InfoContext(ctx, "unit rate limited inline, queued for background retry",
			slog.String("kind", string(kind)),
			slog.String("owner_key", ownerKey))
		return domain.UnitStatusQueued
	}

	s.logger.ErrorContext(ctx, "inline unit failed",
		slog.String("kind", string(kind)),
		slog.String("owner_key", ownerKey),
		slog.String("error", err.Error()))
	return domain.UnitStatusFailed
}

// combineStatuses folds the two per-unit statuses into a headline status
// for the file: any failure dominates, then any queue, then completed.
func combineStatuses(statuses ...domain.UnitStatus) domain.UnitStatus {
	combined := domain.UnitStatusCompleted
	for _, status := range statuses {
		switch status {
		case domain.UnitStatusFailed:
			return domain.UnitStatusFailed
		case domain.UnitStatusQueued:
			combined = domain.UnitStatusQueued
		}
	}
	return combined
}

package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/matcher-api/internal/domain"
	"github.com/phrazzld/matcher-api/internal/fingerprint"
	"github.com/phrazzld/matcher-api/internal/inference"
	"github.com/phrazzld/matcher-api/internal/quota"
	"github.com/phrazzld/matcher-api/internal/store"
)

// JobSubmitResult reports the outcome for one submitted job description.
type JobSubmitResult struct {
	JobID  uuid.UUID         `json:"job_id"`
	Status domain.UnitStatus `json:"status"`
	Error  string            `json:"error,omitempty"`
}

// JobService orchestrates job description intake: dedup by normalized-text
// fingerprint, then inline-first skill analysis.
type JobService struct {
	jobs        store.JobStore
	queue       store.QueueStore
	provider    inference.Provider
	maxAttempts int
	logger      *slog.Logger
}

// NewJobService creates a JobService.
func NewJobService(jobs store.JobStore, queue store.QueueStore, provider inference.Provider, maxAttempts int, logger *slog.Logger) *JobService {
	return &JobService{
		jobs:        jobs,
		queue:       queue,
		provider:    provider,
		maxAttempts: maxAttempts,
		logger:      logger,
	}
}

// Submit creates or reuses the job record for the description and attempts
// analysis inline. A duplicate description that is already analyzed is
// reported skipped without any inference call; a duplicate that was never
// analyzed (its earlier analysis is still queued or went dormant) gets a
// fresh inline attempt.
func (s *JobService) Submit(ctx context.Context, title, description string) JobSubmitResult {
	job, err := domain.NewJobDescription(fingerprint.Text(description), title, description)
	if err != nil {
		return JobSubmitResult{Status: domain.UnitStatusFailed, Error: err.Error()}
	}

	stored, created, err := s.jobs.GetOrCreateByHash(ctx, job)
	if err != nil {
		return JobSubmitResult{Status: domain.UnitStatusFailed, Error: err.Error()}
	}

	result := JobSubmitResult{JobID: stored.ID}

	if !created && stored.Analyzed() {
		result.Status = domain.UnitStatusSkipped
		s.logger.InfoContext(ctx, "duplicate job description, reusing analyzed record",
			slog.String("job_id", stored.ID.String()))
		return result
	}

	err = quota.Retry(ctx, s.logger, s.maxAttempts, func(ctx context.Context) error {
		requirements, err := s.provider.AnalyzeJob(ctx, stored)
		if err != nil {
			return err
		}
		return s.jobs.SetRequiredSkills(ctx, stored.ID, requirements.RequiredSkills)
	})

	switch {
	case err == nil:
		result.Status = domain.UnitStatusCompleted
	case errors.Is(err, quota.ErrRetriesExhausted) || quota.IsRateLimit(err):
		if _, qErr := s.queue.Upsert(ctx, domain.QueueKindAnalysis, stored.ID.String()); qErr != nil {
			result.Status = domain.UnitStatusFailed
			result.Error = qErr.Error()
			break
		}
		result.Status = domain.UnitStatusQueued
		s.logger.InfoContext(ctx, "job analysis rate limited inline, queued for background retry",
			slog.String("job_id", stored.ID.String()))
	default:
		result.Status = domain.UnitStatusFailed
		result.Error = err.Error()
	}

	return result
}

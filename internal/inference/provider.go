package inference

import (
	"context"

	"github.com/phrazzld/matcher-api/internal/domain"
)

// CandidateProfile is the structured profile a provider extracts from
// resume text.
type CandidateProfile struct {
	FullName        string   `json:"full_name"`
	Email           string   `json:"email"`
	Phone           string   `json:"phone"`
	Skills          []string `json:"skills"`
	YearsExperience float64  `json:"years_experience"`
	Summary         string   `json:"summary"`
}

// JobRequirements is the structured output of job description analysis.
type JobRequirements struct {
	RequiredSkills []string `json:"required_skills"`
}

// MatchScore is the structured output of scoring one candidate against one
// job.
type MatchScore struct {
	// Score is the overall fit on a 0-100 scale.
	Score float64 `json:"score"`

	// Scorecard holds per-dimension sub-scores keyed by dimension name.
	Scorecard map[string]float64 `json:"scorecard"`

	// Narrative is a short prose justification of the score.
	Narrative string `json:"narrative"`
}

// Provider defines the interface for the model-backed operations the
// pipeline needs. Implementations make exactly one model call per method
// and surface errors untouched so the caller's rate-limit classification
// and retry policy stay in charge.
type Provider interface {
	// ExtractProfile pulls a structured candidate profile out of raw
	// resume text.
	ExtractProfile(ctx context.Context, resumeText string) (*CandidateProfile, error)

	// AnonymizeResume rewrites the resume as HTML with personally
	// identifying information removed.
	AnonymizeResume(ctx context.Context, resumeText string) (string, error)

	// AnalyzeJob derives the required skill list from a job description.
	AnalyzeJob(ctx context.Context, job *domain.JobDescription) (*JobRequirements, error)

	// ScoreMatch scores one candidate against one job.
	ScoreMatch(ctx context.Context, candidate *domain.Candidate, job *domain.JobDescription) (*MatchScore, error)
}

package openrouter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"

	"github.com/phrazzld/matcher-api/internal/config"
	"github.com/phrazzld/matcher-api/internal/domain"
	"github.com/phrazzld/matcher-api/internal/inference"
	"github.com/phrazzld/matcher-api/internal/quota"
)

const (
	baseURL      = "https://openrouter.ai/api/v1"
	defaultModel = "openai/gpt-4o-mini"
)

// Provider implements the inference.Provider interface against the
// OpenRouter chat completions API. A 429 response is wrapped with the
// rate-limit sentinel and carries the response body, so any reset hint in
// the body feeds the backoff parser.
type Provider struct {
	logger *slog.Logger
	client *resty.Client
	model  string
}

// New creates an OpenRouter-backed provider.
func New(logger *slog.Logger, cfg config.LLMConfig) (*Provider, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	if cfg.OpenRouterAPIKey == "" {
		return nil, fmt.Errorf("%w: openrouter API key cannot be empty", inference.ErrInvalidConfig)
	}

	model := cfg.OpenRouterModel
	if model == "" {
		model = defaultModel
	}

	client := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Authorization", "Bearer "+cfg.OpenRouterAPIKey).
		SetHeader("Content-Type", "application/json")

	return &Provider{
		logger: logger,
		client: client,
		model:  model,
	}, nil
}

// ExtractProfile pulls a structured candidate profile out of raw resume text.
func (p *Provider) ExtractProfile(ctx context.Context, resumeText string) (*inference.CandidateProfile, error) {
	prompt := fmt.Sprintf(`Extract the candidate profile from the resume below.
Return STRICTLY a JSON object with this schema:
{
  "full_name": "<candidate name>",
  "email": "<email or empty string>",
  "phone": "<phone or empty string>",
  "skills": ["<skill>", ...],
  "years_experience": <number>,
  "summary": "<2-3 sentence professional summary>"
}

Resume:
%s`, resumeText)

	text, err := p.complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var profile inference.CandidateProfile
	if err := json.Unmarshal([]byte(stripFences(text)), &profile); err != nil {
		return nil, fmt.Errorf("%w: failed to parse profile JSON: %v", inference.ErrInvalidResponse, err)
	}

	if profile.FullName == "" {
		return nil, fmt.Errorf("%w: profile missing full name", inference.ErrInvalidResponse)
	}

	return &profile, nil
}

// AnonymizeResume rewrites the resume as HTML with identifying details removed.
func (p *Provider) AnonymizeResume(ctx context.Context, resumeText string) (string, error) {
	prompt := fmt.Sprintf(`Rewrite the resume below as a clean HTML fragment with all
personally identifying information removed: replace the candidate's name with
"Candidate", and drop email addresses, phone numbers, postal addresses, and
links to personal profiles. Preserve work history, skills, and education.
Return ONLY the HTML fragment, no markdown fences.

Resume:
%s`, resumeText)

	text, err := p.complete(ctx, prompt)
	if err != nil {
		return "", err
	}

	html := strings.TrimSpace(stripFences(text))
	if html == "" {
		return "", fmt.Errorf("%w: empty anonymized output", inference.ErrInvalidResponse)
	}

	return html, nil
}

// AnalyzeJob derives the required skill list from a job description.
func (p *Provider) AnalyzeJob(ctx context.Context, job *domain.JobDescription) (*inference.JobRequirements, error) {
	prompt := fmt.Sprintf(`Analyze the job posting below and list the concrete skills it
requires. Return STRICTLY a JSON object with this schema:
{
  "required_skills": ["<skill>", ...]
}

Title: %s

Description:
%s`, job.Title, job.Description)

	text, err := p.complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var requirements inference.JobRequirements
	if err := json.Unmarshal([]byte(stripFences(text)), &requirements); err != nil {
		return nil, fmt.Errorf("%w: failed to parse requirements JSON: %v", inference.ErrInvalidResponse, err)
	}

	if len(requirements.RequiredSkills) == 0 {
		return nil, fmt.Errorf("%w: no required skills in response", inference.ErrInvalidResponse)
	}

	return &requirements, nil
}

// ScoreMatch scores one candidate against one job.
func (p *Provider) ScoreMatch(ctx context.Context, candidate *domain.Candidate, job *domain.JobDescription) (*inference.MatchScore, error) {
	prompt := fmt.Sprintf(`Score how well the candidate fits the job.
Return STRICTLY a JSON object with this schema:
{
  "score": <number 0-100, overall fit>,
  "scorecard": {
    "skills": <number 0-100>,
    "experience": <number 0-100>,
    "domain": <number 0-100>
  },
  "narrative": "<2-3 sentence justification>"
}

Candidate:
Name: %s
Skills: %s
Years of experience: %.1f
Summary: %s

Job:
Title: %s
Required skills: %s

Description:
%s`,
		candidate.FullName,
		strings.Join(candidate.Skills, ", "),
		candidate.YearsExperience,
		candidate.Summary,
		job.Title,
		strings.Join(job.RequiredSkills, ", "),
		job.Description,
	)

	text, err := p.complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var score inference.MatchScore
	if err := json.Unmarshal([]byte(stripFences(text)), &score); err != nil {
		return nil, fmt.Errorf("%w: failed to parse score JSON: %v", inference.ErrInvalidResponse, err)
	}

	if score.Score < 0 || score.Score > 100 {
		return nil, fmt.Errorf("%w: score %.1f out of range", inference.ErrInvalidResponse, score.Score)
	}

	return &score, nil
}

// complete makes one chat completion call and extracts the first choice's
// message content.
func (p *Provider) complete(ctx context.Context, prompt string) (string, error) {
	resp, err := p.client.R().
		SetContext(ctx).
		SetBody(map[string]any{
			"model": p.model,
			"messages": []map[string]string{
				{"role": "user", "content": prompt},
			},
		}).
		Post("/chat/completions")
	if err != nil {
		return "", fmt.Errorf("openrouter request failed: %w", err)
	}

	body := resp.String()

	if resp.StatusCode() == http.StatusTooManyRequests {
		p.logger.WarnContext(ctx, "openrouter rate limited",
			slog.String("model", p.model),
			slog.String("body", body))
		return "", fmt.Errorf("%w: openrouter 429: %s", quota.ErrRateLimited, body)
	}

	if resp.IsError() {
		p.logger.ErrorContext(ctx, "openrouter call failed",
			slog.String("model", p.model),
			slog.Int("status", resp.StatusCode()),
			slog.String("body", body))
		return "", fmt.Errorf("openrouter status %d: %s", resp.StatusCode(), gjson.Get(body, "error.message").String())
	}

	text := gjson.Get(body, "choices.0.message.content").String()
	if text == "" {
		return "", fmt.Errorf("%w: no message content in response", inference.ErrInvalidResponse)
	}

	return text, nil
}

// stripFences removes a surrounding markdown code fence if the model added
// one despite instructions.
func stripFences(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```html")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}

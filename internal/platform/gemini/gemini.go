package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/genai"

	"github.com/phrazzld/matcher-api/internal/config"
	"github.com/phrazzld/matcher-api/internal/domain"
	"github.com/phrazzld/matcher-api/internal/inference"
)

const defaultModel = "gemini-2.5-flash"

// Provider implements the inference.Provider interface using Google's
// Gemini API. Each method makes exactly one model call; API errors are
// returned untouched so the caller's rate-limit classification sees the
// original *genai.APIError.
type Provider struct {
	logger *slog.Logger
	client *genai.Client
	model  string
}

// New creates a Gemini-backed provider.
func New(ctx context.Context, logger *slog.Logger, cfg config.LLMConfig) (*Provider, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", inference.ErrInvalidConfig)
	}

	model := cfg.GeminiModel
	if model == "" {
		model = defaultModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v", inference.ErrInvalidConfig, err)
	}

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

	text, err := p.generateJSON(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var profile inference.CandidateProfile
	if err := json.Unmarshal([]byte(text), &profile); err != nil {
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

	text, err := p.generate(ctx, prompt, nil)
	if err != nil {
		return "", err
	}

	html := strings.TrimSpace(text)
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

	text, err := p.generateJSON(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var requirements inference.JobRequirements
	if err := json.Unmarshal([]byte(text), &requirements); err != nil {
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

	text, err := p.generateJSON(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var score inference.MatchScore
	if err := json.Unmarshal([]byte(text), &score); err != nil {
		return nil, fmt.Errorf("%w: failed to parse score JSON: %v", inference.ErrInvalidResponse, err)
	}

	if score.Score < 0 || score.Score > 100 {
		return nil, fmt.Errorf("%w: score %.1f out of range", inference.ErrInvalidResponse, score.Score)
	}

	return &score, nil
}

// generateJSON makes one model call constrained to a JSON response.
func (p *Provider) generateJSON(ctx context.Context, prompt string) (string, error) {
	return p.generate(ctx, prompt, &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(float32(0.1)),
		ResponseMIMEType: "application/json",
	})
}

// generate makes one model call and validates the response shape. API
// errors pass through unwrapped.
func (p *Provider) generate(ctx context.Context, prompt string, cfg *genai.GenerateContentConfig) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", fmt.Errorf("%w: prompt cannot be empty", inference.ErrInvalidConfig)
	}

	if cfg == nil {
		cfg = &genai.GenerateContentConfig{
			Temperature: genai.Ptr(float32(0.1)),
		}
	}

	resp, err := p.client.Models.GenerateContent(ctx, p.model, genai.Text(prompt), cfg)
	if err != nil {
		p.logger.ErrorContext(ctx, "gemini call failed",
			slog.String("model", p.model),
			slog.String("error", err.Error()))
		return "", err
	}

	if err := validateResponse(resp); err != nil {
		return "", err
	}

	return resp.Text(), nil
}

func validateResponse(resp *genai.GenerateContentResponse) error {
	if resp == nil {
		return fmt.Errorf("%w: nil response", inference.ErrInvalidResponse)
	}

	if len(resp.Candidates) == 0 {
		return fmt.Errorf("%w: no candidates in response", inference.ErrInvalidResponse)
	}

	candidate := resp.Candidates[0]
	if candidate.FinishReason == genai.FinishReasonSafety {
		return fmt.Errorf("%w: finish reason safety", inference.ErrContentBlocked)
	}

	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return fmt.Errorf("%w: empty content in response", inference.ErrInvalidResponse)
	}

	return nil
}

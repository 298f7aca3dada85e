package api

import (
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/phrazzld/matcher-api/internal/api/shared"
	"github.com/phrazzld/matcher-api/internal/service"
)

// MatchRequest represents the request body for batch-matching candidates
// against one job description.
type MatchRequest struct {
	CandidateIDs []string `json:"candidate_ids" validate:"required,min=1,dive,uuid"`
	JobID        string   `json:"job_id"        validate:"required,uuid"`
}

// MatchResponse represents the response data for a match request: one unit
// per requested candidate, index-aligned with the request.
type MatchResponse struct {
	JobID   string                    `json:"job_id"`
	Results []service.MatchUnitResult `json:"results"`
}

// MatchHandler handles match-scoring HTTP requests.
type MatchHandler struct {
	matchService *service.MatchService
	validator    *validator.Validate
	logger       *slog.Logger
}

// NewMatchHandler creates a new MatchHandler.
func NewMatchHandler(matchService *service.MatchService, logger *slog.Logger) *MatchHandler {
	return &MatchHandler{
		matchService: matchService,
		validator:    validator.New(),
		logger:       logger,
	}
}

// Match handles POST /api/matches requests. Pairs already scored are served
// from storage; missing pairs are scored inline, and rate-limited pairs are
// queued for background retry. An unknown job fails the whole request; an
// unknown candidate fails only its own unit.
func (h *MatchHandler) Match(w http.ResponseWriter, r *http.Request) {
	var req MatchRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	jobID, err := uuid.Parse(req.JobID)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid job_id")
		return
	}

	candidateIDs := make([]uuid.UUID, len(req.CandidateIDs))
	for i, raw := range req.CandidateIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid candidate_id: "+raw)
			return
		}
		candidateIDs[i] = id
	}

	results, err := h.matchService.Match(r.Context(), candidateIDs, jobID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, MatchResponse{
		JobID:   jobID.String(),
		Results: results,
	})
}

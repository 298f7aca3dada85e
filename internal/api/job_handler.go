package api

import (
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/phrazzld/matcher-api/internal/api/shared"
	"github.com/phrazzld/matcher-api/internal/service"
)

// SubmitJobRequest represents the request body for submitting a job
// description.
type SubmitJobRequest struct {
	Title       string `json:"title" validate:"required,min=1"`
	Description string `json:"description" validate:"required,min=1"`
}

// JobHandler handles job-description HTTP requests.
type JobHandler struct {
	jobService *service.JobService
	validator  *validator.Validate
	logger     *slog.Logger
}

// NewJobHandler creates a new JobHandler.
func NewJobHandler(jobService *service.JobService, logger *slog.Logger) *JobHandler {
	return &JobHandler{
		jobService: jobService,
		validator:  validator.New(),
		logger:     logger,
	}
}

// SubmitJob handles POST /api/jobs requests. Identical descriptions resolve
// to the existing record; the result status tells the caller whether the
// analysis completed inline, was queued behind a rate limit, was skipped as
// a duplicate, or failed.
func (h *JobHandler) SubmitJob(w http.ResponseWriter, r *http.Request) {
	var req SubmitJobRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	result := h.jobService.Submit(r.Context(), req.Title, req.Description)

	shared.RespondWithJSON(w, r, http.StatusOK, result)
}

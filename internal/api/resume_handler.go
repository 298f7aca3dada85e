package api

import (
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/phrazzld/matcher-api/internal/api/shared"
	"github.com/phrazzld/matcher-api/internal/domain"
	"github.com/phrazzld/matcher-api/internal/fingerprint"
	"github.com/phrazzld/matcher-api/internal/inference"
	"github.com/phrazzld/matcher-api/internal/service"
	"github.com/phrazzld/matcher-api/internal/store"
)

// maxUploadBytes bounds the total size of one intake request.
const maxUploadBytes = 32 << 20 // 32 MiB

// ResumeIntakeResponse represents the response data for a resume intake
// request: one result per uploaded file, in upload order.
type ResumeIntakeResponse struct {
	Results []service.ResumeIntakeResult `json:"results"`
}

// CandidateResponse represents the response data for a candidate. The
// profile fingerprint is the canonical hash of the extracted fields, so
// distinct files that extracted to identical profiles report the same
// fingerprint.
type CandidateResponse struct {
	ID                 string    `json:"id"`
	ResumeID           string    `json:"resume_id"`
	FullName           string    `json:"full_name"`
	Email              string    `json:"email"`
	Phone              string    `json:"phone"`
	Skills             []string  `json:"skills"`
	YearsExperience    float64   `json:"years_experience"`
	Summary            string    `json:"summary"`
	ProfileFingerprint string    `json:"profile_fingerprint"`
	CreatedAt          time.Time `json:"created_at"`
}

// ResumeHandler handles resume-related HTTP requests.
type ResumeHandler struct {
	intakeService *service.IntakeService
	candidates    store.CandidateStore
	logger        *slog.Logger
}

// NewResumeHandler creates a new ResumeHandler.
func NewResumeHandler(intakeService *service.IntakeService, candidates store.CandidateStore, logger *slog.Logger) *ResumeHandler {
	return &ResumeHandler{
		intakeService: intakeService,
		candidates:    candidates,
		logger:        logger,
	}
}

// UploadResumes handles POST /api/resumes requests. It accepts a
// multipart/form-data body with one or more files under the "files" field
// and returns a per-file result. A failing file never fails the batch, so
// the response is 200 even when some units failed.
func (h *ResumeHandler) UploadResumes(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid multipart request")
		return
	}

	fileHeaders := r.MultipartForm.File["files"]
	if len(fileHeaders) == 0 {
		shared.RespondWithError(w, r, http.StatusBadRequest, "No files provided under the 'files' field")
		return
	}

	uploads := make([]service.ResumeUpload, 0, len(fileHeaders))
	for _, header := range fileHeaders {
		file, err := header.Open()
		if err != nil {
			shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Failed to read uploaded file", err)
			return
		}

		content, err := io.ReadAll(file)
		if closeErr := file.Close(); closeErr != nil {
			h.logger.WarnContext(r.Context(), "failed to close uploaded file",
				slog.String("file_name", header.Filename),
				slog.String("error", closeErr.Error()))
		}
		if err != nil {
			shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Failed to read uploaded file", err)
			return
		}

		uploads = append(uploads, service.ResumeUpload{
			FileName: header.Filename,
			Content:  content,
		})
	}

	results := h.intakeService.Submit(r.Context(), uploads)

	shared.RespondWithJSON(w, r, http.StatusOK, ResumeIntakeResponse{Results: results})
}

// GetCandidate handles GET /api/resumes/{id}/candidate requests, returning
// the profile extracted from the resume. A resume whose extraction has not
// completed yet has no candidate and reports 404.
func (h *ResumeHandler) GetCandidate(w http.ResponseWriter, r *http.Request) {
	resumeID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid resume id")
		return
	}

	candidate, err := h.candidates.GetByResumeID(r.Context(), resumeID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	response, err := candidateToDTOResponse(candidate)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError, "Failed to build candidate response", err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, response)
}

// candidateToDTOResponse converts a domain.Candidate to a CandidateResponse.
func candidateToDTOResponse(candidate *domain.Candidate) (CandidateResponse, error) {
	profileFingerprint, err := fingerprint.Profile(inference.CandidateProfile{
		FullName:        candidate.FullName,
		Email:           candidate.Email,
		Phone:           candidate.Phone,
		Skills:          candidate.Skills,
		YearsExperience: candidate.YearsExperience,
		Summary:         candidate.Summary,
	})
	if err != nil {
		return CandidateResponse{}, err
	}

	return CandidateResponse{
		ID:                 candidate.ID.String(),
		ResumeID:           candidate.ResumeID.String(),
		FullName:           candidate.FullName,
		Email:              candidate.Email,
		Phone:              candidate.Phone,
		Skills:             candidate.Skills,
		YearsExperience:    candidate.YearsExperience,
		Summary:            candidate.Summary,
		ProfileFingerprint: profileFingerprint,
		CreatedAt:          candidate.CreatedAt,
	}, nil
}

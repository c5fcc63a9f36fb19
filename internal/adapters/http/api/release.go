package api

import (
	"net/http"
	"time"
)

// ReleaseHandler serves the press release scoring routes.
type ReleaseHandler struct {
	svc ReleaseService
}

// NewReleaseHandler creates a new release handler.
func NewReleaseHandler(svc ReleaseService) *ReleaseHandler {
	return &ReleaseHandler{svc: svc}
}

type createJobRequest struct {
	ReleaseText  string `json:"release_text" validate:"required"`
	PopulationID string `json:"population_id" validate:"required"`
}

type jobResponse struct {
	JobID     string `json:"job_id"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
}

// HandleCreate serves POST /api/release-scores.
func (h *ReleaseHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createJobRequest
	if err := decodeValid(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}

	job, err := h.svc.StartJob(r.Context(), req.ReleaseText, req.PopulationID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, jobResponse{
		JobID:     job.ID,
		Status:    string(job.Status),
		CreatedAt: job.CreatedAt.Format(time.RFC3339),
	})
}

type stepRequest struct {
	Question int `json:"question" validate:"required,min=1"`
	MaxWaitS int `json:"max_wait_s" validate:"omitempty,min=1,max=120"`
}

// HandleStep serves POST /api/release-scores/{id}/step. Pending responses
// mean the unit is still in flight; the caller simply steps again.
func (h *ReleaseHandler) HandleStep(w http.ResponseWriter, r *http.Request) {
	var req stepRequest
	if err := decodeValid(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}

	res, err := h.svc.ProcessStep(r.Context(), r.PathValue("id"), req.Question, time.Duration(req.MaxWaitS)*time.Second)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleGet serves GET /api/release-scores/{id}.
func (h *ReleaseHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	progress, err := h.svc.Status(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, progress)
}

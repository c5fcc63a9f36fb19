package api

import (
	"net/http"
	"time"
)

// HeadlineHandler serves the headline testing routes.
type HeadlineHandler struct {
	svc HeadlineService
}

// NewHeadlineHandler creates a new headline handler.
func NewHeadlineHandler(svc HeadlineService) *HeadlineHandler {
	return &HeadlineHandler{svc: svc}
}

type createTestRequest struct {
	OriginalHeadline string `json:"original_headline" validate:"required"`
	ContextURL       string `json:"context_url" validate:"omitempty,url"`
}

type alternativeResponse struct {
	Text  string `json:"text"`
	Angle string `json:"angle"`
	Order int    `json:"order"`
}

type createTestResponse struct {
	TestID       string                `json:"test_id"`
	Status       string                `json:"status"`
	Alternatives []alternativeResponse `json:"alternatives"`
}

// HandleCreate serves POST /api/headline-tests: generation happens inline.
func (h *HeadlineHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createTestRequest
	if err := decodeValid(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}

	test, alts, err := h.svc.Generate(r.Context(), req.OriginalHeadline, req.ContextURL)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	resp := createTestResponse{TestID: test.ID, Status: string(test.Status)}
	for _, alt := range alts {
		resp.Alternatives = append(resp.Alternatives, alternativeResponse{
			Text:  alt.Text,
			Angle: string(alt.Angle),
			Order: alt.Order,
		})
	}
	writeJSON(w, http.StatusCreated, resp)
}

type audienceRequest struct {
	PopulationID    string `json:"population_id" validate:"required"`
	IncludeOriginal *bool  `json:"include_original"`
}

type audienceResponse struct {
	TestID   string   `json:"test_id"`
	ScoreIDs []string `json:"score_ids"`
}

// HandleAudience serves POST /api/headline-tests/{id}/audience. The
// original headline is tested alongside the alternatives unless the caller
// opts out.
func (h *HeadlineHandler) HandleAudience(w http.ResponseWriter, r *http.Request) {
	var req audienceRequest
	if err := decodeValid(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}
	includeOriginal := true
	if req.IncludeOriginal != nil {
		includeOriginal = *req.IncludeOriginal
	}

	testID := r.PathValue("id")
	scores, err := h.svc.StartAudienceTest(r.Context(), testID, req.PopulationID, includeOriginal)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	resp := audienceResponse{TestID: testID}
	for _, s := range scores {
		resp.ScoreIDs = append(resp.ScoreIDs, s.ID)
	}
	writeJSON(w, http.StatusOK, resp)
}

type headlineStepRequest struct {
	ScoreID  string `json:"score_id" validate:"required"`
	MaxWaitS int    `json:"max_wait_s" validate:"omitempty,min=1,max=120"`
}

// HandleStep serves POST /api/headline-tests/{id}/step.
func (h *HeadlineHandler) HandleStep(w http.ResponseWriter, r *http.Request) {
	var req headlineStepRequest
	if err := decodeValid(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}

	res, err := h.svc.ProcessStep(r.Context(), r.PathValue("id"), req.ScoreID, time.Duration(req.MaxWaitS)*time.Second)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleGet serves GET /api/headline-tests/{id}.
func (h *HeadlineHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	progress, err := h.svc.Progress(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, progress)
}

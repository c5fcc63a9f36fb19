// Package api declares the HTTP surface: route registration, request
// decoding and the error-to-status mapping shared by all handlers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/prsim/prsim/internal/adapters/repository"
	"github.com/prsim/prsim/internal/campaign"
	"github.com/prsim/prsim/internal/domain/model"
	"github.com/prsim/prsim/internal/domain/rubric"
	"github.com/prsim/prsim/internal/domain/types"
	"github.com/prsim/prsim/internal/headline"
	"github.com/prsim/prsim/internal/release"
)

// ReleaseService is the slice of the release engine the API exposes.
type ReleaseService interface {
	StartJob(ctx context.Context, releaseText, populationID string) (model.ScoringJob, error)
	ProcessStep(ctx context.Context, jobID string, number int, maxWait time.Duration) (types.StepResult, error)
	Status(ctx context.Context, jobID string) (types.JobProgress, error)
}

// HeadlineService is the slice of the headline engine the API exposes.
type HeadlineService interface {
	Generate(ctx context.Context, original, contextURL string) (model.HeadlineTest, []model.AlternativeHeadline, error)
	StartAudienceTest(ctx context.Context, testID, populationID string, includeOriginal bool) ([]model.HeadlineScore, error)
	ProcessStep(ctx context.Context, testID, scoreID string, maxWait time.Duration) (types.StepResult, error)
	Progress(ctx context.Context, testID string) (types.TestProgress, error)
}

// CampaignService is the slice of the campaign engine the API exposes.
type CampaignService interface {
	CreateContact(ctx context.Context, c model.Contact) (model.Contact, error)
	Contacts(ctx context.Context, activeOnly bool) ([]model.Contact, error)
	CreateCampaign(ctx context.Context, name, subject, body string) (model.Campaign, error)
	Send(ctx context.Context, campaignID string, contactIDs []string) ([]model.Recipient, error)
	Status(ctx context.Context, campaignID string) (types.CampaignCounts, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	releaseHandler  *ReleaseHandler
	headlineHandler *HeadlineHandler
	campaignHandler *CampaignHandler
}

// NewServer creates an API server with all handlers.
func NewServer(releases ReleaseService, headlines HeadlineService, campaigns CampaignService, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:   NewHealthHandler(),
		statsHandler:    NewStatsHandler(statsProvider),
		releaseHandler:  NewReleaseHandler(releases),
		headlineHandler: NewHeadlineHandler(headlines),
		campaignHandler: NewCampaignHandler(campaigns),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("POST /api/release-scores", MetricsMiddleware(s.releaseHandler.HandleCreate, "release_create"))
	mux.HandleFunc("POST /api/release-scores/{id}/step", MetricsMiddleware(s.releaseHandler.HandleStep, "release_step"))
	mux.HandleFunc("GET /api/release-scores/{id}", MetricsMiddleware(s.releaseHandler.HandleGet, "release_get"))

	mux.HandleFunc("POST /api/headline-tests", MetricsMiddleware(s.headlineHandler.HandleCreate, "headline_create"))
	mux.HandleFunc("POST /api/headline-tests/{id}/audience", MetricsMiddleware(s.headlineHandler.HandleAudience, "headline_audience"))
	mux.HandleFunc("POST /api/headline-tests/{id}/step", MetricsMiddleware(s.headlineHandler.HandleStep, "headline_step"))
	mux.HandleFunc("GET /api/headline-tests/{id}", MetricsMiddleware(s.headlineHandler.HandleGet, "headline_get"))

	mux.HandleFunc("POST /api/contacts", MetricsMiddleware(s.campaignHandler.HandleCreateContact, "contact_create"))
	mux.HandleFunc("GET /api/contacts", MetricsMiddleware(s.campaignHandler.HandleListContacts, "contact_list"))
	mux.HandleFunc("POST /api/campaigns", MetricsMiddleware(s.campaignHandler.HandleCreateCampaign, "campaign_create"))
	mux.HandleFunc("POST /api/campaigns/{id}/send", MetricsMiddleware(s.campaignHandler.HandleSend, "campaign_send"))
	mux.HandleFunc("GET /api/campaigns/{id}", MetricsMiddleware(s.campaignHandler.HandleGet, "campaign_get"))
}

var validate = validator.New()

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// decodeValid decodes the JSON body into dst and runs struct validation.
func decodeValid(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return Wrap("decode body", ErrBadRequest)
	}
	if err := validate.Struct(dst); err != nil {
		return WrapKind(err, ErrBadRequest)
	}
	return nil
}

// writeDomainError maps engine and store errors onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, release.ErrEmptyRelease),
		errors.Is(err, release.ErrReleaseTooLong),
		errors.Is(err, release.ErrMissingPopulation),
		errors.Is(err, rubric.ErrQuestionOutOfRange),
		errors.Is(err, headline.ErrEmptyHeadline),
		errors.Is(err, headline.ErrMissingPopulation),
		errors.Is(err, campaign.ErrMissingName),
		errors.Is(err, campaign.ErrMissingSubject),
		errors.Is(err, campaign.ErrMissingBody),
		errors.Is(err, campaign.ErrMissingEmail):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, repository.ErrDuplicateEmail),
		errors.Is(err, campaign.ErrNotDraft),
		errors.Is(err, campaign.ErrNoRecipients),
		errors.Is(err, headline.ErrNotGenerated),
		errors.Is(err, headline.ErrNotTesting),
		errors.Is(err, headline.ErrTestFailed),
		errors.Is(err, release.ErrJobFailed):
		writeError(w, http.StatusConflict, "conflict", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal", err)
	}
}

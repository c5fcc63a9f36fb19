package api

import (
	"net/http"

	"github.com/prsim/prsim/internal/domain/model"
)

// CampaignHandler serves the contact and campaign routes.
type CampaignHandler struct {
	svc CampaignService
}

// NewCampaignHandler creates a new campaign handler.
func NewCampaignHandler(svc CampaignService) *CampaignHandler {
	return &CampaignHandler{svc: svc}
}

type contactRequest struct {
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Email        string `json:"email" validate:"required,email"`
	Organization string `json:"organization"`
	JobTitle     string `json:"job_title"`
}

type contactResponse struct {
	ContactID    string `json:"contact_id"`
	FirstName    string `json:"first_name,omitempty"`
	LastName     string `json:"last_name,omitempty"`
	Email        string `json:"email"`
	Organization string `json:"organization,omitempty"`
	JobTitle     string `json:"job_title,omitempty"`
	Active       bool   `json:"active"`
}

// HandleCreateContact serves POST /api/contacts.
func (h *CampaignHandler) HandleCreateContact(w http.ResponseWriter, r *http.Request) {
	var req contactRequest
	if err := decodeValid(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}

	c, err := h.svc.CreateContact(r.Context(), model.Contact{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		Organization: req.Organization,
		JobTitle:     req.JobTitle,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toContactResponse(c))
}

// HandleListContacts serves GET /api/contacts; ?active=true filters.
func (h *CampaignHandler) HandleListContacts(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") == "true"
	contacts, err := h.svc.Contacts(r.Context(), activeOnly)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	out := make([]contactResponse, 0, len(contacts))
	for _, c := range contacts {
		out = append(out, toContactResponse(c))
	}
	writeJSON(w, http.StatusOK, out)
}

type campaignRequest struct {
	Name    string `json:"name" validate:"required"`
	Subject string `json:"subject" validate:"required"`
	Body    string `json:"body" validate:"required"`
}

type campaignResponse struct {
	CampaignID string `json:"campaign_id"`
	Status     string `json:"status"`
}

// HandleCreateCampaign serves POST /api/campaigns.
func (h *CampaignHandler) HandleCreateCampaign(w http.ResponseWriter, r *http.Request) {
	var req campaignRequest
	if err := decodeValid(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}

	c, err := h.svc.CreateCampaign(r.Context(), req.Name, req.Subject, req.Body)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, campaignResponse{CampaignID: c.ID, Status: string(c.Status)})
}

type sendRequest struct {
	ContactIDs []string `json:"contact_ids"`
}

// HandleSend serves POST /api/campaigns/{id}/send. An empty body or empty
// contact list sends to every active contact.
func (h *CampaignHandler) HandleSend(w http.ResponseWriter, r *http.Request) {
	var req sendRequest
	if r.ContentLength > 0 {
		if err := decodeValid(r, &req); err != nil {
			writeDomainError(w, err)
			return
		}
	}

	campaignID := r.PathValue("id")
	if _, err := h.svc.Send(r.Context(), campaignID, req.ContactIDs); err != nil {
		writeDomainError(w, err)
		return
	}
	counts, err := h.svc.Status(r.Context(), campaignID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, counts)
}

// HandleGet serves GET /api/campaigns/{id}.
func (h *CampaignHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	counts, err := h.svc.Status(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, counts)
}

func toContactResponse(c model.Contact) contactResponse {
	return contactResponse{
		ContactID:    c.ID,
		FirstName:    c.FirstName,
		LastName:     c.LastName,
		Email:        c.Email,
		Organization: c.Organization,
		JobTitle:     c.JobTitle,
		Active:       c.Active,
	}
}

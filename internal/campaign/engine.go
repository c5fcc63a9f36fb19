// Package campaign manages contacts and bulk email distribution. Sending a
// campaign personalizes one recipient per contact with mail merge and hands
// each off to the dispatch queue; workers report outcomes back through the
// store's atomic counters.
package campaign

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/prsim/prsim/internal/adapters/mq/queue"
	"github.com/prsim/prsim/internal/adapters/repository"
	"github.com/prsim/prsim/internal/domain/mailmerge"
	"github.com/prsim/prsim/internal/domain/model"
	"github.com/prsim/prsim/internal/domain/types"
	"github.com/prsim/prsim/pkg/logger"
)

// Enqueuer is the slice of the dispatch queue the engine needs.
type Enqueuer interface {
	Enqueue(ctx context.Context, d queue.Dispatch) bool
}

// Store combines the campaign and contact persistence the engine uses.
type Store interface {
	repository.CampaignStore
	repository.ContactStore
}

// Engine creates contacts and campaigns and starts sends.
type Engine struct {
	store Store
	queue Enqueuer
	log   logger.Logger
}

// New builds an Engine over a store and a dispatch queue.
func New(store Store, q Enqueuer, opts ...Option) *Engine {
	e := &Engine{
		store: store,
		queue: q,
		log:   logger.Named("campaign"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// CreateContact validates and stores a contact.
func (e *Engine) CreateContact(ctx context.Context, c model.Contact) (model.Contact, error) {
	c.Email = strings.TrimSpace(c.Email)
	if c.Email == "" {
		return model.Contact{}, ErrMissingEmail
	}
	c.ID = uuid.NewString()
	c.Active = true
	c.CreatedAt = time.Now().UTC()
	if err := e.store.CreateContact(ctx, &c); err != nil {
		return model.Contact{}, err
	}
	return c, nil
}

// Contacts lists stored contacts.
func (e *Engine) Contacts(ctx context.Context, activeOnly bool) ([]model.Contact, error) {
	return e.store.ListContacts(ctx, activeOnly)
}

// CreateCampaign validates and stores a draft campaign. Subject and body
// may carry mail merge variables.
func (e *Engine) CreateCampaign(ctx context.Context, name, subject, body string) (model.Campaign, error) {
	switch {
	case strings.TrimSpace(name) == "":
		return model.Campaign{}, ErrMissingName
	case strings.TrimSpace(subject) == "":
		return model.Campaign{}, ErrMissingSubject
	case strings.TrimSpace(body) == "":
		return model.Campaign{}, ErrMissingBody
	}

	c := model.Campaign{
		ID:        uuid.NewString(),
		Name:      name,
		Subject:   subject,
		Body:      body,
		Status:    model.CampaignDraft,
		CreatedAt: time.Now().UTC(),
	}
	if err := e.store.CreateCampaign(ctx, &c); err != nil {
		return model.Campaign{}, fmt.Errorf("create campaign: %w", err)
	}
	return c, nil
}

// Send personalizes the campaign for every active contact (or the given
// contact ids), flips it to sending and enqueues one dispatch per
// recipient. A dispatch the queue refuses is recorded as failed right away.
func (e *Engine) Send(ctx context.Context, campaignID string, contactIDs []string) ([]model.Recipient, error) {
	c, err := e.store.Campaign(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	if c.Status != model.CampaignDraft {
		return nil, fmt.Errorf("campaign %s is %s: %w", campaignID, c.Status, ErrNotDraft)
	}

	contacts, err := e.resolveContacts(ctx, contactIDs)
	if err != nil {
		return nil, err
	}
	if len(contacts) == 0 {
		return nil, fmt.Errorf("campaign %s: %w", campaignID, ErrNoRecipients)
	}

	recipients := make([]model.Recipient, 0, len(contacts))
	for i := range contacts {
		contact := contacts[i]
		recipients = append(recipients, model.Recipient{
			ID:         uuid.NewString(),
			CampaignID: campaignID,
			ContactID:  contact.ID,
			Email:      contact.Email,
			Subject:    mailmerge.Apply(c.Subject, &contact),
			Body:       mailmerge.Apply(c.Body, &contact),
			Status:     model.RecipientPending,
		})
	}
	if err := e.store.AddRecipients(ctx, campaignID, recipients); err != nil {
		return nil, fmt.Errorf("add recipients: %w", err)
	}
	if err := e.store.SetCampaignStatus(ctx, campaignID, model.CampaignSending); err != nil {
		return nil, fmt.Errorf("mark sending: %w", err)
	}

	for _, r := range recipients {
		ok := e.queue.Enqueue(ctx, queue.Dispatch{
			CampaignID:  campaignID,
			RecipientID: r.ID,
			Email:       r.Email,
			Subject:     r.Subject,
			Body:        r.Body,
		})
		if !ok {
			e.log.Warn(ctx, "dispatch queue refused recipient",
				logger.String("campaign_id", campaignID),
				logger.String("recipient_id", r.ID))
			if err := e.store.MarkRecipientFailed(ctx, r.ID, "dispatch queue full"); err != nil {
				e.log.Error(ctx, "could not record queue refusal", logger.Error(err))
			}
		}
	}
	if _, _, err := e.store.CompleteCampaignIfDone(ctx, campaignID); err != nil {
		e.log.Error(ctx, "could not check campaign completion", logger.Error(err))
	}

	e.log.Info(ctx, "campaign dispatched",
		logger.String("campaign_id", campaignID),
		logger.Int("recipients", len(recipients)))
	return recipients, nil
}

// Status aggregates the campaign's dispatch counters.
func (e *Engine) Status(ctx context.Context, campaignID string) (types.CampaignCounts, error) {
	c, err := e.store.Campaign(ctx, campaignID)
	if err != nil {
		return types.CampaignCounts{}, err
	}
	return types.CampaignCounts{
		CampaignID: c.ID,
		Status:     string(c.Status),
		Total:      c.TotalRecipients,
		Pending:    c.PendingCount(),
		Sent:       c.SentCount,
		Failed:     c.FailedCount,
	}, nil
}

func (e *Engine) resolveContacts(ctx context.Context, contactIDs []string) ([]model.Contact, error) {
	if len(contactIDs) == 0 {
		return e.store.ListContacts(ctx, true)
	}
	contacts := make([]model.Contact, 0, len(contactIDs))
	for _, id := range contactIDs {
		c, err := e.store.Contact(ctx, id)
		if err != nil {
			return nil, err
		}
		contacts = append(contacts, c)
	}
	return contacts, nil
}

// Package repository defines the persistence contracts for scoring jobs,
// headline tests, campaigns and contacts, plus the in-memory and Postgres
// implementations.
//
// The store owns the aggregate reducers: resolving a work unit and bumping
// the owning totals happens in one atomic operation so two units completing
// in close succession can never produce a lost update, and resolving the
// same unit twice is rejected with ErrAlreadyScored rather than
// double-counted.
package repository

import (
	"context"
	"time"

	"github.com/prsim/prsim/internal/domain/model"
)

// JobStore persists press release scoring jobs and their work units.
type JobStore interface {
	CreateJob(ctx context.Context, job *model.ScoringJob) error
	Job(ctx context.Context, id string) (model.ScoringJob, error)
	ListJobsByStatus(ctx context.Context, status model.JobStatus) ([]model.ScoringJob, error)

	// SetJobStatus records a status change; errText is kept only for failed.
	SetJobStatus(ctx context.Context, id string, status model.JobStatus, errText string) error

	// EnsureCategory creates the category row on first use and returns it.
	EnsureCategory(ctx context.Context, jobID, key, displayName string) (model.CategoryScore, error)
	Categories(ctx context.Context, jobID string) ([]model.CategoryScore, error)

	// Question looks up a work unit by its global number; ok is false when
	// the unit has not been created yet.
	Question(ctx context.Context, jobID string, number int) (model.QuestionScore, bool, error)
	CreateQuestion(ctx context.Context, q *model.QuestionScore) error
	SetQuestionAnswerID(ctx context.Context, jobID string, number int, answerID string) error
	Questions(ctx context.Context, jobID string) ([]model.QuestionScore, error)

	// ResolveQuestion is the aggregate reducer: atomically persists the
	// unit's score, adds it to the category subtotal and job total, bumps
	// the processed count and flips the job to done when the count reaches
	// rubricSize. Returns ErrAlreadyScored if the unit is already resolved.
	ResolveQuestion(ctx context.Context, jobID string, number int, score int, raw map[string]float64, rubricSize int) (model.ScoringJob, error)
}

// HeadlineStore persists headline tests, alternatives and their scores.
type HeadlineStore interface {
	CreateTest(ctx context.Context, t *model.HeadlineTest) error
	Test(ctx context.Context, id string) (model.HeadlineTest, error)
	ListTestsByStatus(ctx context.Context, status model.TestStatus) ([]model.HeadlineTest, error)
	SetTestStatus(ctx context.Context, id string, status model.TestStatus, errText string) error
	SetTestPopulation(ctx context.Context, id, populationID string) error

	AddAlternative(ctx context.Context, alt *model.AlternativeHeadline) error
	Alternatives(ctx context.Context, testID string) ([]model.AlternativeHeadline, error)

	CreateHeadlineScore(ctx context.Context, s *model.HeadlineScore) error
	// HeadlineScores returns the test's score rows in creation order, which
	// is also the tie-break order for the winner.
	HeadlineScores(ctx context.Context, testID string) ([]model.HeadlineScore, error)
	HeadlineScore(ctx context.Context, id string) (model.HeadlineScore, error)
	SetHeadlineAnswerID(ctx context.Context, id, answerID string) error

	// ResolveHeadlineScore persists the final preference; ErrAlreadyScored
	// if the variant is already resolved.
	ResolveHeadlineScore(ctx context.Context, id string, preference float64, at time.Time) error

	// FinalizeTest records the winner and derived stats and flips the test
	// to completed.
	FinalizeTest(ctx context.Context, id string, winner string, winScore float64, origScore, improvement *float64) error
}

// CampaignStore persists campaigns and recipient dispatch state.
type CampaignStore interface {
	CreateCampaign(ctx context.Context, c *model.Campaign) error
	Campaign(ctx context.Context, id string) (model.Campaign, error)
	SetCampaignStatus(ctx context.Context, id string, status model.CampaignStatus) error

	// AddRecipients attaches prepared recipients and sets TotalRecipients.
	AddRecipients(ctx context.Context, campaignID string, recipients []model.Recipient) error
	Recipients(ctx context.Context, campaignID string) ([]model.Recipient, error)

	MarkRecipientSending(ctx context.Context, id string) error
	// MarkRecipientSent / MarkRecipientFailed atomically bump the campaign
	// counters along with the recipient row.
	MarkRecipientSent(ctx context.Context, id string, at time.Time) error
	MarkRecipientFailed(ctx context.Context, id string, errText string) error

	// CompleteCampaignIfDone flips the campaign to its terminal state once
	// no recipient is left pending or sending. Returns the campaign and
	// whether it is now terminal.
	CompleteCampaignIfDone(ctx context.Context, campaignID string) (model.Campaign, bool, error)
}

// ContactStore persists the outreach contact database.
type ContactStore interface {
	CreateContact(ctx context.Context, c *model.Contact) error
	Contact(ctx context.Context, id string) (model.Contact, error)
	ListContacts(ctx context.Context, activeOnly bool) ([]model.Contact, error)
}

// Store is the full persistence surface. Engines depend on the narrow
// interfaces above; only wiring code sees Store.
type Store interface {
	JobStore
	HeadlineStore
	CampaignStore
	ContactStore
}

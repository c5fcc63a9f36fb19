// Package model contains domain entities passed between layers.
package model

import (
	"math"
	"time"
)

// JobStatus tracks the lifecycle of a scoring job. A job is created once,
// advances monotonically and reaches a terminal state exactly once.
type JobStatus string

const (
	JobPending JobStatus = "pending"
	JobRunning JobStatus = "running"
	JobDone    JobStatus = "done"
	JobFailed  JobStatus = "failed"
)

// Terminal reports whether the status admits no further transitions.
func (s JobStatus) Terminal() bool { return s == JobDone || s == JobFailed }

// ScoringJob is one overall press release scoring task.
type ScoringJob struct {
	ID           string
	ReleaseText  string
	PopulationID string
	Status       JobStatus
	// ProcessedCount only ever increases; TotalScore only grows by each
	// resolved unit's score.
	ProcessedCount int
	TotalScore     int
	ErrorText      string
	CreatedAt      time.Time
}

// ScorePercentage returns total_score/max_possible*100 rounded to 1 decimal.
func (j *ScoringJob) ScorePercentage(maxPossible int) float64 {
	if maxPossible <= 0 {
		return 0
	}
	return round1(float64(j.TotalScore) / float64(maxPossible) * 100)
}

// CompletionPercentage returns processed/size*100 rounded to 1 decimal.
func (j *ScoringJob) CompletionPercentage(size int) float64 {
	if size <= 0 {
		return 0
	}
	return round1(float64(j.ProcessedCount) / float64(size) * 100)
}

// CategoryScore holds one rubric category's running subtotal for a job.
// Created lazily on the first question of the category.
type CategoryScore struct {
	ID          string
	JobID       string
	Key         string
	DisplayName string
	Subtotal    int
}

// QuestionScore is one work unit: a rubric question bound to the job's
// release text. At most one external submission per unit; once AnswerID is
// set, callers resume polling instead of resubmitting.
type QuestionScore struct {
	ID           string
	JobID        string
	CategoryKey  string
	Number       int // global 1..30
	QuestionText string
	AnswerID     string
	Score        *int // nil until resolved
	RawResponse  map[string]float64
}

// Resolved reports whether the unit carries a final score.
func (q *QuestionScore) Resolved() bool { return q.Score != nil }

// TestStatus tracks the lifecycle of a headline test.
type TestStatus string

const (
	TestPending   TestStatus = "pending"
	TestGenerated TestStatus = "generated"
	TestTesting   TestStatus = "testing"
	TestCompleted TestStatus = "completed"
	TestFailed    TestStatus = "failed"
)

// HeadlineTest is one headline preference testing task.
type HeadlineTest struct {
	ID               string
	OriginalHeadline string
	ContextURL       string
	PopulationID     string
	Status           TestStatus
	ErrorText        string

	WinningHeadline    string
	WinningScore       *float64
	OriginalScore      *float64
	ImprovementPercent *float64

	CreatedAt time.Time
}

// AngleType labels the editorial angle of a generated alternative.
type AngleType string

const (
	AngleHardNews      AngleType = "hard_news"
	AngleHumanInterest AngleType = "human_interest"
	AngleConflict      AngleType = "conflict_controversy"
	AngleLocal         AngleType = "local_angle"
	AngleTrend         AngleType = "trend_bigger_picture"
)

// AngleForOrder maps a generation slot (1-5) to its angle.
func AngleForOrder(order int) AngleType {
	switch order {
	case 1:
		return AngleHardNews
	case 2:
		return AngleHumanInterest
	case 3:
		return AngleConflict
	case 4:
		return AngleLocal
	case 5:
		return AngleTrend
	default:
		return AngleHardNews
	}
}

// AlternativeHeadline is one generated variant of the original headline.
type AlternativeHeadline struct {
	ID        string
	TestID    string
	Text      string
	Angle     AngleType
	Order     int // 1..5
	CreatedAt time.Time
}

// HeadlineScore is one preference-test work unit: a headline variant (or the
// original) submitted to the simulation. Same resume-by-answer-id rule as
// QuestionScore.
type HeadlineScore struct {
	ID         string
	TestID     string
	Text       string
	IsOriginal bool
	AnswerID   string
	Preference *float64 // weighted 1..5, nil until resolved
	CreatedAt  time.Time
	ResolvedAt *time.Time
}

// Resolved reports whether the variant carries a final preference.
func (h *HeadlineScore) Resolved() bool { return h.Preference != nil }

// CampaignStatus tracks the lifecycle of an email campaign.
type CampaignStatus string

const (
	CampaignDraft     CampaignStatus = "draft"
	CampaignSending   CampaignStatus = "sending"
	CampaignCompleted CampaignStatus = "completed"
	CampaignFailed    CampaignStatus = "failed"
)

// Campaign is one bulk email distribution.
type Campaign struct {
	ID      string
	Name    string
	Subject string
	Body    string
	Status  CampaignStatus

	TotalRecipients int
	SentCount       int
	FailedCount     int

	CreatedAt   time.Time
	CompletedAt *time.Time
}

// PendingCount derives how many recipients are still in flight.
func (c *Campaign) PendingCount() int {
	n := c.TotalRecipients - c.SentCount - c.FailedCount
	if n < 0 {
		return 0
	}
	return n
}

// RecipientStatus tracks one recipient's send state.
type RecipientStatus string

const (
	RecipientPending RecipientStatus = "pending"
	RecipientSending RecipientStatus = "sending"
	RecipientSent    RecipientStatus = "sent"
	RecipientFailed  RecipientStatus = "failed"
)

// Recipient binds a contact to a campaign with personalized content.
type Recipient struct {
	ID         string
	CampaignID string
	ContactID  string
	Email      string
	Subject    string
	Body       string
	Status     RecipientStatus
	ErrorText  string
	SentAt     *time.Time
}

// Contact is an addressable person in the outreach database.
type Contact struct {
	ID           string
	FirstName    string
	LastName     string
	Email        string
	Organization string
	JobTitle     string
	Active       bool
	CreatedAt    time.Time
}

// FullName joins the name parts for mail merge.
func (c *Contact) FullName() string {
	switch {
	case c.FirstName == "":
		return c.LastName
	case c.LastName == "":
		return c.FirstName
	default:
		return c.FirstName + " " + c.LastName
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

package repository

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/prsim/prsim/internal/domain/model"
)

// MemStore is the in-memory Store used by tests and single-node runs. All
// aggregate reducers run under one mutex so counters stay consistent without
// relying on caller discipline.
type MemStore struct {
	mu sync.RWMutex

	jobs       map[string]*model.ScoringJob
	categories map[string]map[string]*model.CategoryScore // jobID -> key
	catOrder   map[string][]string                        // jobID -> keys in creation order
	questions  map[string]map[int]*model.QuestionScore    // jobID -> number

	tests        map[string]*model.HeadlineTest
	alternatives map[string][]*model.AlternativeHeadline // testID, creation order
	scores       map[string][]*model.HeadlineScore       // testID, creation order
	scoreByID    map[string]*model.HeadlineScore

	campaigns  map[string]*model.Campaign
	recipients map[string][]*model.Recipient // campaignID, creation order
	recipByID  map[string]*model.Recipient

	contacts     map[string]*model.Contact
	contactOrder []string
	emails       map[string]string // lower email -> contact id
}

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		jobs:         make(map[string]*model.ScoringJob),
		categories:   make(map[string]map[string]*model.CategoryScore),
		catOrder:     make(map[string][]string),
		questions:    make(map[string]map[int]*model.QuestionScore),
		tests:        make(map[string]*model.HeadlineTest),
		alternatives: make(map[string][]*model.AlternativeHeadline),
		scores:       make(map[string][]*model.HeadlineScore),
		scoreByID:    make(map[string]*model.HeadlineScore),
		campaigns:    make(map[string]*model.Campaign),
		recipients:   make(map[string][]*model.Recipient),
		recipByID:    make(map[string]*model.Recipient),
		contacts:     make(map[string]*model.Contact),
		emails:       make(map[string]string),
	}
}

var _ Store = (*MemStore)(nil)

// --- jobs ---

func (m *MemStore) CreateJob(_ context.Context, job *model.ScoringJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *job
	m.jobs[job.ID] = &cp
	return nil
}

func (m *MemStore) Job(_ context.Context, id string) (model.ScoringJob, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	j, ok := m.jobs[id]
	if !ok {
		return model.ScoringJob{}, fmt.Errorf("job %s: %w", id, ErrNotFound)
	}
	return *j, nil
}

func (m *MemStore) ListJobsByStatus(_ context.Context, status model.JobStatus) ([]model.ScoringJob, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []model.ScoringJob
	for _, j := range m.jobs {
		if j.Status == status {
			out = append(out, *j)
		}
	}
	return out, nil
}

func (m *MemStore) SetJobStatus(_ context.Context, id string, status model.JobStatus, errText string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	j, ok := m.jobs[id]
	if !ok {
		return fmt.Errorf("job %s: %w", id, ErrNotFound)
	}
	if j.Status.Terminal() && j.Status != status {
		return fmt.Errorf("job %s is %s: %w", id, j.Status, ErrInvalidTransition)
	}
	j.Status = status
	if status == model.JobFailed {
		j.ErrorText = errText
	}
	return nil
}

func (m *MemStore) EnsureCategory(_ context.Context, jobID, key, displayName string) (model.CategoryScore, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.jobs[jobID]; !ok {
		return model.CategoryScore{}, fmt.Errorf("job %s: %w", jobID, ErrNotFound)
	}
	cats, ok := m.categories[jobID]
	if !ok {
		cats = make(map[string]*model.CategoryScore)
		m.categories[jobID] = cats
	}
	if c, ok := cats[key]; ok {
		return *c, nil
	}
	c := &model.CategoryScore{
		ID:          jobID + "/" + key,
		JobID:       jobID,
		Key:         key,
		DisplayName: displayName,
	}
	cats[key] = c
	m.catOrder[jobID] = append(m.catOrder[jobID], key)
	return *c, nil
}

func (m *MemStore) Categories(_ context.Context, jobID string) ([]model.CategoryScore, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := m.catOrder[jobID]
	out := make([]model.CategoryScore, 0, len(keys))
	for _, k := range keys {
		out = append(out, *m.categories[jobID][k])
	}
	return out, nil
}

func (m *MemStore) Question(_ context.Context, jobID string, number int) (model.QuestionScore, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	q, ok := m.questions[jobID][number]
	if !ok {
		return model.QuestionScore{}, false, nil
	}
	return copyQuestion(q), true, nil
}

func (m *MemStore) CreateQuestion(_ context.Context, q *model.QuestionScore) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.jobs[q.JobID]; !ok {
		return fmt.Errorf("job %s: %w", q.JobID, ErrNotFound)
	}
	qs, ok := m.questions[q.JobID]
	if !ok {
		qs = make(map[int]*model.QuestionScore)
		m.questions[q.JobID] = qs
	}
	cp := copyQuestion(q)
	qs[q.Number] = &cp
	return nil
}

func (m *MemStore) SetQuestionAnswerID(_ context.Context, jobID string, number int, answerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	q, ok := m.questions[jobID][number]
	if !ok {
		return fmt.Errorf("job %s question %d: %w", jobID, number, ErrNotFound)
	}
	q.AnswerID = answerID
	return nil
}

func (m *MemStore) Questions(_ context.Context, jobID string) ([]model.QuestionScore, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	qs := m.questions[jobID]
	out := make([]model.QuestionScore, 0, len(qs))
	for _, q := range qs {
		out = append(out, copyQuestion(q))
	}
	return out, nil
}

func (m *MemStore) ResolveQuestion(_ context.Context, jobID string, number int, score int, raw map[string]float64, rubricSize int) (model.ScoringJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	j, ok := m.jobs[jobID]
	if !ok {
		return model.ScoringJob{}, fmt.Errorf("job %s: %w", jobID, ErrNotFound)
	}
	q, ok := m.questions[jobID][number]
	if !ok {
		return model.ScoringJob{}, fmt.Errorf("job %s question %d: %w", jobID, number, ErrNotFound)
	}
	if q.Score != nil {
		return model.ScoringJob{}, fmt.Errorf("job %s question %d: %w", jobID, number, ErrAlreadyScored)
	}

	s := score
	q.Score = &s
	q.RawResponse = copyRaw(raw)

	if c, ok := m.categories[jobID][q.CategoryKey]; ok {
		c.Subtotal += score
	}
	j.TotalScore += score
	j.ProcessedCount++
	if j.ProcessedCount >= rubricSize {
		j.Status = model.JobDone
	} else if j.Status == model.JobPending {
		j.Status = model.JobRunning
	}
	return *j, nil
}

// --- headline tests ---

func (m *MemStore) CreateTest(_ context.Context, t *model.HeadlineTest) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *t
	m.tests[t.ID] = &cp
	return nil
}

func (m *MemStore) Test(_ context.Context, id string) (model.HeadlineTest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, ok := m.tests[id]
	if !ok {
		return model.HeadlineTest{}, fmt.Errorf("headline test %s: %w", id, ErrNotFound)
	}
	return *t, nil
}

func (m *MemStore) ListTestsByStatus(_ context.Context, status model.TestStatus) ([]model.HeadlineTest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []model.HeadlineTest
	for _, t := range m.tests {
		if t.Status == status {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (m *MemStore) SetTestStatus(_ context.Context, id string, status model.TestStatus, errText string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tests[id]
	if !ok {
		return fmt.Errorf("headline test %s: %w", id, ErrNotFound)
	}
	t.Status = status
	if status == model.TestFailed {
		t.ErrorText = errText
	}
	return nil
}

func (m *MemStore) SetTestPopulation(_ context.Context, id, populationID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tests[id]
	if !ok {
		return fmt.Errorf("headline test %s: %w", id, ErrNotFound)
	}
	t.PopulationID = populationID
	return nil
}

func (m *MemStore) AddAlternative(_ context.Context, alt *model.AlternativeHeadline) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.tests[alt.TestID]; !ok {
		return fmt.Errorf("headline test %s: %w", alt.TestID, ErrNotFound)
	}
	cp := *alt
	m.alternatives[alt.TestID] = append(m.alternatives[alt.TestID], &cp)
	return nil
}

func (m *MemStore) Alternatives(_ context.Context, testID string) ([]model.AlternativeHeadline, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	alts := m.alternatives[testID]
	out := make([]model.AlternativeHeadline, 0, len(alts))
	for _, a := range alts {
		out = append(out, *a)
	}
	return out, nil
}

func (m *MemStore) CreateHeadlineScore(_ context.Context, s *model.HeadlineScore) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.tests[s.TestID]; !ok {
		return fmt.Errorf("headline test %s: %w", s.TestID, ErrNotFound)
	}
	cp := *s
	m.scores[s.TestID] = append(m.scores[s.TestID], &cp)
	m.scoreByID[s.ID] = &cp
	return nil
}

func (m *MemStore) HeadlineScores(_ context.Context, testID string) ([]model.HeadlineScore, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ss := m.scores[testID]
	out := make([]model.HeadlineScore, 0, len(ss))
	for _, s := range ss {
		out = append(out, *s)
	}
	return out, nil
}

func (m *MemStore) HeadlineScore(_ context.Context, id string) (model.HeadlineScore, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.scoreByID[id]
	if !ok {
		return model.HeadlineScore{}, fmt.Errorf("headline score %s: %w", id, ErrNotFound)
	}
	return *s, nil
}

func (m *MemStore) SetHeadlineAnswerID(_ context.Context, id, answerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.scoreByID[id]
	if !ok {
		return fmt.Errorf("headline score %s: %w", id, ErrNotFound)
	}
	s.AnswerID = answerID
	return nil
}

func (m *MemStore) ResolveHeadlineScore(_ context.Context, id string, preference float64, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.scoreByID[id]
	if !ok {
		return fmt.Errorf("headline score %s: %w", id, ErrNotFound)
	}
	if s.Preference != nil {
		return fmt.Errorf("headline score %s: %w", id, ErrAlreadyScored)
	}
	p := preference
	t := at
	s.Preference = &p
	s.ResolvedAt = &t
	return nil
}

func (m *MemStore) FinalizeTest(_ context.Context, id string, winner string, winScore float64, origScore, improvement *float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tests[id]
	if !ok {
		return fmt.Errorf("headline test %s: %w", id, ErrNotFound)
	}
	w := winScore
	t.WinningHeadline = winner
	t.WinningScore = &w
	t.OriginalScore = copyFloat(origScore)
	t.ImprovementPercent = copyFloat(improvement)
	t.Status = model.TestCompleted
	return nil
}

// --- campaigns ---

func (m *MemStore) CreateCampaign(_ context.Context, c *model.Campaign) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *c
	m.campaigns[c.ID] = &cp
	return nil
}

func (m *MemStore) Campaign(_ context.Context, id string) (model.Campaign, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.campaigns[id]
	if !ok {
		return model.Campaign{}, fmt.Errorf("campaign %s: %w", id, ErrNotFound)
	}
	return *c, nil
}

func (m *MemStore) SetCampaignStatus(_ context.Context, id string, status model.CampaignStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.campaigns[id]
	if !ok {
		return fmt.Errorf("campaign %s: %w", id, ErrNotFound)
	}
	c.Status = status
	return nil
}

func (m *MemStore) AddRecipients(_ context.Context, campaignID string, recipients []model.Recipient) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.campaigns[campaignID]
	if !ok {
		return fmt.Errorf("campaign %s: %w", campaignID, ErrNotFound)
	}
	for i := range recipients {
		cp := recipients[i]
		m.recipients[campaignID] = append(m.recipients[campaignID], &cp)
		m.recipByID[cp.ID] = &cp
	}
	c.TotalRecipients = len(m.recipients[campaignID])
	return nil
}

func (m *MemStore) Recipients(_ context.Context, campaignID string) ([]model.Recipient, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rs := m.recipients[campaignID]
	out := make([]model.Recipient, 0, len(rs))
	for _, r := range rs {
		out = append(out, *r)
	}
	return out, nil
}

func (m *MemStore) MarkRecipientSending(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.recipByID[id]
	if !ok {
		return fmt.Errorf("recipient %s: %w", id, ErrNotFound)
	}
	if r.Status != model.RecipientPending {
		return fmt.Errorf("recipient %s is %s: %w", id, r.Status, ErrInvalidTransition)
	}
	r.Status = model.RecipientSending
	return nil
}

func (m *MemStore) MarkRecipientSent(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.recipByID[id]
	if !ok {
		return fmt.Errorf("recipient %s: %w", id, ErrNotFound)
	}
	if r.Status == model.RecipientSent || r.Status == model.RecipientFailed {
		return fmt.Errorf("recipient %s is %s: %w", id, r.Status, ErrInvalidTransition)
	}
	t := at
	r.Status = model.RecipientSent
	r.SentAt = &t
	if c, ok := m.campaigns[r.CampaignID]; ok {
		c.SentCount++
	}
	return nil
}

func (m *MemStore) MarkRecipientFailed(_ context.Context, id string, errText string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.recipByID[id]
	if !ok {
		return fmt.Errorf("recipient %s: %w", id, ErrNotFound)
	}
	if r.Status == model.RecipientSent || r.Status == model.RecipientFailed {
		return fmt.Errorf("recipient %s is %s: %w", id, r.Status, ErrInvalidTransition)
	}
	r.Status = model.RecipientFailed
	r.ErrorText = errText
	if c, ok := m.campaigns[r.CampaignID]; ok {
		c.FailedCount++
	}
	return nil
}

func (m *MemStore) CompleteCampaignIfDone(_ context.Context, campaignID string) (model.Campaign, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.campaigns[campaignID]
	if !ok {
		return model.Campaign{}, false, fmt.Errorf("campaign %s: %w", campaignID, ErrNotFound)
	}
	if c.SentCount+c.FailedCount < c.TotalRecipients {
		return *c, false, nil
	}
	if c.Status == model.CampaignSending {
		if c.FailedCount == c.TotalRecipients && c.TotalRecipients > 0 {
			c.Status = model.CampaignFailed
		} else {
			c.Status = model.CampaignCompleted
		}
		now := time.Now().UTC()
		c.CompletedAt = &now
	}
	return *c, true, nil
}

// --- contacts ---

func (m *MemStore) CreateContact(_ context.Context, c *model.Contact) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := lowerEmail(c.Email)
	if _, ok := m.emails[key]; ok {
		return fmt.Errorf("contact %s: %w", c.Email, ErrDuplicateEmail)
	}
	cp := *c
	m.contacts[c.ID] = &cp
	m.contactOrder = append(m.contactOrder, c.ID)
	m.emails[key] = c.ID
	return nil
}

func (m *MemStore) Contact(_ context.Context, id string) (model.Contact, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.contacts[id]
	if !ok {
		return model.Contact{}, fmt.Errorf("contact %s: %w", id, ErrNotFound)
	}
	return *c, nil
}

func (m *MemStore) ListContacts(_ context.Context, activeOnly bool) ([]model.Contact, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]model.Contact, 0, len(m.contactOrder))
	for _, id := range m.contactOrder {
		c := m.contacts[id]
		if activeOnly && !c.Active {
			continue
		}
		out = append(out, *c)
	}
	return out, nil
}

// --- helpers ---

func copyQuestion(q *model.QuestionScore) model.QuestionScore {
	cp := *q
	if q.Score != nil {
		s := *q.Score
		cp.Score = &s
	}
	cp.RawResponse = copyRaw(q.RawResponse)
	return cp
}

func copyRaw(raw map[string]float64) map[string]float64 {
	if raw == nil {
		return nil
	}
	out := make(map[string]float64, len(raw))
	for k, v := range raw {
		out[k] = v
	}
	return out
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	f := *v
	return &f
}

func lowerEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

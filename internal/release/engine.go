// Package release drives press release scoring: one job, thirty rubric
// questions, each advanced as an independently resumable work unit against
// the population simulation.
package release

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/prsim/prsim/internal/adapters/repository"
	"github.com/prsim/prsim/internal/adapters/simulation"
	"github.com/prsim/prsim/internal/domain/model"
	"github.com/prsim/prsim/internal/domain/rubric"
	"github.com/prsim/prsim/internal/domain/scoring"
	"github.com/prsim/prsim/internal/domain/types"
	"github.com/prsim/prsim/pkg/logger"
	"github.com/prsim/prsim/pkg/metrics"
)

const (
	defaultMaxWait           = 20 * time.Second
	defaultReleaseLimit      = 50000
	defaultQuestionTextLimit = 800
)

// Simulator is the slice of the simulation client the engine needs.
type Simulator interface {
	Submit(ctx context.Context, populationID, question, questionType string, answerOptions []string) simulation.Submission
	PollUntilComplete(ctx context.Context, answerID string, maxWait time.Duration) simulation.Result
}

// Engine advances scoring jobs one work unit at a time.
type Engine struct {
	store  repository.JobStore
	sim    Simulator
	rubric rubric.Provider

	maxWait           time.Duration
	releaseLimit      int
	questionTextLimit int
	log               logger.Logger
}

// New builds an Engine over a job store and a simulation client.
func New(store repository.JobStore, sim Simulator, opts ...Option) *Engine {
	e := &Engine{
		store:             store,
		sim:               sim,
		rubric:            rubric.Static(),
		maxWait:           defaultMaxWait,
		releaseLimit:      defaultReleaseLimit,
		questionTextLimit: defaultQuestionTextLimit,
		log:               logger.Named("release"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// StartJob validates the release and creates a pending job. Nothing is
// persisted when validation fails.
func (e *Engine) StartJob(ctx context.Context, releaseText, populationID string) (model.ScoringJob, error) {
	clean := scoring.CleanText(releaseText)
	if clean == "" {
		return model.ScoringJob{}, ErrEmptyRelease
	}
	if len(clean) > e.releaseLimit {
		return model.ScoringJob{}, fmt.Errorf("%d characters: %w", len(clean), ErrReleaseTooLong)
	}
	if populationID == "" {
		return model.ScoringJob{}, ErrMissingPopulation
	}

	job := model.ScoringJob{
		ID:           uuid.NewString(),
		ReleaseText:  clean,
		PopulationID: populationID,
		Status:       model.JobPending,
		CreatedAt:    time.Now().UTC(),
	}
	if err := e.store.CreateJob(ctx, &job); err != nil {
		return model.ScoringJob{}, fmt.Errorf("create job: %w", err)
	}
	e.log.Info(ctx, "job started",
		logger.String("job_id", job.ID),
		logger.String("population_id", populationID),
		logger.Int("release_chars", len(clean)))
	return job, nil
}

// ProcessStep advances one work unit by at most one bounded polling window.
// The unit walks unsubmitted -> submitted -> resolved across however many
// calls it takes; a resolved unit short-circuits to its recorded score and
// the simulation is never asked twice for the same unit.
func (e *Engine) ProcessStep(ctx context.Context, jobID string, number int, maxWait time.Duration) (types.StepResult, error) {
	rq, err := e.rubric.Question(number)
	if err != nil {
		return types.StepResult{}, err
	}
	if maxWait <= 0 {
		maxWait = e.maxWait
	}

	job, err := e.store.Job(ctx, jobID)
	if err != nil {
		return types.StepResult{}, err
	}
	if job.Status == model.JobFailed {
		return types.StepResult{}, fmt.Errorf("job %s: %w", jobID, ErrJobFailed)
	}

	unit, exists, err := e.store.Question(ctx, jobID, number)
	if err != nil {
		return types.StepResult{}, err
	}
	if exists && unit.Resolved() {
		return doneResult(*unit.Score), nil
	}

	if _, err := e.store.EnsureCategory(ctx, jobID, rq.CategoryKey, rq.CategoryDisplay); err != nil {
		return types.StepResult{}, e.failJob(ctx, jobID, fmt.Errorf("ensure category: %w", err))
	}
	if !exists {
		unit = model.QuestionScore{
			ID:           uuid.NewString(),
			JobID:        jobID,
			CategoryKey:  rq.CategoryKey,
			Number:       number,
			QuestionText: rq.Text,
		}
		if err := e.store.CreateQuestion(ctx, &unit); err != nil {
			return types.StepResult{}, e.failJob(ctx, jobID, fmt.Errorf("create question: %w", err))
		}
	}

	if unit.AnswerID == "" {
		question := rubric.FullQuestion(rq, scoring.Truncate(job.ReleaseText, e.questionTextLimit))
		sub := e.sim.Submit(ctx, job.PopulationID, question, simulation.QuestionTypeMultipleChoice, scoring.ChoiceOptions1to6)
		if !sub.OK {
			// Transient upstream trouble; the unit stays unsubmitted and a
			// later step retries.
			metrics.RecordStepResult("release", "submit_failed")
			e.log.Warn(ctx, "submission failed",
				logger.String("job_id", jobID),
				logger.Int("question", number),
				logger.String("error", sub.Err))
			return types.StepResult{Pending: true}, nil
		}
		if err := e.store.SetQuestionAnswerID(ctx, jobID, number, sub.AnswerID); err != nil {
			return types.StepResult{}, e.failJob(ctx, jobID, fmt.Errorf("record answer id: %w", err))
		}
		unit.AnswerID = sub.AnswerID
		if job.Status == model.JobPending {
			if err := e.store.SetJobStatus(ctx, jobID, model.JobRunning, ""); err != nil {
				return types.StepResult{}, e.failJob(ctx, jobID, fmt.Errorf("mark running: %w", err))
			}
		}
	}

	res := e.sim.PollUntilComplete(ctx, unit.AnswerID, maxWait)
	switch {
	case res.TimedOut:
		metrics.RecordStepResult("release", "timeout")
		return types.StepResult{Pending: true}, nil
	case !res.OK:
		metrics.RecordStepResult("release", "poll_failed")
		return types.StepResult{Pending: true}, nil
	}

	// A Failed simulation answer still resolves the unit: the midpoint
	// fallback keeps one bad answer from wedging the whole job.
	score := scoring.MidpointChoice
	raw := res.Percentages
	if res.Status == simulation.StatusPredicted {
		score = scoring.TopChoice(res.Percentages)
	}

	updated, err := e.store.ResolveQuestion(ctx, jobID, number, score, raw, e.rubric.Size())
	if err != nil {
		if errors.Is(err, repository.ErrAlreadyScored) {
			unit, _, qerr := e.store.Question(ctx, jobID, number)
			if qerr == nil && unit.Resolved() {
				return doneResult(*unit.Score), nil
			}
			return types.StepResult{}, qerr
		}
		return types.StepResult{}, e.failJob(ctx, jobID, fmt.Errorf("resolve question: %w", err))
	}

	metrics.RecordStepResult("release", "resolved")
	metrics.RecordUnitResolved("release")
	if updated.Status == model.JobDone {
		metrics.RecordJobCompleted()
		e.log.Info(ctx, "job completed",
			logger.String("job_id", jobID),
			logger.Int("total_score", updated.TotalScore))
	}
	return doneResult(score), nil
}

// Status reports job progress with per-category subtotals.
func (e *Engine) Status(ctx context.Context, jobID string) (types.JobProgress, error) {
	job, err := e.store.Job(ctx, jobID)
	if err != nil {
		return types.JobProgress{}, err
	}
	cats, err := e.store.Categories(ctx, jobID)
	if err != nil {
		return types.JobProgress{}, err
	}

	progress := types.JobProgress{
		JobID:             job.ID,
		Status:            string(job.Status),
		ProcessedCount:    job.ProcessedCount,
		TotalScore:        job.TotalScore,
		CompletionPercent: job.CompletionPercentage(e.rubric.Size()),
		ScorePercent:      job.ScorePercentage(e.rubric.Size() * rubric.MaxScore),
		Error:             job.ErrorText,
	}
	for _, c := range cats {
		progress.Categories = append(progress.Categories, types.CategoryProgress{
			Key:         c.Key,
			DisplayName: c.DisplayName,
			Subtotal:    c.Subtotal,
		})
	}
	return progress, nil
}

// NextUnresolved returns the lowest question number still awaiting a score,
// or false when every unit is resolved.
func (e *Engine) NextUnresolved(ctx context.Context, jobID string) (int, bool, error) {
	units, err := e.store.Questions(ctx, jobID)
	if err != nil {
		return 0, false, err
	}
	resolved := make(map[int]bool, len(units))
	for _, u := range units {
		if u.Resolved() {
			resolved[u.Number] = true
		}
	}
	for n := 1; n <= e.rubric.Size(); n++ {
		if !resolved[n] {
			return n, true, nil
		}
	}
	return 0, false, nil
}

// RubricSize exposes the catalog size for callers validating step requests.
func (e *Engine) RubricSize() int { return e.rubric.Size() }

func (e *Engine) failJob(ctx context.Context, jobID string, cause error) error {
	metrics.RecordJobFailed()
	e.log.Error(ctx, "job failed", logger.String("job_id", jobID), logger.Error(cause))
	if err := e.store.SetJobStatus(ctx, jobID, model.JobFailed, cause.Error()); err != nil {
		e.log.Error(ctx, "could not mark job failed", logger.String("job_id", jobID), logger.Error(err))
	}
	return cause
}

func doneResult(score int) types.StepResult {
	f := float64(score)
	return types.StepResult{Done: true, Score: &f}
}

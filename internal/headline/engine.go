// Package headline runs audience preference tests: an LLM drafts alternative
// headlines, each variant is scored by the population simulation, and the
// winner is compared against the original.
package headline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/prsim/prsim/internal/adapters/repository"
	"github.com/prsim/prsim/internal/adapters/simulation"
	"github.com/prsim/prsim/internal/domain/model"
	"github.com/prsim/prsim/internal/domain/scoring"
	"github.com/prsim/prsim/internal/domain/types"
	"github.com/prsim/prsim/pkg/logger"
	"github.com/prsim/prsim/pkg/metrics"
)

const (
	defaultMaxWait      = 20 * time.Second
	defaultAlternatives = 5
)

// Generator drafts alternative headlines.
type Generator interface {
	GenerateHeadlines(ctx context.Context, original, contextURL string, n int) ([]string, error)
}

// Simulator is the slice of the simulation client the engine needs.
type Simulator interface {
	Submit(ctx context.Context, populationID, question, questionType string, answerOptions []string) simulation.Submission
	PollUntilComplete(ctx context.Context, answerID string, maxWait time.Duration) simulation.Result
}

// Engine advances headline tests one variant at a time.
type Engine struct {
	store repository.HeadlineStore
	gen   Generator
	sim   Simulator

	maxWait      time.Duration
	alternatives int
	log          logger.Logger
}

// New builds an Engine over a headline store, a generator and a simulation
// client.
func New(store repository.HeadlineStore, gen Generator, sim Simulator, opts ...Option) *Engine {
	e := &Engine{
		store:        store,
		gen:          gen,
		sim:          sim,
		maxWait:      defaultMaxWait,
		alternatives: defaultAlternatives,
		log:          logger.Named("headline"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Generate creates a test and drafts its alternatives. A generation failure
// marks the test failed; the test row survives for inspection.
func (e *Engine) Generate(ctx context.Context, original, contextURL string) (model.HeadlineTest, []model.AlternativeHeadline, error) {
	original = strings.TrimSpace(original)
	if original == "" {
		return model.HeadlineTest{}, nil, ErrEmptyHeadline
	}

	now := time.Now().UTC()
	test := model.HeadlineTest{
		ID:               uuid.NewString(),
		OriginalHeadline: original,
		ContextURL:       contextURL,
		Status:           model.TestPending,
		CreatedAt:        now,
	}
	if err := e.store.CreateTest(ctx, &test); err != nil {
		return model.HeadlineTest{}, nil, fmt.Errorf("create test: %w", err)
	}

	drafts, err := e.gen.GenerateHeadlines(ctx, original, contextURL, e.alternatives)
	if err != nil {
		if serr := e.store.SetTestStatus(ctx, test.ID, model.TestFailed, err.Error()); serr != nil {
			e.log.Error(ctx, "could not mark test failed", logger.String("test_id", test.ID), logger.Error(serr))
		}
		return model.HeadlineTest{}, nil, fmt.Errorf("generate headlines: %w", err)
	}

	alts := make([]model.AlternativeHeadline, 0, len(drafts))
	for i, text := range drafts {
		alt := model.AlternativeHeadline{
			ID:        uuid.NewString(),
			TestID:    test.ID,
			Text:      text,
			Angle:     model.AngleForOrder(i + 1),
			Order:     i + 1,
			CreatedAt: now,
		}
		if err := e.store.AddAlternative(ctx, &alt); err != nil {
			return model.HeadlineTest{}, nil, fmt.Errorf("store alternative: %w", err)
		}
		alts = append(alts, alt)
	}
	if err := e.store.SetTestStatus(ctx, test.ID, model.TestGenerated, ""); err != nil {
		return model.HeadlineTest{}, nil, fmt.Errorf("mark generated: %w", err)
	}
	test.Status = model.TestGenerated

	e.log.Info(ctx, "alternatives generated",
		logger.String("test_id", test.ID),
		logger.Int("count", len(alts)))
	return test, alts, nil
}

// StartAudienceTest creates one score row per variant and moves the test
// into the testing phase. The original, when included, is created first so
// preference ties favor it.
func (e *Engine) StartAudienceTest(ctx context.Context, testID, populationID string, includeOriginal bool) ([]model.HeadlineScore, error) {
	if populationID == "" {
		return nil, ErrMissingPopulation
	}
	test, err := e.store.Test(ctx, testID)
	if err != nil {
		return nil, err
	}
	if test.Status != model.TestGenerated {
		return nil, fmt.Errorf("test %s is %s: %w", testID, test.Status, ErrNotGenerated)
	}
	alts, err := e.store.Alternatives(ctx, testID)
	if err != nil {
		return nil, err
	}
	if len(alts) == 0 {
		return nil, fmt.Errorf("test %s: %w", testID, ErrNotGenerated)
	}

	if err := e.store.SetTestPopulation(ctx, testID, populationID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	var scores []model.HeadlineScore
	add := func(text string, isOriginal bool) error {
		s := model.HeadlineScore{
			ID:         uuid.NewString(),
			TestID:     testID,
			Text:       text,
			IsOriginal: isOriginal,
			CreatedAt:  now,
		}
		if err := e.store.CreateHeadlineScore(ctx, &s); err != nil {
			return fmt.Errorf("store headline score: %w", err)
		}
		scores = append(scores, s)
		return nil
	}
	if includeOriginal {
		if err := add(test.OriginalHeadline, true); err != nil {
			return nil, err
		}
	}
	for _, alt := range alts {
		if err := add(alt.Text, false); err != nil {
			return nil, err
		}
	}

	if err := e.store.SetTestStatus(ctx, testID, model.TestTesting, ""); err != nil {
		return nil, err
	}
	return scores, nil
}

// ProcessStep advances one variant by at most one bounded polling window,
// with the same resume-by-answer-id machine as release scoring. Extraction
// trouble resolves to the neutral preference instead of failing the test.
func (e *Engine) ProcessStep(ctx context.Context, testID, scoreID string, maxWait time.Duration) (types.StepResult, error) {
	if maxWait <= 0 {
		maxWait = e.maxWait
	}

	test, err := e.store.Test(ctx, testID)
	if err != nil {
		return types.StepResult{}, err
	}
	switch test.Status {
	case model.TestFailed:
		return types.StepResult{}, fmt.Errorf("test %s: %w", testID, ErrTestFailed)
	case model.TestTesting, model.TestCompleted:
	default:
		return types.StepResult{}, fmt.Errorf("test %s is %s: %w", testID, test.Status, ErrNotTesting)
	}

	unit, err := e.store.HeadlineScore(ctx, scoreID)
	if err != nil {
		return types.StepResult{}, err
	}
	if unit.TestID != testID {
		return types.StepResult{}, fmt.Errorf("score %s: %w", scoreID, repository.ErrNotFound)
	}
	if unit.Resolved() {
		return preferenceResult(*unit.Preference), nil
	}

	if unit.AnswerID == "" {
		question := preferenceQuestion(unit.Text)
		sub := e.sim.Submit(ctx, test.PopulationID, question, simulation.QuestionTypeMultipleChoice, scoring.PreferenceLabels())
		if !sub.OK {
			metrics.RecordStepResult("headline", "submit_failed")
			e.log.Warn(ctx, "submission failed",
				logger.String("test_id", testID),
				logger.String("score_id", scoreID),
				logger.String("error", sub.Err))
			return types.StepResult{Pending: true}, nil
		}
		if err := e.store.SetHeadlineAnswerID(ctx, scoreID, sub.AnswerID); err != nil {
			return types.StepResult{}, err
		}
		unit.AnswerID = sub.AnswerID
	}

	res := e.sim.PollUntilComplete(ctx, unit.AnswerID, maxWait)
	switch {
	case res.TimedOut:
		metrics.RecordStepResult("headline", "timeout")
		return types.StepResult{Pending: true}, nil
	case !res.OK:
		metrics.RecordStepResult("headline", "poll_failed")
		return types.StepResult{Pending: true}, nil
	}

	preference := scoring.NeutralPreference
	if res.Status == simulation.StatusPredicted {
		preference = scoring.WeightedPreference(res.Percentages)
	}

	if err := e.store.ResolveHeadlineScore(ctx, scoreID, preference, time.Now().UTC()); err != nil {
		if errors.Is(err, repository.ErrAlreadyScored) {
			unit, rerr := e.store.HeadlineScore(ctx, scoreID)
			if rerr == nil && unit.Resolved() {
				return preferenceResult(*unit.Preference), nil
			}
			return types.StepResult{}, rerr
		}
		return types.StepResult{}, fmt.Errorf("resolve headline score: %w", err)
	}
	metrics.RecordStepResult("headline", "resolved")
	metrics.RecordUnitResolved("headline")

	if err := e.finalizeIfComplete(ctx, testID); err != nil {
		return types.StepResult{}, err
	}
	return preferenceResult(preference), nil
}

// Progress reports the test's variants and, once finalized, the winner.
func (e *Engine) Progress(ctx context.Context, testID string) (types.TestProgress, error) {
	test, err := e.store.Test(ctx, testID)
	if err != nil {
		return types.TestProgress{}, err
	}
	ss, err := e.store.HeadlineScores(ctx, testID)
	if err != nil {
		return types.TestProgress{}, err
	}

	progress := types.TestProgress{
		TestID:             test.ID,
		Status:             string(test.Status),
		TotalVariants:      len(ss),
		WinningHeadline:    test.WinningHeadline,
		WinningScore:       test.WinningScore,
		OriginalScore:      test.OriginalScore,
		ImprovementPercent: test.ImprovementPercent,
		Error:              test.ErrorText,
	}
	for _, s := range ss {
		if s.Resolved() {
			progress.ResolvedVariants++
		}
		progress.Variants = append(progress.Variants, types.HeadlineVariant{
			ScoreID:    s.ID,
			Text:       s.Text,
			IsOriginal: s.IsOriginal,
			Preference: s.Preference,
		})
	}
	return progress, nil
}

// NextUnresolved returns the earliest-created variant still awaiting a
// preference, or false when the test has none left.
func (e *Engine) NextUnresolved(ctx context.Context, testID string) (string, bool, error) {
	ss, err := e.store.HeadlineScores(ctx, testID)
	if err != nil {
		return "", false, err
	}
	for _, s := range ss {
		if !s.Resolved() {
			return s.ID, true, nil
		}
	}
	return "", false, nil
}

func (e *Engine) finalizeIfComplete(ctx context.Context, testID string) error {
	ss, err := e.store.HeadlineScores(ctx, testID)
	if err != nil {
		return err
	}
	var winner *model.HeadlineScore
	var original *model.HeadlineScore
	for i := range ss {
		s := &ss[i]
		if !s.Resolved() {
			return nil
		}
		// Strict greater keeps the earliest-created variant on ties.
		if winner == nil || *s.Preference > *winner.Preference {
			winner = s
		}
		if s.IsOriginal {
			original = s
		}
	}
	if winner == nil {
		return nil
	}

	var origScore, improvement *float64
	if original != nil {
		origScore = original.Preference
		imp := scoring.ImprovementPercent(*winner.Preference, *original.Preference)
		improvement = &imp
	}
	if err := e.store.FinalizeTest(ctx, testID, winner.Text, *winner.Preference, origScore, improvement); err != nil {
		return fmt.Errorf("finalize test: %w", err)
	}
	metrics.RecordHeadlineCompleted()
	e.log.Info(ctx, "test completed",
		logger.String("test_id", testID),
		logger.String("winner", winner.Text),
		logger.Float64("preference", *winner.Preference))
	return nil
}

func preferenceQuestion(text string) string {
	return fmt.Sprintf("Please consider the following news headline: %q. How appealing do you find it?", text)
}

func preferenceResult(preference float64) types.StepResult {
	p := preference
	return types.StepResult{Done: true, Score: &p}
}

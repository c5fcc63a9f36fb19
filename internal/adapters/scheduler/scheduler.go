// Package scheduler drives the background tick: on each cron firing it
// advances every in-flight scoring job and headline test by one small step,
// so work keeps moving even when no caller is polling.
package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/prsim/prsim/internal/domain/model"
	"github.com/prsim/prsim/internal/domain/types"
	"github.com/prsim/prsim/pkg/logger"
	"github.com/prsim/prsim/pkg/metrics"
)

const defaultTickWait = 5 * time.Second

// ReleaseStepper is the slice of the release engine the tick uses.
type ReleaseStepper interface {
	NextUnresolved(ctx context.Context, jobID string) (int, bool, error)
	ProcessStep(ctx context.Context, jobID string, number int, maxWait time.Duration) (types.StepResult, error)
}

// HeadlineStepper is the slice of the headline engine the tick uses.
type HeadlineStepper interface {
	NextUnresolved(ctx context.Context, testID string) (string, bool, error)
	ProcessStep(ctx context.Context, testID, scoreID string, maxWait time.Duration) (types.StepResult, error)
}

// Lister enumerates the in-flight work.
type Lister interface {
	ListJobsByStatus(ctx context.Context, status model.JobStatus) ([]model.ScoringJob, error)
	ListTestsByStatus(ctx context.Context, status model.TestStatus) ([]model.HeadlineTest, error)
}

// Scheduler owns the cron instance.
type Scheduler struct {
	lister   Lister
	releases ReleaseStepper
	tests    HeadlineStepper

	spec    string
	maxWait time.Duration
	cron    *cron.Cron
	log     logger.Logger
}

// New builds a Scheduler; spec uses cron syntax or @every notation.
func New(lister Lister, releases ReleaseStepper, tests HeadlineStepper, spec string, opts ...Option) *Scheduler {
	s := &Scheduler{
		lister:   lister,
		releases: releases,
		tests:    tests,
		spec:     spec,
		maxWait:  defaultTickWait,
		log:      logger.Named("scheduler"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start registers the tick and launches the cron loop.
func (s *Scheduler) Start(ctx context.Context) error {
	s.cron = cron.New()
	_, err := s.cron.AddFunc(s.spec, func() { s.Tick(ctx) })
	if err != nil {
		return err
	}
	s.cron.Start()
	s.log.Info(ctx, "scheduler started", logger.String("spec", s.spec))
	return nil
}

// Stop halts the cron loop and waits for a running tick to finish.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.cron == nil {
		return nil
	}
	select {
	case <-s.cron.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Tick advances each in-flight job and test by one bounded step. Exported
// so callers can drive it directly.
func (s *Scheduler) Tick(ctx context.Context) {
	s.tickJobs(ctx)
	s.tickTests(ctx)
}

func (s *Scheduler) tickJobs(ctx context.Context) {
	var jobs []model.ScoringJob
	for _, status := range []model.JobStatus{model.JobPending, model.JobRunning} {
		batch, err := s.lister.ListJobsByStatus(ctx, status)
		if err != nil {
			s.log.Error(ctx, "could not list jobs", logger.Error(err))
			return
		}
		jobs = append(jobs, batch...)
	}
	metrics.UpdateActiveJobs(len(jobs))

	for _, job := range jobs {
		number, ok, err := s.releases.NextUnresolved(ctx, job.ID)
		if err != nil {
			s.log.Error(ctx, "could not find next unit", logger.String("job_id", job.ID), logger.Error(err))
			continue
		}
		if !ok {
			continue
		}
		if _, err := s.releases.ProcessStep(ctx, job.ID, number, s.maxWait); err != nil {
			s.log.Warn(ctx, "tick step failed",
				logger.String("job_id", job.ID),
				logger.Int("question", number),
				logger.Error(err))
		}
	}
}

func (s *Scheduler) tickTests(ctx context.Context) {
	tests, err := s.lister.ListTestsByStatus(ctx, model.TestTesting)
	if err != nil {
		s.log.Error(ctx, "could not list headline tests", logger.Error(err))
		return
	}
	for _, test := range tests {
		scoreID, ok, err := s.tests.NextUnresolved(ctx, test.ID)
		if err != nil {
			s.log.Error(ctx, "could not find next variant", logger.String("test_id", test.ID), logger.Error(err))
			continue
		}
		if !ok {
			continue
		}
		if _, err := s.tests.ProcessStep(ctx, test.ID, scoreID, s.maxWait); err != nil {
			s.log.Warn(ctx, "tick step failed",
				logger.String("test_id", test.ID),
				logger.String("score_id", scoreID),
				logger.Error(err))
		}
	}
}

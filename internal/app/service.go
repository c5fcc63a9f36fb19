// Package service wires configuration, storage, external clients, engines,
// workers and the background scheduler into one startable unit.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/prsim/prsim/internal/adapters/llm"
	"github.com/prsim/prsim/internal/adapters/mail"
	"github.com/prsim/prsim/internal/adapters/mq/queue"
	"github.com/prsim/prsim/internal/adapters/mq/worker"
	"github.com/prsim/prsim/internal/adapters/repository"
	"github.com/prsim/prsim/internal/adapters/scheduler"
	"github.com/prsim/prsim/internal/adapters/simulation"
	"github.com/prsim/prsim/internal/campaign"
	"github.com/prsim/prsim/internal/config"
	"github.com/prsim/prsim/internal/domain/model"
	"github.com/prsim/prsim/internal/domain/rubric"
	"github.com/prsim/prsim/internal/headline"
	"github.com/prsim/prsim/internal/release"
	"github.com/prsim/prsim/pkg/logger"
	"github.com/prsim/prsim/pkg/metrics"
)

// Simulator is the population simulation surface both engines consume.
type Simulator interface {
	Submit(ctx context.Context, populationID, question, questionType string, answerOptions []string) simulation.Submission
	PollUntilComplete(ctx context.Context, answerID string, maxWait time.Duration) simulation.Result
}

// Service owns every long-lived component of the process.
type Service struct {
	mu sync.RWMutex

	cfg *config.Config

	// Injectable dependencies; built from cfg when left nil.
	store  repository.Store
	sim    Simulator
	gen    headline.Generator
	sender worker.Sender

	releases  *release.Engine
	headlines *headline.Engine
	campaigns *campaign.Engine

	dispatch *queue.InMemoryQueue
	workers  []*worker.Worker
	ticker   *scheduler.Scheduler

	started bool
	log     logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore replaces the config-selected persistence backend.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		s.store = store
	}
}

// WithSimulator replaces the HTTP simulation client.
func WithSimulator(sim Simulator) Option {
	return func(s *Service) {
		s.sim = sim
	}
}

// WithGenerator replaces the LLM headline generator.
func WithGenerator(gen headline.Generator) Option {
	return func(s *Service) {
		s.gen = gen
	}
}

// WithSender replaces the config-selected mail sender.
func WithSender(sender worker.Sender) Option {
	return func(s *Service) {
		s.sender = sender
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(log logger.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// New constructs a Service from cfg; nothing runs until Start.
func New(cfg *config.Config, opts ...Option) *Service {
	s := &Service{cfg: cfg}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logger.Named("service")
	}
	return s
}

// Start builds the component graph and launches the send workers and the
// background scheduler.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	s.log.Info(ctx, "starting service")

	if s.store == nil {
		store, err := s.buildStore(ctx)
		if err != nil {
			return err
		}
		s.store = store
	}
	if s.sim == nil {
		s.sim = simulation.New(s.cfg.SimulationBaseURL, s.cfg.SimulationAPIKey,
			simulation.WithPollInterval(time.Duration(s.cfg.SimulationPollIntervalMS)*time.Millisecond),
		)
	}
	if s.gen == nil {
		llmOpts := []llm.Option{}
		if s.cfg.LLMModel != "" {
			llmOpts = append(llmOpts, llm.WithModel(s.cfg.LLMModel))
		}
		s.gen = llm.New(s.cfg.LLMBaseURL, s.cfg.LLMAPIKey, llmOpts...)
	}
	if s.sender == nil {
		s.sender = s.buildSender()
	}

	catalog, err := s.buildRubric()
	if err != nil {
		return err
	}
	maxWait := time.Duration(s.cfg.StepMaxWaitS) * time.Second

	s.releases = release.New(s.store, s.sim,
		release.WithRubric(catalog),
		release.WithMaxWait(maxWait),
		release.WithReleaseLimit(s.cfg.ReleaseCharLimit),
		release.WithQuestionTextLimit(s.cfg.QuestionTextLimit),
	)
	s.headlines = headline.New(s.store, s.gen, s.sim,
		headline.WithMaxWait(maxWait),
	)

	s.dispatch = queue.NewInMemoryQueue(queue.WithCapacity(s.cfg.DispatchQueueSize))
	s.campaigns = campaign.New(s.store, s.dispatch)

	for i := 0; i < s.cfg.WorkerCount; i++ {
		w := worker.New(s.dispatch, s.sender, s.store,
			worker.WithName(fmt.Sprintf("mail-worker-%d", i)),
		)
		s.workers = append(s.workers, w)
		go w.Run(ctx)
	}
	metrics.UpdateMailWorkerCount(s.cfg.WorkerCount)

	if s.cfg.SchedulerSpec != "" {
		s.ticker = scheduler.New(s.store, s.releases, s.headlines, s.cfg.SchedulerSpec,
			scheduler.WithMaxWait(time.Duration(s.cfg.SchedulerMaxWaitS)*time.Second),
		)
		if err := s.ticker.Start(ctx); err != nil {
			return fmt.Errorf("start scheduler: %w", err)
		}
	}

	s.started = true
	s.log.Info(ctx, "service started",
		logger.String("store", s.cfg.Store),
		logger.Int("workers", s.cfg.WorkerCount),
		logger.Int("dispatch_queue", s.cfg.DispatchQueueSize),
		logger.String("scheduler", s.cfg.SchedulerSpec),
	)
	return nil
}

// Stop shuts the components down in dependency order: scheduler first so no
// new steps start, then the queue and workers, then the store.
func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.log.Info(ctx, "stopping service")

	if s.ticker != nil {
		if err := s.ticker.Stop(ctx); err != nil {
			s.log.Warn(ctx, "scheduler did not stop cleanly", logger.Error(err))
		}
	}

	if s.dispatch != nil {
		_ = s.dispatch.Close()
	}
	for _, w := range s.workers {
		if err := w.Shutdown(ctx); err != nil {
			s.log.Warn(ctx, "worker did not stop cleanly", logger.Error(err))
		}
	}

	if closer, ok := s.store.(interface{ Close() error }); ok {
		_ = closer.Close()
	}

	s.started = false
	s.log.Info(ctx, "service stopped")
}

// Releases exposes the press release scoring engine.
func (s *Service) Releases() *release.Engine { return s.releases }

// Headlines exposes the headline testing engine.
func (s *Service) Headlines() *headline.Engine { return s.headlines }

// Campaigns exposes the contact and campaign engine.
func (s *Service) Campaigns() *campaign.Engine { return s.campaigns }

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":      s.started,
		"store":        s.cfg.Store,
		"worker_count": s.cfg.WorkerCount,
	}
	if !s.started {
		return stats
	}

	stats["dispatch_queue_length"] = s.dispatch.Len(ctx)
	metrics.UpdateDispatchQueueSize(s.dispatch.Len(ctx))

	active := 0
	for _, status := range []model.JobStatus{model.JobPending, model.JobRunning} {
		jobs, err := s.store.ListJobsByStatus(ctx, status)
		if err != nil {
			s.log.Warn(ctx, "could not count jobs", logger.Error(err))
			continue
		}
		active += len(jobs)
	}
	stats["active_jobs"] = active
	metrics.UpdateActiveJobs(active)

	if tests, err := s.store.ListTestsByStatus(ctx, model.TestTesting); err == nil {
		stats["active_headline_tests"] = len(tests)
	}
	return stats
}

func (s *Service) buildStore(ctx context.Context) (repository.Store, error) {
	switch s.cfg.Store {
	case config.StorePostgres:
		store, err := repository.NewPostgresStore(ctx, s.cfg.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("build store: %w", err)
		}
		s.log.Info(ctx, "using postgres store")
		return store, nil
	default:
		s.log.Info(ctx, "using in-memory store")
		return repository.NewMemStore(), nil
	}
}

func (s *Service) buildSender() worker.Sender {
	if s.cfg.MailMode == config.MailModeSMTP {
		return mail.NewSMTPSender(s.cfg.SMTPHost, s.cfg.SMTPPort, s.cfg.SMTPFrom, s.cfg.SMTPUsername, s.cfg.SMTPPassword)
	}
	return mail.NewLogSender()
}

func (s *Service) buildRubric() (rubric.Provider, error) {
	if s.cfg.RubricFile == "" {
		return rubric.Static(), nil
	}
	catalog, err := rubric.FromFile(s.cfg.RubricFile)
	if err != nil {
		return nil, fmt.Errorf("load rubric: %w", err)
	}
	return catalog, nil
}

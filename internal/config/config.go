// Package config defines service configuration and its loading.
package config

import "runtime"

// Store backends.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

// Mail delivery modes.
const (
	MailModeLog  = "log"
	MailModeSMTP = "smtp"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// Store selects the persistence backend: memory or postgres.
	Store string `koanf:"store"`

	// DatabaseDSN is the Postgres connection string; required when Store
	// is postgres.
	DatabaseDSN string `koanf:"database_dsn"`

	// SimulationBaseURL and SimulationAPIKey locate the population
	// simulation API.
	SimulationBaseURL string `koanf:"simulation_base_url"`
	SimulationAPIKey  string `koanf:"simulation_api_key"`

	// SimulationPollIntervalMS is the delay between status fetches while
	// polling an answer.
	SimulationPollIntervalMS int `koanf:"simulation_poll_interval_ms"`

	// StepMaxWaitS bounds how long one process step blocks on polling.
	StepMaxWaitS int `koanf:"step_max_wait_s"`

	// LLMBaseURL, LLMAPIKey and LLMModel configure headline generation.
	LLMBaseURL string `koanf:"llm_base_url"`
	LLMAPIKey  string `koanf:"llm_api_key"`
	LLMModel   string `koanf:"llm_model"`

	// ReleaseCharLimit caps accepted release text length.
	ReleaseCharLimit int `koanf:"release_char_limit"`

	// QuestionTextLimit caps how much release text each submitted question
	// embeds.
	QuestionTextLimit int `koanf:"question_text_limit"`

	// RubricFile optionally replaces the built-in rubric catalog with a
	// YAML file.
	RubricFile string `koanf:"rubric_file"`

	// DispatchQueueSize bounds the in-memory email dispatch queue.
	DispatchQueueSize int `koanf:"dispatch_queue_size"`

	// WorkerCount sets the number of email send workers.
	WorkerCount int `koanf:"worker_count"`

	// MailMode selects delivery: log (development) or smtp.
	MailMode     string `koanf:"mail_mode"`
	SMTPHost     string `koanf:"smtp_host"`
	SMTPPort     int    `koanf:"smtp_port"`
	SMTPFrom     string `koanf:"smtp_from"`
	SMTPUsername string `koanf:"smtp_username"`
	SMTPPassword string `koanf:"smtp_password"`

	// SchedulerSpec drives the background tick that advances running jobs
	// and tests; empty disables it.
	SchedulerSpec string `koanf:"scheduler_spec"`

	// SchedulerMaxWaitS bounds the polling window used by tick-driven
	// steps; kept small so ticks stay cheap.
	SchedulerMaxWaitS int `koanf:"scheduler_max_wait_s"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:                 "info",
		Addr:                     ":8080",
		Store:                    StoreMemory,
		SimulationBaseURL:        "http://localhost:8099",
		SimulationPollIntervalMS: 1000,
		StepMaxWaitS:             20,
		LLMBaseURL:               "https://api.anthropic.com",
		ReleaseCharLimit:         50000,
		QuestionTextLimit:        800,
		DispatchQueueSize:        10000,
		WorkerCount:              runtime.NumCPU(),
		MailMode:                 MailModeLog,
		SMTPPort:                 587,
		SchedulerSpec:            "@every 15s",
		SchedulerMaxWaitS:        5,
	}
}

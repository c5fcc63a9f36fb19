package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, an optional file, and env
// vars. Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if PRSIM_CONFIG is set
//  3. env (prefix PRSIM_)
func Load(_ context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("PRSIM_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrLoadConfig, err)
		}
	}

	// Env keys map flat: PRSIM_STEP_MAX_WAIT_S -> step_max_wait_s.
	envProvider := env.Provider("PRSIM_", ".", func(s string) string {
		s = strings.ToLower(s)
		return strings.TrimPrefix(s, "prsim_")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	switch c.Store {
	case StoreMemory:
	case StorePostgres:
		if c.DatabaseDSN == "" {
			return fmt.Errorf("%w: database_dsn is required for the postgres store", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown store %q", ErrInvalidConfig, c.Store)
	}
	switch c.MailMode {
	case MailModeLog:
	case MailModeSMTP:
		if c.SMTPHost == "" || c.SMTPFrom == "" {
			return fmt.Errorf("%w: smtp_host and smtp_from are required for smtp mail", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown mail mode %q", ErrInvalidConfig, c.MailMode)
	}
	if c.StepMaxWaitS <= 0 {
		return fmt.Errorf("%w: step_max_wait_s must be positive", ErrInvalidConfig)
	}
	if c.WorkerCount <= 0 {
		return fmt.Errorf("%w: worker_count must be positive", ErrInvalidConfig)
	}
	if c.DispatchQueueSize <= 0 {
		return fmt.Errorf("%w: dispatch_queue_size must be positive", ErrInvalidConfig)
	}
	return nil
}

package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):.
//  1. defaults (New(ctx))
//  2. file (YAML) if INTAKE_CONFIG is set
//  3. env (prefix INTAKE_), with a best-effort .env load first
func Load(ctx context.Context) (*Config, error) {
	base := New(ctx)

	// Populate the process env from a local .env when present. Missing
	// files are fine.
	_ = godotenv.Load()

	k := koanf.New(".")

	if path := os.Getenv("INTAKE_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: INTAKE_ADDR, INTAKE_INSTITUTION_CAP, ...
	// Map env keys like INTAKE_RANKER_LIMIT -> ranker_limit (flat keys)
	// Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("INTAKE_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "intake_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.InstitutionCap < 1:
		return fmt.Errorf("%w: institution_cap must be at least 1", ErrInvalidConfig)
	case c.QualifyThreshold < 0 || c.QualifyThreshold > 100:
		return fmt.Errorf("%w: qualify_threshold must be within 0..100", ErrInvalidConfig)
	case c.RankerMinScore < 0 || c.RankerMinScore > 100:
		return fmt.Errorf("%w: ranker_min_score must be within 0..100", ErrInvalidConfig)
	case c.RankerLimit < 1:
		return fmt.Errorf("%w: ranker_limit must be at least 1", ErrInvalidConfig)
	case c.ArbitrationMaxAttempts < 1:
		return fmt.Errorf("%w: arbitration_max_attempts must be at least 1", ErrInvalidConfig)
	case c.NotifyQueueSize < 1:
		return fmt.Errorf("%w: notify_queue_size must be at least 1", ErrInvalidConfig)
	case c.NotifyWorkerCount < 1:
		return fmt.Errorf("%w: notify_worker_count must be at least 1", ErrInvalidConfig)
	}
	return nil
}

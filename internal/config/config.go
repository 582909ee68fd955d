// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(...) to build a Config with defaults and Load to layer sources.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"context"
	"runtime"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// InstitutionCap limits concurrent non-rejected applications a
	// student may hold at one institution.
	InstitutionCap int `koanf:"institution_cap"`

	// QualifyThreshold is the minimum weighted score for job
	// qualification, on the 0..100 scale.
	QualifyThreshold int `koanf:"qualify_threshold"`

	// RankerMinScore is the exclusive score floor for job matching.
	RankerMinScore int `koanf:"ranker_min_score"`

	// RankerLimit caps the number of matches returned per student.
	RankerLimit int `koanf:"ranker_limit"`

	// ArbitrationMaxAttempts bounds retries when an admission selection
	// loses a write race.
	ArbitrationMaxAttempts int `koanf:"arbitration_max_attempts"`

	// NotifyQueueSize bounds the in-memory notification queue.
	NotifyQueueSize int `koanf:"notify_queue_size"`

	// NotifyWorkerCount sets the number of notification workers.
	NotifyWorkerCount int `koanf:"notify_worker_count"`
}

// New creates a Config with defaults. Context is accepted first to
// satisfy the project-wide convention; it is reserved for future use.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:               "info",
		Addr:                   ":9080",
		InstitutionCap:         2,
		QualifyThreshold:       60,
		RankerMinScore:         50,
		RankerLimit:            10,
		ArbitrationMaxAttempts: 3,
		NotifyQueueSize:        1024,
		NotifyWorkerCount:      runtime.NumCPU(),
	}
}

// Package sync implements the push/pull synchronization engine: per-type
// managers, the dependency-ordered orchestrator and the run reports.
package sync

import "time"

// Config carries the engine tunables shared by all managers.
type Config struct {
	// SyncInterval is the pause between scheduled full passes.
	SyncInterval time.Duration
	// RequestTimeout bounds every individual remote call.
	RequestTimeout time.Duration
}

// DefaultConfig returns the tunables used when the daemon flags leave them
// unset.
func DefaultConfig() Config {
	return Config{
		SyncInterval:   30 * time.Second,
		RequestTimeout: 10 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	if c.SyncInterval <= 0 {
		c.SyncInterval = DefaultConfig().SyncInterval
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = DefaultConfig().RequestTimeout
	}
	return c
}

// Package config carries the tunables for the transaction manager and the
// CLI that drives it.
package config

import "github.com/sh-r/repcrec/internal/logger"

// Config bundles the fixed simulated-cluster layout with the ambient knobs
// (logging, concurrency) that don't belong to the spec's core model.
type Config struct {
	// SiteCount is the number of sites in the cluster (spec: fixed at 10).
	SiteCount int
	// VariableCount is the number of variables (spec: fixed at 20).
	VariableCount int
	// InitialValueMultiplier sets variable i's initial value to
	// InitialValueMultiplier * i (spec: 10).
	InitialValueMultiplier int

	LogLevel logger.Level

	Runner RunnerConfig
}

// RunnerConfig controls the batch runner that drives named script blocks.
type RunnerConfig struct {
	// Concurrent runs named blocks in parallel (they are independent, each
	// against a fresh Manager); false runs them sequentially in file order.
	Concurrent bool
	// WorkerCount bounds the ants goroutine pool size. 0 means the runner
	// picks a default.
	WorkerCount int
}

// Default returns the spec's fixed 10-site, 20-variable topology with
// conservative ambient defaults.
func Default() *Config {
	return &Config{
		SiteCount:              10,
		VariableCount:          20,
		InitialValueMultiplier: 10,
		LogLevel:               logger.LevelInfo,
		Runner: RunnerConfig{
			Concurrent:  true,
			WorkerCount: 0,
		},
	}
}

package gemini

import (
	"context"
	"time"

	"github.com/felixgeelhaar/fortify/retry"
	"github.com/felixgeelhaar/fortify/timeout"

	"github.com/store-auditor/backend/audit"
)

// ResilienceConfig bounds a single audit call
type ResilienceConfig struct {
	// MaxAttempts is the total number of calls, 1 means no retry.
	MaxAttempts int
	RetryDelay  time.Duration
	Timeout     time.Duration
}

// DefaultResilienceConfig keeps the single-shot behaviour and only adds a
// deadline so a stuck connection cannot pin a session in analyzing.
func DefaultResilienceConfig() ResilienceConfig {
	return ResilienceConfig{
		MaxAttempts: 1,
		RetryDelay:  time.Second,
		Timeout:     120 * time.Second,
	}
}

// ResilientGenerator wraps another generator with a timeout and bounded retry
type ResilientGenerator struct {
	inner audit.Generator
	cfg   ResilienceConfig
}

var _ audit.Generator = (*ResilientGenerator)(nil)

// NewResilientGenerator applies defaults for zero fields of cfg
func NewResilientGenerator(inner audit.Generator, cfg ResilienceConfig) *ResilientGenerator {
	def := DefaultResilienceConfig()
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = def.RetryDelay
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	return &ResilientGenerator{inner: inner, cfg: cfg}
}

// Config returns the effective settings
func (g *ResilientGenerator) Config() ResilienceConfig {
	return g.cfg
}

// Generate runs the wrapped call under the configured deadline. The deadline
// covers all attempts.
func (g *ResilientGenerator) Generate(ctx context.Context, req audit.GenerateRequest) (*audit.GenerateResponse, error) {
	r := retry.New[*audit.GenerateResponse](retry.Config{
		MaxAttempts:   g.cfg.MaxAttempts,
		InitialDelay:  g.cfg.RetryDelay,
		BackoffPolicy: retry.BackoffExponential,
	})
	t := timeout.New[*audit.GenerateResponse](timeout.Config{
		DefaultTimeout: g.cfg.Timeout,
	})

	return t.Execute(ctx, g.cfg.Timeout, func(ctx context.Context) (*audit.GenerateResponse, error) {
		return r.Do(ctx, func(ctx context.Context) (*audit.GenerateResponse, error) {
			return g.inner.Generate(ctx, req)
		})
	})
}

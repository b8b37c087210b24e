package cse

import (
	"log/slog"

	"github.com/roach88/trackcse/internal/ir"
)

// Option configures an Engine.
type Option func(*Engine)

// WithRegistry sets the registry supplying op traits.
//
// Default: ir.BuiltinRegistry()
func WithRegistry(r *ir.Registry) Option {
	return func(e *Engine) {
		e.registry = r
	}
}

// WithExclude keeps every operation for which fn returns true out of both
// merging and dead-op erasure.
func WithExclude(fn func(*ir.Operation) bool) Option {
	return func(e *Engine) {
		e.exclude = fn
	}
}

// WithEraseTriviallyDead enables erasure of effect-free operations whose
// results are never read.
//
// Default: false
func WithEraseTriviallyDead(enabled bool) Option {
	return func(e *Engine) {
		e.eraseDead = enabled
	}
}

// WithLogger sets the logger for per-merge debug lines and the run summary.
//
// Default: slog.Default()
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

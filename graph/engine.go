package graph

import (
	"context"

	"github.com/hupe1980/agentbridge/core"
)

// Engine drives a compiled Program to completion. It is the pluggable seam
// the adapter wraps: absence of an engine puts the adapter into degraded mode.
type Engine interface {
	Invoke(ctx context.Context, program *Program, initial core.State) (core.State, error)
}

// EngineOptions configures the in-process engine.
type EngineOptions struct {
	// MaxSteps bounds a single workflow walk. Defaults to 100.
	MaxSteps int
}

// LocalEngine executes compiled programs in-process.
type LocalEngine struct {
	maxSteps int
}

// NewLocalEngine constructs the in-process graph engine.
func NewLocalEngine(optFns ...func(o *EngineOptions)) *LocalEngine {
	opts := EngineOptions{MaxSteps: 100}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &LocalEngine{maxSteps: opts.MaxSteps}
}

// Invoke implements Engine.
func (e *LocalEngine) Invoke(ctx context.Context, program *Program, initial core.State) (core.State, error) {
	return program.Run(ctx, initial, e.maxSteps)
}

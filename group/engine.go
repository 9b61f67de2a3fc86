package group

import (
	"context"
	"fmt"

	"github.com/hupe1980/agentbridge/core"
)

// BoundTask pairs a composed task with its resolved handler and the indices
// of the earlier tasks whose results feed its context. A nil handler marks an
// agent-less task.
type BoundTask struct {
	Task        core.Task
	Handler     core.GroupTaskHandler
	ContextFrom []int
}

// Engine drives a composed task sequence to completion. It is the pluggable
// seam the adapter wraps: absence of an engine puts the adapter into degraded
// mode.
type Engine interface {
	Kickoff(ctx context.Context, tasks []BoundTask, initial core.State) (any, error)
}

// LocalEngine executes tasks sequentially in-process, accumulating results so
// later tasks can consume the outputs of earlier ones. Execution stops at the
// first error.
type LocalEngine struct{}

// NewLocalEngine constructs the in-process sequential engine.
func NewLocalEngine() *LocalEngine {
	return &LocalEngine{}
}

// Kickoff implements Engine. The returned payload is the ordered slice of
// task results.
func (e *LocalEngine) Kickoff(ctx context.Context, tasks []BoundTask, initial core.State) (any, error) {
	results := make([]core.TaskResult, 0, len(tasks))

	for i, bt := range tasks {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("task sequence interrupted at %d: %w", i, err)
		}

		prior := make([]core.TaskResult, 0, len(bt.ContextFrom))
		for _, idx := range bt.ContextFrom {
			prior = append(prior, results[idx])
		}

		output, err := e.runTask(ctx, bt, prior)
		if err != nil {
			return nil, fmt.Errorf("task %d %q: %w", i, bt.Task.Description, err)
		}

		results = append(results, core.TaskResult{
			Description: bt.Task.Description,
			Output:      output,
		})
	}

	return results, nil
}

// runTask invokes the handler, converting panics raised by unit logic into
// errors so they surface as execution failures instead of crashing the
// process. Agent-less tasks pass their expected output through unchanged.
func (e *LocalEngine) runTask(ctx context.Context, bt BoundTask, prior []core.TaskResult) (output string, err error) {
	if bt.Handler == nil {
		return bt.Task.ExpectedOutput, nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task handler panicked: %v", r)
		}
	}()
	return bt.Handler(ctx, bt.Task, prior)
}

package group

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hupe1980/agentbridge/core"
	"github.com/hupe1980/agentbridge/logging"
)

// Options holds dependency and configuration overrides passed to NewAdapter.
type Options struct {
	// Engine executes composed plans. Leaving it nil keeps the adapter in
	// degraded (unavailable) mode.
	Engine Engine
	// Logger receives diagnostic output. Defaults to NoOpLogger.
	Logger logging.Logger
}

type composedPlan struct {
	handle core.Plan
	tasks  []BoundTask
}

// Adapter wraps the group execution model behind the core.Backend contract.
// Public methods are safe for concurrent use.
type Adapter struct {
	registry core.Registry
	sink     core.Sink
	engine   Engine
	logger   logging.Logger

	mu        sync.RWMutex
	handlers  map[string]core.GroupTaskHandler
	order     []string
	plans     map[string]*composedPlan
	planOrder []string
}

// NewAdapter constructs a group backend bound to the given registry and sink.
func NewAdapter(reg core.Registry, events core.Sink, optFns ...func(o *Options)) *Adapter {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Adapter{
		registry: reg,
		sink:     events,
		engine:   opts.Engine,
		logger:   opts.Logger,
		handlers: make(map[string]core.GroupTaskHandler),
		plans:    make(map[string]*composedPlan),
	}
}

// Kind implements core.Backend.
func (a *Adapter) Kind() core.BackendKind { return core.BackendGroup }

// Available implements core.Backend.
func (a *Adapter) Available() bool { return a.engine != nil }

// RegisterUnit implements core.Backend. In degraded mode the registration is
// skipped with a WARNING event instead of an error.
func (a *Adapter) RegisterUnit(guid string, unit core.ExecutionUnit, capabilities []string) error {
	if !a.Available() {
		a.record(core.NewEvent(guid, core.EventUnitRegistered,
			"group engine not available, unit registration skipped", core.SeverityWarning))
		a.logger.Warn("group engine not available, unit registration skipped", "agent", core.ShortID(guid))
		return nil
	}

	taskUnit, ok := unit.(core.TaskUnit)
	if !ok {
		return fmt.Errorf("group backend cannot register %s units", unit.UnitKind())
	}

	identity, err := a.registry.Lookup(guid)
	if err != nil {
		return err
	}

	a.mu.Lock()
	if _, exists := a.handlers[guid]; !exists {
		a.order = append(a.order, guid)
	}
	a.handlers[guid] = taskUnit.Handler
	a.mu.Unlock()

	if err := a.registry.AddCapabilities(guid, capabilities...); err != nil {
		return err
	}

	a.record(core.NewEvent(guid, core.EventUnitRegistered,
		fmt.Sprintf("task handler registered for agent %q", identity.DisplayName), core.SeverityInfo))
	return nil
}

// Compose implements core.Backend. Agent references resolve by GUID or by
// index into the unit registration order; an unresolvable reference degrades
// the task to agent-less execution rather than aborting composition.
func (a *Adapter) Compose(def core.PlanDef) (core.Plan, error) {
	tasks := make([]BoundTask, 0, len(def.Tasks))
	units := make([]string, 0, len(def.Tasks))

	a.mu.RLock()
	order := append([]string(nil), a.order...)
	a.mu.RUnlock()

	for i, td := range def.Tasks {
		for _, idx := range td.ContextFrom {
			if idx < 0 || idx >= i {
				err := &core.CompositionError{
					Plan:   def.Name,
					Reason: fmt.Sprintf("task %d context references task %d, which is not an earlier task", i, idx),
				}
				a.recordComposeFailure(def.Name, err)
				return core.Plan{}, err
			}
		}

		guid := a.resolveAgent(td, order)
		a.mu.RLock()
		handler := a.handlers[guid]
		a.mu.RUnlock()

		tasks = append(tasks, BoundTask{
			Task: core.Task{
				Description:    td.Description,
				ExpectedOutput: td.ExpectedOutput,
				AgentGUID:      guid,
			},
			Handler:     handler,
			ContextFrom: append([]int(nil), td.ContextFrom...),
		})
		units = append(units, td.Description)
	}

	handle := core.Plan{
		ID:      core.NewID(),
		Name:    def.Name,
		Kind:    core.BackendGroup,
		Units:   units,
		Created: time.Now().UTC(),
	}

	a.mu.Lock()
	a.plans[handle.ID] = &composedPlan{handle: handle, tasks: tasks}
	a.planOrder = append(a.planOrder, handle.ID)
	a.mu.Unlock()

	a.record(core.NewEvent(handle.ID, core.EventComposed,
		fmt.Sprintf("group plan %q composed with %d tasks", def.Name, len(tasks)), core.SeverityInfo))
	a.logger.Debug("group plan composed", "plan", core.ShortID(handle.ID), "tasks", len(tasks))

	return handle, nil
}

// resolveAgent returns the GUID a task binds to, or empty for agent-less
// execution. GUID references are validated against the registry; index
// references select from the unit registration order.
func (a *Adapter) resolveAgent(td core.TaskDef, order []string) string {
	guid := td.AgentGUID
	if guid == "" && td.AgentIndex != nil {
		if idx := *td.AgentIndex; idx >= 0 && idx < len(order) {
			guid = order[idx]
		}
	}
	if guid == "" {
		return ""
	}
	if _, err := a.registry.Lookup(guid); err != nil {
		a.logger.Warn("agent reference unresolved, task degrades to agent-less execution",
			"agent", core.ShortID(guid), "task", td.Description)
		return ""
	}
	return guid
}

// Execute implements core.Backend.
func (a *Adapter) Execute(ctx context.Context, planID string, initial core.State) (core.ExecutionResult, error) {
	a.mu.RLock()
	plan, ok := a.plans[planID]
	a.mu.RUnlock()
	if !ok {
		return core.ExecutionResult{}, fmt.Errorf("group plan %s: %w", core.ShortID(planID), core.ErrNotFound)
	}

	if !a.Available() {
		result := core.ExecutionResult{
			PlanID:    planID,
			Status:    core.StatusSkipped,
			Payload:   "group engine not available",
			Timestamp: time.Now().UTC(),
		}
		a.record(core.NewEvent(planID, core.EventSkipped,
			fmt.Sprintf("group plan %q skipped: engine not available", plan.handle.Name), core.SeverityWarning))
		return result, nil
	}

	payload, err := a.engine.Kickoff(ctx, plan.tasks, initial.Clone())
	if err != nil {
		execErr := &core.ExecutionError{PlanID: planID, Err: err}
		a.record(core.NewEvent(planID, core.EventFailed,
			fmt.Sprintf("group plan %q failed: %v", plan.handle.Name, err), core.SeverityError))
		return core.ExecutionResult{
			PlanID:    planID,
			Status:    core.StatusFailed,
			Payload:   err.Error(),
			Timestamp: time.Now().UTC(),
		}, execErr
	}

	a.record(core.NewEvent(planID, core.EventCompleted,
		fmt.Sprintf("group plan %q completed", plan.handle.Name), core.SeverityInfo))
	return core.ExecutionResult{
		PlanID:    planID,
		Status:    core.StatusCompleted,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}, nil
}

// Plans implements core.Backend returning plan handles in insertion order.
func (a *Adapter) Plans() []core.Plan {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]core.Plan, 0, len(a.planOrder))
	for _, id := range a.planOrder {
		out = append(out, a.plans[id].handle)
	}
	return out
}

func (a *Adapter) recordComposeFailure(plan string, err error) {
	a.record(core.NewEvent("", core.EventComposeFailed,
		fmt.Sprintf("group plan %q rejected: %v", plan, err), core.SeverityError))
}

func (a *Adapter) record(ev core.Event) {
	if a.sink == nil {
		return
	}
	if err := a.sink.Record(ev); err != nil {
		a.logger.Warn("event sink record failed", "kind", ev.Kind, "error", err)
	}
}

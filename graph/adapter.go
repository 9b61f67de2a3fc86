package graph

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
	// Engine executes compiled programs. Leaving it nil keeps the adapter in
	// degraded (unavailable) mode.
	Engine Engine
	// Logger receives diagnostic output. Defaults to NoOpLogger.
	Logger logging.Logger
}

type composedPlan struct {
	handle  core.Plan
	program *Program
}

// Adapter wraps the directed-graph execution model behind the core.Backend
// contract. Public methods are safe for concurrent use.
type Adapter struct {
	registry core.Registry
	sink     core.Sink
	engine   Engine
	logger   logging.Logger

	mu        sync.RWMutex
	handlers  map[string]core.GraphNodeHandler
	plans     map[string]*composedPlan
	planOrder []string
}

// NewAdapter constructs a graph backend bound to the given registry and sink.
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
		handlers: make(map[string]core.GraphNodeHandler),
		plans:    make(map[string]*composedPlan),
	}
}

// Kind implements core.Backend.
func (a *Adapter) Kind() core.BackendKind { return core.BackendGraph }

// Available implements core.Backend.
func (a *Adapter) Available() bool { return a.engine != nil }

// RegisterUnit implements core.Backend. In degraded mode the registration is
// skipped with a WARNING event instead of an error.
func (a *Adapter) RegisterUnit(guid string, unit core.ExecutionUnit, capabilities []string) error {
	if !a.Available() {
		a.record(core.NewEvent(guid, core.EventUnitRegistered,
			"graph engine not available, unit registration skipped", core.SeverityWarning))
		a.logger.Warn("graph engine not available, unit registration skipped", "agent", core.ShortID(guid))
		return nil
	}

	nodeUnit, ok := unit.(core.NodeUnit)
	if !ok {
		return fmt.Errorf("graph backend cannot register %s units", unit.UnitKind())
	}

	identity, err := a.registry.Lookup(guid)
	if err != nil {
		return err
	}

	a.mu.Lock()
	a.handlers[guid] = nodeUnit.Handler
	a.mu.Unlock()

	if err := a.registry.AddCapabilities(guid, capabilities...); err != nil {
		return err
	}

	a.record(core.NewEvent(guid, core.EventUnitRegistered,
		fmt.Sprintf("node handler registered for agent %q", identity.DisplayName), core.SeverityInfo))
	return nil
}

// Compose implements core.Backend. Nodes without a registered executable
// default to identity passthrough so graphs compile during staged
// construction; structural invariants are checked by StateGraph.Compile.
func (a *Adapter) Compose(def core.PlanDef) (core.Plan, error) {
	builder := NewStateGraph()

	a.mu.RLock()
	for _, nd := range def.Nodes {
		builder.AddNode(nd.Name, a.handlers[nd.AgentGUID])
	}
	a.mu.RUnlock()

	for _, ed := range def.Edges {
		if ed.Conditional() {
			builder.AddConditionalEdges(ed.From, ed.Decide, ed.Branches)
		} else {
			builder.AddEdge(ed.From, ed.To)
		}
	}
	if def.Entry != "" {
		builder.SetEntryPoint(def.Entry)
	}

	program, err := builder.Compile()
	if err != nil {
		compErr := &core.CompositionError{Plan: def.Name, Reason: err.Error()}
		a.record(core.NewEvent("", core.EventComposeFailed,
			fmt.Sprintf("graph plan %q rejected: %v", def.Name, err), core.SeverityError))
		return core.Plan{}, compErr
	}

	handle := core.Plan{
		ID:      core.NewID(),
		Name:    def.Name,
		Kind:    core.BackendGraph,
		Units:   program.Nodes(),
		Created: time.Now().UTC(),
	}

	a.mu.Lock()
	a.plans[handle.ID] = &composedPlan{handle: handle, program: program}
	a.planOrder = append(a.planOrder, handle.ID)
	a.mu.Unlock()

	a.record(core.NewEvent(handle.ID, core.EventComposed,
		fmt.Sprintf("graph plan %q composed with %d nodes, entry %q", def.Name, len(def.Nodes), program.Entry()), core.SeverityInfo))
	a.logger.Debug("graph plan composed", "plan", core.ShortID(handle.ID), "entry", program.Entry())

	return handle, nil
}

// Execute implements core.Backend.
func (a *Adapter) Execute(ctx context.Context, planID string, initial core.State) (core.ExecutionResult, error) {
	a.mu.RLock()
	plan, ok := a.plans[planID]
	a.mu.RUnlock()
	if !ok {
		return core.ExecutionResult{}, fmt.Errorf("graph plan %s: %w", core.ShortID(planID), core.ErrNotFound)
	}

	if !a.Available() {
		result := core.ExecutionResult{
			PlanID:    planID,
			Status:    core.StatusSkipped,
			Payload:   "graph engine not available",
			Timestamp: time.Now().UTC(),
		}
		a.record(core.NewEvent(planID, core.EventSkipped,
			fmt.Sprintf("graph plan %q skipped: engine not available", plan.handle.Name), core.SeverityWarning))
		return result, nil
	}

	final, err := a.engine.Invoke(ctx, plan.program, initial)
	if err != nil {
		execErr := &core.ExecutionError{PlanID: planID, Err: err}
		a.record(core.NewEvent(planID, core.EventFailed,
			fmt.Sprintf("graph plan %q failed: %v", plan.handle.Name, err), core.SeverityError))
		return core.ExecutionResult{
			PlanID:    planID,
			Status:    core.StatusFailed,
			Payload:   err.Error(),
			Timestamp: time.Now().UTC(),
		}, execErr
	}

	a.record(core.NewEvent(planID, core.EventCompleted,
		fmt.Sprintf("graph plan %q completed", plan.handle.Name), core.SeverityInfo))
	return core.ExecutionResult{
		PlanID:    planID,
		Status:    core.StatusCompleted,
		Payload:   final,
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

func (a *Adapter) record(ev core.Event) {
	if a.sink == nil {
		return
	}
	if err := a.sink.Record(ev); err != nil {
		a.logger.Warn("event sink record failed", "kind", ev.Kind, "error", err)
	}
}

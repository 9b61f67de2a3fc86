// Package agentbridge provides a high-level façade over the backend adapters
// and service abstractions (identity registry, event sink & logging) enabling
// heterogeneous agent execution backends to be registered, composed and
// executed through one uniform protocol. Most applications interact with this
// package by:
//  1. Creating an Orchestrator via New() (optionally overriding default in-memory services)
//  2. Registering agent identities and attaching executable units
//  3. Composing plans and running them asynchronously (Run) or synchronously (RunSync)
//
// The façade guarantees a uniform result shape across backend kinds so calling
// code never branches on which backend ran. All defaults are safe for local
// development and testing; production deployments typically supply a durable
// event sink and a structured logger.
package agentbridge

import (
	"context"
	"fmt"

	"github.com/hupe1980/agentbridge/core"
	"github.com/hupe1980/agentbridge/graph"
	"github.com/hupe1980/agentbridge/group"
	"github.com/hupe1980/agentbridge/logging"
	"github.com/hupe1980/agentbridge/registry"
	"github.com/hupe1980/agentbridge/sink"
)

// Options configures the Orchestrator instance.
type Options struct {
	// Sink receives every audit event (defaults to an in-memory sink).
	Sink core.Sink

	// Registry stores agent identities (defaults to in-memory, wired to Sink).
	Registry core.Registry

	// GroupEngine executes group plans. Nil leaves the group backend in
	// degraded mode. Defaults to the in-process sequential engine.
	GroupEngine group.Engine

	// GraphEngine executes graph plans. Nil leaves the graph backend in
	// degraded mode. Defaults to the in-process engine.
	GraphEngine graph.Engine

	// Logger (defaults to NoOp logger if nil).
	Logger logging.Logger
}

// Orchestrator is the single entry point other application code talks to. It
// owns explicitly constructed adapter instances (no process-wide singletons),
// picks the adapter matching a backend kind, delegates, and guarantees a
// uniform error and status shape regardless of which backend is active or
// absent. Public methods are safe for concurrent use.
type Orchestrator struct {
	registry core.Registry
	sink     core.Sink
	backends map[core.BackendKind]core.Backend
	logger   logging.Logger
}

// New creates an Orchestrator with optional overrides. Any unset service is
// initialized with an in-memory implementation and both engines default to
// their in-process variants.
func New(optFns ...func(o *Options)) *Orchestrator {
	opts := Options{
		GroupEngine: group.NewLocalEngine(),
		GraphEngine: graph.NewLocalEngine(),
		Logger:      logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Sink == nil {
		opts.Sink = sink.NewInMemory()
	}
	if opts.Registry == nil {
		opts.Registry = registry.NewInMemory(opts.Sink, func(o *registry.Options) {
			o.Logger = opts.Logger
		})
	}

	groupAdapter := group.NewAdapter(opts.Registry, opts.Sink, func(o *group.Options) {
		o.Engine = opts.GroupEngine
		o.Logger = opts.Logger
	})
	graphAdapter := graph.NewAdapter(opts.Registry, opts.Sink, func(o *graph.Options) {
		o.Engine = opts.GraphEngine
		o.Logger = opts.Logger
	})

	return &Orchestrator{
		registry: opts.Registry,
		sink:     opts.Sink,
		backends: map[core.BackendKind]core.Backend{
			core.BackendGroup: groupAdapter,
			core.BackendGraph: graphAdapter,
		},
		logger: opts.Logger,
	}
}

// Registry exposes the identity registry for registration and listing.
func (o *Orchestrator) Registry() core.Registry { return o.registry }

// Backend returns the adapter for the given kind.
func (o *Orchestrator) Backend(kind core.BackendKind) (core.Backend, error) {
	b, ok := o.backends[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", core.ErrUnknownBackend, kind)
	}
	return b, nil
}

// RegisterAgent registers a new agent identity.
func (o *Orchestrator) RegisterAgent(displayName string, capabilities []string, kind core.BackendKind) (core.AgentIdentity, error) {
	if !kind.Valid() {
		return core.AgentIdentity{}, fmt.Errorf("%w: %q", core.ErrUnknownBackend, kind)
	}
	return o.registry.Register(displayName, capabilities, kind)
}

// RegisterUnit attaches an executable unit to a registered identity on the
// backend matching kind.
func (o *Orchestrator) RegisterUnit(kind core.BackendKind, guid string, unit core.ExecutionUnit, capabilities []string) error {
	b, err := o.Backend(kind)
	if err != nil {
		return err
	}
	return b.RegisterUnit(guid, unit, capabilities)
}

// Compose validates and stores a plan on the backend matching kind. It works
// even when the backend is unavailable so plans can be inspected and listed.
func (o *Orchestrator) Compose(kind core.BackendKind, def core.PlanDef) (core.Plan, error) {
	b, err := o.Backend(kind)
	if err != nil {
		return core.Plan{}, err
	}
	return b.Compose(def)
}

// Run composes the plan definition and starts an asynchronous execution. It
// returns the composed plan handle plus a result channel and an error channel,
// each buffered with size one and closed after the invocation completes.
// Composition failures surface synchronously; execution failures arrive on the
// error channel while the result channel still delivers the FAILED result. An
// unavailable backend delivers a SKIPPED result and no error.
func (o *Orchestrator) Run(ctx context.Context, kind core.BackendKind, def core.PlanDef, initial core.State) (core.Plan, <-chan core.ExecutionResult, <-chan error, error) {
	b, err := o.Backend(kind)
	if err != nil {
		return core.Plan{}, nil, nil, err
	}

	plan, err := b.Compose(def)
	if err != nil {
		return core.Plan{}, nil, nil, err
	}

	resultCh := make(chan core.ExecutionResult, 1)
	errorCh := make(chan error, 1)

	go func() {
		defer close(resultCh)
		defer close(errorCh)

		result, err := b.Execute(ctx, plan.ID, initial)
		if err != nil {
			errorCh <- err
		}
		resultCh <- result
	}()

	return plan, resultCh, errorCh, nil
}

// RunSync composes and executes the plan, awaiting the result. The returned
// result always has the uniform shape of core.ExecutionResult; a non-nil error
// accompanies a FAILED result so callers see failures while the event stream
// retains the diagnostic.
func (o *Orchestrator) RunSync(ctx context.Context, kind core.BackendKind, def core.PlanDef, initial core.State) (core.ExecutionResult, error) {
	plan, resultCh, errorCh, err := o.Run(ctx, kind, def, initial)
	if err != nil {
		return core.ExecutionResult{}, err
	}
	o.logger.Debug("plan execution started", "plan", core.ShortID(plan.ID), "backend", kind)

	result := <-resultCh
	if execErr := <-errorCh; execErr != nil {
		return result, execErr
	}
	return result, nil
}

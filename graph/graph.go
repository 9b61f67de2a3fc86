package graph

import (
	"context"
	"fmt"

	"github.com/hupe1980/agentbridge/core"
)

// End is the terminal sentinel. Edges routing to End stop execution, as does
// reaching a node with no outgoing edge.
const End = "__end__"

type edge struct {
	to       string
	decide   core.DecisionFunc
	branches map[string]string
}

// StateGraph is a mutable builder for a directed workflow graph. Build it
// with AddNode / AddEdge / AddConditionalEdges / SetEntryPoint, then call
// Compile to validate the structure and obtain an immutable Program.
type StateGraph struct {
	nodes map[string]core.GraphNodeHandler
	order []string
	edges map[string]edge
	entry string
	err   error
}

// NewStateGraph constructs an empty graph builder.
func NewStateGraph() *StateGraph {
	return &StateGraph{
		nodes: make(map[string]core.GraphNodeHandler),
		edges: make(map[string]edge),
	}
}

// fail records the first builder error; Compile reports it.
func (g *StateGraph) fail(format string, args ...any) {
	if g.err == nil {
		g.err = fmt.Errorf(format, args...)
	}
}

// AddNode registers a named node. A nil handler defaults to identity
// passthrough so graphs still compile during staged construction.
func (g *StateGraph) AddNode(name string, handler core.GraphNodeHandler) *StateGraph {
	if name == "" || name == End {
		g.fail("invalid node name %q", name)
		return g
	}
	if _, exists := g.nodes[name]; exists {
		g.fail("node %q already exists", name)
		return g
	}
	if handler == nil {
		handler = Passthrough
	}
	g.nodes[name] = handler
	g.order = append(g.order, name)
	return g
}

// AddEdge adds an unconditional transition from one node to another (or End).
func (g *StateGraph) AddEdge(from, to string) *StateGraph {
	if _, exists := g.edges[from]; exists {
		g.fail("node %q already has an outgoing edge", from)
		return g
	}
	g.edges[from] = edge{to: to}
	return g
}

// AddConditionalEdges adds a decision-routed transition: decide is invoked
// against the current state and the returned label selects the next node from
// branches.
func (g *StateGraph) AddConditionalEdges(from string, decide core.DecisionFunc, branches map[string]string) *StateGraph {
	if _, exists := g.edges[from]; exists {
		g.fail("node %q already has an outgoing edge", from)
		return g
	}
	g.edges[from] = edge{decide: decide, branches: branches}
	return g
}

// SetEntryPoint designates the node execution starts from.
func (g *StateGraph) SetEntryPoint(name string) *StateGraph {
	g.entry = name
	return g
}

// Compile validates the graph's structural invariants and returns an
// immutable Program. The builder can be discarded afterwards.
//
// Validated invariants:
//   - at least one node exists and the entry node is present
//   - every edge endpoint references an existing node (or End as target)
//   - conditional edges declare a non-empty branch map whose targets exist
//   - the decision function, probed once against an empty state, returns a
//     label present in its branch map
func (g *StateGraph) Compile() (*Program, error) {
	if g.err != nil {
		return nil, g.err
	}
	if len(g.order) == 0 {
		return nil, fmt.Errorf("graph has no nodes")
	}

	entry := g.entry
	if entry == "" {
		entry = g.order[0]
	}
	if _, ok := g.nodes[entry]; !ok {
		return nil, fmt.Errorf("entry node %q does not exist", entry)
	}

	for from, e := range g.edges {
		if _, ok := g.nodes[from]; !ok {
			return nil, fmt.Errorf("edge source %q does not exist", from)
		}
		if e.decide == nil {
			if err := g.checkTarget(from, e.to); err != nil {
				return nil, err
			}
			continue
		}
		if len(e.branches) == 0 {
			return nil, fmt.Errorf("conditional edge from %q has no branches", from)
		}
		for label, to := range e.branches {
			if err := g.checkTarget(from, to); err != nil {
				return nil, fmt.Errorf("branch %q: %w", label, err)
			}
		}
		if label := g.probe(e.decide); label != "" {
			if _, ok := e.branches[label]; !ok {
				return nil, fmt.Errorf("decision function at %q returns label %q absent from its branch map", from, label)
			}
		}
	}

	nodes := make(map[string]core.GraphNodeHandler, len(g.nodes))
	for name, h := range g.nodes {
		nodes[name] = h
	}
	edges := make(map[string]edge, len(g.edges))
	for from, e := range g.edges {
		edges[from] = e
	}

	return &Program{nodes: nodes, edges: edges, entry: entry, names: append([]string(nil), g.order...)}, nil
}

func (g *StateGraph) checkTarget(from, to string) error {
	if to == End {
		return nil
	}
	if _, ok := g.nodes[to]; !ok {
		return fmt.Errorf("edge from %q targets unknown node %q", from, to)
	}
	return nil
}

// probe smoke-tests a decision function against an empty state snapshot. A
// panicking function is left for runtime reporting; probe only answers the
// deterministic always-wrong-label case.
func (g *StateGraph) probe(decide core.DecisionFunc) (label string) {
	defer func() {
		if recover() != nil {
			label = ""
		}
	}()
	return decide(core.State{})
}

// Passthrough is the default node handler: it returns the state unchanged.
func Passthrough(_ context.Context, state core.State) (core.State, error) {
	return state, nil
}

// Program is a compiled, immutable workflow graph.
type Program struct {
	nodes map[string]core.GraphNodeHandler
	edges map[string]edge
	entry string
	names []string
}

// Entry returns the designated entry node.
func (p *Program) Entry() string { return p.entry }

// Nodes returns the node names in insertion order.
func (p *Program) Nodes() []string { return append([]string(nil), p.names...) }

// Run executes the program from its entry node. Unconditional edges route
// unconditionally; conditional edges invoke the decision function against the
// current state and route by the returned label. Execution halts when an edge
// routes to End or the current node has no outgoing edge. maxSteps bounds the
// walk so cyclic graphs cannot spin forever.
func (p *Program) Run(ctx context.Context, initial core.State, maxSteps int) (core.State, error) {
	state := initial.Clone()
	current := p.entry

	for step := 0; ; step++ {
		if step >= maxSteps {
			return nil, fmt.Errorf("step limit %d exceeded at node %q", maxSteps, current)
		}
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("workflow interrupted at node %q: %w", current, err)
		}

		next, err := p.step(ctx, current, &state)
		if err != nil {
			return nil, err
		}
		if next == "" {
			return state, nil
		}
		current = next
	}
}

// step runs one node and resolves its outgoing edge. An empty next name
// signals the terminal condition. Panics raised by node handlers or decision
// functions are converted into errors at this boundary.
func (p *Program) step(ctx context.Context, current string, state *core.State) (next string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("node %q panicked: %v", current, r)
		}
	}()

	out, err := p.nodes[current](ctx, *state)
	if err != nil {
		return "", fmt.Errorf("node %q: %w", current, err)
	}
	*state = out

	e, ok := p.edges[current]
	if !ok {
		return "", nil
	}
	if e.decide == nil {
		next = e.to
	} else {
		label := e.decide(*state)
		next, ok = e.branches[label]
		if !ok {
			return "", fmt.Errorf("decision at node %q returned unknown label %q", current, label)
		}
	}
	if next == End {
		return "", nil
	}
	return next, nil
}

package core

import "time"

// DecisionFunc routes a conditional edge by returning one of the labels
// declared in the edge's branch map.
type DecisionFunc func(state State) string

// PlanDef is the caller-supplied definition a backend composes into a Plan.
// Group plans use Tasks; graph plans use Nodes, Edges and Entry. The unused
// half is ignored by the selected backend.
type PlanDef struct {
	Name string `json:"name"`

	// Group model: ordered tasks sharing accumulated context.
	Tasks []TaskDef `json:"tasks,omitempty"`

	// Graph model: directed graph with a single entry node.
	Nodes []NodeDef `json:"nodes,omitempty"`
	Edges []EdgeDef `json:"edges,omitempty"`
	Entry string    `json:"entry,omitempty"`
}

// TaskDef declares one group task. The bound agent may be referenced by GUID
// or by index into the backend's unit registration order; an unresolvable
// reference degrades the task to agent-less execution rather than aborting
// composition. ContextFrom lists indices of earlier tasks whose results feed
// this task's context.
type TaskDef struct {
	Description    string `json:"description"`
	ExpectedOutput string `json:"expected_output,omitempty"`
	AgentGUID      string `json:"agent_guid,omitempty"`
	AgentIndex     *int   `json:"agent_index,omitempty"`
	ContextFrom    []int  `json:"context_from,omitempty"`
}

// NodeDef declares one graph node. AgentGUID selects the registered identity
// whose executable handles the node; when no executable is found the node
// defaults to identity-passthrough so graphs still compile during staged
// construction.
type NodeDef struct {
	Name      string `json:"name"`
	AgentGUID string `json:"agent_guid,omitempty"`
}

// EdgeDef declares a transition between graph nodes. An edge is unconditional
// when Decide is nil and routes to To. A conditional edge invokes Decide
// against the current state and routes to Branches[label]. Branch targets and
// To may name the terminal sentinel to end execution.
type EdgeDef struct {
	From     string            `json:"from"`
	To       string            `json:"to,omitempty"`
	Decide   DecisionFunc      `json:"-"`
	Branches map[string]string `json:"branches,omitempty"`
}

// Conditional reports whether the edge routes through a decision function.
func (e EdgeDef) Conditional() bool { return e.Decide != nil }

// Plan is the immutable handle returned by a successful composition. The
// composed program itself stays inside the owning backend; the handle carries
// only identifying and descriptive data. Re-composition always produces a new
// Plan with a new ID.
type Plan struct {
	ID      string      `json:"id"`
	Name    string      `json:"name"`
	Kind    BackendKind `json:"kind"`
	Units   []string    `json:"units"`
	Created time.Time   `json:"created"`
}

// Status is the terminal outcome of one execution invocation.
type Status string

const (
	// StatusCompleted means the plan ran to its terminal condition.
	StatusCompleted Status = "completed"
	// StatusSkipped means the backend was unavailable; not a failure.
	StatusSkipped Status = "skipped"
	// StatusFailed means a unit or the engine surfaced an error.
	StatusFailed Status = "failed"
)

// ExecutionResult is produced exactly once per execution invocation and never
// mutated afterwards. Payload holds the produced value for completed runs and
// the failure description otherwise.
type ExecutionResult struct {
	PlanID    string    `json:"plan_id"`
	Status    Status    `json:"status"`
	Payload   any       `json:"payload,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

package core

import "context"

// UnitKind tags the closed set of execution unit variants. Backends dispatch
// by tag instead of runtime introspection.
type UnitKind int

const (
	// UnitTask is a linear task run by the group backend.
	UnitTask UnitKind = iota
	// UnitNode is a graph node run by the graph backend.
	UnitNode
)

// String returns the lowercase name of the unit kind.
func (k UnitKind) String() string {
	switch k {
	case UnitTask:
		return "task"
	case UnitNode:
		return "node"
	default:
		return "unknown"
	}
}

// State is the mutable key/value context threaded through a graph execution
// and offered to group tasks as initial input.
type State map[string]any

// Clone returns a shallow copy so executions never share mutable state.
func (s State) Clone() State {
	out := make(State, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Task is the atomic unit of work for the group backend. AgentGUID binds the
// task to a registered identity; an empty value means agent-less execution.
type Task struct {
	Description    string `json:"description"`
	ExpectedOutput string `json:"expected_output"`
	AgentGUID      string `json:"agent_guid,omitempty"`
}

// TaskResult captures one task's output, fed as context to later tasks.
type TaskResult struct {
	Description string `json:"description"`
	Output      string `json:"output"`
}

// GroupTaskHandler executes one group task given the results of the prior
// tasks wired into its context.
type GroupTaskHandler func(ctx context.Context, task Task, prior []TaskResult) (string, error)

// GraphNodeHandler transforms the workflow state at one graph node.
type GraphNodeHandler func(ctx context.Context, state State) (State, error)

// ExecutionUnit is the polymorphic "executable given a state/context" surface
// shared by both backend models. Exactly two variants exist: TaskUnit and
// NodeUnit.
type ExecutionUnit interface {
	UnitKind() UnitKind
}

// TaskUnit wraps a GroupTaskHandler for registration with the group backend.
type TaskUnit struct {
	Handler GroupTaskHandler
}

// UnitKind implements ExecutionUnit.
func (TaskUnit) UnitKind() UnitKind { return UnitTask }

// NodeUnit wraps a GraphNodeHandler for registration with the graph backend.
type NodeUnit struct {
	Handler GraphNodeHandler
}

// UnitKind implements ExecutionUnit.
func (NodeUnit) UnitKind() UnitKind { return UnitNode }

package graph

import (
	"context"
	"errors"
	"testing"

	"github.com/hupe1980/agentbridge/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func appendStep(name string) core.GraphNodeHandler {
	return func(_ context.Context, state core.State) (core.State, error) {
		steps, _ := state["steps"].([]string)
		out := state.Clone()
		out["steps"] = append(steps, name)
		return out, nil
	}
}

func TestStateGraph_CompileAndRunLinear(t *testing.T) {
	program, err := NewStateGraph().
		AddNode("start", appendStep("start")).
		AddNode("middle", appendStep("middle")).
		AddNode("end", appendStep("end")).
		AddEdge("start", "middle").
		AddEdge("middle", "end").
		SetEntryPoint("start").
		Compile()
	require.NoError(t, err)

	final, err := program.Run(context.Background(), core.State{}, 100)
	require.NoError(t, err)
	assert.Equal(t, []string{"start", "middle", "end"}, final["steps"])
}

func TestStateGraph_EntryDefaultsToFirstNode(t *testing.T) {
	program, err := NewStateGraph().
		AddNode("first", appendStep("first")).
		AddNode("second", appendStep("second")).
		AddEdge("first", "second").
		Compile()
	require.NoError(t, err)

	assert.Equal(t, "first", program.Entry())
}

func TestStateGraph_PassthroughLeavesStateUnchanged(t *testing.T) {
	program, err := NewStateGraph().
		AddNode("a", nil).
		AddNode("b", nil).
		AddEdge("a", "b").
		Compile()
	require.NoError(t, err)

	initial := core.State{"input": "untouched", "n": 42}
	final, err := program.Run(context.Background(), initial, 100)
	require.NoError(t, err)
	assert.Equal(t, initial, final)
}

func TestStateGraph_ConditionalRouting(t *testing.T) {
	program, err := NewStateGraph().
		AddNode("check", nil).
		AddNode("high", appendStep("high")).
		AddNode("low", appendStep("low")).
		AddConditionalEdges("check", func(state core.State) string {
			if n, _ := state["n"].(int); n > 10 {
				return "high"
			}
			return "low"
		}, map[string]string{"high": "high", "low": "low"}).
		SetEntryPoint("check").
		Compile()
	require.NoError(t, err)

	final, err := program.Run(context.Background(), core.State{"n": 42}, 100)
	require.NoError(t, err)
	assert.Equal(t, []string{"high"}, final["steps"])

	final, err = program.Run(context.Background(), core.State{"n": 3}, 100)
	require.NoError(t, err)
	assert.Equal(t, []string{"low"}, final["steps"])
}

func TestStateGraph_EdgeToEndTerminates(t *testing.T) {
	program, err := NewStateGraph().
		AddNode("only", appendStep("only")).
		AddEdge("only", End).
		Compile()
	require.NoError(t, err)

	final, err := program.Run(context.Background(), core.State{}, 100)
	require.NoError(t, err)
	assert.Equal(t, []string{"only"}, final["steps"])
}

func TestStateGraph_CompileErrors(t *testing.T) {
	tests := []struct {
		name    string
		build   func() *StateGraph
		wantErr string
	}{
		{
			name:    "no nodes",
			build:   NewStateGraph,
			wantErr: "no nodes",
		},
		{
			name: "missing entry",
			build: func() *StateGraph {
				return NewStateGraph().AddNode("a", nil).SetEntryPoint("ghost")
			},
			wantErr: `entry node "ghost"`,
		},
		{
			name: "edge to unknown node",
			build: func() *StateGraph {
				return NewStateGraph().AddNode("a", nil).AddEdge("a", "ghost")
			},
			wantErr: `unknown node "ghost"`,
		},
		{
			name: "duplicate node",
			build: func() *StateGraph {
				return NewStateGraph().AddNode("a", nil).AddNode("a", nil)
			},
			wantErr: "already exists",
		},
		{
			name: "duplicate outgoing edge",
			build: func() *StateGraph {
				return NewStateGraph().
					AddNode("a", nil).AddNode("b", nil).
					AddEdge("a", "b").AddEdge("a", End)
			},
			wantErr: "already has an outgoing edge",
		},
		{
			name: "conditional branch to unknown node",
			build: func() *StateGraph {
				return NewStateGraph().
					AddNode("a", nil).
					AddConditionalEdges("a", func(core.State) string { return "x" },
						map[string]string{"x": "ghost"})
			},
			wantErr: `unknown node "ghost"`,
		},
		{
			name: "conditional edge without branches",
			build: func() *StateGraph {
				return NewStateGraph().
					AddNode("a", nil).
					AddConditionalEdges("a", func(core.State) string { return "x" }, nil)
			},
			wantErr: "no branches",
		},
		{
			name: "decision returns absent label",
			build: func() *StateGraph {
				return NewStateGraph().
					AddNode("a", nil).AddNode("b", nil).
					AddConditionalEdges("a", func(core.State) string { return "nowhere" },
						map[string]string{"b": "b"})
			},
			wantErr: `label "nowhere" absent`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.build().Compile()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestProgram_StepLimit(t *testing.T) {
	program, err := NewStateGraph().
		AddNode("a", nil).
		AddNode("b", nil).
		AddEdge("a", "b").
		AddEdge("b", "a").
		Compile()
	require.NoError(t, err)

	_, err = program.Run(context.Background(), core.State{}, 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "step limit")
}

func TestProgram_NodeErrorPropagates(t *testing.T) {
	boom := errors.New("cannot reach service")
	program, err := NewStateGraph().
		AddNode("a", func(context.Context, core.State) (core.State, error) {
			return nil, boom
		}).
		Compile()
	require.NoError(t, err)

	_, err = program.Run(context.Background(), core.State{}, 100)
	assert.ErrorIs(t, err, boom)
}

func TestProgram_NodePanicConverted(t *testing.T) {
	program, err := NewStateGraph().
		AddNode("a", func(context.Context, core.State) (core.State, error) {
			panic("boom")
		}).
		Compile()
	require.NoError(t, err)

	_, err = program.Run(context.Background(), core.State{}, 100)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panicked")
}

func TestProgram_RunDoesNotMutateInitialState(t *testing.T) {
	program, err := NewStateGraph().
		AddNode("a", func(_ context.Context, state core.State) (core.State, error) {
			state["touched"] = true
			return state, nil
		}).
		Compile()
	require.NoError(t, err)

	initial := core.State{"input": 1}
	_, err = program.Run(context.Background(), initial, 100)
	require.NoError(t, err)
	assert.NotContains(t, initial, "touched")
}

func TestProgram_CancelledContext(t *testing.T) {
	program, err := NewStateGraph().AddNode("a", nil).Compile()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = program.Run(ctx, core.State{}, 100)
	assert.ErrorIs(t, err, context.Canceled)
}

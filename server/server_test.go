package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hupe1980/agentbridge"
	"github.com/hupe1980/agentbridge/core"
	"github.com/hupe1980/agentbridge/sink"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, optFns ...func(o *agentbridge.Options)) (*Server, *sink.InMemory) {
	t.Helper()
	events := sink.NewInMemory()
	orchestrator := agentbridge.New(append([]func(o *agentbridge.Options){
		func(o *agentbridge.Options) { o.Sink = events },
	}, optFns...)...)
	return New(orchestrator, func(o *Options) { o.Events = events }), events
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestServer_RegisterAndListAgents(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doJSON(t, s.Handler(), http.MethodPost, "/api/agents", map[string]any{
		"display_name": "Researcher",
		"capabilities": []string{"summarize"},
		"backend_kind": "group",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var identity core.AgentIdentity
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &identity))
	assert.True(t, core.ValidID(identity.GUID))
	assert.Equal(t, "Researcher", identity.DisplayName)

	rec = doJSON(t, s.Handler(), http.MethodGet, "/api/agents", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var list []core.AgentIdentity
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, identity.GUID, list[0].GUID)
}

func TestServer_RegisterAgent_Validation(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doJSON(t, s.Handler(), http.MethodPost, "/api/agents", map[string]any{
		"display_name": "", "backend_kind": "group",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, s.Handler(), http.MethodPost, "/api/agents", map[string]any{
		"display_name": "X", "backend_kind": "quantum",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_RunGraphPlan(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doJSON(t, s.Handler(), http.MethodPost, "/api/runs", map[string]any{
		"backend_kind": "graph",
		"plan": map[string]any{
			"name":  "linear",
			"nodes": []map[string]any{{"name": "start"}, {"name": "end"}},
			"edges": []map[string]any{{"from": "start", "to": "end"}},
			"entry": "start",
		},
		"initial": map[string]any{"input": "unchanged"},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Result core.ExecutionResult `json:"result"`
		Error  string               `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Empty(t, resp.Error)
	assert.Equal(t, core.StatusCompleted, resp.Result.Status)
	assert.Equal(t, map[string]any{"input": "unchanged"}, resp.Result.Payload)
}

func TestServer_RunSkippedWhenBackendDisabled(t *testing.T) {
	s, _ := newTestServer(t, func(o *agentbridge.Options) { o.GroupEngine = nil })

	rec := doJSON(t, s.Handler(), http.MethodPost, "/api/runs", map[string]any{
		"backend_kind": "group",
		"plan": map[string]any{
			"name":  "skipped",
			"tasks": []map[string]any{{"description": "t"}},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Result core.ExecutionResult `json:"result"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, core.StatusSkipped, resp.Result.Status)
}

func TestServer_RunValidationErrors(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doJSON(t, s.Handler(), http.MethodPost, "/api/runs", map[string]any{
		"backend_kind": "quantum",
		"plan":         map[string]any{"name": "x"},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, s.Handler(), http.MethodPost, "/api/runs", map[string]any{
		"backend_kind": "graph",
		"plan": map[string]any{
			"name":  "broken",
			"nodes": []map[string]any{{"name": "a"}},
			"edges": []map[string]any{{"from": "a", "to": "ghost"}},
		},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestServer_ListEvents(t *testing.T) {
	s, events := newTestServer(t)

	require.NoError(t, events.Record(core.NewEvent("a", core.EventRegistered, "hello", core.SeverityInfo)))

	rec := doJSON(t, s.Handler(), http.MethodGet, "/api/events", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var got []core.Event
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "hello", got[0].Message)
}

func TestServer_ListEvents_NotConfigured(t *testing.T) {
	s := New(agentbridge.New())

	rec := doJSON(t, s.Handler(), http.MethodGet, "/api/events", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

package registry

import (
	"sync"
	"testing"

	"github.com/hupe1980/agentbridge/core"
	"github.com/hupe1980/agentbridge/sink"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemory_Register(t *testing.T) {
	events := sink.NewInMemory()
	r := NewInMemory(events)

	identity, err := r.Register("Researcher", []string{"summarize"}, core.BackendGroup)
	require.NoError(t, err)

	assert.True(t, core.ValidID(identity.GUID))
	assert.Equal(t, "Researcher", identity.DisplayName)
	assert.Equal(t, []string{"summarize"}, identity.Capabilities)
	assert.Equal(t, core.BackendGroup, identity.Kind)
	assert.False(t, identity.Created.IsZero())

	recorded := events.Events()
	require.Len(t, recorded, 1)
	assert.Equal(t, core.EventRegistered, recorded[0].Kind)
	assert.Equal(t, core.SeverityInfo, recorded[0].Severity)
	assert.Equal(t, identity.GUID, recorded[0].SubjectGUID)
}

func TestInMemory_RegisterUniqueGUIDs(t *testing.T) {
	r := NewInMemory(sink.NewInMemory())

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		identity, err := r.Register("Agent", nil, core.BackendGraph)
		require.NoError(t, err)
		require.False(t, seen[identity.GUID])
		seen[identity.GUID] = true

		found, err := r.Lookup(identity.GUID)
		require.NoError(t, err)
		assert.Equal(t, identity, found)
	}
}

func TestInMemory_LookupNotFound(t *testing.T) {
	r := NewInMemory(sink.NewInMemory())

	_, err := r.Lookup("does-not-exist")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestInMemory_LookupDoesNotEmitEvents(t *testing.T) {
	events := sink.NewInMemory()
	r := NewInMemory(events)

	identity, err := r.Register("Agent", nil, core.BackendGroup)
	require.NoError(t, err)

	before := events.Len()
	_, err = r.Lookup(identity.GUID)
	require.NoError(t, err)
	_, _ = r.Lookup("missing")

	assert.Equal(t, before, events.Len())
}

func TestInMemory_ListInsertionOrder(t *testing.T) {
	r := NewInMemory(sink.NewInMemory())

	first, _ := r.Register("First", nil, core.BackendGroup)
	second, _ := r.Register("Second", nil, core.BackendGraph)
	third, _ := r.Register("Third", nil, core.BackendGroup)

	list := r.List()
	require.Len(t, list, 3)
	assert.Equal(t, first.GUID, list[0].GUID)
	assert.Equal(t, second.GUID, list[1].GUID)
	assert.Equal(t, third.GUID, list[2].GUID)

	// Idempotent without intervening registrations.
	assert.Equal(t, list, r.List())
}

func TestInMemory_AddCapabilities(t *testing.T) {
	r := NewInMemory(sink.NewInMemory())

	identity, err := r.Register("Agent", []string{"summarize"}, core.BackendGroup)
	require.NoError(t, err)

	require.NoError(t, r.AddCapabilities(identity.GUID, "search", "summarize"))

	found, err := r.Lookup(identity.GUID)
	require.NoError(t, err)
	assert.Equal(t, []string{"summarize", "search"}, found.Capabilities)

	assert.ErrorIs(t, r.AddCapabilities("missing", "x"), core.ErrNotFound)
}

func TestInMemory_SnapshotIsolation(t *testing.T) {
	r := NewInMemory(sink.NewInMemory())

	identity, err := r.Register("Agent", []string{"summarize"}, core.BackendGroup)
	require.NoError(t, err)

	identity.Capabilities[0] = "mutated"

	found, err := r.Lookup(identity.GUID)
	require.NoError(t, err)
	assert.Equal(t, []string{"summarize"}, found.Capabilities)
}

func TestInMemory_ConcurrentRegister(t *testing.T) {
	r := NewInMemory(sink.NewInMemory())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				_, err := r.Register("Agent", nil, core.BackendGroup)
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	assert.Len(t, r.List(), 200)
}

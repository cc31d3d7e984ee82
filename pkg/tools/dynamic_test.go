package tools

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cipchat/orchestrator/pkg/mcp"
	"github.com/cipchat/orchestrator/pkg/store"
)

func TestPrefixedToolName_RoundTrip(t *testing.T) {
	serverID := uuid.New()

	tests := []string{"search", "get__thing", "a"}
	for _, name := range tests {
		prefixed := PrefixedToolName(serverID, name)

		gotID, gotName, ok := ParsePrefixedToolName(prefixed)
		require.True(t, ok, "parse %q", prefixed)
		assert.Equal(t, serverID, gotID)
		assert.Equal(t, name, gotName)
	}
}

func TestPrefixedToolName_DistinctServersNeverCollide(t *testing.T) {
	a := PrefixedToolName(uuid.New(), "search")
	b := PrefixedToolName(uuid.New(), "search")
	assert.NotEqual(t, a, b)
}

func TestParsePrefixedToolName_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"no prefix", "list_galleries"},
		{"no separator", "mcp_" + uuid.New().String()},
		{"empty tool name", "mcp_" + uuid.New().String() + "__"},
		{"bad uuid", "mcp_not-a-uuid__search"},
		{"empty string", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, ok := ParsePrefixedToolName(tt.input)
			assert.False(t, ok)
		})
	}
}

func TestDynamicRegistry_Discover(t *testing.T) {
	tenantID := uuid.New()

	backend := newToolBackend(t)
	backend.tools = []map[string]any{
		{"name": "search", "description": "Search the things"},
		{"name": "fetch"}, // blank description gets a synthesized one
		{"name": ""},      // nameless tools are dropped
	}

	serverID := uuid.New()
	memStore := store.NewMemoryStore(store.Server{
		ID:       serverID,
		TenantID: tenantID,
		Name:     "things",
		BaseURL:  backend.srv.URL,
		Enabled:  true,
	})

	reg := NewDynamicRegistry(memStore, mcp.NewClient())
	tools := reg.Discover(context.Background(), tenantID)

	require.Len(t, tools, 2)
	assert.Equal(t, PrefixedToolName(serverID, "search"), tools[0].Name)
	assert.Equal(t, "Search the things", tools[0].Description)
	assert.Equal(t, PrefixedToolName(serverID, "fetch"), tools[1].Name)
	assert.Equal(t, "tool fetch (server things)", tools[1].Description)
}

func TestDynamicRegistry_SkipsDisabledServers(t *testing.T) {
	tenantID := uuid.New()
	backend := newToolBackend(t)
	backend.tools = []map[string]any{{"name": "search", "description": "d"}}

	memStore := store.NewMemoryStore(store.Server{
		ID:       uuid.New(),
		TenantID: tenantID,
		Name:     "off",
		BaseURL:  backend.srv.URL,
		Enabled:  false,
	})

	reg := NewDynamicRegistry(memStore, mcp.NewClient())
	assert.Empty(t, reg.Discover(context.Background(), tenantID))
}

func TestDynamicRegistry_UnreachableServerContributesNothing(t *testing.T) {
	tenantID := uuid.New()

	live := newToolBackend(t)
	live.tools = []map[string]any{{"name": "search", "description": "d"}}
	liveID := uuid.New()

	dead := newToolBackend(t)
	deadURL := dead.srv.URL
	dead.srv.Close()

	memStore := store.NewMemoryStore(
		store.Server{ID: uuid.New(), TenantID: tenantID, Name: "dead", BaseURL: deadURL, Enabled: true},
		store.Server{ID: liveID, TenantID: tenantID, Name: "live", BaseURL: live.srv.URL, Enabled: true},
	)

	reg := NewDynamicRegistry(memStore, mcp.NewClient())
	tools := reg.Discover(context.Background(), tenantID)

	require.Len(t, tools, 1)
	assert.Equal(t, PrefixedToolName(liveID, "search"), tools[0].Name)
}

func TestDynamicRegistry_TenantIsolation(t *testing.T) {
	backend := newToolBackend(t)
	backend.tools = []map[string]any{{"name": "search", "description": "d"}}

	owner := uuid.New()
	memStore := store.NewMemoryStore(store.Server{
		ID: uuid.New(), TenantID: owner, Name: "s", BaseURL: backend.srv.URL, Enabled: true,
	})

	reg := NewDynamicRegistry(memStore, mcp.NewClient())
	assert.Empty(t, reg.Discover(context.Background(), uuid.New()))
	assert.Len(t, reg.Discover(context.Background(), owner), 1)
}

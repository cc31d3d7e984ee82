package tools

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/cipchat/orchestrator/pkg/mcp"
	"github.com/cipchat/orchestrator/pkg/store"
)

const (
	dynamicPrefix    = "mcp_"
	dynamicSeparator = "__"
)

// PrefixedToolName namespaces a dynamic server's tool. The uuid contains
// no "__", so two servers (or a server and a built-in) can never collide
// as long as original names carry no "__" before the embedded id.
func PrefixedToolName(serverID uuid.UUID, toolName string) string {
	return dynamicPrefix + serverID.String() + dynamicSeparator + toolName
}

// ParsePrefixedToolName splits "mcp_<uuid>__<name>" back into its parts.
func ParsePrefixedToolName(name string) (uuid.UUID, string, bool) {
	rest, found := strings.CutPrefix(name, dynamicPrefix)
	if !found {
		return uuid.Nil, "", false
	}

	idPart, toolName, found := strings.Cut(rest, dynamicSeparator)
	if !found || toolName == "" {
		return uuid.Nil, "", false
	}

	serverID, err := uuid.Parse(idPart)
	if err != nil {
		return uuid.Nil, "", false
	}

	return serverID, toolName, true
}

// DynamicRegistry discovers tools from the tenant's registered servers.
// Discovery is fresh per call; nothing is cached across turns, so an admin
// edit to a server is visible on the next turn.
type DynamicRegistry struct {
	store  store.ServerStore
	client *mcp.Client
}

func NewDynamicRegistry(serverStore store.ServerStore, client *mcp.Client) *DynamicRegistry {
	return &DynamicRegistry{store: serverStore, client: client}
}

// Discover fans out tools/list to every enabled server in parallel and
// returns the union of their renamed tools. A server that fails discovery
// contributes nothing; it never fails the catalog.
func (r *DynamicRegistry) Discover(ctx context.Context, tenantID uuid.UUID) []mcp.ToolDescriptor {
	servers, err := r.store.ListServers(ctx, tenantID)
	if err != nil {
		slog.Warn("Failed to list dynamic tool servers", "tenant", tenantID, "error", err)
		return nil
	}

	var enabled []store.Server
	for _, srv := range servers {
		if srv.Enabled {
			enabled = append(enabled, srv)
		}
	}
	if len(enabled) == 0 {
		return nil
	}

	perServer := make([][]mcp.ToolDescriptor, len(enabled))
	g, gctx := errgroup.WithContext(ctx)
	for i, srv := range enabled {
		i, srv := i, srv
		g.Go(func() error {
			tools, err := r.client.ListTools(gctx, srv.BaseURL)
			if err != nil {
				slog.Warn("Dynamic server discovery failed, skipping",
					"server", srv.Name, "url", srv.BaseURL, "error", err)
				return nil
			}
			perServer[i] = renameTools(srv, tools)
			return nil
		})
	}
	// Goroutines only return nil; Wait is for joining.
	_ = g.Wait()

	var out []mcp.ToolDescriptor
	for _, tools := range perServer {
		out = append(out, tools...)
	}
	return out
}

func renameTools(srv store.Server, tools []mcp.ToolDescriptor) []mcp.ToolDescriptor {
	var out []mcp.ToolDescriptor
	for _, tool := range tools {
		if tool.Name == "" {
			continue
		}

		description := strings.TrimSpace(tool.Description)
		if description == "" {
			description = fmt.Sprintf("tool %s (server %s)", tool.Name, srv.Name)
		}

		out = append(out, mcp.ToolDescriptor{
			Name:        PrefixedToolName(srv.ID, tool.Name),
			Description: description,
			InputSchema: tool.InputSchema,
		})
	}
	return out
}

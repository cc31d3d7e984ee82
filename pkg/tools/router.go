package tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/cipchat/orchestrator/pkg/mcp"
	"github.com/cipchat/orchestrator/pkg/store"
)

// Router decides which backend owns a tool call the model requested and
// dispatches it. Every failure comes back as a human-readable result
// string, never an error: the result has to be insertable as a tool
// message the model can read and recover from.
type Router struct {
	builtins []Provider
	store    store.ServerStore
	client   *mcp.Client
}

func NewRouter(builtins []Provider, serverStore store.ServerStore, client *mcp.Client) *Router {
	return &Router{
		builtins: builtins,
		store:    serverStore,
		client:   client,
	}
}

// Dispatch routes one tool call. Decision order: built-in providers by
// fixed name set, then dynamic servers by the mcp_<id>__ prefix, then
// unknown.
func (r *Router) Dispatch(ctx context.Context, tenantID uuid.UUID, toolName string, args map[string]any) string {
	startTime := time.Now()

	tracer := otel.Tracer("orchestrator/tools")
	ctx, span := tracer.Start(ctx, "tool.dispatch",
		trace.WithAttributes(
			attribute.String("tool.name", toolName),
		),
	)
	defer span.End()

	result, err := r.dispatch(ctx, tenantID, toolName, args)

	span.SetAttributes(
		attribute.Bool("tool.success", err == nil),
		attribute.Int64("tool.duration_ms", time.Since(startTime).Milliseconds()),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Sprintf("Error calling tool: %v", err)
	}
	span.SetStatus(codes.Ok, "success")

	return result
}

func (r *Router) dispatch(ctx context.Context, tenantID uuid.UUID, toolName string, args map[string]any) (string, error) {
	for _, provider := range r.builtins {
		if provider.Owns(toolName) {
			return provider.Invoke(ctx, tenantID, toolName, args)
		}
	}

	if strings.HasPrefix(toolName, dynamicPrefix) && strings.Contains(toolName, dynamicSeparator) {
		serverID, innerName, ok := ParsePrefixedToolName(toolName)
		if !ok {
			return "Error: invalid server id in tool name.", nil
		}

		server, err := r.store.GetServer(ctx, tenantID, serverID)
		if err != nil {
			return "", fmt.Errorf("server lookup failed: %w", err)
		}
		if server == nil {
			return "Error: MCP server not found.", nil
		}

		// No tenant injection here: tenant scoping, if any, is the remote
		// server's responsibility.
		return r.client.CallTool(ctx, server.BaseURL, innerName, args)
	}

	return fmt.Sprintf("Unknown tool: %s.", toolName), nil
}

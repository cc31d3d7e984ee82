// Package tools aggregates tool providers into the catalog offered to the
// model and routes requested tool calls back to the backend that owns them.
//
// Two kinds of providers exist: built-ins with fixed backends and
// statically declared schemas (gallery, retrieval), and tenant-registered
// dynamic servers discovered at catalog-build time. The tenant identifier
// is injected here at dispatch time and never appears in any schema the
// model sees.
package tools

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/cipchat/orchestrator/pkg/mcp"
)

// Provider is one source of tools: a fixed name set plus an invocation
// path to its backend.
type Provider interface {
	Name() string

	// Tools returns the provider's schemas as offered to the model.
	Tools() []mcp.ToolDescriptor

	// Owns reports whether this provider routes the given tool name.
	Owns(toolName string) bool

	// Invoke executes the tool against the provider's backend. The tenant
	// id is injected into the outbound arguments where the tool needs it.
	Invoke(ctx context.Context, tenantID uuid.UUID, toolName string, args map[string]any) (string, error)
}

// BuiltinProvider serves a fixed backend endpoint with statically declared
// tool schemas.
type BuiltinProvider struct {
	name        string
	baseURL     string
	client      *mcp.Client
	descriptors []mcp.ToolDescriptor
	// scoped lists the tools whose outbound arguments get tenant_id.
	scoped map[string]bool
}

func (p *BuiltinProvider) Name() string {
	return p.name
}

func (p *BuiltinProvider) Tools() []mcp.ToolDescriptor {
	out := make([]mcp.ToolDescriptor, len(p.descriptors))
	copy(out, p.descriptors)
	return out
}

func (p *BuiltinProvider) Owns(toolName string) bool {
	for _, d := range p.descriptors {
		if d.Name == toolName {
			return true
		}
	}
	return false
}

func (p *BuiltinProvider) Invoke(ctx context.Context, tenantID uuid.UUID, toolName string, args map[string]any) (string, error) {
	if !p.Owns(toolName) {
		return "", fmt.Errorf("tool %s does not belong to provider %s", toolName, p.name)
	}

	outbound := make(map[string]any, len(args)+1)
	for k, v := range args {
		outbound[k] = v
	}
	if p.scoped[toolName] {
		outbound["tenant_id"] = tenantID.String()
	}

	return p.client.CallTool(ctx, p.baseURL, toolName, outbound)
}

func objectSchema(properties map[string]any, required ...string) map[string]any {
	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func stringParam(description string) map[string]any {
	return map[string]any{"type": "string", "description": description}
}

package tools

import (
	"context"

	"github.com/google/uuid"

	"github.com/cipchat/orchestrator/pkg/mcp"
)

// Catalog builds the aggregated tool list for one conversation turn:
// built-in providers first, then whatever the tenant's dynamic servers
// currently expose.
type Catalog struct {
	builtins []Provider
	dynamic  *DynamicRegistry
}

func NewCatalog(builtins []Provider, dynamic *DynamicRegistry) *Catalog {
	return &Catalog{builtins: builtins, dynamic: dynamic}
}

// Build never fails: built-in schemas are static and dynamic discovery
// swallows per-server errors. An unreachable fleet still yields the
// built-in tools.
func (c *Catalog) Build(ctx context.Context, tenantID uuid.UUID) []mcp.ToolDescriptor {
	var out []mcp.ToolDescriptor
	for _, provider := range c.builtins {
		out = append(out, provider.Tools()...)
	}
	if c.dynamic != nil {
		out = append(out, c.dynamic.Discover(ctx, tenantID)...)
	}
	return out
}

package llms

import (
	"fmt"

	"github.com/cipchat/orchestrator/pkg/registry"
)

// ProviderRegistry holds named completion backends (e.g. the user bot's
// model and the admin bot's model).
type ProviderRegistry struct {
	*registry.BaseRegistry[Provider]
}

func NewProviderRegistry() *ProviderRegistry {
	return &ProviderRegistry{
		BaseRegistry: registry.NewBaseRegistry[Provider](),
	}
}

func (r *ProviderRegistry) GetProvider(name string) (Provider, error) {
	provider, exists := r.Get(name)
	if !exists {
		return nil, fmt.Errorf("LLM provider '%s' not registered (have: %v)", name, r.Names())
	}
	return provider, nil
}

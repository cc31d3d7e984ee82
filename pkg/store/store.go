// Package store provides read access to the per-tenant registry of
// dynamic tool servers. Rows are created and edited by the tenant
// administration surface; the orchestration side only reads them.
package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Server is one tenant-registered tool server.
type Server struct {
	ID        uuid.UUID
	TenantID  uuid.UUID
	Name      string
	BaseURL   string
	Enabled   bool
	CreatedAt time.Time
}

type ServerStore interface {
	// ListServers returns all servers registered for the tenant,
	// newest first, including disabled ones.
	ListServers(ctx context.Context, tenantID uuid.UUID) ([]Server, error)

	// GetServer returns the server with the given id if it belongs to the
	// tenant, or nil without error when there is no such row.
	GetServer(ctx context.Context, tenantID, serverID uuid.UUID) (*Server, error)
}

// MemoryStore is an in-process ServerStore for tests and database-less
// deployments.
type MemoryStore struct {
	mu      sync.RWMutex
	servers []Server
}

func NewMemoryStore(servers ...Server) *MemoryStore {
	return &MemoryStore{servers: append([]Server(nil), servers...)}
}

func (s *MemoryStore) Add(server Server) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.servers = append(s.servers, server)
}

func (s *MemoryStore) ListServers(_ context.Context, tenantID uuid.UUID) ([]Server, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Server
	for _, srv := range s.servers {
		if srv.TenantID == tenantID {
			out = append(out, srv)
		}
	}
	return out, nil
}

func (s *MemoryStore) GetServer(_ context.Context, tenantID, serverID uuid.UUID) (*Server, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, srv := range s.servers {
		if srv.TenantID == tenantID && srv.ID == serverID {
			found := srv
			return &found, nil
		}
	}
	return nil, nil
}

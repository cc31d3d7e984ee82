package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	_ "github.com/lib/pq"
)

// PostgresStore reads the mcp_servers table owned by the tenant
// administration service.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) (*PostgresStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	return &PostgresStore{db: db}, nil
}

// Open connects to Postgres and verifies the connection.
func Open(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) ListServers(ctx context.Context, tenantID uuid.UUID) ([]Server, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, tenant_id, name, base_url, enabled, created_at
		FROM mcp_servers
		WHERE tenant_id = $1
		ORDER BY created_at DESC`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list servers: %w", err)
	}
	defer rows.Close()

	var servers []Server
	for rows.Next() {
		var srv Server
		if err := rows.Scan(&srv.ID, &srv.TenantID, &srv.Name, &srv.BaseURL, &srv.Enabled, &srv.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan server row: %w", err)
		}
		servers = append(servers, srv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read server rows: %w", err)
	}

	return servers, nil
}

func (s *PostgresStore) GetServer(ctx context.Context, tenantID, serverID uuid.UUID) (*Server, error) {
	var srv Server
	err := s.db.QueryRowContext(ctx, `
		SELECT id, tenant_id, name, base_url, enabled, created_at
		FROM mcp_servers
		WHERE id = $1 AND tenant_id = $2`, serverID, tenantID).
		Scan(&srv.ID, &srv.TenantID, &srv.Name, &srv.BaseURL, &srv.Enabled, &srv.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get server: %w", err)
	}

	return &srv, nil
}

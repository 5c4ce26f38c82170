package registry

import (
	"context"
	"embed"
)

// Migrations holds the schema of the tenants table.
//
//go:embed migrations/*.sql
var Migrations embed.FS

// MigrationsDir is the directory inside Migrations.
const MigrationsDir = "migrations"

// Record is one registered tenant. Only Active records are served.
type Record struct {
	NumericID int64   `json:"numeric_id"`
	UUID      string  `json:"uuid"`
	OwnerID   int64   `json:"owner_id"`
	Name      *string `json:"name,omitempty"`
	Active    bool    `json:"is_active"`
}

// Registry answers which tenants exist.
type Registry interface {
	// FindByUUID returns ErrNotFound when no tenant has the identifier.
	FindByUUID(ctx context.Context, uuid string) (Record, error)
	// ListActiveUUIDs returns the identifiers of the owner's active tenants
	// in creation order.
	ListActiveUUIDs(ctx context.Context, ownerID int64) ([]string, error)
	// Create registers a tenant. A taken identifier is ErrDuplicate.
	Create(ctx context.Context, ownerID int64, uuid string, name *string) (Record, error)
	// Delete removes the tenant. Deleting a missing tenant is not an error.
	Delete(ctx context.Context, uuid string) error
}

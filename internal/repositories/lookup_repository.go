package repositories

import (
	"context"

	"github.com/asakaida/telops/internal/entities"
)

// ProviderRepository defines the interface for provider data access
type ProviderRepository interface {
	// Ensure returns the ID of the provider with this name, creating it when missing
	Ensure(ctx context.Context, provider *entities.Provider) (int64, error)
	List(ctx context.Context) ([]*entities.Provider, error)
}

// SegmentRepository defines the interface for segment data access
type SegmentRepository interface {
	Ensure(ctx context.Context, segment *entities.Segment) (int64, error)
	List(ctx context.Context) ([]*entities.Segment, error)
}

// PermissionRepository defines the interface for permission data access
type PermissionRepository interface {
	Ensure(ctx context.Context, permission *entities.Permission) (int64, error)
	List(ctx context.Context) ([]*entities.Permission, error)
}

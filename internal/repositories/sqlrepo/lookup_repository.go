package sqlrepo

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/asakaida/telops/internal/entities"
	"github.com/asakaida/telops/internal/infrastructure/database"
	"github.com/asakaida/telops/internal/repositories"
)

// ProviderRepository implements repositories.ProviderRepository
type ProviderRepository struct {
	base
}

// NewProviderRepository creates a new provider repository
func NewProviderRepository(db DBTX, dialect database.Dialect) repositories.ProviderRepository {
	return &ProviderRepository{base{db: db, dialect: dialect}}
}

// Ensure returns the provider ID, inserting the row if needed
func (r *ProviderRepository) Ensure(ctx context.Context, provider *entities.Provider) (int64, error) {
	if err := provider.Validate(); err != nil {
		return 0, err
	}
	query := fmt.Sprintf("INSERT INTO %s (name, kind) VALUES (?, ?)", r.table(tableProvider))
	id, err := r.ensure(ctx, tableProvider, provider.Name, query, provider.Name, nullString(provider.Kind))
	if err != nil {
		return 0, err
	}
	provider.ID = id
	return id, nil
}

// List returns all providers ordered by name
func (r *ProviderRepository) List(ctx context.Context) ([]*entities.Provider, error) {
	query := fmt.Sprintf("SELECT id, name, kind FROM %s ORDER BY name", r.table(tableProvider))
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list providers: %w", err)
	}
	defer rows.Close()

	var providers []*entities.Provider
	for rows.Next() {
		var p entities.Provider
		var kind sql.NullString
		if err := rows.Scan(&p.ID, &p.Name, &kind); err != nil {
			return nil, fmt.Errorf("failed to scan provider: %w", err)
		}
		p.Kind = kind.String
		providers = append(providers, &p)
	}
	return providers, rows.Err()
}

// SegmentRepository implements repositories.SegmentRepository
type SegmentRepository struct {
	base
}

// NewSegmentRepository creates a new segment repository
func NewSegmentRepository(db DBTX, dialect database.Dialect) repositories.SegmentRepository {
	return &SegmentRepository{base{db: db, dialect: dialect}}
}

// Ensure returns the segment ID, inserting the row if needed
func (r *SegmentRepository) Ensure(ctx context.Context, segment *entities.Segment) (int64, error) {
	if err := segment.Validate(); err != nil {
		return 0, err
	}
	query := fmt.Sprintf("INSERT INTO %s (name) VALUES (?)", r.table(tableSegment))
	id, err := r.ensure(ctx, tableSegment, segment.Name, query, segment.Name)
	if err != nil {
		return 0, err
	}
	segment.ID = id
	return id, nil
}

// List returns all segments ordered by name
func (r *SegmentRepository) List(ctx context.Context) ([]*entities.Segment, error) {
	query := fmt.Sprintf("SELECT id, name FROM %s ORDER BY name", r.table(tableSegment))
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list segments: %w", err)
	}
	defer rows.Close()

	var segments []*entities.Segment
	for rows.Next() {
		var s entities.Segment
		if err := rows.Scan(&s.ID, &s.Name); err != nil {
			return nil, fmt.Errorf("failed to scan segment: %w", err)
		}
		segments = append(segments, &s)
	}
	return segments, rows.Err()
}

// PermissionRepository implements repositories.PermissionRepository
type PermissionRepository struct {
	base
}

// NewPermissionRepository creates a new permission repository
func NewPermissionRepository(db DBTX, dialect database.Dialect) repositories.PermissionRepository {
	return &PermissionRepository{base{db: db, dialect: dialect}}
}

// Ensure returns the permission ID, inserting the row if needed
func (r *PermissionRepository) Ensure(ctx context.Context, permission *entities.Permission) (int64, error) {
	if err := permission.Validate(); err != nil {
		return 0, err
	}
	query := fmt.Sprintf("INSERT INTO %s (name, description) VALUES (?, ?)", r.table(tablePermissions))
	id, err := r.ensure(ctx, tablePermissions, permission.Name, query, permission.Name, nullString(permission.Description))
	if err != nil {
		return 0, err
	}
	permission.ID = id
	return id, nil
}

// List returns all permissions ordered by name
func (r *PermissionRepository) List(ctx context.Context) ([]*entities.Permission, error) {
	query := fmt.Sprintf("SELECT id, name, description FROM %s ORDER BY name", r.table(tablePermissions))
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list permissions: %w", err)
	}
	defer rows.Close()

	var permissions []*entities.Permission
	for rows.Next() {
		var p entities.Permission
		var desc sql.NullString
		if err := rows.Scan(&p.ID, &p.Name, &desc); err != nil {
			return nil, fmt.Errorf("failed to scan permission: %w", err)
		}
		p.Description = desc.String
		permissions = append(permissions, &p)
	}
	return permissions, rows.Err()
}

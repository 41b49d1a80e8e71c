package repositories

import (
	"context"

	"github.com/asakaida/telops/internal/entities"
)

// CompanyRepository defines the interface for company data access
type CompanyRepository interface {
	// Create inserts a company and returns its ID
	Create(ctx context.Context, company *entities.Company) (int64, error)

	// GetByID retrieves a company by ID
	GetByID(ctx context.Context, id int64) (*entities.Company, error)

	// List returns up to limit companies ordered by ID (limit <= 0 returns all)
	List(ctx context.Context, limit int) ([]*entities.Company, error)

	// UpdateAssets replaces the assets document of a company (nil stores NULL)
	UpdateAssets(ctx context.Context, id int64, assets *entities.Assets) error

	// Count returns the number of companies
	Count(ctx context.Context) (int64, error)
}

package repositories

import (
	"context"

	"github.com/asakaida/telops/internal/entities"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create inserts a user and returns its ID
	Create(ctx context.Context, user *entities.User) (int64, error)

	// GetByEmail retrieves a user by email
	GetByEmail(ctx context.Context, email string) (*entities.User, error)

	// List returns up to limit users ordered by ID (limit <= 0 returns all)
	List(ctx context.Context, limit int) ([]*entities.User, error)
}

package sqlrepo

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/asakaida/telops/internal/entities"
	"github.com/asakaida/telops/internal/infrastructure/database"
	"github.com/asakaida/telops/internal/repositories"
)

// UserRepository implements repositories.UserRepository
type UserRepository struct {
	base
}

// NewUserRepository creates a new user repository
func NewUserRepository(db DBTX, dialect database.Dialect) repositories.UserRepository {
	return &UserRepository{base{db: db, dialect: dialect}}
}

// Create inserts a user
func (r *UserRepository) Create(ctx context.Context, user *entities.User) (int64, error) {
	if err := user.Validate(); err != nil {
		return 0, fmt.Errorf("invalid user: %w", err)
	}

	query := fmt.Sprintf("INSERT INTO %s (name, email, role, company_id) VALUES (?, ?, ?, ?)", r.table(tableUser))
	id, err := r.insert(ctx, query, user.Name, user.Email, nullString(user.Role), user.CompanyID)
	if err != nil {
		return 0, fmt.Errorf("failed to create user: %w", err)
	}
	user.ID = id
	return id, nil
}

// GetByEmail retrieves a user by email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entities.User, error) {
	query := fmt.Sprintf("SELECT id, name, email, role, company_id FROM %s WHERE email = ?", r.table(tableUser))

	user, err := scanUser(r.db.QueryRowContext(ctx, r.q(query), email))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user %s: %w", email, repositories.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// List returns users ordered by ID
func (r *UserRepository) List(ctx context.Context, limit int) ([]*entities.User, error) {
	query := fmt.Sprintf("SELECT id, name, email, role, company_id FROM %s ORDER BY id", r.table(tableUser)) + limitClause(limit)

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*entities.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func scanUser(s scanner) (*entities.User, error) {
	var u entities.User
	var role sql.NullString
	if err := s.Scan(&u.ID, &u.Name, &u.Email, &role, &u.CompanyID); err != nil {
		return nil, err
	}
	u.Role = role.String
	return &u, nil
}

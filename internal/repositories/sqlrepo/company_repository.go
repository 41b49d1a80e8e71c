package sqlrepo

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/asakaida/telops/internal/entities"
	"github.com/asakaida/telops/internal/infrastructure/database"
	"github.com/asakaida/telops/internal/repositories"
)

// CompanyRepository implements repositories.CompanyRepository
type CompanyRepository struct {
	base
}

// NewCompanyRepository creates a new company repository
func NewCompanyRepository(db DBTX, dialect database.Dialect) repositories.CompanyRepository {
	return &CompanyRepository{base{db: db, dialect: dialect}}
}

const companyColumns = "id, name, cnpj, provider_id, segment_id, assets"

// Create inserts a company
func (r *CompanyRepository) Create(ctx context.Context, company *entities.Company) (int64, error) {
	if err := company.Validate(); err != nil {
		return 0, fmt.Errorf("invalid company: %w", err)
	}

	assets, err := entities.AssetsArg(company.Assets)
	if err != nil {
		return 0, err
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (name, cnpj, provider_id, segment_id, assets)
		VALUES (?, ?, ?, ?, ?)`, r.table(tableCompany))

	id, err := r.insert(ctx, query,
		company.Name, nullString(company.CNPJ), company.ProviderID, company.SegmentID, assets)
	if err != nil {
		return 0, fmt.Errorf("failed to create company: %w", err)
	}
	company.ID = id
	return id, nil
}

// GetByID retrieves a company
func (r *CompanyRepository) GetByID(ctx context.Context, id int64) (*entities.Company, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = ?", companyColumns, r.table(tableCompany))

	company, err := scanCompany(r.db.QueryRowContext(ctx, r.q(query), id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("company %d: %w", id, repositories.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get company: %w", err)
	}
	return company, nil
}

// List returns companies ordered by ID
func (r *CompanyRepository) List(ctx context.Context, limit int) ([]*entities.Company, error) {
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY id", companyColumns, r.table(tableCompany)) + limitClause(limit)

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list companies: %w", err)
	}
	defer rows.Close()

	var companies []*entities.Company
	for rows.Next() {
		company, err := scanCompany(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan company: %w", err)
		}
		companies = append(companies, company)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate companies: %w", err)
	}
	return companies, nil
}

// UpdateAssets replaces the assets document
func (r *CompanyRepository) UpdateAssets(ctx context.Context, id int64, assets *entities.Assets) error {
	if err := assets.Validate(); err != nil {
		return fmt.Errorf("invalid assets: %w", err)
	}
	arg, err := entities.AssetsArg(assets)
	if err != nil {
		return err
	}

	query := fmt.Sprintf("UPDATE %s SET assets = ? WHERE id = ?", r.table(tableCompany))
	result, err := r.db.ExecContext(ctx, r.q(query), arg, id)
	if err != nil {
		return fmt.Errorf("failed to update assets: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("company %d: %w", id, repositories.ErrNotFound)
	}
	return nil
}

// Count returns the number of companies
func (r *CompanyRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", r.table(tableCompany))
	if err := r.db.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count companies: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCompany(s scanner) (*entities.Company, error) {
	var (
		c      entities.Company
		cnpj   sql.NullString
		assets sql.NullString
	)
	if err := s.Scan(&c.ID, &c.Name, &cnpj, &c.ProviderID, &c.SegmentID, &assets); err != nil {
		return nil, err
	}
	c.CNPJ = cnpj.String

	if assets.Valid {
		a, err := entities.ParseAssets([]byte(assets.String))
		if err != nil {
			return nil, fmt.Errorf("company %d: %w", c.ID, err)
		}
		c.Assets = a
	}
	return &c, nil
}

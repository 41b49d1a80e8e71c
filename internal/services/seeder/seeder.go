// Package seeder fills the application tables with linked sample rows.
package seeder

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/asakaida/telops/internal/entities"
	"github.com/asakaida/telops/internal/infrastructure/database"
	"github.com/asakaida/telops/internal/repositories/sqlrepo"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Plan describes what a seed run creates
type Plan struct {
	Companies       int
	UsersPerCompany int
	Providers       []entities.Provider
	Segments        []string
	Permissions     []entities.Permission
	WithAssets      bool
	// Tag marks the generated names; a random one is used when empty
	Tag string
}

// DefaultPlan returns the plan used by the seed command
func DefaultPlan() Plan {
	return Plan{
		Companies:       5,
		UsersPerCompany: 2,
		Providers: []entities.Provider{
			{Name: "Vivo", Kind: "mobile"},
			{Name: "Claro", Kind: "internet"},
			{Name: "TIM", Kind: "mobile"},
			{Name: "Oi", Kind: "fixed"},
		},
		Segments: []string{"Retail", "Healthcare", "Logistics"},
		Permissions: []entities.Permission{
			{Name: "companies.read", Description: "View companies"},
			{Name: "companies.write", Description: "Create and edit companies"},
			{Name: "assets.write", Description: "Edit company assets"},
		},
		WithAssets: true,
	}
}

// Validate checks if the plan is valid
func (p Plan) Validate() error {
	if p.Companies < 0 {
		return fmt.Errorf("companies must be non-negative, got %d", p.Companies)
	}
	if p.UsersPerCompany < 0 {
		return fmt.Errorf("users per company must be non-negative, got %d", p.UsersPerCompany)
	}
	return nil
}

// Result lists what a seed run created
type Result struct {
	Tag           string
	ProviderIDs   []int64
	SegmentIDs    []int64
	PermissionIDs []int64
	CompanyIDs    []int64
	Users         int
}

// Seeder writes seed data through the repositories inside one transaction
type Seeder struct {
	db      *sql.DB
	dialect database.Dialect
	log     zerolog.Logger
}

// New creates a seeder
func New(db *sql.DB, dialect database.Dialect, log zerolog.Logger) *Seeder {
	return &Seeder{db: db, dialect: dialect, log: log}
}

// Seed applies the plan. Nothing is kept when any insert fails.
func (s *Seeder) Seed(ctx context.Context, plan Plan) (*Result, error) {
	if err := plan.Validate(); err != nil {
		return nil, fmt.Errorf("invalid plan: %w", err)
	}

	tag := plan.Tag
	if tag == "" {
		tag = uuid.NewString()[:8]
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	// Rollback after Commit is a no-op
	defer func() { _ = tx.Rollback() }()

	result, err := s.seed(ctx, tx, plan, tag)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit seed data: %w", err)
	}

	s.log.Info().
		Str("tag", tag).
		Int("companies", len(result.CompanyIDs)).
		Int("users", result.Users).
		Msg("seed data committed")
	return result, nil
}

func (s *Seeder) seed(ctx context.Context, tx *sql.Tx, plan Plan, tag string) (*Result, error) {
	providers := sqlrepo.NewProviderRepository(tx, s.dialect)
	segments := sqlrepo.NewSegmentRepository(tx, s.dialect)
	permissions := sqlrepo.NewPermissionRepository(tx, s.dialect)
	companies := sqlrepo.NewCompanyRepository(tx, s.dialect)
	users := sqlrepo.NewUserRepository(tx, s.dialect)

	result := &Result{Tag: tag}

	for i := range plan.Providers {
		p := plan.Providers[i]
		id, err := providers.Ensure(ctx, &p)
		if err != nil {
			return nil, fmt.Errorf("failed to seed provider: %w", err)
		}
		result.ProviderIDs = append(result.ProviderIDs, id)
	}

	for _, name := range plan.Segments {
		id, err := segments.Ensure(ctx, &entities.Segment{Name: name})
		if err != nil {
			return nil, fmt.Errorf("failed to seed segment: %w", err)
		}
		result.SegmentIDs = append(result.SegmentIDs, id)
	}

	for i := range plan.Permissions {
		p := plan.Permissions[i]
		id, err := permissions.Ensure(ctx, &p)
		if err != nil {
			return nil, fmt.Errorf("failed to seed permission: %w", err)
		}
		result.PermissionIDs = append(result.PermissionIDs, id)
	}
	s.log.Debug().
		Int("providers", len(result.ProviderIDs)).
		Int("segments", len(result.SegmentIDs)).
		Int("permissions", len(result.PermissionIDs)).
		Msg("lookup rows ensured")

	for n := 1; n <= plan.Companies; n++ {
		company := &entities.Company{
			Name:       fmt.Sprintf("Seed Company %s-%d", tag, n),
			ProviderID: pick(result.ProviderIDs, n-1),
			SegmentID:  pick(result.SegmentIDs, n-1),
		}
		if plan.WithAssets {
			company.Assets = sampleAssets(n, plan.Providers)
		}

		companyID, err := companies.Create(ctx, company)
		if err != nil {
			return nil, fmt.Errorf("failed to seed company %d: %w", n, err)
		}
		result.CompanyIDs = append(result.CompanyIDs, companyID)

		for m := 1; m <= plan.UsersPerCompany; m++ {
			role := "member"
			if m == 1 {
				role = "admin"
			}
			user := &entities.User{
				Name:      fmt.Sprintf("Seed User %s-%d-%d", tag, n, m),
				Email:     fmt.Sprintf("seed+%s-%d-%d@example.test", tag, n, m),
				Role:      role,
				CompanyID: &companyID,
			}
			if _, err := users.Create(ctx, user); err != nil {
				return nil, fmt.Errorf("failed to seed user %s: %w", user.Email, err)
			}
			result.Users++
		}
	}
	return result, nil
}

// pick returns ids[i] round-robin, nil when there is nothing to link
func pick(ids []int64, i int) *int64 {
	if len(ids) == 0 {
		return nil
	}
	id := ids[i%len(ids)]
	return &id
}

func sampleAssets(n int, providers []entities.Provider) *entities.Assets {
	provider := "Generic"
	if len(providers) > 0 {
		provider = providers[(n-1)%len(providers)].Name
	}

	assets := &entities.Assets{
		Internet: &entities.InternetAsset{
			Provider:   provider,
			SpeedMbps:  100 * n,
			Technology: "fiber",
		},
		MobileDevices: []entities.MobileDevice{
			{Model: "Galaxy A54", Quantity: n, Line: "corporate"},
		},
	}
	if n%2 == 0 {
		assets.TV = &entities.TVAsset{Provider: provider, Package: "Business", Points: n / 2}
	}
	return assets
}

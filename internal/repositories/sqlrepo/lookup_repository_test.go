package sqlrepo

import (
	"context"
	"testing"

	"github.com/asakaida/telops/internal/entities"
)

func TestProviderRepository_Ensure(t *testing.T) {
	db := SetupTestDB(t)
	repo := NewProviderRepository(db.DB, db.Dialect)
	ctx := context.Background()

	first, err := repo.Ensure(ctx, &entities.Provider{Name: "Claro", Kind: "mobile"})
	if err != nil {
		t.Fatalf("Ensure() error = %v", err)
	}
	again, err := repo.Ensure(ctx, &entities.Provider{Name: "Claro"})
	if err != nil {
		t.Fatalf("Ensure() second call error = %v", err)
	}
	if first != again {
		t.Errorf("Ensure() returned %d then %d for the same name", first, again)
	}

	if _, err := repo.Ensure(ctx, &entities.Provider{Name: "Algar"}); err != nil {
		t.Fatalf("Ensure() error = %v", err)
	}

	providers, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(providers) != 2 {
		t.Fatalf("List() = %d providers, want 2", len(providers))
	}
	if providers[0].Name != "Algar" || providers[1].Kind != "mobile" {
		t.Errorf("List() = %+v, %+v", providers[0], providers[1])
	}

	if _, err := repo.Ensure(ctx, &entities.Provider{}); err == nil {
		t.Error("Ensure() should reject empty name")
	}
}

func TestSegmentAndPermissionRepository(t *testing.T) {
	db := SetupTestDB(t)
	ctx := context.Background()

	segments := NewSegmentRepository(db.DB, db.Dialect)
	for _, name := range []string{"Enterprise", "SMB", "Enterprise"} {
		if _, err := segments.Ensure(ctx, &entities.Segment{Name: name}); err != nil {
			t.Fatalf("Ensure(%s) error = %v", name, err)
		}
	}
	list, err := segments.List(ctx)
	if err != nil || len(list) != 2 {
		t.Fatalf("segments.List() = %d, %v; want 2", len(list), err)
	}

	permissions := NewPermissionRepository(db.DB, db.Dialect)
	p := &entities.Permission{Name: "companies.write", Description: "Edit companies"}
	if _, err := permissions.Ensure(ctx, p); err != nil {
		t.Fatalf("Ensure() error = %v", err)
	}
	if p.ID == 0 {
		t.Error("Ensure() did not set ID")
	}
	perms, err := permissions.List(ctx)
	if err != nil || len(perms) != 1 || perms[0].Description != "Edit companies" {
		t.Fatalf("permissions.List() = %+v, %v", perms, err)
	}
}

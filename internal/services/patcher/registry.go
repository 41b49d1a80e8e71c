package patcher

import (
	"context"
	"errors"
	"fmt"
)

// ErrUnknownPatch is returned when a patch name is not registered
var ErrUnknownPatch = errors.New("unknown patch")

// Outcome is the result of applying one patch
type Outcome struct {
	Patch   string
	Changed bool
	Detail  string
}

// Patch is a named, repeatable schema fix
type Patch struct {
	Name        string
	Description string
	apply       func(ctx context.Context, p *Patcher) (Outcome, error)
}

var registry = []Patch{
	{
		Name:        "company-assets",
		Description: "add the nullable JSON assets column to company",
		apply: func(ctx context.Context, p *Patcher) (Outcome, error) {
			added, err := p.EnsureColumn(ctx, "company", "assets", p.dialect.JSONType())
			if err != nil {
				return Outcome{}, err
			}
			detail := "assets column already present"
			if added {
				detail = "assets column added"
			}
			return Outcome{Changed: added, Detail: detail}, nil
		},
	},
	{
		Name:        "company-provider",
		Description: "link company.provider_id to provider by provider_name",
		apply: func(ctx context.Context, p *Patcher) (Outcome, error) {
			added, err := p.EnsureColumn(ctx, "company", "provider_id", "BIGINT")
			if err != nil {
				return Outcome{}, err
			}
			rows, err := p.Backfill(ctx, ForeignKeyBackfill{
				Table:          "company",
				Column:         "provider_id",
				RefTable:       "provider",
				RefColumn:      "id",
				MatchColumn:    "provider_name",
				RefMatchColumn: "name",
			})
			if err != nil {
				return Outcome{}, err
			}
			return Outcome{
				Changed: added || rows > 0,
				Detail:  fmt.Sprintf("%d companies linked", rows),
			}, nil
		},
	},
}

// Patches returns the registered patches in application order
func Patches() []Patch {
	out := make([]Patch, len(registry))
	copy(out, registry)
	return out
}

// Lookup returns the named patch
func Lookup(name string) (Patch, error) {
	for _, patch := range registry {
		if patch.Name == name {
			return patch, nil
		}
	}
	return Patch{}, fmt.Errorf("%w: %s", ErrUnknownPatch, name)
}

// Apply runs the named patches in the given order and stops at the first
// failure. Unknown names fail before anything runs.
func (p *Patcher) Apply(ctx context.Context, names ...string) ([]Outcome, error) {
	patches := make([]Patch, 0, len(names))
	for _, name := range names {
		patch, err := Lookup(name)
		if err != nil {
			return nil, err
		}
		patches = append(patches, patch)
	}

	outcomes := make([]Outcome, 0, len(patches))
	for _, patch := range patches {
		out, err := patch.apply(ctx, p)
		if err != nil {
			return outcomes, fmt.Errorf("patch %s: %w", patch.Name, err)
		}
		out.Patch = patch.Name
		outcomes = append(outcomes, out)
	}
	return outcomes, nil
}

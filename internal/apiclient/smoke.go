package apiclient

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"github.com/asakaida/telops/internal/entities"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Credentials log the smoke run in
type Credentials struct {
	Email    string
	Password string
}

// Step is one check of a smoke run
type Step struct {
	Name     string
	Passed   bool
	Detail   string
	Duration time.Duration
}

// SmokeReport lists the steps of a smoke run in order
type SmokeReport struct {
	Steps []Step
}

// Passed reports whether every step passed
func (r *SmokeReport) Passed() bool {
	for _, s := range r.Steps {
		if !s.Passed {
			return false
		}
	}
	return len(r.Steps) > 0
}

type smokeRun struct {
	report *SmokeReport
	log    zerolog.Logger
}

func (s *smokeRun) step(name string, fn func() (string, error)) error {
	start := time.Now()
	detail, err := fn()
	st := Step{Name: name, Passed: err == nil, Detail: detail, Duration: time.Since(start)}
	if err != nil {
		st.Detail = err.Error()
	}
	s.report.Steps = append(s.report.Steps, st)

	if err != nil {
		s.log.Error().Str("step", name).Err(err).Msg("smoke step failed")
		return fmt.Errorf("%s: %w", name, err)
	}
	s.log.Info().Str("step", name).Str("detail", detail).Dur("took", st.Duration).Msg("smoke step passed")
	return nil
}

// RunSmoke logs in, creates a company with assets, reads it back and
// checks the assets survived, then lists companies and segments. It stops
// at the first failed step.
func RunSmoke(ctx context.Context, c *Client, creds Credentials, log zerolog.Logger) (*SmokeReport, error) {
	run := &smokeRun{report: &SmokeReport{}, log: log}

	if err := run.step("login", func() (string, error) {
		if creds.Email == "" || creds.Password == "" {
			return "", fmt.Errorf("API_EMAIL and API_PASSWORD are required")
		}
		if err := c.Login(ctx, creds.Email, creds.Password); err != nil {
			return "", err
		}
		return "token received", nil
	}); err != nil {
		return run.report, err
	}

	want := &entities.Company{
		Name: "Smoke Company " + uuid.NewString()[:8],
		Assets: &entities.Assets{
			Internet:      &entities.InternetAsset{Provider: "Vivo", SpeedMbps: 300, Technology: "fiber"},
			TV:            &entities.TVAsset{Provider: "Claro", Package: "Business", Points: 2},
			MobileDevices: []entities.MobileDevice{{Model: "iPhone 15", Quantity: 2, Line: "corporate"}},
		},
	}

	var created *entities.Company
	if err := run.step("create company", func() (string, error) {
		var err error
		created, err = c.CreateCompany(ctx, want)
		if err != nil {
			return "", err
		}
		if created.ID == 0 {
			return "", fmt.Errorf("created company has no id")
		}
		return fmt.Sprintf("id %d", created.ID), nil
	}); err != nil {
		return run.report, err
	}

	var fetched *entities.Company
	if err := run.step("read company", func() (string, error) {
		var err error
		fetched, err = c.GetCompany(ctx, created.ID)
		if err != nil {
			return "", err
		}
		if fetched.Name != want.Name {
			return "", fmt.Errorf("name = %q, want %q", fetched.Name, want.Name)
		}
		return fetched.Name, nil
	}); err != nil {
		return run.report, err
	}

	if err := run.step("compare assets", func() (string, error) {
		if !reflect.DeepEqual(fetched.Assets, want.Assets) {
			return "", fmt.Errorf("assets = %+v, want %+v", fetched.Assets, want.Assets)
		}
		return fmt.Sprintf("%d devices", fetched.Assets.TotalDevices()), nil
	}); err != nil {
		return run.report, err
	}

	if err := run.step("list companies", func() (string, error) {
		companies, err := c.ListCompanies(ctx)
		if err != nil {
			return "", err
		}
		for _, company := range companies {
			if company.ID == created.ID {
				return fmt.Sprintf("%d companies", len(companies)), nil
			}
		}
		return "", fmt.Errorf("company %d missing from list", created.ID)
	}); err != nil {
		return run.report, err
	}

	if err := run.step("list segments", func() (string, error) {
		segments, err := c.ListSegments(ctx)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%d segments", len(segments)), nil
	}); err != nil {
		return run.report, err
	}

	return run.report, nil
}

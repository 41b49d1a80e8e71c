package entities

import (
	"fmt"
	"strings"
)

// Company represents a row of the company table
type Company struct {
	ID         int64   `json:"id,omitempty"`
	Name       string  `json:"name"`
	CNPJ       string  `json:"cnpj,omitempty"`
	ProviderID *int64  `json:"provider_id,omitempty"`
	SegmentID  *int64  `json:"segment_id,omitempty"`
	Assets     *Assets `json:"assets,omitempty"`
}

// Validate checks if the company is valid
func (c *Company) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("company name is required")
	}
	if err := c.Assets.Validate(); err != nil {
		return fmt.Errorf("invalid assets: %w", err)
	}
	return nil
}

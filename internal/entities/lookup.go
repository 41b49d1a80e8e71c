package entities

import "fmt"

// Provider represents a telephony / internet vendor
type Provider struct {
	ID   int64  `json:"id,omitempty"`
	Name string `json:"name"`
	Kind string `json:"kind,omitempty"` // mobile, internet, tv, fixed
}

// Segment represents a market segment companies are grouped by
type Segment struct {
	ID   int64  `json:"id,omitempty"`
	Name string `json:"name"`
}

// Permission represents a row of the permissions table
type Permission struct {
	ID          int64  `json:"id,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Validate checks if the provider is valid
func (p *Provider) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("provider name is required")
	}
	return nil
}

// Validate checks if the segment is valid
func (s *Segment) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("segment name is required")
	}
	return nil
}

// Validate checks if the permission is valid
func (p *Permission) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("permission name is required")
	}
	return nil
}

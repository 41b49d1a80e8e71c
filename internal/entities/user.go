package entities

import (
	"fmt"
	"strings"
)

// User represents a row of the user table
type User struct {
	ID        int64  `json:"id,omitempty"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      string `json:"role,omitempty"`
	CompanyID *int64 `json:"company_id,omitempty"`
}

// Validate checks if the user is valid
func (u *User) Validate() error {
	if strings.TrimSpace(u.Name) == "" {
		return fmt.Errorf("user name is required")
	}
	if !strings.Contains(u.Email, "@") {
		return fmt.Errorf("invalid email: %q", u.Email)
	}
	return nil
}

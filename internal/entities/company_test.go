package entities

import "testing"

func TestCompany_Validate(t *testing.T) {
	tests := []struct {
		name    string
		company Company
		wantErr bool
	}{
		{name: "valid", company: Company{Name: "Acme Telecom"}},
		{name: "blank name", company: Company{Name: "   "}, wantErr: true},
		{
			name:    "invalid assets",
			company: Company{Name: "Acme", Assets: &Assets{MobileDevices: []MobileDevice{{Model: "X"}}}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.company.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Company.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestUser_Validate(t *testing.T) {
	tests := []struct {
		name    string
		user    User
		wantErr bool
	}{
		{name: "valid", user: User{Name: "Ana", Email: "ana@example.test"}},
		{name: "missing name", user: User{Email: "ana@example.test"}, wantErr: true},
		{name: "bad email", user: User{Name: "Ana", Email: "ana.example.test"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.user.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("User.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLookup_Validate(t *testing.T) {
	if err := (&Provider{}).Validate(); err == nil {
		t.Error("Provider.Validate() should fail without name")
	}
	if err := (&Segment{Name: "SMB"}).Validate(); err != nil {
		t.Errorf("Segment.Validate() error = %v", err)
	}
	if err := (&Permission{Name: "companies.read"}).Validate(); err != nil {
		t.Errorf("Permission.Validate() error = %v", err)
	}
}

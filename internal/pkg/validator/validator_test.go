package validator

import "testing"

func TestIsEmail(t *testing.T) {
	tests := []struct {
		email string
		valid bool
	}{
		{"host@example.com", true},
		{"first.last+tag@sub.example.org", true},
		{"", false},
		{"no-at-sign", false},
		{"@example.com", false},
		{"user@localhost", false},
		{"two@@example.com", false},
		{"Name <user@example.com>", false},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			err := IsEmail(tt.email)
			if tt.valid && err != nil {
				t.Errorf("IsEmail(%q) returned %v, want nil", tt.email, err)
			}
			if !tt.valid && err == nil {
				t.Errorf("IsEmail(%q) returned nil, want error", tt.email)
			}
		})
	}
}

func TestIsMeetingID(t *testing.T) {
	tests := []struct {
		id    string
		valid bool
	}{
		{"123456789", true},
		{"85746065432", true},
		{"12345678", false},
		{"1234567890123", false},
		{"12345678a", false},
		{"", false},
		{"../users/me", false},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			err := IsMeetingID(tt.id)
			if tt.valid != (err == nil) {
				t.Errorf("IsMeetingID(%q) = %v, valid want %v", tt.id, err, tt.valid)
			}
		})
	}
}

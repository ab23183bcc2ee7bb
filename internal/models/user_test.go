package models

import "testing"

// TestUserInitial verifies the avatar initial derivation.
func TestUserInitial(t *testing.T) {
	tests := []struct {
		name        string
		displayName string
		email       string
		want        string
	}{
		{name: "display name", displayName: "ada", email: "x@y.z", want: "A"},
		{name: "leading spaces", displayName: "  grace", want: "G"},
		{name: "falls back to email", displayName: "", email: "linus@example.com", want: "L"},
		{name: "unicode", displayName: "émile", want: "É"},
		{name: "nothing", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := &User{DisplayName: tt.displayName, Email: tt.email}
			if got := u.Initial(); got != tt.want {
				t.Errorf("Initial() = %q, want %q", got, tt.want)
			}
		})
	}
}

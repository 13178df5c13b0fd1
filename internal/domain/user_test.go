package domain

import "testing"

func TestDisplayName(t *testing.T) {
	cases := []struct {
		name string
		user User
		want string
	}{
		{"name set", User{Name: "Alice", Email: "alice@example.com"}, "Alice"},
		{"blank name falls back", User{Name: "  ", Email: "alice@example.com"}, "alice"},
		{"no name falls back", User{Email: "bob@example.com"}, "bob"},
		{"odd email returned whole", User{Email: "@example.com"}, "@example.com"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.user.DisplayName(); got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

package bootstrap

import "testing"

func TestNormalizeAddr(t *testing.T) {
	cases := []struct {
		port string
		want string
	}{
		{"", ":8080"},
		{"8000", ":8000"},
		{":9090", ":9090"},
		{"  8000  ", ":8000"},
	}
	for _, tc := range cases {
		if got := normalizeAddr(tc.port); got != tc.want {
			t.Fatalf("normalizeAddr(%q) = %q, want %q", tc.port, got, tc.want)
		}
	}
}

package middleware

import (
	"testing"
)

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		expected string
	}{
		{name: "root path", path: "/", expected: "/"},
		{name: "health endpoint", path: "/health", expected: "/health"},
		{name: "ready endpoint", path: "/ready", expected: "/ready"},
		{name: "metrics endpoint", path: "/metrics", expected: "/metrics"},
		{name: "recommend", path: "/recommend-crop/", expected: "/recommend-crop/"},
		{name: "recommend without trailing slash", path: "/recommend-crop", expected: "/recommend-crop/"},
		{name: "fertilizer", path: "/fertilizer_recommendations", expected: "/fertilizer_recommendations"},
		{name: "fertilizer with trailing slash", path: "/fertilizer_recommendations/", expected: "/fertilizer_recommendations"},
		{name: "signup", path: "/signup", expected: "/signup"},
		{name: "login", path: "/login", expected: "/login"},
		{name: "admin login", path: "/admin/login", expected: "/admin/login"},
		{name: "admin users", path: "/admin/users/", expected: "/admin/users/"},
		{name: "admin promote", path: "/admin/promote-user/", expected: "/admin/promote-user/"},
		{name: "contact", path: "/send-email/", expected: "/send-email/"},

		// Unknown paths collapse to a single label
		{name: "unknown path", path: "/wp-login.php", expected: UnmatchedPath},
		{name: "unknown nested path", path: "/admin/users/123", expected: UnmatchedPath},
		{name: "probe with id", path: "/.env", expected: UnmatchedPath},
		{name: "double slash", path: "//", expected: UnmatchedPath},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalizePath(tt.path); got != tt.expected {
				t.Errorf("normalizePath(%q) = %q, want %q", tt.path, got, tt.expected)
			}
		})
	}
}

func TestNormalizePath_BoundedCardinality(t *testing.T) {
	labels := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		labels[normalizePath("/scan/"+string(rune('a'+i%26))+"/"+string(rune('0'+i%10)))] = true
	}
	if len(labels) != 1 {
		t.Errorf("expected unknown paths to share one label, got %d labels", len(labels))
	}
}

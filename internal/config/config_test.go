package config

import (
	"strings"
	"testing"
)

func TestParseAllowList(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{
			name: "single email",
			raw:  "gabs@example.com",
			want: []string{"gabs@example.com"},
		},
		{
			name: "comma separated with whitespace",
			raw:  " gabs@example.com , adriano@example.com ",
			want: []string{"gabs@example.com", "adriano@example.com"},
		},
		{
			name: "empty string yields empty list",
			raw:  "",
			want: nil,
		},
		{
			name: "stray commas ignored",
			raw:  ",,gabs@example.com,,",
			want: []string{"gabs@example.com"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list := ParseAllowList(tt.raw)
			if len(list) != len(tt.want) {
				t.Fatalf("ParseAllowList(%q) has %d entries, want %d", tt.raw, len(list), len(tt.want))
			}
			for _, email := range tt.want {
				if !list.Contains(email) {
					t.Errorf("allow-list should contain %q", email)
				}
			}
		})
	}
}

func TestAllowListContains_CaseInsensitive(t *testing.T) {
	list := ParseAllowList("Gabs@Example.com")

	if !list.Contains("gabs@example.com") {
		t.Error("Contains should match regardless of case")
	}
	if !list.Contains("  GABS@EXAMPLE.COM  ") {
		t.Error("Contains should trim whitespace")
	}
	if list.Contains("other@example.com") {
		t.Error("Contains should reject unknown emails")
	}
}

func TestLoad_MissingRequiredVars(t *testing.T) {
	for _, v := range []string{"JWT_SECRET", "GOOGLE_CLIENT_ID", "GOOGLE_CLIENT_SECRET"} {
		t.Setenv(v, "")
	}

	_, err := Load()
	if err == nil {
		t.Fatal("Load() should fail when required variables are unset")
	}
	if !strings.Contains(err.Error(), "JWT_SECRET") {
		t.Errorf("error %q should name the missing variable", err)
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret-at-least-16-chars!!")
	t.Setenv("GOOGLE_CLIENT_ID", "client-id")
	t.Setenv("GOOGLE_CLIENT_SECRET", "client-secret")
	t.Setenv("GOOGLE_CALLBACK_URL", "")
	t.Setenv("PORT", "")
	t.Setenv("SESSION_TTL", "")
	t.Setenv("DB_PATH", "")
	t.Setenv("ADMIN_EMAILS", "gabs@example.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if cfg.DBPath != "data/registry.db" {
		t.Errorf("DBPath = %q, want default", cfg.DBPath)
	}
	if cfg.GoogleCallbackURL != "http://localhost:8080/auth/google/callback" {
		t.Errorf("GoogleCallbackURL = %q, want derived default", cfg.GoogleCallbackURL)
	}
	if cfg.SessionTTL.Hours() != 7*24 {
		t.Errorf("SessionTTL = %v, want 7 days", cfg.SessionTTL)
	}
	if !cfg.AdminEmails.Contains("gabs@example.com") {
		t.Error("AdminEmails should contain the configured address")
	}
}

func TestLoad_InvalidPort(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret-at-least-16-chars!!")
	t.Setenv("GOOGLE_CLIENT_ID", "client-id")
	t.Setenv("GOOGLE_CLIENT_SECRET", "client-secret")
	t.Setenv("PORT", "not-a-number")

	if _, err := Load(); err == nil {
		t.Fatal("Load() should reject a non-numeric PORT")
	}
}

// Package config loads the runtime configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config captures everything the server needs at startup.
type Config struct {
	Port        int
	DBPath      string
	FrontendURL string // where the browser lands after login/logout

	JWTSecret  string
	SessionTTL time.Duration

	GoogleClientID     string
	GoogleClientSecret string
	GoogleCallbackURL  string

	AdminEmails AllowList
}

// Load reads .env (if present) and the environment and builds a Config.
//
// .env values never override variables already set in the real
// environment, so deployments keep full control.
func Load() (Config, error) {
	if envMap, err := godotenv.Read(); err == nil {
		for k, v := range envMap {
			if os.Getenv(k) == "" {
				os.Setenv(k, v)
			}
		}
	}

	cfg := Config{
		Port:        8080,
		DBPath:      firstNonEmpty(os.Getenv("DB_PATH"), "data/registry.db"),
		FrontendURL: firstNonEmpty(os.Getenv("FRONTEND_URL"), "/"),

		JWTSecret:  os.Getenv("JWT_SECRET"),
		SessionTTL: 7 * 24 * time.Hour,

		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		GoogleCallbackURL:  os.Getenv("GOOGLE_CALLBACK_URL"),

		AdminEmails: ParseAllowList(os.Getenv("ADMIN_EMAILS")),
	}

	if portStr := os.Getenv("PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return Config{}, fmt.Errorf("config: invalid PORT %q: %w", portStr, err)
		}
		cfg.Port = port
	}

	if ttlStr := os.Getenv("SESSION_TTL"); ttlStr != "" {
		ttl, err := time.ParseDuration(ttlStr)
		if err != nil {
			return Config{}, fmt.Errorf("config: invalid SESSION_TTL %q: %w", ttlStr, err)
		}
		cfg.SessionTTL = ttl
	}

	if cfg.GoogleCallbackURL == "" {
		cfg.GoogleCallbackURL = fmt.Sprintf("http://localhost:%d/auth/google/callback", cfg.Port)
	}

	var missing []string
	for _, v := range []struct{ name, value string }{
		{"JWT_SECRET", cfg.JWTSecret},
		{"GOOGLE_CLIENT_ID", cfg.GoogleClientID},
		{"GOOGLE_CLIENT_SECRET", cfg.GoogleClientSecret},
	} {
		if v.value == "" {
			missing = append(missing, v.name)
		}
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("config: required environment variables not set: %s",
			strings.Join(missing, ", "))
	}

	return cfg, nil
}

// AllowList is the set of administrator email addresses, compared
// case-insensitively.
type AllowList map[string]struct{}

// ParseAllowList parses the comma-separated ADMIN_EMAILS value.
// Blank entries and surrounding whitespace are ignored.
func ParseAllowList(raw string) AllowList {
	list := AllowList{}
	for _, email := range strings.Split(raw, ",") {
		email = strings.ToLower(strings.TrimSpace(email))
		if email != "" {
			list[email] = struct{}{}
		}
	}
	return list
}

// Contains reports whether email is on the allow-list.
func (a AllowList) Contains(email string) bool {
	_, ok := a[strings.ToLower(strings.TrimSpace(email))]
	return ok
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}

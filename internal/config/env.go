package config

import (
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// IsAdminEmail reports whether email belongs to the configured admin allowlist.
func (c Config) IsAdminEmail(email string) bool {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return false
	}
	for _, admin := range c.AdminEmails {
		if admin == email {
			return true
		}
	}
	return false
}

func getDuration(v *viper.Viper, key string, defaultValue int, unit time.Duration) time.Duration {
	if value := strings.TrimSpace(v.GetString(key)); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			return time.Duration(parsed) * unit
		}
	}
	return time.Duration(defaultValue) * unit
}

func parseList(raw string) []string {
	out := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func parseEmailList(raw string) []string {
	emails := parseList(raw)
	for i := range emails {
		emails[i] = strings.ToLower(emails[i])
	}
	return emails
}

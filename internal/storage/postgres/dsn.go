package postgres

import (
	"fmt"
	"net/url"

	"github.com/resumeforge/resume-builder-backend/config"
)

// DSN builds a URL connection string understood by both lib/pq and pgx.
func DSN(cfg *config.DatabaseConfig) string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(cfg.User, cfg.Password),
		Host:   fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Path:   "/" + cfg.Name,
	}
	q := url.Values{}
	q.Set("sslmode", sslMode(cfg))
	u.RawQuery = q.Encode()
	return u.String()
}

func sslMode(cfg *config.DatabaseConfig) string {
	if cfg.SSLMode != "" {
		return cfg.SSLMode
	}
	return "disable"
}

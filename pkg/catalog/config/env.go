package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// WithEnv applies environment variable overrides using the provided
// prefix:
//
//	PORT                  - server port (default "8080")
//	ENVIRONMENT           - runtime environment (default "development")
//	DATABASE_URL          - "postgresql://..." selects postgres;
//	                        empty or "memory" keeps the in-memory store
//	JWT_SECRET_KEY        - token signing secret (required)
//	TOKEN_TTL             - token lifetime, Go duration (default "1h")
//	OPENLIBRARY_URL       - enrichment endpoint override
//	ENRICHMENT_ENABLED    - "false" disables book metadata lookup
//	ENRICHMENT_TIMEOUT    - enrichment call bound, Go duration
//	SEARCH_PUBLISHED_ONLY - "false" lifts the status filter on search
func WithEnv(prefix string) Option {
	return func(c *ServerConfig) error {
		if v, ok := lookupEnv(prefix, "PORT"); ok && v != "" {
			c.Port = v
		}
		if v, ok := lookupEnv(prefix, "ENVIRONMENT"); ok && v != "" {
			c.Environment = v
		}

		if v, ok := lookupEnv(prefix, "DATABASE_URL"); ok {
			switch {
			case v == "" || v == "memory":
				c.DatabaseType = "memory"
				c.DatabaseURL = ""
			case strings.HasPrefix(v, "postgres://") || strings.HasPrefix(v, "postgresql://"):
				c.DatabaseType = "postgres"
				c.DatabaseURL = v
			default:
				return fmt.Errorf("unsupported DATABASE_URL %q", v)
			}
		}

		if v, ok := lookupEnv(prefix, "JWT_SECRET_KEY"); ok && v != "" {
			c.JWTSecret = v
		}
		if v, ok := lookupEnv(prefix, "TOKEN_TTL"); ok && v != "" {
			ttl, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("invalid TOKEN_TTL: %w", err)
			}
			c.TokenTTL = ttl
		}

		if v, ok := lookupEnv(prefix, "OPENLIBRARY_URL"); ok && v != "" {
			c.OpenLibraryURL = v
		}
		if v, ok := lookupEnv(prefix, "ENRICHMENT_ENABLED"); ok && v != "" {
			enabled, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid ENRICHMENT_ENABLED: %w", err)
			}
			c.EnrichmentEnabled = enabled
		}
		if v, ok := lookupEnv(prefix, "ENRICHMENT_TIMEOUT"); ok && v != "" {
			timeout, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("invalid ENRICHMENT_TIMEOUT: %w", err)
			}
			c.EnrichmentTimeout = timeout
		}

		if v, ok := lookupEnv(prefix, "SEARCH_PUBLISHED_ONLY"); ok && v != "" {
			publishedOnly, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid SEARCH_PUBLISHED_ONLY: %w", err)
			}
			c.PublishedOnlySearch = publishedOnly
		}

		return nil
	}
}

// WithValues applies a plain override function, for programmatic setup
// in tests and embedded use.
func WithValues(apply func(*ServerConfig)) Option {
	return func(c *ServerConfig) error {
		apply(c)
		return nil
	}
}

func lookupEnv(prefix, key string) (string, bool) {
	if prefix != "" {
		if v, ok := os.LookupEnv(prefix + key); ok {
			return v, true
		}
	}
	return os.LookupEnv(key)
}

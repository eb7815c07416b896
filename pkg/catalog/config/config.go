// Package config builds a running catalog service from configuration.
// Defaults suit development (in-memory repository); options and
// environment overrides layer on top.
package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/henriquecmelo1/library-app/pkg/catalog"
	"github.com/henriquecmelo1/library-app/pkg/catalog/auth"
	"github.com/henriquecmelo1/library-app/pkg/catalog/enrich/openlibrary"
	"github.com/henriquecmelo1/library-app/pkg/catalog/repo/memory"
	repopg "github.com/henriquecmelo1/library-app/pkg/catalog/repo/postgres"
)

// Option applies configuration to a ServerConfig instance.
type Option func(*ServerConfig) error

// Load constructs a ServerConfig by applying the supplied options on
// top of the defaults.
func Load(opts ...Option) (*ServerConfig, error) {
	cfg := defaults()

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func defaults() ServerConfig {
	return ServerConfig{
		Port:                "8080",
		Environment:         "development",
		DatabaseType:        "memory",
		TokenTTL:            auth.DefaultTokenTTL,
		OpenLibraryURL:      openlibrary.DefaultBaseURL,
		EnrichmentEnabled:   true,
		EnrichmentTimeout:   3 * time.Second,
		PublishedOnlySearch: true,
	}
}

// ServerConfig represents server configuration for the catalog service
type ServerConfig struct {
	Port        string
	Environment string // development, production, testing

	// Database configuration
	DatabaseURL  string
	DatabaseType string // "memory", "postgres"

	// Token signing. The secret is loaded once here and injected into
	// the token service; request handlers never touch it.
	JWTSecret string
	TokenTTL  time.Duration

	// Enrichment collaborator
	OpenLibraryURL    string
	EnrichmentEnabled bool
	EnrichmentTimeout time.Duration

	// Search component toggle: published-only (public catalog) or
	// unfiltered.
	PublishedOnlySearch bool
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Port == "" {
		return errors.New("port is required")
	}
	if c.DatabaseType != "memory" && c.DatabaseType != "postgres" {
		return errors.New("database_type must be 'memory' or 'postgres'")
	}
	if c.DatabaseType == "postgres" && c.DatabaseURL == "" {
		return errors.New("database_url is required when using postgres")
	}
	if c.JWTSecret == "" {
		return errors.New("jwt secret is required")
	}
	if c.TokenTTL <= 0 {
		return errors.New("token ttl must be positive")
	}
	return nil
}

// BuildService creates the catalog service and token service from the
// configuration.
func (c *ServerConfig) BuildService(ctx context.Context) (catalog.Service, *auth.TokenService, error) {
	var repo catalog.Repository
	switch c.DatabaseType {
	case "postgres":
		pool, err := pgxpool.New(ctx, c.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		repo = repopg.NewWithPool(pool)
	default:
		repo = memory.New()
	}

	options := []catalog.Option{
		catalog.WithRepository(repo),
		catalog.WithPasswordHasher(auth.NewBcryptHasher()),
		catalog.WithEnrichmentTimeout(c.EnrichmentTimeout),
		catalog.WithPublishedOnlySearch(c.PublishedOnlySearch),
	}
	if c.EnrichmentEnabled {
		options = append(options, catalog.WithBookMetadataProvider(
			openlibrary.NewClient(openlibrary.WithBaseURL(c.OpenLibraryURL)),
		))
	}

	service, err := catalog.New(options...)
	if err != nil {
		return nil, nil, err
	}

	tokens := auth.NewTokenService([]byte(c.JWTSecret), c.TokenTTL)
	return service, tokens, nil
}

package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/ilyakaznacheev/cleanenv"

	"github.com/henriquecmelo1/library-app/pkg/catalog"
	"github.com/henriquecmelo1/library-app/pkg/catalog/api"
	"github.com/henriquecmelo1/library-app/pkg/catalog/auth"
	"github.com/henriquecmelo1/library-app/pkg/catalog/config"
)

type envConfig struct {
	Port                string        `env:"PORT" env-default:"8080"`
	Environment         string        `env:"ENVIRONMENT" env-default:"development"`
	DatabaseURL         string        `env:"DATABASE_URL" env-default:""`
	JWTSecret           string        `env:"JWT_SECRET_KEY"`
	TokenTTL            time.Duration `env:"TOKEN_TTL" env-default:"1h"`
	OpenLibraryURL      string        `env:"OPENLIBRARY_URL" env-default:"https://openlibrary.org"`
	EnrichmentEnabled   bool          `env:"ENRICHMENT_ENABLED" env-default:"true"`
	EnrichmentTimeout   time.Duration `env:"ENRICHMENT_TIMEOUT" env-default:"3s"`
	SearchPublishedOnly bool          `env:"SEARCH_PUBLISHED_ONLY" env-default:"true"`
}

func main() {
	var env envConfig
	if err := cleanenv.ReadEnv(&env); err != nil {
		log.Fatalf("Failed to read environment: %v", err)
	}

	serverConfig, err := config.Load(config.WithValues(func(c *config.ServerConfig) {
		c.Port = env.Port
		c.Environment = env.Environment
		if env.DatabaseURL != "" {
			c.DatabaseType = "postgres"
			c.DatabaseURL = env.DatabaseURL
		}
		c.JWTSecret = env.JWTSecret
		c.TokenTTL = env.TokenTTL
		c.OpenLibraryURL = env.OpenLibraryURL
		c.EnrichmentEnabled = env.EnrichmentEnabled
		c.EnrichmentTimeout = env.EnrichmentTimeout
		c.PublishedOnlySearch = env.SearchPublishedOnly
	}))
	if err != nil {
		log.Fatalf("Failed to load server configuration: %v", err)
	}

	ctx := context.Background()
	service, tokens, err := serverConfig.BuildService(ctx)
	if err != nil {
		log.Fatalf("Failed to build service: %v", err)
	}

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%s", serverConfig.Port),
		Handler: routes(service, tokens, serverConfig),
	}

	go func() {
		log.Printf("Catalog server starting on port %s (env: %s, db: %s)",
			serverConfig.Port, serverConfig.Environment, serverConfig.DatabaseType)

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting")
}

func routes(service catalog.Service, tokens *auth.TokenService, serverConfig *config.ServerConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS for development
	if serverConfig.Environment == "development" {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Access-Control-Allow-Origin", "*")
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

				if r.Method == http.MethodOptions {
					w.WriteHeader(http.StatusOK)
					return
				}

				next.ServeHTTP(w, r)
			})
		})
	}

	r.Get("/up", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r.Mount("/", api.NewAuthHandler(service, tokens).Routes())
	r.Mount("/materials", api.NewMaterialHandler(service, tokens).Routes())
	r.Mount("/people", api.NewPeopleHandler(service, tokens).Routes())
	r.Mount("/institutions", api.NewInstitutionsHandler(service, tokens).Routes())

	return r
}

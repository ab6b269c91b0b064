package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/llmfuse/hybrid-gateway/internal/gateway/handlers"
	"github.com/llmfuse/hybrid-gateway/internal/gateway/metrics"
	"github.com/llmfuse/hybrid-gateway/internal/gateway/providers"
	"github.com/llmfuse/hybrid-gateway/internal/gateway/routing"
	"github.com/llmfuse/hybrid-gateway/internal/shared/config"
	"github.com/llmfuse/hybrid-gateway/internal/shared/database"
	"github.com/llmfuse/hybrid-gateway/internal/shared/store"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	log.Printf("Starting Hybrid LLM Gateway on port %s (env: %s)", cfg.Port, cfg.Env)

	// Setup context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize the shared counter store
	counterStore, err := store.NewRedis(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer counterStore.Close()
	log.Println("✓ Connected to Redis")

	// Optional Postgres audit log
	var db *database.DB
	if cfg.DatabaseURL != "" {
		db, err = database.New(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()
		log.Println("✓ Connected to PostgreSQL (request audit log)")
	}

	// Initialize providers
	local := providers.NewOllamaProvider(cfg.OllamaHost, cfg.OllamaModel)
	var cloud providers.Provider
	if cfg.UseCloudAgent {
		cloudAgent, err := providers.NewCloudAgentProvider(cfg.CloudAgentEndpoint, cfg.CloudAgentAccessKey)
		if err != nil {
			log.Fatalf("Failed to configure cloud agent: %v", err)
		}
		cloud = cloudAgent
		log.Println("✓ Cloud routing enabled")
	} else {
		log.Println("✓ Cloud routing disabled (local only)")
	}

	// Initialize routing engine and metrics
	engine := routing.NewEngine(local, cloud, cfg.LocalMaxTokens)
	m := metrics.New()

	// Initialize handlers
	chatHandler := handlers.NewChatHandler(engine, counterStore, db, m)
	usageHandler := handlers.NewUsageHandler(counterStore)
	middleware := handlers.NewMiddleware(counterStore, cfg.RateLimitPerMinute, m)

	// Setup router
	r := chi.NewRouter()

	// Global middleware. No request timeout: local generation and
	// streaming relays may legitimately outlive any fixed budget.
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS)

	// Health check and metrics (no auth required)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	r.Method("GET", "/metrics", m.Handler())

	// API routes behind the admission pipeline
	r.Route("/v1", func(r chi.Router) {
		r.Use(middleware.Auth)
		r.Use(middleware.RateLimit)
		r.Use(middleware.UsageTracker)

		r.Post("/chat/completions", chatHandler.HandleChatCompletion)
		r.Get("/usage", usageHandler.HandleUsage)
	})

	// HTTP server
	srv := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     r,
		IdleTimeout: 120 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("🚀 Server listening on http://localhost:%s", cfg.Port)
		log.Println("   POST /v1/chat/completions - Chat completions (OpenAI-compatible)")
		log.Println("   GET  /v1/usage            - Per-key usage")
		log.Println("   GET  /health              - Health check")
		log.Println("   GET  /metrics             - Prometheus metrics")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
}

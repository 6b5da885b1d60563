// Folio - portfolio site and admin back-office server
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ashureev/folio/internal/admin"
	"github.com/ashureev/folio/internal/ai"
	"github.com/ashureev/folio/internal/api"
	"github.com/ashureev/folio/internal/backend"
	"github.com/ashureev/folio/internal/chat"
	"github.com/ashureev/folio/internal/config"
	"github.com/ashureev/folio/internal/identity"
	"github.com/ashureev/folio/internal/lifecycle"
	"github.com/ashureev/folio/internal/live"
	"github.com/ashureev/folio/internal/middleware"
	"github.com/ashureev/folio/internal/site"
	"github.com/ashureev/folio/internal/store"
	"github.com/ashureev/folio/internal/sweeper"
	"github.com/ashureev/folio/web"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting server", "port", cfg.Port, "dev", cfg.IsDevelopment(), "api_base_url", cfg.APIBaseURL)

	machine := lifecycle.New()
	liveCtx, stopLive := context.WithCancel(context.Background())
	defer stopLive()
	hub := live.NewHub()
	hubDone := hub.Start(liveCtx, machine)
	if err := machine.Start(); err != nil {
		slog.Error("Failed to enter loading phase", "error", err)
		os.Exit(1)
	}

	// Visitor state.
	var repo store.Storage
	if cfg.DBPath == "" {
		repo = store.NewMemory()
		slog.Warn("DB_PATH is empty, visitor state is kept in memory")
	} else {
		sqlite, err := store.NewSQLite(cfg.DBPath)
		if err != nil {
			slog.Error("Failed to initialize database", "error", err)
			os.Exit(1)
		}
		repo = sqlite
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			slog.Error("Failed to close repository", "error", closeErr)
		}
	}()

	if err := repo.Ping(context.Background()); err != nil {
		slog.Error("Database health check failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database connected")

	// Generative AI (optional).
	var generator ai.Generator
	var assistant chat.Assistant
	if cfg.AI.Enabled() {
		client, err := ai.NewGenAIClient(context.Background(), cfg.AI.APIKey, cfg.AI.ChatModel, cfg.AI.ImageModel)
		if err != nil {
			slog.Warn("Failed to initialize AI client, AI features will be disabled", "error", err)
		} else {
			generator = client
			assistant = client
			slog.Info("AI features enabled", "chat_model", cfg.AI.ChatModel, "image_model", cfg.AI.ImageModel)
		}
	} else {
		slog.Info("AI features disabled (AI_ENABLED is false or GEMINI_API_KEY is not set)")
	}

	limiter := ai.NewRateLimiter(cfg.AI.RequestsPerWindow, cfg.AI.Window)
	defer limiter.Stop()

	// Templates and fallback content.
	sitePages, err := web.NewRenderer("site")
	if err != nil {
		slog.Error("Failed to parse site templates", "error", err)
		os.Exit(1)
	}
	adminPages, err := web.NewRenderer("admin")
	if err != nil {
		slog.Error("Failed to parse admin templates", "error", err)
		os.Exit(1)
	}
	defaults, err := site.LoadDefaults()
	if err != nil {
		slog.Error("Failed to load default content", "error", err)
		os.Exit(1)
	}

	// Initialize handlers.
	factory := backend.NewFactory(cfg.APIBaseURL, cfg.LoginPath, repo, nil, logger)
	baseHandler := api.NewHandler(repo, cfg.MaxRequestBodySize, cfg.Timeout.HealthCheck, logger)
	chatHandler := api.NewChatHandler(baseHandler, assistant, limiter)
	aiHandler := ai.NewHandler(generator, limiter, cfg.MaxRequestBodySize, logger)
	siteHandler := site.NewHandler(factory, sitePages, defaults)
	adminHandler := admin.NewHandler(factory, adminPages, logger)
	wsHandler := live.NewLifecycleHandler(hub, cfg.FrontendURL, cfg.IsDevelopment())

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/ping"))
	r.Use(middleware.CORS(cfg.AllowedOrigins()))

	// Public routes without visitor state.
	r.Get("/health", baseHandler.Health)
	r.Handle("/static/*", web.StaticHandler())

	r.Group(func(r chi.Router) {
		r.Use(identity.Middleware(repo, cfg.IsDevelopment()))

		r.Route("/api", func(r chi.Router) {
			r.Get("/chat/history", chatHandler.GetHistory)
			r.Post("/chat/messages", chatHandler.SendMessage)
			r.Delete("/chat/history", chatHandler.ResetHistory)
			r.Get("/preferences", baseHandler.GetPreferences)
			r.Put("/preferences", baseHandler.PutPreferences)
			r.Route("/ai", aiHandler.Routes)
		})

		// WebSocket endpoint.
		r.Get("/ws/lifecycle", wsHandler.ServeHTTP)

		siteHandler.Routes(r)
		adminHandler.Routes(r)
	})
	r.NotFound(siteHandler.NotFound)

	// Create server.
	// WebSocket streams are long-lived, so there is no WriteTimeout.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start visitor sweeper.
	swept := sweeper.Start(ctx, repo, cfg.Visitor.SweepInterval, cfg.Visitor.TTL)

	if err := machine.MarkReady(); err != nil {
		slog.Error("Failed to enter ready phase", "error", err)
		os.Exit(1)
	}

	// Start server.
	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal.
	<-ctx.Done()
	stop()

	slog.Info("Shutting down gracefully...")
	// Open lifecycle streams see ready -> idle before they are closed.
	machine.Reset()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Timeout.Shutdown)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Closing live connections", "count", hub.Count())
	hub.CloseAll()
	stopLive()
	<-hubDone
	<-swept

	slog.Info("Server stopped successfully")
}

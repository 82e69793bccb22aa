package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/quizlearner/backend/internal/api"
	"github.com/quizlearner/backend/internal/assistant"
	"github.com/quizlearner/backend/internal/auth"
	"github.com/quizlearner/backend/internal/email"
	"github.com/quizlearner/backend/internal/infrastructure/config"
	"github.com/quizlearner/backend/internal/selector"
	"github.com/quizlearner/backend/internal/store"
)

func main() {
	cfg := config.Load()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// ── Dependencies ────────────────────────────────────────────────
	db, err := store.NewSQLite(cfg.DBPath)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Seed(context.Background(), cfg.AdminEmail, logger); err != nil {
		logger.Error("failed to seed database", "error", err)
		os.Exit(1)
	}

	var client assistant.Client
	if cfg.AIAPIKey != "" {
		client = assistant.NewOpenAIClient(cfg.AIURL, cfg.AIModel, cfg.AIAPIKey)
	} else {
		logger.Warn("no AI API key configured, assistant runs in fallback mode")
	}
	gateway := assistant.NewGateway(client, logger)

	var mailer email.Mailer
	if cfg.EmailAPIKey != "" {
		mailer = email.NewAPIMailer(cfg.EmailAPIURL, cfg.EmailAPIKey, cfg.EmailFrom, logger)
	} else {
		if cfg.Production() {
			logger.Error("EMAIL_API_KEY is required in production")
			os.Exit(1)
		}
		logger.Warn("no email API key configured, codes are logged to console")
		mailer = email.NewConsoleMailer(logger)
	}
	dispatcher := email.NewDispatcher(mailer, 4, logger)
	defer dispatcher.Close()

	tokens := auth.NewTokenService(cfg.JWTSecret, cfg.JWTExpiry)
	otps := auth.NewOTPService(db)
	sel := selector.New(db, gateway, logger)

	handler := api.NewHandler(db, sel, gateway, otps, tokens, dispatcher, logger)

	// ── Routes ──────────────────────────────────────────────────────
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "ok"}`))
	})

	api.RegisterRoutes(mux, handler, db)

	// Middleware chain: Logging wraps CORS wraps mux.
	logged := api.Logging(logger)(api.CORS(mux))

	// ── Server ──────────────────────────────────────────────────────
	server := &http.Server{
		Addr:              cfg.ServerAddress,
		Handler:           logged,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		logger.Info("shutting down server")
		if err := server.Shutdown(ctx); err != nil {
			logger.Error("server forced to shutdown", "error", err)
		}
	}()

	logger.Info("starting server", "address", cfg.ServerAddress)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server failed to start", "error", err)
		os.Exit(1)
	}
}

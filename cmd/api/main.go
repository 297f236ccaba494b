package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/spendly/internal/auth"
	authStore "github.com/MrJamesThe3rd/spendly/internal/auth/store"
	"github.com/MrJamesThe3rd/spendly/internal/budget"
	budgetStore "github.com/MrJamesThe3rd/spendly/internal/budget/store"
	"github.com/MrJamesThe3rd/spendly/internal/config"
	"github.com/MrJamesThe3rd/spendly/internal/database"
	"github.com/MrJamesThe3rd/spendly/internal/expense"
	expenseStore "github.com/MrJamesThe3rd/spendly/internal/expense/store"
	"github.com/MrJamesThe3rd/spendly/internal/export"
	"github.com/MrJamesThe3rd/spendly/internal/feed"
	spendlyHttp "github.com/MrJamesThe3rd/spendly/internal/http"
	authHandler "github.com/MrJamesThe3rd/spendly/internal/http/auth"
	budgetHandler "github.com/MrJamesThe3rd/spendly/internal/http/budget"
	expenseHandler "github.com/MrJamesThe3rd/spendly/internal/http/expense"
	exportHandler "github.com/MrJamesThe3rd/spendly/internal/http/export"
	feedHandler "github.com/MrJamesThe3rd/spendly/internal/http/feed"
	importHandler "github.com/MrJamesThe3rd/spendly/internal/http/importcsv"
	matchingHandler "github.com/MrJamesThe3rd/spendly/internal/http/matching"
	summaryHandler "github.com/MrJamesThe3rd/spendly/internal/http/summary"
	"github.com/MrJamesThe3rd/spendly/internal/importer"
	"github.com/MrJamesThe3rd/spendly/internal/matching"
	matchingStore "github.com/MrJamesThe3rd/spendly/internal/matching/store"
	"github.com/MrJamesThe3rd/spendly/internal/tracker"
)

const shutdownTimeout = 10 * time.Second

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if cfg.App.Debug {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}

	db, err := database.New(cfg.ConnectionString())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if cfg.DB.Migrate {
		if err := database.Migrate(db); err != nil {
			slog.Error("failed to run migrations", "error", err)
			os.Exit(1)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := feed.NewHub()

	var publisher feed.Publisher = hub

	if cfg.AMQP.URL != "" {
		relay, err := feed.NewRelay(cfg.AMQP.URL, cfg.AMQP.Exchange, hub)
		if err != nil {
			slog.Error("failed to start feed relay", "error", err)
			os.Exit(1)
		}
		defer relay.Close()

		go func() {
			if err := relay.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("feed relay stopped, delivering change events locally", "error", err)
			}
		}()

		publisher = relay
		slog.Info("change feed relayed through amqp", "exchange", cfg.AMQP.Exchange)
	}

	tokens := auth.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	var (
		authService     = auth.NewService(authStore.New(db), tokens)
		expenseService  = expense.NewService(expenseStore.New(db), publisher)
		budgetService   = budget.NewService(budgetStore.New(db), publisher)
		trackerService  = tracker.NewService(expenseService, budgetService)
		matchingService = matching.NewService(matchingStore.New(db))
		importService   = importer.NewService(matchingService)
		exportService   = export.NewService(expenseService, trackerService)
	)

	handlers := spendlyHttp.Handlers{
		Auth:      authHandler.NewHandler(authService),
		Expenses:  expenseHandler.NewHandler(expenseService, matchingService),
		Budgets:   budgetHandler.NewHandler(budgetService),
		Summaries: summaryHandler.NewHandler(trackerService),
		Import:    importHandler.NewHandler(importService, expenseService),
		Matching:  matchingHandler.NewHandler(matchingService),
		Export:    exportHandler.NewHandler(exportService),
		Feed:      feedHandler.NewHandler(hub, authService, cfg.CORS.AllowedOrigins),
	}

	limiter := spendlyHttp.NewRateLimiter(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst)
	go limiter.Run(ctx.Done())

	router := spendlyHttp.New(handlers, authService, limiter, spendlyHttp.Options{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		Timeout:        cfg.Server.Timeout,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown failed", "error", err)
		}
	}()

	slog.Info("starting server", "port", srv.Addr)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped")
}

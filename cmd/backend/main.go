package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rahul4469/competitor-monitor/internal/config"
	"github.com/rahul4469/competitor-monitor/internal/controllers"
	"github.com/rahul4469/competitor-monitor/internal/middleware"
	"github.com/rahul4469/competitor-monitor/internal/models"
	"github.com/rahul4469/competitor-monitor/internal/server"
	"github.com/rahul4469/competitor-monitor/internal/services"
	"github.com/rahul4469/competitor-monitor/migrations"
)

func main() {
	cfg, err := config.Load(config.RoleBackend)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger := config.NewLogger(cfg)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("backend stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Setup History ---------------
	var history models.HistoryStore
	var db *models.Database
	if cfg.Database.URL != "" {
		var err error
		db, err = models.NewDatabase(ctx, models.DefaultDatabaseConfig(cfg.Database.URL))
		if err != nil {
			return err
		}
		defer db.Close()

		if err := db.MigrateFS(ctx, migrations.FS, "."); err != nil {
			return err
		}
		logger.Info("history stored in postgres")
		history = models.NewHistoryService(db.Pool, cfg.Limits.HistoryLimit)
	} else {
		logger.Info("DATABASE_URL not set, history kept in memory")
		history = models.NewMemoryHistory(cfg.Limits.HistoryLimit)
	}

	// Setup Services ---------------
	var analyzer services.Analyzer = services.SampleAnalyzer{}
	if cfg.APIs.OpenAIAPIKey != "" {
		analyzer = services.NewOpenAIAnalyzer(
			cfg.APIs.OpenAIAPIKey,
			cfg.APIs.OpenAIBaseURL,
			cfg.APIs.OpenAIModel,
			cfg.APIs.OpenAIVisionModel,
			cfg.Backend.Timeout,
		)
		logger.Info("using openai analyzer", "model", cfg.APIs.OpenAIModel)
	} else {
		logger.Warn("OPENAI_API_KEY not set, serving sample analyses")
	}
	parser := services.NewPageParser(cfg.Limits.ParseTimeout)

	apiCtrl := controllers.NewAPIController(analyzer, parser, history, logger, cfg.Limits.MaxImageBytes)
	if db != nil {
		apiCtrl.SetHealthCheck(db.Health)
	}

	// Setup router and routes
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(logger))
	r.Use(chimw.Recoverer)
	apiCtrl.RegisterRoutes(r)

	srv := &http.Server{
		Addr:         cfg.ListenAddr(config.RoleBackend),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return server.Serve(ctx, srv, logger, "history", historyKind(db))
}

func historyKind(db *models.Database) string {
	if db != nil {
		return "postgres"
	}
	return "memory"
}

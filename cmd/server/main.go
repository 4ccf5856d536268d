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
	"github.com/gorilla/csrf"
	"github.com/rahul4469/competitor-monitor/internal/client"
	"github.com/rahul4469/competitor-monitor/internal/config"
	"github.com/rahul4469/competitor-monitor/internal/controllers"
	"github.com/rahul4469/competitor-monitor/internal/fence"
	"github.com/rahul4469/competitor-monitor/internal/middleware"
	"github.com/rahul4469/competitor-monitor/internal/server"
	"github.com/rahul4469/competitor-monitor/internal/views"
	"github.com/rahul4469/competitor-monitor/templates"
)

func main() {
	cfg, err := config.Load(config.RoleServer)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger := config.NewLogger(cfg)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Setup Views ---------------
	fragments, err := views.NewFragments(templates.FS)
	if err != nil {
		return fmt.Errorf("parse fragments: %w", err)
	}
	home, err := views.ParseFS(templates.FS, "pages/home.gohtml")
	if err != nil {
		return fmt.Errorf("parse home page: %w", err)
	}

	// Setup Services ---------------
	backend := client.New(cfg.Backend.URL, cfg.Backend.Timeout)

	requests := fence.New()
	go requests.RunSweeper(ctx, cfg.Limits.FenceIdle/2, cfg.Limits.FenceIdle)

	monitorCtrl := controllers.NewMonitorController(
		backend,
		fragments,
		home,
		requests,
		logger,
		cfg.Limits.MaxImageBytes,
		cfg.IsDevelopment(),
	)

	// Setup Middleware ---------------
	csrfMw := csrf.Protect(
		[]byte(cfg.Security.CSRFSecret),
		csrf.Secure(cfg.Security.SecureCookies),
		csrf.Path("/"),
		csrf.TrustedOrigins(cfg.Security.TrustedOrigins),
	)
	cmw := middleware.NewClientMiddleware(cfg.Security.ClientCookieName, cfg.Security.SecureCookies)

	// Setup router and routes
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(logger))
	r.Use(chimw.Recoverer)

	r.Get("/health", controllers.HealthCheck)

	r.Group(func(r chi.Router) {
		if !cfg.IsProduction() {
			r.Use(middleware.PlaintextCSRF)
		}
		r.Use(csrfMw)
		r.Use(cmw.SetClient)
		monitorCtrl.RegisterRoutes(r)
	})

	srv := &http.Server{
		Addr:         cfg.ListenAddr(config.RoleServer),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return server.Serve(ctx, srv, logger, "backend", cfg.Backend.URL)
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/kardianos/service"
	"golang.org/x/time/rate"

	"github.com/lain-code/lain/internal/aggregator"
	"github.com/lain-code/lain/internal/config"
	"github.com/lain-code/lain/internal/logging"
	"github.com/lain-code/lain/internal/project"
	"github.com/lain-code/lain/server/internal/handlers"
	"github.com/lain-code/lain/server/internal/middleware"
	"github.com/lain-code/lain/server/internal/templates"
)

// program implements service.Interface around the HTTP server
type program struct {
	srv    *http.Server
	logger *slog.Logger
}

func (p *program) Start(s service.Service) error {
	go func() {
		p.logger.Info("starting lain-server", "addr", p.srv.Addr)
		if err := p.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			p.logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()
	return nil
}

func (p *program) Stop(s service.Service) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p.logger.Info("shutting down")
	return p.srv.Shutdown(ctx)
}

func newServer(cfg *config.Config, logger *slog.Logger) (*http.Server, error) {
	// Session manager keeps dashboard filters in memory
	sessionMgr := scs.New()
	sessionMgr.Lifetime = 7 * 24 * time.Hour
	sessionMgr.Cookie.Secure = false // Set to true in production with HTTPS
	sessionMgr.Cookie.SameSite = http.SameSiteLaxMode

	tmpl, err := templates.Parse()
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	static, err := templates.Static()
	if err != nil {
		return nil, fmt.Errorf("static assets: %w", err)
	}

	agg := aggregator.New(cfg.DataDir, project.NewResolver(cfg.NamePrefixes...), logger)
	h := handlers.New(agg, sessionMgr, tmpl, static, logger)

	// Every stats call rescans the data directory
	limiter := middleware.NewIPRateLimiter(rate.Limit(5), 20)

	var handler http.Handler = h.Routes()
	handler = sessionMgr.LoadAndSave(handler)
	handler = limiter.Limit(handler)
	handler = middleware.SecurityHeaders(handler)
	handler = middleware.Logging(logger)(handler)

	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}, nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.LogLevel, nil)

	srv, err := newServer(cfg, logger)
	if err != nil {
		logger.Error("setup failed", "error", err)
		os.Exit(1)
	}

	svcConfig := &service.Config{
		Name:        "lain-server",
		DisplayName: "lain usage dashboard",
		Description: "Serves Claude Code usage stats from local session logs",
		EnvVars: map[string]string{
			"LAIN_DATA_DIR": cfg.DataDir,
			"LAIN_ADDR":     cfg.Addr,
		},
	}

	prg := &program{srv: srv, logger: logger}
	s, err := service.New(prg, svcConfig)
	if err != nil {
		logger.Error("create service", "error", err)
		os.Exit(1)
	}

	if len(os.Args) > 1 {
		cmd := os.Args[1]
		switch cmd {
		case "status":
			status, err := s.Status()
			if err != nil {
				fmt.Printf("Service status: not installed or error (%v)\n", err)
				return
			}
			switch status {
			case service.StatusRunning:
				fmt.Println("Service status: running")
			case service.StatusStopped:
				fmt.Println("Service status: stopped")
			default:
				fmt.Println("Service status: unknown")
			}
			return
		case "uninstall":
			s.Stop() // ignore error
		}

		if err := service.Control(s, cmd); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\nValid commands: %q, status\n", err, service.ControlAction)
			os.Exit(1)
		}
		fmt.Printf("Service %s: ok\n", cmd)
		return
	}

	logger.Info("serving", "data_dir", cfg.DataDir)
	if err := s.Run(); err != nil {
		logger.Error("service run", "error", err)
		os.Exit(1)
	}
}

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	adapthttp "clientportal/internal/adapter/http"
	"clientportal/internal/adapter/memory"
	"clientportal/internal/adapter/postgres"
	"clientportal/internal/adapter/sheets"
	"clientportal/internal/app"
	"clientportal/internal/config"
	"clientportal/internal/domain"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run starts the portal and returns the process exit code once the server
// has stopped and the store is closed.
func run(args []string) int {
	fs := flag.NewFlagSet("clientportal", flag.ContinueOnError)
	configPath := fs.String("config", os.Getenv("CONFIG_PATH"), "optional YAML config file")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		return 1
	}
	logger := newLogger(cfg.Logging)
	slog.SetDefault(logger)

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		logger.Error("failed to open store", "backend", cfg.Store.Backend, "error", err)
		return 1
	}
	defer func() {
		if cerr := closeStore(); cerr != nil {
			logger.Error("failed to close store", "error", cerr)
		}
	}()

	tables := cfg.TableNames()
	auth := app.NewAuthenticator(app.AuthConfig{
		SessionSecret: cfg.Auth.SessionSecret,
		Password:      cfg.Auth.Password,
		PasswordHash:  cfg.Auth.PasswordHash,
	}, time.Now)
	clients := app.NewClientService(store, tables.Clients, logger)
	recipients := app.NewRecipientService(store, tables.Recipients, cfg.Presets, logger)
	logs := app.NewLogService(store, tables.Log)

	srv := adapthttp.New(auth, clients, recipients, logs, cfg.Server.WebDir).
		WithSecureCookies(cfg.Server.Production).
		WithLogger(logger)

	if cfg.SSOEnabled() {
		sso, err := adapthttp.NewOIDCConfig(ctx, cfg.OIDC.Issuer, cfg.OIDC.ClientID, cfg.OIDC.ClientSecret, cfg.OIDC.RedirectURL, cfg.OIDC.AllowedEmails)
		if err != nil {
			logger.Error("failed to initialise sso", "error", err)
			return 1
		}
		srv.WithSSO(sso)
		logger.Info("sso enabled", "issuer", cfg.OIDC.Issuer)
	}

	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("client portal listening", "addr", server.Addr, "backend", cfg.Store.Backend)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server encountered error", "error", err)
		return 1
	}
	return 0
}

func openStore(ctx context.Context, cfg *config.Config) (domain.RowStore, func() error, error) {
	noop := func() error { return nil }
	switch cfg.Store.Backend {
	case config.BackendSheets:
		s, err := sheets.NewStore(ctx, sheets.Config{
			SpreadsheetID:       cfg.Store.Sheets.SpreadsheetID,
			ServiceAccountEmail: cfg.Store.Sheets.ServiceAccountEmail,
			PrivateKey:          cfg.Store.Sheets.PrivateKey,
		})
		return s, noop, err
	case config.BackendPostgres:
		db, err := postgres.Open(cfg.Store.Postgres.DSN)
		if err != nil {
			return nil, noop, err
		}
		return db, db.Close, nil
	case config.BackendMemory:
		return memory.New(), noop, nil
	default:
		return nil, noop, fmt.Errorf("%w: unknown store backend %q", domain.ErrConfiguration, cfg.Store.Backend)
	}
}

func newLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.Format, "text") {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

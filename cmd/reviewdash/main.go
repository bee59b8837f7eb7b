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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	githubadapter "github.com/ericfisherdev/reviewdash/internal/adapter/driven/github"
	sqliteadapter "github.com/ericfisherdev/reviewdash/internal/adapter/driven/sqlite"
	httphandler "github.com/ericfisherdev/reviewdash/internal/adapter/driving/http"
	"github.com/ericfisherdev/reviewdash/internal/application"
	"github.com/ericfisherdev/reviewdash/internal/config"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration (fail fast on invalid values).
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)
	logger.Info("config loaded",
		"listen_addr", cfg.ListenAddr,
		"db_path", cfg.DBPath,
		"github_api_url", cfg.GitHub.APIURL,
		"github_app_id", cfg.GitHub.AppID,
	)

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Open database (dual reader/writer with WAL mode) and migrate.
	db, err := sqliteadapter.NewDB(ctx, cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			logger.Error("error closing database", "error", closeErr)
		}
	}()
	logger.Info("database opened", "path", db.Path())

	if err := sqliteadapter.RunMigrations(db.Writer, logger); err != nil {
		return err
	}

	// 4. Wire adapters.
	userStore := sqliteadapter.NewUserRepo(db)
	reviewStore := sqliteadapter.NewReviewRepo(db)
	savedStore := sqliteadapter.NewSavedReviewRepo(db)
	installationStore := sqliteadapter.NewInstallationRepo(db)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	// 5. GitHub App client. Fails here if the private key does not parse.
	githubClient, err := newGitHubClient(cfg, logger, registry)
	if err != nil {
		return err
	}

	// 6. Application services and HTTP router.
	handler := httphandler.NewHandler(
		application.NewUserService(userStore, logger),
		application.NewReviewService(userStore, reviewStore, savedStore, logger),
		application.NewSavedReviewService(userStore, reviewStore, savedStore, logger),
		application.NewDashboardService(userStore, reviewStore, logger),
		application.NewInstallationService(userStore, installationStore, githubClient, logger),
		db,
		logger,
	)

	srv := newServer(cfg.ListenAddr, httphandler.NewRouter(handler, logger, registry), githubClient.Budget())

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("http server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http server shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	logger.Info("shutdown complete")
	return nil
}

// newServer builds the HTTP server. The write timeout outlasts the GitHub
// client's overall deadline so a slow upstream ends in a 504, not a dropped
// connection.
func newServer(addr string, handler http.Handler, githubBudget time.Duration) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      githubBudget + 10*time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

func newGitHubClient(cfg *config.Config, logger *slog.Logger, reg prometheus.Registerer) (*githubadapter.Client, error) {
	auth, err := githubadapter.NewAppAuth(cfg.GitHub.AppID, cfg.GitHub.PrivateKey)
	if err != nil {
		return nil, err
	}

	client, err := githubadapter.NewClient(auth, cfg.GitHub.APIURL, githubadapter.ClientOptions{
		Timeout:    cfg.GitHub.RequestTimeout(),
		Logger:     logger,
		Registerer: reg,
	})
	if err != nil {
		return nil, err
	}

	logger.Info("github app client created", "api_url", cfg.GitHub.APIURL, "budget", client.Budget())
	return client, nil
}

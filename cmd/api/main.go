package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mpetrov/anisync/internal/config"
	"github.com/mpetrov/anisync/internal/database"
	apihttp "github.com/mpetrov/anisync/internal/http"
	"github.com/mpetrov/anisync/internal/mal"
	"github.com/mpetrov/anisync/internal/malauth"
	"github.com/mpetrov/anisync/internal/mapping"
	"github.com/mpetrov/anisync/internal/progress"
	"github.com/mpetrov/anisync/internal/repository"
	"github.com/mpetrov/anisync/internal/sonarr"
	"github.com/mpetrov/anisync/internal/sync"
	"github.com/mpetrov/anisync/internal/titlematch"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel})
	logger := slog.New(handler)
	slog.SetDefault(logger)

	db, err := database.Open(cfg.SQLitePath)
	if err != nil {
		slog.Error("failed to open sqlite", "path", cfg.SQLitePath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := database.ApplyMigrations(db, cfg.MigrationsPath); err != nil {
		slog.Error("failed to apply migrations", "error", err)
		os.Exit(1)
	}

	rules, rulesErr := mapping.Load(cfg.MappingRulesPath)
	if rulesErr != nil {
		slog.Warn("mapping rules loaded with warnings", "error", rulesErr)
	}

	authenticator := malauth.NewAuthenticator(cfg.MALClientID, cfg.MALClientSecret, cfg.MALRedirectURI)
	if !authenticator.Configured() {
		slog.Warn("myanimelist client credentials not set, auth endpoints will fail")
	}
	tokenManager := malauth.NewManager(repository.NewCredentialRepository(db), authenticator, logger)

	malClient := mal.NewClientWithOptions("https://api.myanimelist.net/v2", tokenManager, nil, cfg.SearchLimit)
	sonarrClient := sonarr.NewClient(cfg.SonarrURL, cfg.SonarrAPIKey, sonarr.DefaultClassifier)

	broker := progress.NewBroker()
	var publisher progress.Publisher = broker
	if cfg.ProgressWebhookURL != "" {
		webhook, err := progress.NewWebhookPublisher(cfg.ProgressWebhookURL)
		if err != nil {
			slog.Warn("progress webhook disabled", "error", err)
		} else {
			publisher = progress.Fanout{broker, webhook}
		}
	}

	engine := sync.NewEngine(sync.Deps{
		Catalog:   sonarrClient,
		List:      malClient,
		Selector:  titlematch.NewSelector(titlematch.NewScorer(cfg.MatchWeights)),
		Rules:     rules,
		Publisher: publisher,
		Runs:      repository.NewSyncRunRepository(db),
		Logger:    logger,
	}, sync.Config{
		MinScore:         cfg.MinScore,
		DefaultStatus:    cfg.DefaultStatus,
		MutationPace:     cfg.MutationPace,
		RateLimitBackoff: cfg.RateLimitBackoff,
	})

	app := apihttp.NewServer(cfg, apihttp.Deps{
		DB:      db,
		Auth:    authenticator,
		Tokens:  tokenManager,
		Catalog: sonarrClient,
		Sonarr:  sonarrClient,
		MAL:     malClient,
		Engine:  engine,
		Runs:    repository.NewSyncRunRepository(db),
		Logger:  logger,
	})

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server stopped", "error", err)
		}
	}()

	slog.Info("api started", "port", cfg.Port, "env", cfg.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}

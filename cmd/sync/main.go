package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mpetrov/anisync/internal/config"
	"github.com/mpetrov/anisync/internal/database"
	"github.com/mpetrov/anisync/internal/mal"
	"github.com/mpetrov/anisync/internal/malauth"
	"github.com/mpetrov/anisync/internal/mapping"
	"github.com/mpetrov/anisync/internal/models"
	"github.com/mpetrov/anisync/internal/progress"
	"github.com/mpetrov/anisync/internal/repository"
	"github.com/mpetrov/anisync/internal/sonarr"
	"github.com/mpetrov/anisync/internal/sync"
	"github.com/mpetrov/anisync/internal/titlematch"
)

func main() {
	var (
		dryRun bool
		status string
		login  bool
	)
	flag.BoolVar(&dryRun, "dry-run", false, "Report sync decisions without updating the MyAnimeList list.")
	flag.StringVar(&status, "status", "", "Override the list status assigned to added entries.")
	flag.BoolVar(&login, "login", false, "Run the interactive MyAnimeList authorization flow and exit.")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel})
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

	authenticator := malauth.NewAuthenticator(cfg.MALClientID, cfg.MALClientSecret, cfg.MALRedirectURI)
	tokenManager := malauth.NewManager(repository.NewCredentialRepository(db), authenticator, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if login {
		if err := runLogin(ctx, cfg, authenticator, tokenManager); err != nil {
			slog.Error("authorization failed", "error", err)
			os.Exit(1)
		}
		slog.Info("authorization complete")
		return
	}

	if authenticated, _ := tokenManager.Status(); !authenticated {
		slog.Error("not authenticated with myanimelist, run with -login first")
		os.Exit(1)
	}

	rules, rulesErr := mapping.Load(cfg.MappingRulesPath)
	if rulesErr != nil {
		slog.Warn("mapping rules loaded with warnings", "error", rulesErr)
	}

	malClient := mal.NewClientWithOptions("https://api.myanimelist.net/v2", tokenManager, nil, cfg.SearchLimit)
	sonarrClient := sonarr.NewClient(cfg.SonarrURL, cfg.SonarrAPIKey, sonarr.DefaultClassifier)

	broker := progress.NewBroker()
	engine := sync.NewEngine(sync.Deps{
		Catalog:   sonarrClient,
		List:      malClient,
		Selector:  titlematch.NewSelector(titlematch.NewScorer(cfg.MatchWeights)),
		Rules:     rules,
		Publisher: broker,
		Runs:      repository.NewSyncRunRepository(db),
		Logger:    logger,
	}, sync.Config{
		MinScore:         cfg.MinScore,
		DefaultStatus:    cfg.DefaultStatus,
		MutationPace:     cfg.MutationPace,
		RateLimitBackoff: cfg.RateLimitBackoff,
	})

	items, err := sonarrClient.AnimeSeries(ctx)
	if err != nil {
		slog.Error("failed to fetch series from sonarr", "error", err)
		os.Exit(1)
	}
	slog.Info("fetched anime series", "count", len(items), "dry_run", dryRun)

	session := engine.Registry().Create()
	events, cancelSub := broker.Subscribe(session.ID(), len(items)+2)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for event := range events {
			printEvent(event)
		}
	}()

	engine.RunItems(ctx, session, items, sync.Options{DryRun: dryRun, DefaultStatus: status})

	cancelSub()
	<-done

	summary := session.Summary()
	slog.Info("sync finished",
		"session_id", summary.SessionID,
		"status", string(summary.Status),
		"total", summary.Total,
		"succeeded", summary.Succeeded,
		"warnings", summary.Warnings,
		"failed", summary.Failed,
	)

	if summary.Status != models.SessionCompleted {
		os.Exit(1)
	}
}

func printEvent(event progress.Event) {
	switch event.Type {
	case progress.EventItem:
		if event.Result == nil {
			return
		}
		fmt.Printf("[%d/%d] %-15s %s", event.Current, event.Total, event.Result.Decision, event.Result.SourceTitle)
		if event.Result.MatchedTitle != "" {
			fmt.Printf(" -> %s (%.1f%%)", event.Result.MatchedTitle, event.Result.Score)
		}
		fmt.Println()
	case progress.EventError:
		fmt.Printf("sync failed: %s\n", event.Error)
	}
}

// runLogin walks the authorization code flow on the terminal: print the
// authorization URL, catch the redirect on a local listener, exchange the
// code and persist the credential.
func runLogin(ctx context.Context, cfg config.Config, authenticator *malauth.Authenticator, manager *malauth.Manager) error {
	if !authenticator.Configured() {
		return errors.New("MAL_CLIENT_ID and MAL_CLIENT_SECRET must be set")
	}

	redirect, err := url.Parse(cfg.MALRedirectURI)
	if err != nil {
		return fmt.Errorf("invalid redirect uri: %w", err)
	}

	state, err := malauth.NewState()
	if err != nil {
		return err
	}
	verifier, err := malauth.NewVerifier()
	if err != nil {
		return err
	}

	waiter := malauth.NewCodeWaiter()
	mux := http.NewServeMux()
	mux.HandleFunc(redirect.Path, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("state") != state {
			http.Error(w, "state mismatch", http.StatusBadRequest)
			return
		}
		waiter.Deliver(r.URL.Query().Get("code"))
		fmt.Fprintln(w, "Authorized. You can close this tab.")
	})

	listener, err := net.Listen("tcp", redirect.Host)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", redirect.Host, err)
	}
	server := &http.Server{Handler: mux}
	go func() { _ = server.Serve(listener) }()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	fmt.Println("Open this URL in your browser to authorize:")
	fmt.Println(authenticator.AuthCodeURL(state, verifier))

	code, err := waiter.Wait(ctx, cfg.AuthCallbackTimeout)
	if err != nil {
		return err
	}

	cred, err := authenticator.Exchange(ctx, code, verifier)
	if err != nil {
		return fmt.Errorf("token exchange failed: %w", err)
	}
	return manager.SetCredential(cred)
}

package http

import (
	"database/sql"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/mpetrov/anisync/internal/config"
	"github.com/mpetrov/anisync/internal/http/handlers"
	"github.com/mpetrov/anisync/internal/malauth"
	"github.com/mpetrov/anisync/internal/sync"
)

// Deps carries the wired services the handlers depend on.
type Deps struct {
	DB      *sql.DB
	Auth    *malauth.Authenticator
	Tokens  *malauth.Manager
	Catalog handlers.Catalog
	Sonarr  handlers.ConnectionChecker
	MAL     handlers.ConnectionChecker
	Engine  *sync.Engine
	Runs    handlers.RunHistory
	Logger  *slog.Logger
}

func NewServer(cfg config.Config, deps Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName: cfg.AppName,
	})

	app.Use(recover.New())

	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	health := handlers.NewHealthHandler(deps.DB)
	auth := handlers.NewAuthHandler(deps.Auth, deps.Tokens, deps.Logger)
	series := handlers.NewSeriesHandler(deps.Catalog, deps.Logger)
	syncHandlers := handlers.NewSyncHandler(deps.Engine, deps.Runs, deps.Logger)
	status := handlers.NewStatusHandler(deps.Sonarr, deps.MAL)

	app.Get("/health", health.Check)
	app.Get("/v1/health", health.Check)
	app.Get("/callback", auth.Callback)

	v1 := app.Group("/v1")
	v1.Get("/auth/login", auth.Login)
	v1.Get("/auth/status", auth.Status)
	v1.Get("/series", series.List)
	v1.Post("/sync", syncHandlers.Start)
	v1.Get("/sync/preview", syncHandlers.Preview)
	v1.Get("/sync/history", syncHandlers.History)
	v1.Get("/sync/:id", syncHandlers.Status)
	v1.Get("/status", status.Check)

	return app
}

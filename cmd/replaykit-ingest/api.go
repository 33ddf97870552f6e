// Package main provides the ReplayKit ingest API server implementation.
package main

import (
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"

	"github.com/replaykit/replaykit/pkg/fingerprint"
	"github.com/replaykit/replaykit/pkg/persistence"
	"github.com/replaykit/replaykit/pkg/web"
)

type API struct {
	logger   *slog.Logger
	store    persistence.Persistence
	validate *validator.Validate
}

func NewAPI(logger *slog.Logger, store persistence.Persistence) *API {
	return &API{
		logger:   logger,
		store:    store,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	handlers := web.NewAPIHandlers(
		a.store,
		a.validate,
		fingerprint.NewValidator(fingerprint.DefaultLimits()),
		fingerprint.DefaultOptimizeOptions(),
		a.logger,
	)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("ReplayKit Ingest API")
	})

	s := app.Group("/sessions")
	s.Post("/", handlers.IngestSession)
	s.Get("/", handlers.GetSessions)
	s.Get("/:id", handlers.GetSession)

	ac := app.Group("/actions")
	ac.Get("/", handlers.GetActions)
	ac.Get("/:id", handlers.GetAction)
	ac.Delete("/:id", handlers.DeleteAction)

	w := app.Group("/workflows")
	w.Get("/", handlers.GetWorkflows)
	w.Post("/", handlers.CreateWorkflow)
	w.Get("/:id", handlers.GetWorkflow)
	w.Delete("/:id", handlers.DeleteWorkflow)

	app.Get("/health", handlers.HealthCheck)

	return app
}

func (a *API) Start(port int) error {
	return a.App().Listen(":" + strconv.Itoa(port))
}

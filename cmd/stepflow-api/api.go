// Package main provides the stepflow API server implementation.
package main

import (
	"log/slog"
	"strconv"

	"github.com/dukex/stepflow/pkg/skills"
	"github.com/dukex/stepflow/pkg/web"
	"github.com/dukex/stepflow/pkg/workflow"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
)

type API struct {
	logger     *slog.Logger
	runner     *workflow.Runner
	repository *workflow.Repository
	skills     *skills.Registry
	validate   *validator.Validate
}

func NewAPI(
	logger *slog.Logger,
	runner *workflow.Runner,
	repository *workflow.Repository,
	skills *skills.Registry,
) *API {
	return &API{
		logger:     logger,
		runner:     runner,
		repository: repository,
		skills:     skills,
		validate:   validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	handlers := web.NewAPIHandlers(a.runner, a.repository, a.skills, a.validate)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Stepflow API")
	})

	handlers.Register(app)

	return app
}

func (a *API) Start(port int) error {
	a.logger.Info("Starting API server", "port", port)

	return a.App().Listen(":" + strconv.Itoa(port))
}

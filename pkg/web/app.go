package web

import (
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
)

// NewApp returns the fiber application serving the automation API.
func NewApp(handlers *APIHandlers, requestLogging bool) *fiber.App {
	app := fiber.New()
	app.Use(cors.New())

	if requestLogging {
		app.Use(logger.New(logger.Config{
			DisableColors: true,
		}))
	}

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Autoflow API")
	})

	api := app.Group("/api")

	a := api.Group("/automations")
	a.Get("/", handlers.GetAutomations)
	a.Post("/", handlers.CreateAutomation)
	a.Get("/:id", handlers.GetAutomation)
	a.Delete("/:id", handlers.DeleteAutomation)
	a.Post("/:id/test", handlers.TestAutomation)

	catalog := api.Group("/catalog")
	catalog.Get("/steps", handlers.GetSteps)
	catalog.Get("/triggers", handlers.GetTriggers)

	app.Get("/health", handlers.HealthCheck)

	return app
}

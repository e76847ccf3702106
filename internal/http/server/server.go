// Package server wires the Fiber app of the preview server.
package server

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/redis/go-redis/v9"

	"thesisgen/internal/config"
	"thesisgen/internal/http/handlers"
	"thesisgen/internal/http/middleware"
	"thesisgen/internal/infra/logging"
)

// Deps are the collaborators of the app. Redis and PDF may be nil.
type Deps struct {
	Config config.Config
	Redis  *redis.Client
	PDF    handlers.PDFBackend
}

// New creates the app with middleware, routes and JSON errors.
func New(d Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		Prefork:               d.Config.Server.Prefork,
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
	})

	middleware.Register(app, d.Config)
	registerRoutes(app, d)

	// everything else, 404 included, answers in JSON
	app.Use(func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusNotFound, "Not Found")
	})

	return app
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	msg := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		msg = e.Message
	}

	logging.Warn("Request failed", "path", c.Path(), "status", code, "message", msg)

	return c.Status(code).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    code,
			"message": msg,
		},
	})
}

func registerRoutes(app *fiber.App, d Deps) {
	v1 := app.Group("/v1")

	svc := handlers.NewService(d.Config, d.Redis, d.PDF)

	v1.Get("/document", svc.HandleDocument)
	v1.Get("/placeholder", svc.HandlePlaceholder)
	v1.Get("/chrome/stats", svc.HandleChromeStats)

	v1.Get("/monitor", monitor.New())
}

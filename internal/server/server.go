// Package server assembles the Fiber application: middleware, the catalog
// API under /api/v1, the health check and the Prometheus endpoint.
package server

import (
	"time"

	"storefront/internal/handlers"
	"storefront/internal/metrics"
	"storefront/internal/middleware"
	"storefront/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Options holds the dependencies of the HTTP application.
type Options struct {
	Service *services.CatalogService
	DB      *gorm.DB         // pinged by /health when set
	Metrics *metrics.Metrics // /metrics is served when set
	Logger  *zap.Logger
	Events  EventStatus // nil when catalog events are disabled
}

// EventStatus reports the state of the catalog event connection.
// *rabbitmq.Client satisfies it.
type EventStatus interface {
	Connected() bool
}

// New builds the Fiber app.
func New(opts Options) *fiber.App {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	app := fiber.New(fiber.Config{
		AppName:               "storefront",
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(middleware.RequestLogger(opts.Logger))

	apiV1 := app.Group("/api/v1")
	handlers.NewCatalogHandler(opts.Service, opts.Logger).RegisterRoutes(apiV1)

	app.Get("/health", healthHandler(opts))

	if opts.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(opts.Metrics.Registry, promhttp.HandlerOpts{})))
	}

	return app
}

func healthHandler(opts Options) fiber.Handler {
	return func(c *fiber.Ctx) error {
		status := fiber.StatusOK

		events := "disabled"
		if opts.Events != nil {
			events = "connected"
			if !opts.Events.Connected() {
				events = "disconnected"
				status = fiber.StatusServiceUnavailable
			}
		}

		database := "unknown"
		if opts.DB != nil {
			database = "ok"
			if sqlDB, err := opts.DB.DB(); err != nil || sqlDB.PingContext(c.UserContext()) != nil {
				database = "unreachable"
				status = fiber.StatusServiceUnavailable
			}
		}

		state := "healthy"
		if status != fiber.StatusOK {
			state = "degraded"
		}
		return c.Status(status).JSON(fiber.Map{
			"status":   state,
			"time":     time.Now().Format(time.RFC3339),
			"database": database,
			"events":   events,
		})
	}
}

// path: routes/app.go
package routes

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"

	"github.com/Developrimbor/GreenWorld-sub000/auth"
	"github.com/Developrimbor/GreenWorld-sub000/controllers"
	"github.com/Developrimbor/GreenWorld-sub000/metrics"
)

type AppConfig struct {
	CORSOrigins string
	// UploadDir is served at /uploads when set.
	UploadDir string
	BodyLimit int
	// AccessLog enables the per-request log line.
	AccessLog bool
}

// NewApp builds the Fiber app with middleware, health, metrics and the API routes.
func NewApp(cfg AppConfig, h *controllers.Handler, verifier *auth.TokenVerifier, log *slog.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "recycleapp-api",
		BodyLimit:             cfg.BodyLimit,
		DisableStartupMessage: true,
	})
	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))

	if cfg.AccessLog {
		// Log concise request lines
		app.Use(logger.New(logger.Config{
			Format:     "${time} ${locals:requestid} ${status} ${method} ${path} ${latency}\n",
			TimeFormat: "15:04:05",
		}))
	}

	origins := cfg.CORSOrigins
	if origins == "" {
		origins = "*"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "*",
		AllowCredentials: false,
		MaxAge:           int((12 * time.Hour).Seconds()),
	}))
	app.Use(metrics.Middleware())
	app.Use(auth.Middleware(verifier, log))

	if cfg.UploadDir != "" {
		app.Static("/uploads", cfg.UploadDir)
	}

	app.Get("/healthz", func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Get("/metrics", metrics.Handler())

	Register(app, h)
	return app
}

package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/helmet"
	"github.com/gofiber/fiber/v3/middleware/logger"
	recoverer "github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/mediscribe/mediscribe_backend/config"
	"github.com/mediscribe/mediscribe_backend/internal/api/http/middleware"
	"github.com/mediscribe/mediscribe_backend/internal/api/http/router"
	"github.com/mediscribe/mediscribe_backend/pkg/constants"
	"github.com/mediscribe/mediscribe_backend/pkg/observability"
)

// Multipart framing on top of the file itself.
const multipartOverhead = 1 << 20

// Module provides the HTTP Server to the fx graph.
var Module = fx.Module("http", fx.Provide(NewServer))

type Params struct {
	fx.In

	Lifecycle fx.Lifecycle
	Cfg       *config.Config
	Redis     *redis.Client `optional:"true"`
	Router    *router.Router
	OTel      *observability.Provider `optional:"true"`
}

func NewServer(p Params) *fiber.App {
	app := NewApp(p.Cfg, p.Redis, p.OTel != nil)
	p.Router.Register(app)

	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			addr := fmt.Sprintf(":%d", p.Cfg.Server.Port)
			go func() {
				if err := app.Listen(addr, fiber.ListenConfig{DisableStartupMessage: true}); err != nil {
					slog.Error("HTTP server error", "error", err)
				}
			}()
			slog.Info("HTTP server listening", "addr", addr)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return app.ShutdownWithContext(ctx)
		},
	})

	return app
}

// NewApp builds the Fiber app with the global middleware chain but no routes.
func NewApp(cfg *config.Config, rdb *redis.Client, tracing bool) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      constants.AppName,
		BodyLimit:    cfg.Storage.MaxUploadBytes() + multipartOverhead,
		ErrorHandler: errorHandler,
	})

	app.Use(middleware.RequestID())
	app.Use(recoverer.New())

	if tracing {
		app.Use(observability.FiberMiddleware())
	}

	if cfg.Server.Environment == "production" {
		app.Use(helmet.New())
	}
	if cfg.Server.CORS.Enabled {
		app.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.Server.CORS.AllowOrigins,
			AllowCredentials: cfg.Server.CORS.AllowCredentials,
		}))
	}
	if cfg.Server.RateLimit.Enabled {
		app.Use(middleware.NewLimiter(cfg.Server.RateLimit, rdb))
	}

	app.Use(logger.New(logger.Config{
		Format: "${ip} - [${time}] [req_id=${locals:request_id}] ${method} ${url} ${status} ${latency}\n",
	}))

	return app
}

// errorHandler keeps framework errors, e.g. an oversized body, in the same
// JSON shape as handler errors.
func errorHandler(c fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	msg := "internal server error"

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		msg = fe.Message
	} else {
		slog.ErrorContext(c.Context(), "unhandled error", "error", err)
	}

	return c.Status(code).JSON(fiber.Map{"error": msg})
}

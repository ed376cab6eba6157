package router

import (
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"

	"github.com/mediscribe/mediscribe_backend/config"
	"github.com/mediscribe/mediscribe_backend/internal/api/http/handler"
	"github.com/mediscribe/mediscribe_backend/internal/service/prescription"
)

// Module provides the Router to the fx graph.
var Module = fx.Module("router", fx.Provide(NewRouter))

type Params struct {
	fx.In

	Cfg             *config.Config
	PrescriptionSvc prescription.Service
}

type Router struct {
	p Params
}

func NewRouter(p Params) *Router {
	return &Router{p: p}
}

func (r *Router) Register(app *fiber.App) {
	r.registerSystemRoutes(app)

	prescriptionH := handler.NewPrescriptionHandler(r.p.PrescriptionSvc)
	assetH := handler.NewAssetHandler(r.p.PrescriptionSvc)

	api := app.Group("/api")
	api.Get("/health", handler.Health)

	api.Post("/upload", prescriptionH.Upload)

	prescriptions := api.Group("/prescriptions")
	prescriptions.Get("/", prescriptionH.List)
	prescriptions.Get("/:unique_id", prescriptionH.Get)
	prescriptions.Delete("/:unique_id", prescriptionH.Delete)

	api.Get("/image/:name", assetH.Image)
	api.Get("/audio/:name", assetH.Audio)
}

func (r *Router) registerSystemRoutes(app *fiber.App) {
	app.Get(healthcheck.LivenessEndpoint, healthcheck.New())
	app.Get(healthcheck.ReadinessEndpoint, healthcheck.New(healthcheck.Config{
		Probe: func(c fiber.Ctx) bool { return r.p.PrescriptionSvc.Ready(c.Context()) == nil },
	}))
	app.Get(healthcheck.StartupEndpoint, healthcheck.New())

	if r.p.Cfg.Observability.Enabled && r.p.Cfg.Observability.Metrics.Enabled {
		path := r.p.Cfg.Observability.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		app.Get(path, adaptor.HTTPHandler(promhttp.Handler()))
	}
}

package router

import (
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/Alijeyrad/staylink_backend/config"
	"github.com/Alijeyrad/staylink_backend/internal/api/http/handler"
	"github.com/Alijeyrad/staylink_backend/internal/api/http/middleware"
	"github.com/Alijeyrad/staylink_backend/internal/service/partner"
	"github.com/Alijeyrad/staylink_backend/internal/service/settlement"
	"github.com/Alijeyrad/staylink_backend/pkg/database"
	pasetotoken "github.com/Alijeyrad/staylink_backend/pkg/paseto"
	"github.com/Alijeyrad/staylink_backend/pkg/stripepay"
)

// Module provides the Router to the fx graph.
var Module = fx.Module("router", fx.Provide(NewRouter))

type Params struct {
	fx.In

	Cfg           *config.Config
	Redis         *redis.Client
	DB            *database.DB
	PasetoMgr     *pasetotoken.Manager
	Stripe        *stripepay.Client
	SettlementSvc settlement.Service
	PartnerSvc    partner.Service
}

type Router struct {
	p Params
}

func NewRouter(p Params) *Router {
	return &Router{p: p}
}

func (r *Router) Register(app *fiber.App) {
	r.registerSystemRoutes(app)

	authRequired := middleware.AuthRequired(r.p.PasetoMgr)

	settlementH := handler.NewSettlementHandler(r.p.SettlementSvc)
	webhookH := handler.NewWebhookHandler(r.p.Stripe, r.p.SettlementSvc)
	partnerH := handler.NewPartnerHandler(r.p.PartnerSvc)

	api := app.Group("/api/v1")

	r.registerSettlementRoutes(api, settlementH, webhookH, authRequired)
	r.registerPartnerRoutes(api, partnerH, authRequired)
}

func (r *Router) registerSystemRoutes(app *fiber.App) {
	app.Get(healthcheck.LivenessEndpoint, healthcheck.New())
	app.Get(healthcheck.ReadinessEndpoint, healthcheck.New(healthcheck.Config{
		Probe: func(c fiber.Ctx) bool { return r.p.DB.Ping() == nil },
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

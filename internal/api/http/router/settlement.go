package router

import (
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/staylink_backend/internal/api/http/handler"
	"github.com/Alijeyrad/staylink_backend/internal/api/http/middleware"
)

const (
	checkoutLimit  = 10
	checkoutWindow = time.Minute
)

func (r *Router) registerSettlementRoutes(
	api fiber.Router,
	sh *handler.SettlementHandler,
	wh *handler.WebhookHandler,
	authRequired fiber.Handler,
) {
	// Public: Stripe signs its own requests
	api.Post("/webhooks/stripe", wh.Stripe)

	bookings := api.Group("/bookings", authRequired)
	bookings.Post("/checkout", middleware.NewCheckoutLimiter(r.p.Redis, checkoutLimit, checkoutWindow), sh.Checkout)

	api.Get("/settlements/:key", authRequired, sh.Get)
}

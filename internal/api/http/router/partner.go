package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/staylink_backend/internal/api/http/handler"
	"github.com/Alijeyrad/staylink_backend/internal/api/http/middleware"
)

func (r *Router) registerPartnerRoutes(
	api fiber.Router,
	ph *handler.PartnerHandler,
	authRequired fiber.Handler,
) {
	hosts := api.Group("/hosts/me", authRequired)
	hosts.Get("/vendors", ph.ListLinks)
	hosts.Post("/vendors/:vendorID", ph.Link)
	hosts.Delete("/vendors/:vendorID", ph.Unlink)
	hosts.Put("/payout", ph.SetHostPayout)

	vendors := api.Group("/vendors/me", authRequired)
	vendors.Put("/payout", ph.SetVendorPayout)

	admin := api.Group("/admin", authRequired, middleware.RequireAdmin())
	admin.Put("/platform-settings", ph.SetPlatformFee)
}

// handlers/analytics_routes.go
package handlers

import (
	"remote-viewing-system/middleware"
	"remote-viewing-system/services"

	"github.com/gofiber/fiber/v2"
)

// AnalyticsHandler exposes per-user performance statistics and the
// notification inbox.
type AnalyticsHandler struct {
	Analytics *services.AnalyticsService
	Notifier  *services.Notifier
}

func SetupAnalyticsRoutes(app *fiber.App, h *AnalyticsHandler) {
	secured := app.Group("/s", middleware.UserContextMiddleware())

	secured.Get("/user/analytics/:variant", h.Analyze)
	secured.Get("/notifications", h.Notifications)
	secured.Patch("/notifications/:id/read", h.MarkRead)
}

func (h *AnalyticsHandler) Analyze(c *fiber.Ctx) error {
	result, err := h.Analytics.Analyze(c.Context(), userID(c), c.Params("variant"))
	if err != nil {
		return fail(c, err)
	}
	return ok(c, result)
}

func (h *AnalyticsHandler) Notifications(c *fiber.Ctx) error {
	notifs, err := h.Notifier.ListForUser(c.Context(), userID(c), c.QueryInt("limit", 50))
	if err != nil {
		return fail(c, err)
	}
	return ok(c, notifs)
}

func (h *AnalyticsHandler) MarkRead(c *fiber.Ctx) error {
	if err := h.Notifier.MarkRead(c.Context(), c.Params("id")); err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.Map{"read": true})
}

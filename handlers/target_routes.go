// handlers/target_routes.go
package handlers

import (
	"log"

	"remote-viewing-system/middleware"
	"remote-viewing-system/services"

	"github.com/gofiber/fiber/v2"
)

// TargetHandler exposes the admin-facing lifecycle operations.
type TargetHandler struct {
	Lifecycle   *services.LifecycleService
	Submissions *services.SubmissionService
}

func SetupTargetRoutes(app *fiber.App, h *TargetHandler) {
	// 🔓 Public routes — no user context, but still behind Gateway auth
	app.Get("/targets/active/:variant", h.GetActive)

	// 🔐 Admin routes — require user context plus the admin role
	admin := app.Group("/s/admin", middleware.UserContextMiddleware(), middleware.RequireAdmin())

	admin.Post("/targets", h.Create)
	admin.Get("/targets/:id", h.Get)
	admin.Post("/targets/:id/queue", h.Enqueue)
	admin.Post("/targets/:id/dequeue", h.Dequeue)
	admin.Post("/targets/next/:variant", h.ActivateNext)
	admin.Post("/targets/:id/deactivate", h.Deactivate)
	admin.Post("/targets/:id/finish", h.FullyDeactivate)
	admin.Post("/targets/:id/complete", h.Complete)
	admin.Post("/targets/:id/outcome", h.PublishOutcome)
	admin.Get("/targets/completed/summary", h.CompletedSummary)
}

func (h *TargetHandler) Create(c *fiber.Ctx) error {
	var in services.CreateTargetInput
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"status":  false,
			"message": "invalid request body",
		})
	}
	target, err := h.Lifecycle.CreateTarget(c.Context(), in)
	if err != nil {
		return fail(c, err)
	}
	log.Printf("✅ [TARGET] Created %s target %s", target.Variant, target.Code)
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"status": true,
		"data":   target,
	})
}

func (h *TargetHandler) Get(c *fiber.Ctx) error {
	target, err := h.Lifecycle.GetTarget(c.Context(), c.Params("id"))
	if err != nil {
		return fail(c, err)
	}
	return ok(c, target)
}

func (h *TargetHandler) Enqueue(c *fiber.Ctx) error {
	target, err := h.Lifecycle.Enqueue(c.Context(), c.Params("id"))
	if err != nil {
		return fail(c, err)
	}
	return ok(c, target)
}

func (h *TargetHandler) Dequeue(c *fiber.Ctx) error {
	target, err := h.Lifecycle.Dequeue(c.Context(), c.Params("id"))
	if err != nil {
		return fail(c, err)
	}
	return ok(c, target)
}

func (h *TargetHandler) ActivateNext(c *fiber.Ctx) error {
	target, err := h.Lifecycle.ActivateNext(c.Context(), c.Params("variant"))
	if err != nil {
		return fail(c, err)
	}
	log.Printf("🚀 [TARGET] Activated %s target %s", target.Variant, target.Code)
	return ok(c, target)
}

func (h *TargetHandler) Deactivate(c *fiber.Ctx) error {
	target, err := h.Lifecycle.Deactivate(c.Context(), c.Params("id"))
	if err != nil {
		return fail(c, err)
	}
	return ok(c, target)
}

func (h *TargetHandler) FullyDeactivate(c *fiber.Ctx) error {
	target, err := h.Lifecycle.FullyDeactivate(c.Context(), c.Params("id"))
	if err != nil {
		return fail(c, err)
	}
	return ok(c, target)
}

func (h *TargetHandler) Complete(c *fiber.Ctx) error {
	target, err := h.Lifecycle.Complete(c.Context(), c.Params("id"))
	if err != nil {
		return fail(c, err)
	}
	log.Printf("🏁 [TARGET] Completed %s target %s", target.Variant, target.Code)
	return ok(c, target)
}

type publishOutcomeRequest struct {
	ResultImage string `json:"result_image"`
}

// PublishOutcome stores the ARV result image and settles every pending attempt.
func (h *TargetHandler) PublishOutcome(c *fiber.Ctx) error {
	var req publishOutcomeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"status":  false,
			"message": "invalid request body",
		})
	}
	settled, err := h.Submissions.PublishOutcome(c.Context(), c.Params("id"), req.ResultImage)
	if err != nil {
		return fail(c, err)
	}
	log.Printf("📣 [OUTCOME] Settled %d attempts for target %s", settled, c.Params("id"))
	return ok(c, fiber.Map{"settled": settled})
}

func (h *TargetHandler) GetActive(c *fiber.Ctx) error {
	target, err := h.Lifecycle.GetActiveTarget(c.Context(), c.Params("variant"))
	if err != nil {
		return fail(c, err)
	}
	return ok(c, target)
}

func (h *TargetHandler) CompletedSummary(c *fiber.Ctx) error {
	summary, err := h.Lifecycle.CompletedSummary(c.Context())
	if err != nil {
		return fail(c, err)
	}
	attempts, err := h.Submissions.TotalAttempts(c.Context())
	if err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.Map{
		"completed":      summary,
		"total_attempts": attempts,
	})
}

// handlers/submission_routes.go
package handlers

import (
	"remote-viewing-system/middleware"
	"remote-viewing-system/services"

	"github.com/gofiber/fiber/v2"
)

// SubmissionHandler exposes the player-facing attempt and profile routes.
type SubmissionHandler struct {
	Submissions *services.SubmissionService
}

func SetupSubmissionRoutes(app *fiber.App, h *SubmissionHandler) {
	secured := app.Group("/s", middleware.UserContextMiddleware())

	secured.Post("/submissions/tmc", h.SubmitTMC)
	secured.Post("/submissions/arv", h.SubmitARV)
	secured.Get("/submissions/:variant/previous", h.PreviousResults)
	secured.Get("/submissions/target/:id", h.TargetResult)
	secured.Get("/user/tier-status", h.TierStatus)
	secured.Get("/leaderboard", h.Leaderboard)
}

type tmcSubmitRequest struct {
	TargetID     string `json:"target_id"`
	FirstChoice  string `json:"first_choice"`
	SecondChoice string `json:"second_choice"`
}

func (h *SubmissionHandler) SubmitTMC(c *fiber.Ctx) error {
	var req tmcSubmitRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"status":  false,
			"message": "invalid request body",
		})
	}
	result, err := h.Submissions.SubmitTMC(c.Context(), userID(c), req.TargetID, req.FirstChoice, req.SecondChoice)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, result)
}

type arvSubmitRequest struct {
	TargetID       string `json:"target_id"`
	SubmittedImage string `json:"submitted_image"`
}

func (h *SubmissionHandler) SubmitARV(c *fiber.Ctx) error {
	var req arvSubmitRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"status":  false,
			"message": "invalid request body",
		})
	}
	result, err := h.Submissions.SubmitARV(c.Context(), userID(c), req.TargetID, req.SubmittedImage)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, result)
}

func (h *SubmissionHandler) PreviousResults(c *fiber.Ctx) error {
	subs, err := h.Submissions.PreviousResults(c.Context(), userID(c), c.Params("variant"), c.Query("exclude"))
	if err != nil {
		return fail(c, err)
	}
	return ok(c, subs)
}

func (h *SubmissionHandler) TargetResult(c *fiber.Ctx) error {
	sub, err := h.Submissions.TargetResult(c.Context(), userID(c), c.Params("id"))
	if err != nil {
		return fail(c, err)
	}
	return ok(c, sub)
}

func (h *SubmissionHandler) TierStatus(c *fiber.Ctx) error {
	status, err := h.Submissions.GetUserTierStatus(c.Context(), userID(c))
	if err != nil {
		return fail(c, err)
	}
	return ok(c, status)
}

func (h *SubmissionHandler) Leaderboard(c *fiber.Ctx) error {
	rows, err := h.Submissions.Leaderboard(c.Context(), c.QueryInt("limit", 25))
	if err != nil {
		return fail(c, err)
	}
	return ok(c, rows)
}

// handlers/match.go
package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"match-stats-system/models"
	"match-stats-system/services"
)

// MatchHandler serves the match read and mutation routes.
type MatchHandler struct {
	matches *services.MatchService
	writes  *services.MatchWriteService
}

func NewMatchHandler(matches *services.MatchService, writes *services.MatchWriteService) *MatchHandler {
	return &MatchHandler{matches: matches, writes: writes}
}

func SetupMatchRoutes(app *fiber.App, h *MatchHandler) {
	app.Get("/matches", h.ListMatches)
	app.Get("/matches/:id", h.GetMatch)

	app.Post("/matches", h.CreateCompletedMatch)
	app.Post("/matches/scheduled", h.CreateScheduledMatch)
	app.Patch("/matches/:id", h.UpdateMatch)
	app.Delete("/matches/:id", h.DeleteMatch)
}

// ListMatches returns one page of matches with participants.
func (h *MatchHandler) ListMatches(c *fiber.Ctx) error {
	filters := ParseFilters(c)
	result, err := h.matches.FindWithParticipants(c.UserContext(), filters)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to list matches",
		})
	}
	return c.JSON(result)
}

func (h *MatchHandler) GetMatch(c *fiber.Ctx) error {
	match, err := h.matches.GetMatchByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to load match",
		})
	}
	if match == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "match not found",
		})
	}
	return c.JSON(match)
}

func (h *MatchHandler) CreateCompletedMatch(c *fiber.Ctx) error {
	var input models.CreateCompletedMatch
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	match, err := h.writes.CreateCompletedMatch(c.UserContext(), input)
	if errors.Is(err, services.ErrDuplicateMatchNumber) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.Status(fiber.StatusCreated).JSON(match)
}

func (h *MatchHandler) CreateScheduledMatch(c *fiber.Ctx) error {
	var input models.CreateScheduledMatch
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	match, err := h.writes.CreateScheduledMatch(c.UserContext(), input)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.Status(fiber.StatusCreated).JSON(match)
}

func (h *MatchHandler) UpdateMatch(c *fiber.Ctx) error {
	var input models.UpdateMatch
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	match, err := h.writes.UpdateMatch(c.UserContext(), c.Params("id"), input)
	if errors.Is(err, services.ErrMatchNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "match not found",
		})
	}
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(match)
}

// DeleteMatch soft-deletes by default; ?permanent=true removes the match and
// its participants outright.
func (h *MatchHandler) DeleteMatch(c *fiber.Ctx) error {
	permanent := c.Query("permanent") == "true"
	err := h.writes.DeleteMatch(c.UserContext(), c.Params("id"), permanent)
	if errors.Is(err, services.ErrMatchNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "match not found",
		})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to delete match",
		})
	}
	return c.SendStatus(fiber.StatusNoContent)
}

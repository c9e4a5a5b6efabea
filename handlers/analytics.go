// handlers/analytics.go
package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"match-stats-system/services"
)

// AnalyticsHandler serves one route per aggregation plus a batched overview.
// Aggregations never fail the request: an internal problem surfaces as an
// empty result with a 200, by contract.
type AnalyticsHandler struct {
	analytics *services.AnalyticsService
}

func NewAnalyticsHandler(analytics *services.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics}
}

func SetupAnalyticsRoutes(app *fiber.App, h *AnalyticsHandler) {
	analytics := app.Group("/analytics", withRequestFetchCache)

	analytics.Get("/overview", h.Overview)
	analytics.Get("/activity", h.Activity)
	analytics.Get("/win-rate", h.WinRate)
	analytics.Get("/class-stats", h.ClassStats)
	analytics.Get("/game-length", h.GameLength)
	analytics.Get("/player-activity", h.PlayerActivity)
	analytics.Get("/class-selection", h.ClassSelection)
	analytics.Get("/class-win-rate", h.ClassWinRate)
	analytics.Get("/aggregate-stats", h.AggregateStats)
	analytics.Get("/animal-kills", h.AnimalKillsDistribution)
	analytics.Get("/top-hunters", h.TopHunters)
	analytics.Get("/top-healers", h.TopHealers)
	analytics.Get("/rating-history", h.RatingHistory)
}

// withRequestFetchCache gives each analytics request its own fetch
// de-duplication cache.
func withRequestFetchCache(c *fiber.Ctx) error {
	c.SetUserContext(services.WithFetchCache(c.UserContext()))
	return c.Next()
}

func (h *AnalyticsHandler) Overview(c *fiber.Ctx) error {
	return c.JSON(h.analytics.Overview(c.UserContext(), ParseFilters(c)))
}

func (h *AnalyticsHandler) Activity(c *fiber.Ctx) error {
	return c.JSON(h.analytics.Activity(c.UserContext(), ParseFilters(c)))
}

func (h *AnalyticsHandler) WinRate(c *fiber.Ctx) error {
	return c.JSON(h.analytics.WinRate(c.UserContext(), ParseFilters(c)))
}

func (h *AnalyticsHandler) ClassStats(c *fiber.Ctx) error {
	return c.JSON(h.analytics.ClassStats(c.UserContext(), ParseFilters(c)))
}

func (h *AnalyticsHandler) GameLength(c *fiber.Ctx) error {
	return c.JSON(h.analytics.GameLength(c.UserContext(), ParseFilters(c)))
}

func (h *AnalyticsHandler) PlayerActivity(c *fiber.Ctx) error {
	return c.JSON(h.analytics.PlayerActivity(c.UserContext(), ParseFilters(c)))
}

func (h *AnalyticsHandler) ClassSelection(c *fiber.Ctx) error {
	return c.JSON(h.analytics.ClassSelection(c.UserContext(), ParseFilters(c)))
}

func (h *AnalyticsHandler) ClassWinRate(c *fiber.Ctx) error {
	return c.JSON(h.analytics.ClassWinRate(c.UserContext(), ParseFilters(c)))
}

func (h *AnalyticsHandler) AggregateStats(c *fiber.Ctx) error {
	return c.JSON(h.analytics.AggregateStats(c.UserContext(), ParseFilters(c)))
}

func (h *AnalyticsHandler) AnimalKillsDistribution(c *fiber.Ctx) error {
	return c.JSON(h.analytics.AnimalKillsDistribution(c.UserContext(), ParseFilters(c)))
}

func (h *AnalyticsHandler) TopHunters(c *fiber.Ctx) error {
	return c.JSON(h.analytics.TopHunters(c.UserContext(), ParseFilters(c), leaderboardLimit(c)))
}

func (h *AnalyticsHandler) TopHealers(c *fiber.Ctx) error {
	return c.JSON(h.analytics.TopHealers(c.UserContext(), ParseFilters(c), leaderboardLimit(c)))
}

func (h *AnalyticsHandler) RatingHistory(c *fiber.Ctx) error {
	filters := ParseFilters(c)
	if filters.PlayerName == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "playerName is required",
		})
	}
	return c.JSON(h.analytics.RatingHistory(c.UserContext(), filters))
}

func leaderboardLimit(c *fiber.Ctx) int {
	n, err := strconv.Atoi(c.Query("limit"))
	if err != nil {
		return 0
	}
	return n
}

// handlers/params.go
package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"match-stats-system/models"
)

// query reads a parameter accepting both camelCase and snake_case spellings,
// so older clients keep working.
func query(c *fiber.Ctx, camel, snake string) string {
	if v := c.Query(camel); v != "" {
		return v
	}
	return c.Query(snake)
}

// ParseFilters extracts the shared filter parameters from the request.
// Malformed numeric values are ignored rather than rejected; these are
// read-path filters, not mutations.
func ParseFilters(c *fiber.Ctx) models.MatchFilters {
	filters := models.MatchFilters{
		State:      models.MatchState(c.Query("state")),
		StartDate:  query(c, "startDate", "start_date"),
		EndDate:    query(c, "endDate", "end_date"),
		Category:   c.Query("category"),
		PlayerName: query(c, "playerName", "player_name"),
		TeamFormat: query(c, "teamFormat", "team_format"),
		Cursor:     c.Query("cursor"),
	}
	if raw := query(c, "matchNumber", "match_number"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			filters.MatchNumber = &n
		}
	}
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			filters.Limit = n
		}
	}
	return filters
}

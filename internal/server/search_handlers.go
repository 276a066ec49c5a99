package server

import (
	"chirp/internal/models"

	"github.com/gofiber/fiber/v2"
)

// Search handles GET /api/search?q=...
// @Summary Search accounts and posts
// @Description Case-insensitive substring match, up to 10 of each.
// @Tags search
// @Produce json
// @Param q query string true "Query"
// @Success 200 {object} service.SearchResult
// @Failure 400 {object} models.ErrorResponse
// @Router /search [get]
func (s *Server) Search(c *fiber.Ctx) error {
	res, err := s.searchService.Search(c.UserContext(), c.Query("q"), s.optionalUserID(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(res)
}

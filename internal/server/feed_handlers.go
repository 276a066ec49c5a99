package server

import (
	"chirp/internal/models"
	"chirp/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetFeed handles GET /api/feed
// @Summary Home timeline
// @Description Top-level posts and reposts by followed accounts and the caller,
// @Description newest first. Pass next_cursor back as cursor for stable paging.
// @Tags feed
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Page size (max 100)"
// @Param offset query int false "Offset, ignored when cursor is set"
// @Param cursor query string false "Opaque cursor from a previous page"
// @Success 200 {object} models.FeedPage
// @Failure 400 {object} models.ErrorResponse
// @Router /feed [get]
func (s *Server) GetFeed(c *fiber.Ctx) error {
	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("offset must not be negative"))
	}

	page, err := s.feedService.GetFeed(c.UserContext(), service.FeedRequest{
		ViewerID: currentUserID(c),
		Limit:    c.QueryInt("limit", 0),
		Offset:   offset,
		Cursor:   c.Query("cursor"),
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(page)
}

package server

import (
	"chirp/internal/models"
	"chirp/internal/service"

	"github.com/gofiber/fiber/v2"
)

// Register handles POST /api/accounts
// @Summary Register an account
// @Tags accounts
// @Accept json
// @Produce json
// @Param request body service.RegisterInput true "Account"
// @Success 201 {object} models.Account
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /accounts [post]
func (s *Server) Register(c *fiber.Ctx) error {
	var req service.RegisterInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	account, err := s.accountService.Register(c.UserContext(), req)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(account)
}

// GetAccount handles GET /api/accounts/:id
// @Summary Get an account profile
// @Tags accounts
// @Produce json
// @Param id path int true "Account ID"
// @Success 200 {object} models.Account
// @Failure 404 {object} models.ErrorResponse
// @Router /accounts/{id} [get]
func (s *Server) GetAccount(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	account, err := s.accountService.GetProfile(c.UserContext(), id)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(account)
}

// GetAccountByHandle handles GET /api/accounts/handle/:handle
// @Summary Get an account by handle
// @Tags accounts
// @Produce json
// @Param handle path string true "Handle (case-insensitive)"
// @Success 200 {object} models.Account
// @Failure 404 {object} models.ErrorResponse
// @Router /accounts/handle/{handle} [get]
func (s *Server) GetAccountByHandle(c *fiber.Ctx) error {
	account, err := s.accountService.GetProfileByHandle(c.UserContext(), c.Params("handle"))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(account)
}

// UpdateMyProfile handles PUT /api/accounts/me
// @Summary Update the caller's profile
// @Tags accounts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.UpdateProfileInput true "Profile"
// @Success 200 {object} models.Account
// @Failure 400 {object} models.ErrorResponse
// @Router /accounts/me [put]
func (s *Server) UpdateMyProfile(c *fiber.Ctx) error {
	var req service.UpdateProfileInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	req.AccountID = currentUserID(c)

	account, err := s.accountService.UpdateProfile(c.UserContext(), req)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(account)
}

// SetMyPushToken handles PUT /api/accounts/me/push-token
// @Summary Register the caller's device push token
// @Tags accounts
// @Accept json
// @Security BearerAuth
// @Param request body object{token=string} true "Device token, empty to clear"
// @Success 204
// @Router /accounts/me/push-token [put]
func (s *Server) SetMyPushToken(c *fiber.Ctx) error {
	var req struct {
		Token string `json:"token"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	if err := s.accountService.SetPushToken(c.UserContext(), currentUserID(c), req.Token); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetFollowers handles GET /api/accounts/:id/followers
// @Summary List followers
// @Tags follows
// @Produce json
// @Param id path int true "Account ID"
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {array} models.Account
// @Router /accounts/{id}/followers [get]
func (s *Server) GetFollowers(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	page := parsePagination(c, 20)

	accounts, err := s.accountService.ListFollowers(c.UserContext(), id, page.Limit, page.Offset)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(accounts)
}

// GetFollowing handles GET /api/accounts/:id/following
// @Summary List followed accounts
// @Tags follows
// @Produce json
// @Param id path int true "Account ID"
// @Success 200 {array} models.Account
// @Router /accounts/{id}/following [get]
func (s *Server) GetFollowing(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	page := parsePagination(c, 20)

	accounts, err := s.accountService.ListFollowing(c.UserContext(), id, page.Limit, page.Offset)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(accounts)
}

// FollowAccount handles POST /api/accounts/:id/follow
// @Summary Follow an account
// @Tags follows
// @Produce json
// @Security BearerAuth
// @Param id path int true "Account to follow"
// @Success 201 {object} models.Edge
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /accounts/{id}/follow [post]
func (s *Server) FollowAccount(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	edge, err := s.followService.Follow(c.UserContext(), currentUserID(c), id)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(edge)
}

// UnfollowAccount handles DELETE /api/accounts/:id/follow
// @Summary Unfollow an account
// @Tags follows
// @Security BearerAuth
// @Param id path int true "Account to unfollow"
// @Success 204
// @Failure 404 {object} models.ErrorResponse
// @Router /accounts/{id}/follow [delete]
func (s *Server) UnfollowAccount(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.followService.Unfollow(c.UserContext(), currentUserID(c), id); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetFollowStatus handles GET /api/accounts/:id/follow
// @Summary Whether the caller follows an account
// @Tags follows
// @Produce json
// @Security BearerAuth
// @Param id path int true "Account ID"
// @Success 200 {object} object{following=bool}
// @Router /accounts/{id}/follow [get]
func (s *Server) GetFollowStatus(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	following, err := s.followService.IsFollowing(c.UserContext(), currentUserID(c), id)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(fiber.Map{"following": following})
}

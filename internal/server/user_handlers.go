package server

import (
	"time"

	"davra/internal/models"
	"davra/internal/service"
	"davra/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// CreateUser handles POST /users (registration).
func (s *Server) CreateUser(c *fiber.Ctx) error {
	var req struct {
		Username  string        `json:"username"`
		Password  string        `json:"password"`
		Email     string        `json:"email"`
		FullName  string        `json:"full_name"`
		Birthdate time.Time     `json:"birthdate"`
		Gender    models.Gender `json:"gender"`
		Muslim    *bool         `json:"muslim"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	if req.Username != "" {
		if err := validation.ValidateUsername(req.Username); err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError(err.Error()))
		}
	}
	if req.Email != "" {
		if err := validation.ValidateEmail(req.Email); err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError(err.Error()))
		}
	}
	if req.Password != "" {
		if err := validation.ValidatePassword(req.Password); err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError(err.Error()))
		}
	}

	user, err := s.userService.CreateUser(c.Context(), service.CreateUserInput{
		Username:  req.Username,
		Password:  req.Password,
		Email:     req.Email,
		FullName:  req.FullName,
		Birthdate: req.Birthdate,
		Gender:    req.Gender,
		Muslim:    req.Muslim,
	})
	if err != nil {
		return respondError(c, err)
	}

	token, err := s.generateToken(user.ID, user.Username)
	if err != nil {
		return respondError(c, models.NewInternalError(err))
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"token": token,
		"user":  user,
	})
}

// GetUsers handles GET /users.
func (s *Server) GetUsers(c *fiber.Ctx) error {
	page := parsePagination(c)

	users, total, err := s.userService.ListUsers(c.Context(), page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"totalUsers":  total,
		"totalPages":  totalPages(total, page.Limit),
		"currentPage": page.Page,
		"users":       users,
	})
}

// GetUser handles GET /users/:id.
func (s *Server) GetUser(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	user, err := s.userService.GetUser(c.Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

// UpdateUser handles PUT /users/:id.
func (s *Server) UpdateUser(c *fiber.Ctx) error {
	requesterID := c.Locals("userID").(uint)
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		FullName  *string        `json:"full_name"`
		Email     *string        `json:"email"`
		Password  *string        `json:"password"`
		Birthdate *time.Time     `json:"birthdate"`
		Gender    *models.Gender `json:"gender"`
		Muslim    *bool          `json:"muslim"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	if req.Email != nil && *req.Email != "" {
		if err := validation.ValidateEmail(*req.Email); err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError(err.Error()))
		}
	}
	if req.Password != nil && *req.Password != "" {
		if err := validation.ValidatePassword(*req.Password); err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError(err.Error()))
		}
	}

	user, err := s.userService.UpdateUser(c.Context(), service.UpdateUserInput{
		RequesterID: requesterID,
		UserID:      id,
		FullName:    req.FullName,
		Email:       req.Email,
		Password:    req.Password,
		Birthdate:   req.Birthdate,
		Gender:      req.Gender,
		Muslim:      req.Muslim,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

// DeleteUser handles DELETE /users/:id.
func (s *Server) DeleteUser(c *fiber.Ctx) error {
	requesterID := c.Locals("userID").(uint)
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.userService.DeleteUser(c.Context(), requesterID, id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// FollowUser handles POST /users/:id/follow.
func (s *Server) FollowUser(c *fiber.Ctx) error {
	followerID := c.Locals("userID").(uint)
	targetID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.userService.Follow(c.Context(), followerID, targetID); err != nil {
		return respondError(c, err)
	}

	target, err := s.userService.GetUser(c.Context(), targetID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(target)
}

// UnfollowUser handles POST /users/:id/unfollow.
func (s *Server) UnfollowUser(c *fiber.Ctx) error {
	followerID := c.Locals("userID").(uint)
	targetID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.userService.Unfollow(c.Context(), followerID, targetID); err != nil {
		return respondError(c, err)
	}

	target, err := s.userService.GetUser(c.Context(), targetID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(target)
}

package server

import (
	"davra/internal/models"
	"davra/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetComments handles GET /comments.
func (s *Server) GetComments(c *fiber.Ctx) error {
	page := parsePagination(c)

	comments, total, err := s.commentService.ListComments(c.Context(), page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"totalComments": total,
		"totalPages":    totalPages(total, page.Limit),
		"currentPage":   page.Page,
		"comments":      comments,
	})
}

// CreateComment handles POST /comments. The target post travels in the body;
// POST /posts/:id/comments is the same operation with the post in the path.
func (s *Server) CreateComment(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	var req struct {
		PostID  uint   `json:"post_id"`
		Content string `json:"content"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	if req.PostID == 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Post ID is required"))
	}

	comment, err := s.commentService.CreateComment(c.Context(), service.CreateCommentInput{
		AuthorID: userID,
		PostID:   req.PostID,
		Content:  req.Content,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}

// GetComment handles GET /comments/:id.
func (s *Server) GetComment(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	comment, err := s.commentService.GetComment(c.Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(comment)
}

// UpdateComment handles PUT /comments/:id.
func (s *Server) UpdateComment(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	commentID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Content string `json:"content"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	comment, err := s.commentService.UpdateComment(c.Context(), service.UpdateCommentInput{
		RequesterID: userID,
		CommentID:   commentID,
		Content:     req.Content,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(comment)
}

// DeleteComment handles DELETE /comments/:id.
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	commentID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.commentService.DeleteComment(c.Context(), userID, commentID); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// LikeComment handles PUT /comments/:id/like.
func (s *Server) LikeComment(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	commentID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.commentService.LikeComment(c.Context(), userID, commentID); err != nil {
		return respondError(c, err)
	}

	comment, err := s.commentService.GetComment(c.Context(), commentID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(comment)
}

// UnlikeComment handles PUT /comments/:id/dislike.
func (s *Server) UnlikeComment(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	commentID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.commentService.UnlikeComment(c.Context(), userID, commentID); err != nil {
		return respondError(c, err)
	}

	comment, err := s.commentService.GetComment(c.Context(), commentID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(comment)
}

// CreateReply handles POST /comments/:id/replies.
func (s *Server) CreateReply(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	parentID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Content string `json:"content"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	reply, err := s.commentService.Reply(c.Context(), userID, parentID, req.Content)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(reply)
}

// DeleteReply handles DELETE /comments/:id/replies/:replyId.
func (s *Server) DeleteReply(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	parentID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	replyID, err := s.parseID(c, "replyId")
	if err != nil {
		return nil
	}

	if err := s.commentService.RemoveReply(c.Context(), userID, parentID, replyID); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

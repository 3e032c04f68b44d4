package server

import (
	"davra/internal/models"
	"davra/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreatePost handles POST /posts.
func (s *Server) CreatePost(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	var req struct {
		Text   string `json:"text"`
		Hidden bool   `json:"hidden"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	post, err := s.postService.CreatePost(c.Context(), service.CreatePostInput{
		AuthorID: userID,
		Text:     req.Text,
		Hidden:   req.Hidden,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

// GetPosts handles GET /posts.
func (s *Server) GetPosts(c *fiber.Ctx) error {
	page := parsePagination(c)

	posts, total, err := s.postService.ListPosts(c.Context(), page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"totalPosts":  total,
		"totalPages":  totalPages(total, page.Limit),
		"currentPage": page.Page,
		"posts":       posts,
	})
}

// GetPost handles GET /posts/:id. The response carries the post together with
// its full comment thread.
func (s *Server) GetPost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	post, err := s.postService.GetPost(c.Context(), id)
	if err != nil {
		return respondError(c, err)
	}

	comments, err := s.commentService.ListByPost(c.Context(), id)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"post":     post,
		"comments": comments,
	})
}

// UpdatePost handles PUT /posts/:id.
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Text   *string `json:"text"`
		Hidden *bool   `json:"hidden"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	post, err := s.postService.UpdatePost(c.Context(), service.UpdatePostInput{
		RequesterID: userID,
		PostID:      postID,
		Text:        req.Text,
		Hidden:      req.Hidden,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(post)
}

// DeletePost handles DELETE /posts/:id.
func (s *Server) DeletePost(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.postService.DeletePost(c.Context(), userID, postID); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// LikePost handles PUT /posts/:id/like.
func (s *Server) LikePost(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.postService.LikePost(c.Context(), userID, postID); err != nil {
		return respondError(c, err)
	}

	post, err := s.postService.GetPost(c.Context(), postID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(post)
}

// UnlikePost handles PUT /posts/:id/dislike.
func (s *Server) UnlikePost(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.postService.UnlikePost(c.Context(), userID, postID); err != nil {
		return respondError(c, err)
	}

	post, err := s.postService.GetPost(c.Context(), postID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(post)
}

// RepostPost handles POST /posts/:id/repost.
func (s *Server) RepostPost(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.postService.RepostPost(c.Context(), userID, postID); err != nil {
		return respondError(c, err)
	}

	post, err := s.postService.GetPost(c.Context(), postID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(post)
}

// UnrepostPost handles DELETE /posts/:id/repost.
func (s *Server) UnrepostPost(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.postService.UnrepostPost(c.Context(), userID, postID); err != nil {
		return respondError(c, err)
	}

	post, err := s.postService.GetPost(c.Context(), postID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(post)
}

// CreatePostComment handles POST /posts/:id/comments.
func (s *Server) CreatePostComment(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	postID, err := s.parseID(c, "id")
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

	comment, err := s.commentService.CreateComment(c.Context(), service.CreateCommentInput{
		AuthorID: userID,
		PostID:   postID,
		Content:  req.Content,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}

// DeleteCommentFromPost handles DELETE /posts/:id/comments/:commentId.
func (s *Server) DeleteCommentFromPost(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	commentID, err := s.parseID(c, "commentId")
	if err != nil {
		return nil
	}

	if err := s.commentService.DeleteCommentFromPost(c.Context(), userID, postID, commentID); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

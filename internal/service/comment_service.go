package service

import (
	"context"
	"errors"
	"unicode/utf8"

	"davra/internal/models"
	"davra/internal/repository"

	"gorm.io/gorm"
)

// CommentService implements commenting, replies, and comment likes.
type CommentService struct {
	commentRepo repository.CommentRepository
	postRepo    repository.PostRepository
	coordinator *Coordinator
}

// NewCommentService creates a new comment service.
func NewCommentService(commentRepo repository.CommentRepository, postRepo repository.PostRepository, coordinator *Coordinator) *CommentService {
	return &CommentService{commentRepo: commentRepo, postRepo: postRepo, coordinator: coordinator}
}

// CreateCommentInput carries a new top-level comment.
type CreateCommentInput struct {
	AuthorID uint
	PostID   uint
	Content  string
}

// UpdateCommentInput carries a comment edit.
type UpdateCommentInput struct {
	RequesterID uint
	CommentID   uint
	Content     string
}

func validateCommentContent(content string) error {
	if content == "" {
		return models.NewValidationError("Comment content is required")
	}
	// Characters, not bytes: multibyte text gets the full allowance.
	if utf8.RuneCountInString(content) > models.MaxCommentContentLen {
		return models.NewValidationError("Comment content cannot exceed 500 characters")
	}
	return nil
}

// CreateComment attaches a new top-level comment to an existing post.
func (s *CommentService) CreateComment(ctx context.Context, in CreateCommentInput) (*models.Comment, error) {
	if err := validateCommentContent(in.Content); err != nil {
		return nil, err
	}
	if _, err := s.postRepo.GetByID(ctx, in.PostID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Post", in.PostID)
		}
		return nil, err
	}
	comment := &models.Comment{
		Content:  in.Content,
		AuthorID: in.AuthorID,
		PostID:   in.PostID,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}
	return s.GetComment(ctx, comment.ID)
}

// GetComment fetches one comment by id with its author and post.
func (s *CommentService) GetComment(ctx context.Context, id uint) (*models.Comment, error) {
	comment, err := s.commentRepo.GetByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.NewNotFoundError("Comment", id)
	}
	if err != nil {
		return nil, err
	}
	return comment, nil
}

// ListComments returns one page of comments plus the total count.
func (s *CommentService) ListComments(ctx context.Context, limit, offset int) ([]*models.Comment, int64, error) {
	comments, err := s.commentRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.commentRepo.Count(ctx)
	if err != nil {
		return nil, 0, err
	}
	return comments, total, nil
}

// ListByPost returns every comment on a post, oldest first.
func (s *CommentService) ListByPost(ctx context.Context, postID uint) ([]*models.Comment, error) {
	return s.commentRepo.ListByPost(ctx, postID)
}

// UpdateComment applies an edit. Only the author may edit.
func (s *CommentService) UpdateComment(ctx context.Context, in UpdateCommentInput) (*models.Comment, error) {
	comment, err := s.GetComment(ctx, in.CommentID)
	if err != nil {
		return nil, err
	}
	if comment.AuthorID != in.RequesterID {
		return nil, models.NewForbiddenError("You can only edit your own comments")
	}
	if err := validateCommentContent(in.Content); err != nil {
		return nil, err
	}
	comment.Content = in.Content
	if err := s.commentRepo.Update(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

// DeleteComment cascades a comment and its replies away. Only the author may
// delete.
func (s *CommentService) DeleteComment(ctx context.Context, requesterID, commentID uint) error {
	comment, err := s.GetComment(ctx, commentID)
	if err != nil {
		return err
	}
	if comment.AuthorID != requesterID {
		return models.NewForbiddenError("You can only delete your own comments")
	}
	return s.coordinator.DeleteComment(ctx, comment)
}

// DeleteCommentFromPost deletes a comment addressed through its post. The
// comment must actually belong to the given post.
func (s *CommentService) DeleteCommentFromPost(ctx context.Context, requesterID, postID, commentID uint) error {
	if _, err := s.postRepo.GetByID(ctx, postID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NewNotFoundError("Post", postID)
		}
		return err
	}
	comment, err := s.GetComment(ctx, commentID)
	if err != nil {
		return err
	}
	if comment.PostID != postID {
		return models.NewValidationError("Comment does not belong to this post")
	}
	if comment.AuthorID != requesterID {
		return models.NewForbiddenError("You can only delete your own comments")
	}
	return s.coordinator.DeleteComment(ctx, comment)
}

// Reply attaches a reply under an existing comment. Replies are comments in
// their own right and share the parent's post.
func (s *CommentService) Reply(ctx context.Context, authorID, parentID uint, content string) (*models.Comment, error) {
	if err := validateCommentContent(content); err != nil {
		return nil, err
	}
	parent, err := s.GetComment(ctx, parentID)
	if err != nil {
		return nil, err
	}
	pid := parent.ID
	reply := &models.Comment{
		Content:  content,
		AuthorID: authorID,
		PostID:   parent.PostID,
		ParentID: &pid,
	}
	if err := s.commentRepo.Create(ctx, reply); err != nil {
		return nil, err
	}
	return s.GetComment(ctx, reply.ID)
}

// RemoveReply deletes a reply addressed through its parent comment. The reply
// must actually hang under the given parent.
func (s *CommentService) RemoveReply(ctx context.Context, requesterID, parentID, replyID uint) error {
	if _, err := s.GetComment(ctx, parentID); err != nil {
		return err
	}
	reply, err := s.GetComment(ctx, replyID)
	if err != nil {
		return err
	}
	if reply.ParentID == nil || *reply.ParentID != parentID {
		return models.NewValidationError("Reply does not belong to this comment")
	}
	if reply.AuthorID != requesterID {
		return models.NewForbiddenError("You can only delete your own replies")
	}
	return s.coordinator.DeleteComment(ctx, reply)
}

// LikeComment records the like; liking twice is a conflict.
func (s *CommentService) LikeComment(ctx context.Context, userID, commentID uint) error {
	if _, err := s.GetComment(ctx, commentID); err != nil {
		return err
	}
	liked, err := s.commentRepo.IsLiked(ctx, userID, commentID)
	if err != nil {
		return err
	}
	if liked {
		return models.NewConflictError("You have already liked this comment")
	}
	return s.commentRepo.Like(ctx, userID, commentID)
}

// UnlikeComment removes the like; an absent like is a conflict.
func (s *CommentService) UnlikeComment(ctx context.Context, userID, commentID uint) error {
	if _, err := s.GetComment(ctx, commentID); err != nil {
		return err
	}
	liked, err := s.commentRepo.IsLiked(ctx, userID, commentID)
	if err != nil {
		return err
	}
	if !liked {
		return models.NewConflictError("You have not liked this comment")
	}
	return s.commentRepo.Unlike(ctx, userID, commentID)
}

package repository

import (
	"context"

	"davra/internal/cache"
	"davra/internal/models"
	"davra/internal/observability"

	"gorm.io/gorm"
)

// CommentRepository defines the interface for comment data operations.
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id uint) (*models.Comment, error)
	List(ctx context.Context, limit, offset int) ([]*models.Comment, error)
	Count(ctx context.Context) (int64, error)
	ListByPost(ctx context.Context, postID uint) ([]*models.Comment, error)
	Update(ctx context.Context, comment *models.Comment) error
	IsLiked(ctx context.Context, userID, commentID uint) (bool, error)
	Like(ctx context.Context, userID, commentID uint) error
	Unlike(ctx context.Context, userID, commentID uint) error
}

type commentRepository struct {
	db *gorm.DB
}

// NewCommentRepository creates a new comment repository.
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

// Create inserts the comment and recomputes the parent's counters (the post's
// comments_count, and the parent comment's replies_count for replies) in the
// same transaction.
func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	defer observability.TrackQuery("create", "comments")()
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(comment).Error; err != nil {
			return err
		}
		if comment.ParentID != nil {
			if err := SyncCommentCounts(tx, *comment.ParentID); err != nil {
				return err
			}
		}
		return SyncPostCounts(tx, comment.PostID)
	})
	if err == nil {
		cache.InvalidatePost(ctx, comment.PostID)
	}
	return err
}

func (r *commentRepository) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	var comment models.Comment
	err := r.db.WithContext(ctx).
		Preload("Author").
		Preload("Post").
		First(&comment, id).Error
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

func (r *commentRepository) List(ctx context.Context, limit, offset int) ([]*models.Comment, error) {
	var comments []*models.Comment
	err := r.db.WithContext(ctx).
		Preload("Author").
		Order("id ASC").
		Limit(limit).
		Offset(offset).
		Find(&comments).Error
	return comments, err
}

func (r *commentRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Comment{}).Count(&count).Error
	return count, err
}

func (r *commentRepository) ListByPost(ctx context.Context, postID uint) ([]*models.Comment, error) {
	var comments []*models.Comment
	err := r.db.WithContext(ctx).
		Preload("Author").
		Where("post_id = ?", postID).
		Order("created_at ASC").
		Find(&comments).Error
	return comments, err
}

func (r *commentRepository) Update(ctx context.Context, comment *models.Comment) error {
	defer observability.TrackQuery("update", "comments")()
	return r.db.WithContext(ctx).Omit("Author", "Post", "Replies").Save(comment).Error
}

func (r *commentRepository) IsLiked(ctx context.Context, userID, commentID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.CommentLike{}).
		Where("user_id = ? AND comment_id = ?", userID, commentID).
		Count(&count).Error
	return count > 0, err
}

func (r *commentRepository) Like(ctx context.Context, userID, commentID uint) error {
	defer observability.TrackQuery("like", "comment_likes")()
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&models.CommentLike{CommentID: commentID, UserID: userID}).Error; err != nil {
			return err
		}
		return SyncCommentCounts(tx, commentID)
	})
}

func (r *commentRepository) Unlike(ctx context.Context, userID, commentID uint) error {
	defer observability.TrackQuery("unlike", "comment_likes")()
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where("user_id = ? AND comment_id = ?", userID, commentID).
			Delete(&models.CommentLike{}).Error; err != nil {
			return err
		}
		return SyncCommentCounts(tx, commentID)
	})
}

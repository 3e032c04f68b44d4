package repository

import (
	"context"

	"davra/internal/cache"
	"davra/internal/models"
	"davra/internal/observability"

	"gorm.io/gorm"
)

// PostRepository defines the interface for post data operations.
type PostRepository interface {
	Create(ctx context.Context, post *models.Post, tags []string) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	List(ctx context.Context, limit, offset int) ([]*models.Post, error)
	Count(ctx context.Context) (int64, error)
	Update(ctx context.Context, post *models.Post, tags []string) error
	IsLiked(ctx context.Context, userID, postID uint) (bool, error)
	Like(ctx context.Context, userID, postID uint) error
	Unlike(ctx context.Context, userID, postID uint) error
	IsReposted(ctx context.Context, userID, postID uint) (bool, error)
	Repost(ctx context.Context, userID, postID uint) error
	Unrepost(ctx context.Context, userID, postID uint) error
}

type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository.
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

// Create inserts the post with its hashtag rows and settles the text-derived
// counters in the same transaction.
func (r *postRepository) Create(ctx context.Context, post *models.Post, tags []string) error {
	defer observability.TrackQuery("create", "posts")()
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(post).Error; err != nil {
			return err
		}
		if err := replaceHashtags(tx, post.ID, tags); err != nil {
			return err
		}
		return SyncPostCounts(tx, post.ID)
	})
	if err == nil {
		cache.InvalidatePostsList(ctx)
	}
	return err
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	err := cache.Aside(ctx, cache.PostKey(id), &post, cache.PostTTL, func() error {
		return r.db.WithContext(ctx).
			Preload("Author").
			Preload("Hashtags").
			First(&post, id).Error
	})
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) List(ctx context.Context, limit, offset int) ([]*models.Post, error) {
	var posts []*models.Post
	err := r.db.WithContext(ctx).
		Preload("Author").
		Preload("Hashtags").
		Order("id ASC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	return posts, err
}

func (r *postRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Post{}).Count(&count).Error
	return count, err
}

// Update saves the post, replaces its hashtag rows, and recomputes the
// text-derived counters transactionally.
func (r *postRepository) Update(ctx context.Context, post *models.Post, tags []string) error {
	defer observability.TrackQuery("update", "posts")()
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Author", "Hashtags").Save(post).Error; err != nil {
			return err
		}
		if err := replaceHashtags(tx, post.ID, tags); err != nil {
			return err
		}
		return SyncPostCounts(tx, post.ID)
	})
	if err == nil {
		cache.InvalidatePost(ctx, post.ID)
		cache.InvalidatePostsList(ctx)
	}
	return err
}

func (r *postRepository) IsLiked(ctx context.Context, userID, postID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.PostLike{}).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Count(&count).Error
	return count > 0, err
}

func (r *postRepository) Like(ctx context.Context, userID, postID uint) error {
	defer observability.TrackQuery("like", "post_likes")()
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&models.PostLike{PostID: postID, UserID: userID}).Error; err != nil {
			return err
		}
		return SyncPostCounts(tx, postID)
	})
	if err == nil {
		cache.InvalidatePost(ctx, postID)
	}
	return err
}

func (r *postRepository) Unlike(ctx context.Context, userID, postID uint) error {
	defer observability.TrackQuery("unlike", "post_likes")()
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where("user_id = ? AND post_id = ?", userID, postID).
			Delete(&models.PostLike{}).Error; err != nil {
			return err
		}
		return SyncPostCounts(tx, postID)
	})
	if err == nil {
		cache.InvalidatePost(ctx, postID)
	}
	return err
}

func (r *postRepository) IsReposted(ctx context.Context, userID, postID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Repost{}).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Count(&count).Error
	return count > 0, err
}

func (r *postRepository) Repost(ctx context.Context, userID, postID uint) error {
	defer observability.TrackQuery("repost", "reposts")()
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&models.Repost{PostID: postID, UserID: userID}).Error; err != nil {
			return err
		}
		return SyncPostCounts(tx, postID)
	})
	if err == nil {
		cache.InvalidatePost(ctx, postID)
	}
	return err
}

func (r *postRepository) Unrepost(ctx context.Context, userID, postID uint) error {
	defer observability.TrackQuery("unrepost", "reposts")()
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where("user_id = ? AND post_id = ?", userID, postID).
			Delete(&models.Repost{}).Error; err != nil {
			return err
		}
		return SyncPostCounts(tx, postID)
	})
	if err == nil {
		cache.InvalidatePost(ctx, postID)
	}
	return err
}

// replaceHashtags swaps the hashtag rows of a post for the given tags.
func replaceHashtags(tx *gorm.DB, postID uint, tags []string) error {
	if err := tx.Where("post_id = ?", postID).Delete(&models.Hashtag{}).Error; err != nil {
		return err
	}
	if len(tags) == 0 {
		return nil
	}
	rows := make([]models.Hashtag, 0, len(tags))
	for _, tag := range tags {
		rows = append(rows, models.Hashtag{PostID: postID, Tag: tag})
	}
	return tx.Create(&rows).Error
}

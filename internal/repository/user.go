package repository

import (
	"context"
	"errors"

	"davra/internal/cache"
	"davra/internal/models"
	"davra/internal/observability"

	"gorm.io/gorm"
)

// UserRepository defines the interface for user data operations.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	List(ctx context.Context, limit, offset int) ([]*models.User, error)
	Count(ctx context.Context) (int64, error)
	Update(ctx context.Context, user *models.User) error
	IsFollowing(ctx context.Context, followerID, followeeID uint) (bool, error)
	Follow(ctx context.Context, followerID, followeeID uint) error
	Unfollow(ctx context.Context, followerID, followeeID uint) error
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	defer observability.TrackQuery("create", "users")()
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := cache.Aside(ctx, cache.UserKey(id), &user, cache.UserTTL, func() error {
		return r.db.WithContext(ctx).First(&user, id).Error
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByUsername returns (nil, nil) when no user has the given username.
func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) List(ctx context.Context, limit, offset int) ([]*models.User, error) {
	var users []*models.User
	err := r.db.WithContext(ctx).
		Order("id ASC").
		Limit(limit).
		Offset(offset).
		Find(&users).Error
	return users, err
}

func (r *userRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).Count(&count).Error
	return count, err
}

func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	defer observability.TrackQuery("update", "users")()
	if err := r.db.WithContext(ctx).Save(user).Error; err != nil {
		return err
	}
	cache.InvalidateUser(ctx, user.ID)
	return nil
}

func (r *userRepository) IsFollowing(ctx context.Context, followerID, followeeID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Follow{}).
		Where("follower_id = ? AND followee_id = ?", followerID, followeeID).
		Count(&count).Error
	return count > 0, err
}

// Follow inserts the edge and recomputes both users' counters in one
// transaction, so the counts never drift from the edge table.
func (r *userRepository) Follow(ctx context.Context, followerID, followeeID uint) error {
	defer observability.TrackQuery("follow", "follows")()
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&models.Follow{FollowerID: followerID, FolloweeID: followeeID}).Error; err != nil {
			return err
		}
		if err := SyncFollowCounts(tx, followerID); err != nil {
			return err
		}
		return SyncFollowCounts(tx, followeeID)
	})
	if err == nil {
		cache.InvalidateUser(ctx, followerID)
		cache.InvalidateUser(ctx, followeeID)
	}
	return err
}

func (r *userRepository) Unfollow(ctx context.Context, followerID, followeeID uint) error {
	defer observability.TrackQuery("unfollow", "follows")()
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where("follower_id = ? AND followee_id = ?", followerID, followeeID).
			Delete(&models.Follow{}).Error; err != nil {
			return err
		}
		if err := SyncFollowCounts(tx, followerID); err != nil {
			return err
		}
		return SyncFollowCounts(tx, followeeID)
	})
	if err == nil {
		cache.InvalidateUser(ctx, followerID)
		cache.InvalidateUser(ctx, followeeID)
	}
	return err
}

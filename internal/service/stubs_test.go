package service

import (
	"context"
	"errors"
	"testing"

	"davra/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type userRepoStub struct {
	createFn        func(context.Context, *models.User) error
	getByIDFn       func(context.Context, uint) (*models.User, error)
	getByUsernameFn func(context.Context, string) (*models.User, error)
	listFn          func(context.Context, int, int) ([]*models.User, error)
	countFn         func(context.Context) (int64, error)
	updateFn        func(context.Context, *models.User) error
	isFollowingFn   func(context.Context, uint, uint) (bool, error)
	followFn        func(context.Context, uint, uint) error
	unfollowFn      func(context.Context, uint, uint) error
}

func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	return s.createFn(ctx, user)
}
func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getByUsernameFn(ctx, username)
}
func (s *userRepoStub) List(ctx context.Context, limit, offset int) ([]*models.User, error) {
	return s.listFn(ctx, limit, offset)
}
func (s *userRepoStub) Count(ctx context.Context) (int64, error) {
	return s.countFn(ctx)
}
func (s *userRepoStub) Update(ctx context.Context, user *models.User) error {
	return s.updateFn(ctx, user)
}
func (s *userRepoStub) IsFollowing(ctx context.Context, followerID, followeeID uint) (bool, error) {
	return s.isFollowingFn(ctx, followerID, followeeID)
}
func (s *userRepoStub) Follow(ctx context.Context, followerID, followeeID uint) error {
	return s.followFn(ctx, followerID, followeeID)
}
func (s *userRepoStub) Unfollow(ctx context.Context, followerID, followeeID uint) error {
	return s.unfollowFn(ctx, followerID, followeeID)
}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		createFn:        func(context.Context, *models.User) error { return nil },
		getByIDFn:       func(_ context.Context, id uint) (*models.User, error) { return &models.User{ID: id}, nil },
		getByUsernameFn: func(context.Context, string) (*models.User, error) { return nil, nil },
		listFn:          func(context.Context, int, int) ([]*models.User, error) { return nil, nil },
		countFn:         func(context.Context) (int64, error) { return 0, nil },
		updateFn:        func(context.Context, *models.User) error { return nil },
		isFollowingFn:   func(context.Context, uint, uint) (bool, error) { return false, nil },
		followFn:        func(context.Context, uint, uint) error { return nil },
		unfollowFn:      func(context.Context, uint, uint) error { return nil },
	}
}

type postRepoStub struct {
	createFn     func(context.Context, *models.Post, []string) error
	getByIDFn    func(context.Context, uint) (*models.Post, error)
	listFn       func(context.Context, int, int) ([]*models.Post, error)
	countFn      func(context.Context) (int64, error)
	updateFn     func(context.Context, *models.Post, []string) error
	isLikedFn    func(context.Context, uint, uint) (bool, error)
	likeFn       func(context.Context, uint, uint) error
	unlikeFn     func(context.Context, uint, uint) error
	isRepostedFn func(context.Context, uint, uint) (bool, error)
	repostFn     func(context.Context, uint, uint) error
	unrepostFn   func(context.Context, uint, uint) error
}

func (s *postRepoStub) Create(ctx context.Context, post *models.Post, tags []string) error {
	return s.createFn(ctx, post, tags)
}
func (s *postRepoStub) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	return s.getByIDFn(ctx, id)
}
func (s *postRepoStub) List(ctx context.Context, limit, offset int) ([]*models.Post, error) {
	return s.listFn(ctx, limit, offset)
}
func (s *postRepoStub) Count(ctx context.Context) (int64, error) {
	return s.countFn(ctx)
}
func (s *postRepoStub) Update(ctx context.Context, post *models.Post, tags []string) error {
	return s.updateFn(ctx, post, tags)
}
func (s *postRepoStub) IsLiked(ctx context.Context, userID, postID uint) (bool, error) {
	return s.isLikedFn(ctx, userID, postID)
}
func (s *postRepoStub) Like(ctx context.Context, userID, postID uint) error {
	return s.likeFn(ctx, userID, postID)
}
func (s *postRepoStub) Unlike(ctx context.Context, userID, postID uint) error {
	return s.unlikeFn(ctx, userID, postID)
}
func (s *postRepoStub) IsReposted(ctx context.Context, userID, postID uint) (bool, error) {
	return s.isRepostedFn(ctx, userID, postID)
}
func (s *postRepoStub) Repost(ctx context.Context, userID, postID uint) error {
	return s.repostFn(ctx, userID, postID)
}
func (s *postRepoStub) Unrepost(ctx context.Context, userID, postID uint) error {
	return s.unrepostFn(ctx, userID, postID)
}

func noopPostRepo() *postRepoStub {
	return &postRepoStub{
		createFn:     func(context.Context, *models.Post, []string) error { return nil },
		getByIDFn:    func(_ context.Context, id uint) (*models.Post, error) { return &models.Post{ID: id}, nil },
		listFn:       func(context.Context, int, int) ([]*models.Post, error) { return nil, nil },
		countFn:      func(context.Context) (int64, error) { return 0, nil },
		updateFn:     func(context.Context, *models.Post, []string) error { return nil },
		isLikedFn:    func(context.Context, uint, uint) (bool, error) { return false, nil },
		likeFn:       func(context.Context, uint, uint) error { return nil },
		unlikeFn:     func(context.Context, uint, uint) error { return nil },
		isRepostedFn: func(context.Context, uint, uint) (bool, error) { return false, nil },
		repostFn:     func(context.Context, uint, uint) error { return nil },
		unrepostFn:   func(context.Context, uint, uint) error { return nil },
	}
}

type commentRepoStub struct {
	createFn     func(context.Context, *models.Comment) error
	getByIDFn    func(context.Context, uint) (*models.Comment, error)
	listFn       func(context.Context, int, int) ([]*models.Comment, error)
	countFn      func(context.Context) (int64, error)
	listByPostFn func(context.Context, uint) ([]*models.Comment, error)
	updateFn     func(context.Context, *models.Comment) error
	isLikedFn    func(context.Context, uint, uint) (bool, error)
	likeFn       func(context.Context, uint, uint) error
	unlikeFn     func(context.Context, uint, uint) error
}

func (s *commentRepoStub) Create(ctx context.Context, comment *models.Comment) error {
	return s.createFn(ctx, comment)
}
func (s *commentRepoStub) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	return s.getByIDFn(ctx, id)
}
func (s *commentRepoStub) List(ctx context.Context, limit, offset int) ([]*models.Comment, error) {
	return s.listFn(ctx, limit, offset)
}
func (s *commentRepoStub) Count(ctx context.Context) (int64, error) {
	return s.countFn(ctx)
}
func (s *commentRepoStub) ListByPost(ctx context.Context, postID uint) ([]*models.Comment, error) {
	return s.listByPostFn(ctx, postID)
}
func (s *commentRepoStub) Update(ctx context.Context, comment *models.Comment) error {
	return s.updateFn(ctx, comment)
}
func (s *commentRepoStub) IsLiked(ctx context.Context, userID, commentID uint) (bool, error) {
	return s.isLikedFn(ctx, userID, commentID)
}
func (s *commentRepoStub) Like(ctx context.Context, userID, commentID uint) error {
	return s.likeFn(ctx, userID, commentID)
}
func (s *commentRepoStub) Unlike(ctx context.Context, userID, commentID uint) error {
	return s.unlikeFn(ctx, userID, commentID)
}

func noopCommentRepo() *commentRepoStub {
	return &commentRepoStub{
		createFn:     func(context.Context, *models.Comment) error { return nil },
		getByIDFn:    func(_ context.Context, id uint) (*models.Comment, error) { return &models.Comment{ID: id}, nil },
		listFn:       func(context.Context, int, int) ([]*models.Comment, error) { return nil, nil },
		countFn:      func(context.Context) (int64, error) { return 0, nil },
		listByPostFn: func(context.Context, uint) ([]*models.Comment, error) { return nil, nil },
		updateFn:     func(context.Context, *models.Comment) error { return nil },
		isLikedFn:    func(context.Context, uint, uint) (bool, error) { return false, nil },
		likeFn:       func(context.Context, uint, uint) error { return nil },
		unlikeFn:     func(context.Context, uint, uint) error { return nil },
	}
}

// assertAppError asserts that err is an AppError with the given code.
func assertAppError(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
}

func assertValidationError(t *testing.T, err error) {
	t.Helper()
	assertAppError(t, err, models.CodeValidation)
}

func assertNotFoundError(t *testing.T, err error) {
	t.Helper()
	assertAppError(t, err, models.CodeNotFound)
}

func assertForbiddenError(t *testing.T, err error) {
	t.Helper()
	assertAppError(t, err, models.CodeForbidden)
}

func assertConflictError(t *testing.T, err error) {
	t.Helper()
	assertAppError(t, err, models.CodeConflict)
}

package service

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"

	"davra/internal/cache"
	"davra/internal/models"
	"davra/internal/repository"

	"gorm.io/gorm"
)

var hashtagPattern = regexp.MustCompile(`#(\w+)`)

// extractHashtags pulls the distinct lowercased tags out of a post body,
// preserving first-occurrence order.
func extractHashtags(text string) []string {
	matches := hashtagPattern.FindAllStringSubmatch(text, -1)
	seen := make(map[string]struct{}, len(matches))
	tags := make([]string, 0, len(matches))
	for _, m := range matches {
		tag := strings.ToLower(m[1])
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}
	return tags
}

// PostService implements post authoring and engagement.
type PostService struct {
	postRepo    repository.PostRepository
	userRepo    repository.UserRepository
	coordinator *Coordinator
}

// NewPostService creates a new post service.
func NewPostService(postRepo repository.PostRepository, userRepo repository.UserRepository, coordinator *Coordinator) *PostService {
	return &PostService{postRepo: postRepo, userRepo: userRepo, coordinator: coordinator}
}

// CreatePostInput carries a post authoring request.
type CreatePostInput struct {
	AuthorID uint
	Text     string
	Hidden   bool
}

// UpdatePostInput carries a post edit; nil fields are untouched.
type UpdatePostInput struct {
	RequesterID uint
	PostID      uint
	Text        *string
	Hidden      *bool
}

func validatePostText(text string) error {
	if text == "" {
		return models.NewValidationError("Post text is required")
	}
	// Characters, not bytes: multibyte text gets the full allowance.
	if utf8.RuneCountInString(text) > models.MaxPostTextLen {
		return models.NewValidationError("Post text cannot exceed 300 characters")
	}
	return nil
}

// CreatePost validates the text, derives hashtags, and persists the post.
func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	if err := validatePostText(in.Text); err != nil {
		return nil, err
	}
	if _, err := s.userRepo.GetByID(ctx, in.AuthorID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("User", in.AuthorID)
		}
		return nil, err
	}
	post := &models.Post{
		Text:     in.Text,
		AuthorID: in.AuthorID,
		Hidden:   in.Hidden,
	}
	if err := s.postRepo.Create(ctx, post, extractHashtags(in.Text)); err != nil {
		return nil, err
	}
	return s.GetPost(ctx, post.ID)
}

// GetPost fetches one post by id with its author and hashtags.
func (s *PostService) GetPost(ctx context.Context, id uint) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.NewNotFoundError("Post", id)
	}
	if err != nil {
		return nil, err
	}
	return post, nil
}

// firstPageLimit is the page size served from cache for the hot first page.
const firstPageLimit = 10

type postPage struct {
	Posts []*models.Post `json:"posts"`
	Total int64          `json:"total"`
}

// ListPosts returns one page of posts in insertion order plus the total
// count. The default first page is served cache-aside; every post mutation
// invalidates it.
func (s *PostService) ListPosts(ctx context.Context, limit, offset int) ([]*models.Post, int64, error) {
	if offset == 0 && limit == firstPageLimit {
		var page postPage
		err := cache.Aside(ctx, cache.PostsListKey(), &page, cache.ListTTL, func() error {
			var fetchErr error
			page.Posts, page.Total, fetchErr = s.fetchPosts(ctx, limit, offset)
			return fetchErr
		})
		if err != nil {
			return nil, 0, err
		}
		return page.Posts, page.Total, nil
	}
	return s.fetchPosts(ctx, limit, offset)
}

func (s *PostService) fetchPosts(ctx context.Context, limit, offset int) ([]*models.Post, int64, error) {
	posts, err := s.postRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.postRepo.Count(ctx)
	if err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

// UpdatePost applies an edit and rederives the hashtags. Only the author may
// edit; a changed text resets the derived counters with it.
func (s *PostService) UpdatePost(ctx context.Context, in UpdatePostInput) (*models.Post, error) {
	post, err := s.GetPost(ctx, in.PostID)
	if err != nil {
		return nil, err
	}
	if post.AuthorID != in.RequesterID {
		return nil, models.NewForbiddenError("You can only edit your own posts")
	}

	if in.Text != nil {
		if err := validatePostText(*in.Text); err != nil {
			return nil, err
		}
		post.Text = *in.Text
	}
	if in.Hidden != nil {
		post.Hidden = *in.Hidden
	}

	if err := s.postRepo.Update(ctx, post, extractHashtags(post.Text)); err != nil {
		return nil, err
	}
	return s.GetPost(ctx, post.ID)
}

// DeletePost cascades the post away. Only the author may delete.
func (s *PostService) DeletePost(ctx context.Context, requesterID, postID uint) error {
	post, err := s.GetPost(ctx, postID)
	if err != nil {
		return err
	}
	if post.AuthorID != requesterID {
		return models.NewForbiddenError("You can only delete your own posts")
	}
	return s.coordinator.DeletePost(ctx, postID)
}

// LikePost records the like; liking twice is a conflict.
func (s *PostService) LikePost(ctx context.Context, userID, postID uint) error {
	if _, err := s.GetPost(ctx, postID); err != nil {
		return err
	}
	liked, err := s.postRepo.IsLiked(ctx, userID, postID)
	if err != nil {
		return err
	}
	if liked {
		return models.NewConflictError("You have already liked this post")
	}
	return s.postRepo.Like(ctx, userID, postID)
}

// UnlikePost removes the like; an absent like is a conflict.
func (s *PostService) UnlikePost(ctx context.Context, userID, postID uint) error {
	if _, err := s.GetPost(ctx, postID); err != nil {
		return err
	}
	liked, err := s.postRepo.IsLiked(ctx, userID, postID)
	if err != nil {
		return err
	}
	if !liked {
		return models.NewConflictError("You have not liked this post")
	}
	return s.postRepo.Unlike(ctx, userID, postID)
}

// RepostPost records the repost; reposting twice is a conflict.
func (s *PostService) RepostPost(ctx context.Context, userID, postID uint) error {
	if _, err := s.GetPost(ctx, postID); err != nil {
		return err
	}
	reposted, err := s.postRepo.IsReposted(ctx, userID, postID)
	if err != nil {
		return err
	}
	if reposted {
		return models.NewConflictError("You have already reposted this post")
	}
	return s.postRepo.Repost(ctx, userID, postID)
}

// UnrepostPost removes the repost; an absent repost is a conflict.
func (s *PostService) UnrepostPost(ctx context.Context, userID, postID uint) error {
	if _, err := s.GetPost(ctx, postID); err != nil {
		return err
	}
	reposted, err := s.postRepo.IsReposted(ctx, userID, postID)
	if err != nil {
		return err
	}
	if !reposted {
		return models.NewConflictError("You have not reposted this post")
	}
	return s.postRepo.Unrepost(ctx, userID, postID)
}

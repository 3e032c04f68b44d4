package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	userKeyPrefix = "user:%d"
	postKeyPrefix = "post:%d"
	postsListKey  = "posts:first-page"
)

const (
	// UserTTL bounds staleness of cached user profiles.
	UserTTL = 5 * time.Minute
	// PostTTL bounds staleness of cached single posts.
	PostTTL = 10 * time.Minute
	// ListTTL bounds staleness of the cached first page of posts.
	ListTTL = time.Minute
)

// UserKey returns the cache key for a user profile.
func UserKey(userID uint) string {
	return fmt.Sprintf(userKeyPrefix, userID)
}

// PostKey returns the cache key for a single post.
func PostKey(postID uint) string {
	return fmt.Sprintf(postKeyPrefix, postID)
}

// PostsListKey returns the cache key for the default first page of posts.
func PostsListKey() string {
	return postsListKey
}

// Invalidate removes a key, ignoring errors; staleness is bounded by TTL anyway.
func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

// InvalidateUser removes a cached user profile.
func InvalidateUser(ctx context.Context, userID uint) {
	Invalidate(ctx, UserKey(userID))
}

// InvalidatePost removes a cached post.
func InvalidatePost(ctx context.Context, postID uint) {
	Invalidate(ctx, PostKey(postID))
}

// InvalidatePostsList removes the cached first page of posts.
func InvalidatePostsList(ctx context.Context) {
	Invalidate(ctx, postsListKey)
}

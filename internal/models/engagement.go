package models

import "time"

// PostLike is one user's like of one post. The unique index rejects a second
// like of the same post by the same user.
type PostLike struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostID    uint      `gorm:"not null;uniqueIndex:idx_post_like" json:"post_id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_post_like" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Repost is one user's repost of one post, at most one per pair.
type Repost struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostID    uint      `gorm:"not null;uniqueIndex:idx_repost" json:"post_id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_repost" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// CommentLike is one user's like of one comment, at most one per pair.
type CommentLike struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CommentID uint      `gorm:"not null;uniqueIndex:idx_comment_like" json:"comment_id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_comment_like" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

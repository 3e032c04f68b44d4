// Package repository provides the data access layer.
package repository

import (
	"gorm.io/gorm"

	"davra/internal/models"
)

// The Sync* helpers recompute denormalized counts from their backing sets.
// They must run inside the same transaction as the set mutation so no reader
// outside the transaction ever observes a count that disagrees with its set.

// SyncPostCounts recomputes every denormalized field on a post from the
// post_likes, comments, reposts, and hashtags tables and the post text.
func SyncPostCounts(tx *gorm.DB, postID uint) error {
	return tx.Model(&models.Post{}).Where("id = ?", postID).Updates(map[string]interface{}{
		"likes_count":           gorm.Expr("(SELECT COUNT(*) FROM post_likes WHERE post_id = ?)", postID),
		"comments_count":        gorm.Expr("(SELECT COUNT(*) FROM comments WHERE post_id = ? AND parent_id IS NULL)", postID),
		"reposts_count":         gorm.Expr("(SELECT COUNT(*) FROM reposts WHERE post_id = ?)", postID),
		"hashtags_count":        gorm.Expr("(SELECT COUNT(*) FROM hashtags WHERE post_id = ?)", postID),
		"total_characters_used": gorm.Expr("LENGTH(text)"),
	}).Error
}

// SyncCommentCounts recomputes likes_count and replies_count on a comment.
func SyncCommentCounts(tx *gorm.DB, commentID uint) error {
	return tx.Model(&models.Comment{}).Where("id = ?", commentID).Updates(map[string]interface{}{
		"likes_count":   gorm.Expr("(SELECT COUNT(*) FROM comment_likes WHERE comment_id = ?)", commentID),
		"replies_count": gorm.Expr("(SELECT COUNT(*) FROM comments WHERE parent_id = ?)", commentID),
	}).Error
}

// SyncFollowCounts recomputes both follow counters on a user from the edge table.
func SyncFollowCounts(tx *gorm.DB, userID uint) error {
	return tx.Model(&models.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
		"followers_count": gorm.Expr("(SELECT COUNT(*) FROM follows WHERE followee_id = ?)", userID),
		"following_count": gorm.Expr("(SELECT COUNT(*) FROM follows WHERE follower_id = ?)", userID),
	}).Error
}

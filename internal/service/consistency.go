// Package service implements the application's business rules on top of the
// repository layer.
package service

import (
	"context"

	"davra/internal/cache"
	"davra/internal/models"
	"davra/internal/observability"
	"davra/internal/repository"

	"gorm.io/gorm"
)

// Coordinator enforces the invariants that span entities: cascading deletes
// and the recounts they imply. Each cascade runs in a single transaction and
// deletes bottom-up (likes before comments, comments before posts, posts
// before the user) so a failure can never orphan a primary record; at worst
// a dangling back-reference survives, never an unreachable entity.
type Coordinator struct {
	db *gorm.DB
}

// NewCoordinator creates a coordinator bound to the given database.
func NewCoordinator(db *gorm.DB) *Coordinator {
	return &Coordinator{db: db}
}

// collectCommentTree expands the given comment ids with all transitive replies.
func collectCommentTree(tx *gorm.DB, rootIDs []uint) ([]uint, error) {
	all := append([]uint{}, rootIDs...)
	frontier := rootIDs
	for len(frontier) > 0 {
		var next []uint
		if err := tx.Model(&models.Comment{}).
			Where("parent_id IN ?", frontier).
			Pluck("id", &next).Error; err != nil {
			return nil, err
		}
		if len(next) == 0 {
			break
		}
		all = append(all, next...)
		frontier = next
	}
	return all, nil
}

// deleteCommentRows removes the given comments and their like rows.
func deleteCommentRows(tx *gorm.DB, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	if err := tx.Where("comment_id IN ?", ids).Delete(&models.CommentLike{}).Error; err != nil {
		return err
	}
	return tx.Where("id IN ?", ids).Delete(&models.Comment{}).Error
}

// DeleteComment removes a comment together with its transitive replies, then
// recounts the owning post and, for replies, the parent comment.
func (co *Coordinator) DeleteComment(ctx context.Context, comment *models.Comment) error {
	ctx, span := observability.StartCascadeSpan(ctx, "comment", comment.ID)
	err := co.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ids, err := collectCommentTree(tx, []uint{comment.ID})
		if err != nil {
			return err
		}
		if err := deleteCommentRows(tx, ids); err != nil {
			return err
		}
		if comment.ParentID != nil {
			if err := repository.SyncCommentCounts(tx, *comment.ParentID); err != nil {
				return err
			}
		}
		return repository.SyncPostCounts(tx, comment.PostID)
	})
	observability.EndSpan(span, err)
	if err == nil {
		observability.CascadeDeletes.WithLabelValues("comment").Inc()
		cache.InvalidatePost(ctx, comment.PostID)
	}
	return err
}

// DeletePost removes a post, every comment referencing it (replies share the
// post id, so the filter is transitive), and the post's engagement rows.
func (co *Coordinator) DeletePost(ctx context.Context, postID uint) error {
	ctx, span := observability.StartCascadeSpan(ctx, "post", postID)
	err := co.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var commentIDs []uint
		if err := tx.Model(&models.Comment{}).
			Where("post_id = ?", postID).
			Pluck("id", &commentIDs).Error; err != nil {
			return err
		}
		if err := deleteCommentRows(tx, commentIDs); err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", postID).Delete(&models.PostLike{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", postID).Delete(&models.Repost{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", postID).Delete(&models.Hashtag{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Post{}, postID).Error
	})
	observability.EndSpan(span, err)
	if err == nil {
		observability.CascadeDeletes.WithLabelValues("post").Inc()
		cache.InvalidatePost(ctx, postID)
		cache.InvalidatePostsList(ctx)
	}
	return err
}

// DeleteUser removes the user and everything that references them: their
// posts (with all comments on those posts), their comments and replies on
// other posts, their likes and reposts, and both directions of their follow
// edges. Surviving posts, comments, and users are recounted before the user
// row itself is deleted.
func (co *Coordinator) DeleteUser(ctx context.Context, userID uint) error {
	ctx, span := observability.StartCascadeSpan(ctx, "user", userID)
	// Collected inside the transaction so the success path can drop every
	// cache entry the cascade made stale.
	var postIDs, survivorPostIDs, peerIDs []uint
	err := co.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// The user's own posts take every comment on them down too.
		if err := tx.Model(&models.Post{}).
			Where("author_id = ?", userID).
			Pluck("id", &postIDs).Error; err != nil {
			return err
		}
		if len(postIDs) > 0 {
			var commentIDs []uint
			if err := tx.Model(&models.Comment{}).
				Where("post_id IN ?", postIDs).
				Pluck("id", &commentIDs).Error; err != nil {
				return err
			}
			if err := deleteCommentRows(tx, commentIDs); err != nil {
				return err
			}
			for _, m := range []interface{}{&models.PostLike{}, &models.Repost{}, &models.Hashtag{}} {
				if err := tx.Where("post_id IN ?", postIDs).Delete(m).Error; err != nil {
					return err
				}
			}
			if err := tx.Where("id IN ?", postIDs).Delete(&models.Post{}).Error; err != nil {
				return err
			}
		}

		// The user's comments on surviving posts, including replies to them.
		var ownCommentIDs []uint
		if err := tx.Model(&models.Comment{}).
			Where("author_id = ?", userID).
			Pluck("id", &ownCommentIDs).Error; err != nil {
			return err
		}
		var touchedPostIDs, touchedParentIDs []uint
		if len(ownCommentIDs) > 0 {
			if err := tx.Model(&models.Comment{}).
				Where("id IN ?", ownCommentIDs).
				Pluck("post_id", &touchedPostIDs).Error; err != nil {
				return err
			}
			if err := tx.Model(&models.Comment{}).
				Where("id IN ? AND parent_id IS NOT NULL", ownCommentIDs).
				Pluck("parent_id", &touchedParentIDs).Error; err != nil {
				return err
			}
			tree, err := collectCommentTree(tx, ownCommentIDs)
			if err != nil {
				return err
			}
			if err := deleteCommentRows(tx, tree); err != nil {
				return err
			}
		}

		// Engagement rows left by the user on other people's content.
		var likedPostIDs, repostedPostIDs, likedCommentIDs []uint
		if err := tx.Model(&models.PostLike{}).Where("user_id = ?", userID).
			Pluck("post_id", &likedPostIDs).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Repost{}).Where("user_id = ?", userID).
			Pluck("post_id", &repostedPostIDs).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.CommentLike{}).Where("user_id = ?", userID).
			Pluck("comment_id", &likedCommentIDs).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", userID).Delete(&models.PostLike{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", userID).Delete(&models.Repost{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", userID).Delete(&models.CommentLike{}).Error; err != nil {
			return err
		}

		// Follow edges in both directions, remembering the peers to recount.
		if err := tx.Model(&models.Follow{}).
			Where("follower_id = ?", userID).
			Pluck("followee_id", &peerIDs).Error; err != nil {
			return err
		}
		var followerIDs []uint
		if err := tx.Model(&models.Follow{}).
			Where("followee_id = ?", userID).
			Pluck("follower_id", &followerIDs).Error; err != nil {
			return err
		}
		peerIDs = append(peerIDs, followerIDs...)
		if err := tx.
			Where("follower_id = ? OR followee_id = ?", userID, userID).
			Delete(&models.Follow{}).Error; err != nil {
			return err
		}

		// Recount everything that survived and referenced the user.
		survivorPostIDs = dedup(append(append(likedPostIDs, repostedPostIDs...), touchedPostIDs...))
		for _, postID := range survivorPostIDs {
			if err := repository.SyncPostCounts(tx, postID); err != nil {
				return err
			}
		}
		for _, commentID := range dedup(append(likedCommentIDs, touchedParentIDs...)) {
			if err := repository.SyncCommentCounts(tx, commentID); err != nil {
				return err
			}
		}
		peerIDs = dedup(peerIDs)
		for _, peerID := range peerIDs {
			if err := repository.SyncFollowCounts(tx, peerID); err != nil {
				return err
			}
		}

		return tx.Delete(&models.User{}, userID).Error
	})
	observability.EndSpan(span, err)
	if err == nil {
		observability.CascadeDeletes.WithLabelValues("user").Inc()
		cache.InvalidateUser(ctx, userID)
		for _, peerID := range peerIDs {
			cache.InvalidateUser(ctx, peerID)
		}
		for _, postID := range append(postIDs, survivorPostIDs...) {
			cache.InvalidatePost(ctx, postID)
		}
		cache.InvalidatePostsList(ctx)
	}
	return err
}

func dedup(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

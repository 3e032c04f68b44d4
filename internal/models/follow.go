package models

import "time"

// Follow is one directed edge of the social graph and the single source of
// truth for both users' counters: follower follows followee. The unique index
// makes a duplicate edge a database-level impossibility.
type Follow struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	FollowerID uint      `gorm:"not null;uniqueIndex:idx_follow_edge" json:"follower_id"`
	FolloweeID uint      `gorm:"not null;uniqueIndex:idx_follow_edge" json:"followee_id"`
	CreatedAt  time.Time `json:"created_at"`
}

package models

import "time"

// MaxCommentContentLen is the hard cap on comment content length.
const MaxCommentContentLen = 500

// Comment represents a comment on a post. Replies are ordinary comments with
// ParentID set; they share the parent's PostID so a post-level delete always
// reaches them without walking the tree. LikesCount and RepliesCount are
// denormalized and recomputed inside the mutating transaction.
type Comment struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Content      string    `gorm:"type:text;not null" json:"content"`
	AuthorID     uint      `gorm:"not null;index" json:"author_id"`
	Author       User      `gorm:"foreignKey:AuthorID" json:"author"`
	PostID       uint      `gorm:"not null;index" json:"post_id"`
	Post         Post      `gorm:"foreignKey:PostID" json:"-"`
	ParentID     *uint     `gorm:"index" json:"parent_id,omitempty"`
	LikesCount   int       `gorm:"not null;default:0" json:"likes_count"`
	RepliesCount int       `gorm:"not null;default:0" json:"replies_count"`
	Replies      []Comment `gorm:"foreignKey:ParentID" json:"replies,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

package models

import "time"

// MaxPostTextLen bounds the text of a post.
const MaxPostTextLen = 300

// Post is a piece of published content.
//
// The *Count fields and TotalCharactersUsed are denormalized: each one is
// recomputed from its backing set (post_likes, comments, reposts, hashtags)
// inside the same transaction as any mutation of that set. They are never
// incremented or decremented on their own.
type Post struct {
	ID                  uint      `gorm:"primaryKey" json:"id"`
	Text                string    `gorm:"type:text;not null" json:"text"`
	AuthorID            uint      `gorm:"not null;index" json:"author_id"`
	Author              User      `gorm:"foreignKey:AuthorID" json:"author"`
	Hidden              bool      `gorm:"not null;default:false" json:"hidden"`
	LikesCount          int       `gorm:"not null;default:0" json:"likes_count"`
	CommentsCount       int       `gorm:"not null;default:0" json:"comments_count"`
	RepostsCount        int       `gorm:"not null;default:0" json:"reposts_count"`
	HashtagsCount       int       `gorm:"not null;default:0" json:"hashtags_count"`
	TotalCharactersUsed int       `gorm:"not null;default:0" json:"total_characters_used"`
	Hashtags            []Hashtag `gorm:"foreignKey:PostID" json:"hashtags,omitempty"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// Hashtag is one tag extracted from a post's text.
type Hashtag struct {
	ID     uint   `gorm:"primaryKey" json:"-"`
	PostID uint   `gorm:"not null;index" json:"-"`
	Tag    string `gorm:"not null;index" json:"tag"`
}

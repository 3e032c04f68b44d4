package models

import "time"

// DefaultFullName is assigned when a registration omits the display name.
const DefaultFullName = "User"

// Gender is the profile gender field. Only the two listed values are accepted.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// Valid reports whether g is one of the accepted gender values.
func (g Gender) Valid() bool {
	return g == GenderMale || g == GenderFemale
}

// User represents a registered account. The credential is stored as a
// reversible AES ciphertext plus its IV, both hex encoded and never
// serialized. FollowersCount and FollowingCount are denormalized from the
// follows table and recomputed inside every edge mutation.
type User struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Username       string    `gorm:"uniqueIndex;not null" json:"username"`
	Email          string    `json:"email,omitempty"`
	Password       string    `gorm:"not null" json:"-"`
	PasswordIV     string    `gorm:"not null" json:"-"`
	FullName       string    `gorm:"not null" json:"full_name"`
	Birthdate      time.Time `gorm:"not null" json:"birthdate"`
	Gender         Gender    `gorm:"not null" json:"gender"`
	Muslim         bool      `gorm:"not null" json:"muslim"`
	FollowersCount int       `gorm:"not null;default:0" json:"followers_count"`
	FollowingCount int       `gorm:"not null;default:0" json:"following_count"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// AuthorSummary is the embedded author shape returned inside posts and
// comments.
type AuthorSummary struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	FullName string `json:"full_name"`
}

// Summary returns the author shape for embedding in content responses.
func (u *User) Summary() AuthorSummary {
	return AuthorSummary{ID: u.ID, Username: u.Username, FullName: u.FullName}
}

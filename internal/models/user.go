// Package models contains data structures for the application's domain models.
package models

import (
	"time"
)

// DeletedUserName is displayed in place of an author whose account was
// removed. Comments and likes survive account deletion; only the user
// reference is cleared.
const DeletedUserName = "<deleted>"

// User represents an account that can author comments and likes.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"uniqueIndex;size:150;not null" json:"username"`
	FullName     string    `gorm:"size:255" json:"full_name"`
	Email        string    `gorm:"uniqueIndex;size:255;not null" json:"email"`
	PasswordHash string    `gorm:"not null" json:"-"`
	IsModerator  bool      `gorm:"not null;default:false" json:"is_moderator"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// DisplayName returns the name shown next to the user's comments.
func (u *User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Username
}

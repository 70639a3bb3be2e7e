package models

import (
	"fmt"
	"time"
)

// Comment is a single node in a discussion thread. It is content-type
// agnostic: the connection to a post, asset or other target lives in a
// separate binding table (see targets.go).
//
// DateDeleted deliberately does not use gorm.DeletedAt: soft-deleted
// comments must stay visible to queries so the tree builder can decide
// whether to keep them as "[deleted]" placeholders.
type Comment struct {
	ID uint `gorm:"primaryKey" json:"id"`

	// UserID is a weak reference. When a user deletes their account the
	// comment lives on with UserID set to NULL to preserve the
	// conversation.
	UserID *uint `gorm:"index" json:"user_id"`
	User   *User `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"user,omitempty"`

	// ReplyToID is nil for top-level comments.
	ReplyToID *uint    `gorm:"index" json:"reply_to_id"`
	ReplyTo   *Comment `gorm:"foreignKey:ReplyToID" json:"-"`

	Message     string `gorm:"type:text;not null" json:"message"`
	MessageHTML string `gorm:"type:text" json:"message_html"`

	// IsArchived is tree-uniform: every comment in one thread holds the
	// same value, enforced by the moderation service.
	IsArchived bool `gorm:"not null;default:false" json:"is_archived"`

	CreatedAt   time.Time  `json:"date_created"`
	UpdatedAt   time.Time  `json:"date_updated"`
	DateDeleted *time.Time `gorm:"index" json:"date_deleted,omitempty"`
}

// IsDeleted reports whether the comment has been soft-deleted.
func (c *Comment) IsDeleted() bool {
	return c.DateDeleted != nil
}

// Edited reports whether the comment was modified after creation.
func (c *Comment) Edited() bool {
	return !c.UpdatedAt.Equal(c.CreatedAt)
}

// Anchor is the stable fragment identifier used to link to the comment.
func (c *Comment) Anchor() string {
	return fmt.Sprintf("comment-%d", c.ID)
}

// AuthorName returns the display name of the comment's author, or the
// deleted-user placeholder when the account no longer exists.
func (c *Comment) AuthorName() string {
	if c.User == nil {
		return DeletedUserName
	}
	return c.User.DisplayName()
}

// OwnedBy reports whether the given viewer authored this comment.
// Anonymous viewers and anonymized authors never own anything.
func (c *Comment) OwnedBy(viewerID *uint) bool {
	if viewerID == nil || c.UserID == nil {
		return false
	}
	return *c.UserID == *viewerID
}

// Like is one user's like on one comment. Row presence is the only
// signal; there is no separate liked flag. The (user, comment) pair is
// unique so concurrent duplicate likes resolve via the constraint.
type Like struct {
	ID uint `gorm:"primaryKey" json:"id"`

	// UserID is a weak reference like Comment.UserID: the row is kept
	// after account deletion so like counts stay accurate.
	UserID *uint `gorm:"uniqueIndex:idx_like_user_comment" json:"user_id"`
	User   *User `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"user,omitempty"`

	CommentID uint     `gorm:"not null;uniqueIndex:idx_like_user_comment;index" json:"comment_id"`
	Comment   *Comment `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"comment,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

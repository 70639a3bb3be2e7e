package models

import "time"

// Commentable is implemented by every content type that supports
// comment threads. Each implementer owns a dedicated binding table (one
// row per comment) so the reverse relation "this object's comments"
// stays independent per content type while Comment itself knows nothing
// about content types.
type Commentable interface {
	// TargetKind is the stable name used in URLs and notification
	// payloads, e.g. "posts".
	TargetKind() string
	// TargetID is the primary key of the content object.
	TargetID() uint
	// CommentJoinTable is the binding table name, e.g. "post_comments".
	CommentJoinTable() string
	// CommentTargetColumn is the binding table's foreign key column
	// pointing at the content object, e.g. "post_id".
	CommentTargetColumn() string
	// NewCommentBinding returns a binding row connecting the given
	// comment to this object, ready to be inserted.
	NewCommentBinding(commentID uint) any
}

// Post is a blog post that owns a comment thread.
type Post struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Title     string    `gorm:"not null" json:"title"`
	Slug      string    `gorm:"uniqueIndex;size:255;not null" json:"slug"`
	AuthorID  *uint     `gorm:"index" json:"author_id"`
	Author    *User     `gorm:"foreignKey:AuthorID;constraint:OnDelete:SET NULL;" json:"author,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p *Post) TargetKind() string          { return "posts" }
func (p *Post) TargetID() uint              { return p.ID }
func (p *Post) CommentJoinTable() string    { return "post_comments" }
func (p *Post) CommentTargetColumn() string { return "post_id" }
func (p *Post) NewCommentBinding(commentID uint) any {
	return &PostComment{PostID: p.ID, CommentID: commentID}
}

// PostComment binds exactly one Comment to one Post. The unique index
// on comment_id keeps the comment side one-to-one.
type PostComment struct {
	ID        uint     `gorm:"primaryKey" json:"id"`
	PostID    uint     `gorm:"not null;index" json:"post_id"`
	Post      *Post    `gorm:"constraint:OnDelete:CASCADE;" json:"-"`
	CommentID uint     `gorm:"not null;uniqueIndex" json:"comment_id"`
	Comment   *Comment `gorm:"constraint:OnDelete:CASCADE;" json:"-"`
}

// Asset is a film asset (artwork, clip, production file).
type Asset struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	FilmTitle string    `gorm:"size:255" json:"film_title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (a *Asset) TargetKind() string          { return "assets" }
func (a *Asset) TargetID() uint              { return a.ID }
func (a *Asset) CommentJoinTable() string    { return "asset_comments" }
func (a *Asset) CommentTargetColumn() string { return "asset_id" }
func (a *Asset) NewCommentBinding(commentID uint) any {
	return &AssetComment{AssetID: a.ID, CommentID: commentID}
}

// AssetComment binds exactly one Comment to one Asset.
type AssetComment struct {
	ID        uint     `gorm:"primaryKey" json:"id"`
	AssetID   uint     `gorm:"not null;index" json:"asset_id"`
	Asset     *Asset   `gorm:"constraint:OnDelete:CASCADE;" json:"-"`
	CommentID uint     `gorm:"not null;uniqueIndex" json:"comment_id"`
	Comment   *Comment `gorm:"constraint:OnDelete:CASCADE;" json:"-"`
}

// Section is a training chapter section.
type Section struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	Training  string    `gorm:"size:255" json:"training"`
	Index     int       `gorm:"not null;default:0" json:"index"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s *Section) TargetKind() string          { return "sections" }
func (s *Section) TargetID() uint              { return s.ID }
func (s *Section) CommentJoinTable() string    { return "section_comments" }
func (s *Section) CommentTargetColumn() string { return "section_id" }
func (s *Section) NewCommentBinding(commentID uint) any {
	return &SectionComment{SectionID: s.ID, CommentID: commentID}
}

// SectionComment binds exactly one Comment to one Section.
type SectionComment struct {
	ID        uint     `gorm:"primaryKey" json:"id"`
	SectionID uint     `gorm:"not null;index" json:"section_id"`
	Section   *Section `gorm:"constraint:OnDelete:CASCADE;" json:"-"`
	CommentID uint     `gorm:"not null;uniqueIndex" json:"comment_id"`
	Comment   *Comment `gorm:"constraint:OnDelete:CASCADE;" json:"-"`
}

// CharacterVersion is one published version of a character page.
type CharacterVersion struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	CharacterName string    `gorm:"not null" json:"character_name"`
	Number        int       `gorm:"not null;default:1" json:"number"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (v *CharacterVersion) TargetKind() string          { return "character-versions" }
func (v *CharacterVersion) TargetID() uint              { return v.ID }
func (v *CharacterVersion) CommentJoinTable() string    { return "character_version_comments" }
func (v *CharacterVersion) CommentTargetColumn() string { return "character_version_id" }
func (v *CharacterVersion) NewCommentBinding(commentID uint) any {
	return &CharacterVersionComment{CharacterVersionID: v.ID, CommentID: commentID}
}

// CharacterVersionComment binds exactly one Comment to one CharacterVersion.
type CharacterVersionComment struct {
	ID                 uint              `gorm:"primaryKey" json:"id"`
	CharacterVersionID uint              `gorm:"not null;index" json:"character_version_id"`
	CharacterVersion   *CharacterVersion `gorm:"constraint:OnDelete:CASCADE;" json:"-"`
	CommentID          uint              `gorm:"not null;uniqueIndex" json:"comment_id"`
	Comment            *Comment          `gorm:"constraint:OnDelete:CASCADE;" json:"-"`
}

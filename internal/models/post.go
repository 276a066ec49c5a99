package models

import (
	"time"
)

const (
	// MaxPostLength is the maximum number of characters in a post body.
	MaxPostLength = 280
	// MaxAttachments caps the attachment references stored per post.
	MaxAttachments = 5
)

// Post is a short message, optionally replying to another post.
type Post struct {
	ID       uint     `gorm:"primaryKey" json:"id"`
	AuthorID uint     `gorm:"not null;index:idx_posts_author_created,priority:1" json:"author_id"`
	Author   *Account `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	Content  string   `gorm:"size:280;not null" json:"content"`
	// ParentID is a non-owning back reference; the parent may be gone.
	ParentID    *uint            `gorm:"index" json:"parent_id,omitempty"`
	Latitude    *float64         `json:"latitude,omitempty"`
	Longitude   *float64         `json:"longitude,omitempty"`
	City        string           `gorm:"size:100" json:"city,omitempty"`
	Country     string           `gorm:"size:100" json:"country,omitempty"`
	Attachments []PostAttachment `gorm:"foreignKey:PostID" json:"attachments"`

	LikesCount   int `gorm:"not null;default:0" json:"likes_count"`
	RepliesCount int `gorm:"not null;default:0" json:"replies_count"`
	RepostsCount int `gorm:"not null;default:0" json:"reposts_count"`

	// Viewer-relative flags, never persisted.
	Liked         bool `gorm:"-" json:"liked"`
	Reposted      bool `gorm:"-" json:"reposted"`
	ParentMissing bool `gorm:"-" json:"parent_missing,omitempty"`

	CreatedAt time.Time `gorm:"index:idx_posts_author_created,priority:2" json:"created_at"`
}

// TableName specifies the table name for GORM
func (Post) TableName() string {
	return "posts"
}

// IsReply reports whether the post has a parent reference.
func (p *Post) IsReply() bool {
	return p.ParentID != nil
}

// PostAttachment is an opaque reference supplied by the attachment store.
type PostAttachment struct {
	ID       uint   `gorm:"primaryKey" json:"-"`
	PostID   uint   `gorm:"not null;uniqueIndex:idx_post_attachments_position,priority:1" json:"-"`
	Position int    `gorm:"not null;uniqueIndex:idx_post_attachments_position,priority:2" json:"position"`
	Ref      string `gorm:"not null" json:"ref"`
}

// TableName specifies the table name for GORM
func (PostAttachment) TableName() string {
	return "post_attachments"
}

// ViewerState holds the requesting account's relation to one post.
type ViewerState struct {
	Liked    bool `json:"liked"`
	Reposted bool `json:"reposted"`
}

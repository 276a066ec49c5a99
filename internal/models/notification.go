package models

import "time"

// NotificationKind tags the event that produced a notification.
type NotificationKind string

const (
	NotificationFollow NotificationKind = "FOLLOW"
	NotificationLike   NotificationKind = "LIKE"
	NotificationRepost NotificationKind = "REPOST"
	NotificationReply  NotificationKind = "REPLY"
)

// Notification informs a recipient that another account interacted with them.
type Notification struct {
	ID          uint             `gorm:"primaryKey" json:"id"`
	RecipientID uint             `gorm:"not null;index:idx_notifications_recipient_created,priority:1" json:"recipient_id"`
	ActorID     uint             `gorm:"not null" json:"actor_id"`
	Actor       *Account         `gorm:"foreignKey:ActorID" json:"actor,omitempty"`
	Kind        NotificationKind `gorm:"type:varchar(16);not null" json:"kind"`
	PostID      *uint            `gorm:"index" json:"post_id,omitempty"`
	Snippet     string           `gorm:"size:280" json:"snippet,omitempty"`
	IsRead      bool             `gorm:"not null;default:false" json:"is_read"`
	CreatedAt   time.Time        `gorm:"index:idx_notifications_recipient_created,priority:2" json:"created_at"`
}

// TableName specifies the table name for GORM
func (Notification) TableName() string {
	return "notifications"
}

// Package models contains data structures for the application's domain models.
package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Account is a public identity that authors posts and owns outgoing edges.
type Account struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Handle         string    `gorm:"size:30;not null" json:"handle"`
	HandleLower    string    `gorm:"size:30;not null;uniqueIndex:idx_accounts_handle_lower" json:"-"`
	DisplayName    string    `gorm:"size:50" json:"display_name"`
	Bio            string    `gorm:"size:160" json:"bio"`
	AvatarURL      string    `json:"avatar_url"`
	City           string    `gorm:"size:100" json:"city,omitempty"`
	Country        string    `gorm:"size:100" json:"country,omitempty"`
	FollowersCount int       `gorm:"not null;default:0" json:"followers_count"`
	FollowingCount int       `gorm:"not null;default:0" json:"following_count"`
	PushToken      string    `json:"-"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (Account) TableName() string {
	return "accounts"
}

// BeforeSave keeps the case-folded handle used for uniqueness in sync.
func (a *Account) BeforeSave(_ *gorm.DB) error {
	a.HandleLower = strings.ToLower(a.Handle)
	return nil
}

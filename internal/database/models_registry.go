package database

import "chirp/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.Account{},
		&models.Post{},
		&models.PostAttachment{},
		&models.Follow{},
		&models.Like{},
		&models.Repost{},
		&models.Notification{},
	}
}

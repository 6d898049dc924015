package database

import (
	"github.com/shelfly/shelfly-backend/internal/domain"

	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.User{},
		&domain.OAuthAccount{},
		&domain.Session{},
		&domain.Product{},
	)
}

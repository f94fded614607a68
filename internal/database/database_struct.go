package database

import (
	"errors"

	"github.com/thereayou/taskflow/internal/services"
	"gorm.io/gorm"
)

// Database реализует MembershipStore, TaskStore и NotificationSink поверх gorm.
type Database struct {
	db *gorm.DB
}

func NewDatabase(db *gorm.DB) *Database {
	return &Database{db: db}
}

// notFound переводит gorm.ErrRecordNotFound в services.ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return services.ErrNotFound
	}
	return err
}

package models

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"time"
)

// Типы уведомлений
const (
	NotificationTaskAssigned  = "TASK_ASSIGNED"
	NotificationCommentAdded  = "COMMENT_ADDED"
	NotificationProjectInvite = "PROJECT_INVITE"
)

type Notification struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	Title     string         `gorm:"not null" json:"title"`
	Message   string         `gorm:"not null" json:"message"`
	Type      string         `gorm:"not null" json:"type"`
	Data      datatypes.JSON `json:"data,omitempty"`
	IsRead    bool           `gorm:"not null;default:false" json:"is_read"`
	CreatedAt time.Time      `json:"created_at"`
}

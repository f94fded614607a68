package models

import (
	"github.com/google/uuid"
	"time"
)

type Project struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name        string    `gorm:"not null" json:"name"`
	Description string    `json:"description,omitempty"`
	OwnerID     uuid.UUID `gorm:"type:uuid;not null;index" json:"owner_id"`
	CreatedAt   time.Time `json:"created_at"`

	// Связи
	Owner   User            `gorm:"foreignKey:OwnerID" json:"-"`
	Members []ProjectMember `gorm:"foreignKey:ProjectID" json:"members,omitempty"`
}

// ProjectMember связывает пользователя с проектом и хранит его роль.
// Роль хранится строкой: OWNER, MANAGER, MEMBER, VIEWER.
type ProjectMember struct {
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	ProjectID uuid.UUID `gorm:"type:uuid;primaryKey;index" json:"project_id"`
	Role      string    `gorm:"not null;default:'MEMBER';check:role IN ('OWNER','MANAGER','MEMBER','VIEWER')" json:"role"`
	JoinedAt  time.Time `json:"joined_at"`

	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound возвращается хранилищами, когда запись отсутствует.
var ErrNotFound = errors.New("not found")

// MembershipStore отвечает на вопросы об участии пользователей в проектах.
type MembershipStore interface {
	// ListProjectsFor возвращает проекты, где пользователь владелец или участник.
	ListProjectsFor(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
	// GetRole возвращает роль участника; found == false, если записи нет.
	GetRole(ctx context.Context, userID, projectID uuid.UUID) (role string, found bool, err error)
	GetOwner(ctx context.Context, projectID uuid.UUID) (uuid.UUID, error)
}

// NewNotification запись уведомления до сохранения.
type NewNotification struct {
	RecipientID uuid.UUID
	Title       string
	Message     string
	Type        string
	Payload     json.RawMessage
}

// StoredNotification то, что уходит клиенту в notification:new.
type StoredNotification struct {
	ID        uuid.UUID       `json:"id"`
	UserID    uuid.UUID       `json:"user_id"`
	Title     string          `json:"title"`
	Message   string          `json:"message"`
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	IsRead    bool            `json:"is_read"`
	CreatedAt time.Time       `json:"created_at"`
}

type NotificationSink interface {
	Create(ctx context.Context, n NewNotification) (*StoredNotification, error)
	// MarkRead помечает уведомление прочитанным; только получатель может это сделать.
	MarkRead(ctx context.Context, notificationID, userID uuid.UUID) error
}

// TaskParticipants участники задачи, нужные для адресной доставки.
type TaskParticipants struct {
	ProjectID  uuid.UUID
	CreatorID  uuid.UUID
	AssigneeID *uuid.UUID
	Title      string
}

type TaskStore interface {
	TaskParticipants(ctx context.Context, taskID uuid.UUID) (*TaskParticipants, error)
}

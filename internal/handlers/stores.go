package handlers

import (
	"context"

	"github.com/google/uuid"
	"github.com/thereayou/taskflow/internal/models"
	"github.com/thereayou/taskflow/internal/services"
)

// Хранилища, которые нужны обработчикам. Все реализованы *database.Database.

type UserRepository interface {
	SaveUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateLastSeen(ctx context.Context, id uuid.UUID) error
}

type TaskRepository interface {
	CreateTask(ctx context.Context, task *models.Task) error
	GetTask(ctx context.Context, id uuid.UUID) (*models.Task, error)
	ListProjectTasks(ctx context.Context, projectID uuid.UUID) ([]models.Task, error)
	UpdateTask(ctx context.Context, id uuid.UUID, fields map[string]any) (*models.Task, error)
	MoveTask(ctx context.Context, id uuid.UUID, columnID string, order int) (*models.Task, string, error)
	DeleteTask(ctx context.Context, id uuid.UUID) error
}

type CommentRepository interface {
	AddComment(ctx context.Context, comment *models.Comment) error
	ListTaskComments(ctx context.Context, taskID uuid.UUID) ([]models.Comment, error)
}

type ProjectRepository interface {
	CreateProject(ctx context.Context, project *models.Project) error
	GetProject(ctx context.Context, id uuid.UUID) (*models.Project, error)
	ListUserProjects(ctx context.Context, userID uuid.UUID) ([]models.Project, error)
	AddMember(ctx context.Context, projectID, userID uuid.UUID, role string) error
	RemoveMember(ctx context.Context, projectID, userID uuid.UUID) error
	DeleteProject(ctx context.Context, id uuid.UUID) error
}

type NotificationRepository interface {
	ListNotifications(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit int) ([]services.StoredNotification, error)
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
	DeleteNotification(ctx context.Context, notificationID, userID uuid.UUID) error
	UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error)
}

// TokenRevoker отзывает токен при выходе.
type TokenRevoker interface {
	Revoke(ctx context.Context, token string) error
}

package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/thereayou/taskflow/internal/models"
	"github.com/thereayou/taskflow/internal/services"
	"gorm.io/datatypes"
)

func (d *Database) Create(ctx context.Context, n services.NewNotification) (*services.StoredNotification, error) {
	record := models.Notification{
		UserID:  n.RecipientID,
		Title:   n.Title,
		Message: n.Message,
		Type:    n.Type,
		Data:    datatypes.JSON(n.Payload),
	}
	if err := d.db.WithContext(ctx).Create(&record).Error; err != nil {
		return nil, err
	}
	return toStored(record), nil
}

// MarkRead помечает уведомление прочитанным. Чужое уведомление считается отсутствующим.
func (d *Database) MarkRead(ctx context.Context, notificationID, userID uuid.UUID) error {
	res := d.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", notificationID, userID).
		Update("is_read", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return services.ErrNotFound
	}
	return nil
}

func (d *Database) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	res := d.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true)
	return res.RowsAffected, res.Error
}

// ListNotifications последние уведомления пользователя, новые первыми.
func (d *Database) ListNotifications(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit int) ([]services.StoredNotification, error) {
	query := d.db.WithContext(ctx).Where("user_id = ?", userID)
	if unreadOnly {
		query = query.Where("is_read = ?", false)
	}

	var records []models.Notification
	if err := query.Order("created_at DESC").Limit(limit).Find(&records).Error; err != nil {
		return nil, err
	}

	out := make([]services.StoredNotification, 0, len(records))
	for _, r := range records {
		out = append(out, *toStored(r))
	}
	return out, nil
}

func (d *Database) DeleteNotification(ctx context.Context, notificationID, userID uuid.UUID) error {
	res := d.db.WithContext(ctx).
		Delete(&models.Notification{}, "id = ? AND user_id = ?", notificationID, userID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return services.ErrNotFound
	}
	return nil
}

func (d *Database) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := d.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	return count, err
}

func toStored(r models.Notification) *services.StoredNotification {
	return &services.StoredNotification{
		ID:        r.ID,
		UserID:    r.UserID,
		Title:     r.Title,
		Message:   r.Message,
		Type:      r.Type,
		Data:      []byte(r.Data),
		IsRead:    r.IsRead,
		CreatedAt: r.CreatedAt,
	}
}

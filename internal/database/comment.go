package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/thereayou/taskflow/internal/models"
)

func (d *Database) AddComment(ctx context.Context, comment *models.Comment) error {
	db := d.db.WithContext(ctx)
	if err := db.Omit("Author").Create(comment).Error; err != nil {
		return err
	}
	return db.First(&comment.Author, "id = ?", comment.AuthorID).Error
}

func (d *Database) ListTaskComments(ctx context.Context, taskID uuid.UUID) ([]models.Comment, error) {
	var comments []models.Comment
	err := d.db.WithContext(ctx).
		Where("task_id = ?", taskID).
		Order("created_at ASC").
		Preload("Author").
		Find(&comments).Error
	return comments, err
}

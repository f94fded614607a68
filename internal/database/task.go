package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/thereayou/taskflow/internal/models"
	"github.com/thereayou/taskflow/internal/services"
	"gorm.io/gorm"
)

func (d *Database) CreateTask(ctx context.Context, task *models.Task) error {
	return d.db.WithContext(ctx).Omit("Project", "Comments").Create(task).Error
}

func (d *Database) GetTask(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	var task models.Task
	if err := d.db.WithContext(ctx).First(&task, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &task, nil
}

func (d *Database) ListProjectTasks(ctx context.Context, projectID uuid.UUID) ([]models.Task, error) {
	var tasks []models.Task
	err := d.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order(`column_id, "order"`).
		Find(&tasks).Error
	return tasks, err
}

// UpdateTask применяет изменения и возвращает задачу после обновления.
func (d *Database) UpdateTask(ctx context.Context, id uuid.UUID, fields map[string]any) (*models.Task, error) {
	var task models.Task
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&task, "id = ?", id).Error; err != nil {
			return err
		}
		if len(fields) == 0 {
			return nil
		}
		if err := tx.Model(&task).Updates(fields).Error; err != nil {
			return err
		}
		return tx.First(&task, "id = ?", id).Error
	})
	if err != nil {
		return nil, notFound(err)
	}
	return &task, nil
}

// MoveTask переносит задачу в колонку и возвращает колонку, из которой она ушла.
func (d *Database) MoveTask(ctx context.Context, id uuid.UUID, columnID string, order int) (*models.Task, string, error) {
	var task models.Task
	var from string
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&task, "id = ?", id).Error; err != nil {
			return err
		}
		from = task.ColumnID
		if err := tx.Model(&task).Updates(map[string]any{"column_id": columnID, "order": order}).Error; err != nil {
			return err
		}
		task.ColumnID = columnID
		task.Order = order
		return nil
	})
	if err != nil {
		return nil, "", notFound(err)
	}
	return &task, from, nil
}

func (d *Database) DeleteTask(ctx context.Context, id uuid.UUID) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.Comment{}, "task_id = ?", id).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Task{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return services.ErrNotFound
		}
		return nil
	})
}

func (d *Database) TaskParticipants(ctx context.Context, taskID uuid.UUID) (*services.TaskParticipants, error) {
	var task models.Task
	err := d.db.WithContext(ctx).
		Select("project_id", "created_by_id", "assignee_id", "title").
		Where("id = ?", taskID).
		Take(&task).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &services.TaskParticipants{
		ProjectID:  task.ProjectID,
		CreatorID:  task.CreatedByID,
		AssigneeID: task.AssigneeID,
		Title:      task.Title,
	}, nil
}

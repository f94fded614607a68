package database

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/thereayou/taskflow/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CreateProject создает проект и запись владельца в project_members.
func (d *Database) CreateProject(ctx context.Context, project *models.Project) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Members").Create(project).Error; err != nil {
			return err
		}
		return tx.Create(&models.ProjectMember{
			UserID:    project.OwnerID,
			ProjectID: project.ID,
			Role:      "OWNER",
			JoinedAt:  time.Now(),
		}).Error
	})
}

func (d *Database) GetProject(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	var project models.Project
	err := d.db.WithContext(ctx).
		Preload("Members.User").
		First(&project, "id = ?", id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &project, nil
}

// ListUserProjects проекты, где пользователь владелец или участник.
func (d *Database) ListUserProjects(ctx context.Context, userID uuid.UUID) ([]models.Project, error) {
	var projects []models.Project
	err := d.db.WithContext(ctx).
		Where("owner_id = ?", userID).
		Or("id IN (?)", d.db.Model(&models.ProjectMember{}).Select("project_id").Where("user_id = ?", userID)).
		Order("created_at DESC").
		Find(&projects).Error
	return projects, err
}

// AddMember добавляет участника или меняет его роль.
func (d *Database) AddMember(ctx context.Context, projectID, userID uuid.UUID, role string) error {
	member := models.ProjectMember{
		UserID:    userID,
		ProjectID: projectID,
		Role:      role,
		JoinedAt:  time.Now(),
	}
	return d.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "project_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"role"}),
	}).Create(&member).Error
}

func (d *Database) RemoveMember(ctx context.Context, projectID, userID uuid.UUID) error {
	res := d.db.WithContext(ctx).
		Delete(&models.ProjectMember{}, "project_id = ? AND user_id = ?", projectID, userID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFound(gorm.ErrRecordNotFound)
	}
	return nil
}

// DeleteProject удаляет проект вместе с задачами, комментариями и участниками.
func (d *Database) DeleteProject(ctx context.Context, id uuid.UUID) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tasks := tx.Model(&models.Task{}).Select("id").Where("project_id = ?", id)
		if err := tx.Delete(&models.Comment{}, "task_id IN (?)", tasks).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.Task{}, "project_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.ProjectMember{}, "project_id = ?", id).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Project{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return notFound(gorm.ErrRecordNotFound)
		}
		return nil
	})
}

func (d *Database) ListProjectsFor(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := d.db.WithContext(ctx).Raw(
		`SELECT id FROM projects WHERE owner_id = ?
		 UNION
		 SELECT project_id FROM project_members WHERE user_id = ?`,
		userID, userID,
	).Scan(&ids).Error
	return ids, err
}

func (d *Database) GetRole(ctx context.Context, userID, projectID uuid.UUID) (string, bool, error) {
	var member models.ProjectMember
	err := d.db.WithContext(ctx).
		Select("role").
		Where("user_id = ? AND project_id = ?", userID, projectID).
		Take(&member).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return member.Role, true, nil
}

func (d *Database) GetOwner(ctx context.Context, projectID uuid.UUID) (uuid.UUID, error) {
	var project models.Project
	err := d.db.WithContext(ctx).
		Select("owner_id").
		Where("id = ?", projectID).
		Take(&project).Error
	if err != nil {
		return uuid.Nil, notFound(err)
	}
	return project.OwnerID, nil
}

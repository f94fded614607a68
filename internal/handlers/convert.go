package handlers

import (
	"github.com/thereayou/taskflow/internal/events"
	"github.com/thereayou/taskflow/internal/models"
	"github.com/thereayou/taskflow/internal/services"
)

func actorOf(u services.UserIdentity) events.Actor {
	return events.Actor{ID: u.ID, Name: u.Name, Email: u.Email}
}

func taskSnapshot(t *models.Task) events.TaskSnapshot {
	return events.TaskSnapshot{
		ID:          t.ID,
		ProjectID:   t.ProjectID,
		ColumnID:    t.ColumnID,
		Title:       t.Title,
		Description: t.Description,
		Priority:    t.Priority,
		Status:      t.Status,
		Order:       t.Order,
		DueDate:     t.DueDate,
		AssigneeID:  t.AssigneeID,
		CreatedByID: t.CreatedByID,
	}
}

func commentSnapshot(c *models.Comment) events.CommentSnapshot {
	return events.CommentSnapshot{
		ID:        c.ID,
		TaskID:    c.TaskID,
		AuthorID:  c.AuthorID,
		Content:   c.Content,
		CreatedAt: c.CreatedAt,
	}
}

package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateTaskRequest struct {
	Title       string     `json:"title" binding:"required,max=200"`
	Description string     `json:"description"`
	ColumnID    string     `json:"column_id" binding:"required"`
	Priority    string     `json:"priority" binding:"omitempty,oneof=LOW MEDIUM HIGH URGENT"`
	Order       int        `json:"order"`
	DueDate     *time.Time `json:"due_date"`
	AssigneeID  *uuid.UUID `json:"assignee_id"`
}

// UpdateTaskRequest частичное обновление: nil поля не меняются.
type UpdateTaskRequest struct {
	Title       *string    `json:"title" binding:"omitempty,max=200"`
	Description *string    `json:"description"`
	Priority    *string    `json:"priority" binding:"omitempty,oneof=LOW MEDIUM HIGH URGENT"`
	Status      *string    `json:"status"`
	DueDate     *time.Time `json:"due_date"`
	AssigneeID  *uuid.UUID `json:"assignee_id"`
	Unassign    bool       `json:"unassign"`
}

type MoveTaskRequest struct {
	ColumnID string `json:"column_id" binding:"required"`
	Order    int    `json:"order"`
}

type CreateCommentRequest struct {
	Content string `json:"content" binding:"required,max=5000"`
}

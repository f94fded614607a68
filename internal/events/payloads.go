package events

import "github.com/google/uuid"

// Исходящие payload'ы. Поле инициатора названо по действию, как ожидает UI.

type TaskCreatedOut struct {
	Task      TaskSnapshot `json:"task"`
	CreatedBy Actor        `json:"createdBy"`
}

type TaskUpdatedOut struct {
	Task      TaskSnapshot `json:"task"`
	Changes   TaskChanges  `json:"changes"`
	UpdatedBy Actor        `json:"updatedBy"`
}

type TaskMovedOut struct {
	TaskID       uuid.UUID `json:"taskId"`
	FromColumnID string    `json:"fromColumnId"`
	ToColumnID   string    `json:"toColumnId"`
	MovedBy      Actor     `json:"movedBy"`
}

type TaskDeletedOut struct {
	TaskID    uuid.UUID `json:"taskId"`
	DeletedBy Actor     `json:"deletedBy"`
}

type TaskAssignedOut struct {
	TaskID     uuid.UUID     `json:"taskId"`
	ProjectID  uuid.UUID     `json:"projectId"`
	Task       *TaskSnapshot `json:"task,omitempty"`
	AssignedBy Actor         `json:"assignedBy"`
}

type CommentAddedOut struct {
	Comment CommentSnapshot `json:"comment"`
	TaskID  uuid.UUID       `json:"taskId"`
	AddedBy Actor           `json:"addedBy"`
}

type CommentReceivedOut struct {
	Comment     CommentSnapshot `json:"comment"`
	TaskID      uuid.UUID       `json:"taskId"`
	CommentedBy Actor           `json:"commentedBy"`
}

// PresenceOut используется для user:online, user:offline, user:joined_project, user:left_project.
type PresenceOut struct {
	User      Actor     `json:"user"`
	ProjectID uuid.UUID `json:"projectId"`
}

type TypingOut struct {
	User      Actor      `json:"user"`
	ProjectID uuid.UUID  `json:"projectId"`
	TaskID    *uuid.UUID `json:"taskId,omitempty"`
}

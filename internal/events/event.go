// Package events описывает доменные события, которые маршрутизируются
// в комнаты проектов и персональные комнаты пользователей.
package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Kind вид доменного события.
type Kind int

const (
	KindTaskCreated Kind = iota + 1
	KindTaskUpdated
	KindTaskMoved
	KindTaskDeleted
	KindCommentAdded
	KindProjectJoined
	KindProjectLeft
	KindPresenceChanged
	KindUserTyping
	KindNotificationRead
)

func (k Kind) String() string {
	switch k {
	case KindTaskCreated:
		return string(TaskCreatedName)
	case KindTaskUpdated:
		return string(TaskUpdatedName)
	case KindTaskMoved:
		return string(TaskMovedName)
	case KindTaskDeleted:
		return string(TaskDeletedName)
	case KindCommentAdded:
		return string(CommentAddedName)
	case KindProjectJoined:
		return string(ProjectJoinedName)
	case KindProjectLeft:
		return string(ProjectLeftName)
	case KindPresenceChanged:
		return "presence:changed"
	case KindUserTyping:
		return string(UserTypingName)
	case KindNotificationRead:
		return string(NotificationReadName)
	default:
		return "unknown"
	}
}

// Actor инициатор события в том виде, в каком его видят другие клиенты.
type Actor struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

// DomainEvent закрытое объединение: реализуют только типы этого пакета.
type DomainEvent interface {
	Kind() Kind
	Origin() Actor
	Project() uuid.UUID
	isDomainEvent()
}

// Base общие поля всех событий.
type Base struct {
	Actor     Actor
	ProjectID uuid.UUID
	At        time.Time
}

func (b Base) Origin() Actor      { return b.Actor }
func (b Base) Project() uuid.UUID { return b.ProjectID }
func (Base) isDomainEvent()       {}

// TaskSnapshot состояние задачи, которое рассылается участникам проекта.
type TaskSnapshot struct {
	ID          uuid.UUID  `json:"id"`
	ProjectID   uuid.UUID  `json:"projectId"`
	ColumnID    string     `json:"columnId"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Priority    string     `json:"priority,omitempty"`
	Status      string     `json:"status,omitempty"`
	Order       int        `json:"order"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	AssigneeID  *uuid.UUID `json:"assigneeId,omitempty"`
	CreatedByID uuid.UUID  `json:"createdById"`
}

// TaskChanges поля, измененные в задаче. AssigneeID задан, только если исполнитель сменился.
type TaskChanges struct {
	AssigneeID *uuid.UUID      `json:"assigneeId,omitempty"`
	Fields     json.RawMessage `json:"fields,omitempty"`
}

type CommentSnapshot struct {
	ID        uuid.UUID `json:"id"`
	TaskID    uuid.UUID `json:"taskId"`
	AuthorID  uuid.UUID `json:"authorId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

type TaskCreated struct {
	Base
	Task TaskSnapshot
}

type TaskUpdated struct {
	Base
	Task    TaskSnapshot
	Changes TaskChanges
}

type TaskMoved struct {
	Base
	TaskID       uuid.UUID
	FromColumnID string
	ToColumnID   string
}

type TaskDeleted struct {
	Base
	TaskID uuid.UUID
}

type CommentAdded struct {
	Base
	TaskID  uuid.UUID
	Comment CommentSnapshot
}

type ProjectJoined struct{ Base }

type ProjectLeft struct{ Base }

type PresenceChanged struct {
	Base
	Online bool
}

type UserTyping struct {
	Base
	TaskID *uuid.UUID
}

// NotificationRead не относится к проекту: ProjectID пустой.
type NotificationRead struct {
	Base
	NotificationID uuid.UUID
}

func (TaskCreated) Kind() Kind      { return KindTaskCreated }
func (TaskUpdated) Kind() Kind      { return KindTaskUpdated }
func (TaskMoved) Kind() Kind        { return KindTaskMoved }
func (TaskDeleted) Kind() Kind      { return KindTaskDeleted }
func (CommentAdded) Kind() Kind     { return KindCommentAdded }
func (ProjectJoined) Kind() Kind    { return KindProjectJoined }
func (ProjectLeft) Kind() Kind      { return KindProjectLeft }
func (PresenceChanged) Kind() Kind  { return KindPresenceChanged }
func (UserTyping) Kind() Kind       { return KindUserTyping }
func (NotificationRead) Kind() Kind { return KindNotificationRead }

// AssigneeChange возвращает нового исполнителя, если событие его несет.
func AssigneeChange(ev DomainEvent) (uuid.UUID, bool) {
	var id *uuid.UUID
	switch e := ev.(type) {
	case TaskCreated:
		id = e.Task.AssigneeID
	case TaskUpdated:
		id = e.Changes.AssigneeID
	}
	if id == nil || *id == uuid.Nil {
		return uuid.Nil, false
	}
	return *id, true
}

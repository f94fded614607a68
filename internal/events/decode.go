package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	ErrUnknownEvent   = errors.New("unknown event")
	ErrInvalidPayload = errors.New("invalid event payload")
)

type projectRef struct {
	ProjectID uuid.UUID `json:"projectId"`
}

type taskCreatedIn struct {
	projectRef
	Task TaskSnapshot `json:"task"`
}

type taskUpdatedIn struct {
	projectRef
	Task    TaskSnapshot `json:"task"`
	Changes struct {
		AssigneeID *uuid.UUID      `json:"assigneeId"`
		Fields     json.RawMessage `json:"fields"`
	} `json:"changes"`
}

type taskMovedIn struct {
	projectRef
	TaskID       uuid.UUID `json:"taskId"`
	FromColumnID string    `json:"fromColumnId"`
	ToColumnID   string    `json:"toColumnId"`
}

type taskDeletedIn struct {
	projectRef
	TaskID uuid.UUID `json:"taskId"`
}

type commentAddedIn struct {
	projectRef
	TaskID  uuid.UUID       `json:"taskId"`
	Comment CommentSnapshot `json:"comment"`
}

type typingIn struct {
	projectRef
	TaskID *uuid.UUID `json:"taskId"`
}

type notificationReadIn struct {
	NotificationID uuid.UUID `json:"notificationId"`
}

// Decode превращает входящее сообщение клиента в доменное событие.
// Инициатор всегда берется из соединения, а не из payload.
func Decode(name Name, actor Actor, data json.RawMessage, now time.Time) (DomainEvent, error) {
	base := func(projectID uuid.UUID) (Base, error) {
		if projectID == uuid.Nil {
			return Base{}, fmt.Errorf("%w: %s: projectId is required", ErrInvalidPayload, name)
		}
		return Base{Actor: actor, ProjectID: projectID, At: now}, nil
	}

	switch name {
	case TaskCreatedName:
		var in taskCreatedIn
		if err := unmarshal(name, data, &in); err != nil {
			return nil, err
		}
		b, err := base(in.ProjectID)
		if err != nil {
			return nil, err
		}
		in.Task.ProjectID = in.ProjectID
		return TaskCreated{Base: b, Task: in.Task}, nil

	case TaskUpdatedName:
		var in taskUpdatedIn
		if err := unmarshal(name, data, &in); err != nil {
			return nil, err
		}
		b, err := base(in.ProjectID)
		if err != nil {
			return nil, err
		}
		in.Task.ProjectID = in.ProjectID
		return TaskUpdated{Base: b, Task: in.Task, Changes: TaskChanges{
			AssigneeID: in.Changes.AssigneeID,
			Fields:     in.Changes.Fields,
		}}, nil

	case TaskMovedName:
		var in taskMovedIn
		if err := unmarshal(name, data, &in); err != nil {
			return nil, err
		}
		b, err := base(in.ProjectID)
		if err != nil {
			return nil, err
		}
		return TaskMoved{Base: b, TaskID: in.TaskID, FromColumnID: in.FromColumnID, ToColumnID: in.ToColumnID}, nil

	case TaskDeletedName:
		var in taskDeletedIn
		if err := unmarshal(name, data, &in); err != nil {
			return nil, err
		}
		b, err := base(in.ProjectID)
		if err != nil {
			return nil, err
		}
		return TaskDeleted{Base: b, TaskID: in.TaskID}, nil

	case CommentAddedName:
		var in commentAddedIn
		if err := unmarshal(name, data, &in); err != nil {
			return nil, err
		}
		b, err := base(in.ProjectID)
		if err != nil {
			return nil, err
		}
		if in.TaskID == uuid.Nil {
			return nil, fmt.Errorf("%w: %s: taskId is required", ErrInvalidPayload, name)
		}
		in.Comment.TaskID = in.TaskID
		in.Comment.AuthorID = actor.ID
		return CommentAdded{Base: b, TaskID: in.TaskID, Comment: in.Comment}, nil

	case ProjectJoinedName, ProjectLeftName, UserOnlineName:
		var in projectRef
		if err := unmarshal(name, data, &in); err != nil {
			return nil, err
		}
		b, err := base(in.ProjectID)
		if err != nil {
			return nil, err
		}
		switch name {
		case ProjectJoinedName:
			return ProjectJoined{Base: b}, nil
		case ProjectLeftName:
			return ProjectLeft{Base: b}, nil
		default:
			return PresenceChanged{Base: b, Online: true}, nil
		}

	case UserTypingName:
		var in typingIn
		if err := unmarshal(name, data, &in); err != nil {
			return nil, err
		}
		b, err := base(in.ProjectID)
		if err != nil {
			return nil, err
		}
		return UserTyping{Base: b, TaskID: in.TaskID}, nil

	case NotificationReadName:
		var in notificationReadIn
		if err := unmarshal(name, data, &in); err != nil {
			return nil, err
		}
		if in.NotificationID == uuid.Nil {
			return nil, fmt.Errorf("%w: %s: notificationId is required", ErrInvalidPayload, name)
		}
		return NotificationRead{Base: Base{Actor: actor, At: now}, NotificationID: in.NotificationID}, nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, name)
}

func unmarshal(name Name, data json.RawMessage, v any) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: %s: empty payload", ErrInvalidPayload, name)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidPayload, name, err)
	}
	return nil
}

// Package realtime раздает доменные события подключенным клиентам.
//
// Любое событие, подразумевающее изменение, сначала проходит через
// access.Guard. HTTP обработчики и websocket соединения используют один
// и тот же Router, поэтому проверки прав на двух путях не расходятся.
package realtime

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/thereayou/taskflow/internal/access"
	"github.com/thereayou/taskflow/internal/events"
	"github.com/thereayou/taskflow/internal/models"
	"github.com/thereayou/taskflow/internal/services"
	"github.com/thereayou/taskflow/internal/websocket"
	"go.uber.org/zap"
)

// ErrPartialDelivery рассылка выполнена, но часть уведомлений не сохранилась.
var ErrPartialDelivery = errors.New("event delivered partially")

const commentPreviewLen = 100

// RequiredLevel уровень доступа для вида события. false означает, что
// проверка по проекту не нужна.
func RequiredLevel(kind events.Kind) (access.Role, bool) {
	switch kind {
	case events.KindTaskCreated, events.KindTaskUpdated, events.KindTaskMoved, events.KindCommentAdded:
		return access.RoleMember, true
	case events.KindTaskDeleted:
		return access.RoleManager, true
	case events.KindProjectJoined, events.KindPresenceChanged, events.KindUserTyping:
		return access.RoleViewer, true
	default:
		return access.RoleNone, false
	}
}

type Router struct {
	hub      *websocket.Hub
	guard    *access.Guard
	tasks    services.TaskStore
	sink     services.NotificationSink
	notifier *Notifier
	log      *zap.Logger
	now      func() time.Time
}

func NewRouter(hub *websocket.Hub, guard *access.Guard, tasks services.TaskStore, sink services.NotificationSink, notifier *Notifier, logger *zap.Logger) *Router {
	return &Router{
		hub:      hub,
		guard:    guard,
		tasks:    tasks,
		sink:     sink,
		notifier: notifier,
		log:      logger.Named("router"),
		now:      time.Now,
	}
}

// Publish проверяет права и раздает событие. origin соединение инициатора,
// оно не получает собственное эхо; uuid.Nil, если инициатор не подключен.
// Отказ возвращается как *access.Denial. Событие считается уже сохраненным:
// данные задачи берутся из него без перепроверки.
func (r *Router) Publish(ctx context.Context, ev events.DomainEvent, origin uuid.UUID) error {
	return r.publish(ctx, ev, origin, false)
}

// publish общий путь. fromSocket означает, что данные события пришли от
// клиента и адресные побочные эффекты сверяются с хранилищем.
func (r *Router) publish(ctx context.Context, ev events.DomainEvent, origin uuid.UUID, fromSocket bool) error {
	actor := ev.Origin()
	origin = r.ownConnection(origin, actor.ID)

	if level, ok := RequiredLevel(ev.Kind()); ok {
		if err := r.guard.Require(ctx, actor.ID, ev.Project(), level); err != nil {
			return err
		}
	}

	room := websocket.ProjectRoom(ev.Project())

	switch e := ev.(type) {
	case events.TaskCreated:
		if err := r.broadcast(room, events.TaskCreatedName, events.TaskCreatedOut{Task: e.Task, CreatedBy: actor}, origin); err != nil {
			return err
		}
		return r.assign(ctx, ev, e.Task.ID, e.Task.Title, &e.Task, fromSocket)

	case events.TaskUpdated:
		if err := r.broadcast(room, events.TaskUpdatedName, events.TaskUpdatedOut{Task: e.Task, Changes: e.Changes, UpdatedBy: actor}, origin); err != nil {
			return err
		}
		return r.assign(ctx, ev, e.Task.ID, e.Task.Title, &e.Task, fromSocket)

	case events.TaskMoved:
		return r.broadcast(room, events.TaskMovedName, events.TaskMovedOut{
			TaskID:       e.TaskID,
			FromColumnID: e.FromColumnID,
			ToColumnID:   e.ToColumnID,
			MovedBy:      actor,
		}, origin)

	case events.TaskDeleted:
		return r.broadcast(room, events.TaskDeletedName, events.TaskDeletedOut{TaskID: e.TaskID, DeletedBy: actor}, origin)

	case events.CommentAdded:
		return r.commentAdded(ctx, e, origin)

	case events.ProjectJoined:
		frame, err := websocket.Encode(events.UserJoinedProjectName, events.PresenceOut{User: actor, ProjectID: e.ProjectID})
		if err != nil {
			return err
		}
		for _, connID := range r.targets(origin, actor.ID) {
			if _, err := r.hub.Join(connID, room, frame); err != nil {
				r.log.Debug("join skipped", zap.Stringer("conn", connID), zap.Error(err))
			}
		}
		return nil

	case events.ProjectLeft:
		frame, err := websocket.Encode(events.UserLeftProjectName, events.PresenceOut{User: actor, ProjectID: e.ProjectID})
		if err != nil {
			return err
		}
		for _, connID := range r.targets(origin, actor.ID) {
			if _, err := r.hub.Leave(connID, room, frame); err != nil {
				r.log.Debug("leave skipped", zap.Stringer("conn", connID), zap.Error(err))
			}
		}
		return nil

	case events.PresenceChanged:
		name := events.UserOfflineName
		if e.Online {
			name = events.UserOnlineName
		}
		return r.broadcast(room, name, events.PresenceOut{User: actor, ProjectID: e.ProjectID}, origin)

	case events.UserTyping:
		return r.broadcast(room, events.UserTypingName, events.TypingOut{User: actor, ProjectID: e.ProjectID, TaskID: e.TaskID}, origin)

	case events.NotificationRead:
		return r.sink.MarkRead(ctx, e.NotificationID, actor.ID)
	}

	return fmt.Errorf("%w: %s", events.ErrUnknownEvent, ev.Kind())
}

// HandleMessage путь событий от websocket клиента. Отказ в доступе
// отбрасывается молча: ни рассылки, ни кадра с ошибкой.
func (r *Router) HandleMessage(ctx context.Context, client *websocket.Client, msg *websocket.Message) error {
	ev, err := events.Decode(msg.Type, client.Actor(), msg.Data, r.now())
	if err != nil {
		return err
	}

	err = r.publish(ctx, ev, client.ID, true)
	switch {
	case err == nil:
	case errors.Is(err, access.ErrForbidden), errors.Is(err, services.ErrNotFound):
		r.log.Debug("socket event rejected",
			zap.Stringer("conn", client.ID),
			zap.Stringer("user", client.UserID()),
			zap.Stringer("kind", ev.Kind()),
			zap.Error(err),
		)
	default:
		r.log.Error("socket event failed",
			zap.Stringer("conn", client.ID),
			zap.Stringer("kind", ev.Kind()),
			zap.Error(err),
		)
	}
	return nil
}

func (r *Router) commentAdded(ctx context.Context, e events.CommentAdded, origin uuid.UUID) error {
	task, err := r.tasks.TaskParticipants(ctx, e.TaskID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return &access.Denial{Reason: access.NotAMember, Required: access.RoleMember}
		}
		return fmt.Errorf("lookup task participants: %w", err)
	}
	// Задача из чужого проекта
	if task.ProjectID != e.ProjectID {
		return &access.Denial{Reason: access.NotAMember, Required: access.RoleMember}
	}

	actor := e.Origin()
	room := websocket.ProjectRoom(e.ProjectID)
	if err := r.broadcast(room, events.CommentAddedName, events.CommentAddedOut{Comment: e.Comment, TaskID: e.TaskID, AddedBy: actor}, origin); err != nil {
		return err
	}

	title := "New Comment"
	message := fmt.Sprintf("%s commented on task %q: %q", actor.Name, task.Title, preview(e.Comment.Content))
	payload := map[string]uuid.UUID{"taskId": e.TaskID, "projectId": e.ProjectID, "commenterId": actor.ID}

	// Каждый участник получает не больше одного уведомления на комментарий
	var errs []error
	if task.AssigneeID != nil && *task.AssigneeID != actor.ID {
		frame, err := websocket.Encode(events.CommentReceivedName, events.CommentReceivedOut{Comment: e.Comment, TaskID: e.TaskID, CommentedBy: actor})
		if err != nil {
			return err
		}
		r.hub.SendToUser(*task.AssigneeID, frame)
		if _, err := r.notifier.Notify(ctx, *task.AssigneeID, title, message, models.NotificationCommentAdded, payload); err != nil {
			errs = append(errs, err)
		}
	}
	if task.CreatorID != actor.ID && (task.AssigneeID == nil || task.CreatorID != *task.AssigneeID) {
		if _, err := r.notifier.Notify(ctx, task.CreatorID, title, message, models.NotificationCommentAdded, payload); err != nil {
			errs = append(errs, err)
		}
	}
	return partial(errs)
}

// assign доставляет task:assigned новому исполнителю через его персональную
// комнату, даже если он не состоит в комнате проекта.
func (r *Router) assign(ctx context.Context, ev events.DomainEvent, taskID uuid.UUID, taskTitle string, task *events.TaskSnapshot, verify bool) error {
	assignee, ok := events.AssigneeChange(ev)
	actor := ev.Origin()
	if !ok || assignee == actor.ID {
		return nil
	}
	if verify {
		title, ok, err := r.storedAssignment(ctx, ev.Project(), taskID, assignee)
		if err != nil {
			return err
		}
		if !ok {
			r.log.Debug("unconfirmed assignment skipped",
				zap.Stringer("user", actor.ID),
				zap.Stringer("task", taskID),
				zap.Stringer("assignee", assignee),
			)
			return nil
		}
		taskTitle = title
	}

	frame, err := websocket.Encode(events.TaskAssignedName, events.TaskAssignedOut{
		TaskID:     taskID,
		ProjectID:  ev.Project(),
		Task:       task,
		AssignedBy: actor,
	})
	if err != nil {
		return err
	}
	r.hub.SendToUser(assignee, frame)

	_, err = r.notifier.Notify(ctx, assignee,
		"New Task Assigned",
		fmt.Sprintf("You have been assigned to: %s", taskTitle),
		models.NotificationTaskAssigned,
		map[string]uuid.UUID{"taskId": taskID, "projectId": ev.Project(), "assignerId": actor.ID},
	)
	if err != nil {
		return partial([]error{err})
	}
	return nil
}

// storedAssignment подтверждает назначение по хранилищу: задача существует,
// принадлежит проекту и уже назначена assignee. Возвращает сохраненное название.
func (r *Router) storedAssignment(ctx context.Context, projectID, taskID, assignee uuid.UUID) (string, bool, error) {
	task, err := r.tasks.TaskParticipants(ctx, taskID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("lookup task participants: %w", err)
	}
	if task.ProjectID != projectID || task.AssigneeID == nil || *task.AssigneeID != assignee {
		return "", false, nil
	}
	return task.Title, true, nil
}

func (r *Router) broadcast(room websocket.RoomID, name events.Name, payload any, exclude uuid.UUID) error {
	frame, err := websocket.Encode(name, payload)
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	r.hub.Broadcast(room, frame, exclude)
	return nil
}

// ownConnection отбрасывает origin, если соединение принадлежит другому пользователю.
func (r *Router) ownConnection(origin, actorID uuid.UUID) uuid.UUID {
	if origin == uuid.Nil {
		return uuid.Nil
	}
	client, ok := r.hub.Client(origin)
	if !ok || client.UserID() != actorID {
		return uuid.Nil
	}
	return origin
}

// targets соединения, чье членство меняет project:joined / project:left.
// Без origin меняются все соединения пользователя.
func (r *Router) targets(origin, userID uuid.UUID) []uuid.UUID {
	if origin != uuid.Nil {
		return []uuid.UUID{origin}
	}
	clients := r.hub.UserConnections(userID)
	ids := make([]uuid.UUID, 0, len(clients))
	for _, c := range clients {
		ids = append(ids, c.ID)
	}
	return ids
}

func partial(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrPartialDelivery, errors.Join(errs...))
}

func preview(s string) string {
	if utf8.RuneCountInString(s) <= commentPreviewLen {
		return s
	}
	return string([]rune(s)[:commentPreviewLen]) + "..."
}

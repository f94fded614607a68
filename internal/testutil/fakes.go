// Package testutil содержит in-memory реализации внешних сервисов для тестов.
package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/thereayou/taskflow/internal/services"
)

// Directory токен -> пользователь.
type Directory struct {
	mu     sync.Mutex
	tokens map[string]services.UserIdentity
	Err    error
}

func NewDirectory() *Directory {
	return &Directory{tokens: make(map[string]services.UserIdentity)}
}

// AddUser регистрирует пользователя и возвращает его токен.
func (d *Directory) AddUser(name string) (services.UserIdentity, string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	u := services.UserIdentity{ID: uuid.New(), Name: name, Email: name + "@example.com"}
	token := "token-" + u.ID.String()
	d.tokens[token] = u
	return u, token
}

func (d *Directory) Resolve(_ context.Context, token string) (*services.UserIdentity, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.Err != nil {
		return nil, d.Err
	}
	if token == "" {
		return nil, services.ErrMissingToken
	}
	u, ok := d.tokens[token]
	if !ok {
		return nil, services.ErrInvalidToken
	}
	return &u, nil
}

// Memberships проекты, владельцы и роли.
type Memberships struct {
	mu     sync.Mutex
	owners map[uuid.UUID]uuid.UUID
	roles  map[uuid.UUID]map[uuid.UUID]string // project -> user -> role

	// FailListTimes число первых вызовов ListProjectsFor, которые вернут ListErr.
	FailListTimes int
	ListErr       error
	ListCalls     int
}

func NewMemberships() *Memberships {
	return &Memberships{
		owners: make(map[uuid.UUID]uuid.UUID),
		roles:  make(map[uuid.UUID]map[uuid.UUID]string),
	}
}

func (m *Memberships) AddProject(ownerID uuid.UUID) uuid.UUID {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := uuid.New()
	m.owners[id] = ownerID
	m.roles[id] = make(map[uuid.UUID]string)
	return id
}

func (m *Memberships) SetRole(userID, projectID uuid.UUID, role string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.roles[projectID][userID] = role
}

func (m *Memberships) RemoveMember(userID, projectID uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.roles[projectID], userID)
}

func (m *Memberships) ListProjectsFor(_ context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ListCalls++
	if m.FailListTimes > 0 {
		m.FailListTimes--
		return nil, m.ListErr
	}

	var ids []uuid.UUID
	for projectID, owner := range m.owners {
		if _, member := m.roles[projectID][userID]; owner == userID || member {
			ids = append(ids, projectID)
		}
	}
	return ids, nil
}

func (m *Memberships) GetRole(_ context.Context, userID, projectID uuid.UUID) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	role, ok := m.roles[projectID][userID]
	return role, ok, nil
}

func (m *Memberships) GetOwner(_ context.Context, projectID uuid.UUID) (uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	owner, ok := m.owners[projectID]
	if !ok {
		return uuid.Nil, services.ErrNotFound
	}
	return owner, nil
}

// Sink сохраняет уведомления в памяти.
type Sink struct {
	mu      sync.Mutex
	Created []services.StoredNotification
	Read    map[uuid.UUID]uuid.UUID // notification -> user
	Err     error
	ReadErr error
}

func NewSink() *Sink {
	return &Sink{Read: make(map[uuid.UUID]uuid.UUID)}
}

func (s *Sink) Create(_ context.Context, n services.NewNotification) (*services.StoredNotification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Err != nil {
		return nil, s.Err
	}
	stored := services.StoredNotification{
		ID:        uuid.New(),
		UserID:    n.RecipientID,
		Title:     n.Title,
		Message:   n.Message,
		Type:      n.Type,
		Data:      n.Payload,
		CreatedAt: time.Now(),
	}
	s.Created = append(s.Created, stored)
	return &stored, nil
}

func (s *Sink) MarkRead(_ context.Context, notificationID, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ReadErr != nil {
		return s.ReadErr
	}
	s.Read[notificationID] = userID
	return nil
}

// For возвращает уведомления, созданные для пользователя.
func (s *Sink) For(userID uuid.UUID) []services.StoredNotification {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []services.StoredNotification
	for _, n := range s.Created {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out
}

// Tasks участники задач.
type Tasks struct {
	mu    sync.Mutex
	tasks map[uuid.UUID]services.TaskParticipants
}

func NewTasks() *Tasks {
	return &Tasks{tasks: make(map[uuid.UUID]services.TaskParticipants)}
}

func (t *Tasks) Add(p services.TaskParticipants) uuid.UUID {
	t.mu.Lock()
	defer t.mu.Unlock()
	id := uuid.New()
	t.tasks[id] = p
	return id
}

func (t *Tasks) TaskParticipants(_ context.Context, taskID uuid.UUID) (*services.TaskParticipants, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, ok := t.tasks[taskID]
	if !ok {
		return nil, services.ErrNotFound
	}
	return &p, nil
}

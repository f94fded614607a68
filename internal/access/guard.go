package access

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/thereayou/taskflow/internal/services"
)

// Decision результат проверки доступа: Allow либо Deny(Reason).
type Decision struct {
	Allowed bool
	Reason  DenyReason
	Held    Role
}

func Allow(held Role) Decision { return Decision{Allowed: true, Held: held} }

func Deny(reason DenyReason, held Role) Decision {
	return Decision{Reason: reason, Held: held}
}

// Err возвращает *Denial для отказа и nil для разрешения.
func (d Decision) Err(required Role) error {
	if d.Allowed {
		return nil
	}
	return &Denial{Reason: d.Reason, Required: required, Held: d.Held}
}

// Guard единая точка проверки прав для HTTP слоя и realtime слоя.
type Guard struct {
	store services.MembershipStore
}

func NewGuard(store services.MembershipStore) *Guard {
	return &Guard{store: store}
}

// Authorize проверяет, может ли actor действовать в проекте с уровнем required.
// Владелец проекта проходит всегда, без обращения к членству.
// Ошибка возвращается только при недоступности хранилища.
func (g *Guard) Authorize(ctx context.Context, actorID, projectID uuid.UUID, required Role) (Decision, error) {
	ownerID, err := g.store.GetOwner(ctx, projectID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return Deny(NotAMember, RoleNone), nil
		}
		return Decision{}, fmt.Errorf("lookup project owner: %w", err)
	}
	if ownerID == actorID {
		return Allow(RoleOwner), nil
	}

	raw, found, err := g.store.GetRole(ctx, actorID, projectID)
	if err != nil {
		return Decision{}, fmt.Errorf("lookup membership: %w", err)
	}
	if !found {
		return Deny(NotAMember, RoleNone), nil
	}

	held, _ := ParseRole(raw)
	if !Satisfies(held, required) {
		return Deny(InsufficientRole, held), nil
	}
	return Allow(held), nil
}

// Require то же, что Authorize, но отказ возвращается ошибкой *Denial.
func (g *Guard) Require(ctx context.Context, actorID, projectID uuid.UUID, required Role) error {
	d, err := g.Authorize(ctx, actorID, projectID, required)
	if err != nil {
		return err
	}
	return d.Err(required)
}

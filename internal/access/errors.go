package access

import (
	"errors"
	"fmt"
)

// ErrForbidden общий признак отказа в доступе.
var ErrForbidden = errors.New("forbidden")

// DenyReason причина отказа.
type DenyReason string

const (
	NotAMember       DenyReason = "not_a_member"
	InsufficientRole DenyReason = "insufficient_role"
)

// Denial ошибка авторизации. errors.Is(d, ErrForbidden) == true.
type Denial struct {
	Reason   DenyReason
	Required Role
	Held     Role
}

func (d *Denial) Error() string {
	if d.Reason == InsufficientRole {
		return fmt.Sprintf("forbidden: role %s does not satisfy %s", d.Held, d.Required)
	}
	return "forbidden: not a member of this project"
}

func (d *Denial) Is(target error) bool {
	return target == ErrForbidden
}

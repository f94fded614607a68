package access

import "strings"

// Role роль пользователя в проекте. Порядок: OWNER > MANAGER > MEMBER > VIEWER.
type Role string

const (
	RoleNone    Role = ""
	RoleViewer  Role = "VIEWER"
	RoleMember  Role = "MEMBER"
	RoleManager Role = "MANAGER"
	RoleOwner   Role = "OWNER"
)

// Rank возвращает числовой ранг роли. Отсутствие роли и неизвестные значения ранжируются как 0.
func Rank(r Role) int {
	switch r {
	case RoleOwner:
		return 4
	case RoleManager:
		return 3
	case RoleMember:
		return 2
	case RoleViewer:
		return 1
	default:
		return 0
	}
}

// Satisfies сообщает, достаточно ли роли held для уровня required.
// Роль с рангом 0 не удовлетворяет ничему, даже RoleNone.
func Satisfies(held, required Role) bool {
	h := Rank(held)
	return h > 0 && h >= Rank(required)
}

// ParseRole разбирает роль из хранилища без учета регистра.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	if Rank(r) == 0 {
		return RoleNone, false
	}
	return r, true
}

func (r Role) String() string {
	if r == RoleNone {
		return "NONE"
	}
	return string(r)
}

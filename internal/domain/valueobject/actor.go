package valueobject

import (
	"github.com/google/uuid"

	"github.com/ignatzorin/lending-backend/internal/pkg/apperror"
)

type Role string

const (
	RoleSuperAdmin Role = "SUPER_ADMIN"
	RoleManager    Role = "MANAGER"
	RoleStaff      Role = "STAFF"
	RoleBorrower   Role = "BORROWER"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleSuperAdmin, RoleManager, RoleStaff, RoleBorrower:
		return true
	}
	return false
}

// IsStaff: любой сотрудник склада.
func (r Role) IsStaff() bool {
	return r == RoleSuperAdmin || r == RoleManager || r == RoleStaff
}

// IsElevated: сотрудники с расширенными правами (удаление, ручная корректировка репутации).
func (r Role) IsElevated() bool {
	return r == RoleSuperAdmin || r == RoleManager
}

func NewRole(role string) (Role, error) {
	r := Role(role)
	if !r.IsValid() {
		return "", apperror.Validation("некорректная роль пользователя")
	}
	return r, nil
}

// Actor: уже аутентифицированный пользователь, от имени которого выполняется операция.
type Actor struct {
	ID   uuid.UUID
	Role Role
}

func NewActor(id uuid.UUID, role string) (Actor, error) {
	if id == uuid.Nil {
		return Actor{}, apperror.ErrUnauthorized
	}
	r, err := NewRole(role)
	if err != nil {
		return Actor{}, apperror.Forbidden("неизвестная роль пользователя")
	}
	return Actor{ID: id, Role: r}, nil
}

func (a Actor) IsStaff() bool {
	return a.Role.IsStaff()
}

func (a Actor) IsElevated() bool {
	return a.Role.IsElevated()
}

// Owns проверяет, что актор — владелец записи.
func (a Actor) Owns(userID uuid.UUID) bool {
	return a.ID == userID
}

// CanAccess: владелец или любой сотрудник.
func (a Actor) CanAccess(ownerID uuid.UUID) bool {
	return a.Owns(ownerID) || a.IsStaff()
}

// IsOwnerNotStaff: владелец без служебной роли; именно к нему применяются штрафы и повторное согласование.
func (a Actor) IsOwnerNotStaff(ownerID uuid.UUID) bool {
	return a.Owns(ownerID) && !a.IsStaff()
}

package service

import (
	"errors"

	"gorm.io/gorm"

	"UEvents/internal/model"
	"UEvents/internal/pkg"
)

// Actor is the authenticated caller. The zero value is anonymous.
type Actor struct {
	UserID string
	Role   model.Role
	Locale string
}

func ActorFromIdentity(id pkg.Identity) Actor {
	return Actor{UserID: id.UserID, Role: model.Role(id.Role), Locale: id.Locale}
}

func (a Actor) Anonymous() bool { return a.UserID == "" }

// requireRole rejects anonymous callers with Unauthorized and other roles with Forbidden.
func (a Actor) requireRole(role model.Role) error {
	if a.Anonymous() {
		return pkg.Unauthorized("login required")
	}
	if a.Role != role {
		return pkg.Forbidden("requires a " + string(role) + " account")
	}
	return nil
}

func isNotFound(err error) bool { return errors.Is(err, gorm.ErrRecordNotFound) }

func isDuplicate(err error) bool { return errors.Is(err, gorm.ErrDuplicatedKey) }

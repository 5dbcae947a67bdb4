// Package session describes the authenticated caller of a request.
package session

import (
	"errors"

	"github.com/google/uuid"
)

// Role is the access level carried by a session.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleSeller Role = "seller"
)

// ErrNoSession is returned when an operation requires an authenticated caller.
var ErrNoSession = errors.New("no active session")

// Session is the caller identity passed explicitly to services.
type Session struct {
	UserID   uuid.UUID
	Username string
	Role     Role
}

// IsZero reports whether s carries no identity.
func (s Session) IsZero() bool {
	return s.UserID == uuid.Nil && s.Username == ""
}

// IsAdmin reports whether the session has administrative rights.
func (s Session) IsAdmin() bool {
	return s.Role == RoleAdmin
}

// Actor is the name recorded in audit fields such as sold_by or started_by.
func (s Session) Actor() string {
	if s.Username != "" {
		return s.Username
	}
	if s.UserID != uuid.Nil {
		return s.UserID.String()
	}
	return "system"
}

// ParseRole maps a claim value to a Role. Unknown values become RoleSeller.
func ParseRole(v string) Role {
	switch Role(v) {
	case RoleAdmin:
		return RoleAdmin
	default:
		return RoleSeller
	}
}

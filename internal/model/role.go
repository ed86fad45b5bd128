package model

import (
	"fmt"

	"github.com/google/uuid"
)

// Role is the closed set of caller kinds handed to us by the identity layer.
type Role int

const (
	RoleStudent Role = iota + 1
	RoleOrganizer
	RoleAdmin
)

// Capability is an action a role may or may not perform.
type Capability int

const (
	CapManageRooms Capability = iota + 1
	CapScheduleEvents
	CapRegister
	CapViewRoster
	CapMarkAbsent
)

var roleCapabilities = map[Role][]Capability{
	RoleStudent:   {CapRegister},
	RoleOrganizer: {CapScheduleEvents, CapViewRoster, CapMarkAbsent},
	RoleAdmin:     {CapManageRooms, CapViewRoster, CapMarkAbsent},
}

// Can reports whether the role grants capability c.
func (r Role) Can(c Capability) bool {
	for _, have := range roleCapabilities[r] {
		if have == c {
			return true
		}
	}
	return false
}

func (r Role) String() string {
	switch r {
	case RoleStudent:
		return "student"
	case RoleOrganizer:
		return "organizer"
	case RoleAdmin:
		return "admin"
	}
	return fmt.Sprintf("Role(%d)", int(r))
}

// ParseRole converts a role tag into a Role.
func ParseRole(s string) (Role, error) {
	switch s {
	case "student":
		return RoleStudent, nil
	case "organizer":
		return RoleOrganizer, nil
	case "admin":
		return RoleAdmin, nil
	}
	return 0, fmt.Errorf("unknown role %q", s)
}

// Actor is the authenticated caller of an operation.
type Actor struct {
	ID   uuid.UUID
	Role Role
}

// Owns reports whether a is the organizer of e. Admins own nothing.
func (a Actor) Owns(e *Event) bool {
	return a.Role == RoleOrganizer && e.OrganizerID == a.ID
}

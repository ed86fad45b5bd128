// Package repository implements persistence for rooms, events and
// registrations. The service layer depends only on the Store interface;
// PostgreSQL, SQLite and in-memory adapters implement it.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/Shivanand-hulikatti/agencei/internal/model"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// ErrAlreadyRegistered is returned when the (registrant, event) pair already
// has a registration.
var ErrAlreadyRegistered = errors.New("registrant already registered for this event")

// ErrDuplicateToken is returned when an event's attendance token is taken.
var ErrDuplicateToken = errors.New("attendance token already in use")

// ErrDuplicateName is returned when another room already has the name.
var ErrDuplicateName = errors.New("room name already in use")

// Queries is the set of reads and writes the core needs.
type Queries interface {
	// CreateRoom and UpdateRoom return ErrDuplicateName if the name is taken.
	CreateRoom(ctx context.Context, room *model.Room) error
	UpdateRoom(ctx context.Context, room *model.Room) error
	GetRoom(ctx context.Context, id uuid.UUID) (*model.Room, error)
	ListRooms(ctx context.Context, activeOnly bool) ([]model.Room, error)

	// CreateEvent returns ErrDuplicateToken if the token is taken.
	CreateEvent(ctx context.Context, event *model.Event) error
	UpdateEvent(ctx context.Context, event *model.Event) error
	// DeleteEvent also removes the event's registrations.
	DeleteEvent(ctx context.Context, id uuid.UUID) error
	GetEvent(ctx context.Context, id uuid.UUID) (*model.Event, error)
	GetEventByToken(ctx context.Context, token string) (*model.Event, error)
	// ListEventsByRoom returns the room's events ordered by start.
	ListEventsByRoom(ctx context.Context, roomID uuid.UUID) ([]model.Event, error)
	ListEventsByOrganizer(ctx context.Context, organizerID uuid.UUID) ([]model.Event, error)
	// ListEventsStartingAfter returns events with start > t ordered by start.
	ListEventsStartingAfter(ctx context.Context, t time.Time) ([]model.Event, error)

	// CreateRegistration returns ErrAlreadyRegistered on a duplicate pair.
	CreateRegistration(ctx context.Context, reg *model.Registration) error
	UpdateRegistration(ctx context.Context, reg *model.Registration) error
	DeleteRegistration(ctx context.Context, id uuid.UUID) error
	GetRegistration(ctx context.Context, registrantID, eventID uuid.UUID) (*model.Registration, error)
	CountRegistrations(ctx context.Context, eventID uuid.UUID) (int, error)
	ListRegistrationsByEvent(ctx context.Context, eventID uuid.UUID) ([]model.Registration, error)
	ListRegistrationsByRegistrant(ctx context.Context, registrantID uuid.UUID) ([]model.Registration, error)
}

// Store is Queries plus serialized units of work.
//
// WithinRoom runs fn while holding exclusive access to the room's event set;
// WithinEvent does the same for an event's registration set. fn must only use
// the Queries it is given. If fn returns an error nothing it wrote is kept
// (the in-memory adapter excepted, see MemoryStore). Both return ErrNotFound
// when the room or event does not exist.
type Store interface {
	Queries

	WithinRoom(ctx context.Context, roomID uuid.UUID, fn func(q Queries) error) error
	WithinEvent(ctx context.Context, eventID uuid.UUID, fn func(q Queries) error) error

	Ping(ctx context.Context) error
	Close()
}

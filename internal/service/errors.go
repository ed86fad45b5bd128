package service

import (
	"errors"
	"fmt"

	"github.com/Shivanand-hulikatti/agencei/internal/model"
)

// Business-rule violations. Callers match them with errors.Is.
var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrPastDate            = errors.New("start must be in the future")
	ErrRoomInactive        = errors.New("room is inactive")
	ErrSchedulingConflict  = errors.New("room is already booked for that time")
	ErrAlreadyConcluded    = errors.New("event has already concluded")
	ErrEventAlreadyStarted = errors.New("event has already started")
	ErrAlreadyRegistered   = errors.New("already registered for this event")
	ErrNoVacancy           = errors.New("no vacancy left for this event")
	ErrAlreadyConfirmed    = errors.New("attendance already confirmed")
	ErrInvalidToken        = errors.New("invalid attendance token")
	ErrNotRegistered       = errors.New("not registered for this event")
	ErrOutsideWindow       = errors.New("outside the check-in window")
	ErrEventConcluded      = errors.New("event has concluded")
	ErrPermissionDenied    = errors.New("permission denied")
	ErrWindowOpen          = errors.New("check-in window is still open")
	ErrRoomNameTaken       = errors.New("a room with that name already exists")

	ErrRoomNotFound  = errors.New("room not found")
	ErrEventNotFound = errors.New("event not found")

	errTokenExhausted = errors.New("could not generate a unique attendance token")
)

// ConflictError reports the event that blocks a booking. It matches
// ErrSchedulingConflict.
type ConflictError struct {
	Event model.Event
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s: conflicts with %q (%s to %s)",
		ErrSchedulingConflict, e.Event.Name,
		e.Event.Start.Format("2006-01-02 15:04"), e.Event.End().Format("15:04"))
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrSchedulingConflict
}

func invalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

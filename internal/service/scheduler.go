package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Shivanand-hulikatti/agencei/internal/interval"
	"github.com/Shivanand-hulikatti/agencei/internal/metrics"
	"github.com/Shivanand-hulikatti/agencei/internal/model"
	"github.com/Shivanand-hulikatti/agencei/internal/notify"
	"github.com/Shivanand-hulikatti/agencei/internal/repository"
)

type eventFields struct {
	Name        string    `json:"name" validate:"notblank,max=200"`
	Description string    `json:"description" validate:"max=2000"`
	Start       time.Time `json:"start" validate:"required"`
}

// ScheduleEvent books a room for a new event owned by organizerID.
//
// Checks run in order and the first failure wins: ErrInvalidInput,
// ErrPastDate, ErrRoomInactive, then a *ConflictError naming the event
// already holding the slot.
func (s *Service) ScheduleEvent(ctx context.Context, organizerID uuid.UUID, req model.ScheduleEventRequest) (*model.Event, error) {
	event, err := s.scheduleEvent(ctx, organizerID, req)
	if err != nil {
		metrics.SchedulingRejections.WithLabelValues(rejectionReason(err)).Inc()
		return nil, err
	}

	metrics.EventsScheduled.Inc()
	s.log.Info().
		Str("event_id", event.ID.String()).
		Str("room_id", event.RoomID.String()).
		Str("organizer_id", organizerID.String()).
		Time("start", event.Start).
		Dur("duration", event.Duration).
		Msg("event scheduled")
	s.notify(ctx, notify.KindEventScheduled, event.ID, event.RoomID, nil)
	return event, nil
}

func (s *Service) scheduleEvent(ctx context.Context, organizerID uuid.UUID, req model.ScheduleEventRequest) (*model.Event, error) {
	fields := eventFields{
		Name:        strings.TrimSpace(req.Name),
		Description: strings.TrimSpace(req.Description),
		Start:       req.Start,
	}
	if err := s.checker.check(fields); err != nil {
		return nil, err
	}
	d, err := s.eventDuration(req.DurationHours)
	if err != nil {
		return nil, err
	}
	if organizerID == uuid.Nil {
		return nil, invalidInput("organizer is required")
	}

	now := s.now()
	if !fields.Start.After(now) {
		return nil, ErrPastDate
	}

	var created *model.Event
	err = s.store.WithinRoom(ctx, req.RoomID, func(q repository.Queries) error {
		room, err := q.GetRoom(ctx, req.RoomID)
		if err != nil {
			return roomErr(err)
		}
		if !room.Active {
			return ErrRoomInactive
		}

		conflict, err := findConflict(ctx, q, room.ID, interval.Of(fields.Start, d), uuid.Nil)
		if err != nil {
			return err
		}
		if conflict != nil {
			return &ConflictError{Event: *conflict}
		}

		created, err = s.insertEvent(ctx, q, model.Event{
			Name:        fields.Name,
			Description: fields.Description,
			Start:       fields.Start,
			Duration:    d,
			RoomID:      room.ID,
			OrganizerID: organizerID,
			CreatedAt:   now,
		})
		return err
	})
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrRoomNotFound
	}
	if err != nil {
		return nil, err
	}
	return created, nil
}

// insertEvent assigns an id and attendance token and stores e, drawing a new
// token when the previous one is already taken.
func (s *Service) insertEvent(ctx context.Context, q repository.Queries, e model.Event) (*model.Event, error) {
	for attempt := 1; attempt <= maxTokenAttempts; attempt++ {
		e.ID = uuid.New()
		e.Token = attendanceToken(s.policy.TokenPrefix, e.Name, e.Start, e.RoomID, e.OrganizerID, e.ID)

		err := q.CreateEvent(ctx, &e)
		if err == nil {
			return &e, nil
		}
		if !errors.Is(err, repository.ErrDuplicateToken) {
			return nil, fmt.Errorf("create event: %w", err)
		}
		metrics.TokenCollisions.Inc()
		s.log.Warn().Int("attempt", attempt).Str("room_id", e.RoomID.String()).Msg("attendance token collision")
	}
	return nil, errTokenExhausted
}

// EditEvent changes an event's name, start or duration. Only the owning
// organizer may edit, and only until the event ends. The scheduling checks are
// re-run against the room's other events.
func (s *Service) EditEvent(ctx context.Context, eventID, organizerID uuid.UUID, req model.EditEventRequest) (*model.Event, error) {
	current, err := s.store.GetEvent(ctx, eventID)
	if err != nil {
		return nil, eventErr(err)
	}

	var updated *model.Event
	err = s.store.WithinRoom(ctx, current.RoomID, func(q repository.Queries) error {
		e, err := q.GetEvent(ctx, eventID)
		if err != nil {
			return eventErr(err)
		}
		if e.OrganizerID != organizerID {
			return ErrPermissionDenied
		}
		now := s.now()
		if e.Concluded(now) {
			return ErrAlreadyConcluded
		}

		fields := eventFields{Name: e.Name, Description: e.Description, Start: e.Start}
		if req.Name != nil {
			fields.Name = strings.TrimSpace(*req.Name)
		}
		if req.Description != nil {
			fields.Description = strings.TrimSpace(*req.Description)
		}
		if req.Start != nil {
			fields.Start = *req.Start
		}
		if err := s.checker.check(fields); err != nil {
			return err
		}
		d := e.Duration
		if req.DurationHours != nil {
			if d, err = s.eventDuration(*req.DurationHours); err != nil {
				return err
			}
		}
		// An event under way keeps its start; only a moved start must lie ahead.
		if req.Start != nil && !req.Start.Equal(e.Start) && !fields.Start.After(now) {
			return ErrPastDate
		}

		room, err := q.GetRoom(ctx, e.RoomID)
		if err != nil {
			return roomErr(err)
		}
		if !room.Active {
			return ErrRoomInactive
		}

		conflict, err := findConflict(ctx, q, room.ID, interval.Of(fields.Start, d), e.ID)
		if err != nil {
			return err
		}
		if conflict != nil {
			return &ConflictError{Event: *conflict}
		}

		e.Name, e.Description, e.Start, e.Duration = fields.Name, fields.Description, fields.Start, d
		if err := q.UpdateEvent(ctx, e); err != nil {
			return fmt.Errorf("update event: %w", err)
		}
		updated = e
		return nil
	})
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrEventNotFound
	}
	if err != nil {
		metrics.SchedulingRejections.WithLabelValues(rejectionReason(err)).Inc()
		return nil, err
	}

	s.log.Info().Str("event_id", eventID.String()).Msg("event updated")
	s.notify(ctx, notify.KindEventUpdated, updated.ID, updated.RoomID, nil)
	return updated, nil
}

// DeleteEvent removes an event and its registrations. Only the owning
// organizer may delete, and only before the event ends.
func (s *Service) DeleteEvent(ctx context.Context, eventID, organizerID uuid.UUID) error {
	current, err := s.store.GetEvent(ctx, eventID)
	if err != nil {
		return eventErr(err)
	}

	err = s.store.WithinRoom(ctx, current.RoomID, func(q repository.Queries) error {
		e, err := q.GetEvent(ctx, eventID)
		if err != nil {
			return eventErr(err)
		}
		if e.OrganizerID != organizerID {
			return ErrPermissionDenied
		}
		if e.Concluded(s.now()) {
			return ErrAlreadyConcluded
		}
		if err := q.DeleteEvent(ctx, e.ID); err != nil {
			return fmt.Errorf("delete event: %w", err)
		}
		return nil
	})
	if errors.Is(err, repository.ErrNotFound) {
		return ErrEventNotFound
	}
	if err != nil {
		return err
	}

	s.log.Info().Str("event_id", eventID.String()).Msg("event deleted")
	s.notify(ctx, notify.KindEventDeleted, current.ID, current.RoomID, nil)
	return nil
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrPastDate):
		return "past_date"
	case errors.Is(err, ErrRoomInactive):
		return "room_inactive"
	case errors.Is(err, ErrSchedulingConflict):
		return "conflict"
	case errors.Is(err, ErrRoomNotFound), errors.Is(err, ErrEventNotFound):
		return "not_found"
	case errors.Is(err, ErrPermissionDenied):
		return "permission_denied"
	case errors.Is(err, ErrAlreadyConcluded):
		return "concluded"
	}
	return "error"
}

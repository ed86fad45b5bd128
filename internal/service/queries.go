package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/Shivanand-hulikatti/agencei/internal/model"
)

// GetEvent returns an event with its room name and seat usage.
func (s *Service) GetEvent(ctx context.Context, id uuid.UUID) (*model.EventDetails, error) {
	event, err := s.store.GetEvent(ctx, id)
	if err != nil {
		return nil, eventErr(err)
	}
	room, err := s.store.GetRoom(ctx, event.RoomID)
	if err != nil {
		return nil, roomErr(err)
	}
	return s.details(ctx, *event, room)
}

// ListUpcomingEvents returns events that have not started yet in active
// rooms, soonest first. This is the catalogue students register from.
func (s *Service) ListUpcomingEvents(ctx context.Context) ([]model.EventDetails, error) {
	events, err := s.store.ListEventsStartingAfter(ctx, s.now())
	if err != nil {
		return nil, fmt.Errorf("list upcoming events: %w", err)
	}
	rooms, err := s.store.ListRooms(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	active := make(map[uuid.UUID]*model.Room, len(rooms))
	for i := range rooms {
		active[rooms[i].ID] = &rooms[i]
	}

	out := make([]model.EventDetails, 0, len(events))
	for _, e := range events {
		room, ok := active[e.RoomID]
		if !ok {
			continue
		}
		d, err := s.details(ctx, e, room)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, nil
}

// ListEventsByRoom returns a room's events ordered by start.
func (s *Service) ListEventsByRoom(ctx context.Context, roomID uuid.UUID) ([]model.Event, error) {
	if _, err := s.store.GetRoom(ctx, roomID); err != nil {
		return nil, roomErr(err)
	}
	events, err := s.store.ListEventsByRoom(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("list room events: %w", err)
	}
	return events, nil
}

// ListEventsByOrganizer returns the events organizerID owns, ordered by start.
func (s *Service) ListEventsByOrganizer(ctx context.Context, organizerID uuid.UUID) ([]model.Event, error) {
	events, err := s.store.ListEventsByOrganizer(ctx, organizerID)
	if err != nil {
		return nil, fmt.Errorf("list organizer events: %w", err)
	}
	return events, nil
}

// ListRegistrationsByRegistrant returns everything registrantID signed up for.
func (s *Service) ListRegistrationsByRegistrant(ctx context.Context, registrantID uuid.UUID) ([]model.Registration, error) {
	regs, err := s.store.ListRegistrationsByRegistrant(ctx, registrantID)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	return regs, nil
}

// EventRoster lists an event's registrations. Admins see any roster,
// organizers only their own events'.
func (s *Service) EventRoster(ctx context.Context, eventID uuid.UUID, actor model.Actor) ([]model.Registration, error) {
	event, err := s.store.GetEvent(ctx, eventID)
	if err != nil {
		return nil, eventErr(err)
	}
	if actor.Role != model.RoleAdmin && !actor.Owns(event) {
		return nil, ErrPermissionDenied
	}
	regs, err := s.store.ListRegistrationsByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	return regs, nil
}

func (s *Service) details(ctx context.Context, e model.Event, room *model.Room) (*model.EventDetails, error) {
	taken, err := s.store.CountRegistrations(ctx, e.ID)
	if err != nil {
		return nil, fmt.Errorf("count registrations: %w", err)
	}
	available := room.Capacity - taken
	if available < 0 {
		available = 0
	}
	return &model.EventDetails{
		Event:    e,
		End:      e.End(),
		RoomName: room.Name,
		Seats:    model.Seats{Capacity: room.Capacity, Taken: taken, Available: available},
	}, nil
}

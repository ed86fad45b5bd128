package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Shivanand-hulikatti/agencei/internal/interval"
	"github.com/Shivanand-hulikatti/agencei/internal/model"
	"github.com/Shivanand-hulikatti/agencei/internal/repository"
)

// RoomAvailability reports whether roomID is free for durationHours from
// start. When it is not, the first conflicting event is returned. An inactive
// room yields ErrRoomInactive rather than a conflict.
func (s *Service) RoomAvailability(ctx context.Context, roomID uuid.UUID, start time.Time, durationHours float64) (bool, *model.Event, error) {
	d, err := s.eventDuration(durationHours)
	if err != nil {
		return false, nil, err
	}

	room, err := s.store.GetRoom(ctx, roomID)
	if err != nil {
		return false, nil, roomErr(err)
	}
	if !room.Active {
		return false, nil, ErrRoomInactive
	}

	conflict, err := findConflict(ctx, s.store, room.ID, interval.Of(start, d), uuid.Nil)
	if err != nil {
		return false, nil, err
	}
	if conflict != nil {
		return false, conflict, nil
	}
	return true, nil, nil
}

// AvailableRooms lists the active rooms seating at least minCapacity that are
// free for durationHours from start, ordered by name.
func (s *Service) AvailableRooms(ctx context.Context, start time.Time, durationHours float64, minCapacity int) ([]model.Room, error) {
	d, err := s.eventDuration(durationHours)
	if err != nil {
		return nil, err
	}
	if minCapacity < 0 {
		return nil, invalidInput("min_capacity must not be negative")
	}

	rooms, err := s.store.ListRooms(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}

	candidate := interval.Of(start, d)
	free := make([]model.Room, 0, len(rooms))
	for i := range rooms {
		room := &rooms[i]
		if !HasCapacityFor(room, minCapacity) {
			continue
		}
		conflict, err := findConflict(ctx, s.store, room.ID, candidate, uuid.Nil)
		if err != nil {
			return nil, err
		}
		if conflict == nil {
			free = append(free, *room)
		}
	}
	return free, nil
}

// HasCapacityFor reports whether room can seat headcount people.
func HasCapacityFor(room *model.Room, headcount int) bool {
	return room.HasCapacityFor(headcount)
}

// findConflict returns the first event in roomID that overlaps candidate,
// ignoring the event with id skip.
func findConflict(ctx context.Context, q repository.Queries, roomID uuid.UUID, candidate interval.Interval, skip uuid.UUID) (*model.Event, error) {
	events, err := q.ListEventsByRoom(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("list room events: %w", err)
	}

	others := events[:0]
	for _, e := range events {
		if e.ID != skip {
			others = append(others, e)
		}
	}

	conflict, ok := interval.FirstConflict(candidate, others, func(e model.Event) interval.Interval {
		return e.Interval()
	})
	if !ok {
		return nil, nil
	}
	return &conflict, nil
}

// eventDuration converts hours into a Duration within (0, MaxEventDuration].
func (s *Service) eventDuration(hours float64) (time.Duration, error) {
	maxHours := s.policy.MaxEventDuration.Hours()
	if hours > maxHours {
		return 0, invalidInput("duration_hours must be at most %g", maxHours)
	}
	d := model.HoursToDuration(hours)
	if !(hours > 0) || d <= 0 {
		return 0, invalidInput("duration_hours must be greater than 0")
	}
	return d, nil
}

func roomErr(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrRoomNotFound
	}
	return fmt.Errorf("get room: %w", err)
}

func eventErr(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrEventNotFound
	}
	return fmt.Errorf("get event: %w", err)
}

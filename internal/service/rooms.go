package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/Shivanand-hulikatti/agencei/internal/model"
	"github.com/Shivanand-hulikatti/agencei/internal/repository"
)

// CreateRoom adds an active room.
func (s *Service) CreateRoom(ctx context.Context, req model.CreateRoomRequest) (*model.Room, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Description = strings.TrimSpace(req.Description)
	if err := s.checker.check(req); err != nil {
		return nil, err
	}

	room := model.Room{
		ID:          uuid.New(),
		Name:        req.Name,
		Description: req.Description,
		Capacity:    req.Capacity,
		Active:      true,
		CreatedAt:   s.now(),
	}
	err := s.store.CreateRoom(ctx, &room)
	if errors.Is(err, repository.ErrDuplicateName) {
		return nil, ErrRoomNameTaken
	}
	if err != nil {
		return nil, fmt.Errorf("create room: %w", err)
	}

	s.log.Info().Str("room_id", room.ID.String()).Int("capacity", room.Capacity).Msg("room created")
	return &room, nil
}

// UpdateRoom renames, resizes, or (de)activates a room. Rooms are never
// deleted; deactivating one stops new bookings but keeps existing events.
func (s *Service) UpdateRoom(ctx context.Context, id uuid.UUID, req model.UpdateRoomRequest) (*model.Room, error) {
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		req.Name = &name
	}
	if req.Description != nil {
		desc := strings.TrimSpace(*req.Description)
		req.Description = &desc
	}
	if err := s.checker.check(req); err != nil {
		return nil, err
	}

	var updated *model.Room
	err := s.store.WithinRoom(ctx, id, func(q repository.Queries) error {
		room, err := q.GetRoom(ctx, id)
		if err != nil {
			return roomErr(err)
		}
		if req.Name != nil {
			room.Name = *req.Name
		}
		if req.Description != nil {
			room.Description = *req.Description
		}
		if req.Capacity != nil {
			room.Capacity = *req.Capacity
		}
		if req.Active != nil {
			room.Active = *req.Active
		}
		err = q.UpdateRoom(ctx, room)
		if errors.Is(err, repository.ErrDuplicateName) {
			return ErrRoomNameTaken
		}
		if err != nil {
			return fmt.Errorf("update room: %w", err)
		}
		updated = room
		return nil
	})
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrRoomNotFound
	}
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("room_id", id.String()).Bool("active", updated.Active).Msg("room updated")
	return updated, nil
}

// GetRoom returns a room by id.
func (s *Service) GetRoom(ctx context.Context, id uuid.UUID) (*model.Room, error) {
	room, err := s.store.GetRoom(ctx, id)
	if err != nil {
		return nil, roomErr(err)
	}
	return room, nil
}

// ListRooms returns rooms ordered by name.
func (s *Service) ListRooms(ctx context.Context, activeOnly bool) ([]model.Room, error) {
	rooms, err := s.store.ListRooms(ctx, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	return rooms, nil
}

package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/Shivanand-hulikatti/agencei/internal/metrics"
	"github.com/Shivanand-hulikatti/agencei/internal/model"
	"github.com/Shivanand-hulikatti/agencei/internal/notify"
	"github.com/Shivanand-hulikatti/agencei/internal/repository"
)

// Register signs registrantID up for eventID with status pending.
//
// It fails with ErrEventAlreadyStarted once the event has begun,
// ErrAlreadyRegistered for a repeat, and ErrNoVacancy when the room is full.
// Capacity is read at registration time; later room changes do not evict.
func (s *Service) Register(ctx context.Context, registrantID, eventID uuid.UUID) (*model.Registration, error) {
	if registrantID == uuid.Nil {
		return nil, invalidInput("registrant is required")
	}

	var reg *model.Registration
	var roomID uuid.UUID
	err := s.store.WithinEvent(ctx, eventID, func(q repository.Queries) error {
		event, err := q.GetEvent(ctx, eventID)
		if err != nil {
			return eventErr(err)
		}
		roomID = event.RoomID

		now := s.now()
		if event.Started(now) {
			return ErrEventAlreadyStarted
		}

		if _, err := q.GetRegistration(ctx, registrantID, eventID); err == nil {
			return ErrAlreadyRegistered
		} else if !errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("get registration: %w", err)
		}

		room, err := q.GetRoom(ctx, event.RoomID)
		if err != nil {
			return roomErr(err)
		}
		taken, err := q.CountRegistrations(ctx, eventID)
		if err != nil {
			return fmt.Errorf("count registrations: %w", err)
		}
		if !room.HasCapacityFor(taken + 1) {
			return ErrNoVacancy
		}

		r := model.Registration{
			ID:           uuid.New(),
			RegistrantID: registrantID,
			EventID:      eventID,
			Status:       model.StatusPending,
			RegisteredAt: now,
		}
		if err := q.CreateRegistration(ctx, &r); err != nil {
			if errors.Is(err, repository.ErrAlreadyRegistered) {
				return ErrAlreadyRegistered
			}
			return fmt.Errorf("create registration: %w", err)
		}
		reg = &r
		return nil
	})
	if errors.Is(err, repository.ErrNotFound) {
		err = ErrEventNotFound
	}
	if err != nil {
		metrics.Registrations.WithLabelValues(registrationOutcome(err)).Inc()
		return nil, err
	}

	metrics.Registrations.WithLabelValues("created").Inc()
	s.log.Info().
		Str("event_id", eventID.String()).
		Str("registrant_id", registrantID.String()).
		Msg("registration created")
	s.notify(ctx, notify.KindRegistrationCreated, eventID, roomID, &registrantID)
	return reg, nil
}

// CancelRegistration deletes a pending registration. A confirmed registration
// fails with ErrAlreadyConfirmed and an ended event with ErrEventConcluded.
func (s *Service) CancelRegistration(ctx context.Context, registrantID, eventID uuid.UUID) error {
	var roomID uuid.UUID
	err := s.store.WithinEvent(ctx, eventID, func(q repository.Queries) error {
		event, err := q.GetEvent(ctx, eventID)
		if err != nil {
			return eventErr(err)
		}
		roomID = event.RoomID

		reg, err := q.GetRegistration(ctx, registrantID, eventID)
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotRegistered
		}
		if err != nil {
			return fmt.Errorf("get registration: %w", err)
		}
		if reg.Status == model.StatusPresent {
			return ErrAlreadyConfirmed
		}
		if event.Concluded(s.now()) {
			return ErrEventConcluded
		}

		if err := q.DeleteRegistration(ctx, reg.ID); err != nil {
			return fmt.Errorf("delete registration: %w", err)
		}
		return nil
	})
	if errors.Is(err, repository.ErrNotFound) {
		return ErrEventNotFound
	}
	if err != nil {
		return err
	}

	metrics.Registrations.WithLabelValues("cancelled").Inc()
	s.log.Info().
		Str("event_id", eventID.String()).
		Str("registrant_id", registrantID.String()).
		Msg("registration cancelled")
	s.notify(ctx, notify.KindRegistrationCancelled, eventID, roomID, &registrantID)
	return nil
}

func registrationOutcome(err error) string {
	switch {
	case errors.Is(err, ErrEventAlreadyStarted):
		return "started"
	case errors.Is(err, ErrAlreadyRegistered):
		return "duplicate"
	case errors.Is(err, ErrNoVacancy):
		return "full"
	case errors.Is(err, ErrEventNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	}
	return "error"
}

package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Shivanand-hulikatti/agencei/internal/metrics"
	"github.com/Shivanand-hulikatti/agencei/internal/model"
	"github.com/Shivanand-hulikatti/agencei/internal/notify"
	"github.com/Shivanand-hulikatti/agencei/internal/repository"
)

// CheckInWindow returns the inclusive range during which attendance for e can
// be confirmed.
func (s *Service) CheckInWindow(e *model.Event) (opens, closes time.Time) {
	return e.Start.Add(-s.policy.CheckInWindowBefore), e.End().Add(s.policy.CheckInWindowAfter)
}

// ConfirmAttendance moves registrantID's registration for the event
// identified by token from pending to present.
//
// Failures, in order: ErrInvalidToken, ErrNotRegistered, ErrAlreadyConfirmed,
// ErrOutsideWindow.
func (s *Service) ConfirmAttendance(ctx context.Context, token string, registrantID uuid.UUID) (*model.Registration, error) {
	reg, event, err := s.confirmAttendance(ctx, token, registrantID)
	if err != nil {
		metrics.CheckIns.WithLabelValues(checkInOutcome(err)).Inc()
		return nil, err
	}

	metrics.CheckIns.WithLabelValues("confirmed").Inc()
	s.log.Info().
		Str("event_id", event.ID.String()).
		Str("registrant_id", registrantID.String()).
		Msg("attendance confirmed")
	s.notify(ctx, notify.KindAttendanceConfirmed, event.ID, event.RoomID, &registrantID)
	return reg, nil
}

// ValidateCheckIn runs the ConfirmAttendance checks for token without
// recording anything, and describes the event the token belongs to.
func (s *Service) ValidateCheckIn(ctx context.Context, token string, registrantID uuid.UUID) (*model.EventCheck, error) {
	event, err := s.eventForToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if _, err := s.checkIn(ctx, s.store, event, registrantID); err != nil {
		return nil, err
	}

	room, err := s.store.GetRoom(ctx, event.RoomID)
	if err != nil {
		return nil, roomErr(err)
	}
	return &model.EventCheck{
		EventID:  event.ID,
		Name:     event.Name,
		Start:    event.Start,
		End:      event.End(),
		RoomName: room.Name,
	}, nil
}

func (s *Service) confirmAttendance(ctx context.Context, token string, registrantID uuid.UUID) (*model.Registration, *model.Event, error) {
	found, err := s.eventForToken(ctx, token)
	if err != nil {
		return nil, nil, err
	}

	var reg *model.Registration
	err = s.store.WithinEvent(ctx, found.ID, func(q repository.Queries) error {
		r, err := s.checkIn(ctx, q, found, registrantID)
		if err != nil {
			return err
		}

		now := s.now()
		r.Status = model.StatusPresent
		r.ConfirmedAt = &now
		if err := q.UpdateRegistration(ctx, r); err != nil {
			return fmt.Errorf("update registration: %w", err)
		}
		reg = r
		return nil
	})
	if errors.Is(err, repository.ErrNotFound) {
		// Deleted between the token lookup and the lock.
		return nil, nil, ErrInvalidToken
	}
	if err != nil {
		return nil, nil, err
	}
	return reg, found, nil
}

func (s *Service) eventForToken(ctx context.Context, token string) (*model.Event, error) {
	token = normalizeToken(token)
	if token == "" {
		return nil, ErrInvalidToken
	}
	found, err := s.store.GetEventByToken(ctx, token)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, fmt.Errorf("get event by token: %w", err)
	}
	return found, nil
}

// checkIn returns registrantID's pending registration for event if it may be
// confirmed now: ErrNotRegistered, ErrAlreadyConfirmed, then ErrOutsideWindow.
func (s *Service) checkIn(ctx context.Context, q repository.Queries, event *model.Event, registrantID uuid.UUID) (*model.Registration, error) {
	r, err := q.GetRegistration(ctx, registrantID, event.ID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotRegistered
	}
	if err != nil {
		return nil, fmt.Errorf("get registration: %w", err)
	}
	if r.Status == model.StatusPresent {
		return nil, ErrAlreadyConfirmed
	}

	now := s.now()
	opens, closes := s.CheckInWindow(event)
	if now.Before(opens) || now.After(closes) {
		return nil, ErrOutsideWindow
	}
	return r, nil
}

// MarkAbsentees closes attendance for an event: every registration still
// pending once the check-in window has passed becomes absent. Present
// registrations are left alone. It returns how many were marked and fails
// with ErrWindowOpen while check-in is still possible.
//
// Admins may close any event; organizers only their own.
func (s *Service) MarkAbsentees(ctx context.Context, eventID uuid.UUID, actor model.Actor) (int, error) {
	var (
		marked []uuid.UUID
		roomID uuid.UUID
	)
	err := s.store.WithinEvent(ctx, eventID, func(q repository.Queries) error {
		event, err := q.GetEvent(ctx, eventID)
		if err != nil {
			return eventErr(err)
		}
		if actor.Role != model.RoleAdmin && !actor.Owns(event) {
			return ErrPermissionDenied
		}
		roomID = event.RoomID

		if _, closes := s.CheckInWindow(event); !s.now().After(closes) {
			return ErrWindowOpen
		}

		regs, err := q.ListRegistrationsByEvent(ctx, eventID)
		if err != nil {
			return fmt.Errorf("list registrations: %w", err)
		}
		for i := range regs {
			r := &regs[i]
			if r.Status != model.StatusPending {
				continue
			}
			r.Status = model.StatusAbsent
			if err := q.UpdateRegistration(ctx, r); err != nil {
				return fmt.Errorf("update registration: %w", err)
			}
			marked = append(marked, r.RegistrantID)
		}
		return nil
	})
	if errors.Is(err, repository.ErrNotFound) {
		return 0, ErrEventNotFound
	}
	if err != nil {
		return 0, err
	}

	metrics.AbsenteesMarked.Add(float64(len(marked)))
	s.log.Info().Str("event_id", eventID.String()).Int("absent", len(marked)).Msg("absentees marked")
	for _, id := range marked {
		s.notify(ctx, notify.KindAttendanceAbsent, eventID, roomID, &id)
	}
	return len(marked), nil
}

func checkInOutcome(err error) string {
	switch {
	case errors.Is(err, ErrInvalidToken):
		return "invalid_token"
	case errors.Is(err, ErrNotRegistered):
		return "not_registered"
	case errors.Is(err, ErrAlreadyConfirmed):
		return "already_confirmed"
	case errors.Is(err, ErrOutsideWindow):
		return "outside_window"
	}
	return "error"
}

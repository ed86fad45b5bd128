// Package service implements the scheduling and attendance rules: room
// availability, event scheduling, registrations and check-in. It sits between
// the HTTP handlers and the repository layer.
package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Shivanand-hulikatti/agencei/internal/config"
	"github.com/Shivanand-hulikatti/agencei/internal/notify"
	"github.com/Shivanand-hulikatti/agencei/internal/repository"
)

// Service orchestrates the booking and attendance operations.
type Service struct {
	store     repository.Store
	publisher notify.Publisher
	policy    config.Scheduling
	clock     Clock
	checker   *checker
	log       zerolog.Logger
}

// New constructs a Service. A nil publisher drops notifications.
func New(store repository.Store, publisher notify.Publisher, policy config.Scheduling, log zerolog.Logger) *Service {
	if publisher == nil {
		publisher = notify.Nop{}
	}
	return &Service{
		store:     store,
		publisher: publisher,
		policy:    policy,
		clock:     SystemClock{},
		checker:   newChecker(),
		log:       log.With().Str("component", "service").Logger(),
	}
}

// WithClock replaces the time source. Meant for tests.
func (s *Service) WithClock(c Clock) *Service {
	s.clock = c
	return s
}

// Ping checks the backing store.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *Service) now() time.Time {
	return s.clock.Now()
}

// notify publishes after a committed change. Failures are logged only.
func (s *Service) notify(ctx context.Context, kind notify.Kind, eventID, roomID uuid.UUID, registrantID *uuid.UUID) {
	n := notify.Notification{
		Kind:         kind,
		EventID:      eventID,
		RoomID:       roomID,
		RegistrantID: registrantID,
		At:           s.now(),
	}
	if err := s.publisher.Publish(ctx, n); err != nil {
		s.log.Warn().Err(err).Str("kind", string(kind)).Str("event_id", eventID.String()).Msg("publish notification")
	}
}

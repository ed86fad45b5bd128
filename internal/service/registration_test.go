package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shivanand-hulikatti/agencei/internal/model"
)

func TestRegister(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	room := f.room(t, 1)
	event := f.schedule(t, room, uuid.New(), at(10, 0), 1)
	alice, bob := uuid.New(), uuid.New()

	reg, err := f.svc.Register(ctx, alice, event.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, reg.Status)
	assert.True(t, at(8, 0).Equal(reg.RegisteredAt))
	assert.Nil(t, reg.ConfirmedAt)

	_, err = f.svc.Register(ctx, alice, event.ID)
	assert.ErrorIs(t, err, ErrAlreadyRegistered)
	n, err := f.store.CountRegistrations(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n, "a repeat leaves the store unchanged")

	_, err = f.svc.Register(ctx, bob, event.ID)
	assert.ErrorIs(t, err, ErrNoVacancy)

	_, err = f.svc.Register(ctx, bob, uuid.New())
	assert.ErrorIs(t, err, ErrEventNotFound)

	_, err = f.svc.Register(ctx, uuid.Nil, event.ID)
	assert.ErrorIs(t, err, ErrInvalidInput)

	details, err := f.svc.GetEvent(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, model.Seats{Capacity: 1, Taken: 1, Available: 0}, details.Seats)
}

func TestRegisterAfterStart(t *testing.T) {
	f := newFixture(t)
	room := f.room(t, 10)
	event := f.schedule(t, room, uuid.New(), at(10, 0), 1)

	f.clock.Set(at(10, 0))
	_, err := f.svc.Register(context.Background(), uuid.New(), event.ID)
	assert.ErrorIs(t, err, ErrEventAlreadyStarted)
}

func TestRegisterDuplicateBeatsNoVacancy(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	room := f.room(t, 1)
	event := f.schedule(t, room, uuid.New(), at(10, 0), 1)
	alice := uuid.New()

	_, err := f.svc.Register(ctx, alice, event.ID)
	require.NoError(t, err)
	_, err = f.svc.Register(ctx, alice, event.ID)
	assert.ErrorIs(t, err, ErrAlreadyRegistered)
}

func TestRegisterLastSeatRace(t *testing.T) {
	f := newFixture(t)
	room := f.room(t, 5)
	event := f.schedule(t, room, uuid.New(), at(10, 0), 1)

	const callers = 25
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Register(context.Background(), uuid.New(), event.ID)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	ok, full := 0, 0
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrNoVacancy):
			full++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 5, ok)
	assert.Equal(t, callers-5, full)
}

func TestCapacityReductionKeepsRegistrations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	room := f.room(t, 3)
	event := f.schedule(t, room, uuid.New(), at(10, 0), 1)
	for i := 0; i < 3; i++ {
		_, err := f.svc.Register(ctx, uuid.New(), event.ID)
		require.NoError(t, err)
	}

	one := 1
	_, err := f.svc.UpdateRoom(ctx, room.ID, model.UpdateRoomRequest{Capacity: &one})
	require.NoError(t, err)

	roster, err := f.svc.EventRoster(ctx, event.ID, model.Actor{Role: model.RoleAdmin})
	require.NoError(t, err)
	assert.Len(t, roster, 3)

	_, err = f.svc.Register(ctx, uuid.New(), event.ID)
	assert.ErrorIs(t, err, ErrNoVacancy)

	details, err := f.svc.GetEvent(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, details.Seats.Available)
}

func TestCancelRegistration(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	room := f.room(t, 10)
	event := f.schedule(t, room, uuid.New(), at(10, 0), 1)
	pending, present, late := uuid.New(), uuid.New(), uuid.New()
	for _, id := range []uuid.UUID{pending, present, late} {
		_, err := f.svc.Register(ctx, id, event.ID)
		require.NoError(t, err)
	}

	assert.ErrorIs(t, f.svc.CancelRegistration(ctx, uuid.New(), event.ID), ErrNotRegistered)
	assert.ErrorIs(t, f.svc.CancelRegistration(ctx, pending, uuid.New()), ErrEventNotFound)

	f.clock.Set(at(10, 15))
	_, err := f.svc.ConfirmAttendance(ctx, event.Token, present)
	require.NoError(t, err)
	assert.ErrorIs(t, f.svc.CancelRegistration(ctx, present, event.ID), ErrAlreadyConfirmed)

	// Still allowed while the event is under way.
	require.NoError(t, f.svc.CancelRegistration(ctx, pending, event.ID))
	_, err = f.store.GetRegistration(ctx, pending, event.ID)
	assert.Error(t, err)

	f.clock.Set(at(11, 0))
	assert.ErrorIs(t, f.svc.CancelRegistration(ctx, late, event.ID), ErrEventConcluded)
}

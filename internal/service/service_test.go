package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/Shivanand-hulikatti/agencei/internal/config"
	"github.com/Shivanand-hulikatti/agencei/internal/model"
	"github.com/Shivanand-hulikatti/agencei/internal/notify"
	"github.com/Shivanand-hulikatti/agencei/internal/repository"
)

var day = time.Date(2030, 5, 10, 0, 0, 0, 0, time.UTC)

func at(h, m int) time.Time {
	return day.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute)
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

var testPolicy = config.Scheduling{
	MaxEventDuration:    12 * time.Hour,
	CheckInWindowBefore: 30 * time.Minute,
	CheckInWindowAfter:  30 * time.Minute,
	TokenPrefix:         "AGENCEI",
}

type fixture struct {
	svc   *Service
	store *repository.MemoryStore
	clock *fakeClock
	sent  *notify.Recorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := repository.NewMemoryStore()
	return newFixtureWith(t, store, store)
}

func newFixtureWith(t *testing.T, store repository.Store, mem *repository.MemoryStore) *fixture {
	t.Helper()
	clock := &fakeClock{t: at(8, 0)}
	sent := &notify.Recorder{}
	svc := New(store, sent, testPolicy, zerolog.Nop()).WithClock(clock)
	return &fixture{svc: svc, store: mem, clock: clock, sent: sent}
}

func (f *fixture) room(t *testing.T, capacity int) *model.Room {
	t.Helper()
	r, err := f.svc.CreateRoom(context.Background(), model.CreateRoomRequest{Name: "Room " + uuid.NewString(), Capacity: capacity})
	require.NoError(t, err)
	return r
}

func (f *fixture) schedule(t *testing.T, room *model.Room, organizer uuid.UUID, start time.Time, hours float64) *model.Event {
	t.Helper()
	e, err := f.svc.ScheduleEvent(context.Background(), organizer, model.ScheduleEventRequest{
		Name:          "Workshop",
		RoomID:        room.ID,
		Start:         start,
		DurationHours: hours,
	})
	require.NoError(t, err)
	return e
}

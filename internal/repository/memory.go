package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Shivanand-hulikatti/agencei/internal/model"
)

// MemoryStore keeps everything in maps guarded by a RWMutex. It is meant for
// tests and local runs. WithinRoom/WithinEvent serialize on per-key mutexes
// but do not roll back writes made before fn fails.
type MemoryStore struct {
	mu            sync.RWMutex
	rooms         map[uuid.UUID]model.Room
	events        map[uuid.UUID]model.Event
	registrations map[uuid.UUID]model.Registration

	locksMu sync.Mutex
	locks   map[uuid.UUID]*sync.Mutex
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rooms:         make(map[uuid.UUID]model.Room),
		events:        make(map[uuid.UUID]model.Event),
		registrations: make(map[uuid.UUID]model.Registration),
		locks:         make(map[uuid.UUID]*sync.Mutex),
	}
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

func (s *MemoryStore) Close() {}

func (s *MemoryStore) keyLock(id uuid.UUID) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	return l
}

func (s *MemoryStore) WithinRoom(ctx context.Context, roomID uuid.UUID, fn func(q Queries) error) error {
	l := s.keyLock(roomID)
	l.Lock()
	defer l.Unlock()

	if _, err := s.GetRoom(ctx, roomID); err != nil {
		return err
	}
	return fn(s)
}

func (s *MemoryStore) WithinEvent(ctx context.Context, eventID uuid.UUID, fn func(q Queries) error) error {
	l := s.keyLock(eventID)
	l.Lock()
	defer l.Unlock()

	if _, err := s.GetEvent(ctx, eventID); err != nil {
		return err
	}
	return fn(s)
}

// ─── Rooms ────────────────────────────────────────────────────────────────────

func (s *MemoryStore) CreateRoom(_ context.Context, room *model.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.nameTaken(room.Name, room.ID) {
		return ErrDuplicateName
	}
	s.rooms[room.ID] = *room
	return nil
}

// nameTaken must be called with mu held.
func (s *MemoryStore) nameTaken(name string, except uuid.UUID) bool {
	for id, r := range s.rooms {
		if id != except && r.Name == name {
			return true
		}
	}
	return false
}

func (s *MemoryStore) UpdateRoom(_ context.Context, room *model.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.rooms[room.ID]
	if !ok {
		return ErrNotFound
	}
	if s.nameTaken(room.Name, room.ID) {
		return ErrDuplicateName
	}
	existing.Name = room.Name
	existing.Description = room.Description
	existing.Capacity = room.Capacity
	existing.Active = room.Active
	s.rooms[room.ID] = existing
	return nil
}

func (s *MemoryStore) GetRoom(_ context.Context, id uuid.UUID) (*model.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rooms[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &r, nil
}

func (s *MemoryStore) ListRooms(_ context.Context, activeOnly bool) ([]model.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var rooms []model.Room
	for _, r := range s.rooms {
		if activeOnly && !r.Active {
			continue
		}
		rooms = append(rooms, r)
	}
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].Name < rooms[j].Name })
	return rooms, nil
}

// ─── Events ───────────────────────────────────────────────────────────────────

func (s *MemoryStore) CreateEvent(_ context.Context, event *model.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.events {
		if e.Token == event.Token {
			return ErrDuplicateToken
		}
	}
	if _, ok := s.rooms[event.RoomID]; !ok {
		return ErrNotFound
	}
	s.events[event.ID] = *event
	return nil
}

func (s *MemoryStore) UpdateEvent(_ context.Context, event *model.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.events[event.ID]
	if !ok {
		return ErrNotFound
	}
	existing.Name = event.Name
	existing.Description = event.Description
	existing.Start = event.Start
	existing.Duration = event.Duration
	s.events[event.ID] = existing
	return nil
}

func (s *MemoryStore) DeleteEvent(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[id]; !ok {
		return ErrNotFound
	}
	delete(s.events, id)
	for regID, reg := range s.registrations {
		if reg.EventID == id {
			delete(s.registrations, regID)
		}
	}
	return nil
}

func (s *MemoryStore) GetEvent(_ context.Context, id uuid.UUID) (*model.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.events[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &e, nil
}

func (s *MemoryStore) GetEventByToken(_ context.Context, token string) (*model.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.events {
		if e.Token == token {
			return &e, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) filterEvents(keep func(model.Event) bool) []model.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var events []model.Event
	for _, e := range s.events {
		if keep(e) {
			events = append(events, e)
		}
	}
	sort.Slice(events, func(i, j int) bool { return events[i].Start.Before(events[j].Start) })
	return events
}

func (s *MemoryStore) ListEventsByRoom(_ context.Context, roomID uuid.UUID) ([]model.Event, error) {
	return s.filterEvents(func(e model.Event) bool { return e.RoomID == roomID }), nil
}

func (s *MemoryStore) ListEventsByOrganizer(_ context.Context, organizerID uuid.UUID) ([]model.Event, error) {
	return s.filterEvents(func(e model.Event) bool { return e.OrganizerID == organizerID }), nil
}

func (s *MemoryStore) ListEventsStartingAfter(_ context.Context, t time.Time) ([]model.Event, error) {
	return s.filterEvents(func(e model.Event) bool { return e.Start.After(t) }), nil
}

// ─── Registrations ────────────────────────────────────────────────────────────

func (s *MemoryStore) CreateRegistration(_ context.Context, reg *model.Registration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[reg.EventID]; !ok {
		return ErrNotFound
	}
	for _, r := range s.registrations {
		if r.EventID == reg.EventID && r.RegistrantID == reg.RegistrantID {
			return ErrAlreadyRegistered
		}
	}
	s.registrations[reg.ID] = *reg
	return nil
}

func (s *MemoryStore) UpdateRegistration(_ context.Context, reg *model.Registration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.registrations[reg.ID]
	if !ok {
		return ErrNotFound
	}
	existing.Status = reg.Status
	existing.ConfirmedAt = reg.ConfirmedAt
	s.registrations[reg.ID] = existing
	return nil
}

func (s *MemoryStore) DeleteRegistration(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.registrations[id]; !ok {
		return ErrNotFound
	}
	delete(s.registrations, id)
	return nil
}

func (s *MemoryStore) GetRegistration(_ context.Context, registrantID, eventID uuid.UUID) (*model.Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.registrations {
		if r.RegistrantID == registrantID && r.EventID == eventID {
			return &r, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) CountRegistrations(_ context.Context, eventID uuid.UUID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, r := range s.registrations {
		if r.EventID == eventID {
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) filterRegistrations(keep func(model.Registration) bool) []model.Registration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var regs []model.Registration
	for _, r := range s.registrations {
		if keep(r) {
			regs = append(regs, r)
		}
	}
	sort.Slice(regs, func(i, j int) bool { return regs[i].RegisteredAt.Before(regs[j].RegisteredAt) })
	return regs
}

func (s *MemoryStore) ListRegistrationsByEvent(_ context.Context, eventID uuid.UUID) ([]model.Registration, error) {
	return s.filterRegistrations(func(r model.Registration) bool { return r.EventID == eventID }), nil
}

func (s *MemoryStore) ListRegistrationsByRegistrant(_ context.Context, registrantID uuid.UUID) ([]model.Registration, error) {
	return s.filterRegistrations(func(r model.Registration) bool { return r.RegistrantID == registrantID }), nil
}

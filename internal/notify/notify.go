// Package notify publishes domain notifications about scheduling and
// attendance changes to interested consumers.
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Kind names what happened.
type Kind string

const (
	KindEventScheduled        Kind = "event.scheduled"
	KindEventUpdated          Kind = "event.updated"
	KindEventDeleted          Kind = "event.deleted"
	KindRegistrationCreated   Kind = "registration.created"
	KindRegistrationCancelled Kind = "registration.cancelled"
	KindAttendanceConfirmed   Kind = "attendance.confirmed"
	KindAttendanceAbsent      Kind = "attendance.absent"
)

// Notification is a committed state change.
type Notification struct {
	Kind         Kind       `json:"kind"`
	EventID      uuid.UUID  `json:"event_id"`
	RoomID       uuid.UUID  `json:"room_id"`
	RegistrantID *uuid.UUID `json:"registrant_id,omitempty"`
	At           time.Time  `json:"at"`
}

// Publisher delivers notifications. Implementations must be safe for
// concurrent use.
type Publisher interface {
	Publish(ctx context.Context, n Notification) error
	Close() error
}

// Nop drops every notification.
type Nop struct{}

func (Nop) Publish(context.Context, Notification) error { return nil }
func (Nop) Close() error                                { return nil }

// Recorder keeps notifications in memory.
type Recorder struct {
	mu   sync.Mutex
	sent []Notification
}

func (r *Recorder) Publish(_ context.Context, n Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
	return nil
}

func (r *Recorder) Close() error { return nil }

// Notifications returns a copy of everything published so far.
func (r *Recorder) Notifications() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notification, len(r.sent))
	copy(out, r.sent)
	return out
}

// Kinds returns the kinds published so far, in order.
func (r *Recorder) Kinds() []Kind {
	r.mu.Lock()
	defer r.mu.Unlock()
	kinds := make([]Kind, 0, len(r.sent))
	for _, n := range r.sent {
		kinds = append(kinds, n.Kind)
	}
	return kinds
}

// Package model defines the core domain types for the room booking system.
package model

import (
	"encoding/json"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/Shivanand-hulikatti/agencei/internal/interval"
)

// Room is a bookable space with a fixed head-count ceiling.
type Room struct {
	ID        uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Capacity    int       `json:"capacity"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
}

// HasCapacityFor reports whether the room can seat headcount people.
func (r *Room) HasCapacityFor(headcount int) bool {
	return r.Capacity >= headcount
}

// Event is a scheduled occupation of a room, owned by an organizer.
// On the wire the duration travels as duration_hours.
type Event struct {
	ID          uuid.UUID
	Name        string
	Description string
	Start       time.Time
	Duration    time.Duration
	RoomID      uuid.UUID
	OrganizerID uuid.UUID
	Token       string
	CreatedAt   time.Time
}

type eventJSON struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description,omitempty"`
	Start         time.Time `json:"start"`
	DurationHours float64   `json:"duration_hours"`
	RoomID        uuid.UUID `json:"room_id"`
	OrganizerID   uuid.UUID `json:"organizer_id"`
	Token         string    `json:"token"`
	CreatedAt     time.Time `json:"created_at"`
}

func (e Event) toJSON() eventJSON {
	return eventJSON{
		ID:            e.ID,
		Name:          e.Name,
		Description:   e.Description,
		Start:         e.Start,
		DurationHours: e.Duration.Hours(),
		RoomID:        e.RoomID,
		OrganizerID:   e.OrganizerID,
		Token:         e.Token,
		CreatedAt:     e.CreatedAt,
	}
}

func (j eventJSON) event() Event {
	return Event{
		ID:          j.ID,
		Name:        j.Name,
		Description: j.Description,
		Start:       j.Start,
		Duration:    HoursToDuration(j.DurationHours),
		RoomID:      j.RoomID,
		OrganizerID: j.OrganizerID,
		Token:       j.Token,
		CreatedAt:   j.CreatedAt,
	}
}

func (e Event) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.toJSON())
}

func (e *Event) UnmarshalJSON(data []byte) error {
	var j eventJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	*e = j.event()
	return nil
}

// HoursToDuration converts fractional hours to a Duration, rounded to the
// nearest nanosecond.
func HoursToDuration(hours float64) time.Duration {
	return time.Duration(math.Round(hours * float64(time.Hour)))
}

// End returns the exclusive end of the event.
func (e *Event) End() time.Time {
	return e.Start.Add(e.Duration)
}

// Interval returns the half-open span the event occupies its room for.
func (e *Event) Interval() interval.Interval {
	return interval.Of(e.Start, e.Duration)
}

// Started returns true once now has reached the start timestamp.
func (e *Event) Started(now time.Time) bool {
	return !now.Before(e.Start)
}

// Concluded returns true once now has reached the end timestamp.
func (e *Event) Concluded(now time.Time) bool {
	return !now.Before(e.End())
}

// Registration is a registrant's claim to attend an event.
type Registration struct {
	ID           uuid.UUID  `json:"id"`
	RegistrantID uuid.UUID  `json:"registrant_id"`
	EventID      uuid.UUID  `json:"event_id"`
	Status       Status     `json:"status"`
	RegisteredAt time.Time  `json:"registered_at"`
	ConfirmedAt  *time.Time `json:"confirmed_at,omitempty"`
}

// Seats summarises how full an event is.
type Seats struct {
	Capacity  int `json:"capacity"`
	Taken     int `json:"taken"`
	Available int `json:"available"`
}

// EventDetails is an event together with its room and seat usage.
type EventDetails struct {
	Event
	End      time.Time `json:"end"`
	RoomName string    `json:"room_name"`
	Seats    Seats     `json:"seats"`
}

type eventDetailsJSON struct {
	eventJSON
	End      time.Time `json:"end"`
	RoomName string    `json:"room_name"`
	Seats    Seats     `json:"seats"`
}

// MarshalJSON flattens the event fields next to the details. It is needed
// because Event's own MarshalJSON would otherwise be promoted.
func (d EventDetails) MarshalJSON() ([]byte, error) {
	return json.Marshal(eventDetailsJSON{
		eventJSON: d.Event.toJSON(),
		End:       d.End,
		RoomName:  d.RoomName,
		Seats:     d.Seats,
	})
}

func (d *EventDetails) UnmarshalJSON(data []byte) error {
	var j eventDetailsJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	*d = EventDetails{Event: j.eventJSON.event(), End: j.End, RoomName: j.RoomName, Seats: j.Seats}
	return nil
}

// EventCheck is what a registrant sees when a scanned token would be accepted.
type EventCheck struct {
	EventID  uuid.UUID `json:"event_id"`
	Name     string    `json:"name"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	RoomName string    `json:"room_name"`
}

// CreateRoomRequest is the payload for creating a room.
type CreateRoomRequest struct {
	Name        string `json:"name" validate:"notblank,max=150"`
	Description string `json:"description,omitempty" validate:"max=2000"`
	Capacity    int    `json:"capacity" validate:"gt=0,lte=100000"`
}

// UpdateRoomRequest is the payload for changing a room. Nil fields are left as-is.
type UpdateRoomRequest struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,notblank,max=150"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=2000"`
	Capacity    *int    `json:"capacity,omitempty" validate:"omitempty,gt=0,lte=100000"`
	Active      *bool   `json:"active,omitempty"`
}

// ScheduleEventRequest is the payload for scheduling a new event.
type ScheduleEventRequest struct {
	Name          string    `json:"name"`
	Description   string    `json:"description,omitempty"`
	RoomID        uuid.UUID `json:"room_id"`
	Start         time.Time `json:"start"`
	DurationHours float64   `json:"duration_hours"`
}

// EditEventRequest is the payload for editing an event. Nil fields are left as-is.
type EditEventRequest struct {
	Name          *string    `json:"name,omitempty"`
	Description   *string    `json:"description,omitempty"`
	Start         *time.Time `json:"start,omitempty"`
	DurationHours *float64   `json:"duration_hours,omitempty"`
}

// CheckInRequest is the payload for confirming attendance with a scanned token.
type CheckInRequest struct {
	Token string `json:"token"`
}

// AvailabilityResponse answers a room availability query.
type AvailabilityResponse struct {
	Available bool   `json:"available"`
	Conflict  *Event `json:"conflict,omitempty"`
}

// ErrorResponse is a standard JSON error envelope.
type ErrorResponse struct {
	Error    string `json:"error"`
	Code     string `json:"code,omitempty"`
	Conflict *Event `json:"conflict,omitempty"`
}

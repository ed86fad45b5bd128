package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shivanand-hulikatti/agencei/internal/config"
	"github.com/Shivanand-hulikatti/agencei/internal/model"
	"github.com/Shivanand-hulikatti/agencei/internal/notify"
	"github.com/Shivanand-hulikatti/agencei/internal/repository"
	"github.com/Shivanand-hulikatti/agencei/internal/service"
)

var now = time.Date(2030, 5, 10, 8, 0, 0, 0, time.UTC)

type testServer struct {
	t       *testing.T
	h       *Handler
	router  http.Handler
	current time.Time
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ts := &testServer{t: t, current: now}
	policy := config.Scheduling{
		MaxEventDuration:    12 * time.Hour,
		CheckInWindowBefore: 30 * time.Minute,
		CheckInWindowAfter:  30 * time.Minute,
		TokenPrefix:         "AGENCEI",
	}
	svc := service.New(repository.NewMemoryStore(), notify.Nop{}, policy, zerolog.Nop()).
		WithClock(service.ClockFunc(func() time.Time { return ts.current }))
	ts.h = New(svc, zerolog.Nop())
	ts.router = NewRouter(ts.h, nil, zerolog.Nop())
	return ts
}

type caller struct {
	id   uuid.UUID
	role string
}

var (
	admin     = caller{uuid.New(), "admin"}
	organizer = caller{uuid.New(), "organizer"}
	student   = caller{uuid.New(), "student"}
	anonymous = caller{}
)

func (ts *testServer) do(c caller, method, path string, body any) *httptest.ResponseRecorder {
	ts.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(ts.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if c.role != "" {
		req.Header.Set(HeaderUserID, c.id.String())
		req.Header.Set(HeaderUserRole, c.role)
	}
	rr := httptest.NewRecorder()
	ts.router.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

func (ts *testServer) createRoom(capacity int) model.Room {
	ts.t.Helper()
	rr := ts.do(admin, http.MethodPost, "/rooms", model.CreateRoomRequest{Name: "Lab", Capacity: capacity})
	require.Equal(ts.t, http.StatusCreated, rr.Code, rr.Body.String())
	return decode[model.Room](ts.t, rr)
}

func (ts *testServer) schedule(roomID uuid.UUID, start time.Time) *httptest.ResponseRecorder {
	ts.t.Helper()
	return ts.do(organizer, http.MethodPost, "/events", model.ScheduleEventRequest{
		Name: "Go workshop", RoomID: roomID, Start: start, DurationHours: 1,
	})
}

func TestBookingFlow(t *testing.T) {
	ts := newTestServer(t)
	room := ts.createRoom(1)

	rr := ts.schedule(room.ID, now.Add(2*time.Hour))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	event := decode[model.Event](t, rr)
	assert.NotEmpty(t, event.Token)
	assert.Contains(t, rr.Body.String(), `"duration_hours":1`)
	assert.Equal(t, time.Hour, event.Duration)

	rr = ts.schedule(room.ID, now.Add(150*time.Minute))
	assert.Equal(t, http.StatusConflict, rr.Code)
	resp := decode[model.ErrorResponse](t, rr)
	assert.Equal(t, "scheduling_conflict", resp.Code)
	require.NotNil(t, resp.Conflict)
	assert.Equal(t, event.ID, resp.Conflict.ID)

	regPath := fmt.Sprintf("/events/%s/registration", event.ID)
	rr = ts.do(student, http.MethodPost, regPath, nil)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = ts.do(student, http.MethodPost, regPath, nil)
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, "already_registered", decode[model.ErrorResponse](t, rr).Code)

	rr = ts.do(caller{uuid.New(), "student"}, http.MethodPost, regPath, nil)
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, "no_vacancy", decode[model.ErrorResponse](t, rr).Code)

	rr = ts.do(anonymous, http.MethodGet, "/events/"+event.ID.String(), nil)
	require.Equal(t, http.StatusOK, rr.Code)
	details := decode[model.EventDetails](t, rr)
	assert.Equal(t, model.Seats{Capacity: 1, Taken: 1, Available: 0}, details.Seats)

	rr = ts.do(student, http.MethodPost, "/checkin", model.CheckInRequest{Token: event.Token})
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Equal(t, "outside_window", decode[model.ErrorResponse](t, rr).Code)

	ts.current = event.Start.Add(10 * time.Minute)
	rr = ts.do(student, http.MethodPost, "/checkin/validate", model.CheckInRequest{Token: event.Token})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	check := decode[model.EventCheck](t, rr)
	assert.Equal(t, event.ID, check.EventID)
	assert.Equal(t, "Lab", check.RoomName)

	rr = ts.do(caller{uuid.New(), "student"}, http.MethodPost, "/checkin/validate", model.CheckInRequest{Token: event.Token})
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "not_registered", decode[model.ErrorResponse](t, rr).Code)

	rr = ts.do(student, http.MethodPost, "/checkin", model.CheckInRequest{Token: event.Token})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, model.StatusPresent, decode[model.Registration](t, rr).Status)

	rr = ts.do(student, http.MethodDelete, regPath, nil)
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, "already_confirmed", decode[model.ErrorResponse](t, rr).Code)

	rr = ts.do(organizer, http.MethodGet, fmt.Sprintf("/events/%s/registrations", event.ID), nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decode[[]model.Registration](t, rr), 1)

	rr = ts.do(student, http.MethodGet, "/registrations/mine", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decode[[]model.Registration](t, rr), 1)

	ts.current = event.End().Add(time.Hour)
	rr = ts.do(organizer, http.MethodPost, fmt.Sprintf("/events/%s/absentees", event.ID), nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, map[string]int{"marked": 0}, decode[map[string]int](t, rr))
}

func TestEventOwnership(t *testing.T) {
	ts := newTestServer(t)
	room := ts.createRoom(10)
	rr := ts.schedule(room.ID, now.Add(2*time.Hour))
	require.Equal(t, http.StatusCreated, rr.Code)
	event := decode[model.Event](t, rr)
	path := "/events/" + event.ID.String()

	other := caller{uuid.New(), "organizer"}
	rr = ts.do(other, http.MethodPatch, path, map[string]any{"name": "Mine now"})
	assert.Equal(t, http.StatusForbidden, rr.Code)
	rr = ts.do(other, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = ts.do(organizer, http.MethodPatch, path, map[string]any{"name": "Renamed"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "Renamed", decode[model.Event](t, rr).Name)

	rr = ts.do(organizer, http.MethodGet, "/events/mine", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decode[[]model.Event](t, rr), 1)

	rr = ts.do(organizer, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	rr = ts.do(anonymous, http.MethodGet, path, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestCapabilities(t *testing.T) {
	ts := newTestServer(t)
	room := ts.createRoom(10)

	tests := []struct {
		name   string
		caller caller
		method string
		path   string
		body   any
		want   int
	}{
		{"anonymous cannot create rooms", anonymous, http.MethodPost, "/rooms", model.CreateRoomRequest{Name: "x", Capacity: 1}, http.StatusUnauthorized},
		{"students cannot create rooms", student, http.MethodPost, "/rooms", model.CreateRoomRequest{Name: "x", Capacity: 1}, http.StatusForbidden},
		{"organizers cannot create rooms", organizer, http.MethodPost, "/rooms", model.CreateRoomRequest{Name: "x", Capacity: 1}, http.StatusForbidden},
		{"admins cannot schedule", admin, http.MethodPost, "/events", model.ScheduleEventRequest{Name: "x", RoomID: room.ID, Start: now.Add(time.Hour), DurationHours: 1}, http.StatusForbidden},
		{"organizers cannot register", organizer, http.MethodGet, "/registrations/mine", nil, http.StatusForbidden},
		{"students cannot check rosters", student, http.MethodGet, "/events/" + uuid.NewString() + "/registrations", nil, http.StatusForbidden},
		{"anyone can browse rooms", anonymous, http.MethodGet, "/rooms", nil, http.StatusOK},
		{"anyone can browse events", anonymous, http.MethodGet, "/events", nil, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := ts.do(tt.caller, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.want, rr.Code, rr.Body.String())
		})
	}
}

func TestIdentityRejectsMalformedHeaders(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/rooms", nil)
	req.Header.Set(HeaderUserID, "not-a-uuid")
	req.Header.Set(HeaderUserRole, "student")
	rr := httptest.NewRecorder()
	ts.router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = ts.do(caller{uuid.New(), "superuser"}, http.MethodGet, "/rooms", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestRoomEndpoints(t *testing.T) {
	ts := newTestServer(t)
	room := ts.createRoom(10)
	require.Equal(t, http.StatusCreated, ts.schedule(room.ID, now.Add(2*time.Hour)).Code)

	base := "/rooms/" + room.ID.String()
	q := func(start time.Time, hours string) string {
		return fmt.Sprintf("%s/availability?start=%s&duration_hours=%s", base, start.Format(time.RFC3339), hours)
	}

	rr := ts.do(anonymous, http.MethodGet, q(now.Add(3*time.Hour), "1"), nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, decode[model.AvailabilityResponse](t, rr).Available)

	rr = ts.do(anonymous, http.MethodGet, q(now.Add(150*time.Minute), "1"), nil)
	require.Equal(t, http.StatusOK, rr.Code)
	avail := decode[model.AvailabilityResponse](t, rr)
	assert.False(t, avail.Available)
	assert.NotNil(t, avail.Conflict)

	rr = ts.do(anonymous, http.MethodGet, q(now, "abc"), nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	rr = ts.do(anonymous, http.MethodGet, base+"/availability?start=yesterday&duration_hours=1", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = ts.do(anonymous, http.MethodGet, base+"/events", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decode[[]model.Event](t, rr), 1)

	freeRooms := func(start time.Time, query string) string {
		return fmt.Sprintf("/rooms/available?start=%s&duration_hours=1%s", start.Format(time.RFC3339), query)
	}
	rr = ts.do(anonymous, http.MethodGet, freeRooms(now.Add(150*time.Minute), ""), nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Empty(t, decode[[]model.Room](t, rr))
	rr = ts.do(anonymous, http.MethodGet, freeRooms(now.Add(5*time.Hour), "&min_capacity=10"), nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decode[[]model.Room](t, rr), 1)
	rr = ts.do(anonymous, http.MethodGet, freeRooms(now.Add(5*time.Hour), "&min_capacity=11"), nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, decode[[]model.Room](t, rr))
	rr = ts.do(anonymous, http.MethodGet, freeRooms(now.Add(5*time.Hour), "&min_capacity=many"), nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = ts.do(admin, http.MethodPost, "/rooms", model.CreateRoomRequest{Name: "Lab", Capacity: 5})
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, "room_name_taken", decode[model.ErrorResponse](t, rr).Code)

	rr = ts.do(admin, http.MethodPatch, base, map[string]any{"active": false})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.False(t, decode[model.Room](t, rr).Active)

	rr = ts.do(anonymous, http.MethodGet, q(now.Add(5*time.Hour), "1"), nil)
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, "room_inactive", decode[model.ErrorResponse](t, rr).Code)

	rr = ts.do(anonymous, http.MethodGet, "/rooms", nil)
	assert.Empty(t, decode[[]model.Room](t, rr))
	rr = ts.do(anonymous, http.MethodGet, "/rooms?all=true", nil)
	assert.Len(t, decode[[]model.Room](t, rr), 1)

	rr = ts.do(admin, http.MethodPost, "/rooms", map[string]any{"name": "x", "capacity": 1, "colour": "red"})
	assert.Equal(t, http.StatusBadRequest, rr.Code, "unknown fields are rejected")

	rr = ts.do(admin, http.MethodPost, "/rooms", model.CreateRoomRequest{Name: "", Capacity: 1})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "invalid_input", decode[model.ErrorResponse](t, rr).Code)
}

func TestInvalidPathID(t *testing.T) {
	ts := newTestServer(t)
	rr := ts.do(anonymous, http.MethodGet, "/events/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "invalid_id", decode[model.ErrorResponse](t, rr).Code)
}

func TestWriteServiceError(t *testing.T) {
	h := &Handler{log: zerolog.Nop()}
	tests := []struct {
		err  error
		want int
		code string
	}{
		{fmt.Errorf("%w: name is required", service.ErrInvalidInput), http.StatusBadRequest, "invalid_input"},
		{service.ErrPastDate, http.StatusUnprocessableEntity, "past_date"},
		{service.ErrRoomInactive, http.StatusConflict, "room_inactive"},
		{&service.ConflictError{Event: model.Event{Name: "x"}}, http.StatusConflict, "scheduling_conflict"},
		{service.ErrAlreadyConcluded, http.StatusConflict, "already_concluded"},
		{service.ErrEventAlreadyStarted, http.StatusConflict, "event_already_started"},
		{service.ErrNoVacancy, http.StatusConflict, "no_vacancy"},
		{service.ErrInvalidToken, http.StatusNotFound, "invalid_token"},
		{service.ErrNotRegistered, http.StatusNotFound, "not_registered"},
		{service.ErrOutsideWindow, http.StatusUnprocessableEntity, "outside_window"},
		{service.ErrEventConcluded, http.StatusConflict, "event_concluded"},
		{service.ErrPermissionDenied, http.StatusForbidden, "permission_denied"},
		{service.ErrWindowOpen, http.StatusConflict, "window_open"},
		{service.ErrRoomNameTaken, http.StatusConflict, "room_name_taken"},
		{service.ErrRoomNotFound, http.StatusNotFound, "room_not_found"},
		{service.ErrEventNotFound, http.StatusNotFound, "event_not_found"},
		{errors.New("connection reset"), http.StatusInternalServerError, "internal"},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			rr := httptest.NewRecorder()
			h.writeServiceError(rr, httptest.NewRequest(http.MethodGet, "/", nil), tt.err)
			assert.Equal(t, tt.want, rr.Code)
			resp := decode[model.ErrorResponse](t, rr)
			assert.Equal(t, tt.code, resp.Code)
		})
	}
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	rr := ts.do(anonymous, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	resp := decode[HealthResponse](t, rr)
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "pass", resp.Checks["store"].Status)

	ts.h.AddHealthCheck("redis", func(context.Context) error { return errors.New("down") })
	rr = ts.do(anonymous, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	resp = decode[HealthResponse](t, rr)
	assert.Equal(t, "degraded", resp.Status)
	assert.Equal(t, "fail", resp.Checks["redis"].Status)
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t)
	ts.do(anonymous, http.MethodGet, "/rooms", nil)

	rr := ts.do(anonymous, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "agencei_http_requests_total")
}

func TestCheckInLimiterDisabled(t *testing.T) {
	var nilLimiter *CheckInLimiter
	assert.False(t, nilLimiter.enabled())
	assert.False(t, NewCheckInLimiter(nil, 10, time.Minute, zerolog.Nop()).enabled())

	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true })
	rr := httptest.NewRecorder()
	nilLimiter.Middleware(next).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/checkin", nil))
	assert.True(t, called)
	assert.Empty(t, rr.Header().Get("X-RateLimit-Limit"))
}

package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/Shivanand-hulikatti/agencei/internal/model"
)

// ListRooms handles GET /rooms
// Only active rooms unless ?all=true.
func (h *Handler) ListRooms(w http.ResponseWriter, r *http.Request) {
	all, _ := strconv.ParseBool(r.URL.Query().Get("all"))

	rooms, err := h.svc.ListRooms(r.Context(), !all)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if rooms == nil {
		rooms = []model.Room{}
	}
	writeJSON(w, http.StatusOK, rooms)
}

// CreateRoom handles POST /rooms
func (h *Handler) CreateRoom(w http.ResponseWriter, r *http.Request) {
	var req model.CreateRoomRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "invalid request body: "+err.Error())
		return
	}

	room, err := h.svc.CreateRoom(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, room)
}

// UpdateRoom handles PATCH /rooms/{id}
func (h *Handler) UpdateRoom(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req model.UpdateRoomRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "invalid request body: "+err.Error())
		return
	}

	room, err := h.svc.UpdateRoom(r.Context(), id, req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, room)
}

// RoomAvailability handles GET /rooms/{id}/availability?start=RFC3339&duration_hours=N
func (h *Handler) RoomAvailability(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	start, hours, ok := slotQuery(w, r)
	if !ok {
		return
	}

	available, conflict, err := h.svc.RoomAvailability(r.Context(), id, start, hours)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, model.AvailabilityResponse{Available: available, Conflict: conflict})
}

// AvailableRooms handles GET /rooms/available?start=RFC3339&duration_hours=N&min_capacity=N
func (h *Handler) AvailableRooms(w http.ResponseWriter, r *http.Request) {
	start, hours, ok := slotQuery(w, r)
	if !ok {
		return
	}
	minCapacity := 0
	if raw := r.URL.Query().Get("min_capacity"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_input", "min_capacity must be an integer")
			return
		}
		minCapacity = n
	}

	rooms, err := h.svc.AvailableRooms(r.Context(), start, hours, minCapacity)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rooms)
}

// slotQuery reads the start and duration_hours query parameters.
func slotQuery(w http.ResponseWriter, r *http.Request) (time.Time, float64, bool) {
	q := r.URL.Query()
	start, err := time.Parse(time.RFC3339, q.Get("start"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "start must be an RFC 3339 timestamp")
		return time.Time{}, 0, false
	}
	hours, err := strconv.ParseFloat(q.Get("duration_hours"), 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "duration_hours must be a number")
		return time.Time{}, 0, false
	}
	return start, hours, true
}

// ListRoomEvents handles GET /rooms/{id}/events
func (h *Handler) ListRoomEvents(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	events, err := h.svc.ListEventsByRoom(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if events == nil {
		events = []model.Event{}
	}
	writeJSON(w, http.StatusOK, events)
}

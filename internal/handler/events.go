package handler

import (
	"net/http"

	"github.com/Shivanand-hulikatti/agencei/internal/model"
)

// ListEvents handles GET /events
// Returns the upcoming catalogue with seat counts.
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.svc.ListUpcomingEvents(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

// ScheduleEvent handles POST /events
func (h *Handler) ScheduleEvent(w http.ResponseWriter, r *http.Request) {
	var req model.ScheduleEventRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "invalid request body: "+err.Error())
		return
	}

	event, err := h.svc.ScheduleEvent(r.Context(), actor(r).ID, req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, event)
}

// MyEvents handles GET /events/mine
func (h *Handler) MyEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.svc.ListEventsByOrganizer(r.Context(), actor(r).ID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if events == nil {
		events = []model.Event{}
	}
	writeJSON(w, http.StatusOK, events)
}

// GetEvent handles GET /events/{id}
func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	event, err := h.svc.GetEvent(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

// EditEvent handles PATCH /events/{id}
func (h *Handler) EditEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req model.EditEventRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "invalid request body: "+err.Error())
		return
	}

	event, err := h.svc.EditEvent(r.Context(), id, actor(r).ID, req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

// DeleteEvent handles DELETE /events/{id}
func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteEvent(r.Context(), id, actor(r).ID); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Roster handles GET /events/{id}/registrations
func (h *Handler) Roster(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	regs, err := h.svc.EventRoster(r.Context(), id, actor(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if regs == nil {
		regs = []model.Registration{}
	}
	writeJSON(w, http.StatusOK, regs)
}

// MarkAbsentees handles POST /events/{id}/absentees
func (h *Handler) MarkAbsentees(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	n, err := h.svc.MarkAbsentees(r.Context(), id, actor(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"marked": n})
}

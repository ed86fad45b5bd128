package handler

import (
	"net/http"

	"github.com/Shivanand-hulikatti/agencei/internal/model"
)

// Register handles POST /events/{id}/registration
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	reg, err := h.svc.Register(r.Context(), actor(r).ID, id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, reg)
}

// CancelRegistration handles DELETE /events/{id}/registration
func (h *Handler) CancelRegistration(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.svc.CancelRegistration(r.Context(), actor(r).ID, id); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// MyRegistrations handles GET /registrations/mine
func (h *Handler) MyRegistrations(w http.ResponseWriter, r *http.Request) {
	regs, err := h.svc.ListRegistrationsByRegistrant(r.Context(), actor(r).ID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if regs == nil {
		regs = []model.Registration{}
	}
	writeJSON(w, http.StatusOK, regs)
}

// CheckIn handles POST /checkin
// Confirms the caller's attendance with a scanned event token.
func (h *Handler) CheckIn(w http.ResponseWriter, r *http.Request) {
	var req model.CheckInRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "invalid request body: "+err.Error())
		return
	}

	reg, err := h.svc.ConfirmAttendance(r.Context(), req.Token, actor(r).ID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reg)
}

// ValidateCheckIn handles POST /checkin/validate
// Runs the check-in checks for a scanned token without confirming anything.
func (h *Handler) ValidateCheckIn(w http.ResponseWriter, r *http.Request) {
	var req model.CheckInRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "invalid request body: "+err.Error())
		return
	}

	check, err := h.svc.ValidateCheckIn(r.Context(), req.Token, actor(r).ID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, check)
}

// Package handler contains chi HTTP handlers that translate HTTP
// requests/responses to and from the service layer.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Shivanand-hulikatti/agencei/internal/model"
	"github.com/Shivanand-hulikatti/agencei/internal/service"
)

// Handler holds all HTTP handlers for the booking API.
type Handler struct {
	svc    *service.Service
	log    zerolog.Logger
	checks map[string]func(context.Context) error
}

// New constructs a Handler. The store is always part of the health check.
func New(svc *service.Service, log zerolog.Logger) *Handler {
	return &Handler{
		svc:    svc,
		log:    log,
		checks: map[string]func(context.Context) error{"store": svc.Ping},
	}
}

// AddHealthCheck registers an extra dependency reported by /health.
func (h *Handler) AddHealthCheck(name string, ping func(context.Context) error) {
	h.checks[name] = ping
}

// ─── Helper utilities ─────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, model.ErrorResponse{Error: msg, Code: code})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MB limit
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_id", name+" must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}

// errorStatus maps a service error to its HTTP status and stable code.
var errorStatus = []struct {
	err    error
	status int
	code   string
}{
	{service.ErrInvalidInput, http.StatusBadRequest, "invalid_input"},
	{service.ErrPastDate, http.StatusUnprocessableEntity, "past_date"},
	{service.ErrRoomInactive, http.StatusConflict, "room_inactive"},
	{service.ErrSchedulingConflict, http.StatusConflict, "scheduling_conflict"},
	{service.ErrAlreadyConcluded, http.StatusConflict, "already_concluded"},
	{service.ErrEventAlreadyStarted, http.StatusConflict, "event_already_started"},
	{service.ErrAlreadyRegistered, http.StatusConflict, "already_registered"},
	{service.ErrNoVacancy, http.StatusConflict, "no_vacancy"},
	{service.ErrAlreadyConfirmed, http.StatusConflict, "already_confirmed"},
	{service.ErrInvalidToken, http.StatusNotFound, "invalid_token"},
	{service.ErrNotRegistered, http.StatusNotFound, "not_registered"},
	{service.ErrOutsideWindow, http.StatusUnprocessableEntity, "outside_window"},
	{service.ErrEventConcluded, http.StatusConflict, "event_concluded"},
	{service.ErrPermissionDenied, http.StatusForbidden, "permission_denied"},
	{service.ErrWindowOpen, http.StatusConflict, "window_open"},
	{service.ErrRoomNameTaken, http.StatusConflict, "room_name_taken"},
	{service.ErrRoomNotFound, http.StatusNotFound, "room_not_found"},
	{service.ErrEventNotFound, http.StatusNotFound, "event_not_found"},
}

// writeServiceError answers with the status for err's kind. Anything not a
// business-rule violation is logged and reported as a 500.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var conflict *service.ConflictError
	if errors.As(err, &conflict) {
		writeJSON(w, http.StatusConflict, model.ErrorResponse{
			Error:    err.Error(),
			Code:     "scheduling_conflict",
			Conflict: &conflict.Event,
		})
		return
	}

	for _, e := range errorStatus {
		if errors.Is(err, e.err) {
			writeError(w, e.status, e.code, err.Error())
			return
		}
	}

	h.log.Error().Err(err).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Msg("request failed")
	writeError(w, http.StatusInternalServerError, "internal", "internal error")
}

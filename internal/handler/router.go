package handler

import (
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/Shivanand-hulikatti/agencei/internal/model"
)

// NewRouter builds the HTTP router. limiter may be nil.
func NewRouter(h *Handler, limiter *CheckInLimiter, logger zerolog.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(Metrics)
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(Logger(logger))
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", HeaderUserID, HeaderUserRole},
		ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(Identity)

	r.Get("/health", h.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/rooms", func(r chi.Router) {
		r.Get("/", h.ListRooms)
		r.Get("/available", h.AvailableRooms)
		r.Get("/{id}/availability", h.RoomAvailability)
		r.Get("/{id}/events", h.ListRoomEvents)

		r.Group(func(r chi.Router) {
			r.Use(Require(model.CapManageRooms))
			r.Post("/", h.CreateRoom)
			r.Patch("/{id}", h.UpdateRoom)
		})
	})

	r.Route("/events", func(r chi.Router) {
		r.Get("/", h.ListEvents)
		r.Get("/{id}", h.GetEvent)

		r.Group(func(r chi.Router) {
			r.Use(Require(model.CapScheduleEvents))
			r.Post("/", h.ScheduleEvent)
			r.Get("/mine", h.MyEvents)
			r.Patch("/{id}", h.EditEvent)
			r.Delete("/{id}", h.DeleteEvent)
		})
		r.With(Require(model.CapViewRoster)).Get("/{id}/registrations", h.Roster)
		r.With(Require(model.CapMarkAbsent)).Post("/{id}/absentees", h.MarkAbsentees)

		r.Group(func(r chi.Router) {
			r.Use(Require(model.CapRegister))
			r.Post("/{id}/registration", h.Register)
			r.Delete("/{id}/registration", h.CancelRegistration)
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(Require(model.CapRegister))
		r.Get("/registrations/mine", h.MyRegistrations)
		r.With(limiter.Middleware).Post("/checkin", h.CheckIn)
		r.With(limiter.Middleware).Post("/checkin/validate", h.ValidateCheckIn)
	})

	return r
}

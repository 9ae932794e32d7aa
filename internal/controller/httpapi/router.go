// Package httpapi exposes the booking core over HTTP/JSON. The surface maps
// 1:1 onto the core operations; caller identity arrives as the X-Caller-ID
// header, resolved upstream by the platform's identity provider.
package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/mentorhub/booking/internal/service"
)

type Handler struct {
	availability *service.AvailabilityService
	bookings     *service.BookingService
	logger       *zap.Logger
}

func NewHandler(availability *service.AvailabilityService, bookings *service.BookingService, logger *zap.Logger) *Handler {
	return &Handler{
		availability: availability,
		bookings:     bookings,
		logger:       logger,
	}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Route("/mentors/{mentorID}", func(r chi.Router) {
		r.Put("/availability/{weekday}", h.setAvailability)
		r.Get("/availability", h.listAvailable)
		r.Get("/availability.png", h.availabilityImage)
		r.Get("/requests", h.listPendingRequests)
		r.Get("/sessions", h.listMentorSessions)
	})
	r.Get("/mentees/{menteeID}/sessions", h.listMenteeSessions)

	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", h.requestSession)
		r.Get("/{id}", h.getStatus)
		r.Post("/{id}/approve", h.approve)
		r.Post("/{id}/decline", h.decline)
		r.Post("/{id}/cancel", h.cancel)
	})

	return r
}

package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// NewRouter mounts every endpoint under /api behind the global middleware
// stack.
func NewRouter(events *EventHandler, colleges *CollegeHandler, log *zap.Logger, origins []string) http.Handler {
	r := chi.NewRouter()

	// Global middleware stack
	r.Use(chimiddleware.Recoverer) // recover from panics, return 500
	r.Use(chimiddleware.RequestID) // attach request IDs
	r.Use(chimiddleware.RealIP)    // trust X-Forwarded-For
	r.Use(Logger(log))             // structured access log
	r.Use(CORS(origins))

	r.Get("/health", HealthCheck)

	r.Route("/api", func(r chi.Router) {
		r.Route("/events", func(r chi.Router) {
			r.Get("/", events.ListEvents)
			r.Post("/", events.CreateEvent)
			r.Get("/search", events.SearchEvents)
			r.Get("/{id}", events.GetEvent)
			r.Put("/{id}", events.UpdateEvent)
			r.Get("/{id}/recommended", events.Recommend)
			r.Get("/{id}/registrations", events.ListRegistrations)
			r.Get("/{id}/registered", events.IsRegistered)
			r.Post("/{id}/rsvp", events.Register)
			r.Post("/{id}/unrsvp", events.Unregister)
		})
		r.Patch("/registrations/{id}/status", events.UpdateRegistrationStatus)
		r.Get("/users/registrations", events.ListUserRegistrations)

		r.Route("/colleges", func(r chi.Router) {
			r.Get("/", colleges.List)
			r.Post("/", colleges.Create)
			r.Get("/search", colleges.Search)
		})
	})

	return r
}

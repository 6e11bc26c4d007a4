package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"landmark-tour-service/internal/api/handlers"
	"landmark-tour-service/internal/platform/metrics"
)

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// Handlers only see the service interfaces, never concrete adapters.
func NewRouter(places handlers.PlaceFinder, tours handlers.TourManager) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(loggingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)

	placeHandler := &handlers.PlaceHandler{Places: places}
	tourHandler := &handlers.TourHandler{Tours: tours}

	r.Get("/health", handlers.Health)
	r.Handle("/metrics", metrics.Handler())

	r.Route("/places", func(r chi.Router) {
		r.Post("/identify", placeHandler.Identify)
		r.Get("/search", placeHandler.Search)
		r.Get("/suggest", placeHandler.Suggest)
		r.Get("/{placeID}/landmarks", placeHandler.Landmarks)
	})

	r.Route("/tours", func(r chi.Router) {
		r.Post("/", tourHandler.Create)
		r.Route("/{tourID}", func(r chi.Router) {
			r.Get("/", tourHandler.Get)
			r.Delete("/", tourHandler.Delete)
			r.Post("/navigation", tourHandler.StartNavigation)
			r.Get("/navigation", tourHandler.Snapshot)
			r.Post("/positions", tourHandler.Position)
			r.Post("/continue", tourHandler.Continue)
			r.Post("/repeat", tourHandler.Repeat)
			r.Post("/retry", tourHandler.Retry)
			r.Post("/mute", tourHandler.Mute)
			r.Post("/narration/ack", tourHandler.NarrationAck)
		})
	})

	return r
}

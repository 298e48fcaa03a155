package delivery

import (
	"net/http"

	"github.com/Vovarama1992/cableposter/internal/ports"
	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, hAuth *AuthHandler, auth ports.AuthService, hMedia *MediaHandler, events http.HandlerFunc) {

	// login
	r.Post("/api/login", hAuth.Login)

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(auth))

		// catalogue counters
		r.Get("/api/media/stats", hMedia.GetStats)

		// manual ingest / publish run
		r.Post("/api/cycles/{name}", hMedia.TriggerCycle)

		// pipeline event stream; browsers pass the token as ?token=
		r.Get("/ws", events)
	})
}

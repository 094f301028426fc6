package routes

import (
	"github.com/WhisperedLullaby/tournament-tracker-sub000/handlers"
	"github.com/WhisperedLullaby/tournament-tracker-sub000/middleware"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// SetupRoutes mounts the full HTTP surface. Read endpoints are public;
// every mutating route requires a bearer token, with per-tournament
// role checks in the service layer.
func SetupRoutes(
	router *chi.Mux,
	auth *middleware.Authenticator,
	tournamentHandler *handlers.TournamentHandler,
	registrationHandler *handlers.RegistrationHandler,
	gameHandler *handlers.GameHandler,
	bracketHandler *handlers.BracketHandler,
	websocketHandler *handlers.WebsocketHandler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(auth.Optional)
			r.Post("/register-pod", registrationHandler.RegisterPod)
			r.Patch("/manage-pod", registrationHandler.ManagePod)
		})

		r.Route("/tournaments", func(r chi.Router) {
			r.Get("/", tournamentHandler.List)
			r.Get("/{tournamentID}", tournamentHandler.Get)
			r.Get("/{tournamentID}/pods", tournamentHandler.ListPods)
			r.Get("/{tournamentID}/games", gameHandler.ListGames)
			r.Get("/{tournamentID}/standings", gameHandler.ListStandings)
			r.Get("/{tournamentID}/bracket", bracketHandler.GetBracket)

			r.Group(func(r chi.Router) {
				r.Use(auth.Require)
				r.Post("/", tournamentHandler.Create)
				r.Patch("/{tournamentID}", tournamentHandler.Update)
				r.Delete("/{tournamentID}", tournamentHandler.Delete)
				r.Post("/{tournamentID}/banner", tournamentHandler.UploadBanner)
				r.Post("/{tournamentID}/schedule", gameHandler.SchedulePoolGames)
			})
		})

		r.Route("/games", func(r chi.Router) {
			r.Use(auth.Require)
			r.Post("/start", gameHandler.StartNextGame)
			r.Patch("/{id}/score", gameHandler.UpdateScore)
			r.Post("/{id}/complete", gameHandler.CompleteGame)
		})

		r.Route("/bracket", func(r chi.Router) {
			r.Use(auth.Require)
			r.Post("/initialize", bracketHandler.Initialize)
			r.Post("/reset", bracketHandler.Reset)
			r.Route("/games", func(r chi.Router) {
				r.Post("/start", bracketHandler.StartNextGame)
				r.Patch("/{id}/score", bracketHandler.UpdateScore)
				r.Post("/{id}/complete", bracketHandler.CompleteGame)
			})
		})
	})

	router.Get("/ws/tournaments/{tournamentID}", websocketHandler.Subscribe)
}

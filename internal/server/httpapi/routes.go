package httpapi

import (
	"github.com/go-chi/chi/v5"

	"github.com/dmitrijs2005/playtracker/internal/logging"
)

func addRoutes(r chi.Router, opts Options, log logging.Logger, tracker Tracker) {
	r.Get("/healthz", handleHealth(log, opts.HealthChecks))

	r.Route("/api", func(r chi.Router) {
		r.Use(authMiddleware(opts.SecretKey))

		r.Get("/search", handleSearch(tracker))

		// everything below is scoped to the caller's challenge
		r.Group(func(r chi.Router) {
			r.Use(challengeMiddleware(log, tracker))

			r.Get("/challenge", handleGetChallenge())
			r.Get("/items", handleListItems(log, tracker))
			r.Post("/items", handleAddGame(log, tracker))
			r.Delete("/items/{gameID}", handleRemoveGame(log, tracker))

			r.Get("/games/{gameID}", handleGetGame(log, tracker))
			r.Get("/games/{gameID}/plays", handleHistory(log, tracker))
			r.Post("/games/{gameID}/plays", handleLogPlay(log, tracker, opts.MaxImageBytes))
			r.Get("/games/{gameID}/summary", handleGameSummary(log, tracker))

			r.Get("/plays", handleAllPlays(log, tracker))
			r.Put("/plays/{playID}", handleUpdatePlay(log, tracker, opts.MaxImageBytes))
			r.Delete("/plays/{playID}", handleDeletePlay(log, tracker))

			r.Get("/stats", handleStats(log, tracker))
			r.Get("/stats/monthly", handleMonthly(log, tracker))
			r.Get("/stats/recent", handleRecent(log, tracker))
		})
	})
}

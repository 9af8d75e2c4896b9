package web

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	corslib "github.com/rs/cors"
	"github.com/unrolled/render"
	"github.com/youcodecowboy/fantasy-hockey-analysis/controller"
)

type routerOptions struct {
	sessionSecret  []byte
	allowedOrigins []string
	requestTimeout time.Duration
}

func getRouter(ctrl controller.C, render *render.Render, opts routerOptions) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	c := corslib.New(corslib.Options{
		AllowedOrigins: opts.allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	})
	r.Use(c.Handler)

	// A sync walks several provider calls, so the budget is wider than a plain read.
	r.Use(middleware.Timeout(opts.requestTimeout))

	r.Get("/", rootHandler(render))

	r.Route("/oauth/yahoo", func(r chi.Router) {
		r.With(sessionMiddleware(opts.sessionSecret, render)).Get("/start", oauthStartHandler(ctrl, render))
		r.With(sessionMiddleware(opts.sessionSecret, render)).Get("/status", oauthStatusHandler(ctrl, render))
		// The callback comes back from Yahoo, the state identifies the user.
		r.Get("/callback", oauthCallbackHandler(ctrl, render))
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(sessionMiddleware(opts.sessionSecret, render))

		r.Post("/sync/leagues", syncLeaguesHandler(ctrl, render))
		r.Get("/leagues", listLeaguesHandler(ctrl, render))

		r.Route("/leagues/{leagueID:\\d+}", func(r chi.Router) {
			r.Get("/teams", leagueTeamsHandler(ctrl, render))
			r.Get("/team", userTeamHandler(ctrl, render))
			r.Get("/matchups", matchupsHandler(ctrl, render))
			r.Get("/free-agents", freeAgentsHandler(ctrl, render))

			r.Post("/sync/teams", syncTeamsHandler(ctrl, render))
			r.Post("/sync/matchups", syncMatchupsHandler(ctrl, render))
			r.Post("/sync/free-agents", syncFreeAgentsHandler(ctrl, render))

			r.Post("/analysis/free-agents", analyzeFreeAgentsHandler(ctrl, render))
			r.Post("/analysis/team", analyzeTeamHandler(ctrl, render))
			r.Get("/reports", listReportsHandler(ctrl, render))
		})

		r.Post("/teams/{teamID:\\d+}/sync/roster", syncRosterHandler(ctrl, render))
		r.Post("/players/{playerID:\\d+}/sync/stats", syncPlayerStatsHandler(ctrl, render))
		r.Post("/matchups/{matchupID:\\d+}/analysis", analyzeOpponentHandler(ctrl, render))
	})

	return r
}

package testutils

import (
	"embed"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

const (
	YahooGameKey   = "453"
	YahooLeagueKey = "453.l.1234"
	YahooTeamKey   = "453.l.1234.t.1"
	YahooPlayerKey = "453.p.6743"
)

// Resource names used to override or count fake Yahoo responses.
const (
	ResGames       = "games"
	ResLeagues     = "leagues"
	ResLeague      = "league"
	ResTeams       = "teams"
	ResScoreboard  = "scoreboard"
	ResPlayers     = "players"
	ResRoster      = "roster"
	ResPlayerStats = "stats"
)

//go:embed yahoodata
var yahoodata embed.FS

var defaultFiles = map[string]string{
	ResGames:       "games.xml",
	ResLeagues:     "leagues.xml",
	ResLeague:      "league.xml",
	ResTeams:       "teams.xml",
	ResScoreboard:  "scoreboard.xml",
	ResPlayers:     "players.xml",
	ResRoster:      "roster.xml",
	ResPlayerStats: "player_stats.xml",
}

// FakeYahooServer serves the embedded fixtures for the Yahoo resources the
// client knows about. Unknown league, team or player keys get Yahoo's 403.
type FakeYahooServer struct {
	s *httptest.Server

	mu        sync.Mutex
	files     map[string]string
	failures  map[string]int
	requests  map[string]int
	lastQuery map[string]string
	lastWeek  map[string]string
}

func NewFakeYahooServer() *FakeYahooServer {
	f := &FakeYahooServer{
		files:     map[string]string{},
		failures:  map[string]int{},
		requests:  map[string]int{},
		lastQuery: map[string]string{},
		lastWeek:  map[string]string{},
	}
	for k, v := range defaultFiles {
		f.files[k] = v
	}

	r := chi.NewRouter()
	r.Use(requireBearer)
	// https://fantasysports.yahooapis.com/fantasy/v2/league/453.l.1234/scoreboard;week=5
	r.Route("/fantasy/v2", func(r chi.Router) {
		r.Get("/users;use_login=1/*", f.usersHandler)
		r.Get("/league/{leagueKey}", f.leagueHandler)
		r.Get("/league/{leagueKey}/{resource}", f.leagueResourceHandler)
		r.Get("/team/{teamKey}/{resource}", f.teamResourceHandler)
		r.Get("/player/{playerKey}/{resource}", f.playerResourceHandler)
	})

	f.s = httptest.NewServer(r)
	return f
}

func (f *FakeYahooServer) Close() {
	f.s.Close()
}

func (f *FakeYahooServer) URL() string {
	return f.s.URL
}

// Serve replaces the fixture used for resource.
func (f *FakeYahooServer) Serve(resource, file string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.files[resource] = file
}

// Fail makes resource answer with status.
func (f *FakeYahooServer) Fail(resource string, status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[resource] = status
}

// Requests is the number of requests seen for resource.
func (f *FakeYahooServer) Requests(resource string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[resource]
}

// LastQuery is the raw query string of the latest request for resource.
func (f *FakeYahooServer) LastQuery(resource string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastQuery[resource]
}

// LastWeek is the ;week= value of the latest request for resource, "" if none.
func (f *FakeYahooServer) LastWeek(resource string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastWeek[resource]
}

func requireBearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(unauthorizedMessage))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (f *FakeYahooServer) usersHandler(w http.ResponseWriter, r *http.Request) {
	rest := chi.URLParam(r, "*")
	switch {
	case rest == "games":
		f.serve(w, r, ResGames, "")
	case rest == fmt.Sprintf("games;game_keys=%s/leagues", YahooGameKey):
		f.serve(w, r, ResLeagues, "")
	default:
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("error"))
	}
}

func (f *FakeYahooServer) leagueHandler(w http.ResponseWriter, r *http.Request) {
	if chi.URLParam(r, "leagueKey") != YahooLeagueKey {
		forbidden(w)
		return
	}
	f.serve(w, r, ResLeague, "")
}

func (f *FakeYahooServer) leagueResourceHandler(w http.ResponseWriter, r *http.Request) {
	if chi.URLParam(r, "leagueKey") != YahooLeagueKey {
		forbidden(w)
		return
	}
	resource, week := splitWeek(chi.URLParam(r, "resource"))
	switch resource {
	case ResTeams, ResScoreboard, ResPlayers:
		f.serve(w, r, resource, week)
	default:
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("error"))
	}
}

func (f *FakeYahooServer) teamResourceHandler(w http.ResponseWriter, r *http.Request) {
	resource, week := splitWeek(chi.URLParam(r, "resource"))
	if chi.URLParam(r, "teamKey") != YahooTeamKey || resource != ResRoster {
		forbidden(w)
		return
	}
	f.serve(w, r, ResRoster, week)
}

func (f *FakeYahooServer) playerResourceHandler(w http.ResponseWriter, r *http.Request) {
	resource, week := splitWeek(chi.URLParam(r, "resource"))
	if chi.URLParam(r, "playerKey") != YahooPlayerKey || resource != ResPlayerStats {
		forbidden(w)
		return
	}
	f.serve(w, r, ResPlayerStats, week)
}

// splitWeek splits "scoreboard;week=5" into "scoreboard" and "5".
func splitWeek(segment string) (string, string) {
	resource, params, _ := strings.Cut(segment, ";")
	week := strings.TrimPrefix(params, "week=")
	return resource, week
}

func (f *FakeYahooServer) serve(w http.ResponseWriter, r *http.Request, resource, week string) {
	f.mu.Lock()
	f.requests[resource]++
	f.lastQuery[resource] = r.URL.RawQuery
	f.lastWeek[resource] = week
	status := f.failures[resource]
	file := f.files[resource]
	f.mu.Unlock()

	if status != 0 {
		w.WriteHeader(status)
		w.Write([]byte(fmt.Sprintf("fake failure for %s", resource)))
		return
	}
	serveYahooFile(w, file)
}

func serveYahooFile(w http.ResponseWriter, name string) {
	b, err := yahoodata.ReadFile(fmt.Sprintf("yahoodata/%s", name))
	if err != nil {
		log.Err(err).Str("file", name).Msg("error reading yahoo fixture")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Add("Content-Type", "text/xml")
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

func forbidden(w http.ResponseWriter) {
	w.Header().Add("Content-Type", "text/xml")
	w.WriteHeader(http.StatusForbidden)
	w.Write([]byte(forbiddenMessage))
}

const forbiddenMessage = `<?xml version="1.0" encoding="UTF-8"?>
<error xml:lang="en-us" yahoo:uri="http://fantasysports.yahooapis.com/fantasy/v2/league/453.l.99999"
xmlns:yahoo="http://www.yahooapis.com/v1/base.rng" xmlns="http://www.yahooapis.com/v1/base.rng">
    <description>You are not allowed to view this page because you are not in this league.</description>
    <detail/>
</error>`

const unauthorizedMessage = `<?xml version="1.0" encoding="UTF-8"?>
<error xml:lang="en-us" xmlns:yahoo="http://www.yahooapis.com/v1/base.rng" xmlns="http://www.yahooapis.com/v1/base.rng">
    <description>Please provide valid credentials. OAuth oauth_problem="unable_to_determine_oauth_type", realm="yahooapis.com"</description>
</error>`

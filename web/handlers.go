package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
	"github.com/unrolled/render"
	"github.com/youcodecowboy/fantasy-hockey-analysis/controller"
	"github.com/youcodecowboy/fantasy-hockey-analysis/model"
)

type errorResponse struct {
	Error string `json:"error"`
}

func errorBody(msg string) errorResponse {
	return errorResponse{Error: msg}
}

// statusFor maps the error taxonomy onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case model.IsAuthenticationError(err):
		return http.StatusUnauthorized
	case model.IsNotFoundError(err):
		return http.StatusNotFound
	case model.IsUpstreamError(err), model.IsParseError(err):
		return http.StatusBadGateway
	case errors.Is(err, controller.ErrAnalysisDisabled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, render *render.Render, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Err(err).Str("path", r.URL.Path).Int("status", status).Msg("request failed")
	}
	render.JSON(w, status, errorBody(err.Error()))
}

func badRequest(w http.ResponseWriter, render *render.Render, err error) {
	render.JSON(w, http.StatusBadRequest, errorBody(err.Error()))
}

func pathID(r *http.Request, name string) (int32, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("error parsing %s: %w", name, err)
	}
	return int32(id), nil
}

// queryInt reads an optional non-negative integer parameter. Absent is 0.
func queryInt(r *http.Request, name string) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("error parsing %s: %w", name, err)
	}
	if n < 0 {
		return 0, fmt.Errorf("%s must not be negative, got %d", name, n)
	}
	return n, nil
}

func rootHandler(render *render.Render) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render.Text(w, http.StatusOK, "fantasy hockey sync")
	}
}

func syncLeaguesHandler(ctrl controller.C, render *render.Render) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := ctrl.SyncLeagues(r.Context(), currentUser(r))
		if err != nil {
			writeError(w, r, render, err)
			return
		}
		render.JSON(w, http.StatusOK, res)
	}
}

func syncTeamsHandler(ctrl controller.C, render *render.Render) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		leagueID, err := pathID(r, "leagueID")
		if err != nil {
			badRequest(w, render, err)
			return
		}
		res, err := ctrl.SyncTeams(r.Context(), currentUser(r), leagueID)
		if err != nil {
			writeError(w, r, render, err)
			return
		}
		render.JSON(w, http.StatusOK, res)
	}
}

func syncMatchupsHandler(ctrl controller.C, render *render.Render) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		leagueID, err := pathID(r, "leagueID")
		if err != nil {
			badRequest(w, render, err)
			return
		}
		week, err := queryInt(r, "week")
		if err != nil {
			badRequest(w, render, err)
			return
		}
		res, err := ctrl.SyncMatchups(r.Context(), currentUser(r), leagueID, week)
		if err != nil {
			writeError(w, r, render, err)
			return
		}
		render.JSON(w, http.StatusOK, res)
	}
}

func syncFreeAgentsHandler(ctrl controller.C, render *render.Render) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		leagueID, err := pathID(r, "leagueID")
		if err != nil {
			badRequest(w, render, err)
			return
		}
		count, err := queryInt(r, "count")
		if err != nil {
			badRequest(w, render, err)
			return
		}
		position := r.URL.Query().Get("position")

		res, err := ctrl.SyncFreeAgents(r.Context(), currentUser(r), leagueID, position, count)
		if err != nil {
			writeError(w, r, render, err)
			return
		}
		render.JSON(w, http.StatusOK, res)
	}
}

func syncRosterHandler(ctrl controller.C, render *render.Render) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		teamID, err := pathID(r, "teamID")
		if err != nil {
			badRequest(w, render, err)
			return
		}
		week, err := queryInt(r, "week")
		if err != nil {
			badRequest(w, render, err)
			return
		}
		res, err := ctrl.SyncRoster(r.Context(), currentUser(r), teamID, week)
		if err != nil {
			writeError(w, r, render, err)
			return
		}
		render.JSON(w, http.StatusOK, res)
	}
}

func syncPlayerStatsHandler(ctrl controller.C, render *render.Render) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		playerID, err := pathID(r, "playerID")
		if err != nil {
			badRequest(w, render, err)
			return
		}
		week, err := queryInt(r, "week")
		if err != nil {
			badRequest(w, render, err)
			return
		}
		stats, err := ctrl.SyncPlayerStats(r.Context(), currentUser(r), playerID, week)
		if err != nil {
			writeError(w, r, render, err)
			return
		}
		render.JSON(w, http.StatusOK, stats)
	}
}

func listLeaguesHandler(ctrl controller.C, render *render.Render) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		leagues, err := ctrl.ListLeagues(r.Context(), currentUser(r))
		if err != nil {
			writeError(w, r, render, err)
			return
		}
		render.JSON(w, http.StatusOK, leagues)
	}
}

func leagueTeamsHandler(ctrl controller.C, render *render.Render) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		leagueID, err := pathID(r, "leagueID")
		if err != nil {
			badRequest(w, render, err)
			return
		}
		teams, err := ctrl.GetLeagueTeams(r.Context(), currentUser(r), leagueID)
		if err != nil {
			writeError(w, r, render, err)
			return
		}
		render.JSON(w, http.StatusOK, teams)
	}
}

func userTeamHandler(ctrl controller.C, render *render.Render) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		leagueID, err := pathID(r, "leagueID")
		if err != nil {
			badRequest(w, render, err)
			return
		}
		team, err := ctrl.GetUserTeam(r.Context(), currentUser(r), leagueID)
		if err != nil {
			writeError(w, r, render, err)
			return
		}
		render.JSON(w, http.StatusOK, team)
	}
}

func matchupsHandler(ctrl controller.C, render *render.Render) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		leagueID, err := pathID(r, "leagueID")
		if err != nil {
			badRequest(w, render, err)
			return
		}
		week, err := queryInt(r, "week")
		if err != nil {
			badRequest(w, render, err)
			return
		}
		matchups, err := ctrl.GetMatchups(r.Context(), currentUser(r), leagueID, week)
		if err != nil {
			writeError(w, r, render, err)
			return
		}
		render.JSON(w, http.StatusOK, matchups)
	}
}

func freeAgentsHandler(ctrl controller.C, render *render.Render) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		leagueID, err := pathID(r, "leagueID")
		if err != nil {
			badRequest(w, render, err)
			return
		}
		players, err := ctrl.GetFreeAgents(r.Context(), currentUser(r), leagueID)
		if err != nil {
			writeError(w, r, render, err)
			return
		}
		render.JSON(w, http.StatusOK, players)
	}
}

type analysisResponse struct {
	ReportID int32  `json:"reportId"`
	Analysis string `json:"analysis"`
}

func newAnalysisResponse(r *model.AnalysisReport) analysisResponse {
	return analysisResponse{ReportID: r.ID, Analysis: r.Content}
}

type freeAgentAnalysisRequest struct {
	PlayerIDs []int32 `json:"playerIds"`
}

func analyzeFreeAgentsHandler(ctrl controller.C, render *render.Render) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		leagueID, err := pathID(r, "leagueID")
		if err != nil {
			badRequest(w, render, err)
			return
		}

		// An empty body analyses the league's current free agents.
		var req freeAgentAnalysisRequest
		if r.ContentLength != 0 {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				badRequest(w, render, fmt.Errorf("error decoding request: %w", err))
				return
			}
		}

		report, err := ctrl.AnalyzeFreeAgents(r.Context(), currentUser(r), leagueID, req.PlayerIDs)
		if err != nil {
			writeError(w, r, render, err)
			return
		}
		render.JSON(w, http.StatusOK, newAnalysisResponse(report))
	}
}

func analyzeTeamHandler(ctrl controller.C, render *render.Render) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		leagueID, err := pathID(r, "leagueID")
		if err != nil {
			badRequest(w, render, err)
			return
		}
		report, err := ctrl.AnalyzeTeam(r.Context(), currentUser(r), leagueID)
		if err != nil {
			writeError(w, r, render, err)
			return
		}
		render.JSON(w, http.StatusOK, newAnalysisResponse(report))
	}
}

func analyzeOpponentHandler(ctrl controller.C, render *render.Render) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		matchupID, err := pathID(r, "matchupID")
		if err != nil {
			badRequest(w, render, err)
			return
		}
		report, err := ctrl.AnalyzeOpponent(r.Context(), currentUser(r), matchupID)
		if err != nil {
			writeError(w, r, render, err)
			return
		}
		render.JSON(w, http.StatusOK, newAnalysisResponse(report))
	}
}

func listReportsHandler(ctrl controller.C, render *render.Render) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		leagueID, err := pathID(r, "leagueID")
		if err != nil {
			badRequest(w, render, err)
			return
		}
		reportType, err := model.ParseReportType(r.URL.Query().Get("type"))
		if err != nil {
			badRequest(w, render, err)
			return
		}

		reports, err := ctrl.ListReports(r.Context(), currentUser(r), leagueID, reportType)
		if err != nil {
			writeError(w, r, render, err)
			return
		}
		render.JSON(w, http.StatusOK, reports)
	}
}

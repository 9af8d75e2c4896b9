package controller

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/itbasis/go-clock"
	"github.com/youcodecowboy/fantasy-hockey-analysis/db"
	"github.com/youcodecowboy/fantasy-hockey-analysis/model"
	"github.com/youcodecowboy/fantasy-hockey-analysis/platforms/yahoo"
	"golang.org/x/oauth2"
)

// C encapsulates the sync and analysis logic without worrying about any web
// layers. Every operation takes the acting user's id explicitly.
type C interface {
	// OAuthStart returns the Yahoo consent URL for userID.
	OAuthStart(userID string) (string, error)
	// OAuthExchange finishes the link started by OAuthStart and stores the credential.
	OAuthExchange(ctx context.Context, state, code string) (*model.Credential, error)
	// OAuthStatus reports whether userID has a stored Yahoo credential. It never carries tokens.
	OAuthStatus(ctx context.Context, userID string) (*model.LinkStatus, error)

	// SyncLeagues finds the user's hockey game and upserts each of its leagues.
	// An account without hockey leagues is a zero result with a message, not an error.
	SyncLeagues(ctx context.Context, userID string) (*model.SyncResult, error)
	SyncTeams(ctx context.Context, userID string, leagueID int32) (*model.SyncResult, error)
	// SyncMatchups syncs the scoreboard of week, or the current week when week is 0.
	SyncMatchups(ctx context.Context, userID string, leagueID int32, week int) (*model.SyncResult, error)
	// SyncFreeAgents upserts a page of the league's player pool. count 0 uses the provider's page size.
	SyncFreeAgents(ctx context.Context, userID string, leagueID int32, position string, count int) (*model.SyncResult, error)
	SyncRoster(ctx context.Context, userID string, teamID int32, week int) (*model.SyncResult, error)
	SyncPlayerStats(ctx context.Context, userID string, playerID int32, week int) (*model.PlayerStats, error)

	ListLeagues(ctx context.Context, userID string) ([]model.League, error)
	GetLeagueTeams(ctx context.Context, userID string, leagueID int32) ([]model.Team, error)
	GetUserTeam(ctx context.Context, userID string, leagueID int32) (*model.Team, error)
	GetMatchups(ctx context.Context, userID string, leagueID int32, week int) ([]model.Matchup, error)
	GetFreeAgents(ctx context.Context, userID string, leagueID int32) ([]model.Player, error)

	// The Analyze operations store each answer as a report and return it.
	AnalyzeFreeAgents(ctx context.Context, userID string, leagueID int32, playerIDs []int32) (*model.AnalysisReport, error)
	AnalyzeOpponent(ctx context.Context, userID string, matchupID int32) (*model.AnalysisReport, error)
	AnalyzeTeam(ctx context.Context, userID string, leagueID int32) (*model.AnalysisReport, error)
	// ListReports lists stored reports, optionally of one type.
	ListReports(ctx context.Context, userID string, leagueID int32, reportType model.ReportType) ([]model.AnalysisReport, error)
}

// Provider is the Yahoo resource fetcher. Every call returns the raw XML body.
type Provider interface {
	GetUserGames(ctx context.Context, userID string) ([]byte, error)
	GetUserLeagues(ctx context.Context, userID, gameKey string) ([]byte, error)
	GetLeagueTeams(ctx context.Context, userID, leagueKey string) ([]byte, error)
	GetScoreboard(ctx context.Context, userID, leagueKey string, week int) ([]byte, error)
	GetPlayers(ctx context.Context, userID, leagueKey string, filter yahoo.PlayerFilter) ([]byte, error)
	GetTeamRoster(ctx context.Context, userID, teamKey string, week int) ([]byte, error)
	GetPlayerStats(ctx context.Context, userID, playerKey string, week int) ([]byte, error)
}

// Linker stores the first credential for a user from an authorization code.
type Linker interface {
	Exchange(ctx context.Context, userID, code string) (*model.Credential, error)
}

// Analyst turns a prompt into narrative text.
type Analyst interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

var ErrAnalysisDisabled = errors.New("analysis is not configured")

type controller struct {
	clock       clock.Clock
	db          db.DB
	yahoo       Provider
	linker      Linker
	yahooConfig *oauth2.Config
	analyst     Analyst

	oauthLock   sync.Mutex
	oauthStates map[string]*oauthState

	// Concurrent upserts per free agent sync.
	upsertLimit int
}

// New builds the controller. analyst may be nil, in which case the Analyze
// operations return ErrAnalysisDisabled.
func New(clock clock.Clock, db db.DB, yahoo Provider, linker Linker, yahooConfig *oauth2.Config, analyst Analyst) (C, error) {
	if db == nil || yahoo == nil {
		return nil, errors.New("controller needs a store and a yahoo client")
	}
	c := &controller{
		clock:       clock,
		db:          db,
		yahoo:       yahoo,
		linker:      linker,
		yahooConfig: yahooConfig,
		analyst:     analyst,
		oauthStates: make(map[string]*oauthState),
		upsertLimit: 4,
	}
	return c, nil
}

func requireUser(userID string) error {
	if userID == "" {
		return &model.AuthenticationError{Reason: "no session"}
	}
	return nil
}

// userLeague loads a league the user has synced. Someone else's league is
// reported as missing.
func (c *controller) userLeague(ctx context.Context, userID string, leagueID int32) (*model.League, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}

	l, err := c.db.GetLeague(ctx, leagueID)
	if errors.Is(err, db.ErrLeagueNotFound) {
		return nil, &model.NotFoundError{Kind: "league", Key: fmt.Sprint(leagueID), Err: err}
	}
	if err != nil {
		return nil, fmt.Errorf("error looking up league: %w", err)
	}
	if l.OwnerUserID != userID {
		return nil, &model.NotFoundError{Kind: "league", Key: fmt.Sprint(leagueID)}
	}
	return l, nil
}

func (c *controller) userTeam(ctx context.Context, userID string, teamID int32) (*model.Team, *model.League, error) {
	if err := requireUser(userID); err != nil {
		return nil, nil, err
	}

	t, err := c.db.GetTeam(ctx, teamID)
	if errors.Is(err, db.ErrTeamNotFound) {
		return nil, nil, &model.NotFoundError{Kind: "team", Key: fmt.Sprint(teamID), Err: err}
	}
	if err != nil {
		return nil, nil, fmt.Errorf("error looking up team: %w", err)
	}

	l, err := c.userLeague(ctx, userID, t.LeagueID)
	if err != nil {
		return nil, nil, err
	}
	return t, l, nil
}

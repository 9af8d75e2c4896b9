package db

import (
	"context"
	"errors"

	"github.com/youcodecowboy/fantasy-hockey-analysis/model"
)

var (
	ErrCredentialNotFound error = errors.New("credential not found")
	ErrLeagueNotFound     error = errors.New("league not found")
	ErrTeamNotFound       error = errors.New("team not found")
	ErrPlayerNotFound     error = errors.New("player not found")
	ErrMatchupNotFound    error = errors.New("matchup not found")
	ErrRosterNotFound     error = errors.New("roster not found")
)

// DB is the local store. Every Upsert is keyed by the provider's external key
// (or the matchup/roster tuple) and returns the stored record, so callers get
// the local ID and the original CreatedAt back.
type DB interface {
	GetCredential(ctx context.Context, userID string) (*model.Credential, error)
	// SaveCredential replaces the user's access token, refresh token and expiry in one write.
	SaveCredential(ctx context.Context, c *model.Credential) error

	UpsertLeague(ctx context.Context, l *model.League) (*model.League, error)
	GetLeague(ctx context.Context, id int32) (*model.League, error)
	GetLeagueByKey(ctx context.Context, externalKey string) (*model.League, error)
	// Lists the leagues synced by a user, most recent season first.
	ListLeagues(ctx context.Context, ownerUserID string) ([]model.League, error)

	UpsertTeam(ctx context.Context, t *model.Team) (*model.Team, error)
	GetTeam(ctx context.Context, id int32) (*model.Team, error)
	GetTeamByKey(ctx context.Context, externalKey string) (*model.Team, error)
	GetLeagueTeams(ctx context.Context, leagueID int32) ([]model.Team, error)

	UpsertPlayer(ctx context.Context, p *model.Player) (*model.Player, error)
	GetPlayer(ctx context.Context, id int32) (*model.Player, error)
	GetPlayerByKey(ctx context.Context, externalKey string) (*model.Player, error)
	SavePlayerStats(ctx context.Context, playerID int32, stats *model.PlayerStats) error

	UpsertMatchup(ctx context.Context, m *model.Matchup) (*model.Matchup, error)
	GetMatchup(ctx context.Context, id int32) (*model.Matchup, error)
	// Week 0 returns the matchups of every week.
	GetMatchups(ctx context.Context, leagueID int32, week int) ([]model.Matchup, error)

	UpsertRoster(ctx context.Context, r *model.Roster) (*model.Roster, error)
	GetRoster(ctx context.Context, teamID int32, week *int) (*model.Roster, error)
	// Players with no roster entry on any of the league's teams.
	GetFreeAgents(ctx context.Context, leagueID int32) ([]model.Player, error)

	SaveAnalysisReport(ctx context.Context, r *model.AnalysisReport) (*model.AnalysisReport, error)
	// Newest first. An empty reportType lists every type.
	ListAnalysisReports(ctx context.Context, userID string, leagueID int32, reportType model.ReportType) ([]model.AnalysisReport, error)
}

func weekOrZero(week *int) int {
	if week == nil {
		return 0
	}
	return *week
}

func weekOrNil(week int) *int {
	if week == 0 {
		return nil
	}
	return &week
}

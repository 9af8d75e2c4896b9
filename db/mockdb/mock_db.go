package mockdb

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/youcodecowboy/fantasy-hockey-analysis/model"
)

type DB struct {
	mock.Mock
}

func (db *DB) GetCredential(ctx context.Context, userID string) (*model.Credential, error) {
	args := db.Called(ctx, userID)

	var c *model.Credential
	if args.Get(0) != nil {
		c = args.Get(0).(*model.Credential)
	}
	return c, args.Error(1)
}

func (db *DB) SaveCredential(ctx context.Context, c *model.Credential) error {
	args := db.Called(ctx, c)
	return args.Error(0)
}

func (db *DB) UpsertLeague(ctx context.Context, l *model.League) (*model.League, error) {
	args := db.Called(ctx, l)
	return league(args)
}

func (db *DB) GetLeague(ctx context.Context, id int32) (*model.League, error) {
	args := db.Called(ctx, id)
	return league(args)
}

func (db *DB) GetLeagueByKey(ctx context.Context, externalKey string) (*model.League, error) {
	args := db.Called(ctx, externalKey)
	return league(args)
}

func (db *DB) ListLeagues(ctx context.Context, ownerUserID string) ([]model.League, error) {
	args := db.Called(ctx, ownerUserID)

	var r []model.League
	if args.Get(0) != nil {
		r = args.Get(0).([]model.League)
	}
	return r, args.Error(1)
}

func (db *DB) UpsertTeam(ctx context.Context, t *model.Team) (*model.Team, error) {
	args := db.Called(ctx, t)
	return team(args)
}

func (db *DB) GetTeam(ctx context.Context, id int32) (*model.Team, error) {
	args := db.Called(ctx, id)
	return team(args)
}

func (db *DB) GetTeamByKey(ctx context.Context, externalKey string) (*model.Team, error) {
	args := db.Called(ctx, externalKey)
	return team(args)
}

func (db *DB) GetLeagueTeams(ctx context.Context, leagueID int32) ([]model.Team, error) {
	args := db.Called(ctx, leagueID)

	var r []model.Team
	if args.Get(0) != nil {
		r = args.Get(0).([]model.Team)
	}
	return r, args.Error(1)
}

func (db *DB) UpsertPlayer(ctx context.Context, p *model.Player) (*model.Player, error) {
	args := db.Called(ctx, p)
	return player(args)
}

func (db *DB) GetPlayer(ctx context.Context, id int32) (*model.Player, error) {
	args := db.Called(ctx, id)
	return player(args)
}

func (db *DB) GetPlayerByKey(ctx context.Context, externalKey string) (*model.Player, error) {
	args := db.Called(ctx, externalKey)
	return player(args)
}

func (db *DB) SavePlayerStats(ctx context.Context, playerID int32, stats *model.PlayerStats) error {
	args := db.Called(ctx, playerID, stats)
	return args.Error(0)
}

func (db *DB) UpsertMatchup(ctx context.Context, m *model.Matchup) (*model.Matchup, error) {
	args := db.Called(ctx, m)
	return matchup(args)
}

func (db *DB) GetMatchup(ctx context.Context, id int32) (*model.Matchup, error) {
	args := db.Called(ctx, id)
	return matchup(args)
}

func (db *DB) GetMatchups(ctx context.Context, leagueID int32, week int) ([]model.Matchup, error) {
	args := db.Called(ctx, leagueID, week)

	var r []model.Matchup
	if args.Get(0) != nil {
		r = args.Get(0).([]model.Matchup)
	}
	return r, args.Error(1)
}

func (db *DB) UpsertRoster(ctx context.Context, r *model.Roster) (*model.Roster, error) {
	args := db.Called(ctx, r)
	return roster(args)
}

func (db *DB) GetRoster(ctx context.Context, teamID int32, week *int) (*model.Roster, error) {
	args := db.Called(ctx, teamID, week)
	return roster(args)
}

func (db *DB) GetFreeAgents(ctx context.Context, leagueID int32) ([]model.Player, error) {
	args := db.Called(ctx, leagueID)

	var r []model.Player
	if args.Get(0) != nil {
		r = args.Get(0).([]model.Player)
	}
	return r, args.Error(1)
}

func (db *DB) SaveAnalysisReport(ctx context.Context, r *model.AnalysisReport) (*model.AnalysisReport, error) {
	args := db.Called(ctx, r)

	var res *model.AnalysisReport
	if args.Get(0) != nil {
		res = args.Get(0).(*model.AnalysisReport)
	}
	return res, args.Error(1)
}

func (db *DB) ListAnalysisReports(ctx context.Context, userID string, leagueID int32, reportType model.ReportType) ([]model.AnalysisReport, error) {
	args := db.Called(ctx, userID, leagueID, reportType)

	var r []model.AnalysisReport
	if args.Get(0) != nil {
		r = args.Get(0).([]model.AnalysisReport)
	}
	return r, args.Error(1)
}

func league(args mock.Arguments) (*model.League, error) {
	var l *model.League
	if args.Get(0) != nil {
		l = args.Get(0).(*model.League)
	}
	return l, args.Error(1)
}

func team(args mock.Arguments) (*model.Team, error) {
	var t *model.Team
	if args.Get(0) != nil {
		t = args.Get(0).(*model.Team)
	}
	return t, args.Error(1)
}

func player(args mock.Arguments) (*model.Player, error) {
	var p *model.Player
	if args.Get(0) != nil {
		p = args.Get(0).(*model.Player)
	}
	return p, args.Error(1)
}

func matchup(args mock.Arguments) (*model.Matchup, error) {
	var m *model.Matchup
	if args.Get(0) != nil {
		m = args.Get(0).(*model.Matchup)
	}
	return m, args.Error(1)
}

func roster(args mock.Arguments) (*model.Roster, error) {
	var r *model.Roster
	if args.Get(0) != nil {
		r = args.Get(0).(*model.Roster)
	}
	return r, args.Error(1)
}

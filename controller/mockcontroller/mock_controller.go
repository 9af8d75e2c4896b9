package mockcontroller

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/youcodecowboy/fantasy-hockey-analysis/model"
)

type C struct {
	mock.Mock
}

func (c *C) OAuthStart(userID string) (string, error) {
	args := c.Called(userID)
	return args.String(0), args.Error(1)
}

func (c *C) OAuthExchange(ctx context.Context, state, code string) (*model.Credential, error) {
	args := c.Called(ctx, state, code)

	var cred *model.Credential
	if args.Get(0) != nil {
		cred = args.Get(0).(*model.Credential)
	}
	return cred, args.Error(1)
}

func (c *C) OAuthStatus(ctx context.Context, userID string) (*model.LinkStatus, error) {
	args := c.Called(ctx, userID)

	var st *model.LinkStatus
	if args.Get(0) != nil {
		st = args.Get(0).(*model.LinkStatus)
	}
	return st, args.Error(1)
}

func (c *C) SyncLeagues(ctx context.Context, userID string) (*model.SyncResult, error) {
	return syncResult(c.Called(ctx, userID))
}

func (c *C) SyncTeams(ctx context.Context, userID string, leagueID int32) (*model.SyncResult, error) {
	return syncResult(c.Called(ctx, userID, leagueID))
}

func (c *C) SyncMatchups(ctx context.Context, userID string, leagueID int32, week int) (*model.SyncResult, error) {
	return syncResult(c.Called(ctx, userID, leagueID, week))
}

func (c *C) SyncFreeAgents(ctx context.Context, userID string, leagueID int32, position string, count int) (*model.SyncResult, error) {
	return syncResult(c.Called(ctx, userID, leagueID, position, count))
}

func (c *C) SyncRoster(ctx context.Context, userID string, teamID int32, week int) (*model.SyncResult, error) {
	return syncResult(c.Called(ctx, userID, teamID, week))
}

func (c *C) SyncPlayerStats(ctx context.Context, userID string, playerID int32, week int) (*model.PlayerStats, error) {
	args := c.Called(ctx, userID, playerID, week)

	var s *model.PlayerStats
	if args.Get(0) != nil {
		s = args.Get(0).(*model.PlayerStats)
	}
	return s, args.Error(1)
}

func (c *C) ListLeagues(ctx context.Context, userID string) ([]model.League, error) {
	args := c.Called(ctx, userID)

	var res []model.League
	if args.Get(0) != nil {
		res = args.Get(0).([]model.League)
	}
	return res, args.Error(1)
}

func (c *C) GetLeagueTeams(ctx context.Context, userID string, leagueID int32) ([]model.Team, error) {
	args := c.Called(ctx, userID, leagueID)

	var res []model.Team
	if args.Get(0) != nil {
		res = args.Get(0).([]model.Team)
	}
	return res, args.Error(1)
}

func (c *C) GetUserTeam(ctx context.Context, userID string, leagueID int32) (*model.Team, error) {
	args := c.Called(ctx, userID, leagueID)

	var t *model.Team
	if args.Get(0) != nil {
		t = args.Get(0).(*model.Team)
	}
	return t, args.Error(1)
}

func (c *C) GetMatchups(ctx context.Context, userID string, leagueID int32, week int) ([]model.Matchup, error) {
	args := c.Called(ctx, userID, leagueID, week)

	var res []model.Matchup
	if args.Get(0) != nil {
		res = args.Get(0).([]model.Matchup)
	}
	return res, args.Error(1)
}

func (c *C) GetFreeAgents(ctx context.Context, userID string, leagueID int32) ([]model.Player, error) {
	args := c.Called(ctx, userID, leagueID)

	var res []model.Player
	if args.Get(0) != nil {
		res = args.Get(0).([]model.Player)
	}
	return res, args.Error(1)
}

func (c *C) AnalyzeFreeAgents(ctx context.Context, userID string, leagueID int32, playerIDs []int32) (*model.AnalysisReport, error) {
	return report(c.Called(ctx, userID, leagueID, playerIDs))
}

func (c *C) AnalyzeOpponent(ctx context.Context, userID string, matchupID int32) (*model.AnalysisReport, error) {
	return report(c.Called(ctx, userID, matchupID))
}

func (c *C) AnalyzeTeam(ctx context.Context, userID string, leagueID int32) (*model.AnalysisReport, error) {
	return report(c.Called(ctx, userID, leagueID))
}

func (c *C) ListReports(ctx context.Context, userID string, leagueID int32, reportType model.ReportType) ([]model.AnalysisReport, error) {
	args := c.Called(ctx, userID, leagueID, reportType)

	var r []model.AnalysisReport
	if args.Get(0) != nil {
		r = args.Get(0).([]model.AnalysisReport)
	}
	return r, args.Error(1)
}

func syncResult(args mock.Arguments) (*model.SyncResult, error) {
	var res *model.SyncResult
	if args.Get(0) != nil {
		res = args.Get(0).(*model.SyncResult)
	}
	return res, args.Error(1)
}

func report(args mock.Arguments) (*model.AnalysisReport, error) {
	var r *model.AnalysisReport
	if args.Get(0) != nil {
		r = args.Get(0).(*model.AnalysisReport)
	}
	return r, args.Error(1)
}

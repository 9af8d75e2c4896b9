package testutils

import (
	"context"
	"time"

	"github.com/itbasis/go-clock"
	"github.com/youcodecowboy/fantasy-hockey-analysis/db"
	"github.com/youcodecowboy/fantasy-hockey-analysis/db/memdb"
	"github.com/youcodecowboy/fantasy-hockey-analysis/model"
)

// TestStart is the time every mock clock in the tests starts at.
var TestStart = time.Date(2024, 11, 9, 12, 0, 0, 0, time.UTC)

var (
	ConnorMcDavid = &model.Player{
		ExternalKey:       "453.p.6743",
		ExternalID:        "6743",
		Name:              "Connor McDavid",
		FirstName:         "Connor",
		LastName:          "McDavid",
		Position:          "C",
		EligiblePositions: []string{"C"},
		Team:              "EDM",
	}
	MattyBeniers = &model.Player{
		ExternalKey:       "453.p.8001",
		ExternalID:        "8001",
		Name:              "Matty Beniers",
		FirstName:         "Matty",
		LastName:          "Beniers",
		Position:          "C",
		EligiblePositions: []string{"C", "Util"},
		Team:              "SEA",
	}
	JoeyDaccord = &model.Player{
		ExternalKey:       "453.p.7520",
		ExternalID:        "7520",
		Name:              "Joey Daccord",
		FirstName:         "Joey",
		LastName:          "Daccord",
		Position:          "G",
		EligiblePositions: []string{"G"},
		Team:              "SEA",
	}
)

type TestDB struct {
	DB    *memdb.DB
	Clock *clock.Mock
}

// NewTestDB returns an empty in-memory store on a mock clock set to TestStart.
func NewTestDB() *TestDB {
	c := clock.NewMock()
	c.Set(TestStart)
	return &TestDB{
		DB:    memdb.New(c),
		Clock: c,
	}
}

// HockeyLeague is the local state matching the fake Yahoo fixtures after
// leagues and teams have been synced.
type HockeyLeague struct {
	League   *model.League
	UserTeam *model.Team
	Opponent *model.Team
	Matchup  *model.Matchup
	Players  []*model.Player
}

// InsertHockeyLeague stores a league owned by userID with two teams, a week 5
// matchup between them and the sample players. McDavid and Daccord are on the
// user's current roster, Beniers is a free agent.
func InsertHockeyLeague(store db.DB, userID string) (*HockeyLeague, error) {
	ctx := context.Background()
	week := 5

	l, err := store.UpsertLeague(ctx, &model.League{
		ExternalKey: YahooLeagueKey,
		ExternalID:  "1234",
		OwnerUserID: userID,
		Name:        "Puck Dynasty",
		Season:      "2024",
		GameCode:    model.GameCodeNHL,
		CurrentWeek: &week,
	})
	if err != nil {
		return nil, err
	}

	ties := 2
	pf, pa := 87.5, 71.25
	mine, err := store.UpsertTeam(ctx, &model.Team{
		ExternalKey:   YahooTeamKey,
		ExternalID:    "1",
		LeagueID:      l.ID,
		OwnerUserID:   userID,
		Name:          "Ice Breakers",
		IsUserTeam:    true,
		Wins:          10,
		Losses:        4,
		Ties:          &ties,
		PointsFor:     &pf,
		PointsAgainst: &pa,
	})
	if err != nil {
		return nil, err
	}
	opp, err := store.UpsertTeam(ctx, &model.Team{
		ExternalKey: "453.l.1234.t.2",
		ExternalID:  "2",
		LeagueID:    l.ID,
		OwnerUserID: userID,
		Name:        "Slap Shots",
		Wins:        4,
		Losses:      10,
		Ties:        &ties,
	})
	if err != nil {
		return nil, err
	}

	s1, s2 := 45.5, 38.0
	m, err := store.UpsertMatchup(ctx, &model.Matchup{
		LeagueID:   l.ID,
		Week:       week,
		Team1ID:    mine.ID,
		Team2ID:    opp.ID,
		Team1Score: &s1,
		Team2Score: &s2,
		Status:     "midevent",
	})
	if err != nil {
		return nil, err
	}

	res := &HockeyLeague{League: l, UserTeam: mine, Opponent: opp, Matchup: m}
	for _, p := range []*model.Player{ConnorMcDavid, MattyBeniers, JoeyDaccord} {
		saved, err := store.UpsertPlayer(ctx, p)
		if err != nil {
			return nil, err
		}
		res.Players = append(res.Players, saved)
	}

	_, err = store.UpsertRoster(ctx, &model.Roster{
		TeamID:   mine.ID,
		LeagueID: l.ID,
		Entries: []model.RosterEntry{
			{PlayerID: res.Players[0].ID, Position: "C", IsStarting: true},
			{PlayerID: res.Players[2].ID, Position: "G", IsStarting: true},
		},
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

package db

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/itbasis/go-clock"
	"github.com/youcodecowboy/fantasy-hockey-analysis/containers"
	"github.com/youcodecowboy/fantasy-hockey-analysis/model"
)

var (
	// A test global db instance to use for all of the tests instead of setting up a new one each time.
	testDB DB

	testClock *clock.Mock

	// a counter to generate new external keys for each test. To help keep them separated.
	keyCtr = int32(0)
)

// TestMain controls the main for the tests and allows for setup and shutdown of the tests
func TestMain(m *testing.M) {
	container := containers.NewDBContainer()

	testClock = clock.NewMock()
	testClock.Set(time.Date(2024, 11, 9, 12, 0, 0, 0, time.UTC))

	defer func() {
		// Catch all panics to make sure the shutdown is successfully run
		if r := recover(); r != nil {
			if container != nil {
				container.Shutdown()
			}
			fmt.Println("panic")
		}
	}()

	var err error
	testDB, err = New(context.Background(), container.ConnectionString(), testClock, NewSealer(testSealerKey()))
	if err != nil {
		fmt.Printf("error connecting to db: %v", err)
		os.Exit(-1)
	}

	code := m.Run()
	container.Shutdown()
	os.Exit(code)
}

func TestCredentials(t *testing.T) {
	ctx := context.Background()
	userID := fmt.Sprintf("user-%d", atomic.AddInt32(&keyCtr, 1))

	_, err := testDB.GetCredential(ctx, userID)
	assertTrue(t, "ErrCredentialNotFound", errors.Is(err, ErrCredentialNotFound))

	expiry := testClock.Now().Add(time.Hour).UTC()
	c := &model.Credential{
		UserID:         userID,
		ProviderUserID: "YAHOO-SUB",
		AccessToken:    "access-1",
		RefreshToken:   "refresh-1",
		ExpiresAt:      expiry,
	}
	err = testDB.SaveCredential(ctx, c)
	assertFatalf(t, err == nil, "error saving credential: %v", err)

	res, err := testDB.GetCredential(ctx, userID)
	assertFatalf(t, err == nil, "error getting credential: %v", err)
	assertEquals(t, "AccessToken", "access-1", res.AccessToken)
	assertEquals(t, "RefreshToken", "refresh-1", res.RefreshToken)
	assertEquals(t, "ProviderUserID", "YAHOO-SUB", res.ProviderUserID)
	assertTrue(t, "ExpiresAt", expiry.Equal(res.ExpiresAt))
	created := res.CreatedAt

	// A refresh without a new refresh token keeps the old one.
	testClock.Add(time.Minute)
	c2 := &model.Credential{
		UserID:      userID,
		AccessToken: "access-2",
		ExpiresAt:   expiry.Add(time.Hour),
	}
	err = testDB.SaveCredential(ctx, c2)
	assertFatalf(t, err == nil, "error saving credential: %v", err)

	res2, err := testDB.GetCredential(ctx, userID)
	assertFatalf(t, err == nil, "error getting credential: %v", err)
	assertEquals(t, "AccessToken", "access-2", res2.AccessToken)
	assertEquals(t, "RefreshToken", "refresh-1", res2.RefreshToken)
	assertEquals(t, "ProviderUserID", "YAHOO-SUB", res2.ProviderUserID)
	assertTrue(t, "CreatedAt unchanged", created.Equal(res2.CreatedAt))
	assertTrue(t, "UpdatedAt advanced", res2.UpdatedAt.After(res.UpdatedAt))
}

func TestLeagues_upsertIsIdempotent(t *testing.T) {
	ctx := context.Background()
	l := getLeague("owner-a")

	first, err := testDB.UpsertLeague(ctx, l)
	assertFatalf(t, err == nil, "error upserting league: %v", err)
	assertTrue(t, "first.ID > 0", first.ID > 0)
	assertTrue(t, "created == updated", first.CreatedAt.Equal(first.UpdatedAt))

	testClock.Add(time.Minute)

	second, err := testDB.UpsertLeague(ctx, l)
	assertFatalf(t, err == nil, "error upserting league again: %v", err)
	assertEquals(t, "ID", first.ID, second.ID)
	assertTrue(t, "CreatedAt unchanged", first.CreatedAt.Equal(second.CreatedAt))
	assertTrue(t, "UpdatedAt advanced", second.UpdatedAt.After(first.UpdatedAt))
	assertTrue(t, "LastSyncedAt advanced", second.LastSyncedAt.After(first.LastSyncedAt))

	leagues, err := testDB.ListLeagues(ctx, "owner-a")
	assertFatalf(t, err == nil, "error listing leagues: %v", err)
	count := 0
	for _, got := range leagues {
		if got.ExternalKey == l.ExternalKey {
			count++
		}
	}
	assertEquals(t, "records for key", 1, count)
}

func TestLeagues_getAndUpdate(t *testing.T) {
	ctx := context.Background()
	l := getLeague("owner-b")

	saved, err := testDB.UpsertLeague(ctx, l)
	assertFatalf(t, err == nil, "error upserting league: %v", err)

	byID, err := testDB.GetLeague(ctx, saved.ID)
	assertFatalf(t, err == nil, "error getting league: %v", err)
	assertEquals(t, "Name", l.Name, byID.Name)
	assertEquals(t, "Season", l.Season, byID.Season)
	assertEquals(t, "GameCode", l.GameCode, byID.GameCode)
	assertEquals(t, "CurrentWeek", 6, *byID.CurrentWeek)

	l.Name = "Renamed League"
	l.IsFinished = true
	l.CurrentWeek = nil
	_, err = testDB.UpsertLeague(ctx, l)
	assertFatalf(t, err == nil, "error upserting league: %v", err)

	byKey, err := testDB.GetLeagueByKey(ctx, l.ExternalKey)
	assertFatalf(t, err == nil, "error getting league by key: %v", err)
	assertEquals(t, "ID", saved.ID, byKey.ID)
	assertEquals(t, "Name", "Renamed League", byKey.Name)
	assertEquals(t, "IsFinished", true, byKey.IsFinished)
	assertTrue(t, "CurrentWeek is nil", byKey.CurrentWeek == nil)

	_, err = testDB.GetLeague(ctx, -1)
	assertTrue(t, "ErrLeagueNotFound", errors.Is(err, ErrLeagueNotFound))
	_, err = testDB.GetLeagueByKey(ctx, "999.l.0")
	assertTrue(t, "ErrLeagueNotFound by key", errors.Is(err, ErrLeagueNotFound))
}

func TestTeams(t *testing.T) {
	ctx := context.Background()
	l, err := testDB.UpsertLeague(ctx, getLeague("owner-c"))
	assertFatalf(t, err == nil, "error upserting league: %v", err)

	pf := 87.5
	ties := 1
	t1 := getTeam(l, "Skate Expectations")
	t1.IsUserTeam = true
	t1.Wins = 10
	t1.Losses = 4
	t1.Ties = &ties
	t1.PointsFor = &pf
	t2 := getTeam(l, "Puck Dynasty")

	saved1, err := testDB.UpsertTeam(ctx, t1)
	assertFatalf(t, err == nil, "error upserting team: %v", err)
	_, err = testDB.UpsertTeam(ctx, t2)
	assertFatalf(t, err == nil, "error upserting team: %v", err)

	testClock.Add(time.Minute)
	t1.Wins = 11
	again, err := testDB.UpsertTeam(ctx, t1)
	assertFatalf(t, err == nil, "error upserting team again: %v", err)
	assertEquals(t, "ID", saved1.ID, again.ID)
	assertEquals(t, "Wins", 11, again.Wins)
	assertTrue(t, "CreatedAt unchanged", saved1.CreatedAt.Equal(again.CreatedAt))

	byKey, err := testDB.GetTeamByKey(ctx, t1.ExternalKey)
	assertFatalf(t, err == nil, "error getting team by key: %v", err)
	assertEquals(t, "IsUserTeam", true, byKey.IsUserTeam)
	assertEquals(t, "Ties", 1, *byKey.Ties)
	assertEquals(t, "PointsFor", 87.5, *byKey.PointsFor)
	assertTrue(t, "PointsAgainst is nil", byKey.PointsAgainst == nil)
	assertEquals(t, "Record", "11-4-1", byKey.Record())

	teams, err := testDB.GetLeagueTeams(ctx, l.ID)
	assertFatalf(t, err == nil, "error getting league teams: %v", err)
	assertEquals(t, "len(teams)", 2, len(teams))

	_, err = testDB.GetTeamByKey(ctx, "missing.t.1")
	assertTrue(t, "ErrTeamNotFound", errors.Is(err, ErrTeamNotFound))
}

func TestMatchups(t *testing.T) {
	ctx := context.Background()
	l, err := testDB.UpsertLeague(ctx, getLeague("owner-d"))
	assertFatalf(t, err == nil, "error upserting league: %v", err)
	a, err := testDB.UpsertTeam(ctx, getTeam(l, "A"))
	assertFatalf(t, err == nil, "error upserting team: %v", err)
	b, err := testDB.UpsertTeam(ctx, getTeam(l, "B"))
	assertFatalf(t, err == nil, "error upserting team: %v", err)

	s1, s2 := 101.5, 99.0
	m := &model.Matchup{
		LeagueID:   l.ID,
		Week:       3,
		Team1ID:    a.ID,
		Team2ID:    b.ID,
		Team1Score: &s1,
		Team2Score: &s2,
		Status:     "postevent",
	}
	first, err := testDB.UpsertMatchup(ctx, m)
	assertFatalf(t, err == nil, "error upserting matchup: %v", err)

	testClock.Add(time.Minute)
	s1 = 110
	second, err := testDB.UpsertMatchup(ctx, m)
	assertFatalf(t, err == nil, "error upserting matchup again: %v", err)
	assertEquals(t, "ID", first.ID, second.ID)
	assertEquals(t, "Team1Score", 110.0, *second.Team1Score)
	assertTrue(t, "CreatedAt unchanged", first.CreatedAt.Equal(second.CreatedAt))
	assertTrue(t, "UpdatedAt advanced", second.UpdatedAt.After(first.UpdatedAt))

	m4 := *m
	m4.Week = 4
	m4.Team1Score = nil
	m4.Team2Score = nil
	m4.Status = "preevent"
	_, err = testDB.UpsertMatchup(ctx, &m4)
	assertFatalf(t, err == nil, "error upserting week 4 matchup: %v", err)

	all, err := testDB.GetMatchups(ctx, l.ID, 0)
	assertFatalf(t, err == nil, "error getting matchups: %v", err)
	assertEquals(t, "len(all)", 2, len(all))

	week3, err := testDB.GetMatchups(ctx, l.ID, 3)
	assertFatalf(t, err == nil, "error getting week 3 matchups: %v", err)
	assertEquals(t, "len(week3)", 1, len(week3))
	assertEquals(t, "Status", "postevent", week3[0].Status)

	byID, err := testDB.GetMatchup(ctx, first.ID)
	assertFatalf(t, err == nil, "error getting matchup: %v", err)
	assertEquals(t, "Opponent", b.ID, byID.Opponent(a.ID))

	_, err = testDB.GetMatchup(ctx, -1)
	assertTrue(t, "ErrMatchupNotFound", errors.Is(err, ErrMatchupNotFound))
}

func getLeague(owner string) *model.League {
	id := atomic.AddInt32(&keyCtr, 1)
	week := 6
	return &model.League{
		ExternalKey: fmt.Sprintf("453.l.%d", id),
		ExternalID:  fmt.Sprintf("%d", id),
		OwnerUserID: owner,
		Name:        fmt.Sprintf("League %d", id),
		Season:      "2024",
		GameCode:    model.GameCodeNHL,
		CurrentWeek: &week,
	}
}

func getTeam(l *model.League, name string) *model.Team {
	id := atomic.AddInt32(&keyCtr, 1)
	return &model.Team{
		ExternalKey: fmt.Sprintf("%s.t.%d", l.ExternalKey, id),
		ExternalID:  fmt.Sprintf("%d", id),
		LeagueID:    l.ID,
		OwnerUserID: l.OwnerUserID,
		Name:        name,
	}
}

func assertFatalf(t *testing.T, c bool, f string, args ...any) {
	if !c {
		t.Fatalf(f, args...)
	}
}

func assertEquals(t *testing.T, field string, expected, actual any) {
	if expected != actual {
		t.Errorf("%s - expected: '%v', got: '%v'", field, expected, actual)
	}
}

func assertTrue(t *testing.T, field string, cond bool) {
	if !cond {
		t.Errorf("%s - expected to be true but it was false", field)
	}
}

package db

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync/atomic"
	"testing"
	"time"

	"github.com/youcodecowboy/fantasy-hockey-analysis/model"
)

func TestPlayer_saveAndLoad(t *testing.T) {
	ctx := context.Background()
	p := getPlayer("Connor", "McDavid", "C")

	saved, err := testDB.UpsertPlayer(ctx, p)
	assertFatalf(t, err == nil, "error saving player: %v", err)

	res, err := testDB.GetPlayer(ctx, saved.ID)
	assertFatalf(t, err == nil, "error retreiving player: %v", err)

	// Make sure that the after saving and retreiving the player, all the fields
	// are the same.
	assertEquals(t, "ExternalKey", p.ExternalKey, res.ExternalKey)
	assertEquals(t, "ExternalID", p.ExternalID, res.ExternalID)
	assertEquals(t, "Name", p.Name, res.Name)
	assertEquals(t, "FirstName", p.FirstName, res.FirstName)
	assertEquals(t, "LastName", p.LastName, res.LastName)
	assertEquals(t, "Position", p.Position, res.Position)
	assertEquals(t, "Team", p.Team, res.Team)
	assertEquals(t, "UniformNumber", *p.UniformNumber, *res.UniformNumber)
	assertEquals(t, "Status", "", res.Status)
	assertTrue(t, "EligiblePositions", reflect.DeepEqual(p.EligiblePositions, res.EligiblePositions))
	assertTrue(t, "Stats is nil", res.Stats == nil)

	// The original should not have its created or updated times set.
	if !p.CreatedAt.IsZero() {
		t.Errorf("expected created time to be zero")
	}
	if res.CreatedAt.IsZero() {
		t.Errorf("expected res created time to not be zero")
	}

	// Now update a field and make sure it persists as expected.
	testClock.Add(time.Minute)
	p.Status = "DTD"
	p.InjuryStatus = "Day-to-Day"
	_, err = testDB.UpsertPlayer(ctx, p)
	assertFatalf(t, err == nil, "error saving player after update: %v", err)

	res2, err := testDB.GetPlayerByKey(ctx, p.ExternalKey)
	assertFatalf(t, err == nil, "error getting updated player: %v", err)
	assertEquals(t, "ID", saved.ID, res2.ID)
	assertEquals(t, "Status", "DTD", res2.Status)
	assertEquals(t, "InjuryStatus", "Day-to-Day", res2.InjuryStatus)
	assertTrue(t, "CreatedAt unchanged", res.CreatedAt.Equal(res2.CreatedAt))
	assertTrue(t, "UpdatedAt advanced", res2.UpdatedAt.After(res.UpdatedAt))

	// Lookup a player that doesn't exist
	res3, err := testDB.GetPlayer(ctx, -1)
	assertFatalf(t, err != nil, "should have had an error searching for player")
	assertEquals(t, "error type", true, errors.Is(err, ErrPlayerNotFound))
	if res3 != nil {
		t.Errorf("expected res3 to be nil, but was %v", res3)
	}
}

func TestPlayer_noEligiblePositions(t *testing.T) {
	ctx := context.Background()
	p := getPlayer("Juuse", "Saros", "G")
	p.EligiblePositions = nil

	saved, err := testDB.UpsertPlayer(ctx, p)
	assertFatalf(t, err == nil, "error saving player: %v", err)
	assertTrue(t, "EligiblePositions not nil", saved.EligiblePositions != nil)
	assertEquals(t, "len(EligiblePositions)", 0, len(saved.EligiblePositions))
}

func TestPlayerStats(t *testing.T) {
	ctx := context.Background()
	saved, err := testDB.UpsertPlayer(ctx, getPlayer("Cale", "Makar", "D"))
	assertFatalf(t, err == nil, "error saving player: %v", err)

	goals, assists := 7, 21
	pct := 9.4
	week := 5
	stats := &model.PlayerStats{
		Week:               &week,
		Goals:              &goals,
		Assists:            &assists,
		ShootingPercentage: &pct,
	}
	err = testDB.SavePlayerStats(ctx, saved.ID, stats)
	assertFatalf(t, err == nil, "error saving stats: %v", err)

	res, err := testDB.GetPlayer(ctx, saved.ID)
	assertFatalf(t, err == nil, "error getting player: %v", err)
	assertTrue(t, "Stats", reflect.DeepEqual(stats, res.Stats))

	// A later player upsert must not drop the stats.
	_, err = testDB.UpsertPlayer(ctx, getPlayerWithKey(res.ExternalKey, "Cale", "Makar", "D"))
	assertFatalf(t, err == nil, "error saving player: %v", err)
	res2, err := testDB.GetPlayer(ctx, saved.ID)
	assertFatalf(t, err == nil, "error getting player: %v", err)
	assertTrue(t, "Stats kept", reflect.DeepEqual(stats, res2.Stats))

	err = testDB.SavePlayerStats(ctx, -1, stats)
	assertTrue(t, "ErrPlayerNotFound", errors.Is(err, ErrPlayerNotFound))
}

func TestRostersAndFreeAgents(t *testing.T) {
	ctx := context.Background()
	l, err := testDB.UpsertLeague(ctx, getLeague("owner-e"))
	assertFatalf(t, err == nil, "error upserting league: %v", err)
	team, err := testDB.UpsertTeam(ctx, getTeam(l, "Roster Team"))
	assertFatalf(t, err == nil, "error upserting team: %v", err)

	rostered, err := testDB.UpsertPlayer(ctx, getPlayer("Nathan", "MacKinnon", "C"))
	assertFatalf(t, err == nil, "error saving player: %v", err)
	benched, err := testDB.UpsertPlayer(ctx, getPlayer("Mikko", "Rantanen", "RW"))
	assertFatalf(t, err == nil, "error saving player: %v", err)
	free, err := testDB.UpsertPlayer(ctx, getPlayer("Zzz", "Freeagent", "LW"))
	assertFatalf(t, err == nil, "error saving player: %v", err)

	r := &model.Roster{
		TeamID:   team.ID,
		LeagueID: l.ID,
		Entries: []model.RosterEntry{
			{PlayerID: rostered.ID, Position: "C", IsStarting: true},
			{PlayerID: benched.ID, Position: "BN", IsStarting: false},
		},
	}
	first, err := testDB.UpsertRoster(ctx, r)
	assertFatalf(t, err == nil, "error upserting roster: %v", err)
	assertTrue(t, "Week is nil", first.Week == nil)

	// Re-sync drops the benched player.
	testClock.Add(time.Minute)
	r.Entries = r.Entries[:1]
	second, err := testDB.UpsertRoster(ctx, r)
	assertFatalf(t, err == nil, "error upserting roster again: %v", err)
	assertEquals(t, "ID", first.ID, second.ID)
	assertTrue(t, "CreatedAt unchanged", first.CreatedAt.Equal(second.CreatedAt))

	got, err := testDB.GetRoster(ctx, team.ID, nil)
	assertFatalf(t, err == nil, "error getting roster: %v", err)
	assertEquals(t, "len(Entries)", 1, len(got.Entries))
	assertEquals(t, "Entries[0].PlayerID", rostered.ID, got.Entries[0].PlayerID)
	assertEquals(t, "Entries[0].IsStarting", true, got.Entries[0].IsStarting)

	week := 2
	_, err = testDB.GetRoster(ctx, team.ID, &week)
	assertTrue(t, "ErrRosterNotFound", errors.Is(err, ErrRosterNotFound))

	agents, err := testDB.GetFreeAgents(ctx, l.ID)
	assertFatalf(t, err == nil, "error getting free agents: %v", err)
	found := map[int32]bool{}
	for _, p := range agents {
		found[p.ID] = true
	}
	assertTrue(t, "rostered player is not a free agent", !found[rostered.ID])
	assertTrue(t, "benched player is a free agent again", found[benched.ID])
	assertTrue(t, "free player is a free agent", found[free.ID])
}

func getPlayer(first, last, pos string) *model.Player {
	id := atomic.AddInt32(&keyCtr, 1)
	return getPlayerWithKey(fmt.Sprintf("453.p.%d", id), first, last, pos)
}

func getPlayerWithKey(key, first, last, pos string) *model.Player {
	num := 97
	return &model.Player{
		ExternalKey:       key,
		ExternalID:        key[len("453.p."):],
		Name:              fmt.Sprintf("%s %s", first, last),
		FirstName:         first,
		LastName:          last,
		Position:          pos,
		EligiblePositions: []string{pos, "Util"},
		Team:              "EDM",
		UniformNumber:     &num,
	}
}

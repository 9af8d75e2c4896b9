// Package memdb is a map backed db.DB. It keeps the same upsert semantics as
// the postgres store and is used by tests and `serve --store=memory`.
package memdb

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/itbasis/go-clock"
	"github.com/youcodecowboy/fantasy-hockey-analysis/db"
	"github.com/youcodecowboy/fantasy-hockey-analysis/model"
)

var _ db.DB = (*DB)(nil)

type matchupKey struct {
	leagueID, team1ID, team2ID int32
	week                       int
}

type rosterKey struct {
	teamID int32
	week   int
}

type DB struct {
	clock clock.Clock
	lock  sync.RWMutex

	nextID int32

	credentials map[string]model.Credential
	leagues     map[int32]*model.League
	leagueKeys  map[string]int32
	teams       map[int32]*model.Team
	teamKeys    map[string]int32
	players     map[int32]*model.Player
	playerKeys  map[string]int32
	matchups    map[int32]*model.Matchup
	matchupKeys map[matchupKey]int32
	rosters     map[rosterKey]*model.Roster
	reports     []model.AnalysisReport
}

func New(clock clock.Clock) *DB {
	return &DB{
		clock:       clock,
		credentials: make(map[string]model.Credential),
		leagues:     make(map[int32]*model.League),
		leagueKeys:  make(map[string]int32),
		teams:       make(map[int32]*model.Team),
		teamKeys:    make(map[string]int32),
		players:     make(map[int32]*model.Player),
		playerKeys:  make(map[string]int32),
		matchups:    make(map[int32]*model.Matchup),
		matchupKeys: make(map[matchupKey]int32),
		rosters:     make(map[rosterKey]*model.Roster),
	}
}

func (m *DB) GetCredential(_ context.Context, userID string) (*model.Credential, error) {
	m.lock.RLock()
	defer m.lock.RUnlock()

	c, ok := m.credentials[userID]
	if !ok {
		return nil, db.ErrCredentialNotFound
	}
	return &c, nil
}

func (m *DB) SaveCredential(_ context.Context, c *model.Credential) error {
	if c == nil || c.UserID == "" {
		return errors.New("SaveCredential - credential has no user")
	}

	m.lock.Lock()
	defer m.lock.Unlock()

	now := m.clock.Now().UTC()
	saved := *c
	if old, ok := m.credentials[c.UserID]; ok {
		saved.CreatedAt = old.CreatedAt
		if saved.RefreshToken == "" {
			saved.RefreshToken = old.RefreshToken
		}
		if saved.ProviderUserID == "" {
			saved.ProviderUserID = old.ProviderUserID
		}
	} else {
		saved.CreatedAt = now
	}
	saved.UpdatedAt = now
	m.credentials[c.UserID] = saved
	return nil
}

func (m *DB) UpsertLeague(_ context.Context, l *model.League) (*model.League, error) {
	if l == nil || l.ExternalKey == "" {
		return nil, errors.New("UpsertLeague - league has no external key")
	}

	m.lock.Lock()
	defer m.lock.Unlock()

	saved := *l
	saved.ID, saved.CreatedAt = m.identity(m.leagueKeys[l.ExternalKey], m.leagueCreated)
	saved.LastSyncedAt, saved.UpdatedAt = m.stamp()
	m.leagues[saved.ID] = &saved
	m.leagueKeys[saved.ExternalKey] = saved.ID

	res := saved
	return &res, nil
}

func (m *DB) GetLeague(_ context.Context, id int32) (*model.League, error) {
	m.lock.RLock()
	defer m.lock.RUnlock()

	l, ok := m.leagues[id]
	if !ok {
		return nil, db.ErrLeagueNotFound
	}
	res := *l
	return &res, nil
}

func (m *DB) GetLeagueByKey(ctx context.Context, externalKey string) (*model.League, error) {
	m.lock.RLock()
	id, ok := m.leagueKeys[externalKey]
	m.lock.RUnlock()
	if !ok {
		return nil, db.ErrLeagueNotFound
	}
	return m.GetLeague(ctx, id)
}

func (m *DB) ListLeagues(_ context.Context, ownerUserID string) ([]model.League, error) {
	m.lock.RLock()
	defer m.lock.RUnlock()

	results := make([]model.League, 0, 4)
	for _, l := range m.leagues {
		if l.OwnerUserID == ownerUserID {
			results = append(results, *l)
		}
	}
	slices.SortFunc(results, func(a, b model.League) int {
		if c := strings.Compare(b.Season, a.Season); c != 0 {
			return c
		}
		return strings.Compare(a.Name, b.Name)
	})
	return results, nil
}

func (m *DB) UpsertTeam(_ context.Context, t *model.Team) (*model.Team, error) {
	if t == nil || t.ExternalKey == "" {
		return nil, errors.New("UpsertTeam - team has no external key")
	}

	m.lock.Lock()
	defer m.lock.Unlock()

	if _, ok := m.leagues[t.LeagueID]; !ok {
		return nil, db.ErrLeagueNotFound
	}

	saved := *t
	saved.ID, saved.CreatedAt = m.identity(m.teamKeys[t.ExternalKey], m.teamCreated)
	saved.LastSyncedAt, saved.UpdatedAt = m.stamp()
	m.teams[saved.ID] = &saved
	m.teamKeys[saved.ExternalKey] = saved.ID

	res := saved
	return &res, nil
}

func (m *DB) GetTeam(_ context.Context, id int32) (*model.Team, error) {
	m.lock.RLock()
	defer m.lock.RUnlock()

	t, ok := m.teams[id]
	if !ok {
		return nil, db.ErrTeamNotFound
	}
	res := *t
	return &res, nil
}

func (m *DB) GetTeamByKey(ctx context.Context, externalKey string) (*model.Team, error) {
	m.lock.RLock()
	id, ok := m.teamKeys[externalKey]
	m.lock.RUnlock()
	if !ok {
		return nil, db.ErrTeamNotFound
	}
	return m.GetTeam(ctx, id)
}

func (m *DB) GetLeagueTeams(_ context.Context, leagueID int32) ([]model.Team, error) {
	m.lock.RLock()
	defer m.lock.RUnlock()

	results := make([]model.Team, 0, 12)
	for _, t := range m.teams {
		if t.LeagueID == leagueID {
			results = append(results, *t)
		}
	}
	slices.SortFunc(results, func(a, b model.Team) int {
		return strings.Compare(a.ExternalKey, b.ExternalKey)
	})
	return results, nil
}

func (m *DB) UpsertPlayer(_ context.Context, p *model.Player) (*model.Player, error) {
	if p == nil || p.ExternalKey == "" {
		return nil, errors.New("UpsertPlayer - player has no external key")
	}

	m.lock.Lock()
	defer m.lock.Unlock()

	saved := *p
	saved.EligiblePositions = append([]string{}, p.EligiblePositions...)
	saved.Stats = nil
	existing := m.playerKeys[p.ExternalKey]
	if old, ok := m.players[existing]; ok {
		saved.Stats = old.Stats
	}
	saved.ID, saved.CreatedAt = m.identity(existing, m.playerCreated)
	saved.LastSyncedAt, saved.UpdatedAt = m.stamp()
	m.players[saved.ID] = &saved
	m.playerKeys[saved.ExternalKey] = saved.ID

	res := saved
	return &res, nil
}

func (m *DB) GetPlayer(_ context.Context, id int32) (*model.Player, error) {
	m.lock.RLock()
	defer m.lock.RUnlock()

	p, ok := m.players[id]
	if !ok {
		return nil, db.ErrPlayerNotFound
	}
	res := *p
	return &res, nil
}

func (m *DB) GetPlayerByKey(ctx context.Context, externalKey string) (*model.Player, error) {
	m.lock.RLock()
	id, ok := m.playerKeys[externalKey]
	m.lock.RUnlock()
	if !ok {
		return nil, db.ErrPlayerNotFound
	}
	return m.GetPlayer(ctx, id)
}

func (m *DB) SavePlayerStats(_ context.Context, playerID int32, stats *model.PlayerStats) error {
	m.lock.Lock()
	defer m.lock.Unlock()

	p, ok := m.players[playerID]
	if !ok {
		return db.ErrPlayerNotFound
	}
	s := *stats
	p.Stats = &s
	p.LastSyncedAt, p.UpdatedAt = m.stamp()
	return nil
}

func (m *DB) UpsertMatchup(_ context.Context, mu *model.Matchup) (*model.Matchup, error) {
	if mu == nil || mu.LeagueID == 0 || mu.Team1ID == 0 || mu.Team2ID == 0 {
		return nil, errors.New("UpsertMatchup - matchup is missing its league or teams")
	}

	m.lock.Lock()
	defer m.lock.Unlock()

	key := matchupKey{leagueID: mu.LeagueID, week: mu.Week, team1ID: mu.Team1ID, team2ID: mu.Team2ID}
	saved := *mu
	saved.ID, saved.CreatedAt = m.identity(m.matchupKeys[key], m.matchupCreated)
	saved.LastSyncedAt, saved.UpdatedAt = m.stamp()
	m.matchups[saved.ID] = &saved
	m.matchupKeys[key] = saved.ID

	res := saved
	return &res, nil
}

func (m *DB) GetMatchup(_ context.Context, id int32) (*model.Matchup, error) {
	m.lock.RLock()
	defer m.lock.RUnlock()

	mu, ok := m.matchups[id]
	if !ok {
		return nil, db.ErrMatchupNotFound
	}
	res := *mu
	return &res, nil
}

func (m *DB) GetMatchups(_ context.Context, leagueID int32, week int) ([]model.Matchup, error) {
	m.lock.RLock()
	defer m.lock.RUnlock()

	results := make([]model.Matchup, 0, 6)
	for _, mu := range m.matchups {
		if mu.LeagueID == leagueID && (week == 0 || mu.Week == week) {
			results = append(results, *mu)
		}
	}
	slices.SortFunc(results, func(a, b model.Matchup) int {
		if a.Week != b.Week {
			return a.Week - b.Week
		}
		return int(a.ID - b.ID)
	})
	return results, nil
}

func (m *DB) UpsertRoster(_ context.Context, r *model.Roster) (*model.Roster, error) {
	if r == nil || r.TeamID == 0 || r.LeagueID == 0 {
		return nil, errors.New("UpsertRoster - roster is missing its team or league")
	}

	m.lock.Lock()
	defer m.lock.Unlock()

	key := rosterKey{teamID: r.TeamID, week: weekOrZero(r.Week)}
	saved := *r
	saved.Entries = append([]model.RosterEntry{}, r.Entries...)
	if old, ok := m.rosters[key]; ok {
		saved.ID, saved.CreatedAt = old.ID, old.CreatedAt
	} else {
		m.nextID++
		saved.ID, saved.CreatedAt = m.nextID, m.clock.Now().UTC()
	}
	saved.LastSyncedAt, saved.UpdatedAt = m.stamp()
	m.rosters[key] = &saved

	res := saved
	res.Entries = append([]model.RosterEntry{}, saved.Entries...)
	return &res, nil
}

func (m *DB) GetRoster(_ context.Context, teamID int32, week *int) (*model.Roster, error) {
	m.lock.RLock()
	defer m.lock.RUnlock()

	r, ok := m.rosters[rosterKey{teamID: teamID, week: weekOrZero(week)}]
	if !ok {
		return nil, db.ErrRosterNotFound
	}
	res := *r
	res.Entries = append([]model.RosterEntry{}, r.Entries...)
	return &res, nil
}

func (m *DB) GetFreeAgents(_ context.Context, leagueID int32) ([]model.Player, error) {
	m.lock.RLock()
	defer m.lock.RUnlock()

	rostered := make(map[int32]bool)
	for _, r := range m.rosters {
		if r.LeagueID != leagueID {
			continue
		}
		for _, e := range r.Entries {
			rostered[e.PlayerID] = true
		}
	}

	results := make([]model.Player, 0, 25)
	for _, p := range m.players {
		if !rostered[p.ID] {
			results = append(results, *p)
		}
	}
	slices.SortFunc(results, func(a, b model.Player) int {
		return strings.Compare(a.Name, b.Name)
	})
	return results, nil
}

func (m *DB) SaveAnalysisReport(_ context.Context, r *model.AnalysisReport) (*model.AnalysisReport, error) {
	if r == nil || r.UserID == "" || r.LeagueID == 0 || r.Type == "" {
		return nil, errors.New("SaveAnalysisReport - report is missing its user, league or type")
	}

	m.lock.Lock()
	defer m.lock.Unlock()

	saved := *r
	m.nextID++
	saved.ID = m.nextID
	saved.CreatedAt = m.clock.Now().UTC()
	saved.Metadata.PlayerIDs = slices.Clone(r.Metadata.PlayerIDs)
	m.reports = append(m.reports, saved)

	res := saved
	res.Metadata.PlayerIDs = slices.Clone(saved.Metadata.PlayerIDs)
	return &res, nil
}

func (m *DB) ListAnalysisReports(_ context.Context, userID string, leagueID int32, reportType model.ReportType) ([]model.AnalysisReport, error) {
	m.lock.RLock()
	defer m.lock.RUnlock()

	results := make([]model.AnalysisReport, 0, 8)
	// Appended in creation order, so walking backwards is newest first.
	for i := len(m.reports) - 1; i >= 0; i-- {
		r := m.reports[i]
		if r.UserID != userID || r.LeagueID != leagueID {
			continue
		}
		if reportType != "" && r.Type != reportType {
			continue
		}
		r.Metadata.PlayerIDs = slices.Clone(r.Metadata.PlayerIDs)
		results = append(results, r)
	}
	return results, nil
}

// identity returns the stored id and creation time for an existing record, or
// allocates both for a new one. Callers must hold the write lock.
func (m *DB) identity(existing int32, created func(int32) (time.Time, bool)) (int32, time.Time) {
	if existing != 0 {
		if t, ok := created(existing); ok {
			return existing, t
		}
	}
	m.nextID++
	return m.nextID, m.clock.Now().UTC()
}

func (m *DB) stamp() (time.Time, time.Time) {
	now := m.clock.Now().UTC()
	return now, now
}

func (m *DB) leagueCreated(id int32) (time.Time, bool) {
	l, ok := m.leagues[id]
	if !ok {
		return time.Time{}, false
	}
	return l.CreatedAt, true
}

func (m *DB) teamCreated(id int32) (time.Time, bool) {
	t, ok := m.teams[id]
	if !ok {
		return time.Time{}, false
	}
	return t.CreatedAt, true
}

func (m *DB) playerCreated(id int32) (time.Time, bool) {
	p, ok := m.players[id]
	if !ok {
		return time.Time{}, false
	}
	return p.CreatedAt, true
}

func (m *DB) matchupCreated(id int32) (time.Time, bool) {
	mu, ok := m.matchups[id]
	if !ok {
		return time.Time{}, false
	}
	return mu.CreatedAt, true
}

func weekOrZero(week *int) int {
	if week == nil {
		return 0
	}
	return *week
}

package model

import "time"

const (
	PlatformYahoo = "yahoo"

	// GameCodeNHL is the Yahoo game code for fantasy hockey.
	GameCodeNHL = "nhl"
)

type League struct {
	ID           int32
	ExternalKey  string // e.g. 453.l.12345, stable across syncs
	ExternalID   string
	OwnerUserID  string
	Name         string
	Season       string
	GameCode     string
	IsFinished   bool
	CurrentWeek  *int
	LastSyncedAt time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Team struct {
	ID            int32
	ExternalKey   string // e.g. 453.l.12345.t.3
	ExternalID    string
	LeagueID      int32
	OwnerUserID   string
	Name          string
	IsUserTeam    bool
	Wins          int
	Losses        int
	Ties          *int
	PointsFor     *float64
	PointsAgainst *float64
	LastSyncedAt  time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Record formats the team record as W-L-T.
func (t *Team) Record() string {
	ties := 0
	if t.Ties != nil {
		ties = *t.Ties
	}
	return formatRecord(t.Wins, t.Losses, ties)
}

// Matchup has no single external key. It is identified by the tuple
// (LeagueID, Week, Team1ID, Team2ID).
type Matchup struct {
	ID            int32
	LeagueID      int32
	Week          int
	Team1ID       int32
	Team2ID       int32
	Team1Score    *float64
	Team2Score    *float64
	IsPlayoffs    bool
	IsConsolation bool
	Status        string
	LastSyncedAt  time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Opponent returns the id of the team playing against teamID, or 0 if
// teamID is not part of the matchup.
func (m *Matchup) Opponent(teamID int32) int32 {
	switch teamID {
	case m.Team1ID:
		return m.Team2ID
	case m.Team2ID:
		return m.Team1ID
	default:
		return 0
	}
}

// Roster is a team's lineup for one week. A nil Week is the current lineup.
type Roster struct {
	ID           int32
	TeamID       int32
	LeagueID     int32
	Week         *int
	Entries      []RosterEntry
	LastSyncedAt time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type RosterEntry struct {
	PlayerID   int32
	Position   string // the selected roster slot, e.g. C, LW, G, BN
	IsStarting bool
}

// SyncResult is what every sync operation reports back to its caller. A
// zero Synced with a Message is a normal outcome, not an error.
type SyncResult struct {
	Synced  int    `json:"synced"`
	Message string `json:"message,omitempty"`
}

package yahoo

import (
	"fmt"
	"strings"

	"github.com/youcodecowboy/fantasy-hockey-analysis/model"
	"github.com/youcodecowboy/fantasy-hockey-analysis/platforms/yahoo/tree"
)

const root = "fantasy_content"

// Game is an entry of the user's game list. Only used to find the game key
// and season of the sport being synced.
type Game struct {
	Key        string
	Code       string
	Name       string
	Season     string
	IsGameOver bool
}

// Matchup is a scoreboard entry. Teams are still Yahoo keys; the controller
// resolves them to local ids.
type Matchup struct {
	Week          int
	Status        string
	IsPlayoffs    bool
	IsConsolation bool
	Teams         [2]MatchupTeam
}

type MatchupTeam struct {
	Key    string
	Points *float64
}

// RosterSlot is a player and the slot the manager put them in.
type RosterSlot struct {
	Player           model.Player
	SelectedPosition string
	IsStarting       bool
}

// Slots that do not score.
var benchSlots = map[string]bool{
	"BN":  true,
	"IR":  true,
	"IR+": true,
	"NA":  true,
}

// Node lists. Each returns an empty list when the path is missing.

func GameNodes(doc map[string]any) []any {
	return tree.AsArray(tree.Get(doc, root, "users", "user", "0", "games", "game"))
}

func LeagueNodes(doc map[string]any) []any {
	return tree.AsArray(tree.Get(doc, root, "users", "user", "0", "games", "game", "0", "leagues", "league"))
}

func TeamNodes(doc map[string]any) []any {
	return tree.AsArray(tree.Get(doc, root, "league", "teams", "team"))
}

func MatchupNodes(doc map[string]any) []any {
	return tree.AsArray(tree.Get(doc, root, "league", "scoreboard", "matchups", "matchup"))
}

// ScoreboardWeek is the week the scoreboard response is for, 0 if absent.
func ScoreboardWeek(doc map[string]any) int {
	return tree.Int(tree.Get(doc, root, "league", "scoreboard", "week"))
}

func PlayerNodes(doc map[string]any) []any {
	return tree.AsArray(tree.Get(doc, root, "league", "players", "player"))
}

func RosterNodes(doc map[string]any) []any {
	return tree.AsArray(tree.Get(doc, root, "team", "roster", "players", "player"))
}

func PlayerNode(doc map[string]any) any {
	return tree.Get(doc, root, "player")
}

// ParseGame reads a game entry. The sport is read from "code"; game_code is
// not part of the games collection.
func ParseGame(node any) (*Game, error) {
	g := &Game{
		Key:        tree.String(tree.Get(node, "game_key")),
		Code:       strings.ToLower(tree.String(tree.Get(node, "code"))),
		Name:       tree.String(tree.Get(node, "name")),
		Season:     tree.String(tree.Get(node, "season")),
		IsGameOver: tree.Flag(tree.Get(node, "is_game_over")),
	}
	if g.Key == "" {
		return nil, &model.ParseError{Entity: "game", Reason: "missing game_key"}
	}
	return g, nil
}

// ParseLeague reads a league entry. A league without a season or code takes
// the game's. Like games, the sport is read from "code" only.
func ParseLeague(node any, game *Game) (*model.League, error) {
	key := tree.String(tree.Get(node, "league_key"))
	if key == "" {
		return nil, &model.ParseError{Entity: "league", Reason: "missing league_key"}
	}
	name := tree.String(tree.Get(node, "name"))
	if name == "" {
		return nil, &model.ParseError{Entity: "league", Key: key, Reason: "missing name"}
	}

	l := &model.League{
		ExternalKey: key,
		ExternalID:  tree.String(tree.Get(node, "league_id")),
		Name:        name,
		Season:      tree.String(tree.Get(node, "season")),
		GameCode:    strings.ToLower(tree.String(tree.Get(node, "code"))),
		IsFinished:  tree.Flag(tree.Get(node, "is_finished")),
		CurrentWeek: tree.OptInt(tree.Get(node, "current_week")),
	}
	if game != nil {
		if l.Season == "" {
			l.Season = game.Season
		}
		if l.GameCode == "" {
			l.GameCode = game.Code
		}
	}
	if l.GameCode == "" {
		l.GameCode = model.GameCodeNHL
	}
	return l, nil
}

// ParseTeam reads a team entry. IsUserTeam is set when any manager is the
// logged in user.
func ParseTeam(node any) (*model.Team, error) {
	key := tree.String(tree.Get(node, "team_key"))
	if key == "" {
		return nil, &model.ParseError{Entity: "team", Reason: "missing team_key"}
	}

	t := &model.Team{
		ExternalKey: key,
		ExternalID:  tree.String(tree.Get(node, "team_id")),
		Name:        tree.String(tree.Get(node, "name")),
	}
	for _, m := range tree.AsArray(tree.Get(node, "managers", "manager")) {
		if tree.Flag(tree.Get(m, "is_current_login")) {
			t.IsUserTeam = true
			break
		}
	}

	stats := tree.Get(node, "team_stats", "stats")
	t.Wins = TeamStats.Int(stats, "wins")
	t.Losses = TeamStats.Int(stats, "losses")
	t.Ties = TeamStats.OptInt(stats, "ties")
	t.PointsFor = TeamStats.OptFloat(stats, "pointsFor")
	t.PointsAgainst = TeamStats.OptFloat(stats, "pointsAgainst")

	// Standings carry the record when the stats do not.
	if standings := tree.Get(node, "team_standings"); standings != nil && stats == nil {
		totals := tree.Get(standings, "outcome_totals")
		t.Wins = tree.Int(tree.Get(totals, "wins"))
		t.Losses = tree.Int(tree.Get(totals, "losses"))
		t.Ties = tree.OptInt(tree.Get(totals, "ties"))
		t.PointsFor = tree.OptFloat(tree.Get(standings, "points_for"))
		t.PointsAgainst = tree.OptFloat(tree.Get(standings, "points_against"))
	}
	return t, nil
}

// ParseMatchup reads a scoreboard entry. Each side's score is the pointsFor
// stat, falling back to team_points when the stats are absent.
func ParseMatchup(node any, scoreboardWeek int) (*Matchup, error) {
	m := &Matchup{
		Week:          tree.Int(tree.Get(node, "week")),
		Status:        tree.String(tree.Get(node, "status")),
		IsPlayoffs:    tree.Flag(tree.Get(node, "is_playoffs")),
		IsConsolation: tree.Flag(tree.Get(node, "is_consolation")),
	}
	if m.Week == 0 {
		m.Week = scoreboardWeek
	}
	if m.Week == 0 {
		m.Week = 1
	}
	if m.Status == "" {
		m.Status = "completed"
	}

	for i := range m.Teams {
		idx := fmt.Sprint(i)
		team := tree.Get(node, "teams", "team", idx)
		if team == nil {
			team = tree.Get(node, "teams", idx)
		}
		key := tree.String(tree.Get(team, "team_key"))
		if key == "" {
			return nil, &model.ParseError{Entity: "matchup", Key: fmt.Sprintf("week %d", m.Week), Reason: "missing team " + idx}
		}

		points := TeamStats.OptFloat(tree.Get(team, "team_stats", "stats"), "pointsFor")
		if points == nil {
			points = tree.OptFloat(tree.Get(team, "team_points", "total"))
		}
		m.Teams[i] = MatchupTeam{Key: key, Points: points}
	}
	return m, nil
}

// ParsePlayer reads a player entry. EligiblePositions is never nil.
func ParsePlayer(node any) (*model.Player, error) {
	key := tree.String(tree.Get(node, "player_key"))
	if key == "" {
		return nil, &model.ParseError{Entity: "player", Reason: "missing player_key"}
	}

	first := tree.String(tree.Get(node, "name", "first"))
	last := tree.String(tree.Get(node, "name", "last"))
	name := tree.String(tree.Get(node, "name", "full"))
	if name == "" {
		name = strings.TrimSpace(first + " " + last)
	}
	if name == "" {
		return nil, &model.ParseError{Entity: "player", Key: key, Reason: "missing name"}
	}

	p := &model.Player{
		ExternalKey:       key,
		ExternalID:        tree.String(tree.Get(node, "player_id")),
		Name:              name,
		FirstName:         first,
		LastName:          last,
		Position:          tree.String(tree.Get(node, "display_position")),
		EligiblePositions: []string{},
		Team:              tree.String(tree.Get(node, "editorial_team_abbr")),
		UniformNumber:     tree.OptInt(tree.Get(node, "uniform_number")),
		Status:            tree.String(tree.Get(node, "status")),
		InjuryStatus:      tree.String(tree.Get(node, "injury_note")),
		ImageURL:          tree.String(tree.Get(node, "headshot", "url")),
	}
	if p.ImageURL == "" {
		p.ImageURL = tree.String(tree.Get(node, "image_url"))
	}
	for _, pos := range tree.AsArray(tree.Get(node, "eligible_positions", "position")) {
		if s := tree.String(pos); s != "" {
			p.EligiblePositions = append(p.EligiblePositions, s)
		}
	}
	return p, nil
}

// ParseRosterSlot reads a roster player together with its selected position.
func ParseRosterSlot(node any) (*RosterSlot, error) {
	p, err := ParsePlayer(node)
	if err != nil {
		return nil, err
	}

	pos := tree.String(tree.Get(node, "selected_position", "position"))
	if pos == "" {
		pos = "BN"
	}
	return &RosterSlot{
		Player:           *p,
		SelectedPosition: pos,
		IsStarting:       !benchSlots[pos],
	}, nil
}

// ParsePlayerStats reads player_stats from a player node. Categories Yahoo
// did not report stay nil.
func ParsePlayerStats(node any) (*model.PlayerStats, error) {
	ps := tree.Get(node, "player_stats")
	if ps == nil {
		key := tree.String(tree.Get(node, "player_key"))
		return nil, &model.ParseError{Entity: "player stats", Key: key, Reason: "missing player_stats"}
	}

	s := tree.Get(ps, "stats")
	stats := &model.PlayerStats{
		Week:                tree.OptInt(tree.Get(ps, "week")),
		GamesPlayed:         PlayerStats.OptInt(s, "gamesPlayed"),
		Goals:               PlayerStats.OptInt(s, "goals"),
		Assists:             PlayerStats.OptInt(s, "assists"),
		Points:              PlayerStats.OptInt(s, "points"),
		PlusMinus:           PlayerStats.OptInt(s, "plusMinus"),
		PIM:                 PlayerStats.OptInt(s, "pim"),
		PowerPlayGoals:      PlayerStats.OptInt(s, "powerPlayGoals"),
		PowerPlayPoints:     PlayerStats.OptInt(s, "powerPlayPoints"),
		ShorthandedGoals:    PlayerStats.OptInt(s, "shorthandedGoals"),
		ShorthandedPoints:   PlayerStats.OptInt(s, "shorthandedPoints"),
		GameWinningGoals:    PlayerStats.OptInt(s, "gameWinningGoals"),
		ShotsOnGoal:         PlayerStats.OptInt(s, "shotsOnGoal"),
		ShootingPercentage:  PlayerStats.OptFloat(s, "shootingPercentage"),
		FaceoffsWon:         PlayerStats.OptInt(s, "faceoffsWon"),
		FaceoffsLost:        PlayerStats.OptInt(s, "faceoffsLost"),
		Hits:                PlayerStats.OptInt(s, "hits"),
		Blocks:              PlayerStats.OptInt(s, "blocks"),
		Wins:                PlayerStats.OptInt(s, "wins"),
		Losses:              PlayerStats.OptInt(s, "losses"),
		Ties:                PlayerStats.OptInt(s, "ties"),
		GoalsAgainst:        PlayerStats.OptInt(s, "goalsAgainst"),
		GoalsAgainstAverage: PlayerStats.OptFloat(s, "goalsAgainstAverage"),
		Saves:               PlayerStats.OptInt(s, "saves"),
		SavePercentage:      PlayerStats.OptFloat(s, "savePercentage"),
		Shutouts:            PlayerStats.OptInt(s, "shutouts"),
	}
	return stats, nil
}

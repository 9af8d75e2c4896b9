package controller

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/youcodecowboy/fantasy-hockey-analysis/model"
	"github.com/youcodecowboy/fantasy-hockey-analysis/platforms/yahoo"
	"github.com/youcodecowboy/fantasy-hockey-analysis/platforms/yahoo/tree"
)

func (c *controller) SyncLeagues(ctx context.Context, userID string) (*model.SyncResult, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}

	raw, err := c.yahoo.GetUserGames(ctx, userID)
	if err != nil {
		return nil, err
	}
	doc, err := parseResponse("games", raw)
	if err != nil {
		return nil, err
	}

	game := findGame(doc, model.GameCodeNHL)
	if game == nil {
		log.Info().Str("user", userID).Msg("no nhl game in yahoo account")
		return &model.SyncResult{Message: "No NHL game found in Yahoo account"}, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raw, err = c.yahoo.GetUserLeagues(ctx, userID, game.Key)
	if err != nil {
		return nil, err
	}
	doc, err = parseResponse("leagues", raw)
	if err != nil {
		return nil, err
	}

	nodes := yahoo.LeagueNodes(doc)
	if len(nodes) == 0 {
		return &model.SyncResult{Message: "No leagues found in Yahoo account"}, nil
	}

	batch := context.WithoutCancel(ctx)
	synced := 0
	for _, n := range nodes {
		l, err := yahoo.ParseLeague(n, game)
		if err != nil {
			log.Warn().Err(err).Str("user", userID).Msg("skipping league")
			continue
		}
		l.OwnerUserID = userID

		if _, err := c.db.UpsertLeague(batch, l); err != nil {
			return nil, fmt.Errorf("error saving league %s: %w", l.ExternalKey, err)
		}
		synced++
	}

	log.Info().Str("user", userID).Str("game", game.Key).Int("leagues", synced).Msg("synced leagues")
	return &model.SyncResult{Synced: synced}, nil
}

// findGame returns the newest season of the game with code, or nil.
func findGame(doc map[string]any, code string) *yahoo.Game {
	var found *yahoo.Game
	for _, n := range yahoo.GameNodes(doc) {
		g, err := yahoo.ParseGame(n)
		if err != nil {
			log.Warn().Err(err).Msg("skipping game")
			continue
		}
		if g.Code != code {
			continue
		}
		if found == nil || g.Season > found.Season {
			found = g
		}
	}
	return found
}

func (c *controller) SyncTeams(ctx context.Context, userID string, leagueID int32) (*model.SyncResult, error) {
	l, err := c.userLeague(ctx, userID, leagueID)
	if err != nil {
		return nil, err
	}

	n, err := c.syncTeams(ctx, userID, l)
	if err != nil {
		return nil, err
	}
	return &model.SyncResult{Synced: n}, nil
}

func (c *controller) syncTeams(ctx context.Context, userID string, l *model.League) (int, error) {
	raw, err := c.yahoo.GetLeagueTeams(ctx, userID, l.ExternalKey)
	if err != nil {
		return 0, err
	}
	doc, err := parseResponse("teams", raw)
	if err != nil {
		return 0, err
	}

	batch := context.WithoutCancel(ctx)
	synced := 0
	for _, n := range yahoo.TeamNodes(doc) {
		t, err := yahoo.ParseTeam(n)
		if err != nil {
			log.Warn().Err(err).Str("league", l.ExternalKey).Msg("skipping team")
			continue
		}
		t.LeagueID = l.ID
		t.OwnerUserID = userID

		if _, err := c.db.UpsertTeam(batch, t); err != nil {
			return synced, fmt.Errorf("error saving team %s: %w", t.ExternalKey, err)
		}
		synced++
	}

	log.Info().Str("league", l.ExternalKey).Int("teams", synced).Msg("synced teams")
	return synced, nil
}

func (c *controller) SyncMatchups(ctx context.Context, userID string, leagueID int32, week int) (*model.SyncResult, error) {
	if week < 0 {
		return nil, fmt.Errorf("week must not be negative, got %d", week)
	}
	l, err := c.userLeague(ctx, userID, leagueID)
	if err != nil {
		return nil, err
	}

	raw, err := c.yahoo.GetScoreboard(ctx, userID, l.ExternalKey, week)
	if err != nil {
		return nil, err
	}
	doc, err := parseResponse("scoreboard", raw)
	if err != nil {
		return nil, err
	}

	nodes := yahoo.MatchupNodes(doc)
	if len(nodes) == 0 {
		return &model.SyncResult{Message: "No matchups found"}, nil
	}

	batch := context.WithoutCancel(ctx)
	teams := newTeamResolver(c, userID, l)
	scoreboardWeek := yahoo.ScoreboardWeek(doc)
	synced, skipped := 0, 0

	for _, n := range nodes {
		m, err := yahoo.ParseMatchup(n, scoreboardWeek)
		if err != nil {
			log.Warn().Err(err).Str("league", l.ExternalKey).Msg("skipping matchup")
			skipped++
			continue
		}

		var ids [2]int32
		resolved := true
		for i, t := range m.Teams {
			id, ok, err := teams.resolve(batch, t.Key)
			if err != nil {
				return nil, err
			}
			if !ok {
				log.Warn().Str("league", l.ExternalKey).Str("team", t.Key).Int("week", m.Week).Msg("matchup team not found after team sync, skipping")
				resolved = false
				break
			}
			ids[i] = id
		}
		if !resolved {
			skipped++
			continue
		}

		_, err = c.db.UpsertMatchup(batch, &model.Matchup{
			LeagueID:      l.ID,
			Week:          m.Week,
			Team1ID:       ids[0],
			Team2ID:       ids[1],
			Team1Score:    m.Teams[0].Points,
			Team2Score:    m.Teams[1].Points,
			IsPlayoffs:    m.IsPlayoffs,
			IsConsolation: m.IsConsolation,
			Status:        m.Status,
		})
		if err != nil {
			return nil, fmt.Errorf("error saving matchup for week %d: %w", m.Week, err)
		}
		synced++
	}

	log.Info().Str("league", l.ExternalKey).Int("matchups", synced).Int("skipped", skipped).Msg("synced matchups")
	res := &model.SyncResult{Synced: synced}
	if skipped > 0 {
		res.Message = fmt.Sprintf("%d matchup(s) skipped", skipped)
	}
	return res, nil
}

// teamResolver maps Yahoo team keys to local team ids for one sync call.
type teamResolver struct {
	c      *controller
	userID string
	league *model.League

	byKey  map[string]int32
	loaded bool
}

func newTeamResolver(c *controller, userID string, l *model.League) *teamResolver {
	return &teamResolver{c: c, userID: userID, league: l}
}

// resolve looks up key locally and falls back to a single team sync.
func (r *teamResolver) resolve(ctx context.Context, key string) (int32, bool, error) {
	if r.byKey == nil {
		if err := r.reload(ctx); err != nil {
			return 0, false, err
		}
	}
	if id, ok := r.byKey[key]; ok {
		return id, true, nil
	}

	if err := r.EnsureTeamsLoaded(ctx); err != nil {
		return 0, false, err
	}
	id, ok := r.byKey[key]
	return id, ok, nil
}

// EnsureTeamsLoaded syncs the league's teams the first time it is called and
// does nothing after that.
func (r *teamResolver) EnsureTeamsLoaded(ctx context.Context) error {
	if r.loaded {
		return nil
	}
	r.loaded = true

	log.Info().Str("league", r.league.ExternalKey).Msg("unknown team in matchup, syncing teams")
	if _, err := r.c.syncTeams(ctx, r.userID, r.league); err != nil {
		return err
	}
	return r.reload(ctx)
}

func (r *teamResolver) reload(ctx context.Context) error {
	teams, err := r.c.db.GetLeagueTeams(ctx, r.league.ID)
	if err != nil {
		return fmt.Errorf("error loading teams for league %d: %w", r.league.ID, err)
	}
	r.byKey = make(map[string]int32, len(teams))
	for _, t := range teams {
		r.byKey[t.ExternalKey] = t.ID
	}
	return nil
}

func (c *controller) ListLeagues(ctx context.Context, userID string) ([]model.League, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	return c.db.ListLeagues(ctx, userID)
}

func (c *controller) GetLeagueTeams(ctx context.Context, userID string, leagueID int32) ([]model.Team, error) {
	l, err := c.userLeague(ctx, userID, leagueID)
	if err != nil {
		return nil, err
	}
	return c.db.GetLeagueTeams(ctx, l.ID)
}

func (c *controller) GetUserTeam(ctx context.Context, userID string, leagueID int32) (*model.Team, error) {
	teams, err := c.GetLeagueTeams(ctx, userID, leagueID)
	if err != nil {
		return nil, err
	}
	for i := range teams {
		if teams[i].IsUserTeam {
			return &teams[i], nil
		}
	}
	return nil, &model.NotFoundError{Kind: "user team", Key: fmt.Sprint(leagueID)}
}

func (c *controller) GetMatchups(ctx context.Context, userID string, leagueID int32, week int) ([]model.Matchup, error) {
	l, err := c.userLeague(ctx, userID, leagueID)
	if err != nil {
		return nil, err
	}
	return c.db.GetMatchups(ctx, l.ID, week)
}

// parseResponse turns a raw provider body into a tree. A body that is not
// XML at all fails the whole stage.
func parseResponse(entity string, raw []byte) (map[string]any, error) {
	doc, err := tree.Parse(raw)
	if err != nil {
		return nil, &model.ParseError{Entity: entity + " response", Reason: err.Error()}
	}
	return doc, nil
}

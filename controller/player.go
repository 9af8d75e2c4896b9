package controller

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	"github.com/youcodecowboy/fantasy-hockey-analysis/db"
	"github.com/youcodecowboy/fantasy-hockey-analysis/model"
	"github.com/youcodecowboy/fantasy-hockey-analysis/platforms/yahoo"
	"golang.org/x/sync/errgroup"
)

// SyncFreeAgents stores players as global records. Whether a player is a
// free agent is decided at read time from the league's rosters.
func (c *controller) SyncFreeAgents(ctx context.Context, userID string, leagueID int32, position string, count int) (*model.SyncResult, error) {
	l, err := c.userLeague(ctx, userID, leagueID)
	if err != nil {
		return nil, err
	}
	if count <= 0 {
		count = yahoo.DefaultPlayerCount
	}

	raw, err := c.yahoo.GetPlayers(ctx, userID, l.ExternalKey, yahoo.PlayerFilter{Position: position, Count: count})
	if err != nil {
		return nil, err
	}
	doc, err := parseResponse("players", raw)
	if err != nil {
		return nil, err
	}

	nodes := yahoo.PlayerNodes(doc)
	if len(nodes) == 0 {
		return &model.SyncResult{}, nil
	}

	// Each upsert targets a different player key, so they can run side by side.
	var synced atomic.Int32
	g, gctx := errgroup.WithContext(context.WithoutCancel(ctx))
	g.SetLimit(c.upsertLimit)
	for _, n := range nodes {
		n := n
		g.Go(func() error {
			p, err := yahoo.ParsePlayer(n)
			if err != nil {
				log.Warn().Err(err).Str("league", l.ExternalKey).Msg("skipping player")
				return nil
			}
			if _, err := c.db.UpsertPlayer(gctx, p); err != nil {
				return fmt.Errorf("error saving player %s: %w", p.ExternalKey, err)
			}
			synced.Add(1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	log.Info().Str("league", l.ExternalKey).Str("position", position).Int32("players", synced.Load()).Msg("synced free agents")
	return &model.SyncResult{Synced: int(synced.Load())}, nil
}

// SyncRoster replaces the team's lineup for week (0 for the current one) and
// upserts every player on it.
func (c *controller) SyncRoster(ctx context.Context, userID string, teamID int32, week int) (*model.SyncResult, error) {
	if week < 0 {
		return nil, fmt.Errorf("week must not be negative, got %d", week)
	}
	t, l, err := c.userTeam(ctx, userID, teamID)
	if err != nil {
		return nil, err
	}

	raw, err := c.yahoo.GetTeamRoster(ctx, userID, t.ExternalKey, week)
	if err != nil {
		return nil, err
	}
	doc, err := parseResponse("roster", raw)
	if err != nil {
		return nil, err
	}

	batch := context.WithoutCancel(ctx)
	nodes := yahoo.RosterNodes(doc)
	entries := make([]model.RosterEntry, 0, len(nodes))
	seen := make(map[int32]bool, len(nodes))
	for _, n := range nodes {
		slot, err := yahoo.ParseRosterSlot(n)
		if err != nil {
			log.Warn().Err(err).Str("team", t.ExternalKey).Msg("skipping roster player")
			continue
		}

		p, err := c.db.UpsertPlayer(batch, &slot.Player)
		if err != nil {
			return nil, fmt.Errorf("error saving player %s: %w", slot.Player.ExternalKey, err)
		}
		if seen[p.ID] {
			continue
		}
		seen[p.ID] = true
		entries = append(entries, model.RosterEntry{
			PlayerID:   p.ID,
			Position:   slot.SelectedPosition,
			IsStarting: slot.IsStarting,
		})
	}

	r := &model.Roster{TeamID: t.ID, LeagueID: l.ID, Entries: entries}
	if week > 0 {
		r.Week = &week
	}
	if _, err := c.db.UpsertRoster(batch, r); err != nil {
		return nil, fmt.Errorf("error saving roster for team %s: %w", t.ExternalKey, err)
	}

	log.Info().Str("team", t.ExternalKey).Int("week", week).Int("players", len(entries)).Msg("synced roster")
	return &model.SyncResult{Synced: len(entries)}, nil
}

func (c *controller) SyncPlayerStats(ctx context.Context, userID string, playerID int32, week int) (*model.PlayerStats, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if week < 0 {
		return nil, fmt.Errorf("week must not be negative, got %d", week)
	}

	p, err := c.db.GetPlayer(ctx, playerID)
	if errors.Is(err, db.ErrPlayerNotFound) {
		return nil, &model.NotFoundError{Kind: "player", Key: fmt.Sprint(playerID), Err: err}
	}
	if err != nil {
		return nil, fmt.Errorf("error looking up player: %w", err)
	}

	raw, err := c.yahoo.GetPlayerStats(ctx, userID, p.ExternalKey, week)
	if err != nil {
		return nil, err
	}
	doc, err := parseResponse("player stats", raw)
	if err != nil {
		return nil, err
	}

	stats, err := yahoo.ParsePlayerStats(yahoo.PlayerNode(doc))
	if err != nil {
		return nil, err
	}
	if err := c.db.SavePlayerStats(context.WithoutCancel(ctx), p.ID, stats); err != nil {
		return nil, fmt.Errorf("error saving stats for player %s: %w", p.ExternalKey, err)
	}
	return stats, nil
}

func (c *controller) GetFreeAgents(ctx context.Context, userID string, leagueID int32) ([]model.Player, error) {
	l, err := c.userLeague(ctx, userID, leagueID)
	if err != nil {
		return nil, err
	}
	return c.db.GetFreeAgents(ctx, l.ID)
}

package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/youcodecowboy/fantasy-hockey-analysis/model"
)

const playerColumns = `id, external_key, external_id, name, name_first, name_last, position,
	eligible_positions, team, uniform_number, status, injury_status, image_url, stats,
	last_synced_at, created_at, updated_at`

// UpsertPlayer never touches the stats column. Stats are written separately by
// SavePlayerStats so a free agent sync does not wipe them.
func (db *postgresDB) UpsertPlayer(ctx context.Context, p *model.Player) (*model.Player, error) {
	if p == nil || p.ExternalKey == "" {
		return nil, errors.New("UpsertPlayer - player has no external key")
	}

	const upsert = `INSERT INTO players (
		external_key, external_id, name, name_first, name_last, position,
		eligible_positions, team, uniform_number, status, injury_status, image_url,
		last_synced_at, created_at, updated_at
	) VALUES (
		@externalKey, @externalID, @name, @nameFirst, @nameLast, @position,
		@eligiblePositions, @team, @uniformNumber, @status, @injuryStatus, @imageURL,
		@now, @now, @now
	)
	ON CONFLICT (external_key) DO UPDATE SET
		external_id = EXCLUDED.external_id,
		name = EXCLUDED.name,
		name_first = EXCLUDED.name_first,
		name_last = EXCLUDED.name_last,
		position = EXCLUDED.position,
		eligible_positions = EXCLUDED.eligible_positions,
		team = EXCLUDED.team,
		uniform_number = EXCLUDED.uniform_number,
		status = EXCLUDED.status,
		injury_status = EXCLUDED.injury_status,
		image_url = EXCLUDED.image_url,
		last_synced_at = EXCLUDED.last_synced_at,
		updated_at = EXCLUDED.updated_at
	RETURNING ` + playerColumns

	eligible := p.EligiblePositions
	if eligible == nil {
		eligible = []string{}
	}

	args := pgx.NamedArgs{
		"externalKey":       p.ExternalKey,
		"externalID":        p.ExternalID,
		"name":              p.Name,
		"nameFirst":         nullString(p.FirstName),
		"nameLast":          nullString(p.LastName),
		"position":          p.Position,
		"eligiblePositions": eligible,
		"team":              nullString(p.Team),
		"uniformNumber":     p.UniformNumber,
		"status":            nullString(p.Status),
		"injuryStatus":      nullString(p.InjuryStatus),
		"imageURL":          nullString(p.ImageURL),
		"now":               timestamptz(db.clock.Now()),
	}
	res, err := scanPlayer(db.pool.QueryRow(ctx, upsert, args))
	if err != nil {
		return nil, fmt.Errorf("error upserting player %s: %w", p.ExternalKey, err)
	}
	return res, nil
}

func (db *postgresDB) GetPlayer(ctx context.Context, id int32) (*model.Player, error) {
	query := `SELECT ` + playerColumns + ` FROM players WHERE id=@id`
	return db.getPlayer(ctx, query, pgx.NamedArgs{"id": id})
}

func (db *postgresDB) GetPlayerByKey(ctx context.Context, externalKey string) (*model.Player, error) {
	query := `SELECT ` + playerColumns + ` FROM players WHERE external_key=@key`
	return db.getPlayer(ctx, query, pgx.NamedArgs{"key": externalKey})
}

func (db *postgresDB) getPlayer(ctx context.Context, query string, args pgx.NamedArgs) (*model.Player, error) {
	p, err := scanPlayer(db.pool.QueryRow(ctx, query, args))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPlayerNotFound
		}
		return nil, fmt.Errorf("error scanning player: %w", err)
	}
	return p, nil
}

func (db *postgresDB) SavePlayerStats(ctx context.Context, playerID int32, stats *model.PlayerStats) error {
	const update = `UPDATE players SET stats=@stats, last_synced_at=@now, updated_at=@now WHERE id=@id`

	b, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("error encoding stats for player %d: %w", playerID, err)
	}

	args := pgx.NamedArgs{
		"id":    playerID,
		"stats": b,
		"now":   timestamptz(db.clock.Now()),
	}
	tag, err := db.pool.Exec(ctx, update, args)
	if err != nil {
		return fmt.Errorf("error saving stats for player %d: %w", playerID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPlayerNotFound
	}
	return nil
}

func (db *postgresDB) GetFreeAgents(ctx context.Context, leagueID int32) ([]model.Player, error) {
	query := `SELECT ` + playerColumns + ` FROM players p
		WHERE NOT EXISTS (
			SELECT 1 FROM roster_entries e
			INNER JOIN rosters r ON e.roster_id=r.id
			WHERE r.league_id=@leagueID AND e.player_id=p.id
		)
		ORDER BY p.name`

	rows, err := db.pool.Query(ctx, query, pgx.NamedArgs{"leagueID": leagueID})
	if err != nil {
		return nil, fmt.Errorf("error querying free agents for league %d: %w", leagueID, err)
	}
	defer rows.Close()

	results := make([]model.Player, 0, 25)
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning player: %w", err)
		}
		results = append(results, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error with rows: %w", err)
	}
	return results, nil
}

func scanPlayer(row pgx.Row) (*model.Player, error) {
	var result model.Player
	var first, last, team, status, injury, image sql.NullString
	var uniform pgtype.Int4
	var stats []byte
	var synced, created, updated pgtype.Timestamptz
	err := row.Scan(
		&result.ID,
		&result.ExternalKey,
		&result.ExternalID,
		&result.Name,
		&first,
		&last,
		&result.Position,
		&result.EligiblePositions,
		&team,
		&uniform,
		&status,
		&injury,
		&image,
		&stats,
		&synced,
		&created,
		&updated)
	if err != nil {
		return nil, err
	}

	if len(stats) > 0 {
		var s model.PlayerStats
		if err := json.Unmarshal(stats, &s); err != nil {
			return nil, fmt.Errorf("error decoding stats for player %s: %w", result.ExternalKey, err)
		}
		result.Stats = &s
	}
	if result.EligiblePositions == nil {
		result.EligiblePositions = []string{}
	}

	result.FirstName = valueOrEmpty(first)
	result.LastName = valueOrEmpty(last)
	result.Team = valueOrEmpty(team)
	result.Status = valueOrEmpty(status)
	result.InjuryStatus = valueOrEmpty(injury)
	result.ImageURL = valueOrEmpty(image)
	result.UniformNumber = intPtr(uniform)
	result.LastSyncedAt = synced.Time
	result.CreatedAt = created.Time
	result.UpdatedAt = updated.Time

	return &result, nil
}

// UpsertRoster replaces the roster's entries in the same transaction as the
// roster row so readers never see a half written lineup.
func (db *postgresDB) UpsertRoster(ctx context.Context, r *model.Roster) (*model.Roster, error) {
	if r == nil || r.TeamID == 0 || r.LeagueID == 0 {
		return nil, errors.New("UpsertRoster - roster is missing its team or league")
	}

	const upsert = `INSERT INTO rosters (team_id, league_id, week, last_synced_at, created_at, updated_at)
		VALUES (@teamID, @leagueID, @week, @now, @now, @now)
		ON CONFLICT (team_id, week) DO UPDATE SET
			league_id = EXCLUDED.league_id,
			last_synced_at = EXCLUDED.last_synced_at,
			updated_at = EXCLUDED.updated_at
		RETURNING id, team_id, league_id, week, last_synced_at, created_at, updated_at`
	const deleteEntries = `DELETE FROM roster_entries WHERE roster_id=@rosterID`
	const insertEntry = `INSERT INTO roster_entries (roster_id, player_id, position, is_starting)
		VALUES (@rosterID, @playerID, @position, @isStarting)
		ON CONFLICT (roster_id, player_id) DO UPDATE SET
			position = EXCLUDED.position,
			is_starting = EXCLUDED.is_starting`

	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("error starting transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	args := pgx.NamedArgs{
		"teamID":   r.TeamID,
		"leagueID": r.LeagueID,
		"week":     weekOrZero(r.Week),
		"now":      timestamptz(db.clock.Now()),
	}
	res, err := scanRoster(tx.QueryRow(ctx, upsert, args))
	if err != nil {
		return nil, fmt.Errorf("error upserting roster for team %d: %w", r.TeamID, err)
	}

	if _, err := tx.Exec(ctx, deleteEntries, pgx.NamedArgs{"rosterID": res.ID}); err != nil {
		return nil, fmt.Errorf("error clearing roster %d: %w", res.ID, err)
	}
	for _, e := range r.Entries {
		args := pgx.NamedArgs{
			"rosterID":   res.ID,
			"playerID":   e.PlayerID,
			"position":   e.Position,
			"isStarting": e.IsStarting,
		}
		if _, err := tx.Exec(ctx, insertEntry, args); err != nil {
			return nil, fmt.Errorf("error inserting roster entry for player %d: %w", e.PlayerID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("error commiting roster: %w", err)
	}

	res.Entries = append([]model.RosterEntry{}, r.Entries...)
	return res, nil
}

func (db *postgresDB) GetRoster(ctx context.Context, teamID int32, week *int) (*model.Roster, error) {
	const query = `SELECT id, team_id, league_id, week, last_synced_at, created_at, updated_at
		FROM rosters WHERE team_id=@teamID AND week=@week`
	const entries = `SELECT player_id, position, is_starting FROM roster_entries
		WHERE roster_id=@rosterID ORDER BY is_starting DESC, player_id`

	args := pgx.NamedArgs{
		"teamID": teamID,
		"week":   weekOrZero(week),
	}
	r, err := scanRoster(db.pool.QueryRow(ctx, query, args))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRosterNotFound
		}
		return nil, fmt.Errorf("error scanning roster for team %d: %w", teamID, err)
	}

	rows, err := db.pool.Query(ctx, entries, pgx.NamedArgs{"rosterID": r.ID})
	if err != nil {
		return nil, fmt.Errorf("error querying roster entries: %w", err)
	}
	r.Entries, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.RosterEntry, error) {
		var e model.RosterEntry
		err := row.Scan(&e.PlayerID, &e.Position, &e.IsStarting)
		return e, err
	})
	if err != nil {
		return nil, fmt.Errorf("error scanning roster entries: %w", err)
	}

	return r, nil
}

func scanRoster(row pgx.Row) (*model.Roster, error) {
	var r model.Roster
	var week int
	var synced, created, updated pgtype.Timestamptz
	if err := row.Scan(&r.ID, &r.TeamID, &r.LeagueID, &week, &synced, &created, &updated); err != nil {
		return nil, err
	}

	r.Week = weekOrNil(week)
	r.LastSyncedAt = synced.Time
	r.CreatedAt = created.Time
	r.UpdatedAt = updated.Time
	return &r, nil
}

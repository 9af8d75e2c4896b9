package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/youcodecowboy/fantasy-hockey-analysis/model"
)

const leagueColumns = `id, external_key, external_id, owner_user_id, name, season, game_code,
	is_finished, current_week, last_synced_at, created_at, updated_at`

func (db *postgresDB) UpsertLeague(ctx context.Context, l *model.League) (*model.League, error) {
	if l == nil || l.ExternalKey == "" {
		return nil, errors.New("UpsertLeague - league has no external key")
	}

	const upsert = `INSERT INTO leagues (
		external_key, external_id, owner_user_id, name, season, game_code,
		is_finished, current_week, last_synced_at, created_at, updated_at
	) VALUES (
		@externalKey, @externalID, @ownerUserID, @name, @season, @gameCode,
		@isFinished, @currentWeek, @now, @now, @now
	)
	ON CONFLICT (external_key) DO UPDATE SET
		external_id = EXCLUDED.external_id,
		owner_user_id = EXCLUDED.owner_user_id,
		name = EXCLUDED.name,
		season = EXCLUDED.season,
		game_code = EXCLUDED.game_code,
		is_finished = EXCLUDED.is_finished,
		current_week = EXCLUDED.current_week,
		last_synced_at = EXCLUDED.last_synced_at,
		updated_at = EXCLUDED.updated_at
	RETURNING ` + leagueColumns

	args := pgx.NamedArgs{
		"externalKey": l.ExternalKey,
		"externalID":  l.ExternalID,
		"ownerUserID": l.OwnerUserID,
		"name":        l.Name,
		"season":      l.Season,
		"gameCode":    l.GameCode,
		"isFinished":  l.IsFinished,
		"currentWeek": l.CurrentWeek,
		"now":         timestamptz(db.clock.Now()),
	}
	res, err := scanLeague(db.pool.QueryRow(ctx, upsert, args))
	if err != nil {
		return nil, fmt.Errorf("error upserting league %s: %w", l.ExternalKey, err)
	}
	return res, nil
}

func (db *postgresDB) GetLeague(ctx context.Context, id int32) (*model.League, error) {
	query := `SELECT ` + leagueColumns + ` FROM leagues WHERE id=@id`
	return db.getLeague(ctx, query, pgx.NamedArgs{"id": id})
}

func (db *postgresDB) GetLeagueByKey(ctx context.Context, externalKey string) (*model.League, error) {
	query := `SELECT ` + leagueColumns + ` FROM leagues WHERE external_key=@key`
	return db.getLeague(ctx, query, pgx.NamedArgs{"key": externalKey})
}

func (db *postgresDB) getLeague(ctx context.Context, query string, args pgx.NamedArgs) (*model.League, error) {
	l, err := scanLeague(db.pool.QueryRow(ctx, query, args))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLeagueNotFound
		}
		return nil, fmt.Errorf("error scanning league: %w", err)
	}
	return l, nil
}

func (db *postgresDB) ListLeagues(ctx context.Context, ownerUserID string) ([]model.League, error) {
	query := `SELECT ` + leagueColumns + ` FROM leagues
		WHERE owner_user_id=@owner ORDER BY season DESC, name`

	rows, err := db.pool.Query(ctx, query, pgx.NamedArgs{"owner": ownerUserID})
	if err != nil {
		return nil, fmt.Errorf("error querying leagues: %w", err)
	}
	defer rows.Close()

	results := make([]model.League, 0, 4)
	for rows.Next() {
		l, err := scanLeague(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning league: %w", err)
		}
		results = append(results, *l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error with rows: %w", err)
	}
	return results, nil
}

func scanLeague(row pgx.Row) (*model.League, error) {
	var l model.League
	var currentWeek pgtype.Int4
	var synced, created, updated pgtype.Timestamptz
	err := row.Scan(
		&l.ID,
		&l.ExternalKey,
		&l.ExternalID,
		&l.OwnerUserID,
		&l.Name,
		&l.Season,
		&l.GameCode,
		&l.IsFinished,
		&currentWeek,
		&synced,
		&created,
		&updated)
	if err != nil {
		return nil, err
	}

	l.CurrentWeek = intPtr(currentWeek)
	l.LastSyncedAt = synced.Time
	l.CreatedAt = created.Time
	l.UpdatedAt = updated.Time
	return &l, nil
}

const teamColumns = `id, external_key, external_id, league_id, owner_user_id, name, is_user_team,
	wins, losses, ties, points_for, points_against, last_synced_at, created_at, updated_at`

func (db *postgresDB) UpsertTeam(ctx context.Context, t *model.Team) (*model.Team, error) {
	if t == nil || t.ExternalKey == "" {
		return nil, errors.New("UpsertTeam - team has no external key")
	}

	const upsert = `INSERT INTO teams (
		external_key, external_id, league_id, owner_user_id, name, is_user_team,
		wins, losses, ties, points_for, points_against, last_synced_at, created_at, updated_at
	) VALUES (
		@externalKey, @externalID, @leagueID, @ownerUserID, @name, @isUserTeam,
		@wins, @losses, @ties, @pointsFor, @pointsAgainst, @now, @now, @now
	)
	ON CONFLICT (external_key) DO UPDATE SET
		external_id = EXCLUDED.external_id,
		league_id = EXCLUDED.league_id,
		owner_user_id = EXCLUDED.owner_user_id,
		name = EXCLUDED.name,
		is_user_team = EXCLUDED.is_user_team,
		wins = EXCLUDED.wins,
		losses = EXCLUDED.losses,
		ties = EXCLUDED.ties,
		points_for = EXCLUDED.points_for,
		points_against = EXCLUDED.points_against,
		last_synced_at = EXCLUDED.last_synced_at,
		updated_at = EXCLUDED.updated_at
	RETURNING ` + teamColumns

	args := pgx.NamedArgs{
		"externalKey":   t.ExternalKey,
		"externalID":    t.ExternalID,
		"leagueID":      t.LeagueID,
		"ownerUserID":   t.OwnerUserID,
		"name":          t.Name,
		"isUserTeam":    t.IsUserTeam,
		"wins":          t.Wins,
		"losses":        t.Losses,
		"ties":          t.Ties,
		"pointsFor":     t.PointsFor,
		"pointsAgainst": t.PointsAgainst,
		"now":           timestamptz(db.clock.Now()),
	}
	res, err := scanTeam(db.pool.QueryRow(ctx, upsert, args))
	if err != nil {
		return nil, fmt.Errorf("error upserting team %s: %w", t.ExternalKey, err)
	}
	return res, nil
}

func (db *postgresDB) GetTeam(ctx context.Context, id int32) (*model.Team, error) {
	query := `SELECT ` + teamColumns + ` FROM teams WHERE id=@id`
	return db.getTeam(ctx, query, pgx.NamedArgs{"id": id})
}

func (db *postgresDB) GetTeamByKey(ctx context.Context, externalKey string) (*model.Team, error) {
	query := `SELECT ` + teamColumns + ` FROM teams WHERE external_key=@key`
	return db.getTeam(ctx, query, pgx.NamedArgs{"key": externalKey})
}

func (db *postgresDB) getTeam(ctx context.Context, query string, args pgx.NamedArgs) (*model.Team, error) {
	t, err := scanTeam(db.pool.QueryRow(ctx, query, args))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("error scanning team: %w", err)
	}
	return t, nil
}

func (db *postgresDB) GetLeagueTeams(ctx context.Context, leagueID int32) ([]model.Team, error) {
	query := `SELECT ` + teamColumns + ` FROM teams WHERE league_id=@leagueID ORDER BY external_key`

	rows, err := db.pool.Query(ctx, query, pgx.NamedArgs{"leagueID": leagueID})
	if err != nil {
		return nil, fmt.Errorf("error querying teams for league %d: %w", leagueID, err)
	}
	defer rows.Close()

	results := make([]model.Team, 0, 12)
	for rows.Next() {
		t, err := scanTeam(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning team: %w", err)
		}
		results = append(results, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error with rows: %w", err)
	}
	return results, nil
}

func scanTeam(row pgx.Row) (*model.Team, error) {
	var t model.Team
	var ties pgtype.Int4
	var pf, pa pgtype.Float8
	var synced, created, updated pgtype.Timestamptz
	err := row.Scan(
		&t.ID,
		&t.ExternalKey,
		&t.ExternalID,
		&t.LeagueID,
		&t.OwnerUserID,
		&t.Name,
		&t.IsUserTeam,
		&t.Wins,
		&t.Losses,
		&ties,
		&pf,
		&pa,
		&synced,
		&created,
		&updated)
	if err != nil {
		return nil, err
	}

	t.Ties = intPtr(ties)
	t.PointsFor = floatPtr(pf)
	t.PointsAgainst = floatPtr(pa)
	t.LastSyncedAt = synced.Time
	t.CreatedAt = created.Time
	t.UpdatedAt = updated.Time
	return &t, nil
}

const matchupColumns = `id, league_id, week, team1_id, team2_id, team1_score, team2_score,
	is_playoffs, is_consolation, status, last_synced_at, created_at, updated_at`

func (db *postgresDB) UpsertMatchup(ctx context.Context, m *model.Matchup) (*model.Matchup, error) {
	if m == nil || m.LeagueID == 0 || m.Team1ID == 0 || m.Team2ID == 0 {
		return nil, errors.New("UpsertMatchup - matchup is missing its league or teams")
	}

	const upsert = `INSERT INTO matchups (
		league_id, week, team1_id, team2_id, team1_score, team2_score,
		is_playoffs, is_consolation, status, last_synced_at, created_at, updated_at
	) VALUES (
		@leagueID, @week, @team1ID, @team2ID, @team1Score, @team2Score,
		@isPlayoffs, @isConsolation, @status, @now, @now, @now
	)
	ON CONFLICT (league_id, week, team1_id, team2_id) DO UPDATE SET
		team1_score = EXCLUDED.team1_score,
		team2_score = EXCLUDED.team2_score,
		is_playoffs = EXCLUDED.is_playoffs,
		is_consolation = EXCLUDED.is_consolation,
		status = EXCLUDED.status,
		last_synced_at = EXCLUDED.last_synced_at,
		updated_at = EXCLUDED.updated_at
	RETURNING ` + matchupColumns

	args := pgx.NamedArgs{
		"leagueID":      m.LeagueID,
		"week":          m.Week,
		"team1ID":       m.Team1ID,
		"team2ID":       m.Team2ID,
		"team1Score":    m.Team1Score,
		"team2Score":    m.Team2Score,
		"isPlayoffs":    m.IsPlayoffs,
		"isConsolation": m.IsConsolation,
		"status":        m.Status,
		"now":           timestamptz(db.clock.Now()),
	}
	res, err := scanMatchup(db.pool.QueryRow(ctx, upsert, args))
	if err != nil {
		return nil, fmt.Errorf("error upserting matchup %d/%d (%d vs %d): %w", m.LeagueID, m.Week, m.Team1ID, m.Team2ID, err)
	}
	return res, nil
}

func (db *postgresDB) GetMatchup(ctx context.Context, id int32) (*model.Matchup, error) {
	query := `SELECT ` + matchupColumns + ` FROM matchups WHERE id=@id`

	m, err := scanMatchup(db.pool.QueryRow(ctx, query, pgx.NamedArgs{"id": id}))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMatchupNotFound
		}
		return nil, fmt.Errorf("error scanning matchup %d: %w", id, err)
	}
	return m, nil
}

func (db *postgresDB) GetMatchups(ctx context.Context, leagueID int32, week int) ([]model.Matchup, error) {
	query := `SELECT ` + matchupColumns + ` FROM matchups
		WHERE league_id=@leagueID AND (@week = 0 OR week=@week)
		ORDER BY week, id`

	rows, err := db.pool.Query(ctx, query, pgx.NamedArgs{"leagueID": leagueID, "week": week})
	if err != nil {
		return nil, fmt.Errorf("error querying matchups for league %d: %w", leagueID, err)
	}
	defer rows.Close()

	results := make([]model.Matchup, 0, 6)
	for rows.Next() {
		m, err := scanMatchup(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning matchup: %w", err)
		}
		results = append(results, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error with rows: %w", err)
	}
	return results, nil
}

func scanMatchup(row pgx.Row) (*model.Matchup, error) {
	var m model.Matchup
	var s1, s2 pgtype.Float8
	var synced, created, updated pgtype.Timestamptz
	err := row.Scan(
		&m.ID,
		&m.LeagueID,
		&m.Week,
		&m.Team1ID,
		&m.Team2ID,
		&s1,
		&s2,
		&m.IsPlayoffs,
		&m.IsConsolation,
		&m.Status,
		&synced,
		&created,
		&updated)
	if err != nil {
		return nil, err
	}

	m.Team1Score = floatPtr(s1)
	m.Team2Score = floatPtr(s2)
	m.LastSyncedAt = synced.Time
	m.CreatedAt = created.Time
	m.UpdatedAt = updated.Time
	return &m, nil
}

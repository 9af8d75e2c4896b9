package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/youcodecowboy/fantasy-hockey-analysis/model"
)

const reportColumns = `id, user_id, league_id, report_type, title, content, metadata, created_at`

func (db *postgresDB) SaveAnalysisReport(ctx context.Context, r *model.AnalysisReport) (*model.AnalysisReport, error) {
	if r == nil || r.UserID == "" || r.LeagueID == 0 || r.Type == "" {
		return nil, errors.New("SaveAnalysisReport - report is missing its user, league or type")
	}

	const insert = `INSERT INTO analysis_reports (
		user_id, league_id, report_type, title, content, metadata, created_at
	) VALUES (
		@userID, @leagueID, @reportType, @title, @content, @metadata, @now
	)
	RETURNING ` + reportColumns

	metadata, err := json.Marshal(r.Metadata)
	if err != nil {
		return nil, fmt.Errorf("error encoding report metadata: %w", err)
	}

	args := pgx.NamedArgs{
		"userID":     r.UserID,
		"leagueID":   r.LeagueID,
		"reportType": string(r.Type),
		"title":      r.Title,
		"content":    r.Content,
		"metadata":   metadata,
		"now":        timestamptz(db.clock.Now()),
	}
	res, err := scanReport(db.pool.QueryRow(ctx, insert, args))
	if err != nil {
		return nil, fmt.Errorf("error saving %s report: %w", r.Type, err)
	}
	return res, nil
}

func (db *postgresDB) ListAnalysisReports(ctx context.Context, userID string, leagueID int32, reportType model.ReportType) ([]model.AnalysisReport, error) {
	query := `SELECT ` + reportColumns + ` FROM analysis_reports
		WHERE user_id=@userID AND league_id=@leagueID
			AND (@reportType = '' OR report_type=@reportType)
		ORDER BY created_at DESC, id DESC`

	args := pgx.NamedArgs{
		"userID":     userID,
		"leagueID":   leagueID,
		"reportType": string(reportType),
	}
	rows, err := db.pool.Query(ctx, query, args)
	if err != nil {
		return nil, fmt.Errorf("error querying reports: %w", err)
	}
	defer rows.Close()

	results := make([]model.AnalysisReport, 0, 8)
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning report: %w", err)
		}
		results = append(results, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error with rows: %w", err)
	}
	return results, nil
}

func scanReport(row pgx.Row) (*model.AnalysisReport, error) {
	var r model.AnalysisReport
	var reportType string
	var metadata []byte
	var created pgtype.Timestamptz
	err := row.Scan(
		&r.ID,
		&r.UserID,
		&r.LeagueID,
		&reportType,
		&r.Title,
		&r.Content,
		&metadata,
		&created)
	if err != nil {
		return nil, err
	}

	r.Type = model.ReportType(reportType)
	r.CreatedAt = created.Time
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &r.Metadata); err != nil {
			return nil, fmt.Errorf("error decoding metadata of report %d: %w", r.ID, err)
		}
	}
	return &r, nil
}

package model

import (
	"fmt"
	"time"
)

type ReportType string

const (
	ReportFreeAgents ReportType = "free_agents"
	ReportOpponent   ReportType = "opponent_analysis"
	ReportTeam       ReportType = "team_insights"
)

// ParseReportType accepts the stored names. An empty string is "" with no error.
func ParseReportType(s string) (ReportType, error) {
	switch t := ReportType(s); t {
	case "", ReportFreeAgents, ReportOpponent, ReportTeam:
		return t, nil
	default:
		return "", fmt.Errorf("unknown report type %q", s)
	}
}

// ReportMetadata records what an analysis was about.
type ReportMetadata struct {
	PlayerIDs []int32 `json:"playerIds,omitempty"`
	TeamID    int32   `json:"teamId,omitempty"`
	MatchupID int32   `json:"matchupId,omitempty"`
	Week      int     `json:"week,omitempty"`
}

// AnalysisReport is a stored analyst answer. Reports are append only.
type AnalysisReport struct {
	ID        int32          `json:"id"`
	UserID    string         `json:"userId"`
	LeagueID  int32          `json:"leagueId"`
	Type      ReportType     `json:"type"`
	Title     string         `json:"title"`
	Content   string         `json:"content"`
	Metadata  ReportMetadata `json:"metadata"`
	CreatedAt time.Time      `json:"createdAt"`
}

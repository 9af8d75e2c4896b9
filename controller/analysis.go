package controller

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/youcodecowboy/fantasy-hockey-analysis/db"
	"github.com/youcodecowboy/fantasy-hockey-analysis/model"
)

const (
	analystRole = "You are a fantasy hockey analyst. Base every recommendation on the numbers you are given and keep the answer short."

	// Upper bound on the players listed in a single prompt.
	maxPromptPlayers = 25
)

// AnalyzeFreeAgents asks the analyst which of playerIDs the user should pick
// up. With no ids the league's current free agents are used. Ids that are not
// in the store are ignored.
func (c *controller) AnalyzeFreeAgents(ctx context.Context, userID string, leagueID int32, playerIDs []int32) (*model.AnalysisReport, error) {
	if c.analyst == nil {
		return nil, ErrAnalysisDisabled
	}
	l, err := c.userLeague(ctx, userID, leagueID)
	if err != nil {
		return nil, err
	}
	team := c.optionalUserTeam(ctx, userID, leagueID)

	var players []model.Player
	if len(playerIDs) == 0 {
		players, err = c.db.GetFreeAgents(ctx, l.ID)
		if err != nil {
			return nil, fmt.Errorf("error loading free agents: %w", err)
		}
	} else {
		for _, id := range playerIDs {
			p, err := c.db.GetPlayer(ctx, id)
			if errors.Is(err, db.ErrPlayerNotFound) {
				log.Warn().Int32("player", id).Msg("player for analysis not found, ignoring")
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("error looking up player: %w", err)
			}
			players = append(players, *p)
		}
	}
	if len(players) == 0 {
		return nil, &model.NotFoundError{Kind: "players for league", Key: fmt.Sprint(leagueID)}
	}
	if len(players) > maxPromptPlayers {
		players = players[:maxPromptPlayers]
	}

	var b strings.Builder
	b.WriteString("Which of these free agents should I add?\n\n")
	writeLeague(&b, l)
	writeTeam(&b, "My team", team)
	b.WriteString("\nAvailable players:\n")
	for i := range players {
		writePlayer(&b, i+1, &players[i])
	}
	b.WriteString("\nName the three best pickups, what each one adds to my team and any injury or playing time concerns.")

	ids := make([]int32, len(players))
	for i := range players {
		ids[i] = players[i].ID
	}
	meta := model.ReportMetadata{PlayerIDs: ids}
	if team != nil {
		meta.TeamID = team.ID
	}
	if l.CurrentWeek != nil {
		meta.Week = *l.CurrentWeek
	}
	return c.completeReport(ctx, b.String(), &model.AnalysisReport{
		UserID:   userID,
		LeagueID: l.ID,
		Type:     model.ReportFreeAgents,
		Title:    "Free Agent Analysis",
		Metadata: meta,
	})
}

// AnalyzeOpponent compares the user's team with the other side of matchupID.
func (c *controller) AnalyzeOpponent(ctx context.Context, userID string, matchupID int32) (*model.AnalysisReport, error) {
	if c.analyst == nil {
		return nil, ErrAnalysisDisabled
	}
	if err := requireUser(userID); err != nil {
		return nil, err
	}

	m, err := c.db.GetMatchup(ctx, matchupID)
	if errors.Is(err, db.ErrMatchupNotFound) {
		return nil, &model.NotFoundError{Kind: "matchup", Key: fmt.Sprint(matchupID), Err: err}
	}
	if err != nil {
		return nil, fmt.Errorf("error looking up matchup: %w", err)
	}

	l, err := c.userLeague(ctx, userID, m.LeagueID)
	if err != nil {
		return nil, err
	}
	mine, err := c.GetUserTeam(ctx, userID, l.ID)
	if err != nil {
		return nil, err
	}
	opponentID := m.Opponent(mine.ID)
	if opponentID == 0 {
		return nil, &model.NotFoundError{Kind: "opponent in matchup", Key: fmt.Sprint(matchupID)}
	}
	opponent, err := c.db.GetTeam(ctx, opponentID)
	if errors.Is(err, db.ErrTeamNotFound) {
		return nil, &model.NotFoundError{Kind: "team", Key: fmt.Sprint(opponentID), Err: err}
	}
	if err != nil {
		return nil, fmt.Errorf("error looking up opponent: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Preview my week %d matchup.\n\n", m.Week)
	writeLeague(&b, l)
	writeTeam(&b, "My team", mine)
	writeTeam(&b, "Opponent", opponent)
	if m.IsPlayoffs {
		b.WriteString("This is a playoff matchup.\n")
	}
	b.WriteString("\nWhere is the opponent strong, where are they weak, and which categories should I target this week?")

	return c.completeReport(ctx, b.String(), &model.AnalysisReport{
		UserID:   userID,
		LeagueID: l.ID,
		Type:     model.ReportOpponent,
		Title:    "Opponent Analysis: " + opponent.Name,
		Metadata: model.ReportMetadata{TeamID: opponent.ID, MatchupID: m.ID, Week: m.Week},
	})
}

// AnalyzeTeam reviews the user's own team and its current roster, when one
// has been synced.
func (c *controller) AnalyzeTeam(ctx context.Context, userID string, leagueID int32) (*model.AnalysisReport, error) {
	if c.analyst == nil {
		return nil, ErrAnalysisDisabled
	}
	l, err := c.userLeague(ctx, userID, leagueID)
	if err != nil {
		return nil, err
	}
	mine, err := c.GetUserTeam(ctx, userID, leagueID)
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	b.WriteString("Review my fantasy hockey team.\n\n")
	writeLeague(&b, l)
	writeTeam(&b, "My team", mine)

	r, err := c.db.GetRoster(ctx, mine.ID, nil)
	switch {
	case errors.Is(err, db.ErrRosterNotFound):
		log.Info().Str("team", mine.ExternalKey).Msg("no roster synced, analysing record only")
	case err != nil:
		return nil, fmt.Errorf("error loading roster: %w", err)
	default:
		b.WriteString("\nRoster:\n")
		for i, e := range r.Entries {
			p, err := c.db.GetPlayer(ctx, e.PlayerID)
			if err != nil {
				return nil, fmt.Errorf("error loading roster player %d: %w", e.PlayerID, err)
			}
			fmt.Fprintf(&b, "%d. [%s] %s\n", i+1, e.Position, playerLine(p))
		}
	}
	b.WriteString("\nWhat are the team's strengths and weaknesses, and what moves would improve it?")

	meta := model.ReportMetadata{TeamID: mine.ID}
	if l.CurrentWeek != nil {
		meta.Week = *l.CurrentWeek
	}
	return c.completeReport(ctx, b.String(), &model.AnalysisReport{
		UserID:   userID,
		LeagueID: l.ID,
		Type:     model.ReportTeam,
		Title:    "Team Performance Analysis",
		Metadata: meta,
	})
}

// ListReports returns the user's stored analyses for a league, newest first.
func (c *controller) ListReports(ctx context.Context, userID string, leagueID int32, reportType model.ReportType) ([]model.AnalysisReport, error) {
	l, err := c.userLeague(ctx, userID, leagueID)
	if err != nil {
		return nil, err
	}
	reports, err := c.db.ListAnalysisReports(ctx, userID, l.ID, reportType)
	if err != nil {
		return nil, fmt.Errorf("error listing reports: %w", err)
	}
	return reports, nil
}

// completeReport sends prompt to the analyst and stores the answer as r.
func (c *controller) completeReport(ctx context.Context, prompt string, r *model.AnalysisReport) (*model.AnalysisReport, error) {
	content, err := c.analyst.Complete(ctx, analystRole, prompt)
	if err != nil {
		return nil, err
	}
	r.Content = content

	saved, err := c.db.SaveAnalysisReport(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("error saving %s report: %w", r.Type, err)
	}
	log.Info().Str("user", r.UserID).Int32("report", saved.ID).Str("type", string(r.Type)).Msg("analysis report saved")
	return saved, nil
}

// optionalUserTeam returns nil when the user's team has not been synced yet.
func (c *controller) optionalUserTeam(ctx context.Context, userID string, leagueID int32) *model.Team {
	t, err := c.GetUserTeam(ctx, userID, leagueID)
	if err != nil {
		log.Info().Err(err).Int32("league", leagueID).Msg("analysing without the user's team")
		return nil
	}
	return t
}

func writeLeague(b *strings.Builder, l *model.League) {
	fmt.Fprintf(b, "League: %s (%s season", l.Name, l.Season)
	if l.CurrentWeek != nil {
		fmt.Fprintf(b, ", week %d", *l.CurrentWeek)
	}
	b.WriteString(")\n")
}

func writeTeam(b *strings.Builder, label string, t *model.Team) {
	if t == nil {
		fmt.Fprintf(b, "%s: unknown\n", label)
		return
	}
	fmt.Fprintf(b, "%s: %s, record %s", label, t.Name, t.Record())
	if t.PointsFor != nil {
		fmt.Fprintf(b, ", points for %.2f", *t.PointsFor)
	}
	if t.PointsAgainst != nil {
		fmt.Fprintf(b, ", points against %.2f", *t.PointsAgainst)
	}
	b.WriteString("\n")
}

func writePlayer(b *strings.Builder, n int, p *model.Player) {
	fmt.Fprintf(b, "%d. %s\n", n, playerLine(p))
}

func playerLine(p *model.Player) string {
	team := p.Team
	if team == "" {
		team = "FA"
	}
	line := fmt.Sprintf("%s (%s, %s)", p.Name, strings.Join(p.EligiblePositions, "/"), team)
	if p.InjuryStatus != "" {
		line += " injury: " + p.InjuryStatus
	}
	if s := p.Stats; s != nil {
		line += fmt.Sprintf(" G %s A %s P %s +/- %s SOG %s", intOrDash(s.Goals), intOrDash(s.Assists), intOrDash(s.Points), intOrDash(s.PlusMinus), intOrDash(s.ShotsOnGoal))
		if p.IsGoalie() {
			line += fmt.Sprintf(" W %s L %s T %s SV %s SO %s", intOrDash(s.Wins), intOrDash(s.Losses), intOrDash(s.Ties), intOrDash(s.Saves), intOrDash(s.Shutouts))
		}
	}
	return line
}

func intOrDash(v *int) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprint(*v)
}

package controller

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/itbasis/go-clock"
	"github.com/youcodecowboy/fantasy-hockey-analysis/model"
	"github.com/youcodecowboy/fantasy-hockey-analysis/testutils"
)

type recordingAnalyst struct {
	system, prompt string
	err            error
}

func (a *recordingAnalyst) Complete(_ context.Context, system, user string) (string, error) {
	a.system, a.prompt = system, user
	if a.err != nil {
		return "", a.err
	}
	return "analysis", nil
}

func analysisForTest(t *testing.T) (*controller, *recordingAnalyst, *testutils.HockeyLeague) {
	t.Helper()
	c, tc := controllerForTest(t)
	a := &recordingAnalyst{}
	c.analyst = a
	return c, a, withLeague(t, tc)
}

func TestAnalyzeFreeAgents(t *testing.T) {
	c, a, hl := analysisForTest(t)

	r, err := c.AnalyzeFreeAgents(context.Background(), testUser, hl.League.ID, []int32{hl.Players[1].ID, 9999})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Content != "analysis" || r.Title != "Free Agent Analysis" || r.Type != model.ReportFreeAgents {
		t.Errorf("unexpected report: %+v", r)
	}
	if len(r.Metadata.PlayerIDs) != 1 || r.Metadata.PlayerIDs[0] != hl.Players[1].ID {
		t.Errorf("expected only the known player in the metadata, got %v", r.Metadata.PlayerIDs)
	}
	for _, want := range []string{"Puck Dynasty", "Ice Breakers", "10-4-2", "Matty Beniers (C/Util, SEA)"} {
		if !strings.Contains(a.prompt, want) {
			t.Errorf("prompt is missing %q:\n%s", want, a.prompt)
		}
	}
	if a.system == "" {
		t.Error("expected a system prompt")
	}
}

func TestAnalyzeFreeAgents_defaultsToLeagueFreeAgents(t *testing.T) {
	c, a, hl := analysisForTest(t)

	if _, err := c.AnalyzeFreeAgents(context.Background(), testUser, hl.League.ID, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(a.prompt, "Matty Beniers") {
		t.Errorf("expected the free agent in the prompt:\n%s", a.prompt)
	}
	if strings.Contains(a.prompt, "Connor McDavid") {
		t.Errorf("rostered player should not be offered:\n%s", a.prompt)
	}
}

func TestAnalyzeFreeAgents_noPlayers(t *testing.T) {
	c, _, hl := analysisForTest(t)

	_, err := c.AnalyzeFreeAgents(context.Background(), testUser, hl.League.ID, []int32{9999})
	if !model.IsNotFoundError(err) {
		t.Errorf("expected not found, got: %v", err)
	}
}

func TestAnalyzeOpponent(t *testing.T) {
	c, a, hl := analysisForTest(t)

	r, err := c.AnalyzeOpponent(context.Background(), testUser, hl.Matchup.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Title != "Opponent Analysis: Slap Shots" {
		t.Errorf("unexpected title %q", r.Title)
	}
	if r.Metadata.MatchupID != hl.Matchup.ID || r.Metadata.TeamID != hl.Opponent.ID || r.Metadata.Week != 5 {
		t.Errorf("unexpected metadata: %+v", r.Metadata)
	}
	for _, want := range []string{"week 5", "My team: Ice Breakers", "Opponent: Slap Shots, record 4-10-2"} {
		if !strings.Contains(a.prompt, want) {
			t.Errorf("prompt is missing %q:\n%s", want, a.prompt)
		}
	}

	if _, err := c.AnalyzeOpponent(context.Background(), testUser, 9999); !model.IsNotFoundError(err) {
		t.Errorf("expected not found for an unknown matchup, got: %v", err)
	}
	if _, err := c.AnalyzeOpponent(context.Background(), "user-2", hl.Matchup.ID); !model.IsNotFoundError(err) {
		t.Errorf("expected not found for another user's matchup, got: %v", err)
	}
}

func TestAnalyzeTeam(t *testing.T) {
	c, a, hl := analysisForTest(t)

	r, err := c.AnalyzeTeam(context.Background(), testUser, hl.League.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Title != "Team Performance Analysis" || r.Metadata.TeamID != hl.UserTeam.ID {
		t.Errorf("unexpected report: %+v", r)
	}
	for _, want := range []string{"Roster:", "[C] Connor McDavid", "[G] Joey Daccord"} {
		if !strings.Contains(a.prompt, want) {
			t.Errorf("prompt is missing %q:\n%s", want, a.prompt)
		}
	}
}

func TestAnalyze_errors(t *testing.T) {
	ctx := context.Background()
	c, a, hl := analysisForTest(t)

	a.err = &model.UpstreamError{Resource: "chat", StatusCode: 429}
	if _, err := c.AnalyzeTeam(ctx, testUser, hl.League.ID); !model.IsUpstreamError(err) {
		t.Errorf("expected the analyst error to pass through, got: %v", err)
	}
	if reports, _ := c.db.ListAnalysisReports(ctx, testUser, hl.League.ID, ""); len(reports) != 0 {
		t.Errorf("a failed analysis should not be stored, got %d reports", len(reports))
	}

	c.analyst = nil
	if _, err := c.AnalyzeTeam(ctx, testUser, hl.League.ID); !errors.Is(err, ErrAnalysisDisabled) {
		t.Errorf("expected ErrAnalysisDisabled, got: %v", err)
	}
	if _, err := c.AnalyzeOpponent(ctx, testUser, hl.Matchup.ID); !errors.Is(err, ErrAnalysisDisabled) {
		t.Errorf("expected ErrAnalysisDisabled, got: %v", err)
	}
}

func TestListReports(t *testing.T) {
	ctx := context.Background()
	c, _, hl := analysisForTest(t)

	team, err := c.AnalyzeTeam(ctx, testUser, hl.League.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	c.clock.(*clock.Mock).Add(time.Minute)
	opp, err := c.AnalyzeOpponent(ctx, testUser, hl.Matchup.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	all, err := c.ListReports(ctx, testUser, hl.League.ID, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 2 || all[0].ID != opp.ID || all[1].ID != team.ID {
		t.Fatalf("expected the opponent report then the team report, got %+v", all)
	}
	if all[1].Content != "analysis" {
		t.Errorf("expected the stored content, got %q", all[1].Content)
	}

	teamOnly, err := c.ListReports(ctx, testUser, hl.League.ID, model.ReportTeam)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(teamOnly) != 1 || teamOnly[0].ID != team.ID {
		t.Errorf("expected only the team report, got %+v", teamOnly)
	}

	if _, err := c.ListReports(ctx, "user-2", hl.League.ID, ""); !model.IsNotFoundError(err) {
		t.Errorf("expected not found for another user's league, got: %v", err)
	}
}

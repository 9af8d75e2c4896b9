package tree

import (
	"reflect"
	"testing"
)

const gamesXML = `<?xml version="1.0" encoding="UTF-8"?>
<fantasy_content xml:lang="en-US" yahoo:uri="http://fantasysports.yahooapis.com/fantasy/v2/users;use_login=1/games" xmlns:yahoo="http://www.yahooapis.com/v1/base.rng" xmlns="http://fantasysports.yahooapis.com/fantasy/v2/base.rng">
  <users count="1">
    <user>
      <guid>ABC</guid>
      <games count="2">
        <game>
          <game_key>449</game_key>
          <code>nfl</code>
        </game>
        <game>
          <game_key>453</game_key>
          <code>nhl</code>
          <is_game_over>0</is_game_over>
        </game>
      </games>
    </user>
  </users>
</fantasy_content>`

func TestParse(t *testing.T) {
	doc, err := Parse([]byte(gamesXML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if lang := Get(doc, "fantasy_content", "lang"); lang != "en-US" {
		t.Errorf("attribute was not merged, got %v", lang)
	}
	if count := Get(doc, "fantasy_content", "users", "count"); count != "1" {
		t.Errorf("wanted users count 1, got %v", count)
	}

	games := AsArray(Get(doc, "fantasy_content", "users", "user", "games", "game"))
	if len(games) != 2 {
		t.Fatalf("wanted 2 games, got %d", len(games))
	}
	if code := String(Get(games[1], "code")); code != "nhl" {
		t.Errorf("wanted nhl, got %s", code)
	}
	if Flag(Get(games[1], "is_game_over")) {
		t.Error("is_game_over should be false")
	}
	if v := Get(games[0], "is_game_over"); v != nil {
		t.Errorf("missing field should be nil, got %v", v)
	}
}

func TestParse_singleChildStaysScalar(t *testing.T) {
	doc, err := Parse([]byte(`<league><teams count="1"><team><name>A</name></team></teams></league>`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	team := Get(doc, "league", "teams", "team")
	if _, ok := team.(map[string]any); !ok {
		t.Fatalf("single team should be a map, got %T", team)
	}
	if n := len(AsArray(team)); n != 1 {
		t.Errorf("wanted 1 team, got %d", n)
	}
}

func TestParse_textWithAttributes(t *testing.T) {
	doc, err := Parse([]byte(`<player><name full="x">Connor McDavid</name><empty/></player>`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if name := String(Get(doc, "player", "name")); name != "Connor McDavid" {
		t.Errorf("wanted text, got %q", name)
	}
	if v := Get(doc, "player", "empty"); v != "" {
		t.Errorf("empty element should be empty string, got %v", v)
	}
	if OptString(Get(doc, "player", "empty")) != nil {
		t.Error("empty element should be absent for optional strings")
	}
}

func TestParse_errors(t *testing.T) {
	tests := map[string]string{
		"empty":     "",
		"malformed": "<a><b></a>",
		"text only": "just text",
	}

	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := Parse([]byte(raw)); err == nil {
				t.Error("expected an error, but got none")
			}
		})
	}
}

func TestAsArray(t *testing.T) {
	x := map[string]any{"k": "v"}
	tests := map[string]struct {
		in   any
		want []any
	}{
		"nil":    {in: nil, want: []any{}},
		"single": {in: x, want: []any{x}},
		"scalar": {in: "x", want: []any{"x"}},
		"list":   {in: []any{"x", "y"}, want: []any{"x", "y"}},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			if got := AsArray(tc.in); !reflect.DeepEqual(tc.want, got) {
				t.Errorf("wanted %v, got %v", tc.want, got)
			}
		})
	}
}

func TestGet(t *testing.T) {
	matchup := map[string]any{
		"teams": map[string]any{
			"0": map[string]any{"team_key": "453.l.1.t.1"},
			"1": map[string]any{"team_key": "453.l.1.t.2"},
		},
		"list":   []any{"a", "b"},
		"single": map[string]any{"name": "only"},
	}

	tests := map[string]struct {
		path []string
		want any
	}{
		"ordinal key":        {path: []string{"teams", "1", "team_key"}, want: "453.l.1.t.2"},
		"list index":         {path: []string{"list", "1"}, want: "b"},
		"index out of range": {path: []string{"list", "5"}, want: nil},
		"zero on single":     {path: []string{"single", "0", "name"}, want: "only"},
		"one on single":      {path: []string{"single", "1", "name"}, want: nil},
		"missing":            {path: []string{"nope", "deeper"}, want: nil},
		"through a string":   {path: []string{"list", "0", "x"}, want: nil},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			if got := Get(matchup, tc.path...); got != tc.want {
				t.Errorf("wanted %v, got %v", tc.want, got)
			}
		})
	}

	if Get(nil, "a") != nil {
		t.Error("Get on nil should be nil")
	}
}

func TestCoercion(t *testing.T) {
	if !Flag("1") || Flag("0") || Flag(nil) || Flag("true") {
		t.Error("only \"1\" is a true flag")
	}

	if n := Int("12"); n != 12 {
		t.Errorf("wanted 12, got %d", n)
	}
	if n := Int("10.0"); n != 10 {
		t.Errorf("wanted 10, got %d", n)
	}
	if n := Int("abc"); n != 0 {
		t.Errorf("unparsable required int should be 0, got %d", n)
	}
	if n := Int(nil); n != 0 {
		t.Errorf("absent required int should be 0, got %d", n)
	}
	if OptInt(nil) != nil || OptInt("-") != nil {
		t.Error("absent or unparsable optional int should be nil")
	}
	if p := OptInt("97"); p == nil || *p != 97 {
		t.Errorf("wanted 97, got %v", p)
	}

	if f := Float(".325"); f != 0.325 {
		t.Errorf("wanted 0.325, got %v", f)
	}
	if f := Float("-"); f != 0 {
		t.Errorf("wanted 0, got %v", f)
	}
	if OptFloat("") != nil {
		t.Error("empty optional float should be nil")
	}
}

func TestStatLookup(t *testing.T) {
	stats := []any{
		map[string]any{"stat_id": "1", "value": "87.5"},
		map[string]any{"stat_id": "7", "value": "10"},
	}
	lookup := StatLookup{"pointsFor": "1", "wins": "7", "ties": "9"}

	if pf := lookup.Float(stats, "pointsFor"); pf != 87.5 {
		t.Errorf("wanted pointsFor 87.5, got %v", pf)
	}
	if w := lookup.Int(stats, "wins"); w != 10 {
		t.Errorf("wanted wins 10, got %d", w)
	}
	if lookup.OptInt(stats, "ties") != nil {
		t.Error("missing stat should be nil")
	}
	if lookup.Value(stats, "unknown") != nil {
		t.Error("unknown name should be nil")
	}

	// A single stat wrapped in its container node.
	wrapped := map[string]any{"stat": map[string]any{"stat_id": "7", "value": "3"}}
	if w := lookup.Int(wrapped, "wins"); w != 3 {
		t.Errorf("wanted wins 3, got %d", w)
	}
}

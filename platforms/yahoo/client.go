package yahoo

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/youcodecowboy/fantasy-hockey-analysis/model"
	"golang.org/x/time/rate"
)

const (
	YahooURL = "https://fantasysports.yahooapis.com"
	apiPath  = "/fantasy/v2"

	// Yahoo never returns more than 25 players per page.
	DefaultPlayerCount = 25

	maxErrorBody = 500
)

// TokenSource hands out a usable access token for a user.
type TokenSource interface {
	ValidToken(ctx context.Context, userID string) (string, error)
}

// Client fetches Yahoo Fantasy resources. Every method returns the raw XML
// body; interpreting it is left to the tree package and the Parse functions.
type Client struct {
	url        string
	tokens     TokenSource
	httpClient *http.Client
	limiter    *rate.Limiter
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(y *Client) { y.httpClient = c }
}

// WithRateLimit caps outbound requests per second across all users.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(y *Client) { y.limiter = rate.NewLimiter(rate.Limit(perSecond), burst) }
}

func WithBaseURL(u string) Option {
	return func(y *Client) { y.url = u }
}

func New(tokens TokenSource, opts ...Option) *Client {
	c := &Client{
		url:        YahooURL,
		tokens:     tokens,
		httpClient: &http.Client{Timeout: 20 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(5), 5),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func NewForTest(url string, tokens TokenSource) *Client {
	return New(tokens, WithBaseURL(url), WithRateLimit(float64(rate.Inf), 1))
}

// PlayerFilter narrows a league's player pool. Zero values are left out of the request.
type PlayerFilter struct {
	Position string
	Status   string // FA, W, T, A
	Start    int
	Count    int
}

func (f PlayerFilter) query() url.Values {
	q := url.Values{}
	if f.Position != "" {
		q.Set("position", f.Position)
	}
	if f.Status != "" {
		q.Set("status", f.Status)
	}
	if f.Start > 0 {
		q.Set("start", strconv.Itoa(f.Start))
	}
	if f.Count > 0 {
		q.Set("count", strconv.Itoa(f.Count))
	}
	return q
}

func (c *Client) GetUserGames(ctx context.Context, userID string) ([]byte, error) {
	return c.yahooRequest(ctx, userID, "/users;use_login=1/games", nil)
}

func (c *Client) GetUserLeagues(ctx context.Context, userID, gameKey string) ([]byte, error) {
	return c.yahooRequest(ctx, userID, fmt.Sprintf("/users;use_login=1/games;game_keys=%s/leagues", url.PathEscape(gameKey)), nil)
}

func (c *Client) GetLeague(ctx context.Context, userID, leagueKey string) ([]byte, error) {
	return c.yahooRequest(ctx, userID, fmt.Sprintf("/league/%s", url.PathEscape(leagueKey)), nil)
}

// GetLeagueTeams returns the league's teams with their managers.
func (c *Client) GetLeagueTeams(ctx context.Context, userID, leagueKey string) ([]byte, error) {
	return c.yahooRequest(ctx, userID, fmt.Sprintf("/league/%s/teams", url.PathEscape(leagueKey)), nil)
}

// GetScoreboard returns the matchups for week, or the current week when week is 0.
func (c *Client) GetScoreboard(ctx context.Context, userID, leagueKey string, week int) ([]byte, error) {
	return c.yahooRequest(ctx, userID, fmt.Sprintf("/league/%s/scoreboard%s", url.PathEscape(leagueKey), weekParam(week)), nil)
}

func (c *Client) GetPlayers(ctx context.Context, userID, leagueKey string, filter PlayerFilter) ([]byte, error) {
	return c.yahooRequest(ctx, userID, fmt.Sprintf("/league/%s/players", url.PathEscape(leagueKey)), filter.query())
}

func (c *Client) GetTeamRoster(ctx context.Context, userID, teamKey string, week int) ([]byte, error) {
	return c.yahooRequest(ctx, userID, fmt.Sprintf("/team/%s/roster%s", url.PathEscape(teamKey), weekParam(week)), nil)
}

func (c *Client) GetPlayerStats(ctx context.Context, userID, playerKey string, week int) ([]byte, error) {
	return c.yahooRequest(ctx, userID, fmt.Sprintf("/player/%s/stats%s", url.PathEscape(playerKey), weekParam(week)), nil)
}

func weekParam(week int) string {
	if week <= 0 {
		return ""
	}
	return fmt.Sprintf(";week=%d", week)
}

func (c *Client) yahooRequest(ctx context.Context, userID, path string, query url.Values) ([]byte, error) {
	token, err := c.tokens.ValidToken(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &model.UpstreamError{Resource: path, Err: fmt.Errorf("rate limit wait: %w", err)}
	}

	u := c.url + apiPath + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating yahoo http request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/xml")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &model.UpstreamError{Resource: path, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &model.UpstreamError{Resource: path, StatusCode: resp.StatusCode, Err: fmt.Errorf("reading body: %w", err)}
	}

	log.Debug().Str("path", path).Int("status", resp.StatusCode).Dur("elapsed", time.Since(start)).Msg("yahoo request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &model.UpstreamError{Resource: path, StatusCode: resp.StatusCode, Body: truncate(body, maxErrorBody)}
	}
	return body, nil
}

func truncate(b []byte, maxLen int) string {
	if len(b) <= maxLen {
		return string(b)
	}
	return string(b[:maxLen]) + "..."
}

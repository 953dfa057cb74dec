// Package espn implements a read-only client for the ESPN fantasy football
// league API. Private leagues require replaying the ESPN_S2 and SWID session
// cookies from a logged-in browser.
package espn

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

const errSnippetLen = 500

// rosterViews is the view set the league endpoint needs to return rosters,
// settings and player projections in one response.
var rosterViews = []string{"mRoster", "mSettings", "mTeam", "kona_player_info"}

// matchupViews adds live scores and the schedule.
var matchupViews = []string{"mMatchupScore", "mRoster", "mSettings", "mTeam", "mLiveScoring"}

// Config holds league coordinates and credentials.
type Config struct {
	LeagueID   int
	SeasonYear int
	ESPNS2     string
	SWID       string
	BaseURL    string
	Timeout    time.Duration
}

// Client calls the ESPN league endpoint.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *zap.Logger
}

// NewClient creates an ESPN client.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// FetchRoster returns league data with rosters and projections.
// week 0 means the league's current scoring period.
func (c *Client) FetchRoster(ctx context.Context, teamID, week int) (*LeagueResponse, error) {
	params := url.Values{}
	params.Set("rosterForTeamId", strconv.Itoa(teamID))
	if week > 0 {
		params.Set("scoringPeriodId", strconv.Itoa(week))
	}
	return c.fetchLeague(ctx, rosterViews, params)
}

// FetchMatchups returns league data with the schedule and live scores.
func (c *Client) FetchMatchups(ctx context.Context, week int) (*LeagueResponse, error) {
	params := url.Values{}
	if week > 0 {
		params.Set("scoringPeriodId", strconv.Itoa(week))
	}
	return c.fetchLeague(ctx, matchupViews, params)
}

func (c *Client) fetchLeague(ctx context.Context, views []string, params url.Values) (*LeagueResponse, error) {
	endpoint := fmt.Sprintf("%s/seasons/%d/segments/0/leagues/%d",
		strings.TrimRight(c.cfg.BaseURL, "/"), c.cfg.SeasonYear, c.cfg.LeagueID)

	query := params
	if query == nil {
		query = url.Values{}
	}
	for _, v := range views {
		query.Add("view", v)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+query.Encode(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build league request: %w", err)
	}

	c.setAuth(req)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("league request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	c.logger.Debug("espn league request",
		zap.Int("league_id", c.cfg.LeagueID),
		zap.Strings("views", views),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	// ESPN serves HTML error pages on auth or routing failures, keep a
	// snippet of the body for diagnostics instead of a decode error.
	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, errSnippetLen))
		snippet := strings.ReplaceAll(string(body), "\n", " ")
		return nil, fmt.Errorf("espn responded %d: %s", resp.StatusCode, snippet)
	}

	var league LeagueResponse
	if err := json.NewDecoder(resp.Body).Decode(&league); err != nil {
		return nil, fmt.Errorf("decode league response: %w", err)
	}
	return &league, nil
}

func (c *Client) setAuth(req *http.Request) {
	if c.cfg.ESPNS2 != "" {
		req.AddCookie(&http.Cookie{Name: "ESPN_S2", Value: c.cfg.ESPNS2})
		req.AddCookie(&http.Cookie{Name: "espn_s2", Value: c.cfg.ESPNS2})
	}
	if c.cfg.SWID != "" {
		req.AddCookie(&http.Cookie{Name: "SWID", Value: c.cfg.SWID})
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Referer", "https://fantasy.espn.com/")
	req.Header.Set("Origin", "https://fantasy.espn.com")
	req.Header.Set("x-fantasy-filter", `{"players":{}}`)
	req.Header.Set("x-fantasy-platform", "kona-PROD-1eb11d9ef8e2d38718627f7aae409e9065630000")
	req.Header.Set("x-fantasy-source", "kona")
}

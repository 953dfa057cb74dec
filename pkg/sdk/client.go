package sideline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const defaultTimeout = 60 * time.Second

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	apiKey     string
	httpClient *http.Client
}

// WithAPIKey sets the Bearer token sent with every request.
func WithAPIKey(key string) Option {
	return optionFunc(func(c *clientConfig) {
		c.apiKey = key
	})
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return optionFunc(func(c *clientConfig) {
		c.httpClient = hc
	})
}

// Client is the sideline API client entry point.
type Client struct {
	baseURL string
	apiKey  string
	hc      *http.Client
}

// New creates a client for the service at baseURL.
func New(baseURL string, opts ...Option) *Client {
	cfg := &clientConfig{}
	for _, o := range opts {
		o.apply(cfg)
	}
	if cfg.httpClient == nil {
		cfg.httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  cfg.apiKey,
		hc:      cfg.httpClient,
	}
}

// Roster fetches the roster for a week. Week 0 means the current week.
func (c *Client) Roster(ctx context.Context, week int) (Roster, error) {
	var out Roster
	err := c.get(ctx, "/api/v1/roster", weekQuery(week), &out)
	return out, err
}

// Matchup fetches the head-to-head matchup for a week. Week 0 means current.
func (c *Client) Matchup(ctx context.Context, week int) (Matchup, error) {
	var out Matchup
	err := c.get(ctx, "/api/v1/matchup", weekQuery(week), &out)
	return out, err
}

// Usage fetches the rolling-hour budget report.
func (c *Client) Usage(ctx context.Context) (UsageReport, error) {
	var out UsageReport
	err := c.get(ctx, "/api/v1/usage", nil, &out)
	return out, err
}

// Chat sends one conversation turn. An empty conversationID starts a new
// conversation; the reply carries the ID to continue it.
func (c *Client) Chat(ctx context.Context, conversationID, message string) (ChatReply, error) {
	var out ChatReply
	err := c.post(ctx, "/api/v1/chat", map[string]string{
		"conversation_id": conversationID,
		"message":         message,
	}, &out)
	return out, err
}

// LineupAdvice requests a lineup optimization. Week 0 means the current week.
func (c *Client) LineupAdvice(ctx context.Context, week int) (Advice, error) {
	var out Advice
	err := c.post(ctx, "/api/v1/advice/lineup", map[string]int{"week": week}, &out)
	return out, err
}

// CompareAdvice requests a head-to-head comparison of two players.
func (c *Client) CompareAdvice(ctx context.Context, player1, player2 string) (Advice, error) {
	var out Advice
	err := c.post(ctx, "/api/v1/advice/compare", map[string]string{
		"player1_name": player1,
		"player2_name": player2,
	}, &out)
	return out, err
}

// WaiverAdvice requests a waiver wire analysis, optionally focused on targets.
func (c *Client) WaiverAdvice(ctx context.Context, targets []string) (Advice, error) {
	var out Advice
	err := c.post(ctx, "/api/v1/advice/waivers", map[string]any{"targets": targets}, &out)
	return out, err
}

// TradeAdvice requests a trade opportunity analysis. Notes are free text
// passed to the analyst, e.g. a player the caller wants to acquire.
func (c *Client) TradeAdvice(ctx context.Context, notes string) (Advice, error) {
	var out Advice
	err := c.post(ctx, "/api/v1/advice/trades", map[string]string{"notes": notes}, &out)
	return out, err
}

// Health fetches the service health report. A degraded service answers
// with 503; the report is still returned alongside the error.
func (c *Client) Health(ctx context.Context) (Health, error) {
	var out Health
	err := c.get(ctx, "/health", nil, &out)
	return out, err
}

func weekQuery(week int) url.Values {
	if week <= 0 {
		return nil
	}
	return url.Values{"week": []string{strconv.Itoa(week)}}
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return fmt.Errorf("sideline: build request: %w", err)
	}
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("sideline: encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("sideline: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("sideline: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("sideline: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if err := json.Unmarshal(raw, apiErr); err != nil || apiErr.Code == "" {
			apiErr.Code = CodeInternalError
			apiErr.Message = strings.TrimSpace(string(raw))
		}
		// A degraded /health still carries a usable report.
		if out != nil {
			_ = json.Unmarshal(raw, out)
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("sideline: decode response: %w", err)
	}
	return nil
}

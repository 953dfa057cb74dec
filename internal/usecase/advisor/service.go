// Package advisor implements the AI analysis features: lineup optimization,
// player comparison, waiver wire and trade analysis. Every model call is
// admitted through the budget guard first and recorded after.
package advisor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sideline-ai/sideline/internal/domain/chat"
	"github.com/sideline-ai/sideline/internal/domain/usage"
	"github.com/sideline-ai/sideline/internal/metrics"
	"github.com/sideline-ai/sideline/internal/usecase/league"
)

// Feature names. They label metrics and pick the token estimate.
const (
	FeatureLineup  = "lineup"
	FeatureCompare = "compare"
	FeatureWaivers = "waivers"
	FeatureTrades  = "trades"
)

// tokenEstimate is the pre-call guess used for the budget check. The actual
// provider-reported counts are what gets recorded.
type tokenEstimate struct {
	input  int
	output int
}

var featureEstimates = map[string]tokenEstimate{
	FeatureLineup:  {input: 1500, output: 800},
	FeatureCompare: {input: 800, output: 600},
	FeatureWaivers: {input: 2000, output: 1200},
	FeatureTrades:  {input: 2500, output: 1500},
}

// budgetGuard is the consumer interface for the usage guard (ISP).
type budgetGuard interface {
	Check(model string, inputTokens, outputTokens int) usage.Decision
	Record(model string, inputTokens, outputTokens int, completedAt time.Time) (usage.Record, error)
}

// modelClient is the consumer interface for the chat model transport.
type modelClient interface {
	Complete(ctx context.Context, feature string, messages []chat.Message, tools []chat.ToolDef) (chat.Completion, error)
	Model() string
}

// leagueReader is the consumer interface for league data.
type leagueReader interface {
	Roster(ctx context.Context, week int) (*league.Roster, error)
	Matchup(ctx context.Context, week int) (*league.Matchup, error)
	FindPlayer(ctx context.Context, name string) (*league.RosterRow, error)
}

// LeagueContext carries league settings into the prompts.
type LeagueContext struct {
	TeamCount  int
	Scoring    string
	SeasonYear int
}

// Advice is the result of one analysis feature.
type Advice struct {
	Feature string          `json:"feature"`
	Content string          `json:"content"`
	Model   string          `json:"model"`
	Usage   chat.TokenUsage `json:"usage"`
	Cost    float64         `json:"cost"`
}

// Service runs the analysis features.
type Service struct {
	guard  budgetGuard
	model  modelClient
	league leagueReader
	lctx   LeagueContext
	logger *zap.Logger
}

// NewService creates an advisor.
func NewService(guard budgetGuard, model modelClient, lg leagueReader, lctx LeagueContext, logger *zap.Logger) *Service {
	if lctx.TeamCount <= 0 {
		lctx.TeamCount = 12
	}
	if lctx.Scoring == "" {
		lctx.Scoring = "0.5 PPR"
	}
	return &Service{guard: guard, model: model, league: lg, lctx: lctx, logger: logger}
}

// OptimizeLineup suggests the best starting lineup for the week.
func (s *Service) OptimizeLineup(ctx context.Context, week int) (*Advice, error) {
	roster, err := s.league.Roster(ctx, week)
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "My roster for week %d:\n%s\n", roster.Week, formatRoster(roster.Rows))
	if matchup, err := s.league.Matchup(ctx, week); err == nil {
		fmt.Fprintf(&b, "This week I face %s (%s), currently projected close.\n",
			opponentOf(matchup, roster.TeamName).Name, opponentOf(matchup, roster.TeamName).Record)
	}
	b.WriteString("Recommend my optimal starting lineup. For each slot name the player, " +
		"their projection and a one-line reason. Flag risky injury statuses.")

	return s.run(ctx, FeatureLineup,
		"You are an expert fantasy football analyst providing lineup optimization advice.",
		b.String())
}

// ComparePlayers weighs two players against each other for this week.
func (s *Service) ComparePlayers(ctx context.Context, playerA, playerB string) (*Advice, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Compare %s and %s for my fantasy lineup this week.\n", playerA, playerB)
	for _, name := range []string{playerA, playerB} {
		row, err := s.league.FindPlayer(ctx, name)
		if err != nil {
			continue // not on my roster is fine, the model still knows the player
		}
		fmt.Fprintf(&b, "%s: %s, %s, projected %.1f%s\n",
			row.Player, row.Position, row.NFLAbbrev, row.Projected, injurySuffix(row.Injury))
	}
	b.WriteString("Pick one to start and explain the matchup reasoning.")

	return s.run(ctx, FeatureCompare,
		"You are an expert fantasy football analyst providing player comparison advice based on current NFL data.",
		b.String())
}

// AnalyzeWaivers evaluates waiver wire targets against the current roster.
func (s *Service) AnalyzeWaivers(ctx context.Context, targets []string) (*Advice, error) {
	roster, err := s.league.Roster(ctx, 0)
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "My current roster:\n%s\n", formatRoster(roster.Rows))
	if len(targets) > 0 {
		fmt.Fprintf(&b, "Waiver wire targets I am considering: %s.\n", strings.Join(targets, ", "))
	}
	b.WriteString("Identify my weakest roster spots, rank the best available pickups, " +
		"and say exactly who to drop for each add.")

	return s.run(ctx, FeatureWaivers,
		"You are an expert fantasy football analyst specializing in waiver wire analysis and roster construction.",
		b.String())
}

// AnalyzeTrades proposes realistic trades for the configured team.
func (s *Service) AnalyzeTrades(ctx context.Context, notes string) (*Advice, error) {
	roster, err := s.league.Roster(ctx, 0)
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "My roster:\n%s\n", formatRoster(roster.Rows))
	if notes != "" {
		fmt.Fprintf(&b, "Context: %s\n", notes)
	}
	b.WriteString("Propose two or three realistic trades that improve my starting lineup. " +
		"For each trade state who I give, who I get, why the other manager plausibly accepts, " +
		"and the projection impact.")

	return s.run(ctx, FeatureTrades,
		"You are an expert fantasy football analyst specializing in trade analysis and roster construction strategy.",
		b.String())
}

// run performs the guarded model call shared by every feature:
// check the budget with the feature's estimate, call the model,
// record the actual usage.
func (s *Service) run(ctx context.Context, feature, system, prompt string) (*Advice, error) {
	est := featureEstimates[feature]
	model := s.model.Model()

	decision := s.guard.Check(model, est.input, est.output)
	metrics.BudgetRemainingDollars.Set(decision.RemainingBudget)
	if !decision.Allowed {
		metrics.GuardDecisionsTotal.WithLabelValues("deny").Inc()
		s.logger.Warn("model call denied by budget guard",
			zap.String("feature", feature),
			zap.String("reason", decision.Reason),
			zap.Float64("current_usage", decision.CurrentUsage),
			zap.Float64("hourly_limit", decision.HourlyLimit),
		)
		return nil, usage.NewDenied(decision)
	}
	metrics.GuardDecisionsTotal.WithLabelValues("allow").Inc()

	messages := []chat.Message{
		{Role: chat.RoleSystem, Content: s.systemPrompt(system)},
		{Role: chat.RoleUser, Content: prompt},
	}

	completion, err := s.model.Complete(ctx, feature, messages, nil)
	if err != nil {
		return nil, err
	}

	rec, err := s.guard.Record(model, completion.Usage.InputTokens, completion.Usage.OutputTokens, time.Time{})
	if err != nil {
		// The call already happened, an unrecordable model is a config bug.
		s.logger.Error("failed to record model usage", zap.String("model", model), zap.Error(err))
	}

	return &Advice{
		Feature: feature,
		Content: completion.Content,
		Model:   completion.Model,
		Usage:   completion.Usage,
		Cost:    rec.Cost,
	}, nil
}

func (s *Service) systemPrompt(base string) string {
	return fmt.Sprintf("%s The league is a %d-team %s league, %d season.",
		base, s.lctx.TeamCount, s.lctx.Scoring, s.lctx.SeasonYear)
}

func formatRoster(rows []league.RosterRow) string {
	var b strings.Builder
	for _, r := range rows {
		fmt.Fprintf(&b, "- %s: %s (%s, %s) projected %.1f%s\n",
			r.Slot, r.Player, r.Position, r.NFLAbbrev, r.Projected, injurySuffix(r.Injury))
	}
	return b.String()
}

func injurySuffix(status string) string {
	if status == "" || status == "ACTIVE" {
		return ""
	}
	return ", " + status
}

func opponentOf(m *league.Matchup, myName string) league.MatchupTeam {
	if m.Home.Name == myName {
		return m.Away
	}
	return m.Home
}

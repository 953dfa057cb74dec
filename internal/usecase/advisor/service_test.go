package advisor

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/sideline-ai/sideline/internal/domain"
	"github.com/sideline-ai/sideline/internal/domain/chat"
	"github.com/sideline-ai/sideline/internal/domain/usage"
	"github.com/sideline-ai/sideline/internal/usecase/league"
)

type fakeGuard struct {
	decision   usage.Decision
	checkedIn  int
	checkedOut int
	recordedIn int
	recorded   bool
}

func (g *fakeGuard) Check(_ string, in, out int) usage.Decision {
	g.checkedIn, g.checkedOut = in, out
	return g.decision
}

func (g *fakeGuard) Record(model string, in, _ int, _ time.Time) (usage.Record, error) {
	g.recorded = true
	g.recordedIn = in
	return usage.Record{Model: model, InputTokens: in, Cost: 0.0123}, nil
}

type fakeModel struct {
	completion chat.Completion
	err        error
	calls      int
	lastPrompt string
}

func (m *fakeModel) Complete(_ context.Context, _ string, messages []chat.Message, _ []chat.ToolDef) (chat.Completion, error) {
	m.calls++
	m.lastPrompt = messages[len(messages)-1].Content
	if m.err != nil {
		return chat.Completion{}, m.err
	}
	return m.completion, nil
}

func (m *fakeModel) Model() string { return "gpt-4o" }

type fakeLeague struct {
	roster  *league.Roster
	matchup *league.Matchup
}

func (l *fakeLeague) Roster(_ context.Context, _ int) (*league.Roster, error) {
	return l.roster, nil
}

func (l *fakeLeague) Matchup(_ context.Context, _ int) (*league.Matchup, error) {
	if l.matchup == nil {
		return nil, domain.ErrTeamNotFound
	}
	return l.matchup, nil
}

func (l *fakeLeague) FindPlayer(_ context.Context, name string) (*league.RosterRow, error) {
	for i := range l.roster.Rows {
		if strings.Contains(strings.ToLower(l.roster.Rows[i].Player), strings.ToLower(name)) {
			return &l.roster.Rows[i], nil
		}
	}
	return nil, domain.ErrPlayerNotFound
}

func testRoster() *league.Roster {
	return &league.Roster{
		TeamName: "Woody Marks",
		Week:     3,
		Rows: []league.RosterRow{
			{Slot: "QB", Player: "Patrick Mahomes", Position: "QB", NFLAbbrev: "KC", Projected: 22.4},
			{Slot: "RB", Player: "Joe Mixon", Position: "RB", NFLAbbrev: "HOU", Projected: 14.2, Injury: "QUESTIONABLE"},
		},
	}
}

func newTestService(g *fakeGuard, m *fakeModel) *Service {
	lg := &fakeLeague{roster: testRoster()}
	return NewService(g, m, lg, LeagueContext{TeamCount: 12, Scoring: "0.5 PPR", SeasonYear: 2025}, zap.NewNop())
}

func allowAll() *fakeGuard {
	return &fakeGuard{decision: usage.Decision{Allowed: true, RemainingBudget: 5}}
}

func TestOptimizeLineup_GuardedCallSucceeds(t *testing.T) {
	g := allowAll()
	m := &fakeModel{completion: chat.Completion{
		Content: "Start Mahomes.",
		Model:   "gpt-4o",
		Usage:   chat.TokenUsage{InputTokens: 1320, OutputTokens: 710},
	}}
	s := newTestService(g, m)

	advice, err := s.OptimizeLineup(context.Background(), 3)
	if err != nil {
		t.Fatalf("OptimizeLineup: %v", err)
	}

	if advice.Content != "Start Mahomes." {
		t.Errorf("content = %q", advice.Content)
	}
	if advice.Cost != 0.0123 {
		t.Errorf("cost = %f, want recorded 0.0123", advice.Cost)
	}
	if g.checkedIn != 1500 || g.checkedOut != 800 {
		t.Errorf("lineup estimate = %d/%d, want 1500/800", g.checkedIn, g.checkedOut)
	}
	if !g.recorded || g.recordedIn != 1320 {
		t.Errorf("actual usage not recorded: recorded=%v in=%d", g.recorded, g.recordedIn)
	}
	if !strings.Contains(m.lastPrompt, "Patrick Mahomes") {
		t.Errorf("prompt should carry the roster, got %q", m.lastPrompt)
	}
}

func TestOptimizeLineup_DeniedSkipsModelCall(t *testing.T) {
	g := &fakeGuard{decision: usage.Decision{
		Allowed:      false,
		Reason:       "hourly budget exhausted",
		CurrentUsage: 10.01,
		HourlyLimit:  10,
	}}
	m := &fakeModel{}
	s := newTestService(g, m)

	_, err := s.OptimizeLineup(context.Background(), 3)
	if !errors.Is(err, domain.ErrBudgetExceeded) {
		t.Fatalf("expected ErrBudgetExceeded, got %v", err)
	}

	var denied *usage.DeniedError
	if !errors.As(err, &denied) {
		t.Fatal("expected *usage.DeniedError")
	}
	if denied.Decision.CurrentUsage != 10.01 {
		t.Errorf("decision not carried: %+v", denied.Decision)
	}
	if m.calls != 0 {
		t.Errorf("model called %d times despite deny", m.calls)
	}
	if g.recorded {
		t.Error("nothing should be recorded on deny")
	}
}

func TestComparePlayers_UsesCompareEstimateAndProjections(t *testing.T) {
	g := allowAll()
	m := &fakeModel{completion: chat.Completion{Content: "Mixon.", Usage: chat.TokenUsage{InputTokens: 700, OutputTokens: 500}}}
	s := newTestService(g, m)

	_, err := s.ComparePlayers(context.Background(), "Mixon", "Jefferson")
	if err != nil {
		t.Fatalf("ComparePlayers: %v", err)
	}
	if g.checkedIn != 800 || g.checkedOut != 600 {
		t.Errorf("compare estimate = %d/%d, want 800/600", g.checkedIn, g.checkedOut)
	}
	if !strings.Contains(m.lastPrompt, "projected 14.2") {
		t.Errorf("prompt should carry the rostered player's projection, got %q", m.lastPrompt)
	}
	if !strings.Contains(m.lastPrompt, "Jefferson") {
		t.Errorf("off-roster player must still reach the prompt, got %q", m.lastPrompt)
	}
}

func TestAnalyzeWaivers_EstimateAndTargets(t *testing.T) {
	g := allowAll()
	m := &fakeModel{completion: chat.Completion{Content: "Add Puka."}}
	s := newTestService(g, m)

	_, err := s.AnalyzeWaivers(context.Background(), []string{"Puka Nacua", "Jaylen Warren"})
	if err != nil {
		t.Fatalf("AnalyzeWaivers: %v", err)
	}
	if g.checkedIn != 2000 || g.checkedOut != 1200 {
		t.Errorf("waivers estimate = %d/%d, want 2000/1200", g.checkedIn, g.checkedOut)
	}
	if !strings.Contains(m.lastPrompt, "Puka Nacua, Jaylen Warren") {
		t.Errorf("targets missing from prompt: %q", m.lastPrompt)
	}
}

func TestAnalyzeTrades_Estimate(t *testing.T) {
	g := allowAll()
	m := &fakeModel{completion: chat.Completion{Content: "Trade Mixon."}}
	s := newTestService(g, m)

	_, err := s.AnalyzeTrades(context.Background(), "I want a WR1")
	if err != nil {
		t.Fatalf("AnalyzeTrades: %v", err)
	}
	if g.checkedIn != 2500 || g.checkedOut != 1500 {
		t.Errorf("trades estimate = %d/%d, want 2500/1500", g.checkedIn, g.checkedOut)
	}
	if !strings.Contains(m.lastPrompt, "I want a WR1") {
		t.Errorf("notes missing from prompt: %q", m.lastPrompt)
	}
}

func TestRun_ModelErrorPropagates(t *testing.T) {
	g := allowAll()
	m := &fakeModel{err: domain.ErrModelProviderError}
	s := newTestService(g, m)

	_, err := s.OptimizeLineup(context.Background(), 3)
	if !errors.Is(err, domain.ErrModelProviderError) {
		t.Errorf("expected provider error, got %v", err)
	}
	if g.recorded {
		t.Error("failed calls must not be recorded")
	}
}

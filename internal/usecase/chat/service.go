// Package chat orchestrates the assistant conversation: it exposes the
// analysis features to the model as tools, executes requested tool calls via
// the advisor, and keeps bounded per-conversation history in memory.
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sideline-ai/sideline/internal/domain/chat"
	"github.com/sideline-ai/sideline/internal/domain/usage"
	"github.com/sideline-ai/sideline/internal/metrics"
	"github.com/sideline-ai/sideline/internal/usecase/advisor"
)

const (
	feature = "chat"

	// Per-call budget estimate for a conversational turn.
	estInputTokens  = 500
	estOutputTokens = 300

	// maxHistory bounds stored turns per conversation, oldest dropped first.
	maxHistory = 40

	// maxToolRounds bounds tool-call loops per user message.
	maxToolRounds = 3
)

const systemPrompt = "You are a fantasy football assistant for the team owner's dashboard. " +
	"Use the tools to ground every recommendation in the live roster. " +
	"For trade questions always extract the specific player name from the user's request. " +
	"Answer concisely and with concrete start/sit calls."

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

// adviser is the consumer interface for the analysis features.
type adviser interface {
	OptimizeLineup(ctx context.Context, week int) (*advisor.Advice, error)
	ComparePlayers(ctx context.Context, playerA, playerB string) (*advisor.Advice, error)
	AnalyzeWaivers(ctx context.Context, targets []string) (*advisor.Advice, error)
	AnalyzeTrades(ctx context.Context, notes string) (*advisor.Advice, error)
}

// Reply is the assistant's answer to one user message.
type Reply struct {
	ConversationID string   `json:"conversation_id"`
	Content        string   `json:"content"`
	ToolsUsed      []string `json:"tools_used,omitempty"`
	RateLimited    bool     `json:"rate_limited,omitempty"`
}

// Service is the chat orchestrator.
type Service struct {
	guard   budgetGuard
	model   modelClient
	advisor adviser
	logger  *zap.Logger

	mu            sync.Mutex
	conversations map[string][]chat.Message
}

// NewService creates the chat orchestrator.
func NewService(guard budgetGuard, model modelClient, adv adviser, logger *zap.Logger) *Service {
	return &Service{
		guard:         guard,
		model:         model,
		advisor:       adv,
		logger:        logger,
		conversations: make(map[string][]chat.Message),
	}
}

// Send handles one user message. An empty conversationID starts a new
// conversation. When the budget guard denies a model call mid-turn the reply
// is a structured rate-limited message, not an error.
func (s *Service) Send(ctx context.Context, conversationID, message string) (*Reply, error) {
	if conversationID == "" {
		conversationID = uuid.NewString()
	}

	history := s.history(conversationID)
	messages := make([]chat.Message, 0, len(history)+2)
	messages = append(messages, chat.Message{Role: chat.RoleSystem, Content: systemPrompt})
	messages = append(messages, history...)
	userMsg := chat.Message{Role: chat.RoleUser, Content: message}
	messages = append(messages, userMsg)

	var toolsUsed []string
	var final chat.Completion

	for round := 0; ; round++ {
		completion, err := s.completeGuarded(ctx, messages)
		if err != nil {
			var denied *usage.DeniedError
			if errors.As(err, &denied) {
				return s.rateLimitedReply(conversationID, denied), nil
			}
			return nil, err
		}

		if len(completion.ToolCalls) == 0 || round >= maxToolRounds {
			final = completion
			break
		}

		messages = append(messages, chat.Message{
			Role:      chat.RoleAssistant,
			Content:   completion.Content,
			ToolCalls: completion.ToolCalls,
		})
		for _, tc := range completion.ToolCalls {
			toolsUsed = append(toolsUsed, tc.Name)
			result := s.executeTool(ctx, tc)
			messages = append(messages, chat.Message{
				Role:       chat.RoleTool,
				Content:    result,
				ToolCallID: tc.ID,
			})
		}
	}

	s.appendHistory(conversationID, userMsg, chat.Message{Role: chat.RoleAssistant, Content: final.Content})

	return &Reply{
		ConversationID: conversationID,
		Content:        final.Content,
		ToolsUsed:      toolsUsed,
	}, nil
}

// completeGuarded runs one model call through the budget guard.
func (s *Service) completeGuarded(ctx context.Context, messages []chat.Message) (chat.Completion, error) {
	model := s.model.Model()

	decision := s.guard.Check(model, estInputTokens, estOutputTokens)
	metrics.BudgetRemainingDollars.Set(decision.RemainingBudget)
	if !decision.Allowed {
		metrics.GuardDecisionsTotal.WithLabelValues("deny").Inc()
		return chat.Completion{}, usage.NewDenied(decision)
	}
	metrics.GuardDecisionsTotal.WithLabelValues("allow").Inc()

	completion, err := s.model.Complete(ctx, feature, messages, toolDefs)
	if err != nil {
		return chat.Completion{}, err
	}

	if _, err := s.guard.Record(model, completion.Usage.InputTokens, completion.Usage.OutputTokens, time.Time{}); err != nil {
		s.logger.Error("failed to record model usage", zap.String("model", model), zap.Error(err))
	}
	return completion, nil
}

func (s *Service) rateLimitedReply(conversationID string, denied *usage.DeniedError) *Reply {
	d := denied.Decision
	return &Reply{
		ConversationID: conversationID,
		Content: fmt.Sprintf(
			"I can't run that analysis right now: %s ($%.2f of $%.2f used this hour). Try again shortly.",
			d.Reason, d.CurrentUsage, d.HourlyLimit),
		RateLimited: true,
	}
}

// executeTool dispatches one tool call to the advisor. Errors come back as
// tool output so the model can explain them to the user.
func (s *Service) executeTool(ctx context.Context, tc chat.ToolCall) string {
	advice, err := s.dispatch(ctx, tc)
	if err != nil {
		s.logger.Warn("tool execution failed",
			zap.String("tool", tc.Name),
			zap.Error(err),
		)
		return fmt.Sprintf(`{"status":"error","message":%q}`, err.Error())
	}
	return advice.Content
}

func (s *Service) dispatch(ctx context.Context, tc chat.ToolCall) (*advisor.Advice, error) {
	switch tc.Name {
	case "optimize_lineup":
		var args struct {
			Week int `json:"week"`
		}
		_ = json.Unmarshal([]byte(tc.Arguments), &args)
		return s.advisor.OptimizeLineup(ctx, args.Week)

	case "compare_players":
		var args struct {
			Player1 string `json:"player1_name"`
			Player2 string `json:"player2_name"`
		}
		if err := json.Unmarshal([]byte(tc.Arguments), &args); err != nil {
			return nil, fmt.Errorf("parse compare_players arguments: %w", err)
		}
		if args.Player1 == "" || args.Player2 == "" {
			return nil, fmt.Errorf("both player names are required")
		}
		return s.advisor.ComparePlayers(ctx, args.Player1, args.Player2)

	case "analyze_waiver_wire":
		var args struct {
			Targets []string `json:"targets"`
		}
		_ = json.Unmarshal([]byte(tc.Arguments), &args)
		return s.advisor.AnalyzeWaivers(ctx, args.Targets)

	case "analyze_trade_opportunities":
		var args struct {
			TargetPlayer string `json:"target_player"`
		}
		_ = json.Unmarshal([]byte(tc.Arguments), &args)
		return s.advisor.AnalyzeTrades(ctx, args.TargetPlayer)

	default:
		return nil, fmt.Errorf("unknown tool: %s", tc.Name)
	}
}

func (s *Service) history(conversationID string) []chat.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	h := s.conversations[conversationID]
	out := make([]chat.Message, len(h))
	copy(out, h)
	return out
}

func (s *Service) appendHistory(conversationID string, msgs ...chat.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h := append(s.conversations[conversationID], msgs...)
	if len(h) > maxHistory {
		h = h[len(h)-maxHistory:]
	}
	s.conversations[conversationID] = h
}

// toolDefs exposes the advisor features to the model.
var toolDefs = []chat.ToolDef{
	{
		Name:        "optimize_lineup",
		Description: "Analyze the roster and suggest the optimal starting lineup for the week based on projections, matchups and injury status",
		Parameters: json.RawMessage(`{
			"type": "object",
			"properties": {
				"week": {"type": "integer", "description": "Scoring period to optimize for, 0 for the current week"}
			}
		}`),
	},
	{
		Name:        "compare_players",
		Description: "Compare two players and recommend which one to start based on matchups and projections",
		Parameters: json.RawMessage(`{
			"type": "object",
			"properties": {
				"player1_name": {"type": "string", "description": "Name of the first player to compare"},
				"player2_name": {"type": "string", "description": "Name of the second player to compare"}
			},
			"required": ["player1_name", "player2_name"]
		}`),
	},
	{
		Name:        "analyze_waiver_wire",
		Description: "Analyze waiver wire options and recommend the best pickups to improve the team",
		Parameters: json.RawMessage(`{
			"type": "object",
			"properties": {
				"targets": {"type": "array", "items": {"type": "string"}, "description": "Specific free agents the user is considering"}
			}
		}`),
	},
	{
		Name:        "analyze_trade_opportunities",
		Description: "Analyze the roster and suggest beneficial trades with other teams in the league",
		Parameters: json.RawMessage(`{
			"type": "object",
			"properties": {
				"target_player": {"type": "string", "description": "Specific player the user wants to trade, e.g. 'Nick Chubb'"}
			}
		}`),
	},
}

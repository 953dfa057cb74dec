// Package chi is the HTTP transport: routing, request decoding and the
// domain-error to status-code mapping.
package chi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/sideline-ai/sideline/internal/domain"
	domusage "github.com/sideline-ai/sideline/internal/domain/usage"
	"github.com/sideline-ai/sideline/internal/logger"
	advisoruc "github.com/sideline-ai/sideline/internal/usecase/advisor"
	chatuc "github.com/sideline-ai/sideline/internal/usecase/chat"
	healthuc "github.com/sideline-ai/sideline/internal/usecase/health"
	leagueuc "github.com/sideline-ai/sideline/internal/usecase/league"
	usageuc "github.com/sideline-ai/sideline/internal/usecase/usage"
)

// Error response codes.
const (
	codeBadRequest          = "bad_request"
	codeValidationFailed    = "validation_failed"
	codeBudgetExceeded      = "budget_exceeded"
	codeUnknownModel        = "unknown_model"
	codeModelProviderError  = "model_provider_error"
	codeLeagueNotConfigured = "league_not_configured"
	codeTeamNotFound        = "team_not_found"
	codePlayerNotFound      = "player_not_found"
	codeInternalError       = "internal_error"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server holds the API handlers.
type Server struct {
	league        *leagueuc.Service
	advisor       *advisoruc.Service
	chat          *chatuc.Service
	usage         *usageuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	league *leagueuc.Service,
	advisor *advisoruc.Service,
	chat *chatuc.Service,
	usage *usageuc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		league:  league,
		advisor: advisor,
		chat:    chat,
		usage:   usage,
		health:  health,
		logger:  logger,
	}
	s.errorHandlers = []errorHandler{
		budgetExceededHandler,
		sentinelHandler(domain.ErrUnknownModel, http.StatusBadRequest, codeUnknownModel),
		sentinelHandler(domain.ErrModelProviderError, http.StatusBadGateway, codeModelProviderError),
		sentinelHandler(domain.ErrLeagueNotConfigured, http.StatusServiceUnavailable, codeLeagueNotConfigured),
		sentinelHandler(domain.ErrTeamNotFound, http.StatusNotFound, codeTeamNotFound),
		sentinelHandler(domain.ErrPlayerNotFound, http.StatusNotFound, codePlayerNotFound),
	}
	return s
}

// RegisterRoutes mounts all routes on the router.
func (s *Server) RegisterRoutes(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/roster", s.GetRoster)
		r.Get("/matchup", s.GetMatchup)
		r.Get("/usage", s.GetUsage)
		r.Post("/chat", s.PostChat)
		r.Route("/advice", func(r chi.Router) {
			r.Post("/lineup", s.AdviceLineup)
			r.Post("/compare", s.AdviceCompare)
			r.Post("/waivers", s.AdviceWaivers)
			r.Post("/trades", s.AdviceTrades)
		})
	})
}

// GetRoster handles GET /api/v1/roster.
func (s *Server) GetRoster(w http.ResponseWriter, r *http.Request) {
	week, ok := weekParam(w, r)
	if !ok {
		return
	}

	roster, err := s.league.Roster(r.Context(), week)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, roster)
}

// GetMatchup handles GET /api/v1/matchup.
func (s *Server) GetMatchup(w http.ResponseWriter, r *http.Request) {
	week, ok := weekParam(w, r)
	if !ok {
		return
	}

	matchup, err := s.league.Matchup(r.Context(), week)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, matchup)
}

// GetUsage handles GET /api/v1/usage.
func (s *Server) GetUsage(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.usage.GetReport(r.Context()))
}

// PostChat handles POST /api/v1/chat.
func (s *Server) PostChat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ConversationID string `json:"conversation_id"`
		Message        string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "message is required")
		return
	}

	reply, err := s.chat.Send(r.Context(), req.ConversationID, req.Message)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, reply)
}

// AdviceLineup handles POST /api/v1/advice/lineup.
func (s *Server) AdviceLineup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Week int `json:"week"`
	}
	if err := decodeOptionalBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	advice, err := s.advisor.OptimizeLineup(r.Context(), req.Week)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, advice)
}

// AdviceCompare handles POST /api/v1/advice/compare.
func (s *Server) AdviceCompare(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Player1 string `json:"player1_name"`
		Player2 string `json:"player2_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Player1 == "" || req.Player2 == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "player1_name and player2_name are required")
		return
	}

	advice, err := s.advisor.ComparePlayers(r.Context(), req.Player1, req.Player2)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, advice)
}

// AdviceWaivers handles POST /api/v1/advice/waivers.
func (s *Server) AdviceWaivers(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Targets []string `json:"targets"`
	}
	if err := decodeOptionalBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	advice, err := s.advisor.AnalyzeWaivers(r.Context(), req.Targets)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, advice)
}

// AdviceTrades handles POST /api/v1/advice/trades.
func (s *Server) AdviceTrades(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Notes string `json:"notes"`
	}
	if err := decodeOptionalBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	advice, err := s.advisor.AnalyzeTrades(r.Context(), req.Notes)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, advice)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, map[string]any{
		"status": report.Status,
		"checks": report.Checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// weekParam parses the optional ?week= query parameter. 0 means current.
func weekParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("week")
	if raw == "" {
		return 0, true
	}
	week, err := strconv.Atoi(raw)
	if err != nil || week < 0 {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "week must be a non-negative integer")
		return 0, false
	}
	return week, true
}

// decodeOptionalBody decodes a JSON body. An empty body keeps the defaults.
func decodeOptionalBody(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{
		"code":    code,
		"message": message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrUnknownModel,
		domain.ErrBudgetExceeded,
		domain.ErrModelProviderError,
		domain.ErrLeagueNotConfigured,
		domain.ErrTeamNotFound,
		domain.ErrPlayerNotFound,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// budgetExceededHandler handles guard denials with 429 and the full decision
// payload so clients can show the usage numbers.
func budgetExceededHandler(w http.ResponseWriter, err error, msg string) bool {
	if !errors.Is(err, domain.ErrBudgetExceeded) {
		return false
	}
	var denied *domusage.DeniedError
	if errors.As(err, &denied) {
		writeJSON(w, http.StatusTooManyRequests, map[string]any{
			"code":     codeBudgetExceeded,
			"message":  msg,
			"decision": denied.Decision,
		})
		return true
	}
	writeError(w, http.StatusTooManyRequests, codeBudgetExceeded, msg)
	return true
}

// handleDomainError maps a domain error to an HTTP response, logging through
// the request-scoped logger so entries carry the request_id.
func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context(), s.logger)
	log.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}

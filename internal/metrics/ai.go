package metrics

import "github.com/prometheus/client_golang/prometheus"

// AI advisor Prometheus metrics.
var (
	ChatRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sideline",
			Name:      "ai_requests_total",
			Help:      "Total number of AI model requests",
		},
		[]string{"feature", "model", "status"},
	)

	ModelRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "sideline",
			Name:      "ai_request_duration_seconds",
			Help:      "AI model request duration in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"feature", "model"},
	)

	ModelTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sideline",
			Name:      "ai_tokens_total",
			Help:      "Total AI tokens consumed",
		},
		[]string{"model", "type"}, // type: "input" / "output"
	)

	GuardDecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sideline",
			Name:      "ai_guard_decisions_total",
			Help:      "Budget guard admission decisions",
		},
		[]string{"decision"}, // "allow" / "deny"
	)

	BudgetRemainingDollars = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "sideline",
			Name:      "ai_budget_remaining_dollars",
			Help:      "Remaining hourly AI budget in dollars",
		},
	)
)

var aiMetricsRegistered bool

// RegisterAIMetrics registers Prometheus AI metrics. Must be called once from main.
func RegisterAIMetrics() {
	if aiMetricsRegistered {
		return
	}
	prometheus.MustRegister(ChatRequestsTotal)
	prometheus.MustRegister(ModelRequestDuration)
	prometheus.MustRegister(ModelTokensTotal)
	prometheus.MustRegister(GuardDecisionsTotal)
	prometheus.MustRegister(BudgetRemainingDollars)
	aiMetricsRegistered = true
}

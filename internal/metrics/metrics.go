// Package metrics exposes the Prometheus instruments shared across the
// reconciliation pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/fx"
)

var Module = fx.Module("metrics",
	fx.Provide(NewDefault),
)

type Metrics struct {
	EvaluationsTotal      *prometheus.CounterVec
	EvaluationDuration    prometheus.Histogram
	UnknownEffectsTotal   prometheus.Counter
	AdjustmentsTotal      *prometheus.CounterVec
	StaleSessionRetries   prometheus.Counter
	FreeItemsUnavailable  prometheus.Counter
	CouponRejectionsTotal *prometheus.CounterVec
}

// NewDefault registers on the process-wide registry served at /metrics.
func NewDefault() *Metrics {
	return New(prometheus.DefaultRegisterer)
}

// New registers every instrument on reg. Tests pass their own registry so
// repeated construction does not collide.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		EvaluationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "promosync",
			Name:      "evaluations_total",
			Help:      "Engine evaluations by outcome.",
		}, []string{"outcome"}),
		EvaluationDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "promosync",
			Name:      "evaluation_duration_seconds",
			Help:      "End to end duration of one engine evaluation and reconciliation pass.",
			Buckets:   prometheus.DefBuckets,
		}),
		UnknownEffectsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "promosync",
			Name:      "unknown_effects_total",
			Help:      "Effects skipped because their type is not recognized.",
		}),
		AdjustmentsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "promosync",
			Name:      "adjustments_total",
			Help:      "Price adjustment mutations by scope and action.",
		}, []string{"scope", "action"}),
		StaleSessionRetries: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "promosync",
			Name:      "stale_session_retries_total",
			Help:      "Evaluations retried under a fresh engine session.",
		}),
		FreeItemsUnavailable: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "promosync",
			Name:      "free_items_unavailable_total",
			Help:      "Granted free items skipped because the product is missing or not orderable.",
		}),
		CouponRejectionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "promosync",
			Name:      "coupon_rejections_total",
			Help:      "Coupon rejections by engine reason code.",
		}, []string{"reason"}),
	}
}

// Package observability turns executor lifecycle events into Prometheus
// metrics and structured log lines.
package observability

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aretw0/blockloom/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the collectors fed by the lifecycle hooks.
type Metrics struct {
	Plans        prometheus.Counter
	PlannedCalls prometheus.Histogram
	Calls        *prometheus.CounterVec
	Units        prometheus.Counter
	CallDuration prometheus.Histogram
	Lists        *prometheus.CounterVec
	Retries      *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg skips registration.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Plans: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "blockloom_plans_total",
			Help: "Total number of plans built",
		}),
		PlannedCalls: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "blockloom_plan_calls",
			Help:    "Remote calls per plan",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		}),
		Calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "blockloom_append_calls_total",
			Help: "Append calls by outcome",
		}, []string{"outcome"}),
		Units: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "blockloom_units_created_total",
			Help: "Top-level units created by append calls",
		}),
		CallDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name: "blockloom_append_duration_seconds",
			Help: "Duration of append calls, retries included",
		}),
		Lists: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "blockloom_list_pages_total",
			Help: "Children listing pages by outcome",
		}, []string{"outcome"}),
		Retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "blockloom_retries_total",
			Help: "Transient failures retried, by operation",
		}, []string{"op"}),
	}
	if reg == nil {
		return m, nil
	}
	for _, c := range []prometheus.Collector{m.Plans, m.PlannedCalls, m.Calls, m.Units, m.CallDuration, m.Lists, m.Retries} {
		if err := reg.Register(c); err != nil {
			var already prometheus.AlreadyRegisteredError
			if !errors.As(err, &already) {
				return nil, err
			}
		}
	}
	return m, nil
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// Hooks returns lifecycle hooks recording into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnPlanBuilt: func(_ context.Context, e *domain.PlanEvent) {
			m.Plans.Inc()
			m.PlannedCalls.Observe(float64(e.Calls))
		},
		OnCallDone: func(_ context.Context, e *domain.CallEvent) {
			m.Calls.WithLabelValues(outcome(e.Err)).Inc()
			m.CallDuration.Observe(e.Duration.Seconds())
			if e.Err == nil {
				m.Units.Add(float64(len(e.Created)))
			}
		},
		OnList: func(_ context.Context, e *domain.ListEvent) {
			m.Lists.WithLabelValues(outcome(e.Err)).Inc()
		},
		OnRetry: func(_ context.Context, e *domain.RetryEvent) {
			m.Retries.WithLabelValues(e.Op).Inc()
		},
	}
}

// LoggingHooks logs every lifecycle event at debug level, failures at warn.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnPlanBuilt: func(ctx context.Context, e *domain.PlanEvent) {
			logger.DebugContext(ctx, "plan_built", "calls", e.Calls, "nodes", e.Nodes)
		},
		OnCallStart: func(ctx context.Context, e *domain.CallEvent) {
			logger.DebugContext(ctx, "call_start", "entry", e.Entry, "path", e.Path.String(), "parent", e.ParentID, "units", e.Units)
		},
		OnCallDone: func(ctx context.Context, e *domain.CallEvent) {
			if e.Err != nil {
				logger.WarnContext(ctx, "call_failed", "entry", e.Entry, "parent", e.ParentID, "err", e.Err)
				return
			}
			logger.DebugContext(ctx, "call_done", "entry", e.Entry, "created", len(e.Created), "duration", e.Duration)
		},
		OnList: func(ctx context.Context, e *domain.ListEvent) {
			logger.DebugContext(ctx, "list_children", "parent", e.ParentID, "children", e.Children, "err", e.Err)
		},
		OnRetry: func(ctx context.Context, e *domain.RetryEvent) {
			logger.WarnContext(ctx, "retry", "op", e.Op, "attempt", e.Attempt, "delay", e.Delay, "err", e.Err)
		},
	}
}

// Combine fans every event out to each set of hooks in order.
func Combine(all ...domain.LifecycleHooks) domain.LifecycleHooks {
	var out domain.LifecycleHooks
	for _, h := range all {
		out.OnPlanBuilt = chain(out.OnPlanBuilt, h.OnPlanBuilt)
		out.OnCallStart = chain(out.OnCallStart, h.OnCallStart)
		out.OnCallDone = chain(out.OnCallDone, h.OnCallDone)
		out.OnList = chain(out.OnList, h.OnList)
		out.OnRetry = chain(out.OnRetry, h.OnRetry)
	}
	return out
}

func chain[E any](a, b func(context.Context, *E)) func(context.Context, *E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e *E) {
		a(ctx, e)
		b(ctx, e)
	}
}

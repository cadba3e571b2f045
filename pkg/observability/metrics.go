package observability

import (
	"context"
	"sync/atomic"

	"github.com/aretw0/chatter/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records conversation activity.
type Metrics struct {
	interactions     *prometheus.CounterVec
	chatsStarted     prometheus.Counter
	formEscalations  prometheus.Counter
	failures         *prometheus.CounterVec
	submissions      *prometheus.CounterVec
	resolveDurations *prometheus.HistogramVec

	// Tallies behind Summary.
	chats     atomic.Int64
	faqs      atomic.Int64
	redirects atomic.Int64
}

// NewMetrics creates and registers the collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		interactions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chatter_interactions_total",
				Help: "Total number of resolved interactions by kind",
			},
			[]string{"kind"},
		),
		chatsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chatter_chats_started_total",
			Help: "Total number of welcome node requests",
		}),
		formEscalations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chatter_form_escalations_total",
			Help: "Total number of conversations escalated to the lead form",
		}),
		failures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chatter_resolution_failures_total",
				Help: "Total number of failed resolutions by kind",
			},
			[]string{"kind"},
		),
		submissions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chatter_submissions_total",
				Help: "Total number of lead submissions by result",
			},
			[]string{"result"},
		),
		resolveDurations: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "chatter_resolve_duration_seconds",
				Help:    "Duration of resolutions",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"kind"},
		),
	}
	reg.MustRegister(
		m.interactions,
		m.chatsStarted,
		m.formEscalations,
		m.failures,
		m.submissions,
		m.resolveDurations,
	)
	return m
}

// Hooks returns lifecycle hooks feeding the metrics.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnResolve: func(_ context.Context, e *domain.ResolveEvent) {
			kind := string(e.Kind)
			m.interactions.WithLabelValues(kind).Inc()
			m.resolveDurations.WithLabelValues(kind).Observe(e.Duration.Seconds())

			switch {
			case e.Kind == domain.KindRule && e.Payload == domain.WelcomeNodeID:
				m.chatsStarted.Inc()
				m.chats.Add(1)
			case e.Kind == domain.KindText:
				m.faqs.Add(1)
			}

			switch e.Outcome {
			case domain.OutcomeForm:
				m.formEscalations.Inc()
				m.redirects.Add(1)
			case domain.OutcomeFailure:
				m.failures.WithLabelValues(kind).Inc()
			}
		},
		OnSubmission: func(_ context.Context, e *domain.SubmissionEvent) {
			result := "ok"
			if !e.Success {
				result = "error"
			}
			m.submissions.WithLabelValues(result).Inc()
		},
	}
}

// Package metrics exposes pipeline counters and timings through a
// Prometheus registry owned by the caller.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "parley"

// Pipeline holds the metrics recorded by the orchestrator.
// A nil *Pipeline is valid and records nothing.
type Pipeline struct {
	interactions   prometheus.Counter
	errors         prometheus.Counter
	clarifications prometheus.Counter
	steps          *prometheus.CounterVec
	categories     *prometheus.CounterVec
	duration       prometheus.Histogram
}

// New creates the pipeline metrics and registers them with reg. A nil
// registry leaves them unregistered.
func New(reg prometheus.Registerer) *Pipeline {
	p := &Pipeline{
		interactions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "interactions_total",
			Help:      "Turns processed by the orchestrator.",
		}),
		errors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "Turns that ended in an error.",
		}),
		clarifications: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "clarifications_total",
			Help:      "Turns that asked the user a clarifying question.",
		}),
		steps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "steps_total",
			Help:      "Pipeline steps run, by step.",
		}, []string{"step"}),
		categories: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "intents_total",
			Help:      "Classified intents, by category.",
		}, []string{"category"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "processing_seconds",
			Help:      "Time spent processing one turn.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
	}
	if reg != nil {
		reg.MustRegister(p.interactions, p.errors, p.clarifications, p.steps, p.categories, p.duration)
	}
	return p
}

// Interaction records one processed turn and how long it took.
func (p *Pipeline) Interaction(d time.Duration) {
	if p == nil {
		return
	}
	p.interactions.Inc()
	p.duration.Observe(d.Seconds())
}

// Error records a failed turn.
func (p *Pipeline) Error() {
	if p == nil {
		return
	}
	p.errors.Inc()
}

// Clarification records a turn that asked a question.
func (p *Pipeline) Clarification() {
	if p == nil {
		return
	}
	p.clarifications.Inc()
}

// Step records one step run.
func (p *Pipeline) Step(step string) {
	if p == nil {
		return
	}
	p.steps.WithLabelValues(step).Inc()
}

// Category records one classified intent.
func (p *Pipeline) Category(category string) {
	if p == nil {
		return
	}
	p.categories.WithLabelValues(category).Inc()
}

// Package metrics exposes Prometheus gauges/counters for the supervisor
// loop's lifecycle events and recorded token usage, adapted from the
// teacher's ent/schema/sessionscore.go + pkg/events publish-on-transition
// idiom: every state change the supervisor already publishes is also
// counted here via the same EventPublisher interface.
package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	tasksDispatched = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "conductor_tasks_dispatched_total",
		Help: "Total number of tasks dispatched to an agent, by outcome event.",
	}, []string{"event"})

	blockersRaised = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "conductor_blockers_raised_total",
		Help: "Total number of blockers raised by the supervisor loop.",
	})

	tokenUsage = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "conductor_llm_tokens_total",
		Help: "Total LLM tokens consumed, by direction (input/output).",
	}, []string{"direction"})
)

func init() {
	prometheus.MustRegister(tasksDispatched, blockersRaised, tokenUsage)
}

// Publisher implements supervisor.EventPublisher by incrementing the
// corresponding Prometheus counters; it never blocks and never errors,
// matching the teacher's fire-and-forget event publishing.
type Publisher struct{}

// NewPublisher returns a ready-to-use Publisher. There is no per-instance
// state: metrics are process-global Prometheus collectors.
func NewPublisher() *Publisher {
	return &Publisher{}
}

// Publish counts event by its name and also counts "blocker.raised" events
// as raised blockers. taskNumber and detail are not used; they are accepted
// to satisfy supervisor.EventPublisher uniformly.
func (p *Publisher) Publish(ctx context.Context, taskNumber, event string, detail map[string]any) {
	tasksDispatched.WithLabelValues(event).Inc()
	if event == "blocker.raised" {
		blockersRaised.Inc()
	}
}

// RecordTokenUsage increments the token counters for a single LLM call.
func RecordTokenUsage(inputTokens, outputTokens int) {
	tokenUsage.WithLabelValues("input").Add(float64(inputTokens))
	tokenUsage.WithLabelValues("output").Add(float64(outputTokens))
}

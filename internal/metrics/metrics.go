// Package metrics exposes the node's Prometheus instrumentation.
package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/alanyoungcy/chainbook/internal/domain"
)

var (
	// TransactionsTotal counts submitted transactions by outcome.
	TransactionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chainbook_transactions_total",
		Help: "Transactions submitted to the node, labelled by outcome.",
	}, []string{"status"})

	// EventsTotal counts applied events by type.
	EventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chainbook_applied_events_total",
		Help: "Deterministic applied events, labelled by event type.",
	}, []string{"type"})

	// MatchedStake accumulates the stake settled into positions.
	MatchedStake = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chainbook_matched_stake_total",
		Help: "Combined stake moved into matched positions.",
	})
)

// Handler returns the /metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// EventCounter is a service.EventSink that feeds the event counters.
type EventCounter struct{}

// Name implements service.EventSink.
func (EventCounter) Name() string { return "metrics" }

// HandleEvents implements service.EventSink.
func (EventCounter) HandleEvents(ctx context.Context, events []domain.Event) error {
	for _, ev := range events {
		EventsTotal.WithLabelValues(string(ev.Type)).Inc()
		if ev.Type == domain.EventBetMatched {
			MatchedStake.Add(float64(ev.Amount.Amount))
		}
	}
	return nil
}

package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/alanyoungcy/chainbook/internal/domain"
)

// BookCache is the slice of the cache layer the book mirror needs.
type BookCache interface {
	SetSnapshot(ctx context.Context, snap domain.BookSnapshot) error
	Invalidate(ctx context.Context, marketID domain.ObjectID) error
}

// BookMirror keeps cached order-book snapshots in step with applied events.
// After any event that can move a market's book it re-projects the book and
// writes it through; settled markets are invalidated instead.
type BookMirror struct {
	node  *NodeService
	cache BookCache
}

// NewBookMirror creates a BookMirror over the node's query surface.
func NewBookMirror(node *NodeService, cache BookCache) *BookMirror {
	return &BookMirror{node: node, cache: cache}
}

// Name implements EventSink.
func (m *BookMirror) Name() string { return "book_mirror" }

// HandleEvents implements EventSink.
func (m *BookMirror) HandleEvents(ctx context.Context, events []domain.Event) error {
	touched := make(map[domain.ObjectID]bool)
	var firstErr error

	for _, ev := range events {
		switch ev.Type {
		case domain.EventBetPlaced, domain.EventBetMatched, domain.EventBetCanceled, domain.EventBetsFlushed:
			touched[ev.Market] = true
		case domain.EventMarketSettled:
			delete(touched, ev.Subject)
			if err := m.cache.Invalidate(ctx, ev.Subject); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}

	for marketID := range touched {
		snap, err := m.node.BookOf(ctx, marketID)
		if err != nil {
			// The market was settled later in the same batch.
			if err := m.cache.Invalidate(ctx, marketID); err != nil && firstErr == nil {
				firstErr = err
			}
			continue
		}
		if err := m.cache.SetSnapshot(ctx, snap); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Bus is the slice of the signal bus the publisher needs.
type Bus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// BusPublisher forwards applied events onto the signal bus, one JSON
// payload per event, on "chain:events" plus a per-type channel.
type BusPublisher struct {
	bus    Bus
	logger *slog.Logger
}

// NewBusPublisher creates a BusPublisher.
func NewBusPublisher(bus Bus, logger *slog.Logger) *BusPublisher {
	return &BusPublisher{
		bus:    bus,
		logger: logger.With(slog.String("component", "bus_publisher")),
	}
}

// Name implements EventSink.
func (p *BusPublisher) Name() string { return "bus_publisher" }

// HandleEvents implements EventSink.
func (p *BusPublisher) HandleEvents(ctx context.Context, events []domain.Event) error {
	for _, ev := range events {
		payload, err := json.Marshal(ev)
		if err != nil {
			return fmt.Errorf("service: encode event %s: %w", ev.Type, err)
		}
		if err := p.bus.Publish(ctx, "chain:events", payload); err != nil {
			return err
		}
		if err := p.bus.Publish(ctx, "chain:events:"+string(ev.Type), payload); err != nil {
			return err
		}
	}
	return nil
}

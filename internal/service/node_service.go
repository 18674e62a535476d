// Package service mediates between the deterministic core and the node's
// operational surfaces. NodeService is the single writer to the chain state;
// every applied event fans out to the registered sinks (read-model store,
// book cache, signal bus, notifier, metrics).
package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/alanyoungcy/chainbook/internal/chain"
	"github.com/alanyoungcy/chainbook/internal/domain"
)

// EventSink consumes applied events outside the deterministic boundary.
// Sinks must tolerate replays and must not block for long; failures are
// logged, never propagated back into consensus.
type EventSink interface {
	HandleEvents(ctx context.Context, events []domain.Event) error
	Name() string
}

// SubmitResult reports a successfully applied transaction.
type SubmitResult struct {
	// IngestID is the node-local id assigned at submission. It never enters
	// the deterministic state.
	IngestID   string            `json:"ingest_id"`
	CreatedIDs []domain.ObjectID `json:"created_ids"`
}

// NodeService owns the chain state. All access is serialized through its
// mutex; the core itself is single-threaded by design.
type NodeService struct {
	mu     sync.Mutex
	state  *chain.State
	sinks  []EventSink
	logger *slog.Logger
}

// NewNodeService wraps a fully seeded state.
func NewNodeService(state *chain.State, logger *slog.Logger) *NodeService {
	return &NodeService{
		state:  state,
		logger: logger.With(slog.String("component", "node_service")),
	}
}

// AddSink registers an event sink. Not safe to call once the node is
// serving.
func (s *NodeService) AddSink(sink EventSink) {
	s.sinks = append(s.sinks, sink)
}

// SubmitTransaction applies one transaction and fans its events out. The
// returned error is the core's validation error, suitable for surfacing to
// the submitting client.
func (s *NodeService) SubmitTransaction(ctx context.Context, tx *domain.Transaction) (SubmitResult, error) {
	ingestID := uuid.NewString()

	s.mu.Lock()
	receipt, err := s.state.ApplyTransaction(tx)
	s.mu.Unlock()

	if err != nil {
		s.logger.InfoContext(ctx, "transaction rejected",
			slog.String("ingest_id", ingestID),
			slog.Int("operations", len(tx.Operations)),
			slog.String("error", err.Error()),
		)
		return SubmitResult{IngestID: ingestID}, err
	}

	s.logger.InfoContext(ctx, "transaction applied",
		slog.String("ingest_id", ingestID),
		slog.Int("operations", len(tx.Operations)),
		slog.Int("events", len(receipt.Events)),
	)

	s.dispatch(ctx, receipt.Events)
	return SubmitResult{IngestID: ingestID, CreatedIDs: receipt.CreatedIDs}, nil
}

// AdvanceBlock moves the head block time to now, flushing any expired
// delayed bets, and fans out the resulting events. The block driver calls
// this once per block interval.
func (s *NodeService) AdvanceBlock(ctx context.Context, now time.Time) {
	s.mu.Lock()
	if now.Before(s.state.HeadTime()) {
		s.mu.Unlock()
		return
	}
	events := s.state.AdvanceTime(now)
	s.mu.Unlock()

	if len(events) > 0 {
		s.logger.InfoContext(ctx, "delayed bets flushed",
			slog.Time("block_time", now),
			slog.Int("events", len(events)),
		)
	}
	s.dispatch(ctx, events)
}

// dispatch forwards events to every sink, logging and swallowing failures.
func (s *NodeService) dispatch(ctx context.Context, events []domain.Event) {
	if len(events) == 0 {
		return
	}
	for _, sink := range s.sinks {
		if err := sink.HandleEvents(ctx, events); err != nil {
			s.logger.WarnContext(ctx, "event sink failed",
				slog.String("sink", sink.Name()),
				slog.String("error", err.Error()),
			)
		}
	}
}

// ---------------------------------------------------------------------------
// Queries. Each takes the lock briefly and returns detached copies.
// ---------------------------------------------------------------------------

// Groups lists every live group.
func (s *NodeService) Groups(ctx context.Context) []*domain.BettingMarketGroup {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Groups()
}

// Group fetches one group.
func (s *NodeService) Group(ctx context.Context, id domain.ObjectID) (*domain.BettingMarketGroup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	group, ok := s.state.Group(id)
	if !ok {
		return nil, domain.ErrNotFound
	}
	return group, nil
}

// MarketsOf lists the live markets of a group.
func (s *NodeService) MarketsOf(ctx context.Context, groupID domain.ObjectID) []*domain.BettingMarket {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.MarketsOf(groupID)
}

// Market fetches one market.
func (s *NodeService) Market(ctx context.Context, id domain.ObjectID) (*domain.BettingMarket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	market, ok := s.state.Market(id)
	if !ok {
		return nil, domain.ErrNotFound
	}
	return market, nil
}

// BookOf projects one market's active order book.
func (s *NodeService) BookOf(ctx context.Context, marketID domain.ObjectID) (domain.BookSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.state.Market(marketID); !ok {
		return domain.BookSnapshot{}, domain.ErrNotFound
	}
	return s.state.BookOf(marketID), nil
}

// OpenBetsOf lists a market's open bets, delayed included.
func (s *NodeService) OpenBetsOf(ctx context.Context, marketID domain.ObjectID) []*domain.Bet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.OpenBetsOf(marketID)
}

// PositionsOf lists a market's matched positions.
func (s *NodeService) PositionsOf(ctx context.Context, marketID domain.ObjectID) []*domain.Position {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.PositionsOf(marketID)
}

// Balance reads one account balance.
func (s *NodeService) Balance(ctx context.Context, account, asset domain.ObjectID) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Ledger().GetBalance(account, asset)
}

// HeadTime reports the current head block time.
func (s *NodeService) HeadTime(ctx context.Context) time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.HeadTime()
}

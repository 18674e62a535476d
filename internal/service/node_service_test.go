package service

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/chainbook/internal/chain"
	"github.com/alanyoungcy/chainbook/internal/domain"
)

// captureSink records every event batch it receives.
type captureSink struct {
	batches [][]domain.Event
	fail    bool
}

func (s *captureSink) Name() string { return "capture" }

func (s *captureSink) HandleEvents(ctx context.Context, events []domain.Event) error {
	s.batches = append(s.batches, events)
	if s.fail {
		return context.DeadlineExceeded
	}
	return nil
}

func newTestNode(t *testing.T) (*NodeService, domain.ObjectID, domain.ObjectID) {
	t.Helper()

	state := chain.NewState(domain.DefaultParameters(), time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	alice := state.RegisterAccount("alice")
	asset := state.RegisterAsset("BOOK", 4)
	state.RegisterEvent("test event")
	state.Fund(alice, domain.AssetAmount{AssetID: asset, Amount: 10_000})

	return NewNodeService(state, slog.Default()), alice, asset
}

func TestSubmitTransactionFansOutEvents(t *testing.T) {
	node, alice, asset := newTestNode(t)

	sink := &captureSink{}
	broken := &captureSink{fail: true}
	node.AddSink(broken)
	node.AddSink(sink)

	bob := func() domain.ObjectID {
		node.mu.Lock()
		defer node.mu.Unlock()
		return node.state.RegisterAccount("bob")
	}()

	result, err := node.SubmitTransaction(context.Background(), &domain.Transaction{
		Operations: []domain.Operation{
			&domain.TransferOp{From: alice, To: bob, Amount: domain.AssetAmount{AssetID: asset, Amount: 100}},
		},
	})
	require.NoError(t, err)
	require.NotEmpty(t, result.IngestID)

	// A failing sink must not starve the ones behind it.
	require.Len(t, broken.batches, 1)
	require.Len(t, sink.batches, 1)
	require.Equal(t, domain.EventTransferDone, sink.batches[0][0].Type)

	require.Equal(t, int64(100), node.Balance(context.Background(), bob, asset))
}

func TestSubmitTransactionRejectionReachesCaller(t *testing.T) {
	node, alice, asset := newTestNode(t)

	sink := &captureSink{}
	node.AddSink(sink)

	_, err := node.SubmitTransaction(context.Background(), &domain.Transaction{
		Operations: []domain.Operation{
			&domain.TransferOp{From: alice, To: alice, Amount: domain.AssetAmount{AssetID: asset, Amount: -5}},
		},
	})
	require.ErrorIs(t, err, domain.ErrInvalidOperation)
	require.Empty(t, sink.batches, "rejected transactions emit nothing")
}

func TestAdvanceBlockIgnoresClockSkew(t *testing.T) {
	node, _, _ := newTestNode(t)

	head := node.HeadTime(context.Background())
	node.AdvanceBlock(context.Background(), head.Add(-time.Second))
	require.Equal(t, head, node.HeadTime(context.Background()), "backwards clock ticks are dropped")

	node.AdvanceBlock(context.Background(), head.Add(3*time.Second))
	require.Equal(t, head.Add(3*time.Second), node.HeadTime(context.Background()))
}

package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/chainbook/internal/domain"
)

// Settlement is one settled payout row.
type Settlement struct {
	ID        int64     `json:"id"`
	MarketID  string    `json:"market_id"`
	Account   string    `json:"account"`
	Asset     string    `json:"asset"`
	Amount    int64     `json:"amount"`
	Label     string    `json:"label"`
	BlockTime time.Time `json:"block_time"`
}

// SettlementStore records resolution payouts. It implements
// service.EventSink by filtering market_settled events out of the applied
// stream.
type SettlementStore struct {
	pool *pgxpool.Pool
}

// NewSettlementStore creates a SettlementStore backed by the given pool.
func NewSettlementStore(pool *pgxpool.Pool) *SettlementStore {
	return &SettlementStore{pool: pool}
}

// Name implements service.EventSink.
func (s *SettlementStore) Name() string { return "postgres_settlements" }

// HandleEvents records every market_settled event.
func (s *SettlementStore) HandleEvents(ctx context.Context, events []domain.Event) error {
	const query = `
		INSERT INTO settlements (market_id, account, asset, amount, label, block_time)
		VALUES ($1, $2, $3, $4, $5, $6)`

	for _, ev := range events {
		if ev.Type != domain.EventMarketSettled {
			continue
		}
		_, err := s.pool.Exec(ctx, query,
			ev.Subject.String(),
			ev.Account.String(),
			ev.Amount.AssetID.String(),
			ev.Amount.Amount,
			string(ev.Label),
			ev.BlockTime,
		)
		if err != nil {
			return fmt.Errorf("postgres: insert settlement for %s: %w", ev.Subject, err)
		}
	}
	return nil
}

// ListBefore returns all settlements with a block time strictly before the
// cutoff. The settlement archiver uses this to page old rows out to blob
// storage.
func (s *SettlementStore) ListBefore(ctx context.Context, before time.Time) ([]Settlement, error) {
	const query = `
		SELECT id, market_id, account, asset, amount, label, block_time
		FROM settlements
		WHERE block_time < $1
		ORDER BY id`

	rows, err := s.pool.Query(ctx, query, before)
	if err != nil {
		return nil, fmt.Errorf("postgres: list settlements before %s: %w", before, err)
	}
	defer rows.Close()

	var out []Settlement
	for rows.Next() {
		var row Settlement
		if err := rows.Scan(&row.ID, &row.MarketID, &row.Account, &row.Asset,
			&row.Amount, &row.Label, &row.BlockTime); err != nil {
			return nil, fmt.Errorf("postgres: scan settlement row: %w", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list settlements before %s: %w", before, err)
	}
	return out, nil
}

// DeleteBefore removes settlements older than the cutoff. Called only after
// the archive upload has been verified.
func (s *SettlementStore) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM settlements WHERE block_time < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("postgres: delete settlements before %s: %w", before, err)
	}
	return tag.RowsAffected(), nil
}

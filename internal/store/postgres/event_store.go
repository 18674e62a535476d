package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/chainbook/internal/domain"
)

// EventStore appends applied events into the read model. It implements
// service.EventSink.
type EventStore struct {
	pool *pgxpool.Pool
}

// NewEventStore creates an EventStore backed by the given connection pool.
func NewEventStore(pool *pgxpool.Pool) *EventStore {
	return &EventStore{pool: pool}
}

// Name implements service.EventSink.
func (s *EventStore) Name() string { return "postgres_events" }

// HandleEvents batch-inserts the applied events.
func (s *EventStore) HandleEvents(ctx context.Context, events []domain.Event) error {
	if len(events) == 0 {
		return nil
	}

	const query = `
		INSERT INTO applied_events (
			event_type, subject, account, asset, amount,
			counterparty, price, label, block_time
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	batch := &pgx.Batch{}
	for _, ev := range events {
		batch.Queue(query,
			string(ev.Type),
			ev.Subject.String(),
			nullID(ev.Account),
			nullID(ev.Amount.AssetID),
			ev.Amount.Amount,
			nullID(ev.Counterparty),
			ev.Price,
			string(ev.Label),
			ev.BlockTime,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := range events {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("postgres: insert event %d: %w", i, err)
		}
	}
	return nil
}

// EventRow is one applied-event record as read back from the store.
type EventRow struct {
	ID        int64
	Type      string
	Subject   string
	Account   string
	Amount    int64
	BlockTime time.Time
}

// ListBySubject returns the recorded events concerning one object, newest
// first.
func (s *EventStore) ListBySubject(ctx context.Context, subject domain.ObjectID, limit int) ([]EventRow, error) {
	if limit <= 0 {
		limit = 100
	}

	const query = `
		SELECT id, event_type, subject, COALESCE(account, ''), COALESCE(amount, 0), block_time
		FROM applied_events
		WHERE subject = $1
		ORDER BY id DESC
		LIMIT $2`

	rows, err := s.pool.Query(ctx, query, subject.String(), limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: list events for %s: %w", subject, err)
	}
	defer rows.Close()

	var out []EventRow
	for rows.Next() {
		var row EventRow
		if err := rows.Scan(&row.ID, &row.Type, &row.Subject, &row.Account, &row.Amount, &row.BlockTime); err != nil {
			return nil, fmt.Errorf("postgres: scan event row: %w", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list events for %s: %w", subject, err)
	}
	return out, nil
}

// nullID renders an ObjectID as a nullable column value: the zero id maps
// to NULL.
func nullID(id domain.ObjectID) any {
	if id.IsZero() {
		return nil
	}
	return id.String()
}

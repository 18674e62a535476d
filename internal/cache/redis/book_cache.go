package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/alanyoungcy/chainbook/internal/domain"
)

// BookCache mirrors per-market order-book snapshots into Redis so query
// traffic does not contend with the state mutex.
//
// Key schema:
//
//	book:{marketID}:backs - sorted set of back prices (score = price)
//	book:{marketID}:lays  - sorted set of lay prices (score = price)
//	book:{marketID}:snap  - JSON snapshot document
//	book:{marketID}:meta  - hash with "as_of" (unix nanos)
type BookCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewBookCache creates a BookCache backed by the given Client. A zero ttl
// keeps snapshots until overwritten.
func NewBookCache(c *Client, ttl time.Duration) *BookCache {
	return &BookCache{rdb: c.Underlying(), ttl: ttl}
}

func bookBacksKey(marketID string) string { return "book:" + marketID + ":backs" }
func bookLaysKey(marketID string) string  { return "book:" + marketID + ":lays" }
func bookSnapKey(marketID string) string  { return "book:" + marketID + ":snap" }
func bookMetaKey(marketID string) string  { return "book:" + marketID + ":meta" }

// SetSnapshot atomically replaces the cached snapshot for a market.
func (bc *BookCache) SetSnapshot(ctx context.Context, snap domain.BookSnapshot) error {
	marketID := snap.MarketID.String()

	doc, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("redis: marshal book %s: %w", marketID, err)
	}

	backsKey := bookBacksKey(marketID)
	laysKey := bookLaysKey(marketID)
	snapKey := bookSnapKey(marketID)
	metaKey := bookMetaKey(marketID)

	pipe := bc.rdb.TxPipeline()
	pipe.Del(ctx, backsKey, laysKey, snapKey, metaKey)

	for _, lvl := range snap.Backs {
		pipe.ZAdd(ctx, backsKey, redis.Z{
			Score:  float64(lvl.Price),
			Member: strconv.FormatInt(lvl.Price, 10),
		})
	}
	for _, lvl := range snap.Lays {
		pipe.ZAdd(ctx, laysKey, redis.Z{
			Score:  float64(lvl.Price),
			Member: strconv.FormatInt(lvl.Price, 10),
		})
	}

	pipe.Set(ctx, snapKey, doc, bc.ttl)
	pipe.HSet(ctx, metaKey, "as_of", snap.AsOf.UnixNano())
	if bc.ttl > 0 {
		pipe.Expire(ctx, backsKey, bc.ttl)
		pipe.Expire(ctx, laysKey, bc.ttl)
		pipe.Expire(ctx, metaKey, bc.ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: set book %s: %w", marketID, err)
	}
	return nil
}

// GetSnapshot fetches the cached snapshot for a market, if present.
func (bc *BookCache) GetSnapshot(ctx context.Context, marketID domain.ObjectID) (domain.BookSnapshot, bool, error) {
	doc, err := bc.rdb.Get(ctx, bookSnapKey(marketID.String())).Bytes()
	if err == redis.Nil {
		return domain.BookSnapshot{}, false, nil
	}
	if err != nil {
		return domain.BookSnapshot{}, false, fmt.Errorf("redis: get book %s: %w", marketID, err)
	}

	var snap domain.BookSnapshot
	if err := json.Unmarshal(doc, &snap); err != nil {
		return domain.BookSnapshot{}, false, fmt.Errorf("redis: decode book %s: %w", marketID, err)
	}
	return snap, true, nil
}

// Invalidate drops a market's cached snapshot, e.g. after its group is
// resolved.
func (bc *BookCache) Invalidate(ctx context.Context, marketID domain.ObjectID) error {
	id := marketID.String()
	if err := bc.rdb.Del(ctx,
		bookBacksKey(id), bookLaysKey(id), bookSnapKey(id), bookMetaKey(id),
	).Err(); err != nil {
		return fmt.Errorf("redis: invalidate book %s: %w", id, err)
	}
	return nil
}

package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/alanyoungcy/bidroom/internal/domain"
)

const snapshotTTL = 24 * time.Hour

// SnapshotCache implements domain.SnapshotCache using JSON-serialized
// auction projections.
//
// Key schema:
//
//	auction:{id} - string value containing the JSON projection
//
// The TTL is generous on purpose: a stale snapshot is still a valid render
// seed because reconciliation only ever moves values forward.
type SnapshotCache struct {
	rdb *redis.Client
}

// NewSnapshotCache creates a SnapshotCache backed by the given Client.
func NewSnapshotCache(c *Client) *SnapshotCache {
	return &SnapshotCache{rdb: c.Underlying()}
}

func auctionKey(id string) string { return "auction:" + id }

// SetAuction stores the auction projection with a 24-hour TTL.
func (sc *SnapshotCache) SetAuction(ctx context.Context, auction domain.Auction) error {
	data, err := json.Marshal(auction)
	if err != nil {
		return fmt.Errorf("redis: marshal auction %s: %w", auction.ID, err)
	}
	if err := sc.rdb.Set(ctx, auctionKey(auction.ID), data, snapshotTTL).Err(); err != nil {
		return fmt.Errorf("redis: set auction %s: %w", auction.ID, err)
	}
	return nil
}

// GetAuction retrieves an auction projection by ID. It returns
// domain.ErrNotFound when no snapshot is stored.
func (sc *SnapshotCache) GetAuction(ctx context.Context, auctionID string) (domain.Auction, error) {
	data, err := sc.rdb.Get(ctx, auctionKey(auctionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Auction{}, domain.ErrNotFound
		}
		return domain.Auction{}, fmt.Errorf("redis: get auction %s: %w", auctionID, err)
	}

	var auction domain.Auction
	if err := json.Unmarshal(data, &auction); err != nil {
		return domain.Auction{}, fmt.Errorf("redis: unmarshal auction %s: %w", auctionID, err)
	}
	return auction, nil
}

var _ domain.SnapshotCache = (*SnapshotCache)(nil)

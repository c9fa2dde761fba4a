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

const similarTTL = 15 * time.Minute

// SimilarCache implements domain.SimilarCache. Similar-product lookups are
// catalogue queries that change slowly, so a short TTL keeps them out of the
// mount hot path without serving stale listings for long.
//
// Key schema:
//
//	auction:{id}:similar - string value containing a JSON product array
type SimilarCache struct {
	rdb *redis.Client
}

// NewSimilarCache creates a SimilarCache backed by the given Client.
func NewSimilarCache(c *Client) *SimilarCache {
	return &SimilarCache{rdb: c.Underlying()}
}

func similarKey(auctionID string) string { return "auction:" + auctionID + ":similar" }

// SetSimilar stores the product list for an auction with a 15-minute TTL.
func (sc *SimilarCache) SetSimilar(ctx context.Context, auctionID string, products []domain.Product) error {
	data, err := json.Marshal(products)
	if err != nil {
		return fmt.Errorf("redis: marshal similar products for %s: %w", auctionID, err)
	}
	if err := sc.rdb.Set(ctx, similarKey(auctionID), data, similarTTL).Err(); err != nil {
		return fmt.Errorf("redis: set similar products for %s: %w", auctionID, err)
	}
	return nil
}

// GetSimilar retrieves the cached product list for an auction. It returns
// domain.ErrNotFound when nothing is cached.
func (sc *SimilarCache) GetSimilar(ctx context.Context, auctionID string) ([]domain.Product, error) {
	data, err := sc.rdb.Get(ctx, similarKey(auctionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("redis: get similar products for %s: %w", auctionID, err)
	}

	var products []domain.Product
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, fmt.Errorf("redis: unmarshal similar products for %s: %w", auctionID, err)
	}
	return products, nil
}

var _ domain.SimilarCache = (*SimilarCache)(nil)

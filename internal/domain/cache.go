package domain

import "context"

// SnapshotCache stores the last-known-good auction projection so a remounting
// view can render something sensible before the authoritative fetch returns.
// Reconciler rules guarantee the authoritative data only moves values
// forward, so priming from a stale snapshot is safe.
type SnapshotCache interface {
	SetAuction(ctx context.Context, auction Auction) error
	GetAuction(ctx context.Context, auctionID string) (Auction, error)
}

// SimilarCache stores similar-product lookups keyed by auction ID.
type SimilarCache interface {
	SetSimilar(ctx context.Context, auctionID string, products []Product) error
	GetSimilar(ctx context.Context, auctionID string) ([]Product, error)
}

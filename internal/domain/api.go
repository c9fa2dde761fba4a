package domain

import "context"

// MarketAPI is the request/response surface of the remote marketplace. Calls
// are retried by caller policy only; the one exception is the bounded
// deposit-status recheck owned by the controller.
type MarketAPI interface {
	// GetAuction fetches the authoritative auction projection.
	GetAuction(ctx context.Context, auctionID string) (Auction, error)

	// GetAuctionSeed fetches the auction together with the current leading
	// bid and bid count, for seeding a fresh local ledger.
	GetAuctionSeed(ctx context.Context, auctionID string) (Auction, Bid, int, error)

	// PlaceBid submits a bid. A validation performed by the server (someone
	// else's bid landed first, auction closed meanwhile) surfaces as an error
	// wrapping ErrBidRejected with the server's reason verbatim.
	PlaceBid(ctx context.Context, auctionID string, amount int64, clientRef string) (Bid, error)

	// PayDeposit initiates the deposit payment and returns the handle the
	// payment collaborator needs to perform the actual charge.
	PayDeposit(ctx context.Context, auctionID string) (PaymentHandle, error)

	// CheckDepositStatus reports whether the deposit for this auction has
	// cleared for the current session.
	CheckDepositStatus(ctx context.Context, auctionID string) (bool, error)

	// GetSimilarProducts returns up to limit catalogue entries related to the
	// auctioned item.
	GetSimilarProducts(ctx context.Context, auctionID string, limit int) ([]Product, error)
}

// PaymentHandle is the opaque initiation handle returned by PayDeposit. The
// payment collaborator charges out-of-band and reports back a completion
// flag; this subsystem never sees card or gateway details.
type PaymentHandle struct {
	ID     string
	URL    string
	Amount int64 // cents
}

// PaymentLauncher hands a payment off to the external payment collaborator
// and blocks until the redirect flow reports back. completed=true only means
// the flow finished; the deposit may still take a moment to confirm.
type PaymentLauncher interface {
	Launch(ctx context.Context, handle PaymentHandle) (completed bool, err error)
}

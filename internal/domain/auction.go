// Package domain defines the core types shared across the bidroom client:
// the auction projection, bids, push events, session identity, and the
// interfaces of the external collaborators (marketplace API, caches, payment
// hand-off). Nothing in this package performs I/O.
package domain

import "time"

// LifecycleState is the server-authoritative auction phase.
type LifecycleState string

const (
	StateScheduled LifecycleState = "scheduled"
	StateLive      LifecycleState = "live"
	StateEnded     LifecycleState = "ended"
	StateSettled   LifecycleState = "settled"
)

// Over reports whether the auction has passed its live phase.
func (s LifecycleState) Over() bool {
	return s == StateEnded || s == StateSettled
}

// TriState models a fact the server may not have disclosed yet, such as
// whether the reserve price was met.
type TriState int

const (
	TriUnknown TriState = iota
	TriTrue
	TriFalse
)

// Auction is the client-side projection of a single auction. It is fetched
// once when a view mounts and then patched in place by the reconciler as
// authoritative push events arrive.
type Auction struct {
	ID            string
	Title         string
	State         LifecycleState
	StartAt       time.Time
	EndAt         time.Time
	ReservePrice  *int64 // cents; nil when the listing has no reserve
	ReserveMet    TriState
	MinIncrement  int64 // cents
	DepositAmount int64 // cents; zero when no deposit is required
	Winner        *Winner
	UpdatedAt     time.Time
}

// RequiresDeposit reports whether bidders must pay a deposit before bidding.
func (a *Auction) RequiresDeposit() bool {
	return a.DepositAmount > 0
}

// Winner identifies who won an auction. Only meaningful when the lifecycle
// state is ended or settled and the reserve was not reported unmet.
type Winner struct {
	UserID string
	Name   string
}

// Bid is the current winning bid of one auction. The client never stores the
// full bid history, only the latest winning bid and a running count.
type Bid struct {
	Amount      int64 // cents
	BidderID    string
	BidderLabel string
	CreatedAt   time.Time
	Winning     bool
}

// Product is a catalogue entry returned by the similar-products lookup.
type Product struct {
	ID       string
	Title    string
	Price    int64 // cents
	ImageURL string
}

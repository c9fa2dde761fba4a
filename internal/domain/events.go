package domain

import "time"

// Origin tags a reconciler input with where it came from: the user's own
// just-confirmed action, or the push channel.
type Origin int

const (
	OriginRemote Origin = iota
	OriginSelf
)

func (o Origin) String() string {
	if o == OriginSelf {
		return "self"
	}
	return "remote"
}

// Event is the tagged union of everything the reconciler consumes. Concrete
// event types live in this package so that the push layer, the reconciler,
// and the controller all agree on one vocabulary.
type Event interface {
	isEvent()
}

// BidAccepted reports that a bid was accepted, either echoed back over the
// push channel (OriginRemote) or applied optimistically right after the
// user's own submission succeeded (OriginSelf).
type BidAccepted struct {
	Amount      int64
	BidderID    string
	BidderLabel string
	BidCount    int
	NewEndAt    *time.Time // set when a late bid extended the deadline
	Origin      Origin
}

// LifecycleChanged reports a server-side lifecycle transition. ReserveMet and
// Winner are optional; nil means the server said nothing about them.
type LifecycleChanged struct {
	State      LifecycleState
	ReserveMet *bool
	Winner     *Winner
}

// AuctionEnded is the dedicated end-of-auction signal. Unlike
// LifecycleChanged it always carries the reserve verdict.
type AuctionEnded struct {
	Winner     *Winner
	ReserveMet bool
}

// AuctionWon tells the current user they won and which order was created for
// settlement. It is a narrower, more reliable signal than inferring "won"
// from AuctionEnded.
type AuctionWon struct {
	OrderID string
}

// RoomSnapshot is the initial auction_state payload delivered on room join.
// It may only move local state forward, never backward.
type RoomSnapshot struct {
	State       LifecycleState
	EndAt       time.Time
	Amount      int64
	BidderID    string
	BidderLabel string
	BidCount    int
	ReserveMet  TriState
	Winner      *Winner
}

// ConnectionLost is emitted by the connection manager once the reconnect
// ceiling is exhausted. Until then, connection trouble is invisible to the
// rest of the client.
type ConnectionLost struct {
	Attempts int
}

func (BidAccepted) isEvent()      {}
func (LifecycleChanged) isEvent() {}
func (AuctionEnded) isEvent()     {}
func (AuctionWon) isEvent()       {}
func (RoomSnapshot) isEvent()     {}
func (ConnectionLost) isEvent()   {}

// Package ledger holds the most recently known authoritative bid state for
// one auction: current amount, highest-bidder label, and a running bid
// count. It is the single source the UI renders bid figures from. The ledger
// is exclusively owned by the controller's event loop and therefore needs no
// locking.
package ledger

import "time"

// Ledger tracks the current winning bid of a single auction. Amounts are
// monotonically non-decreasing: an apply below the current amount is
// rejected as stale.
type Ledger struct {
	amount      int64
	bidderID    string
	bidderLabel string
	count       int

	// Last optimistic self bid, used to recognize the remote echo of the
	// user's own action.
	selfAmount int64
	selfAt     time.Time
	selfMarked bool
}

// New creates a ledger seeded with the starting amount and bid count from
// the initial auction fetch.
func New(amount int64, bidderID, bidderLabel string, count int) *Ledger {
	return &Ledger{
		amount:      amount,
		bidderID:    bidderID,
		bidderLabel: bidderLabel,
		count:       count,
	}
}

func (l *Ledger) Amount() int64       { return l.amount }
func (l *Ledger) BidderID() string    { return l.bidderID }
func (l *Ledger) BidderLabel() string { return l.bidderLabel }
func (l *Ledger) Count() int          { return l.count }

// Apply installs a new winning bid. It returns false without mutating
// anything when amount does not exceed the current amount; such inputs are
// stale out-of-order deliveries or duplicates and the duplicate handling
// belongs to the reconciler, not here.
func (l *Ledger) Apply(amount int64, bidderID, bidderLabel string, count int) bool {
	if amount <= l.amount {
		return false
	}
	l.amount = amount
	l.bidderID = bidderID
	l.bidderLabel = bidderLabel
	if count > l.count {
		l.count = count
	} else {
		l.count++
	}
	return true
}

// BumpCount raises the running bid count without touching the amount. Used
// when a duplicate echo still carries a higher count than we hold.
func (l *Ledger) BumpCount(count int) bool {
	if count <= l.count {
		return false
	}
	l.count = count
	return true
}

// MarkSelf records that the user's own bid for amount was applied
// optimistically at now. The later remote echo is matched against this mark.
func (l *Ledger) MarkSelf(amount int64, now time.Time) {
	l.selfAmount = amount
	l.selfAt = now
	l.selfMarked = true
}

// IsSelfEcho reports whether an inbound bid for amount at now matches the
// recorded optimistic self bid within window. A positive match consumes the
// mark, so the same echo cannot confirm twice.
func (l *Ledger) IsSelfEcho(amount int64, now time.Time, window time.Duration) bool {
	if !l.selfMarked || amount != l.selfAmount {
		return false
	}
	if now.Sub(l.selfAt) > window {
		return false
	}
	l.selfMarked = false
	return true
}

// MinNextBid returns the lowest acceptable next bid given the auction's
// minimum increment. Always computed from the live ledger state so a stale
// page value can never leak into validation.
func (l *Ledger) MinNextBid(minIncrement int64) int64 {
	return l.amount + minIncrement
}

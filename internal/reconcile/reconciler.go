// Package reconcile merges authoritative push events with locally-optimistic
// state. It owns every rule that keeps the auction view honest: idempotence
// by value, monotonic amounts, deadline auto-extension, lifecycle precedence
// over local timers, and reserve-not-met clearing the winner.
package reconcile

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/alanyoungcy/bidroom/internal/domain"
	"github.com/alanyoungcy/bidroom/internal/ledger"
)

// DefaultEchoWindow is how long after an optimistic self bid its remote echo
// is still treated as a confirmation rather than a fresh event.
const DefaultEchoWindow = 15 * time.Second

// NoticeKind classifies a user-facing notification produced by
// reconciliation.
type NoticeKind int

const (
	NoticeBidPlaced      NoticeKind = iota // the user's own bid was accepted
	NoticeOutbid                           // someone else took the lead from the user
	NoticeNewBid                           // another bidder raised, user was not leading
	NoticeAuctionLive                      // lifecycle moved to live
	NoticeAuctionEnded                     // ended, someone else (or nobody known) won
	NoticeYouWon                           // ended or auction_won, current user won
	NoticeNoWinner                         // ended with reserve not met
	NoticeConnectionLost                   // push channel gone past the reconnect ceiling
)

func (k NoticeKind) String() string {
	switch k {
	case NoticeBidPlaced:
		return "bid_placed"
	case NoticeOutbid:
		return "outbid"
	case NoticeNewBid:
		return "new_bid"
	case NoticeAuctionLive:
		return "auction_live"
	case NoticeAuctionEnded:
		return "auction_ended"
	case NoticeYouWon:
		return "auction_won"
	case NoticeNoWinner:
		return "no_winner"
	case NoticeConnectionLost:
		return "connection_lost"
	default:
		return "unknown"
	}
}

// Notice is one user-facing notification. The controller decides how it is
// surfaced (toast channel, telegram, log).
type Notice struct {
	Kind    NoticeKind
	Amount  int64
	Bidder  string
	OrderID string
}

// Outcome tells the controller what to do after an event was reconciled.
type Outcome struct {
	Applied      bool       // some state actually changed
	Notices      []Notice   // user-facing notifications, in order
	NewEndAt     *time.Time // countdown must be rebased to this target
	Freeze       bool       // countdown must freeze: server declared the auction over
	StateChanged bool       // lifecycle or winner changed; view step must be re-derived
}

// Reconciler applies inbound items to the auction projection and bid ledger
// it was created with. It is driven from the controller's single event loop
// and performs no locking of its own.
type Reconciler struct {
	auction    *domain.Auction
	ledger     *ledger.Ledger
	self       domain.Identity
	clock      clockwork.Clock
	echoWindow time.Duration
	logger     *slog.Logger

	wonOrderID    string
	endNotified   bool
	endNoticeKind NoticeKind
}

// New creates a reconciler bound to one auction projection and its ledger.
func New(auction *domain.Auction, lgr *ledger.Ledger, self domain.Identity, clock clockwork.Clock, logger *slog.Logger) *Reconciler {
	return &Reconciler{
		auction:    auction,
		ledger:     lgr,
		self:       self,
		clock:      clock,
		echoWindow: DefaultEchoWindow,
		logger:     logger.With(slog.String("component", "reconciler")),
	}
}

// SetEchoWindow overrides the self-echo recency window.
func (r *Reconciler) SetEchoWindow(d time.Duration) {
	r.echoWindow = d
}

// WonOrderID returns the settlement order ID once an auction_won signal has
// been seen, empty otherwise.
func (r *Reconciler) WonOrderID() string {
	return r.wonOrderID
}

// Apply reconciles one inbound item against local state and reports what the
// controller should do about it.
func (r *Reconciler) Apply(ev domain.Event) Outcome {
	switch e := ev.(type) {
	case domain.BidAccepted:
		return r.applyBid(e)
	case domain.LifecycleChanged:
		return r.applyLifecycle(e)
	case domain.AuctionEnded:
		return r.applyEnded(e)
	case domain.AuctionWon:
		return r.applyWon(e)
	case domain.RoomSnapshot:
		return r.applySnapshot(e)
	default:
		r.logger.Debug("ignoring unhandled event", slog.String("type", fmt.Sprintf("%T", ev)))
		return Outcome{}
	}
}

func (r *Reconciler) applyBid(e domain.BidAccepted) Outcome {
	var out Outcome
	now := r.clock.Now()
	current := r.ledger.Amount()

	switch {
	case e.Amount < current:
		// Stale out-of-order delivery, or garbage. Never applied.
		r.logger.Debug("dropping stale bid",
			slog.Int64("amount", e.Amount),
			slog.Int64("current", current),
			slog.String("origin", e.Origin.String()),
		)
		return out

	case e.Amount == current:
		// Duplicate by value: the same action echoed back over the push
		// channel. No notification, but the count may still advance and a
		// matching self mark is consumed as confirmation of durability.
		if r.ledger.IsSelfEcho(e.Amount, now, r.echoWindow) {
			r.logger.Debug("self bid confirmed by remote echo", slog.Int64("amount", e.Amount))
		}
		if r.ledger.BumpCount(e.BidCount) {
			out.Applied = true
		}

	default:
		prevLeaderID := r.ledger.BidderID()
		if !r.ledger.Apply(e.Amount, e.BidderID, e.BidderLabel, e.BidCount) {
			return out
		}
		out.Applied = true

		switch {
		case e.Origin == domain.OriginSelf, r.isSelf(e.BidderID):
			// The user's own bid: either the optimistic apply at submission
			// time, or its echo arriving before the HTTP response did. One
			// success notification either way.
			r.ledger.MarkSelf(e.Amount, now)
			out.Notices = append(out.Notices, Notice{Kind: NoticeBidPlaced, Amount: e.Amount})
		case r.isSelf(prevLeaderID):
			out.Notices = append(out.Notices, Notice{Kind: NoticeOutbid, Amount: e.Amount, Bidder: e.BidderLabel})
		default:
			out.Notices = append(out.Notices, Notice{Kind: NoticeNewBid, Amount: e.Amount, Bidder: e.BidderLabel})
		}
	}

	// Auto-extension: a late bid may push the deadline out.
	if e.NewEndAt != nil && e.NewEndAt.After(r.auction.EndAt) {
		r.auction.EndAt = *e.NewEndAt
		r.auction.UpdatedAt = now
		out.NewEndAt = e.NewEndAt
		out.Applied = true
	}

	return out
}

func (r *Reconciler) applyLifecycle(e domain.LifecycleChanged) Outcome {
	var out Outcome
	now := r.clock.Now()

	if e.State != "" && e.State != r.auction.State {
		r.logger.Info("lifecycle transition",
			slog.String("from", string(r.auction.State)),
			slog.String("to", string(e.State)),
		)
		r.auction.State = e.State
		r.auction.UpdatedAt = now
		out.Applied = true
		out.StateChanged = true

		if e.State == domain.StateLive {
			out.Notices = append(out.Notices, Notice{Kind: NoticeAuctionLive})
		}
	}

	if e.ReserveMet != nil {
		out.Applied = r.setReserveMet(*e.ReserveMet) || out.Applied
		out.StateChanged = true
	}
	if e.Winner != nil && r.auction.ReserveMet != domain.TriFalse {
		r.auction.Winner = e.Winner
		out.Applied = true
		out.StateChanged = true
	}

	// The server is authoritative over the exact end: clock skew, admin
	// overrides, and early settlement all beat the local wall clock.
	if r.auction.State.Over() {
		out.Freeze = true
		out.Notices = append(out.Notices, r.endNotices()...)
	}

	return out
}

func (r *Reconciler) applyEnded(e domain.AuctionEnded) Outcome {
	var out Outcome
	now := r.clock.Now()

	if r.auction.State != domain.StateSettled {
		r.auction.State = domain.StateEnded
	}
	r.auction.UpdatedAt = now
	out.Applied = true
	out.StateChanged = true
	out.Freeze = true

	r.setReserveMet(e.ReserveMet)
	if e.ReserveMet && e.Winner != nil {
		r.auction.Winner = e.Winner
	}

	out.Notices = append(out.Notices, r.endNotices()...)
	return out
}

func (r *Reconciler) applyWon(e domain.AuctionWon) Outcome {
	var out Outcome

	// Narrower and more reliable than inferring "won" from AuctionEnded; it
	// is addressed to this session, so no identity comparison is needed.
	r.wonOrderID = e.OrderID
	if r.auction.Winner == nil {
		r.auction.Winner = &domain.Winner{UserID: r.self.UserID, Name: r.self.Label}
	}
	if !r.auction.State.Over() {
		r.auction.State = domain.StateEnded
		out.Freeze = true
	}
	out.Applied = true
	out.StateChanged = true
	out.Notices = append(out.Notices, r.endNotices()...)
	return out
}

func (r *Reconciler) applySnapshot(e domain.RoomSnapshot) Outcome {
	var out Outcome
	now := r.clock.Now()

	// The join snapshot may only move local state forward. Amounts go
	// through the usual monotonic path; an older snapshot cannot regress a
	// bid the push channel already delivered.
	if r.ledger.Apply(e.Amount, e.BidderID, e.BidderLabel, e.BidCount) {
		out.Applied = true
	} else if r.ledger.BumpCount(e.BidCount) {
		out.Applied = true
	}

	if e.State != "" && stateRank(e.State) > stateRank(r.auction.State) {
		r.auction.State = e.State
		out.Applied = true
		out.StateChanged = true
		if e.State.Over() {
			out.Freeze = true
		}
	}
	if !e.EndAt.IsZero() && !e.EndAt.Equal(r.auction.EndAt) {
		r.auction.EndAt = e.EndAt
		endAt := e.EndAt
		out.NewEndAt = &endAt
		out.Applied = true
	}
	if e.ReserveMet != domain.TriUnknown {
		out.Applied = r.setReserveMet(e.ReserveMet == domain.TriTrue) || out.Applied
		out.StateChanged = true
	}
	if e.Winner != nil && r.auction.ReserveMet != domain.TriFalse {
		r.auction.Winner = e.Winner
		out.Applied = true
		out.StateChanged = true
	}
	if out.Applied {
		r.auction.UpdatedAt = now
	}

	return out
}

// setReserveMet updates the tri-state reserve verdict. Whenever the verdict
// becomes false, any previously shown winner is cleared, even one that had
// tentatively been displayed.
func (r *Reconciler) setReserveMet(met bool) bool {
	want := domain.TriFalse
	if met {
		want = domain.TriTrue
	}
	changed := r.auction.ReserveMet != want
	r.auction.ReserveMet = want
	if want == domain.TriFalse && r.auction.Winner != nil {
		r.logger.Info("reserve not met, clearing winner",
			slog.String("winner", r.auction.Winner.UserID),
		)
		r.auction.Winner = nil
		changed = true
	}
	return changed
}

// endNotices classifies the end of the auction for the current session. A
// repeated end event with the same classification stays silent; only a
// changed verdict (e.g. reserve flipping to not-met) notifies again.
func (r *Reconciler) endNotices() []Notice {
	var n Notice
	switch {
	case r.auction.ReserveMet == domain.TriFalse:
		n = Notice{Kind: NoticeNoWinner}
	case r.auction.Winner != nil && r.isSelf(r.auction.Winner.UserID):
		n = Notice{Kind: NoticeYouWon, Amount: r.ledger.Amount(), OrderID: r.wonOrderID}
	case r.auction.Winner != nil:
		n = Notice{Kind: NoticeAuctionEnded, Amount: r.ledger.Amount(), Bidder: r.auction.Winner.Name}
	default:
		n = Notice{Kind: NoticeAuctionEnded, Amount: r.ledger.Amount(), Bidder: r.ledger.BidderLabel()}
	}
	if r.endNotified && r.endNoticeKind == n.Kind {
		return nil
	}
	r.endNotified = true
	r.endNoticeKind = n.Kind
	return []Notice{n}
}

func (r *Reconciler) isSelf(userID string) bool {
	return r.self.UserID != "" && userID == r.self.UserID
}

func stateRank(s domain.LifecycleState) int {
	switch s {
	case domain.StateScheduled:
		return 0
	case domain.StateLive:
		return 1
	case domain.StateEnded:
		return 2
	case domain.StateSettled:
		return 3
	default:
		return -1
	}
}

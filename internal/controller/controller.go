// Package controller drives one mounted auction view. It composes the
// countdown engine, eligibility resolver, bid ledger, reconciler, and push
// channel behind a single event loop, and exposes the four user actions.
//
// All auction state is owned by the loop goroutine. Public action methods
// post their validation into the loop and perform network calls on the
// caller's goroutine, so a slow API call never stalls event processing.
package controller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"golang.org/x/time/rate"

	"github.com/alanyoungcy/bidroom/internal/countdown"
	"github.com/alanyoungcy/bidroom/internal/domain"
	"github.com/alanyoungcy/bidroom/internal/eligibility"
	"github.com/alanyoungcy/bidroom/internal/ledger"
	"github.com/alanyoungcy/bidroom/internal/push"
	"github.com/alanyoungcy/bidroom/internal/reconcile"
)

const (
	defaultDepositChecks     = 5
	defaultDepositCheckDelay = 2 * time.Second
	similarLimit             = 8
)

// PushChannel is the slice of the push client the controller needs. The
// concrete implementation is push.Client; tests substitute a fake feeding
// events directly.
type PushChannel interface {
	Connect(ctx context.Context) error
	JoinRoom(ctx context.Context, auctionID string) error
	LeaveRoom(ctx context.Context) error
	Close() error
	Events() <-chan domain.Event
}

var _ PushChannel = (*push.Client)(nil)

// Update is one render snapshot of the mounted view. The enclosing
// application redraws from the latest Update; intermediate ones may be
// dropped.
type Update struct {
	Step        Step
	State       domain.LifecycleState
	Title       string
	Amount      int64
	BidderLabel string
	BidCount    int
	MinNextBid  int64
	Remaining   string
	Expired     bool
	Winner      *domain.Winner
	Similar     []domain.Product
}

// Deps are the collaborators a controller needs. Snapshots and Similar may
// be nil; priming and product suggestions are then skipped.
type Deps struct {
	API       domain.MarketAPI
	Push      PushChannel
	Session   domain.SessionStore
	Payments  domain.PaymentLauncher
	Snapshots domain.SnapshotCache
	Similar   domain.SimilarCache
	Clock     clockwork.Clock
	Logger    *slog.Logger

	// BidLimiter throttles outgoing bid submissions. Nil means a default
	// one-bid-per-second limiter with a small burst.
	BidLimiter *rate.Limiter

	DepositChecks     int           // bounded recheck attempts after a payment redirect
	DepositCheckDelay time.Duration // fixed delay between rechecks
	EchoWindow        time.Duration // self-echo recency window; zero keeps the default
}

// Controller owns one mounted auction view.
type Controller struct {
	deps    Deps
	logger  *slog.Logger
	limiter *rate.Limiter
	clock   clockwork.Clock

	// loop-owned state, touched only from Run or via posted closures
	auctionID        string
	auction          domain.Auction
	lgr              *ledger.Ledger
	rec              *reconcile.Reconciler
	engine           *countdown.Engine
	self             domain.Identity
	depositConfirmed bool
	mode             countdown.Mode
	expired          bool
	frozen           bool
	remaining        string
	similar          []domain.Product
	step             Step

	calls   chan func()
	done    chan struct{}
	updates chan Update
	notices chan reconcile.Notice
}

// New creates an unmounted controller.
func New(deps Deps) *Controller {
	limiter := deps.BidLimiter
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Every(time.Second), 3)
	}
	if deps.DepositChecks <= 0 {
		deps.DepositChecks = defaultDepositChecks
	}
	if deps.DepositCheckDelay <= 0 {
		deps.DepositCheckDelay = defaultDepositCheckDelay
	}
	return &Controller{
		deps:    deps,
		logger:  deps.Logger.With(slog.String("component", "controller")),
		limiter: limiter,
		clock:   deps.Clock,
		step:    StepLoading,
		calls:   make(chan func(), 16),
		done:    make(chan struct{}),
		updates: make(chan Update, 16),
		notices: make(chan reconcile.Notice, 32),
	}
}

// Updates returns the render-snapshot channel. Closed when the loop exits.
func (c *Controller) Updates() <-chan Update { return c.updates }

// Notices returns the user-facing notification channel. Closed when the
// loop exits.
func (c *Controller) Notices() <-chan reconcile.Notice { return c.notices }

// Mount fetches the auction, seeds the ledger, starts the countdown, and
// joins the auction's event room. Mounting the same auction twice is a
// no-op; mounting a different auction on a mounted controller is an error.
func (c *Controller) Mount(ctx context.Context, auctionID string) error {
	if c.auctionID == auctionID {
		return nil
	}
	if c.auctionID != "" {
		return fmt.Errorf("controller: already mounted on auction %s", c.auctionID)
	}

	c.self = c.deps.Session.Identity()

	// Prime from the last-known-good snapshot so the view has something to
	// show while the authoritative fetch is in flight. The primed render
	// stays on the loading step; fetched data overwrites it below.
	if c.deps.Snapshots != nil {
		if cached, err := c.deps.Snapshots.GetAuction(ctx, auctionID); err == nil {
			c.auction = cached
			c.publish()
			c.logger.Debug("primed from snapshot cache", slog.String("auction_id", auctionID))
		}
	}

	auction, seed, count, err := c.deps.API.GetAuctionSeed(ctx, auctionID)
	if err != nil {
		return fmt.Errorf("controller: mount %s: %w", auctionID, err)
	}
	c.auctionID = auctionID
	c.auction = auction
	c.lgr = ledger.New(seed.Amount, seed.BidderID, seed.BidderLabel, count)
	c.rec = reconcile.New(&c.auction, c.lgr, c.self, c.clock, c.deps.Logger)
	if c.deps.EchoWindow > 0 {
		c.rec.SetEchoWindow(c.deps.EchoWindow)
	}
	c.engine = countdown.New(c.clock, c.deps.Logger)

	if c.deps.Snapshots != nil {
		if err := c.deps.Snapshots.SetAuction(ctx, c.auction); err != nil {
			c.logger.Warn("snapshot cache write failed", slog.Any("error", err))
		}
	}

	if c.self.Authenticated && c.auction.RequiresDeposit() {
		paid, err := c.deps.API.CheckDepositStatus(ctx, auctionID)
		if err != nil {
			c.logger.Warn("deposit status check failed", slog.Any("error", err))
		} else {
			c.depositConfirmed = paid
		}
	}

	c.loadSimilar(ctx)

	switch {
	case c.auction.State == domain.StateScheduled:
		c.mode = countdown.ModeToStart
		c.engine.Start(c.auction.StartAt, countdown.ModeToStart)
	case c.auction.State == domain.StateLive:
		c.mode = countdown.ModeToEnd
		c.engine.Start(c.auction.EndAt, countdown.ModeToEnd)
	default:
		c.frozen = true
		c.expired = true
		c.remaining = "00:00:00"
	}

	if err := c.deps.Push.Connect(ctx); err != nil {
		return fmt.Errorf("controller: connect push channel: %w", err)
	}
	if err := c.deps.Push.JoinRoom(ctx, auctionID); err != nil {
		return fmt.Errorf("controller: join room %s: %w", auctionID, err)
	}

	c.rederive()
	c.logger.Info("mounted",
		slog.String("auction_id", auctionID),
		slog.String("state", string(c.auction.State)),
		slog.String("step", c.step.String()))
	return nil
}

func (c *Controller) loadSimilar(ctx context.Context) {
	if c.deps.Similar != nil {
		if cached, err := c.deps.Similar.GetSimilar(ctx, c.auctionID); err == nil {
			c.similar = cached
			return
		}
	}
	products, err := c.deps.API.GetSimilarProducts(ctx, c.auctionID, similarLimit)
	if err != nil {
		c.logger.Warn("similar products fetch failed", slog.Any("error", err))
		return
	}
	c.similar = products
	if c.deps.Similar != nil {
		if err := c.deps.Similar.SetSimilar(ctx, c.auctionID, products); err != nil {
			c.logger.Warn("similar cache write failed", slog.Any("error", err))
		}
	}
}

// Run is the view's event loop. It processes push events, countdown ticks,
// and posted action closures strictly one at a time, and tears the view
// down when ctx is cancelled. Call after Mount.
func (c *Controller) Run(ctx context.Context) error {
	if c.auctionID == "" {
		return errors.New("controller: run before mount")
	}
	defer c.teardown()

	c.publish()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-c.deps.Push.Events():
			if !ok {
				return domain.ErrRoomClosed
			}
			c.handleEvent(ev)
		case tick := <-c.engine.Ticks():
			c.handleTick(tick)
		case fn := <-c.calls:
			fn()
		}
	}
}

// teardown order: leave the room first so no room event can arrive mid
// teardown, then stop the countdown, then drop the connection.
func (c *Controller) teardown() {
	close(c.done)

	leaveCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.deps.Push.LeaveRoom(leaveCtx); err != nil && !errors.Is(err, domain.ErrNotConnected) {
		c.logger.Warn("leave room failed", slog.Any("error", err))
	}
	if c.engine != nil {
		c.engine.Stop()
	}
	if err := c.deps.Push.Close(); err != nil {
		c.logger.Warn("push channel close failed", slog.Any("error", err))
	}
	if c.deps.Snapshots != nil && c.auctionID != "" {
		if err := c.deps.Snapshots.SetAuction(leaveCtx, c.auction); err != nil {
			c.logger.Warn("final snapshot write failed", slog.Any("error", err))
		}
	}
	close(c.updates)
	close(c.notices)
	c.logger.Info("unmounted", slog.String("auction_id", c.auctionID))
}

func (c *Controller) handleEvent(ev domain.Event) {
	if lost, ok := ev.(domain.ConnectionLost); ok {
		// Keep showing last-known-good state; the notice tells the user the
		// feed is gone for good.
		c.logger.Error("push channel lost", slog.Int("attempts", lost.Attempts))
		c.notify(reconcile.Notice{Kind: reconcile.NoticeConnectionLost})
		return
	}

	out := c.rec.Apply(ev)
	if out.NewEndAt != nil {
		if c.expired || c.mode != countdown.ModeToEnd {
			c.mode = countdown.ModeToEnd
			c.expired = false
			c.engine.Start(*out.NewEndAt, countdown.ModeToEnd)
		} else {
			c.engine.Rebase(*out.NewEndAt)
		}
	}
	if out.Freeze && !c.frozen {
		c.frozen = true
		c.expired = true
		c.remaining = "00:00:00"
		c.engine.Freeze()
	}
	if out.StateChanged && !c.frozen && c.auction.State == domain.StateLive && c.mode != countdown.ModeToEnd {
		// Auction went live while we were counting down to start.
		c.mode = countdown.ModeToEnd
		c.expired = false
		c.engine.Start(c.auction.EndAt, countdown.ModeToEnd)
	}
	for _, n := range out.Notices {
		c.notify(n)
	}
	if out.Applied || out.StateChanged {
		c.rederive()
		c.publish()
	}
}

func (c *Controller) handleTick(tick countdown.Tick) {
	if c.frozen {
		return
	}
	c.remaining = tick.Display
	if tick.Expired {
		if c.mode == countdown.ModeToStart {
			// Start deadline passed locally. The server still owns the
			// transition to live; begin counting toward the end so the view
			// is not stuck at zero.
			c.mode = countdown.ModeToEnd
			c.engine.Start(c.auction.EndAt, countdown.ModeToEnd)
		} else {
			c.expired = true
		}
	}
	c.publish()
}

func (c *Controller) rederive() {
	stage := c.resolveStage()
	c.step = DeriveViewStep(stage, &c.auction, c.self.UserID)
}

func (c *Controller) resolveStage() eligibility.Stage {
	return eligibility.Resolve(eligibility.Input{
		Authenticated:    c.self.Authenticated,
		Tier:             c.self.Tier,
		RequiresDeposit:  c.auction.RequiresDeposit(),
		DepositConfirmed: c.depositConfirmed,
	})
}

func (c *Controller) publish() {
	u := Update{
		Step:      c.step,
		State:     c.auction.State,
		Title:     c.auction.Title,
		Remaining: c.remaining,
		Expired:   c.expired,
		Winner:    c.auction.Winner,
		Similar:   c.similar,
	}
	if c.lgr != nil {
		u.Amount = c.lgr.Amount()
		u.BidderLabel = c.lgr.BidderLabel()
		u.BidCount = c.lgr.Count()
		u.MinNextBid = c.lgr.MinNextBid(c.auction.MinIncrement)
	}
	select {
	case c.updates <- u:
	default:
		// Renders are snapshots; dropping one is fine.
	}
}

func (c *Controller) notify(n reconcile.Notice) {
	select {
	case c.notices <- n:
	default:
		c.logger.Warn("notice dropped", slog.String("kind", n.Kind.String()))
	}
}

// post runs fn inside the event loop. It fails once the view has unmounted
// so late async results are dropped rather than applied to dead state.
func (c *Controller) post(ctx context.Context, fn func()) error {
	select {
	case c.calls <- fn:
		return nil
	case <-c.done:
		return domain.ErrViewUnmounted
	case <-ctx.Done():
		return ctx.Err()
	}
}

// inLoop runs fn inside the event loop and waits for its result.
func (c *Controller) inLoop(ctx context.Context, fn func() error) error {
	errc := make(chan error, 1)
	if err := c.post(ctx, func() { errc <- fn() }); err != nil {
		return err
	}
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Register points an anonymous viewer at account creation. Navigation only;
// nothing auction-side changes.
func (c *Controller) Register(ctx context.Context) error {
	c.logger.Info("navigate", slog.String("target", "register"))
	return nil
}

// Verify points a registered viewer at identity verification. Navigation
// only; nothing auction-side changes.
func (c *Controller) Verify(ctx context.Context) error {
	c.logger.Info("navigate", slog.String("target", "verify"))
	return nil
}

// PayDeposit initiates the deposit payment, hands off to the payment
// collaborator, and then rechecks deposit confirmation a bounded number of
// times with a fixed delay. Lifecycle preconditions are checked locally and
// never reach the network.
func (c *Controller) PayDeposit(ctx context.Context) error {
	var auctionID string
	err := c.inLoop(ctx, func() error {
		switch {
		case c.auction.State == domain.StateScheduled:
			return domain.ErrAuctionNotStarted
		case c.auction.State.Over():
			return domain.ErrAuctionOver
		}
		if stage := c.resolveStage(); stage < eligibility.StageVerifiedNoDeposit {
			return fmt.Errorf("%w: deposit requires a verified account, current stage is %s",
				domain.ErrStageRequired, stage)
		}
		if c.depositConfirmed {
			return nil
		}
		auctionID = c.auctionID
		return nil
	})
	if err != nil {
		return err
	}
	if auctionID == "" { // already confirmed
		return nil
	}

	handle, err := c.deps.API.PayDeposit(ctx, auctionID)
	if err != nil {
		return fmt.Errorf("controller: initiate deposit: %w", err)
	}
	completed, err := c.deps.Payments.Launch(ctx, handle)
	if err != nil {
		return fmt.Errorf("controller: payment hand-off: %w", err)
	}
	if !completed {
		return domain.ErrDepositPending
	}

	// Confirmation can lag a just-completed redirect flow; poll a few times
	// before giving up.
	confirmed := false
	for attempt := 1; attempt <= c.deps.DepositChecks; attempt++ {
		paid, err := c.deps.API.CheckDepositStatus(ctx, auctionID)
		if err == nil && paid {
			confirmed = true
			break
		}
		if err != nil {
			c.logger.Warn("deposit status check failed",
				slog.Int("attempt", attempt), slog.Any("error", err))
		}
		if attempt == c.deps.DepositChecks {
			break
		}
		select {
		case <-c.clock.After(c.deps.DepositCheckDelay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if !confirmed {
		return domain.ErrDepositPending
	}

	return c.inLoop(ctx, func() error {
		c.depositConfirmed = true
		c.rederive()
		c.publish()
		return nil
	})
}

// PlaceBid validates against the latest ledger state, submits the bid, and
// on success applies the optimistic self-originated update. A server
// rejection leaves the ledger untouched; the next inbound event corrects
// local state.
func (c *Controller) PlaceBid(ctx context.Context, amount int64) error {
	var auctionID string
	err := c.inLoop(ctx, func() error {
		if stage := c.resolveStage(); stage < eligibility.StageVerifiedWithDeposit {
			return fmt.Errorf("%w: bidding requires stage %s, current stage is %s",
				domain.ErrStageRequired, eligibility.StageVerifiedWithDeposit, stage)
		}
		switch {
		case c.auction.State == domain.StateScheduled:
			return domain.ErrAuctionNotStarted
		case c.auction.State.Over() || c.expired:
			return domain.ErrAuctionOver
		}
		if min := c.lgr.MinNextBid(c.auction.MinIncrement); amount < min {
			return fmt.Errorf("%w: minimum next bid is %d, got %d",
				domain.ErrBidTooLow, min, amount)
		}
		if !c.limiter.Allow() {
			return domain.ErrRateLimited
		}
		auctionID = c.auctionID
		return nil
	})
	if err != nil {
		return err
	}

	clientRef := uuid.NewString()
	bid, err := c.deps.API.PlaceBid(ctx, auctionID, amount, clientRef)
	if err != nil {
		if errors.Is(err, domain.ErrBidRejected) {
			c.logger.Info("bid rejected by server",
				slog.Int64("amount", amount), slog.String("client_ref", clientRef))
		}
		return err
	}

	c.logger.Info("bid accepted",
		slog.Int64("amount", bid.Amount), slog.String("client_ref", clientRef))
	return c.post(ctx, func() {
		c.handleEvent(domain.BidAccepted{
			Amount:      bid.Amount,
			BidderID:    c.self.UserID,
			BidderLabel: c.self.Label,
			BidCount:    c.lgr.Count() + 1,
			Origin:      domain.OriginSelf,
		})
	})
}

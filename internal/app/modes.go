package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/alanyoungcy/bidroom/internal/controller"
	"github.com/alanyoungcy/bidroom/internal/domain"
)

// buildController assembles a controller for the configured auction from the
// wired dependencies.
func (a *App) buildController(deps *Dependencies) *controller.Controller {
	perBid := time.Minute / time.Duration(a.cfg.Auction.BidsPerMinute)
	return controller.New(controller.Deps{
		API:               deps.API,
		Push:              deps.Push,
		Session:           deps.Session,
		Payments:          deps.Payments,
		Snapshots:         deps.Snapshots,
		Similar:           deps.Similar,
		Clock:             deps.Clock,
		Logger:            a.logger,
		BidLimiter:        rate.NewLimiter(rate.Every(perBid), a.cfg.Auction.BidBurst),
		DepositChecks:     a.cfg.Auction.DepositChecks,
		DepositCheckDelay: a.cfg.Auction.DepositCheckDelay.Duration,
		EchoWindow:        a.cfg.Auction.EchoWindow.Duration,
	})
}

// WatchMode mounts the auction view read-only: the controller loop, the
// alert pump, and a render loop that prints the latest view state.
func (a *App) WatchMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting watch mode")

	ctrl := a.buildController(deps)
	if err := ctrl.Mount(ctx, a.cfg.Auction.ID); err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return ctrl.Run(ctx)
	})
	g.Go(func() error {
		return deps.Notifier.Pump(ctx, ctrl.Notices())
	})
	g.Go(func() error {
		return renderLoop(ctx, ctrl.Updates())
	})
	return g.Wait()
}

// BidMode mounts the auction view interactively: everything watch mode runs,
// plus a line-based prompt driving the four user actions.
func (a *App) BidMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting bid mode")

	ctrl := a.buildController(deps)
	if err := ctrl.Mount(ctx, a.cfg.Auction.ID); err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return ctrl.Run(ctx)
	})
	g.Go(func() error {
		return deps.Notifier.Pump(ctx, ctrl.Notices())
	})
	g.Go(func() error {
		return renderLoop(ctx, ctrl.Updates())
	})
	g.Go(func() error {
		return a.promptLoop(ctx, ctrl)
	})
	return g.Wait()
}

// renderLoop prints the latest view snapshot whenever something the user can
// see changed. Countdown-only updates redraw in place.
func renderLoop(ctx context.Context, updates <-chan controller.Update) error {
	var last controller.Update
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case u, ok := <-updates:
			if !ok {
				return nil
			}
			if u.Step != last.Step || u.Amount != last.Amount || u.State != last.State {
				fmt.Printf("\n[%s] %s | step=%s | bid=%d by %s (%d bids) | next>=%d\n",
					u.State, u.Title, u.Step, u.Amount, u.BidderLabel, u.BidCount, u.MinNextBid)
			}
			fmt.Printf("\r  remaining %s ", u.Remaining)
			last = u
		}
	}
}

// promptLoop reads commands from stdin: bid <amount>, deposit, register,
// verify, help, quit.
func (a *App) promptLoop(ctx context.Context, ctrl *controller.Controller) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	fmt.Println("commands: bid <amount-cents>, deposit, register, verify, help, quit")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				return nil // stdin closed
			}
			if err := a.dispatch(ctx, ctrl, line); err != nil {
				if errors.Is(err, errQuit) {
					return context.Canceled
				}
				fmt.Printf("!! %s\n", userFacing(err))
			}
		}
	}
}

var errQuit = errors.New("quit")

func (a *App) dispatch(ctx context.Context, ctrl *controller.Controller, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	switch fields[0] {
	case "bid":
		if len(fields) != 2 {
			return errors.New("usage: bid <amount-cents>")
		}
		amount, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return fmt.Errorf("bad amount %q", fields[1])
		}
		return ctrl.PlaceBid(ctx, amount)
	case "deposit":
		return ctrl.PayDeposit(ctx)
	case "register":
		return ctrl.Register(ctx)
	case "verify":
		return ctrl.Verify(ctx)
	case "help":
		fmt.Println("commands: bid <amount-cents>, deposit, register, verify, help, quit")
		return nil
	case "quit", "exit":
		return errQuit
	default:
		return fmt.Errorf("unknown command %q", fields[0])
	}
}

// userFacing maps sentinel errors to the short reasons the prompt shows.
// Anything unrecognized is printed as-is.
func userFacing(err error) string {
	switch {
	case errors.Is(err, domain.ErrBidTooLow):
		return err.Error()
	case errors.Is(err, domain.ErrAuctionNotStarted):
		return "auction has not started yet"
	case errors.Is(err, domain.ErrAuctionOver):
		return "auction is already over"
	case errors.Is(err, domain.ErrStageRequired):
		return err.Error()
	case errors.Is(err, domain.ErrRateLimited):
		return "slow down, bids are rate limited"
	case errors.Is(err, domain.ErrDepositPending):
		return "deposit not confirmed yet, try again shortly"
	case errors.Is(err, domain.ErrBidRejected):
		return err.Error()
	default:
		return err.Error()
	}
}

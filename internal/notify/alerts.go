package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alanyoungcy/bidroom/internal/reconcile"
)

// RenderNotice turns a reconciliation notice into an alert. The event name
// doubles as the filter key in the notifier configuration.
func RenderNotice(n reconcile.Notice) (event, title, message string) {
	event = n.Kind.String()
	switch n.Kind {
	case reconcile.NoticeBidPlaced:
		return event, "Bid placed", fmt.Sprintf("Your bid of %s is the current high bid.", formatMoney(n.Amount))
	case reconcile.NoticeOutbid:
		return event, "You were outbid", fmt.Sprintf("%s raised to %s.", bidderOr(n.Bidder, "Another bidder"), formatMoney(n.Amount))
	case reconcile.NoticeNewBid:
		return event, "New bid", fmt.Sprintf("%s bid %s.", bidderOr(n.Bidder, "A bidder"), formatMoney(n.Amount))
	case reconcile.NoticeAuctionLive:
		return event, "Auction is live", "Bidding is now open."
	case reconcile.NoticeAuctionEnded:
		if n.Bidder != "" {
			return event, "Auction ended", fmt.Sprintf("Won by %s at %s.", n.Bidder, formatMoney(n.Amount))
		}
		return event, "Auction ended", "The auction has ended."
	case reconcile.NoticeYouWon:
		if n.OrderID != "" {
			return event, "You won!", fmt.Sprintf("Winning bid %s. Settlement order %s.", formatMoney(n.Amount), n.OrderID)
		}
		return event, "You won!", fmt.Sprintf("Winning bid %s.", formatMoney(n.Amount))
	case reconcile.NoticeNoWinner:
		return event, "No winner", "The reserve price was not met."
	case reconcile.NoticeConnectionLost:
		return event, "Live updates lost", "Could not restore the event feed. Shown values may be stale."
	default:
		return event, "Auction update", ""
	}
}

// Pump dispatches every notice from the channel until it closes or ctx is
// cancelled. Meant to run as its own goroutine next to the controller loop.
func (n *Notifier) Pump(ctx context.Context, notices <-chan reconcile.Notice) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case notice, ok := <-notices:
			if !ok {
				return nil
			}
			event, title, message := RenderNotice(notice)
			if err := n.Notify(ctx, event, title, message); err != nil {
				n.logger.WarnContext(ctx, "alert delivery failed",
					slog.String("event", event),
					slog.String("error", err.Error()),
				)
			}
		}
	}
}

func bidderOr(name, fallback string) string {
	if name == "" {
		return fallback
	}
	return name
}

// formatMoney renders a cent amount as a currency string.
func formatMoney(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s$%d.%02d", sign, cents/100, cents%100)
}

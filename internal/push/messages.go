package push

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/alanyoungcy/bidroom/internal/domain"
)

// command is an outbound control message: auth, join_room, leave_room.
type command struct {
	Type  string `json:"type"`
	Room  string `json:"room,omitempty"`
	Token string `json:"token,omitempty"`
}

// envelope is the outer shape of every inbound message.
type envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type userPayload struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type winningBidPayload struct {
	Amount     int64        `json:"amount"`
	User       *userPayload `json:"user,omitempty"`
	BidderName string       `json:"bidderName,omitempty"`
}

type newBidPayload struct {
	Amount     int64      `json:"amount"`
	BidderID   string     `json:"bidderId"`
	BidderName string     `json:"bidderName"`
	BidCount   int        `json:"bidCount"`
	EndsAt     *time.Time `json:"endsAt,omitempty"`
}

type statusPayload struct {
	Status          string             `json:"status"`
	ReservePriceMet *bool              `json:"reservePriceMet,omitempty"`
	Winner          *userPayload       `json:"winner,omitempty"`
	WinningBid      *winningBidPayload `json:"winningBid,omitempty"`
}

type endedPayload struct {
	ReservePriceMet bool               `json:"reservePriceMet"`
	Winner          *userPayload       `json:"winner,omitempty"`
	WinningBid      *winningBidPayload `json:"winningBid,omitempty"`
}

type wonPayload struct {
	OrderID string `json:"orderId"`
}

type statePayload struct {
	Status            string       `json:"status"`
	EndsAt            time.Time    `json:"endsAt"`
	CurrentBid        int64        `json:"currentBid"`
	CurrentBidderID   string       `json:"currentBidderId"`
	CurrentBidderName string       `json:"currentBidderName"`
	BidCount          int          `json:"bidCount"`
	ReservePriceMet   *bool        `json:"reservePriceMet,omitempty"`
	Winner            *userPayload `json:"winner,omitempty"`
}

// resolveWinner picks winner identity out of the loosely-typed event shapes.
// Precedence is fixed: the dedicated winner field, then the winning bid's
// user object, then the bare bidder name. First non-empty source wins.
func resolveWinner(w *userPayload, wb *winningBidPayload) *domain.Winner {
	if w != nil && (w.ID != "" || w.Name != "") {
		return &domain.Winner{UserID: w.ID, Name: w.Name}
	}
	if wb != nil {
		if wb.User != nil && (wb.User.ID != "" || wb.User.Name != "") {
			return &domain.Winner{UserID: wb.User.ID, Name: wb.User.Name}
		}
		if wb.BidderName != "" {
			return &domain.Winner{Name: wb.BidderName}
		}
	}
	return nil
}

// decodeEvent turns a raw inbound message into a domain event. Unknown types
// return (nil, nil) so the read loop can skip them without logging noise for
// every keepalive or future message kind.
func decodeEvent(raw []byte) (domain.Event, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("push: decode envelope: %w", err)
	}

	switch env.Type {
	case "new_bid":
		var p newBidPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return nil, fmt.Errorf("push: decode new_bid: %w", err)
		}
		return domain.BidAccepted{
			Amount:      p.Amount,
			BidderID:    p.BidderID,
			BidderLabel: p.BidderName,
			BidCount:    p.BidCount,
			NewEndAt:    p.EndsAt,
			Origin:      domain.OriginRemote,
		}, nil

	case "auction_status_changed":
		var p statusPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return nil, fmt.Errorf("push: decode auction_status_changed: %w", err)
		}
		return domain.LifecycleChanged{
			State:      domain.LifecycleState(p.Status),
			ReserveMet: p.ReservePriceMet,
			Winner:     resolveWinner(p.Winner, p.WinningBid),
		}, nil

	case "auction_ended":
		var p endedPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return nil, fmt.Errorf("push: decode auction_ended: %w", err)
		}
		return domain.AuctionEnded{
			Winner:     resolveWinner(p.Winner, p.WinningBid),
			ReserveMet: p.ReservePriceMet,
		}, nil

	case "auction_won":
		var p wonPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return nil, fmt.Errorf("push: decode auction_won: %w", err)
		}
		return domain.AuctionWon{OrderID: p.OrderID}, nil

	case "auction_state":
		var p statePayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return nil, fmt.Errorf("push: decode auction_state: %w", err)
		}
		reserve := domain.TriUnknown
		if p.ReservePriceMet != nil {
			reserve = domain.TriFalse
			if *p.ReservePriceMet {
				reserve = domain.TriTrue
			}
		}
		return domain.RoomSnapshot{
			State:       domain.LifecycleState(p.Status),
			EndAt:       p.EndsAt,
			Amount:      p.CurrentBid,
			BidderID:    p.CurrentBidderID,
			BidderLabel: p.CurrentBidderName,
			BidCount:    p.BidCount,
			ReserveMet:  reserve,
			Winner:      resolveWinner(p.Winner, nil),
		}, nil

	default:
		return nil, nil
	}
}

package push

import (
	"testing"

	"github.com/alanyoungcy/bidroom/internal/domain"
)

func TestResolveWinnerPrecedence(t *testing.T) {
	full := &userPayload{ID: "u1", Name: "alice"}
	viaBid := &winningBidPayload{User: &userPayload{ID: "u2", Name: "bob"}, BidderName: "bobby"}

	// Dedicated winner field beats everything.
	if w := resolveWinner(full, viaBid); w == nil || w.UserID != "u1" {
		t.Fatalf("winner = %+v, want u1", w)
	}
	// Then the winning bid's user object.
	if w := resolveWinner(nil, viaBid); w == nil || w.UserID != "u2" {
		t.Fatalf("winner = %+v, want u2", w)
	}
	// Then the bare bidder name, which carries no user ID.
	if w := resolveWinner(nil, &winningBidPayload{BidderName: "bobby"}); w == nil || w.Name != "bobby" || w.UserID != "" {
		t.Fatalf("winner = %+v, want name-only bobby", w)
	}
	// Empty shapes resolve to no winner at all.
	if w := resolveWinner(&userPayload{}, &winningBidPayload{}); w != nil {
		t.Fatalf("winner = %+v, want nil", w)
	}
}

func TestDecodeEvent(t *testing.T) {
	raw := []byte(`{"type":"auction_status_changed","data":{"status":"ended","reservePriceMet":false,"winningBid":{"amount":900,"bidderName":"bob"}}}`)
	ev, err := decodeEvent(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	lc, ok := ev.(domain.LifecycleChanged)
	if !ok {
		t.Fatalf("event = %T, want LifecycleChanged", ev)
	}
	if lc.State != domain.StateEnded || lc.ReserveMet == nil || *lc.ReserveMet {
		t.Fatalf("decoded = %+v", lc)
	}
	if lc.Winner == nil || lc.Winner.Name != "bob" {
		t.Fatalf("winner = %+v, want bob", lc.Winner)
	}

	raw = []byte(`{"type":"auction_won","data":{"orderId":"ord-9"}}`)
	ev, err = decodeEvent(raw)
	if err != nil {
		t.Fatalf("decode won: %v", err)
	}
	if won, ok := ev.(domain.AuctionWon); !ok || won.OrderID != "ord-9" {
		t.Fatalf("event = %#v, want AuctionWon ord-9", ev)
	}

	// Unknown types are skipped without error.
	ev, err = decodeEvent([]byte(`{"type":"presence","data":{}}`))
	if err != nil || ev != nil {
		t.Fatalf("unknown type: ev=%v err=%v", ev, err)
	}
}

package notify

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/alanyoungcy/bidroom/internal/reconcile"
)

func TestRenderNotice(t *testing.T) {
	tests := []struct {
		name      string
		notice    reconcile.Notice
		wantEvent string
		wantIn    string
	}{
		{
			name:      "bid placed",
			notice:    reconcile.Notice{Kind: reconcile.NoticeBidPlaced, Amount: 60050},
			wantEvent: "bid_placed",
			wantIn:    "$600.50",
		},
		{
			name:      "outbid names the rival",
			notice:    reconcile.Notice{Kind: reconcile.NoticeOutbid, Amount: 70000, Bidder: "Dana"},
			wantEvent: "outbid",
			wantIn:    "Dana",
		},
		{
			name:      "won carries the order id",
			notice:    reconcile.Notice{Kind: reconcile.NoticeYouWon, Amount: 70000, OrderID: "ord-9"},
			wantEvent: "auction_won",
			wantIn:    "ord-9",
		},
		{
			name:      "no winner explains the reserve",
			notice:    reconcile.Notice{Kind: reconcile.NoticeNoWinner},
			wantEvent: "no_winner",
			wantIn:    "reserve",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event, title, message := RenderNotice(tt.notice)
			if event != tt.wantEvent {
				t.Errorf("event = %q, want %q", event, tt.wantEvent)
			}
			if !strings.Contains(title+" "+message, tt.wantIn) {
				t.Errorf("rendered %q / %q, want it to mention %q", title, message, tt.wantIn)
			}
		})
	}
}

func TestNotifierFiltersEvents(t *testing.T) {
	var buf bytes.Buffer
	sender := NewTerminalSender(&buf)
	n := NewNotifier([]Sender{sender}, []string{"outbid"}, slog.Default())

	ctx := context.Background()
	if err := n.Notify(ctx, "new_bid", "New bid", "ignored"); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if err := n.Notify(ctx, "outbid", "You were outbid", "delivered"); err != nil {
		t.Fatalf("Notify: %v", err)
	}

	out := buf.String()
	if strings.Contains(out, "ignored") {
		t.Errorf("filtered event was delivered: %q", out)
	}
	if !strings.Contains(out, "delivered") {
		t.Errorf("allowed event was not delivered: %q", out)
	}
}

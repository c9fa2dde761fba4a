package market

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alanyoungcy/bidroom/internal/domain"
)

func TestGetAuctionSeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auctions/a1" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("unexpected auth header %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "a1",
			"title": "Vintage camera",
			"status": "live",
			"startDate": "2026-08-30T10:00:00Z",
			"endDate": "2026-08-31T10:00:00Z",
			"bidIncrement": 500,
			"currentBid": 12000,
			"currentBidderId": "u2",
			"currentBidderName": "Dana",
			"bidCount": 7
		}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok")
	auction, bid, count, err := c.GetAuctionSeed(context.Background(), "a1")
	if err != nil {
		t.Fatalf("GetAuctionSeed: %v", err)
	}
	if auction.State != domain.StateLive {
		t.Errorf("state = %s, want live", auction.State)
	}
	if bid.Amount != 12000 || bid.BidderID != "u2" {
		t.Errorf("seed bid = %+v", bid)
	}
	if count != 7 {
		t.Errorf("bid count = %d, want 7", count)
	}
}

func TestPlaceBidRejectionKeepsServerReason(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "bid amount too low"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok")
	_, err := c.PlaceBid(context.Background(), "a1", 11000, "ref-1")
	if !errors.Is(err, domain.ErrBidRejected) {
		t.Fatalf("err = %v, want ErrBidRejected", err)
	}
	if !strings.Contains(err.Error(), "bid amount too low") {
		t.Errorf("err %q does not carry the server reason", err)
	}
}

func TestPlaceBidServerErrorIsNotRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	_, err := c.PlaceBid(context.Background(), "a1", 11000, "ref-1")
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, domain.ErrBidRejected) {
		t.Errorf("5xx should not map to ErrBidRejected: %v", err)
	}
}

func TestGetAuctionNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	_, err := c.GetAuction(context.Background(), "missing")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestCheckDepositStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]bool{"alreadyPaid": true})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok")
	paid, err := c.CheckDepositStatus(context.Background(), "a1")
	if err != nil {
		t.Fatalf("CheckDepositStatus: %v", err)
	}
	if !paid {
		t.Error("paid = false, want true")
	}
}

// Package market is the REST client for the marketplace API. It covers the
// five calls the auction view needs: auction fetch, bid placement, deposit
// initiation, deposit status, and similar products. All calls are plain
// request/response; retry policy belongs to the caller.
package market

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/alanyoungcy/bidroom/internal/domain"
)

// rejectionError carries the server's status and reason for a non-2xx reply.
type rejectionError struct {
	status int
	reason string
}

func (e *rejectionError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.status, e.reason)
}

// Client talks to the marketplace REST API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a marketplace client.
//
// baseURL is the API root, e.g. "https://api.example.com/v1". token is the
// session token; empty is fine for anonymous reads.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// GetAuction fetches the authoritative auction projection.
func (c *Client) GetAuction(ctx context.Context, auctionID string) (domain.Auction, error) {
	respBody, err := c.doRequest(ctx, http.MethodGet, "/auctions/"+auctionID, nil)
	if err != nil {
		return domain.Auction{}, fmt.Errorf("market: get auction %s: %w", auctionID, err)
	}

	var api APIAuction
	if err := json.Unmarshal(respBody, &api); err != nil {
		return domain.Auction{}, fmt.Errorf("market: decode auction: %w", err)
	}
	return api.ToDomain(), nil
}

// GetAuctionSeed fetches the auction together with the current-bid seed for
// the local ledger.
func (c *Client) GetAuctionSeed(ctx context.Context, auctionID string) (domain.Auction, domain.Bid, int, error) {
	respBody, err := c.doRequest(ctx, http.MethodGet, "/auctions/"+auctionID, nil)
	if err != nil {
		return domain.Auction{}, domain.Bid{}, 0, fmt.Errorf("market: get auction %s: %w", auctionID, err)
	}

	var api APIAuction
	if err := json.Unmarshal(respBody, &api); err != nil {
		return domain.Auction{}, domain.Bid{}, 0, fmt.Errorf("market: decode auction: %w", err)
	}
	return api.ToDomain(), api.CurrentBidView(), api.BidCount, nil
}

// PlaceBid submits a bid. A server-side rejection (someone else's bid landed
// first, auction closed meanwhile) comes back wrapping
// domain.ErrBidRejected with the server's reason verbatim.
func (c *Client) PlaceBid(ctx context.Context, auctionID string, amount int64, clientRef string) (domain.Bid, error) {
	body := map[string]any{
		"amount":    amount,
		"clientRef": clientRef,
	}

	respBody, err := c.doRequest(ctx, http.MethodPost, "/auctions/"+auctionID+"/bids", body)
	if err != nil {
		var rej *rejectionError
		if errors.As(err, &rej) && rej.status < 500 {
			return domain.Bid{}, fmt.Errorf("market: %s: %w", rej.reason, domain.ErrBidRejected)
		}
		return domain.Bid{}, fmt.Errorf("market: place bid on %s: %w", auctionID, err)
	}

	var api APIBid
	if err := json.Unmarshal(respBody, &api); err != nil {
		return domain.Bid{}, fmt.Errorf("market: decode bid: %w", err)
	}
	return api.ToDomain(), nil
}

// PayDeposit initiates the deposit payment and returns the hand-off handle.
func (c *Client) PayDeposit(ctx context.Context, auctionID string) (domain.PaymentHandle, error) {
	respBody, err := c.doRequest(ctx, http.MethodPost, "/auctions/"+auctionID+"/deposit", nil)
	if err != nil {
		return domain.PaymentHandle{}, fmt.Errorf("market: pay deposit for %s: %w", auctionID, err)
	}

	var api APIPayment
	if err := json.Unmarshal(respBody, &api); err != nil {
		return domain.PaymentHandle{}, fmt.Errorf("market: decode payment: %w", err)
	}
	return api.ToDomain(), nil
}

// CheckDepositStatus reports whether the deposit has cleared for the current
// session.
func (c *Client) CheckDepositStatus(ctx context.Context, auctionID string) (bool, error) {
	respBody, err := c.doRequest(ctx, http.MethodGet, "/auctions/"+auctionID+"/deposit", nil)
	if err != nil {
		return false, fmt.Errorf("market: deposit status for %s: %w", auctionID, err)
	}

	var status struct {
		AlreadyPaid bool `json:"alreadyPaid"`
	}
	if err := json.Unmarshal(respBody, &status); err != nil {
		return false, fmt.Errorf("market: decode deposit status: %w", err)
	}
	return status.AlreadyPaid, nil
}

// GetSimilarProducts returns up to limit catalogue entries related to the
// auctioned item.
func (c *Client) GetSimilarProducts(ctx context.Context, auctionID string, limit int) ([]domain.Product, error) {
	path := fmt.Sprintf("/auctions/%s/similar?limit=%d", auctionID, limit)
	respBody, err := c.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, fmt.Errorf("market: similar products for %s: %w", auctionID, err)
	}

	var apis []APIProduct
	if err := json.Unmarshal(respBody, &apis); err != nil {
		return nil, fmt.Errorf("market: decode products: %w", err)
	}

	products := make([]domain.Product, 0, len(apis))
	for i := range apis {
		products = append(products, apis[i].ToDomain())
	}
	return products, nil
}

// doRequest performs one HTTP exchange and returns the response body.
// Non-2xx replies come back as *rejectionError with the server's reason.
func (c *Client) doRequest(ctx context.Context, method, path string, body any) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, domain.ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr apiError
		reason := ""
		if err := json.Unmarshal(respBody, &apiErr); err == nil {
			reason = apiErr.reason()
		}
		if reason == "" {
			reason = http.StatusText(resp.StatusCode)
		}
		return nil, &rejectionError{status: resp.StatusCode, reason: reason}
	}

	return respBody, nil
}

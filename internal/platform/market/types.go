package market

import (
	"time"

	"github.com/alanyoungcy/bidroom/internal/domain"
)

// APIAuction is the wire shape of an auction returned by the marketplace.
type APIAuction struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Status          string    `json:"status"`
	StartDate       time.Time `json:"startDate"`
	EndDate         time.Time `json:"endDate"`
	ReservePrice    *int64    `json:"reservePrice,omitempty"`
	ReservePriceMet *bool     `json:"reservePriceMet,omitempty"`
	BidIncrement    int64     `json:"bidIncrement"`
	DepositAmount   int64     `json:"depositAmount"`
	CurrentBid      int64     `json:"currentBid"`
	CurrentBidderID string    `json:"currentBidderId"`
	CurrentBidder   string    `json:"currentBidderName"`
	BidCount        int       `json:"bidCount"`
	WinnerID        string    `json:"winnerId,omitempty"`
	WinnerName      string    `json:"winnerName,omitempty"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// ToDomain converts the wire auction to the client projection.
func (a *APIAuction) ToDomain() domain.Auction {
	reserve := domain.TriUnknown
	if a.ReservePriceMet != nil {
		reserve = domain.TriFalse
		if *a.ReservePriceMet {
			reserve = domain.TriTrue
		}
	}

	var winner *domain.Winner
	if a.WinnerID != "" || a.WinnerName != "" {
		winner = &domain.Winner{UserID: a.WinnerID, Name: a.WinnerName}
	}

	return domain.Auction{
		ID:            a.ID,
		Title:         a.Title,
		State:         domain.LifecycleState(a.Status),
		StartAt:       a.StartDate,
		EndAt:         a.EndDate,
		ReservePrice:  a.ReservePrice,
		ReserveMet:    reserve,
		MinIncrement:  a.BidIncrement,
		DepositAmount: a.DepositAmount,
		Winner:        winner,
		UpdatedAt:     a.UpdatedAt,
	}
}

// CurrentBidView extracts the winning-bid seed for the local ledger.
func (a *APIAuction) CurrentBidView() domain.Bid {
	return domain.Bid{
		Amount:      a.CurrentBid,
		BidderID:    a.CurrentBidderID,
		BidderLabel: a.CurrentBidder,
		Winning:     true,
	}
}

// APIBid is the wire shape of an accepted bid.
type APIBid struct {
	Amount     int64     `json:"amount"`
	BidderID   string    `json:"bidderId"`
	BidderName string    `json:"bidderName"`
	CreatedAt  time.Time `json:"createdAt"`
	Winning    bool      `json:"winning"`
}

// ToDomain converts the wire bid.
func (b *APIBid) ToDomain() domain.Bid {
	return domain.Bid{
		Amount:      b.Amount,
		BidderID:    b.BidderID,
		BidderLabel: b.BidderName,
		CreatedAt:   b.CreatedAt,
		Winning:     b.Winning,
	}
}

// APIPayment is the wire shape of a deposit payment initiation.
type APIPayment struct {
	PaymentID string `json:"paymentId"`
	URL       string `json:"url"`
	Amount    int64  `json:"amount"`
}

// ToDomain converts the wire payment handle.
func (p *APIPayment) ToDomain() domain.PaymentHandle {
	return domain.PaymentHandle{ID: p.PaymentID, URL: p.URL, Amount: p.Amount}
}

// APIProduct is one similar-products catalogue entry.
type APIProduct struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Price    int64  `json:"price"`
	ImageURL string `json:"imageUrl"`
}

// ToDomain converts the wire product.
func (p *APIProduct) ToDomain() domain.Product {
	return domain.Product{ID: p.ID, Title: p.Title, Price: p.Price, ImageURL: p.ImageURL}
}

// apiError is the error body the marketplace returns on rejections.
type apiError struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func (e *apiError) reason() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Error
}

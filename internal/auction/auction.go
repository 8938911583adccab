package auction

import (
	"errors"
	"fmt"
	"time"
)

// Status is the single authoritative lifecycle state of an auction.
// EXTENDED behaves exactly like ACTIVE for bid acceptance; it only signals
// that an anti-snipe extension occurred. ENDED is terminal.
type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusExtended Status = "EXTENDED"
	StatusEnded    Status = "ENDED"
)

// Open reports whether the auction still accepts bids (end date permitting).
func (s Status) Open() bool { return s == StatusActive || s == StatusExtended }

type Auction struct {
	ID            string  `json:"id"`
	ListingID     string  `json:"listing_id"`
	ReservePrice  float64 `json:"reserve_price"`
	StartingPrice float64 `json:"starting_price"`
	CurrentPrice  float64 `json:"current_price"`

	// IncrementHint is a creation-time display default. Resolution never
	// reads it; the effective increment is always recomputed from the
	// tier table.
	IncrementHint float64 `json:"increment_hint"`

	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`

	// HardCloseDate bounds anti-snipe extensions. Zero means unbounded.
	HardCloseDate time.Time `json:"hard_close_date"`

	Status          Status `json:"status"`
	ReservePriceMet bool   `json:"reserve_price_met"`
	WinnerID        string `json:"winner_id,omitempty"`

	// TotalBids counts externally submitted bids. System counter-bids are
	// recorded in the ledger but not counted here, so the ledger may hold
	// more rows than TotalBids.
	TotalBids int `json:"total_bids"`

	AntiSniping bool `json:"anti_sniping"`
}

type Bid struct {
	ID        string  `json:"id"`
	AuctionID string  `json:"auction_id"`
	BidderID  string  `json:"bidder_id"`
	Amount    float64 `json:"amount"`

	// MaxAmount is the proxy ceiling authorising system counter-bids on the
	// bidder's behalf. Zero means a purely manual bid.
	MaxAmount float64 `json:"max_amount,omitempty"`

	IsAutoBid bool      `json:"is_auto_bid"`
	IsWinning bool      `json:"is_winning"`
	PlacedAt  time.Time `json:"placed_at"`
}

// HasCeiling reports whether a proxy ceiling is defending this bid.
func (b *Bid) HasCeiling() bool { return b != nil && b.MaxAmount > 0 }

var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrAuctionNotFound = errors.New("auction not found")
	ErrBidderNotFound  = errors.New("bidder not found")
	ErrAuctionNotOpen  = errors.New("auction not open for bidding")
	ErrAuctionEnded    = errors.New("auction ended")
	ErrSellerCannotBid = errors.New("seller cannot bid on own listing")
	ErrBidTooLow       = errors.New("bid below minimum")
)

// BidTooLowError carries the minimum acceptable amount so callers can tell
// the bidder what to offer next.
type BidTooLowError struct {
	Minimum float64
}

func (e *BidTooLowError) Error() string {
	return fmt.Sprintf("bid below minimum, minimum is %.2f", e.Minimum)
}

func (e *BidTooLowError) Unwrap() error { return ErrBidTooLow }

package ws

import (
	"encoding/json"

	"consignbid/internal/auction"
)

// Envelope wraps every WS frame.
type Envelope struct {
	Event string          `json:"event"`          // e.g. "auctions/bid"
	Body  json.RawMessage `json:"body,omitempty"` // arbitrary JSON object
}

// BidRequest is the body for "auctions/bid". MaxAmount authorises proxy
// counter-bidding up to that ceiling.
type BidRequest struct {
	Amount    float64 `json:"amount"     validate:"gt=0"`
	MaxAmount float64 `json:"max_amount" validate:"omitempty,gtefield=Amount"`
}

// BidAck tells the bidder where the auction landed after resolution: when
// Countered is true a defending proxy ceiling held and someone else is still
// winning.
type BidAck struct {
	WinningBidderID string  `json:"winning_bidder_id"`
	CurrentPrice    float64 `json:"current_price"`
	Countered       bool    `json:"countered"`
}

// NextBidRequest is the (empty) body for "auctions/next-bid".
type NextBidRequest struct{}

type NextBidResponse struct {
	Minimum float64 `json:"minimum"`
}

// SnapshotBody is pushed once when a client joins an auction room.
type SnapshotBody struct {
	Auction    *auction.Auction `json:"auction"`
	WinningBid *auction.Bid     `json:"winning_bid,omitempty"`
}

// ErrorBody is returned for failures. Minimum is set when a bid was rejected
// as too low.
type ErrorBody struct {
	Error   string  `json:"error"`
	Minimum float64 `json:"minimum,omitempty"`
}

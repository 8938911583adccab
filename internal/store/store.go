// Package store defines the persistence interfaces the bidding engine writes
// through: the auction summary store and the append-only bid ledger.
package store

import (
	"context"
	"time"

	"consignbid/internal/auction"
)

type AuctionStore interface {
	// CreateAuction inserts a new auction row. A second auction for the
	// same listing fails with auction.ErrInvalidArgument.
	CreateAuction(ctx context.Context, a *auction.Auction) error

	// Auction returns auction.ErrAuctionNotFound when the id is unknown.
	Auction(ctx context.Context, id string) (*auction.Auction, error)

	// AuctionByListing returns (nil, nil) when no auction exists for the
	// listing.
	AuctionByListing(ctx context.Context, listingID string) (*auction.Auction, error)

	// ListAuctions pages auctions, optionally filtered by status
	// (empty = all), newest end date first.
	ListAuctions(ctx context.Context, status auction.Status, limit, offset int) ([]auction.Auction, error)

	// ExpiredAuctionIDs returns up to limit open auctions whose end date has
	// passed. The query is bounded by status + end date, not a full scan.
	ExpiredAuctionIDs(ctx context.Context, now time.Time, limit int) ([]string, error)

	// EndAuction moves an open, expired auction to ENDED. Returns false when
	// the auction was already ended or is not yet expired, which makes the
	// sweep idempotent.
	EndAuction(ctx context.Context, id string, now time.Time) (bool, error)
}

type BidLedger interface {
	// WinningBid returns (nil, nil) before the first bid.
	WinningBid(ctx context.Context, auctionID string) (*auction.Bid, error)

	// Bids pages the ledger for an auction, newest first.
	Bids(ctx context.Context, auctionID string, limit, offset int) ([]auction.Bid, error)
}

// Store is the combined persistence surface of the engine. CommitResolution
// applies one resolution as a single atomic unit: dethrone the previous
// winner, append the challenger bid and any counter-bid, and update the
// auction summary row.
type Store interface {
	AuctionStore
	BidLedger
	CommitResolution(ctx context.Context, a *auction.Auction, out *auction.Outcome) error
}

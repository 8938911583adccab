// Package bidding is the auction bidding engine: it accepts competing bids,
// resolves proxy ceilings, tracks reserve satisfaction, applies anti-snipe
// extensions and closes expired auctions. All mutations for one auction are
// serialized behind a per-auction lock and committed atomically through the
// store.
package bidding

import (
	"context"
	"fmt"
	"time"

	"consignbid/internal/auction"
	"consignbid/internal/locks"
	"consignbid/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// startingPriceFactor derives the default starting price from the
	// seller's desired (reserve) price.
	startingPriceFactor = 0.90

	defaultAuctionDuration = 7 * 24 * time.Hour

	// sweepBatch bounds one expired-auction sweep.
	sweepBatch = 500
)

type CreateAuctionParams struct {
	ListingID     string
	DesiredPrice  float64
	StartingPrice float64 // optional; 0 = derive from DesiredPrice
	IncrementHint float64 // optional display hint
	AntiSniping   bool
}

type IBiddingService interface {
	CreateAuction(ctx context.Context, p CreateAuctionParams) (*auction.Auction, error)
	PlaceBid(ctx context.Context, auctionID, bidderID string, amount, maxAmount float64) (*auction.Bid, error)
	Auction(ctx context.Context, id string) (*auction.Auction, error)
	ListAuctions(ctx context.Context, status auction.Status, limit, offset int) ([]auction.Auction, error)
	WinningBid(ctx context.Context, auctionID string) (*auction.Bid, error)
	NextMinimumBid(ctx context.Context, auctionID string) (float64, error)
	BidHistory(ctx context.Context, auctionID string, limit, offset int) ([]auction.Bid, error)
	CloseExpiredAuctions(ctx context.Context, now time.Time) (int, error)
}

// ListingDirectory resolves listing ownership, to reject seller self-bids and
// to address new-bid notifications.
type ListingDirectory interface {
	ListingOwner(ctx context.Context, listingID string) (owner string, ok bool, err error)
}

type BidderDirectory interface {
	BidderExists(ctx context.Context, bidderID string) (bool, error)
}

// Notifier is a best-effort sink: implementations log and swallow failures,
// they never make a committed bid fail.
type Notifier interface {
	NotifyNewBid(ctx context.Context, ownerID, auctionID, bidderID string, amount float64)
	NotifyOutbid(ctx context.Context, bidderID, auctionID string, newAmount float64)
	NotifyExtended(ctx context.Context, auctionID string, endDate time.Time)
	NotifyEnded(ctx context.Context, auctionID, winnerID string, finalPrice float64, reserveMet bool)
}

type Deps struct {
	Store    store.Store
	Listings ListingDirectory
	Bidders  BidderDirectory
	Notifier Notifier

	AuctionDuration time.Duration // default 7 days
	HardCloseAfter  time.Duration // default 2 × AuctionDuration
	Now             func() time.Time
}

type biddingService struct {
	store    store.Store
	listings ListingDirectory
	bidders  BidderDirectory
	notifier Notifier

	duration  time.Duration
	hardClose time.Duration
	now       func() time.Time

	locks *locks.Keyed
}

func New(d Deps) IBiddingService {
	if d.AuctionDuration <= 0 {
		d.AuctionDuration = defaultAuctionDuration
	}
	if d.HardCloseAfter <= 0 {
		d.HardCloseAfter = 2 * d.AuctionDuration
	}
	if d.Now == nil {
		d.Now = func() time.Time { return time.Now().UTC() }
	}
	return &biddingService{
		store:     d.Store,
		listings:  d.Listings,
		bidders:   d.Bidders,
		notifier:  d.Notifier,
		duration:  d.AuctionDuration,
		hardClose: d.HardCloseAfter,
		now:       d.Now,
		locks:     locks.NewKeyed(),
	}
}

func (svc *biddingService) CreateAuction(ctx context.Context, p CreateAuctionParams) (*auction.Auction, error) {
	if p.DesiredPrice <= 0 {
		return nil, fmt.Errorf("%w: desired price must be positive", auction.ErrInvalidArgument)
	}
	if _, ok, err := svc.listings.ListingOwner(ctx, p.ListingID); err != nil {
		return nil, err
	} else if !ok {
		return nil, fmt.Errorf("%w: listing %s does not exist", auction.ErrInvalidArgument, p.ListingID)
	}
	if ex, err := svc.store.AuctionByListing(ctx, p.ListingID); err != nil {
		return nil, err
	} else if ex != nil {
		return nil, fmt.Errorf("%w: auction already exists for listing %s", auction.ErrInvalidArgument, p.ListingID)
	}

	starting := p.StartingPrice
	if starting <= 0 {
		starting = p.DesiredPrice * startingPriceFactor
	}
	hint := p.IncrementHint
	if hint <= 0 {
		hint = auction.Increment(starting)
	}

	now := svc.now()
	a := &auction.Auction{
		ID:            uuid.NewString(),
		ListingID:     p.ListingID,
		ReservePrice:  p.DesiredPrice,
		StartingPrice: starting,
		CurrentPrice:  starting,
		IncrementHint: hint,
		StartDate:     now,
		EndDate:       now.Add(svc.duration),
		HardCloseDate: now.Add(svc.hardClose),
		Status:        auction.StatusActive,
		AntiSniping:   p.AntiSniping,
	}
	if err := svc.store.CreateAuction(ctx, a); err != nil {
		return nil, err
	}
	zap.L().Info("auction_created",
		zap.String("auction_id", a.ID),
		zap.String("listing_id", a.ListingID),
		zap.Float64("starting_price", a.StartingPrice))
	return a, nil
}

// PlaceBid resolves one challenger bid. Preconditions are checked before any
// mutation; the resolution itself is committed as a single unit per auction.
func (svc *biddingService) PlaceBid(ctx context.Context, auctionID, bidderID string, amount, maxAmount float64) (*auction.Bid, error) {
	unlock := svc.locks.Lock(auctionID)
	defer unlock()

	a, err := svc.store.Auction(ctx, auctionID)
	if err != nil {
		return nil, err
	}
	if ok, err := svc.bidders.BidderExists(ctx, bidderID); err != nil {
		return nil, err
	} else if !ok {
		return nil, auction.ErrBidderNotFound
	}
	owner, _, err := svc.listings.ListingOwner(ctx, a.ListingID)
	if err != nil {
		return nil, err
	}
	if owner == bidderID {
		return nil, auction.ErrSellerCannotBid
	}

	now := svc.now()
	if !a.Status.Open() {
		return nil, auction.ErrAuctionNotOpen
	}
	if !now.Before(a.EndDate) {
		return nil, auction.ErrAuctionEnded
	}
	min := auction.MinimumNextBid(a.CurrentPrice)
	if amount < min {
		return nil, &auction.BidTooLowError{Minimum: min}
	}
	if maxAmount > 0 && maxAmount < amount {
		return nil, fmt.Errorf("%w: max amount below bid amount", auction.ErrInvalidArgument)
	}

	current, err := svc.store.WinningBid(ctx, auctionID)
	if err != nil {
		return nil, err
	}

	out := auction.Resolve(a, current, auction.Request{
		BidID:        uuid.NewString(),
		CounterBidID: uuid.NewString(),
		BidderID:     bidderID,
		Amount:       amount,
		MaxAmount:    maxAmount,
		PlacedAt:     now,
	})
	if err := svc.store.CommitResolution(ctx, a, &out); err != nil {
		return nil, err
	}

	// Committed; everything below is best-effort.
	if owner != "" {
		svc.notifier.NotifyNewBid(ctx, owner, auctionID, bidderID, out.Challenger.Amount)
	}
	if out.OutbidBidderID != "" {
		svc.notifier.NotifyOutbid(ctx, out.OutbidBidderID, auctionID, a.CurrentPrice)
	}
	if out.Extended {
		svc.notifier.NotifyExtended(ctx, auctionID, a.EndDate)
	}

	win := *out.Winning()
	zap.L().Info("bid_resolved",
		zap.String("auction_id", auctionID),
		zap.String("bidder_id", bidderID),
		zap.Float64("current_price", a.CurrentPrice),
		zap.Bool("countered", out.AutoBid != nil),
		zap.Bool("extended", out.Extended))
	return &win, nil
}

func (svc *biddingService) Auction(ctx context.Context, id string) (*auction.Auction, error) {
	return svc.store.Auction(ctx, id)
}

func (svc *biddingService) ListAuctions(ctx context.Context, status auction.Status, limit, offset int) ([]auction.Auction, error) {
	return svc.store.ListAuctions(ctx, status, limit, offset)
}

func (svc *biddingService) WinningBid(ctx context.Context, auctionID string) (*auction.Bid, error) {
	if _, err := svc.store.Auction(ctx, auctionID); err != nil {
		return nil, err
	}
	return svc.store.WinningBid(ctx, auctionID)
}

func (svc *biddingService) NextMinimumBid(ctx context.Context, auctionID string) (float64, error) {
	a, err := svc.store.Auction(ctx, auctionID)
	if err != nil {
		return 0, err
	}
	return auction.MinimumNextBid(a.CurrentPrice), nil
}

func (svc *biddingService) BidHistory(ctx context.Context, auctionID string, limit, offset int) ([]auction.Bid, error) {
	if _, err := svc.store.Auction(ctx, auctionID); err != nil {
		return nil, err
	}
	return svc.store.Bids(ctx, auctionID, limit, offset)
}

// CloseExpiredAuctions moves every open auction whose end date has passed to
// ENDED. A failure on one auction is logged and skipped; the next sweep
// retries it. Idempotent: already-ended auctions are not counted again.
func (svc *biddingService) CloseExpiredAuctions(ctx context.Context, now time.Time) (int, error) {
	ids, err := svc.store.ExpiredAuctionIDs(ctx, now, sweepBatch)
	if err != nil {
		return 0, err
	}

	closed := 0
	for _, id := range ids {
		ok, err := svc.closeOne(ctx, id, now)
		if err != nil {
			zap.L().Error("auction_close_failed", zap.String("auction_id", id), zap.Error(err))
			continue
		}
		if ok {
			closed++
		}
	}
	return closed, nil
}

// closeOne takes the same per-auction lock as PlaceBid so closing never races
// an in-flight resolution. ok is false when a bid inside the closing window
// extended the auction, or another sweep already closed it.
func (svc *biddingService) closeOne(ctx context.Context, id string, now time.Time) (bool, error) {
	unlock := svc.locks.Lock(id)
	defer unlock()

	ok, err := svc.store.EndAuction(ctx, id, now)
	if err != nil || !ok {
		return false, err
	}

	a, err := svc.store.Auction(ctx, id)
	if err != nil {
		return true, nil // closed fine, snapshot for the notification is lost
	}
	svc.notifier.NotifyEnded(ctx, id, a.WinnerID, a.CurrentPrice, a.ReservePriceMet)
	zap.L().Info("auction_ended",
		zap.String("auction_id", id),
		zap.String("winner_id", a.WinnerID),
		zap.Float64("final_price", a.CurrentPrice),
		zap.Bool("reserve_met", a.ReservePriceMet))
	return true, nil
}

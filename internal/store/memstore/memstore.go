// Package memstore is a mutex-guarded in-memory Store. It backs the engine's
// unit and concurrency tests so they run without Postgres; the production
// wiring uses pgstore.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"consignbid/internal/auction"
)

type Store struct {
	mu       sync.Mutex
	auctions map[string]*auction.Auction
	bids     map[string][]*auction.Bid // auctionID -> ledger, append order
}

func New() *Store {
	return &Store{
		auctions: make(map[string]*auction.Auction),
		bids:     make(map[string][]*auction.Bid),
	}
}

func (s *Store) CreateAuction(_ context.Context, a *auction.Auction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ex := range s.auctions {
		if ex.ListingID == a.ListingID {
			return fmt.Errorf("%w: auction already exists for listing %s",
				auction.ErrInvalidArgument, a.ListingID)
		}
	}
	cp := *a
	s.auctions[a.ID] = &cp
	return nil
}

func (s *Store) Auction(_ context.Context, id string) (*auction.Auction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.auctions[id]
	if !ok {
		return nil, auction.ErrAuctionNotFound
	}
	cp := *a
	return &cp, nil
}

func (s *Store) AuctionByListing(_ context.Context, listingID string) (*auction.Auction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.auctions {
		if a.ListingID == listingID {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *Store) ListAuctions(_ context.Context, status auction.Status, limit, offset int) ([]auction.Auction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if limit == 0 {
		limit = 10
	}
	var list []auction.Auction
	for _, a := range s.auctions {
		if status == "" || a.Status == status {
			list = append(list, *a)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].EndDate.After(list[j].EndDate) })
	if offset >= len(list) {
		return nil, nil
	}
	list = list[offset:]
	if len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

func (s *Store) ExpiredAuctionIDs(_ context.Context, now time.Time, limit int) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []string
	for id, a := range s.auctions {
		if a.Status.Open() && a.EndDate.Before(now) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	if len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

func (s *Store) EndAuction(_ context.Context, id string, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.auctions[id]
	if !ok || !a.Status.Open() || !a.EndDate.Before(now) {
		return false, nil
	}
	a.Status = auction.StatusEnded
	return true, nil
}

func (s *Store) WinningBid(_ context.Context, auctionID string) (*auction.Bid, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.bids[auctionID] {
		if b.IsWinning {
			cp := *b
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *Store) Bids(_ context.Context, auctionID string, limit, offset int) ([]auction.Bid, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if limit == 0 {
		limit = 50
	}
	ledger := s.bids[auctionID]
	list := make([]auction.Bid, 0, len(ledger))
	for i := len(ledger) - 1; i >= 0; i-- { // newest first
		list = append(list, *ledger[i])
	}
	if offset >= len(list) {
		return nil, nil
	}
	list = list[offset:]
	if len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

func (s *Store) CommitResolution(_ context.Context, a *auction.Auction, out *auction.Outcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if out.DethronedBidID != "" {
		for _, b := range s.bids[a.ID] {
			if b.ID == out.DethronedBidID {
				b.IsWinning = false
			}
		}
	}
	c := out.Challenger
	s.bids[a.ID] = append(s.bids[a.ID], &c)
	if out.AutoBid != nil {
		ab := *out.AutoBid
		s.bids[a.ID] = append(s.bids[a.ID], &ab)
	}

	cur := s.auctions[a.ID]
	cur.CurrentPrice = a.CurrentPrice
	cur.WinnerID = a.WinnerID
	cur.TotalBids = a.TotalBids
	cur.ReservePriceMet = a.ReservePriceMet
	cur.EndDate = a.EndDate
	cur.Status = a.Status
	return nil
}

// Package pgstore is the Postgres implementation of the engine's auction
// store and bid ledger.
package pgstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"consignbid/internal/auction"

	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store { return &Store{db: db} }

const auctionColumns = `id, listing_id, reserve_price, starting_price, current_price,
       increment_hint, start_date, end_date, hard_close_date,
       status, reserve_met, coalesce(winner_id,''), total_bids, anti_sniping`

func scanAuction(row interface{ Scan(...any) error }) (*auction.Auction, error) {
	a := &auction.Auction{}
	err := row.Scan(&a.ID, &a.ListingID, &a.ReservePrice, &a.StartingPrice, &a.CurrentPrice,
		&a.IncrementHint, &a.StartDate, &a.EndDate, &a.HardCloseDate,
		&a.Status, &a.ReservePriceMet, &a.WinnerID, &a.TotalBids, &a.AntiSniping)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Store) CreateAuction(ctx context.Context, a *auction.Auction) error {
	const q = `
	  INSERT INTO auctions (id, listing_id, reserve_price, starting_price, current_price,
	                        increment_hint, start_date, end_date, hard_close_date,
	                        status, reserve_met, total_bids, anti_sniping)
	       VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`
	_, err := s.db.ExecContext(ctx, q,
		a.ID, a.ListingID, a.ReservePrice, a.StartingPrice, a.CurrentPrice,
		a.IncrementHint, a.StartDate, a.EndDate, a.HardCloseDate,
		a.Status, a.ReservePriceMet, a.TotalBids, a.AntiSniping)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%w: auction already exists for listing %s", auction.ErrInvalidArgument, a.ListingID)
	}
	return err
}

func (s *Store) Auction(ctx context.Context, id string) (*auction.Auction, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+auctionColumns+` FROM auctions WHERE id = $1`, id)
	a, err := scanAuction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, auction.ErrAuctionNotFound
	}
	return a, err
}

func (s *Store) AuctionByListing(ctx context.Context, listingID string) (*auction.Auction, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+auctionColumns+` FROM auctions WHERE listing_id = $1`, listingID)
	a, err := scanAuction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return a, err
}

func (s *Store) ListAuctions(ctx context.Context, status auction.Status, limit, offset int) ([]auction.Auction, error) {
	if limit == 0 {
		limit = 10
	}
	var (
		rows *sql.Rows
		err  error
	)
	base := `SELECT ` + auctionColumns + ` FROM auctions`
	if status != "" {
		rows, err = s.db.QueryContext(ctx,
			base+` WHERE status = $1 ORDER BY end_date DESC LIMIT $2 OFFSET $3`,
			status, limit, offset)
	} else {
		rows, err = s.db.QueryContext(ctx,
			base+` ORDER BY end_date DESC LIMIT $1 OFFSET $2`, limit, offset)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := make([]auction.Auction, 0, limit)
	for rows.Next() {
		a, err := scanAuction(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *a)
	}
	return list, rows.Err()
}

func (s *Store) ExpiredAuctionIDs(ctx context.Context, now time.Time, limit int) ([]string, error) {
	const q = `
	  SELECT id FROM auctions
	   WHERE status IN ($1,$2) AND end_date < $3
	   ORDER BY end_date
	   LIMIT $4`
	rows, err := s.db.QueryContext(ctx, q, auction.StatusActive, auction.StatusExtended, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *Store) EndAuction(ctx context.Context, id string, now time.Time) (bool, error) {
	const q = `
	  UPDATE auctions SET status = $1
	   WHERE id = $2 AND status IN ($3,$4) AND end_date < $5`
	res, err := s.db.ExecContext(ctx, q,
		auction.StatusEnded, id, auction.StatusActive, auction.StatusExtended, now)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

const bidColumns = `id, auction_id, bidder_id, amount, max_amount, is_auto_bid, is_winning, placed_at`

func scanBid(row interface{ Scan(...any) error }) (*auction.Bid, error) {
	b := &auction.Bid{}
	err := row.Scan(&b.ID, &b.AuctionID, &b.BidderID, &b.Amount, &b.MaxAmount,
		&b.IsAutoBid, &b.IsWinning, &b.PlacedAt)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (s *Store) WinningBid(ctx context.Context, auctionID string) (*auction.Bid, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+bidColumns+` FROM bids WHERE auction_id = $1 AND is_winning`, auctionID)
	b, err := scanBid(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return b, err
}

func (s *Store) Bids(ctx context.Context, auctionID string, limit, offset int) ([]auction.Bid, error) {
	if limit == 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+bidColumns+` FROM bids WHERE auction_id = $1
		  ORDER BY placed_at DESC, id LIMIT $2 OFFSET $3`,
		auctionID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []auction.Bid
	for rows.Next() {
		b, err := scanBid(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *b)
	}
	return list, rows.Err()
}

const insertBid = `
  INSERT INTO bids (id, auction_id, bidder_id, amount, max_amount,
                    is_auto_bid, is_winning, placed_at)
       VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`

// CommitResolution applies one bid resolution in a single transaction.
func (s *Store) CommitResolution(ctx context.Context, a *auction.Auction, out *auction.Outcome) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if out.DethronedBidID != "" {
		if _, err := tx.ExecContext(ctx,
			`UPDATE bids SET is_winning = FALSE WHERE id = $1`, out.DethronedBidID); err != nil {
			return err
		}
	}

	c := out.Challenger
	if _, err := tx.ExecContext(ctx, insertBid,
		c.ID, c.AuctionID, c.BidderID, c.Amount, c.MaxAmount,
		c.IsAutoBid, c.IsWinning, c.PlacedAt); err != nil {
		return err
	}
	if ab := out.AutoBid; ab != nil {
		if _, err := tx.ExecContext(ctx, insertBid,
			ab.ID, ab.AuctionID, ab.BidderID, ab.Amount, ab.MaxAmount,
			ab.IsAutoBid, ab.IsWinning, ab.PlacedAt); err != nil {
			return err
		}
	}

	const updAuction = `
	  UPDATE auctions
	     SET current_price = $2, winner_id = $3, total_bids = $4,
	         reserve_met = $5, end_date = $6, status = $7
	   WHERE id = $1`
	if _, err := tx.ExecContext(ctx, updAuction,
		a.ID, a.CurrentPrice, a.WinnerID, a.TotalBids,
		a.ReservePriceMet, a.EndDate, a.Status); err != nil {
		return err
	}

	return tx.Commit()
}

package pgstore

import (
	"context"
	"testing"
	"time"

	"consignbid/internal/auction"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newMock(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(db), mock
}

func auctionRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "listing_id", "reserve_price", "starting_price", "current_price",
		"increment_hint", "start_date", "end_date", "hard_close_date",
		"status", "reserve_met", "winner_id", "total_bids", "anti_sniping",
	}).AddRow("a1", "l1", 100.0, 90.0, 90.0,
		10.0, testNow.Add(-time.Hour), testNow.Add(time.Hour), testNow.Add(48*time.Hour),
		"ACTIVE", false, "", 0, true)
}

func TestAuction(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectQuery("SELECT (.+) FROM auctions WHERE id").
		WithArgs("a1").
		WillReturnRows(auctionRows())

	a, err := s.Auction(context.Background(), "a1")
	require.NoError(t, err)
	assert.Equal(t, "l1", a.ListingID)
	assert.Equal(t, auction.StatusActive, a.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuction_NotFound(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectQuery("SELECT (.+) FROM auctions WHERE id").
		WithArgs("nope").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := s.Auction(context.Background(), "nope")
	assert.ErrorIs(t, err, auction.ErrAuctionNotFound)
}

func TestCreateAuction_DuplicateListing(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectExec("INSERT INTO auctions").
		WillReturnError(&pgconn.PgError{Code: "23505"})

	err := s.CreateAuction(context.Background(), &auction.Auction{ID: "a1", ListingID: "l1"})
	assert.ErrorIs(t, err, auction.ErrInvalidArgument)
}

func TestWinningBid_NoneYet(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectQuery("SELECT (.+) FROM bids WHERE auction_id").
		WithArgs("a1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	b, err := s.WinningBid(context.Background(), "a1")
	require.NoError(t, err)
	assert.Nil(t, b)
}

func TestCommitResolution(t *testing.T) {
	s, mock := newMock(t)

	a := &auction.Auction{ID: "a1", CurrentPrice: 105, WinnerID: "alice",
		TotalBids: 2, Status: auction.StatusActive, EndDate: testNow.Add(time.Hour)}
	out := &auction.Outcome{
		Challenger: auction.Bid{ID: "b2", AuctionID: "a1", BidderID: "bob",
			Amount: 95, PlacedAt: testNow},
		AutoBid: &auction.Bid{ID: "b3", AuctionID: "a1", BidderID: "alice",
			Amount: 105, MaxAmount: 300, IsAutoBid: true, IsWinning: true, PlacedAt: testNow},
		DethronedBidID: "b1",
	}

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE bids SET is_winning = FALSE").
		WithArgs("b1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO bids").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO bids").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE auctions").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, s.CommitResolution(context.Background(), a, out))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCommitResolution_RollsBackOnFailure(t *testing.T) {
	s, mock := newMock(t)

	out := &auction.Outcome{
		Challenger: auction.Bid{ID: "b2", AuctionID: "a1", BidderID: "bob", Amount: 95},
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO bids").
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err := s.CommitResolution(context.Background(), &auction.Auction{ID: "a1"}, out)
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEndAuction_Idempotent(t *testing.T) {
	s, mock := newMock(t)

	mock.ExpectExec("UPDATE auctions SET status").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE auctions SET status").
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := s.EndAuction(context.Background(), "a1", testNow)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.EndAuction(context.Background(), "a1", testNow)
	require.NoError(t, err)
	assert.False(t, ok, "second close is a no-op")
}

func TestExpiredAuctionIDs(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectQuery("SELECT id FROM auctions").
		WithArgs(string(auction.StatusActive), string(auction.StatusExtended), testNow, 100).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("a1").AddRow("a2"))

	ids, err := s.ExpiredAuctionIDs(context.Background(), testNow, 100)
	require.NoError(t, err)
	assert.Equal(t, []string{"a1", "a2"}, ids)
}

package bidding_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"consignbid/internal/auction"
	"consignbid/internal/services/bidding"
	"consignbid/internal/store/memstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeListings struct {
	owners map[string]string
}

func (f *fakeListings) ListingOwner(_ context.Context, id string) (string, bool, error) {
	o, ok := f.owners[id]
	return o, ok, nil
}

type fakeBidders struct {
	missing map[string]bool
}

func (f *fakeBidders) BidderExists(_ context.Context, id string) (bool, error) {
	return !f.missing[id], nil
}

type recordingNotifier struct {
	mu       sync.Mutex
	newBids  int
	outbid   []string
	extended int
	ended    []string
}

func (n *recordingNotifier) NotifyNewBid(_ context.Context, _, _, _ string, _ float64) {
	n.mu.Lock()
	n.newBids++
	n.mu.Unlock()
}

func (n *recordingNotifier) NotifyOutbid(_ context.Context, bidderID, _ string, _ float64) {
	n.mu.Lock()
	n.outbid = append(n.outbid, bidderID)
	n.mu.Unlock()
}

func (n *recordingNotifier) NotifyExtended(_ context.Context, _ string, _ time.Time) {
	n.mu.Lock()
	n.extended++
	n.mu.Unlock()
}

func (n *recordingNotifier) NotifyEnded(_ context.Context, auctionID, _ string, _ float64, _ bool) {
	n.mu.Lock()
	n.ended = append(n.ended, auctionID)
	n.mu.Unlock()
}

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type harness struct {
	svc   bidding.IBiddingService
	store *memstore.Store
	notif *recordingNotifier
	clock *clock
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		store: memstore.New(),
		notif: &recordingNotifier{},
		clock: &clock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)},
	}
	h.svc = bidding.New(bidding.Deps{
		Store:    h.store,
		Listings: &fakeListings{owners: map[string]string{"l1": "seller", "l2": "seller"}},
		Bidders:  &fakeBidders{missing: map[string]bool{"ghost": true}},
		Notifier: h.notif,
		Now:      h.clock.Now,
	})
	return h
}

func (h *harness) createAuction(t *testing.T, desired float64) *auction.Auction {
	t.Helper()
	a, err := h.svc.CreateAuction(context.Background(), bidding.CreateAuctionParams{
		ListingID:    "l1",
		DesiredPrice: desired,
		AntiSniping:  true,
	})
	require.NoError(t, err)
	return a
}

func TestCreateAuction_Defaults(t *testing.T) {
	h := newHarness(t)
	a := h.createAuction(t, 1000)

	assert.Equal(t, 1000.0, a.ReservePrice)
	assert.Equal(t, 900.0, a.StartingPrice, "10% below reserve")
	assert.Equal(t, 900.0, a.CurrentPrice)
	assert.Equal(t, auction.StatusActive, a.Status)
	assert.False(t, a.ReservePriceMet)
	assert.Zero(t, a.TotalBids)
	assert.Empty(t, a.WinnerID)
	assert.Equal(t, h.clock.Now(), a.StartDate)
	assert.Equal(t, h.clock.Now().Add(7*24*time.Hour), a.EndDate)
	assert.Equal(t, 100.0, a.IncrementHint, "tier at 900")
}

func TestCreateAuction_CustomStartingPrice(t *testing.T) {
	h := newHarness(t)
	a, err := h.svc.CreateAuction(context.Background(), bidding.CreateAuctionParams{
		ListingID:     "l1",
		DesiredPrice:  1000,
		StartingPrice: 500,
	})
	require.NoError(t, err)
	assert.Equal(t, 500.0, a.StartingPrice)
}

func TestCreateAuction_Invalid(t *testing.T) {
	h := newHarness(t)

	_, err := h.svc.CreateAuction(context.Background(), bidding.CreateAuctionParams{
		ListingID: "l1", DesiredPrice: 0,
	})
	assert.ErrorIs(t, err, auction.ErrInvalidArgument)

	_, err = h.svc.CreateAuction(context.Background(), bidding.CreateAuctionParams{
		ListingID: "unknown", DesiredPrice: 100,
	})
	assert.ErrorIs(t, err, auction.ErrInvalidArgument)

	h.createAuction(t, 1000)
	_, err = h.svc.CreateAuction(context.Background(), bidding.CreateAuctionParams{
		ListingID: "l1", DesiredPrice: 100,
	})
	assert.ErrorIs(t, err, auction.ErrInvalidArgument, "one auction per listing")
}

func TestPlaceBid_Preconditions(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	a := h.createAuction(t, 100) // starts at 90, minimum next 100

	_, err := h.svc.PlaceBid(ctx, "missing", "alice", 100, 0)
	assert.ErrorIs(t, err, auction.ErrAuctionNotFound)

	_, err = h.svc.PlaceBid(ctx, a.ID, "ghost", 100, 0)
	assert.ErrorIs(t, err, auction.ErrBidderNotFound)

	_, err = h.svc.PlaceBid(ctx, a.ID, "seller", 100, 0)
	assert.ErrorIs(t, err, auction.ErrSellerCannotBid)

	_, err = h.svc.PlaceBid(ctx, a.ID, "alice", 99, 0)
	assert.ErrorIs(t, err, auction.ErrBidTooLow)
	var tooLow *auction.BidTooLowError
	require.ErrorAs(t, err, &tooLow)
	assert.Equal(t, 100.0, tooLow.Minimum)

	_, err = h.svc.PlaceBid(ctx, a.ID, "alice", 100, 95)
	assert.ErrorIs(t, err, auction.ErrInvalidArgument)

	// Rejections leave the auction untouched.
	got, err := h.svc.Auction(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 90.0, got.CurrentPrice)
	assert.Zero(t, got.TotalBids)

	h.clock.Advance(8 * 24 * time.Hour)
	_, err = h.svc.PlaceBid(ctx, a.ID, "alice", 100, 0)
	assert.ErrorIs(t, err, auction.ErrAuctionEnded)
}

func TestPlaceBid_WinningChain(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	a := h.createAuction(t, 150) // starts at 135

	w, err := h.svc.PlaceBid(ctx, a.ID, "alice", 185, 0)
	require.NoError(t, err)
	assert.Equal(t, "alice", w.BidderID)
	assert.True(t, w.IsWinning)

	w, err = h.svc.PlaceBid(ctx, a.ID, "bob", 235, 0)
	require.NoError(t, err)
	assert.Equal(t, "bob", w.BidderID)

	got, err := h.svc.Auction(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 235.0, got.CurrentPrice)
	assert.Equal(t, "bob", got.WinnerID)
	assert.Equal(t, 2, got.TotalBids)
	assert.True(t, got.ReservePriceMet)

	bids, err := h.svc.BidHistory(ctx, a.ID, 0, 0)
	require.NoError(t, err)
	winning := 0
	for _, b := range bids {
		if b.IsWinning {
			winning++
		}
	}
	assert.Equal(t, 1, winning, "exactly one winning bid")
	assert.Equal(t, []string{"alice"}, h.notif.outbid)
	assert.Equal(t, 2, h.notif.newBids)
}

func TestPlaceBid_ProxyDefense(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	a := h.createAuction(t, 500) // starts at 450

	_, err := h.svc.PlaceBid(ctx, a.ID, "alice", 500, 900)
	require.NoError(t, err)

	w, err := h.svc.PlaceBid(ctx, a.ID, "bob", 600, 0)
	require.NoError(t, err)
	assert.Equal(t, "alice", w.BidderID, "proxy counter holds the line")
	assert.True(t, w.IsAutoBid)
	assert.Equal(t, 700.0, w.Amount, "600 + tier increment 100")

	got, _ := h.svc.Auction(ctx, a.ID)
	assert.Equal(t, 700.0, got.CurrentPrice)
	assert.Equal(t, 2, got.TotalBids, "counter-bid not counted")

	bids, err := h.svc.BidHistory(ctx, a.ID, 0, 0)
	require.NoError(t, err)
	assert.Len(t, bids, 3, "ledger holds the counter-bid")

	min, err := h.svc.NextMinimumBid(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 800.0, min)
}

func TestPlaceBid_ExtendsNearClose(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	a := h.createAuction(t, 100)

	h.clock.Advance(7*24*time.Hour - 30*time.Minute) // 30 minutes remain
	_, err := h.svc.PlaceBid(ctx, a.ID, "alice", 100, 0)
	require.NoError(t, err)

	got, _ := h.svc.Auction(ctx, a.ID)
	assert.Equal(t, auction.StatusExtended, got.Status)
	assert.Equal(t, a.EndDate.Add(10*time.Minute), got.EndDate)
	assert.Equal(t, 1, h.notif.extended)
}

func TestConcurrentChallengers(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	a := h.createAuction(t, 1_000_000) // reserve far away, minimums stay low
	const bidders = 50

	var wg sync.WaitGroup
	for i := 0; i < bidders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			bidder := "bidder-" + string(rune('A'+i%26)) + "-" + string(rune('0'+i/26))
			for {
				min, err := h.svc.NextMinimumBid(ctx, a.ID)
				if !assert.NoError(t, err) {
					return
				}
				_, err = h.svc.PlaceBid(ctx, a.ID, bidder, min, 0)
				if err == nil {
					return
				}
				// Raced another challenger; retry at the fresh minimum.
				if !assert.ErrorIs(t, err, auction.ErrBidTooLow) {
					return
				}
			}
		}(i)
	}
	wg.Wait()

	got, err := h.svc.Auction(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, bidders, got.TotalBids, "no lost updates")

	bids, err := h.svc.BidHistory(ctx, a.ID, bidders+10, 0)
	require.NoError(t, err)
	require.Len(t, bids, bidders)
	winning := 0
	for _, b := range bids {
		if b.IsWinning {
			winning++
			assert.Equal(t, got.CurrentPrice, b.Amount)
			assert.Equal(t, got.WinnerID, b.BidderID)
		}
		assert.LessOrEqual(t, b.Amount, got.CurrentPrice)
	}
	assert.Equal(t, 1, winning, "exactly one winning bid")
}

func TestCloseExpiredAuctions(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	a := h.createAuction(t, 100)
	_, err := h.svc.PlaceBid(ctx, a.ID, "alice", 100, 0)
	require.NoError(t, err)

	// Not yet expired.
	n, err := h.svc.CloseExpiredAuctions(ctx, h.clock.Now())
	require.NoError(t, err)
	assert.Zero(t, n)

	h.clock.Advance(8 * 24 * time.Hour)
	n, err = h.svc.CloseExpiredAuctions(ctx, h.clock.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, _ := h.svc.Auction(ctx, a.ID)
	assert.Equal(t, auction.StatusEnded, got.Status)
	assert.Equal(t, "alice", got.WinnerID)
	assert.Equal(t, []string{a.ID}, h.notif.ended)

	// Second sweep closes nothing.
	n, err = h.svc.CloseExpiredAuctions(ctx, h.clock.Now())
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = h.svc.PlaceBid(ctx, a.ID, "bob", 500, 0)
	assert.ErrorIs(t, err, auction.ErrAuctionNotOpen)
}

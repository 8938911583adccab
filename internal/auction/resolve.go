package auction

import "time"

// Request is one incoming challenger bid, already validated against the
// auction's preconditions (open status, minimum amount, bidder identity).
// IDs are assigned by the caller so Resolve stays deterministic.
type Request struct {
	BidID        string
	CounterBidID string
	BidderID     string
	Amount       float64
	MaxAmount    float64 // 0 = no proxy ceiling
	PlacedAt     time.Time
}

// Outcome is everything one resolution produced. The challenger bid is always
// recorded; AutoBid is the system counter-bid generated when a defending
// proxy ceiling holds. Exactly one of them is winning.
type Outcome struct {
	Challenger Bid
	AutoBid    *Bid

	// DethronedBidID is the previously winning bid that lost the position,
	// empty for the first bid on an auction.
	DethronedBidID string

	// OutbidBidderID is whoever lost this round: the previous winner when
	// the challenger took over, or the challenger when a counter-bid held
	// the line. Empty for the first bid.
	OutbidBidderID string

	Extended bool
}

// Winning returns the bid that holds the winning position after resolution.
func (o *Outcome) Winning() *Bid {
	if o.AutoBid != nil {
		return o.AutoBid
	}
	return &o.Challenger
}

// Resolve applies one challenger bid against the auction and its current
// winning bid (nil before the first bid). It mutates the auction summary
// (price, winner, totals, reserve flag, extension) and returns the ledger
// entries to persist. The caller owns atomicity and per-auction serialization.
func Resolve(a *Auction, current *Bid, req Request) Outcome {
	out := Outcome{
		Challenger: Bid{
			ID:        req.BidID,
			AuctionID: a.ID,
			BidderID:  req.BidderID,
			Amount:    req.Amount,
			MaxAmount: req.MaxAmount,
			PlacedAt:  req.PlacedAt,
		},
	}

	switch {
	case !current.HasCeiling():
		// No proxy ceiling defends the current price (or there is no bid
		// at all): the challenger wins outright at its stated amount.
		out.Challenger.IsWinning = true

	case out.Challenger.HasCeiling():
		out.resolveProxyDuel(a, current, req)

	default:
		out.resolveManualChallenge(a, current, req)
	}

	if current != nil {
		out.DethronedBidID = current.ID
		if out.AutoBid != nil {
			// The defender countered; the challenger is the one outbid.
			out.OutbidBidderID = req.BidderID
		} else {
			out.OutbidBidderID = current.BidderID
		}
	}

	win := out.Winning()
	if win.Amount > a.CurrentPrice {
		a.CurrentPrice = win.Amount
	}
	a.WinnerID = win.BidderID
	a.TotalBids++
	if !a.ReservePriceMet && a.CurrentPrice >= a.ReservePrice {
		a.ReservePriceMet = true
	}
	out.Extended = ApplyExtension(a, req.PlacedAt)
	return out
}

// resolveProxyDuel handles a proxy challenger against a proxy defender.
func (o *Outcome) resolveProxyDuel(a *Auction, current *Bid, req Request) {
	competitorMax := current.MaxAmount
	switch {
	case req.MaxAmount > competitorMax:
		// The challenger's ceiling is deeper: it wins one increment above
		// the exhausted defender, never above its own ceiling or below its
		// stated amount.
		win := competitorMax + Increment(competitorMax)
		if win > req.MaxAmount {
			win = req.MaxAmount
		}
		if win < req.Amount {
			win = req.Amount
		}
		o.Challenger.Amount = win
		o.Challenger.IsWinning = true

	case req.MaxAmount == competitorMax:
		// Equal ceilings: the earlier ceiling wins. The defender holds the
		// position via a counter at the shared ceiling.
		o.AutoBid = counterBid(current, req.CounterBidID, competitorMax, req.PlacedAt)

	default:
		counter := req.MaxAmount + Increment(req.MaxAmount)
		if counter <= competitorMax {
			o.AutoBid = counterBid(current, req.CounterBidID, counter, req.PlacedAt)
		} else {
			// The defender cannot counter inside its ceiling.
			o.Challenger.Amount = req.MaxAmount
			o.Challenger.IsWinning = true
		}
	}
}

// resolveManualChallenge handles a purely manual challenger against a proxy
// defender.
func (o *Outcome) resolveManualChallenge(a *Auction, current *Bid, req Request) {
	competitorMax := current.MaxAmount
	if req.Amount >= competitorMax {
		o.Challenger.IsWinning = true
		return
	}
	// The increment is recomputed at the challenger's amount, not at the
	// pre-bid current price.
	counter := req.Amount + Increment(req.Amount)
	if counter <= competitorMax {
		o.AutoBid = counterBid(current, req.CounterBidID, counter, req.PlacedAt)
	} else {
		// The defending ceiling is exhausted.
		o.Challenger.IsWinning = true
	}
}

// counterBid builds the system-generated bid that keeps the defending proxy
// bidder in the winning position. It carries the defender's ceiling forward so
// later challengers still face it.
func counterBid(current *Bid, id string, amount float64, at time.Time) *Bid {
	return &Bid{
		ID:        id,
		AuctionID: current.AuctionID,
		BidderID:  current.BidderID,
		Amount:    amount,
		MaxAmount: current.MaxAmount,
		IsAutoBid: true,
		IsWinning: true,
		PlacedAt:  at,
	}
}

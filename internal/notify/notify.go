// Package notify is the engine's best-effort notification sink. Every event
// goes two ways: a Pub/Sub publish on the auction's channel for live
// websocket clients, and an append to the bid_events stream that the outbox
// tailer drains for durable delivery. Failures are logged and swallowed; a
// committed bid is never rolled back because a notification did not go out.
package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	channelPrefix = "auc:"
	channelSuffix = ":events"

	// Stream drained by the notification outbox tailer.
	Stream = "bid_events"
)

// Channel returns the Pub/Sub channel carrying an auction's live events.
func Channel(auctionID string) string { return channelPrefix + auctionID + channelSuffix }

// Event is the wire shape shared by the Pub/Sub payload and the stream
// entry. Field order is fixed so payloads are deterministic.
type Event struct {
	Event     string  `json:"event"`
	AuctionID string  `json:"auction_id"`
	Recipient string  `json:"recipient,omitempty"`
	BidderID  string  `json:"bidder_id,omitempty"`
	Amount    float64 `json:"amount,omitempty"`
	EndDate   int64   `json:"end_date,omitempty"`
	Reserve   bool    `json:"reserve_met,omitempty"`
	At        int64   `json:"at"`
}

type Redis struct {
	rdc *redis.Client
	now func() time.Time
}

func NewRedis(rdc *redis.Client) *Redis {
	return &Redis{rdc: rdc, now: func() time.Time { return time.Now().UTC() }}
}

func (n *Redis) NotifyNewBid(ctx context.Context, ownerID, auctionID, bidderID string, amount float64) {
	n.emit(ctx, Event{
		Event:     "bid",
		AuctionID: auctionID,
		Recipient: ownerID,
		BidderID:  bidderID,
		Amount:    amount,
	})
}

func (n *Redis) NotifyOutbid(ctx context.Context, bidderID, auctionID string, newAmount float64) {
	n.emit(ctx, Event{
		Event:     "outbid",
		AuctionID: auctionID,
		Recipient: bidderID,
		Amount:    newAmount,
	})
}

func (n *Redis) NotifyExtended(ctx context.Context, auctionID string, endDate time.Time) {
	n.emit(ctx, Event{
		Event:     "extended",
		AuctionID: auctionID,
		EndDate:   endDate.Unix(),
	})
}

func (n *Redis) NotifyEnded(ctx context.Context, auctionID, winnerID string, finalPrice float64, reserveMet bool) {
	n.emit(ctx, Event{
		Event:     "ended",
		AuctionID: auctionID,
		Recipient: winnerID,
		Amount:    finalPrice,
		Reserve:   reserveMet,
	})
}

func (n *Redis) emit(ctx context.Context, ev Event) {
	ev.At = n.now().Unix()
	payload, err := json.Marshal(ev)
	if err != nil {
		zap.L().Warn("notify.marshal", zap.Error(err))
		return
	}

	if err := n.rdc.Publish(ctx, Channel(ev.AuctionID), payload).Err(); err != nil {
		zap.L().Warn("notify.publish", zap.String("auction_id", ev.AuctionID), zap.Error(err))
	}

	// Values as a flat pair slice keeps the entry order stable.
	if err := n.rdc.XAdd(ctx, &redis.XAddArgs{
		Stream: Stream,
		Values: []interface{}{
			"event", ev.Event,
			"aid", ev.AuctionID,
			"recipient", ev.Recipient,
			"amount", ev.Amount,
			"at", ev.At,
		},
	}).Err(); err != nil {
		zap.L().Warn("notify.xadd", zap.String("auction_id", ev.AuctionID), zap.Error(err))
	}
}

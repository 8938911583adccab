// Package notifyoutbox tails the bid_events Redis stream and lands every
// notification in the Postgres notifications table, where downstream delivery
// (email, push) picks them up.
package notifyoutbox

import (
	"context"
	"database/sql"
	"strconv"
	"time"

	"consignbid/internal/notify"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Run tails the stream until ctx is cancelled. Must be started once at boot.
func Run(ctx context.Context, rdc *redis.Client, db *sql.DB) {
	go func() {
		lastID := "0-0"
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			// block up to 2 s for new entries
			res, err := rdc.XRead(ctx, &redis.XReadArgs{
				Streams: []string{notify.Stream, lastID},
				Count:   100,
				Block:   2000 * time.Millisecond,
			}).Result()
			if err != nil && err != redis.Nil {
				zap.L().Warn("notifyoutbox.xread", zap.Error(err))
				time.Sleep(time.Second)
				continue
			}
			if len(res) == 0 {
				continue
			}
			entries := res[0].Messages
			if err := persist(ctx, db, entries); err != nil {
				zap.L().Error("notifyoutbox.persist", zap.Error(err))
			}
			lastID = entries[len(entries)-1].ID
		}
	}()
}

func persist(ctx context.Context, db *sql.DB, msgs []redis.XMessage) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	const ins = `
	  INSERT INTO notifications (stream_id, event, auction_id, recipient_id, amount, created_at)
	       VALUES ($1, $2, $3, $4, $5, to_timestamp($6))
	  ON CONFLICT (stream_id) DO NOTHING`
	for _, m := range msgs {
		event, _ := m.Values["event"].(string)
		aid, _ := m.Values["aid"].(string)
		recipient, _ := m.Values["recipient"].(string)
		amt, _ := m.Values["amount"].(string)
		at, _ := m.Values["at"].(string)

		amount, _ := strconv.ParseFloat(amt, 64)
		ts, _ := strconv.ParseInt(at, 10, 64)
		if _, err := tx.ExecContext(ctx, ins, m.ID, event, aid, recipient, amount, ts); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// Package sweeper periodically closes expired auctions. A short-lived Redis
// lock makes sure only one instance runs the sweep per tick; the engine's
// per-auction locks keep an individual closure from racing an in-flight bid.
package sweeper

import (
	"context"
	"time"

	"consignbid/internal/services/bidding"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	lockKey = "auction_sweep_lock"
	lockTTL = 30 * time.Second
)

// Run sweeps on the given interval until ctx is cancelled.
func Run(ctx context.Context, rdc *redis.Client, svc bidding.IBiddingService, interval time.Duration) {
	tk := time.NewTicker(interval)
	go func() {
		defer tk.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-tk.C:
				sweepOnce(ctx, rdc, svc)
			}
		}
	}()
}

func sweepOnce(ctx context.Context, rdc *redis.Client, svc bidding.IBiddingService) {
	ok, err := rdc.SetNX(ctx, lockKey, 1, lockTTL).Result()
	if err != nil {
		zap.L().Warn("sweeper.lock", zap.Error(err))
		return
	}
	if !ok {
		return // another instance is sweeping
	}
	defer rdc.Del(ctx, lockKey)

	closed, err := svc.CloseExpiredAuctions(ctx, time.Now().UTC())
	if err != nil {
		zap.L().Error("sweeper.close_expired", zap.Error(err))
		return
	}
	if closed > 0 {
		zap.L().Info("sweeper.closed", zap.Int("count", closed))
	}
}

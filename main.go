package main

import (
	"consignbid/internal/config"
	"consignbid/internal/database/db_client"
	"consignbid/internal/directory"
	"consignbid/internal/http/http_server"
	"consignbid/internal/notify"
	"consignbid/internal/notifyoutbox"
	"consignbid/internal/redis/redis_client"
	"consignbid/internal/services/bidding"
	"consignbid/internal/store/pgstore"
	"consignbid/internal/sweeper"
	"consignbid/internal/ws"
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var (
	Log, _ = zap.NewDevelopment()
)

func main() {
	defer Log.Sync()
	zap.ReplaceGlobals(Log)

	var err error
	var cfg *config.Config
	var redisClient *redis.Client

	// 1. Load configuration
	cfg, err = config.LoadConfig()
	if err != nil {
		Log.Fatal("Failed to load configuration", zap.Error(err))
	}
	Log.Debug("Configuration loaded successfully", zap.Any("config", cfg))

	// 2. Context with signal handling
	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGINT, syscall.SIGTERM,
	)
	defer stop()

	// 3. Redis
	redisClient, err = redis_client.NewRedisClient(cfg.RedisHost, int(cfg.RedisPort))
	if err != nil {
		Log.Fatal("Failed to create Redis client", zap.Error(err))
	}
	defer redisClient.Close()
	Log.Debug("Redis client created successfully")

	// 4. Postgres db client
	pgDb, err := db_client.Open(cfg.PostgresHost, cfg.PostgresPort, cfg.PostgresUser, cfg.PostgresPassword, cfg.PostgresDb)
	if err != nil {
		Log.Fatal("pg-open", zap.Error(err))
	}
	defer pgDb.Close()

	// 5. Bidding service over the Postgres store
	dir := directory.New(pgDb)
	biddingSvc := bidding.New(bidding.Deps{
		Store:           pgstore.New(pgDb),
		Listings:        dir,
		Bidders:         dir,
		Notifier:        notify.NewRedis(redisClient),
		AuctionDuration: cfg.AuctionDuration,
		HardCloseAfter:  cfg.HardCloseAfter,
	})

	// 6. Background: periodic sweep that closes expired auctions
	sweeper.Run(ctx, redisClient, biddingSvc, cfg.SweepInterval)

	// 7. Background: drain the bid event stream into the notifications table
	notifyoutbox.Run(ctx, redisClient, pgDb)

	// 8. WebSockets hub + per-auction Redis fan-out
	hub := ws.NewHub()
	wsSrv := ws.NewWsServer(hub, redisClient, biddingSvc)

	// 9. HTTP + WS server
	httpServer := http_server.NewHttpServer(ctx, cfg.HttpServerPort, wsSrv, biddingSvc)
	if err := httpServer.Start(); err != nil {
		Log.Fatal("Failed to start HTTP server", zap.Error(err))
	}

}

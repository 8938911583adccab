package ws

import (
	"context"
	"errors"
	"net/http"
	"time"

	"consignbid/internal/auction"
	"consignbid/internal/services/bidding"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 12 * time.Second
	pingPeriod = 3 * time.Second // must be < pongWait

	dispatchTimeout = 1900 * time.Millisecond
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  512,
	WriteBufferSize: 512,
	CheckOrigin:     func(*http.Request) bool { return true }, // dev-only
}

type WsServer struct {
	hub        *Hub
	subMgr     *subscriptionManager
	router     *Router
	rdc        *redis.Client
	biddingSvc bidding.IBiddingService
}

func NewWsServer(h *Hub, rdc *redis.Client, biddingSvc bidding.IBiddingService) *WsServer {
	srv := &WsServer{
		hub:        h,
		subMgr:     newSubscriptionManager(rdc, h),
		router:     NewRouter(),
		rdc:        rdc,
		biddingSvc: biddingSvc,
	}
	srv.registerHandlers()
	return srv
}

// ---------------------------------------------------------------------------
//  Public: Gin entry-point
// ---------------------------------------------------------------------------

func (s *WsServer) Handle(ginCtx *gin.Context) {
	auctionID := ginCtx.Query("auction_id")
	userID := ginCtx.Query("user_id")
	if auctionID == "" || userID == "" {
		ginCtx.JSON(http.StatusBadRequest, gin.H{"error": "auction_id and user_id are required"})
		return
	}

	rawConn, err := upgrader.Upgrade(ginCtx.Writer, ginCtx.Request, nil)
	if err != nil {
		zap.L().Warn("ws.accept", zap.Error(err))
		return
	}
	rawConn.SetReadLimit(512)

	wsConn := &clientConn{rawConn: rawConn}
	s.hub.Join(auctionID, wsConn)
	s.subMgr.Subscribe(auctionID)

	// Initial snapshot.
	if err := s.pushInitialSnapshot(ginCtx.Request.Context(), auctionID, wsConn); err != nil &&
		!errors.Is(err, auction.ErrAuctionNotFound) {
		zap.L().Warn("ws.snapshot", zap.Error(err))
	}

	go s.reader(auctionID, userID, wsConn)
	go s.pinger(wsConn)
}

// ---------------------------------------------------------------------------
//  Private helpers
// ---------------------------------------------------------------------------

func (s *WsServer) registerHandlers() {
	Register(
		s.router,
		"auctions/bid",
		func(ctx context.Context, cc *ConnContext, req BidRequest) (BidAck, error) {
			if req.Amount <= 0 {
				return BidAck{}, errors.New("invalid_amount")
			}
			w, err := s.biddingSvc.PlaceBid(ctx, cc.AuctionID, cc.UserID, req.Amount, req.MaxAmount)
			if err != nil {
				return BidAck{}, err
			}
			return BidAck{
				WinningBidderID: w.BidderID,
				CurrentPrice:    w.Amount,
				Countered:       w.BidderID != cc.UserID,
			}, nil
		},
	)

	Register(
		s.router,
		"auctions/next-bid",
		func(ctx context.Context, cc *ConnContext, _ NextBidRequest) (NextBidResponse, error) {
			min, err := s.biddingSvc.NextMinimumBid(ctx, cc.AuctionID)
			if err != nil {
				return NextBidResponse{}, err
			}
			return NextBidResponse{Minimum: min}, nil
		},
	)
}

func (s *WsServer) pushInitialSnapshot(ctx context.Context, id string, conn *clientConn) error {
	ctx, cancel := context.WithTimeout(ctx, 4*time.Second)
	defer cancel()

	a, err := s.biddingSvc.Auction(ctx, id)
	if err != nil {
		return err
	}
	w, err := s.biddingSvc.WinningBid(ctx, id)
	if err != nil {
		return err
	}
	return conn.writeJSON(map[string]any{
		"event": "auctions/snapshot",
		"body":  SnapshotBody{Auction: a, WinningBid: w},
	})
}

func (s *WsServer) reader(auctionID, userID string, conn *clientConn) {
	defer func() {
		s.hub.Leave(auctionID, conn)
		s.subMgr.Unsubscribe(auctionID)
	}()

	cc := &ConnContext{AuctionID: auctionID, UserID: userID, Server: s}

	_ = conn.rawConn.SetReadDeadline(time.Now().Add(pongWait))
	conn.rawConn.SetPongHandler(func(string) error {
		return conn.rawConn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var env Envelope
		if err := conn.rawConn.ReadJSON(&env); err != nil {
			return // client closed or errored
		}

		ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
		res, err := s.router.dispatch(ctx, cc, env)
		cancel()

		// ---- error -> {"event":"error", "body":{...}} ---------------
		if err != nil {
			body := ErrorBody{Error: err.Error()}
			var tooLow *auction.BidTooLowError
			if errors.As(err, &tooLow) {
				body.Minimum = tooLow.Minimum
			}
			_ = conn.writeJSON(map[string]any{
				"event": "error",
				"body":  body,
			})
			continue
		}

		// ---- success -> {"event":"<evt>-ack", "body":{...}} --------
		reply := map[string]any{"event": env.Event + "-ack"}
		if res != nil {
			reply["body"] = res
		}
		_ = conn.writeJSON(reply)
	}
}

func (s *WsServer) pinger(conn *clientConn) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for range ticker.C {
		if err := conn.write(websocket.PingMessage, nil); err != nil {
			_ = conn.rawConn.Close()
			return
		}
	}
}

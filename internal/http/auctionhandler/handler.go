package auctionhandler

import (
	"errors"
	"net/http"

	"consignbid/internal/auction"
	"consignbid/internal/services/bidding"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	svc bidding.IBiddingService
}

func New(svc bidding.IBiddingService) *Handler { return &Handler{svc: svc} }

func (h *Handler) Register(r gin.IRoutes) {
	r.POST("/auctions", h.create)
	r.GET("/auctions", h.list)
	r.GET("/auctions/:id", h.info)
	r.POST("/auctions/:id/bids", h.bid)
	r.GET("/auctions/:id/bids", h.bids)
	r.GET("/auctions/:id/winning-bid", h.winningBid)
	r.GET("/auctions/:id/next-bid", h.nextBid)
}

// @Summary		Open an auction
// @Description	Opens a time-boxed auction for a listing. The desired price becomes the reserve; the starting price defaults to 10% below it.
// @Tags			Auctions
// @Param			body	body		CreateAuctionBody	true	"Creation payload"
// @Success		201		{object}	auction.Auction
// @Failure		400		{object}	ErrorResponse
// @Router			/auctions [post]
func (h *Handler) create(ginCtx *gin.Context) {
	var body CreateAuctionBody
	if err := ginCtx.ShouldBindJSON(&body); err != nil {
		ginCtx.JSON(http.StatusBadRequest, &ErrorResponse{Error: err.Error()})
		return
	}
	antiSniping := body.AntiSniping == nil || *body.AntiSniping

	a, err := h.svc.CreateAuction(ginCtx.Request.Context(), bidding.CreateAuctionParams{
		ListingID:     body.ListingID,
		DesiredPrice:  body.DesiredPrice,
		StartingPrice: body.StartingPrice,
		IncrementHint: body.IncrementHint,
		AntiSniping:   antiSniping,
	})
	if err != nil {
		respondError(ginCtx, err)
		return
	}
	ginCtx.JSON(http.StatusCreated, a)
}

// @Summary		Get auction details
// @Tags			Auctions
// @Param			id	path		string	true	"Auction ID"
// @Success		200	{object}	auction.Auction
// @Failure		404	{object}	ErrorResponse
// @Router			/auctions/{id} [get]
func (h *Handler) info(ginCtx *gin.Context) {
	a, err := h.svc.Auction(ginCtx.Request.Context(), ginCtx.Param("id"))
	if err != nil {
		respondError(ginCtx, err)
		return
	}
	ginCtx.JSON(http.StatusOK, a)
}

// @Summary		List auctions
// @Tags			Auctions
// @Param			status	query		string	false	"Status filter"	Enums(ACTIVE,EXTENDED,ENDED)
// @Param			limit	query		int		false	"Max results (0-100)"
// @Param			offset	query		int		false	"Offset for pagination"
// @Success		200		{array}		auction.Auction
// @Failure		400		{object}	ErrorResponse
// @Router			/auctions [get]
func (h *Handler) list(ginCtx *gin.Context) {
	var q ListAuctionsQuery
	if err := ginCtx.ShouldBindQuery(&q); err != nil {
		ginCtx.JSON(http.StatusBadRequest, &ErrorResponse{Error: err.Error()})
		return
	}
	out, err := h.svc.ListAuctions(ginCtx.Request.Context(), auction.Status(q.Status), q.Limit, q.Offset)
	if err != nil {
		respondError(ginCtx, err)
		return
	}
	ginCtx.JSON(http.StatusOK, out)
}

// @Summary		Place a bid
// @Description	Places a manual or proxy bid. The response is the bid holding the winning position after resolution, which is the defender's counter-bid when a proxy ceiling held.
// @Tags			Auctions
// @Param			id		path		string			true	"Auction ID"
// @Param			body	body		PlaceBidBody	true	"Bid payload"
// @Success		201		{object}	auction.Bid
// @Failure		400		{object}	ErrorResponse
// @Failure		403		{object}	ErrorResponse
// @Failure		404		{object}	ErrorResponse
// @Failure		409		{object}	ErrorResponse
// @Router			/auctions/{id}/bids [post]
func (h *Handler) bid(ginCtx *gin.Context) {
	var body PlaceBidBody
	if err := ginCtx.ShouldBindJSON(&body); err != nil {
		ginCtx.JSON(http.StatusBadRequest, &ErrorResponse{Error: err.Error()})
		return
	}
	w, err := h.svc.PlaceBid(ginCtx.Request.Context(),
		ginCtx.Param("id"), body.BidderID, body.Amount, body.MaxAmount)
	if err != nil {
		respondError(ginCtx, err)
		return
	}
	ginCtx.JSON(http.StatusCreated, w)
}

// @Summary		Bid history
// @Tags			Auctions
// @Param			id	path		string	true	"Auction ID"
// @Success		200	{array}		auction.Bid
// @Failure		404	{object}	ErrorResponse
// @Router			/auctions/{id}/bids [get]
func (h *Handler) bids(ginCtx *gin.Context) {
	var q BidsQuery
	if err := ginCtx.ShouldBindQuery(&q); err != nil {
		ginCtx.JSON(http.StatusBadRequest, &ErrorResponse{Error: err.Error()})
		return
	}
	out, err := h.svc.BidHistory(ginCtx.Request.Context(), ginCtx.Param("id"), q.Limit, q.Offset)
	if err != nil {
		respondError(ginCtx, err)
		return
	}
	ginCtx.JSON(http.StatusOK, out)
}

// @Summary		Current winning bid
// @Tags			Auctions
// @Param			id	path		string	true	"Auction ID"
// @Success		200	{object}	auction.Bid
// @Success		204	"no bids yet"
// @Failure		404	{object}	ErrorResponse
// @Router			/auctions/{id}/winning-bid [get]
func (h *Handler) winningBid(ginCtx *gin.Context) {
	b, err := h.svc.WinningBid(ginCtx.Request.Context(), ginCtx.Param("id"))
	if err != nil {
		respondError(ginCtx, err)
		return
	}
	if b == nil {
		ginCtx.Status(http.StatusNoContent)
		return
	}
	ginCtx.JSON(http.StatusOK, b)
}

// @Summary		Minimum acceptable next bid
// @Tags			Auctions
// @Param			id	path		string	true	"Auction ID"
// @Success		200	{object}	NextBidResponse
// @Failure		404	{object}	ErrorResponse
// @Router			/auctions/{id}/next-bid [get]
func (h *Handler) nextBid(ginCtx *gin.Context) {
	min, err := h.svc.NextMinimumBid(ginCtx.Request.Context(), ginCtx.Param("id"))
	if err != nil {
		respondError(ginCtx, err)
		return
	}
	ginCtx.JSON(http.StatusOK, NextBidResponse{Minimum: min})
}

func respondError(ginCtx *gin.Context, err error) {
	resp := ErrorResponse{Error: err.Error()}
	var tooLow *auction.BidTooLowError
	if errors.As(err, &tooLow) {
		resp.Minimum = tooLow.Minimum
	}
	ginCtx.JSON(statusFor(err), resp)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, auction.ErrAuctionNotFound),
		errors.Is(err, auction.ErrBidderNotFound):
		return http.StatusNotFound
	case errors.Is(err, auction.ErrSellerCannotBid):
		return http.StatusForbidden
	case errors.Is(err, auction.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, auction.ErrBidTooLow),
		errors.Is(err, auction.ErrAuctionNotOpen),
		errors.Is(err, auction.ErrAuctionEnded):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

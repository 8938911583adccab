package auctionhandler

type CreateAuctionBody struct {
	ListingID     string  `json:"listing_id"     binding:"required"       example:"listing123"`
	DesiredPrice  float64 `json:"desired_price"  binding:"required,gt=0"  example:"1000"`
	StartingPrice float64 `json:"starting_price" binding:"omitempty,gt=0" example:"900"`
	IncrementHint float64 `json:"increment_hint" binding:"omitempty,gt=0" example:"100"`
	AntiSniping   *bool   `json:"anti_sniping"` // default true
} // @name CreateAuctionRequest

type PlaceBidBody struct {
	BidderID  string  `json:"bidder_id"  binding:"required"                  example:"user123"`
	Amount    float64 `json:"amount"     binding:"required,gt=0"             example:"105"`
	MaxAmount float64 `json:"max_amount" binding:"omitempty,gtefield=Amount" example:"300"`
} // @name PlaceBidRequest

type NextBidResponse struct {
	Minimum float64 `json:"minimum" example:"105"`
} // @name NextBidResponse

type ErrorResponse struct {
	Error   string  `json:"error"`
	Minimum float64 `json:"minimum,omitempty"` // set on bid-too-low rejections
} // @name ErrorResponse

type ListAuctionsQuery struct {
	Status string `form:"status"  binding:"omitempty,oneof=ACTIVE EXTENDED ENDED"`
	Limit  int    `form:"limit,default=10"  binding:"gte=0,lte=100"`
	Offset int    `form:"offset,default=0"  binding:"gte=0"`
} // @name ListAuctionsQuery

type BidsQuery struct {
	Limit  int `form:"limit,default=50"  binding:"gte=0,lte=200"`
	Offset int `form:"offset,default=0"  binding:"gte=0"`
} // @name BidsQuery

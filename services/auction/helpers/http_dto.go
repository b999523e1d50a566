package helpers

import (
	"github.com/shopspring/decimal"
)

// Request/Response DTOs

// CreateListingRequest is bound from the multipart form; the image file
// itself travels as the "image" part.
type CreateListingRequest struct {
	Title       string `form:"title" binding:"required"`
	Description string `form:"description" binding:"required"`
	StartPrice  string `form:"start_price" binding:"required"`
	EndTime     string `form:"end_time" binding:"required"` // RFC3339
}

type PlaceBidRequest struct {
	PriceValue decimal.Decimal `json:"price_value" binding:"required"`
}

type EditListingRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type AddCommentRequest struct {
	Comment string `json:"comment" binding:"required"`
}

type BidResponse struct {
	BidID      string `json:"bid_id"`
	ListingID  string `json:"listing_id"`
	BidderID   string `json:"bidder_id"`
	PriceValue string `json:"price_value"`
	CreatedAt  string `json:"created_at"`
}

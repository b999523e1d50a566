package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// User represents a participant in the auction
type User struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

// Listing represents an auctionable item. StartPrice is fixed at creation
// and acts as the floor for the first bid; the current price is always
// derived from the bids, never stored here.
type Listing struct {
	ListingID   string          `json:"listing_id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	CreatorID   string          `json:"creator_id"`
	StartPrice  decimal.Decimal `json:"start_price"`
	EndTime     time.Time       `json:"end_time"`
	ImageRef    string          `json:"image_ref"`
	CreatedAt   time.Time       `json:"created_at"`
	CommentIDs  []string        `json:"comment_ids"`
	Likes       []string        `json:"likes"`
}

// Bid represents a user's price offer on a listing. Bids are immutable
// once admitted.
type Bid struct {
	BidID      string          `json:"bid_id"`
	ListingID  string          `json:"listing_id"`
	BidderID   string          `json:"bidder_id"`
	PriceValue decimal.Decimal `json:"price_value"`
	CreatedAt  time.Time       `json:"created_at"`
}

// Comment is a user remark attached to a listing's comment sequence.
type Comment struct {
	CommentID string    `json:"comment_id"`
	ListingID string    `json:"listing_id"`
	CreatorID string    `json:"creator_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// SortMode selects the ordering for listing pages. The numeric values
// match the sort query parameter of the HTTP API.
type SortMode int

const (
	SortByLikes SortMode = iota
	SortByRecency
)

// ListingView is a listing composed with its derived price for
// presentation. Bids is populated only when the requester owns the
// listing; PriceValue is visible to everyone.
type ListingView struct {
	Listing
	PriceValue decimal.Decimal `json:"price_value"`
	IsOwner    bool            `json:"is_owner"`
	Bids       []Bid           `json:"bids"`
}

// ListingSummary is the paged-list projection of a listing. It carries
// aggregate counts but never the bid history.
type ListingSummary struct {
	ListingID  string          `json:"listing_id"`
	Title      string          `json:"title"`
	CreatorID  string          `json:"creator_id"`
	StartPrice decimal.Decimal `json:"start_price"`
	EndTime    time.Time       `json:"end_time"`
	ImageRef   string          `json:"image_ref"`
	CreatedAt  time.Time       `json:"created_at"`
	LikeCount  int             `json:"like_count"`
}

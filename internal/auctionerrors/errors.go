package auctionerrors

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Repository-level errors
var (
	ErrListingNotFound = errors.New("listing not found")
	ErrNoBids          = errors.New("no bids found for listing")
	ErrStorageFailure  = errors.New("storage failure")
)

// business logic errors
var (
	ErrInvalidListing = errors.New("invalid listing")
	ErrInvalidBid     = errors.New("invalid bid")
	ErrInvalidComment = errors.New("invalid comment")
	ErrBidTooLow      = errors.New("bid price too low")
	ErrAlreadyLiked   = errors.New("user already liked listing")
	ErrNotOwner       = errors.New("requester is not the listing owner")
)

// BidTooLowError reports a rejected bid together with the price the
// proposal failed to exceed, so callers can surface it to the bidder.
// It unwraps to ErrBidTooLow for errors.Is checks.
type BidTooLowError struct {
	CurrentPrice decimal.Decimal
}

func (e *BidTooLowError) Error() string {
	return fmt.Sprintf("%v: current price is %s", ErrBidTooLow, e.CurrentPrice.String())
}

func (e *BidTooLowError) Unwrap() error {
	return ErrBidTooLow
}

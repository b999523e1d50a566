package auction

import (
	"errors"
	"fmt"
	"time"

	"auction-house/internal/auctionerrors"
	"auction-house/internal/config"
	"auction-house/internal/metrics"
	"auction-house/internal/models"
	"auction-house/internal/repository"
	"auction-house/utils"

	"github.com/shopspring/decimal"
)

// AuctionService defines the business logic for the auction listing
// engine: listing lifecycle, bid admission, price derivation and
// engagement (comments, likes).
type AuctionService struct {
	repo repository.AuctionStore
	cfg  config.ListingConfig
}

// NewAuctionService creates a new AuctionService instance
func NewAuctionService(repo repository.AuctionStore, cfg config.ListingConfig) *AuctionService {
	return &AuctionService{
		repo: repo,
		cfg:  cfg,
	}
}

// CreateListing validates and stores a new listing. The start price is
// fixed here for the listing's lifetime.
func (s *AuctionService) CreateListing(creatorID, title, description string, startPrice decimal.Decimal, endTime time.Time, imageRef string) (models.Listing, error) {
	if creatorID == "" || title == "" || description == "" {
		return models.Listing{}, fmt.Errorf("service: %w - missing creator, title or description", auctionerrors.ErrInvalidListing)
	}
	if startPrice.IsNegative() {
		return models.Listing{}, fmt.Errorf("service: %w - negative start price", auctionerrors.ErrInvalidListing)
	}
	if endTime.IsZero() || !endTime.After(time.Now().UTC()) {
		return models.Listing{}, fmt.Errorf("service: %w - end time must be in the future", auctionerrors.ErrInvalidListing)
	}

	listing := models.Listing{
		ListingID:   utils.GenerateID(),
		Title:       title,
		Description: description,
		CreatorID:   creatorID,
		StartPrice:  startPrice,
		EndTime:     endTime.UTC(),
		ImageRef:    imageRef,
		CreatedAt:   time.Now().UTC(),
		CommentIDs:  []string{},
		Likes:       []string{},
	}

	if err := s.repo.CreateListing(listing); err != nil {
		return models.Listing{}, fmt.Errorf("service: failed to create listing by user %s: %w", creatorID, err)
	}
	return listing, nil
}

// PlaceBid validates and atomically admits a user's bid on a listing.
// The price comparison against the current highest bid happens inside the
// store's conditional append, never on a value read here.
func (s *AuctionService) PlaceBid(listingID, bidderID string, price decimal.Decimal) (models.Bid, error) {
	if listingID == "" || bidderID == "" {
		return models.Bid{}, fmt.Errorf("service: %w - missing listingID or bidderID", auctionerrors.ErrInvalidBid)
	}
	if !price.IsPositive() {
		return models.Bid{}, fmt.Errorf("service: %w - non-positive bid price", auctionerrors.ErrInvalidBid)
	}

	bid := models.Bid{
		BidID:      utils.GenerateID(),
		ListingID:  listingID,
		BidderID:   bidderID,
		PriceValue: price,
		CreatedAt:  time.Now().UTC(),
	}

	if err := s.repo.AppendBidIfHighest(bid); err != nil {
		switch {
		case errors.Is(err, auctionerrors.ErrBidTooLow):
			metrics.BidsRejected.WithLabelValues("too_low").Inc()
		case errors.Is(err, auctionerrors.ErrListingNotFound):
			metrics.BidsRejected.WithLabelValues("not_found").Inc()
		default:
			metrics.BidsRejected.WithLabelValues("storage").Inc()
		}
		return models.Bid{}, fmt.Errorf("service: failed to admit bid for listing %s by user %s: %w", listingID, bidderID, err)
	}

	metrics.BidsAdmitted.Inc()
	return bid, nil
}

// CurrentPrice resolves the listing's current price: the highest admitted
// bid, or the start price with an empty bidder when no bids exist. The
// result is a point-in-time snapshot and never gates a write.
func (s *AuctionService) CurrentPrice(listingID string) (decimal.Decimal, string, error) {
	if listingID == "" {
		return decimal.Decimal{}, "", fmt.Errorf("service: %w - empty listing ID", auctionerrors.ErrInvalidListing)
	}

	listing, err := s.repo.GetListing(listingID)
	if err != nil {
		return decimal.Decimal{}, "", fmt.Errorf("service: failed to resolve price for listing %s: %w", listingID, err)
	}

	winning, err := s.repo.GetWinningBid(listingID)
	if err != nil {
		if errors.Is(err, auctionerrors.ErrNoBids) {
			return listing.StartPrice, "", nil
		}
		return decimal.Decimal{}, "", fmt.Errorf("service: failed to resolve price for listing %s: %w", listingID, err)
	}
	return winning.PriceValue, winning.BidderID, nil
}

// ViewListing composes a listing with its derived price. The full bid
// history, ordered price-descending, is visible only to the owner; the
// current price is visible to everyone.
func (s *AuctionService) ViewListing(listingID, requesterID string) (models.ListingView, error) {
	if listingID == "" {
		return models.ListingView{}, fmt.Errorf("service: %w - empty listing ID", auctionerrors.ErrInvalidListing)
	}

	listing, err := s.repo.GetListing(listingID)
	if err != nil {
		return models.ListingView{}, fmt.Errorf("service: failed to view listing %s: %w", listingID, err)
	}

	bids, err := s.repo.GetBidsByListing(listingID)
	if err != nil {
		return models.ListingView{}, fmt.Errorf("service: failed to load bids for listing %s: %w", listingID, err)
	}

	price := listing.StartPrice
	if len(bids) > 0 {
		price = bids[0].PriceValue
	}

	isOwner := requesterID != "" && requesterID == listing.CreatorID
	view := models.ListingView{
		Listing:    listing,
		PriceValue: price,
		IsOwner:    isOwner,
		Bids:       []models.Bid{},
	}
	if isOwner {
		view.Bids = bids
	}
	return view, nil
}

// ListListings returns a page of listing summaries. take is clamped to the
// configured page-size bounds; creatorID is an optional filter.
func (s *AuctionService) ListListings(creatorID string, sortMode models.SortMode, skip, take int) ([]models.ListingSummary, error) {
	if sortMode != models.SortByLikes && sortMode != models.SortByRecency {
		return nil, fmt.Errorf("service: %w - unknown sort mode %d", auctionerrors.ErrInvalidListing, sortMode)
	}
	if take <= 0 {
		take = s.cfg.DefaultPageSize
	}
	if s.cfg.MaxPageSize > 0 && take > s.cfg.MaxPageSize {
		take = s.cfg.MaxPageSize
	}

	listings, err := s.repo.ListListings(creatorID, sortMode, skip, take)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list listings: %w", err)
	}
	return summarize(listings), nil
}

// LatestListings returns the configured number of most recent listings.
func (s *AuctionService) LatestListings() ([]models.ListingSummary, error) {
	listings, err := s.repo.ListListings("", models.SortByRecency, 0, s.cfg.LatestCount)
	if err != nil {
		return nil, fmt.Errorf("service: failed to load latest listings: %w", err)
	}
	return summarize(listings), nil
}

// EditListing updates a listing's title and description. Only the creator
// may edit; this check lives here, not in upstream middleware.
func (s *AuctionService) EditListing(listingID, requesterID, title, description string) (models.Listing, error) {
	if listingID == "" || requesterID == "" {
		return models.Listing{}, fmt.Errorf("service: %w - missing listingID or requester", auctionerrors.ErrInvalidListing)
	}

	listing, err := s.repo.GetListing(listingID)
	if err != nil {
		return models.Listing{}, fmt.Errorf("service: failed to edit listing %s: %w", listingID, err)
	}
	if listing.CreatorID != requesterID {
		return models.Listing{}, fmt.Errorf("service: edit listing %s by user %s: %w", listingID, requesterID, auctionerrors.ErrNotOwner)
	}

	updated, err := s.repo.UpdateListingContent(listingID, title, description)
	if err != nil {
		return models.Listing{}, fmt.Errorf("service: failed to edit listing %s: %w", listingID, err)
	}
	return updated, nil
}

// DeleteListing removes a listing and its bids and comments. Owner-only.
func (s *AuctionService) DeleteListing(listingID, requesterID string) error {
	if listingID == "" || requesterID == "" {
		return fmt.Errorf("service: %w - missing listingID or requester", auctionerrors.ErrInvalidListing)
	}

	listing, err := s.repo.GetListing(listingID)
	if err != nil {
		return fmt.Errorf("service: failed to delete listing %s: %w", listingID, err)
	}
	if listing.CreatorID != requesterID {
		return fmt.Errorf("service: delete listing %s by user %s: %w", listingID, requesterID, auctionerrors.ErrNotOwner)
	}

	if err := s.repo.DeleteListing(listingID); err != nil {
		return fmt.Errorf("service: failed to delete listing %s: %w", listingID, err)
	}
	return nil
}

// CountListings returns the total number of listings.
func (s *AuctionService) CountListings() (int, error) {
	count, err := s.repo.CountListings()
	if err != nil {
		return 0, fmt.Errorf("service: failed to count listings: %w", err)
	}
	return count, nil
}

// GetWinningBid returns the highest bid for a specific listing
func (s *AuctionService) GetWinningBid(listingID string) (models.Bid, error) {
	if listingID == "" {
		return models.Bid{}, fmt.Errorf("service: %w - empty listing ID", auctionerrors.ErrInvalidBid)
	}

	winning, err := s.repo.GetWinningBid(listingID)
	if err != nil {
		return models.Bid{}, fmt.Errorf("service: failed to get winning bid for listing %s: %w", listingID, err)
	}
	return winning, nil
}

// AddComment creates a comment and appends it to the listing's comment
// sequence.
func (s *AuctionService) AddComment(listingID, creatorID, body string) (models.Comment, error) {
	if listingID == "" || creatorID == "" || body == "" {
		return models.Comment{}, fmt.Errorf("service: %w - missing listingID, creator or body", auctionerrors.ErrInvalidComment)
	}

	comment := models.Comment{
		CommentID: utils.GenerateID(),
		ListingID: listingID,
		CreatorID: creatorID,
		Body:      body,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.repo.AddComment(comment); err != nil {
		return models.Comment{}, fmt.Errorf("service: failed to add comment for listing %s by user %s: %w", listingID, creatorID, err)
	}
	return comment, nil
}

// AddLike adds the user to the listing's liker set; a repeated like fails
// rather than silently no-op-ing.
func (s *AuctionService) AddLike(listingID, userID string) (models.Listing, error) {
	if listingID == "" || userID == "" {
		return models.Listing{}, fmt.Errorf("service: %w - missing listingID or userID", auctionerrors.ErrInvalidListing)
	}

	listing, err := s.repo.AddLike(listingID, userID)
	if err != nil {
		return models.Listing{}, fmt.Errorf("service: failed to add like for listing %s by user %s: %w", listingID, userID, err)
	}
	return listing, nil
}

func summarize(listings []models.Listing) []models.ListingSummary {
	summaries := make([]models.ListingSummary, 0, len(listings))
	for _, l := range listings {
		summaries = append(summaries, models.ListingSummary{
			ListingID:  l.ListingID,
			Title:      l.Title,
			CreatorID:  l.CreatorID,
			StartPrice: l.StartPrice,
			EndTime:    l.EndTime,
			ImageRef:   l.ImageRef,
			CreatedAt:  l.CreatedAt,
			LikeCount:  len(l.Likes),
		})
	}
	return summaries
}

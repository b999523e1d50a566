package repository

import (
	"fmt"
	"sort"
	"sync"

	"auction-house/internal/auctionerrors"
	model "auction-house/internal/models"
)

// AuctionStore defines the listing and bid storage interface for the
// auction system. AppendBidIfHighest is the bid ledger's only write path
// and must execute its price check and append as one atomic step per
// listing; submissions for different listings must not contend.
type AuctionStore interface {
	CreateListing(listing model.Listing) error
	GetListing(listingID string) (model.Listing, error)
	UpdateListingContent(listingID, title, description string) (model.Listing, error)
	DeleteListing(listingID string) error
	ListListings(creatorID string, sortMode model.SortMode, skip, take int) ([]model.Listing, error)
	CountListings() (int, error)

	AppendBidIfHighest(bid model.Bid) error
	GetBidsByListing(listingID string) ([]model.Bid, error)
	GetWinningBid(listingID string) (model.Bid, error)

	AddComment(comment model.Comment) error
	AddLike(listingID, userID string) (model.Listing, error)
}

// listingState groups a listing with its bid ledger behind a dedicated
// mutex, so admission for one listing never blocks another.
type listingState struct {
	mu      sync.Mutex
	listing model.Listing
	bids    []model.Bid
}

// MemoryStore is a concurrency-safe in-memory implementation of
// AuctionStore. The outer RWMutex guards the maps; each listing carries
// its own lock for bid admission, likes and comment appends.
type MemoryStore struct {
	mu       sync.RWMutex
	listings map[string]*listingState // key: listingID
	comments map[string]model.Comment // key: commentID
}

// NewMemoryStore creates a new in-memory store instance
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		listings: make(map[string]*listingState),
		comments: make(map[string]model.Comment),
	}
}

func (s *MemoryStore) state(listingID string) (*listingState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.listings[listingID]
	return st, ok
}

// CreateListing stores a new listing.
func (s *MemoryStore) CreateListing(listing model.Listing) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.listings[listing.ListingID]; ok {
		return fmt.Errorf("create listing %s: duplicate id", listing.ListingID)
	}
	s.listings[listing.ListingID] = &listingState{listing: copyListing(listing)}
	return nil
}

// GetListing returns a snapshot of a listing.
func (s *MemoryStore) GetListing(listingID string) (model.Listing, error) {
	st, ok := s.state(listingID)
	if !ok {
		return model.Listing{}, fmt.Errorf("get listing %s: %w", listingID, auctionerrors.ErrListingNotFound)
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	return copyListing(st.listing), nil
}

// UpdateListingContent replaces a listing's title and description. All
// other fields, the start price included, are immutable after creation.
func (s *MemoryStore) UpdateListingContent(listingID, title, description string) (model.Listing, error) {
	st, ok := s.state(listingID)
	if !ok {
		return model.Listing{}, fmt.Errorf("update listing %s: %w", listingID, auctionerrors.ErrListingNotFound)
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	st.listing.Title = title
	st.listing.Description = description
	return copyListing(st.listing), nil
}

// DeleteListing removes a listing and cascades to its bids and comments.
func (s *MemoryStore) DeleteListing(listingID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.listings[listingID]
	if !ok {
		return fmt.Errorf("delete listing %s: %w", listingID, auctionerrors.ErrListingNotFound)
	}
	for _, commentID := range st.listing.CommentIDs {
		delete(s.comments, commentID)
	}
	delete(s.listings, listingID)
	return nil
}

// ListListings returns a page of listings ordered by like count or
// creation time, both descending. An empty creatorID applies no filter.
func (s *MemoryStore) ListListings(creatorID string, sortMode model.SortMode, skip, take int) ([]model.Listing, error) {
	s.mu.RLock()
	all := make([]*listingState, 0, len(s.listings))
	for _, st := range s.listings {
		all = append(all, st)
	}
	s.mu.RUnlock()

	listings := make([]model.Listing, 0, len(all))
	for _, st := range all {
		st.mu.Lock()
		snapshot := copyListing(st.listing)
		st.mu.Unlock()
		if creatorID != "" && snapshot.CreatorID != creatorID {
			continue
		}
		listings = append(listings, snapshot)
	}

	sort.SliceStable(listings, func(i, j int) bool {
		if sortMode == model.SortByLikes {
			if len(listings[i].Likes) != len(listings[j].Likes) {
				return len(listings[i].Likes) > len(listings[j].Likes)
			}
		}
		return listings[i].CreatedAt.After(listings[j].CreatedAt)
	})

	if skip < 0 {
		skip = 0
	}
	if skip >= len(listings) {
		return []model.Listing{}, nil
	}
	listings = listings[skip:]
	if take > 0 && take < len(listings) {
		listings = listings[:take]
	}
	return listings, nil
}

// CountListings returns the number of stored listings.
func (s *MemoryStore) CountListings() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.listings), nil
}

// AppendBidIfHighest admits a bid only if its price strictly exceeds the
// listing's current price (highest admitted bid, or the start price when
// the ledger is empty). The check and the append run under the listing's
// own lock, so concurrent submissions for the same listing serialize and
// a stale price read can never admit a losing bid.
func (s *MemoryStore) AppendBidIfHighest(bid model.Bid) error {
	st, ok := s.state(bid.ListingID)
	if !ok {
		return fmt.Errorf("append bid for listing %s: %w", bid.ListingID, auctionerrors.ErrListingNotFound)
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	current := st.listing.StartPrice
	for _, b := range st.bids {
		if b.PriceValue.GreaterThan(current) {
			current = b.PriceValue
		}
	}

	if !bid.PriceValue.GreaterThan(current) {
		return fmt.Errorf("append bid for listing %s: %w", bid.ListingID, &auctionerrors.BidTooLowError{CurrentPrice: current})
	}

	st.bids = append(st.bids, bid)
	return nil
}

// GetBidsByListing returns the listing's bids ordered by price descending.
func (s *MemoryStore) GetBidsByListing(listingID string) ([]model.Bid, error) {
	st, ok := s.state(listingID)
	if !ok {
		return nil, fmt.Errorf("get bids for listing %s: %w", listingID, auctionerrors.ErrListingNotFound)
	}

	st.mu.Lock()
	bids := append([]model.Bid(nil), st.bids...)
	st.mu.Unlock()

	sortBidsByPriceDesc(bids)
	return bids, nil
}

// sortBidsByPriceDesc orders bids highest-first for presentation.
func sortBidsByPriceDesc(bids []model.Bid) {
	sort.SliceStable(bids, func(i, j int) bool {
		return bids[i].PriceValue.GreaterThan(bids[j].PriceValue)
	})
}

// GetWinningBid returns the highest bid for a listing. The strict-increase
// invariant rules out price ties, so the maximum is unique.
func (s *MemoryStore) GetWinningBid(listingID string) (model.Bid, error) {
	st, ok := s.state(listingID)
	if !ok {
		return model.Bid{}, fmt.Errorf("get winning bid for listing %s: %w", listingID, auctionerrors.ErrListingNotFound)
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	if len(st.bids) == 0 {
		return model.Bid{}, fmt.Errorf("get winning bid for listing %s: %w", listingID, auctionerrors.ErrNoBids)
	}

	winning := st.bids[0]
	for _, b := range st.bids[1:] {
		if b.PriceValue.GreaterThan(winning.PriceValue) {
			winning = b
		}
	}
	return winning, nil
}

// AddComment stores a comment and appends its reference to the listing's
// comment sequence. The whole operation holds the map lock so a concurrent
// cascade delete can never strand the comment between the two writes.
func (s *MemoryStore) AddComment(comment model.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.listings[comment.ListingID]
	if !ok {
		return fmt.Errorf("add comment for listing %s: %w", comment.ListingID, auctionerrors.ErrListingNotFound)
	}

	s.comments[comment.CommentID] = comment

	st.mu.Lock()
	st.listing.CommentIDs = append(st.listing.CommentIDs, comment.CommentID)
	st.mu.Unlock()
	return nil
}

// AddLike adds a user to the listing's liker set. The membership check and
// the insert run under the listing lock, so a duplicate like can never be
// admitted by a concurrent pair of calls.
func (s *MemoryStore) AddLike(listingID, userID string) (model.Listing, error) {
	st, ok := s.state(listingID)
	if !ok {
		return model.Listing{}, fmt.Errorf("add like for listing %s: %w", listingID, auctionerrors.ErrListingNotFound)
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	for _, id := range st.listing.Likes {
		if id == userID {
			return model.Listing{}, fmt.Errorf("add like for listing %s by user %s: %w", listingID, userID, auctionerrors.ErrAlreadyLiked)
		}
	}
	st.listing.Likes = append(st.listing.Likes, userID)
	return copyListing(st.listing), nil
}

// copyListing returns a deep copy so callers never share the store's
// internal slices.
func copyListing(l model.Listing) model.Listing {
	out := l
	out.CommentIDs = append([]string(nil), l.CommentIDs...)
	out.Likes = append([]string(nil), l.Likes...)
	return out
}

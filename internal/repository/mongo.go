package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"auction-house/internal/auctionerrors"
	model "auction-house/internal/models"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	collListings = "listings"
	collBids     = "bids"
	collComments = "comments"
)

// Prices are stored as decimal strings and always compared in Go; the
// engine never relies on storage order for correctness.
type listingDoc struct {
	ID          string    `bson:"_id"`
	Title       string    `bson:"title"`
	Description string    `bson:"description"`
	CreatorID   string    `bson:"creator_id"`
	StartPrice  string    `bson:"start_price"`
	EndTime     time.Time `bson:"end_time"`
	ImageRef    string    `bson:"image_ref"`
	CreatedAt   time.Time `bson:"created_at"`
	CommentIDs  []string  `bson:"comment_ids"`
	Likes       []string  `bson:"likes"`
	BidSeq      int64     `bson:"bid_seq"`
}

type bidDoc struct {
	ID         string    `bson:"_id"`
	ListingID  string    `bson:"listing_id"`
	BidderID   string    `bson:"bidder_id"`
	PriceValue string    `bson:"price_value"`
	CreatedAt  time.Time `bson:"created_at"`
}

type commentDoc struct {
	ID        string    `bson:"_id"`
	ListingID string    `bson:"listing_id"`
	CreatorID string    `bson:"creator_id"`
	Body      string    `bson:"body"`
	CreatedAt time.Time `bson:"created_at"`
}

// MongoStore is a MongoDB-backed implementation of AuctionStore. Bid
// admission runs inside a session transaction so the price check and the
// insert commit as one unit per listing.
type MongoStore struct {
	client    *mongo.Client
	db        *mongo.Database
	opTimeout time.Duration
}

// NewMongoStore wraps an already connected client.
func NewMongoStore(client *mongo.Client, database string, opTimeout time.Duration) *MongoStore {
	return &MongoStore{
		client:    client,
		db:        client.Database(database),
		opTimeout: opTimeout,
	}
}

func (s *MongoStore) opContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.opTimeout)
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, auctionerrors.ErrStorageFailure, err)
}

// CreateListing stores a new listing.
func (s *MongoStore) CreateListing(listing model.Listing) error {
	ctx, cancel := s.opContext()
	defer cancel()

	if _, err := s.db.Collection(collListings).InsertOne(ctx, toListingDoc(listing)); err != nil {
		return storageErr("create listing", err)
	}
	return nil
}

// GetListing returns a listing by id.
func (s *MongoStore) GetListing(listingID string) (model.Listing, error) {
	ctx, cancel := s.opContext()
	defer cancel()

	return s.findListing(ctx, listingID)
}

func (s *MongoStore) findListing(ctx context.Context, listingID string) (model.Listing, error) {
	var doc listingDoc
	err := s.db.Collection(collListings).FindOne(ctx, bson.M{"_id": listingID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.Listing{}, fmt.Errorf("get listing %s: %w", listingID, auctionerrors.ErrListingNotFound)
	}
	if err != nil {
		return model.Listing{}, storageErr("get listing", err)
	}
	return fromListingDoc(doc)
}

// UpdateListingContent replaces a listing's title and description.
func (s *MongoStore) UpdateListingContent(listingID, title, description string) (model.Listing, error) {
	ctx, cancel := s.opContext()
	defer cancel()

	update := bson.M{"$set": bson.M{"title": title, "description": description}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc listingDoc
	err := s.db.Collection(collListings).FindOneAndUpdate(ctx, bson.M{"_id": listingID}, update, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.Listing{}, fmt.Errorf("update listing %s: %w", listingID, auctionerrors.ErrListingNotFound)
	}
	if err != nil {
		return model.Listing{}, storageErr("update listing", err)
	}
	return fromListingDoc(doc)
}

// DeleteListing removes a listing and cascades to its bids and comments.
func (s *MongoStore) DeleteListing(listingID string) error {
	ctx, cancel := s.opContext()
	defer cancel()

	res, err := s.db.Collection(collListings).DeleteOne(ctx, bson.M{"_id": listingID})
	if err != nil {
		return storageErr("delete listing", err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("delete listing %s: %w", listingID, auctionerrors.ErrListingNotFound)
	}

	if _, err := s.db.Collection(collBids).DeleteMany(ctx, bson.M{"listing_id": listingID}); err != nil {
		return storageErr("delete listing bids", err)
	}
	if _, err := s.db.Collection(collComments).DeleteMany(ctx, bson.M{"listing_id": listingID}); err != nil {
		return storageErr("delete listing comments", err)
	}
	return nil
}

// ListListings returns a page of listings. Like-count ordering uses an
// aggregation over the size of the likes array.
func (s *MongoStore) ListListings(creatorID string, sortMode model.SortMode, skip, take int) ([]model.Listing, error) {
	ctx, cancel := s.opContext()
	defer cancel()

	match := bson.M{}
	if creatorID != "" {
		match["creator_id"] = creatorID
	}
	if skip < 0 {
		skip = 0
	}

	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: match}},
	}
	if sortMode == model.SortByLikes {
		pipeline = append(pipeline,
			bson.D{{Key: "$addFields", Value: bson.M{"like_count": bson.M{"$size": bson.M{"$ifNull": bson.A{"$likes", bson.A{}}}}}}},
			bson.D{{Key: "$sort", Value: bson.D{{Key: "like_count", Value: -1}, {Key: "created_at", Value: -1}}}},
		)
	} else {
		pipeline = append(pipeline,
			bson.D{{Key: "$sort", Value: bson.D{{Key: "created_at", Value: -1}}}},
		)
	}
	pipeline = append(pipeline, bson.D{{Key: "$skip", Value: skip}})
	if take > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$limit", Value: take}})
	}

	cursor, err := s.db.Collection(collListings).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, storageErr("list listings", err)
	}
	defer cursor.Close(ctx)

	listings := []model.Listing{}
	for cursor.Next(ctx) {
		var doc listingDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, storageErr("list listings decode", err)
		}
		listing, err := fromListingDoc(doc)
		if err != nil {
			return nil, err
		}
		listings = append(listings, listing)
	}
	if err := cursor.Err(); err != nil {
		return nil, storageErr("list listings cursor", err)
	}
	return listings, nil
}

// CountListings returns the number of stored listings.
func (s *MongoStore) CountListings() (int, error) {
	ctx, cancel := s.opContext()
	defer cancel()

	count, err := s.db.Collection(collListings).CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, storageErr("count listings", err)
	}
	return int(count), nil
}

// AppendBidIfHighest admits a bid inside a transaction. Transactions only
// conflict on overlapping document writes, and the bid itself is a fresh
// document, so the transaction first bumps bid_seq on the listing: every
// admission attempt against the same listing then writes the same document,
// and of two racing attempts one aborts, retries on a fresh snapshot and
// re-derives the current price. No stale read can commit a losing bid.
func (s *MongoStore) AppendBidIfHighest(bid model.Bid) error {
	ctx, cancel := s.opContext()
	defer cancel()

	session, err := s.client.StartSession()
	if err != nil {
		return storageErr("append bid session", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		res, err := s.db.Collection(collListings).UpdateOne(sc,
			bson.M{"_id": bid.ListingID},
			bson.M{"$inc": bson.M{"bid_seq": 1}},
		)
		if err != nil {
			return nil, storageErr("append bid seq", err)
		}
		if res.MatchedCount == 0 {
			return nil, fmt.Errorf("append bid for listing %s: %w", bid.ListingID, auctionerrors.ErrListingNotFound)
		}

		listing, err := s.findListing(sc, bid.ListingID)
		if err != nil {
			return nil, err
		}

		bids, err := s.bidsForListing(sc, bid.ListingID)
		if err != nil {
			return nil, err
		}

		current := listing.StartPrice
		for _, b := range bids {
			if b.PriceValue.GreaterThan(current) {
				current = b.PriceValue
			}
		}
		if !bid.PriceValue.GreaterThan(current) {
			return nil, fmt.Errorf("append bid for listing %s: %w", bid.ListingID, &auctionerrors.BidTooLowError{CurrentPrice: current})
		}

		if _, err := s.db.Collection(collBids).InsertOne(sc, toBidDoc(bid)); err != nil {
			return nil, storageErr("append bid insert", err)
		}
		return nil, nil
	})
	return err
}

func (s *MongoStore) bidsForListing(ctx context.Context, listingID string) ([]model.Bid, error) {
	cursor, err := s.db.Collection(collBids).Find(ctx, bson.M{"listing_id": listingID})
	if err != nil {
		return nil, storageErr("get bids", err)
	}
	defer cursor.Close(ctx)

	bids := []model.Bid{}
	for cursor.Next(ctx) {
		var doc bidDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, storageErr("get bids decode", err)
		}
		b, err := fromBidDoc(doc)
		if err != nil {
			return nil, err
		}
		bids = append(bids, b)
	}
	if err := cursor.Err(); err != nil {
		return nil, storageErr("get bids cursor", err)
	}
	return bids, nil
}

// GetBidsByListing returns the listing's bids ordered by price descending.
func (s *MongoStore) GetBidsByListing(listingID string) ([]model.Bid, error) {
	ctx, cancel := s.opContext()
	defer cancel()

	if _, err := s.findListing(ctx, listingID); err != nil {
		return nil, err
	}

	bids, err := s.bidsForListing(ctx, listingID)
	if err != nil {
		return nil, err
	}
	sortBidsByPriceDesc(bids)
	return bids, nil
}

// GetWinningBid returns the highest bid for a listing.
func (s *MongoStore) GetWinningBid(listingID string) (model.Bid, error) {
	ctx, cancel := s.opContext()
	defer cancel()

	if _, err := s.findListing(ctx, listingID); err != nil {
		return model.Bid{}, err
	}

	bids, err := s.bidsForListing(ctx, listingID)
	if err != nil {
		return model.Bid{}, err
	}
	if len(bids) == 0 {
		return model.Bid{}, fmt.Errorf("get winning bid for listing %s: %w", listingID, auctionerrors.ErrNoBids)
	}

	winning := bids[0]
	for _, b := range bids[1:] {
		if b.PriceValue.GreaterThan(winning.PriceValue) {
			winning = b
		}
	}
	return winning, nil
}

// AddComment stores a comment and appends its reference to the listing's
// comment sequence. The push is keyed by listing id; a missing listing
// rolls the comment insert back.
func (s *MongoStore) AddComment(comment model.Comment) error {
	ctx, cancel := s.opContext()
	defer cancel()

	if _, err := s.db.Collection(collComments).InsertOne(ctx, toCommentDoc(comment)); err != nil {
		return storageErr("add comment", err)
	}

	res, err := s.db.Collection(collListings).UpdateOne(ctx,
		bson.M{"_id": comment.ListingID},
		bson.M{"$push": bson.M{"comment_ids": comment.CommentID}},
	)
	if err != nil {
		return storageErr("add comment link", err)
	}
	if res.MatchedCount == 0 {
		_, _ = s.db.Collection(collComments).DeleteOne(ctx, bson.M{"_id": comment.CommentID})
		return fmt.Errorf("add comment for listing %s: %w", comment.ListingID, auctionerrors.ErrListingNotFound)
	}
	return nil
}

// AddLike adds a user to the liker set. The $ne guard makes the duplicate
// check and the insert a single atomic update.
func (s *MongoStore) AddLike(listingID, userID string) (model.Listing, error) {
	ctx, cancel := s.opContext()
	defer cancel()

	res, err := s.db.Collection(collListings).UpdateOne(ctx,
		bson.M{"_id": listingID, "likes": bson.M{"$ne": userID}},
		bson.M{"$addToSet": bson.M{"likes": userID}},
	)
	if err != nil {
		return model.Listing{}, storageErr("add like", err)
	}
	if res.MatchedCount == 0 {
		if _, err := s.findListing(ctx, listingID); err != nil {
			return model.Listing{}, err
		}
		return model.Listing{}, fmt.Errorf("add like for listing %s by user %s: %w", listingID, userID, auctionerrors.ErrAlreadyLiked)
	}
	return s.findListing(ctx, listingID)
}

func toListingDoc(l model.Listing) listingDoc {
	return listingDoc{
		ID:          l.ListingID,
		Title:       l.Title,
		Description: l.Description,
		CreatorID:   l.CreatorID,
		StartPrice:  l.StartPrice.String(),
		EndTime:     l.EndTime,
		ImageRef:    l.ImageRef,
		CreatedAt:   l.CreatedAt,
		CommentIDs:  l.CommentIDs,
		Likes:       l.Likes,
	}
}

func fromListingDoc(doc listingDoc) (model.Listing, error) {
	startPrice, err := decimal.NewFromString(doc.StartPrice)
	if err != nil {
		return model.Listing{}, storageErr("decode listing price", err)
	}
	return model.Listing{
		ListingID:   doc.ID,
		Title:       doc.Title,
		Description: doc.Description,
		CreatorID:   doc.CreatorID,
		StartPrice:  startPrice,
		EndTime:     doc.EndTime,
		ImageRef:    doc.ImageRef,
		CreatedAt:   doc.CreatedAt,
		CommentIDs:  doc.CommentIDs,
		Likes:       doc.Likes,
	}, nil
}

func toBidDoc(b model.Bid) bidDoc {
	return bidDoc{
		ID:         b.BidID,
		ListingID:  b.ListingID,
		BidderID:   b.BidderID,
		PriceValue: b.PriceValue.String(),
		CreatedAt:  b.CreatedAt,
	}
}

func fromBidDoc(doc bidDoc) (model.Bid, error) {
	price, err := decimal.NewFromString(doc.PriceValue)
	if err != nil {
		return model.Bid{}, storageErr("decode bid price", err)
	}
	return model.Bid{
		BidID:      doc.ID,
		ListingID:  doc.ListingID,
		BidderID:   doc.BidderID,
		PriceValue: price,
		CreatedAt:  doc.CreatedAt,
	}, nil
}

func toCommentDoc(c model.Comment) commentDoc {
	return commentDoc{
		ID:        c.CommentID,
		ListingID: c.ListingID,
		CreatorID: c.CreatorID,
		Body:      c.Body,
		CreatedAt: c.CreatedAt,
	}
}

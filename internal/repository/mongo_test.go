package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"auction-house/internal/auctionerrors"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// newTestMongoStore connects to the MongoDB named by AUCTION_TEST_MONGO_URI
// and hands back a store over a throwaway database. Transactions need a
// replica set, so a plain standalone mongod will not do.
func newTestMongoStore(t *testing.T) *MongoStore {
	t.Helper()

	uri := os.Getenv("AUCTION_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("AUCTION_TEST_MONGO_URI not set; skipping MongoDB store tests")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	require.NoError(t, err)
	require.NoError(t, client.Ping(ctx, nil))

	dbName := fmt.Sprintf("auction_test_%d", time.Now().UnixNano())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = client.Database(dbName).Drop(ctx)
		_ = client.Disconnect(ctx)
	})

	return NewMongoStore(client, dbName, 10*time.Second)
}

func TestMongoStore_AppendBidIfHighest(t *testing.T) {
	store := newTestMongoStore(t)

	require.NoError(t, store.CreateListing(newListing("listing1", "owner1", 50)))

	err := store.AppendBidIfHighest(newBid("bid1", "listing1", "user1", 50, time.Now().UTC()))
	require.True(t, errors.Is(err, auctionerrors.ErrBidTooLow))

	var tooLow *auctionerrors.BidTooLowError
	require.True(t, errors.As(err, &tooLow))
	require.True(t, tooLow.CurrentPrice.Equal(decimal.NewFromInt(50)))

	// a rejected bid must leave the ledger untouched
	_, err = store.GetWinningBid("listing1")
	require.True(t, errors.Is(err, auctionerrors.ErrNoBids))

	require.NoError(t, store.AppendBidIfHighest(newBid("bid2", "listing1", "user1", 100, time.Now().UTC())))

	err = store.AppendBidIfHighest(newBid("bid3", "listing1", "user2", 100, time.Now().UTC()))
	require.True(t, errors.Is(err, auctionerrors.ErrBidTooLow))
	require.True(t, errors.As(err, &tooLow))
	require.True(t, tooLow.CurrentPrice.Equal(decimal.NewFromInt(100)))

	err = store.AppendBidIfHighest(newBid("bid4", "missing", "user1", 100, time.Now().UTC()))
	require.True(t, errors.Is(err, auctionerrors.ErrListingNotFound))

	winning, err := store.GetWinningBid("listing1")
	require.NoError(t, err)
	require.Equal(t, "bid2", winning.BidID)
}

// Racing equal-price submissions read the same current price from their own
// snapshots. The bid_seq bump on the listing document forces the transactions
// to conflict, so exactly one of each pair commits.
func TestMongoStore_AppendBidIfHighest_ConcurrentEqualBids(t *testing.T) {
	store := newTestMongoStore(t)

	const bidders = 8

	for round := 0; round < 5; round++ {
		listingID := fmt.Sprintf("listing%d", round)
		require.NoError(t, store.CreateListing(newListing(listingID, "owner1", 50)))

		var wg sync.WaitGroup
		admitted := make([]error, bidders)
		for i := 0; i < bidders; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				bid := newBid(fmt.Sprintf("%s-bid%d", listingID, i), listingID, fmt.Sprintf("user%d", i), 100, time.Now().UTC())
				admitted[i] = store.AppendBidIfHighest(bid)
			}(i)
		}
		wg.Wait()

		wins := 0
		for _, err := range admitted {
			if err == nil {
				wins++
				continue
			}
			require.True(t, errors.Is(err, auctionerrors.ErrBidTooLow))
		}
		require.Equal(t, 1, wins)

		bids, err := store.GetBidsByListing(listingID)
		require.NoError(t, err)
		require.Len(t, bids, 1)
		require.True(t, bids[0].PriceValue.Equal(decimal.NewFromInt(100)))
	}
}

// Concurrent distinct prices may commit in any admissible order, but every
// admitted bid must have exceeded the price at its commit point, so admitted
// prices are pairwise distinct and the winner is the admitted maximum.
func TestMongoStore_AppendBidIfHighest_ConcurrentDistinctPrices(t *testing.T) {
	store := newTestMongoStore(t)

	require.NoError(t, store.CreateListing(newListing("listing1", "owner1", 50)))

	const bidders = 16
	var wg sync.WaitGroup
	results := make([]error, bidders)
	for i := 0; i < bidders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			bid := newBid(fmt.Sprintf("bid%d", i), "listing1", fmt.Sprintf("user%d", i), int64(100+i), time.Now().UTC())
			results[i] = store.AppendBidIfHighest(bid)
		}(i)
	}
	wg.Wait()

	// the top price always finds the ledger below it, so it must land
	require.NoError(t, results[bidders-1])

	bids, err := store.GetBidsByListing("listing1")
	require.NoError(t, err)
	require.NotEmpty(t, bids)
	require.True(t, bids[0].PriceValue.Equal(decimal.NewFromInt(100+bidders-1)))

	seen := map[string]bool{}
	for _, b := range bids {
		require.False(t, seen[b.PriceValue.String()])
		seen[b.PriceValue.String()] = true
	}

	winning, err := store.GetWinningBid("listing1")
	require.NoError(t, err)
	require.True(t, winning.PriceValue.Equal(bids[0].PriceValue))
}

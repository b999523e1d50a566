package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"auction-house/internal/auctionerrors"
	model "auction-house/internal/models"
	"auction-house/services/auction/helpers"

	"github.com/gin-gonic/gin"
	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// identityStub plays the role of the auth middleware in handler tests.
func identityStub(id string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if id != "" {
			helpers.SetIdentity(c, id)
		}
		c.Next()
	}
}

func performJSON(t *testing.T, router *gin.Engine, method, url string, body any) (map[string]any, *httptest.ResponseRecorder) {
	t.Helper()

	var reqBody []byte
	switch v := body.(type) {
	case nil:
	case string:
		reqBody = []byte(v)
	default:
		var err error
		reqBody, err = json.Marshal(v)
		require.NoError(t, err)
	}

	req := httptest.NewRequest(method, url, bytes.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var parsed map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &parsed))
	return parsed, w
}

// Test PlaceBidHandler
func TestPlaceBidHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockService := NewMockAuctionServiceInterface(ctrl)
	h := NewListingHandler(mockService, nil)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/api/listings/:listing_id/bids", identityStub("user1"), h.PlaceBidHandler)

	now := time.Now().UTC()

	tests := []struct {
		name           string
		body           any
		mockSetup      func()
		expectedStatus int
		validate       func(t *testing.T, resp map[string]any)
	}{
		{
			name: "success_valid_bid",
			body: helpers.PlaceBidRequest{PriceValue: decimal.NewFromInt(100)},
			mockSetup: func() {
				mockService.EXPECT().
					PlaceBid("listing1", "user1", gomock.Any()).
					Return(model.Bid{
						BidID:      uuid.NewString(),
						ListingID:  "listing1",
						BidderID:   "user1",
						PriceValue: decimal.NewFromInt(100),
						CreatedAt:  now,
					}, nil)
			},
			expectedStatus: http.StatusCreated,
			validate: func(t *testing.T, resp map[string]any) {
				data := resp["data"].(map[string]any)
				require.Equal(t, "listing1", data["listing_id"])
				require.Equal(t, "user1", data["bidder_id"])
				require.Equal(t, "100", data["price_value"])
				_, parseErr := uuid.Parse(data["bid_id"].(string))
				require.NoError(t, parseErr)
			},
		},
		{
			name:           "invalid_json",
			body:           `{invalid json}`,
			mockSetup:      func() {},
			expectedStatus: http.StatusBadRequest,
			validate: func(t *testing.T, resp map[string]any) {
				require.Equal(t, "validation", resp["reason"])
			},
		},
		{
			name: "bid_too_low_carries_current_price",
			body: helpers.PlaceBidRequest{PriceValue: decimal.NewFromInt(15)},
			mockSetup: func() {
				mockService.EXPECT().
					PlaceBid("listing1", "user1", gomock.Any()).
					Return(model.Bid{}, fmt.Errorf("service: %w", &auctionerrors.BidTooLowError{CurrentPrice: decimal.NewFromInt(15)}))
			},
			expectedStatus: http.StatusConflict,
			validate: func(t *testing.T, resp map[string]any) {
				require.Equal(t, "bid_too_low", resp["reason"])
				require.Equal(t, "15", resp["current_price"])
			},
		},
		{
			name: "listing_not_found",
			body: helpers.PlaceBidRequest{PriceValue: decimal.NewFromInt(15)},
			mockSetup: func() {
				mockService.EXPECT().
					PlaceBid("listing1", "user1", gomock.Any()).
					Return(model.Bid{}, fmt.Errorf("service: %w", auctionerrors.ErrListingNotFound))
			},
			expectedStatus: http.StatusNotFound,
			validate: func(t *testing.T, resp map[string]any) {
				require.Equal(t, "listing_not_found", resp["reason"])
			},
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			tc.mockSetup()

			resp, w := performJSON(t, router, http.MethodPost, "/api/listings/listing1/bids", tc.body)
			require.Equal(t, tc.expectedStatus, w.Code)
			if tc.validate != nil {
				tc.validate(t, resp)
			}
		})
	}
}

// Test ViewListingHandler
func TestViewListingHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockService := NewMockAuctionServiceInterface(ctrl)
	h := NewListingHandler(mockService, nil)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/api/listings/:listing_id", identityStub("owner1"), h.ViewListingHandler)

	t.Run("owner_view_includes_bids", func(t *testing.T) {
		mockService.EXPECT().
			ViewListing("listing1", "owner1").
			Return(model.ListingView{
				Listing:    model.Listing{ListingID: "listing1", CreatorID: "owner1", StartPrice: decimal.NewFromInt(10)},
				PriceValue: decimal.NewFromInt(20),
				IsOwner:    true,
				Bids: []model.Bid{
					{BidID: "bid2", PriceValue: decimal.NewFromInt(20)},
					{BidID: "bid1", PriceValue: decimal.NewFromInt(15)},
				},
			}, nil)

		resp, w := performJSON(t, router, http.MethodGet, "/api/listings/listing1", nil)
		require.Equal(t, http.StatusOK, w.Code)
		data := resp["data"].(map[string]any)
		require.Equal(t, true, data["is_owner"])
		require.Len(t, data["bids"], 2)
	})

	t.Run("missing_listing", func(t *testing.T) {
		mockService.EXPECT().
			ViewListing("missing", "owner1").
			Return(model.ListingView{}, fmt.Errorf("service: %w", auctionerrors.ErrListingNotFound))

		resp, w := performJSON(t, router, http.MethodGet, "/api/listings/missing", nil)
		require.Equal(t, http.StatusNotFound, w.Code)
		require.Equal(t, "listing_not_found", resp["reason"])
	})
}

// Test EditListingHandler
func TestEditListingHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockService := NewMockAuctionServiceInterface(ctrl)
	h := NewListingHandler(mockService, nil)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.PUT("/api/listings/:listing_id", identityStub("user9"), h.EditListingHandler)

	t.Run("non_owner_forbidden", func(t *testing.T) {
		mockService.EXPECT().
			EditListing("listing1", "user9", "t", "d").
			Return(model.Listing{}, fmt.Errorf("service: %w", auctionerrors.ErrNotOwner))

		resp, w := performJSON(t, router, http.MethodPut, "/api/listings/listing1", helpers.EditListingRequest{Title: "t", Description: "d"})
		require.Equal(t, http.StatusForbidden, w.Code)
		require.Equal(t, "not_owner", resp["reason"])
	})

	t.Run("owner_edit_succeeds", func(t *testing.T) {
		mockService.EXPECT().
			EditListing("listing1", "user9", "t", "d").
			Return(model.Listing{ListingID: "listing1", Title: "t", Description: "d"}, nil)

		resp, w := performJSON(t, router, http.MethodPut, "/api/listings/listing1", helpers.EditListingRequest{Title: "t", Description: "d"})
		require.Equal(t, http.StatusOK, w.Code)
		data := resp["data"].(map[string]any)
		require.Equal(t, "t", data["title"])
	})
}

// Test AddLikeHandler
func TestAddLikeHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockService := NewMockAuctionServiceInterface(ctrl)
	h := NewListingHandler(mockService, nil)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/api/listings/:listing_id/likes", identityStub("user1"), h.AddLikeHandler)

	t.Run("first_like_succeeds", func(t *testing.T) {
		mockService.EXPECT().
			AddLike("listing1", "user1").
			Return(model.Listing{ListingID: "listing1", Likes: []string{"user1"}}, nil)

		resp, w := performJSON(t, router, http.MethodPost, "/api/listings/listing1/likes", nil)
		require.Equal(t, http.StatusOK, w.Code)
		data := resp["data"].(map[string]any)
		require.Len(t, data["likes"], 1)
	})

	t.Run("duplicate_like_conflict", func(t *testing.T) {
		mockService.EXPECT().
			AddLike("listing1", "user1").
			Return(model.Listing{}, fmt.Errorf("service: %w", auctionerrors.ErrAlreadyLiked))

		resp, w := performJSON(t, router, http.MethodPost, "/api/listings/listing1/likes", nil)
		require.Equal(t, http.StatusConflict, w.Code)
		require.Equal(t, "already_liked", resp["reason"])
	})
}

// Test AddCommentHandler
func TestAddCommentHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockService := NewMockAuctionServiceInterface(ctrl)
	h := NewListingHandler(mockService, nil)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/api/listings/:listing_id/comments", identityStub("user1"), h.AddCommentHandler)

	t.Run("comment_created", func(t *testing.T) {
		mockService.EXPECT().
			AddComment("listing1", "user1", "lovely").
			Return(model.Comment{CommentID: "comment1", ListingID: "listing1", CreatorID: "user1", Body: "lovely"}, nil)

		resp, w := performJSON(t, router, http.MethodPost, "/api/listings/listing1/comments", helpers.AddCommentRequest{Comment: "lovely"})
		require.Equal(t, http.StatusCreated, w.Code)
		data := resp["data"].(map[string]any)
		require.Equal(t, "lovely", data["body"])
	})

	t.Run("missing_comment_body", func(t *testing.T) {
		resp, w := performJSON(t, router, http.MethodPost, "/api/listings/listing1/comments", map[string]any{})
		require.Equal(t, http.StatusBadRequest, w.Code)
		require.Equal(t, "validation", resp["reason"])
	})
}

// Test ListListingsHandler and CountListingsHandler
func TestListAndCountHandlers(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockService := NewMockAuctionServiceInterface(ctrl)
	h := NewListingHandler(mockService, nil)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/api/listings", h.ListListingsHandler)
	router.GET("/api/listings/count", h.CountListingsHandler)

	t.Run("list_passes_query_params", func(t *testing.T) {
		mockService.EXPECT().
			ListListings("", model.SortByRecency, 5, 10).
			Return([]model.ListingSummary{{ListingID: "listing1", LikeCount: 2}}, nil)

		resp, w := performJSON(t, router, http.MethodGet, "/api/listings?sort=1&skip=5&take=10", nil)
		require.Equal(t, http.StatusOK, w.Code)
		require.Len(t, resp["data"], 1)
	})

	t.Run("non_numeric_sort_rejected", func(t *testing.T) {
		resp, w := performJSON(t, router, http.MethodGet, "/api/listings?sort=likes", nil)
		require.Equal(t, http.StatusBadRequest, w.Code)
		require.Equal(t, "validation", resp["reason"])
	})

	t.Run("count", func(t *testing.T) {
		mockService.EXPECT().CountListings().Return(7, nil)

		resp, w := performJSON(t, router, http.MethodGet, "/api/listings/count", nil)
		require.Equal(t, http.StatusOK, w.Code)
		data := resp["data"].(map[string]any)
		require.Equal(t, float64(7), data["count"])
	})
}

// Test GetWinningBidHandler
func TestGetWinningBidHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockService := NewMockAuctionServiceInterface(ctrl)
	h := NewListingHandler(mockService, nil)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/api/listings/:listing_id/winning", h.GetWinningBidHandler)

	t.Run("winning_bid_found", func(t *testing.T) {
		mockService.EXPECT().
			GetWinningBid("listing1").
			Return(model.Bid{BidID: "bid1", ListingID: "listing1", BidderID: "user1", PriceValue: decimal.NewFromInt(42), CreatedAt: time.Now().UTC()}, nil)

		resp, w := performJSON(t, router, http.MethodGet, "/api/listings/listing1/winning", nil)
		require.Equal(t, http.StatusOK, w.Code)
		data := resp["data"].(map[string]any)
		require.Equal(t, "42", data["price_value"])
	})

	t.Run("no_bids", func(t *testing.T) {
		mockService.EXPECT().
			GetWinningBid("listing1").
			Return(model.Bid{}, fmt.Errorf("service: %w", auctionerrors.ErrNoBids))

		resp, w := performJSON(t, router, http.MethodGet, "/api/listings/listing1/winning", nil)
		require.Equal(t, http.StatusNotFound, w.Code)
		require.Equal(t, "no_bids", resp["reason"])
	})
}

package handler

import (
	"errors"
	"net/http"
	"time"

	"auction-house/internal/auctionerrors"
	"auction-house/services/auction/helpers"
	"auction-house/utils"

	"github.com/gin-gonic/gin"
)

// PlaceBidHandler handles POST /api/listings/:listing_id/bids
func (h *ListingHandler) PlaceBidHandler(c *gin.Context) {
	listingID := c.Param("listing_id")
	bidder := helpers.IdentityFrom(c)

	var req helpers.PlaceBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "PlaceBidHandler", err)
		return
	}

	bid, err := h.service.PlaceBid(listingID, bidder, req.PriceValue)
	if err != nil {
		var tooLow *auctionerrors.BidTooLowError
		if errors.As(err, &tooLow) {
			helpers.JSONBidTooLow(c, err, tooLow)
			utils.Info("PlaceBidHandler: bid below current price", map[string]any{
				"listing_id":    listingID,
				"bidder_id":     bidder,
				"current_price": tooLow.CurrentPrice.String(),
			})
			return
		}

		status, reason := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, reason, err)
		utils.Error("PlaceBidHandler: failed to admit bid", map[string]any{
			"listing_id": listingID,
			"bidder_id":  bidder,
			"error":      err.Error(),
		})
		return
	}

	resp := helpers.BidResponse{
		BidID:      bid.BidID,
		ListingID:  bid.ListingID,
		BidderID:   bid.BidderID,
		PriceValue: bid.PriceValue.String(),
		CreatedAt:  bid.CreatedAt.UTC().Format(time.RFC3339),
	}

	utils.JSONResponse(c, http.StatusCreated, resp, "bid admitted successfully")
	helpers.LogSuccess("PlaceBidHandler", "bid admitted successfully", map[string]any{
		"bid_id":      bid.BidID,
		"listing_id":  bid.ListingID,
		"bidder_id":   bidder,
		"price_value": bid.PriceValue.String(),
	})
}

// GetWinningBidHandler handles GET /api/listings/:listing_id/winning
func (h *ListingHandler) GetWinningBidHandler(c *gin.Context) {
	listingID := c.Param("listing_id")

	bid, err := h.service.GetWinningBid(listingID)
	if err != nil {
		status, reason := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, reason, err)
		if errors.Is(err, auctionerrors.ErrNoBids) {
			utils.Info("GetWinningBidHandler: no winning bid found", map[string]any{"listing_id": listingID})
		} else {
			utils.Warn("GetWinningBidHandler: winning bid error", map[string]any{"listing_id": listingID, "error": err.Error()})
		}
		return
	}

	resp := helpers.BidResponse{
		BidID:      bid.BidID,
		ListingID:  bid.ListingID,
		BidderID:   bid.BidderID,
		PriceValue: bid.PriceValue.String(),
		CreatedAt:  bid.CreatedAt.UTC().Format(time.RFC3339),
	}

	utils.JSONResponse(c, http.StatusOK, resp, "winning bid retrieved successfully")
	helpers.LogSuccess("GetWinningBidHandler", "winning bid retrieved successfully", map[string]any{
		"bid_id":     bid.BidID,
		"listing_id": bid.ListingID,
	})
}

// AddCommentHandler handles POST /api/listings/:listing_id/comments
func (h *ListingHandler) AddCommentHandler(c *gin.Context) {
	listingID := c.Param("listing_id")
	creator := helpers.IdentityFrom(c)

	var req helpers.AddCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "AddCommentHandler", err)
		return
	}

	comment, err := h.service.AddComment(listingID, creator, req.Comment)
	if err != nil {
		status, reason := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, reason, err)
		utils.Warn("AddCommentHandler: error adding comment", map[string]any{
			"listing_id": listingID,
			"creator_id": creator,
			"error":      err.Error(),
		})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, comment, "comment added successfully")
	helpers.LogSuccess("AddCommentHandler", "comment added successfully", map[string]any{
		"comment_id": comment.CommentID,
		"listing_id": listingID,
	})
}

// AddLikeHandler handles POST /api/listings/:listing_id/likes
func (h *ListingHandler) AddLikeHandler(c *gin.Context) {
	listingID := c.Param("listing_id")
	user := helpers.IdentityFrom(c)

	listing, err := h.service.AddLike(listingID, user)
	if err != nil {
		status, reason := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, reason, err)
		utils.Warn("AddLikeHandler: error adding like", map[string]any{
			"listing_id": listingID,
			"user_id":    user,
			"error":      err.Error(),
		})
		return
	}

	utils.JSONResponse(c, http.StatusOK, listing, "listing liked successfully")
	helpers.LogSuccess("AddLikeHandler", "listing liked successfully", map[string]any{
		"listing_id": listingID,
		"user_id":    user,
		"like_count": len(listing.Likes),
	})
}

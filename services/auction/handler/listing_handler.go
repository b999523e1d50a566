package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"auction-house/internal/imagestore"
	model "auction-house/internal/models"
	"auction-house/services/auction/helpers"
	"auction-house/utils"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type AuctionServiceInterface interface {
	CreateListing(creatorID, title, description string, startPrice decimal.Decimal, endTime time.Time, imageRef string) (model.Listing, error)
	PlaceBid(listingID, bidderID string, price decimal.Decimal) (model.Bid, error)
	ViewListing(listingID, requesterID string) (model.ListingView, error)
	ListListings(creatorID string, sortMode model.SortMode, skip, take int) ([]model.ListingSummary, error)
	LatestListings() ([]model.ListingSummary, error)
	EditListing(listingID, requesterID, title, description string) (model.Listing, error)
	DeleteListing(listingID, requesterID string) error
	CountListings() (int, error)
	GetWinningBid(listingID string) (model.Bid, error)
	AddComment(listingID, creatorID, body string) (model.Comment, error)
	AddLike(listingID, userID string) (model.Listing, error)
}

type ListingHandler struct {
	service AuctionServiceInterface
	images  imagestore.BlobStore
}

func NewListingHandler(service AuctionServiceInterface, images imagestore.BlobStore) *ListingHandler {
	return &ListingHandler{service: service, images: images}
}

// CreateListingHandler handles POST /api/listings (multipart form)
func (h *ListingHandler) CreateListingHandler(c *gin.Context) {
	var req helpers.CreateListingRequest
	if err := c.ShouldBind(&req); err != nil {
		helpers.HandleBindError(c, "CreateListingHandler", err)
		return
	}

	startPrice, err := decimal.NewFromString(req.StartPrice)
	if err != nil {
		helpers.HandleBindError(c, "CreateListingHandler", fmt.Errorf("start_price must be numeric: %w", err))
		return
	}
	endTime, err := time.Parse(time.RFC3339, req.EndTime)
	if err != nil {
		helpers.HandleBindError(c, "CreateListingHandler", fmt.Errorf("end_time must be RFC3339: %w", err))
		return
	}

	file, err := c.FormFile("image")
	if err != nil {
		helpers.HandleBindError(c, "CreateListingHandler", fmt.Errorf("image is required: %w", err))
		return
	}
	src, err := file.Open()
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "validation", fmt.Errorf("open image: %w", err))
		return
	}
	defer src.Close()

	imageRef, err := h.images.Save(file.Filename, src)
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "image_store_failure", err)
		utils.Error("CreateListingHandler: failed to store image", map[string]any{"error": err.Error()})
		return
	}

	creator := helpers.IdentityFrom(c)
	listing, err := h.service.CreateListing(creator, req.Title, req.Description, startPrice, endTime, imageRef)
	if err != nil {
		status, reason := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, reason, err)
		utils.Error("CreateListingHandler: failed to create listing", map[string]any{
			"creator_id": creator,
			"error":      err.Error(),
		})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, listing, "listing created successfully")
	helpers.LogSuccess("CreateListingHandler", "listing created successfully", map[string]any{
		"listing_id": listing.ListingID,
		"creator_id": creator,
	})
}

// ViewListingHandler handles GET /api/listings/:listing_id
func (h *ListingHandler) ViewListingHandler(c *gin.Context) {
	listingID := c.Param("listing_id")
	requester := helpers.IdentityFrom(c)

	view, err := h.service.ViewListing(listingID, requester)
	if err != nil {
		status, reason := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, reason, err)
		utils.Warn("ViewListingHandler: error retrieving listing", map[string]any{"listing_id": listingID, "error": err.Error()})
		return
	}

	utils.JSONResponse(c, http.StatusOK, view, "listing retrieved successfully")
	helpers.LogSuccess("ViewListingHandler", "listing retrieved successfully", map[string]any{
		"listing_id": listingID,
		"is_owner":   view.IsOwner,
	})
}

// ListListingsHandler handles GET /api/listings?sort=0|1&skip=&take=&creator=
func (h *ListingHandler) ListListingsHandler(c *gin.Context) {
	sortMode, err := strconv.Atoi(c.DefaultQuery("sort", "0"))
	if err != nil {
		helpers.HandleBindError(c, "ListListingsHandler", fmt.Errorf("sort must be numeric: %w", err))
		return
	}
	skip, err := strconv.Atoi(c.DefaultQuery("skip", "0"))
	if err != nil {
		helpers.HandleBindError(c, "ListListingsHandler", fmt.Errorf("skip must be numeric: %w", err))
		return
	}
	take, err := strconv.Atoi(c.DefaultQuery("take", "0"))
	if err != nil {
		helpers.HandleBindError(c, "ListListingsHandler", fmt.Errorf("take must be numeric: %w", err))
		return
	}

	summaries, err := h.service.ListListings(c.Query("creator"), model.SortMode(sortMode), skip, take)
	if err != nil {
		status, reason := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, reason, err)
		utils.Warn("ListListingsHandler: error listing listings", map[string]any{"error": err.Error()})
		return
	}

	utils.JSONResponse(c, http.StatusOK, summaries, "listings retrieved successfully")
	helpers.LogSuccess("ListListingsHandler", "listings retrieved successfully", map[string]any{
		"count": len(summaries),
	})
}

// LatestListingsHandler handles GET /api/listings/latest
func (h *ListingHandler) LatestListingsHandler(c *gin.Context) {
	summaries, err := h.service.LatestListings()
	if err != nil {
		status, reason := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, reason, err)
		utils.Warn("LatestListingsHandler: error retrieving latest listings", map[string]any{"error": err.Error()})
		return
	}

	utils.JSONResponse(c, http.StatusOK, summaries, "latest listings retrieved successfully")
	helpers.LogSuccess("LatestListingsHandler", "latest listings retrieved successfully", map[string]any{
		"count": len(summaries),
	})
}

// CountListingsHandler handles GET /api/listings/count
func (h *ListingHandler) CountListingsHandler(c *gin.Context) {
	count, err := h.service.CountListings()
	if err != nil {
		status, reason := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, reason, err)
		utils.Warn("CountListingsHandler: error counting listings", map[string]any{"error": err.Error()})
		return
	}

	utils.JSONResponse(c, http.StatusOK, gin.H{"count": count}, "listing count retrieved successfully")
}

// EditListingHandler handles PUT /api/listings/:listing_id
func (h *ListingHandler) EditListingHandler(c *gin.Context) {
	listingID := c.Param("listing_id")
	requester := helpers.IdentityFrom(c)

	var req helpers.EditListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "EditListingHandler", err)
		return
	}

	listing, err := h.service.EditListing(listingID, requester, req.Title, req.Description)
	if err != nil {
		status, reason := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, reason, err)
		utils.Warn("EditListingHandler: error editing listing", map[string]any{
			"listing_id":   listingID,
			"requester_id": requester,
			"error":        err.Error(),
		})
		return
	}

	utils.JSONResponse(c, http.StatusOK, listing, "listing updated successfully")
	helpers.LogSuccess("EditListingHandler", "listing updated successfully", map[string]any{
		"listing_id": listingID,
	})
}

// DeleteListingHandler handles DELETE /api/listings/:listing_id
func (h *ListingHandler) DeleteListingHandler(c *gin.Context) {
	listingID := c.Param("listing_id")
	requester := helpers.IdentityFrom(c)

	if err := h.service.DeleteListing(listingID, requester); err != nil {
		status, reason := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, reason, err)
		utils.Warn("DeleteListingHandler: error deleting listing", map[string]any{
			"listing_id":   listingID,
			"requester_id": requester,
			"error":        err.Error(),
		})
		return
	}

	utils.JSONResponse(c, http.StatusOK, gin.H{"listing_id": listingID}, "listing deleted successfully")
	helpers.LogSuccess("DeleteListingHandler", "listing deleted successfully", map[string]any{
		"listing_id": listingID,
	})
}

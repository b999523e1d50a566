package server

import (
	auction "auction-house/internal/auctionService"
	"auction-house/internal/auth"
	"auction-house/internal/config"
	"auction-house/internal/imagestore"
	"auction-house/internal/metrics"
	handler "auction-house/services/auction/handler"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// SetupRouter configures all Gin routes for the application
func SetupRouter(auctionService *auction.AuctionService, images imagestore.BlobStore, verifier *auth.Verifier, registry *prometheus.Registry, cfg *config.Config) *gin.Engine {
	router := gin.New() // New router without default middleware for full control over middleware and logging

	router.Use(gin.Recovery())          // recover from panics
	router.Use(RequestLoggerMiddleware) // custom request logging
	router.Use(MetricsMiddleware)

	listingHandler := handler.NewListingHandler(auctionService, images)

	api := router.Group("/api")

	listings := api.Group("/listings")
	{
		listings.GET("", listingHandler.ListListingsHandler)
		listings.GET("/latest", listingHandler.LatestListingsHandler)
		listings.GET("/count", listingHandler.CountListingsHandler)
		listings.GET("/:listing_id", OptionalIdentity(verifier), listingHandler.ViewListingHandler)
		listings.GET("/:listing_id/winning", listingHandler.GetWinningBidHandler)

		listings.POST("", RequireIdentity(verifier), listingHandler.CreateListingHandler)
		listings.PUT("/:listing_id", RequireIdentity(verifier), listingHandler.EditListingHandler)
		listings.DELETE("/:listing_id", RequireIdentity(verifier), listingHandler.DeleteListingHandler)

		listings.POST("/:listing_id/bids", RequireIdentity(verifier), listingHandler.PlaceBidHandler)
		listings.POST("/:listing_id/comments", RequireIdentity(verifier), listingHandler.AddCommentHandler)
		listings.POST("/:listing_id/likes", RequireIdentity(verifier), listingHandler.AddLikeHandler)
	}

	if registry != nil {
		router.GET(cfg.MetricsPath, gin.WrapH(metrics.Handler(registry)))
	}

	return router
}

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	auction "auction-house/internal/auctionService"
	"auction-house/internal/auth"
	"auction-house/internal/config"
	"auction-house/internal/imagestore"
	"auction-house/internal/metrics"
	"auction-house/internal/repository"
	"auction-house/internal/server"
	"auction-house/utils"

	"github.com/prometheus/client_golang/prometheus"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func main() {
	cfg, err := config.Load(os.Getenv("AUCTION_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	utils.SetLogLevel(cfg.LogLevel)

	store, err := buildStore(cfg)
	if err != nil {
		utils.Fatal("failed to initialize store", map[string]any{"driver": cfg.Store.Driver, "error": err.Error()})
	}

	images, err := imagestore.NewDiskStore(cfg.Uploads)
	if err != nil {
		utils.Fatal("failed to initialize image store", map[string]any{"dir": cfg.Uploads.Dir, "error": err.Error()})
	}

	registry := prometheus.NewRegistry()
	metrics.Register(registry)

	auctionSvc := auction.NewAuctionService(store, cfg.Listings)
	verifier := auth.NewVerifier(cfg.Auth.JWTSecret)

	router := server.SetupRouter(auctionSvc, images, verifier, registry, cfg)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	utils.Info("starting auction server", map[string]any{"addr": addr, "store": cfg.Store.Driver})
	if err := srv.ListenAndServe(); err != nil {
		utils.Fatal("server stopped", map[string]any{"error": err.Error()})
	}
}

// buildStore selects the persistence backend from config.
func buildStore(cfg *config.Config) (repository.AuctionStore, error) {
	switch cfg.Store.Driver {
	case "mongo":
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Store.OpTimeout)
		defer cancel()

		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Store.MongoURI))
		if err != nil {
			return nil, fmt.Errorf("connect mongo: %w", err)
		}
		if err := client.Ping(ctx, nil); err != nil {
			return nil, fmt.Errorf("ping mongo: %w", err)
		}
		return repository.NewMongoStore(client, cfg.Store.MongoDatabase, cfg.Store.OpTimeout), nil
	default:
		return repository.NewMemoryStore(), nil
	}
}

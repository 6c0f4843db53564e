package repository

import (
	"context"
	"time"

	"auctionhouse-api/internal/auction"
	"auctionhouse-api/internal/model"
)

// BidCommit is an accepted bid together with the auction state it was
// validated against. The store applies it only if that state is still current.
type BidCommit struct {
	Bid      model.Bid
	Decision auction.BidDecision
}

// Stats summarizes marketplace activity.
type Stats struct {
	AuctionsByStatus map[model.Status]int64 `json:"auctions_by_status"`
	TotalBids        int64                  `json:"total_bids"`
	TotalItems       int64                  `json:"total_items"`
}

// AuctionRepository defines auction, item and bid data access methods.
type AuctionRepository interface {
	// CreateListing inserts the item and its auction in one transaction.
	CreateListing(ctx context.Context, item model.Item, a model.Auction) error

	// GetAuction returns the auction with the given id or auction.ErrNotFound.
	GetAuction(ctx context.Context, id string) (*model.Auction, error)

	// GetItem returns the item with the given id or auction.ErrNotFound.
	GetItem(ctx context.Context, id string) (*model.Item, error)

	// GetListing returns an auction joined with its item.
	GetListing(ctx context.Context, auctionID string) (*model.Listing, error)

	// ListListings returns listings matching the filter, newest first.
	ListListings(ctx context.Context, filter model.AuctionFilter) ([]model.Listing, error)

	// UpdateItem stores seller-editable item metadata.
	UpdateItem(ctx context.Context, item model.Item) error

	// UpdateStatusIf writes next only if the stored status is still expected.
	// It reports whether a row changed.
	UpdateStatusIf(ctx context.Context, expected model.Status, next model.Auction) (bool, error)

	// ApplyBid appends the bid and moves the auction price with a
	// compare-and-set. A lost race yields auction.ErrConcurrentBid.
	ApplyBid(ctx context.Context, c BidCommit) (*model.Auction, error)

	// ListBids returns the bids on an auction, highest first.
	ListBids(ctx context.Context, auctionID string, limit, offset int) ([]model.Bid, error)

	// CountBids returns the number of bids on an auction.
	CountBids(ctx context.Context, auctionID string) (int, error)

	// ListBidsByBidder returns a bidder's bids, newest first.
	ListBidsByBidder(ctx context.Context, bidderID string, limit, offset int) ([]model.Bid, error)

	// ListExpired returns ids of live auctions whose end time is at or before now.
	ListExpired(ctx context.Context, now time.Time, limit int) ([]string, error)

	// Finalize ends an expired live auction and records its winner. It reports
	// false when another worker got there first.
	Finalize(ctx context.Context, auctionID string, now time.Time) (*model.Auction, bool, error)

	// Stats returns marketplace counters.
	Stats(ctx context.Context) (*Stats, error)
}

// RoleRepository is the single source of truth for role assignments.
type RoleRepository interface {
	HasRole(ctx context.Context, userID string, role model.Role) (bool, error)
	GrantRole(ctx context.Context, ra model.RoleAssignment) error
	RevokeRole(ctx context.Context, userID string, role model.Role) error
	ListRoles(ctx context.Context, userID string) ([]model.Role, error)
}

// ProfileRepository defines profile data access methods.
type ProfileRepository interface {
	UpsertProfile(ctx context.Context, p model.Profile) error
	GetProfile(ctx context.Context, id string) (*model.Profile, error)
}

// WatchlistRepository defines watchlist data access methods. Add and Remove
// are idempotent.
type WatchlistRepository interface {
	AddWatch(ctx context.Context, e model.WatchlistEntry) error
	RemoveWatch(ctx context.Context, userID, auctionID string) error
	ListWatched(ctx context.Context, userID string) ([]model.Listing, error)
	IsWatching(ctx context.Context, userID, auctionID string) (bool, error)
}

// Store bundles every repository behind one connection.
type Store interface {
	AuctionRepository
	RoleRepository
	ProfileRepository
	WatchlistRepository

	// Ping checks the connection.
	Ping(ctx context.Context) error

	// Close closes the repository connection.
	Close() error
}

package service

import (
	"context"
	"time"

	"auctionhouse-api/internal/auction"
	"auctionhouse-api/internal/model"
	"auctionhouse-api/internal/repository"
)

// ListingConfig tunes the listing read side.
type ListingConfig struct {
	RecentlyEndedWindow time.Duration
}

// ListingService creates, edits and reads listings, and keeps watchlists.
type ListingService struct {
	repo      repository.AuctionRepository
	watchlist repository.WatchlistRepository
	cfg       ListingConfig
	events    emitter
	now       func() time.Time
}

// NewListingService creates a listing service.
func NewListingService(repo repository.AuctionRepository, watchlist repository.WatchlistRepository, cfg ListingConfig, opts Options) *ListingService {
	opts = opts.withDefaults()
	if cfg.RecentlyEndedWindow <= 0 {
		cfg.RecentlyEndedWindow = auction.DefaultRecentlyEndedWindow
	}
	return &ListingService{
		repo:      repo,
		watchlist: watchlist,
		cfg:       cfg,
		events:    newEmitter(opts, "listing"),
		now:       opts.Clock,
	}
}

// CreateListing validates the submission and stores the item and its auction
// together. Non-draft listings go straight to the moderation queue.
func (s *ListingService) CreateListing(ctx context.Context, sellerID string, in auction.ListingInput) (*model.Listing, error) {
	now := s.now()
	item, a, err := auction.NewListing(sellerID, in, now)
	if err != nil {
		return nil, err
	}
	if err := s.repo.CreateListing(ctx, item, a); err != nil {
		return nil, err
	}
	if a.Status == model.StatusPending {
		s.events.emit(ctx, model.EventAuctionSubmitted, &a, nil, now)
	}
	return &model.Listing{Auction: &a, Item: &item}, nil
}

// SubmitDraft sends a seller's draft to moderation.
func (s *ListingService) SubmitDraft(ctx context.Context, auctionID, actorID string) (*model.Auction, error) {
	a, err := s.repo.GetAuction(ctx, auctionID)
	if err != nil {
		return nil, err
	}
	if a.SellerID != actorID {
		return nil, auction.ErrForbidden
	}

	now := s.now()
	next, err := auction.Submit(*a, now)
	if err != nil {
		return nil, err
	}
	ok, err := s.repo.UpdateStatusIf(ctx, model.StatusDraft, next)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, auction.ErrInvalidTransition
	}
	s.events.emit(ctx, model.EventAuctionSubmitted, &next, nil, now)
	return &next, nil
}

// UpdateItem edits item metadata. Only the seller may edit, and prices are
// not editable here.
func (s *ListingService) UpdateItem(ctx context.Context, itemID, actorID string, upd auction.ItemUpdate) (*model.Item, error) {
	item, err := s.repo.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	updated, err := auction.ApplyItemUpdate(*item, actorID, upd, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateItem(ctx, updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// GetAuction returns the read model of one auction. Drafts are visible to
// their seller only.
func (s *ListingService) GetAuction(ctx context.Context, auctionID, viewerID string) (*model.AuctionView, error) {
	l, err := s.repo.GetListing(ctx, auctionID)
	if err != nil {
		return nil, err
	}
	if l.Auction.Status == model.StatusDraft && l.Auction.SellerID != viewerID {
		return nil, auction.ErrNotFound
	}
	v, err := s.view(ctx, *l, s.now())
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// ListQuery selects auctions for browsing.
type ListQuery struct {
	Status model.Status // empty means live plus recently ended
	Recent bool         // restrict ended auctions to the recently-ended window
	Limit  int
	Offset int
}

// ListAuctions returns public auction views. Pending, draft and cancelled
// auctions are not browsable.
func (s *ListingService) ListAuctions(ctx context.Context, q ListQuery) ([]model.AuctionView, error) {
	now := s.now()
	filter := model.AuctionFilter{Limit: q.Limit, Offset: q.Offset}

	switch q.Status {
	case "":
		filter.Statuses = []model.Status{model.StatusLive, model.StatusEnded}
		since := now.Add(-s.cfg.RecentlyEndedWindow)
		filter.EndedSince = &since
	case model.StatusLive, model.StatusEnded:
		filter.Statuses = []model.Status{q.Status}
		if q.Recent && q.Status == model.StatusEnded {
			since := now.Add(-s.cfg.RecentlyEndedWindow)
			filter.EndedSince = &since
		}
	default:
		return nil, &auction.ValidationError{Fields: []auction.FieldError{{Field: "status", Message: "must be live or ended"}}}
	}

	listings, err := s.repo.ListListings(ctx, filter)
	if err != nil {
		return nil, err
	}
	return s.views(ctx, listings, now)
}

// SellerListings returns every listing of a seller, drafts included.
func (s *ListingService) SellerListings(ctx context.Context, sellerID string, limit, offset int) ([]model.AuctionView, error) {
	listings, err := s.repo.ListListings(ctx, model.AuctionFilter{SellerID: sellerID, Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	return s.views(ctx, listings, s.now())
}

// ListBids returns an auction's bids, highest first.
func (s *ListingService) ListBids(ctx context.Context, auctionID string, limit, offset int) ([]model.Bid, error) {
	if _, err := s.repo.GetAuction(ctx, auctionID); err != nil {
		return nil, err
	}
	return s.repo.ListBids(ctx, auctionID, limit, offset)
}

// BidderHistory returns a user's bids, newest first.
func (s *ListingService) BidderHistory(ctx context.Context, bidderID string, limit, offset int) ([]model.Bid, error) {
	return s.repo.ListBidsByBidder(ctx, bidderID, limit, offset)
}

// Watch adds an auction to the user's watchlist. Watching twice is a no-op.
func (s *ListingService) Watch(ctx context.Context, userID, auctionID string) error {
	if _, err := s.repo.GetAuction(ctx, auctionID); err != nil {
		return err
	}
	return s.watchlist.AddWatch(ctx, model.WatchlistEntry{UserID: userID, AuctionID: auctionID, CreatedAt: s.now()})
}

// IsWatching reports whether userID watches auctionID.
func (s *ListingService) IsWatching(ctx context.Context, userID, auctionID string) (bool, error) {
	if userID == "" {
		return false, nil
	}
	return s.watchlist.IsWatching(ctx, userID, auctionID)
}

// Unwatch removes an auction from the user's watchlist.
func (s *ListingService) Unwatch(ctx context.Context, userID, auctionID string) error {
	return s.watchlist.RemoveWatch(ctx, userID, auctionID)
}

// Watchlist returns the auctions a user watches.
func (s *ListingService) Watchlist(ctx context.Context, userID string) ([]model.AuctionView, error) {
	listings, err := s.watchlist.ListWatched(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.views(ctx, listings, s.now())
}

func (s *ListingService) views(ctx context.Context, listings []model.Listing, now time.Time) ([]model.AuctionView, error) {
	views := make([]model.AuctionView, 0, len(listings))
	for _, l := range listings {
		v, err := s.view(ctx, l, now)
		if err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	return views, nil
}

// view builds the read model from the leading bid and the bid count.
func (s *ListingService) view(ctx context.Context, l model.Listing, now time.Time) (model.AuctionView, error) {
	top, err := s.repo.ListBids(ctx, l.Auction.ID, 1, 0)
	if err != nil {
		return model.AuctionView{}, err
	}
	count, err := s.repo.CountBids(ctx, l.Auction.ID)
	if err != nil {
		return model.AuctionView{}, err
	}
	v := auction.BuildView(l, top, now, s.cfg.RecentlyEndedWindow)
	v.BidCount = count
	return v, nil
}

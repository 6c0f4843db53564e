package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"auctionhouse-api/internal/auction"
	"auctionhouse-api/internal/metrics"
	"auctionhouse-api/internal/model"
	"auctionhouse-api/internal/repository"
	"auctionhouse-api/pkg/logging"
	"auctionhouse-api/pkg/uid"
)

// BidResult is an accepted bid and the auction state it produced.
type BidResult struct {
	Bid      model.Bid      `json:"bid"`
	Auction  *model.Auction `json:"auction"`
	Extended bool           `json:"extended"`
}

// BiddingService accepts bids and buy-now purchases.
type BiddingService struct {
	repo    repository.AuctionRepository
	policy  auction.AntiSnipingPolicy
	events  emitter
	metrics *metrics.Metrics
	now     func() time.Time
	log     *slog.Logger
}

// NewBiddingService creates a bidding service. A zero window disables anti-sniping.
func NewBiddingService(repo repository.AuctionRepository, snipingWindow time.Duration, opts Options) *BiddingService {
	opts = opts.withDefaults()
	return &BiddingService{
		repo:    repo,
		policy:  auction.AntiSnipingPolicy{Window: snipingWindow},
		events:  newEmitter(opts, "bidding"),
		metrics: opts.Metrics,
		now:     opts.Clock,
		log:     logging.Component("bidding"),
	}
}

type decideFunc func(a *model.Auction, now time.Time) (auction.BidDecision, error)

// PlaceBid validates a bid against the current auction state and commits it
// atomically. When another bid lands between the read and the commit, the
// auction is re-read and the bid re-validated once; a second conflict is
// returned to the caller as auction.ErrConcurrentBid.
func (s *BiddingService) PlaceBid(ctx context.Context, auctionID, bidderID string, amount decimal.Decimal) (*BidResult, error) {
	return s.commit(ctx, auctionID, bidderID, func(a *model.Auction, now time.Time) (auction.BidDecision, error) {
		return auction.ValidateBid(a, bidderID, amount, now, s.policy)
	})
}

// BuyNow ends the auction immediately at its buy-now price with buyerID as winner.
func (s *BiddingService) BuyNow(ctx context.Context, auctionID, buyerID string) (*BidResult, error) {
	return s.commit(ctx, auctionID, buyerID, func(a *model.Auction, now time.Time) (auction.BidDecision, error) {
		return auction.BuyNow(a, buyerID, now)
	})
}

func (s *BiddingService) commit(ctx context.Context, auctionID, bidderID string, decide decideFunc) (*BidResult, error) {
	const attempts = 2

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		a, err := s.repo.GetAuction(ctx, auctionID)
		if err != nil {
			s.countBid(err)
			return nil, err
		}

		now := s.now()
		d, err := decide(a, now)
		if err != nil {
			s.countBid(err)
			return nil, err
		}

		bid := model.Bid{
			ID:        uid.NewSortable(now),
			AuctionID: a.ID,
			BidderID:  bidderID,
			Amount:    d.NewPrice,
			CreatedAt: now,
		}
		updated, err := s.repo.ApplyBid(ctx, repository.BidCommit{Bid: bid, Decision: d})
		if errors.Is(err, auction.ErrConcurrentBid) {
			lastErr = err
			s.log.Debug("bid lost compare-and-set", "auction", auctionID, "attempt", attempt)
			continue
		}
		if err != nil {
			s.countBid(err)
			return nil, err
		}

		s.metrics.Bids.WithLabelValues(metrics.ResultAccepted).Inc()
		s.events.emit(ctx, model.EventBidPlaced, updated, &bid, now)
		if d.Extended {
			s.events.emit(ctx, model.EventAuctionExtended, updated, nil, now)
		}
		if d.EndsAuction {
			s.events.emit(ctx, model.EventAuctionEnded, updated, &bid, now)
		}
		return &BidResult{Bid: bid, Auction: updated, Extended: d.Extended}, nil
	}

	s.countBid(lastErr)
	return nil, lastErr
}

func (s *BiddingService) countBid(err error) {
	result := metrics.ResultError
	switch auction.KindOf(err) {
	case auction.KindValidation, auction.KindAuthorization, auction.KindNotFound:
		result = metrics.ResultRejected
	case auction.KindConflict:
		result = metrics.ResultConflict
	}
	s.metrics.Bids.WithLabelValues(result).Inc()
}
